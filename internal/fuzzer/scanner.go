package fuzzer

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Scanner is pluggable per-mode logic: it may augment/filter Results
// and formats a one-line CLI rendering of a matched Result.
type Scanner interface {
	// InspectResult may augment result.Custom. Implementations must not
	// touch plumbing already populated by the Requester (e.g. "ip" for
	// SubdomainScanner) — see spec.md §4.7.
	InspectResult(result *Result)
	// Scan is scanner-local accept/reject, AND-ed with Matcher.Match by
	// the Fuzzer.
	Scan(result *Result) bool
	// CLICallback formats the one-line CLI output for a matched result.
	CLICallback(result *Result) string
}

// extractTitle pulls the first <title> text from an HTML body using
// golang.org/x/net/html, the same tokenizer the teacher imports in
// web_crawler.go/web_form_fuzzer.go — repurposed here from crawling
// (a non-goal) into CLI result annotation (SPEC_FULL.md §2).
func extractTitle(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				return ""
			}
		}
	}
}

// baseCLILine renders the shared payload/RTT/length/words/lines
// columns plus status and an optional title, grounded on
// ResultUtils.get_formated_result.
func baseCLILine(result *Result, extra string) string {
	title := extractTitle(result.Body)
	line := fmt.Sprintf("%d %s", result.Status, FormatResultLine(result.Payload.Final, result.RTT, result.BodyLength, result.Words, result.Lines))
	if title != "" {
		line += " title:\"" + title + "\""
	}
	if extra != "" {
		line += " " + extra
	}
	return line
}

// PathScanner is the default scanner for PathFuzzing.
type PathScanner struct{}

func (PathScanner) InspectResult(*Result) {}
func (PathScanner) Scan(*Result) bool     { return true }
func (PathScanner) CLICallback(r *Result) string {
	return baseCLILine(r, "")
}

// SubdomainScanner is a no-op for InspectResult — the requester has
// already attached the IP to result.Custom — but renders it in the
// CLI line (spec.md §4.7; subdomain rendering grounded on
// SubdomainScanner.cliCallback in original_source).
type SubdomainScanner struct{}

func (SubdomainScanner) InspectResult(*Result) {}
func (SubdomainScanner) Scan(*Result) bool     { return true }
func (SubdomainScanner) CLICallback(r *Result) string {
	ip, _ := r.Custom["ip"].(string)
	return baseCLILine(r, fmt.Sprintf("ip:%15s", ip))
}

// DataScanner is the default scanner for DataFuzzing.
type DataScanner struct{}

func (DataScanner) InspectResult(*Result) {}
func (DataScanner) Scan(*Result) bool     { return true }
func (DataScanner) CLICallback(r *Result) string {
	return baseCLILine(r, "")
}

// MethodScanner is the default scanner for MethodFuzzing: its CLI line
// highlights the HTTP method that was injected in place of the verb.
type MethodScanner struct{}

func (MethodScanner) InspectResult(*Result) {}
func (MethodScanner) Scan(*Result) bool     { return true }
func (MethodScanner) CLICallback(r *Result) string {
	return baseCLILine(r, "method:"+r.Method)
}

// ScannerFor returns the default Scanner for a Mode, used when the CLI
// collaborator doesn't load a named plugin from the registry.
func ScannerFor(mode Mode) Scanner {
	switch mode {
	case SubdomainFuzzing:
		return SubdomainScanner{}
	case MethodFuzzing:
		return MethodScanner{}
	case DataFuzzing:
		return DataScanner{}
	default:
		return PathScanner{}
	}
}
