package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projectdiscovery/gologger"

	"fuzzer/internal/fuzzer"
	"fuzzer/internal/rawhttp"
	"fuzzer/internal/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := parseFlags()

	// Every invocation gets its own run ID so -o report records can be
	// correlated back to the log lines from the same run (spec.md §3
	// supplemented feature: report/log correlation).
	runID := uuid.New().String()
	gologger.Info().Msgf("run %s starting", runID)

	target, err := buildTarget(cfg)
	if err != nil {
		gologger.Fatal().Msgf("configuration error: %s", err)
	}

	transform, err := buildTransform(cfg)
	if err != nil {
		gologger.Fatal().Msgf("configuration error: %s", err)
	}

	raw, err := buildRawWordlist(cfg)
	if err != nil {
		gologger.Fatal().Msgf("configuration error: %s", err)
	}
	dictionary := fuzzer.NewDictionary(raw, transform, cfg.uniqueWordlist)
	if dictionary.Len() == 0 {
		gologger.Fatal().Msg("the generated wordlist is empty")
	}
	if dictionary.Removed() > 0 {
		gologger.Info().Msgf("dropped %d duplicate wordlist entries", dictionary.Removed())
	}

	mode := fuzzer.NewInjector(target).Mode
	matcher, err := buildMatcher(cfg, mode)
	if err != nil {
		gologger.Fatal().Msgf("configuration error: %s", err)
	}

	blacklist, err := buildBlacklist(cfg)
	if err != nil {
		gologger.Fatal().Msgf("configuration error: %s", err)
	}

	registry := fuzzer.NewRegistry()
	scanner, err := buildScanner(cfg, registry, mode, target)
	if err != nil {
		gologger.Fatal().Msgf("configuration error: %s", err)
	}

	var writer *report.Writer
	if cfg.output != "" {
		writer, err = report.New(cfg.output)
		if err != nil {
			gologger.Fatal().Msgf("configuration error: %s", err)
		}
		writer.SetRunID(runID)
	}

	requesterConfig := fuzzer.RequesterConfig{
		Timeout:         cfg.timeout,
		Proxies:         cfg.proxies,
		FollowRedirects: cfg.followRedirects,
		Cookie:          cfg.cookie,
	}

	if !cfg.simpleOutput {
		printBanner()
	}

	ctx := context.Background()
	resultSink := &cliResultSink{scanner: scanner, writer: writer, verbose: cfg.verbose, simple: cfg.simpleOutput}
	errorSink := &cliErrorSink{ignoreErrors: cfg.ignoreErrors}

	exitCode := 0
	// The Result index is a single counter spanning every method in
	// this target run (spec.md §3, "reset at the start of each
	// target" — not each method); each iteration seeds its Fuzzer with
	// where the previous method's counter left off.
	var nextIndex uint64
	stopped := false
	// One Requester (and Injector) per method: Inject always sends its
	// Target's Methods[0], so a distinct Target value is built per HTTP
	// method in the set. The one Dictionary is shared and reloaded before
	// each method's pass.
	for i, method := range target.Methods {
		methodTarget := *target
		methodTarget.Methods = []string{method}

		var requester fuzzer.Requester
		if mode == fuzzer.SubdomainFuzzing {
			requester = fuzzer.NewSubdomainRequester(&methodTarget, requesterConfig, nil)
		} else {
			requester = fuzzer.NewBaseRequester(&methodTarget, requesterConfig)
		}

		if i == 0 {
			if err := requester.TestConnection(ctx); err != nil {
				gologger.Error().Msgf("connection test failed: %s", err)
				if !cfg.ignoreErrors {
					return 1
				}
			}
		}

		engine := fuzzer.NewFuzzer(dictionary, requester, matcher, scanner, blacklist,
			fuzzer.EngineConfig{Workers: cfg.threads, Delay: cfg.delay}, resultSink, errorSink)
		engine.SetStartIndex(nextIndex)
		errorSink.SetEngine(engine)
		dictionary.Reload()

		engine.Start(ctx)
		for engine.Join() {
			if action := engine.StopAction(); action != nil {
				gologger.Info().Msgf("stopping: %s", action.Error())
				stopped = true
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err := engine.Err(); err != nil {
			gologger.Error().Msgf("fuzzer stopped on unexpected error: %s", err)
			exitCode = 1
		}
		nextIndex = engine.NextIndex()
		errorSink.SetEngine(nil)
		if stopped {
			break
		}
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			gologger.Error().Msgf("closing report: %s", err)
			exitCode = 1
		}
	}

	gologger.Info().Msgf("run %s done: %d/%d requests matched", runID, resultSink.Matched(), resultSink.Total())
	return exitCode
}

func buildTarget(cfg *cliConfig) (*fuzzer.Target, error) {
	var rawURL, body string
	headers := make(map[string]string)
	methods := cfg.methods

	switch {
	case cfg.rawFile != "":
		data, err := os.ReadFile(cfg.rawFile)
		if err != nil {
			return nil, fmt.Errorf("raw request file: %w", err)
		}
		parsed, err := rawhttp.Parse(string(data))
		if err != nil {
			return nil, err
		}
		scheme := cfg.scheme
		if scheme == "" {
			scheme = "https"
		}
		rawURL = parsed.URL(scheme)
		body = parsed.Body
		headers = parsed.Headers
		if len(methods) == 0 {
			methods = []string{parsed.Method}
		}
	case cfg.url != "":
		rawURL = cfg.url
		body = cfg.data
	default:
		return nil, fmt.Errorf("one of -u or -r is required")
	}

	for _, h := range cfg.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q, want Name:Value", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return fuzzer.NewTarget(rawURL, methods, headers, body, cfg.marker), nil
}

func buildTransform(cfg *cliConfig) (fuzzer.PayloadTransform, error) {
	transform := fuzzer.PayloadTransform{
		Prefixes: cfg.prefixes,
		Suffixes: cfg.suffixes,
	}
	switch {
	case cfg.lower:
		transform.Case = fuzzer.CaseLower
	case cfg.upper:
		transform.Case = fuzzer.CaseUpper
	case cfg.capitalize:
		transform.Case = fuzzer.CaseCapitalize
	}

	for _, spec := range cfg.encoders {
		var chain fuzzer.EncoderChain
		for _, part := range strings.Split(spec, ",") {
			name, param, regexSpec := parseEncoderSpec(part)
			var scope fuzzer.EncoderScope
			if regexSpec != "" {
				re, err := regexp.Compile(regexSpec)
				if err != nil {
					return transform, fmt.Errorf("invalid encoder scope regex %q: %w", regexSpec, err)
				}
				scope.Regex = re
			}
			enc, ok := fuzzer.BuildEncoder(name, param, scope)
			if !ok {
				return transform, fmt.Errorf("unknown encoder %q, available: %s", name, strings.Join(fuzzer.EncoderNames(), ", "))
			}
			chain = append(chain, enc)
		}
		if len(chain) == 1 {
			transform.Default = append(transform.Default, chain[0])
		} else {
			transform.Chains = append(transform.Chains, chain)
		}
	}
	return transform, nil
}

func buildRawWordlist(cfg *cliConfig) ([]string, error) {
	var raw []string
	for _, spec := range cfg.wordlists {
		entries, err := parseWordlistEntry(spec)
		if err != nil {
			return nil, err
		}
		raw = append(raw, entries...)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one -w wordlist is required")
	}
	return raw, nil
}

func buildMatcher(cfg *cliConfig, mode fuzzer.Mode) (*fuzzer.Matcher, error) {
	allowed := fuzzer.DefaultAllowedStatus()
	if mode == fuzzer.MethodFuzzing || mode == fuzzer.DataFuzzing {
		allowed = fuzzer.DefaultAllowedStatusDataMode()
	}
	if cfg.matchCodes != "" {
		list, lo, hi, hasRange, err := parseStatusCodes(cfg.matchCodes)
		if err != nil {
			return nil, err
		}
		allowed = fuzzer.AllowedStatus{List: list}
		if hasRange {
			allowed.Range = &fuzzer.StatusRange{Low: lo, High: hi}
		}
	}

	var comparator fuzzer.Comparator
	if cfg.matchLength > 0 {
		length := cfg.matchLength
		comparator.Length = &length
	}
	if cfg.matchTime > 0 {
		t := cfg.matchTime
		comparator.Time = &t
	}
	return fuzzer.NewMatcher(allowed, comparator), nil
}

func buildBlacklist(cfg *cliConfig) (*fuzzer.BlacklistStatus, error) {
	if cfg.blacklistStatus == "" {
		return nil, nil
	}
	codes, actionName, param, err := parseBlacklistSpec(cfg.blacklistStatus)
	if err != nil {
		return nil, err
	}
	var action fuzzer.BlacklistAction
	switch strings.ToLower(actionName) {
	case "stop":
		action = fuzzer.ActionStop
	case "wait":
		action = fuzzer.ActionWait
	default:
		return nil, fmt.Errorf("unknown blacklist action %q, want stop or wait", actionName)
	}
	callbacks := fuzzer.BlacklistCallbacks{
		OnStop: func(status int) {
			gologger.Info().Msgf("blacklisted status %d triggered stop", status)
		},
		OnWait: func(status int, seconds float64) {
			gologger.Info().Msgf("blacklisted status %d triggered a %.1fs wait", status, seconds)
		},
	}
	return fuzzer.NewBlacklistStatus(codes, action, param, callbacks), nil
}

func buildScanner(cfg *cliConfig, registry *fuzzer.Registry, mode fuzzer.Mode, target *fuzzer.Target) (fuzzer.Scanner, error) {
	if cfg.scanner == "" {
		return fuzzer.ScannerFor(mode), nil
	}
	name, param, _ := parseEncoderSpec(cfg.scanner)
	if !registry.HasScanner(name) {
		return nil, fmt.Errorf("unknown scanner %q", name)
	}
	return registry.ResolveScanner(name, param, target)
}
