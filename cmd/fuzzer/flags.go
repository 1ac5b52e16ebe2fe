package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fuzzer/internal/fuzzer"
)

// cliConfig is the parsed form of every flag from spec.md §6's CLI
// surface, kept deliberately flat (no nested structs) the way the
// teacher's own parseFlags builds fuzzer.Config.
type cliConfig struct {
	url     string
	rawFile string
	scheme  string
	data    string
	headers stringList
	marker  string
	methods []string

	wordlists      stringList
	uniqueWordlist bool

	matchCodes  string
	matchLength int
	matchTime   float64

	blacklistStatus string

	threads         int
	delay           time.Duration
	timeout         time.Duration
	followRedirects bool

	prefixes   []string
	suffixes   []string
	lower      bool
	upper      bool
	capitalize bool
	encoders   stringList

	scanner string

	output       string
	verbose      int
	simpleOutput bool

	cookie       string
	proxy        string
	proxiesFile  string
	proxies      []string
	ignoreErrors bool
}

func parseFlags() *cliConfig {
	cfg := &cliConfig{}

	flag.StringVar(&cfg.url, "u", "", "target URL, with an injection marker")
	flag.StringVar(&cfg.rawFile, "r", "", "raw HTTP request file")
	flag.StringVar(&cfg.scheme, "scheme", "", "scheme to use when -r is a raw request file (default https)")
	flag.StringVar(&cfg.data, "data", "", "request body template, for DataFuzzing")
	flag.Var(&cfg.headers, "H", "request header 'Name:Value' (repeatable)")
	flag.StringVar(&cfg.marker, "marker", fuzzer.DefaultMarker, "injection marker literal")

	var methodsFlag string
	flag.StringVar(&methodsFlag, "X", "", "comma-separated HTTP method set (default GET)")

	flag.Var(&cfg.wordlists, "w", "wordlist: '[inline,list]' or a file path; any other argument, NAME=PARAM included, is read as a file path (repeatable)")
	flag.BoolVar(&cfg.uniqueWordlist, "unique", false, "drop duplicate wordlist entries before fuzzing")

	flag.StringVar(&cfg.matchCodes, "Mc", "", "allowed status codes, e.g. '200,301,403-405'")
	flag.IntVar(&cfg.matchLength, "Ms", 0, "reject results with body length greater than this")
	flag.Float64Var(&cfg.matchTime, "Mt", 0, "reject results with RTT greater than this many seconds")

	flag.StringVar(&cfg.blacklistStatus, "blacklist-status", "", "CODES:ACTION[=PARAM], ACTION in {stop,wait}")

	flag.IntVar(&cfg.threads, "t", 1, "number of concurrent worker threads")
	flag.DurationVar(&cfg.delay, "delay", 0, "pacing delay before each request")
	flag.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.BoolVar(&cfg.followRedirects, "follow-redirects", false, "follow HTTP redirects")

	var prefix, suffix string
	flag.StringVar(&prefix, "prefix", "", "comma-separated payload prefixes")
	flag.StringVar(&suffix, "suffix", "", "comma-separated payload suffixes")
	flag.BoolVar(&cfg.lower, "lower", false, "lowercase every payload")
	flag.BoolVar(&cfg.upper, "upper", false, "uppercase every payload")
	flag.BoolVar(&cfg.capitalize, "capitalize", false, "capitalize every payload")
	flag.Var(&cfg.encoders, "e", "encoder spec 'NAME[=PARAM][@REGEX]', comma-chained within one -e (repeatable)")

	flag.StringVar(&cfg.scanner, "scanner", "", "named scanner plugin, 'NAME[=PARAM]'")

	flag.StringVar(&cfg.output, "o", "", "report file, extension selects format: .txt, .csv, .json")
	flag.BoolVar(&cfg.simpleOutput, "simple-output", false, "plain output with no color, for piping")
	var verboseV, verboseV2 bool
	flag.BoolVar(&verboseV, "V", false, "verbose: print every result, matched or not")
	flag.BoolVar(&verboseV2, "V2", false, "verbose: print every result with a body preview")

	flag.StringVar(&cfg.cookie, "cookie", "", "Cookie header value")
	flag.StringVar(&cfg.proxy, "proxy", "", "single proxy URL, overrides --proxies")
	flag.StringVar(&cfg.proxiesFile, "proxies", "", "file of host:port proxies, round-robin")
	flag.BoolVar(&cfg.ignoreErrors, "ignore-errors", false, "continue past a failed connection test")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "A concurrent web application fuzzer.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nExamples:")
		fmt.Fprintln(os.Stderr, "  Path fuzzing:")
		fmt.Fprintln(os.Stderr, "    fuzzer -u http://example.com/$ -w wordlists/common.txt -t 20")
		fmt.Fprintln(os.Stderr, "\n  Subdomain fuzzing:")
		fmt.Fprintln(os.Stderr, "    fuzzer -u http://$.example.com -w wordlists/subdomains.txt")
		fmt.Fprintln(os.Stderr, "\n  Encoder chain:")
		fmt.Fprintln(os.Stderr, "    fuzzer -u http://example.com/$ -w wordlists/common.txt -e base64,url")
	}

	flag.Parse()

	if cfg.url == "" && cfg.rawFile == "" {
		fmt.Fprintln(os.Stderr, "Error: one of -u or -r is required")
		flag.Usage()
		os.Exit(1)
	}

	if methodsFlag != "" {
		for _, m := range strings.Split(methodsFlag, ",") {
			cfg.methods = append(cfg.methods, strings.TrimSpace(m))
		}
	}
	if prefix != "" {
		cfg.prefixes = strings.Split(prefix, ",")
	}
	if suffix != "" {
		cfg.suffixes = strings.Split(suffix, ",")
	}
	if verboseV2 {
		cfg.verbose = 2
	} else if verboseV {
		cfg.verbose = 1
	}
	if cfg.proxy != "" {
		cfg.proxies = []string{cfg.proxy}
	} else if cfg.proxiesFile != "" {
		proxies, err := parseProxyFile(cfg.proxiesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		cfg.proxies = proxies
	}

	return cfg
}

// stringList backs every repeatable flag (-w, -e, -H): flag.Var appends
// each occurrence instead of overwriting the previous one.
type stringList []string

func (s *stringList) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// parseStatusCodes parses the -Mc grammar: a comma list of discrete
// codes and/or LO-HI ranges, e.g. "200,301,403-405".
func parseStatusCodes(spec string) (list []int, lo, hi int, hasRange bool, err error) {
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if before, after, ok := strings.Cut(part, "-"); ok {
			if hasRange {
				return nil, 0, 0, false, fmt.Errorf("only one status range is supported, got a second in %q", part)
			}
			lo, err = strconv.Atoi(strings.TrimSpace(before))
			if err != nil {
				return nil, 0, 0, false, fmt.Errorf("invalid range lower bound %q", before)
			}
			hi, err = strconv.Atoi(strings.TrimSpace(after))
			if err != nil {
				return nil, 0, 0, false, fmt.Errorf("invalid range upper bound %q", after)
			}
			hasRange = true
			continue
		}
		code, convErr := strconv.Atoi(part)
		if convErr != nil {
			return nil, 0, 0, false, fmt.Errorf("invalid status code %q", part)
		}
		list = append(list, code)
	}
	return list, lo, hi, hasRange, nil
}

// parseWordlistEntry resolves one -w argument into raw wordlist
// entries: "[a,b,c]" is an inline literal list, anything else is read
// as a file path (one entry per non-empty line). There are no plugin
// wordlists: a NAME=PARAM argument is read as a file path like any
// other, and no TARGET_HOST/TARGET_URL substitution is applied.
func parseWordlistEntry(spec string) ([]string, error) {
	if strings.HasPrefix(spec, "[") && strings.HasSuffix(spec, "]") {
		inner := spec[1 : len(spec)-1]
		var entries []string
		for _, e := range strings.Split(inner, ",") {
			if e != "" {
				entries = append(entries, e)
			}
		}
		return entries, nil
	}

	data, err := os.ReadFile(spec)
	if err != nil {
		return nil, fmt.Errorf("wordlist %q: %w", spec, err)
	}
	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			entries = append(entries, line)
		}
	}
	return entries, nil
}

// parseProxyFile reads one host:port per line (spec.md §6 file formats).
func parseProxyFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("proxy file %q: %w", path, err)
	}
	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			proxies = append(proxies, line)
		}
	}
	return proxies, nil
}

// parseEncoderSpec parses one -e argument: "NAME[=PARAM][@REGEX]".
func parseEncoderSpec(spec string) (name, param, regex string) {
	if before, after, ok := strings.Cut(spec, "@"); ok {
		spec, regex = before, after
	}
	if before, after, ok := strings.Cut(spec, "="); ok {
		name, param = before, after
	} else {
		name = spec
	}
	return name, param, regex
}

// parseBlacklistSpec parses "CODES:ACTION=PARAM", e.g. "429:wait=1" or
// "403,404:stop".
func parseBlacklistSpec(spec string) (codes []int, action string, param float64, err error) {
	codesPart, actionPart, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, "", 0, fmt.Errorf("--blacklist-status expects CODES:ACTION[=PARAM], got %q", spec)
	}
	for _, c := range strings.Split(codesPart, ",") {
		code, convErr := strconv.Atoi(strings.TrimSpace(c))
		if convErr != nil {
			return nil, "", 0, fmt.Errorf("invalid blacklist status code %q", c)
		}
		codes = append(codes, code)
	}
	name, paramStr, hasParam := strings.Cut(actionPart, "=")
	action = name
	if hasParam {
		param, err = strconv.ParseFloat(paramStr, 64)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid blacklist action parameter %q", paramStr)
		}
	}
	return codes, action, param, nil
}
