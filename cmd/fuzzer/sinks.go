package main

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/projectdiscovery/gologger"

	"fuzzer/internal/fuzzer"
	"fuzzer/internal/report"
)

// cliResultSink renders matched results to the terminal with
// fatih/color and forwards them to an optional report.Writer. It
// implements fuzzer.ResultSink and may be called concurrently from
// every worker (spec.md §5, "callback exclusivity").
type cliResultSink struct {
	scanner fuzzer.Scanner
	writer  *report.Writer
	verbose int // 0 = matched-only, 1 = -V (all), 2 = -V2 (all + body preview)
	simple  bool

	mu      sync.Mutex
	matched int64
	total   int64
}

func (s *cliResultSink) OnResult(result *fuzzer.Result, validated bool) {
	atomic.AddInt64(&s.total, 1)
	if !validated && s.verbose == 0 {
		return
	}
	if validated {
		atomic.AddInt64(&s.matched, 1)
	}

	line := s.scanner.CLICallback(result)
	if s.simple {
		fmt.Println(line)
	} else if validated {
		color.New(color.FgGreen).Println(line)
	} else {
		color.New(color.FgHiBlack).Println(line)
	}
	if s.verbose >= 2 {
		preview := result.Body
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		fmt.Println(preview)
	}

	if validated && s.writer != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.writer.Write(result); err != nil {
			gologger.Error().Msgf("writing report: %s", err)
		}
	}
}

func (s *cliResultSink) Matched() int64 { return atomic.LoadInt64(&s.matched) }
func (s *cliResultSink) Total() int64   { return atomic.LoadInt64(&s.total) }

// cliErrorSink prints recoverable errors, color-coded by kind. Unless
// ignoreErrors is set, a RequestException converts into a stop action
// on the active engine instead of just being logged (matching
// cli_controller.py's _request_exception_callback).
type cliErrorSink struct {
	ignoreErrors bool

	mu     sync.Mutex
	engine *fuzzer.Fuzzer
}

// SetEngine re-points the sink at the Fuzzer currently running — called
// once per HTTP method, since main.go builds a new Fuzzer per method.
func (s *cliErrorSink) SetEngine(engine *fuzzer.Fuzzer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
}

func (s *cliErrorSink) OnRequestException(err *fuzzer.Error) {
	color.New(color.FgYellow).Printf("[req error] %s\n", err.Message)
	if s.ignoreErrors {
		return
	}
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()
	if engine != nil {
		engine.TriggerStopAction(err.Message)
	}
}

func (s *cliErrorSink) OnInvalidHostname(err *fuzzer.Error) {
	color.New(color.FgYellow).Printf("[dns error] %s\n", err.Message)
}

func printBanner() {
	color.New(color.FgCyan, color.Bold).Println("fuzzer — concurrent web fuzzing engine")
}
