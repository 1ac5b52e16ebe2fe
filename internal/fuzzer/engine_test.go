package fuzzer_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"fuzzer/internal/fuzzer"
)

// fakeRequester lets engine tests script a response (or error) per
// dispatch order without any real network I/O.
type fakeRequester struct {
	mu      sync.Mutex
	calls   int
	respond func(call int, payload fuzzer.Payload) (*fuzzer.Result, error)
}

func (f *fakeRequester) Request(ctx context.Context, payload fuzzer.Payload) (*fuzzer.Result, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.mu.Unlock()
	return f.respond(call, payload)
}

func (f *fakeRequester) TestConnection(ctx context.Context) error { return nil }

type collectedResult struct {
	*fuzzer.Result
	validated bool
}

type collectingSink struct {
	mu      sync.Mutex
	results []collectedResult
}

func (s *collectingSink) OnResult(result *fuzzer.Result, validated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, collectedResult{Result: result, validated: validated})
}

type collectingErrorSink struct {
	mu       sync.Mutex
	requests []*fuzzer.Error
	hostname []*fuzzer.Error
}

func (s *collectingErrorSink) OnRequestException(err *fuzzer.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, err)
}

func (s *collectingErrorSink) OnInvalidHostname(err *fuzzer.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostname = append(s.hostname, err)
}

// Scenario 1 from spec.md §8: path fuzz, two threads, three payloads.
func TestFuzzerPathFuzzThreePayloadsTwoThreads(t *testing.T) {
	dict := fuzzer.NewDictionary([]string{"a", "b", "c"}, fuzzer.PayloadTransform{}, false)
	requester := &fakeRequester{respond: func(call int, p fuzzer.Payload) (*fuzzer.Result, error) {
		return fuzzer.NewResult(0, "http://t/"+p.Final, "GET", 200, "", time.Millisecond, p, nil), nil
	}}
	matcher := fuzzer.NewMatcher(fuzzer.DefaultAllowedStatus(), fuzzer.Comparator{})
	sink := &collectingSink{}
	errs := &collectingErrorSink{}

	engine := fuzzer.NewFuzzer(dict, requester, matcher, fuzzer.PathScanner{}, nil, fuzzer.EngineConfig{Workers: 2}, sink, errs)
	engine.Start(context.Background())
	engine.Wait()

	if engine.Join() {
		t.Fatal("Join() should return false once every worker has exited")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(sink.results))
	}
	seen := map[uint64]bool{}
	for _, r := range sink.results {
		if !r.validated {
			t.Errorf("result index %d should validate under the default matcher", r.Index)
		}
		seen[r.Index] = true
	}
	for _, want := range []uint64{0, 1, 2} {
		if !seen[want] {
			t.Errorf("missing result index %d", want)
		}
	}
}

// Scenario 4 from spec.md §8: blacklist {403: stop}; second response is
// 403, so the run must stop short and raise a StopActionInterrupt.
func TestFuzzerBlacklistStopAction(t *testing.T) {
	raw := make([]string, 10)
	for i := range raw {
		raw[i] = fmt.Sprintf("w%d", i)
	}
	dict := fuzzer.NewDictionary(raw, fuzzer.PayloadTransform{}, false)
	requester := &fakeRequester{respond: func(call int, p fuzzer.Payload) (*fuzzer.Result, error) {
		status := 200
		if call == 1 {
			status = 403
		}
		return fuzzer.NewResult(0, "http://t/"+p.Final, "GET", status, "", time.Millisecond, p, nil), nil
	}}
	matcher := fuzzer.NewMatcher(fuzzer.DefaultAllowedStatus(), fuzzer.Comparator{})
	blacklist := fuzzer.NewBlacklistStatus([]int{403}, fuzzer.ActionStop, 0, fuzzer.BlacklistCallbacks{})
	sink := &collectingSink{}
	errs := &collectingErrorSink{}

	engine := fuzzer.NewFuzzer(dict, requester, matcher, fuzzer.PathScanner{}, blacklist, fuzzer.EngineConfig{Workers: 1}, sink, errs)
	engine.Start(context.Background())
	engine.Wait()

	if engine.StopAction() == nil {
		t.Fatal("expected a pending StopActionInterrupt after a 403 blacklist hit")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.results) >= len(raw) {
		t.Fatalf("stop action should have cut the run short, got %d/%d results", len(sink.results), len(raw))
	}
}

// Scenario 3 from spec.md §8: blacklist {429: wait}; the pool drains,
// sleeps, resumes, and processes every remaining payload.
func TestFuzzerBlacklistWaitAction(t *testing.T) {
	raw := make([]string, 10)
	for i := range raw {
		raw[i] = fmt.Sprintf("w%d", i)
	}
	dict := fuzzer.NewDictionary(raw, fuzzer.PayloadTransform{}, false)
	requester := &fakeRequester{respond: func(call int, p fuzzer.Payload) (*fuzzer.Result, error) {
		status := 200
		if call == 0 {
			status = 429
		}
		return fuzzer.NewResult(0, "http://t/"+p.Final, "GET", status, "", time.Millisecond, p, nil), nil
	}}
	matcher := fuzzer.NewMatcher(fuzzer.DefaultAllowedStatus(), fuzzer.Comparator{})
	const waitSeconds = 0.05
	blacklist := fuzzer.NewBlacklistStatus([]int{429}, fuzzer.ActionWait, waitSeconds, fuzzer.BlacklistCallbacks{})
	sink := &collectingSink{}
	errs := &collectingErrorSink{}

	engine := fuzzer.NewFuzzer(dict, requester, matcher, fuzzer.PathScanner{}, blacklist, fuzzer.EngineConfig{Workers: 1}, sink, errs)

	start := time.Now()
	engine.Start(context.Background())
	engine.Wait()
	elapsed := time.Since(start)

	if elapsed < time.Duration(waitSeconds*float64(time.Second)) {
		t.Fatalf("run completed in %v, expected at least a %.2fs blacklist wait", elapsed, waitSeconds)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.results) != len(raw) {
		t.Fatalf("expected all %d payloads processed after resume, got %d", len(raw), len(sink.results))
	}
}

// Two Fuzzer instances sharing one target (e.g. a -X GET,POST run
// builds a fresh Fuzzer per method) must assign non-overlapping Result
// indices when the second is seeded from the first's NextIndex, the
// way cli_controller.py resets the counter once per target rather than
// once per method (spec.md §3).
func TestFuzzerSetStartIndexCarriesAcrossMethods(t *testing.T) {
	newDict := func() *fuzzer.Dictionary {
		return fuzzer.NewDictionary([]string{"a", "b", "c"}, fuzzer.PayloadTransform{}, false)
	}
	requester := &fakeRequester{respond: func(call int, p fuzzer.Payload) (*fuzzer.Result, error) {
		return fuzzer.NewResult(0, "http://t/"+p.Final, "GET", 200, "", time.Millisecond, p, nil), nil
	}}
	matcher := fuzzer.NewMatcher(fuzzer.DefaultAllowedStatus(), fuzzer.Comparator{})

	getSink := &collectingSink{}
	get := fuzzer.NewFuzzer(newDict(), requester, matcher, fuzzer.PathScanner{}, nil, fuzzer.EngineConfig{Workers: 1}, getSink, &collectingErrorSink{})
	get.Start(context.Background())
	get.Wait()

	postSink := &collectingSink{}
	post := fuzzer.NewFuzzer(newDict(), requester, matcher, fuzzer.PathScanner{}, nil, fuzzer.EngineConfig{Workers: 1}, postSink, &collectingErrorSink{})
	post.SetStartIndex(get.NextIndex())
	post.Start(context.Background())
	post.Wait()

	seen := map[uint64]bool{}
	for _, r := range append(getSink.results, postSink.results...) {
		if seen[r.Index] {
			t.Fatalf("index %d reused across methods", r.Index)
		}
		seen[r.Index] = true
	}
	for _, want := range []uint64{0, 1, 2, 3, 4, 5} {
		if !seen[want] {
			t.Errorf("missing result index %d across both methods", want)
		}
	}
}

func TestFuzzerTriggerStopAction(t *testing.T) {
	raw := make([]string, 10)
	for i := range raw {
		raw[i] = fmt.Sprintf("w%d", i)
	}
	dict := fuzzer.NewDictionary(raw, fuzzer.PayloadTransform{}, false)
	var engine *fuzzer.Fuzzer
	requester := &fakeRequester{respond: func(call int, p fuzzer.Payload) (*fuzzer.Result, error) {
		if call == 1 {
			engine.TriggerStopAction("connection refused, ignore-errors not set")
		}
		return fuzzer.NewResult(0, "http://t/"+p.Final, "GET", 200, "", time.Millisecond, p, nil), nil
	}}
	matcher := fuzzer.NewMatcher(fuzzer.DefaultAllowedStatus(), fuzzer.Comparator{})
	sink := &collectingSink{}
	errs := &collectingErrorSink{}

	engine = fuzzer.NewFuzzer(dict, requester, matcher, fuzzer.PathScanner{}, nil, fuzzer.EngineConfig{Workers: 1}, sink, errs)
	engine.Start(context.Background())
	engine.Wait()

	action := engine.StopAction()
	if action == nil {
		t.Fatal("expected a pending StopActionInterrupt after TriggerStopAction")
	}
	if action.Error() != "connection refused, ignore-errors not set" {
		t.Errorf("unexpected StopActionInterrupt reason: %s", action.Error())
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.results) >= len(raw) {
		t.Fatalf("triggered stop action should have cut the run short, got %d/%d results", len(sink.results), len(raw))
	}
}

// Scenario 2 from spec.md §8, failing half: the resolver rejects
// bad.t.com, and the failure surfaces as *InvalidHostname.
func TestSubdomainRequesterResolutionFailureIsRecoverable(t *testing.T) {
	target := fuzzer.NewTarget("http://$.t.com", nil, nil, "", "")
	resolve := func(ctx context.Context, host string) (string, error) {
		if host == "ok.t.com" {
			return "1.2.3.4", nil
		}
		return "", fmt.Errorf("no such host")
	}
	requester := fuzzer.NewSubdomainRequester(target, fuzzer.RequesterConfig{Timeout: time.Second}, resolve)

	_, err := requester.Request(context.Background(), fuzzer.Payload{Final: "bad"})
	if err == nil {
		t.Fatal("expected resolution failure to surface as an error")
	}
	if _, ok := err.(*fuzzer.InvalidHostname); !ok {
		t.Fatalf("expected *InvalidHostname, got %T", err)
	}
}
