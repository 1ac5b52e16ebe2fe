package fuzzer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State is the Fuzzer's lifecycle: Idle -> Running -> (Paused <->
// Running)* -> Stopping -> Stopped, terminal at Stopped (spec.md §4.9).
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// ResultSink receives every successfully classified Result. It may be
// invoked concurrently from multiple workers — spec.md §3 requires
// implementations to be re-entrant or internally serialized.
type ResultSink interface {
	OnResult(result *Result, validated bool)
}

// ErrorSink receives recoverable failures. Never invoked for the
// unexpected-exception case, which instead surfaces through Fuzzer.Err
// after the pool shuts down (spec.md §7).
type ErrorSink interface {
	OnRequestException(err *Error)
	OnInvalidHostname(err *Error)
}

// EngineConfig is the Fuzzer's concurrency and pacing configuration.
type EngineConfig struct {
	Workers int
	Delay   time.Duration
}

// Fuzzer is the worker-pool driver binding Dictionary, Requester,
// Matcher, Scanner and BlacklistStatus together. It exclusively owns
// its worker pool, the Dictionary cursor and the in-flight counter
// (spec.md §3, "Ownership").
type Fuzzer struct {
	dictionary *Dictionary
	requester  Requester
	matcher    *Matcher
	scanner    Scanner
	blacklist  *BlacklistStatus
	config     EngineConfig

	resultSink ResultSink
	errorSink  ErrorSink

	mu        sync.Mutex
	cond      *sync.Cond
	state     State
	stopFlag  bool
	pauseFlag bool

	inFlight int64

	indexMu     sync.Mutex
	resultIndex uint64

	stopActionMu sync.Mutex
	stopAction   *StopActionInterrupt

	fatalMu sync.Mutex
	fatal   error

	wg   sync.WaitGroup
	done chan struct{}
}

// NewFuzzer wires the components. config.Workers defaults to 1 if
// unset.
func NewFuzzer(dictionary *Dictionary, requester Requester, matcher *Matcher, scanner Scanner, blacklist *BlacklistStatus, config EngineConfig, resultSink ResultSink, errorSink ErrorSink) *Fuzzer {
	if config.Workers < 1 {
		config.Workers = 1
	}
	f := &Fuzzer{
		dictionary: dictionary,
		requester:  requester,
		matcher:    matcher,
		scanner:    scanner,
		blacklist:  blacklist,
		config:     config,
		resultSink: resultSink,
		errorSink:  errorSink,
		state:      StateIdle,
		done:       make(chan struct{}),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// SetStartIndex seeds the Result index counter. The index space resets
// once per target, not per method (spec.md §3): a caller fuzzing several
// HTTP methods over one target builds a new Fuzzer per method but must
// seed each one with the previous method's NextIndex() so indices stay
// unique and increasing across the whole target run, the way
// cli_controller.py's single reset_index() call before its method loop
// does.
func (f *Fuzzer) SetStartIndex(idx uint64) {
	f.indexMu.Lock()
	defer f.indexMu.Unlock()
	f.resultIndex = idx
}

// NextIndex returns the index that would be assigned to the next
// reserved payload — callers use this after a method's run completes to
// seed the next Fuzzer sharing the same target's index space.
func (f *Fuzzer) NextIndex() uint64 {
	f.indexMu.Lock()
	defer f.indexMu.Unlock()
	return f.resultIndex
}

// State reports the current lifecycle state.
func (f *Fuzzer) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Start moves Idle -> Running and launches the worker pool.
func (f *Fuzzer) Start(ctx context.Context) {
	f.mu.Lock()
	f.state = StateRunning
	f.mu.Unlock()

	for i := 0; i < f.config.Workers; i++ {
		f.wg.Add(1)
		go f.worker(ctx)
	}
	go func() {
		f.wg.Wait()
		f.mu.Lock()
		if f.state != StateStopped {
			f.state = StateStopped
		}
		f.mu.Unlock()
		close(f.done)
	}()
}

// Join returns true while the pool is actively running and false once
// every worker has exited. Calling code polls StopAction() between
// join cycles (spec.md §4.9).
func (f *Fuzzer) Join() bool {
	select {
	case <-f.done:
		return false
	default:
		return true
	}
}

// Wait blocks until every worker has exited — a convenience over
// spinning on Join() for callers that don't need to poll StopAction
// mid-run.
func (f *Fuzzer) Wait() {
	<-f.done
}

// StopAction returns and clears the pending stop-action interrupt, if
// any. Callers check this after each Join() cycle.
func (f *Fuzzer) StopAction() *StopActionInterrupt {
	f.stopActionMu.Lock()
	defer f.stopActionMu.Unlock()
	action := f.stopAction
	f.stopAction = nil
	return action
}

// Err returns the unexpected (non-recoverable) error that shut the
// pool down, if any.
func (f *Fuzzer) Err() error {
	f.fatalMu.Lock()
	defer f.fatalMu.Unlock()
	return f.fatal
}

// Pause sets the pause flag; workers block at their next checkpoint
// (start of loop) until Resume or Stop.
func (f *Fuzzer) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pauseFlag {
		return
	}
	f.pauseFlag = true
	f.state = StatePaused
}

// Resume clears the pause flag and wakes every blocked worker.
func (f *Fuzzer) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.pauseFlag {
		return
	}
	f.pauseFlag = false
	f.state = StateRunning
	f.cond.Broadcast()
}

// Stop sets the stop flag and wakes any paused workers; in-flight
// requests complete (the HTTP client is treated as non-cancelable),
// results produced during shutdown are still delivered.
func (f *Fuzzer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopFlag = true
	f.state = StateStopping
	f.cond.Broadcast()
}

// WaitUntilPause blocks until the in-flight counter reaches zero.
func (f *Fuzzer) WaitUntilPause() {
	for atomic.LoadInt64(&f.inFlight) > 0 {
		time.Sleep(2 * time.Millisecond)
	}
}

// TriggerStopAction raises a StopActionInterrupt with reason and stops
// the pool — the RequestException equivalent of handleBlacklist's
// ActionStop case, used by an ErrorSink that declines to ignore errors
// (spec.md §7).
func (f *Fuzzer) TriggerStopAction(reason string) {
	f.stopActionMu.Lock()
	if f.stopAction == nil {
		f.stopAction = &StopActionInterrupt{Reason: reason}
	}
	f.stopActionMu.Unlock()
	f.Stop()
}

// reserve atomically reserves the next (index, payload) pair: the
// dictionary cursor and the Result index counter advance together, so
// indices are assigned in the dictionary's iteration order regardless
// of which worker calls reserve or when requests complete (spec.md §3,
// §4.9 "Index allocation").
func (f *Fuzzer) reserve() (uint64, Payload, error) {
	f.indexMu.Lock()
	defer f.indexMu.Unlock()
	_, payload, err := f.dictionary.Next()
	if err != nil {
		return 0, Payload{}, err
	}
	idx := f.resultIndex
	f.resultIndex++
	return idx, payload, nil
}

func (f *Fuzzer) checkpoint() (stop bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.pauseFlag && !f.stopFlag {
		f.cond.Wait()
	}
	return f.stopFlag
}

func (f *Fuzzer) worker(ctx context.Context) {
	defer f.wg.Done()

	for {
		if f.checkpoint() {
			return
		}

		idx, payload, err := f.reserve()
		if err == ErrExhausted {
			return
		}

		if f.config.Delay > 0 {
			time.Sleep(f.config.Delay)
		}

		atomic.AddInt64(&f.inFlight, 1)
		result, reqErr := f.requester.Request(ctx, payload)
		atomic.AddInt64(&f.inFlight, -1)

		if reqErr != nil {
			f.handleRequestError(idx, payload, reqErr)
			continue
		}

		result.Index = idx
		f.scanner.InspectResult(result)

		if f.blacklist != nil && f.blacklist.Matches(result.Status) {
			f.handleBlacklist(result.Status)
		}

		validated := f.scanner.Scan(result) && f.matcher.Match(result)
		if f.resultSink != nil {
			f.resultSink.OnResult(result, validated)
		}
	}
}

func (f *Fuzzer) handleRequestError(idx uint64, payload Payload, reqErr error) {
	switch e := reqErr.(type) {
	case *InvalidHostname:
		if f.errorSink != nil {
			f.errorSink.OnInvalidHostname(&Error{Index: idx, Payload: payload, Message: e.Error()})
		}
	case *RequestException:
		if f.errorSink != nil {
			f.errorSink.OnRequestException(&Error{Index: idx, Payload: payload, Message: e.Error()})
		}
	default:
		f.fatalMu.Lock()
		if f.fatal == nil {
			f.fatal = reqErr
		}
		f.fatalMu.Unlock()
		f.Stop()
	}
}

func (f *Fuzzer) handleBlacklist(status int) {
	action := f.blacklist.Trigger(status)
	switch action {
	case ActionStop:
		f.stopActionMu.Lock()
		f.stopAction = &StopActionInterrupt{Status: status}
		f.stopActionMu.Unlock()
		f.Stop()
	case ActionWait:
		f.mu.Lock()
		already := f.pauseFlag
		f.mu.Unlock()
		if already {
			return
		}
		f.Pause()
		f.WaitUntilPause()
		time.Sleep(time.Duration(f.blacklist.Parameter * float64(time.Second)))
		f.Resume()
	}
}
