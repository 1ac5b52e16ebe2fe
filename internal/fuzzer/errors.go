package fuzzer

import "github.com/pkg/errors"

// newSentinel exists so sentinel errors are built with pkg/errors, the
// same package NewRequestException and NewInvalidHostname wrap their
// causes with (see SPEC_FULL.md §1, "Error handling").
func newSentinel(msg string) error {
	return errors.New(msg)
}

// RequestException wraps a failure to execute an HTTP request (DNS,
// connection refused, timeout, malformed response). It is recoverable:
// the Fuzzer routes it to the request-exception callback and the
// worker continues.
type RequestException struct {
	URL string
	Err error
}

func (e *RequestException) Error() string {
	return "request failed for " + e.URL + ": " + e.Err.Error()
}

func (e *RequestException) Unwrap() error { return e.Err }

// NewRequestException wraps cause with the URL that failed.
func NewRequestException(url string, cause error) *RequestException {
	return &RequestException{URL: url, Err: errors.Wrap(cause, "request exception")}
}

// InvalidHostname is raised by SubdomainRequester when the injected
// hostname fails to resolve. It is always recoverable and never stops
// a run (spec.md §7).
type InvalidHostname struct {
	Host string
	Err  error
}

func (e *InvalidHostname) Error() string {
	return "could not resolve hostname " + e.Host + ": " + e.Err.Error()
}

func (e *InvalidHostname) Unwrap() error { return e.Err }

func NewInvalidHostname(host string, cause error) *InvalidHostname {
	return &InvalidHostname{Host: host, Err: errors.Wrap(cause, "invalid hostname")}
}

// StopActionInterrupt is the cooperative signal a BlacklistStatus
// "stop" action (or an ErrorSink opting out of ignore-errors) raises to
// the caller on the next join cycle. Status is set for a blacklist
// trigger; Reason is set when something else (e.g. a RequestException)
// triggered the stop.
type StopActionInterrupt struct {
	Status int
	Reason string
}

func (e *StopActionInterrupt) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "stop action triggered by status " + itoa(e.Status)
}

// ErrConfiguration wraps fatal, pre-start configuration problems
// (missing target, unknown plugin, empty wordlist, unsupported report
// extension) — see spec.md §7.
func ErrConfiguration(msg string) error {
	return errors.New(msg)
}
