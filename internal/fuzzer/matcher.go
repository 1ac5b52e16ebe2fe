package fuzzer

// StatusRange is a closed, inclusive [Low, High] range of status codes.
type StatusRange struct {
	Low, High int
}

func (r StatusRange) contains(status int) bool {
	return status >= r.Low && status <= r.High
}

// AllowedStatus is the union of a discrete set and a closed range,
// matching the CLI's "-Mc 200,301,403-405" grammar (spec.md §6).
type AllowedStatus struct {
	List  []int
	Range *StatusRange
}

// DefaultAllowedStatus matches 200-399, 401 and 403 — the default for
// URL-discovery modes (path/subdomain) per spec.md §4.6.
func DefaultAllowedStatus() AllowedStatus {
	r := StatusRange{200, 399}
	return AllowedStatus{List: []int{401, 403}, Range: &r}
}

// DefaultAllowedStatusDataMode matches 200-399 only, the default for
// method/data fuzzing modes per spec.md §4.6.
func DefaultAllowedStatusDataMode() AllowedStatus {
	r := StatusRange{200, 399}
	return AllowedStatus{Range: &r}
}

func (a AllowedStatus) contains(status int) bool {
	for _, s := range a.List {
		if s == status {
			return true
		}
	}
	if a.Range != nil && a.Range.contains(status) {
		return true
	}
	return false
}

// MissingOK reports whether 200 is absent from the configured allowed
// status codes — the CLI collaborator can use this to reproduce the
// original tool's interactive "do you want to include 200?" prompt
// (spec.md §3, supplemented feature), the core itself never prompts.
func (a AllowedStatus) MissingOK() bool {
	return !a.contains(200)
}

// Comparator holds the exclusion-cutoff thresholds: a result whose
// body length or RTT *exceeds* the threshold is rejected. The -Ms/-Mt
// flag help in cmd/fuzzer states the same rule; spec.md §9 lists these
// semantics as an Open Question, settled here as exclusion.
type Comparator struct {
	Length *int
	Time   *float64 // seconds
}

func (c Comparator) isSet() bool {
	return c.Length != nil || c.Time != nil
}

// Matcher is a boolean classifier over a Result: status-code set plus
// optional length/time exclusion thresholds.
type Matcher struct {
	Allowed    AllowedStatus
	Comparator Comparator
}

// NewMatcher uses allowed exactly as given; it applies no default.
// DefaultAllowedStatus is the usual value for path/subdomain fuzzing
// and DefaultAllowedStatusDataMode for method/data fuzzing.
func NewMatcher(allowed AllowedStatus, comparator Comparator) *Matcher {
	return &Matcher{Allowed: allowed, Comparator: comparator}
}

// Match is a pure function of r and the matcher's configuration:
// invoking it twice on the same inputs yields the same answer
// (spec.md §8).
func (m *Matcher) Match(r *Result) bool {
	if !m.Allowed.contains(r.Status) {
		return false
	}
	if m.Comparator.Length != nil && r.BodyLength > *m.Comparator.Length {
		return false
	}
	if m.Comparator.Time != nil && r.RTT.Seconds() > *m.Comparator.Time {
		return false
	}
	return true
}

// ComparatorIsSet reports whether at least one of length/time
// thresholds is configured.
func (m *Matcher) ComparatorIsSet() bool {
	return m.Comparator.isSet()
}
