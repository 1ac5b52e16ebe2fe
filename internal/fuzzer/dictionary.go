package fuzzer

import "sync"

// ErrExhausted is returned by Dictionary.Next once every payload has
// been dispatched.
var ErrExhausted = newSentinel("dictionary exhausted")

// Dictionary is a reloadable, index-bearing iterator over payloads
// (post-transform). reload rebuilds the iterator from the original
// wordlist snapshot so a second pass over a different HTTP method
// reproduces the same sequence — see Dictionary.Reload.
type Dictionary struct {
	mu         sync.Mutex
	snapshot   []string // raw wordlist entries, post-uniqueness
	transform  PayloadTransform
	payloads   []Payload // built eagerly from snapshot x transform
	index      int
	removed    int // previous_length - unique_length, diagnostic only
	rawLen     int
}

// NewDictionary builds a Dictionary from raw wordlist entries and a
// transform. If unique is true, duplicate raw entries are dropped
// (set semantics, order-preserving on first occurrence) before the
// transform is applied, and Removed() reports how many were dropped.
func NewDictionary(raw []string, transform PayloadTransform, unique bool) *Dictionary {
	d := &Dictionary{transform: transform, rawLen: len(raw)}
	snapshot := raw
	if unique {
		snapshot = dedupeOrdered(raw)
		d.removed = len(raw) - len(snapshot)
	}
	d.snapshot = snapshot
	d.rebuild()
	return d
}

func dedupeOrdered(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func (d *Dictionary) rebuild() {
	var payloads []Payload
	for _, entry := range d.snapshot {
		payloads = append(payloads, d.transform.Expand(entry)...)
	}
	d.payloads = payloads
	d.index = 0
}

// Len returns the total number of payloads in one full pass.
func (d *Dictionary) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.payloads)
}

// Removed reports previous_length - unique_length when uniqueness
// was requested at build time; zero otherwise.
func (d *Dictionary) Removed() int {
	return d.removed
}

// Reload rebuilds the internal iterator from the underlying snapshot,
// resetting the index to 0, so a second drain reproduces the exact
// same sequence as the first.
func (d *Dictionary) Reload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rebuild()
}

// Next reserves the next (index, payload) pair under the dictionary's
// mutex. Reservation happens in iteration order regardless of which
// worker calls Next, which is what lets the Fuzzer assign result
// indices in dispatch order (spec.md §3, "Identity and ordering").
func (d *Dictionary) Next() (int, Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.index >= len(d.payloads) {
		return 0, Payload{}, ErrExhausted
	}
	i := d.index
	p := d.payloads[i]
	d.index++
	return i, p, nil
}
