package fuzzer

import (
	"strings"
	"time"
)

// Result is an immutable record of one response plus derived fields.
// Its index is assigned exactly once, in dispatch order, and never
// reused: the monotonic counter that produces it is owned by the
// Fuzzer (see engine.go), not a package-global.
type Result struct {
	Index      uint64
	URL        string
	Method     string
	Status     int
	BodyLength int
	RTT        time.Duration
	Words      int
	Lines      int
	Payload    Payload
	Custom     map[string]interface{}
	Body       string
}

// Error shares the monotonic index space with Result: a failed
// request still consumes an index, so progress accounting in §8 of
// the spec (max(result.index)+errors.count+1 <= total) holds.
type Error struct {
	Index   uint64
	Payload Payload
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewResult derives status/length/word/line counts from a raw body
// and assembles the immutable Result. RTT is the caller's measured
// wall-clock round trip.
func NewResult(index uint64, url, method string, status int, body string, rtt time.Duration, payload Payload, custom map[string]interface{}) *Result {
	if custom == nil {
		custom = make(map[string]interface{})
	}
	return &Result{
		Index:      index,
		URL:        url,
		Method:     method,
		Status:     status,
		BodyLength: len(body),
		RTT:        rtt,
		Words:      countWords(body),
		Lines:      countLines(body),
		Payload:    payload,
		Custom:     custom,
		Body:       body,
	}
}

func countWords(body string) int {
	if body == "" {
		return 0
	}
	return len(strings.Fields(body))
}

func countLines(body string) int {
	if body == "" {
		return 0
	}
	return strings.Count(body, "\n") + 1
}

// FormatCustomField renders a custom["key"] value the way the CLI
// collaborator should show it: a []string collapses to a match count
// unless detailed is requested, matching the original tool's
// ResultUtils.format_custom_field.
func FormatCustomField(value interface{}, detailed bool) string {
	if list, ok := value.([]string); ok {
		if detailed {
			return strings.Join(list, ", ")
		}
		return pluralizeMatches(len(list))
	}
	return toString(value)
}

func pluralizeMatches(n int) string {
	if n == 1 {
		return "found 1 match"
	}
	return "found " + itoa(n) + " matches"
}
