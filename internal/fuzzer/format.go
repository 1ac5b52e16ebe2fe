package fuzzer

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// HumanSize is a (value, unit) pair, unit one of B/KB/MB/GB, chosen
// as the largest unit with value >= 1. Value is rounded to two
// decimals when it isn't a whole number, matching the "%.2f" formatting
// in the original tool's get_human_length.
type HumanSize struct {
	Value float64
	Unit  string
}

func (h HumanSize) String() string {
	if h.Value == float64(int64(h.Value)) {
		return fmt.Sprintf("%d %s", int64(h.Value), h.Unit)
	}
	return fmt.Sprintf("%.2f %s", h.Value, h.Unit)
}

// HumanLength converts a byte count into the largest unit for which
// the value is still >= 1.
func HumanLength(bytes int) HumanSize {
	units := []string{"B", "KB", "MB", "GB"}
	value := float64(bytes)
	unit := units[0]
	for i := 1; i < len(units); i++ {
		next := value / 1024
		if next < 1 {
			break
		}
		value = next
		unit = units[i]
	}
	if value != math.Trunc(value) {
		value = math.Round(value*100) / 100
	}
	return HumanSize{Value: value, Unit: unit}
}

// FormatResultLine renders the fixed-width payload/RTT/length/words/lines
// columns shared by every Scanner.cli_callback, grounded on
// ResultUtils.get_formated_result.
func FormatResultLine(payload string, rtt time.Duration, bodyLength, words, lines int) string {
	size := HumanLength(bodyLength)
	return fmt.Sprintf("%-30s %10s %10s %6d %5d",
		fixPayloadForOutput(payload),
		fmt.Sprintf("%.4fs", rtt.Seconds()),
		size.String(),
		words,
		lines,
	)
}

// fixPayloadForOutput escapes newline, carriage return and tab as the
// visible sequences \n, \r and \t so a terminal does not render them as
// cursor movement, and truncates payloads longer than 30 bytes to their
// first 27 bytes plus "...".
func fixPayloadForOutput(payload string) string {
	payload = strings.ReplaceAll(payload, "\n", "\\n")
	payload = strings.ReplaceAll(payload, "\r", "\\r")
	payload = strings.ReplaceAll(payload, "\t", "\\t")
	const maxLen = 30
	if len(payload) > maxLen {
		return payload[:maxLen-3] + "..."
	}
	return payload
}
