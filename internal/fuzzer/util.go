package fuzzer

import (
	"fmt"
	"strconv"
)

// toString renders an arbitrary custom-field value for CLI/report
// output, mirroring the permissive str(...) coercion used by
// ResultUtils.format_custom_field in the tool this spec is based on.
func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
