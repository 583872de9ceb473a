package cook

import (
	"strings"
	"time"
)

// ParseTimestamp converts an ISO-8601 timestamp (as captured in a trace
// record) to Unix milliseconds. A trailing "Z" is treated as "+00:00"; any
// parse failure is a recoverable error per §7 and yields 0, never a raised
// error.
func ParseTimestamp(iso string) int64 {
	normalized := strings.Replace(iso, "Z", "+00:00", 1)

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.UnixMilli()
		}
	}

	return 0
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05-07:00",
	time.RFC3339Nano,
	time.RFC3339,
}
