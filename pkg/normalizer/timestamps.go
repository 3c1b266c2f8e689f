package normalizer

import (
	"strings"
	"time"

	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

// timestampLayouts are tried in order. Fractional seconds are accepted after
// the seconds field by time.Parse even when the layout does not list them.
// Layouts without a zone yield UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// ParseTimestamp parses the mixed timestamp formats found in the exports and
// returns the instant in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value != "" {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, &v1.ParseError{Field: "timestamp", Value: value}
}

func parseField(field, row, value string) (time.Time, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return t, &v1.ParseError{Field: field, Row: row, Value: value}
	}
	return t, nil
}
