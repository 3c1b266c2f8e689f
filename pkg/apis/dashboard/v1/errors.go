package v1

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoData is returned when either collection is missing or empty. The
// whole report is unavailable in that case.
var ErrNoData = errors.New("no data available")

// ParseError reports a timestamp that none of the accepted layouts matched.
type ParseError struct {
	Field string
	Row   string
	Value string
}

func (e *ParseError) Error() string {
	if e.Row == "" {
		return fmt.Sprintf("unable to parse %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("unable to parse %s %q for %s", e.Field, e.Value, e.Row)
}

// Drill-down levels used in LookupError.
const (
	LevelCompany = "company"
	LevelUser    = "user"
	LevelChat    = "chat"
)

// LookupError is returned when a selected company, user or chat is not part
// of the collection narrowed by the previous selections.
type LookupError struct {
	Level string
	ID    string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Level, e.ID)
}

// InvalidRangeError is returned when a date filter starts after it ends.
type InvalidRangeError struct {
	Start string
	End   string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("start date %s must be before or the same as end date %s", e.Start, e.End)
}
