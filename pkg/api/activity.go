package api

import (
	"sort"
	"time"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

const dateLayout = "2006-01-02"

type ActivityOptions struct {
	Identity apitype.Identity

	// Range, when set, keeps only users whose last login falls on a day
	// between Start and End, both inclusive. Users without a valid last login
	// never pass a range.
	Range *apitype.DateRange

	Limit int
}

// MostActiveUsers counts conversations per identity and ranks them, most
// active first, ties in first-seen order. Rows are enriched with the user's
// company, role and last login.
//
// When the range starts after it ends an *InvalidRangeError is returned along
// with the unfiltered table, so callers can report the error and still show
// the rows.
func MostActiveUsers(ds *v1.Dataset, opts ActivityOptions) ([]apitype.UserActivity, error) {
	if ds == nil {
		return []apitype.UserActivity{}, nil
	}
	identity := normalizeIdentity(opts.Identity)

	var rangeErr error
	dateRange := opts.Range
	if dateRange != nil {
		if err := ValidateDateRange(*dateRange); err != nil {
			rangeErr = err
			dateRange = nil
		}
	}

	users := firstUsers(ds.Users)
	rows := map[string]*apitype.UserActivity{}
	var order []string
	for _, c := range ds.Conversations {
		key := identityKey(c, identity)
		if key == "" {
			continue
		}
		row, ok := rows[key]
		if !ok {
			row = &apitype.UserActivity{
				Identity: key,
				UserID:   c.UserID,
				Email:    conversationEmail(c),
				Role:     c.Role,
				Company:  c.CompanyName,
			}
			if u, ok := users[c.UserID]; ok && u.LastLoginValid {
				lastLogin := u.LastLogin
				row.LastLogin = &lastLogin
			}
			rows[key] = row
			order = append(order, key)
		}
		row.Chats++
	}

	result := make([]apitype.UserActivity, 0, len(order))
	for _, key := range order {
		row := rows[key]
		if dateRange != nil && !inDateRange(row.LastLogin, *dateRange) {
			continue
		}
		result = append(result, *row)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Chats > result[j].Chats
	})

	return truncate(result, opts.Limit), rangeErr
}

// ValidateDateRange returns an *InvalidRangeError when the range starts on a
// later day than it ends. Equal days are valid.
func ValidateDateRange(r apitype.DateRange) error {
	start, end := day(r.Start), day(r.End)
	if start.After(end) {
		return &v1.InvalidRangeError{
			Start: start.Format(dateLayout),
			End:   end.Format(dateLayout),
		}
	}
	return nil
}

// LoginDateBounds returns the first and last day any user logged in, for use
// as range defaults. It returns nil when no user has a valid last login.
func LoginDateBounds(users []v1.User) *apitype.DateRange {
	var bounds *apitype.DateRange
	for _, u := range users {
		if !u.LastLoginValid {
			continue
		}
		d := day(u.LastLogin)
		if bounds == nil {
			bounds = &apitype.DateRange{Start: d, End: d}
			continue
		}
		if d.Before(bounds.Start) {
			bounds.Start = d
		}
		if d.After(bounds.End) {
			bounds.End = d
		}
	}
	return bounds
}

// ParseDateRange parses two "2006-01-02" dates into a range. Either side may
// be empty, in which case it defaults to the matching side of defaults. It
// returns nil when neither side is given.
func ParseDateRange(start, end string, defaults *apitype.DateRange) (*apitype.DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	r := apitype.DateRange{}
	if defaults != nil {
		r = *defaults
	}
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return nil, &v1.ParseError{Field: "start", Value: start}
		}
		r.Start = t
	}
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return nil, &v1.ParseError{Field: "end", Value: end}
		}
		r.End = t
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return nil, &v1.ParseError{Field: "range", Value: start + ".." + end}
	}
	return &r, nil
}

func inDateRange(t *time.Time, r apitype.DateRange) bool {
	if t == nil {
		return false
	}
	d := day(*t)
	return !d.Before(day(r.Start)) && !d.After(day(r.End))
}

// day truncates a time to midnight UTC of its calendar day.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// firstUsers indexes users by id, keeping the first occurrence of a
// duplicated id.
func firstUsers(users []v1.User) map[string]v1.User {
	byID := make(map[string]v1.User, len(users))
	for _, u := range users {
		if _, ok := byID[u.UserID]; !ok {
			byID[u.UserID] = u
		}
	}
	return byID
}
