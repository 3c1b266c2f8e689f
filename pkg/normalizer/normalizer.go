// Package normalizer turns raw export records into typed records with the
// derived fields the reports are computed from. Every function returns new
// values; the input records are never modified.
package normalizer

import (
	"encoding/json"
	"strings"

	log "github.com/sirupsen/logrus"

	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

// Users normalizes the user collection. Rows with an unparseable last_login
// are kept with LastLoginValid unset, and the parse error is returned.
func Users(records []v1.UserRecord) ([]v1.User, []error) {
	users := make([]v1.User, 0, len(records))
	var errs []error

	for _, r := range records {
		u := v1.User{
			UserID:      strings.TrimSpace(r.UserID.String()),
			Email:       r.Email,
			Role:        r.UserRole,
			WorkshopID:  strings.TrimSpace(r.WorkshopID.String()),
			CompanyName: r.CompanyName,
			LoginCount:  loginCount(r.LoginCount),
		}

		lastLogin, err := parseField("last_login", "user "+u.UserID, r.LastLogin.String())
		if err != nil {
			errs = append(errs, err)
		} else {
			u.LastLogin = lastLogin
			u.LastLoginValid = true
		}

		if r.LoginHistory != nil {
			u.LoginHistory = make([]string, 0, len(r.LoginHistory))
			for _, entry := range r.LoginHistory {
				u.LoginHistory = append(u.LoginHistory, entry.String())
			}
		}

		users = append(users, u)
	}

	return users, errs
}

// Conversations normalizes the conversation collection and attaches the
// derived fields (message count, feedback sum, thumb, verified).
func Conversations(records []v1.ConversationRecord) ([]v1.Conversation, []error) {
	convs := make([]v1.Conversation, 0, len(records))
	var errs []error

	for _, r := range records {
		c := v1.Conversation{
			ChatID:             strings.TrimSpace(r.ChatID.String()),
			UserID:             strings.TrimSpace(r.UserID.String()),
			Email:              r.Email,
			Title:              r.Title,
			TotCost:            r.TotCost,
			RegNo:              r.RegNo.String(),
			VIN:                r.VIN.String(),
			Description:        r.Description.String(),
			Manufacturer:       r.Manufacturer.String(),
			Model:              r.Model.String(),
			Year:               r.Year.String(),
			Mileage:            r.Mileage.String(),
			Feedback:           r.Feedback,
			DTCs:               r.DTCs,
			InternalErrorCodes: r.InternalErrorCodes,
			CarInfo:            r.CarInfo,
			Messages:           r.Messages,
			NumMessages:        len(r.Messages),
			Verified:           r.OpenSearch == nil || !*r.OpenSearch,
		}
		c.FeedbackSum = FeedbackSum(r.Feedback)
		c.Thumb = ClassifyThumb(c.FeedbackSum)

		row := "chat " + c.ChatID
		if t, err := parseField("created_at", row, r.CreatedAt.String()); err != nil {
			errs = append(errs, err)
		} else {
			c.CreatedAt, c.CreatedValid = t, true
		}
		if t, err := parseField("updated_at", row, r.UpdatedAt.String()); err != nil {
			errs = append(errs, err)
		} else {
			c.UpdatedAt, c.UpdatedValid = t, true
		}

		if c.CreatedValid && c.UpdatedValid && c.UpdatedAt.Before(c.CreatedAt) {
			log.WithFields(log.Fields{
				"chat":       c.ChatID,
				"created_at": c.CreatedAt,
				"updated_at": c.UpdatedAt,
			}).Debug("conversation updated before it was created")
		}

		convs = append(convs, c)
	}

	return convs, errs
}

// FeedbackSum adds up a feedback list. Anything that is not a JSON array of
// numbers counts as no feedback.
func FeedbackSum(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// ClassifyThumb maps a feedback sum to exactly one thumb bucket.
func ClassifyThumb(sum float64) v1.Thumb {
	switch {
	case sum > 0:
		return v1.ThumbUp
	case sum < 0:
		return v1.ThumbDown
	default:
		return v1.ThumbNeutral
	}
}

// DuplicateUserIDs returns every user id that occurs more than once, in the
// order the duplicates were first seen.
func DuplicateUserIDs(users []v1.User) []string {
	seen := make(map[string]int, len(users))
	var dups []string
	for _, u := range users {
		seen[u.UserID]++
		if seen[u.UserID] == 2 {
			dups = append(dups, u.UserID)
		}
	}
	return dups
}

func loginCount(n json.Number) int {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	log.Debugf("ignoring login_count %q", n.String())
	return 0
}
