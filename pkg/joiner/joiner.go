package joiner

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
	"github.com/codeoc/dashboard/pkg/normalizer"
)

// Join left joins conversations to users on the user id. Every conversation
// is returned, in input order; conversations without a matching user have
// Matched unset and empty joined fields. When the user collection contains
// duplicate ids the first occurrence wins.
func Join(convs []v1.Conversation, users []v1.User) []v1.JoinedConversation {
	byID := make(map[string]*v1.User, len(users))
	for i := range users {
		u := &users[i]
		if _, ok := byID[u.UserID]; ok {
			continue
		}
		byID[u.UserID] = u
	}

	joined := make([]v1.JoinedConversation, 0, len(convs))
	for _, c := range convs {
		jc := v1.JoinedConversation{Conversation: c}
		if u, ok := byID[c.UserID]; ok && c.UserID != "" {
			jc.Matched = true
			jc.UserEmail = u.Email
			jc.Role = u.Role
			jc.WorkshopID = u.WorkshopID
			jc.CompanyName = u.CompanyName
		}
		joined = append(joined, jc)
	}
	return joined
}

// WorkshopCompanies maps each distinct workshop id in the user collection to
// the first company name seen for it.
func WorkshopCompanies(users []v1.User) v1.WorkshopCompanyMap {
	m := v1.WorkshopCompanyMap{}
	for _, u := range users {
		if u.WorkshopID == "" {
			continue
		}
		if _, ok := m[u.WorkshopID]; !ok {
			m[u.WorkshopID] = u.CompanyName
		}
	}
	return m
}

// BuildDataset normalizes and joins both collections into an immutable
// Dataset. It returns ErrNoData when either collection is empty. Row level
// problems are logged and kept on the dataset as warnings.
func BuildDataset(userRecords []v1.UserRecord, convRecords []v1.ConversationRecord) (*v1.Dataset, error) {
	if len(userRecords) == 0 || len(convRecords) == 0 {
		return nil, v1.ErrNoData
	}

	users, userErrs := normalizer.Users(userRecords)
	convs, convErrs := normalizer.Conversations(convRecords)

	ds := &v1.Dataset{
		Users:             users,
		Conversations:     Join(convs, users),
		WorkshopCompanies: WorkshopCompanies(users),
		LoadedAt:          time.Now().UTC(),
	}

	for _, err := range append(userErrs, convErrs...) {
		log.WithError(err).Warn("recovered from bad record")
		ds.Warnings = append(ds.Warnings, err.Error())
	}
	for _, id := range normalizer.DuplicateUserIDs(users) {
		log.WithField("user", id).Warn("duplicate user id, joining on first occurrence")
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("duplicate user id %q", id))
	}

	log.WithFields(log.Fields{
		"users":         len(ds.Users),
		"conversations": len(ds.Conversations),
		"workshops":     len(ds.WorkshopCompanies),
		"warnings":      len(ds.Warnings),
	}).Info("dataset built")

	return ds, nil
}
