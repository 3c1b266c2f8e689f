package api

import (
	"sort"

	log "github.com/sirupsen/logrus"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	"github.com/codeoc/dashboard/pkg/normalizer"
)

// FormatLoginHistory parses a raw login history for display, most recent
// first. Entries that do not parse are dropped, and Total counts only the
// entries that remain.
func FormatLoginHistory(raw []string) apitype.LoginHistory {
	entries := make([]apitype.LoginEntry, 0, len(raw))
	for _, value := range raw {
		ts, err := normalizer.ParseTimestamp(value)
		if err != nil {
			log.WithError(err).Debug("dropping login history entry")
			continue
		}
		entries = append(entries, apitype.LoginEntry{
			Date:      ts.Format(dateLayout),
			Day:       ts.Format("Monday"),
			Time:      ts.Format("15:04:05"),
			Timestamp: ts,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	history := apitype.LoginHistory{Entries: entries, Total: len(entries)}
	if len(entries) > 0 {
		history.Recent = entries[0].Date
		history.First = entries[len(entries)-1].Date
	}
	return history
}
