package api

import (
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

// WorkshopBreakdown groups conversations by the owning user's workshop. Each
// row carries the first non-empty company name seen in the group, the chat
// count, the mean non-null cost and the number of distinct users. Rows are
// ordered by chat count, most active first. Conversations without a workshop
// are not grouped.
func WorkshopBreakdown(convs []v1.JoinedConversation) []apitype.WorkshopStats {
	type group struct {
		company string
		chats   int
		costs   []float64
		users   sets.String
	}
	groups := map[string]*group{}
	var order []string

	for _, c := range convs {
		if c.WorkshopID == "" {
			continue
		}
		g, ok := groups[c.WorkshopID]
		if !ok {
			g = &group{users: sets.NewString()}
			groups[c.WorkshopID] = g
			order = append(order, c.WorkshopID)
		}
		if g.company == "" {
			g.company = c.CompanyName
		}
		g.chats++
		if c.TotCost != nil {
			g.costs = append(g.costs, *c.TotCost)
		}
		if c.UserID != "" {
			g.users.Insert(c.UserID)
		}
	}

	rows := make([]apitype.WorkshopStats, 0, len(order))
	for _, id := range order {
		g := groups[id]
		rows = append(rows, apitype.WorkshopStats{
			WorkshopID: id,
			Company:    g.company,
			Chats:      g.chats,
			AvgCost:    mean(g.costs),
			Users:      g.users.Len(),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Chats > rows[j].Chats
	})
	return rows
}
