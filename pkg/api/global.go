package api

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"k8s.io/apimachinery/pkg/util/sets"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

// EngagedMessageThreshold is the message count a conversation has to exceed
// to count as engaged.
const EngagedMessageThreshold = 4

type GlobalOptions struct {
	// IncludeFreeChats enables the free chat count, conversations that carry
	// neither a DTC list nor an internal error code list.
	IncludeFreeChats bool

	// Identity is the key conversations are grouped by for the chats per user
	// average. Defaults to the user id.
	Identity apitype.Identity
}

// ComputeGlobalStats computes the headline numbers over a dataset. A nil or
// empty dataset yields zero values.
func ComputeGlobalStats(ds *v1.Dataset, opts GlobalOptions) apitype.GlobalStats {
	identity := normalizeIdentity(opts.Identity)
	result := apitype.GlobalStats{Identity: identity}
	if ds == nil {
		return result
	}

	users, mechanics, workshops := sets.NewString(), sets.NewString(), sets.NewString()
	for _, u := range ds.Users {
		if u.UserID != "" {
			users.Insert(u.UserID)
			if u.Role == v1.RoleMechanic {
				mechanics.Insert(u.UserID)
			}
		}
		if u.WorkshopID != "" {
			workshops.Insert(u.WorkshopID)
		}
	}
	result.TotalUsers = users.Len()
	result.TotalMechanics = mechanics.Len()
	result.TotalWorkshops = workshops.Len()

	convs := ds.Conversations
	result.TotalChats = len(convs)

	active := sets.NewString()
	perIdentity := map[string]int{}
	var identityOrder []string
	messageCounts := make([]float64, 0, len(convs))
	var free int
	for _, c := range convs {
		if c.UserID != "" {
			active.Insert(c.UserID)
		}
		if key := identityKey(c, identity); key != "" {
			if _, ok := perIdentity[key]; !ok {
				identityOrder = append(identityOrder, key)
			}
			perIdentity[key]++
		}
		if c.Verified {
			result.VerifiedChats++
		}
		if c.NumMessages > EngagedMessageThreshold {
			result.EngagedChats++
		}
		if c.DTCs == nil && c.InternalErrorCodes == nil {
			free++
		}
		messageCounts = append(messageCounts, float64(c.NumMessages))
	}
	result.ActiveUsers = active.Len()
	result.UnverifiedChats = result.TotalChats - result.VerifiedChats
	result.VerifiedDisplay = fmt.Sprintf("%d/%d", result.VerifiedChats, result.TotalChats)
	if opts.IncludeFreeChats {
		result.FreeChats = &free
	}

	chatsPerIdentity := make([]float64, 0, len(identityOrder))
	for _, key := range identityOrder {
		chatsPerIdentity = append(chatsPerIdentity, float64(perIdentity[key]))
	}

	result.AvgMessagesPerChat = mean(messageCounts)
	result.AvgChatsPerUser = mean(chatsPerIdentity)
	result.AvgCostPerChat = mean(costs(convs))
	return result
}

func normalizeIdentity(identity apitype.Identity) apitype.Identity {
	if identity == apitype.IdentityEmail {
		return apitype.IdentityEmail
	}
	return apitype.IdentityUserID
}

// identityKey returns the grouping key of a conversation. The email comes from
// the joined user when there is one, otherwise from the conversation itself.
func identityKey(c v1.JoinedConversation, identity apitype.Identity) string {
	if identity == apitype.IdentityEmail {
		return conversationEmail(c)
	}
	return c.UserID
}

func conversationEmail(c v1.JoinedConversation) string {
	if c.Matched && c.UserEmail != "" {
		return c.UserEmail
	}
	return c.Email
}

// costs returns the non-null costs of the given conversations.
func costs(convs []v1.JoinedConversation) []float64 {
	values := make([]float64, 0, len(convs))
	for _, c := range convs {
		if c.TotCost != nil {
			values = append(values, *c.TotCost)
		}
	}
	return values
}

// mean is stats.Mean with an empty input reported as zero.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}
