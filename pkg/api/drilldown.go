package api

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

const (
	chatLabelLayout = "2006-01-02 15:04"
	chatTimeLayout  = "Jan 02, 2006 at 03:04 PM"
)

// Selection is the drill-down state. Each level is only considered when the
// level above it is set.
type Selection struct {
	Company string
	UserID  string
	ChatID  string
}

// Companies returns the distinct company names of the users, in the order
// they first appear.
func Companies(ds *v1.Dataset) []string {
	companies := []string{}
	if ds == nil {
		return companies
	}
	seen := sets.NewString()
	for _, u := range ds.Users {
		if u.CompanyName == "" || seen.Has(u.CompanyName) {
			continue
		}
		seen.Insert(u.CompanyName)
		companies = append(companies, u.CompanyName)
	}
	return companies
}

// ResolveDrillDown walks the selection from company to chat. A selection that
// is not part of the collection narrowed by the levels above returns a
// *LookupError together with the levels that did resolve. A nil or empty
// dataset returns ErrNoData.
func ResolveDrillDown(ds *v1.Dataset, sel Selection) (apitype.DrillDown, error) {
	if ds == nil || len(ds.Users) == 0 || len(ds.Conversations) == 0 {
		return apitype.DrillDown{}, v1.ErrNoData
	}

	result := apitype.DrillDown{Companies: Companies(ds)}
	if sel.Company == "" {
		return result, nil
	}

	var companyUsers []v1.User
	for _, u := range ds.Users {
		if u.CompanyName == sel.Company {
			companyUsers = append(companyUsers, u)
		}
	}
	if len(companyUsers) == 0 {
		return result, &v1.LookupError{Level: v1.LevelCompany, ID: sel.Company}
	}
	result.Company = companyView(sel.Company, companyUsers)
	if sel.UserID == "" {
		return result, nil
	}

	var user *v1.User
	for i := range companyUsers {
		if companyUsers[i].UserID == sel.UserID {
			user = &companyUsers[i]
			break
		}
	}
	if user == nil {
		return result, &v1.LookupError{Level: v1.LevelUser, ID: sel.UserID}
	}

	chats := UserConversations(ds.Conversations, user.UserID)
	result.User = userView(*user, chats)
	if sel.ChatID == "" {
		return result, nil
	}

	for _, c := range chats {
		if c.ChatID == sel.ChatID {
			result.Chat = ChatDetail(c)
			return result, nil
		}
	}
	return result, &v1.LookupError{Level: v1.LevelChat, ID: sel.ChatID}
}

// UserConversations returns the user's conversations, most recently updated
// first. Conversations with an invalid updated_at sort last.
func UserConversations(convs []v1.JoinedConversation, userID string) []v1.JoinedConversation {
	var chats []v1.JoinedConversation
	for _, c := range convs {
		if c.UserID == userID {
			chats = append(chats, c)
		}
	}
	sort.SliceStable(chats, func(i, j int) bool {
		a, b := chats[i], chats[j]
		if a.UpdatedValid != b.UpdatedValid {
			return a.UpdatedValid
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return chats
}

func companyView(name string, users []v1.User) *apitype.CompanyView {
	view := &apitype.CompanyView{
		Name:       name,
		WorkshopID: users[0].WorkshopID,
		Users:      make([]apitype.CompanyUser, 0, len(users)),
	}
	for _, u := range users {
		view.Users = append(view.Users, apitype.CompanyUser{UserID: u.UserID, Email: u.Email, Role: u.Role})
	}
	return view
}

func userView(u v1.User, chats []v1.JoinedConversation) *apitype.UserView {
	view := &apitype.UserView{
		UserID:       u.UserID,
		Email:        u.Email,
		Role:         u.Role,
		LoginHistory: FormatLoginHistory(u.LoginHistory),
		Chats:        make([]apitype.ChatSummary, 0, len(chats)),
	}
	for _, c := range chats {
		summary := apitype.ChatSummary{
			ChatID: c.ChatID,
			Title:  c.Title,
			Label:  NotAvailable + " - " + c.Title,
		}
		if c.UpdatedValid {
			updated := c.UpdatedAt
			summary.UpdatedAt = &updated
			summary.Label = updated.Format(chatLabelLayout) + " - " + c.Title
		}
		view.Chats = append(view.Chats, summary)
	}
	return view
}

// ChatDetail renders a single conversation for display. System messages are
// left out; the other messages keep their original order.
func ChatDetail(c v1.JoinedConversation) *apitype.ChatDetail {
	detail := &apitype.ChatDetail{
		ChatID:             c.ChatID,
		DisplayID:          c.ChatID + "_" + c.UserID,
		Title:              c.Title,
		CreatedAt:          formatChatTime(c.CreatedAt, c.CreatedValid),
		UpdatedAt:          formatChatTime(c.UpdatedAt, c.UpdatedValid),
		Verified:           c.Verified,
		TotalCost:          NotAvailable,
		RegNo:              c.RegNo,
		VIN:                c.VIN,
		Mileage:            c.Mileage,
		CarInfo:            BuildCarInfoView(c.CarInfo),
		DTCs:               c.DTCs,
		InternalErrorCodes: c.InternalErrorCodes,
		Description:        c.Description,
		Feedback:           NotAvailable,
		Messages:           DisplayMessages(c.Messages),
	}
	if c.TotCost != nil {
		detail.TotalCost = strconv.FormatFloat(*c.TotCost, 'f', -1, 64) + "$"
	}
	if fb := strings.TrimSpace(string(c.Feedback)); fb != "" && fb != "null" {
		detail.Feedback = fb
	}
	return detail
}

// DisplayMessages drops system messages and labels the speaker of the rest.
func DisplayMessages(messages []v1.Message) []apitype.DisplayMessage {
	display := make([]apitype.DisplayMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == v1.MessageRoleSystem {
			continue
		}
		speaker := "Assistant"
		if m.Role == v1.MessageRoleUser {
			speaker = "User"
		}
		display = append(display, apitype.DisplayMessage{
			Role:    string(m.Role),
			Speaker: speaker,
			Content: m.Content.String(),
		})
	}
	return display
}

func formatChatTime(t time.Time, valid bool) string {
	if !valid {
		return NotAvailable
	}
	return t.Format(chatTimeLayout)
}
