package v1

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role values a user record may carry. Anything that is not a mechanic is
// treated as "other" for reporting purposes.
const (
	RoleMechanic = "mechanic"
	RoleOther    = "other"
)

// MessageRole is the author of a single chat message.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Thumb is the up/down/neutral classification of a conversation's feedback.
type Thumb string

const (
	ThumbUp      Thumb = "up"
	ThumbDown    Thumb = "down"
	ThumbNeutral Thumb = "neutral"
)

// FlexString decodes any JSON scalar into its string form. Exports from the
// chat backend are not consistent about quoting identifiers, years and
// mileages, so a number, a string and null must all decode. Arrays and
// objects keep their raw JSON text.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		*f = FlexString(data)
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// UserRecord is one entry of the user statistics export.
type UserRecord struct {
	UserID       FlexString   `json:"user_id"`
	Email        string       `json:"email"`
	UserRole     string       `json:"user_role"`
	WorkshopID   FlexString   `json:"workshop_id"`
	CompanyName  string       `json:"company_name"`
	LastLogin    FlexString   `json:"last_login"`
	LoginCount   json.Number  `json:"login_count"`
	LoginHistory []FlexString `json:"login_history"`
}

// Message is a single turn of a conversation transcript.
type Message struct {
	Role    MessageRole `json:"role"`
	Content FlexString  `json:"content"`
}

// ConversationRecord is one entry of the conversation export.
type ConversationRecord struct {
	ChatID      FlexString `json:"chat_id"`
	UserID      FlexString `json:"user_id"`
	Email       string     `json:"email"`
	Title       string     `json:"title"`
	CreatedAt   FlexString `json:"created_at"`
	UpdatedAt   FlexString `json:"updated_at"`
	OpenSearch  *bool      `json:"open_search"`
	TotCost     *float64   `json:"tot_cost"`
	RegNo       FlexString `json:"regno"`
	VIN         FlexString `json:"vin"`
	Description FlexString `json:"description"`

	Manufacturer FlexString `json:"manufacturer"`
	Model        FlexString `json:"model"`
	Year         FlexString `json:"year"`
	Mileage      FlexString `json:"mileage"`

	// Feedback is only meaningful when it is a JSON array of numbers.
	Feedback json.RawMessage `json:"feedback"`

	// A nil slice means the field was absent or null, which is distinct
	// from an empty list.
	DTCs               []string `json:"dtcs"`
	InternalErrorCodes []string `json:"internal_error_codes"`

	CarInfo  json.RawMessage `json:"car_info"`
	Messages []Message       `json:"messages"`
}

// User is a normalized UserRecord.
type User struct {
	UserID      string
	Email       string
	Role        string
	WorkshopID  string
	CompanyName string

	// LastLogin is zero when LastLoginValid is false.
	LastLogin      time.Time
	LastLoginValid bool
	LoginCount     int

	// LoginHistory holds the raw entries; they are parsed lazily for display.
	LoginHistory []string
}

// Conversation is a normalized ConversationRecord with derived fields attached.
type Conversation struct {
	ChatID      string
	UserID      string
	Email       string
	Title       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	TotCost     *float64
	RegNo       string
	VIN         string
	Description string

	Manufacturer string
	Model        string
	Year         string
	Mileage      string

	Feedback           json.RawMessage
	DTCs               []string
	InternalErrorCodes []string
	CarInfo            json.RawMessage
	Messages           []Message

	// CreatedValid and UpdatedValid are false when the source timestamp could
	// not be parsed. Such rows are kept but excluded from time-based views.
	CreatedValid bool
	UpdatedValid bool

	NumMessages int
	FeedbackSum float64
	Thumb       Thumb
	Verified    bool
}

// JoinedConversation is a Conversation enriched with the owning user's
// metadata. Matched is false when no user carried the conversation's user id;
// the joined fields are empty in that case.
type JoinedConversation struct {
	Conversation

	Matched     bool
	UserEmail   string
	Role        string
	WorkshopID  string
	CompanyName string
}

// WorkshopCompanyMap maps a workshop id to the company that owns it.
type WorkshopCompanyMap map[string]string

// Dataset is an immutable snapshot of both collections after normalization
// and joining. It is shared between concurrent requests and must never be
// modified after construction.
type Dataset struct {
	Users             []User
	Conversations     []JoinedConversation
	WorkshopCompanies WorkshopCompanyMap
	LoadedAt          time.Time

	// Warnings lists the row level problems that were recovered from while
	// building the dataset.
	Warnings []string
}
