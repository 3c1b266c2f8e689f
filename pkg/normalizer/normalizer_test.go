package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "RFC3339 zulu",
			value:    "2024-01-01T10:00:00Z",
			expected: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "offset is converted to UTC",
			value:    "2024-01-01T12:00:00+02:00",
			expected: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "fractional seconds without zone",
			value:    "2024-03-05T08:09:10.123456",
			expected: time.Date(2024, 3, 5, 8, 9, 10, 123456000, time.UTC),
		},
		{
			name:     "space separated with offset",
			value:    "2024-03-05 08:09:10.5+00:00",
			expected: time.Date(2024, 3, 5, 8, 9, 10, 500000000, time.UTC),
		},
		{
			name:     "hour only offset",
			value:    "2024-01-01T10:00:00+00",
			expected: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "postgres timestamptz text",
			value:    "2024-01-01 12:00:00.123456+02",
			expected: time.Date(2024, 1, 1, 10, 0, 0, 123456000, time.UTC),
		},
		{
			name:     "space separated naive",
			value:    "2024-03-05 08:09:10",
			expected: time.Date(2024, 3, 5, 8, 9, 10, 0, time.UTC),
		},
		{
			name:     "date only",
			value:    "2024-03-05",
			expected: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			value:   "not-a-date",
			wantErr: true,
		},
		{
			name:    "empty",
			value:   "",
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.value)
			if tc.wantErr {
				var parseErr *v1.ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, tc.value, parseErr.Value)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestClassifyThumb(t *testing.T) {
	assert.Equal(t, v1.ThumbUp, ClassifyThumb(2))
	assert.Equal(t, v1.ThumbDown, ClassifyThumb(-1))
	assert.Equal(t, v1.ThumbNeutral, ClassifyThumb(0))
	assert.Equal(t, v1.ThumbUp, ClassifyThumb(0.4), "fractional feedback is not rounded away")
}

func TestFeedbackSum(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{name: "absent", raw: "", expected: 0},
		{name: "null", raw: "null", expected: 0},
		{name: "empty list", raw: "[]", expected: 0},
		{name: "positive", raw: "[1, 1]", expected: 2},
		{name: "mixed", raw: "[1, -1, -1]", expected: -1},
		{name: "fractional", raw: "[0.4]", expected: 0.4},
		{name: "not a list", raw: `"thumbs up"`, expected: 0},
		{name: "object", raw: `{"score": 3}`, expected: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var raw json.RawMessage
			if tc.raw != "" {
				raw = json.RawMessage(tc.raw)
			}
			assert.Equal(t, tc.expected, FeedbackSum(raw))
		})
	}
}

func TestConversations(t *testing.T) {
	var records []v1.ConversationRecord
	require.NoError(t, json.Unmarshal([]byte(`[
		{"chat_id": "c1", "user_id": "u1", "created_at": "2024-01-01T10:00:00Z", "updated_at": "2024-01-01T11:00:00Z",
		 "open_search": false, "feedback": [1, 1], "dtcs": null, "internal_error_codes": [],
		 "year": 2015, "mileage": "120000",
		 "messages": [{"role": "system", "content": "s"}, {"role": "user", "content": "A"}, {"role": "assistant", "content": "B"}]},
		{"chat_id": 42, "user_id": "u2", "created_at": "yesterday", "updated_at": "2024-01-02T11:00:00Z",
		 "open_search": true, "feedback": [-1]},
		{"chat_id": "c3", "user_id": "u3", "created_at": "2024-01-03", "updated_at": "2024-01-03"}
	]`), &records))

	convs, errs := Conversations(records)
	require.Len(t, convs, 3, "rows with bad timestamps must not be dropped")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "created_at")

	first := convs[0]
	assert.Equal(t, 3, first.NumMessages)
	assert.Equal(t, 2.0, first.FeedbackSum)
	assert.Equal(t, v1.ThumbUp, first.Thumb)
	assert.True(t, first.Verified)
	assert.True(t, first.CreatedValid)
	assert.Nil(t, first.DTCs)
	assert.NotNil(t, first.InternalErrorCodes)
	assert.Equal(t, "2015", first.Year)
	assert.Equal(t, "120000", first.Mileage)

	second := convs[1]
	assert.Equal(t, "42", second.ChatID)
	assert.False(t, second.CreatedValid)
	assert.True(t, second.UpdatedValid)
	assert.False(t, second.Verified)
	assert.Equal(t, v1.ThumbDown, second.Thumb)

	third := convs[2]
	assert.True(t, third.Verified, "missing open_search counts as verified")
	assert.Equal(t, v1.ThumbNeutral, third.Thumb)
	assert.Equal(t, 0, third.NumMessages)

	// inputs are untouched
	assert.Equal(t, v1.FlexString("yesterday"), records[1].CreatedAt)
}

func TestUsers(t *testing.T) {
	var records []v1.UserRecord
	require.NoError(t, json.Unmarshal([]byte(`[
		{"user_id": "u1", "email": "a@x", "user_role": "mechanic", "workshop_id": 7, "company_name": "Acme",
		 "last_login": "2024-01-02T10:00:00Z", "login_count": 3,
		 "login_history": ["2024-01-01T10:00:00Z", "not-a-date", "2024-01-02T10:00:00Z"]},
		{"user_id": "u2", "email": "b@x", "user_role": "other", "workshop_id": "w2", "company_name": "Beta",
		 "last_login": "garbage", "login_count": 1.0, "login_history": null}
	]`), &records))

	users, errs := Users(records)
	require.Len(t, users, 2)
	require.Len(t, errs, 1)

	assert.Equal(t, "7", users[0].WorkshopID)
	assert.True(t, users[0].LastLoginValid)
	assert.Equal(t, 3, users[0].LoginCount)
	assert.Len(t, users[0].LoginHistory, 3)

	assert.False(t, users[1].LastLoginValid)
	assert.True(t, users[1].LastLogin.IsZero())
	assert.Equal(t, 1, users[1].LoginCount)
	assert.Nil(t, users[1].LoginHistory)
}

func TestDuplicateUserIDs(t *testing.T) {
	users := []v1.User{{UserID: "a"}, {UserID: "b"}, {UserID: "a"}, {UserID: "a"}, {UserID: "c"}, {UserID: "b"}}
	assert.Equal(t, []string{"a", "b"}, DuplicateUserIDs(users))
	assert.Empty(t, DuplicateUserIDs(nil))
}
