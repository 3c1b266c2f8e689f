package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
	"github.com/codeoc/dashboard/pkg/joiner"
)

const fixtureUsers = `[
	{"user_id": "u1", "email": "anna@acme.test", "user_role": "mechanic", "workshop_id": "w1", "company_name": "Acme",
	 "last_login": "2024-01-10T08:00:00Z", "login_count": 3,
	 "login_history": ["2024-01-01T10:00:00Z", "not-a-date", "2024-01-02T10:00:00Z"]},
	{"user_id": "u2", "email": "bo@acme.test", "user_role": "other", "workshop_id": "w1", "company_name": "Acme",
	 "last_login": "2024-01-15T23:30:00Z", "login_count": 1},
	{"user_id": "u3", "email": "cy@beta.test", "user_role": "mechanic", "workshop_id": "w2", "company_name": "Beta",
	 "last_login": "2024-02-01T00:00:00Z", "login_count": 1},
	{"user_id": "u4", "email": "di@gamma.test", "user_role": "mechanic", "workshop_id": "w3", "company_name": "Gamma",
	 "last_login": "bad", "login_count": 0}
]`

const fixtureConversations = `[
	{"chat_id": "c1", "user_id": "u1", "title": "Misfire", "created_at": "2024-01-01T10:00:00Z", "updated_at": "2024-01-01T11:00:00Z",
	 "open_search": false, "feedback": [1,1], "tot_cost": 0.5, "dtcs": ["P0101"], "internal_error_codes": null,
	 "manufacturer": "VW", "model": "Golf", "year": 2015, "mileage": 120000, "regno": "AB12345", "vin": "WVWZZZ1KZ",
	 "description": "rough idle", "car_info": {"make": "VW", "model": "Golf", "year": 2015.0, "year_end": null},
	 "messages": [
		{"role": "system", "content": "prompt"},
		{"role": "user", "content": "A"},
		{"role": "assistant", "content": "B"},
		{"role": "user", "content": "C"},
		{"role": "assistant", "content": "D"}
	 ]},
	{"chat_id": "c2", "user_id": "u1", "title": "Sensor", "created_at": "2024-01-03T08:00:00Z", "updated_at": "2024-01-03T09:00:00Z",
	 "open_search": false, "feedback": [-1], "tot_cost": 1.5, "dtcs": null, "internal_error_codes": ["E1"],
	 "manufacturer": "VW", "model": "Passat",
	 "messages": [{"role": "system", "content": "prompt"}, {"role": "user", "content": "A"}, {"role": "assistant", "content": "B"}]},
	{"chat_id": "c3", "user_id": "u2", "title": "Brakes", "created_at": "2024-01-02T08:00:00Z", "updated_at": "2024-01-02T08:30:00Z",
	 "open_search": true, "feedback": [], "tot_cost": null, "dtcs": ["P0101", "P0200"], "internal_error_codes": null,
	 "manufacturer": "BMW", "model": "",
	 "messages": [{"role": "user", "content": "A"}, {"role": "assistant", "content": "B"}]},
	{"chat_id": "c4", "user_id": "u3", "title": "Noise", "created_at": "2024-01-04T08:00:00Z", "updated_at": "2024-01-04T08:00:00Z",
	 "feedback": null, "tot_cost": 1.0, "manufacturer": "VW", "model": "Golf", "messages": []},
	{"chat_id": "c5", "user_id": "ghost", "email": "ghost@nowhere.test", "title": "Lights", "created_at": "garbage", "updated_at": "2024-01-05T08:00:00Z",
	 "open_search": true, "feedback": [1], "tot_cost": 2.0, "dtcs": [], "internal_error_codes": [],
	 "manufacturer": "", "messages": [{"role": "user", "content": "A"}]}
]`

func fixtureDataset(t *testing.T) *v1.Dataset {
	t.Helper()

	var users []v1.UserRecord
	require.NoError(t, json.Unmarshal([]byte(fixtureUsers), &users))
	var convs []v1.ConversationRecord
	require.NoError(t, json.Unmarshal([]byte(fixtureConversations), &convs))

	ds, err := joiner.BuildDataset(users, convs)
	require.NoError(t, err)
	return ds
}

func conversationsFromJSON(t *testing.T, raw string) []v1.JoinedConversation {
	t.Helper()

	var records []v1.ConversationRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	ds, err := joiner.BuildDataset([]v1.UserRecord{{UserID: "u1"}}, records)
	require.NoError(t, err)
	return ds.Conversations
}
