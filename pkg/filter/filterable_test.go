package filter

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
)

func TestLinkOperator(t *testing.T) {
	workshop := apitype.WorkshopStats{WorkshopID: "w1", Company: "Acme Motors", Chats: 12, AvgCost: 0.25, Users: 3}

	cases := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{
			name: "company_AND_chats_false",
			filter: Filter{
				Items: []FilterItem{
					{Field: "company", Operator: OperatorContains, Value: "Acme"},
					{Field: "num_chats", Operator: OperatorArithmeticGreaterThan, Value: "20"},
				},
				LinkOperator: LinkOperatorAnd,
			},
			expected: false,
		},
		{
			name: "company_AND_chats_true",
			filter: Filter{
				Items: []FilterItem{
					{Field: "company", Operator: OperatorContains, Value: "Acme"},
					{Field: "num_chats", Operator: OperatorArithmeticLessThan, Value: "20"},
				},
				LinkOperator: LinkOperatorAnd,
			},
			expected: true,
		},
		{
			name: "company_OR_chats_true",
			filter: Filter{
				Items: []FilterItem{
					{Field: "company", Operator: OperatorContains, Value: "Beta"},
					{Field: "num_chats", Operator: OperatorArithmeticGreaterThanOrEquals, Value: "12"},
				},
				LinkOperator: LinkOperatorOr,
			},
			expected: true,
		},
		{
			name: "default_link_is_and",
			filter: Filter{
				Items: []FilterItem{
					{Field: "company", Operator: OperatorStartsWith, Value: "Acme"},
					{Field: "num_users", Operator: OperatorArithmeticEquals, Value: "4"},
				},
			},
			expected: false,
		},
		{
			name: "not_negates",
			filter: Filter{
				Items: []FilterItem{
					{Field: "company", Operator: OperatorEquals, Value: "Beta", Not: true},
				},
			},
			expected: true,
		},
		{
			name:     "empty_filter_matches",
			filter:   Filter{},
			expected: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := tc.filter.Filter(workshop)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestFilterUnknownOperator(t *testing.T) {
	f := Filter{Items: []FilterItem{{Field: "key", Operator: ">", Value: "x"}}}
	_, err := f.Filter(apitype.FrequencyRow{Key: "P0101", Count: 2})
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	rows := []apitype.FrequencyRow{
		{Key: "P0101", Count: 2},
		{Key: "P0200", Count: 1},
		{Key: "U0100", Count: 2},
		{Key: "P0300", Count: 5},
	}

	t.Run("nil options return the input", func(t *testing.T) {
		got, err := Apply(rows, nil)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("no sort field keeps order", func(t *testing.T) {
		got, err := Apply(rows, &FilterOptions{Filter: &Filter{}, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, rows[:2], got)
	})

	t.Run("descending sort is stable", func(t *testing.T) {
		got, err := Apply(rows, &FilterOptions{Filter: &Filter{}, SortField: "count", Sort: apitype.SortDescending})
		require.NoError(t, err)
		assert.Equal(t, []string{"P0300", "P0101", "U0100", "P0200"}, keys(got))
	})

	t.Run("filter then limit", func(t *testing.T) {
		opts := &FilterOptions{
			Filter:    &Filter{Items: []FilterItem{{Field: "key", Operator: OperatorStartsWith, Value: "P"}}},
			SortField: "key",
			Sort:      apitype.SortAscending,
			Limit:     2,
		}
		got, err := Apply(rows, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"P0101", "P0200"}, keys(got))
	})

	t.Run("input is not reordered", func(t *testing.T) {
		_, err := Apply(rows, &FilterOptions{SortField: "count", Sort: apitype.SortAscending})
		require.NoError(t, err)
		assert.Equal(t, "P0101", rows[0].Key)
	})
}

func TestFilterOptionsFromRequest(t *testing.T) {
	q := url.Values{}
	q.Set("filter", `{"items":[{"columnField":"company","operatorValue":"contains","value":"Acme"}],"linkOperator":"or"}`)
	q.Set("limit", "5")
	req := httptest.NewRequest("GET", "/api/workshops?"+q.Encode(), nil)

	opts, err := FilterOptionsFromRequest(req, "num_chats", apitype.SortDescending)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, "num_chats", opts.SortField)
	assert.Equal(t, apitype.SortDescending, opts.Sort)
	require.Len(t, opts.Filter.Items, 1)
	assert.Equal(t, LinkOperatorOr, opts.Filter.LinkOperator)

	for _, query := range []string{"limit=abc", "sort=sideways", "sortField=" + url.QueryEscape("num_chats desc; --")} {
		req = httptest.NewRequest("GET", "/api/workshops?"+query, nil)
		_, err = FilterOptionsFromRequest(req, "", "")
		assert.Error(t, err, query)
	}
}

func keys(rows []apitype.FrequencyRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Key)
	}
	return out
}
