package api

import (
	"sort"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

// counter counts keys and remembers the order they were first seen in, which
// breaks ties when ranking.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if key == "" {
		return
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) rows(limit int) []apitype.FrequencyRow {
	rows := make([]apitype.FrequencyRow, 0, len(c.order))
	for _, key := range c.order {
		rows = append(rows, apitype.FrequencyRow{Key: key, Count: c.counts[key]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	return truncate(rows, limit)
}

func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// CountDTCs flattens every DTC list into occurrence counts, most frequent
// first. Conversations without a DTC list are skipped. A limit of zero
// returns every code.
func CountDTCs(convs []v1.JoinedConversation, limit int) []apitype.FrequencyRow {
	c := newCounter()
	for _, conv := range convs {
		for _, code := range conv.DTCs {
			c.add(code)
		}
	}
	return c.rows(limit)
}

// CountInternalErrorCodes is CountDTCs for the internal error code lists.
func CountInternalErrorCodes(convs []v1.JoinedConversation, limit int) []apitype.FrequencyRow {
	c := newCounter()
	for _, conv := range convs {
		for _, code := range conv.InternalErrorCodes {
			c.add(code)
		}
	}
	return c.rows(limit)
}

// CountManufacturers counts conversations per manufacturer.
func CountManufacturers(convs []v1.JoinedConversation, limit int) []apitype.FrequencyRow {
	c := newCounter()
	for _, conv := range convs {
		c.add(conv.Manufacturer)
	}
	return c.rows(limit)
}

// CountModels counts conversations per manufacturer and model pair. Pairs
// with either side empty are skipped.
func CountModels(convs []v1.JoinedConversation, limit int) []apitype.ModelRow {
	type pair struct{ manufacturer, model string }
	counts := map[pair]int{}
	var order []pair
	for _, conv := range convs {
		if conv.Manufacturer == "" || conv.Model == "" {
			continue
		}
		p := pair{conv.Manufacturer, conv.Model}
		if _, ok := counts[p]; !ok {
			order = append(order, p)
		}
		counts[p]++
	}

	rows := make([]apitype.ModelRow, 0, len(order))
	for _, p := range order {
		rows = append(rows, apitype.ModelRow{Manufacturer: p.manufacturer, Model: p.model, Count: counts[p]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	return truncate(rows, limit)
}
