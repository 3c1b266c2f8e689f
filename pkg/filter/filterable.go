// Package filter implements the request driven filter model shared by every
// table endpoint, both for in-memory rows and for gorm queries.
package filter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	"github.com/codeoc/dashboard/pkg/util/param"
)

// LinkOperator determines how to chain multiple filters together, 'AND' and 'OR'
// are supported.
type LinkOperator string

const (
	LinkOperatorAnd LinkOperator = "and"
	LinkOperatorOr  LinkOperator = "or"
)

// Operator defines an operator used for filter items such as equals, contains, etc,
// as well as the arithmetic operators like ==, !=, >, etc.
type Operator string

const (
	OperatorContains   Operator = "contains"
	OperatorEquals     Operator = "equals"
	OperatorStartsWith Operator = "starts with"
	OperatorEndsWith   Operator = "ends with"
	OperatorIsEmpty    Operator = "is empty"
	OperatorIsNotEmpty Operator = "is not empty"

	OperatorArithmeticEquals              Operator = "="
	OperatorArithmeticNotEquals           Operator = "!="
	OperatorArithmeticGreaterThan         Operator = ">"
	OperatorArithmeticGreaterThanOrEquals Operator = ">="
	OperatorArithmeticLessThan            Operator = "<"
	OperatorArithmeticLessThanOrEquals    Operator = "<="
)

// Filter is a collection of FilterItem, with a link operator. It is used to chain
// filters together, for example: where company contains acme and num_chats > 10.
type Filter struct {
	Items        []FilterItem `json:"items"`
	LinkOperator LinkOperator `json:"linkOperator"`
}

// FilterItem is an individual filter consisting of a field, operator,
// value and a not boolean that negates the operator. For example:
// company contains acme, or company not contains acme.
type FilterItem struct {
	Field    string   `json:"columnField"`
	Not      bool     `json:"not"`
	Operator Operator `json:"operatorValue"`
	Value    string   `json:"value"`
}

// sqlCondition renders a single item as a where clause with its arguments.
// Negation is applied by the caller.
func (f FilterItem) sqlCondition(filterable Filterable) (string, []interface{}, bool) {
	column := fmt.Sprintf("%q", f.Field)
	switch f.Operator {
	case OperatorContains:
		// contains means membership for array columns and substring otherwise
		if filterable.GetFieldType(f.Field) == apitype.ColumnTypeArray {
			return fmt.Sprintf("? = ANY(%s)", f.Field), []interface{}{f.Value}, true
		}
		return column + " LIKE ?", []interface{}{"%" + f.Value + "%"}, true
	case OperatorStartsWith:
		return column + " LIKE ?", []interface{}{f.Value + "%"}, true
	case OperatorEndsWith:
		return column + " LIKE ?", []interface{}{"%" + f.Value}, true
	case OperatorEquals, OperatorArithmeticEquals:
		return column + " = ?", []interface{}{f.Value}, true
	case OperatorArithmeticNotEquals:
		return column + " <> ?", []interface{}{f.Value}, true
	case OperatorArithmeticGreaterThan, OperatorArithmeticGreaterThanOrEquals,
		OperatorArithmeticLessThan, OperatorArithmeticLessThanOrEquals:
		return fmt.Sprintf("%s %s ?", column, f.Operator), []interface{}{f.Value}, true
	case OperatorIsEmpty:
		return column + " IS NULL", nil, true
	case OperatorIsNotEmpty:
		return column + " IS NOT NULL", nil, true
	}
	return "", nil, false
}

// Filterable interface is for anything that can be filtered, it needs to
// support querying the type and value of fields.
type Filterable interface {
	GetFieldType(param string) apitype.ColumnType
	GetStringValue(param string) (string, error)
	GetNumericalValue(param string) (float64, error)
	GetArrayValue(param string) ([]string, error)
}

type FilterOptions struct {
	Filter    *Filter
	SortField string
	Sort      apitype.Sort
	Limit     int
}

// FilterOptionsFromRequest reads the filter, sortField, sort and limit query
// parameters. An empty sortField keeps the rows in the order they were
// produced.
func FilterOptionsFromRequest(req *http.Request, defaultSortField string, defaultSort apitype.Sort) (filterOpts *FilterOptions, err error) {
	filterOpts = &FilterOptions{}
	queryFilter := req.URL.Query().Get("filter")
	filter := &Filter{}
	if queryFilter != "" {
		if err := json.Unmarshal([]byte(queryFilter), filter); err != nil {
			return filterOpts, errors.Wrap(err, "could not unmarshal filter")
		}
	}
	filterOpts.Filter = filter

	limitParam, err := param.Read(req, "limit")
	if err != nil {
		return filterOpts, err
	}
	if limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return filterOpts, errors.Wrap(err, "error parsing limit param")
		}
		filterOpts.Limit = limit
	}

	sortField, err := param.Read(req, "sortField")
	if err != nil {
		return filterOpts, err
	}
	sortParam, err := param.Read(req, "sort")
	if err != nil {
		return filterOpts, err
	}
	sort := apitype.Sort(sortParam)
	if sortField == "" {
		sortField = defaultSortField
	}
	if sort == "" {
		sort = defaultSort
	}
	filterOpts.Sort = sort
	filterOpts.SortField = sortField
	return filterOpts, nil
}

// FilterableDBResult applies the filter, limit and ordering to a gorm query.
func FilterableDBResult(dbClient *gorm.DB, filterOpts *FilterOptions, filterable Filterable) (*gorm.DB, error) {
	q := dbClient
	if filterOpts.Filter != nil {
		q = filterOpts.Filter.ToSQL(q, filterable)
	}
	if filterOpts.Limit > 0 {
		q = q.Limit(filterOpts.Limit)
	}

	if filterOpts.SortField != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: filterOpts.SortField}, Desc: filterOpts.Sort == apitype.SortDescending})
	}

	return q, nil
}

// ToSQL adds the filter items to a gorm query as where clauses joined by the
// link operator. Items with an unknown operator are skipped.
func (filters Filter) ToSQL(db *gorm.DB, filterable Filterable) *gorm.DB {
	for _, f := range filters.Items {
		query, args, ok := f.sqlCondition(filterable)
		if !ok {
			log.WithField("operator", f.Operator).Debug("skipping unsupported sql filter operator")
			continue
		}
		if f.Not {
			query = "NOT (" + query + ")"
		}
		if filters.LinkOperator == LinkOperatorOr {
			db = db.Or(query, args...)
		} else {
			db = db.Where(query, args...)
		}
	}

	return db
}

// Filter reports whether a row passes the filter items, combined with the
// link operator. An empty filter matches everything.
func (filters Filter) Filter(item Filterable) (bool, error) {
	if len(filters.Items) == 0 {
		return true, nil
	}

	anyMatched, allMatched := false, true
	for _, f := range filters.Items {
		var result bool
		var err error

		switch item.GetFieldType(f.Field) {
		case apitype.ColumnTypeString:
			result, err = filterString(f, item)
		case apitype.ColumnTypeNumerical:
			result, err = filterNumerical(f, item)
		case apitype.ColumnTypeArray:
			result, err = filterArray(f, item)
		default:
			err = errors.Errorf("%s: unknown field or field type", f.Field)
		}
		if err != nil {
			log.WithError(err).WithField("field", f.Field).Trace("could not apply filter")
			return false, err
		}

		if f.Not {
			result = !result
		}
		anyMatched = anyMatched || result
		allMatched = allMatched && result
	}

	if filters.LinkOperator == LinkOperatorOr {
		return anyMatched, nil
	}
	return allMatched, nil
}

func filterString(filter FilterItem, item Filterable) (bool, error) {
	value, err := item.GetStringValue(filter.Field)
	if err != nil {
		return false, err
	}
	comparison := filter.Value

	switch filter.Operator {
	case OperatorContains:
		return strings.Contains(value, comparison), nil
	case OperatorEquals:
		// exported names sometimes carry trailing whitespace
		return strings.TrimSpace(value) == comparison, nil
	case OperatorStartsWith:
		return strings.HasPrefix(value, comparison), nil
	case OperatorEndsWith:
		return strings.HasSuffix(value, comparison), nil
	case OperatorIsEmpty:
		return value == "", nil
	case OperatorIsNotEmpty:
		return value != "", nil
	default:
		return false, errors.Errorf("unknown string field operator %s", filter.Operator)
	}
}

func filterNumerical(filter FilterItem, item Filterable) (bool, error) {
	if filter.Value == "" {
		return true, nil
	}

	value, err := item.GetNumericalValue(filter.Field)
	if err != nil {
		return false, err
	}

	comparison, err := strconv.ParseFloat(filter.Value, 64)
	if err != nil {
		return false, err
	}

	switch filter.Operator {
	case OperatorArithmeticEquals:
		return value == comparison, nil
	case OperatorArithmeticNotEquals:
		return value != comparison, nil
	case OperatorArithmeticGreaterThan:
		return value > comparison, nil
	case OperatorArithmeticLessThan:
		return value < comparison, nil
	case OperatorArithmeticGreaterThanOrEquals:
		return value >= comparison, nil
	case OperatorArithmeticLessThanOrEquals:
		return value <= comparison, nil
	case OperatorIsEmpty:
		return value == 0, nil
	case OperatorIsNotEmpty:
		return value != 0, nil
	default:
		return false, errors.Errorf("unknown numeric field operator %s", filter.Operator)
	}
}

func filterArray(filter FilterItem, item Filterable) (bool, error) {
	list, err := item.GetArrayValue(filter.Field)
	if err != nil {
		return false, err
	}

	for _, value := range list {
		if strings.Contains(value, filter.Value) {
			return true, nil
		}
	}

	return false, nil
}

// Compare reports whether a sorts before b on sortField. Array columns are
// not sortable.
func Compare(a, b Filterable, sortField string) bool {
	switch a.GetFieldType(sortField) {
	case apitype.ColumnTypeNumerical:
		val1, err1 := a.GetNumericalValue(sortField)
		val2, err2 := b.GetNumericalValue(sortField)
		logCompareErrors(sortField, err1, err2)
		return val1 < val2
	case apitype.ColumnTypeString:
		val1, err1 := a.GetStringValue(sortField)
		val2, err2 := b.GetStringValue(sortField)
		logCompareErrors(sortField, err1, err2)
		return val1 < val2
	}
	return false
}

func logCompareErrors(sortField string, errs ...error) {
	for _, err := range errs {
		if err != nil {
			log.WithError(err).WithField("sortField", sortField).Debug("could not compare rows")
		}
	}
}

// Apply filters, sorts and limits an in-memory table. Sorting is stable, so
// rows that compare equal keep their original order.
func Apply[T Filterable](rows []T, opts *FilterOptions) ([]T, error) {
	if opts == nil {
		return rows, nil
	}

	result := make([]T, 0, len(rows))
	for _, row := range rows {
		if opts.Filter != nil {
			include, err := opts.Filter.Filter(row)
			if err != nil {
				return nil, err
			}
			if !include {
				continue
			}
		}
		result = append(result, row)
	}

	if opts.SortField != "" {
		sort.SliceStable(result, func(i, j int) bool {
			if opts.Sort == apitype.SortAscending {
				return Compare(result[i], result[j], opts.SortField)
			}
			return Compare(result[j], result[i], opts.SortField)
		})
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}
