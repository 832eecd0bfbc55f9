package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Op is a field predicate operator.
type Op string

const (
	OpEq       Op = "$eq"
	OpNe       Op = "$ne"
	OpGt       Op = "$gt"
	OpGte      Op = "$gte"
	OpLt       Op = "$lt"
	OpLte      Op = "$lte"
	OpLike     Op = "$like"
	OpContains Op = "$contains"
	OpIn       Op = "$in"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Filter is a structured predicate over a record's declared columns.
// It compiles into a parameterized condition; user input never reaches
// the query text itself. Column references are checked against the
// record's declared columns at compile time, so a bad reference fails
// loudly instead of matching nothing.
type Filter interface {
	compile(entity string, columns map[string]struct{}) (string, []any, error)
}

type fieldFilter struct {
	column string
	op     Op
	value  any
}

type groupFilter struct {
	or      bool
	filters []Filter
}

// Eq matches rows where column equals value.
func Eq(column string, value any) Filter { return fieldFilter{column, OpEq, value} }

// Ne matches rows where column differs from value.
func Ne(column string, value any) Filter { return fieldFilter{column, OpNe, value} }

// Gt matches rows where column is greater than value.
func Gt(column string, value any) Filter { return fieldFilter{column, OpGt, value} }

// Gte matches rows where column is at least value.
func Gte(column string, value any) Filter { return fieldFilter{column, OpGte, value} }

// Lt matches rows where column is less than value.
func Lt(column string, value any) Filter { return fieldFilter{column, OpLt, value} }

// Lte matches rows where column is at most value.
func Lte(column string, value any) Filter { return fieldFilter{column, OpLte, value} }

// Like matches rows where column matches the SQL LIKE pattern.
func Like(column string, pattern string) Filter { return fieldFilter{column, OpLike, pattern} }

// Contains matches rows where column contains the substring.
func Contains(column string, substring string) Filter {
	return fieldFilter{column, OpContains, substring}
}

// In matches rows where column equals any of the values.
func In(column string, values ...any) Filter { return fieldFilter{column, OpIn, values} }

// And groups filters conjunctively.
func And(filters ...Filter) Filter { return groupFilter{or: false, filters: filters} }

// Or groups filters disjunctively.
func Or(filters ...Filter) Filter { return groupFilter{or: true, filters: filters} }

func (f fieldFilter) compile(entity string, columns map[string]struct{}) (string, []any, error) {
	if _, ok := columns[f.column]; !ok {
		return "", nil, NewUnknownColumn(entity, f.column)
	}

	switch f.op {
	case OpIn:
		values, ok := f.value.([]any)
		if !ok || len(values) == 0 {
			return "", nil, errors.New("$in requires a non-empty value list", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest)
		}
		return "? IN (?)", []any{bun.Ident(f.column), bun.In(values)}, nil
	case OpLike:
		return "? LIKE ?", []any{bun.Ident(f.column), f.value}, nil
	case OpContains:
		pattern := fmt.Sprintf("%%%v%%", f.value)
		return "? LIKE ?", []any{bun.Ident(f.column), pattern}, nil
	default:
		sqlOp, ok := sqlOps[f.op]
		if !ok {
			return "", nil, errors.New(fmt.Sprintf("unsupported filter operator %q", f.op), errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest)
		}
		return fmt.Sprintf("? %s ?", sqlOp), []any{bun.Ident(f.column), f.value}, nil
	}
}

func (g groupFilter) compile(entity string, columns map[string]struct{}) (string, []any, error) {
	if len(g.filters) == 0 {
		return "", nil, errors.New("empty filter group", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	exprs := make([]string, 0, len(g.filters))
	args := make([]any, 0, len(g.filters)*2)

	for _, f := range g.filters {
		expr, fargs, err := f.compile(entity, columns)
		if err != nil {
			return "", nil, err
		}
		exprs = append(exprs, expr)
		args = append(args, fargs...)
	}

	if len(exprs) == 1 {
		return exprs[0], args, nil
	}

	sep := " AND "
	if g.or {
		sep = " OR "
	}

	return "(" + strings.Join(exprs, sep) + ")", args, nil
}

// ParseFilter reads the JSON form carried in RPC params:
//
//	{"title": "hello"}                 equality
//	{"id": {"$gte": 10, "$lt": 20}}    operator object
//	{"$or": [{...}, {...}]}            disjunction
//
// Sibling entries combine conjunctively. An absent, null, or empty
// filter yields no predicate. Column names are not checked here;
// compilation against a record's declared columns does that.
func ParseFilter(raw json.RawMessage) (Filter, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "filter must be an object").
			WithCode(errors.CodeBadRequest)
	}

	return parseFilterObject(obj)
}

func parseFilterObject(obj map[string]json.RawMessage) (Filter, error) {
	// deterministic predicate order regardless of map iteration
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filters := make([]Filter, 0, len(obj))

	for _, key := range keys {
		raw := obj[key]

		if key == "$or" {
			var branches []map[string]json.RawMessage
			if err := json.Unmarshal(raw, &branches); err != nil {
				return nil, errors.Wrap(err, errors.CategoryBadInput, "$or expects an array of objects").
					WithCode(errors.CodeBadRequest)
			}

			parsed := make([]Filter, 0, len(branches))
			for _, branch := range branches {
				f, err := parseFilterObject(branch)
				if err != nil {
					return nil, err
				}
				// an empty branch matches everything, which makes the
				// whole disjunction vacuous
				if f == nil {
					parsed = nil
					break
				}
				parsed = append(parsed, f)
			}
			if len(parsed) > 0 {
				filters = append(filters, Or(parsed...))
			}
			continue
		}

		if strings.HasPrefix(key, "$") {
			return nil, errors.New(fmt.Sprintf("unsupported filter operator %q", key), errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest)
		}

		f, err := parseFieldPredicate(key, raw)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f...)
	}

	// an object with no entries is no predicate at all
	if len(filters) == 0 {
		return nil, nil
	}

	if len(filters) == 1 {
		return filters[0], nil
	}

	return And(filters...), nil
}

func parseFieldPredicate(column string, raw json.RawMessage) ([]Filter, error) {
	var ops map[string]json.RawMessage
	if err := json.Unmarshal(raw, &ops); err == nil && isOperatorObject(ops) {
		keys := make([]string, 0, len(ops))
		for k := range ops {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		filters := make([]Filter, 0, len(ops))
		for _, opKey := range keys {
			op := Op(opKey)
			if op == OpIn {
				var values []any
				if err := json.Unmarshal(ops[opKey], &values); err != nil {
					return nil, errors.Wrap(err, errors.CategoryBadInput, "$in expects an array").
						WithCode(errors.CodeBadRequest)
				}
				filters = append(filters, In(column, values...))
				continue
			}

			var value any
			if err := json.Unmarshal(ops[opKey], &value); err != nil {
				return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid filter value").
					WithCode(errors.CodeBadRequest)
			}
			filters = append(filters, fieldFilter{column, op, value})
		}
		return filters, nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid filter value").
			WithCode(errors.CodeBadRequest)
	}

	return []Filter{Eq(column, value)}, nil
}

// isOperatorObject reports whether every key is an operator, which is
// what distinguishes {"$gte": 1} from a plain object value.
func isOperatorObject(obj map[string]json.RawMessage) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}
