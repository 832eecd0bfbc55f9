package model

import (
	"encoding/json"
	"strings"

	"github.com/uptrace/bun"
)

const (
	// ListLimitDefault is applied when the caller does not specify a
	// page size.
	ListLimitDefault = 300
	// ListLimitMax is the fixed policy ceiling. Requests above it are
	// rejected, not clamped.
	ListLimitMax = 1000
)

// OrderBy is one ordering term. The string form "col" sorts ascending,
// "!col" descending.
type OrderBy struct {
	Column string
	Desc   bool
}

// ParseOrderBy reads the compact string form.
func ParseOrderBy(s string) OrderBy {
	if strings.HasPrefix(s, "!") {
		return OrderBy{Column: strings.TrimPrefix(s, "!"), Desc: true}
	}
	return OrderBy{Column: s}
}

// UnmarshalJSON accepts either the compact string form ("!title") or
// the object form.
func (o *OrderBy) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = ParseOrderBy(s)
		return nil
	}

	type plain OrderBy
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = OrderBy(p)
	return nil
}

// ListOptions carries pagination and ordering for List calls. All
// fields are optional; FinalizeListOptions fills the defaults.
type ListOptions struct {
	Limit   *int     `json:"limit,omitempty"`
	Offset  *int     `json:"offset,omitempty"`
	OrderBy *OrderBy `json:"order_by,omitempty"`
}

// FinalizeListOptions applies the limit policy: absent options get the
// default limit and id-ascending order, a missing limit gets the
// default, and a limit above ListLimitMax is an error.
func FinalizeListOptions(opts *ListOptions) (*ListOptions, error) {
	if opts == nil {
		limit := ListLimitDefault
		return &ListOptions{
			Limit:   &limit,
			OrderBy: &OrderBy{Column: "id"},
		}, nil
	}

	out := *opts

	if out.Limit == nil {
		limit := ListLimitDefault
		out.Limit = &limit
	} else if *out.Limit > ListLimitMax {
		return nil, NewListLimitOverMax(ListLimitMax, *out.Limit)
	}

	return &out, nil
}

// apply translates the finalized options onto a select query. The order
// column is validated against the record's declared columns; order
// clauses cannot be parameterized, so nothing unvalidated may reach
// them.
func (o *ListOptions) apply(q *bun.SelectQuery, entity string, columns map[string]struct{}) error {
	if o.Limit != nil {
		q.Limit(*o.Limit)
	}
	if o.Offset != nil {
		q.Offset(*o.Offset)
	}

	if o.OrderBy != nil {
		if _, ok := columns[o.OrderBy.Column]; !ok {
			return NewUnknownColumn(entity, o.OrderBy.Column)
		}

		dir := "ASC"
		if o.OrderBy.Desc {
			dir = "DESC"
		}
		q.OrderExpr("? ?", bun.Ident(o.OrderBy.Column), bun.Safe(dir))
	}

	return nil
}
