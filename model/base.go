package model

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/taskhive/taskhive/principal"
	"github.com/uptrace/bun"
)

// The generic operations below are written once against two small
// capabilities and reused by every entity store:
//
//   - Descriptor names the physical table.
//   - Record enumerates the declared columns of a record type.
//   - Changeset enumerates only the fields a value actually sets, so
//     create and update never touch columns the caller left alone.
//
// Each operation issues exactly one statement. The principal context is
// accepted on every call for auditing and forward compatibility; no
// row-level authorization decision is made here.

// Descriptor exposes the physical table identifier of an entity.
type Descriptor interface {
	Table() string
}

// Record exposes the full ordered list of declared column names for a
// record type. Implemented with a value receiver so the zero value can
// answer.
type Record interface {
	Columns() []string
}

// Field is one set column/value pair of a changeset.
type Field struct {
	Column string
	Value  any
}

// Changeset exposes the subset of fields that are set on an instance,
// in declaration order.
type Changeset interface {
	Fields() []Field
}

// Create inserts only the changeset's set fields and returns the newly
// assigned primary key. Store faults (uniqueness included) surface
// opaquely; callers interpret them, not this layer.
func Create(ctx context.Context, pr principal.Context, mm *Manager, tbl Descriptor, data Changeset) (int64, error) {
	fields := data.Fields()
	if len(fields) == 0 {
		return 0, errNoSetFields
	}

	values := make(map[string]any, len(fields))
	for _, f := range fields {
		values[f.Column] = f.Value
	}

	var id int64
	_, err := mm.db.NewInsert().
		Model(&values).
		TableExpr("?", bun.Ident(tbl.Table())).
		Returning("id").
		Exec(ctx, &id)
	if err != nil {
		return 0, wrapStoreErr(err)
	}

	return id, nil
}

// Get selects all declared columns of R for the row matching id.
func Get[R Record](ctx context.Context, pr principal.Context, mm *Manager, tbl Descriptor, id int64) (R, error) {
	var rec R

	err := mm.db.NewSelect().
		TableExpr("?", bun.Ident(tbl.Table())).
		Column(rec.Columns()...).
		Where("id = ?", id).
		Scan(ctx, &rec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, NewEntityNotFound(tbl.Table(), id)
		}
		return rec, wrapStoreErr(err)
	}

	return rec, nil
}

// List selects all declared columns of R for the rows matching filter,
// ordered and paginated per opts. A query matching no rows yields an
// empty slice, not an error.
func List[R Record](ctx context.Context, pr principal.Context, mm *Manager, tbl Descriptor, filter Filter, opts *ListOptions) ([]R, error) {
	var rec R
	columns := rec.Columns()

	finalized, err := FinalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	q := mm.db.NewSelect().
		TableExpr("?", bun.Ident(tbl.Table())).
		Column(columns...)

	if filter != nil {
		expr, args, err := filter.compile(tbl.Table(), columnSet(columns))
		if err != nil {
			return nil, err
		}
		q = q.Where(expr, args...)
	}

	if err := finalized.apply(q, tbl.Table(), columnSet(columns)); err != nil {
		return nil, err
	}

	recs := make([]R, 0)
	if err := q.Scan(ctx, &recs); err != nil {
		return nil, wrapStoreErr(err)
	}

	return recs, nil
}

// Update writes only the changeset's set fields to the row matching id.
// A zero affected-row count surfaces as EntityNotFound, whether the row
// is missing or the update was excluded by a predicate.
func Update(ctx context.Context, pr principal.Context, mm *Manager, tbl Descriptor, id int64, data Changeset) error {
	fields := data.Fields()
	if len(fields) == 0 {
		return errNoSetFields
	}

	values := make(map[string]any, len(fields))
	for _, f := range fields {
		values[f.Column] = f.Value
	}

	res, err := mm.db.NewUpdate().
		Model(&values).
		TableExpr("?", bun.Ident(tbl.Table())).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapStoreErr(err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return wrapStoreErr(err)
	}
	if count == 0 {
		return NewEntityNotFound(tbl.Table(), id)
	}

	return nil
}

// Delete removes the row matching id.
func Delete(ctx context.Context, pr principal.Context, mm *Manager, tbl Descriptor, id int64) error {
	res, err := mm.db.NewDelete().
		TableExpr("?", bun.Ident(tbl.Table())).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapStoreErr(err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return wrapStoreErr(err)
	}
	if count == 0 {
		return NewEntityNotFound(tbl.Table(), id)
	}

	return nil
}

func columnSet(columns []string) map[string]struct{} {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return set
}
