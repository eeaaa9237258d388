package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/openvoyage/touring-api/internal/query"
)

// Model is the contract every store exposes to the generic CRUD handlers.
// FindAll executes a query spec plus any forced scope filters (for example
// "only reviews of tour N") and returns the requested window together with
// the total number of matching rows.
type Model[T any] interface {
	FindByID(ctx context.Context, id uint64) (T, error)
	Create(ctx context.Context, doc T) (T, error)
	UpdateByID(ctx context.Context, id uint64, patch map[string]any) (T, error)
	DeleteByID(ctx context.Context, id uint64) error
	FindAll(ctx context.Context, spec query.Spec, scope ...query.Filter) ([]T, int64, error)
}

// Table describes how one entity maps onto its SQL table. Fields lists the
// exposed field names in column order; Columns maps each of them to the
// column it selects and filters on. Guard is a fixed predicate appended to
// every query (the users table uses it to hide soft-deleted accounts so the
// active-only rule cannot be forgotten at a call site).
type Table struct {
	Name    string
	Fields  []string
	Columns map[string]string
	Guard   string
}

// selectList returns the comma-joined column list for the full row.
// Projection is applied when the result is serialized, not in SQL, so the
// scan target stays the same for every request; the store still rejects
// projections naming unknown fields before running the query.
func (t Table) selectList() string {
	cols := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		cols = append(cols, t.Columns[f])
	}
	return strings.Join(cols, ", ")
}

// whereClause builds the WHERE condition for the given filters. Field names
// are resolved through the column whitelist; values always travel as query
// arguments, never as SQL text.
func (t Table) whereClause(filters []query.Filter) (string, []any, error) {
	conds := []string{}
	args := []any{}
	if t.Guard != "" {
		conds = append(conds, t.Guard)
	}
	for _, f := range filters {
		col, ok := t.Columns[f.Field]
		if !ok {
			return "", nil, unknownField(f.Field)
		}
		conds = append(conds, col+" "+string(f.Op)+" ?")
		args = append(args, f.Value)
	}
	if len(conds) == 0 {
		return "1=1", nil, nil
	}
	return strings.Join(conds, " AND "), args, nil
}

// orderClause builds the ORDER BY list from the spec's sort fields.
func (t Table) orderClause(sort []query.SortField) (string, error) {
	parts := make([]string, 0, len(sort))
	for _, s := range sort {
		col, ok := t.Columns[s.Field]
		if !ok {
			return "", unknownField(s.Field)
		}
		dir := " ASC"
		if s.Desc {
			dir = " DESC"
		}
		parts = append(parts, col+dir)
	}
	return strings.Join(parts, ", "), nil
}

// findAll is the shared list executor behind every store's FindAll. It runs
// the count first, applies the explicit-page policy, then fetches the
// requested window. Scope filters are forced by the caller and merged in
// front of the client's own filters.
func findAll[T any](ctx context.Context, db *sql.DB, t Table, spec query.Spec,
	scope []query.Filter, scan func(*sql.Rows) (T, error)) ([]T, int64, error) {

	for _, f := range spec.Fields {
		if _, ok := t.Columns[f]; !ok {
			return nil, 0, unknownField(f)
		}
	}

	filters := append(append([]query.Filter{}, scope...), spec.Filters...)
	cond, args, err := t.whereClause(filters)
	if err != nil {
		return nil, 0, err
	}
	order, err := t.orderClause(spec.Sort)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countSQL := "SELECT COUNT(*) FROM " + t.Name + " WHERE " + cond
	if err := db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// An explicitly requested page beyond the data is an error; the implicit
	// first page of an empty result set is not.
	if spec.PageRequested && int64(spec.Skip()) >= total {
		return nil, 0, ErrPageOutOfRange
	}

	dataSQL := "SELECT " + t.selectList() + " FROM " + t.Name +
		" WHERE " + cond + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	dataArgs := append(append([]any{}, args...), spec.Limit, spec.Skip())

	rows, err := db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]T, 0, spec.Limit)
	for rows.Next() {
		doc, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
