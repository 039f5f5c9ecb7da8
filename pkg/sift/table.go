package sift

import (
	"context"
	"fmt"
	"strings"

	"github.com/siftdb/sift/pkg/query"
)

// Table is the operations facade for one declared table. Every
// operation awaits the table's readiness barrier, validates its
// arguments, compiles a single SQL statement, and delegates to the
// store.
type Table struct {
	db   *DB
	name string
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// FindOption adjusts row selection for Find, Distinct and Remove.
type FindOption func(*findOpts)

type findOpts struct {
	limit  int
	offset int
	order  string
}

func applyFindOpts(opts []FindOption) findOpts {
	o := findOpts{limit: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLimit caps the number of rows selected. The default of -1
// selects without limit.
func WithLimit(n int) FindOption {
	return func(o *findOpts) { o.limit = n }
}

// WithOffset skips the first n selected rows.
func WithOffset(n int) FindOption {
	return func(o *findOpts) { o.offset = n }
}

// WithOrder orders Find results by a column. A trailing "-" selects
// descending order, a trailing "+" or no suffix ascending. Without
// this option rows come back in storage order.
func WithOrder(arg string) FindOption {
	return func(o *findOpts) { o.order = arg }
}

// Find returns the rows matching criteria. A nil or empty criteria
// matches every row.
func (t *Table) Find(ctx context.Context, criteria Criteria, opts ...FindOption) ([]Row, error) {
	o := applyFindOpts(opts)
	schema, err := t.db.awaitReady(ctx, t.name)
	if err != nil {
		return nil, err
	}
	sql, args, err := t.selectSQL(schema, criteria, o)
	if err != nil {
		return nil, err
	}
	return t.db.store.All(ctx, sql, args...)
}

// FindOne returns the first row matching criteria, or ErrNotFound
// when nothing matches.
func (t *Table) FindOne(ctx context.Context, criteria Criteria) (Row, error) {
	schema, err := t.db.awaitReady(ctx, t.name)
	if err != nil {
		return nil, err
	}
	sql, args, err := t.selectSQL(schema, criteria, findOpts{limit: 1})
	if err != nil {
		return nil, err
	}
	row, err := t.db.store.Get(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// Count returns the number of rows matching criteria. column is "*"
// or a schema column; the empty string counts all rows.
func (t *Table) Count(ctx context.Context, column string, criteria Criteria) (int64, error) {
	schema, err := t.db.awaitReady(ctx, t.name)
	if err != nil {
		return 0, err
	}
	if column == "" {
		column = "*"
	}
	if column != "*" {
		if _, ok := schema[column]; !ok {
			return 0, &UnknownColumnError{Column: column}
		}
	}

	where, args := t.compiler(schema).Where(criteria)
	var b strings.Builder
	fmt.Fprintf(&b, "select count(%s) from %s", column, t.name)
	if where != "" {
		b.WriteString(" where (" + where + ")")
	}

	row, err := t.db.store.Get(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	for _, v := range row {
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			return int64(n), nil
		}
	}
	return 0, fmt.Errorf("count of %s returned no integer", t.name)
}

// Distinct returns the distinct values of column across the rows
// matching criteria, in result order.
func (t *Table) Distinct(ctx context.Context, column string, criteria Criteria, opts ...FindOption) ([]any, error) {
	o := applyFindOpts(opts)
	schema, err := t.db.awaitReady(ctx, t.name)
	if err != nil {
		return nil, err
	}
	if _, ok := schema[column]; !ok {
		return nil, &UnknownColumnError{Column: column}
	}

	where, args := t.compiler(schema).Where(criteria)
	var b strings.Builder
	fmt.Fprintf(&b, "select distinct %s from %s", column, t.name)
	if where != "" {
		b.WriteString(" where (" + where + ")")
	}
	b.WriteString(" limit ? offset ?")
	args = append(args, o.limit, o.offset)

	rows, err := t.db.store.All(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row[column])
	}
	return out, nil
}

// Insert adds one row. Row keys are strictly filtered: a key outside
// the schema fails with UnknownColumnError rather than being dropped,
// since a misspelled column on a write is almost certainly a bug.
func (t *Table) Insert(ctx context.Context, row Row) (Result, error) {
	schema, err := t.db.awaitReady(ctx, t.name)
	if err != nil {
		return Result{}, err
	}
	if len(row) == 0 {
		return Result{}, &ArgumentShapeError{Reason: "row must be a non-empty column mapping"}
	}
	cols, err := query.FilterKeysStrict(row, schema)
	if err != nil {
		return Result{}, err
	}

	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		marks[i] = "?"
		args[i] = row[col]
	}
	sql := fmt.Sprintf("insert into %s (%s) values (%s)",
		t.name, strings.Join(cols, ", "), strings.Join(marks, ", "))
	return t.db.store.Run(ctx, sql, args...)
}

// Remove deletes the rows matching criteria. The criteria argument is
// required: passing nil fails, and the explicit empty Criteria{} is
// the whole-table form. Deletion selects row identities through a
// subquery so that limit and offset bound how many matching rows die.
func (t *Table) Remove(ctx context.Context, criteria Criteria, opts ...FindOption) (Result, error) {
	o := applyFindOpts(opts)
	schema, err := t.db.awaitReady(ctx, t.name)
	if err != nil {
		return Result{}, err
	}
	if criteria == nil {
		return Result{}, &ArgumentShapeError{Reason: "criteria is required; pass Criteria{} to remove every row"}
	}

	where, args := t.compiler(schema).Where(criteria)
	var b strings.Builder
	fmt.Fprintf(&b, "delete from %s where rowid in (select rowid from %s", t.name, t.name)
	if where != "" {
		b.WriteString(" where (" + where + ")")
	}
	b.WriteString(" limit ? offset ?)")
	args = append(args, o.limit, o.offset)

	return t.db.store.Run(ctx, b.String(), args...)
}

// Update assigns the row's values to every row matching criteria.
// Criteria is required as in Remove; row keys are strictly filtered
// as in Insert. Assignment parameters precede criteria parameters,
// matching placeholder order.
func (t *Table) Update(ctx context.Context, criteria Criteria, row Row) (Result, error) {
	schema, err := t.db.awaitReady(ctx, t.name)
	if err != nil {
		return Result{}, err
	}
	if criteria == nil {
		return Result{}, &ArgumentShapeError{Reason: "criteria is required; pass Criteria{} to update every row"}
	}
	if len(row) == 0 {
		return Result{}, &ArgumentShapeError{Reason: "row must be a non-empty column mapping"}
	}
	cols, err := query.FilterKeysStrict(row, schema)
	if err != nil {
		return Result{}, err
	}

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
		args = append(args, row[col])
	}
	where, whereArgs := t.compiler(schema).Where(criteria)

	var b strings.Builder
	fmt.Fprintf(&b, "update %s set %s", t.name, strings.Join(sets, ", "))
	if where != "" {
		b.WriteString(" where (" + where + ")")
	}
	args = append(args, whereArgs...)

	return t.db.store.Run(ctx, b.String(), args...)
}

func (t *Table) compiler(schema query.Schema) query.Compiler {
	return query.Compiler{Schema: schema, Logger: t.db.logger}
}

// selectSQL assembles the shared SELECT shape used by Find and
// FindOne.
func (t *Table) selectSQL(schema query.Schema, criteria Criteria, o findOpts) (string, []any, error) {
	where, args := t.compiler(schema).Where(criteria)

	var b strings.Builder
	b.WriteString("select * from " + t.name)
	if where != "" {
		b.WriteString(" where (" + where + ")")
	}
	if o.order != "" {
		column, desc := query.ParseOrder(o.order)
		if _, ok := schema[column]; !ok {
			return "", nil, &UnknownColumnError{Column: column}
		}
		b.WriteString(" order by " + column)
		if desc {
			b.WriteString(" desc")
		}
	}
	b.WriteString(" limit ? offset ?")
	args = append(args, o.limit, o.offset)
	return b.String(), args, nil
}
