package sift

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func declareTestTodos(t *testing.T, db *DB) *Table {
	t.Helper()
	require.NoError(t, db.Declare("todos", todosSchema))
	tbl, err := db.Table("todos")
	require.NoError(t, err)
	return tbl
}

// A declared table must be usable immediately: the readiness barrier
// orders the insert after the creation statement even when no time
// has passed.
func TestDeclareThenImmediateInsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Declare("todos", todosSchema))
	tbl, err := db.Table("todos")
	require.NoError(t, err)

	res, err := tbl.Insert(ctx, Row{"content": "first", "done": 0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
}

func TestInsertFindRoundTrip(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	res, err := tbl.Insert(ctx, Row{"content": "Hello", "done": 0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LastInsertID)

	rows, err := tbl.Find(ctx, Criteria{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Len(t, row, len(todosSchema))
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, "Hello", row["content"])
	assert.Equal(t, int64(0), row["done"])
}

func TestRemoveMatchesAllRows(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := tbl.Insert(ctx, Row{"content": fmt.Sprintf("Hello %d", i), "done": 0})
		require.NoError(t, err)
	}

	res, err := tbl.Remove(ctx, Criteria{"id": Gt(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.RowsAffected)

	rows, err := tbl.Find(ctx, Criteria{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["id"])
}

func TestRemoveWithLimit(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := tbl.Insert(ctx, Row{"content": fmt.Sprintf("Hello %d", i), "done": 0})
		require.NoError(t, err)
	}

	res, err := tbl.Remove(ctx, Criteria{}, WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)

	n, err := tbl.Count(ctx, "*", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestFindOneSentinel(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	_, err := tbl.FindOne(ctx, Criteria{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tbl.Insert(ctx, Row{"content": "only", "done": 1})
	require.NoError(t, err)

	row, err := tbl.FindOne(ctx, Criteria{})
	require.NoError(t, err)
	assert.Equal(t, "only", row["content"])

	row, err = tbl.FindOne(ctx, Criteria{"done": 1})
	require.NoError(t, err)
	assert.Equal(t, "only", row["content"])

	_, err = tbl.FindOne(ctx, Criteria{"done": 0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDistinctWithLike(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	for _, content := range []string{"Hello 1", "Hello 2"} {
		_, err := tbl.Insert(ctx, Row{"content": content, "done": 0})
		require.NoError(t, err)
	}

	vals, err := tbl.Distinct(ctx, "content", Criteria{"content": Like("%2")})
	require.NoError(t, err)
	assert.Equal(t, []any{"Hello 2"}, vals)
}

func TestDistinctCollapsesDuplicates(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	for _, done := range []int{0, 1, 0, 1, 1} {
		_, err := tbl.Insert(ctx, Row{"content": "x", "done": done})
		require.NoError(t, err)
	}

	vals, err := tbl.Distinct(ctx, "done", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{int64(0), int64(1)}, vals)
}

func TestUpdateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := tbl.Insert(ctx, Row{"content": fmt.Sprintf("Hello %d", i), "done": 0})
		require.NoError(t, err)
	}

	res, err := tbl.Update(ctx, Criteria{"id": Gte(2)}, Row{"done": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)

	n, err := tbl.Count(ctx, "*", Criteria{"done": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	row, err := tbl.FindOne(ctx, Criteria{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), row["done"])
}

func TestFindOrderAndPaging(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := tbl.Insert(ctx, Row{"content": fmt.Sprintf("Hello %d", i), "done": 0})
		require.NoError(t, err)
	}

	rows, err := tbl.Find(ctx, nil, WithOrder("id-"), WithLimit(2), WithOffset(1))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(4), rows[0]["id"])
	assert.Equal(t, int64(3), rows[1]["id"])
}

// An unknown column in read criteria is dropped rather than failing
// the read; broader-than-schema filters are tolerated.
func TestFindIgnoresUnknownCriteriaColumn(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	_, err := tbl.Insert(ctx, Row{"content": "kept", "done": 0})
	require.NoError(t, err)

	rows, err := tbl.Find(ctx, Criteria{"stale_field": "whatever"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStoreErrorPropagation(t *testing.T) {
	db := openTestDB(t)
	tbl := declareTestTodos(t, db)
	ctx := context.Background()

	_, err := tbl.Insert(ctx, Row{"id": 1, "content": "a", "done": 0})
	require.NoError(t, err)

	_, err = tbl.Insert(ctx, Row{"id": 1, "content": "b", "done": 0})
	require.Error(t, err)

	var storeErr *StoreError
	assert.True(t, errors.As(err, &storeErr))
}

func TestMultipleTablesIndependent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Declare("todos", todosSchema))
	require.NoError(t, db.Declare("tags", Schema{"name": "text"}))
	require.NoError(t, db.Ready(ctx))

	todos, err := db.Table("todos")
	require.NoError(t, err)
	tags, err := db.Table("tags")
	require.NoError(t, err)

	_, err = todos.Insert(ctx, Row{"content": "x", "done": 0})
	require.NoError(t, err)
	_, err = tags.Insert(ctx, Row{"name": "urgent"})
	require.NoError(t, err)

	n, err := tags.Count(ctx, "*", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
