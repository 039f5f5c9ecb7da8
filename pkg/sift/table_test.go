package sift

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// declareTodos sets up the mock expectation for the todos creation
// statement, declares the table and waits out the barrier.
func declareTodos(t *testing.T, db *DB, mock sqlmock.Sqlmock) *Table {
	t.Helper()
	mock.ExpectExec(todosDDL).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, db.Declare("todos", todosSchema))
	require.NoError(t, db.Ready(context.Background()))

	tbl, err := db.Table("todos")
	require.NoError(t, err)
	return tbl
}

func TestTable_Find_SQLShapes(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		opts     []FindOption
		wantSQL  string
		wantArgs []driver.Value
	}{
		{
			name:     "no criteria",
			criteria: nil,
			wantSQL:  "select * from todos limit ? offset ?",
			wantArgs: []driver.Value{-1, 0},
		},
		{
			name:     "empty criteria",
			criteria: Criteria{},
			wantSQL:  "select * from todos limit ? offset ?",
			wantArgs: []driver.Value{-1, 0},
		},
		{
			name:     "criteria with operators",
			criteria: Criteria{"done": 0, "id": Gt(1)},
			wantSQL:  "select * from todos where (done = ? and id > ?) limit ? offset ?",
			wantArgs: []driver.Value{0, 1, -1, 0},
		},
		{
			name:     "limit offset and ascending order",
			criteria: Criteria{"content": Like("%x%")},
			opts:     []FindOption{WithLimit(10), WithOffset(5), WithOrder("content+")},
			wantSQL:  "select * from todos where (content like ?) order by content limit ? offset ?",
			wantArgs: []driver.Value{"%x%", 10, 5},
		},
		{
			name:     "descending order",
			criteria: nil,
			opts:     []FindOption{WithOrder("id-")},
			wantSQL:  "select * from todos order by id desc limit ? offset ?",
			wantArgs: []driver.Value{-1, 0},
		},
		{
			name:     "in criteria",
			criteria: Criteria{"id": In(1, 2, 3)},
			wantSQL:  "select * from todos where (id in (?, ?, ?)) limit ? offset ?",
			wantArgs: []driver.Value{1, 2, 3, -1, 0},
		},
		{
			name:     "unknown criteria column dropped",
			criteria: Criteria{"bogus": 1},
			wantSQL:  "select * from todos limit ? offset ?",
			wantArgs: []driver.Value{-1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tbl := declareTodos(t, db, mock)

			rows := sqlmock.NewRows([]string{"id", "content", "done"}).
				AddRow(int64(1), "Hello 1", int64(0))
			mock.ExpectQuery(tt.wantSQL).
				WithArgs(tt.wantArgs...).
				WillReturnRows(rows)

			got, err := tbl.Find(context.Background(), tt.criteria, tt.opts...)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "Hello 1", got[0]["content"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTable_Find_UnknownOrderColumn(t *testing.T) {
	db, mock := newMockDB(t)
	tbl := declareTodos(t, db, mock)

	_, err := tbl.Find(context.Background(), nil, WithOrder("bogus-"))
	require.Error(t, err)

	var unknown *UnknownColumnError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "bogus", unknown.Column)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_FindOne(t *testing.T) {
	t.Run("row found", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		rows := sqlmock.NewRows([]string{"id", "content", "done"}).
			AddRow(int64(2), "Hello 2", int64(1))
		mock.ExpectQuery("select * from todos where (id = ?) limit ? offset ?").
			WithArgs(2, 1, 0).
			WillReturnRows(rows)

		row, err := tbl.FindOne(context.Background(), Criteria{"id": 2})
		require.NoError(t, err)
		assert.Equal(t, "Hello 2", row["content"])
	})

	t.Run("no row yields sentinel", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectQuery("select * from todos limit ? offset ?").
			WithArgs(1, 0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "content", "done"}))

		row, err := tbl.FindOne(context.Background(), nil)
		assert.Nil(t, row)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTable_Count(t *testing.T) {
	t.Run("star with criteria", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectQuery("select count(*) from todos where (id > ?)").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(3)))

		n, err := tbl.Count(context.Background(), "*", Criteria{"id": Gt(1)})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("empty column counts all", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectQuery("select count(*) from todos").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(4)))

		n, err := tbl.Count(context.Background(), "", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("schema column", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectQuery("select count(content) from todos").
			WillReturnRows(sqlmock.NewRows([]string{"count(content)"}).AddRow(int64(2)))

		n, err := tbl.Count(context.Background(), "content", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("unknown column", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		_, err := tbl.Count(context.Background(), "bogus", nil)
		var unknown *UnknownColumnError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "bogus", unknown.Column)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTable_Distinct(t *testing.T) {
	t.Run("values in result order", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		rows := sqlmock.NewRows([]string{"content"}).
			AddRow("Hello 1").
			AddRow("Hello 2")
		mock.ExpectQuery("select distinct content from todos limit ? offset ?").
			WithArgs(-1, 0).
			WillReturnRows(rows)

		vals, err := tbl.Distinct(context.Background(), "content", nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"Hello 1", "Hello 2"}, vals)
	})

	t.Run("criteria narrows values", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		rows := sqlmock.NewRows([]string{"content"}).AddRow("Hello 2")
		mock.ExpectQuery("select distinct content from todos where (content like ?) limit ? offset ?").
			WithArgs("%2", -1, 0).
			WillReturnRows(rows)

		vals, err := tbl.Distinct(context.Background(), "content", Criteria{"content": Like("%2")})
		require.NoError(t, err)
		assert.Equal(t, []any{"Hello 2"}, vals)
	})

	t.Run("unknown column", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		_, err := tbl.Distinct(context.Background(), "bogus", nil)
		var unknown *UnknownColumnError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "bogus", unknown.Column)
	})
}

func TestTable_Insert(t *testing.T) {
	t.Run("columns sorted and bound", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectExec("insert into todos (content, done) values (?, ?)").
			WithArgs("Hello", 0).
			WillReturnResult(sqlmock.NewResult(1, 1))

		res, err := tbl.Insert(context.Background(), Row{"content": "Hello", "done": 0})
		require.NoError(t, err)
		assert.Equal(t, Result{LastInsertID: 1, RowsAffected: 1}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown column fails strictly", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		_, err := tbl.Insert(context.Background(), Row{"content": "x", "bogus": 1})
		var unknown *UnknownColumnError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "bogus", unknown.Column)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty row rejected", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		_, err := tbl.Insert(context.Background(), Row{})
		var shape *ArgumentShapeError
		assert.True(t, errors.As(err, &shape))

		_, err = tbl.Insert(context.Background(), nil)
		assert.True(t, errors.As(err, &shape))
	})
}

func TestTable_Remove(t *testing.T) {
	t.Run("criteria scoped through rowid subquery", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectExec("delete from todos where rowid in (select rowid from todos where (id > ?) limit ? offset ?)").
			WithArgs(1, -1, 0).
			WillReturnResult(sqlmock.NewResult(0, 3))

		res, err := tbl.Remove(context.Background(), Criteria{"id": Gt(1)})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.RowsAffected)
	})

	t.Run("empty criteria removes all", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectExec("delete from todos where rowid in (select rowid from todos limit ? offset ?)").
			WithArgs(-1, 0).
			WillReturnResult(sqlmock.NewResult(0, 4))

		_, err := tbl.Remove(context.Background(), Criteria{})
		require.NoError(t, err)
	})

	t.Run("limit bounds the subquery", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectExec("delete from todos where rowid in (select rowid from todos limit ? offset ?)").
			WithArgs(1, 0).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := tbl.Remove(context.Background(), Criteria{}, WithLimit(1))
		require.NoError(t, err)
	})

	t.Run("nil criteria rejected", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		_, err := tbl.Remove(context.Background(), nil)
		var shape *ArgumentShapeError
		require.True(t, errors.As(err, &shape))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTable_Update(t *testing.T) {
	t.Run("assignments precede criteria params", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectExec("update todos set content = ?, done = ? where (id = ?)").
			WithArgs("New", 1, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		res, err := tbl.Update(context.Background(), Criteria{"id": 2}, Row{"content": "New", "done": 1})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.RowsAffected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty criteria updates all", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		mock.ExpectExec("update todos set done = ?").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 4))

		_, err := tbl.Update(context.Background(), Criteria{}, Row{"done": 1})
		require.NoError(t, err)
	})

	t.Run("nil criteria rejected", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		_, err := tbl.Update(context.Background(), nil, Row{"done": 1})
		var shape *ArgumentShapeError
		assert.True(t, errors.As(err, &shape))
	})

	t.Run("unknown row column fails strictly", func(t *testing.T) {
		db, mock := newMockDB(t)
		tbl := declareTodos(t, db, mock)

		_, err := tbl.Update(context.Background(), Criteria{}, Row{"bogus": 1})
		var unknown *UnknownColumnError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "bogus", unknown.Column)
	})
}
