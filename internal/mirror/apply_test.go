package mirror

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/accmirror/internal/types"
)

func TestNewApplier_NilDB(t *testing.T) {
	a, err := NewApplier(nil, nil)
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestApplyDelta_InsertAndUpdateCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	upsertPattern := `INSERT INTO "Customers" \("id", "name"\) VALUES \(\$1, \$2\) ON CONFLICT \("id"\) DO UPDATE SET "name" = EXCLUDED\."name"`
	mock.ExpectExec(upsertPattern).
		WithArgs("1", "A").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertPattern).
		WithArgs("2", "B").
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := NewApplier(db, nil)
	require.NoError(t, err)

	delta := &Delta{
		Upserts: []RowChange{
			{Row: rowOf("id", 1, "name", "A")},               // insert
			{Row: rowOf("id", 2, "name", "B"), Update: true}, // update
		},
	}

	summary, err := a.ApplyDelta(context.Background(), "Customers", delta)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Deleted)
	assert.Equal(t, 0, summary.Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDelta_NullMapsToSQLNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO "t"`).
		WithArgs("1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := NewApplier(db, nil)
	require.NoError(t, err)

	delta := &Delta{Upserts: []RowChange{{Row: rowOf("id", 1, "note", nil)}}}
	summary, err := a.ApplyDelta(context.Background(), "t", delta)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDelta_Deletes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM "t" WHERE "id" = \$1`).
		WithArgs("7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := NewApplier(db, nil)
	require.NoError(t, err)

	delta := &Delta{Deletes: []*types.Row{rowOf("id", 7, "name", "gone")}}
	summary, err := a.ApplyDelta(context.Background(), "t", delta)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDelta_RowFailureDoesNotAbortBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO "t"`).
		WithArgs("1", "A").
		WillReturnError(assert.AnError)
	mock.ExpectExec(`INSERT INTO "t"`).
		WithArgs("2", "B").
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := NewApplier(db, nil)
	require.NoError(t, err)

	delta := &Delta{
		Upserts: []RowChange{
			{Row: rowOf("id", 1, "name", "A")},
			{Row: rowOf("id", 2, "name", "B")},
		},
	}

	summary, err := a.ApplyDelta(context.Background(), "t", delta)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted, "second row still applied after first failed")
	assert.Equal(t, 1, summary.Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDelta_SingleColumnTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Nothing to update beyond the key itself.
	mock.ExpectExec(`INSERT INTO "ids" \("id"\) VALUES \(\$1\) ON CONFLICT \("id"\) DO NOTHING`).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := NewApplier(db, nil)
	require.NoError(t, err)

	delta := &Delta{Upserts: []RowChange{{Row: rowOf("id", 1)}}}
	_, err = a.ApplyDelta(context.Background(), "ids", delta)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDelta_EmptyDelta(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a, err := NewApplier(db, nil)
	require.NoError(t, err)

	summary, err := a.ApplyDelta(context.Background(), "t", &Delta{})
	require.NoError(t, err)
	assert.False(t, summary.Changed())
	assert.NoError(t, mock.ExpectationsWereMet(), "empty delta must issue no statements")
}
