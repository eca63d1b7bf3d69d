package mirror

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReconciler_NilDB(t *testing.T) {
	r, err := NewReconciler(nil, nil)
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestEnsureTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "Order_Details" \("OrderID" TEXT, "Product_Name" TEXT, "Qty" TEXT, PRIMARY KEY \("OrderID"\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r, err := NewReconciler(db, nil)
	require.NoError(t, err)

	sample := rowOf("OrderID", 1, "Product Name", "Widget", "Qty", 3)
	err = r.EnsureTable(context.Background(), "Order Details", sample)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTable_IdempotentCall(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Called every pass; both calls issue the same IF NOT EXISTS statement.
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "Customers"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "Customers"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r, err := NewReconciler(db, nil)
	require.NoError(t, err)

	sample := rowOf("ID", 1, "Name", "A")
	require.NoError(t, r.EnsureTable(context.Background(), "Customers", sample))
	require.NoError(t, r.EnsureTable(context.Background(), "Customers", sample))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTable_CollidingColumnsCollapse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// "a b" and "a_b" both normalize to "a_b"; only the first survives.
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "t" \("id" TEXT, "a_b" TEXT, PRIMARY KEY \("id"\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r, err := NewReconciler(db, nil)
	require.NoError(t, err)

	sample := rowOf("id", 1, "a b", "x", "a_b", "y")
	assert.NoError(t, r.EnsureTable(context.Background(), "t", sample))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTable_EmptySample(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r, err := NewReconciler(db, nil)
	require.NoError(t, err)

	err = r.EnsureTable(context.Background(), "t", nil)
	assert.Error(t, err)
}

func TestEnsureTable_ExecFailureReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "t"`).
		WillReturnError(assert.AnError)

	r, err := NewReconciler(db, nil)
	require.NoError(t, err)

	err = r.EnsureTable(context.Background(), "t", rowOf("id", 1))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure table")
}

func TestDestinationTableName(t *testing.T) {
	name, err := destinationTableName("Order Details")
	require.NoError(t, err)
	assert.Equal(t, "Order_Details", name)

	_, err = destinationTableName("$$$")
	assert.Error(t, err)
}
