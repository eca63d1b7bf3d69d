package verifier

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerifier_NilDB(t *testing.T) {
	v, err := NewVerifier(nil, nil)
	assert.Error(t, err)
	assert.Nil(t, v)
}

func TestVerifyCount_Match(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "Customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	v, err := NewVerifier(db, nil)
	require.NoError(t, err)

	result, err := v.VerifyCount(context.Background(), "Customers", 3)
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, int64(3), result.DestRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCount_Mismatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "Orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	v, err := NewVerifier(db, nil)
	require.NoError(t, err)

	result, err := v.VerifyCount(context.Background(), "Orders", 5)
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Equal(t, int64(5), result.ExpectedRows)
	assert.Equal(t, int64(2), result.DestRows)
}

func TestVerifyCount_InvalidIdentifier(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	v, err := NewVerifier(db, nil)
	require.NoError(t, err)

	_, err = v.VerifyCount(context.Background(), "bad name; DROP", 1)
	assert.Error(t, err)
}

func TestVerifyCount_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "Missing"`).
		WillReturnError(assert.AnError)

	v, err := NewVerifier(db, nil)
	require.NoError(t, err)

	_, err = v.VerifyCount(context.Background(), "Missing", 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count rows")
}
