// Package verifier provides post-apply integrity checks for accmirror.
package verifier

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/sqlutil"
)

// VerifyResult holds the row-count comparison for a single table.
type VerifyResult struct {
	Table        string
	ExpectedRows int64 // rows in the source snapshot just applied
	DestRows     int64 // rows actually present in the destination
	Match        bool
}

// Verifier compares destination row counts against the snapshot that was
// just applied. A mismatch is reported, never fatal: per-row apply failures
// are an accepted mode and the next pass gets another chance.
type Verifier struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewVerifier creates a verifier for the destination.
func NewVerifier(db *sql.DB, log *logger.Logger) (*Verifier, error) {
	if db == nil {
		return nil, fmt.Errorf("destination database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Verifier{db: db, logger: log}, nil
}

// VerifyCount checks that the destination table holds exactly expected rows.
func (v *Verifier) VerifyCount(ctx context.Context, destTable string, expected int64) (*VerifyResult, error) {
	quoted, err := sqlutil.QuoteIdentifierSafe(destTable)
	if err != nil {
		return nil, err
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)
	if err := v.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count rows of %q: %w", destTable, err)
	}

	result := &VerifyResult{
		Table:        destTable,
		ExpectedRows: expected,
		DestRows:     count,
		Match:        count == expected,
	}

	if !result.Match {
		v.logger.Warnw("Row count mismatch after apply",
			"table", destTable,
			"expected", expected,
			"actual", count,
		)
	}

	return result, nil
}
