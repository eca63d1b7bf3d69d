package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/sqlutil"
	"github.com/dbsmedya/accmirror/internal/types"
)

// Reconciler ensures destination tables exist with the normalized column set
// of a sample row. It never alters an already-existing table: the column set
// is fixed at creation time even if later snapshots grow new columns.
type Reconciler struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewReconciler creates a schema reconciler for the destination.
func NewReconciler(db *sql.DB, log *logger.Logger) (*Reconciler, error) {
	if db == nil {
		return nil, fmt.Errorf("destination database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Reconciler{db: db, logger: log}, nil
}

// EnsureTable issues a CREATE TABLE IF NOT EXISTS for the destination table
// derived from the sample row: every column is TEXT (native source typing is
// deliberately flattened away) and the normalized first column is the
// primary key. Safe to call every pass.
func (r *Reconciler) EnsureTable(ctx context.Context, table string, sample *types.Row) error {
	if sample == nil || sample.Len() == 0 {
		return fmt.Errorf("cannot derive schema for %q from an empty sample row", table)
	}

	destTable, err := destinationTableName(table)
	if err != nil {
		return err
	}

	columns := sample.Columns()
	defs := make([]string, 0, len(columns))
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		normalized := sqlutil.NormalizeColumn(col)
		if normalized == "" {
			return fmt.Errorf("column %q of %q normalizes to an empty identifier", col, table)
		}
		// Normalization collisions collapse to the first occurrence.
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		defs = append(defs, fmt.Sprintf("%s TEXT", sqlutil.QuoteIdentifier(normalized)))
	}

	keyColumn, _ := sample.KeyColumn()
	pk := sqlutil.NormalizeColumn(keyColumn)

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s, PRIMARY KEY (%s))",
		sqlutil.QuoteIdentifier(destTable),
		strings.Join(defs, ", "),
		sqlutil.QuoteIdentifier(pk),
	)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure table %q: %w", destTable, err)
	}

	r.logger.Debugw("Ensured destination table", "table", destTable, "columns", len(defs), "pk", pk)
	return nil
}

// destinationTableName maps a source table name to its destination
// identifier using the same normalization as columns, then validates it.
func destinationTableName(table string) (string, error) {
	normalized := sqlutil.NormalizeColumn(table)
	if !sqlutil.IsValidIdentifier(normalized) {
		return "", fmt.Errorf("table name %q normalizes to invalid identifier %q", table, normalized)
	}
	return normalized, nil
}
