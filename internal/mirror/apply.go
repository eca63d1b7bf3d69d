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

// Applier executes a computed delta against the destination. Rows are
// applied one at a time with no wrapping transaction; a failing row is
// logged and skipped so the rest of the batch still lands.
type Applier struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewApplier creates a delta applier for the destination.
func NewApplier(db *sql.DB, log *logger.Logger) (*Applier, error) {
	if db == nil {
		return nil, fmt.Errorf("destination database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Applier{db: db, logger: log}, nil
}

// ApplyDelta upserts and deletes the delta's rows against the destination
// table, keyed on the destination primary key. Values are serialized as
// text; null source values map to SQL NULL. The returned summary counts
// what was actually applied.
func (a *Applier) ApplyDelta(ctx context.Context, table string, delta *Delta) (types.ChangeSummary, error) {
	summary := types.ChangeSummary{Table: table}

	destTable, err := destinationTableName(table)
	if err != nil {
		return summary, err
	}

	for _, change := range delta.Upserts {
		if err := a.upsertRow(ctx, destTable, change.Row); err != nil {
			key, _ := change.Row.Key()
			a.logger.Errorw("Failed to apply row",
				"table", table,
				"key", key.String(),
				"error", err,
			)
			summary.Failed++
			continue
		}
		if change.Update {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	for _, row := range delta.Deletes {
		if err := a.deleteRow(ctx, destTable, row); err != nil {
			key, _ := row.Key()
			a.logger.Errorw("Failed to delete row",
				"table", table,
				"key", key.String(),
				"error", err,
			)
			summary.Failed++
			continue
		}
		summary.Deleted++
	}

	return summary, nil
}

// upsertRow issues an insert that becomes a full-column update when a row
// with the same primary key already exists.
func (a *Applier) upsertRow(ctx context.Context, destTable string, row *types.Row) error {
	keyColumn, ok := row.KeyColumn()
	if !ok {
		return fmt.Errorf("row has no columns")
	}
	pk := sqlutil.NormalizeColumn(keyColumn)

	var (
		columns []string
		holders []string
		updates []string
		args    []interface{}
	)
	seen := make(map[string]struct{}, row.Len())
	for _, col := range row.Columns() {
		normalized := sqlutil.NormalizeColumn(col)
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		value, _ := row.Get(col)
		quoted := sqlutil.QuoteIdentifier(normalized)
		columns = append(columns, quoted)
		holders = append(holders, fmt.Sprintf("$%d", len(columns)))
		args = append(args, value.SQLValue())
		if normalized != pk {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoted, quoted))
		}
	}

	conflict := fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s",
		sqlutil.QuoteIdentifier(pk), strings.Join(updates, ", "))
	if len(updates) == 0 {
		// Single-column table: nothing to update beyond the key.
		conflict = fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", sqlutil.QuoteIdentifier(pk))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		sqlutil.QuoteIdentifier(destTable),
		strings.Join(columns, ", "),
		strings.Join(holders, ", "),
		conflict,
	)

	_, err := a.db.ExecContext(ctx, query, args...)
	return err
}

// deleteRow removes the destination row matching the source row's identity key.
func (a *Applier) deleteRow(ctx context.Context, destTable string, row *types.Row) error {
	keyColumn, ok := row.KeyColumn()
	if !ok {
		return fmt.Errorf("row has no columns")
	}
	key, _ := row.Key()

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		sqlutil.QuoteIdentifier(destTable),
		sqlutil.QuoteIdentifier(sqlutil.NormalizeColumn(keyColumn)),
	)

	_, err := a.db.ExecContext(ctx, query, key.SQLValue())
	return err
}
