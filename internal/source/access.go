package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/types"
)

// listTablesQuery reads user table names from the Access system catalog.
// Type 1 = local table, 6 = linked table; Flags 0 filters out deep-hidden
// system objects. Some ODBC drivers deny reads on MSysObjects, in which case
// the table list must be pinned in configuration.
const listTablesQuery = `SELECT Name FROM MSysObjects WHERE Type IN (1, 6) AND Flags = 0 AND Name NOT LIKE 'MSys%'`

// AccessSource reads an Access database over ODBC through database/sql.
type AccessSource struct {
	db     *sql.DB
	tables []string // optional pinned table list from config
	logger *logger.Logger
}

// NewAccessSource wraps an open ODBC connection. If tables is non-empty it
// is used verbatim instead of querying the system catalog.
func NewAccessSource(db *sql.DB, tables []string, log *logger.Logger) (*AccessSource, error) {
	if db == nil {
		return nil, fmt.Errorf("source database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &AccessSource{
		db:     db,
		tables: tables,
		logger: log,
	}, nil
}

// Tables lists the user tables of the source database, excluding Access
// system tables.
func (s *AccessSource) Tables(ctx context.Context) ([]string, error) {
	if len(s.tables) > 0 {
		return s.tables, nil
	}

	rows, err := s.db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list source tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading table list: %w", err)
	}

	return names, nil
}

// FetchRows fetches every row of a table, preserving the engine's column
// order. Cell values are coerced into tagged scalars.
func (s *AccessSource) FetchRows(ctx context.Context, table string) (types.Snapshot, error) {
	query := fmt.Sprintf("SELECT * FROM %s", quoteAccessIdentifier(table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rows from %q: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %q: %w", table, err)
	}

	var snapshot types.Snapshot
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %q: %w", table, err)
		}

		row := types.NewRow()
		for i, col := range columns {
			row.Set(col, types.FromAny(values[i]))
		}
		snapshot = append(snapshot, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading rows of %q: %w", table, err)
	}

	s.logger.Debugw("Fetched table", "table", table, "rows", len(snapshot))
	return snapshot, nil
}

// quoteAccessIdentifier quotes an Access identifier with square brackets.
// Access table names routinely contain spaces.
func quoteAccessIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
