// Package source reads tables and rows out of the legacy Access database.
package source

import (
	"context"

	"github.com/dbsmedya/accmirror/internal/types"
)

// Source is the read side of a mirror. Implementations list user tables
// (system tables excluded) and fetch complete row sets, preserving the
// column order reported by the engine because the first column is the
// identity key.
type Source interface {
	Tables(ctx context.Context) ([]string, error)
	FetchRows(ctx context.Context, table string) (types.Snapshot, error)
}
