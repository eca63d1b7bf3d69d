package mirror

import (
	"github.com/dbsmedya/accmirror/internal/types"
)

// RowChange is one row to upsert, tagged with whether it updates an existing
// destination row or inserts a new one. The tag exists only for reporting;
// both cases execute the same upsert statement.
type RowChange struct {
	Row    *types.Row
	Update bool
}

// Delta is the set of changes between two snapshots of one table.
type Delta struct {
	Upserts []RowChange  // new and changed rows, in current-snapshot order
	Deletes []*types.Row // previous rows whose identity key disappeared
}

// Empty reports whether the delta contains no changes.
func (d *Delta) Empty() bool {
	return len(d.Upserts) == 0 && len(d.Deletes) == 0
}

// ComputeDelta compares the previous known snapshot of a table against the
// freshly fetched one. Row identity is the value of each row's first column
// under its original source name; position in the snapshot carries no
// meaning. A nil previous snapshot classifies every current row as an
// insert; an empty current snapshot deletes every previously known row.
//
// Rows whose identity key matches are compared column by column with simple
// inequality; identical rows are excluded from the delta entirely.
func ComputeDelta(previous, current types.Snapshot) *Delta {
	delta := &Delta{}

	prevByKey := make(map[string]*types.Row, len(previous))
	for _, row := range previous {
		if key, ok := row.Key(); ok {
			prevByKey[key.String()] = row
		}
	}

	currentKeys := make(map[string]struct{}, len(current))
	for _, row := range current {
		if key, ok := row.Key(); ok {
			currentKeys[key.String()] = struct{}{}
		}
	}

	for _, row := range previous {
		key, ok := row.Key()
		if !ok {
			continue
		}
		if _, present := currentKeys[key.String()]; !present {
			delta.Deletes = append(delta.Deletes, row)
		}
	}

	for _, row := range current {
		key, ok := row.Key()
		if !ok {
			continue
		}
		prev, known := prevByKey[key.String()]
		if !known {
			delta.Upserts = append(delta.Upserts, RowChange{Row: row})
			continue
		}
		if !row.Equal(prev) {
			delta.Upserts = append(delta.Upserts, RowChange{Row: row, Update: true})
		}
	}

	return delta
}
