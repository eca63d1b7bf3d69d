package types

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Row is a single source row: an ordered mapping from the column name as
// reported by the source to a scalar Value. Column order is preserved because
// the first column is, by convention, the row's identity key.
type Row struct {
	cols *orderedmap.OrderedMap[string, Value]
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{cols: orderedmap.NewOrderedMap[string, Value]()}
}

// Set stores a column value, appending the column if it is new.
func (r *Row) Set(name string, v Value) {
	r.cols.Set(name, v)
}

// Get returns the value for a column and whether the column exists.
func (r *Row) Get(name string) (Value, bool) {
	return r.cols.Get(name)
}

// Columns returns the column names in source order.
func (r *Row) Columns() []string {
	return r.cols.Keys()
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return r.cols.Len()
}

// KeyColumn returns the name of the identity-key column (the first column).
// ok is false for an empty row.
func (r *Row) KeyColumn() (string, bool) {
	front := r.cols.Front()
	if front == nil {
		return "", false
	}
	return front.Key, true
}

// Key returns the identity-key value (the first column's value).
// ok is false for an empty row.
func (r *Row) Key() (Value, bool) {
	front := r.cols.Front()
	if front == nil {
		return Value{}, false
	}
	return front.Value, true
}

// Equal reports whether two rows have the same columns in the same order
// with pairwise equal values.
func (r *Row) Equal(other *Row) bool {
	if r.Len() != other.Len() {
		return false
	}
	a := r.cols.Front()
	b := other.cols.Front()
	for a != nil && b != nil {
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
		a = a.Next()
		b = b.Next()
	}
	return a == nil && b == nil
}
