package types

// Snapshot is the full list of rows fetched for one table at one point in
// time. It is held in process memory and replaced wholesale after each
// successful sync pass over that table.
type Snapshot []*Row

// Equal reports whether two snapshots are identical: same length and
// pairwise equal rows in the same order.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Keys returns the identity-key values of every row, rendered as text, in
// snapshot order. Rows without columns are skipped.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for _, row := range s {
		if k, ok := row.Key(); ok {
			keys = append(keys, k.String())
		}
	}
	return keys
}
