// =============================================================================
// mergedoc - Record Grouper
// =============================================================================
//
// Partitions a flat sequence of rows into document groups keyed by the
// document number column.
//
// GROUPING RULES:
//   - Groups appear in the order their key is first seen.
//   - Rows inside a group keep their input order.
//   - Keys match exactly. No trimming or case folding happens here; use a
//     transform rule if the source data needs normalizing.
//   - Rows with a missing or empty key are rejected. All rejected rows are
//     reported together in one MissingKeyFieldError, and the groups built
//     from the remaining rows are still returned.
//
// =============================================================================

package grouping

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

// MissingKeyFieldError lists the rows that had no value in the key column.
type MissingKeyFieldError struct {
	Field string

	// Rows holds the rejected row indices in input order.
	Rows []int
}

func (e *MissingKeyFieldError) Error() string {
	idx := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		idx[i] = fmt.Sprint(r)
	}
	return fmt.Sprintf("%d row(s) missing key field %q: rows [%s]", len(e.Rows), e.Field, strings.Join(idx, ", "))
}

// =============================================================================
// GROUP
// =============================================================================

// Group holds the rows that make up one document.
type Group struct {
	Key  string
	Rows []types.Row
}

// First returns the row header fields are read from.
func (g *Group) First() types.Row {
	return g.Rows[0]
}

// Header returns the value of a header field, taken from the first row.
func (g *Group) Header(field string) string {
	if len(g.Rows) == 0 {
		return ""
	}
	return g.Rows[0].Value(field)
}

// RowIndices returns the input indices of the group's rows.
func (g *Group) RowIndices() []int {
	out := make([]int, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = r.Index
	}
	return out
}

// =============================================================================
// GROUP SET
// =============================================================================

// GroupSet is an ordered mapping from key to group.
type GroupSet struct {
	order    []string
	byKey    map[string]*Group
	rejected []int
}

// Keys returns the group keys in first-seen order.
func (s *GroupSet) Keys() []string {
	return append([]string(nil), s.order...)
}

// Get returns the group for a key.
func (s *GroupSet) Get(key string) (*Group, bool) {
	g, ok := s.byKey[key]
	return g, ok
}

// Groups returns the groups in first-seen order.
func (s *GroupSet) Groups() []*Group {
	out := make([]*Group, len(s.order))
	for i, k := range s.order {
		out[i] = s.byKey[k]
	}
	return out
}

// Len returns the number of groups.
func (s *GroupSet) Len() int {
	return len(s.order)
}

// Rejected returns the indices of rows that were left out for lacking a key.
func (s *GroupSet) Rejected() []int {
	return append([]int(nil), s.rejected...)
}

// Filter returns a new set holding only the named keys, still in
// first-seen order. Keys that are not present are ignored.
func (s *GroupSet) Filter(keys []string) *GroupSet {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	out := &GroupSet{byKey: make(map[string]*Group), rejected: s.rejected}
	for _, k := range s.order {
		if want[k] {
			out.order = append(out.order, k)
			out.byKey[k] = s.byKey[k]
		}
	}
	return out
}

// =============================================================================
// PARTITION
// =============================================================================

// Partition groups rows by the value of keyField.
//
// RETURNS:
//   - The group set. Never nil, even when err is non-nil.
//   - A *MissingKeyFieldError when any row had an empty or absent key.
func Partition(rows []types.Row, keyField string) (*GroupSet, error) {
	set := &GroupSet{byKey: make(map[string]*Group)}

	for _, row := range rows {
		key, ok := row.Get(keyField)
		if !ok || key == "" {
			set.rejected = append(set.rejected, row.Index)
			continue
		}

		g, exists := set.byKey[key]
		if !exists {
			g = &Group{Key: key}
			set.byKey[key] = g
			set.order = append(set.order, key)
		}
		g.Rows = append(g.Rows, row)
	}

	if len(set.rejected) > 0 {
		return set, &MissingKeyFieldError{Field: keyField, Rows: set.Rejected()}
	}
	return set, nil
}
