// Package correspondence holds the foreign concept id to local concept id
// table that the concept phase produces and the mapping phase consumes.
package correspondence

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrCorrupt is returned when a persisted table cannot be decoded. It is
// fatal for the mapping phase.
var ErrCorrupt = errors.New("correspondence table corrupt")

// Table is a materialized, read-only correspondence table. The only ways to
// get one are Builder.Build (end of the concept phase) and a Store load.
type Table struct {
	entries map[int]int
}

func (t *Table) Lookup(foreignID int) (int, bool) {
	if t == nil {
		return 0, false
	}
	local, ok := t.entries[foreignID]
	return local, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// ForeignIDs returns the foreign ids in ascending order.
func (t *Table) ForeignIDs() []int {
	if t == nil {
		return nil
	}
	ids := make([]int, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// MarshalJSON writes the flat {"<foreign id>": <local id>} object.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, t.Len())
	if t != nil {
		for f, l := range t.entries {
			out[strconv.Itoa(f)] = l
		}
	}
	return json.Marshal(out)
}

// Decode parses the flat JSON object form. Anything but an object, including
// a bare null, is corrupt; an empty object is a valid empty table.
func Decode(data []byte) (*Table, error) {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrCorrupt)
	}
	b := NewBuilder(nil)
	for k, v := range raw {
		if err := b.putStrings(k, v.String()); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Builder accumulates entries during the concept phase.
type Builder struct {
	entries map[int]int
}

// NewBuilder starts from a copy of base, so a single-concept re-run can add
// to a table produced by an earlier run.
func NewBuilder(base *Table) *Builder {
	b := &Builder{entries: make(map[int]int, base.Len())}
	if base != nil {
		for f, l := range base.entries {
			b.entries[f] = l
		}
	}
	return b
}

func (b *Builder) Put(foreignID, localID int) {
	b.entries[foreignID] = localID
}

func (b *Builder) Lookup(foreignID int) (int, bool) {
	local, ok := b.entries[foreignID]
	return local, ok
}

// Build freezes the builder. The builder must not be used afterwards.
func (b *Builder) Build() *Table {
	t := &Table{entries: b.entries}
	b.entries = nil
	return t
}

func (b *Builder) putStrings(foreign, local string) error {
	f, err := strconv.Atoi(foreign)
	if err != nil || f <= 0 {
		return fmt.Errorf("%w: foreign id %q", ErrCorrupt, foreign)
	}
	l, err := strconv.Atoi(local)
	if err != nil || l <= 0 {
		return fmt.Errorf("%w: local id %q for foreign id %d", ErrCorrupt, local, f)
	}
	b.entries[f] = l
	return nil
}
