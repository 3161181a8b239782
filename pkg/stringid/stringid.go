// Package stringid packs and resolves string identifiers.
//
// A string identifier is a 32-bit value split into three adjacent bit fields.
// From most to least significant these are length, set and index. The widths are
// a property of the Resolver, not of the value. A Resolver maps the (set, index)
// pair to a position in a flat string list using a per-version set offset table.
package stringid

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ID is a packed string identifier as stored in tag data.
type ID uint32

const (
	// Null is the empty string identifier.
	Null ID = 0
	// Invalid is returned when a flat index cannot be represented.
	Invalid ID = ^ID(0)
)

// ErrSetOutOfRange is returned when an identifier names a set the resolver has no offset for.
// It indicates a corrupt identifier or a resolver for the wrong version.
var ErrSetOutOfRange = errors.New("string id set out of range")

// String formats the raw value.
func (id ID) String() string {
	return fmt.Sprintf("0x%08X", uint32(id))
}

// Resolver converts identifiers to and from flat string list indices.
type Resolver struct {
	LengthBits int
	SetBits    int
	IndexBits  int

	// MinSetIndex and MaxSetIndex bound the flat indices that belong to a set.
	// Flat indices outside the range are stored verbatim in the index field of set 0.
	MinSetIndex int
	MaxSetIndex int

	// SetOffsets holds the flat index at which each set begins.
	SetOffsets []int
}

// Validate checks that the field widths fit in 32 bits and the offset table fits the set field.
func (r *Resolver) Validate() error {
	if r.LengthBits < 0 || r.SetBits < 0 || r.IndexBits <= 0 {
		return fmt.Errorf("invalid bit widths: length=%d set=%d index=%d", r.LengthBits, r.SetBits, r.IndexBits)
	}
	if total := r.LengthBits + r.SetBits + r.IndexBits; total > 32 {
		return fmt.Errorf("bit widths total %d, exceeds 32", total)
	}
	if len(r.SetOffsets) > 1<<r.SetBits {
		return fmt.Errorf("%d set offsets do not fit in %d set bits", len(r.SetOffsets), r.SetBits)
	}
	if r.MinSetIndex > r.MaxSetIndex {
		return fmt.Errorf("min set index %d above max set index %d", r.MinSetIndex, r.MaxSetIndex)
	}
	return nil
}

func mask(bits int) uint32 {
	return uint32(1)<<bits - 1
}

// Set extracts the set field.
func (r *Resolver) Set(id ID) int {
	return int((uint32(id) >> r.IndexBits) & mask(r.SetBits))
}

// Index extracts the index field.
func (r *Resolver) Index(id ID) int {
	return int(uint32(id) & mask(r.IndexBits))
}

// Length extracts the length field.
func (r *Resolver) Length(id ID) int {
	return int((uint32(id) >> (r.IndexBits + r.SetBits)) & mask(r.LengthBits))
}

// New packs a set and index with a zero length field.
func (r *Resolver) New(set, index int) ID {
	return r.NewWithLength(0, set, index)
}

// NewWithLength packs all three fields. Out-of-width values are truncated.
func (r *Resolver) NewWithLength(length, set, index int) ID {
	v := (uint32(length) & mask(r.LengthBits)) << (r.IndexBits + r.SetBits)
	v |= (uint32(set) & mask(r.SetBits)) << r.IndexBits
	v |= uint32(index) & mask(r.IndexBits)
	return ID(v)
}

// ToFlat converts an identifier to its flat string list index.
func (r *Resolver) ToFlat(id ID) (int, error) {
	set := r.Set(id)
	index := r.Index(id)

	if set == 0 && (index < r.MinSetIndex || index > r.MaxSetIndex) {
		// Literal encoding: not part of any set.
		return index, nil
	}

	if set >= len(r.SetOffsets) {
		return 0, fmt.Errorf("%w: set %d of %s (table has %d sets)", ErrSetOutOfRange, set, id, len(r.SetOffsets))
	}

	if set == 0 {
		index -= r.MinSetIndex
	}
	return index + r.SetOffsets[set], nil
}

// FromFlat converts a flat string list index to an identifier.
// The owning set is the one whose offset is closest to the index from below;
// when two sets are equally close the first one in the table wins.
func (r *Resolver) FromFlat(index int) ID {
	if index < 0 {
		return Invalid
	}
	if index < r.MinSetIndex || index > r.MaxSetIndex {
		return r.New(0, index)
	}

	set := 0
	minDistance := int(^uint(0) >> 1)
	for i, offset := range r.SetOffsets {
		if index < offset {
			continue
		}
		distance := index - offset
		if distance >= minDistance {
			continue
		}
		set = i
		minDistance = distance
	}

	idIndex := index
	if len(r.SetOffsets) > 0 {
		idIndex -= r.SetOffsets[set]
	}
	if set == 0 {
		idIndex += r.MinSetIndex
	}
	return r.New(set, idIndex)
}

// SortIDs orders identifiers by set and then index. Each key is computed once.
func (r *Resolver) SortIDs(ids []ID) {
	type key struct {
		set, index int
		id         ID
	}
	keys := make([]key, len(ids))
	for i, id := range ids {
		keys[i] = key{set: r.Set(id), index: r.Index(id), id: id}
	}
	slices.SortStableFunc(keys, func(a, b key) int {
		if c := cmp.Compare(a.set, b.set); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})
	for i := range keys {
		ids[i] = keys[i].id
	}
}

// SortFunc sorts items by the set and index of the identifier returned by label,
// resolving each label once rather than per comparison.
func SortFunc[T any](r *Resolver, items []T, label func(T) ID) {
	type keyed struct {
		set, index int
		item       T
	}
	keys := make([]keyed, len(items))
	for i, item := range items {
		id := label(item)
		keys[i] = keyed{set: r.Set(id), index: r.Index(id), item: item}
	}
	slices.SortStableFunc(keys, func(a, b keyed) int {
		if c := cmp.Compare(a.set, b.set); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})
	for i := range keys {
		items[i] = keys[i].item
	}
}
