package tagdef

import "github.com/EchoTools/tagtool/pkg/cache"

// Field is one static field declaration.
//
// A field is active for version v when v lies in [Min, Max] and, if Gen is set,
// v belongs to that generation. Unknown bounds are open. Several declarations may
// share a Name to give one logical property a different shape per version; the
// narrowest declaration active for a version wins.
type Field struct {
	Name string
	Kind Kind

	// Type names the structure for Struct, Block and Pointer fields, and for
	// Array fields whose Elem is Struct.
	Type string
	// Elem is the element kind of an Array, or the storage kind of Enum and Flags.
	Elem Kind
	// Length is the element count of an Array, or the byte length of Bytes,
	// String and Padding.
	Length int
	// Align rounds the field's start offset up to a multiple of Align bytes.
	Align int

	Min cache.Version
	Max cache.Version
	Gen cache.Generation

	// Enum names the values of an Enum or the bits of a Flags field.
	Enum []string
}

// Active reports whether the declaration applies to v.
func (f *Field) Active(v cache.Version) bool {
	if f.Min != cache.Unknown && v < f.Min {
		return false
	}
	if f.Max != cache.Unknown && v > f.Max {
		return false
	}
	if f.Gen != cache.AnyGeneration && v.Generation() != f.Gen {
		return false
	}
	return true
}

// span counts the known versions the declaration applies to.
func (f *Field) span() int {
	n := 0
	for _, v := range cache.Versions() {
		if f.Active(v) {
			n++
		}
	}
	return n
}

// EnumName returns the declared name of an enum value, or "".
func (f *Field) EnumName(value int64) string {
	if value < 0 || value >= int64(len(f.Enum)) {
		return ""
	}
	return f.Enum[value]
}

// Size is a declared structure size for a version range.
type Size struct {
	Size int
	Min  cache.Version
	Max  cache.Version
}

func (s Size) contains(v cache.Version) bool {
	return (s.Min == cache.Unknown || v >= s.Min) && (s.Max == cache.Unknown || v <= s.Max)
}

// Structure is the static definition of a structure type.
type Structure struct {
	Name   string
	Sizes  []Size
	Fields []Field
}

// SizeFor returns the declared size for v.
func (s *Structure) SizeFor(v cache.Version) (int, bool) {
	for _, size := range s.Sizes {
		if size.contains(v) {
			return size.Size, true
		}
	}
	return 0, false
}

// Versions returns every known version the structure declares a size for.
func (s *Structure) Versions() []cache.Version {
	var versions []cache.Version
	for _, v := range cache.Versions() {
		if _, ok := s.SizeFor(v); ok {
			versions = append(versions, v)
		}
	}
	return versions
}
