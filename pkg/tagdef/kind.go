package tagdef

import (
	"fmt"

	"github.com/EchoTools/tagtool/pkg/cache"
)

// Kind is the semantic type of a field.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	// StringID is a packed string identifier, stored raw.
	StringID
	// Tag is a four character group tag.
	Tag
	// Enum and Flags are stored as their Elem kind.
	Enum
	Flags
	// Bytes is a fixed-length opaque byte run of Length bytes.
	Bytes
	// String is fixed-length NUL padded text of Length bytes.
	String
	// Array is Length inline elements of kind Elem (and Type when Elem is Struct).
	Array
	// Struct is an inline nested structure named by Type.
	Struct
	// Block is a variable-length list of Type elements addressed by a (count, address) header.
	Block
	// Data is a variable-length byte payload addressed by a (size, address) header.
	Data
	// Pointer is an address to a single Type element resolved on demand.
	Pointer
	// Resource is an address into a resource cache resolved on demand.
	Resource
	// TagReference names another tag by group and index.
	TagReference
	// Padding is Length reserved bytes, zero on write.
	Padding

	kindCount
)

var kindNames = [...]string{
	Invalid:      "invalid",
	Int8:         "int8",
	UInt8:        "uint8",
	Int16:        "int16",
	UInt16:       "uint16",
	Int32:        "int32",
	UInt32:       "uint32",
	Int64:        "int64",
	UInt64:       "uint64",
	Float32:      "float32",
	StringID:     "string_id",
	Tag:          "tag",
	Enum:         "enum",
	Flags:        "flags",
	Bytes:        "bytes",
	String:       "string",
	Array:        "array",
	Struct:       "struct",
	Block:        "block",
	Data:         "data",
	Pointer:      "pointer",
	Resource:     "resource",
	TagReference: "tag_reference",
	Padding:      "padding",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Primitive reports whether k is a fixed-width scalar.
func (k Kind) Primitive() bool {
	return k >= Int8 && k <= Tag
}

// Integer reports whether k is an integer kind usable as Enum or Flags storage.
func (k Kind) Integer() bool {
	return k >= Int8 && k <= UInt64
}

// PrimitiveSize returns the byte width of a primitive kind, or 0.
func (k Kind) PrimitiveSize() int {
	switch k {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32, StringID, Tag:
		return 4
	case Int64, UInt64:
		return 8
	}
	return 0
}

// HeaderSize returns the in-structure size of an indirect kind for a version.
// Second generation caches use the compact (count, address) forms.
func (k Kind) HeaderSize(v cache.Version) int {
	gen2 := v.Generation() == cache.Gen2
	switch k {
	case Block:
		if gen2 {
			return 8
		}
		return 0xC
	case Data:
		if gen2 {
			return 8
		}
		return 0x14
	case TagReference:
		if gen2 {
			return 8
		}
		return 0x10
	case Pointer, Resource:
		return 4
	}
	return 0
}
