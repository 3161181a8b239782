package resource

import "fmt"

// AddressType selects the address space an Address belongs to.
type AddressType uint8

const (
	// Memory addresses are virtual addresses, relative to a base address.
	Memory AddressType = iota
	// Definition addresses are offsets into the tag definition buffer.
	Definition
	// Resource addresses name an entry in a category cache.
	Resource
	// Data addresses are offsets into the raw data buffer.
	Data

	addressTypeCount
)

func (t AddressType) String() string {
	switch t {
	case Memory:
		return "memory"
	case Definition:
		return "definition"
	case Resource:
		return "resource"
	case Data:
		return "data"
	default:
		return fmt.Sprintf("AddressType(%d)", uint8(t))
	}
}

const (
	typeShift  = 29
	offsetMask = 1<<typeShift - 1

	categoryShift = 24
	categoryMask  = 0x1F
	indexMask     = 1<<categoryShift - 1
)

// Address is a 32-bit token stored in tag data. Bits 29-31 hold the AddressType
// and bits 0-28 the offset. Resource addresses split the offset into a category
// (bits 24-28) and an entry index (bits 0-23).
type Address uint32

// Null is the zero address. It marks an absent payload.
const Null Address = 0

// NewAddress packs an address type and offset. The offset is truncated to 29 bits.
func NewAddress(t AddressType, offset uint32) Address {
	return Address(uint32(t)<<typeShift | offset&offsetMask)
}

// NewResourceAddress packs a resource category and entry index.
func NewResourceAddress(cat Category, index int) Address {
	return NewAddress(Resource, uint32(cat)&categoryMask<<categoryShift|uint32(index)&indexMask)
}

// Type returns the address type.
func (a Address) Type() AddressType {
	return AddressType(a >> typeShift)
}

// Offset returns the offset within the address space.
func (a Address) Offset() uint32 {
	return uint32(a) & offsetMask
}

// Category returns the category of a resource address.
func (a Address) Category() Category {
	return Category(a.Offset() >> categoryShift & categoryMask)
}

// Index returns the entry index of a resource address.
func (a Address) Index() int {
	return int(a.Offset() & indexMask)
}

// IsNull reports whether a is the null address.
func (a Address) IsNull() bool {
	return a == Null
}

func (a Address) String() string {
	if a.Type() == Resource {
		return fmt.Sprintf("resource:%s/%d", a.Category(), a.Index())
	}
	return fmt.Sprintf("%s:0x%X", a.Type(), a.Offset())
}
