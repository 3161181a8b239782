// Package tag converts between versioned binary tag data and in-memory instances.
//
// An instance is a tree of *Struct values whose Fields hold one Go value per
// active field of the structure's layout:
//
//	Int8 .. UInt64, Float32    int8 .. uint64, float32
//	Enum, Flags                the Go type of the storage kind
//	StringID                   stringid.ID (never resolved to text here)
//	Tag                        Group
//	Bytes, Data                []byte
//	String                     string
//	Array                      []any
//	Struct                     *Struct
//	Block                      []*Struct
//	Pointer                    *Pointer, resolved on demand
//	Resource                   *Resource, loaded on demand
//	TagReference               Reference
//
// Padding is not stored. A field missing from Fields serializes as zero.
package tag

import (
	"encoding/binary"
	"fmt"

	"github.com/EchoTools/tagtool/pkg/resource"
)

// Struct is one structure instance.
type Struct struct {
	Type   string
	Fields map[string]any
}

// NewStruct creates an empty instance of a type.
func NewStruct(typ string) *Struct {
	return &Struct{Type: typ, Fields: make(map[string]any)}
}

// Set stores a field value and returns s for chaining.
func (s *Struct) Set(name string, v any) *Struct {
	if s.Fields == nil {
		s.Fields = make(map[string]any)
	}
	s.Fields[name] = v
	return s
}

// Get returns a field value.
func (s *Struct) Get(name string) (any, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// Group is a four character tag group, stored as a 32-bit value with the first
// character in the most significant byte.
type Group uint32

// NoGroup is the group of a null reference.
const NoGroup Group = 0xFFFFFFFF

// NewGroup packs up to four characters. Shorter names are padded with spaces.
func NewGroup(name string) Group {
	var b [4]byte
	for i := range b {
		b[i] = ' '
		if i < len(name) {
			b[i] = name[i]
		}
	}
	return Group(binary.BigEndian.Uint32(b[:]))
}

func (g Group) String() string {
	if g == NoGroup {
		return "none"
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(g))
	return string(b[:])
}

// MarshalText implements encoding.TextMarshaler.
func (g Group) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// Reference names another tag by group and index.
type Reference struct {
	Group Group
	Index int32
}

// NullReference is the reference stored for "no tag".
var NullReference = Reference{Group: NoGroup, Index: -1}

// Pointer is a reference to a single out-of-band structure. Deserialized pointers
// hold only the address until Resolve is called. Setting Target directly makes
// the serializer write the target as a new object.
type Pointer struct {
	Address resource.Address
	Type    string
	Target  *Struct

	resolve func() (*Struct, error)
}

// Resolve returns the target, deserializing it on first use.
func (p *Pointer) Resolve() (*Struct, error) {
	if p.Target != nil {
		return p.Target, nil
	}
	if p.resolve == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnresolved, p.Type, p.Address)
	}
	target, err := p.resolve()
	if err != nil {
		return nil, err
	}
	p.Target = target
	return target, nil
}

// Resource is a reference into a resource cache. Deserialized resources hold only
// the address until Load is called. Setting Data directly makes the serializer
// allocate a new resource.
type Resource struct {
	Address resource.Address
	Data    []byte

	load func() ([]byte, error)
}

// Load returns the resource contents, reading them on first use.
func (r *Resource) Load() ([]byte, error) {
	if r.Data != nil {
		return r.Data, nil
	}
	if r.load == nil {
		return nil, fmt.Errorf("%w: resource %s", ErrUnresolved, r.Address)
	}
	data, err := r.load()
	if err != nil {
		return nil, err
	}
	r.Data = data
	return data, nil
}

// ResolveAll resolves every pointer and loads every resource reachable from s.
// Structures reached more than once, including through cyclic pointers, are
// visited once.
func ResolveAll(s *Struct) error {
	return resolveValue(s, make(map[*Struct]bool))
}

func resolveValue(v any, seen map[*Struct]bool) error {
	switch v := v.(type) {
	case *Struct:
		if v == nil || seen[v] {
			return nil
		}
		seen[v] = true
		for _, f := range v.Fields {
			if err := resolveValue(f, seen); err != nil {
				return err
			}
		}
	case []*Struct:
		for _, e := range v {
			if err := resolveValue(e, seen); err != nil {
				return err
			}
		}
	case []any:
		for _, e := range v {
			if err := resolveValue(e, seen); err != nil {
				return err
			}
		}
	case *Pointer:
		if v == nil || v.Address.IsNull() && v.Target == nil {
			return nil
		}
		target, err := v.Resolve()
		if err != nil {
			return err
		}
		return resolveValue(target, seen)
	case *Resource:
		if v == nil || v.Address.IsNull() && v.Data == nil {
			return nil
		}
		_, err := v.Load()
		return err
	}
	return nil
}
