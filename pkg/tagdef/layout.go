package tagdef

import "github.com/EchoTools/tagtool/pkg/cache"

// Slot is a field declaration placed at a byte offset for one version.
type Slot struct {
	Field
	Offset int
	Size   int
	// Pad is the number of alignment bytes inserted before the field.
	Pad int
}

// Layout is the versioned descriptor of a structure: the active fields in declared
// order with their offsets. A Layout is immutable once returned by a Registry.
type Layout struct {
	Type    string
	Version cache.Version
	Size    int
	Slots   []Slot

	index map[string]int
}

// Lookup returns the slot for a field name.
func (l *Layout) Lookup(name string) (*Slot, bool) {
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return &l.Slots[i], true
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// selectFields filters the declarations active for v, resolving same-named
// declarations to the narrowest one. Declared order is kept.
func selectFields(s *Structure, v cache.Version) ([]Field, error) {
	type candidate struct {
		index, span int
		tied        int
	}
	chosen := make(map[string]candidate)
	for i := range s.Fields {
		f := &s.Fields[i]
		if !f.Active(v) || f.Name == "" {
			continue
		}
		span := f.span()
		c, seen := chosen[f.Name]
		switch {
		case !seen || span < c.span:
			chosen[f.Name] = candidate{index: i, span: span, tied: -1}
		case span == c.span:
			c.tied = i
			chosen[f.Name] = c
		}
	}
	for name, c := range chosen {
		if c.tied >= 0 {
			return nil, defError(s.Name, v, name, ErrAmbiguousField,
				"declarations %d and %d both cover %d versions", c.index, c.tied, c.span)
		}
	}

	fields := make([]Field, 0, len(s.Fields))
	for i := range s.Fields {
		f := s.Fields[i]
		if !f.Active(v) {
			continue
		}
		if f.Name != "" && chosen[f.Name].index != i {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func validateField(s *Structure, v cache.Version, f *Field) error {
	bad := func(format string, args ...any) error {
		return defError(s.Name, v, f.Name, ErrInvalidField, format, args...)
	}
	if f.Name == "" && f.Kind != Padding {
		return bad("unnamed %s field", f.Kind)
	}
	if f.Align < 0 || f.Align&(f.Align-1) != 0 {
		return bad("alignment %d is not a power of two", f.Align)
	}
	switch f.Kind {
	case Invalid:
		return bad("missing kind")
	case Enum, Flags:
		if !f.Elem.Integer() {
			return bad("%s storage kind %s is not an integer", f.Kind, f.Elem)
		}
	case Bytes, String, Padding:
		if f.Length <= 0 {
			return bad("%s length %d", f.Kind, f.Length)
		}
	case Array:
		if f.Length <= 0 {
			return bad("array length %d", f.Length)
		}
		if !f.Elem.Primitive() && f.Elem != Struct {
			return bad("array element kind %s", f.Elem)
		}
		if f.Elem == Struct && f.Type == "" {
			return bad("array of struct without type")
		}
	case Struct, Block, Pointer:
		if f.Type == "" {
			return bad("%s without type", f.Kind)
		}
	default:
		if f.Kind >= kindCount {
			return bad("unknown kind %s", f.Kind)
		}
	}
	return nil
}
