package tag

import (
	"fmt"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/resource"
	"github.com/EchoTools/tagtool/pkg/tagdef"
)

// structAlign is the alignment of every allocated structure and payload.
const structAlign = 4

// Serializer writes instances of one version through a resource context.
//
// The root structure is written first. Blocks, data, pointer targets and
// resources are allocated afterwards in breadth-first order, and each one's
// header in the parent is patched once its address is known.
//
// A Serializer is not safe for concurrent use.
type Serializer struct {
	config
}

// NewSerializer creates a serializer for a version.
func NewSerializer(reg *tagdef.Registry, v cache.Version, opts ...Option) *Serializer {
	return &Serializer{config: newConfig(reg, v, opts)}
}

// pending is an indirect field waiting for its payload to be allocated.
type pending struct {
	path   string
	slot   *tagdef.Slot
	value  any
	header resource.Address
}

type serializeState struct {
	ctx   resource.Context
	queue []pending
	// written maps every structure allocated as the root or a pointer target
	// to its address, so shared and cyclic pointers are written once.
	written map[*Struct]resource.Address
}

// Serialize writes s and everything it references, returning the address of the
// root structure.
func (z *Serializer) Serialize(ctx resource.Context, s *Struct) (resource.Address, error) {
	if s == nil {
		return resource.Null, fmt.Errorf("serialize: nil instance")
	}
	layout, err := z.describe(s.Type, s.Type)
	if err != nil {
		return resource.Null, err
	}
	root, err := ctx.Allocate(resource.Definition, layout.Size, structAlign)
	if err != nil {
		return resource.Null, fieldError(s.Type, err)
	}

	st := &serializeState{ctx: ctx, written: map[*Struct]resource.Address{s: root}}
	buf := make([]byte, layout.Size)
	if err := z.encodeStruct(st, layout, s, buf, root, s.Type); err != nil {
		return resource.Null, err
	}
	if err := ctx.Write(root, buf); err != nil {
		return resource.Null, fieldError(s.Type, err)
	}

	for len(st.queue) > 0 {
		p := st.queue[0]
		st.queue = st.queue[1:]
		if err := z.flush(st, p); err != nil {
			return resource.Null, err
		}
	}
	return root, nil
}

// Marshal serializes s into a standalone buffer holding the root structure at
// offset zero followed by every block, data and pointer payload. Resources
// cannot be written inline.
func (z *Serializer) Marshal(s *Struct) ([]byte, error) {
	stream := resource.NewStream(nil)
	if _, err := z.Serialize(stream, s); err != nil {
		return nil, err
	}
	return stream.Bytes(), nil
}

func at(base resource.Address, offset int) resource.Address {
	return resource.NewAddress(base.Type(), base.Offset()+uint32(offset))
}

func (z *Serializer) encodeStruct(st *serializeState, layout *tagdef.Layout, s *Struct, buf []byte, addr resource.Address, path string) error {
	if s == nil {
		return nil
	}
	if s.Type != "" && s.Type != layout.Type {
		return fieldError(path, fmt.Errorf("%w: %s instance in %s field", ErrTypeMismatch, s.Type, layout.Type))
	}
	for name := range s.Fields {
		if _, ok := layout.Lookup(name); !ok {
			z.logger.Debug("field not in layout", "path", path+"."+name, "version", z.version)
		}
	}
	for i := range layout.Slots {
		slot := &layout.Slots[i]
		if slot.Kind == tagdef.Padding {
			continue
		}
		v, ok := s.Fields[slot.Name]
		if !ok || v == nil {
			continue
		}
		fieldPath := path + "." + slot.Name
		b := buf[slot.Offset : slot.Offset+slot.Size]
		if err := z.encodeField(st, slot, v, b, at(addr, slot.Offset), fieldPath); err != nil {
			return err
		}
	}
	return nil
}

func (z *Serializer) encodeField(st *serializeState, slot *tagdef.Slot, v any, b []byte, addr resource.Address, path string) error {
	h := z.header()
	switch slot.Kind {
	case tagdef.Enum, tagdef.Flags:
		if err := encodePrimitive(z.order, slot.Elem, b, v); err != nil {
			return fieldError(path, err)
		}
		return nil

	case tagdef.Bytes:
		data, ok := v.([]byte)
		if !ok {
			return fieldError(path, mismatch(slot.Kind, v))
		}
		if len(data) > slot.Length {
			return fieldError(path, fmt.Errorf("%w: %d bytes in %d", ErrValueRange, len(data), slot.Length))
		}
		copy(b, data)
		return nil

	case tagdef.String:
		str, ok := v.(string)
		if !ok {
			return fieldError(path, mismatch(slot.Kind, v))
		}
		if len(str) > slot.Length {
			return fieldError(path, fmt.Errorf("%w: %q longer than %d", ErrValueRange, str, slot.Length))
		}
		copy(b, str)
		return nil

	case tagdef.Array:
		return z.encodeArray(st, slot, v, b, addr, path)

	case tagdef.Struct:
		inner, ok := v.(*Struct)
		if !ok {
			return fieldError(path, mismatch(slot.Kind, v))
		}
		layout, err := z.describe(path, slot.Type)
		if err != nil {
			return err
		}
		return z.encodeStruct(st, layout, inner, b, addr, path)

	case tagdef.Block:
		elems, ok := v.([]*Struct)
		if !ok {
			return fieldError(path, mismatch(slot.Kind, v))
		}
		if len(elems) > MaxElements {
			return fieldError(path, fmt.Errorf("%w: %d", ErrInvalidCount, len(elems)))
		}
		h.putBlock(b, int32(len(elems)), 0)
		if len(elems) > 0 {
			st.queue = append(st.queue, pending{path: path, slot: slot, value: elems, header: addr})
		}
		return nil

	case tagdef.Data:
		data, ok := v.([]byte)
		if !ok {
			return fieldError(path, mismatch(slot.Kind, v))
		}
		h.putData(b, int32(len(data)), 0)
		if len(data) > 0 {
			st.queue = append(st.queue, pending{path: path, slot: slot, value: data, header: addr})
		}
		return nil

	case tagdef.TagReference:
		ref, ok := v.(Reference)
		if !ok {
			return fieldError(path, mismatch(slot.Kind, v))
		}
		h.putReference(b, ref)
		return nil

	case tagdef.Pointer:
		p, ok := v.(*Pointer)
		if !ok {
			return fieldError(path, mismatch(slot.Kind, v))
		}
		return z.encodePointer(st, slot, p, b, addr, path)

	case tagdef.Resource:
		r, ok := v.(*Resource)
		if !ok {
			return fieldError(path, mismatch(slot.Kind, v))
		}
		return z.encodeResource(st, slot, r, b, addr, path)
	}

	if slot.Kind.Primitive() {
		if err := encodePrimitive(z.order, slot.Kind, b, v); err != nil {
			return fieldError(path, err)
		}
		return nil
	}
	return fieldError(path, fmt.Errorf("%w: cannot encode %s", ErrTypeMismatch, slot.Kind))
}

func (z *Serializer) encodeArray(st *serializeState, slot *tagdef.Slot, v any, b []byte, addr resource.Address, path string) error {
	values, ok := v.([]any)
	if !ok {
		return fieldError(path, mismatch(slot.Kind, v))
	}
	if len(values) > slot.Length {
		return fieldError(path, fmt.Errorf("%w: %d elements in %d", ErrValueRange, len(values), slot.Length))
	}
	elemSize := slot.Size / slot.Length
	var elemLayout *tagdef.Layout
	if slot.Elem == tagdef.Struct {
		var err error
		if elemLayout, err = z.describe(path, slot.Type); err != nil {
			return err
		}
	}
	for i, ev := range values {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		eb := b[i*elemSize : (i+1)*elemSize]
		if elemLayout == nil {
			if err := encodePrimitive(z.order, slot.Elem, eb, ev); err != nil {
				return fieldError(elemPath, err)
			}
			continue
		}
		inner, ok := ev.(*Struct)
		if !ok {
			return fieldError(elemPath, mismatch(tagdef.Struct, ev))
		}
		if err := z.encodeStruct(st, elemLayout, inner, eb, at(addr, i*elemSize), elemPath); err != nil {
			return err
		}
	}
	return nil
}

// encodePointer writes a pointer. A pointer with a target, set directly or
// resolvable from its source, is written as a new object unless that target was
// already written; an unresolvable one keeps its address.
func (z *Serializer) encodePointer(st *serializeState, slot *tagdef.Slot, p *Pointer, b []byte, addr resource.Address, path string) error {
	if p == nil {
		return nil
	}
	target := p.Target
	if target == nil && p.resolve != nil {
		var err error
		if target, err = p.Resolve(); err != nil {
			return fieldError(path, err)
		}
	}
	if target == nil {
		z.order.PutUint32(b, uint32(p.Address))
		return nil
	}
	if written, ok := st.written[target]; ok {
		z.order.PutUint32(b, uint32(written))
		return nil
	}
	st.queue = append(st.queue, pending{path: path, slot: slot, value: target, header: addr})
	return nil
}

func (z *Serializer) encodeResource(st *serializeState, slot *tagdef.Slot, r *Resource, b []byte, addr resource.Address, path string) error {
	if r == nil {
		return nil
	}
	data := r.Data
	if data == nil && r.load != nil {
		var err error
		if data, err = r.Load(); err != nil {
			return fieldError(path, err)
		}
	}
	if data == nil {
		z.order.PutUint32(b, uint32(r.Address))
		return nil
	}
	st.queue = append(st.queue, pending{path: path, slot: slot, value: data, header: addr})
	return nil
}

// flush allocates and writes one pending payload, then patches its header.
func (z *Serializer) flush(st *serializeState, p pending) error {
	h := z.header()
	hdr := make([]byte, p.slot.Size)

	switch p.slot.Kind {
	case tagdef.Block:
		elems := p.value.([]*Struct)
		layout, err := z.describe(p.path, p.slot.Type)
		if err != nil {
			return err
		}
		addr, err := st.ctx.Allocate(resource.Definition, len(elems)*layout.Size, structAlign)
		if err != nil {
			return fieldError(p.path, err)
		}
		buf := make([]byte, len(elems)*layout.Size)
		for i, e := range elems {
			off := i * layout.Size
			elemPath := fmt.Sprintf("%s[%d]", p.path, i)
			if err := z.encodeStruct(st, layout, e, buf[off:off+layout.Size], at(addr, off), elemPath); err != nil {
				return err
			}
		}
		if err := st.ctx.Write(addr, buf); err != nil {
			return fieldError(p.path, err)
		}
		h.putBlock(hdr, int32(len(elems)), uint32(addr))
		z.logger.Debug("wrote block", "path", p.path, "count", len(elems), "address", addr)

	case tagdef.Data:
		data := p.value.([]byte)
		addr, err := st.ctx.Allocate(resource.Data, len(data), structAlign)
		if err != nil {
			return fieldError(p.path, err)
		}
		if err := st.ctx.Write(addr, data); err != nil {
			return fieldError(p.path, err)
		}
		h.putData(hdr, int32(len(data)), uint32(addr))

	case tagdef.Pointer:
		target := p.value.(*Struct)
		if addr, ok := st.written[target]; ok {
			z.order.PutUint32(hdr, uint32(addr))
			break
		}
		layout, err := z.describe(p.path, p.slot.Type)
		if err != nil {
			return err
		}
		addr, err := st.ctx.Allocate(resource.Definition, layout.Size, structAlign)
		if err != nil {
			return fieldError(p.path, err)
		}
		st.written[target] = addr
		buf := make([]byte, layout.Size)
		if err := z.encodeStruct(st, layout, target, buf, addr, p.path); err != nil {
			return err
		}
		if err := st.ctx.Write(addr, buf); err != nil {
			return fieldError(p.path, err)
		}
		z.order.PutUint32(hdr, uint32(addr))

	case tagdef.Resource:
		data := p.value.([]byte)
		addr, err := st.ctx.Allocate(resource.Resource, len(data), structAlign)
		if err != nil {
			return fieldError(p.path, err)
		}
		if err := st.ctx.Write(addr, data); err != nil {
			return fieldError(p.path, err)
		}
		z.order.PutUint32(hdr, uint32(addr))
		z.logger.Debug("wrote resource", "path", p.path, "size", len(data), "address", addr)
	}

	if err := st.ctx.Write(p.header, hdr); err != nil {
		return fieldError(p.path, err)
	}
	return nil
}
