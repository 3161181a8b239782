package tag

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/resource"
	"github.com/EchoTools/tagtool/pkg/tagdef"
)

// Deserializer reads instances of one version. Blocks and data are read through
// the resource context when the field is decoded; pointers and resources are
// captured with their address and resolved only on demand.
//
// A Deserializer is not safe for concurrent use.
type Deserializer struct {
	config
}

// NewDeserializer creates a deserializer for a version.
func NewDeserializer(reg *tagdef.Registry, v cache.Version, opts ...Option) *Deserializer {
	return &Deserializer{config: newConfig(reg, v, opts)}
}

// objectKey identifies a structure read from an address.
type objectKey struct {
	addr resource.Address
	typ  string
}

// readState is shared by every structure of one Deserialize call, including
// pointer targets resolved later. Each address is read once per type, so
// pointers that refer back to an enclosing structure yield that same *Struct.
type readState struct {
	ctx     resource.Context
	objects map[objectKey]*Struct
}

func newReadState(ctx resource.Context) *readState {
	return &readState{ctx: ctx, objects: make(map[objectKey]*Struct)}
}

// Deserialize reads a structure of type typ at addr.
func (d *Deserializer) Deserialize(ctx resource.Context, typ string, addr resource.Address) (*Struct, error) {
	return d.deserialize(newReadState(ctx), typ, addr)
}

func (d *Deserializer) deserialize(st *readState, typ string, addr resource.Address) (*Struct, error) {
	key := objectKey{addr: addr, typ: typ}
	if s, ok := st.objects[key]; ok {
		return s, nil
	}
	layout, err := d.describe(typ, typ)
	if err != nil {
		return nil, err
	}
	data, err := st.ctx.Resolve(addr, layout.Size)
	if err != nil {
		return nil, fieldError(typ, err)
	}
	s, err := d.decodeStruct(st, layout, data, typ)
	if err != nil {
		return nil, err
	}
	st.objects[key] = s
	return s, nil
}

// DeserializeFrom reads a structure of type typ from r. Out-of-band data is
// resolved through ctx.
func (d *Deserializer) DeserializeFrom(ctx resource.Context, r io.Reader, typ string) (*Struct, error) {
	layout, err := d.describe(typ, typ)
	if err != nil {
		return nil, err
	}
	data := make([]byte, layout.Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fieldError(typ, fmt.Errorf("%w: %w", ErrTruncated, err))
	}
	return d.decodeStruct(newReadState(ctx), layout, data, typ)
}

// Unmarshal reads a structure of type typ from the start of data, with all
// out-of-band payloads inline in data.
func (d *Deserializer) Unmarshal(data []byte, typ string) (*Struct, error) {
	return d.Deserialize(resource.NewStream(data), typ, resource.NewAddress(resource.Definition, 0))
}

func (d *Deserializer) decodeStruct(st *readState, layout *tagdef.Layout, data []byte, path string) (*Struct, error) {
	if len(data) < layout.Size {
		return nil, fieldError(path, fmt.Errorf("%w: %d of %d bytes", ErrTruncated, len(data), layout.Size))
	}
	s := &Struct{Type: layout.Type, Fields: make(map[string]any, len(layout.Slots))}
	for i := range layout.Slots {
		slot := &layout.Slots[i]
		if slot.Kind == tagdef.Padding {
			continue
		}
		fieldPath := path + "." + slot.Name
		v, err := d.decodeField(st, slot, data[slot.Offset:slot.Offset+slot.Size], fieldPath)
		if err != nil {
			return nil, err
		}
		s.Fields[slot.Name] = v
	}
	return s, nil
}

func (d *Deserializer) decodeField(st *readState, slot *tagdef.Slot, b []byte, path string) (any, error) {
	h := d.header()
	switch slot.Kind {
	case tagdef.Enum, tagdef.Flags:
		return decodePrimitive(d.order, slot.Elem, b), nil

	case tagdef.Bytes:
		return bytes.Clone(b), nil

	case tagdef.String:
		s, _, _ := strings.Cut(string(b), "\x00")
		return s, nil

	case tagdef.Array:
		return d.decodeArray(st, slot, b, path)

	case tagdef.Struct:
		layout, err := d.describe(path, slot.Type)
		if err != nil {
			return nil, err
		}
		return d.decodeStruct(st, layout, b, path)

	case tagdef.Block:
		return d.decodeBlock(st, slot, b, path)

	case tagdef.Data:
		size, addr := h.data(b)
		if size < 0 {
			return nil, fieldError(path, fmt.Errorf("%w: data size %d", ErrInvalidCount, size))
		}
		if size == 0 {
			return []byte(nil), nil
		}
		payload, err := st.ctx.Resolve(resource.Address(addr), int(size))
		if err != nil {
			return nil, fieldError(path, err)
		}
		return bytes.Clone(payload), nil

	case tagdef.TagReference:
		return h.reference(b), nil

	case tagdef.Pointer:
		addr := resource.Address(d.order.Uint32(b))
		if addr.IsNull() {
			return (*Pointer)(nil), nil
		}
		typ := slot.Type
		return &Pointer{
			Address: addr,
			Type:    typ,
			resolve: func() (*Struct, error) {
				return d.deserialize(st, typ, addr)
			},
		}, nil

	case tagdef.Resource:
		addr := resource.Address(d.order.Uint32(b))
		if addr.IsNull() {
			return (*Resource)(nil), nil
		}
		return &Resource{
			Address: addr,
			load: func() ([]byte, error) {
				data, err := st.ctx.Resolve(addr, -1)
				if err != nil {
					return nil, err
				}
				return bytes.Clone(data), nil
			},
		}, nil
	}

	if slot.Kind.Primitive() {
		return decodePrimitive(d.order, slot.Kind, b), nil
	}
	return nil, fieldError(path, fmt.Errorf("%w: cannot decode %s", ErrTypeMismatch, slot.Kind))
}

func (d *Deserializer) decodeArray(st *readState, slot *tagdef.Slot, b []byte, path string) (any, error) {
	elemSize := slot.Size / slot.Length
	values := make([]any, slot.Length)
	var elemLayout *tagdef.Layout
	if slot.Elem == tagdef.Struct {
		var err error
		if elemLayout, err = d.describe(path, slot.Type); err != nil {
			return nil, err
		}
	}
	for i := range values {
		eb := b[i*elemSize : (i+1)*elemSize]
		if elemLayout == nil {
			values[i] = decodePrimitive(d.order, slot.Elem, eb)
			continue
		}
		s, err := d.decodeStruct(st, elemLayout, eb, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		values[i] = s
	}
	return values, nil
}

func (d *Deserializer) decodeBlock(st *readState, slot *tagdef.Slot, b []byte, path string) (any, error) {
	count, addr := d.header().block(b)
	if count < 0 || count > MaxElements {
		return nil, fieldError(path, fmt.Errorf("%w: %d", ErrInvalidCount, count))
	}
	if count == 0 {
		return []*Struct(nil), nil
	}
	layout, err := d.describe(path, slot.Type)
	if err != nil {
		return nil, err
	}
	payload, err := st.ctx.Resolve(resource.Address(addr), int(count)*layout.Size)
	if err != nil {
		return nil, fieldError(path, err)
	}
	// The context may reuse its storage on later resolves.
	payload = bytes.Clone(payload)

	elems := make([]*Struct, count)
	for i := range elems {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		elems[i], err = d.decodeStruct(st, layout, payload[i*layout.Size:(i+1)*layout.Size], elemPath)
		if err != nil {
			return nil, err
		}
	}
	d.logger.Debug("read block", "path", path, "count", count, "address", resource.Address(addr))
	return elems, nil
}
