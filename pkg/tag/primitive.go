package tag

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/EchoTools/tagtool/pkg/stringid"
	"github.com/EchoTools/tagtool/pkg/tagdef"
)

func decodePrimitive(order binary.ByteOrder, kind tagdef.Kind, b []byte) any {
	switch kind {
	case tagdef.Int8:
		return int8(b[0])
	case tagdef.UInt8:
		return b[0]
	case tagdef.Int16:
		return int16(order.Uint16(b))
	case tagdef.UInt16:
		return order.Uint16(b)
	case tagdef.Int32:
		return int32(order.Uint32(b))
	case tagdef.UInt32:
		return order.Uint32(b)
	case tagdef.Int64:
		return int64(order.Uint64(b))
	case tagdef.UInt64:
		return order.Uint64(b)
	case tagdef.Float32:
		return math.Float32frombits(order.Uint32(b))
	case tagdef.StringID:
		return stringid.ID(order.Uint32(b))
	case tagdef.Tag:
		return Group(order.Uint32(b))
	}
	panic(fmt.Sprintf("tag: %s is not a primitive kind", kind))
}

func mismatch(kind tagdef.Kind, v any) error {
	return fmt.Errorf("%w: %s field holds %T", ErrTypeMismatch, kind, v)
}

func encodePrimitive(order binary.ByteOrder, kind tagdef.Kind, b []byte, v any) error {
	ok := true
	switch kind {
	case tagdef.Int8:
		var x int8
		x, ok = v.(int8)
		b[0] = byte(x)
	case tagdef.UInt8:
		var x uint8
		x, ok = v.(uint8)
		b[0] = x
	case tagdef.Int16:
		var x int16
		x, ok = v.(int16)
		order.PutUint16(b, uint16(x))
	case tagdef.UInt16:
		var x uint16
		x, ok = v.(uint16)
		order.PutUint16(b, x)
	case tagdef.Int32:
		var x int32
		x, ok = v.(int32)
		order.PutUint32(b, uint32(x))
	case tagdef.UInt32:
		var x uint32
		x, ok = v.(uint32)
		order.PutUint32(b, x)
	case tagdef.Int64:
		var x int64
		x, ok = v.(int64)
		order.PutUint64(b, uint64(x))
	case tagdef.UInt64:
		var x uint64
		x, ok = v.(uint64)
		order.PutUint64(b, x)
	case tagdef.Float32:
		var x float32
		x, ok = v.(float32)
		order.PutUint32(b, math.Float32bits(x))
	case tagdef.StringID:
		var x stringid.ID
		x, ok = v.(stringid.ID)
		order.PutUint32(b, uint32(x))
	case tagdef.Tag:
		var x Group
		x, ok = v.(Group)
		order.PutUint32(b, uint32(x))
	default:
		return fmt.Errorf("%w: %s is not a primitive kind", ErrTypeMismatch, kind)
	}
	if !ok {
		return mismatch(kind, v)
	}
	return nil
}

// Indirect field headers. Second generation headers are the compact forms.
type header struct {
	order binary.ByteOrder
	gen2  bool
}

// count and address of a block.
func (h header) block(b []byte) (int32, uint32) {
	return int32(h.order.Uint32(b[0:])), h.order.Uint32(b[4:])
}

func (h header) putBlock(b []byte, count int32, addr uint32) {
	h.order.PutUint32(b[0:], uint32(count))
	h.order.PutUint32(b[4:], addr)
}

func (h header) dataAddressOffset() int {
	if h.gen2 {
		return 4
	}
	return 0xC
}

// size and address of a data payload.
func (h header) data(b []byte) (int32, uint32) {
	return int32(h.order.Uint32(b[0:])), h.order.Uint32(b[h.dataAddressOffset():])
}

func (h header) putData(b []byte, size int32, addr uint32) {
	h.order.PutUint32(b[0:], uint32(size))
	h.order.PutUint32(b[h.dataAddressOffset():], addr)
}

func (h header) referenceIndexOffset() int {
	if h.gen2 {
		return 4
	}
	return 0xC
}

func (h header) reference(b []byte) Reference {
	return Reference{
		Group: Group(h.order.Uint32(b[0:])),
		Index: int32(h.order.Uint32(b[h.referenceIndexOffset():])),
	}
}

func (h header) putReference(b []byte, r Reference) {
	h.order.PutUint32(b[0:], uint32(r.Group))
	h.order.PutUint32(b[h.referenceIndexOffset():], uint32(r.Index))
}
