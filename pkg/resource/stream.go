package resource

import "fmt"

// Stream is the inline addressing strategy: definition and data addresses are
// offsets into one growable buffer. Memory addresses are accepted when a base
// address is configured and are translated relative to it.
type Stream struct {
	buf  []byte
	base uint32
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithBaseAddress sets the virtual address the start of the buffer is loaded at.
func WithBaseAddress(base uint32) StreamOption {
	return func(s *Stream) {
		s.base = base
	}
}

// NewStream creates a stream over data. The stream takes ownership of data.
func NewStream(data []byte, opts ...StreamOption) *Stream {
	s := &Stream{buf: data}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bytes returns the buffer contents.
func (s *Stream) Bytes() []byte {
	return s.buf
}

// Len returns the buffer length.
func (s *Stream) Len() int {
	return len(s.buf)
}

func (s *Stream) offset(op string, addr Address, size int) (int, error) {
	switch addr.Type() {
	case Definition, Data:
		return int(addr.Offset()), nil
	case Memory:
		if s.base == 0 {
			return 0, unresolvable(op, addr, size, "no base address")
		}
		if addr.Offset() < s.base {
			return 0, outOfBounds(op, addr, size, fmt.Sprintf("below base 0x%X", s.base))
		}
		return int(addr.Offset() - s.base), nil
	}
	return 0, unresolvable(op, addr, size, "stream holds no "+addr.Type().String()+" space")
}

// Resolve implements Context.
func (s *Stream) Resolve(addr Address, size int) ([]byte, error) {
	off, err := s.offset("resolve", addr, size)
	if err != nil {
		return nil, err
	}
	start, end, err := span("resolve", addr, off, size, len(s.buf))
	if err != nil {
		return nil, err
	}
	return s.buf[start:end], nil
}

// Allocate implements Context. The buffer is extended with zeros.
func (s *Stream) Allocate(space AddressType, size, align int) (Address, error) {
	if space == Resource || (space == Memory && s.base == 0) {
		return Null, unresolvable("allocate", NewAddress(space, 0), size, "stream cannot allocate "+space.String())
	}
	start := alignUp(len(s.buf), align)
	if start+size > offsetMask {
		return Null, outOfBounds("allocate", NewAddress(space, 0), size, "stream full")
	}
	s.buf = append(s.buf, make([]byte, start+size-len(s.buf))...)

	if space == Memory {
		return NewAddress(Memory, s.base+uint32(start)), nil
	}
	return NewAddress(space, uint32(start)), nil
}

// Write implements Context.
func (s *Stream) Write(addr Address, p []byte) error {
	off, err := s.offset("write", addr, len(p))
	if err != nil {
		return err
	}
	start, end, err := span("write", addr, off, len(p), len(s.buf))
	if err != nil {
		return err
	}
	copy(s.buf[start:end], p)
	return nil
}
