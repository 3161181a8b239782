// Package resource resolves and allocates the addresses stored in tag data.
//
// A Context hides where out-of-band data lives: inline in the definition stream
// (Stream), in a paged and compressed resource cache loaded on first touch
// (PagedCache), in one such cache per resource category (Caches), or in any
// combination routed by address type (Mux). Serializers depend only on Context.
package resource

import (
	"errors"
	"fmt"
)

// Context resolves addresses to byte ranges and allocates new ones.
//
// Slices returned by Resolve alias the context's storage and are only valid until
// the next Allocate or Write.
type Context interface {
	// Resolve returns size bytes at addr. A negative size returns the whole
	// object or the rest of the space.
	Resolve(addr Address, size int) ([]byte, error)
	// Allocate reserves size zeroed bytes in the given space, aligned to align.
	Allocate(space AddressType, size, align int) (Address, error)
	// Write copies p to addr.
	Write(addr Address, p []byte) error
}

// Addressing error causes.
var (
	ErrUnresolvable = errors.New("unresolvable address")
	ErrOutOfBounds  = errors.New("address out of bounds")
)

// AddressingError reports an address that cannot be resolved or allocated.
type AddressingError struct {
	Op     string
	Addr   Address
	Size   int
	Err    error
	Detail string
}

func (e *AddressingError) Error() string {
	msg := fmt.Sprintf("%s %s (size %d): %v", e.Op, e.Addr, e.Size, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *AddressingError) Unwrap() error {
	return e.Err
}

func unresolvable(op string, addr Address, size int, detail string) error {
	return &AddressingError{Op: op, Addr: addr, Size: size, Err: ErrUnresolvable, Detail: detail}
}

func outOfBounds(op string, addr Address, size int, detail string) error {
	return &AddressingError{Op: op, Addr: addr, Size: size, Err: ErrOutOfBounds, Detail: detail}
}

// span checks [offset, offset+size) against a buffer length. A negative size
// extends to the end.
func span(op string, addr Address, offset, size, length int) (int, int, error) {
	if offset < 0 || offset > length {
		return 0, 0, outOfBounds(op, addr, size, fmt.Sprintf("offset %d beyond %d", offset, length))
	}
	if size < 0 {
		return offset, length, nil
	}
	if size > length-offset {
		return 0, 0, outOfBounds(op, addr, size, fmt.Sprintf("end %d beyond %d", offset+size, length))
	}
	return offset, offset + size, nil
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
