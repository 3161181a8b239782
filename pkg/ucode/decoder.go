// Package ucode decodes Xenos shader microcode.
//
// A program is a sequence of three-dword instruction slots. The leading slots hold
// control-flow instructions, two per slot; the exec family of control-flow
// instructions points at clauses of ALU and fetch instructions stored in the
// slots after them.
package ucode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrClauseRange is returned for a clause outside the program.
var ErrClauseRange = errors.New("clause out of range")

// Words converts big-endian microcode bytes to dwords.
func Words(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("microcode length %d is not a multiple of 4", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(data[i*4:])
	}
	return words, nil
}

// ClauseInstruction is one instruction of a clause: exactly one of ALU and
// Fetch is set.
type ClauseInstruction struct {
	// Address is the instruction slot.
	Address   int
	Serialize bool
	ALU       *ALU
	Fetch     *Fetch
}

// Instruction is a control-flow instruction together with the clause it runs.
type Instruction struct {
	// Index is the control-flow instruction number.
	Index       int
	ControlFlow ControlFlow
	Clause      []ClauseInstruction
}

// Decoder reads control-flow instructions one at a time, in the manner of
// bufio.Scanner. Decoding stops after an instruction that ends the shader, when
// control flow runs into the first clause, or when the words run out. A Decoder
// cannot be restarted.
type Decoder struct {
	words []uint32
	slots int
	// limit is the first slot known to hold clause instructions.
	limit int
	next  int
	inst  Instruction
	err   error
	done  bool
}

// NewDecoder creates a decoder over words. A trailing partial slot is ignored.
func NewDecoder(words []uint32) *Decoder {
	slots := len(words) / 3
	return &Decoder{words: words, slots: slots, limit: slots}
}

func (d *Decoder) slot(i int) [3]uint32 {
	return [3]uint32(d.words[i*3 : i*3+3])
}

// Next advances to the next instruction. It returns false when decoding stops,
// either at the end of the program or on an error.
func (d *Decoder) Next() bool {
	if d.done || d.err != nil {
		return false
	}
	slot := d.next / 2
	if slot >= d.limit {
		d.done = true
		return false
	}
	a, b := UnpackControlFlow(d.slot(slot))
	raw := a
	if d.next%2 == 1 {
		raw = b
	}
	inst := Instruction{Index: d.next, ControlFlow: DecodeControlFlow(raw)}
	d.next++

	if address, count, sequence, ok := inst.ControlFlow.clause(); ok && count > 0 {
		if address <= slot || address+count > d.slots {
			d.err = fmt.Errorf("cf %d: %w: slots %d-%d of %d", inst.Index, ErrClauseRange, address, address+count, d.slots)
			return false
		}
		d.limit = min(d.limit, address)
		inst.Clause = make([]ClauseInstruction, count)
		for i := range inst.Clause {
			ci := ClauseInstruction{
				Address:   address + i,
				Serialize: sequence>>(2*i+1)&1 != 0,
			}
			if sequence>>(2*i)&1 != 0 {
				ci.Fetch = DecodeFetch(d.slot(address + i))
			} else {
				ci.ALU = DecodeALU(d.slot(address + i))
			}
			inst.Clause[i] = ci
		}
	}
	if inst.ControlFlow.Opcode.EndsShader() {
		d.done = true
	}
	d.inst = inst
	return true
}

// Instruction returns the instruction decoded by the last call to Next.
func (d *Decoder) Instruction() Instruction {
	return d.inst
}

// Err returns the first decoding error.
func (d *Decoder) Err() error {
	return d.err
}
