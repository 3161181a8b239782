package ucode

import "fmt"

// Control-flow instructions are 48 bits wide and packed two per three dwords:
//
//	dword 0      bits  0-31 of the first instruction
//	dword 1 lo   bits 32-47 of the first instruction
//	dword 1 hi   bits  0-15 of the second instruction
//	dword 2      bits 16-47 of the second instruction
const cfMask = 1<<48 - 1

// UnpackControlFlow splits one instruction slot into its two control-flow words.
func UnpackControlFlow(slot [3]uint32) (uint64, uint64) {
	a := uint64(slot[0]) | uint64(slot[1]&0xFFFF)<<32
	b := uint64(slot[1]>>16) | uint64(slot[2])<<16
	return a, b
}

// PackControlFlow is the inverse of UnpackControlFlow.
func PackControlFlow(a, b uint64) [3]uint32 {
	a &= cfMask
	b &= cfMask
	return [3]uint32{
		uint32(a),
		uint32(a>>32) | uint32(b&0xFFFF)<<16,
		uint32(b >> 16),
	}
}

// Operands is one of the control-flow operand layouts: Exec, CondExec,
// CondExecPred, LoopStart, LoopEnd, CondCall, Return, CondJmp or Alloc.
type Operands interface {
	operands()
}

// Exec runs Count instructions starting at instruction slot Address.
type Exec struct {
	Address int
	Count   int
	Yield   bool
	// Sequence holds two bits per clause instruction: bit 0 selects fetch over
	// ALU and bit 1 serializes the instruction.
	Sequence    uint16
	VertexCache uint8
	Clean       bool
}

// CondExec runs a clause when a boolean constant matches Condition.
type CondExec struct {
	Address     int
	Count       int
	Yield       bool
	Sequence    uint16
	VertexCache uint8
	BoolAddress uint8
	Condition   bool
}

// CondExecPred runs a clause when the predicate matches Condition.
type CondExecPred struct {
	Address     int
	Count       int
	Yield       bool
	Sequence    uint16
	VertexCache uint8
	Clean       bool
	Condition   bool
}

type LoopStart struct {
	Address int
	Repeat  bool
	LoopID  uint8
}

type LoopEnd struct {
	Address         int
	LoopID          uint8
	PredicatedBreak bool
	Condition       bool
}

type CondCall struct {
	Address       int
	Unconditional bool
	Predicated    bool
	BoolAddress   uint8
	Condition     bool
}

type Return struct{}

type CondJmp struct {
	Address       int
	Unconditional bool
	Predicated    bool
	Backward      bool
	BoolAddress   uint8
	Condition     bool
}

// AllocType is the buffer an alloc instruction reserves.
type AllocType uint8

const (
	AllocNone AllocType = iota
	AllocPosition
	AllocInterpolators
	AllocMemory
)

func (t AllocType) String() string {
	switch t {
	case AllocPosition:
		return "position"
	case AllocInterpolators:
		return "interpolators"
	case AllocMemory:
		return "memory"
	}
	return "none"
}

type Alloc struct {
	Size         int
	Unserialized bool
	Type         AllocType
}

func (Exec) operands()         {}
func (CondExec) operands()     {}
func (CondExecPred) operands() {}
func (LoopStart) operands()    {}
func (LoopEnd) operands()      {}
func (CondCall) operands()     {}
func (Return) operands()       {}
func (CondJmp) operands()      {}
func (Alloc) operands()        {}

// ControlFlow is a decoded control-flow instruction. Operands is nil for nop and
// mark_vs_fetch_done.
type ControlFlow struct {
	Opcode          CFOpcode
	AbsoluteAddress bool
	Operands        Operands
}

func bit(v uint64, n uint) bool {
	return v>>n&1 != 0
}

func bits(v uint64, n, width uint) uint64 {
	return v >> n & (1<<width - 1)
}

func flag(b bool, n uint) uint64 {
	if b {
		return 1 << n
	}
	return 0
}

// DecodeControlFlow interprets a 48-bit control-flow word. The layout is chosen by
// the opcode in the top four bits.
func DecodeControlFlow(v uint64) ControlFlow {
	cf := ControlFlow{
		Opcode:          CFOpcode(bits(v, 44, 4)),
		AbsoluteAddress: bit(v, 43),
	}
	switch cf.Opcode {
	case CFExec, CFExecEnd:
		cf.Operands = Exec{
			Address:     int(bits(v, 0, 12)),
			Count:       int(bits(v, 12, 3)),
			Yield:       bit(v, 15),
			Sequence:    uint16(bits(v, 16, 12)),
			VertexCache: uint8(bits(v, 28, 4) | bits(v, 32, 2)<<4),
			Clean:       bit(v, 41),
		}
	case CFCondExec, CFCondExecEnd:
		cf.Operands = CondExec{
			Address:     int(bits(v, 0, 12)),
			Count:       int(bits(v, 12, 3)),
			Yield:       bit(v, 15),
			Sequence:    uint16(bits(v, 16, 12)),
			VertexCache: uint8(bits(v, 28, 4) | bits(v, 32, 2)<<4),
			BoolAddress: uint8(bits(v, 34, 8)),
			Condition:   bit(v, 42),
		}
	case CFCondExecPred, CFCondExecPredEnd, CFCondExecPredClean, CFCondExecPredCleanEnd:
		cf.Operands = CondExecPred{
			Address:     int(bits(v, 0, 12)),
			Count:       int(bits(v, 12, 3)),
			Yield:       bit(v, 15),
			Sequence:    uint16(bits(v, 16, 12)),
			VertexCache: uint8(bits(v, 28, 4) | bits(v, 32, 2)<<4),
			Clean:       bit(v, 41),
			Condition:   bit(v, 42),
		}
	case CFLoopStart:
		cf.Operands = LoopStart{
			Address: int(bits(v, 0, 13)),
			Repeat:  bit(v, 13),
			LoopID:  uint8(bits(v, 16, 5)),
		}
	case CFLoopEnd:
		cf.Operands = LoopEnd{
			Address:         int(bits(v, 0, 13)),
			LoopID:          uint8(bits(v, 16, 5)),
			PredicatedBreak: bit(v, 21),
			Condition:       bit(v, 42),
		}
	case CFCondCall:
		cf.Operands = CondCall{
			Address:       int(bits(v, 0, 13)),
			Unconditional: bit(v, 13),
			Predicated:    bit(v, 14),
			BoolAddress:   uint8(bits(v, 34, 8)),
			Condition:     bit(v, 42),
		}
	case CFReturn:
		cf.Operands = Return{}
	case CFCondJmp:
		cf.Operands = CondJmp{
			Address:       int(bits(v, 0, 13)),
			Unconditional: bit(v, 13),
			Predicated:    bit(v, 14),
			Backward:      bit(v, 32),
			BoolAddress:   uint8(bits(v, 34, 8)),
			Condition:     bit(v, 42),
		}
	case CFAlloc:
		cf.Operands = Alloc{
			Size:         int(bits(v, 0, 3)),
			Unserialized: bit(v, 40),
			Type:         AllocType(bits(v, 41, 2)),
		}
	}
	return cf
}

// Encode packs the instruction back into a 48-bit word. Reserved bits are zero.
func (cf ControlFlow) Encode() uint64 {
	v := uint64(cf.Opcode&0xF)<<44 | flag(cf.AbsoluteAddress, 43)
	clause := func(addr, count int, yield bool, seq uint16, vc uint8) uint64 {
		return uint64(addr)&0xFFF | uint64(count&7)<<12 | flag(yield, 15) |
			uint64(seq&0xFFF)<<16 | uint64(vc&0xF)<<28 | uint64(vc>>4&3)<<32
	}
	switch op := cf.Operands.(type) {
	case Exec:
		v |= clause(op.Address, op.Count, op.Yield, op.Sequence, op.VertexCache) | flag(op.Clean, 41)
	case CondExec:
		v |= clause(op.Address, op.Count, op.Yield, op.Sequence, op.VertexCache) |
			uint64(op.BoolAddress)<<34 | flag(op.Condition, 42)
	case CondExecPred:
		v |= clause(op.Address, op.Count, op.Yield, op.Sequence, op.VertexCache) |
			flag(op.Clean, 41) | flag(op.Condition, 42)
	case LoopStart:
		v |= uint64(op.Address)&0x1FFF | flag(op.Repeat, 13) | uint64(op.LoopID&0x1F)<<16
	case LoopEnd:
		v |= uint64(op.Address)&0x1FFF | uint64(op.LoopID&0x1F)<<16 |
			flag(op.PredicatedBreak, 21) | flag(op.Condition, 42)
	case CondCall:
		v |= uint64(op.Address)&0x1FFF | flag(op.Unconditional, 13) | flag(op.Predicated, 14) |
			uint64(op.BoolAddress)<<34 | flag(op.Condition, 42)
	case CondJmp:
		v |= uint64(op.Address)&0x1FFF | flag(op.Unconditional, 13) | flag(op.Predicated, 14) |
			flag(op.Backward, 32) | uint64(op.BoolAddress)<<34 | flag(op.Condition, 42)
	case Alloc:
		v |= uint64(op.Size&7) | flag(op.Unserialized, 40) | uint64(op.Type&3)<<41
	}
	return v
}

// clause returns the clause an executing instruction runs.
func (cf ControlFlow) clause() (address, count int, sequence uint16, ok bool) {
	switch op := cf.Operands.(type) {
	case Exec:
		return op.Address, op.Count, op.Sequence, true
	case CondExec:
		return op.Address, op.Count, op.Sequence, true
	case CondExecPred:
		return op.Address, op.Count, op.Sequence, true
	}
	return 0, 0, 0, false
}

func (cf ControlFlow) String() string {
	switch op := cf.Operands.(type) {
	case Exec:
		s := fmt.Sprintf("%s ADDR(0x%X) CNT(0x%X)", cf.Opcode, op.Address, op.Count)
		if op.Yield {
			s += " YIELD"
		}
		if op.Clean {
			s += " CLEAN"
		}
		return s
	case CondExec:
		return fmt.Sprintf("%s %sb%d ADDR(0x%X) CNT(0x%X)", cf.Opcode, not(op.Condition), op.BoolAddress, op.Address, op.Count)
	case CondExecPred:
		return fmt.Sprintf("%s %sp0 ADDR(0x%X) CNT(0x%X)", cf.Opcode, not(op.Condition), op.Address, op.Count)
	case LoopStart:
		s := fmt.Sprintf("%s i%d L%d", cf.Opcode, op.LoopID, op.Address)
		if op.Repeat {
			s += " REPEAT"
		}
		return s
	case LoopEnd:
		s := fmt.Sprintf("%s i%d L%d", cf.Opcode, op.LoopID, op.Address)
		if op.PredicatedBreak {
			s += fmt.Sprintf(" BREAK(%sp0)", not(op.Condition))
		}
		return s
	case CondCall:
		return fmt.Sprintf("%s %sL%d", cf.Opcode, condition(op.Unconditional, op.Predicated, op.BoolAddress, op.Condition), op.Address)
	case CondJmp:
		return fmt.Sprintf("%s %sL%d", cf.Opcode, condition(op.Unconditional, op.Predicated, op.BoolAddress, op.Condition), op.Address)
	case Alloc:
		return fmt.Sprintf("%s %s(%d)", cf.Opcode, op.Type, op.Size)
	}
	return cf.Opcode.String()
}

func not(cond bool) string {
	if cond {
		return ""
	}
	return "!"
}

func condition(unconditional, predicated bool, boolAddr uint8, cond bool) string {
	switch {
	case unconditional:
		return ""
	case predicated:
		return not(cond) + "p0, "
	}
	return fmt.Sprintf("%sb%d, ", not(cond), boolAddr)
}
