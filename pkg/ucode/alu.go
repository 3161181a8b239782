package ucode

import (
	"fmt"
	"strings"
)

// Source is one ALU source operand.
type Source struct {
	// Reg is the raw register byte. For temporaries the low six bits are the
	// register number, bit 6 selects loop-relative addressing and bit 7 takes
	// the absolute value.
	Reg     uint8
	Temp    bool
	Negate  bool
	Swizzle uint8
}

// Index returns the register or constant number.
func (s Source) Index() int {
	if s.Temp {
		return int(s.Reg & 0x3F)
	}
	return int(s.Reg)
}

// Relative reports loop-relative temporary addressing.
func (s Source) Relative() bool {
	return s.Temp && s.Reg&0x40 != 0
}

// Abs reports whether the absolute value of a temporary is taken.
func (s Source) Abs() bool {
	return s.Temp && s.Reg&0x80 != 0
}

// Component returns the source component read into position i. Swizzles are
// stored relative to the identity, so a zero swizzle reads xyzw.
func (s Source) Component(i int) int {
	return (int(s.Swizzle>>(2*i)) + i) & 3
}

// IdentitySwizzle reports whether the swizzle reads xyzw.
func (s Source) IdentitySwizzle() bool {
	return s.Swizzle == 0
}

const components = "xyzw"

// SwizzleString returns the swizzle as component letters, or "" for the identity.
func (s Source) SwizzleString() string {
	if s.IdentitySwizzle() {
		return ""
	}
	var b [4]byte
	for i := range b {
		b[i] = components[s.Component(i)]
	}
	return string(b[:])
}

// ALU is a vector/scalar instruction pair. Both halves share the three sources:
// vector operations read Src[0..2] and scalar operations read Src[2].
type ALU struct {
	VectorOp VectorOpcode
	ScalarOp ScalarOpcode

	VectorDest         uint8
	VectorDestRelative bool
	ScalarDest         uint8
	ScalarDestRelative bool
	VectorWriteMask    uint8
	ScalarWriteMask    uint8
	VectorClamp        bool
	ScalarClamp        bool
	// Export redirects the vector destination, and the scalar result, to an
	// export register.
	Export       bool
	AbsConstants bool

	Src [3]Source

	Predicated      bool
	PredCondition   bool
	AddressAbsolute bool
	// Const0Relative and Const1Relative apply a0 to the first and second
	// constant source.
	Const0Relative bool
	Const1Relative bool

	// ScalarTemp is the temporary register read by the constant scalar forms.
	ScalarTemp uint8
}

// DecodeALU interprets three ALU instruction dwords.
func DecodeALU(w [3]uint32) *ALU {
	a := &ALU{
		VectorDest:         uint8(w[0] & 0x3F),
		VectorDestRelative: w[0]>>6&1 != 0,
		AbsConstants:       w[0]>>7&1 != 0,
		ScalarDest:         uint8(w[0] >> 8 & 0x3F),
		ScalarDestRelative: w[0]>>14&1 != 0,
		Export:             w[0]>>15&1 != 0,
		VectorWriteMask:    uint8(w[0] >> 16 & 0xF),
		ScalarWriteMask:    uint8(w[0] >> 20 & 0xF),
		VectorClamp:        w[0]>>24&1 != 0,
		ScalarClamp:        w[0]>>25&1 != 0,
		ScalarOp:           ScalarOpcode(w[0] >> 26),

		PredCondition:   w[1]>>27&1 != 0,
		Predicated:      w[1]>>28&1 != 0,
		AddressAbsolute: w[1]>>29&1 != 0,
		Const1Relative:  w[1]>>30&1 != 0,
		Const0Relative:  w[1]>>31 != 0,

		VectorOp: VectorOpcode(w[2] >> 24 & 0x1F),
	}
	// Sources are stored third to first within each dword.
	for i := range a.Src {
		shift := uint(16 - 8*i)
		a.Src[i] = Source{
			Reg:     uint8(w[2] >> shift),
			Swizzle: uint8(w[1] >> shift),
			Negate:  w[1]>>(26-i)&1 != 0,
			Temp:    w[2]>>(31-i)&1 != 0,
		}
	}
	if a.ScalarOp.Operands() == ScalarConst {
		src := a.Src[2]
		var sel uint8
		if src.Temp {
			sel = 1
		}
		a.ScalarTemp = uint8(a.ScalarOp&1) | src.Swizzle&0x3C | sel<<1
	}
	return a
}

// Encode packs the instruction back into three dwords.
func (a *ALU) Encode() [3]uint32 {
	var w [3]uint32
	w[0] = uint32(a.VectorDest&0x3F) | b32(a.VectorDestRelative, 6) | b32(a.AbsConstants, 7) |
		uint32(a.ScalarDest&0x3F)<<8 | b32(a.ScalarDestRelative, 14) | b32(a.Export, 15) |
		uint32(a.VectorWriteMask&0xF)<<16 | uint32(a.ScalarWriteMask&0xF)<<20 |
		b32(a.VectorClamp, 24) | b32(a.ScalarClamp, 25) | uint32(a.ScalarOp&0x3F)<<26
	w[1] = b32(a.PredCondition, 27) | b32(a.Predicated, 28) | b32(a.AddressAbsolute, 29) |
		b32(a.Const1Relative, 30) | b32(a.Const0Relative, 31)
	w[2] = uint32(a.VectorOp&0x1F) << 24
	for i, src := range a.Src {
		shift := uint(16 - 8*i)
		w[1] |= uint32(src.Swizzle)<<shift | b32(src.Negate, uint(26-i))
		w[2] |= uint32(src.Reg)<<shift | b32(src.Temp, uint(31-i))
	}
	return w
}

func b32(b bool, n uint) uint32 {
	if b {
		return 1 << n
	}
	return 0
}

// HasVectorOp reports whether the vector half does anything: it writes a
// register, exports, or has a side effect on the kill, predicate or address
// state.
func (a *ALU) HasVectorOp() bool {
	if a.VectorWriteMask != 0 || a.Export {
		return true
	}
	switch a.VectorOp {
	case VecKillEQ, VecKillGT, VecKillGE, VecKillNE,
		VecSetpEQPush, VecSetpNEPush, VecSetpGTPush, VecSetpGEPush, VecMaxA:
		return true
	}
	return false
}

// HasScalarOp reports whether the scalar half does anything. retain_prev with
// no write mask is the scalar nop.
func (a *ALU) HasScalarOp() bool {
	return a.ScalarOp != ScaRetainPrev || a.ScalarWriteMask != 0
}

// ConstRelative reports whether the n-th constant source (in source order) is
// a0-relative.
func (a *ALU) ConstRelative(n int) bool {
	if n == 0 {
		return a.Const0Relative
	}
	return a.Const1Relative
}

// constOrdinal returns the position of source i among the constant sources.
func (a *ALU) constOrdinal(i int) int {
	n := 0
	for j := 0; j < i; j++ {
		if !a.Src[j].Temp {
			n++
		}
	}
	return n
}

// SourceRelative reports whether source i uses relative addressing.
func (a *ALU) SourceRelative(i int) bool {
	if a.Src[i].Temp {
		return a.Src[i].Relative()
	}
	return a.ConstRelative(a.constOrdinal(i))
}

func (a *ALU) sourceAsm(i int, swizzle string) string {
	return a.formatSource(a.Src[i], a.SourceRelative(i), swizzle)
}

// constAsm renders source i as a constant whatever its select bit says.
func (a *ALU) constAsm(i int, swizzle string) string {
	src := a.Src[i]
	src.Temp = false
	return a.formatSource(src, a.ConstRelative(a.constOrdinal(i)), swizzle)
}

func (a *ALU) formatSource(src Source, relative bool, swizzle string) string {
	var b strings.Builder
	if src.Negate {
		b.WriteByte('-')
	}
	abs := src.Abs() || (!src.Temp && a.AbsConstants)
	if abs {
		b.WriteByte('|')
	}
	prefix := "c"
	if src.Temp {
		prefix = "r"
	}
	switch {
	case relative && src.Temp:
		fmt.Fprintf(&b, "%s[%d+aL]", prefix, src.Index())
	case relative:
		fmt.Fprintf(&b, "%s[%d+a0]", prefix, src.Index())
	default:
		fmt.Fprintf(&b, "%s%d", prefix, src.Index())
	}
	if abs {
		b.WriteByte('|')
	}
	if swizzle != "" {
		b.WriteByte('.')
		b.WriteString(swizzle)
	}
	return b.String()
}

// ScalarComponents returns the components the scalar half reads from its source.
// For the constant forms the first is the constant component and the second the
// temporary component.
func (a *ALU) ScalarComponents() (int, int) {
	src := a.Src[2]
	if a.ScalarOp.Operands() == ScalarConst {
		return src.Component(3), src.Component(0)
	}
	return src.Component(0), src.Component(1)
}

// MaskString renders a write mask as component letters.
func MaskString(mask uint8) string {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		if mask&(1<<i) != 0 {
			b.WriteByte(components[i])
		}
	}
	return b.String()
}

func (a *ALU) predicate() string {
	if !a.Predicated {
		return ""
	}
	if a.PredCondition {
		return "(p0) "
	}
	return "(!p0) "
}

func (a *ALU) dest(reg uint8, relative bool, mask uint8) string {
	s := fmt.Sprintf("r%d", reg)
	switch {
	case a.Export:
		s = fmt.Sprintf("export%d", a.VectorDest)
	case relative:
		s = fmt.Sprintf("r[%d+aL]", reg)
	}
	if mask != 0xF {
		s += "." + MaskString(mask)
	}
	return s
}

// VectorAsm renders the vector half as assembly.
func (a *ALU) VectorAsm() string {
	var b strings.Builder
	b.WriteString(a.predicate())
	b.WriteString(a.VectorOp.String())
	if a.VectorClamp {
		b.WriteString("_sat")
	}
	b.WriteByte(' ')
	b.WriteString(a.dest(a.VectorDest, a.VectorDestRelative, a.VectorWriteMask))
	for i := 0; i < a.VectorOp.Operands(); i++ {
		b.WriteString(", ")
		b.WriteString(a.sourceAsm(i, a.Src[i].SwizzleString()))
	}
	return b.String()
}

// ScalarAsm renders the scalar half as assembly.
func (a *ALU) ScalarAsm() string {
	var b strings.Builder
	b.WriteString(a.predicate())
	b.WriteString(a.ScalarOp.String())
	if a.ScalarClamp {
		b.WriteString("_sat")
	}
	b.WriteByte(' ')
	if a.Export {
		b.WriteString(a.dest(a.VectorDest, false, a.ScalarWriteMask))
	} else {
		b.WriteString(a.dest(a.ScalarDest, a.ScalarDestRelative, a.ScalarWriteMask))
	}
	c0, c1 := a.ScalarComponents()
	switch a.ScalarOp.Operands() {
	case ScalarA:
		fmt.Fprintf(&b, ", %s", a.sourceAsm(2, components[c0:c0+1]))
	case ScalarAB:
		fmt.Fprintf(&b, ", %s", a.sourceAsm(2, string([]byte{components[c0], components[c1]})))
	case ScalarConst:
		fmt.Fprintf(&b, ", %s, r%d.%c", a.constAsm(2, components[c0:c0+1]), a.ScalarTemp, components[c1])
	}
	return b.String()
}
