package decompiler

import "github.com/EchoTools/tagtool/pkg/ucode"

// Fixups records the rewrites PreFixup applied to an instruction.
type Fixups uint8

const (
	// FixVectorMove marks a max of a source with itself, which is a move.
	FixVectorMove Fixups = 1 << iota
	// FixScalarConst marks a second-constant scalar form folded into the first.
	FixScalarConst
)

// PreFixup normalizes an ALU instruction before translation. The constant
// scalar forms come in pairs that differ only in the low bit of the temporary
// register; the decoder already folds that bit into ScalarTemp, so the odd
// opcode is rewritten to the even one.
func PreFixup(a *ucode.ALU) Fixups {
	var f Fixups
	if a.VectorOp == ucode.VecMax && a.Src[0] == a.Src[1] && a.SourceRelative(0) == a.SourceRelative(1) {
		f |= FixVectorMove
	}
	switch a.ScalarOp {
	case ucode.ScaMulConst1, ucode.ScaAddConst1, ucode.ScaSubConst1:
		a.ScalarOp--
		f |= FixScalarConst
	}
	return f
}
