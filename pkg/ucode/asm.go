package ucode

import (
	"fmt"
	"strings"
)

// Disassemble renders a program as an assembly listing. The listing up to the
// failing instruction is returned with any decoding error.
func Disassemble(words []uint32) (string, error) {
	var b strings.Builder
	d := NewDecoder(words)
	for d.Next() {
		inst := d.Instruction()
		fmt.Fprintf(&b, "%4d  %s\n", inst.Index, inst.ControlFlow)
		for _, ci := range inst.Clause {
			serialize := ""
			if ci.Serialize {
				serialize = " SERIALIZE"
			}
			if ci.Fetch != nil {
				fmt.Fprintf(&b, "      %4d  %s%s\n", ci.Address, ci.Fetch.Asm(), serialize)
				continue
			}
			fmt.Fprintf(&b, "      %4d  ", ci.Address)
			switch alu := ci.ALU; {
			case alu.HasVectorOp() && alu.HasScalarOp():
				fmt.Fprintf(&b, "%s\n            + %s", alu.VectorAsm(), alu.ScalarAsm())
			case alu.HasScalarOp():
				b.WriteString(alu.ScalarAsm())
			case alu.HasVectorOp():
				b.WriteString(alu.VectorAsm())
			default:
				b.WriteString("nop")
			}
			b.WriteString(serialize)
			b.WriteByte('\n')
		}
	}
	return b.String(), d.Err()
}
