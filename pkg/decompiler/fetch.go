package decompiler

import (
	"fmt"
	"strings"

	"github.com/EchoTools/tagtool/pkg/ucode"
)

var (
	samplerTypes = [4]string{"sampler1D", "sampler2D", "sampler3D", "samplerCUBE"}
	texFuncs     = [4]string{"tex1D", "tex2D", "tex3D", "texCUBE"}
)

// TranslateFetch emits one statement for a fetch instruction. Fetches other
// than plain vertex and texture reads become comments.
func (e *Emitter) TranslateFetch(f *ucode.Fetch) {
	switch f.Opcode {
	case ucode.FetchTexture:
		e.textureFetch(f)
	case ucode.FetchVertex:
		e.vertexFetch(f)
	default:
		e.Comment(f.Asm())
	}
}

func (e *Emitter) fetchDest(f *ucode.Fetch) string {
	if f.DstRelative {
		return fmt.Sprintf("r[%d + aL]", f.DstReg)
	}
	return fmt.Sprintf("r[%d]", f.DstReg)
}

func (e *Emitter) textureFetch(f *ucode.Fetch) {
	dim := f.Dimension & 3
	sampler := fmt.Sprintf("s%d", f.ConstIndex)
	e.Declare(sampler, fmt.Sprintf("%s %s;", samplerTypes[dim], sampler))

	coords := make([]byte, f.Dimension.Coordinates())
	for i := range coords {
		coords[i] = components[f.SrcComponent(i)]
	}
	src := fmt.Sprintf("r[%d]", f.SrcReg)
	if f.SrcRelative {
		src = fmt.Sprintf("r[%d + aL]", f.SrcReg)
	}
	call := fmt.Sprintf("%s(%s, %s.%s)", texFuncs[dim], sampler, src, coords)
	e.writeFetch(f, call, false)
}

func (e *Emitter) vertexFetch(f *ucode.Fetch) {
	input := fmt.Sprintf("vf%d_%d", f.VertexConst(), f.Offset)
	e.Declare(input, fmt.Sprintf("static float4 %s; // format 0x%X stride %d", input, f.Format, f.Stride))
	e.writeFetch(f, input, true)
}

// writeFetch assigns a fetched value through the destination swizzle. When
// the swizzle writes constants the value is read once into a temporary unless
// it is a plain variable.
func (e *Emitter) writeFetch(f *ucode.Fetch, value string, plain bool) {
	var mask, swz []byte
	var parts []string
	constants := false
	for i := 0; i < 4; i++ {
		c := f.DstComponent(i)
		if c > ucode.SwizzleOne {
			continue
		}
		mask = append(mask, components[i])
		switch c {
		case ucode.SwizzleZero:
			parts = append(parts, "0.0f")
			constants = true
		case ucode.SwizzleOne:
			parts = append(parts, "1.0f")
			constants = true
		default:
			swz = append(swz, components[c])
			parts = append(parts, "%s."+components[c:c+1])
		}
	}
	if len(mask) == 0 {
		e.Comment(f.Asm())
		return
	}

	pred := e.predicate(f.Predicated, f.PredCondition)
	dst := e.fetchDest(f)
	switch {
	case !constants:
		e.Emit("%s%s.%s = %s.%s;", pred, dst, mask, value, swz)
	case plain:
		e.Emit("%s%s.%s = float%d(%s);", pred, dst, mask, len(mask), fill(parts, value))
	default:
		e.Emit("%s{ float4 t = %s; %s.%s = float%d(%s); }", pred, value, dst, mask, len(mask), fill(parts, "t"))
	}
}

func fill(parts []string, name string) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		if strings.Contains(p, "%s") {
			p = fmt.Sprintf(p, name)
		}
		out[i] = p
	}
	return strings.Join(out, ", ")
}
