package ucode

import (
	"fmt"
	"strings"
)

// TextureDimension is the dimensionality of a texture fetch.
type TextureDimension uint8

const (
	Texture1D TextureDimension = iota
	Texture2D
	Texture3D
	TextureCube
)

var dimensionNames = [4]string{"1D", "2D", "3D", "Cube"}

func (d TextureDimension) String() string {
	return dimensionNames[d&3]
}

// Coordinates returns the number of coordinate components the dimension reads.
func (d TextureDimension) Coordinates() int {
	switch d {
	case Texture1D:
		return 1
	case Texture2D:
		return 2
	}
	return 3
}

// Destination swizzle selectors beyond the four components.
const (
	SwizzleZero   = 4
	SwizzleOne    = 5
	SwizzleMasked = 7
)

// Fetch is a vertex or texture fetch instruction.
type Fetch struct {
	Opcode      FetchOpcode
	SrcReg      uint8
	SrcRelative bool
	DstReg      uint8
	DstRelative bool
	ConstIndex  uint8
	// SrcSwizzle holds two bits per source component, absolute rather than
	// relative to the identity.
	SrcSwizzle uint8
	// DstSwizzle holds three bits per destination component.
	DstSwizzle    uint16
	Predicated    bool
	PredCondition bool

	// Texture fetches.
	Dimension      TextureDimension
	FetchValidOnly bool
	Unnormalized   bool
	LodBias        int8

	// Vertex fetches.
	ConstSelect uint8
	Format      uint8
	Signed      bool
	Mini        bool
	Stride      uint8
	Offset      uint32
}

// DecodeFetch interprets three fetch instruction dwords.
func DecodeFetch(w [3]uint32) *Fetch {
	f := &Fetch{
		Opcode:        FetchOpcode(w[0] & 0x1F),
		SrcReg:        uint8(w[0] >> 5 & 0x3F),
		SrcRelative:   w[0]>>11&1 != 0,
		DstReg:        uint8(w[0] >> 12 & 0x3F),
		DstRelative:   w[0]>>18&1 != 0,
		ConstIndex:    uint8(w[0] >> 20 & 0x1F),
		DstSwizzle:    uint16(w[1] & 0xFFF),
		Predicated:    w[1]>>31 != 0,
		PredCondition: w[2]>>31 != 0,
	}
	if f.Opcode == FetchVertex {
		f.ConstSelect = uint8(w[0] >> 25 & 3)
		f.SrcSwizzle = uint8(w[0] >> 30 & 3)
		f.Signed = w[1]>>14&1 != 0
		f.Format = uint8(w[1] >> 16 & 0x3F)
		f.Mini = w[1]>>30&1 != 0
		f.Stride = uint8(w[2])
		f.Offset = w[2] >> 8 & 0x7FFFFF
		return f
	}
	f.FetchValidOnly = w[0]>>19&1 != 0
	f.Unnormalized = w[0]>>25&1 != 0
	f.SrcSwizzle = uint8(w[0] >> 26 & 0x3F)
	f.LodBias = int8(uint8(w[2]>>2&0x7F)<<1) >> 1
	f.Dimension = TextureDimension(w[2] >> 14 & 3)
	return f
}

// Encode packs the instruction back into three dwords.
func (f *Fetch) Encode() [3]uint32 {
	var w [3]uint32
	w[0] = uint32(f.Opcode&0x1F) | uint32(f.SrcReg&0x3F)<<5 | b32(f.SrcRelative, 11) |
		uint32(f.DstReg&0x3F)<<12 | b32(f.DstRelative, 18) | uint32(f.ConstIndex&0x1F)<<20
	w[1] = uint32(f.DstSwizzle&0xFFF) | b32(f.Predicated, 31)
	w[2] = b32(f.PredCondition, 31)
	if f.Opcode == FetchVertex {
		w[0] |= 1<<19 | uint32(f.ConstSelect&3)<<25 | uint32(f.SrcSwizzle&3)<<30
		w[1] |= b32(f.Signed, 14) | uint32(f.Format&0x3F)<<16 | b32(f.Mini, 30)
		w[2] |= uint32(f.Stride) | (f.Offset&0x7FFFFF)<<8
		return w
	}
	w[0] |= b32(f.FetchValidOnly, 19) | b32(f.Unnormalized, 25) | uint32(f.SrcSwizzle&0x3F)<<26
	w[2] |= uint32(uint8(f.LodBias)&0x7F)<<2 | uint32(f.Dimension&3)<<14
	return w
}

// DstComponent returns the selector written to destination component i: a
// component index, SwizzleZero, SwizzleOne or SwizzleMasked.
func (f *Fetch) DstComponent(i int) int {
	return int(f.DstSwizzle >> (3 * i) & 7)
}

// SrcComponent returns the source component read for coordinate i.
func (f *Fetch) SrcComponent(i int) int {
	return int(f.SrcSwizzle >> (2 * i) & 3)
}

// VertexConst returns the vertex fetch constant slot.
func (f *Fetch) VertexConst() int {
	return int(f.ConstIndex)*3 + int(f.ConstSelect)
}

// DstSwizzleString renders the destination swizzle, with '_' for masked
// components.
func (f *Fetch) DstSwizzleString() string {
	var b [4]byte
	for i := range b {
		switch c := f.DstComponent(i); {
		case c < 4:
			b[i] = components[c]
		case c == SwizzleZero:
			b[i] = '0'
		case c == SwizzleOne:
			b[i] = '1'
		default:
			b[i] = '_'
		}
	}
	return string(b[:])
}

// Asm renders the instruction as assembly.
func (f *Fetch) Asm() string {
	var b strings.Builder
	if f.Predicated {
		fmt.Fprintf(&b, "(%sp0) ", not(f.PredCondition))
	}
	switch f.Opcode {
	case FetchVertex:
		fmt.Fprintf(&b, "vfetch r%d.%s, r%d.%c, vf%d", f.DstReg, f.DstSwizzleString(), f.SrcReg,
			components[f.SrcComponent(0)], f.VertexConst())
		if f.Mini {
			b.WriteString(" MINI")
		}
		fmt.Fprintf(&b, " FORMAT(0x%X) STRIDE(%d) OFFSET(%d)", f.Format, f.Stride, f.Offset)
		if f.Signed {
			b.WriteString(" SIGNED")
		}
	case FetchTexture:
		coords := make([]byte, f.Dimension.Coordinates())
		for i := range coords {
			coords[i] = components[f.SrcComponent(i)]
		}
		fmt.Fprintf(&b, "tfetch%s r%d.%s, r%d.%s, tf%d", f.Dimension, f.DstReg, f.DstSwizzleString(),
			f.SrcReg, coords, f.ConstIndex)
		if f.LodBias != 0 {
			fmt.Fprintf(&b, " LODBIAS(%d)", f.LodBias)
		}
	default:
		fmt.Fprintf(&b, "%s r%d.%s, r%d, tf%d", f.Opcode, f.DstReg, f.DstSwizzleString(), f.SrcReg, f.ConstIndex)
	}
	return b.String()
}
