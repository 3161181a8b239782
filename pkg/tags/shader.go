package tags

import (
	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/tagdef"
)

var ShaderParameter = &tagdef.Structure{
	Name:  "shader_parameter",
	Sizes: []tagdef.Size{{Size: 0x8}},
	Fields: []tagdef.Field{
		{Name: "parameter_name", Kind: tagdef.StringID},
		{Name: "register_index", Kind: tagdef.UInt16},
		{Name: "register_count", Kind: tagdef.UInt8},
		{Name: "register_type", Kind: tagdef.Enum, Elem: tagdef.UInt8,
			Enum: []string{"boolean", "integer", "vector", "sampler"}},
	},
}

var ShaderData = &tagdef.Structure{
	Name:  "shader_data",
	Sizes: []tagdef.Size{{Size: 0x50, Min: cache.Halo3Beta}},
	Fields: []tagdef.Field{
		{Name: "unknown1", Kind: tagdef.Data},
		{Name: "pc_compiled_shader", Kind: tagdef.Data},
		{Name: "xbox_parameters", Kind: tagdef.Block, Type: "shader_parameter"},
		{Name: "unknown2", Kind: tagdef.UInt32},
		{Name: "pc_parameters", Kind: tagdef.Block, Type: "shader_parameter"},
		{Name: "unknown3", Kind: tagdef.StringID},
		{Name: "unknown4", Kind: tagdef.UInt32},
		{Name: "xbox_shader_address", Kind: tagdef.UInt32},
	},
}

// XboxShader is the out-of-band microcode object a ShaderReference points to.
var XboxShader = &tagdef.Structure{
	Name:  "xbox_shader",
	Sizes: []tagdef.Size{{Size: 0x18, Min: cache.Halo3Beta}},
	Fields: []tagdef.Field{
		{Name: "microcode", Kind: tagdef.Data},
		{Name: "constant_count", Kind: tagdef.UInt32},
	},
}

var ShaderReference = &tagdef.Structure{
	Name:  "shader_reference",
	Sizes: []tagdef.Size{{Size: 0xC, Min: cache.Halo3Beta}},
	Fields: []tagdef.Field{
		{Name: "xbox_shader", Kind: tagdef.Pointer, Type: "xbox_shader"},
		{Name: "runtime_address", Kind: tagdef.UInt32},
		{Name: "definition_address", Kind: tagdef.UInt32},
	},
}

var ShaderBlock = &tagdef.Structure{
	Name:  "shader_block",
	Sizes: []tagdef.Size{{Size: 0x2C, Min: cache.Halo3Beta}},
	Fields: []tagdef.Field{
		{Name: "pc_shader", Kind: tagdef.Data},
		{Name: "xbox_parameters", Kind: tagdef.Block, Type: "shader_parameter"},
		{Name: "xbox_shader_reference", Kind: tagdef.Struct, Type: "shader_reference"},
	},
}
