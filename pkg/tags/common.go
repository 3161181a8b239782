package tags

import (
	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/tagdef"
)

var particleStates = []string{
	"age", "system_age", "random_seed", "system_random_seed",
	"random1", "random2", "random3", "random4",
	"system_random1", "system_random2", "system_time", "system_lod",
	"game_time", "effect_a_scale", "effect_b_scale", "physics_rotation",
	"location_random", "distance_from_emitter", "simulation_a", "simulation_b",
	"velocity", "random5", "random6", "random7",
	"random8", "system_random3", "system_random4",
}

var TagMapping = &tagdef.Structure{
	Name:  "tag_mapping",
	Sizes: []tagdef.Size{{Size: 0x20, Min: cache.Halo3Beta}},
	Fields: []tagdef.Field{
		{Name: "input_variable", Kind: tagdef.Enum, Elem: tagdef.UInt8, Enum: particleStates},
		{Name: "range_variable", Kind: tagdef.Enum, Elem: tagdef.UInt8, Enum: particleStates},
		{Name: "output_modifier", Kind: tagdef.Enum, Elem: tagdef.Int8, Enum: []string{"none", "plus", "times"}},
		{Name: "output_modifier_input", Kind: tagdef.Enum, Elem: tagdef.UInt8, Enum: particleStates},
		{Name: "function", Kind: tagdef.Data},
		{Name: "runtime_constant_value", Kind: tagdef.Float32},
		{Name: "runtime_flags", Kind: tagdef.Flags, Elem: tagdef.UInt8,
			Enum: []string{"bit0", "bit1", "bit2", "bit3", "bit4", "is_constant", "bit6", "constant_over_time"}},
		{Kind: tagdef.Padding, Length: 3},
	},
}

// TagResourceReference is a datum index into the resource gestalt on third
// generation caches and a pageable resource address on Halo Online.
var TagResourceReference = &tagdef.Structure{
	Name:  "tag_resource_reference",
	Sizes: []tagdef.Size{{Size: 0x8, Min: cache.Halo3Beta}},
	Fields: []tagdef.Field{
		{Name: "resource", Kind: tagdef.UInt32, Gen: cache.Gen3},
		{Name: "resource", Kind: tagdef.Resource, Gen: cache.GenHaloOnline},
		{Name: "unused", Kind: tagdef.Int32},
	},
}

var hsTypeNames = []string{
	"unparsed", "special_form", "function_name", "passthrough", "void",
	"boolean", "real", "short", "long", "string", "script", "string_id",
}

// HsType stores a script value type whose numbering shifts between builds.
// Builds without a specific table fall back to the raw value.
var HsType = &tagdef.Structure{
	Name:  "hs_type",
	Sizes: []tagdef.Size{{Size: 0x2}},
	Fields: []tagdef.Field{
		{Name: "value", Kind: tagdef.UInt16},
		{Name: "value", Kind: tagdef.Enum, Elem: tagdef.UInt16, Enum: hsTypeNames,
			Min: cache.Halo3Retail, Max: cache.Halo3Retail},
		{Name: "value", Kind: tagdef.Enum, Elem: tagdef.UInt16, Enum: hsTypeNames,
			Min: cache.Halo3ODST, Max: cache.Halo3ODST},
		{Name: "value", Kind: tagdef.Enum, Elem: tagdef.UInt16, Enum: hsTypeNames,
			Min: cache.HaloOnline106708, Max: cache.HaloOnline106708},
	},
}
