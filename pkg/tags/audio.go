package tags

import (
	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/tagdef"
)

// PitchRange changes shape in Halo Online: the import name and parameters were
// indices into shared tables before and are stored inline after. The Halo 3
// beta layout is not known.
var PitchRange = &tagdef.Structure{
	Name: "pitch_range",
	Sizes: []tagdef.Size{
		{Size: 0xC, Max: cache.Halo2Vista},
		{Size: 0xC, Min: cache.Halo3Retail, Max: cache.Halo3ODST},
		{Size: 0x38, Min: cache.HaloOnline106708},
	},
	Fields: []tagdef.Field{
		{Name: "import_name", Kind: tagdef.Int16, Max: cache.Halo3ODST},
		{Name: "import_name", Kind: tagdef.StringID, Min: cache.HaloOnline106708},
		{Name: "pitch_range_parameters", Kind: tagdef.Int16, Max: cache.Halo3ODST},
		{Name: "pitch_range_parameters", Kind: tagdef.Struct, Type: "pitch_range_parameter", Min: cache.HaloOnline106708},
		{Name: "unknown1", Kind: tagdef.UInt32, Min: cache.HaloOnline106708},
		{Name: "unknown2", Kind: tagdef.UInt32, Min: cache.HaloOnline106708},
		{Name: "unknown3", Kind: tagdef.UInt32, Min: cache.HaloOnline106708},
		{Name: "unknown4", Kind: tagdef.UInt32, Min: cache.HaloOnline106708},
		{Name: "unknown5", Kind: tagdef.Int16, Min: cache.HaloOnline106708},
		{Name: "unknown6", Kind: tagdef.Int16, Min: cache.HaloOnline106708},
		{Name: "permutation_count", Kind: tagdef.Int16, Min: cache.HaloOnline106708},
		{Name: "unknown7", Kind: tagdef.Int8, Min: cache.HaloOnline106708},
		{Name: "unknown8", Kind: tagdef.Int8, Min: cache.HaloOnline106708},
		{Name: "encoded_permutation_data_index", Kind: tagdef.Int16, Max: cache.Halo3ODST},
		{Name: "encoded_runtime_permutation_flag_index", Kind: tagdef.Int16, Max: cache.Halo3ODST},
		{Name: "encoded_permutation_count", Kind: tagdef.Int16, Min: cache.Halo3Retail, Max: cache.Halo3ODST},
		{Name: "first_permutation_index", Kind: tagdef.UInt16, Max: cache.Halo3ODST},
		{Name: "permutation_count", Kind: tagdef.Int16, Max: cache.Halo2Vista},
		{Name: "permutations", Kind: tagdef.Block, Type: "permutation", Min: cache.HaloOnline106708},
	},
}

var PitchRangeParameter = &tagdef.Structure{
	Name:  "pitch_range_parameter",
	Sizes: []tagdef.Size{{Size: 0x10}},
	Fields: []tagdef.Field{
		{Name: "natural_pitch", Kind: tagdef.Int16},
		{Kind: tagdef.Padding, Length: 2},
		{Name: "bend_bounds", Kind: tagdef.Array, Elem: tagdef.Int16, Length: 2},
		{Name: "max_gain_pitch_bounds", Kind: tagdef.Array, Elem: tagdef.Int16, Length: 2},
		{Name: "bend_scale", Kind: tagdef.Float32},
	},
}

var Permutation = &tagdef.Structure{
	Name:  "permutation",
	Sizes: []tagdef.Size{{Size: 0x10}},
	Fields: []tagdef.Field{
		{Name: "name", Kind: tagdef.StringID},
		{Name: "skip_fraction", Kind: tagdef.Float32},
		{Name: "gain", Kind: tagdef.Float32},
		{Name: "sample_size", Kind: tagdef.UInt32},
	},
}

// Promotion is unsupported on the Halo 3 beta: its layout was never pinned down.
var Promotion = &tagdef.Structure{
	Name: "promotion",
	Sizes: []tagdef.Size{
		{Size: 0x14, Max: cache.Halo2Vista},
		{Size: 0x24, Min: cache.Halo3Retail, Max: cache.Halo3ODST},
		{Size: 0x30, Min: cache.HaloOnline106708},
	},
	Fields: []tagdef.Field{
		{Name: "rules", Kind: tagdef.Block, Type: "promotion_rule"},
		{Name: "runtime_timers", Kind: tagdef.Block, Type: "runtime_timer"},
		{Name: "unknown1", Kind: tagdef.Int32},
		{Name: "unknown2", Kind: tagdef.UInt32, Min: cache.Halo3Retail},
		{Name: "unknown3", Kind: tagdef.UInt32, Min: cache.Halo3Retail},
		{Name: "longest_permutation_duration", Kind: tagdef.UInt32, Min: cache.HaloOnline106708},
		{Name: "total_sample_size", Kind: tagdef.UInt32, Min: cache.HaloOnline106708},
		{Name: "unknown11", Kind: tagdef.UInt32, Min: cache.HaloOnline106708},
	},
}

var PromotionRule = &tagdef.Structure{
	Name:  "promotion_rule",
	Sizes: []tagdef.Size{{Size: 0x10}},
	Fields: []tagdef.Field{
		{Name: "pitch_range_index", Kind: tagdef.Int16},
		{Name: "maximum_playing_count", Kind: tagdef.Int16},
		{Name: "suppression_time", Kind: tagdef.Float32},
		{Name: "unknown", Kind: tagdef.Int32},
		{Name: "unknown2", Kind: tagdef.Int32},
	},
}

var RuntimeTimer = &tagdef.Structure{
	Name:  "runtime_timer",
	Sizes: []tagdef.Size{{Size: 0x4}},
	Fields: []tagdef.Field{
		{Name: "unknown", Kind: tagdef.Int32},
	},
}
