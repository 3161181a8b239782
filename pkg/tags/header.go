package tags

import "github.com/EchoTools/tagtool/pkg/tagdef"

// CacheFileHeader is the leading header of a cache file. The nested headers are
// aligned to four bytes.
var CacheFileHeader = &tagdef.Structure{
	Name:  "cache_file_header",
	Sizes: []tagdef.Size{{Size: 0x64}},
	Fields: []tagdef.Field{
		{Name: "header_signature", Kind: tagdef.Tag},
		{Name: "file_version", Kind: tagdef.Int32},
		{Name: "file_length", Kind: tagdef.UInt32},
		{Name: "engine_version", Kind: tagdef.Enum, Elem: tagdef.Int8,
			Enum: []string{"halo1", "unknown1", "halo3", "unknown3", "unknown4", "halo3_odst", "halo_reach"}},
		{Name: "tag_memory_header", Kind: tagdef.Struct, Type: "tag_memory_header", Align: 4},
		{Name: "cache_type", Kind: tagdef.Enum, Elem: tagdef.Int16,
			Enum: []string{"campaign", "multiplayer", "main_menu", "shared", "shared_campaign"}},
		{Name: "shared_cache_type", Kind: tagdef.Enum, Elem: tagdef.Int16,
			Enum: []string{"none", "main_menu", "shared", "campaign"}},
		{Name: "unknown_flags", Kind: tagdef.UInt8},
		{Name: "string_id_header", Kind: tagdef.Struct, Type: "string_id_header", Align: 4},
		{Name: "timestamps", Kind: tagdef.Array, Elem: tagdef.UInt64, Length: 2},
		{Name: "build", Kind: tagdef.String, Length: 32},
		{Name: "footer_signature", Kind: tagdef.Tag},
	},
}

var TagMemoryHeader = &tagdef.Structure{
	Name:  "tag_memory_header",
	Sizes: []tagdef.Size{{Size: 0x8}},
	Fields: []tagdef.Field{
		{Name: "memory_buffer_offset", Kind: tagdef.UInt32},
		{Name: "memory_buffer_size", Kind: tagdef.UInt32},
	},
}

var StringIDHeader = &tagdef.Structure{
	Name:  "string_id_header",
	Sizes: []tagdef.Size{{Size: 0x10}},
	Fields: []tagdef.Field{
		{Name: "count", Kind: tagdef.Int32},
		{Name: "buffer_offset", Kind: tagdef.UInt32},
		{Name: "buffer_size", Kind: tagdef.Int32},
		{Name: "indices_offset", Kind: tagdef.UInt32},
	},
}
