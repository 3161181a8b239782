package tags

import (
	"errors"
	"testing"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/tagdef"
)

func TestVerify(t *testing.T) {
	if err := NewRegistry().Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSizes(t *testing.T) {
	tests := []struct {
		typ     string
		version cache.Version
		size    int
	}{
		{"pitch_range", cache.Halo2Vista, 0xC},
		{"pitch_range", cache.Halo3Retail, 0xC},
		{"pitch_range", cache.HaloOnline106708, 0x38},
		{"pitch_range", cache.HaloReach, 0x38},
		{"promotion", cache.Halo2Xbox, 0x14},
		{"promotion", cache.Halo3ODST, 0x24},
		{"promotion", cache.HaloOnline700123, 0x30},
		{"shader_data", cache.Halo3Retail, 0x50},
		{"shader_block", cache.HaloOnline106708, 0x2C},
		{"tag_mapping", cache.Halo3ODST, 0x20},
		{"tag_resource_reference", cache.HaloOnline106708, 0x8},
		{"tag_resource_reference", cache.Halo3Retail, 0x8},
		{"cache_file_header", cache.HaloReach, 0x64},
	}
	for _, tt := range tests {
		layout, err := Default.Describe(tt.typ, tt.version)
		if err != nil {
			t.Errorf("Describe(%s, %s): %v", tt.typ, tt.version, err)
			continue
		}
		if layout.Size != tt.size {
			t.Errorf("%s at %s: size 0x%X, want 0x%X", tt.typ, tt.version, layout.Size, tt.size)
		}
	}
}

func TestPitchRangeShapes(t *testing.T) {
	old, err := Default.Describe("pitch_range", cache.Halo3ODST)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if slot, ok := old.Lookup("encoded_permutation_count"); !ok || slot.Offset != 8 {
		t.Errorf("Halo3ODST encoded_permutation_count: got %+v", slot)
	}
	slot, ok := old.Lookup("pitch_range_parameters")
	if !ok || slot.Kind != tagdef.Int16 {
		t.Errorf("Halo3ODST pitch_range_parameters: got %+v", slot)
	}
	if _, ok := old.Lookup("permutations"); ok {
		t.Error("Halo3ODST should have no permutations block")
	}

	h2, err := Default.Describe("pitch_range", cache.Halo2Xbox)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	count, ok := h2.Lookup("permutation_count")
	if !ok || count.Offset != 0xA {
		t.Errorf("Halo2Xbox permutation_count: got %+v", count)
	}

	online, err := Default.Describe("pitch_range", cache.HaloOnline106708)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	slot, ok = online.Lookup("pitch_range_parameters")
	if !ok || slot.Kind != tagdef.Struct || slot.Offset != 4 || slot.Size != 0x10 {
		t.Errorf("HaloOnline pitch_range_parameters: got %+v", slot)
	}
	count, ok = online.Lookup("permutation_count")
	if !ok || count.Offset != 0x28 {
		t.Errorf("HaloOnline permutation_count: got %+v", count)
	}
}

func TestBetaUnsupported(t *testing.T) {
	for _, typ := range []string{"promotion", "pitch_range"} {
		t.Run(typ, func(t *testing.T) {
			_, err := Default.Describe(typ, cache.Halo3Beta)
			if !errors.Is(err, tagdef.ErrUnsupportedVersion) {
				t.Errorf("got %v, want unsupported version", err)
			}
		})
	}
}

func TestCacheFileHeaderAlignment(t *testing.T) {
	layout, err := Default.Describe("cache_file_header", cache.HaloReach)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	for _, tt := range []struct {
		name        string
		offset, pad int
	}{
		{"tag_memory_header", 0x10, 3},
		{"string_id_header", 0x20, 3},
		{"timestamps", 0x30, 0},
		{"footer_signature", 0x60, 0},
	} {
		slot, ok := layout.Lookup(tt.name)
		if !ok {
			t.Errorf("%s missing", tt.name)
			continue
		}
		if slot.Offset != tt.offset || slot.Pad != tt.pad {
			t.Errorf("%s: offset 0x%X pad %d, want 0x%X pad %d", tt.name, slot.Offset, slot.Pad, tt.offset, tt.pad)
		}
	}
}

func TestHsTypeVariants(t *testing.T) {
	for _, tt := range []struct {
		version cache.Version
		kind    tagdef.Kind
	}{
		{cache.Halo2Xbox, tagdef.UInt16},
		{cache.Halo3Retail, tagdef.Enum},
		{cache.Halo3ODST, tagdef.Enum},
		{cache.HaloOnline106708, tagdef.Enum},
		{cache.HaloOnline700123, tagdef.UInt16},
	} {
		layout, err := Default.Describe("hs_type", tt.version)
		if err != nil {
			t.Fatalf("Describe(%s): %v", tt.version, err)
		}
		if len(layout.Slots) != 1 || layout.Slots[0].Kind != tt.kind {
			t.Errorf("%s: got %+v, want one %s slot", tt.version, layout.Slots, tt.kind)
		}
	}
}
