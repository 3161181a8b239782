package tag_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/resource"
	"github.com/EchoTools/tagtool/pkg/stringid"
	"github.com/EchoTools/tagtool/pkg/tag"
	"github.com/EchoTools/tagtool/pkg/tagdef"
	"github.com/EchoTools/tagtool/pkg/tags"
)

var instanceOpts = cmp.Options{
	cmpopts.IgnoreUnexported(tag.Pointer{}, tag.Resource{}),
	cmpopts.IgnoreFields(tag.Pointer{}, "Address"),
	cmpopts.IgnoreFields(tag.Resource{}, "Address"),
	cmpopts.EquateEmpty(),
}

func roundTrip(t *testing.T, v cache.Version, ctx resource.Context, in *tag.Struct) *tag.Struct {
	t.Helper()
	addr, err := tag.NewSerializer(tags.Default, v).Serialize(ctx, in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	out, err := tag.NewDeserializer(tags.Default, v).Deserialize(ctx, in.Type, addr)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if err := tag.ResolveAll(out); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	return out
}

func permutation(name uint32, gain float32) *tag.Struct {
	return tag.NewStruct("permutation").
		Set("name", stringid.ID(name)).
		Set("skip_fraction", float32(0)).
		Set("gain", gain).
		Set("sample_size", uint32(0x4000))
}

func haloOnlinePitchRange() *tag.Struct {
	params := tag.NewStruct("pitch_range_parameter").
		Set("natural_pitch", int16(-300)).
		Set("bend_bounds", []any{int16(-10), int16(10)}).
		Set("max_gain_pitch_bounds", []any{int16(0), int16(1200)}).
		Set("bend_scale", float32(0.5))
	return tag.NewStruct("pitch_range").
		Set("import_name", stringid.ID(0x4001)).
		Set("pitch_range_parameters", params).
		Set("unknown1", uint32(1)).
		Set("unknown2", uint32(2)).
		Set("unknown3", uint32(3)).
		Set("unknown4", uint32(4)).
		Set("unknown5", int16(5)).
		Set("unknown6", int16(6)).
		Set("permutation_count", int16(3)).
		Set("unknown7", int8(7)).
		Set("unknown8", int8(-8)).
		Set("permutations", []*tag.Struct{
			permutation(0x10, 1),
			permutation(0x11, 0.75),
			permutation(0x12, 0.25),
		})
}

func TestRoundTrip(t *testing.T) {
	t.Run("PitchRangeHaloOnline", func(t *testing.T) {
		in := haloOnlinePitchRange()
		out := roundTrip(t, cache.HaloOnline106708, resource.NewStream(nil), in)
		if diff := cmp.Diff(in, out, instanceOpts); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("PitchRangeHalo3", func(t *testing.T) {
		in := tag.NewStruct("pitch_range").
			Set("import_name", int16(12)).
			Set("pitch_range_parameters", int16(-1)).
			Set("encoded_permutation_data_index", int16(3)).
			Set("encoded_runtime_permutation_flag_index", int16(4)).
			Set("encoded_permutation_count", int16(2)).
			Set("first_permutation_index", uint16(40))
		out := roundTrip(t, cache.Halo3Retail, resource.NewStream(nil), in)
		if diff := cmp.Diff(in, out, instanceOpts); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("PromotionEmptyBlocks", func(t *testing.T) {
		in := tag.NewStruct("promotion").
			Set("rules", []*tag.Struct(nil)).
			Set("runtime_timers", []*tag.Struct{tag.NewStruct("runtime_timer").Set("unknown", int32(9))}).
			Set("unknown1", int32(-1)).
			Set("unknown2", uint32(2)).
			Set("unknown3", uint32(3))
		out := roundTrip(t, cache.Halo3ODST, resource.NewStream(nil), in)
		if diff := cmp.Diff(in, out, instanceOpts); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ShaderBlockPointer", func(t *testing.T) {
		xbox := tag.NewStruct("xbox_shader").
			Set("microcode", []byte{0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3}).
			Set("constant_count", uint32(4))
		in := tag.NewStruct("shader_block").
			Set("pc_shader", []byte("dxbc")).
			Set("xbox_parameters", []*tag.Struct{
				tag.NewStruct("shader_parameter").
					Set("parameter_name", stringid.ID(7)).
					Set("register_index", uint16(2)).
					Set("register_count", uint8(1)).
					Set("register_type", uint8(2)),
			}).
			Set("xbox_shader_reference", tag.NewStruct("shader_reference").
				Set("xbox_shader", &tag.Pointer{Type: "xbox_shader", Target: xbox}).
				Set("runtime_address", uint32(0)).
				Set("definition_address", uint32(0x1234)))
		out := roundTrip(t, cache.Halo3Retail, resource.NewStream(nil), in)
		if diff := cmp.Diff(in, out, instanceOpts); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ResourceHaloOnline", func(t *testing.T) {
		defs := resource.NewStream(nil)
		ctx := resource.NewMux().
			Handle(resource.Definition, defs).
			Handle(resource.Data, defs).
			Handle(resource.Resource, resource.NewPagedCache(resource.Audio))
		in := tag.NewStruct("tag_resource_reference").
			Set("resource", &tag.Resource{Data: []byte("pcm samples")}).
			Set("unused", int32(0))
		out := roundTrip(t, cache.HaloOnline106708, ctx, in)
		if diff := cmp.Diff(in, out, instanceOpts); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
		r := out.Fields["resource"].(*tag.Resource)
		if r.Address.Type() != resource.Resource || r.Address.Category() != resource.Audio {
			t.Errorf("resource address %s", r.Address)
		}
	})

	t.Run("ResourceHalo3IsDatum", func(t *testing.T) {
		in := tag.NewStruct("tag_resource_reference").
			Set("resource", uint32(0xE1230004)).
			Set("unused", int32(0))
		out := roundTrip(t, cache.Halo3Retail, resource.NewStream(nil), in)
		if diff := cmp.Diff(in, out, instanceOpts); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("CacheFileHeader", func(t *testing.T) {
		in := tag.NewStruct("cache_file_header").
			Set("header_signature", tag.NewGroup("head")).
			Set("file_version", int32(18)).
			Set("file_length", uint32(0x100000)).
			Set("engine_version", int8(2)).
			Set("tag_memory_header", tag.NewStruct("tag_memory_header").
				Set("memory_buffer_offset", uint32(0x2000)).
				Set("memory_buffer_size", uint32(0x800))).
			Set("cache_type", int16(1)).
			Set("shared_cache_type", int16(2)).
			Set("unknown_flags", uint8(0x80)).
			Set("string_id_header", tag.NewStruct("string_id_header").
				Set("count", int32(3)).
				Set("buffer_offset", uint32(0x40)).
				Set("buffer_size", int32(0x20)).
				Set("indices_offset", uint32(0x60))).
			Set("timestamps", []any{uint64(1), uint64(2)}).
			Set("build", "11.1.498295 Live").
			Set("footer_signature", tag.NewGroup("foot"))

		data, err := tag.NewSerializer(tags.Default, cache.Halo3Retail).Marshal(in)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if len(data) != 0x64 {
			t.Fatalf("marshalled %d bytes, want 0x64", len(data))
		}
		if got := binary.BigEndian.Uint32(data[0x10:]); got != 0x2000 {
			t.Errorf("tag memory header at 0x10 holds 0x%X", got)
		}
		if !bytes.Equal(data[0xD:0x10], []byte{0, 0, 0}) {
			t.Errorf("alignment bytes not zero: % x", data[0xD:0x10])
		}

		out, err := tag.NewDeserializer(tags.Default, cache.Halo3Retail).Unmarshal(data, "cache_file_header")
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if diff := cmp.Diff(in, out, instanceOpts); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
		if got := out.Fields["header_signature"].(tag.Group).String(); got != "head" {
			t.Errorf("signature %q", got)
		}
	})
}

func TestMissingFieldsAreZero(t *testing.T) {
	in := tag.NewStruct("promotion_rule").
		Set("suppression_time", float32(2)).
		Set("not_a_field", "ignored")
	data, err := tag.NewSerializer(tags.Default, cache.HaloOnline106708).Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := make([]byte, 0x10)
	binary.LittleEndian.PutUint32(want[4:], 0x40000000)
	if !bytes.Equal(data, want) {
		t.Errorf("got % x\nwant % x", data, want)
	}
}

func TestByteOrder(t *testing.T) {
	in := tag.NewStruct("runtime_timer").Set("unknown", int32(0x01020304))
	tests := []struct {
		version cache.Version
		want    []byte
	}{
		{cache.Halo3Retail, []byte{1, 2, 3, 4}},
		{cache.HaloOnline106708, []byte{4, 3, 2, 1}},
		{cache.Halo2Xbox, []byte{4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			data, err := tag.NewSerializer(tags.Default, tt.version).Marshal(in)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if !bytes.Equal(data, tt.want) {
				t.Errorf("got % x, want % x", data, tt.want)
			}
		})
	}

	t.Run("Override", func(t *testing.T) {
		data, err := tag.NewSerializer(tags.Default, cache.Halo3Retail, tag.WithByteOrder(binary.LittleEndian)).Marshal(in)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(data, []byte{4, 3, 2, 1}) {
			t.Errorf("got % x", data)
		}
	})
}

func TestPaddingIsZeroed(t *testing.T) {
	data := make([]byte, 0x10)
	binary.LittleEndian.PutUint16(data[0:], 100)
	data[2], data[3] = 0xAA, 0xBB
	d := tag.NewDeserializer(tags.Default, cache.HaloOnline106708)
	s, err := d.Unmarshal(data, "pitch_range_parameter")
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := s.Get(""); ok {
		t.Errorf("padding stored as a field")
	}
	out, err := tag.NewSerializer(tags.Default, cache.HaloOnline106708).Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if out[2] != 0 || out[3] != 0 {
		t.Errorf("padding written as % x", out[2:4])
	}
}

func TestFieldErrors(t *testing.T) {
	t.Run("NestedPath", func(t *testing.T) {
		in := haloOnlinePitchRange()
		perms := in.Fields["permutations"].([]*tag.Struct)
		perms[2].Set("gain", 0.25)

		_, err := tag.NewSerializer(tags.Default, cache.HaloOnline106708).Marshal(in)
		var fe *tag.FieldError
		if !errors.As(err, &fe) {
			t.Fatalf("got %v, want FieldError", err)
		}
		if fe.Path != "pitch_range.permutations[2].gain" {
			t.Errorf("path %q", fe.Path)
		}
		if !errors.Is(err, tag.ErrTypeMismatch) {
			t.Errorf("got %v, want ErrTypeMismatch", err)
		}
	})

	t.Run("StringTooLong", func(t *testing.T) {
		in := tag.NewStruct("cache_file_header").Set("build", strings.Repeat("x", 33))
		_, err := tag.NewSerializer(tags.Default, cache.Halo3Retail).Marshal(in)
		if !errors.Is(err, tag.ErrValueRange) {
			t.Errorf("got %v, want ErrValueRange", err)
		}
	})

	t.Run("ArrayTooLong", func(t *testing.T) {
		in := tag.NewStruct("pitch_range_parameter").Set("bend_bounds", []any{int16(1), int16(2), int16(3)})
		_, err := tag.NewSerializer(tags.Default, cache.HaloOnline106708).Marshal(in)
		if !errors.Is(err, tag.ErrValueRange) {
			t.Errorf("got %v, want ErrValueRange", err)
		}
	})

	t.Run("WrongStructType", func(t *testing.T) {
		in := tag.NewStruct("shader_block").Set("xbox_shader_reference", tag.NewStruct("permutation"))
		_, err := tag.NewSerializer(tags.Default, cache.Halo3Retail).Marshal(in)
		if !errors.Is(err, tag.ErrTypeMismatch) {
			t.Errorf("got %v, want ErrTypeMismatch", err)
		}
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		_, err := tag.NewDeserializer(tags.Default, cache.Halo3Beta).Unmarshal(make([]byte, 0x40), "promotion")
		if !errors.Is(err, tagdef.ErrUnsupportedVersion) {
			t.Errorf("got %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("ResourceInStream", func(t *testing.T) {
		in := tag.NewStruct("tag_resource_reference").Set("resource", &tag.Resource{Data: []byte{1}})
		_, err := tag.NewSerializer(tags.Default, cache.HaloOnline106708).Marshal(in)
		if !errors.Is(err, resource.ErrUnresolvable) {
			t.Errorf("got %v, want ErrUnresolvable", err)
		}
	})
}

func TestTruncated(t *testing.T) {
	d := tag.NewDeserializer(tags.Default, cache.HaloOnline106708)

	t.Run("Reader", func(t *testing.T) {
		_, err := d.DeserializeFrom(resource.NewStream(nil), bytes.NewReader(make([]byte, 0x20)), "pitch_range")
		if !errors.Is(err, tag.ErrTruncated) {
			t.Errorf("got %v, want ErrTruncated", err)
		}
	})

	t.Run("Stream", func(t *testing.T) {
		_, err := d.Unmarshal(make([]byte, 0x20), "pitch_range")
		if !errors.Is(err, resource.ErrOutOfBounds) {
			t.Errorf("got %v, want ErrOutOfBounds", err)
		}
	})

	t.Run("BlockPastEnd", func(t *testing.T) {
		data := make([]byte, 0x38)
		binary.LittleEndian.PutUint32(data[0x2C:], 4)
		binary.LittleEndian.PutUint32(data[0x30:], uint32(resource.NewAddress(resource.Definition, 0x30)))
		_, err := d.Unmarshal(data, "pitch_range")
		var fe *tag.FieldError
		if !errors.As(err, &fe) || fe.Path != "pitch_range.permutations" {
			t.Fatalf("got %v, want error at pitch_range.permutations", err)
		}
		if !errors.Is(err, resource.ErrOutOfBounds) {
			t.Errorf("got %v, want ErrOutOfBounds", err)
		}
	})
}

func TestInvalidCount(t *testing.T) {
	data := make([]byte, 0x24)
	binary.BigEndian.PutUint32(data[0:], 0xFFFFFFFF)
	_, err := tag.NewDeserializer(tags.Default, cache.Halo3Retail).Unmarshal(data, "promotion")
	if !errors.Is(err, tag.ErrInvalidCount) {
		t.Errorf("got %v, want ErrInvalidCount", err)
	}
}

func TestLazyPointer(t *testing.T) {
	xbox := tag.NewStruct("xbox_shader").
		Set("microcode", []byte{1, 2, 3, 4}).
		Set("constant_count", uint32(1))
	in := tag.NewStruct("shader_reference").
		Set("xbox_shader", &tag.Pointer{Type: "xbox_shader", Target: xbox})

	data, err := tag.NewSerializer(tags.Default, cache.Halo3ODST).Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := tag.NewDeserializer(tags.Default, cache.Halo3ODST).Unmarshal(data, "shader_reference")
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	p := out.Fields["xbox_shader"].(*tag.Pointer)
	if p.Target != nil {
		t.Fatalf("pointer resolved eagerly")
	}
	if p.Address.Type() != resource.Definition || p.Address.Offset() != 0xC {
		t.Errorf("pointer address %s, want definition 0xC", p.Address)
	}
	target, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff(xbox, target, instanceOpts); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}

	t.Run("NullPointer", func(t *testing.T) {
		out, err := tag.NewDeserializer(tags.Default, cache.Halo3ODST).Unmarshal(make([]byte, 0xC), "shader_reference")
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if p := out.Fields["xbox_shader"].(*tag.Pointer); p != nil {
			t.Errorf("null pointer decoded as %+v", p)
		}
	})

	t.Run("UnresolvedKeepsAddress", func(t *testing.T) {
		addr := resource.NewAddress(resource.Memory, 0x1000)
		in := tag.NewStruct("shader_reference").Set("xbox_shader", &tag.Pointer{Address: addr, Type: "xbox_shader"})
		data, err := tag.NewSerializer(tags.Default, cache.Halo3ODST).Marshal(in)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if got := resource.Address(binary.BigEndian.Uint32(data)); got != addr {
			t.Errorf("address %s, want %s", got, addr)
		}
		if _, err := in.Fields["xbox_shader"].(*tag.Pointer).Resolve(); !errors.Is(err, tag.ErrUnresolved) {
			t.Errorf("got %v, want ErrUnresolved", err)
		}
	})
}

// nodeRegistry holds a structure whose pointer refers to its own type.
func nodeRegistry(t *testing.T) *tagdef.Registry {
	t.Helper()
	reg := tagdef.NewRegistry()
	err := reg.Register(&tagdef.Structure{
		Name:  "node",
		Sizes: []tagdef.Size{{Size: 8}},
		Fields: []tagdef.Field{
			{Name: "value", Kind: tagdef.UInt32},
			{Name: "next", Kind: tagdef.Pointer, Type: "node"},
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

// within fails the test if fn does not return in time.
func within(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("did not finish within %v", d)
	}
}

func TestCyclicPointers(t *testing.T) {
	reg := nodeRegistry(t)

	t.Run("SelfReference", func(t *testing.T) {
		data := make([]byte, 8)
		binary.BigEndian.PutUint32(data[0:], 42)
		binary.BigEndian.PutUint32(data[4:], uint32(resource.NewAddress(resource.Definition, 0)))

		root, err := tag.NewDeserializer(reg, cache.Halo3Retail).Unmarshal(data, "node")
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		var out []byte
		within(t, 3*time.Second, func() {
			if err = tag.ResolveAll(root); err != nil {
				return
			}
			out, err = tag.NewSerializer(reg, cache.Halo3Retail).Marshal(root)
		})
		if err != nil {
			t.Fatalf("resolve and marshal: %v", err)
		}
		if next := root.Fields["next"].(*tag.Pointer).Target; next != root {
			t.Errorf("self pointer resolved to a copy")
		}
		if !bytes.Equal(out, data) {
			t.Errorf("got % x\nwant % x", out, data)
		}
	})

	t.Run("TwoNodeCycle", func(t *testing.T) {
		a := tag.NewStruct("node").Set("value", uint32(1))
		b := tag.NewStruct("node").Set("value", uint32(2))
		a.Set("next", &tag.Pointer{Type: "node", Target: b})
		b.Set("next", &tag.Pointer{Type: "node", Target: a})

		var data []byte
		var err error
		within(t, 3*time.Second, func() {
			data, err = tag.NewSerializer(reg, cache.Halo3Retail).Marshal(a)
		})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if len(data) != 16 {
			t.Fatalf("wrote %d bytes, want each node once", len(data))
		}

		out, err := tag.NewDeserializer(reg, cache.Halo3Retail).Unmarshal(data, "node")
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if err := tag.ResolveAll(out); err != nil {
			t.Fatalf("ResolveAll: %v", err)
		}
		second := out.Fields["next"].(*tag.Pointer).Target
		if got := second.Fields["value"]; got != uint32(2) {
			t.Errorf("second value %v", got)
		}
		if back := second.Fields["next"].(*tag.Pointer).Target; back != out {
			t.Errorf("cycle not closed on the root")
		}
	})
}

func TestGroup(t *testing.T) {
	if got := tag.NewGroup("snd!").String(); got != "snd!" {
		t.Errorf("got %q", got)
	}
	if got := tag.NewGroup("bi").String(); got != "bi  " {
		t.Errorf("short name padded to %q", got)
	}
	if tag.NoGroup.String() != "none" {
		t.Errorf("NoGroup is %q", tag.NoGroup.String())
	}
}
