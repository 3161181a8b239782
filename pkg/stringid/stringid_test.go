package stringid

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/EchoTools/tagtool/pkg/cache"
)

func exampleResolver() *Resolver {
	return &Resolver{
		LengthBits:  0,
		SetBits:     3,
		IndexBits:   19,
		MinSetIndex: 0,
		MaxSetIndex: 0x3FFFF,
		SetOffsets:  []int{0, 2000, 5000},
	}
}

func TestFields(t *testing.T) {
	r := &Resolver{LengthBits: 8, SetBits: 8, IndexBits: 16}
	id := r.NewWithLength(0x12, 0x34, 0x5678)

	if uint32(id) != 0x12345678 {
		t.Fatalf("packed value: got %s, want 0x12345678", id)
	}
	if got := r.Length(id); got != 0x12 {
		t.Errorf("Length: got %#x, want 0x12", got)
	}
	if got := r.Set(id); got != 0x34 {
		t.Errorf("Set: got %#x, want 0x34", got)
	}
	if got := r.Index(id); got != 0x5678 {
		t.Errorf("Index: got %#x, want 0x5678", got)
	}
}

func TestToFlat(t *testing.T) {
	r := exampleResolver()

	t.Run("SetOne", func(t *testing.T) {
		got, err := r.ToFlat(r.New(1, 10))
		if err != nil {
			t.Fatalf("ToFlat: %v", err)
		}
		if got != 2010 {
			t.Errorf("ToFlat(set=1,index=10): got %d, want 2010", got)
		}
	})

	t.Run("LiteralOutsideSetRange", func(t *testing.T) {
		r := &Resolver{SetBits: 8, IndexBits: 16, MinSetIndex: 1, MaxSetIndex: 0x100, SetOffsets: []int{0x500}}
		got, err := r.ToFlat(r.New(0, 0x2000))
		if err != nil {
			t.Fatalf("ToFlat: %v", err)
		}
		if got != 0x2000 {
			t.Errorf("literal index: got %#x, want 0x2000", got)
		}
	})

	t.Run("SetZeroSubtractsMin", func(t *testing.T) {
		r := &Resolver{SetBits: 8, IndexBits: 16, MinSetIndex: 1, MaxSetIndex: 0x100, SetOffsets: []int{0x500}}
		got, err := r.ToFlat(r.New(0, 3))
		if err != nil {
			t.Fatalf("ToFlat: %v", err)
		}
		if got != 0x502 {
			t.Errorf("set 0 index 3: got %#x, want 0x502", got)
		}
	})

	t.Run("SetOutOfRange", func(t *testing.T) {
		_, err := r.ToFlat(r.New(5, 1))
		if !errors.Is(err, ErrSetOutOfRange) {
			t.Errorf("expected ErrSetOutOfRange, got %v", err)
		}
	})
}

func TestFromFlat(t *testing.T) {
	r := exampleResolver()

	tests := []struct {
		flat       int
		set, index int
	}{
		{5005, 2, 5},
		{2010, 1, 10},
		{1999, 0, 1999},
		{0, 0, 0},
	}
	for _, tt := range tests {
		id := r.FromFlat(tt.flat)
		if r.Set(id) != tt.set || r.Index(id) != tt.index {
			t.Errorf("FromFlat(%d): got set=%d index=%d, want set=%d index=%d",
				tt.flat, r.Set(id), r.Index(id), tt.set, tt.index)
		}
	}

	if got := r.FromFlat(-1); got != Invalid {
		t.Errorf("FromFlat(-1): got %s, want Invalid", got)
	}
}

func TestFromFlatTieKeepsFirst(t *testing.T) {
	r := &Resolver{SetBits: 3, IndexBits: 19, MaxSetIndex: 0x3FFFF, SetOffsets: []int{0, 100, 100}}
	id := r.FromFlat(150)
	if r.Set(id) != 1 {
		t.Errorf("equal offsets: got set %d, want first matching set 1", r.Set(id))
	}
}

func TestRoundTrip(t *testing.T) {
	resolvers := map[string]*Resolver{
		"example": exampleResolver(),
		"shifted": {LengthBits: 8, SetBits: 8, IndexBits: 16, MinSetIndex: 1, MaxSetIndex: 0x1000, SetOffsets: []int{0x500, 0x1, 0x200}},
	}
	for name, r := range resolvers {
		t.Run(name, func(t *testing.T) {
			for flat := 0; flat < 0x1400; flat += 7 {
				id := r.FromFlat(flat)
				back, err := r.ToFlat(id)
				if err != nil {
					t.Fatalf("ToFlat(FromFlat(%d)): %v", flat, err)
				}
				if back != flat {
					t.Fatalf("flat %d -> %s -> %d", flat, id, back)
				}
				if again := r.FromFlat(back); again != id {
					t.Fatalf("id %s -> %d -> %s", id, back, again)
				}
			}
		})
	}
}

func TestSortIDs(t *testing.T) {
	r := exampleResolver()
	ids := []ID{r.New(2, 1), r.New(0, 9), r.New(1, 4), r.New(0, 3), r.New(1, 2)}
	r.SortIDs(ids)

	want := []ID{r.New(0, 3), r.New(0, 9), r.New(1, 2), r.New(1, 4), r.New(2, 1)}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("SortIDs mismatch (-want +got):\n%s", diff)
	}

	type mode struct {
		name ID
		tag  string
	}
	modes := []mode{{r.New(1, 0), "b"}, {r.New(0, 5), "a"}}
	SortFunc(r, modes, func(m mode) ID { return m.name })
	if modes[0].tag != "a" || modes[1].tag != "b" {
		t.Errorf("SortFunc: got %v", modes)
	}
}

func TestTable(t *testing.T) {
	r := exampleResolver()
	table, err := ReadTable(r, strings.NewReader("\ndefault\nprimary\nsecondary\n"))
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	id, ok := table.Lookup("primary")
	if !ok {
		t.Fatal("Lookup(primary) failed")
	}
	s, err := table.String(id)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if s != "primary" {
		t.Errorf("String: got %q, want primary", s)
	}

	added := table.Add("tertiary")
	if again := table.Add("tertiary"); again != added {
		t.Errorf("Add not idempotent: %s vs %s", added, again)
	}
	if table.Len() != 5 {
		t.Errorf("Len: got %d, want 5", table.Len())
	}

	if _, err := table.String(r.FromFlat(100)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadProfiles(t *testing.T) {
	profiles, err := LoadProfilesFile("testdata/resolvers.yaml")
	if err != nil {
		t.Fatalf("LoadProfilesFile: %v", err)
	}

	r, err := profiles.ForVersion(cache.Halo3ODST)
	if err != nil {
		t.Fatalf("ForVersion: %v", err)
	}
	if diff := cmp.Diff(exampleResolver(), r); diff != "" {
		t.Errorf("resolver mismatch (-want +got):\n%s", diff)
	}

	if _, err := profiles.ForVersion(cache.Halo2Xbox); err == nil {
		t.Error("expected error for version without profile")
	}

	t.Run("DuplicateVersion", func(t *testing.T) {
		doc := `
resolvers:
  - {name: a, versions: [Halo3Retail], set_bits: 3, index_bits: 19, max_set_index: 10, set_offsets: [0]}
  - {name: b, versions: [Halo3Retail], set_bits: 3, index_bits: 19, max_set_index: 10, set_offsets: [0]}
`
		if _, err := LoadProfiles(strings.NewReader(doc)); err == nil {
			t.Error("expected error for version claimed twice")
		}
	})

	t.Run("TooWide", func(t *testing.T) {
		doc := `
resolvers:
  - {name: wide, versions: [HaloReach], length_bits: 8, set_bits: 8, index_bits: 20}
`
		if _, err := LoadProfiles(strings.NewReader(doc)); err == nil {
			t.Error("expected error for 36-bit layout")
		}
	})
}
