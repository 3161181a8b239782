package cache

import (
	"encoding/binary"
	"testing"
)

func TestVersion(t *testing.T) {
	t.Run("Ordering", func(t *testing.T) {
		versions := Versions()
		if len(versions) != int(versionCount)-1 {
			t.Fatalf("Versions: got %d entries, want %d", len(versions), versionCount-1)
		}
		for i := 1; i < len(versions); i++ {
			if versions[i-1] >= versions[i] {
				t.Errorf("versions not ascending at %d: %s >= %s", i, versions[i-1], versions[i])
			}
		}
		if First() != Halo2Xbox || Last() != HaloReach {
			t.Errorf("First/Last: got %s/%s", First(), Last())
		}
	})

	t.Run("Parse", func(t *testing.T) {
		for _, v := range Versions() {
			parsed, err := ParseVersion(v.String())
			if err != nil {
				t.Fatalf("parse %s: %v", v, err)
			}
			if parsed != v {
				t.Errorf("parse %s: got %s", v, parsed)
			}
		}
		if _, err := ParseVersion("halo3retail"); err != nil {
			t.Errorf("case-insensitive parse failed: %v", err)
		}
		if _, err := ParseVersion("Halo5"); err == nil {
			t.Error("expected error for unknown version")
		}
	})

	t.Run("ByteOrder", func(t *testing.T) {
		tests := []struct {
			version Version
			order   binary.ByteOrder
			gen     Generation
		}{
			{Halo2Vista, binary.LittleEndian, Gen2},
			{Halo3Retail, binary.BigEndian, Gen3},
			{HaloReach, binary.BigEndian, Gen3},
			{HaloOnline106708, binary.LittleEndian, GenHaloOnline},
		}
		for _, tt := range tests {
			if got := tt.version.ByteOrder(); got != tt.order {
				t.Errorf("%s: byte order %v, want %v", tt.version, got, tt.order)
			}
			if got := tt.version.Generation(); got != tt.gen {
				t.Errorf("%s: generation %s, want %s", tt.version, got, tt.gen)
			}
		}
	})
}
