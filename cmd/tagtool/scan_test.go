package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pitch_range", "a.bin"), 0x44)
	writeFile(t, filepath.Join(dir, "promotion", "b.bin"), 0x1C)
	writeFile(t, filepath.Join(dir, ".cache", "c.bin"), 4)
	writeFile(t, filepath.Join(dir, "promotion", ".hidden"), 4)
	single := filepath.Join(t.TempDir(), "loose.bin")
	writeFile(t, single, 8)

	t.Run("TypeFromDirectory", func(t *testing.T) {
		got, err := scanFiles([]string{dir}, "", 1<<20)
		if err != nil {
			t.Fatalf("scanFiles: %v", err)
		}
		want := []scannedFile{
			{Type: "pitch_range", Path: filepath.Join(dir, "pitch_range", "a.bin"), Size: 0x44},
			{Type: "promotion", Path: filepath.Join(dir, "promotion", "b.bin"), Size: 0x1C},
		}
		less := func(a, b scannedFile) bool { return a.Path < b.Path }
		if diff := cmp.Diff(want, got, cmpopts.SortSlices(less)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("FixedType", func(t *testing.T) {
		got, err := scanFiles([]string{single}, "promotion", 1<<20)
		if err != nil {
			t.Fatalf("scanFiles: %v", err)
		}
		if len(got) != 1 || got[0].Type != "promotion" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("TooLarge", func(t *testing.T) {
		if _, err := scanFiles([]string{dir}, "", 0x20); err == nil {
			t.Errorf("scanFiles accepted a file over the limit")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := scanFiles([]string{filepath.Join(dir, "absent")}, "", 1<<20); err == nil {
			t.Errorf("scanFiles accepted a missing path")
		}
	})
}
