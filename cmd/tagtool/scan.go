package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// scannedFile is a tag file found under an input directory.
type scannedFile struct {
	// Type is the structure type, taken from the parent directory name unless
	// fixed on the command line.
	Type string
	Path string
	Size int64
}

// scanFiles expands the arguments into tag files. Directories are walked; the
// expected layout is <dir>/<type>/<name>. Hidden files are skipped.
func scanFiles(args []string, typ string, maxSize int64) ([]scannedFile, error) {
	var files []scannedFile
	add := func(path string, size int64) error {
		if size > maxSize {
			return fmt.Errorf("file too large: %s (size %d exceeds %d bytes)", path, size, maxSize)
		}
		t := typ
		if t == "" {
			t = filepath.Base(filepath.Dir(path))
		}
		files = append(files, scannedFile{Type: t, Path: path, Size: size})
		return nil
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(arg, info.Size()); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if strings.HasPrefix(d.Name(), ".") && path != arg {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return add(path, info.Size())
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", arg, err)
		}
	}
	return files, nil
}
