package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/EchoTools/tagtool/pkg/resource"
)

type resourcesCmd struct {
	dir      string
	category string
	extract  string
	codec    string
	add      bool
}

func (*resourcesCmd) Name() string     { return "resources" }
func (*resourcesCmd) Synopsis() string { return "List, extract or add entries of a resource cache." }
func (*resourcesCmd) Usage() string {
	return `tagtool resources -dir <DIR> -category <NAME> [-extract <OUT>]
tagtool resources -dir <DIR> -category <NAME> -add <FILE>...
`
}

func (cmd *resourcesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.dir, "dir", "", "Directory holding the cache files")
	f.StringVar(&cmd.category, "category", "resources", "Resource category")
	f.StringVar(&cmd.extract, "extract", "", "Extract every entry into this directory")
	f.StringVar(&cmd.codec, "codec", "zstd", "Page codec: zstd (cgo) or stream (pure Go)")
	f.BoolVar(&cmd.add, "add", false, "Add the named files as new entries and save the cache")
}

func (cmd *resourcesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if cmd.dir == "" || (cmd.add && f.NArg() == 0) {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return status(cmd.execute(ctx, f.Args()))
}

func (cmd *resourcesCmd) execute(ctx context.Context, args []string) error {
	cat, err := resource.ParseCategory(cmd.category)
	if err != nil {
		return err
	}
	opts := []resource.CacheOption{resource.WithLogger(loggerFrom(ctx))}
	switch cmd.codec {
	case "zstd":
	case "stream":
		codec, err := resource.NewStreamCodec()
		if err != nil {
			return err
		}
		defer codec.Close()
		opts = append(opts, resource.WithCodec(codec))
	default:
		return fmt.Errorf("unknown codec %q", cmd.codec)
	}

	caches := resource.NewCaches(cmd.dir, opts...)
	defer caches.Close()

	if cmd.add {
		return cmd.addFiles(caches, cat, args)
	}

	c, err := caches.OpenRead(cat)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d entries\n", caches.Path(cat), c.Len())
	if cmd.extract == "" {
		for i := 0; i < c.Len(); i++ {
			e, _ := c.Entry(i)
			fmt.Printf("  %s  page %d  offset 0x%X  size 0x%X\n", resource.NewResourceAddress(cat, i), e.Page, e.Offset, e.Size)
		}
		return nil
	}

	out := filepath.Join(cmd.extract, cat.String())
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	fmt.Println("Extracting entries...")
	for i := 0; i < c.Len(); i++ {
		data, err := c.Load(i)
		if err != nil {
			return fmt.Errorf("load entry %d: %w", i, err)
		}
		if err := os.WriteFile(filepath.Join(out, fmt.Sprintf("%06x.bin", i)), data, 0644); err != nil {
			return err
		}
	}
	fmt.Printf("Extraction complete. %d pages read, files written to %s\n", c.LoadedPages(), out)
	return nil
}

func (cmd *resourcesCmd) addFiles(caches *resource.Caches, cat resource.Category, paths []string) error {
	if err := os.MkdirAll(cmd.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	c, err := caches.OpenWrite(cat)
	if err != nil {
		return err
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		index := c.Add(data)
		fmt.Printf("%s -> %s\n", path, resource.NewResourceAddress(cat, index))
	}
	if err := caches.Save(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
