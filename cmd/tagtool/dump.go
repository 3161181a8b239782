package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/resource"
	"github.com/EchoTools/tagtool/pkg/tag"
	"github.com/EchoTools/tagtool/pkg/tags"
)

type dumpCmd struct {
	version   cache.Version
	typ       string
	base      uint
	resources string
	resolve   bool
}

func (*dumpCmd) Name() string     { return "dump" }
func (*dumpCmd) Synopsis() string { return "Print a tag file as JSON." }
func (*dumpCmd) Usage() string {
	return "tagtool dump -version <VERSION> -type <TYPE> [-base <ADDR>] [-resources <DIR>] [-resolve] <FILE>\n"
}

func (cmd *dumpCmd) SetFlags(f *flag.FlagSet) {
	f.TextVar(&cmd.version, "version", cache.Unknown, "Engine version")
	f.StringVar(&cmd.typ, "type", "", "Structure type of the file")
	f.UintVar(&cmd.base, "base", 0, "Load address of the file, for memory pointers")
	f.StringVar(&cmd.resources, "resources", "", "Directory of resource caches")
	f.BoolVar(&cmd.resolve, "resolve", false, "Resolve pointers and load resources")
}

func (cmd *dumpCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if requireVersion(cmd.version) != nil || cmd.typ == "" || f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return status(cmd.execute(ctx, f.Arg(0)))
}

func (cmd *dumpCmd) execute(ctx context.Context, path string) error {
	log := loggerFrom(ctx)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var opts []resource.StreamOption
	if cmd.base != 0 {
		opts = append(opts, resource.WithBaseAddress(uint32(cmd.base)))
	}
	stream := resource.NewStream(data, opts...)
	mux := resource.NewMux().
		Handle(resource.Definition, stream).
		Handle(resource.Data, stream).
		Handle(resource.Memory, stream)
	if cmd.resources != "" {
		caches := resource.NewCaches(cmd.resources, resource.WithLogger(log))
		defer caches.Close()
		mux.Handle(resource.Resource, caches)
	}

	de := tag.NewDeserializer(tags.Default, cmd.version, tag.WithLogger(log))
	s, err := de.Deserialize(mux, cmd.typ, resource.NewAddress(resource.Definition, 0))
	if err != nil {
		return fmt.Errorf("deserialize %s: %w", path, err)
	}
	if cmd.resolve {
		if err := tag.ResolveAll(s); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
