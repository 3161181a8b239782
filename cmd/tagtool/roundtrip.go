package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/tag"
	"github.com/EchoTools/tagtool/pkg/tags"
)

const maxTagSize = 64 << 20

// instanceOpts compares instances by content; addresses change on rewrite.
var instanceOpts = cmp.Options{
	cmpopts.IgnoreUnexported(tag.Pointer{}, tag.Resource{}),
	cmpopts.IgnoreFields(tag.Pointer{}, "Address"),
	cmpopts.IgnoreFields(tag.Resource{}, "Address"),
	cmpopts.EquateEmpty(),
}

type roundtripCmd struct {
	version cache.Version
	typ     string
	output  string
	workers int
}

func (*roundtripCmd) Name() string { return "roundtrip" }
func (*roundtripCmd) Synopsis() string {
	return "Deserialize, reserialize and compare tag files in bulk."
}
func (*roundtripCmd) Usage() string {
	return "tagtool roundtrip -version <VERSION> [-type <TYPE>] [-output <DIR>] <DIR|FILE>...\n"
}

func (cmd *roundtripCmd) SetFlags(f *flag.FlagSet) {
	f.TextVar(&cmd.version, "version", cache.Unknown, "Engine version")
	f.StringVar(&cmd.typ, "type", "", "Structure type of every file (default: parent directory name)")
	f.StringVar(&cmd.output, "output", "", "Write reserialized files here")
	f.IntVar(&cmd.workers, "workers", runtime.NumCPU(), "Number of concurrent workers")
}

func (cmd *roundtripCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if requireVersion(cmd.version) != nil || f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return status(cmd.execute(ctx, f.Args()))
}

func (cmd *roundtripCmd) execute(ctx context.Context, args []string) error {
	log := loggerFrom(ctx)
	files, err := scanFiles(args, cmd.typ, maxTagSize)
	if err != nil {
		return err
	}
	if cmd.output != "" {
		if err := os.MkdirAll(cmd.output, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	fmt.Printf("Round-tripping %d files with %d workers\n", len(files), max(cmd.workers, 1))

	var failed atomic.Int64
	jobs := make(chan scannedFile)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, file := range files {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < max(cmd.workers, 1); i++ {
		g.Go(func() error {
			// Serializers and deserializers are per worker.
			de := tag.NewDeserializer(tags.Default, cmd.version, tag.WithLogger(log))
			se := tag.NewSerializer(tags.Default, cmd.version, tag.WithLogger(log))
			for file := range jobs {
				if err := cmd.roundtrip(de, se, file); err != nil {
					failed.Add(1)
					fmt.Fprintf(os.Stderr, "%s: %v\n", file.Path, err)
					continue
				}
				log.Debug("round trip ok", "path", file.Path, "type", file.Type)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(files))
	}
	fmt.Printf("All %d files round-tripped\n", len(files))
	return nil
}

func (cmd *roundtripCmd) roundtrip(de *tag.Deserializer, se *tag.Serializer, file scannedFile) error {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return err
	}
	in, err := de.Unmarshal(data, file.Type)
	if err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}
	out, err := se.Marshal(in)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	back, err := de.Unmarshal(out, file.Type)
	if err != nil {
		return fmt.Errorf("deserialize rewritten: %w", err)
	}
	for _, s := range []*tag.Struct{in, back} {
		if err := tag.ResolveAll(s); err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
	}
	if diff := cmp.Diff(in, back, instanceOpts); diff != "" {
		return fmt.Errorf("instance changed (-read +rewritten):\n%s", diff)
	}
	if cmd.output == "" {
		return nil
	}
	name := filepath.Join(cmd.output, file.Type, filepath.Base(file.Path))
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	return os.WriteFile(name, out, 0644)
}
