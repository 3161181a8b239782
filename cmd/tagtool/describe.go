package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/tagdef"
	"github.com/EchoTools/tagtool/pkg/tags"
)

type describeCmd struct {
	version cache.Version
}

func (*describeCmd) Name() string     { return "describe" }
func (*describeCmd) Synopsis() string { return "Print the layout of a structure for a version." }
func (*describeCmd) Usage() string {
	return "tagtool describe -version <VERSION> <TYPE>...\n"
}

func (cmd *describeCmd) SetFlags(f *flag.FlagSet) {
	f.TextVar(&cmd.version, "version", cache.Unknown, "Engine version")
}

func (cmd *describeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireVersion(cmd.version); err != nil || f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	for _, typ := range f.Args() {
		layout, err := tags.Default.Describe(typ, cmd.version)
		if err != nil {
			return status(err)
		}
		printLayout(layout)
	}
	return subcommands.ExitSuccess
}

func printLayout(l *tagdef.Layout) {
	fmt.Printf("%s (%s): 0x%X bytes\n", l.Type, l.Version, l.Size)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, slot := range l.Slots {
		kind := slot.Kind.String()
		switch {
		case slot.Type != "":
			kind += "<" + slot.Type + ">"
		case slot.Kind == tagdef.Enum || slot.Kind == tagdef.Flags:
			kind += "<" + slot.Elem.String() + ">"
		}
		if slot.Length > 0 {
			kind += fmt.Sprintf("[%d]", slot.Length)
		}
		fmt.Fprintf(w, "  0x%04X\t%s\t%s\t0x%X\n", slot.Offset, slot.Name, kind, slot.Size)
	}
	w.Flush()
}

type verifyCmd struct{}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "Check every definition at every version it declares." }
func (*verifyCmd) Usage() string    { return "tagtool verify\n" }

func (*verifyCmd) SetFlags(*flag.FlagSet) {}

func (*verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	reg := tags.NewRegistry(tagdef.WithLogger(loggerFrom(ctx)))
	if err := reg.Verify(); err != nil {
		return status(err)
	}
	fmt.Printf("%d definitions verified across %d versions\n", len(reg.Types()), len(cache.Versions()))
	return subcommands.ExitSuccess
}
