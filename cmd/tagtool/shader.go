package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/EchoTools/tagtool/pkg/decompiler"
	"github.com/EchoTools/tagtool/pkg/ucode"
)

// readMicrocode reads big-endian microcode from a file, skipping a header.
func readMicrocode(path string, skip int) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if skip < 0 || skip > len(data) {
		return nil, fmt.Errorf("skip %d outside %d byte file", skip, len(data))
	}
	return ucode.Words(data[skip:])
}

type disasmCmd struct {
	skip int
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Disassemble Xenos shader microcode." }
func (*disasmCmd) Usage() string    { return "tagtool disasm [-skip <BYTES>] <FILE>\n" }

func (cmd *disasmCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&cmd.skip, "skip", 0, "Bytes to skip before the microcode")
}

func (cmd *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	words, err := readMicrocode(f.Arg(0), cmd.skip)
	if err != nil {
		return status(err)
	}
	text, err := ucode.Disassemble(words)
	fmt.Print(text)
	return status(err)
}

type decompileCmd struct {
	skip  int
	pixel bool
}

func (*decompileCmd) Name() string     { return "decompile" }
func (*decompileCmd) Synopsis() string { return "Decompile Xenos shader microcode to HLSL." }
func (*decompileCmd) Usage() string {
	return "tagtool decompile [-pixel] [-skip <BYTES>] <FILE>\n"
}

func (cmd *decompileCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&cmd.skip, "skip", 0, "Bytes to skip before the microcode")
	f.BoolVar(&cmd.pixel, "pixel", false, "Treat the program as a pixel shader")
}

func (cmd *decompileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	words, err := readMicrocode(f.Arg(0), cmd.skip)
	if err != nil {
		return status(err)
	}
	shader := decompiler.Vertex
	if cmd.pixel {
		shader = decompiler.Pixel
	}
	res, err := decompiler.Decompile(words,
		decompiler.WithShaderType(shader),
		decompiler.WithLogger(loggerFrom(ctx)),
	)
	if err != nil {
		return status(err)
	}
	fmt.Print(res.Source)
	return subcommands.ExitSuccess
}
