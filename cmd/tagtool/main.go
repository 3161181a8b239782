// Package main provides a command-line tool for inspecting and converting engine
// tag data, string IDs, resource caches and shader microcode.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/EchoTools/tagtool/pkg/cache"
)

var verbose bool

type loggerKey struct{}

func init() {
	flag.BoolVar(&verbose, "v", false, "Log debug records to stderr")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&describeCmd{}, "tags")
	subcommands.Register(&verifyCmd{}, "tags")
	subcommands.Register(&dumpCmd{}, "tags")
	subcommands.Register(&roundtripCmd{}, "tags")
	subcommands.Register(&stringidCmd{}, "tags")
	subcommands.Register(&resourcesCmd{}, "resources")
	subcommands.Register(&disasmCmd{}, "shaders")
	subcommands.Register(&decompileCmd{}, "shaders")
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := context.WithValue(context.Background(), loggerKey{}, logger)
	os.Exit(int(subcommands.Execute(ctx)))
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// status reports err and maps it to an exit status.
func status(err error) subcommands.ExitStatus {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func requireVersion(v cache.Version) error {
	if !v.Valid() {
		return fmt.Errorf("-version is required")
	}
	return nil
}
