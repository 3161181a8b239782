package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"github.com/EchoTools/tagtool/pkg/cache"
	"github.com/EchoTools/tagtool/pkg/stringid"
)

type stringidCmd struct {
	profiles string
	version  cache.Version
	flat     int
	table    string
}

func (*stringidCmd) Name() string     { return "stringid" }
func (*stringidCmd) Synopsis() string { return "Convert between string IDs and flat string table indices." }
func (*stringidCmd) Usage() string {
	return "tagtool stringid -profiles <FILE> -version <VERSION> [-strings <FILE>] [-flat <N> | <ID>...]\n"
}

func (cmd *stringidCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.profiles, "profiles", "", "YAML file of resolver profiles")
	f.TextVar(&cmd.version, "version", cache.Unknown, "Engine version")
	f.IntVar(&cmd.flat, "flat", -1, "Flat index to convert to an ID")
	f.StringVar(&cmd.table, "strings", "", "String table to look names up in")
}

func (cmd *stringidCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if cmd.profiles == "" || requireVersion(cmd.version) != nil || (cmd.flat < 0 && f.NArg() == 0) {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return status(cmd.execute(f.Args()))
}

func (cmd *stringidCmd) execute(args []string) error {
	profiles, err := stringid.LoadProfilesFile(cmd.profiles)
	if err != nil {
		return err
	}
	resolver, err := profiles.ForVersion(cmd.version)
	if err != nil {
		return err
	}

	var table *stringid.Table
	if cmd.table != "" {
		f, err := os.Open(cmd.table)
		if err != nil {
			return fmt.Errorf("open string table: %w", err)
		}
		defer f.Close()
		if table, err = stringid.ReadTable(resolver, f); err != nil {
			return err
		}
	}

	var ids []stringid.ID
	if cmd.flat >= 0 {
		ids = append(ids, resolver.FromFlat(cmd.flat))
	}
	for _, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return fmt.Errorf("parse string id %q: %w", arg, err)
		}
		ids = append(ids, stringid.ID(v))
	}

	for _, id := range ids {
		flat, err := resolver.ToFlat(id)
		if err != nil {
			fmt.Printf("%s: %v\n", id, err)
			continue
		}
		fmt.Printf("%s set=%d index=%d length=%d flat=%d", id, resolver.Set(id), resolver.Index(id), resolver.Length(id), flat)
		if table != nil {
			if s, err := table.String(id); err == nil {
				fmt.Printf(" %q", s)
			}
		}
		fmt.Println()
	}
	return nil
}
