package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/navigator/cmd"
	"github.com/mwantia/navigator/data"
)

type MkdirCommand struct{}

func (c *MkdirCommand) Name() string {
	return "mkdir"
}

func (c *MkdirCommand) Description() string {
	return "Create directories in the current location"
}

func (c *MkdirCommand) Usage() string {
	return "mkdir <name...>"
}

func (c *MkdirCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := requireArgs(args, 1, c.Usage()); err != nil {
		return 2, err
	}

	dir := api.Location()
	for _, name := range args.Args {
		if err := api.MakeDirectory(ctx, dir, name); err != nil {
			return 1, err
		}
	}

	if _, err := api.List(ctx, dir, true); err != nil {
		return 1, err
	}
	return 0, nil
}

func (c *MkdirCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type RmCommand struct{}

func (c *RmCommand) Name() string {
	return "rm"
}

func (c *RmCommand) Description() string {
	return "Remove entries of the current listing"
}

func (c *RmCommand) Usage() string {
	return "rm <name...>"
}

func (c *RmCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := requireArgs(args, 1, c.Usage()); err != nil {
		return 2, err
	}

	entries, err := lookup(api, args.Args...)
	if err != nil {
		return 1, err
	}

	dir := api.Location()
	removed, err := api.Delete(ctx, dir, entries)
	fmt.Fprintf(writer, "removed %d of %d\n", removed, len(entries))

	// Refresh also after a partial failure, some entries may be gone
	if _, lerr := api.List(ctx, dir, true); err == nil {
		err = lerr
	}
	if err != nil {
		return 1, err
	}
	return 0, nil
}

func (c *RmCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type MvCommand struct{}

func (c *MvCommand) Name() string {
	return "mv"
}

func (c *MvCommand) Description() string {
	return "Rename an entry of the current listing"
}

func (c *MvCommand) Usage() string {
	return "mv <name> <new-name>"
}

func (c *MvCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := requireArgs(args, 2, c.Usage()); err != nil {
		return 2, err
	}

	entries, err := lookup(api, args.Arg(0))
	if err != nil {
		return 1, err
	}

	if _, err := api.Rename(ctx, api.Location(), entries[0], args.Arg(1)); err != nil {
		return 1, err
	}
	return 0, nil
}

func (c *MvCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type DuCommand struct{}

func (c *DuCommand) Name() string {
	return "du"
}

func (c *DuCommand) Description() string {
	return "Measure the size of entries, all of them by default"
}

func (c *DuCommand) Usage() string {
	return "du [-b] [name...]"
}

func (c *DuCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	names := args.Args
	if len(names) == 0 {
		for _, entry := range api.Entries() {
			if entry.Type != data.FileTypeParent {
				names = append(names, entry.Name)
			}
		}
	} else if _, err := lookup(api, names...); err != nil {
		return 1, err
	}

	size, err := api.MeasureSize(ctx, api.Location(), names)
	if err != nil {
		return 1, err
	}

	if args.Bool("bytes") {
		fmt.Fprintln(writer, size)
	} else {
		fmt.Fprintln(writer, humanize.IBytes(uint64(max(size, 0))))
	}
	return 0, nil
}

func (c *DuCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"bytes": {
				Name:        "bytes",
				Short:       "b",
				Type:        "bool",
				Description: "Print the size in bytes",
			},
		},
	}
}

type ExistsCommand struct{}

func (c *ExistsCommand) Name() string {
	return "exists"
}

func (c *ExistsCommand) Description() string {
	return "Check whether a path exists, exit code 1 if not"
}

func (c *ExistsCommand) Usage() string {
	return "exists <path|location>"
}

func (c *ExistsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := requireArgs(args, 1, c.Usage()); err != nil {
		return 2, err
	}

	exists, err := api.Exists(ctx, locate(api, args.Arg(0)))
	if err != nil {
		return 1, err
	}

	fmt.Fprintln(writer, exists)
	if !exists {
		return 1, nil
	}
	return 0, nil
}

func (c *ExistsCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type GetCommand struct{}

func (c *GetCommand) Name() string {
	return "get"
}

func (c *GetCommand) Description() string {
	return "Download a file into the local temp directory"
}

func (c *GetCommand) Usage() string {
	return "get <name>"
}

func (c *GetCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := requireArgs(args, 1, c.Usage()); err != nil {
		return 2, err
	}

	local, err := api.FetchToLocalTemp(ctx, api.Location(), args.Arg(0))
	if err != nil {
		return 1, err
	}

	fmt.Fprintln(writer, local)
	return 0, nil
}

func (c *GetCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type OpenCommand struct{}

func (c *OpenCommand) Name() string {
	return "open"
}

func (c *OpenCommand) Description() string {
	return "Enter a directory or open a file with its default application"
}

func (c *OpenCommand) Usage() string {
	return "open <name>"
}

func (c *OpenCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := requireArgs(args, 1, c.Usage()); err != nil {
		return 2, err
	}

	entries, err := lookup(api, args.Arg(0))
	if err != nil {
		return 1, err
	}

	location, err := api.OpenEntry(ctx, entries[0])
	if err != nil {
		return 1, err
	}

	fmt.Fprintln(writer, location)
	return 0, nil
}

func (c *OpenCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type TermCommand struct{}

func (c *TermCommand) Name() string {
	return "term"
}

func (c *TermCommand) Description() string {
	return "Open a terminal in the current local directory"
}

func (c *TermCommand) Usage() string {
	return "term"
}

func (c *TermCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := api.OpenTerminal(api.Location()); err != nil {
		return 1, err
	}
	return 0, nil
}

func (c *TermCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
