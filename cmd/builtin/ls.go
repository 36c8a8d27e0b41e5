package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/navigator/cmd"
	"github.com/mwantia/navigator/data"
)

type LsCommand struct {
}

// Name returns the command identifier
func (ls *LsCommand) Name() string {
	return "ls"
}

// Description returns human-readable help text
func (ls *LsCommand) Description() string {
	return "List the current or the given directory"
}

// Usage returns a usage string for help (e.g. "ls -al [path]")
func (ls *LsCommand) Usage() string {
	return "ls [-a] [-l] [path]"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (ls *LsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	entries, err := api.List(ctx, locate(api, args.Arg(0)), args.Bool("all"))
	if err != nil {
		return 1, err
	}

	if !args.Bool("long") {
		for _, entry := range entries {
			if visible(entry, args.Bool("all")) {
				fmt.Fprintln(writer, displayName(entry))
			}
		}
		return 0, nil
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, entry := range entries {
		if !visible(entry, args.Bool("all")) {
			continue
		}

		size := humanize.IBytes(uint64(max(entry.Size, 0)))
		if entry.IsDir() {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", entry.Mode, size, entry.ModifyTime.Format("2006-01-02 15:04"), displayName(entry))
	}

	return 0, tw.Flush()
}

// GetFlags returns the flag set for this command (this is optional)
func (ls *LsCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"all": {
				Name:        "all",
				Short:       "a",
				Type:        "bool",
				Description: "Show hidden entries and the parent entry",
			},
			"long": {
				Name:        "long",
				Short:       "l",
				Type:        "bool",
				Description: "Show mode, size and modification time",
			},
		},
	}
}

func visible(entry *data.Entry, all bool) bool {
	return all || !strings.HasPrefix(entry.Name, ".")
}

func displayName(entry *data.Entry) string {
	switch {
	case entry.Type == data.FileTypeSymlink && entry.Target != "":
		return fmt.Sprintf("%s -> %s", entry.Name, entry.Target)
	case entry.IsDir():
		return entry.Name + "/"
	default:
		return entry.Name
	}
}
