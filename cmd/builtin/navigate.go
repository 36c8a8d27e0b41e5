package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mwantia/navigator"
	"github.com/mwantia/navigator/cmd"
)

type CdCommand struct{}

func (c *CdCommand) Name() string {
	return "cd"
}

func (c *CdCommand) Description() string {
	return "Change into a directory or another location"
}

func (c *CdCommand) Usage() string {
	return "cd <path|location>"
}

func (c *CdCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := requireArgs(args, 1, c.Usage()); err != nil {
		return 2, err
	}

	target := args.Arg(0)

	var err error
	if strings.Contains(target, "://") || api.Location() == "" {
		_, err = api.Navigate(ctx, target)
	} else if strings.HasPrefix(target, "/") {
		_, err = api.Navigate(ctx, locate(api, target))
	} else {
		// Relative paths follow the join rules of the active backend
		_, err = api.Navigate(ctx, api.Location(), navigator.WithJoin(target))
	}
	if err != nil {
		return 1, err
	}

	return 0, nil
}

func (c *CdCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type BackCommand struct{}

func (c *BackCommand) Name() string {
	return "back"
}

func (c *BackCommand) Description() string {
	return "Go back in the navigation history"
}

func (c *BackCommand) Usage() string {
	return "back [-n steps]"
}

func (c *BackCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	return move(ctx, api, writer, -int(max(args.Int("steps"), 1)))
}

func (c *BackCommand) GetFlags() *cmd.CommandFlagSet {
	return stepFlags()
}

type ForwardCommand struct{}

func (c *ForwardCommand) Name() string {
	return "forward"
}

func (c *ForwardCommand) Description() string {
	return "Go forward in the navigation history"
}

func (c *ForwardCommand) Usage() string {
	return "forward [-n steps]"
}

func (c *ForwardCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	return move(ctx, api, writer, int(max(args.Int("steps"), 1)))
}

func (c *ForwardCommand) GetFlags() *cmd.CommandFlagSet {
	return stepFlags()
}

// historyMover is implemented by sessions that can move by more than one step.
type historyMover interface {
	Go(ctx context.Context, delta int) (string, error)
}

func move(ctx context.Context, api cmd.API, writer io.Writer, delta int) (int, error) {
	var (
		location string
		err      error
	)

	switch mover, ok := api.(historyMover); {
	case ok:
		location, err = mover.Go(ctx, delta)
	case delta < 0:
		location, err = api.Back(ctx)
	default:
		location, err = api.Forward(ctx)
	}
	if err != nil {
		return 1, err
	}

	if location != "" {
		fmt.Fprintln(writer, location)
	}
	return 0, nil
}

func stepFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"steps": {
				Name:        "steps",
				Short:       "n",
				Type:        "int",
				Default:     int64(1),
				Description: "Number of history entries to move",
			},
		},
	}
}

type ReloadCommand struct{}

func (c *ReloadCommand) Name() string {
	return "reload"
}

func (c *ReloadCommand) Description() string {
	return "Reload the current location"
}

func (c *ReloadCommand) Usage() string {
	return "reload"
}

func (c *ReloadCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if _, err := api.Reload(ctx); err != nil {
		return 1, err
	}
	return 0, nil
}

func (c *ReloadCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type PwdCommand struct{}

func (c *PwdCommand) Name() string {
	return "pwd"
}

func (c *PwdCommand) Description() string {
	return "Print the current location"
}

func (c *PwdCommand) Usage() string {
	return "pwd"
}

func (c *PwdCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	fmt.Fprintln(writer, api.Location())
	return 0, nil
}

func (c *PwdCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}

type HistoryCommand struct{}

func (c *HistoryCommand) Name() string {
	return "history"
}

func (c *HistoryCommand) Description() string {
	return "Show the navigation history"
}

func (c *HistoryCommand) Usage() string {
	return "history"
}

func (c *HistoryCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	snapshot := api.History()
	for i, location := range snapshot.Entries {
		marker := " "
		if i == snapshot.Cursor {
			marker = "*"
		}
		fmt.Fprintf(writer, "%s %3d  %s\n", marker, i, location)
	}
	return 0, nil
}

func (c *HistoryCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
