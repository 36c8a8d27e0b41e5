package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/cmd"
)

type LoginCommand struct{}

func (c *LoginCommand) Name() string {
	return "login"
}

func (c *LoginCommand) Description() string {
	return "Answer a pending login or log in to the active server"
}

func (c *LoginCommand) Usage() string {
	return "login [-k key-file] <user> [password]"
}

func (c *LoginCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := requireArgs(args, 1, c.Usage()); err != nil {
		return 2, err
	}

	creds := &backend.Credentials{
		User:     args.Arg(0),
		Password: args.Arg(1),
		KeyFile:  args.String("key"),
	}
	if err := api.Login(ctx, creds); err != nil {
		return 1, err
	}

	fmt.Fprintf(writer, "logged in as %s\n", creds.User)
	return 0, nil
}

func (c *LoginCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"key": {
				Name:        "key",
				Short:       "k",
				Type:        "string",
				Description: "Private key used instead of a password",
			},
		},
	}
}

type StatusCommand struct{}

func (c *StatusCommand) Name() string {
	return "status"
}

func (c *StatusCommand) Description() string {
	return "Show the session status and the active backend"
}

func (c *StatusCommand) Usage() string {
	return "status"
}

func (c *StatusCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	fmt.Fprintf(writer, "status:   %s\n", api.Status())

	kind, server, ok := api.Backend()
	if !ok {
		fmt.Fprintln(writer, "backend:  none")
		return 0, nil
	}

	fmt.Fprintf(writer, "backend:  %s\n", kind)
	fmt.Fprintf(writer, "server:   %s\n", server)
	fmt.Fprintf(writer, "location: %s\n", api.Location())
	return 0, nil
}

func (c *StatusCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
