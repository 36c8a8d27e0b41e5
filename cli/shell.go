package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mwantia/navigator"
	"github.com/mwantia/navigator/cli/shell"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:          "shell [location]",
	Short:        "Run navigator commands line by line",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	location, err := startLocation(cfg, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	center, err := newCenter()
	if err != nil {
		return err
	}

	logger := cfg.Logger("navigator", false)

	var sh *shell.Shell
	session, err := newSession(cfg, logger, navigator.WithEventHandler(func(event navigator.Event) {
		sh.HandleEvent(event)
	}))
	if err != nil {
		return err
	}
	defer session.Close(context.Background())

	sh = shell.New(session, center, os.Stdin, os.Stdout)

	pterm.DefaultHeader.Println("navigator shell")
	pterm.Info.Println("Type 'help' for a list of commands, 'exit' to leave.")

	if _, err := session.Navigate(ctx, location); err != nil {
		pterm.Error.Printfln("Failed to open '%s': %v", location, err)
	}

	return sh.Run(ctx)
}
