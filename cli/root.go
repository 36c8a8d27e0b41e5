package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mwantia/navigator"
	"github.com/mwantia/navigator/cli/tui"
	command "github.com/mwantia/navigator/cmd"
	"github.com/mwantia/navigator/cmd/builtin"
	"github.com/mwantia/navigator/config"
	"github.com/mwantia/navigator/log"
	"github.com/mwantia/navigator/opener"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "navigator [location]",
	Short:        "Browse local and remote filesystems",
	Long:         `Navigator browses local directories and remote servers (ftp, s3, ssh, consul, sql) in a single session.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runBrowser,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "navigator.yaml", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "overrides the configured log level")
}

// loadConfig reads the config file. The default file may be missing.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return nil, err
		}
		cfg = config.Default()
	}

	if value, _ := cmd.Flags().GetString("log-level"); value != "" {
		level, err := log.ParseLevel(value)
		if err != nil {
			return nil, err
		}
		cfg.Log.Level = level
	}

	return cfg, nil
}

// startLocation prefers the argument over the configured location and
// falls back to the working directory.
func startLocation(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Location != "" {
		return cfg.Location, nil
	}
	return os.Getwd()
}

// newSession wires a session from cfg without navigating anywhere.
func newSession(cfg *config.Config, logger *log.Logger, opts ...navigator.SessionOption) (*navigator.Session, error) {
	registry, err := navigator.NewRegistry(
		navigator.WithCredentialStore(cfg.CredentialLookup()),
		navigator.WithDataDir(cfg.DataDir),
		navigator.WithRegistryTimeout(cfg.Timeout),
		navigator.WithRegistryLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to setup backends: %w", err)
	}

	sessionOpts := []navigator.SessionOption{
		navigator.WithRegistry(registry),
		navigator.WithLogger(logger),
		navigator.WithTempDir(cfg.TempDir),
		navigator.WithOpener(opener.New(
			opener.WithTerminal(cfg.Terminal...),
			opener.WithLogger(logger.Named("opener")),
		)),
	}
	if cfg.HideParent {
		sessionOpts = append(sessionOpts, navigator.WithoutParentEntry())
	}

	return navigator.New(append(sessionOpts, opts...)...)
}

func newCenter() (*command.Center, error) {
	center := command.NewCenter()
	if err := builtin.InitBuiltin(center); err != nil {
		return nil, fmt.Errorf("failed to setup commands: %w", err)
	}
	return center, nil
}

func runBrowser(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	location, err := startLocation(cfg, args)
	if err != nil {
		return err
	}

	// The browser owns the terminal
	logger := cfg.Logger("navigator", true)
	tui.SetLogger(logger.Named("tui"))

	session, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close(context.Background())

	center, err := newCenter()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	adapter := tui.NewSessionAdapter(ctx, session, location)
	p := tea.NewProgram(tui.NewModel(adapter, center), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := session.Subscribe(tui.Forward(p))
	defer unsubscribe()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
