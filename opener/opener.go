package opener

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/jmgilman/go/exec"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/log"
)

// Opener hands files and directories to the desktop of the host.
type Opener struct {
	executor exec.Executor
	goos     string
	terminal []string
	timeout  string
	log      *log.Logger
}

type Option func(*Opener)

// WithExecutor replaces the executor running the launch commands.
func WithExecutor(executor exec.Executor) Option {
	return func(o *Opener) {
		o.executor = executor
	}
}

// WithGOOS selects the launch commands of another operating system.
func WithGOOS(goos string) Option {
	return func(o *Opener) {
		o.goos = goos
	}
}

// WithTerminal overrides the terminal command. The working directory is
// set to the opened directory.
func WithTerminal(command ...string) Option {
	return func(o *Opener) {
		o.terminal = command
	}
}

func WithTimeout(timeout string) Option {
	return func(o *Opener) {
		o.timeout = timeout
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *Opener) {
		if logger != nil {
			o.log = logger
		}
	}
}

func New(opts ...Option) *Opener {
	o := &Opener{
		goos: runtime.GOOS,
		log:  log.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.executor == nil {
		o.executor = exec.New(exec.WithInheritEnv())
	}
	if len(o.terminal) == 0 {
		o.terminal = defaultTerminal(o.goos)
	}

	return o
}

// Open opens path with the default application of the host.
func (o *Opener) Open(path string) error {
	return o.run("", openCommand(o.goos, path))
}

// Terminal starts a terminal emulator in dir.
func (o *Opener) Terminal(dir string) error {
	return o.run(dir, o.terminalCommand(dir))
}

func (o *Opener) run(dir string, args []string) error {
	executor := o.executor.Clone().WithContext(context.Background())
	if dir != "" {
		executor = executor.WithDir(dir)
	}
	if o.timeout != "" {
		executor = executor.WithTimeout(o.timeout)
	}

	o.log.Debug("Running '%s'", strings.Join(args, " "))
	if _, err := executor.Run(args...); err != nil {
		return nerrors.Wrap(err, nerrors.CodeUnsupported, "failed to run '%s'", args[0])
	}

	return nil
}

func openCommand(goos, path string) []string {
	switch goos {
	case "darwin":
		return []string{"open", path}
	case "windows":
		return []string{"cmd", "/c", "start", "", path}
	default:
		return []string{"xdg-open", path}
	}
}

func defaultTerminal(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open", "-a", "Terminal"}
	case "windows":
		return []string{"cmd", "/c", "start", "cmd"}
	default:
		if terminal := os.Getenv("TERMINAL"); terminal != "" {
			return strings.Fields(terminal)
		}
		return []string{"x-terminal-emulator"}
	}
}

func (o *Opener) terminalCommand(dir string) []string {
	args := append([]string(nil), o.terminal...)
	// Terminal.app ignores the working directory and takes it as argument
	if o.goos == "darwin" && len(args) > 0 && args[0] == "open" {
		args = append(args, dir)
	}
	return args
}
