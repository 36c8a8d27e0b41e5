package navigator

import (
	"runtime"

	"github.com/mwantia/navigator/backend"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/log"
)

// Opener hands paths to the operating system. Both calls are fire and
// forget; the session only logs their failures.
type Opener interface {
	Open(path string) error
	Terminal(dir string) error
}

type SessionOptions struct {
	Registry      *backend.Registry
	Logger        *log.Logger
	Platform      nerrors.Platform
	Opener        Opener
	TempDir       string
	IncludeParent bool
	Handlers      []func(Event)
}

type SessionOption func(*SessionOptions) error

func newDefaultSessionOptions() *SessionOptions {
	return &SessionOptions{
		Logger:        log.Discard(),
		Platform:      nerrors.ParsePlatform(runtime.GOOS),
		IncludeParent: true,
	}
}

// WithRegistry replaces the registry built by NewRegistry.
func WithRegistry(registry *backend.Registry) SessionOption {
	return func(opts *SessionOptions) error {
		opts.Registry = registry
		return nil
	}
}

func WithLogger(logger *log.Logger) SessionOption {
	return func(opts *SessionOptions) error {
		if logger != nil {
			opts.Logger = logger
		}
		return nil
	}
}

// WithPlatform sets the platform used for filename hints in errors.
func WithPlatform(platform nerrors.Platform) SessionOption {
	return func(opts *SessionOptions) error {
		opts.Platform = platform
		return nil
	}
}

func WithOpener(opener Opener) SessionOption {
	return func(opts *SessionOptions) error {
		opts.Opener = opener
		return nil
	}
}

// WithTempDir sets the directory below which fetched files are stored.
func WithTempDir(dir string) SessionOption {
	return func(opts *SessionOptions) error {
		opts.TempDir = dir
		return nil
	}
}

// WithoutParentEntry omits the ".." entry from refreshed listings.
func WithoutParentEntry() SessionOption {
	return func(opts *SessionOptions) error {
		opts.IncludeParent = false
		return nil
	}
}

// WithEventHandler subscribes handler before the initial navigation runs.
func WithEventHandler(handler func(Event)) SessionOption {
	return func(opts *SessionOptions) error {
		opts.Handlers = append(opts.Handlers, handler)
		return nil
	}
}

type navigateOptions struct {
	join            string
	skipHistory     bool
	skipContextSave bool

	// set by history moves and rollbacks
	cursor     *int
	noRollback bool
}

type NavigateOption func(*navigateOptions)

// WithJoin navigates to the location joined with segment.
func WithJoin(segment string) NavigateOption {
	return func(opts *navigateOptions) {
		opts.join = segment
	}
}

// SkipHistory leaves the history untouched.
func SkipHistory() NavigateOption {
	return func(opts *navigateOptions) {
		opts.skipHistory = true
	}
}

// SkipContextSave discards the previous backend on a switch instead of
// keeping it for RollbackToPreviousContext.
func SkipContextSave() NavigateOption {
	return func(opts *navigateOptions) {
		opts.skipContextSave = true
	}
}

func restoreCursor(cursor int) NavigateOption {
	return func(opts *navigateOptions) {
		opts.cursor = &cursor
	}
}

func withoutRollback() NavigateOption {
	return func(opts *navigateOptions) {
		opts.noRollback = true
	}
}
