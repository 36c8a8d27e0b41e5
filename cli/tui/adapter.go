package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mwantia/navigator"
	"github.com/mwantia/navigator/backend"
	command "github.com/mwantia/navigator/cmd"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

// previewLimit is the number of bytes read for a text preview.
const previewLimit = 16 * 1024

// SessionAdapter runs session operations for the browser. Every
// operation may block on the network or on a login and must therefore
// only be called from a tea.Cmd.
type SessionAdapter struct {
	ctx     context.Context
	session *navigator.Session
	start   string
}

func NewSessionAdapter(ctx context.Context, session *navigator.Session, start string) *SessionAdapter {
	return &SessionAdapter{
		ctx:     ctx,
		session: session,
		start:   start,
	}
}

// Forward returns an event handler delivering session events to p. The
// events are queued so that a handler never waits for the update loop.
func Forward(p *tea.Program) func(navigator.Event) {
	queue := make(chan navigator.Event, 256)
	go func() {
		for event := range queue {
			p.Send(eventMsg{event})
		}
	}()

	return func(event navigator.Event) {
		queue <- event
	}
}

func (a *SessionAdapter) Location() string {
	return a.session.Location()
}

func (a *SessionAdapter) Entries() []*Entry {
	return newEntries(a.session.Entries(), a.session.Selection())
}

func (a *SessionAdapter) Navigate(location string, opts ...navigator.NavigateOption) error {
	_, err := a.session.Navigate(a.ctx, location, opts...)
	return err
}

func (a *SessionAdapter) Parent() error {
	return a.Navigate(a.session.Location(), navigator.WithJoin(data.ParentName))
}

func (a *SessionAdapter) Back() error {
	_, err := a.session.Back(a.ctx)
	return err
}

func (a *SessionAdapter) Forward() error {
	_, err := a.session.Forward(a.ctx)
	return err
}

func (a *SessionAdapter) Reload() error {
	_, err := a.session.Reload(a.ctx)
	return err
}

// Open enters directories and hands files to the desktop.
func (a *SessionAdapter) Open(entry *Entry) (string, error) {
	return a.session.OpenEntry(a.ctx, entry.source)
}

func (a *SessionAdapter) CreateDirectory(name string) error {
	dir := a.session.Location()
	if err := a.session.MakeDirectory(a.ctx, dir, name); err != nil {
		return err
	}

	_, err := a.session.List(a.ctx, dir, true)
	return err
}

func (a *SessionAdapter) Rename(entry *Entry, name string) error {
	_, err := a.session.Rename(a.ctx, a.session.Location(), entry.source, name)
	return err
}

// Delete removes entries and refreshes the listing, also after a partial
// failure.
func (a *SessionAdapter) Delete(entries []*Entry) (int, error) {
	targets := make([]*data.Entry, 0, len(entries))
	for _, entry := range entries {
		targets = append(targets, entry.source)
	}

	dir := a.session.Location()
	removed, err := a.session.Delete(a.ctx, dir, targets)
	if _, lerr := a.session.List(a.ctx, dir, true); err == nil {
		err = lerr
	}
	return removed, err
}

func (a *SessionAdapter) Terminal() error {
	return a.session.OpenTerminal(a.session.Location())
}

func (a *SessionAdapter) Login(user, password string) error {
	return a.session.Login(a.ctx, &backend.Credentials{
		User:     user,
		Password: password,
	})
}

func (a *SessionAdapter) Toggle(entry *Entry) {
	if entry.Type == data.FileTypeParent {
		return
	}
	if entry.Marked {
		a.session.Deselect(entry.source)
	} else {
		a.session.Select(entry.source)
	}
}

func (a *SessionAdapter) Execute(center *command.Center, line string) (string, error) {
	var out bytes.Buffer
	code, err := center.ExecuteLine(a.ctx, a.session, &out, line)
	if err == nil && code != 0 {
		err = fmt.Errorf("command exited with code %d", code)
	}
	return out.String(), err
}

// GeneratePreview returns the beginning of a local text file. Remote
// files are not fetched for a preview.
func (a *SessionAdapter) GeneratePreview(entry *Entry) (string, error) {
	kind, _, ok := a.session.Backend()
	if !ok || kind != backend.KindLocal {
		return fmt.Sprintf("(%s file, press enter to open)", kind), nil
	}

	f, err := os.Open(entry.Path())
	if err != nil {
		return "", a.session.Normalizer().Normalize(nerrors.FromSystem(err))
	}
	defer f.Close()

	buf := make([]byte, previewLimit)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", a.session.Normalizer().Normalize(nerrors.FromSystem(err))
	}

	content := buf[:n]
	if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
		return "(binary file)", nil
	}
	return string(content), nil
}

// Describe renders a session error for the status bar.
func Describe(err error) string {
	var ne *nerrors.Error
	if !errors.As(err, &ne) {
		return err.Error()
	}

	message := ne.Param("message")
	if message == "" {
		return ne.Kind.String()
	}
	return fmt.Sprintf("%s: %s", ne.Kind, message)
}
