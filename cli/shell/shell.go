// Package shell provides a line based front end for a navigator session.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mwantia/navigator"
	"github.com/mwantia/navigator/backend"
	command "github.com/mwantia/navigator/cmd"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/pterm/pterm"
)

// Shell reads commands line by line and executes them on a session.
type Shell struct {
	session *navigator.Session
	center  *command.Center
	in      io.Reader
	out     io.Writer
}

func New(session *navigator.Session, center *command.Center, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		session: session,
		center:  center,
		in:      in,
		out:     out,
	}
}

// HandleEvent asks for credentials when the session needs a login. It
// is meant to be passed to navigator.WithEventHandler.
func (s *Shell) HandleEvent(event navigator.Event) {
	if event.Type != navigator.EventLoginRequired {
		return
	}

	// The handler runs inside the session; the prompt must not block it
	go s.promptLogin(event.Server)
}

func (s *Shell) promptLogin(server string) {
	pterm.Info.Printfln("Login required for %s", server)

	user, err := pterm.DefaultInteractiveTextInput.Show("User")
	if err != nil {
		pterm.Error.Println(err)
		return
	}

	password, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
	if err != nil {
		pterm.Error.Println(err)
		return
	}

	err = s.session.Login(context.Background(), &backend.Credentials{
		User:     strings.TrimSpace(user),
		Password: password,
	})
	if err != nil {
		s.printError(err)
	}
}

// Run executes lines until exit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)

	for {
		s.prompt()
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			s.center.Help(s.out)
			continue
		}

		code, err := s.center.ExecuteLine(ctx, s.session, s.out, line)
		if err != nil {
			s.printError(err)
		} else if code != 0 {
			pterm.Warning.Printfln("exit code %d", code)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *Shell) prompt() {
	location := s.session.Location()
	if location == "" {
		location = "-"
	}

	fmt.Fprint(s.out, pterm.LightCyan(location)+pterm.Gray(" > "))
}

func (s *Shell) printError(err error) {
	var ne *nerrors.Error
	if errors.As(err, &ne) {
		if message := ne.Param("message"); message != "" {
			pterm.Error.Printfln("%s: %s", ne.Kind, message)
			return
		}
		pterm.Error.Println(ne.Kind.String())
		return
	}

	pterm.Error.Println(err)
}
