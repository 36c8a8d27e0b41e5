package builtin

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/cmd"
	"github.com/mwantia/navigator/data"
)

// Commands returns a fresh instance of every builtin command.
func Commands() []cmd.Command {
	return []cmd.Command{
		&LsCommand{},
		&CdCommand{},
		&BackCommand{},
		&ForwardCommand{},
		&ReloadCommand{},
		&PwdCommand{},
		&HistoryCommand{},
		&MkdirCommand{},
		&RmCommand{},
		&MvCommand{},
		&DuCommand{},
		&ExistsCommand{},
		&GetCommand{},
		&OpenCommand{},
		&TermCommand{},
		&LoginCommand{},
		&StatusCommand{},
	}
}

// InitBuiltin registers every builtin command with center.
func InitBuiltin(center *cmd.Center) error {
	for _, c := range Commands() {
		if err := center.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// locate resolves arg against the current location. Absolute paths stay
// on the active server; full locations are returned unchanged.
func locate(api cmd.API, arg string) string {
	location := api.Location()
	if arg == "" {
		return location
	}
	if strings.Contains(arg, "://") {
		return arg
	}

	kind, server, ok := api.Backend()
	if !ok || kind == backend.KindLocal {
		if filepath.IsAbs(arg) || location == "" {
			return arg
		}
		return filepath.Join(location, arg)
	}

	if strings.HasPrefix(arg, "/") {
		return server + data.CleanPath(arg)
	}
	return backend.URLPaths{}.Join(location, arg)
}

// lookup finds the entries named names in the current listing.
func lookup(api cmd.API, names ...string) ([]*data.Entry, error) {
	entries := api.Entries()
	found := make([]*data.Entry, 0, len(names))

	for _, name := range names {
		var match *data.Entry
		for _, entry := range entries {
			if entry.Name == name {
				match = entry
				break
			}
		}
		if match == nil {
			return nil, fmt.Errorf("no entry named '%s' in '%s'", name, api.Location())
		}
		found = append(found, match)
	}

	return found, nil
}

func requireArgs(args *cmd.CommandArgs, n int, usage string) error {
	if len(args.Args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}
