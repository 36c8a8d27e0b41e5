package backend

import (
	"strings"

	"github.com/mwantia/navigator/data"
)

// URLPaths implements PathUtil for backends addressed by scheme://server/path
// locations. It is meant to be embedded.
type URLPaths struct{}

func (URLPaths) Join(dir string, elem ...string) string {
	addr, err := ParseAddress(dir)
	if err != nil {
		return data.JoinPath(dir, elem...)
	}

	return addr.Location(data.JoinPath(addr.Path, elem...))
}

func (URLPaths) Sanitize(location string) string {
	addr, err := ParseAddress(location)
	if err != nil {
		return strings.TrimSpace(location)
	}

	return addr.String()
}

func (URLPaths) ServerPart(location string) string {
	addr, err := ParseAddress(location)
	if err != nil {
		return ""
	}

	return addr.Server()
}

func (URLPaths) IsRoot(location string) bool {
	addr, err := ParseAddress(location)
	if err != nil {
		return false
	}

	return addr.Path == "/"
}

func (URLPaths) IsDir(entry *data.Entry) bool {
	return entry != nil && entry.IsTraversable()
}

func (URLPaths) IsDirectoryNameValid(name string) bool {
	return data.ValidName(name)
}
