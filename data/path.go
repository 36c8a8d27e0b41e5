package data

import (
	"path"
	"strings"
)

// CleanPath ensures the path always starts with a leading slash and
// contains no "." or ".." elements.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return path.Clean(p)
}

// JoinPath joins a slash separated directory with additional elements.
func JoinPath(dir string, elem ...string) string {
	return CleanPath(path.Join(append([]string{dir}, elem...)...))
}

// ParentPath returns the parent directory of p. The parent of "/" is "/".
func ParentPath(p string) string {
	return path.Dir(CleanPath(p))
}

// BaseName returns the last element of p.
func BaseName(p string) string {
	p = CleanPath(p)
	if p == "/" {
		return ""
	}

	return path.Base(p)
}

// HasPrefix checks if p lies at or below prefix. Both paths should be cleaned.
func HasPrefix(p, prefix string) bool {
	if prefix == "/" || prefix == "" {
		return true
	}

	if p == prefix {
		return true
	}

	return strings.HasPrefix(p, prefix+"/")
}

// ValidName reports whether name can be used as a single path element.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, "/\x00")
}
