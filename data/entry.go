package data

import (
	"encoding/json"
	"path"
	"strings"
	"time"
)

// ParentName is the name used for the synthetic parent entry of a listing.
const ParentName = ".."

// Entry is a single element of a directory listing.
// The session only reads and writes Name; everything else is carried
// through for the front end.
type Entry struct {
	// Name is the display name and last path element of the entry.
	Name string `json:"name"`

	// Dir is the location of the directory containing the entry.
	Dir string `json:"dir"`

	Type FileType `json:"type"`
	Mode FileMode `json:"mode"`

	// Size in bytes (0 for directories)
	Size int64 `json:"size"`

	ModifyTime  time.Time   `json:"modify_time"`
	ContentType ContentType `json:"content_type,omitempty"`

	// Target is the link target for symlinks.
	Target string `json:"target,omitempty"`

	// TargetIsDir is set when a symlink resolves to a directory.
	TargetIsDir bool `json:"target_is_dir,omitempty"`
}

// NewParentEntry returns the synthetic ".." entry for dir.
func NewParentEntry(dir string) *Entry {
	return &Entry{
		Name: ParentName,
		Dir:  dir,
		Type: FileTypeParent,
		Mode: ModeDir | 0755,
	}
}

// Path joins Dir and Name with slash semantics.
// Locations carrying a scheme keep their "scheme://server" part intact.
func (e *Entry) Path() string {
	if e.Dir == "" {
		return e.Name
	}

	if strings.HasSuffix(e.Dir, "/") || strings.HasSuffix(e.Dir, "\\") {
		return e.Dir + e.Name
	}

	if strings.Contains(e.Dir, "\\") && !strings.Contains(e.Dir, "/") {
		return e.Dir + "\\" + e.Name
	}

	return e.Dir + "/" + e.Name
}

// IsDir returns true if this entry is a directory.
func (e *Entry) IsDir() bool {
	return e.Type == FileTypeDirectory || e.Mode.IsDir()
}

// IsTraversable reports whether opening the entry should navigate into it
// instead of fetching it.
func (e *Entry) IsTraversable() bool {
	switch e.Type {
	case FileTypeDirectory, FileTypeMount, FileTypeParent:
		return true
	case FileTypeSymlink:
		return e.TargetIsDir
	}

	return e.Mode.IsDir()
}

// Ext returns the file extension including the dot.
func (e *Entry) Ext() string {
	return path.Ext(e.Name)
}

// Clone creates a copy of the entry.
func (e *Entry) Clone() *Entry {
	clone := *e
	return &clone
}

// Marshal provides JSON serialization for Entry.
func (e *Entry) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal provides JSON deserialization for Entry.
func (e *Entry) Unmarshal(data []byte) error {
	return json.Unmarshal(data, e)
}
