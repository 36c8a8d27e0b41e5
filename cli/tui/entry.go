package tui

import (
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/navigator/data"
)

// Entry is the browser's copy of a listing entry. The session keeps
// writing to its own entry on rename, so the copy is only updated through
// session events and source is used for identity alone.
type Entry struct {
	*data.Entry

	source *data.Entry
	Marked bool
}

func newEntries(entries []*data.Entry, marked []*data.Entry) []*Entry {
	result := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		e := &Entry{
			Entry:  entry.Clone(),
			source: entry,
		}
		for _, m := range marked {
			if m == entry {
				e.Marked = true
				break
			}
		}
		result = append(result, e)
	}
	return result
}

// IsDir reports whether the entry can be entered
func (e *Entry) IsDir() bool {
	return e.IsTraversable()
}

// DisplayName returns the name with appropriate indicator
func (e *Entry) DisplayName() string {
	switch {
	case e.Type == data.FileTypeParent:
		return data.ParentName
	case e.Type == data.FileTypeSymlink && e.Target != "":
		return e.Name + " -> " + e.Target
	case e.IsDir():
		return e.Name + "/"
	default:
		return e.Name
	}
}

// DisplaySize returns human-readable size
func (e *Entry) DisplaySize() string {
	switch {
	case e.Type == data.FileTypeMount:
		return "<MNT>"
	case e.IsDir():
		return "<DIR>"
	default:
		return humanize.IBytes(uint64(max(e.Size, 0)))
	}
}

// DisplayMode returns file permissions as string
func (e *Entry) DisplayMode() string {
	return e.Mode.String()
}

// DisplayModTime returns formatted modification time
func (e *Entry) DisplayModTime() string {
	if e.ModifyTime.IsZero() {
		return "-"
	}
	return e.ModifyTime.Format("2006-01-02 15:04:05")
}

// Icon returns an icon character based on file type
func (e *Entry) Icon() string {
	switch e.Type {
	case data.FileTypeParent:
		return "⬆️"
	case data.FileTypeMount:
		return "💾"
	case data.FileTypeSymlink:
		return "🔗"
	}

	if e.IsDir() {
		return "📁"
	}

	switch {
	case isImageFile(e.Name):
		return "🖼️"
	case isArchiveFile(e.Name):
		return "📦"
	case isCodeFile(e.Name):
		return "💻"
	default:
		return "📄"
	}
}

func hasExtension(name string, exts ...string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func isImageFile(name string) bool {
	return hasExtension(name, ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp")
}

func isArchiveFile(name string) bool {
	return hasExtension(name, ".zip", ".tar", ".gz", ".bz2", ".7z", ".rar", ".xz", ".zst")
}

func isCodeFile(name string) bool {
	return hasExtension(name, ".go", ".js", ".ts", ".py", ".java", ".c", ".cpp", ".h", ".rs", ".rb", ".php")
}
