package data

// FileType identifies the type of an entry within a listing.
type FileType int

// File type constants matching common Unix file types.
const (
	FileTypeFile      FileType = iota // Regular file
	FileTypeDirectory                 // Directory
	FileTypeSymlink                   // Symbolic link
	FileTypeMount                     // Mount point or bucket root
	FileTypeParent                    // Synthetic ".." entry
	FileTypeOther                     // Device, socket or anything else
)

func (t FileType) String() string {
	switch t {
	case FileTypeFile:
		return "file"
	case FileTypeDirectory:
		return "directory"
	case FileTypeSymlink:
		return "symlink"
	case FileTypeMount:
		return "mount"
	case FileTypeParent:
		return "parent"
	default:
		return "other"
	}
}
