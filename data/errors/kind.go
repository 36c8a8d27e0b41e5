package errors

// Kind is the stable category of a normalized error.
type Kind int

const (
	KindUnknown Kind = iota
	KindHostNotFound
	KindConnectionRefused
	KindNotFound
	KindPermissionDenied
	KindInvalidFilename
	KindAuthExpired
	KindAuthRequired
	KindCannotReadFolder
	KindNoFilesystemForLocation
)

var kindNames = map[Kind]string{
	KindUnknown:                 "Unknown",
	KindHostNotFound:            "HostNotFound",
	KindConnectionRefused:       "ConnectionRefused",
	KindNotFound:                "NotFound",
	KindPermissionDenied:        "PermissionDenied",
	KindInvalidFilename:         "InvalidFilename",
	KindAuthExpired:             "AuthExpired",
	KindAuthRequired:            "AuthRequired",
	KindCannotReadFolder:        "CannotReadFolder",
	KindNoFilesystemForLocation: "NoFilesystemForLocation",
}

var kindMessageKeys = map[Kind]string{
	KindUnknown:                 "error.unknown",
	KindHostNotFound:            "error.host_not_found",
	KindConnectionRefused:       "error.connection_refused",
	KindNotFound:                "error.not_found",
	KindPermissionDenied:        "error.permission_denied",
	KindInvalidFilename:         "error.invalid_filename",
	KindAuthExpired:             "error.auth_expired",
	KindAuthRequired:            "error.auth_required",
	KindCannotReadFolder:        "error.cannot_read_folder",
	KindNoFilesystemForLocation: "error.no_filesystem_for_location",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

// MessageKey returns the localization key used for this kind.
func (k Kind) MessageKey() string {
	if key, ok := kindMessageKeys[k]; ok {
		return key
	}

	return kindMessageKeys[KindUnknown]
}

// IsAuth reports whether the kind signals missing or expired credentials.
func (k Kind) IsAuth() bool {
	return k == KindAuthExpired || k == KindAuthRequired
}
