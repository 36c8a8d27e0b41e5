package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	perrors "github.com/jmgilman/go/errors"
)

// Platform selects platform dependent hints, such as the characters a
// file name may not contain.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
)

// ParsePlatform maps a GOOS value onto a Platform; unknown systems are
// treated as linux.
func ParsePlatform(goos string) Platform {
	switch strings.ToLower(goos) {
	case "windows":
		return PlatformWindows
	case "darwin", "ios":
		return PlatformDarwin
	default:
		return PlatformLinux
	}
}

// ForbiddenNameChars returns the characters a file name may not contain.
func (p Platform) ForbiddenNameChars() string {
	switch p {
	case PlatformWindows:
		return `\ / : * ? " < > |`
	case PlatformDarwin:
		return "/ :"
	default:
		return "/"
	}
}

var codeKinds = map[string]Kind{
	CodeHostNotFound:    KindHostNotFound,
	CodeHostTryAgain:    KindHostNotFound,
	CodeConnRefused:     KindConnectionRefused,
	CodeConnReset:       KindConnectionRefused,
	CodeServiceNotReady: KindConnectionRefused,
	CodeNotExist:        KindNotFound,
	CodePerm:            KindPermissionDenied,
	CodeAccess:          KindPermissionDenied,
	CodeReadOnly:        KindPermissionDenied,
	CodeBadName:         KindInvalidFilename,
	CodeInvalid:         KindInvalidFilename,
	CodeNameNotAllowed:  KindInvalidFilename,
	CodeNotLoggedIn:     KindAuthExpired,
	CodeActionNotTaken:  KindAuthRequired,
	CodeNotDir:          KindCannotReadFolder,
	CodeIsDir:           KindCannotReadFolder,
	CodeNoFilesystem:    KindNoFilesystemForLocation,

	string(perrors.CodeNotFound):     KindNotFound,
	string(perrors.CodeForbidden):    KindPermissionDenied,
	string(perrors.CodeUnauthorized): KindAuthRequired,
	string(perrors.CodeNetwork):      KindConnectionRefused,
	string(perrors.CodeUnavailable):  KindConnectionRefused,
	string(perrors.CodeInvalidInput): KindInvalidFilename,
}

// KindOf returns the kind a raw code maps to.
func KindOf(code string) Kind {
	if kind, ok := codeKinds[code]; ok {
		return kind
	}

	return KindUnknown
}

// Normalizer converts raw backend failures into *Error values.
type Normalizer struct {
	platform Platform
}

func NewNormalizer(platform Platform) *Normalizer {
	return &Normalizer{
		platform: platform,
	}
}

func (n *Normalizer) Platform() Platform {
	return n.platform
}

// Normalize maps err onto its kind, message key and parameters.
// An error that is already normalized is returned as is.
func (n *Normalizer) Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var ne *Error
	if errors.As(err, &ne) {
		return ne
	}

	err = FromSystem(err)

	code := CodeUnknown
	params := make(map[string]string)

	var pe perrors.PlatformError
	if errors.As(err, &pe) {
		code = string(pe.Code())
		for key, value := range pe.Context() {
			params[key] = fmt.Sprint(value)
		}
		if msg := pe.Message(); msg != "" {
			params["message"] = msg
		}
	}
	if code == "" {
		code = CodeUnknown
	}

	kind := KindOf(code)
	if kind == KindUnknown {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			kind = KindNotFound
		case errors.Is(err, fs.ErrPermission):
			kind = KindPermissionDenied
		}
	}

	if _, ok := params["message"]; !ok {
		params["message"] = err.Error()
	}

	return n.build(kind, code, params, err)
}

// New creates a normalized error that did not originate in a backend.
func (n *Normalizer) New(kind Kind, params map[string]string) *Error {
	p := make(map[string]string, len(params))
	for key, value := range params {
		p[key] = value
	}

	return n.build(kind, CodeUnknown, p, nil)
}

func (n *Normalizer) build(kind Kind, code string, params map[string]string, cause error) *Error {
	if kind == KindInvalidFilename {
		params["allowed"] = "any character except " + n.platform.ForbiddenNameChars()
		params["platform"] = string(n.platform)
	}

	return &Error{
		Kind:       kind,
		Code:       code,
		MessageKey: kind.MessageKey(),
		Params:     params,
		cause:      cause,
	}
}
