package errors

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"syscall"

	perrors "github.com/jmgilman/go/errors"
)

// Raw codes reported by backends. Numeric codes follow FTP reply semantics.
const (
	CodeHostNotFound    = "ENOTFOUND"
	CodeHostTryAgain    = "EAI_AGAIN"
	CodeConnRefused     = "ECONNREFUSED"
	CodeConnReset       = "ECONNRESET"
	CodeNotExist        = "ENOENT"
	CodeAccess          = "EACCES"
	CodePerm            = "EPERM"
	CodeBadName         = "EBADNAME"
	CodeInvalid         = "EINVAL"
	CodeNotDir          = "ENOTDIR"
	CodeIsDir           = "EISDIR"
	CodeExist           = "EEXIST"
	CodeNoFilesystem    = "ENOFS"
	CodeNotLoggedIn     = "530"
	CodeActionNotTaken  = "550"
	CodeUnknown         = "UNKNOWN"
	CodeUnsupported     = "ENOTSUP"
	CodeTimedOut        = "ETIMEDOUT"
	CodeNotEmpty        = "ENOTEMPTY"
	CodeServiceNotReady = "421"
	CodeNameNotAllowed  = "553"
	CodeReadOnly        = "EROFS"
)

// Code builds a boundary error carrying a raw backend code.
func Code(code string, format string, args ...any) error {
	return perrors.Newf(perrors.ErrorCode(code), format, args...)
}

// Wrap attaches a raw backend code to an existing failure.
func Wrap(err error, code string, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return perrors.Wrapf(err, perrors.ErrorCode(code), format, args...)
}

// WithField adds a message parameter, such as the affected path, to a boundary error.
func WithField(err error, key string, value any) error {
	if err == nil {
		return nil
	}

	return perrors.WithContext(err, key, value)
}

// CodeOf returns the raw code carried by err, or CodeUnknown.
func CodeOf(err error) string {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Code
	}

	return string(perrors.GetCode(err))
}

var errnoCodes = map[syscall.Errno]string{
	syscall.ENOENT:       CodeNotExist,
	syscall.EACCES:       CodeAccess,
	syscall.EPERM:        CodePerm,
	syscall.EINVAL:       CodeInvalid,
	syscall.ENOTDIR:      CodeNotDir,
	syscall.EISDIR:       CodeIsDir,
	syscall.EEXIST:       CodeExist,
	syscall.ENOTEMPTY:    CodeNotEmpty,
	syscall.ECONNREFUSED: CodeConnRefused,
	syscall.ECONNRESET:   CodeConnReset,
	syscall.ETIMEDOUT:    CodeTimedOut,
	syscall.EROFS:        CodeReadOnly,
}

// FromSystem translates os, syscall and net failures into boundary errors
// with the matching raw code. Errors already carrying a code pass unchanged.
func FromSystem(err error) error {
	if err == nil {
		return nil
	}

	var pe perrors.PlatformError
	if errors.As(err, &pe) {
		return err
	}

	var ne *Error
	if errors.As(err, &ne) {
		return err
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTemporary {
			return Wrap(err, CodeHostTryAgain, "lookup %s", dnsErr.Name)
		}
		return Wrap(err, CodeHostNotFound, "lookup %s", dnsErr.Name)
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if code, ok := errnoCodes[errno]; ok {
			return Wrap(err, code, "%s", errno.Error())
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(err, CodeNotExist, "not found")
	case errors.Is(err, fs.ErrPermission):
		return Wrap(err, CodeAccess, "permission denied")
	case errors.Is(err, fs.ErrExist):
		return Wrap(err, CodeExist, "already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, CodeTimedOut, "deadline exceeded")
	}

	return err
}
