package ftpd

import (
	"errors"
	"fmt"
	"io/fs"
)

// ProtocolKind classifies a protocol-level failure: bad syntax or a
// command received in the wrong session state.
type ProtocolKind int

const (
	UnknownCommand ProtocolKind = iota
	NotImplemented
	WrongSequence
	BadArgument
	ParameterUnsupported
)

// ProtocolError reports a dispatch-time failure that never reaches the
// filesystem, grounded on the reply-code taxonomy every FTP command
// handler maps into.
type ProtocolError struct {
	Kind ProtocolKind
	Cmd  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %s: kind=%d", e.Cmd, e.Kind)
}

// AuthError marks a failed or missing authentication.
type AuthError struct{ Reason string }

func (e *AuthError) Error() string { return "auth error: " + e.Reason }

// PermissionError marks a permission-bitmask denial.
type PermissionError struct{ Cmd, Path string }

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s %s", e.Cmd, e.Path)
}

// PathError marks a virtual path that could not be resolved safely
// (bad encoding; in practice escape attempts are clamped rather than
// rejected, per the Path Mapper's security invariant).
type PathError struct{ Path string }

func (e *PathError) Error() string { return "bad path: " + e.Path }

// NetworkError marks a peer reset, timeout, or cancellation on a
// control or data socket.
type NetworkError struct{ Err error }

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// FsErrorKind enumerates the filesystem adapter's sum-type error
// categories.
type FsErrorKind int

const (
	FsNotFound FsErrorKind = iota
	FsExists
	FsPermissionDenied
	FsNotADirectory
	FsIsADirectory
	FsIoError
)

// FsError is the filesystem adapter's error sum type.
type FsError struct {
	Kind    FsErrorKind
	Path    string
	OsCode  error
	Message string
}

func (e *FsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("fs error on %s: kind=%d", e.Path, e.Kind)
}

func (e *FsError) Unwrap() error { return e.OsCode }

// mapFsError translates an os/io error into the Filesystem Adapter's
// sum type.
func mapFsError(path string, err error) *FsError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &FsError{Kind: FsNotFound, Path: path, OsCode: err}
	case errors.Is(err, fs.ErrExist):
		return &FsError{Kind: FsExists, Path: path, OsCode: err}
	case errors.Is(err, fs.ErrPermission):
		return &FsError{Kind: FsPermissionDenied, Path: path, OsCode: err}
	default:
		return &FsError{Kind: FsIoError, Path: path, OsCode: err, Message: err.Error()}
	}
}

// replyFor maps an internal error to the (code, text) pair the
// protocol boundary sends back to the client, per the §7 mapping
// table. inTransfer distinguishes the FsError::IoError-during-transfer
// case (451) from the same kind surfacing outside a transfer (550).
func replyFor(err error, inTransfer bool) (int, string) {
	var (
		protoErr *ProtocolError
		authErr  *AuthError
		permErr  *PermissionError
		pathErr  *PathError
		fsErr    *FsError
		netErr   *NetworkError
	)
	switch {
	case errors.As(err, &protoErr):
		switch protoErr.Kind {
		case UnknownCommand:
			return 500, "Unknown command"
		case NotImplemented:
			return 502, "Command not implemented"
		case WrongSequence:
			return 503, "Bad sequence of commands"
		case BadArgument:
			return 501, "Syntax error in parameters or arguments"
		case ParameterUnsupported:
			return 504, "Command not implemented for that parameter"
		}
	case errors.As(err, &authErr):
		return 530, "Not logged in"
	case errors.As(err, &permErr):
		return 550, "Permission denied"
	case errors.As(err, &pathErr):
		return 550, "No such file or directory"
	case errors.As(err, &fsErr):
		if inTransfer && fsErr.Kind == FsIoError {
			return 451, "Local error in processing"
		}
		switch fsErr.Kind {
		case FsNotFound:
			return 550, "No such file or directory"
		case FsExists:
			return 550, "File already exists"
		case FsPermissionDenied:
			return 550, "Permission denied"
		case FsNotADirectory:
			return 550, "Not a directory"
		case FsIsADirectory:
			return 550, "Is a directory"
		default:
			return 550, "Requested action not taken"
		}
	case errors.As(err, &netErr):
		return 426, "Connection closed; transfer aborted"
	}
	return 451, "Local error in processing"
}
