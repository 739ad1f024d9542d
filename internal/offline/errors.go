package offline

import (
	"errors"
	"fmt"
)

// Sentinel error classes for programmatic handling with errors.Is.
var (
	// ErrConnectivity marks transport-level failures: the backend could not
	// be reached at all.
	ErrConnectivity = errors.New("backend unreachable")

	// ErrServer marks a reachable backend answering with a non-success code.
	ErrServer = errors.New("server error")

	// ErrStorage marks a failure of the embedded store itself. There is no
	// fallback beneath the local store, so these propagate to the caller.
	ErrStorage = errors.New("local storage error")

	// ErrUnexpected marks decode failures and other programming errors on
	// the remote path. They fall back like connectivity errors (an edit is
	// never lost) but are logged distinctly.
	ErrUnexpected = errors.New("unexpected error")

	// ErrUnresolvedRef marks a pending create whose foreign key still points
	// at a temporary negative id. The create is deferred, never sent with a
	// fabricated reference.
	ErrUnresolvedRef = errors.New("reference not yet synchronized")

	// ErrNotFound is returned by repository mutations targeting an id that
	// does not exist locally.
	ErrNotFound = errors.New("record not found")
)

// ConnectivityError wraps a transport failure with the operation that hit it.
type ConnectivityError struct {
	Op    string
	Cause error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Cause)
}

func (e *ConnectivityError) Unwrap() error { return e.Cause }

func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// ServerError records the response code behind a rejected request.
type ServerError struct {
	Op   string
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server responded %d", e.Op, e.Code)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// StorageError wraps a read or write failure from the local store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: local storage: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// UnexpectedError wraps a failure that fits neither the connectivity nor the
// server class, typically a malformed response body.
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: unexpected: %v", e.Op, e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

func (e *UnexpectedError) Is(target error) bool { return target == ErrUnexpected }

// Recoverable reports whether a remote-path failure should fall back to the
// local store instead of propagating. Storage errors are the one class with
// no fallback.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStorage) {
		return false
	}
	return errors.Is(err, ErrConnectivity) ||
		errors.Is(err, ErrServer) ||
		errors.Is(err, ErrUnexpected) ||
		errors.Is(err, ErrUnresolvedRef)
}
