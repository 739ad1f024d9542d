package offline

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"connectivity", &ConnectivityError{Op: "patients.list", Cause: errors.New("refused")}, ErrConnectivity},
		{"server", &ServerError{Op: "patients.create", Code: 422}, ErrServer},
		{"storage", &StorageError{Op: "patients.insert", Err: errors.New("locked")}, ErrStorage},
		{"unexpected", &UnexpectedError{Op: "patients.get", Err: errors.New("bad json")}, ErrUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
		})
	}
}

func TestErrorClassification_Wrapped(t *testing.T) {
	err := fmt.Errorf("synchronize: %w", &ServerError{Op: "events.update", Code: 500})
	if !errors.Is(err, ErrServer) {
		t.Error("classification must survive wrapping")
	}
	if errors.Is(err, ErrConnectivity) {
		t.Error("a server error is not a connectivity error")
	}
}

func TestConnectivityError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &ConnectivityError{Op: "patients.list", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable through Unwrap")
	}
}

func TestServerError_Message(t *testing.T) {
	err := &ServerError{Op: "patients.create", Code: 409}
	want := "patients.create: server responded 409"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connectivity", &ConnectivityError{Op: "x", Cause: errors.New("y")}, true},
		{"server", &ServerError{Op: "x", Code: 500}, true},
		{"unexpected", &UnexpectedError{Op: "x", Err: errors.New("y")}, true},
		{"unresolved ref", ErrUnresolvedRef, true},
		{"storage", &StorageError{Op: "x", Err: errors.New("y")}, false},
		{"plain", errors.New("something else"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recoverable(tt.err); got != tt.want {
				t.Errorf("Recoverable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
