package bookerr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want int
	}{
		{"invalid", CodeInvalid, http.StatusBadRequest},
		{"sold out", CodeSoldOut, http.StatusConflict},
		{"insufficient capacity", CodeInsufficientCapacity, http.StatusConflict},
		{"conflict cached", CodeConflictCached, http.StatusConflict},
		{"conflict version", CodeConflictVersion, http.StatusConflict},
		{"conflict rowlock", CodeConflictRowLock, http.StatusConflict},
		{"seats not found", CodeSeatsNotFound, http.StatusConflict},
		{"seats unavailable", CodeSeatsUnavailable, http.StatusConflict},
		{"unavailable", CodeUnavailable, http.StatusServiceUnavailable},
		{"unknown code", Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.code); got != tt.want {
				t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	wrapped := Wrap(CodeConflictVersion, "version mismatch", errors.New("rows affected 0"))
	outer := errors.New("context: " + wrapped.Error())

	if _, ok := As(outer); ok {
		t.Fatalf("expected a plain wrapped string error not to unwrap via As")
	}

	var err error = wrapped
	be, ok := As(err)
	if !ok {
		t.Fatalf("expected As to find the *Error")
	}
	if be.Code != CodeConflictVersion {
		t.Errorf("got code %s, want %s", be.Code, CodeConflictVersion)
	}
	if !errors.Is(err, wrapped) {
		t.Errorf("expected errors.Is to match the same error value")
	}
}

func TestErrorMessage(t *testing.T) {
	plain := New(CodeInvalid, "seat id required")
	if plain.Error() != "INVALID: seat id required" {
		t.Errorf("unexpected message: %s", plain.Error())
	}

	cause := errors.New("db closed")
	wrapped := Wrap(CodeUnavailable, "commit failed", cause)
	if wrapped.Unwrap() != cause {
		t.Errorf("expected Unwrap to return the cause")
	}
}
