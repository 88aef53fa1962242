package seatstore

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsLockWaitTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"lock wait timeout", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, true},
		{"deadlock found", &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}, true},
		{"nowait unavailable", &mysql.MySQLError{Number: 3572, Message: "Statement aborted because lock could not be acquired"}, true},
		{"unrelated mysql error", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false},
		{"plain wrapped message", errors.New("driver: lock wait timeout reached"), true},
		{"unrelated plain error", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLockWaitTimeout(tt.err); got != tt.want {
				t.Errorf("isLockWaitTimeout(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	store := &Store{}
	for _, name := range []string{"naive", "pessimistic", "optimistic"} {
		strategy, err := Lookup(name, store)
		if err != nil {
			t.Errorf("Lookup(%q) returned error: %v", name, err)
		}
		if strategy == nil {
			t.Errorf("Lookup(%q) returned nil strategy", name)
		}
	}

	if _, err := Lookup("nonexistent", store); err == nil {
		t.Errorf("expected error for unknown strategy name")
	}
}
