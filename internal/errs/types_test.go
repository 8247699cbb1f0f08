package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestDatabaseErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("append: %w", NewDatabaseError("create", "failed to append transaction", cause))

	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected DatabaseError in chain")
	}
	if dbErr.Operation != "create" {
		t.Fatalf("operation mismatch: %s", dbErr.Operation)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if dbErr.Error() != "failed to append transaction: disk full" {
		t.Fatalf("unexpected message: %q", dbErr.Error())
	}
}

func TestExternalServiceErrorMessage(t *testing.T) {
	err := NewExternalServiceError("vertex", "generate content failed", true, nil)
	if err.Error() != "vertex: generate content failed" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !err.Transient {
		t.Fatalf("expected transient flag")
	}
}
