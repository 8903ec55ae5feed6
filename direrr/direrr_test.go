package direrr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOfDirect(t *testing.T) {
	err := New(DataOverflow, "smallint overflow")
	if CodeOf(err) != DataOverflow {
		t.Fatalf("CodeOf = %v, want DataOverflow", CodeOf(err))
	}
}

func TestCodeOfWrapped(t *testing.T) {
	inner := New(ZeroDivide, "divide by zero")
	outer := fmt.Errorf("executing statement 3: %w", inner)
	if CodeOf(outer) != ZeroDivide {
		t.Fatalf("CodeOf(wrapped) = %v, want ZeroDivide", CodeOf(outer))
	}
}

func TestCodeOfFallsBackToGeneric(t *testing.T) {
	if CodeOf(errors.New("boom")) != GenericError {
		t.Fatal("plain error should map to GenericError")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	ce := Wrap(OutOfVirtualMemory, cause)
	if !errors.Is(ce, cause) {
		t.Fatal("Wrap should preserve Unwrap() chain to cause")
	}
}
