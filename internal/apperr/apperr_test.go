package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_WrappedChain(t *testing.T) {
	base := Validation("title is required")
	wrapped := fmt.Errorf("create task: %w", base)

	if got := KindOf(wrapped); got != KindValidation {
		t.Fatalf("KindOf() = %q, want %q", got, KindValidation)
	}
	if Message(wrapped) != "title is required" {
		t.Errorf("Message() = %q", Message(wrapped))
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf() = %q, want %q", got, KindInternal)
	}
	if Is(nil, KindInternal) {
		t.Error("Is(nil) should be false")
	}
}

func TestTransient_Unwrap(t *testing.T) {
	err := Transient(context.DeadlineExceeded, "storage unavailable")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Transient should unwrap to its cause")
	}
	if !Is(err, KindTransient) {
		t.Error("expected transient kind")
	}
}
