package fault //nolint:testpackage

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := New(ErrInvalidURI, "invalid bucket location: not_a_uri")
	if !errors.Is(err, ErrInvalidURI) {
		t.Fatalf("errors.Is() = false, want true")
	}
	if errors.Is(err, ErrSampleFile) {
		t.Fatalf("errors.Is() matched the wrong kind")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrClientConnection, "failed to connect to storage client", cause)
	if !errors.Is(err, ErrClientConnection) {
		t.Fatalf("errors.Is() = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is() lost the cause")
	}
	want := "failed to connect to storage client: connection refused"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		kind error
		code Code
	}{
		{ErrInvalidMessage, CodeInvalidMessage},
		{ErrInvalidURI, CodeInvalidURI},
		{ErrClientConnection, CodeClientConnection},
		{ErrSampleFile, CodeSampleFile},
		{ErrSubmission, CodeSubmission},
	}
	for _, test := range tests {
		code, ok := CodeOf(New(test.kind, "some text"))
		if !ok || code != test.code {
			t.Errorf("CodeOf() = %v %v, want %v true", code, ok, test.code)
		}
	}
	// A fault wrapped by a plain error should still report its code.
	wrapped := fmt.Errorf("outer: %w", New(ErrSubmission, "mutation not acknowledged"))
	if code, ok := CodeOf(wrapped); !ok || code != CodeSubmission {
		t.Errorf("CodeOf(wrapped) = %v %v, want %v true", code, ok, CodeSubmission)
	}
	if _, ok := CodeOf(errors.New("not a fault")); ok {
		t.Errorf("CodeOf(non-fault) = true, want false")
	}
}
