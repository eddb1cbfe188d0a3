// Package fault defines the error taxonomy shared by all pipeline
// stages.  Callers match on kind with errors.Is and, for a few kinds,
// on stable substrings of the message text (e.g. "bucket location",
// "survey_id mismatch").  Each fault also carries a machine-readable
// code so callers that prefer structured matching do not have to
// compare strings; the human-readable text stays stable either way.
package fault

import (
	"errors"
	"fmt"
)

// Code identifies a fault kind without reference to the message text.
type Code string

const (
	CodeInvalidMessage   Code = "INVALID_MESSAGE"
	CodeInvalidURI       Code = "INVALID_URI"
	CodeClientConnection Code = "CLIENT_CONNECTION"
	CodeSampleFile       Code = "SAMPLE_FILE"
	CodeSubmission       Code = "SUBMISSION"
)

// Kind sentinels for errors.Is matching.
var (
	ErrInvalidMessage   = errors.New("invalid message")
	ErrInvalidURI       = errors.New("invalid URI")
	ErrClientConnection = errors.New("client connection failure")
	ErrSampleFile       = errors.New("bad sample file")
	ErrSubmission       = errors.New("submission failure")
)

// Error is a typed pipeline fault.  The message text is part of the
// observable contract and must not change between releases.
type Error struct {
	code  Code
	kind  error
	msg   string
	cause error
}

// New returns a fault of the given kind with a stable message text.
func New(kind error, msg string) error {
	return &Error{code: codeFor(kind), kind: kind, msg: msg}
}

// Wrap returns a fault of the given kind that records cause for
// diagnostics while keeping msg as the stable text.
func Wrap(kind error, msg string, cause error) error {
	return &Error{code: codeFor(kind), kind: kind, msg: msg, cause: cause}
}

func codeFor(kind error) Code {
	switch kind {
	case ErrInvalidMessage:
		return CodeInvalidMessage
	case ErrInvalidURI:
		return CodeInvalidURI
	case ErrClientConnection:
		return CodeClientConnection
	case ErrSampleFile:
		return CodeSampleFile
	case ErrSubmission:
		return CodeSubmission
	}
	return ""
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%v: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is
// and errors.As.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// Code returns the machine-readable code of the fault.
func (e *Error) Code() Code {
	return e.code
}

// CodeOf returns the code of err if err is (or wraps) a fault.
func CodeOf(err error) (Code, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.code, true
	}
	return "", false
}
