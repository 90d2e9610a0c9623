package quiz

import "fmt"

// Code classifies quiz failures for logging and user notices.
type Code string

const (
	CodeSourceUnavailable   Code = "source_unavailable"
	CodeStaleSelection      Code = "stale_selection"
	CodeMissingPrecondition Code = "missing_precondition"
	CodeUnexpectedEvent     Code = "unexpected_event"
)

// Error is a classified quiz failure. Errors with the same Kind match under errors.Is.
type Error struct {
	Kind    Code
	Message string
	Err     error
}

var (
	// ErrSourceUnavailable means no usable questions could be fetched.
	ErrSourceUnavailable = &Error{Kind: CodeSourceUnavailable, Message: "question source unavailable"}
	// ErrStaleSelection means the pressed choice does not belong to the current screen.
	ErrStaleSelection = &Error{Kind: CodeStaleSelection, Message: "stale selection"}
	// ErrMissingPrecondition means an earlier step of the conversation was not recorded.
	ErrMissingPrecondition = &Error{Kind: CodeMissingPrecondition, Message: "missing precondition"}
	// ErrUnexpectedEvent means the transition table has no row for an action result.
	ErrUnexpectedEvent = &Error{Kind: CodeUnexpectedEvent, Message: "unexpected event"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Code returns the machine-readable failure code.
func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Code, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// SourceUnavailable wraps a fetch failure.
func SourceUnavailable(err error) *Error {
	return newError(CodeSourceUnavailable, "question source unavailable", err)
}
