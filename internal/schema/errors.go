package schema

import (
	"errors"
	"fmt"
)

// ErrorKind names one failure class surfaced to callers.
type ErrorKind string

const (
	KindInvalidDateRange  ErrorKind = "InvalidDateRangeError"
	KindMalformedData     ErrorKind = "MalformedDataError"
	KindUnknownTool       ErrorKind = "UnknownToolError"
	KindDuplicateName     ErrorKind = "DuplicateNameError"
	KindMultipleToolCalls ErrorKind = "MultipleToolCallsError"
	KindModelUnavailable  ErrorKind = "ModelUnavailableError"
	KindToolLoopExceeded  ErrorKind = "ToolLoopExceededError"
	KindTurnTimeout       ErrorKind = "TurnTimeoutError"
	KindSessionBusy       ErrorKind = "SessionBusyError"
	KindInternal          ErrorKind = "InternalError"
)

// Error is a classified failure. Two Errors match under errors.Is when
// their kinds are equal, so the Err* values below work as sentinels.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

var (
	ErrInvalidDateRange  = &Error{Kind: KindInvalidDateRange}
	ErrMalformedData     = &Error{Kind: KindMalformedData}
	ErrUnknownTool       = &Error{Kind: KindUnknownTool}
	ErrDuplicateName     = &Error{Kind: KindDuplicateName}
	ErrMultipleToolCalls = &Error{Kind: KindMultipleToolCalls}
	ErrModelUnavailable  = &Error{Kind: KindModelUnavailable}
	ErrToolLoopExceeded  = &Error{Kind: KindToolLoopExceeded}
	ErrTurnTimeout       = &Error{Kind: KindTurnTimeout}
	ErrSessionBusy       = &Error{Kind: KindSessionBusy}
)

// NewError builds an Error of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error of the given kind around cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
