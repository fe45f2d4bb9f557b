package medimatch

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"

	// Intent parsing.
	EEMPTYINPUT      = "empty_input"
	EMISSINGLOCATION = "missing_location"
	EUPSTREAM        = "upstream_failure"

	// Directory search.
	ENETWORK   = "network_failure"
	ENORESULTS = "no_results"
	EPARSE     = "parse_failure"

	// Matching.
	ENOMATCHES = "no_matches"
)

// Error represents an application-specific error.
// Op names the pipeline stage that produced it and Err holds the wrapped cause.
type Error struct {
	Code    string
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError returns an Error with the given code and operation that wraps err.
func WrapError(code, op string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// HasCode reports whether any application error in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// ErrorKind groups error codes by how they are reported to the user.
type ErrorKind int

const (
	// KindInternal is an unexpected failure.
	KindInternal ErrorKind = iota
	// KindInput is user-correctable and reported inline.
	KindInput
	// KindUpstream is a transient failure of the language model or directory.
	KindUpstream
	// KindEmpty is a valid search that produced no doctors.
	KindEmpty
)

// Classify returns the kind of err based on its outermost application code.
func Classify(err error) ErrorKind {
	switch ErrorCode(err) {
	case EEMPTYINPUT, EMISSINGLOCATION, EINVALID:
		return KindInput
	case EUPSTREAM, ENETWORK, EPARSE:
		return KindUpstream
	case ENORESULTS, ENOMATCHES:
		return KindEmpty
	default:
		return KindInternal
	}
}
