package lifecycle

import (
	"errors"
	"fmt"

	"github.com/openvnet/openvnet/pkg/netplane"
)

// Kind classifies a lifecycle failure for the caller's recovery logic.
type Kind string

const (
	// KindSubmission indicates the control plane rejected a create, update,
	// or delete request outright.
	KindSubmission Kind = "submission"

	// KindTimeout indicates a completion poll deadline elapsed before the
	// network reached its built state.
	KindTimeout Kind = "timeout"

	// KindUnclassified indicates a remote failure not covered by the
	// tolerance table. Always fatal, never silently swallowed.
	KindUnclassified Kind = "unclassified"
)

// Error is a classified lifecycle failure. The underlying remote error stays
// in the chain, so the original status code remains extractable with
// netplane.StatusCode.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// Op is the remote call that failed, if the failure came from one.
	Op netplane.Op

	// Message is the human-readable failure description.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s (operation=%s): %s", e.Kind, e.Message, e.Op, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// NewSubmissionError creates a submission error for a rejected request.
func NewSubmissionError(op netplane.Op, message string, err error) *Error {
	return &Error{Kind: KindSubmission, Op: op, Message: message, Err: err}
}

// NewTimeoutError creates a timeout error for an expired poll deadline.
func NewTimeoutError(message string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

// NewUnclassifiedError creates an unclassified error for a remote failure
// outside the tolerance table.
func NewUnclassifiedError(op netplane.Op, message string, err error) *Error {
	return &Error{Kind: KindUnclassified, Op: op, Message: message, Err: err}
}

// IsSubmission returns true if the error is classified as a submission failure.
func IsSubmission(err error) bool {
	return kindOf(err) == KindSubmission
}

// IsTimeout returns true if the error is classified as a poll timeout.
func IsTimeout(err error) bool {
	return kindOf(err) == KindTimeout
}

// IsUnclassified returns true if the error is an unclassified remote failure.
func IsUnclassified(err error) bool {
	return kindOf(err) == KindUnclassified
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
