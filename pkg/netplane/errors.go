package netplane

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is the typed failure returned by every Client call. It carries
// the HTTP-level status code reported by the control plane so that callers
// can classify the failure without inspecting message text.
type RemoteError struct {
	// Op is the remote call that failed.
	Op Op

	// StatusCode is the status code reported by the control plane.
	StatusCode int

	// Message is the control plane's failure description, if any.
	Message string

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError creates a RemoteError for the given call and status code.
func NewRemoteError(op Op, statusCode int, message string) *RemoteError {
	return &RemoteError{Op: op, StatusCode: statusCode, Message: message}
}

// StatusCode extracts the control-plane status code from an error chain.
// The second return is false when no RemoteError is present in the chain.
func StatusCode(err error) (int, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.StatusCode, true
	}
	return 0, false
}

// IsStatus reports whether the error chain contains a RemoteError with the
// given status code.
func IsStatus(err error, statusCode int) bool {
	code, ok := StatusCode(err)
	return ok && code == statusCode
}

// Outcome is the classification of a remote failure.
type Outcome int

const (
	// OutcomeFatal means the failure must propagate to the caller.
	OutcomeFatal Outcome = iota

	// OutcomeIgnore means the failure is equivalent to success for the
	// operation that produced it and must be swallowed at the call site.
	OutcomeIgnore
)

// ignorable is the full tolerance table, keyed on (operation kind, status
// code). Adding an entry here is the only supported way to tolerate a new
// remote failure; call sites must not carry their own status checks.
var ignorable = map[Op]map[int]bool{
	// The agent is already hosting the network.
	OpAddAgent: {
		http.StatusConflict: true,
	},
	// 404: the network or the agent is already gone.
	// 409: the network is not scheduled on the agent.
	OpRemoveAgent: {
		http.StatusNotFound: true,
		http.StatusConflict: true,
	},
	// The network is already deleted.
	OpDelete: {
		http.StatusNotFound: true,
	},
}

// Classify decides whether a remote failure is ignorable for the given
// operation kind. Errors without a RemoteError in their chain, and any
// (operation, status) pair not present in the tolerance table, are fatal.
func Classify(op Op, err error) Outcome {
	if err == nil {
		return OutcomeIgnore
	}
	code, ok := StatusCode(err)
	if !ok {
		return OutcomeFatal
	}
	if ignorable[op][code] {
		return OutcomeIgnore
	}
	return OutcomeFatal
}
