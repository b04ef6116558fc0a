package policy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that block the operation.
	SeverityError Severity = "error"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// Field is the configuration field involved, if any.
	Field string `json:"field,omitempty"`
}

// Input is the evaluation input handed to every policy.
type Input struct {
	// Action is the lifecycle operation being authorized
	// (create, update, delete).
	Action string `json:"action"`

	// Resource is the logical name of the network being operated on.
	Resource string `json:"resource,omitempty"`

	// Config is the desired configuration supplied by the caller.
	Config map[string]interface{} `json:"config,omitempty"`

	// Context describes who performs the operation and where.
	Context *Context `json:"context"`
}

// Context describes the caller and environment of an operation.
type Context struct {
	// User is the caller performing the operation.
	User string `json:"user,omitempty"`

	// Roles are the caller's roles.
	Roles []string `json:"roles,omitempty"`

	// Environment is the deployment environment (development, production).
	Environment string `json:"environment,omitempty"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`

	// DryRun indicates the operation will not be submitted.
	DryRun bool `json:"dry_run"`
}

// Result represents the outcome of a policy evaluation.
type Result struct {
	// Allowed indicates if the operation may proceed.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations, including non-blocking ones.
	Violations []Violation `json:"violations,omitempty"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// ForbiddenError is returned when policy evaluation denies an operation.
type ForbiddenError struct {
	// Action is the denied operation.
	Action string

	// Violations are the blocking violations.
	Violations []Violation
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return fmt.Sprintf("action %s forbidden by policy: %s", e.Action, strings.Join(msgs, "; "))
}

// IsForbidden returns true if the error chain contains a policy denial.
func IsForbidden(err error) bool {
	var e *ForbiddenError
	return errors.As(err, &e)
}
