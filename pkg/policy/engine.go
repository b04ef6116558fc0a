package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
)

// Enforcer evaluates Rego policies against lifecycle operations.
type Enforcer struct {
	mu       sync.RWMutex
	policies map[string]*compiledPolicy
	logger   zerolog.Logger
}

// compiledPolicy is a policy with its prepared deny query.
type compiledPolicy struct {
	policy   *Policy
	query    rego.PreparedEvalQuery
	compiled time.Time
}

// NewEnforcer creates an enforcer with the built-in policies loaded.
func NewEnforcer(logger zerolog.Logger) (*Enforcer, error) {
	e := &Enforcer{
		policies: make(map[string]*compiledPolicy),
		logger:   logger.With().Str("component", "policy-enforcer").Logger(),
	}

	builtin := GetBuiltinPolicies()
	for i := range builtin {
		if err := e.compileAndStore(context.Background(), &builtin[i]); err != nil {
			return nil, fmt.Errorf("failed to compile built-in policy %s: %w", builtin[i].Name, err)
		}
	}
	e.logger.Info().Int("count", len(builtin)).Msg("Built-in policies loaded")

	return e, nil
}

// Enforce evaluates all enabled policies and fails with a ForbiddenError
// when any blocking violation is found.
func (e *Enforcer) Enforce(ctx context.Context, input *Input) error {
	result, err := e.Evaluate(ctx, input)
	if err != nil {
		return err
	}
	if result.Allowed {
		return nil
	}

	var blocking []Violation
	for _, v := range result.Violations {
		if v.Severity == SeverityError {
			blocking = append(blocking, v)
		}
	}
	e.logger.Warn().
		Str("action", input.Action).
		Str("resource", input.Resource).
		Int("violations", len(blocking)).
		Msg("Operation forbidden by policy")
	return &ForbiddenError{Action: input.Action, Violations: blocking}
}

// Evaluate runs all enabled policies against the input and collects their
// violations. The operation is allowed when no error-severity violation is
// present.
func (e *Enforcer) Evaluate(ctx context.Context, input *Input) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var violations []Violation
	for _, cp := range e.policies {
		if !cp.policy.Enabled {
			continue
		}

		results, err := cp.query.Eval(ctx, rego.EvalInput(input))
		if err != nil {
			return nil, fmt.Errorf("policy %s evaluation failed: %w", cp.policy.Name, err)
		}

		for _, result := range results {
			for _, expr := range result.Expressions {
				denySet, ok := expr.Value.([]interface{})
				if !ok {
					continue
				}
				for _, d := range denySet {
					violations = append(violations, toViolation(cp.policy, d))
				}
			}
		}
	}

	allowed := true
	for i := range violations {
		if violations[i].Severity == SeverityError {
			allowed = false
			break
		}
	}

	return &Result{
		Allowed:     allowed,
		Violations:  violations,
		EvaluatedAt: time.Now(),
	}, nil
}

// LoadPolicies loads and compiles policies from files or directories,
// adding them to the built-in set.
func (e *Enforcer) LoadPolicies(ctx context.Context, paths []string) error {
	loader := NewLoader(e.logger)
	policies, err := loader.LoadFromPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}
	return e.ReplaceLoaded(ctx, policies)
}

// ReplaceLoaded swaps the non-builtin policies for the given set. It is the
// reload callback used by the loader's file watcher.
func (e *Enforcer) ReplaceLoaded(ctx context.Context, policies []Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	builtinNames := make(map[string]bool)
	for _, p := range GetBuiltinPolicies() {
		builtinNames[p.Name] = true
	}
	for name := range e.policies {
		if !builtinNames[name] {
			delete(e.policies, name)
		}
	}

	for i := range policies {
		if err := e.compileAndStore(ctx, &policies[i]); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", policies[i].Name, err)
		}
	}

	e.logger.Info().Int("count", len(policies)).Msg("Policies loaded")
	return nil
}

// GetPolicy returns a policy by name.
func (e *Enforcer) GetPolicy(name string) (*Policy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp, exists := e.policies[name]
	if !exists {
		return nil, fmt.Errorf("policy not found: %s", name)
	}
	return cp.policy, nil
}

// ListPolicies returns all loaded policies.
func (e *Enforcer) ListPolicies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	policies := make([]Policy, 0, len(e.policies))
	for _, cp := range e.policies {
		policies = append(policies, *cp.policy)
	}
	return policies
}

// SetPolicyEnabled enables or disables a policy by name.
func (e *Enforcer) SetPolicyEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp, exists := e.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}
	cp.policy.Enabled = enabled
	e.logger.Info().Str("policy", name).Bool("enabled", enabled).Msg("Policy toggled")
	return nil
}

// compileAndStore parses the policy module and prepares its deny query for
// reuse. Callers hold the write lock where needed.
func (e *Enforcer) compileAndStore(ctx context.Context, policy *Policy) error {
	if _, err := ast.ParseModule(policy.Name, policy.Rego); err != nil {
		return fmt.Errorf("failed to parse policy: %w", err)
	}

	query := fmt.Sprintf("data.%s.deny", extractPackageName(policy.Rego))
	prepared, err := rego.New(
		rego.Module(policy.Name, policy.Rego),
		rego.Query(query),
	).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare query: %w", err)
	}

	e.policies[policy.Name] = &compiledPolicy{
		policy:   policy,
		query:    prepared,
		compiled: time.Now(),
	}

	e.logger.Debug().Str("policy", policy.Name).Msg("Policy compiled")
	return nil
}

// extractPackageName extracts the package name from Rego code.
func extractPackageName(code string) string {
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "openvnet.policies"
}

// toViolation converts one deny result into a Violation.
func toViolation(policy *Policy, result interface{}) Violation {
	violation := Violation{
		Policy:   policy.Name,
		Severity: policy.Severity,
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			violation.Severity = Severity(sev)
		}
		if field, ok := v["field"].(string); ok {
			violation.Field = field
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}

	return violation
}
