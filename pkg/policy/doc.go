// Package policy enforces authorization rules in front of lifecycle
// operations. Rules are Rego policies evaluated with OPA: built-in policies
// guard owner-only descriptor fields and destructive operations, and
// additional policies can be loaded from disk and hot-reloaded on change.
//
// The lifecycle core itself performs no authorization; callers place the
// enforcer in front of create/update/delete and treat a Forbidden error as
// a refusal to proceed.
package policy
