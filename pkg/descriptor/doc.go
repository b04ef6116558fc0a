// Package descriptor declares the configurable and read-only fields of a
// managed network resource, and projects a resolved configuration into the
// exact payload sent to the remote control plane.
//
// The descriptor itself is pure data: a process-wide, immutable mapping from
// field name to its type, default, and mutability flags. The Projector is a
// pure transform over it with no remote side effects. Input validation
// happens upstream (pkg/config and the policy enforcer), so projection has
// no error conditions of its own.
package descriptor
