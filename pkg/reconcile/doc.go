// Package reconcile converges a desired set of DHCP-agent associations with
// the set observed on the remote control plane.
//
// The reconciler computes the minimal diff (agents to add, agents to
// remove), applies additions before removals so a desired association is
// never briefly absent, and tolerates the remote failures that mean "already
// done" (a conflicting add, a removal of something already gone). Any other
// failure aborts the pass immediately; partial application is acceptable
// because a later pass with a fresh observation converges on the remainder.
package reconcile
