// Package lifecycle drives a virtual network through its phases against a
// remote control plane: create, poll until built, update, poll until built,
// delete. The controller performs no internal concurrency and embeds no
// sleep loops; completion is a single-shot predicate over a freshly fetched
// snapshot, designed to be invoked repeatedly by an external poll driver.
//
// Each controller instance owns exactly one logical network. The remote
// handle and the last applied configuration are private to the instance; no
// two controllers may operate on the same handle concurrently.
package lifecycle
