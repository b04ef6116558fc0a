// Package netplane defines the contract between the lifecycle controller and
// the remote network control plane.
//
// The control plane owns authoritative state for every managed network and
// its DHCP-agent scheduling. This package deliberately contains no transport:
// it exposes the Client interface that real drivers implement, the RemoteError
// type every driver must return on failure, and the central classification
// table that decides which remote failures are ignorable.
//
// An in-memory Fake implementation ships alongside the interface. It backs
// the package tests across the repository and the `vnetctl dev` workflow.
package netplane
