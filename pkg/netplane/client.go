package netplane

import (
	"context"
)

// Payload is the network body sent to the control plane on create and update.
// Keys are control-plane field names; values are already resolved by the
// projector, so drivers transmit the map as-is.
type Payload map[string]interface{}

// Snapshot is the observed state of a network as returned by a show call.
type Snapshot map[string]interface{}

// Status returns the provisioning status field of the snapshot, or an empty
// string when the control plane did not report one.
func (s Snapshot) Status() string {
	if v, ok := s["status"].(string); ok {
		return v
	}
	return ""
}

// ID returns the control-plane identifier recorded in the snapshot.
func (s Snapshot) ID() string {
	if v, ok := s["id"].(string); ok {
		return v
	}
	return ""
}

// Client is the set of remote calls the lifecycle controller consumes.
// Every method is a single synchronous remote call. Implementations must
// return a *RemoteError (possibly wrapped) for any control-plane rejection
// so that callers can classify it by status code.
type Client interface {
	// CreateNetwork submits a network creation request and returns the
	// identifier assigned by the control plane.
	CreateNetwork(ctx context.Context, payload Payload) (string, error)

	// ShowNetwork fetches a fresh snapshot of the network. Missing networks
	// fail with status 404.
	ShowNetwork(ctx context.Context, networkID string) (Snapshot, error)

	// UpdateNetwork applies a sparse payload to an existing network.
	UpdateNetwork(ctx context.Context, networkID string, payload Payload) error

	// DeleteNetwork removes the network. Deleting the network cascades to its
	// agent associations on the control-plane side.
	DeleteNetwork(ctx context.Context, networkID string) error

	// ListDHCPAgents returns the identifiers of the DHCP agents currently
	// hosting the network.
	ListDHCPAgents(ctx context.Context, networkID string) ([]string, error)

	// AddNetworkToAgent schedules the network on a DHCP agent. Already
	// associated pairs fail with status 409.
	AddNetworkToAgent(ctx context.Context, agentID, networkID string) error

	// RemoveNetworkFromAgent unschedules the network from a DHCP agent.
	// Missing networks or agents fail with 404, unscheduled pairs with 409.
	RemoveNetworkFromAgent(ctx context.Context, agentID, networkID string) error
}

// Op identifies a remote call kind for error classification.
type Op string

const (
	// OpCreate is the network creation call.
	OpCreate Op = "create-network"

	// OpShow is the network snapshot fetch.
	OpShow Op = "show-network"

	// OpUpdate is the network update call.
	OpUpdate Op = "update-network"

	// OpDelete is the network deletion call.
	OpDelete Op = "delete-network"

	// OpListAgents lists the DHCP agents hosting a network.
	OpListAgents Op = "list-dhcp-agents"

	// OpAddAgent schedules a network on a DHCP agent.
	OpAddAgent Op = "add-network-to-agent"

	// OpRemoveAgent unschedules a network from a DHCP agent.
	OpRemoveAgent Op = "remove-network-from-agent"
)
