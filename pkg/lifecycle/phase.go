package lifecycle

import "fmt"

// Phase represents the lifecycle phase of a managed network.
type Phase string

const (
	// PhaseAbsent indicates the network does not exist on the control plane.
	PhaseAbsent Phase = "absent"

	// PhaseCreating indicates a creation request was accepted and the network
	// is provisioning.
	PhaseCreating Phase = "creating"

	// PhaseActive indicates the network reached its built state.
	PhaseActive Phase = "active"

	// PhaseUpdating indicates an update request was accepted and the network
	// is reconfiguring.
	PhaseUpdating Phase = "updating"

	// PhaseDeleting indicates a deletion request is in flight.
	PhaseDeleting Phase = "deleting"

	// PhaseError indicates a transition failed with an unclassified error.
	PhaseError Phase = "error"
)

// IsTransitional returns true if the phase represents an in-flight operation.
func (p Phase) IsTransitional() bool {
	return p == PhaseCreating || p == PhaseUpdating || p == PhaseDeleting
}

// IsTerminal returns true if the phase represents a settled state.
func (p Phase) IsTerminal() bool {
	return p == PhaseAbsent || p == PhaseActive || p == PhaseError
}

// Validate checks if the phase is valid.
func (p Phase) Validate() error {
	switch p {
	case PhaseAbsent, PhaseCreating, PhaseActive,
		PhaseUpdating, PhaseDeleting, PhaseError:
		return nil
	default:
		return fmt.Errorf("invalid lifecycle phase: %s", p)
	}
}
