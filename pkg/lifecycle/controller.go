package lifecycle

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openvnet/openvnet/pkg/descriptor"
	"github.com/openvnet/openvnet/pkg/netplane"
	"github.com/openvnet/openvnet/pkg/reconcile"
	"github.com/openvnet/openvnet/pkg/telemetry"
)

// IsBuiltFunc decides whether a freshly fetched snapshot represents a built
// network. Returning an error marks the network as failed.
type IsBuiltFunc func(snapshot netplane.Snapshot) (bool, error)

// DefaultIsBuilt is the stock completion predicate: ACTIVE and DOWN count as
// built, BUILD as still provisioning, ERROR as failed. A snapshot without a
// status field counts as built, matching control planes that omit the field
// for instantly provisioned networks. Any other status is unexpected and
// fails.
func DefaultIsBuilt(snapshot netplane.Snapshot) (bool, error) {
	switch snapshot.Status() {
	case "ACTIVE", "DOWN", "":
		return true, nil
	case "BUILD":
		return false, nil
	case "ERROR":
		return false, fmt.Errorf("network went to ERROR status")
	default:
		return false, fmt.Errorf("unknown network status %q", snapshot.Status())
	}
}

// Options configures a controller. The zero value is usable: the default
// completion predicate applies and telemetry is disabled.
type Options struct {
	// IsBuilt overrides the completion predicate.
	IsBuilt IsBuiltFunc

	// Logger receives controller logs.
	Logger zerolog.Logger

	// Metrics receives controller metrics; may be nil.
	Metrics *telemetry.Metrics
}

// Controller owns the lifecycle of one logical network. It is not safe for
// concurrent use: the caller must not issue a new transition while a
// previous one's completion poll is outstanding.
type Controller struct {
	client     netplane.Client
	desc       *descriptor.Descriptor
	projector  *descriptor.Projector
	reconciler *reconcile.Reconciler
	isBuilt    IsBuiltFunc
	logger     zerolog.Logger
	metrics    *telemetry.Metrics

	name         string
	phase        Phase
	handle       string
	lastApplied  descriptor.Config
	lastObserved netplane.Snapshot
}

// NewController creates a controller for one logical network. The name is
// the physical name substituted for the derived name field when the
// configuration does not supply one.
func NewController(name string, client netplane.Client, desc *descriptor.Descriptor, opts Options) *Controller {
	isBuilt := opts.IsBuilt
	if isBuilt == nil {
		isBuilt = DefaultIsBuilt
	}
	logger := opts.Logger.With().
		Str("component", "lifecycle").
		Str("network_name", name).
		Logger()

	return &Controller{
		client:     client,
		desc:       desc,
		projector:  descriptor.NewProjector(desc),
		reconciler: reconcile.New(opts.Logger, opts.Metrics),
		isBuilt:    isBuilt,
		logger:     logger,
		metrics:    opts.Metrics,
		name:       name,
		phase:      PhaseAbsent,
	}
}

// Restore rehydrates the controller from persisted state so a new process
// can pick up a network mid-lifecycle. A transitional or active phase
// requires the handle the control plane assigned.
func (c *Controller) Restore(phase Phase, handle string, applied descriptor.Config) error {
	if err := phase.Validate(); err != nil {
		return err
	}
	if handle == "" && phase != PhaseAbsent && phase != PhaseError {
		return fmt.Errorf("phase %s requires a control plane handle", phase)
	}
	c.phase = phase
	c.handle = handle
	c.lastApplied = nil
	if applied != nil {
		c.lastApplied = make(descriptor.Config, len(applied))
		for k, v := range applied {
			c.lastApplied[k] = v
		}
	}
	return nil
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Handle returns the identifier assigned by the control plane, or an empty
// string before a successful create.
func (c *Controller) Handle() string {
	return c.handle
}

// Observed returns the last snapshot fetched by a completion poll, or nil.
func (c *Controller) Observed() netplane.Snapshot {
	return c.lastObserved
}

// Applied returns a copy of the configuration last accepted by the control
// plane, for persistence and diffing.
func (c *Controller) Applied() descriptor.Config {
	if c.lastApplied == nil {
		return nil
	}
	out := make(descriptor.Config, len(c.lastApplied))
	for k, v := range c.lastApplied {
		out[k] = v
	}
	return out
}

// Attribute resolves a read-only attribute from the last fetched snapshot.
func (c *Controller) Attribute(name string) (interface{}, error) {
	if !c.desc.HasAttribute(name) {
		return nil, fmt.Errorf("unknown attribute %q for resource %s", name, c.desc.Resource)
	}
	if c.lastObserved == nil {
		return nil, fmt.Errorf("no observed state for network %s", c.name)
	}
	if name == descriptor.AttrShow {
		return map[string]interface{}(c.lastObserved), nil
	}
	return c.lastObserved[name], nil
}

// Create submits the network creation request and, when the configuration
// carries a scheduling field, reconciles the agent associations right after
// the handle is assigned. The network stays in the creating phase until a
// completion poll observes it built; an association failure surfaces to the
// caller but does not roll back the creation.
func (c *Controller) Create(ctx context.Context, cfg descriptor.Config) error {
	if c.phase != PhaseAbsent && c.phase != PhaseError {
		return fmt.Errorf("cannot create network in phase %s", c.phase)
	}

	payload, agents := c.projector.ProjectCreate(cfg, c.name)

	var id string
	err := c.call(netplane.OpCreate, func() error {
		var callErr error
		id, callErr = c.client.CreateNetwork(ctx, payload)
		return callErr
	})
	if err != nil {
		c.setPhase(PhaseError)
		c.metrics.RecordError(string(KindSubmission))
		return NewSubmissionError(netplane.OpCreate, "network creation rejected", err)
	}

	c.handle = id
	c.lastApplied = cfg
	c.setPhase(PhaseCreating)
	c.logger.Info().Str("network_id", id).Msg("Network creation submitted")

	if agents != nil {
		if err := c.reconcileAgents(ctx, agents); err != nil {
			return err
		}
	}
	return nil
}

// PollCreateComplete fetches a fresh snapshot and reports whether the
// network is built, transitioning to active when it is. It is designed to be
// called repeatedly by an external poll driver.
func (c *Controller) PollCreateComplete(ctx context.Context) (bool, error) {
	return c.pollBuilt(ctx)
}

// PollUpdateComplete reports whether the network settled after an update.
func (c *Controller) PollUpdateComplete(ctx context.Context) (bool, error) {
	return c.pollBuilt(ctx)
}

func (c *Controller) pollBuilt(ctx context.Context) (bool, error) {
	var snapshot netplane.Snapshot
	err := c.call(netplane.OpShow, func() error {
		var callErr error
		snapshot, callErr = c.client.ShowNetwork(ctx, c.handle)
		return callErr
	})
	if err != nil {
		c.metrics.RecordError(string(KindUnclassified))
		return false, NewUnclassifiedError(netplane.OpShow, "fetching network state failed", err)
	}

	c.lastObserved = snapshot
	built, err := c.isBuilt(snapshot)
	if err != nil {
		c.setPhase(PhaseError)
		return false, err
	}

	c.metrics.RecordPollAttempt(built)
	if built {
		c.setPhase(PhaseActive)
	}
	return built, nil
}

// Update applies a sparse configuration diff. A scheduling-field change is
// reconciled out-of-band and never triggers a network update by itself; the
// phase moves to updating only when a remote update call was actually
// issued. A rejected update leaves the previous configuration in force and
// the network active.
func (c *Controller) Update(ctx context.Context, diff descriptor.Config) error {
	if c.phase != PhaseActive {
		return fmt.Errorf("cannot update network in phase %s", c.phase)
	}

	payload, agents, agentsPresent := c.projector.ProjectUpdate(diff)

	if agentsPresent {
		if err := c.reconcileAgents(ctx, agents); err != nil {
			return err
		}
	}

	if len(payload) > 0 {
		err := c.call(netplane.OpUpdate, func() error {
			return c.client.UpdateNetwork(ctx, c.handle, payload)
		})
		if err != nil {
			c.metrics.RecordError(string(KindSubmission))
			return NewSubmissionError(netplane.OpUpdate, "network update rejected", err)
		}
		c.setPhase(PhaseUpdating)
	}

	c.mergeApplied(diff)
	return nil
}

// Delete removes the network from the control plane. A network the control
// plane no longer knows counts as already deleted. Agent associations are
// not removed separately; deleting the network cascades on the control-plane
// side.
func (c *Controller) Delete(ctx context.Context) error {
	if c.handle == "" {
		c.setPhase(PhaseAbsent)
		return nil
	}

	c.setPhase(PhaseDeleting)
	err := c.call(netplane.OpDelete, func() error {
		return c.client.DeleteNetwork(ctx, c.handle)
	})
	if err != nil && netplane.Classify(netplane.OpDelete, err) == netplane.OutcomeFatal {
		c.setPhase(PhaseError)
		c.metrics.RecordError(string(KindSubmission))
		return NewSubmissionError(netplane.OpDelete, "network deletion rejected", err)
	}

	c.logger.Info().Str("network_id", c.handle).Msg("Network deleted")
	c.handle = ""
	c.lastObserved = nil
	c.setPhase(PhaseAbsent)
	return nil
}

// reconcileAgents converges the agent associations toward the desired set.
// The observed set is fetched fresh immediately before reconciling; it is
// never cached, so the diff is computed against current membership.
func (c *Controller) reconcileAgents(ctx context.Context, desired []string) error {
	var observed []string
	err := c.call(netplane.OpListAgents, func() error {
		var callErr error
		observed, callErr = c.client.ListDHCPAgents(ctx, c.handle)
		return callErr
	})
	if err != nil {
		c.metrics.RecordError(string(KindUnclassified))
		return NewUnclassifiedError(netplane.OpListAgents, "listing dhcp agents failed", err)
	}

	ops := reconcile.Ops{
		Add: func(ctx context.Context, agentID string) error {
			return c.call(netplane.OpAddAgent, func() error {
				return c.client.AddNetworkToAgent(ctx, agentID, c.handle)
			})
		},
		Remove: func(ctx context.Context, agentID string) error {
			return c.call(netplane.OpRemoveAgent, func() error {
				return c.client.RemoveNetworkFromAgent(ctx, agentID, c.handle)
			})
		},
	}

	if err := c.reconciler.Associations(ctx, desired, observed, ops); err != nil {
		c.metrics.RecordError(string(KindUnclassified))
		return NewUnclassifiedError("", "agent association reconciliation failed", err)
	}
	return nil
}

// call times one remote call and records its metrics.
func (c *Controller) call(op netplane.Op, fn func() error) error {
	timer := telemetry.NewTimer()
	err := fn()
	c.metrics.RecordRemoteCall(string(op), timer.Duration())
	if err != nil {
		code, _ := netplane.StatusCode(err)
		c.metrics.RecordRemoteError(string(op), code)
	}
	return err
}

func (c *Controller) setPhase(phase Phase) {
	if c.phase == phase {
		return
	}
	c.logger.Debug().
		Str("from", string(c.phase)).
		Str("to", string(phase)).
		Msg("Phase transition")
	c.phase = phase
	c.metrics.RecordTransition(string(phase))
}

func (c *Controller) mergeApplied(diff descriptor.Config) {
	if c.lastApplied == nil {
		c.lastApplied = make(descriptor.Config, len(diff))
	}
	for k, v := range diff {
		c.lastApplied[k] = v
	}
}
