package reconcile

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/openvnet/openvnet/pkg/netplane"
	"github.com/openvnet/openvnet/pkg/telemetry"
)

// Ops are the remote operations the reconciler drives. Both must be
// idempotent at the control plane: the reconciler may re-issue them across
// passes.
type Ops struct {
	// Add associates an agent with the managed network.
	Add func(ctx context.Context, agentID string) error

	// Remove dissociates an agent from the managed network.
	Remove func(ctx context.Context, agentID string) error
}

// Reconciler applies minimal-diff association changes.
type Reconciler struct {
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

// New creates a reconciler. The metrics collector may be nil.
func New(logger zerolog.Logger, metrics *telemetry.Metrics) *Reconciler {
	return &Reconciler{
		logger:  logger.With().Str("component", "reconciler").Logger(),
		metrics: metrics,
	}
}

// Associations converges the observed agent set toward the desired set.
//
// Additions run before removals. Within each phase agents are processed in
// sorted order; the operations are independent, so ordering only buys
// deterministic logs and tests. A conflicting add (409) and a removal of an
// association that is already gone (404 or 409) count as success. Any other
// failure propagates immediately with the remaining operations unissued;
// the next pass self-heals because it starts from a fresh observation.
func (r *Reconciler) Associations(ctx context.Context, desired, observed []string, ops Ops) error {
	toAdd, toRemove := diff(desired, observed)

	r.logger.Debug().
		Strs("to_add", toAdd).
		Strs("to_remove", toRemove).
		Msg("Reconciling agent associations")

	for _, agentID := range toAdd {
		if err := r.apply(ctx, netplane.OpAddAgent, agentID, ops.Add); err != nil {
			return err
		}
	}
	for _, agentID := range toRemove {
		if err := r.apply(ctx, netplane.OpRemoveAgent, agentID, ops.Remove); err != nil {
			return err
		}
	}
	return nil
}

// apply runs one association operation and folds ignorable failures into
// success via the central classification table.
func (r *Reconciler) apply(ctx context.Context, op netplane.Op, agentID string, fn func(context.Context, string) error) error {
	err := fn(ctx, agentID)
	if err == nil {
		r.metrics.RecordReconcileOp(string(op), "applied")
		return nil
	}

	if netplane.Classify(op, err) == netplane.OutcomeIgnore {
		code, _ := netplane.StatusCode(err)
		r.logger.Debug().
			Str("agent_id", agentID).
			Str("op", string(op)).
			Int("status", code).
			Msg("Association already in desired state")
		r.metrics.RecordReconcileOp(string(op), "ignored")
		return nil
	}

	r.logger.Error().Err(err).
		Str("agent_id", agentID).
		Str("op", string(op)).
		Msg("Association operation failed")
	r.metrics.RecordReconcileOp(string(op), "failed")
	return err
}

// diff returns desired−observed and observed−desired, each sorted.
func diff(desired, observed []string) (toAdd, toRemove []string) {
	want := toSet(desired)
	have := toSet(observed)

	for id := range want {
		if !have[id] {
			toAdd = append(toAdd, id)
		}
	}
	for id := range have {
		if !want[id] {
			toRemove = append(toRemove, id)
		}
	}
	sort.Strings(toAdd)
	sort.Strings(toRemove)
	return toAdd, toRemove
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
