package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openvnet/openvnet/pkg/config"
	"github.com/openvnet/openvnet/pkg/descriptor"
	"github.com/openvnet/openvnet/pkg/lifecycle"
	"github.com/openvnet/openvnet/pkg/netplane"
	"github.com/openvnet/openvnet/pkg/policy"
	"github.com/openvnet/openvnet/pkg/scheduler"
	"github.com/openvnet/openvnet/pkg/stores"
	"github.com/openvnet/openvnet/pkg/telemetry"
)

// runtime bundles the wired components every command needs: settings,
// telemetry, the state store, the control plane client, the policy
// enforcer, and the per-network operation guard.
type runtime struct {
	settings *config.Settings
	tel      *telemetry.Telemetry
	store    *stores.SQLiteStore
	client   netplane.Client
	enforcer *policy.Enforcer
	guard    *scheduler.Guard
}

// newRuntime loads settings and wires the component stack.
func newRuntime(ctx context.Context) (*runtime, error) {
	settings := config.DefaultSettings()
	if configPath != "" {
		loaded, err := config.LoadSettings(configPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	if verbose {
		settings.Telemetry.LogLevel = "debug"
	}

	tel, err := telemetry.NewTelemetry(settings.Telemetry.ToTelemetry(cliVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if err := tel.StartMetricsServer(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: settings.Store.Path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	client, err := newControlPlaneClient(settings.ControlPlane.Endpoint)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var enforcer *policy.Enforcer
	if settings.Policy.Enabled {
		enforcer, err = policy.NewEnforcer(tel.Logger.Zerolog())
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if len(settings.Policy.Paths) > 0 {
			if err := enforcer.LoadPolicies(ctx, settings.Policy.Paths); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
	}

	return &runtime{
		settings: settings,
		tel:      tel,
		store:    store,
		client:   client,
		enforcer: enforcer,
		guard:    scheduler.NewGuard(),
	}, nil
}

// close releases the runtime's resources.
func (r *runtime) close(ctx context.Context) {
	if err := r.store.Close(); err != nil {
		r.tel.Logger.Warn("Failed to close state store")
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = r.tel.Shutdown(shutdownCtx)
}

// newControlPlaneClient builds a client for the configured endpoint. The
// memory:// scheme selects the in-process control plane.
func newControlPlaneClient(endpoint string) (netplane.Client, error) {
	if strings.HasPrefix(endpoint, "memory://") {
		return netplane.NewFake(), nil
	}
	return nil, fmt.Errorf("unsupported control plane endpoint scheme: %s", endpoint)
}

// controller builds a lifecycle controller for the named network and
// rehydrates it from the store when a record exists. The returned record
// is nil for a network the controller has never seen.
func (r *runtime) controller(ctx context.Context, name string) (*lifecycle.Controller, *stores.NetworkRecord, error) {
	ctrl := lifecycle.NewController(name, r.client, descriptor.Network(), lifecycle.Options{
		Logger:  r.tel.Logger.Zerolog(),
		Metrics: r.tel.Metrics,
	})

	record, err := r.store.GetNetwork(ctx, name)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return ctrl, nil, nil
		}
		return nil, nil, err
	}

	var applied descriptor.Config
	if record.LastApplied != nil {
		if err := json.Unmarshal([]byte(*record.LastApplied), &applied); err != nil {
			return nil, nil, fmt.Errorf("corrupt applied config for network %s: %w", name, err)
		}
	}
	handle := ""
	if record.Handle != nil {
		handle = *record.Handle
	}
	if err := ctrl.Restore(lifecycle.Phase(record.Phase), handle, applied); err != nil {
		return nil, nil, fmt.Errorf("failed to restore network %s: %w", name, err)
	}
	return ctrl, record, nil
}

// saveState persists the controller's current state and appends a
// transition event when the phase changed. opErr, when non-nil, is stored
// as the record's last error.
func (r *runtime) saveState(ctx context.Context, record *stores.NetworkRecord, ctrl *lifecycle.Controller, operation string, opErr error) error {
	fromPhase := record.Phase
	toPhase := string(ctrl.Phase())

	record.Phase = toPhase
	record.Handle = nil
	if h := ctrl.Handle(); h != "" {
		record.Handle = &h
	}
	record.LastApplied = nil
	if applied := ctrl.Applied(); applied != nil {
		data, err := json.Marshal(applied)
		if err != nil {
			return fmt.Errorf("failed to encode applied config: %w", err)
		}
		s := string(data)
		record.LastApplied = &s
	}
	record.LastObserved = nil
	if observed := ctrl.Observed(); observed != nil {
		data, err := json.Marshal(observed)
		if err != nil {
			return fmt.Errorf("failed to encode observed state: %w", err)
		}
		s := string(data)
		record.LastObserved = &s
	}
	record.LastError = nil
	if opErr != nil {
		msg := opErr.Error()
		record.LastError = &msg
	}

	if err := r.store.UpsertNetwork(ctx, record); err != nil {
		return err
	}

	if fromPhase != toPhase {
		event := &stores.TransitionEvent{
			NetworkID: record.ID,
			FromPhase: fromPhase,
			ToPhase:   toPhase,
			Operation: operation,
			Error:     record.LastError,
			Timestamp: time.Now().UTC(),
		}
		if err := r.store.AppendTransition(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// enforcePolicy runs the policy check for one operation. A nil enforcer
// means enforcement is disabled.
func (r *runtime) enforcePolicy(ctx context.Context, action, resource string, cfg descriptor.Config, roles []string, dryRun bool) error {
	if r.enforcer == nil {
		return nil
	}
	input := &policy.Input{
		Action:   action,
		Resource: resource,
		Config:   cfg,
		Context: &policy.Context{
			User:        os.Getenv("USER"),
			Roles:       roles,
			Environment: r.environment(),
			Timestamp:   time.Now(),
			DryRun:      dryRun,
		},
	}
	return r.enforcer.Enforce(ctx, input)
}

func (r *runtime) environment() string {
	if r.settings.Telemetry.Environment != "" {
		return r.settings.Telemetry.Environment
	}
	return "development"
}

// poller builds the completion poller from the configured cadence.
func (r *runtime) poller() *scheduler.Poller {
	return &scheduler.Poller{
		Interval: r.settings.Poll.Interval,
		Deadline: r.settings.Poll.Deadline,
		Logger:   r.tel.Logger.Zerolog(),
	}
}
