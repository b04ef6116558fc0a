package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openvnet/openvnet/pkg/config"
	"github.com/openvnet/openvnet/pkg/lifecycle"
	"github.com/openvnet/openvnet/pkg/stores"
	"github.com/openvnet/openvnet/pkg/telemetry"
)

func newCreateCommand() *cobra.Command {
	var (
		manifestPath string
		roles        []string
		wait         bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a network from a manifest",
		Long: `Create a virtual network on the control plane from a YAML manifest.

This command:
  - Loads and validates the manifest
  - Enforces the configured policies for the caller's roles
  - Submits the creation request and records the assigned handle
  - Schedules the network on the requested DHCP agents
  - Optionally polls until the network reports built`,
		Example: `  # Create and wait for the network to become active
  vnetctl create --manifest network.yaml

  # Submit without waiting for completion
  vnetctl create --manifest network.yaml --wait=false

  # Create with administrative fields
  vnetctl create --manifest network.yaml --roles admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			manifest, err := config.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			cfg := manifest.Network.ToConfig()

			if err := rt.enforcePolicy(ctx, "create", manifest.Name, cfg, roles, false); err != nil {
				return err
			}

			release, err := rt.guard.Acquire(manifest.Name)
			if err != nil {
				return err
			}
			defer release()

			ctrl, record, err := rt.controller(ctx, manifest.Name)
			if err != nil {
				return err
			}
			if record != nil && record.Phase != string(lifecycle.PhaseAbsent) && record.Phase != string(lifecycle.PhaseError) {
				return fmt.Errorf("network %s already exists in phase %s", manifest.Name, record.Phase)
			}
			if record == nil {
				desired, err := json.Marshal(cfg)
				if err != nil {
					return err
				}
				record = stores.NewNetworkRecord(manifest.Name, string(desired), string(lifecycle.PhaseAbsent))
			}

			spanCtx, span := rt.tel.Tracer.StartLifecycleSpan(ctx, manifest.Name, "create")
			createErr := ctrl.Create(spanCtx, cfg)
			if createErr != nil {
				telemetry.RecordError(span, createErr)
			} else {
				telemetry.RecordSuccess(span)
			}
			span.End()
			if err := rt.saveState(ctx, record, ctrl, "create", createErr); err != nil {
				return err
			}
			if createErr != nil {
				return createErr
			}

			if wait {
				if err := rt.poller().Wait(ctx, ctrl.PollCreateComplete); err != nil {
					_ = rt.saveState(ctx, record, ctrl, "poll", err)
					return err
				}
				if err := rt.saveState(ctx, record, ctrl, "poll", nil); err != nil {
					return err
				}
			}

			return printRecord(record)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "network manifest file")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"member"}, "caller roles for policy evaluation")
	cmd.Flags().BoolVar(&wait, "wait", true, "wait for the network to become active")
	cmd.MarkFlagRequired("manifest")

	return cmd
}
