package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openvnet/openvnet/pkg/config"
	"github.com/openvnet/openvnet/pkg/descriptor"
	"github.com/openvnet/openvnet/pkg/lifecycle"
	"github.com/openvnet/openvnet/pkg/telemetry"
)

func newUpdateCommand() *cobra.Command {
	var (
		manifestPath string
		roles        []string
		wait         bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a network toward a manifest",
		Long: `Update an existing network so it matches the manifest.

Only the fields whose values differ from the last applied configuration
are sent. A change to the DHCP agent list is reconciled through the
scheduling endpoints and by itself never touches the network resource;
an explicitly empty list unschedules every agent.`,
		Example: `  # Apply a changed manifest
  vnetctl update --manifest network.yaml

  # Update owner-only fields as an administrator
  vnetctl update --manifest network.yaml --roles admin`,
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
			desired := manifest.Network.ToConfig()

			release, err := rt.guard.Acquire(manifest.Name)
			if err != nil {
				return err
			}
			defer release()

			ctrl, record, err := rt.controller(ctx, manifest.Name)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("network %s is not managed; create it first", manifest.Name)
			}

			var previous descriptor.Config
			if record.LastApplied != nil {
				if err := json.Unmarshal([]byte(*record.LastApplied), &previous); err != nil {
					return fmt.Errorf("corrupt applied config for network %s: %w", manifest.Name, err)
				}
			}
			diff := config.Diff(previous, desired)
			if len(diff) == 0 {
				rt.tel.Logger.Info("Network already matches the manifest")
				return printRecord(record)
			}

			if err := rt.enforcePolicy(ctx, "update", manifest.Name, diff, roles, false); err != nil {
				return err
			}

			spanCtx, span := rt.tel.Tracer.StartLifecycleSpan(ctx, manifest.Name, "update")
			updateErr := ctrl.Update(spanCtx, diff)
			if updateErr != nil {
				telemetry.RecordError(span, updateErr)
			} else {
				telemetry.RecordSuccess(span)
			}
			span.End()
			if err := rt.saveState(ctx, record, ctrl, "update", updateErr); err != nil {
				return err
			}
			if updateErr != nil {
				return updateErr
			}

			if wait && ctrl.Phase() == lifecycle.PhaseUpdating {
				if err := rt.poller().Wait(ctx, ctrl.PollUpdateComplete); err != nil {
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
	cmd.Flags().BoolVar(&wait, "wait", true, "wait for the network to settle")
	cmd.MarkFlagRequired("manifest")

	return cmd
}
