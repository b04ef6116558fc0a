package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openvnet/openvnet/pkg/telemetry"
)

func newDeleteCommand() *cobra.Command {
	var (
		roles  []string
		dryRun bool
		purge  bool
	)

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a managed network",
		Long: `Delete a network from the control plane.

A network the control plane no longer knows counts as already deleted.
The controller record is kept in the absent phase unless --purge is
given.`,
		Example: `  # Delete a network
  vnetctl delete frontend

  # Check what policy would say without deleting
  vnetctl delete frontend --dry-run

  # Delete and drop the controller record
  vnetctl delete frontend --purge`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if err := rt.enforcePolicy(ctx, "delete", name, nil, roles, dryRun); err != nil {
				return err
			}
			if dryRun {
				fmt.Printf("Deletion of %s permitted by policy (dry run, nothing deleted)\n", name)
				return nil
			}

			release, err := rt.guard.Acquire(name)
			if err != nil {
				return err
			}
			defer release()

			ctrl, record, err := rt.controller(ctx, name)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("network %s is not managed", name)
			}

			spanCtx, span := rt.tel.Tracer.StartLifecycleSpan(ctx, name, "delete")
			deleteErr := ctrl.Delete(spanCtx)
			if deleteErr != nil {
				telemetry.RecordError(span, deleteErr)
			} else {
				telemetry.RecordSuccess(span)
			}
			span.End()
			if err := rt.saveState(ctx, record, ctrl, "delete", deleteErr); err != nil {
				return err
			}
			if deleteErr != nil {
				return deleteErr
			}

			if purge {
				if err := rt.store.DeleteNetwork(ctx, record.ID); err != nil {
					return err
				}
				fmt.Printf("Network %s deleted and record purged\n", name)
				return nil
			}
			return printRecord(record)
		},
	}

	cmd.Flags().StringSliceVar(&roles, "roles", []string{"member"}, "caller roles for policy evaluation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate policy without deleting")
	cmd.Flags().BoolVar(&purge, "purge", false, "drop the controller record after deletion")

	return cmd
}
