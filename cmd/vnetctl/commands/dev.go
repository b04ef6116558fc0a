package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openvnet/openvnet/pkg/descriptor"
	"github.com/openvnet/openvnet/pkg/lifecycle"
	"github.com/openvnet/openvnet/pkg/netplane"
	"github.com/openvnet/openvnet/pkg/stores"
)

func newDevCommand() *cobra.Command {
	var (
		agents []string
		keep   bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run a full lifecycle against the in-process control plane",
		Long: `Exercise the whole controller stack end to end: create a network on
the in-process control plane, poll it to active, update it, reconcile
its DHCP agent scheduling, and delete it again.

The control plane endpoint must use the memory:// scheme.`,
		Example: `  # Full create/update/delete round trip
  vnetctl dev

  # Keep the network after the run
  vnetctl dev --keep

  # Use specific agent identifiers
  vnetctl dev --agents agent-a,agent-b`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			fake, ok := rt.client.(*netplane.Fake)
			if !ok {
				return fmt.Errorf("dev mode requires a memory:// control plane endpoint")
			}

			const name = "dev-network"
			release, err := rt.guard.Acquire(name)
			if err != nil {
				return err
			}
			defer release()

			ctrl, record, err := rt.controller(ctx, name)
			if err != nil {
				return err
			}
			if record != nil && record.Phase != string(lifecycle.PhaseAbsent) {
				return fmt.Errorf("network %s left over from a previous run; delete it first", name)
			}

			cfg := descriptor.Config{
				descriptor.FieldName:         name,
				descriptor.FieldAdminStateUp: true,
				descriptor.FieldDHCPAgentIDs: agents,
			}
			if err := rt.enforcePolicy(ctx, "create", name, cfg, []string{"admin"}, false); err != nil {
				return err
			}
			if record == nil {
				record = stores.NewNetworkRecord(name, "{}", string(lifecycle.PhaseAbsent))
			}

			fmt.Println("==> creating network")
			if err := ctrl.Create(ctx, cfg); err != nil {
				return err
			}
			// Let the first poll observe a still-provisioning network.
			fake.SetStatuses(ctrl.Handle(), "BUILD", "ACTIVE")
			if err := rt.saveState(ctx, record, ctrl, "create", nil); err != nil {
				return err
			}

			fmt.Println("==> polling until active")
			if err := rt.poller().Wait(ctx, ctrl.PollCreateComplete); err != nil {
				return err
			}
			if err := rt.saveState(ctx, record, ctrl, "poll", nil); err != nil {
				return err
			}
			fmt.Printf("    phase=%s handle=%s agents=%v\n",
				ctrl.Phase(), ctrl.Handle(), fake.AgentsFor(ctrl.Handle()))

			fmt.Println("==> updating network")
			diff := descriptor.Config{
				descriptor.FieldName:         name + "-renamed",
				descriptor.FieldDHCPAgentIDs: rotateAgents(agents),
			}
			if err := ctrl.Update(ctx, diff); err != nil {
				return err
			}
			if err := rt.poller().Wait(ctx, ctrl.PollUpdateComplete); err != nil {
				return err
			}
			if err := rt.saveState(ctx, record, ctrl, "update", nil); err != nil {
				return err
			}
			fmt.Printf("    phase=%s agents=%v\n", ctrl.Phase(), fake.AgentsFor(ctrl.Handle()))

			if keep {
				fmt.Println("==> keeping network (--keep)")
				return printRecord(record)
			}

			fmt.Println("==> deleting network")
			if err := ctrl.Delete(ctx); err != nil {
				return err
			}
			if err := rt.saveState(ctx, record, ctrl, "delete", nil); err != nil {
				return err
			}

			fmt.Printf("==> done: %d create, %d show, %d update, %d delete, %d agent add, %d agent remove calls\n",
				fake.CallCount(netplane.OpCreate),
				fake.CallCount(netplane.OpShow),
				fake.CallCount(netplane.OpUpdate),
				fake.CallCount(netplane.OpDelete),
				fake.CallCount(netplane.OpAddAgent),
				fake.CallCount(netplane.OpRemoveAgent))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&agents, "agents", []string{"agent-a", "agent-b"}, "DHCP agent identifiers to schedule on")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the network after the run")

	return cmd
}

// rotateAgents drops the first agent and adds a fresh one so the update
// exercises both an addition and a removal.
func rotateAgents(agents []string) []string {
	if len(agents) == 0 {
		return []string{"agent-z"}
	}
	out := append([]string{}, agents[1:]...)
	return append(out, agents[0]+"-next")
}
