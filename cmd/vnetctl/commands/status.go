package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openvnet/openvnet/pkg/stores"
)

func newStatusCommand() *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "status [NAME]",
		Short: "Show managed networks and their phases",
		Long: `Show the controller's view of managed networks.

Without arguments every managed network is listed. With a name the full
record is shown, optionally with its phase transition history.`,
		Example: `  # List all managed networks
  vnetctl status

  # Show one network with its last transitions
  vnetctl status frontend --history 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if len(args) == 0 {
				records, err := rt.store.ListNetworks(ctx, 100, 0)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(records)
				}
				if len(records) == 0 {
					fmt.Println("No managed networks")
					return nil
				}
				for _, record := range records {
					handle := "-"
					if record.Handle != nil {
						handle = *record.Handle
					}
					fmt.Printf("%-24s %-10s %s\n", record.Name, record.Phase, handle)
				}
				return nil
			}

			record, err := rt.store.GetNetwork(ctx, args[0])
			if err != nil {
				return err
			}

			var transitions []*stores.TransitionEvent
			if history > 0 {
				transitions, err = rt.store.ListTransitions(ctx, record.ID, history, 0)
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				return printJSON(map[string]interface{}{
					"network":     record,
					"transitions": transitions,
				})
			}

			if err := printRecord(record); err != nil {
				return err
			}
			for _, event := range transitions {
				fmt.Printf("  %s  %s -> %s (%s)\n",
					event.Timestamp.Format("2006-01-02 15:04:05"),
					event.FromPhase, event.ToPhase, event.Operation)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&history, "history", 0, "number of phase transitions to show")

	return cmd
}
