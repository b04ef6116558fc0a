package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAgentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents NAME",
		Short: "List the DHCP agents hosting a network",
		Long: `List the DHCP agents the network is currently scheduled on,
as reported by the control plane.`,
		Example: `  # Show the agents hosting a network
  vnetctl agents frontend`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			record, err := rt.store.GetNetwork(ctx, name)
			if err != nil {
				return err
			}
			if record.Handle == nil {
				return fmt.Errorf("network %s has no control plane handle", name)
			}

			agents, err := rt.client.ListDHCPAgents(ctx, *record.Handle)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(map[string]interface{}{
					"network": name,
					"agents":  agents,
				})
			}
			if len(agents) == 0 {
				fmt.Printf("Network %s is not scheduled on any agent\n", name)
				return nil
			}
			for _, agent := range agents {
				fmt.Println(agent)
			}
			return nil
		},
	}

	return cmd
}
