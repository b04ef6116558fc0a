package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool

	// Version string passed down to telemetry.
	cliVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	cliVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vnetctl",
		Short: "OpenVNet - Virtual Network Lifecycle Controller",
		Long: `OpenVNet reconciles declaratively described virtual networks and their
DHCP agent scheduling against a remote network control plane.

Features:
  - Declarative YAML manifests projected into control plane requests
  - Phase-tracked lifecycle with poll-based completion
  - Minimal-diff DHCP agent scheduling reconciliation
  - Policy enforcement via embedded Rego
  - SQLite-backed controller state with transition history`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newAgentsCommand())
	rootCmd.AddCommand(newDevCommand())

	return rootCmd
}
