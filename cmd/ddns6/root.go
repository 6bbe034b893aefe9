package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/ddns6/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "ddns6",
		Short: "Publish an interface's reachable IPv6 address to a Cloudflare AAAA record",
		Long: `ddns6 polls a network interface for global IPv6 addresses, probes each one on a
configured port, and updates a single Cloudflare AAAA record to the first address
that answers. Configuration comes from an optional YAML or TOML file and DDNS6_*
environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), configPath)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.ConfigPathFromEnv(),
		"config file (.yaml, .yml or .toml); defaults to $"+config.EnvConfigPath)

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the reconciliation loop (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runDaemon(cmd.Context(), configPath)
			},
		},
		newSetupCmd(),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ddns6 %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		},
	}
}
