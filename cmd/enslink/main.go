// Package main is the enslink command line interface.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "enslink",
	Short: "Editor bridge for the ENSIME analysis server",
	Long: `enslink connects an editor session to a running analysis server,
correlates requests with responses, and renders typecheck notes,
symbol lookups, completions, and refactorings.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to a project config file (default: search upwards for .enslink.toml)")
	rootCmd.PersistentFlags().Bool("start-server", false, "launch the analysis server if it is not already running")
	rootCmd.PersistentFlags().Duration("ready-timeout", 0, "how long to wait for the server to accept connections")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
