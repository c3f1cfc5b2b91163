package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "versiongate",
	Short: "Mobile app version gate",
	Long: "versiongate rejects mobile clients below the configured minimum version, " +
		"tells outdated clients about the latest store release and keeps the " +
		"latest-release snapshot fresh.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
