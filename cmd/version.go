package cmd

import (
	"github.com/spf13/cobra"

	"github.com/avorobev/tube-grabber/internal/version"
)

var (
	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		// Version printing must work without a configuration file.
		PersistentPreRun: func(_ *cobra.Command, _ []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.Full())
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	rootCmd.AddCommand(versionCmd)
}
