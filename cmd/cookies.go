package cmd

import (
	"github.com/spf13/cobra"

	"github.com/avorobev/tube-grabber/internal/app"
)

var (
	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	cookiesCmd = &cobra.Command{
		Use:   "cookies",
		Short: "Export YouTube session cookies via browser sign-in",
		Long: `Opens a browser window for you to sign in to YouTube.

The export process:
1. Browser opens at https://www.youtube.com/
2. Click "Sign in" and enter your Google account credentials
3. Complete any two-factor authentication prompts
4. Wait for the tool to detect the sign-in

After a successful sign-in, the session cookies are written to a
Netscape-format cookies.txt file and its path is saved to the
configuration file. The downloader passes that file to yt-dlp, which
unlocks age-restricted and private videos.

You can then download as usual:
tube-grabber https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteCookiesCommand(cmd.Context(), appConfig)
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	rootCmd.AddCommand(cookiesCmd)
}
