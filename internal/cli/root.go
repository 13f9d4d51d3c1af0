package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/terramuse/videocheck/internal/plugins"
	"github.com/terramuse/videocheck/internal/verify"
)

// NewRootCmd creates a new root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "videocheck",
		Short: "Verify the TerraMuse brand film modal",
		Long: `videocheck opens the TerraMuse home page in a headless browser, clicks
"Watch the Film" and checks that the modal's video frame embeds the expected video.
A screenshot is saved after every run. Exit status is 0 on success and 1 otherwise.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				_ = os.Setenv(LogEnv, "DEBUG")
			}

			// Initialize logging after potentially setting the debug env var
			InitLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd, "", nil)
		},
	}

	flags := cmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("url", verify.DefaultURL, "Base URL of the site under test")
	flags.String("button", verify.DefaultButtonLabel, "Accessible name of the button that opens the modal")
	flags.String("frame-title", verify.DefaultFrameTitle, "Title attribute of the video frame")
	flags.String("video-id", verify.DefaultExpectedVideoID, "Video id the frame src must contain")
	flags.String("screenshot", verify.DefaultScreenshotPath, "Where to write the screenshot")
	flags.Duration("timeout", verify.DefaultTimeout, "Timeout for each browser step")
	flags.String("engine", plugins.DefaultEngine, "Browser engine (see 'videocheck engines')")
	flags.Bool("headless", true, "Run the browser without a window")
	flags.Bool("full-page", false, "Capture the full scrollable page")
	flags.String("env-file", "", "Load KEY=VALUE environment variables from a file")

	cmd.AddCommand(
		NewRunCmd(),
		NewValidateCmd(),
		NewEnginesCmd(),
		NewVersionCmd(),
	)

	return cmd
}
