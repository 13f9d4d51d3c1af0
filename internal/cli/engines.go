package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/terramuse/videocheck/internal/plugins"
)

// NewEnginesCmd lists the browser engines compiled into the binary.
func NewEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List available browser engines",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, name := range plugins.Names() {
				if name == plugins.DefaultEngine {
					_, _ = fmt.Fprintf(out, "%s %s\n", name, color.New(color.Faint).Sprint("(default)"))
					continue
				}
				_, _ = fmt.Fprintln(out, name)
			}
		},
	}
}
