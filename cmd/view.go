package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/weave/internal/domain"
	m "github.com/mouse-blink/weave/internal/model"
)

var viewRunFlag string

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View previously generated weave reports",
		Long:  "View the latest weave report, or the report of --run, from the reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			return workflow.View(domain.ViewArgs{Reports: m.Path(activeConfig.Reports), RunID: viewRunFlag})
		},
	}
	cmd.Flags().StringVar(&viewRunFlag, "run", "", "run id of the report to show (default latest)")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
