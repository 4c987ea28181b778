package cmd

import (
	"github.com/spf13/cobra"
)

const watchLongDescription = `Weave once, then watch the injections and src directories and weave
again after every change. Failed rebuilds are reported and watching
continues. Press Ctrl-C to stop.`

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Weave continuously while sources change",
		Long:  watchLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.Watch(cmd.Context(), weaveArgs(activeConfig))
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
