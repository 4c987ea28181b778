package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/weave/internal/domain"
	m "github.com/mouse-blink/weave/internal/model"
)

const listLongDescription = `Parse every mixin unit under the injections directory and list the
directives it declares, grouped by target, without touching any source.`

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the directives declared by the mixin units",
		Long:  listLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return workflow.List(domain.ListArgs{Injections: m.Path(activeConfig.Injections)})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
