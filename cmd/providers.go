package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cloudposse/test-collector/pkg/ci"
)

var detectedStyle = lipgloss.NewStyle().Bold(true)

func newProvidersCmd(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:     "providers",
		Short:   "List supported CI providers in detection order",
		Long:    `Lists the CI providers in the order they are checked. The provider detected in the current environment is marked with '*'.`,
		Example: "test-collector providers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			detected := ci.Detect(cli.values)

			out := cmd.OutOrStdout()
			for _, name := range ci.Providers() {
				line := "  " + name
				if name == detected {
					line = detectedStyle.Render("* " + name)
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
