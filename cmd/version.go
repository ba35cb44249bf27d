package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cloudposse/test-collector/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the collector version",
		Long:    `This command prints the collector name and version stamped on every run environment`,
		Example: "test-collector version",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s/%s\n", version.Name, version.Version, runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
