package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitmix/pkg/compose"
	"github.com/matzehuels/traitmix/pkg/pipeline"
)

// cleanCommand creates the clean command, which removes the output folder.
func (c *CLI) cleanCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the output folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newPrinter(cmd.OutOrStdout())
			if _, err := os.Stat(output); os.IsNotExist(err) {
				out.info("Nothing to clean")
				return nil
			}
			if err := compose.Clean(output); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("output folder removed", "path", output)
			out.success("Removed %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", pipeline.DefaultOutputDir, "output folder")
	return cmd
}
