package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/traitmix/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The CLI's logger is attached to every command's context; commands read it
// with loggerFromContext. A .env file in the working directory is loaded
// before any command runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "traitmix generates unique images from layered traits",
		Long:         `traitmix combines weighted per-layer traits into unique composite images, honoring exclusion rules and a blacklist of forbidden trait pairs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(envFile); err != nil {
				c.Logger.Warn("could not read env file", "path", envFile, "err", err)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.genCommand())
	root.AddCommand(c.cleanCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.completionCommand())

	return root
}
