package cli

import (
	"github.com/spf13/cobra"
)

// NewRemoveCmd creates the remove command
func NewRemoveCmd(app *App) *cobra.Command {
	var onlyImages bool

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove entrypoints piped in from dkr list",
		Long: `Remove reads a config document from stdin and removes every entrypoint
in it from your dkr config. With --only-images only the listed images are
removed, and an entrypoint goes away once it has no images left.`,
		Example: `  dkr list 2 | dkr remove
  dkr list 1 -i 2 | dkr remove --only-images`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drop, err := app.readPipedConfig()
			if err != nil {
				return err
			}
			current, err := app.loadConfig()
			if err != nil {
				return err
			}
			for _, name := range drop.Names() {
				if _, ok := current.Entrypoint(name); !ok {
					app.log.WithField("entrypoint", name).Error("not in config, skipping")
				}
			}
			next, err := current.Subtract(drop, onlyImages)
			if err != nil {
				return err
			}
			return app.saveConfig(next)
		},
	}

	cmd.Flags().BoolVarP(&onlyImages, "only-images", "i", false,
		"Only remove the piped images, not whole entrypoints")

	return cmd
}
