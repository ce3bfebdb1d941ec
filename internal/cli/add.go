package cli

import (
	"fmt"

	"github.com/RevCBH/dkr/internal/config"
	"github.com/spf13/cobra"
)

// NewAddCmd creates the add command
func NewAddCmd(app *App) *cobra.Command {
	var (
		entrypoint string
		images     []string
		asDefault  bool
	)

	cmd := &cobra.Command{
		Use:   "add [-e ENTRYPOINT -i IMAGE...]",
		Short: "Add entrypoints or images to your dkr config",
		Long: `Add maps an entrypoint name to one or more images. Images for an
existing entrypoint are appended to it, or put first with --default.

Without flags, a config document is read from stdin, e.g.

  dkr search bwa 1 | dkr add`,
		Example: `  dkr add -e ls -i alpine:latest -i busybox:latest
  dkr add -e bwa --default quay.io/biocontainers/bwa:0.7.17--h5bf99c6_8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			images = append(images, args...)

			var incoming *config.Config
			switch {
			case entrypoint == "" && len(images) == 0:
				var err error
				if incoming, err = app.readPipedConfig(); err != nil {
					return err
				}
			case entrypoint == "":
				return fmt.Errorf("--entrypoint is required when images are given")
			case len(images) == 0:
				return fmt.Errorf("at least one image is required for entrypoint %q", entrypoint)
			default:
				var err error
				if incoming, err = config.New().WithEntrypoint(entrypoint, images); err != nil {
					return err
				}
			}

			current, err := app.loadConfig()
			if err != nil {
				return err
			}
			next, err := current.Merge(incoming, asDefault)
			if err != nil {
				return err
			}
			return app.saveConfig(next)
		},
	}

	cmd.Flags().StringVarP(&entrypoint, "entrypoint", "e", "", "Entrypoint name to add")
	cmd.Flags().StringSliceVarP(&images, "image", "i", nil, "Image for the entrypoint (repeatable)")
	cmd.Flags().BoolVar(&asDefault, "default", false, "Make the added image the entrypoint's default")

	return cmd
}
