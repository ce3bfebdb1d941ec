package cli

import (
	"fmt"

	"github.com/RevCBH/dkr/internal/image"
	"github.com/spf13/cobra"
)

// NewPullCmd creates the pull command
func NewPullCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull [IMAGE...]",
		Short: "Pull images named on the command line or piped in from dkr list",
		Example: `  dkr list | dkr pull
  dkr pull alpine busybox:1.36`,
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := args
			if len(refs) == 0 {
				cfg, err := app.readPipedConfig()
				if err != nil {
					return err
				}
				refs = cfg.Images()
			}

			rt, err := app.newRuntime(app.settings.Runtime)
			if err != nil {
				return err
			}

			failed := 0
			for _, ref := range refs {
				ref = image.Normalize(ref)
				app.log.WithField("image", ref).Info("pulling image")
				if err := rt.Pull(cmd.Context(), ref); err != nil {
					app.log.WithError(err).WithField("image", ref).Warn("pull failed")
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pulls failed", failed, len(refs))
			}
			return nil
		},
	}

	return cmd
}
