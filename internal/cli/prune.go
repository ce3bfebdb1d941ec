package cli

import (
	"fmt"

	"github.com/RevCBH/dkr/internal/session"
	"github.com/spf13/cobra"
)

// NewPruneCmd creates the prune command
func NewPruneCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove containers left behind by interrupted dkr runs",
		Long: `Prune stops and removes dkr containers whose dkr process is gone.
Containers still owned by a running dkr, on this host or another, are
listed as in use and left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.newEngine(app.log)
			if err != nil {
				return err
			}
			defer engine.Close()

			managed, err := engine.ListManaged(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(managed))
			failed := 0
			for _, c := range managed {
				status := "would remove"
				switch {
				case app.ownerAlive(c.Owner):
					// the dkr process that launched it is still running
					status = "in use"
				case !dryRun:
					status = "removed"
					if err := session.Destroy(cmd.Context(), engine, c.ID); err != nil {
						app.log.WithError(err).WithField("container", c.Name).Warn("prune failed")
						status = "failed"
						failed++
					}
				}
				rows = append(rows, []string{c.Name, c.Image, c.State, status})
			}

			if err := renderTable(app.stdout, []string{"CONTAINER", "IMAGE", "STATE", "RESULT"}, rows); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d containers could not be removed", failed, len(managed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only list the containers")

	return cmd
}
