package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/RevCBH/dkr/internal/config"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd(app *App) *cobra.Command {
	var images []int

	cmd := &cobra.Command{
		Use:   "list [INDEX...]",
		Short: "List entrypoints in your dkr config",
		Long: `List shows entrypoints with their images and whether each image is
present locally. INDEX and --images select entrypoints and images by
their 1-based position. Several image positions are given comma
separated (-i 1,2) or by repeating the flag (-i 1 -i 2).

When stdout is not a terminal the selection is printed as a config
document, ready to pipe into dkr add, remove or pull.`,
		Example: `  dkr list
  dkr list 2 3 -i 1
  dkr list 2 -i 1,2
  dkr list 1 | dkr pull`,
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(args)
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			selected := cfg.Filter(indices, images)

			if !app.stdoutIsTerminal() {
				return config.Encode(app.stdout, selected)
			}
			return renderTable(app.stdout,
				[]string{"#", "ENTRYPOINT", "IMAGES", "LOCAL"},
				app.listRows(cmd.Context(), cfg, selected))
		},
	}

	cmd.Flags().IntSliceVarP(&images, "images", "i", nil, "Only show the images at these 1-based positions")

	return cmd
}

// listRows numbers entrypoints by their position in the full config so
// indices stay valid for a follow-up command.
func (a *App) listRows(ctx context.Context, all, selected *config.Config) [][]string {
	local := a.localTags(ctx)

	var rows [][]string
	for i, name := range all.Names() {
		e, ok := selected.Entrypoint(name)
		if !ok {
			continue
		}
		present := make([]string, len(e.Versions))
		for j, v := range e.Versions {
			switch {
			case local == nil:
				present[j] = "?"
			case local[v]:
				present[j] = "yes"
			default:
				present[j] = "no"
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			name,
			strings.Join(e.Versions, "\n"),
			strings.Join(present, "\n"),
		})
	}
	return rows
}

// localTags returns the engine's image tags, or nil when the engine
// cannot be asked.
func (a *App) localTags(ctx context.Context) map[string]bool {
	engine, err := a.newEngine(a.log)
	if err != nil {
		a.log.WithError(err).Warn("cannot check local images")
		return nil
	}
	defer engine.Close()

	tags, err := engine.ImageTags(ctx)
	if err != nil {
		a.log.WithError(err).Warn("cannot check local images")
		return nil
	}
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}
