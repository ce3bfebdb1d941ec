package cli

import (
	"fmt"
	"strconv"

	"github.com/RevCBH/dkr/internal/config"
	"github.com/RevCBH/dkr/internal/registry"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command
func NewSearchCmd(app *App) *cobra.Command {
	var (
		registries []string
		listOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "search QUERY [ROW...]",
		Short: "Search image registries for tools",
		Long: `Search queries the image registries for QUERY and shows every tagged
image found, newest tags first. ROW selects results by number.

When stdout is not a terminal the selected results are printed as a
config document grouped by tool name, ready to pipe into dkr add.`,
		Example: `  dkr search samtools
  dkr search bwa 1 | dkr add`,
		Args: func(cmd *cobra.Command, args []string) error {
			if listOnly {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			all := app.registries()
			if listOnly {
				for _, r := range all {
					fmt.Fprintln(app.stdout, r.Name())
				}
				return nil
			}

			rows, err := parseIndices(args[1:])
			if err != nil {
				return err
			}
			regs, err := registry.Only(all, registries)
			if err != nil {
				return err
			}

			results := registry.Select(registry.Search(cmd.Context(), regs, args[0], app.log), rows)

			if !app.stdoutIsTerminal() {
				cfg, err := registry.ToConfig(results)
				if err != nil {
					return err
				}
				return config.Encode(app.stdout, cfg)
			}

			table := make([][]string, 0, len(results))
			for _, r := range results {
				table = append(table, []string{strconv.Itoa(r.ID), r.Name, r.Tag, r.Reference, r.Provider})
			}
			return renderTable(app.stdout, []string{"#", "NAME", "TAG", "IMAGE", "REGISTRY"}, table)
		},
	}

	cmd.Flags().StringSliceVarP(&registries, "registry", "r", nil, "Search only these registries (repeatable)")
	cmd.Flags().BoolVarP(&listOnly, "list-registries", "l", false, "List available registries")

	return cmd
}
