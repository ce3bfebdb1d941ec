package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/RevCBH/dkr/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// errNoInput is returned by commands that read YAML from stdin when
// stdin is a terminal.
var errNoInput = errors.New("nothing piped in; pipe in the output of dkr list or dkr search")

// renderTable writes a bordered table followed by a row count.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal %d\n", len(rows))
	return err
}

// readPipedConfig decodes a config document from stdin.
func (a *App) readPipedConfig() (*config.Config, error) {
	if a.stdinIsTerminal() {
		return nil, errNoInput
	}
	return config.Parse(a.stdin)
}

// parseIndices converts 1-based row arguments.
func parseIndices(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid index %q: must be a positive integer", arg)
		}
		out = append(out, n)
	}
	return out, nil
}
