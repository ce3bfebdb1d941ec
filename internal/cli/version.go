package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VersionInfo is set from build-time variables.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("dkr version %s\ncommit: %s\nbuilt: %s\n",
		orDefault(v.Version, "dev"), orDefault(v.Commit, "unknown"), orDefault(v.Date, "unknown"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// NewVersionCmd creates the version command
func NewVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print dkr's version, commit and build date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), app.versionInfo)
			return err
		},
	}
}
