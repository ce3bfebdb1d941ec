package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/RevCBH/dkr/internal/container"
	"github.com/RevCBH/dkr/internal/session"
	"github.com/spf13/cobra"
)

// NewTeardownCmd creates the hidden command a detached cleanup runs as
func NewTeardownCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:    session.TeardownCommand + " CONTAINER_ID",
		Short:  "Stop and remove a container (used internally)",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The user already interrupted once; this process must finish.
			signal.Ignore(syscall.SIGINT, syscall.SIGHUP)

			engine, err := app.newEngine(app.log)
			if err != nil {
				app.log.WithError(err).Debug("teardown: no engine")
				return nil
			}
			defer engine.Close()

			id := container.ContainerID(args[0])
			if err := session.Destroy(context.Background(), engine, id); err != nil {
				app.log.WithError(err).WithField("container", id).Debug("teardown failed")
			}
			return nil
		},
	}
}
