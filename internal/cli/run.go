package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/RevCBH/dkr/internal/image"
	"github.com/RevCBH/dkr/internal/mount"
	"github.com/RevCBH/dkr/internal/session"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runOptions holds the flags shared by run and debug
type runOptions struct {
	NoLaunch bool
	Shell    bool
	TTY      bool
}

// NewRunCmd creates the run command
func NewRunCmd(app *App) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [flags] BASE [INVOCATION...]",
		Short: "Run a command in a throwaway container",
		Long: `Run is the explicit form of "dkr BASE [INVOCATION...]". It never
collides with subcommand names.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: app.completeBase,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBase(cmd.Context(), args[0], args[1:], opts)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVarP(&opts.TTY, "tty", "t", false, "Allocate a pseudo-TTY for the command")

	return cmd
}

// NewDebugCmd creates the debug command
func NewDebugCmd(app *App) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "debug [flags] BASE [INVOCATION...]",
		Short: "Run with debug logging, or only show what would run",
		Long: `Debug logs the image, mounts, rewritten invocation, environment,
working directory and user for BASE before running it.

With --no-invocation nothing is launched. With --shell an interactive sh
is started in the prepared container instead of the invocation.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: app.completeBase,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.log.SetLevel(log.DebugLevel)
			if opts.Shell {
				opts.TTY = app.stdinIsTerminal()
			}
			return app.runBase(cmd.Context(), args[0], args[1:], opts)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVarP(&opts.NoLaunch, "no-invocation", "n", false,
		"Prepare and log the launch without starting a container")
	cmd.Flags().BoolVar(&opts.Shell, "shell", false,
		"Start an interactive shell instead of the invocation")

	return cmd
}

// runBase resolves base, then launches, execs and tears down a container
// for the invocation. A non-zero remote status is returned as *ExitError.
func (a *App) runBase(ctx context.Context, base string, invocation []string, opts runOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	target, err := session.ResolveTarget(cfg, base, invocation)
	if err != nil {
		return err
	}
	a.log.WithFields(log.Fields{
		"base":       target.Base,
		"entrypoint": target.Entrypoint,
		"image":      target.Image,
	}).Debug("resolved base")

	engine, err := a.newEngine(a.log)
	if err != nil {
		return err
	}
	defer engine.Close()

	rt, err := a.newRuntime(a.settings.Runtime)
	if err != nil {
		return err
	}

	wd, err := a.workDir()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	home, err := a.homeDir()
	if err != nil {
		a.log.WithError(err).Warn("home directory unknown, not mounting it")
		home = ""
	}

	sessOpts := session.Options{Shell: opts.Shell, TTY: opts.TTY}
	if opts.TTY && !opts.Shell {
		sessOpts.ExecFlags = []string{"-i", "-t"}
	}
	sess := session.New(session.Deps{
		Images:   image.NewResolver(engine, rt, a.log),
		Engine:   engine,
		Executor: rt,
		Detacher: a.newDetacher(),
		Mapper:   mount.NewMapper(a.settings.MountPrefix, wd, home),
		UID:      a.uid,
		GID:      a.gid,
		Log:      a.log,
	}, sessOpts)

	if opts.NoLaunch {
		_, err := sess.Prepare(ctx, target)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watch := newInterruptWatch(cancel, a.log)
	watch.onInterrupt(func(os.Signal) {
		// Only exit early when this hook owns the cleanup; otherwise the
		// foreground teardown is already running and must finish.
		if sess.Interrupt() {
			a.exit(exitCodeInterrupted)
		}
	})
	watch.start(a.notifySignals)
	defer watch.stop()

	code, err := sess.Run(ctx, target)
	if errors.Is(err, context.Canceled) {
		a.log.WithError(err).Debug("interrupted before exec")
		return &ExitError{Code: exitCodeInterrupted}
	}
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
