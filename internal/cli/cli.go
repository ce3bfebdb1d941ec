package cli

import (
	"io"
	"os"

	"github.com/RevCBH/dkr/internal/config"
	"github.com/RevCBH/dkr/internal/container"
	"github.com/RevCBH/dkr/internal/registry"
	"github.com/RevCBH/dkr/internal/session"
	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// runtimeCLI execs into containers and pulls images.
type runtimeCLI interface {
	container.Executor
	container.Puller
}

// App represents the CLI application with all wired dependencies
type App struct {
	// Root command
	rootCmd *cobra.Command

	settings *config.Settings
	log      *log.Logger

	// Flags
	verbose    bool
	configPath string
	tty        bool

	versionInfo VersionInfo

	stdin            io.Reader
	stdout           io.Writer
	stderr           io.Writer
	stdinIsTerminal  func() bool
	stdoutIsTerminal func() bool

	// Factories, swapped in tests
	newEngine     func(*log.Logger) (container.Engine, error)
	newRuntime    func(preferred string) (runtimeCLI, error)
	newDetacher   func() session.Detacher
	registries    func() []registry.Registry
	ownerAlive    func(container.Owner) bool
	notifySignals bool
	exit          func(code int)
	workDir       func() (string, error)
	homeDir       func() (string, error)
	uid, gid      int
}

// New creates a new CLI application
func New() *App {
	app := &App{
		settings: config.LoadSettings(),
		log:      log.New(),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		stdinIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		stdoutIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		newEngine: func(l *log.Logger) (container.Engine, error) {
			return container.NewDockerEngine(l)
		},
		newDetacher: func() session.Detacher {
			return session.ProcessDetacher{}
		},
		registries:    registry.Default,
		ownerAlive:    container.Owner.Alive,
		notifySignals: true,
		exit:          os.Exit,
		workDir:       os.Getwd,
		homeDir:       homedir.Dir,
		uid:           os.Getuid(),
		gid:           os.Getgid(),
	}
	app.newRuntime = app.detectRuntime
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version string for the version command
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "dkr [flags] BASE [INVOCATION...]",
		Short: "Run command line tools inside throwaway Docker containers",
		Long: `dkr runs a command inside a fresh container and removes the container
when the command finishes.

BASE is an entrypoint from your dkr config (e.g. ls), an entrypoint with an
explicit version (e.g. bwa::quay.io/biocontainers/bwa:latest), or any image
reference (e.g. alpine:latest). Paths in INVOCATION that exist on the host
are mounted under /dkr and rewritten to their container location.

Use "dkr -- BASE" when BASE has the same name as a dkr subcommand.`,
		Example: `  dkr ls -la
  dkr alpine:latest cat ~/notes.txt
  dkr bwa::quay.io/biocontainers/bwa:0.7.17--h5bf99c6_8 mem ref.fa reads.fq`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: a.completeBase,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.runBase(cmd.Context(), args[0], args[1:], runOptions{TTY: a.tty})
		},
	}
	a.rootCmd.SetIn(a.stdin)
	a.rootCmd.SetOut(a.stdout)
	a.rootCmd.SetErr(a.stderr)

	// Everything after BASE belongs to the wrapped command
	a.rootCmd.Flags().SetInterspersed(false)
	a.rootCmd.Flags().BoolVarP(&a.tty, "tty", "t", false,
		"Allocate a pseudo-TTY for the command")

	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Verbose output")
	a.rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Config file (default ~/.dkr, or $DKR_CONFIG)")

	a.rootCmd.AddCommand(
		NewRunCmd(a),
		NewDebugCmd(a),
		NewAddCmd(a),
		NewRemoveCmd(a),
		NewListCmd(a),
		NewPullCmd(a),
		NewSearchCmd(a),
		NewPruneCmd(a),
		NewTeardownCmd(a),
		NewVersionCmd(a),
	)
}

// configure applies flags over settings and sets up logging.
func (a *App) configure() error {
	if a.configPath != "" {
		path, err := homedir.Expand(a.configPath)
		if err != nil {
			return err
		}
		a.settings.ConfigPath = path
	}

	level, err := log.ParseLevel(a.settings.LogLevel)
	if err != nil {
		return err
	}
	if a.verbose && level < log.InfoLevel {
		level = log.InfoLevel
	}
	a.log.SetOutput(a.stderr)
	a.log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	a.log.SetLevel(level)
	return nil
}

func (a *App) loadConfig() (*config.Config, error) {
	return config.LoadFile(a.settings.ConfigPath)
}

func (a *App) saveConfig(cfg *config.Config) error {
	if err := config.Save(a.settings.ConfigPath, cfg); err != nil {
		return err
	}
	a.log.WithField("path", a.settings.ConfigPath).Info("config saved")
	return nil
}

func (a *App) detectRuntime(preferred string) (runtimeCLI, error) {
	bin, err := container.DetectRuntime(preferred)
	if err != nil {
		return nil, err
	}
	c := container.NewCLI(bin)
	c.Stdin = a.stdin
	c.Stdout = a.stdout
	c.Stderr = a.stderr
	return c, nil
}

// completeBase offers entrypoint names and name::version selectors.
func (a *App) completeBase(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return cfg.Completions(toComplete), cobra.ShellCompDirectiveNoFileComp
}

// setIO redirects the app's standard streams.
func (a *App) setIO(in io.Reader, out, errOut io.Writer) {
	a.stdin, a.stdout, a.stderr = in, out, errOut
	a.rootCmd.SetIn(in)
	a.rootCmd.SetOut(out)
	a.rootCmd.SetErr(errOut)
}
