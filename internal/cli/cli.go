// Package cli is the jobboard terminal front end. Every command drives the
// same stores a graphical client would: the session store, the route guard,
// the auth flows and the jobs store.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/jobboard/internal/app"
	"github.com/aussiebroadwan/jobboard/internal/flows"
	"github.com/aussiebroadwan/jobboard/internal/guard"
	"github.com/aussiebroadwan/jobboard/internal/jobs"
	"github.com/aussiebroadwan/jobboard/internal/mfasetup"
	"github.com/aussiebroadwan/jobboard/internal/session"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/idx"
	"github.com/aussiebroadwan/jobboard/pkg/slogx"
	"github.com/spf13/cobra"
)

// CLI holds what outlives a single command: the IO streams and, once a
// command needs it, the application. In the shell one application serves
// every line, so the session carries over between commands.
type CLI struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	prompt *Prompter

	loadConfig func(path string) (app.Config, error)
	appOpts    []app.Option

	// flags
	cfgFile string
	output  string
	debug   bool

	app     *app.Application
	printer *Printer
	inShell bool
}

// Option configures a CLI.
type Option func(*CLI)

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(c *CLI) {
		c.in, c.out, c.errOut = in, out, errOut
	}
}

// WithConfig skips config loading and uses cfg.
func WithConfig(cfg app.Config) Option {
	return func(c *CLI) {
		c.loadConfig = func(string) (app.Config, error) { return cfg, nil }
	}
}

// WithAppOptions passes options through to app.New.
func WithAppOptions(opts ...app.Option) Option {
	return func(c *CLI) { c.appOpts = append(c.appOpts, opts...) }
}

// New returns a CLI on the process streams.
func New(opts ...Option) *CLI {
	c := &CLI{
		in:         os.Stdin,
		out:        os.Stdout,
		errOut:     os.Stderr,
		loadConfig: app.LoadConfig,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.prompt = NewPrompter(c.in, c.errOut)
	c.printer = NewPrinter(c.out, c.errOut, app.OutputText, false)
	return c
}

// Execute runs the root command with os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return New().Run(ctx, os.Args[1:])
}

// Run executes args and reports any failure. It returns the exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	defer c.close()

	root := c.rootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		c.report(err)
		return 1
	}
	return 0
}

func (c *CLI) close() {
	if c.app != nil {
		_ = c.app.Close()
		c.app = nil
	}
}

// rootCommand builds a fresh command tree. The shell builds one per line so
// flag values never leak from one command into the next.
func (c *CLI) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobboard",
		Short: "Job board client",
		Long: `jobboard signs in to a job board API and manages job postings.

The session is kept in a local database, so a login lasts across
invocations until the refresh token expires or you log out.`,
		Version:           app.BuildVersion,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.jobboard.yaml)")
	flags.StringVarP(&c.output, "output", "o", "", "output format (table, json, yaml, text)")
	flags.BoolVar(&c.debug, "debug", false, "log at debug level")

	root.AddCommand(
		c.registerCommand(),
		c.loginCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.statusCommand(),
		c.mfaCommand(),
		c.verifyEmailCommand(),
		c.resendVerificationCommand(),
		c.forgotPasswordCommand(),
		c.resetPasswordCommand(),
		c.oauthCommand(),
		c.jobsCommand(),
		c.shellCommand(),
	)
	return root
}

// setup opens the application on first use and applies per-command flags.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.app == nil {
		cfg, err := c.loadConfig(c.cfgFile)
		if err != nil {
			return err
		}
		if c.debug {
			cfg.LogLevel = "debug"
		}

		a, err := app.New(cmd.Context(), cfg, c.appOpts...)
		if err != nil {
			return err
		}
		c.app = a
	}

	format := c.app.Config.Output
	if c.output != "" {
		format = c.output
	}
	switch format {
	case app.OutputTable, app.OutputJSON, app.OutputYAML, app.OutputText:
	default:
		return errors.New("unsupported output format: " + format)
	}
	c.printer = NewPrinter(c.out, c.errOut, format, c.app.Config.Colors)

	// One req_id per command covers a refresh and its replay.
	ctx := slogx.WithContext(cmd.Context(), c.app.Logger)
	cmd.SetContext(slogx.WithRequestID(ctx, idx.New().String()))
	return nil
}

// requireLogin runs the route guard for a protected command.
func (c *CLI) requireLogin(ctx context.Context) error {
	return c.app.Guard.Require(ctx)
}

// report prints err the way the user should see it.
func (c *CLI) report(err error) {
	var (
		redirect *guard.RedirectError
		sessErr  *session.Error
		jobsErr  *jobs.Error
		valErr   *flows.ValidationError
		srvErr   *flows.ServerError
		fieldErr jobs.FieldErrors
		mfaRedir *mfasetup.Redirect
	)

	switch {
	case errors.As(err, &redirect):
		c.printer.Error("You need to log in first. Run `jobboard login`.")
	case errors.As(err, &sessErr):
		if sessErr.RateLimited {
			c.printer.Warning("%s", sessErr.Message)
			return
		}
		c.printer.Error("%s", sessErr.Message)
	case errors.As(err, &jobsErr):
		if boardsdk.IsRateLimited(jobsErr.Err) {
			c.printer.Warning("%s", boardsdk.ErrorMessage(jobsErr.Err, jobsErr.Message))
			return
		}
		c.printer.Error("%s", jobsErr.Message)
	case errors.As(err, &valErr):
		c.printer.Error("%s", valErr.Error())
	case errors.As(err, &fieldErr):
		c.printer.Error("%s", fieldErr.Error())
	case errors.As(err, &srvErr):
		if boardsdk.IsRateLimited(srvErr.Err) {
			c.printer.Warning("%s", srvErr.Message)
			return
		}
		c.printer.Error("%s", srvErr.Message)
	case errors.As(err, &mfaRedir):
		c.printer.Error("%s", mfaRedir.Message)
	case boardsdk.IsRateLimited(err):
		c.printer.Warning("%s", boardsdk.ErrorMessage(err, "Too many requests"))
	default:
		c.printer.Error("%s", err.Error())
	}
}
