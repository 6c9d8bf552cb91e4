package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/jobboard/internal/guard"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

func (c *CLI) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively in one session",
		Long: `shell reads commands line by line and runs them against a single
session, the way a browser tab keeps one. Type "help" for the command
list and "exit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.inShell {
				return errors.New("already in the shell")
			}
			c.inShell = true
			defer func() { c.inShell = false }()

			return c.repl(cmd.Context())
		},
	}
}

func (c *CLI) repl(ctx context.Context) error {
	c.app.Guard.Mount(ctx)
	if out, err := c.app.Guard.Await(ctx); err == nil && out.Decision == guard.Allow {
		c.printer.Info("Welcome back, %s.", c.app.Session.State().User.Username)
	} else {
		c.printer.Info("Not logged in. Type `login` or `register` to start.")
	}

	for {
		fmt.Fprintf(c.errOut, "jobboard%s> ", c.shellStatus())

		line, err := c.prompt.readLine()
		if errors.Is(err, ErrNoInput) {
			fmt.Fprintln(c.errOut)
			return nil
		}
		if err != nil {
			return err
		}

		args, err := splitArgs(line)
		if err != nil {
			c.printer.Error("%s", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}

		root := c.rootCommand()
		root.SetArgs(args)
		if err := root.ExecuteContext(ctx); err != nil {
			c.report(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// shellStatus is the prompt decoration: the username, or the MFA step.
func (c *CLI) shellStatus() string {
	st := c.app.Session.State()
	switch {
	case st.IsAuthenticated && st.User != nil:
		return " (" + st.User.Username + ")"
	case st.MFARequired:
		return " (mfa)"
	default:
		return ""
	}
}

// splitArgs splits a shell line into words with POSIX-style quoting. A word
// starting with # begins a comment.
func splitArgs(line string) ([]string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}
