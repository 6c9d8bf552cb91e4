package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/jobboard/internal/flows"
	"github.com/aussiebroadwan/jobboard/internal/localstore"
	"github.com/aussiebroadwan/jobboard/pkg/jwtx"
	"github.com/aussiebroadwan/jobboard/pkg/strength"
	"github.com/spf13/cobra"
)

func (c *CLI) registerCommand() *cobra.Command {
	var form flows.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var err error
			if form.Name, err = c.ask(form.Name, "Name", ""); err != nil {
				return err
			}
			if form.Username, err = c.ask(form.Username, "Username", ""); err != nil {
				return err
			}
			if !cmd.Flags().Changed("email") {
				if form.Email, err = c.prompt.Line("Email (optional)", ""); err != nil {
					return err
				}
			}

			if form.Password, err = c.prompt.Secret("Password"); err != nil {
				return err
			}
			c.showStrength(form.Strength())
			if form.ConfirmPassword, err = c.prompt.Secret("Confirm password"); err != nil {
				return err
			}

			if _, err := flows.Register(ctx, c.app.Session, form); err != nil {
				return err
			}
			c.remember(ctx, form.Username)
			c.printer.Success("Registration successful. Log in with `jobboard login`.")
			if strings.TrimSpace(form.Email) != "" {
				c.printer.Info("Check your inbox to verify %s.", strings.TrimSpace(form.Email))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "display name")
	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "username")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address (optional)")
	return cmd
}

// showStrength prints the meter the sign-up screen shows under the field.
func (c *CLI) showStrength(res strength.Result) {
	if res.Acceptable {
		c.printer.Info("Password strength: %s", res.Label())
		return
	}
	c.printer.Warning("Password strength: %s. %s", res.Label(), strings.Join(res.Suggestions, "; "))
}

func (c *CLI) loginCommand() *cobra.Command {
	var (
		username string
		code     string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Long: `Sign in with a username and password. Accounts with two-factor
authentication are asked for a code from the authenticator app, or one of
the backup codes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var err error
			if username == "" {
				if username, err = c.prompt.Line("Username", c.app.Local.LastUsername(ctx)); err != nil {
					return err
				}
			}
			password, err := c.prompt.Secret("Password")
			if err != nil {
				return err
			}

			login := flows.NewLogin(c.app.Session)
			step, _, err := login.Submit(ctx, flows.LoginForm{Username: username, Password: password})
			if err != nil {
				return err
			}
			c.remember(ctx, username)

			if step == flows.StepMFA {
				if err := c.mfaStep(ctx, login, code); err != nil {
					return err
				}
			}

			c.printer.Success("Logged in as %s.", c.app.Session.State().User.Username)
			if flows.ShowVerificationBanner(c.app.Session.State().User) {
				c.printer.Warning("Your email address is not verified. Run `jobboard resend-verification` for a new link.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringVar(&code, "code", "", "MFA code, when the account needs one")
	return cmd
}

// mfaStep asks for codes until one is accepted, the user gives up with an
// empty answer, or input runs out.
func (c *CLI) mfaStep(ctx context.Context, login *flows.Login, code string) error {
	c.printer.Info("Two-factor authentication is enabled for this account.")

	for {
		if code == "" {
			var err error
			if code, err = c.prompt.Line("Authentication code (empty to cancel)", ""); err != nil {
				login.Cancel()
				return err
			}
			if code == "" {
				login.Cancel()
				return errors.New("login cancelled")
			}
		}

		_, err := login.SubmitCode(ctx, code)
		if err == nil {
			return nil
		}
		if !flows.IsValidation(err) && !login.AwaitingCode() {
			return err
		}
		c.report(err)
		code = ""
	}
}

// remember stores username as the login prompt's default. It is a
// convenience, so failures are only logged.
func (c *CLI) remember(ctx context.Context, username string) {
	if err := c.app.Local.SetPref(ctx, localstore.PrefLastUsername, username); err != nil {
		c.app.Logger.Warn("failed to remember username", "error", err)
	}
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := c.app.Session.Logout(cmd.Context())
			// The server may be unreachable; the local session is gone either way.
			if clearErr := c.app.Jar.Clear(cmd.Context()); clearErr != nil {
				return clearErr
			}
			if err != nil {
				c.app.Logger.Warn("server logout failed", "error", err)
			}
			c.printer.Success("Logged out.")
			return nil
		},
	}
}

func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			return c.printer.Print(userView(c.app.Session.State().User))
		},
	}
}

func (c *CLI) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := c.app.Session.State()
			info := statusInfo{
				API:   c.app.Config.APIURL,
				Phase: string(st.Phase()),
			}
			if st.User != nil {
				info.Username = st.User.Username
			}

			if raw, ok := c.app.AccessToken(); ok {
				info.Token = true
				claims, err := jwtx.Inspect(raw)
				if err != nil {
					c.app.Logger.Debug("access token not inspectable", "error", err)
				} else {
					if info.Username == "" {
						info.Username = claims.Username
					}
					if claims.ExpiresAt != nil {
						exp := claims.ExpiresAt.Time
						info.ExpiresAt = &exp
						info.Remaining = claims.Remaining(time.Now())
					}
				}
			}
			return c.printer.Print(statusView(info))
		},
	}
}

// ask returns current when set, otherwise prompts for a required value.
func (c *CLI) ask(current, prompt, def string) (string, error) {
	if current != "" {
		return current, nil
	}
	v, err := c.prompt.Line(prompt, def)
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(prompt), err)
	}
	return v, nil
}
