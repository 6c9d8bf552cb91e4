package cli

import (
	"fmt"
	"strings"

	"github.com/aussiebroadwan/jobboard/internal/flows"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/spf13/cobra"
)

func (c *CLI) verifyEmailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm an email address with the token from the verification mail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			}
			nav, err := flows.VerifyEmail(cmd.Context(), c.app.Client, token)
			if err != nil {
				return err
			}
			c.printer.Success("%s", nav.Message)
			return nil
		},
	}
}

func (c *CLI) resendVerificationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resend-verification",
		Short: "Mail a new verification link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.requireLogin(ctx); err != nil {
				return err
			}
			if !flows.ShowVerificationBanner(c.app.Session.State().User) {
				c.printer.Info("Your email address is already verified.")
				return nil
			}

			msg, err := flows.ResendVerification(ctx, c.app.Client)
			if err != nil {
				return err
			}
			c.printer.Success("%s", msg)
			return nil
		},
	}
}

func (c *CLI) forgotPasswordCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset mail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = c.prompt.Line("Email", ""); err != nil {
					return err
				}
			}

			msg, err := flows.ForgotPassword(cmd.Context(), c.app.Client, email)
			if err != nil {
				return err
			}
			c.printer.Success("%s", msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email address")
	return cmd
}

func (c *CLI) resetPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Choose a new password with the token from the reset mail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var form flows.ResetPasswordForm
			if len(args) == 1 {
				form.Token = args[0]
			}
			if strings.TrimSpace(form.Token) == "" {
				return &flows.ValidationError{Message: flows.MsgResetTokenMissing}
			}

			var err error
			if form.Password, err = c.prompt.Secret("New password"); err != nil {
				return err
			}
			if form.ConfirmPassword, err = c.prompt.Secret("Confirm new password"); err != nil {
				return err
			}

			nav, err := flows.ResetPassword(cmd.Context(), c.app.Client, form)
			if err != nil {
				return err
			}
			c.printer.Success("%s", nav.Message)
			return nil
		},
	}
}

func (c *CLI) oauthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Sign in with Google or GitHub",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "url <provider>",
		Short:     "Print the URL that starts a provider sign in",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(boardsdk.ProviderGoogle), string(boardsdk.ProviderGitHub)},
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := flows.OAuthStartURL(c.app.Client, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, u)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "callback <redirect-url>",
		Short: "Finish a provider sign in from the URL the browser landed on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := flows.CompleteOAuth(c.app.Session, args[0]); err != nil {
				return err
			}
			user := c.app.Session.State().User
			c.printer.Success("Logged in as %s via %s.", user.Username, user.Provider)
			return nil
		},
	})

	return cmd
}
