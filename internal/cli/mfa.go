package cli

import (
	"errors"
	"os"

	"github.com/aussiebroadwan/jobboard/internal/flows"
	"github.com/aussiebroadwan/jobboard/internal/mfasetup"
	"github.com/spf13/cobra"
)

func (c *CLI) mfaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mfa",
		Short: "Manage two-factor authentication",
	}
	cmd.AddCommand(c.mfaSetupCommand(), c.mfaDisableCommand())
	return cmd
}

func (c *CLI) mfaSetupCommand() *cobra.Command {
	var (
		qrFile string
		qrSize int
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Enable two-factor authentication with an authenticator app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.requireLogin(ctx); err != nil {
				return err
			}
			user := c.app.Session.State().User
			if err := flows.CanEnableMFA(user); err != nil {
				return err
			}

			flow := mfasetup.New(c.app.Client, c.app.Session)
			if err := flow.Start(ctx); err != nil {
				return c.flowError(flow, err)
			}

			st := flow.State()
			c.printer.Message("Add this account to your authenticator app.")
			c.printer.Message("Secret: %s", st.Secret)
			if key, err := flow.Key(user.Username); err == nil {
				c.printer.Message("URL:    %s", key.URL())
			}

			if qrFile != "" {
				if err := writeQR(flow, qrFile, user.Username, qrSize); err != nil {
					return err
				}
				c.printer.Info("QR code written to %s", qrFile)
			}

			for {
				input, err := c.prompt.Line("Code from the app", "")
				if err != nil {
					return err
				}
				flow.SetCode(input)

				codes, err := flow.Verify(ctx)
				if err == nil {
					c.printer.Warning("Store these backup codes somewhere safe. Each works once.")
					if err := c.printer.Print(codesView(codes)); err != nil {
						return err
					}
					break
				}
				if errors.Is(err, mfasetup.ErrIncompleteCode) {
					c.printer.Error("%s", flows.MsgIncompleteCode)
					continue
				}
				c.report(c.flowError(flow, err))
			}

			redirect, err := flow.Finish()
			if err != nil {
				return err
			}
			c.printer.Success("%s", redirect.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&qrFile, "qr", "", "write the enrollment QR code to this PNG file")
	cmd.Flags().IntVar(&qrSize, "qr-size", mfasetup.DefaultQRSize, "QR code size in pixels")
	return cmd
}

func writeQR(flow *mfasetup.Flow, path, account string, size int) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := flow.WriteQRPNG(f, account, size); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// flowError turns a flow failure into the message the flow recorded.
func (c *CLI) flowError(flow *mfasetup.Flow, err error) error {
	var redirect *mfasetup.Redirect
	if errors.As(err, &redirect) {
		return err
	}
	if msg := flow.State().Error; msg != "" {
		return &flows.ServerError{Message: msg, Err: err}
	}
	return err
}

func (c *CLI) mfaDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Turn two-factor authentication off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.requireLogin(ctx); err != nil {
				return err
			}
			if !c.app.Session.State().User.MFAEnabled {
				return &flows.ValidationError{Message: flows.MsgMFANotEnabled}
			}

			var (
				form flows.DisableMFAForm
				err  error
			)
			if form.Password, err = c.prompt.Secret("Password"); err != nil {
				return err
			}
			if form.Code, err = c.prompt.Line("Authentication or backup code", ""); err != nil {
				return err
			}

			nav, err := flows.DisableMFA(ctx, c.app.Client, c.app.Session, form)
			if err != nil {
				return err
			}
			c.printer.Success("%s", nav.Message)
			return nil
		},
	}
}
