package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

// PasswordEnv supplies the login password when --password is not given.
const PasswordEnv = "ERRORFIX_PASSWORD"

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session between runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(PasswordEnv)
			}
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				res := s.Client.Auth().Login(ctx, email, password)
				if !res.Success {
					return errors.New(res.Error)
				}
				user := s.Client.Auth().User()
				return out.message("Signed in as %s <%s>.", user.Name, user.Email)
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (or "+PasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out, clearing the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				if err := s.Client.Logout(ctx); err != nil {
					return err
				}
				return out.message("Signed out.")
			})
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(_ context.Context, s *Session, out *printer) error {
				user := s.Client.Auth().User()
				if out.format == "json" {
					return out.json(map[string]any{"authenticated": user != nil, "user": user})
				}
				if user == nil {
					return out.message("Not signed in.")
				}
				return out.message("%s <%s>", user.Name, user.Email)
			})
		},
	}
}
