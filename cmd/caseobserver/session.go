package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and keep the session for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := rt.readSecret(fromStdin, envPassword, "password")
			if err != nil {
				return err
			}
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Session.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			printUser(rt, a.Session.State())
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newRegisterCmd(rt *runtime) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account and log in with it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := rt.readSecret(fromStdin, envPassword, "password")
			if err != nil {
				return err
			}
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Session.Register(cmd.Context(), args[0], args[1], password); err != nil {
				return err
			}
			rt.printf("account %s created\n", args[0])
			printUser(rt, a.Session.State())
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget its tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			a.Session.Logout(cmd.Context())
			rt.printf("logged out\n")
			return nil
		},
	}
}

func newRefreshCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Mint a new access token with the stored refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			if !a.Tokens.HasTokens() {
				return errNotLoggedIn
			}
			if err := a.Session.RefreshToken(cmd.Context()); err != nil {
				return err
			}
			if exp, ok := a.Tokens.AccessTokenExpiry(); ok {
				rt.printf("access token refreshed, expires %s\n", relTime(exp))
				return nil
			}
			rt.printf("access token refreshed\n")
			return nil
		},
	}
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			if a.Tokens.HasTokens() {
				if err := a.Session.EnsureFresh(cmd.Context()); err != nil {
					return err
				}
			}
			s := a.Session.Start(cmd.Context())
			if !s.IsAuthenticated {
				if s.Error != "" {
					return fmt.Errorf("%s: %w", s.Error, errNotLoggedIn)
				}
				return errNotLoggedIn
			}
			printUser(rt, s)
			return nil
		},
	}
}

func newProfileCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the user profile",
	}

	var email string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			profile, err := a.Users.UpdateProfile(cmd.Context(), domain.ProfileUpdate{Email: email})
			if err != nil {
				return err
			}
			a.Session.Start(cmd.Context())
			a.Session.UpdateUser(*profile)
			printUser(rt, a.Session.State())
			return nil
		},
	}
	update.Flags().StringVar(&email, "email", "", "new email address")
	_ = update.MarkFlagRequired("email")

	cmd.AddCommand(update)
	return cmd
}

func newPasswordCmd(rt *runtime) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the password",
		Long: "Change the password. With --password-stdin the current and the new password are read\n" +
			"from the first two lines of stdin, otherwise from " + envPassword + " and " + envNewPassword + ".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := rt.readSecret(fromStdin, envPassword, "current password")
			if err != nil {
				return err
			}
			next, err := rt.readSecret(fromStdin, envNewPassword, "new password")
			if err != nil {
				return err
			}
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := a.Users.ChangePassword(cmd.Context(), domain.PasswordChange{
				CurrentPassword: current,
				NewPassword:     next,
			})
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "password changed"
			}
			rt.printf("%s\n", msg)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the passwords from stdin")
	return cmd
}

func printUser(rt *runtime, s domain.SessionState) {
	if s.User == nil {
		rt.printf("logged in (profile unavailable)\n")
		return
	}
	u := s.User
	tw := newTable(rt.stdout)
	fmt.Fprintf(tw, "username\t%s\n", u.Username)
	fmt.Fprintf(tw, "email\t%s\n", orDash(u.Email))
	fmt.Fprintf(tw, "role\t%s\n", orDash(u.Role))
	_ = tw.Flush()
}
