package main

import (
	"errors"
	"fmt"

	"github.com/prephub/prephub-api/internal/client"
	"github.com/spf13/cobra"
)

func newRegisterCmd(a *app) *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a PrepHub account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var err error
			if req.Username == "" {
				if req.Username, err = a.prompt(out, "Username"); err != nil {
					return err
				}
			}
			if req.Email == "" {
				if req.Email, err = a.prompt(out, "Email"); err != nil {
					return err
				}
			}
			if req.Password, err = a.password(cmd); err != nil {
				return err
			}

			res, err := a.client.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (user id %d)\n", res.Message, res.UserID)
			if res.Token != "" && res.User != nil {
				fmt.Fprintf(out, "Logged in as %s\n", res.User.Username)
			} else {
				fmt.Fprintln(out, "Run `prephub login` to sign in.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "account username")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&req.Role, "role", "", "student (default) or admin; admin needs an admin session")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var err error
			if email == "" {
				if email, err = a.prompt(out, "Email"); err != nil {
					return err
				}
			}
			pw, err := a.password(cmd)
			if err != nil {
				return err
			}

			u, err := a.client.Login(cmd.Context(), email, pw)
			if errors.Is(err, client.ErrUnauthorized) {
				return errors.New("invalid credentials")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Welcome back, %s!\n", u.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the locally stored user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.client.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if u == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			printUser(cmd, u)
			return nil
		},
	}
}

func newMeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Fetch the current profile from the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			printUser(cmd, u)
			return nil
		},
	}
}

func printUser(cmd *cobra.Command, u *client.User) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s id=%d\n", u.Username, u.Email, u.Role, u.ID)
}
