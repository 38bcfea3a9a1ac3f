package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/recipebox/internal/domain"
)

func newLoginCmd(a *app) *cobra.Command {
	var creds domain.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the auth token",
		Args:  cobra.NoArgs,
		RunE: a.action(false, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if creds.Password == "" {
				pw, err := readPassword(cmd)
				if err != nil {
					return err
				}
				creds.Password = pw
			}
			if err := a.engine.Login(ctx, creds); err != nil {
				return err
			}
			user := a.engine.Store().State().Auth.User
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", user.DisplayName(), user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: a.action(false, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			// The local session is cleared even when the service call fails.
			err := a.engine.Logout(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return err
		}),
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: a.action(false, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if reg.Password == "" {
				pw, err := readPassword(cmd)
				if err != nil {
					return err
				}
				reg.Password = pw
			}
			user, err := a.engine.Register(ctx, reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (#%d); run \"recipebox login\" to sign in\n", user.Username, user.ID)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&reg.Email, "email", "", "account email")
	f.StringVar(&reg.Username, "username", "", "public username")
	f.StringVar(&reg.FirstName, "first-name", "", "first name")
	f.StringVar(&reg.LastName, "last-name", "", "last name")
	f.StringVar(&reg.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			s := a.engine.Store().State()
			if s.Auth.User == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			u := s.Auth.User
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> @%s, %d in cart\n",
				u.DisplayName(), u.Email, u.Username, s.ShoppingList.CartCount)
			return nil
		}),
	}
}

// readPassword prompts on the terminal without echo. Piped input is read
// as a single line.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}

	b, err := io.ReadAll(io.LimitReader(in, 4096))
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return strings.TrimRight(line, "\r"), nil
}
