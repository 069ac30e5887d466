package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/example/todo-tracker/client"
	"github.com/example/todo-tracker/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRegisterCmd(app *App) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = readSecret(cmd, "Password: ")
			}
			u, err := app.client.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			tui.OK(cmd.OutOrStdout(), "registered "+u.Email+", now run `todoctl login`")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when empty)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = app.cfg.Email
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				password = readSecret(cmd, "Password: ")
			}
			tokens, err := app.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			app.cfg.Email = email
			app.cfg.Session = client.Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}
			if err := saveConfig(app.ConfigPath, app.cfg); err != nil {
				return err
			}
			tui.OK(cmd.OutOrStdout(), "logged in as "+email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (defaults to the last one used)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when empty)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.cfg.Session = client.Session{}
			if err := saveConfig(app.ConfigPath, app.cfg); err != nil {
				return err
			}
			tui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.client.Me(cmd.Context())
			if err != nil {
				return app.explain(err)
			}
			line := u.Email
			if u.DisplayName != "" {
				line = u.DisplayName + " <" + u.Email + ">"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}

// readSecret reads a password without echo when stdin is a terminal, and
// one line of input otherwise.
func readSecret(cmd *cobra.Command, prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	if fd := int(os.Stdin.Fd()); cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(line)
}
