package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aegisrent/aegis-console/internal/config"
	"github.com/aegisrent/aegis-console/internal/content"
	"github.com/aegisrent/aegis-console/internal/gateway"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, language string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long: `Sign in to the backend and store the session in the config file.

The password is read from standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && password == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(password, "\r\n")
			if password == "" {
				return errors.New("password cannot be empty")
			}

			if language != "" {
				lang, err := content.ParseLanguage(language)
				if err != nil {
					return err
				}
				a.cfg.Language = lang
			}

			// A fresh login never reuses the previous token.
			a.cfg.ClearSession()
			client, err := a.newClient()
			if err != nil {
				return err
			}

			user, err := client.Login(cmd.Context(), gateway.Credentials{Email: email, Password: password})
			if err != nil {
				return fmt.Errorf("%s: %w", gateway.UserMessage(err), err)
			}

			a.cfg.Token = client.Session().Token()
			a.cfg.User = cachedUser(user)
			if err := a.save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s as %s\n", a.cfg.BackendURL, user.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&language, "language", "", "preferred authoring language (en, es, pt, fr, de)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.IsLoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			a.cfg.ClearSession()
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.IsLoggedIn() {
				return errors.New("not logged in")
			}

			if refresh || a.cfg.User == nil {
				client, err := a.authedClient()
				if err != nil {
					return err
				}
				user, err := client.Me(cmd.Context())
				if err != nil {
					return describe(err)
				}
				a.cfg.User = cachedUser(user)
				if err := a.save(); err != nil {
					return err
				}
			}

			u := a.cfg.User
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:  %s\n", a.cfg.BackendURL)
			fmt.Fprintf(out, "User:     %s <%s>\n", u.Name, u.Email)
			if u.Role != "" {
				fmt.Fprintf(out, "Role:     %s\n", u.Role)
			}
			if u.CompanyID != "" {
				fmt.Fprintf(out, "Company:  %s\n", u.CompanyID)
			}
			if a.cfg.Language != "" {
				fmt.Fprintf(out, "Language: %s\n", a.cfg.Language)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the user from the backend")

	return cmd
}

func cachedUser(u gateway.User) *config.CachedUser {
	return &config.CachedUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name(),
		Role:      u.Role,
		CompanyID: u.CompanyID,
	}
}
