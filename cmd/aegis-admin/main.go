// Package main is the entrypoint for the aegis-admin operator CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aegisrent/aegis-console/internal/config"
	"github.com/aegisrent/aegis-console/internal/content"
	"github.com/aegisrent/aegis-console/internal/gateway"
	"github.com/aegisrent/aegis-console/internal/httpclient"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	backendURL string
	verbose    bool

	cfg    *config.CLIConfig
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "aegis-admin",
		Short: "Aegis rental platform administration",
		Long: `aegis-admin manages rental companies on an Aegis backend: their
content documents, translations, Stripe accounts and vehicle images.

Run 'aegis-admin login --backend <url> --email <email>' to start.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return a.load(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.aegis/config.yml)")
	rootCmd.PersistentFlags().StringVar(&a.backendURL, "backend", "", "backend URL, overrides the configured one")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newCompaniesCmd(a),
		newContentCmd(a),
		newStripeCmd(a),
		newImagesCmd(a),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "aegis-admin %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// load reads the config file and sets up logging.
func (a *app) load(stderr io.Writer) error {
	level := zerolog.WarnLevel
	if a.verbose {
		level = zerolog.DebugLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	if a.configPath == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.backendURL != "" {
		cfg.BackendURL = strings.TrimRight(a.backendURL, "/")
	}
	a.cfg = cfg
	return nil
}

func (a *app) save() error {
	if err := a.cfg.Save(a.configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// newClient builds a backend client carrying the stored session. A 401 from
// the backend forgets the stored session.
func (a *app) newClient() (*gateway.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (pass --backend or run 'aegis-admin login')", err)
	}

	hc, err := httpclient.New(httpclient.Options{
		ProxyConfig: a.cfg.GetProxyConfig(),
		UserAgent:   "aegis-admin/" + Version,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	var user *gateway.User
	if cu := a.cfg.User; cu != nil {
		user = &gateway.User{ID: cu.ID, Email: cu.Email, FirstName: cu.Name, Role: cu.Role, CompanyID: cu.CompanyID}
	}

	return gateway.New(gateway.Options{
		BaseURL:    a.cfg.BackendURL,
		Session:    gateway.NewSession(a.cfg.Token, user),
		HTTPClient: hc,
		OnUnauthorized: func() {
			a.cfg.ClearSession()
			if err := a.save(); err != nil {
				a.logger.Warn().Err(err).Msg("failed to clear stored session")
			}
		},
		Logger: a.logger,
	})
}

// authedClient is newClient for commands that need a signed-in session.
func (a *app) authedClient() (*gateway.Client, error) {
	if !a.cfg.IsLoggedIn() {
		return nil, errors.New("not logged in, run 'aegis-admin login' first")
	}
	return a.newClient()
}

// language is the preferred authoring language as a supported code: the flag
// value if set, then the configured one, then the first supported language.
func (a *app) language(flag string) (string, error) {
	switch {
	case flag != "":
		return content.ParseLanguage(flag)
	case a.cfg.Language != "":
		return content.ParseLanguage(a.cfg.Language)
	}
	return content.Languages[0], nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// contextWithTimeout is context.WithTimeout, except that d <= 0 means no
// deadline.
func contextWithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// describe turns a backend error into the message shown to the operator.
func describe(err error) error {
	var apiErr *gateway.APIError
	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		return errors.New("session expired, run 'aegis-admin login' again")
	case errors.Is(err, gateway.ErrNoSession):
		return errors.New("not logged in, run 'aegis-admin login' first")
	case errors.As(err, &apiErr):
		return fmt.Errorf("%s: %w", gateway.UserMessage(err), err)
	}
	return err
}
