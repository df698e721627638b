// ABOUTME: Root command for the clinic CLI
// ABOUTME: Handles global flags, configuration and wiring of client, services and session

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adeebazad/react-homoeo/internal/client"
	"github.com/adeebazad/react-homoeo/internal/config"
	"github.com/adeebazad/react-homoeo/internal/logger"
	"github.com/adeebazad/react-homoeo/internal/services"
	"github.com/adeebazad/react-homoeo/internal/session"
)

// Exit codes
const (
	exitOK       = 0
	exitRejected = 1
	exitError    = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "clinic",
	Short: "CLI for the homoeopathy clinic portal",
	Long: `clinic is a command-line client for the homoeopathy clinic portal.

It signs you in, books and manages appointments, reads medical records,
reviews record update requests and publishes blog posts.

Exit codes:
  0 - Success
  1 - Rejected (not logged in, session expired, permission denied)
  2 - Error (connectivity, invalid input, backend failure)

Environment Variables:
  CLINIC_API_URL     Backend API URL (default: ` + config.DefaultAPIURL + `)
  CLINIC_CONFIG_DIR  Directory for session.json, config.yaml and debug.log
  CLINIC_LOG_LEVEL   debug, info, warn, error (default: LOG_LEVEL, then warn)
  CLINIC_LOG_FORMAT  text or json (default: text)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyAPIURL, "", "Backend API URL (overrides CLINIC_API_URL)")
	flags.Bool(config.KeyJSON, false, "Output JSON instead of human-readable text")
	flags.String(config.KeyConfigDir, "", "Config directory (default: $XDG_CONFIG_HOME/clinic)")
	flags.String(config.KeyLogLevel, "", "Log level: debug, info, warn, error")
}

// app holds the dependencies of one command invocation
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *client.Client
	svc     *services.Services
	session *session.Manager
	// errOut receives out-of-band notices such as a forced logout
	errOut io.Writer
}

// newApp loads configuration and wires a session backed by session.json
func newApp(errOut io.Writer) (*app, error) {
	cfg, err := config.Load(rootCmd.PersistentFlags())
	if err != nil {
		return nil, err
	}
	l := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: errOut})
	return buildApp(cfg, l, session.NewFileStore(cfg.ConfigDir), errOut), nil
}

// buildApp wires client, services and session manager. The client needs the
// manager for token refresh and the manager needs the auth service, so the
// authenticator is attached after both exist.
func buildApp(cfg *config.Config, l *slog.Logger, store session.TokenStore, errOut io.Writer) *app {
	c := client.New(cfg.APIURL, client.WithLogger(l))
	svc := services.New(c)
	nav := session.NavigatorFunc(func(path string) {
		fmt.Fprintln(errOut, "Session expired. Run 'clinic login' to sign in again.")
	})
	mgr := session.NewManager(svc.Auth, store, session.WithLogger(l), session.WithNavigator(nav))
	c.SetAuthenticator(mgr)

	return &app{
		cfg:     cfg,
		logger:  l,
		client:  c,
		svc:     svc,
		session: mgr,
		errOut:  errOut,
	}
}

// run wires the app and executes fn with a signal-aware context, exiting with its code
func run(fn func(ctx context.Context, a *app, w io.Writer) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		os.Exit(exitError)
	}

	exitCode := fn(ctx, a, os.Stdout)
	if exitCode != exitOK {
		cancel()
		os.Exit(exitCode)
	}
}

// IsJSONOutput returns whether JSON output is requested
func (a *app) IsJSONOutput() bool {
	return a.cfg.JSON
}
