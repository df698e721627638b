// ABOUTME: Interactive terminal UI command
// ABOUTME: Logs go to debug.log in the config dir so they do not corrupt the screen

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adeebazad/react-homoeo/internal/config"
	"github.com/adeebazad/react-homoeo/internal/logger"
	"github.com/adeebazad/react-homoeo/internal/session"
	"github.com/adeebazad/react-homoeo/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer cancel()

		if err := runTUI(ctx); err != nil {
			fmt.Fprintf(os.Stdout, "Error: %v\n", err)
			cancel()
			os.Exit(exitError)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(ctx context.Context) error {
	cfg, err := config.Load(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}

	logFile, err := logger.OpenFile(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	defer logFile.Close()

	l := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: logFile})
	l.Info("starting terminal UI", "api_url", cfg.APIURL)

	// the TUI installs its own navigator, so out-of-band notices are dropped
	a := buildApp(cfg, l, session.NewFileStore(cfg.ConfigDir), io.Discard)
	return tui.Run(ctx, a.session, a.svc)
}
