// Package cli implements the mpvbridge command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/sukerxi/mpvbridge/internal/app"
	"github.com/sukerxi/mpvbridge/internal/config"
	"github.com/sukerxi/mpvbridge/internal/metrics"
)

// NewRootCommand builds the command tree. Configuration is read from fs
// before any subcommand runs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	root := &cobra.Command{
		Use:           "mpvbridge",
		Short:         "Play media in mpv with touch gesture controls",
		Version:       app.GetVersionInfo().FullString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir := lo.Must(cmd.Flags().GetString("config"))
			if err := config.Setup(fs, dir); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return nil
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringP("config", "c", "", "Directory containing mpvbridge.toml")

	root.PersistentFlags().String("mpv", "", "mpv executable to launch")
	lo.Must0(viper.BindPFlag(config.MpvBinary, root.PersistentFlags().Lookup("mpv")))

	root.PersistentFlags().StringP("log-level", "l", "", "Minimum log level (debug, info, warn, error)")
	lo.Must0(viper.BindPFlag(config.LogLevel, root.PersistentFlags().Lookup("log-level")))

	root.PersistentFlags().String("metrics", "", "Address to expose prometheus metrics on")
	lo.Must0(viper.BindPFlag(config.MetricsAddr, root.PersistentFlags().Lookup("metrics")))

	root.AddCommand(
		newPlayCommand(),
		newUICommand(),
		newTracksCommand(),
		newConfigCommand(),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand(afero.NewOsFs()).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "mpvbridge:", err)
		os.Exit(1)
	}
}

// session describes one player run.
type session struct {
	ref      string
	start    time.Duration
	headless bool
	windowID int64
	mock     bool
}

// runPlayer starts the application, optionally opens s.ref and blocks until
// the window or mpv is closed or the process is interrupted. The metrics
// endpoint, when configured, runs alongside it.
func runPlayer(cmd *cobra.Command, s session) error {
	cfg := app.ConfigFromViper()
	cfg.Headless = s.headless
	cfg.WindowID = s.windowID
	cfg.UseMockEngine = s.mock

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			application.Logger().Warn("shutdown failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if addr := config.MetricsAddress(); addr != "" {
		metrics.Register(prometheus.DefaultRegisterer)
		g.Go(func() error {
			return metrics.Serve(ctx, addr, application.Logger())
		})
	}

	if s.ref != "" {
		openCtx, cancel := context.WithTimeout(ctx, openTimeout)
		err := application.Open(openCtx, s.ref, s.start)
		cancel()
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
	}

	// fyne's event loop must own the main goroutine
	application.Run(ctx)
	stop()
	return g.Wait()
}

const openTimeout = 10 * time.Second
