package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/fixture"
)

var fixturePort int

var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Serve the built-in demo wizard",
	Long: `Serve a local copy of the demo wizard over plain HTTP. Point
target.baseURL at it to try the suite without the real application.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		if fixturePort > 0 {
			cfg.Fixture.Port = fixturePort
		}

		srv := fixture.NewServer(cfg.Fixture, nil, logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Browser.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("fixture shutdown", zap.Error(err))
			return err
		}
		return <-errCh
	},
}

func init() {
	fixtureCmd.Flags().IntVarP(&fixturePort, "port", "p", 0, "Override fixture.port")
}
