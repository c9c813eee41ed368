package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/stage"
	"github.com/copyleftdev/stagecheck/internal/suite"
	"github.com/copyleftdev/stagecheck/internal/table"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the stage routes and the URLs they resolve to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		locator, err := stage.NewLocator(cfg.Target.BaseURL, stage.DefaultRoutes)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tVARIANT\tHEADING\tURL")
		for _, r := range locator.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Kind, r.Variant, r.Heading, locator.URL(r.Path))
		}
		return w.Flush()
	},
}

var awakeCmd = &cobra.Command{
	Use:   "awake",
	Short: "Check that the target serves its index page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		locator, err := stage.NewLocator(cfg.Target.BaseURL, stage.DefaultRoutes)
		if err != nil {
			return err
		}
		session, err := browser.Open(ctx, browser.OptionsFromConfig(cfg), logger)
		if err != nil {
			return err
		}
		defer session.Close(context.Background())

		manager := suite.NewManager(session, locator, table.EmbarkExpectation{}, suite.OptionsFromConfig(cfg), nil, logger)
		if err := manager.Awake(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is awake\n", cfg.Target.BaseURL)
		return nil
	},
}
