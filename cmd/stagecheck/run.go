package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/report"
	"github.com/copyleftdev/stagecheck/internal/stage"
	"github.com/copyleftdev/stagecheck/internal/suite"
	"github.com/copyleftdev/stagecheck/internal/table"
)

var errChecksFailed = errors.New("one or more scenarios did not pass")

var (
	tablePath   string
	flowNames   []string
	reportPath  string
	maxParallel int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the verification table against the target wizard",
	Long: `Run every flow of the verification table (or the ones named with --flow)
against target.baseURL and write a JSON report.

Exits non-zero when any scenario fails or is cancelled.`,
	RunE: runSuite,
}

func init() {
	runCmd.Flags().StringVar(&tablePath, "table", "", "Verification table (default: embedded)")
	runCmd.Flags().StringSliceVar(&flowNames, "flow", nil, "Flows to run (default: all)")
	runCmd.Flags().StringVar(&reportPath, "report", "", `Report path, "-" for stdout`)
	runCmd.Flags().IntVar(&maxParallel, "parallel", 0, "Override suite.maxParallel")
}

func runSuite(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if tablePath != "" {
		cfg.Suite.TablePath = tablePath
	}
	if len(flowNames) > 0 {
		cfg.Suite.Flows = flowNames
	}
	if reportPath != "" {
		cfg.Suite.ReportPath = reportPath
	}
	if maxParallel > 0 {
		cfg.Suite.MaxParallel = maxParallel
	}

	locator, err := stage.NewLocator(cfg.Target.BaseURL, stage.DefaultRoutes)
	if err != nil {
		return err
	}
	tbl, err := table.Load(cfg.Suite.TablePath)
	if err != nil {
		return err
	}
	if err := tbl.Validate(locator); err != nil {
		return err
	}
	flows, err := tbl.Select(cfg.Suite.Flows...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := browser.Open(ctx, browser.OptionsFromConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Browser.ShutdownTimeout)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			logger.Warn("browser shutdown", zap.Error(err))
		}
	}()

	shots := browser.NewScreenshotter(cfg.Screenshots, logger)
	manager := suite.NewManager(session, locator, tbl.Embark, suite.OptionsFromConfig(cfg), shots, logger)

	logger.Info("starting run",
		zap.String("target", cfg.Target.BaseURL),
		zap.String("driver", cfg.Browser.Driver),
		zap.Int("flows", len(flows)),
		zap.Int("maxParallel", cfg.Suite.MaxParallel),
	)

	rep := report.New(cfg.Target.BaseURL, cfg.Browser.Driver)
	scenarios, runErr := manager.Run(ctx, flows)
	rep.Add(scenarios...)
	rep.Finish()

	if cfg.Suite.ReportPath != "" {
		if err := rep.Write(cfg.Suite.ReportPath); err != nil {
			return err
		}
	}
	printTotals(cmd, rep)

	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	if !rep.OK() {
		return errChecksFailed
	}
	return nil
}

func printTotals(cmd *cobra.Command, rep *report.Report) {
	out := cmd.OutOrStdout()
	for _, s := range rep.Scenarios {
		fmt.Fprintf(out, "%-10s %s\n", s.Status, s.Flow)
		for _, c := range s.Checks {
			if c.Failure != nil {
				fmt.Fprintf(out, "    %s: %s\n", c.Name, c.Failure.Message)
			}
		}
	}
	t := rep.Totals
	fmt.Fprintf(out, "\n%d scenarios: %d passed, %d failed, %d cancelled (%d checks, %d failed, %d skipped)\n",
		t.Scenarios, t.Passed, t.Failed, t.Cancelled, t.Checks, t.ChecksFailed, t.ChecksSkipped)
}
