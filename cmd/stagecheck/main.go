// Command stagecheck drives a browser through the demo wizard and reports
// whether every stage behaves as its table says.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/config"
	"github.com/copyleftdev/stagecheck/internal/logging"
)

var (
	configPath string
	logLevel   string
	baseURL    string
)

var rootCmd = &cobra.Command{
	Use:           "stagecheck",
	Short:         "Verify a multi-stage form wizard end to end",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./stagecheck.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Override target.baseURL")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(awakeCmd)
	rootCmd.AddCommand(fixtureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if baseURL != "" {
		cfg.Target.BaseURL = baseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
