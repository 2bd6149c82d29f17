package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	logx "github.com/pamonha-express/server/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pamonha",
	Short: "Pamonha Express ordering assistant",
	Long: `Runs the Pamonha Express ordering assistant. Each conversation cycle is served
either by the rule-based menu or by the generative engine, and ends with an
optional satisfaction questionnaire.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and initialises logging for a subcommand.
func setup() (*AppConfig, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment()})
	return cfg, nil
}
