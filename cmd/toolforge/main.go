// Command toolforge manages and runs dynamically proposed tools.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toolforge/internal/config"
	"toolforge/internal/logging"
)

var (
	// Global flags
	configPath string
	dataDir    string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "toolforge",
	Short: "toolforge - validate, register and run planner-proposed tools",
	Long: `toolforge keeps a durable catalog of tools a planner can call.

New tools arrive as Go source for a single function. They are statically
audited, compiled by an embedded interpreter and persisted under the data
directory. Built-in tools run in a separate worker process per call.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return logging.Initialize(logging.Config{
			Level:      cfg.Logging.Level,
			JSONFormat: cfg.Logging.IsJSON(),
			File:       cfg.Logging.File,
			Categories: cfg.Logging.Categories,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	submitCmd.Flags().StringVar(&submitDesc, "desc", "", "Tool description")
	invokeCmd.Flags().StringVar(&invokeArgs, "args", "{}", "Keyword arguments as a JSON object")
	historyCmd.Flags().StringVar(&historyTool, "tool", "", "Only show invocations of this tool")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum rows to show")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "Show aggregate statistics instead of rows")
	historyCmd.Flags().IntVar(&historyPrune, "prune", 0, "Keep only the newest N invocations")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(actCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
