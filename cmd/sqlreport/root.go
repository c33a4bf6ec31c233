package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlreport/internal/cli"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *slog.Logger

	// Persistent flags
	cfgFile  string
	logLevel string
	quiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "sqlreport",
	Short: "Report query compiler for PostgreSQL",
	Long: `sqlreport - Report query compiler for PostgreSQL

sqlreport turns JSON report requests (tables, columns, aggregations, filters,
HAVING and ORDER BY) into a single SELECT statement, joining tables along
known foreign keys.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return cli.ConfigError("invalid configuration", err)
		}

		logger, err = cli.NewLogger(cfg.Log, os.Stderr)
		if err != nil {
			return cli.ConfigError("configuring logger", err)
		}
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupReport  = "report"
	groupUtility = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover sqlreport.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupReport, Title: "Reports:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	serveCmd.GroupID = groupReport
	compileCmd.GroupID = groupReport
	graphCmd.GroupID = groupReport
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(graphCmd)

	doctorCmd.GroupID = groupUtility
	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}
