package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stratafsm/strata/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "stratactl",
	Short: "Stratactl drives hierarchical state machines defined in YAML charts",
	Long:  `Stratactl loads a Strata chart, builds the machine and feeds it signals from stdin, HTTP, or a Redis bus.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}

// newLogger builds the CLI logger honoring the --verbose flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return logging.New(level)
}
