package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stratafsm/strata/pkg/chart"
)

var validateCmd = &cobra.Command{
	Use:   "validate <chart.yaml>",
	Short: "Check a chart for consistency",
	Long:  `Parses the chart and reports duplicate states, transitions to undeclared states, and a missing or undeclared initial state.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Chart is valid.")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	c, err := chart.Load(path)
	if err != nil {
		return err
	}
	return c.Validate()
}
