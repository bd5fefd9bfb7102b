package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stratafsm/strata"
	"github.com/stratafsm/strata/pkg/chart"
	"github.com/stratafsm/strata/pkg/domain"
)

var runCmd = &cobra.Command{
	Use:   "run <chart.yaml>",
	Short: "Run a chart interactively",
	Long: `Builds the machine from the chart and reads signals from stdin, one per
line: a signal name, optionally followed by a JSON object with signal data.
Each committed state is printed to stdout as JSON.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRun(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// stdoutObserver prints each committed state as a JSON line.
type stdoutObserver struct {
	enc *json.Encoder
}

func (o stdoutObserver) Publish(_ context.Context, state domain.Value) error {
	return o.enc.Encode(map[string]any{
		"state":   state.Type,
		"payload": state.Payload,
	})
}

func runRun(cmd *cobra.Command, path string) error {
	logger := newLogger(cmd)

	c, err := chart.Load(path)
	if err != nil {
		return err
	}

	machine, err := c.Machine(
		strata.WithLogger(logger),
		strata.WithObserver(stdoutObserver{enc: json.NewEncoder(os.Stdout)}),
	)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := machine.Start(ctx, c.InitialValue()); err != nil {
		return err
	}
	defer func() { _ = machine.Stop() }()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		sig, err := parseSignalLine(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping line: %v\n", err)
			continue
		}
		if sig.Name == "" {
			continue
		}
		if err := machine.SubmitSync(ctx, sig); err != nil {
			fmt.Fprintf(os.Stderr, "signal %q: %v\n", sig.Name, err)
		}
	}
	return scanner.Err()
}

// parseSignalLine splits "name {json...}" into a Signal.
func parseSignalLine(line string) (chart.Signal, error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	sig := chart.Signal{Name: name}

	rest = strings.TrimSpace(rest)
	if rest != "" {
		if err := json.Unmarshal([]byte(rest), &sig.Data); err != nil {
			return chart.Signal{}, fmt.Errorf("invalid signal data: %w", err)
		}
	}
	return sig, nil
}
