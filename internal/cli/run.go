package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/fastpath/internal/config"
	"github.com/roach88/fastpath/internal/harness"
	"github.com/roach88/fastpath/internal/ir"
	"github.com/roach88/fastpath/internal/journal"
	"github.com/roach88/fastpath/internal/metrics"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config   string
	Database string
	Metrics  bool
}

// RunSummary is the result of the run command.
type RunSummary struct {
	Scenario   string   `json:"scenario"`
	Pass       bool     `json:"pass"`
	FinalState any      `json:"final_state"`
	Dispatches int      `json:"dispatches"`
	Cycles     int      `json:"cycles"`
	Diverged   int      `json:"diverged"`
	Journal    string   `json:"journal,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario against the counter application",
		Long: `Run a single scenario through a real store and engine.

The engine configuration comes from the scenario's config section unless
--config names a .cue or .toml file. With --db (or a journal path in the
configuration) every dispatch and reconciliation cycle is written to a
SQLite journal that the trace command can read back.

Exit codes:
  0 - Scenario passed
  1 - Scenario expectations failed
  2 - Command error (invalid paths, bad config, etc.)

Examples:
  fastpath run ./scenarios/revert_future.yaml
  fastpath run ./scenarios/revert_future.yaml --config engine.cue --db trace.db
  fastpath run ./scenarios/revert_future.yaml --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "engine config file (.cue or .toml)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics after the run")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	if opts.Config != "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		scenario.Config = cfg
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	runOpts := []harness.RunOption{harness.WithObserver(recorder)}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = scenario.Config.Journal
	}
	if dbPath != "" {
		j, err := journal.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithObserver(j))
	}

	slog.Info("running scenario", "name", scenario.Name, "policy", policyName(scenario.Config), "journal", dbPath)

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}

	summary := summarize(scenario.Name, result)
	summary.Journal = dbPath

	if opts.Format == "json" {
		var cliErr *CLIError
		if !summary.Pass {
			cliErr = &CLIError{Code: ErrCodeScenarioFailed, Message: "scenario failed", Details: summary.Errors}
		}
		if err := out.JSON(summary, cliErr); err != nil {
			return err
		}
	} else {
		printRunSummary(cmd.OutOrStdout(), summary)
	}

	if opts.Metrics {
		if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	if !summary.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func summarize(name string, result *harness.Result) RunSummary {
	s := RunSummary{
		Scenario:   name,
		Pass:       result.Pass,
		FinalState: ir.ToGo(result.FinalState),
		Errors:     result.Errors,
	}
	for _, e := range result.Trace {
		switch e.Type {
		case harness.EventDispatch:
			s.Dispatches++
		case harness.EventCycle:
			s.Cycles++
			if e.Diverged {
				s.Diverged++
			}
		}
	}
	return s
}

func printRunSummary(w io.Writer, s RunSummary) {
	mark := "✓"
	if !s.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, s.Scenario)
	fmt.Fprintf(w, "  final state: %v\n", s.FinalState)
	fmt.Fprintf(w, "  dispatches: %d, cycles: %d, diverged: %d\n", s.Dispatches, s.Cycles, s.Diverged)
	if s.Journal != "" {
		fmt.Fprintf(w, "  journal: %s\n", s.Journal)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// writeMetrics writes every gathered metric family in the Prometheus text
// exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func policyName(cfg config.Config) string {
	if cfg.Conservative {
		return "conservative"
	}
	return "permissive"
}
