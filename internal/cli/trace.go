package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/fastpath/internal/engine"
	"github.com/roach88/fastpath/internal/ir"
	"github.com/roach88/fastpath/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database     string
	Run          int64
	DivergedOnly bool
	OriginKind   string
	Policy       string
	SinceSeq     int64
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run        int64                    `json:"run"`
	Runs       []int64                  `json:"runs"`
	Dispatches []journal.DispatchRecord `json:"dispatches"`
	Cycles     []journal.CycleRecord    `json:"cycles"`
	Stats      TraceStats               `json:"stats"`
}

// TraceStats holds summary statistics for the journal.
type TraceStats struct {
	Dispatches int `json:"dispatches"`
	Cycles     int `json:"cycles"`
	Diverged   int `json:"diverged"`
	Dropped    int `json:"dropped"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the dispatches and cycles recorded in a journal",
		Long: `Read back a journal written by "fastpath run --db".

Each "fastpath run" records a separate run; the latest run is shown unless
--run selects another. The output lists every authoritative dispatch with its snapshot and every
reconciliation cycle with the fast, replayed and reconciled states.

Examples:
  fastpath trace --db ./trace.db
  fastpath trace --db ./trace.db --diverged
  fastpath trace --db ./trace.db --run 1
  fastpath trace --db ./trace.db --kind REMOTE_LOAD_COUNTER --since 4
  fastpath trace --db ./trace.db --policy conservative
  fastpath trace --db ./trace.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Int64Var(&opts.Run, "run", 0, "run to show (default: latest)")
	cmd.Flags().BoolVar(&opts.DivergedOnly, "diverged", false, "only show cycles that diverged")
	cmd.Flags().StringVar(&opts.OriginKind, "kind", "", "only show cycles closing this authoritative kind")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "only show cycles reconciled under this policy (permissive, conservative)")
	cmd.Flags().Int64Var(&opts.SinceSeq, "since", 0, "only show cycles with seq at or after this value")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	switch engine.Policy(opts.Policy) {
	case "", engine.PolicyPermissive, engine.PolicyConservative:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown policy %q", opts.Policy))
	}

	// Opening a missing path would create an empty journal.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	runs, err := j.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}
	run := opts.Run
	if run == 0 && len(runs) > 0 {
		run = runs[len(runs)-1]
	}
	if run != 0 && !slices.Contains(runs, run) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run %d not found in journal", run))
	}

	dispatches, err := j.ReadDispatches(ctx, run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read dispatches", err)
	}
	cycles, err := j.ReadCycles(ctx, journal.CycleFilter{
		Run:          run,
		DivergedOnly: opts.DivergedOnly,
		OriginKind:   opts.OriginKind,
		Policy:       opts.Policy,
		SinceSeq:     opts.SinceSeq,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read cycles", err)
	}

	result := TraceResult{
		Run:        run,
		Runs:       runs,
		Dispatches: dispatches,
		Cycles:     cycles,
		Stats:      TraceStats{Dispatches: len(dispatches), Cycles: len(cycles)},
	}
	for _, c := range cycles {
		if c.Diverged {
			result.Stats.Diverged++
		}
		result.Stats.Dropped += len(c.Dropped)
	}

	if opts.Format == "json" {
		return out.JSON(result, nil)
	}
	printTrace(cmd.OutOrStdout(), result)
	return nil
}

func printTrace(w io.Writer, result TraceResult) {
	if len(result.Dispatches) == 0 && len(result.Cycles) == 0 {
		fmt.Fprintln(w, "Journal is empty.")
		return
	}

	fmt.Fprintf(w, "Run %d of %d\n", result.Run, len(result.Runs))

	fmt.Fprintln(w, "Dispatches:")
	for _, d := range result.Dispatches {
		fmt.Fprintf(w, "  [%d] %s(%s) snapshot=%s\n", d.Seq, d.Kind, d.OpID, formatState(d.Snapshot))
	}

	fmt.Fprintln(w, "Cycles:")
	for _, c := range result.Cycles {
		status := "converged"
		if c.Diverged {
			status = "diverged (" + c.Policy + ")"
		}
		fmt.Fprintf(w, "  [%d] %s(%s) %s\n", c.Seq, c.OriginKind, c.OriginID, status)
		fmt.Fprintf(w, "      fast=%s true=%s reconciled=%s\n",
			formatState(c.Fast), formatState(c.True), formatState(c.Reconciled))
		if len(c.Replayed) > 0 {
			fmt.Fprintf(w, "      replayed: %s\n", refKinds(c.Replayed))
		}
		if len(c.Dropped) > 0 {
			fmt.Fprintf(w, "      dropped: %s\n", refKinds(c.Dropped))
		}
	}

	fmt.Fprintf(w, "\n%d dispatches, %d cycles, %d diverged, %d dropped\n",
		result.Stats.Dispatches, result.Stats.Cycles, result.Stats.Diverged, result.Stats.Dropped)
}

func formatState(v ir.Value) string {
	data, err := ir.MarshalValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func refKinds(refs []journal.OperationRef) []string {
	kinds := make([]string, len(refs))
	for i, r := range refs {
		kinds[i] = r.Kind
	}
	return kinds
}
