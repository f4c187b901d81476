package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/perfmodel/internal/codec"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Scenario string
	Spans    bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarize the stored model",
		Long: `Print scenarios, interactions and the static architecture of the stored
model.

Examples:
  perfmodel show --db ./model.db
  perfmodel show -s checkout --spans
  perfmodel show --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Scenario, "scenario", "s", "", "show one scenario only")
	cmd.Flags().BoolVar(&opts.Spans, "spans", false, "list span statistics per interaction")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := st.Load(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load model", err)
	}

	view, err := codec.NewModelView(m, opts.settings().Merge.ArrivalRateScale)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build model view", err)
	}

	if opts.Scenario != "" {
		var kept []codec.ScenarioView
		for _, sv := range view.Scenarios {
			if sv.Name == opts.Scenario {
				kept = append(kept, sv)
			}
		}
		if kept == nil {
			return NewExitError(ExitFailure, fmt.Sprintf("scenario %q not found", opts.Scenario))
		}
		view.Scenarios = kept
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(view)
	}
	writeModelSummary(cmd.OutOrStdout(), view, opts.Spans, opts.Scenario == "")
	return nil
}

func writeModelSummary(w io.Writer, view *codec.ModelView, spans, static bool) {
	if len(view.Scenarios) == 0 {
		fmt.Fprintln(w, "Model is empty.")
	}
	for _, sv := range view.Scenarios {
		fmt.Fprintf(w, "Scenario %s (actor %s)\n", sv.Name, sv.Actor)
		fmt.Fprintf(w, "  traces:   %d\n", sv.TotalTraceCount)
		fmt.Fprintf(w, "  window:   [%d, %d]\n", sv.EarliestStart, sv.LatestEnd)
		if sv.ArrivalRate != "" {
			fmt.Fprintf(w, "  workload: %s\n", sv.WorkloadPattern)
		} else {
			fmt.Fprintln(w, "  workload: undefined")
		}
		for _, iv := range sv.Interactions {
			fmt.Fprintf(w, "  %s: %d trace(s), %d span(s), digest %s\n",
				iv.Name, len(iv.AppliedTraceIDs), len(iv.Spans), shortDigest(iv.FingerprintDigest))
			if !spans {
				continue
			}
			for _, sp := range iv.Spans {
				fmt.Fprintf(w, "    %-40s n=%d sum=%d mean=%s\n",
					sp.Operation, sp.SampleCount, sp.SumExecTime, sp.MeanExecTime)
			}
		}
	}

	if !static || view.Static == nil {
		return
	}
	g := view.Static
	fmt.Fprintln(w, "Static architecture")
	fmt.Fprintf(w, "  components: %d\n", len(g.Components))
	fmt.Fprintf(w, "  interfaces: %d\n", len(g.Interfaces))
	fmt.Fprintf(w, "  artifacts:  %d\n", len(g.Artifacts))
	fmt.Fprintf(w, "  nodes:      %d\n", len(g.Nodes))
	fmt.Fprintf(w, "  edges:      realize=%d manifest=%d deploy=%d use=%d\n",
		len(g.Realizations), len(g.Manifestations), len(g.Deployments), len(g.Usages))
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
