package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/perfmodel/internal/engine"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Scenario  string
	Files     []string
	Dirs      []string
	Recursive bool

	// SessionGenerator allows overriding the session id generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionIDGenerator
}

// MergeFailure is one trace that was rolled back or one file that could
// not be read.
type MergeFailure struct {
	File    string `json:"file"`
	TraceID int64  `json:"trace_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MergeSummary is the output of the merge command.
type MergeSummary struct {
	SessionID string         `json:"session_id"`
	Scenario  string         `json:"scenario"`
	Files     int            `json:"files"`
	Traces    int            `json:"traces"`
	Created   int            `json:"created"`
	Merged    int            `json:"merged"`
	Duplicate int            `json:"duplicate"`
	Aborted   int            `json:"aborted"`
	Failures  []MergeFailure `json:"failures,omitempty"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge [trace-files...]",
		Short: "Merge trace files into the model",
		Long: `Merge recorded execution traces into a scenario of the model.

Trace files are JSON or YAML. A file holds one trace, a stream of traces,
or a {"traces": [...]} batch. Files are read from the arguments, from -f,
and from every .json, .yaml and .yml file under -d (subdirectories with -R).

Each trace is merged on its own: a trace that fails is rolled back and
reported, and merging continues. The model is validated and saved once all
traces are merged. Every merge is appended to the database's merge log.

Exit codes:
  0 - All traces merged (duplicates included)
  1 - One or more traces or files failed
  2 - Command error (database not found, etc.)

Examples:
  perfmodel merge -s checkout traces/run-1.json
  perfmodel merge -s checkout -d ./traces -R --db ./model.db
  perfmodel merge -s browse -f a.yaml -f b.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = append(opts.Files, args...)
			return runMerge(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Scenario, "scenario", "s", "", "scenario to merge into (default from config)")
	cmd.Flags().StringSliceVarP(&opts.Files, "file", "f", nil, "trace file (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.Dirs, "dir", "d", nil, "directory of trace files (repeatable)")
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "R", false, "descend into subdirectories of -d")

	return cmd
}

func runMerge(opts *MergeOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	scenario := opts.Scenario
	if scenario == "" {
		scenario = opts.settings().Scenario.Default
	}

	files, err := FindTraceFiles(TraceSource{Files: opts.Files, Dirs: opts.Dirs, Recursive: opts.Recursive})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to collect trace files", err)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, "no trace files given (use arguments, -f or -d)")
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Signal handling: an interrupt stops after the trace in progress and
	// still saves everything merged so far.
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lastSeq, err := st.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read merge log", err)
	}

	sessOpts := append(opts.mergeOptions(),
		engine.WithRecorder(st),
		engine.WithClock(engine.NewClockAt(lastSeq)),
	)
	if opts.SessionGenerator != nil {
		sessOpts = append(sessOpts, engine.WithSessionIDGenerator(opts.SessionGenerator))
	}
	v, err := opts.validator()
	if err != nil {
		return err
	}
	if v != nil {
		sessOpts = append(sessOpts, engine.WithValidator(v))
	}

	sess, err := engine.Open(ctx, st, sessOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open merge session", err)
	}

	summary := MergeSummary{SessionID: sess.ID(), Scenario: scenario}
	for _, file := range files {
		if ctx.Err() != nil {
			slog.Info("merge interrupted", "remaining_files", len(files)-summary.Files)
			break
		}
		summary.Files++
		mergeFile(ctx, sess, scenario, file, &summary, out)
	}

	// Close with a fresh context so an interrupt does not discard merges.
	if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
		return WrapExitError(ExitFailure, "failed to save model", err)
	}

	if err := outputMergeSummary(opts, cmd, summary); err != nil {
		return err
	}
	if len(summary.Failures) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d failure(s) while merging", len(summary.Failures)))
	}
	return nil
}

func mergeFile(ctx context.Context, sess *engine.Session, scenario, file string, summary *MergeSummary, out *OutputFormatter) {
	traces, err := LoadTraceFile(file)
	if err != nil {
		summary.Failures = append(summary.Failures, MergeFailure{
			File: file, Code: ErrCodeDecodeFailed, Message: err.Error(),
		})
		return
	}
	out.VerboseLog("merging %d trace(s) from %s", len(traces), file)

	for _, t := range traces {
		if ctx.Err() != nil {
			return
		}
		summary.Traces++
		res, err := sess.Merge(ctx, scenario, t)
		if err != nil {
			summary.Aborted++
			code := ErrCodeMergeFailed
			var me *engine.MergeError
			if errors.As(err, &me) {
				code = string(me.Code)
			}
			summary.Failures = append(summary.Failures, MergeFailure{
				File: file, TraceID: t.ID, Code: code, Message: err.Error(),
			})
			continue
		}
		switch res.Outcome {
		case engine.OutcomeCreated:
			summary.Created++
		case engine.OutcomeMerged:
			summary.Merged++
		case engine.OutcomeDuplicate:
			summary.Duplicate++
		}
	}
}

func outputMergeSummary(opts *MergeOptions, cmd *cobra.Command, s MergeSummary) error {
	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: s, SessionID: s.SessionID}
		if len(s.Failures) > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeMergeFailed,
				Message: fmt.Sprintf("%d failure(s) while merging", len(s.Failures)),
			}
		}
		return opts.formatter(cmd).Response(resp)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Scenario %s: %d trace(s) from %d file(s)\n", s.Scenario, s.Traces, s.Files)
	fmt.Fprintf(w, "  created:   %d\n", s.Created)
	fmt.Fprintf(w, "  merged:    %d\n", s.Merged)
	fmt.Fprintf(w, "  duplicate: %d\n", s.Duplicate)
	fmt.Fprintf(w, "  aborted:   %d\n", s.Aborted)
	for _, f := range s.Failures {
		if f.TraceID != 0 {
			fmt.Fprintf(w, "✗ %s trace %d [%s]: %s\n", f.File, f.TraceID, f.Code, f.Message)
		} else {
			fmt.Fprintf(w, "✗ %s [%s]: %s\n", f.File, f.Code, f.Message)
		}
	}
	if len(s.Failures) == 0 {
		fmt.Fprintln(w, "✓ Model saved")
	}
	return nil
}
