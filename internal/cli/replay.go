package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/perfmodel/internal/digest"
	"github.com/roach88/perfmodel/internal/engine"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	SessionID string // optional - specific session only
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	SessionID     string                  `json:"session_id,omitempty"`
	Records       int                     `json:"records"`
	Mismatches    []engine.ReplayMismatch `json:"mismatches,omitempty"`
	StoredDigest  string                  `json:"stored_digest,omitempty"`
	ReplayDigest  string                  `json:"replay_digest"`
	Deterministic bool                    `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the model from the merge log and verify it",
		Long: `Re-merge every trace in the merge log, in seq order, into an empty model.

Each record's outcome and fingerprint digest must match what was logged,
and the rebuilt model's digest must equal the stored model's. With
--session only that session's records are replayed and the model digest
is not compared.

Exit codes:
  0 - Replay matches the log and the stored model
  1 - Replay drifted (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  perfmodel replay --db ./model.db
  perfmodel replay --session 0192f0c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay one merge session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var records []engine.Record
	if opts.SessionID != "" {
		records, err = st.ReadSessionLog(ctx, opts.SessionID)
	} else {
		records, err = st.ReadMergeLog(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read merge log", err)
	}

	if len(records) == 0 {
		if opts.Format == "json" {
			return opts.formatter(cmd).Success(ReplayResult{SessionID: opts.SessionID, Deterministic: true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No merges found in database.")
		return nil
	}

	report, err := engine.Replay(ctx, records, opts.mergeOptions()...)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	replayDigest, err := digest.Model(report.Model)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to digest replayed model", err)
	}
	result := ReplayResult{
		SessionID:     opts.SessionID,
		Records:       report.Records,
		Mismatches:    report.Mismatches,
		ReplayDigest:  replayDigest,
		Deterministic: report.OK(),
	}

	if opts.SessionID == "" {
		stored, err := st.Load(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load model", err)
		}
		result.StoredDigest, err = digest.Model(stored)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to digest stored model", err)
		}
		if result.StoredDigest != result.ReplayDigest {
			result.Deterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(opts, cmd, result)
	}
	return outputReplayText(cmd, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(opts *ReplayOptions, cmd *cobra.Command, result ReplayResult) error {
	resp := CLIResponse{Status: "ok", Data: result, SessionID: result.SessionID}
	if !result.Deterministic {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    ErrCodeReplayDrift,
			Message: "replay does not match the merge log or stored model",
		}
	}
	if err := opts.formatter(cmd).Response(resp); err != nil {
		return err
	}
	if !result.Deterministic {
		return NewExitError(ExitFailure, "replay drift detected")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replayed %d merge(s)\n", result.Records)
	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "  ✗ seq %d trace %d: %s logged %q, replayed %q\n",
			m.Seq, m.TraceID, m.Field, m.Logged, m.Replay)
	}
	if result.StoredDigest != "" {
		fmt.Fprintf(w, "  stored model:   %s\n", result.StoredDigest)
	}
	fmt.Fprintf(w, "  replayed model: %s\n", result.ReplayDigest)

	if !result.Deterministic {
		fmt.Fprintln(w, "✗ Replay drift detected")
		return NewExitError(ExitFailure, "replay drift detected")
	}
	fmt.Fprintln(w, "✓ Replay matches")
	return nil
}
