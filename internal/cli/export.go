package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/perfmodel/internal/codec"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
	Type   string
}

// ExportResult is the JSON summary printed when exporting to a file.
type ExportResult struct {
	Path      string `json:"path"`
	Type      string `json:"type"`
	Digest    string `json:"digest"`
	Scenarios int    `json:"scenarios"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored model as JSON or YAML",
		Long: `Write the stored model's export view: scenarios with their workload,
interactions with span statistics, and the static architecture graph.

The export type defaults to the extension of -o, then to json.

Examples:
  perfmodel export -o model.json
  perfmodel export -o model.yaml
  perfmodel export --type yaml > model.yml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "export type (json|yaml)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	format, err := exportFormat(opts.Type, opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid export type", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := st.Load(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load model", err)
	}

	scale := opts.settings().Merge.ArrivalRateScale
	var buf bytes.Buffer
	if err := codec.EncodeModel(&buf, m, scale, format); err != nil {
		return WrapExitError(ExitFailure, "failed to export model", err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapExitError(ExitCommandError, "failed to write export", err)
		}
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export", err)
	}

	view, err := codec.NewModelView(m, scale)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build model view", err)
	}
	result := ExportResult{
		Path:      opts.Output,
		Type:      string(format),
		Digest:    view.Digest,
		Scenarios: len(view.Scenarios),
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d scenario(s) to %s (digest %s)\n",
		result.Scenarios, result.Path, shortDigest(result.Digest))
	return nil
}

// exportFormat picks the export format from --type, then from the output
// file's extension, then json.
func exportFormat(typ, output string) (codec.Format, error) {
	if typ != "" {
		return codec.ParseFormat(typ)
	}
	if output != "" {
		if f, ok := codec.FormatFromPath(output); ok {
			return f, nil
		}
	}
	return codec.FormatJSON, nil
}
