package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/perfmodel/internal/codec"
	"github.com/roach88/perfmodel/internal/trace"
)

// LoadError represents an error that occurred while collecting or decoding
// trace files.
type LoadError struct {
	Code    string
	Message string
	Path    string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TraceSource lists where trace files come from.
type TraceSource struct {
	Files     []string
	Dirs      []string
	Recursive bool
}

// FindTraceFiles returns the trace files of src in a stable order: explicit
// files first as given, then each directory's files sorted by path.
// Duplicate paths are returned once.
func FindTraceFiles(src TraceSource) ([]string, error) {
	var out []string
	add := func(path string) {
		if !slices.Contains(out, path) {
			out = append(out, path)
		}
	}

	for _, f := range src.Files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "trace file not found", Path: f}
		}
		if info.IsDir() {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "is a directory, use --dir", Path: f}
		}
		add(f)
	}

	for _, dir := range src.Dirs {
		files, err := scanDir(dir, src.Recursive)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

// scanDir lists the trace files of dir. Subdirectories are descended only
// when recursive is set.
func scanDir(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "directory not found", Path: dir}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "not a directory", Path: dir}
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := codec.FormatFromPath(path); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: err.Error(), Path: dir}
	}
	slices.Sort(files)
	return files, nil
}

// LoadTraceFile decodes every trace in path.
func LoadTraceFile(path string) ([]*trace.Trace, error) {
	traces, err := codec.DecodeTraceFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error(), Path: path}
	}
	return traces, nil
}
