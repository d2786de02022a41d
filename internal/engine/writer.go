package engine

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"atomikgen/internal/emit"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// errEscapesRoot is wrapped by a WriteError for a path outside the output root.
var errEscapesRoot = errors.New("path escapes the output directory")

// WriteError reports a single file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// WriteOutput writes the files of every successful result under the
// configured output directory, replacing existing files. Failed results are
// skipped. A file that cannot be written is recorded on its result, which
// is then marked failed; the remaining files are still written. The
// returned error joins every WriteError.
func (e *Engine) WriteOutput(results map[string]*emit.Result) ([]string, error) {
	root := e.cfg.OutputDir

	err := os.MkdirAll(root, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	targets := make([]string, 0, len(results))
	for t := range results {
		targets = append(targets, t)
	}

	sort.Strings(targets)

	var (
		written []string
		errs    []error
	)

	for _, target := range targets {
		res := results[target]
		if res == nil || !res.Success {
			continue
		}

		for _, file := range res.Files {
			outputPath, err := writeFile(root, file)
			if err != nil {
				res.Errors = append(res.Errors, err.Error())
				res.Success = false
				errs = append(errs, err)

				continue
			}

			written = append(written, outputPath)
		}
	}

	e.log.Debug("output written", "dir", root, "files", len(written))

	return written, errors.Join(errs...)
}

func writeFile(root string, file emit.GeneratedFile) (string, error) {
	outputPath, err := confine(root, file.Path)
	if err != nil {
		return "", &WriteError{Path: file.Path, Err: err}
	}

	err = os.MkdirAll(filepath.Dir(outputPath), dirPerm)
	if err != nil {
		return "", &WriteError{Path: file.Path, Err: err}
	}

	err = os.WriteFile(outputPath, file.Content, filePerm)
	if err != nil {
		return "", &WriteError{Path: file.Path, Err: err}
	}

	return outputPath, nil
}

// confine resolves the slash-separated rel under root, rejecting absolute
// paths and any path that climbs out of root.
func confine(root, rel string) (string, error) {
	if rel == "" || path.IsAbs(rel) {
		return "", errEscapesRoot
	}

	local := filepath.FromSlash(path.Clean(rel))
	if !filepath.IsLocal(local) {
		return "", errEscapesRoot
	}

	return filepath.Join(root, local), nil
}
