package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"atomikgen/internal/diagnostic"
	"atomikgen/internal/emit"
	"atomikgen/internal/namespace"
)

// BatchReport is the machine-readable outcome of a Batch run.
type BatchReport struct {
	RunID     string          `json:"run_id"`
	Directory string          `json:"directory"`
	OutputDir string          `json:"output_dir"`
	StartedAt time.Time       `json:"started_at"`
	Duration  string          `json:"duration"`
	Schemas   []*SchemaReport `json:"schemas"`
}

// SchemaReport is the outcome for one schema file.
type SchemaReport struct {
	Path        string                  `json:"path"`
	Namespace   string                  `json:"namespace,omitempty"`
	Valid       bool                    `json:"valid"`
	Diagnostics *diagnostic.Diagnostics `json:"diagnostics,omitempty"`
	Results     []*emit.Result          `json:"results,omitempty"`
	Files       []string                `json:"files,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// OK reports whether the schema validated and every target succeeded.
func (s *SchemaReport) OK() bool {
	if !s.Valid || s.Error != "" {
		return false
	}

	for _, r := range s.Results {
		if !r.Success {
			return false
		}
	}

	return true
}

// OK reports whether every schema in the run succeeded.
func (r *BatchReport) OK() bool {
	for _, s := range r.Schemas {
		if !s.OK() {
			return false
		}
	}

	return true
}

// Failures returns the number of schemas that did not succeed.
func (r *BatchReport) Failures() int {
	n := 0

	for _, s := range r.Schemas {
		if !s.OK() {
			n++
		}
	}

	return n
}

// TotalFiles returns the number of files written across the run.
func (r *BatchReport) TotalFiles() int {
	n := 0
	for _, s := range r.Schemas {
		n += len(s.Files)
	}

	return n
}

// Report builds the SchemaReport for the loaded schema.
func (e *Engine) Report(diags *diagnostic.Diagnostics, results map[string]*emit.Result, files []string) *SchemaReport {
	sr := &SchemaReport{
		Path:        e.source,
		Diagnostics: diags,
		Valid:       diags != nil && diags.IsValid(),
		Results:     sortedResults(results),
		Files:       files,
	}

	if e.schema != nil {
		sr.Namespace = e.schema.Path().String()
	}

	return sr
}

// WriteJSON writes the report as indented JSON, creating parent directories.
func (r *BatchReport) WriteJSON(path string) error {
	return WriteReport(path, r)
}

// WriteReport writes v as indented JSON, creating parent directories.
func WriteReport(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), dirPerm)
	if err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	err = os.WriteFile(path, append(data, '\n'), filePerm)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

// sortedResults orders results by target: built-in targets first in
// canonical order, then the rest by name.
func sortedResults(results map[string]*emit.Result) []*emit.Result {
	out := make([]*emit.Result, 0, len(results))

	for _, t := range namespace.Targets() {
		if r, ok := results[t]; ok {
			out = append(out, r)
		}
	}

	var extra []string

	for t := range results {
		if !namespace.IsTarget(t) {
			extra = append(extra, t)
		}
	}

	sort.Strings(extra)

	for _, t := range extra {
		out = append(out, results[t])
	}

	return out
}
