package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"atomikgen/internal/config"
	"atomikgen/internal/diagnostic"
	"atomikgen/internal/schema"
)

// schemaExtensions are the file extensions Batch treats as schemas.
var schemaExtensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// Discover returns the schema files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading schema directory: %w", err)
	}

	var paths []string

	for _, entry := range entries {
		if entry.IsDir() || !schemaExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)

	return paths, nil
}

// Batch runs the pipeline over every schema file in dir. All schemas are
// validated first, in parallel. A schema whose namespace repeats one
// declared by an earlier file (in name order) is rejected. The remaining
// valid schemas are then generated and written in parallel, each by its own
// Engine. Per-schema failures are recorded in the report; the error is
// non-nil only when dir cannot be read or ctx is cancelled.
func Batch(ctx context.Context, dir string, cfg config.Config, opts ...Option) (*BatchReport, error) {
	paths, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{
		RunID:     uuid.NewString(),
		Directory: dir,
		OutputDir: cfg.OutputDir,
		StartedAt: time.Now().UTC(),
		Schemas:   make([]*SchemaReport, len(paths)),
	}

	engines := make([]*Engine, len(paths))

	err = forEach(ctx, cfg.Parallelism, len(paths), func(i int) {
		e := New(cfg, opts...)
		sr := &SchemaReport{Path: paths[i]}

		diags, err := e.LoadSchema(paths[i])
		if err != nil {
			sr.Error = err.Error()
		}

		sr.Diagnostics = diags
		sr.Valid = err == nil && !diags.HasErrors()

		if sr.Valid {
			sr.Namespace = e.Schema().Path().String()
			engines[i] = e
		}

		report.Schemas[i] = sr
	})
	if err != nil {
		return nil, err
	}

	rejectDuplicateNamespaces(report, engines)

	err = forEach(ctx, cfg.Parallelism, len(paths), func(i int) {
		e := engines[i]
		if e == nil {
			return
		}

		sr := report.Schemas[i]

		results, err := e.Generate(cfg.Targets...)
		if err != nil {
			sr.Error = err.Error()

			return
		}

		sr.Files, err = e.WriteOutput(results)
		if err != nil {
			sr.Error = err.Error()
		}

		sr.Results = sortedResults(results)
	})
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(report.StartedAt).Round(time.Millisecond).String()

	return report, nil
}

// forEach calls fn for 0..n-1 on at most limit goroutines.
func forEach(ctx context.Context, limit, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fn(i)

			return nil
		})
	}

	return g.Wait()
}

func rejectDuplicateNamespaces(report *BatchReport, engines []*Engine) {
	var valid []*schema.Schema

	for _, e := range engines {
		if e != nil {
			valid = append(valid, e.Schema())
		}
	}

	conflicts := schema.ValidateNamespaceUniqueness(valid)

	for _, d := range conflicts.Errors {
		for i, sr := range report.Schemas {
			if sr.Path != d.Schema || engines[i] == nil {
				continue
			}

			sr.Diagnostics.Merge(&diagnostic.Diagnostics{Errors: []diagnostic.Diagnostic{d}})
			sr.Valid = false
			sr.Error = fmt.Errorf("%w: %s", ErrNamespaceConflict, d.Message).Error()
			engines[i] = nil
		}
	}
}
