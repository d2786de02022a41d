package consistency

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

// ErrUnavailable is returned by a Runner's Prepare when the installed
// toolchain cannot build the target. The target is then skipped.
var ErrUnavailable = errors.New("toolchain unavailable")

// Outcome is the verdict for one target.
type Outcome int

const (
	// Ran means the backend was executed and its trace matched.
	Ran Outcome = iota
	// Skipped means a required toolchain is not installed.
	Skipped
	// Failed means the backend could not be built or run, or its trace
	// diverged from the reference.
	Failed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Ran:
		return "ran"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// TargetReport is the verdict for one target.
type TargetReport struct {
	Target     string     `json:"target"`
	Outcome    Outcome    `json:"outcome"`
	Reason     string     `json:"reason,omitempty"`
	Steps      int        `json:"steps"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
	// Replay lists the operations of the first vector that diverged.
	Replay string `json:"replay,omitempty"`
}

// Report is the verdict for one schema across targets.
type Report struct {
	Schema  string          `json:"schema"`
	Targets []*TargetReport `json:"targets"`
}

// Consistent reports whether no target failed. Skipped targets do not
// count against consistency.
func (r *Report) Consistent() bool {
	for _, t := range r.Targets {
		if t.Outcome == Failed {
			return false
		}
	}

	return true
}

// Ran returns the number of targets that were executed and matched.
func (r *Report) Ran() int {
	n := 0

	for _, t := range r.Targets {
		if t.Outcome == Ran {
			n++
		}
	}

	return n
}

// Harness runs generated backends and compares their traces against the
// reference model in package contract.
type Harness struct {
	log         *slog.Logger
	runners     map[string]Runner
	parallelism int
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the harness logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.log = l }
}

// WithRunner overrides the runner for r.Target.
func WithRunner(r Runner) Option {
	return func(h *Harness) { h.runners[r.Target] = r }
}

// WithParallelism bounds how many backends run at once.
func WithParallelism(n int) Option {
	return func(h *Harness) { h.parallelism = n }
}

// New returns a harness with the default runners.
func New(opts ...Option) *Harness {
	h := &Harness{
		log:         slog.New(slog.DiscardHandler),
		runners:     DefaultRunners(),
		parallelism: 1,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Check executes every target's generated test program found under
// outputRoot and compares its trace with the reference replay of the
// standard vectors.
func (h *Harness) Check(ctx context.Context, outputRoot string, s *schema.Schema, ns *namespace.Mapping, targets []string) (*Report, error) {
	vectors := contract.StandardVectors(s.DataWidth, s.HistoryCapacity())
	want := contract.ReplayAll(s.DataWidth, s.HistoryCapacity(), vectors)

	report := &Report{Schema: s.Source}

	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(h.parallelism, 1))

	for _, target := range targets {
		g.Go(func() error {
			tr := h.checkOne(ctx, outputRoot, s, ns, target, want)
			tr.Replay = firstDiverged(s.DataWidth, vectors, tr.Mismatches)

			h.log.Info("consistency check",
				"schema", s.Source, "target", target, "outcome", tr.Outcome.String(), "reason", tr.Reason)

			mu.Lock()
			report.Targets = append(report.Targets, tr)
			mu.Unlock()

			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Slice(report.Targets, func(i, j int) bool {
		return report.Targets[i].Target < report.Targets[j].Target
	})

	return report, nil
}

func (h *Harness) checkOne(ctx context.Context, outputRoot string, s *schema.Schema, ns *namespace.Mapping, target string, want []contract.Row) *TargetReport {
	tr := &TargetReport{Target: target}

	runner, ok := h.runners[target]
	if !ok {
		tr.Outcome, tr.Reason = Skipped, "no runner for target"
		return tr
	}

	t, ok := ns.Target(target)
	if !ok {
		tr.Outcome, tr.Reason = Failed, fmt.Sprintf("unknown target %q", target)
		return tr
	}

	if missing := runner.Missing(); len(missing) > 0 {
		tr.Outcome, tr.Reason = Skipped, "not installed: "+strings.Join(missing, ", ")
		return tr
	}

	dir := filepath.Join(outputRoot, filepath.FromSlash(t.Root))
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			tr.Outcome, tr.Reason = Failed, "not generated: "+t.Root
			return tr
		}

		tr.Outcome, tr.Reason = Failed, err.Error()

		return tr
	}

	out, runErr := runner.Run(ctx, Job{Dir: dir, Schema: s, NS: ns})
	if errors.Is(runErr, ErrUnavailable) {
		tr.Outcome, tr.Reason = Skipped, runErr.Error()
		return tr
	}

	got, parseErr := ParseTrace(out)
	tr.Steps = len(got)
	tr.Mismatches = Compare(s.DataWidth, want, got)

	switch {
	case runErr != nil:
		tr.Outcome, tr.Reason = Failed, runErr.Error()
	case parseErr != nil:
		tr.Outcome, tr.Reason = Failed, parseErr.Error()
	case len(tr.Mismatches) > 0:
		tr.Outcome = Failed
		tr.Reason = fmt.Sprintf("%d of %d checkpoints diverged", len(tr.Mismatches), max(len(want), len(got)))
	default:
		tr.Outcome = Ran
	}

	return tr
}

// firstDiverged describes the vector of the first mismatch, or returns ""
// when there is none.
func firstDiverged(width int, vectors []contract.Vector, mismatches []Mismatch) string {
	if len(mismatches) == 0 {
		return ""
	}

	for _, v := range vectors {
		if v.Name == mismatches[0].Vector {
			return v.Describe(width)
		}
	}

	return ""
}
