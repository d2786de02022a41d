package consistency

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

// Job is one generated backend to execute.
type Job struct {
	// Dir is the target's root directory on disk.
	Dir    string
	Schema *schema.Schema
	NS     *namespace.Mapping
}

// Runner builds and runs one target's generated test program.
type Runner struct {
	Target string
	// Tools are the executables that must be on PATH.
	Tools []string
	// Env is appended to the process environment of every command.
	Env []string
	// Prepare runs before the commands, if set.
	Prepare func(ctx context.Context, job Job) error
	// Commands returns the argument vectors to run, in order, in job.Dir.
	Commands func(job Job) [][]string
}

// Missing returns the required tools that are not on PATH.
func (r Runner) Missing() []string {
	var out []string

	for _, tool := range r.Tools {
		if _, err := exec.LookPath(tool); err != nil {
			out = append(out, tool)
		}
	}

	return out
}

// Run executes the runner and returns the combined standard output of its
// commands. On failure the output gathered so far is returned with the
// error.
func (r Runner) Run(ctx context.Context, job Job) ([]byte, error) {
	if r.Prepare != nil {
		if err := r.Prepare(ctx, job); err != nil {
			return nil, err
		}
	}

	var stdout bytes.Buffer

	for _, argv := range r.Commands(job) {
		var stderr bytes.Buffer

		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = job.Dir
		cmd.Env = append(os.Environ(), r.Env...)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return stdout.Bytes(), fmt.Errorf("%s: %w%s", strings.Join(argv, " "), err, tail(stderr.String()))
		}
	}

	return stdout.Bytes(), nil
}

const tailLines = 20

func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}

	return "\n" + strings.Join(lines, "\n")
}

// DefaultRunners returns a runner for every built-in target.
func DefaultRunners() map[string]Runner {
	return map[string]Runner{
		namespace.Python: {
			Target: namespace.Python,
			Tools:  []string{"python3"},
			Env:    []string{"PYTHONDONTWRITEBYTECODE=1"},
			Commands: func(job Job) [][]string {
				return [][]string{{"python3", path.Join("tests", "test_"+job.NS.Snake+".py")}}
			},
		},
		namespace.Rust: {
			Target: namespace.Rust,
			Tools:  []string{"cargo"},
			Commands: func(Job) [][]string {
				return [][]string{{"cargo", "test", "--quiet", "--offline", "--", "--nocapture", "--test-threads=1"}}
			},
		},
		namespace.C: {
			Target: namespace.C,
			Tools:  []string{"make", "cc"},
			Commands: func(Job) [][]string {
				return [][]string{{"make", "-s", "test"}}
			},
		},
		namespace.JavaScript: {
			Target: namespace.JavaScript,
			Tools:  []string{"node"},
			Commands: func(job Job) [][]string {
				return [][]string{{"node", path.Join("test", job.NS.Snake+".test.js")}}
			},
		},
		namespace.Go: {
			Target:  namespace.Go,
			Tools:   []string{"go"},
			Env:     goEnv,
			Prepare: typeCheckGo,
			Commands: func(Job) [][]string {
				return [][]string{{"go", "test", "-v", "-count=1", "./..."}}
			},
		},
		namespace.Verilog: {
			Target: namespace.Verilog,
			Tools:  []string{"iverilog", "vvp"},
			Prepare: func(_ context.Context, job Job) error {
				return os.MkdirAll(filepath.Join(job.Dir, "build"), 0o755)
			},
			Commands: func(job Job) [][]string {
				module := job.NS.VerilogModule()
				sim := path.Join("build", module+"_tb.vvp")

				return [][]string{
					{"iverilog", "-g2012", "-o", sim, path.Join("rtl", module+".v"), path.Join("tb", module+"_tb.v")},
					{"vvp", "-n", sim},
				}
			},
		},
	}
}
