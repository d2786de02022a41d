package emit

import (
	"path"
	"text/template"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

// EmitPython generates a Python package. Python integers are unbounded, so
// every width is supported.
func EmitPython(s *schema.Schema, ns *namespace.Mapping) (*Result, error) {
	p := newProgram(namespace.Python, s, ns)
	fs := newFileSet(p.Target)
	pkg := ns.Directories()[namespace.Python]

	err := renderAll(fs, p,
		output{"atomik/__init__.py", pyRootInitTemplate, "atomik namespace package"},
		output{path.Join("atomik", ns.Vertical, "__init__.py"), pyRootInitTemplate, ns.Vertical + " namespace package"},
		output{path.Join(pkg, "__init__.py"), pyPackageInitTemplate, ns.Field + " package exports"},
		output{p.Target.Source, pyModuleTemplate, ns.Object + " accumulator"},
		output{path.Join("tests", "test_"+ns.Snake+".py"), pyTestTemplate, "Vector replay test for " + ns.Object},
	)
	if err != nil {
		return nil, err
	}

	return fs.result(), nil
}

var pyFuncs = funcs(template.FuncMap{
	"lit": func(width int, w contract.Word) string { return "0x" + w.Hex(width) },
	"pybool": func(b bool) string {
		if b {
			return "True"
		}

		return "False"
	},
})

var pyRootInitTemplate = template.Must(template.New("py_namespace").Funcs(pyFuncs).Parse(
	`# Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.
`))

var pyPackageInitTemplate = template.Must(template.New("py_package").Funcs(pyFuncs).Parse(
	`# Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

from .{{.Snake}} import {{.Object}}, MASK, WIDTH{{if .Rollback}}, HISTORY_DEPTH{{end}}

__all__ = ["{{.Object}}", "MASK", "WIDTH"{{if .Rollback}}, "HISTORY_DEPTH"{{end}}]
`))

var pyModuleTemplate = template.Must(template.New("py_module").Funcs(pyFuncs).Parse(
	`"""{{.Object}} delta-state accumulator ({{.Width}}-bit).

Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.
{{if .Description}}
{{.Description}}
{{end}}
Field layout ({{.Layout}}):
{{range .Fields}}    {{.Name}}: bits {{.Offset}}..{{lastBit .}} ({{.Type}}){{if .Description}} {{.Description}}{{end}}
{{end}}
Instances are single-writer. Callers sharing one across threads must
provide their own locking.
{{- if .Rollback}}
rollback raises ValueError on a negative count; other targets return 0.
{{- end}}
"""

from __future__ import annotations

WIDTH = {{.Width}}
MASK = (1 << WIDTH) - 1
{{- if .Rollback}}
HISTORY_DEPTH = {{.Depth}}
{{- end}}


class {{.Object}}:
    """Delta-state accumulator: state is initial_state XOR accumulator."""

    __slots__ = ("_initial_state", "_accumulator"{{if .Rollback}}, "_history", "_history_head", "_history_count"{{end}})

    def __init__(self) -> None:
        self._initial_state = 0
        self._accumulator = 0
{{- if .Rollback}}
        self._history = [0] * HISTORY_DEPTH
        self._history_head = 0
        self._history_count = 0
{{- end}}

    def load(self, initial_state: int) -> None:
        """Set the initial state and clear the accumulator and history."""
        self._initial_state = initial_state & MASK
        self._accumulator = 0
{{- if .Rollback}}
        self._history_head = 0
        self._history_count = 0
{{- end}}

    def accumulate(self, delta: int) -> None:
        """XOR a delta into the accumulator{{if .Rollback}}, recording it for rollback{{end}}."""
        delta &= MASK
{{- if .Rollback}}
        self._history[self._history_head] = delta
        self._history_head = (self._history_head + 1) % HISTORY_DEPTH
        if self._history_count < HISTORY_DEPTH:
            self._history_count += 1
{{- end}}
        self._accumulator ^= delta
{{- if .Reconstruct}}

    def reconstruct(self) -> int:
        """Return the current state, initial_state XOR accumulator."""
        return self._initial_state ^ self._accumulator
{{- end}}

    def is_accumulator_zero(self) -> bool:
        """Report whether the accumulated deltas cancel out."""
        return self._accumulator == 0
{{- if .Rollback}}

    def rollback(self, count: int) -> int:
        """Undo up to count of the most recent deltas and return how many were undone.

        Deltas evicted from the {{.Depth}}-entry history cannot be undone.
        """
        if count < 0:
            raise ValueError("rollback count must be non-negative")
        undone = min(count, self._history_count)
        for _ in range(undone):
            self._history_head = (self._history_head - 1) % HISTORY_DEPTH
            self._accumulator ^= self._history[self._history_head]
        self._history_count -= undone
        return undone
{{- end}}

    def get_accumulator(self) -> int:
        return self._accumulator

    def get_initial_state(self) -> int:
        return self._initial_state
`))

var pyTestTemplate = template.Must(template.New("py_test").Funcs(pyFuncs).Parse(
	`"""Replays the standard vectors against {{.Object}}, printing one TRACE line per step.

Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.
"""

import os
import sys

sys.path.insert(0, os.path.join(os.path.dirname(os.path.abspath(__file__)), ".."))

from atomik.{{.NS.Vertical}}.{{.NS.Field}} import {{.Object}}  # noqa: E402

HEX_DIGITS = {{.HexDigits}}

# (op, value, count, reconstruct, status, accumulator, returned)
VECTORS = [
{{- range .Vectors}}
    ("{{.Name}}", [
{{- range .Steps}}
        ("{{.Op}}", {{lit $.Width .Value}}, {{.Count}}, {{lit $.Width .Expect.Reconstruct}}, {{pybool .Expect.Status}}, {{lit $.Width .Expect.Accumulator}}, {{.Expect.Returned}}),
{{- end}}
    ]),
{{- end}}
]


def main() -> int:
    m = {{.Object}}()
    failures = 0
    for name, steps in VECTORS:
        for i, (op, value, count, want_state, want_zero, want_acc, want_returned) in enumerate(steps):
            returned = 0
            if op == "load":
                m.load(value)
            elif op == "accumulate":
                m.accumulate(value)
            else:
{{- if .Rollback}}
                returned = m.rollback(count)
{{- else}}
                raise AssertionError("rollback is not generated")
{{- end}}
{{- if .Reconstruct}}
            state = m.reconstruct()
{{- else}}
            state = m.get_initial_state() ^ m.get_accumulator()
{{- end}}
            zero = m.is_accumulator_zero()
            acc = m.get_accumulator()
            print("TRACE %s %d %0*x %d %0*x %d" % (name, i, HEX_DIGITS, state, int(zero), HEX_DIGITS, acc, returned))
            if (state, zero, acc, returned) != (want_state, want_zero, want_acc, want_returned):
                print("MISMATCH %s step %d" % (name, i), file=sys.stderr)
                failures += 1
{{- if .Rollback}}

    try:
        m.rollback(-1)
    except ValueError:
        pass
    else:
        print("MISMATCH negative rollback accepted", file=sys.stderr)
        failures += 1
{{- end}}

    return 1 if failures else 0


if __name__ == "__main__":
    sys.exit(main())
`))
