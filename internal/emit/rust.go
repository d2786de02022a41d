package emit

import (
	"fmt"
	"path"
	"strconv"
	"text/template"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

const rustMaxWidth = 128

// EmitRust generates a Cargo crate named after the catalogue path with a
// library target called atomik.
func EmitRust(s *schema.Schema, ns *namespace.Mapping) (*Result, error) {
	if s.DataWidth > rustMaxWidth {
		return nil, unsupportedWidth(namespace.Rust, s.DataWidth, rustMaxWidth)
	}

	p := newProgram(namespace.Rust, s, ns)
	fs := newFileSet(p.Target)
	dir := ns.Directories()[namespace.Rust]

	err := renderAll(fs, &rustProgram{program: p, Word: rustWord(s.DataWidth)},
		output{"Cargo.toml", rustCargoTemplate, "Cargo manifest"},
		output{"src/lib.rs", rustLibTemplate, "crate root"},
		output{path.Join(dir, "mod.rs"), rustModTemplate, ns.Field + " module"},
		output{p.Target.Source, rustSourceTemplate, ns.Object + " accumulator"},
		output{path.Join("tests", ns.Snake+"_test.rs"), rustTestTemplate, "Vector replay test for " + ns.Object},
	)
	if err != nil {
		return nil, err
	}

	return fs.result(), nil
}

type rustProgram struct {
	*program
	Word string
}

func rustWord(width int) string {
	switch {
	case width <= 8:
		return "u8"
	case width <= 16:
		return "u16"
	case width <= 32:
		return "u32"
	case width <= 64:
		return "u64"
	default:
		return "u128"
	}
}

var rustFuncs = funcs(template.FuncMap{
	"lit":   func(width int, w contract.Word) string { return "0x" + w.Hex(width) },
	"quote": strconv.Quote,
	"crate": func(ns *namespace.Mapping) string {
		return fmt.Sprintf("atomik-%s-%s-%s", ns.LowerVertical, ns.LowerField, ns.Snake)
	},
})

var rustCargoTemplate = template.Must(template.New("rust_cargo").Funcs(rustFuncs).Parse(
	`# Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

[package]
name = "{{crate .NS}}"
version = "{{.Version}}"
edition = "2021"
{{- if .Description}}
description = {{quote .Description}}
{{- end}}

[lib]
name = "atomik"
path = "src/lib.rs"
`))

var rustLibTemplate = template.Must(template.New("rust_lib").Funcs(rustFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

pub mod {{.NS.LowerVertical}} {
    pub mod {{.NS.LowerField}};
}

pub use {{.NS.LowerVertical}}::{{.NS.LowerField}}::{{.Object}};
`))

var rustModTemplate = template.Must(template.New("rust_mod").Funcs(rustFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

mod {{.Snake}};

pub use {{.Snake}}::*;
`))

var rustSourceTemplate = template.Must(template.New("rust_source").Funcs(rustFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.
//! {{.Object}} delta-state accumulator ({{.Width}}-bit).
{{- if .Description}}
//!
//! {{.Description}}
{{- end}}
//!
//! Field layout ({{.Layout}}):
{{- range .Fields}}
//! - {{.Name}}: bits {{.Offset}}..{{lastBit .}} ({{.Type}})
{{- end}}

/// Native word holding the {{.Width}}-bit state.
pub type Word = {{.Word}};

pub const WIDTH: u32 = {{.Width}};
pub const MASK: Word = {{lit .Width .Mask}};
{{- if .Rollback}}
pub const HISTORY_DEPTH: usize = {{.Depth}};
{{- end}}

/// Delta-state accumulator: the state is initial_state XOR accumulator.
///
/// Not synchronized; wrap it in a Mutex to share across threads.
#[derive(Debug, Clone)]
pub struct {{.Object}} {
    initial_state: Word,
    accumulator: Word,
{{- if .Rollback}}
    history: Vec<Word>,
    history_head: usize,
    history_count: usize,
{{- end}}
}

impl Default for {{.Object}} {
    fn default() -> Self {
        Self::new()
    }
}

impl {{.Object}} {
    pub fn new() -> Self {
        Self {
            initial_state: 0,
            accumulator: 0,
{{- if .Rollback}}
            history: vec![0; HISTORY_DEPTH],
            history_head: 0,
            history_count: 0,
{{- end}}
        }
    }

    /// Sets the initial state and clears the accumulator and history.
    pub fn load(&mut self, initial_state: Word) {
        self.initial_state = initial_state & MASK;
        self.accumulator = 0;
{{- if .Rollback}}
        self.history_head = 0;
        self.history_count = 0;
{{- end}}
    }

    /// XORs a delta into the accumulator.
    pub fn accumulate(&mut self, delta: Word) {
        let delta = delta & MASK;
{{- if .Rollback}}
        self.history[self.history_head] = delta;
        self.history_head = (self.history_head + 1) % HISTORY_DEPTH;
        if self.history_count < HISTORY_DEPTH {
            self.history_count += 1;
        }
{{- end}}
        self.accumulator ^= delta;
    }
{{- if .Reconstruct}}

    /// Returns the current state.
    pub fn reconstruct(&self) -> Word {
        self.initial_state ^ self.accumulator
    }
{{- end}}

    pub fn is_accumulator_zero(&self) -> bool {
        self.accumulator == 0
    }
{{- if .Rollback}}

    /// Undoes up to count of the most recent deltas and returns how many
    /// were undone. At most HISTORY_DEPTH deltas are retained.
    pub fn rollback(&mut self, count: usize) -> usize {
        let undone = count.min(self.history_count);
        for _ in 0..undone {
            self.history_head = (self.history_head + HISTORY_DEPTH - 1) % HISTORY_DEPTH;
            self.accumulator ^= self.history[self.history_head];
        }
        self.history_count -= undone;
        undone
    }
{{- end}}

    pub fn accumulator(&self) -> Word {
        self.accumulator
    }

    pub fn initial_state(&self) -> Word {
        self.initial_state
    }
}
`))

var rustTestTemplate = template.Must(template.New("rust_test").Funcs(rustFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

use atomik::{{.NS.LowerVertical}}::{{.NS.LowerField}}::{ {{- .Object}}, Word};

const HEX_DIGITS: usize = {{.HexDigits}};

#[allow(dead_code)]
struct Step {
    op: &'static str,
    value: Word,
    count: usize,
    state: Word,
    zero: bool,
    acc: Word,
    returned: usize,
}
{{range $i, $v := .Vectors}}
const VECTOR_{{$i}}: &[Step] = &[
{{- range .Steps}}
    Step { op: "{{.Op}}", value: {{lit $.Width .Value}}, count: {{.Count}}, state: {{lit $.Width .Expect.Reconstruct}}, zero: {{.Expect.Status}}, acc: {{lit $.Width .Expect.Accumulator}}, returned: {{.Expect.Returned}} },
{{- end}}
];
{{end}}
const VECTORS: &[(&str, &[Step])] = &[
{{- range $i, $v := .Vectors}}
    ("{{$v.Name}}", VECTOR_{{$i}}),
{{- end}}
];

#[test]
fn replay_vectors() {
    let mut m = {{.Object}}::new();
    let mut failures = 0;
    for (name, steps) in VECTORS {
        for (i, s) in steps.iter().enumerate() {
            let returned = match s.op {
                "load" => {
                    m.load(s.value);
                    0
                }
                "accumulate" => {
                    m.accumulate(s.value);
                    0
                }
{{- if .Rollback}}
                _ => m.rollback(s.count),
{{- else}}
                _ => unreachable!("rollback is not generated"),
{{- end}}
            };
{{- if .Reconstruct}}
            let state = m.reconstruct();
{{- else}}
            let state = m.initial_state() ^ m.accumulator();
{{- end}}
            let zero = m.is_accumulator_zero();
            let acc = m.accumulator();
            println!(
                "TRACE {} {} {:0w$x} {} {:0w$x} {}",
                name,
                i,
                state,
                zero as u8,
                acc,
                returned,
                w = HEX_DIGITS
            );
            if state != s.state || zero != s.zero || acc != s.acc || returned != s.returned {
                eprintln!("MISMATCH {} step {}", name, i);
                failures += 1;
            }
        }
    }
    assert_eq!(failures, 0, "{} step(s) diverged from the reference", failures);
}
`))
