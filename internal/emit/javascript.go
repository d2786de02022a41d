package emit

import (
	"fmt"
	"path"
	"text/template"

	"github.com/goccy/go-json"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

// EmitJavaScript generates an ES module package. State words are BigInt,
// so every width is supported.
func EmitJavaScript(s *schema.Schema, ns *namespace.Mapping) (*Result, error) {
	p := newProgram(namespace.JavaScript, s, ns)
	fs := newFileSet(p.Target)
	test := path.Join("test", ns.Snake+".test.js")

	manifest, err := packageJSON(p, test)
	if err != nil {
		return nil, &GenerationError{Target: namespace.JavaScript, Err: err}
	}

	fs.add("package.json", manifest, "npm manifest")

	err = renderAll(fs, p,
		output{"index.js", jsIndexTemplate, "package entry point"},
		output{p.Target.Source, jsModuleTemplate, ns.Object + " accumulator"},
		output{test, jsTestTemplate, "Vector replay test for " + ns.Object},
	)
	if err != nil {
		return nil, err
	}

	return fs.result(), nil
}

type npmPackage struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description,omitempty"`
	Type        string            `json:"type"`
	Main        string            `json:"main"`
	Exports     map[string]string `json:"exports"`
	Scripts     map[string]string `json:"scripts"`
	Engines     map[string]string `json:"engines"`
}

func packageJSON(p *program, test string) ([]byte, error) {
	pkg := npmPackage{
		Name:        fmt.Sprintf("@atomik/%s-%s", p.NS.LowerVertical, p.NS.LowerField),
		Version:     p.Version,
		Description: p.Description,
		Type:        "module",
		Main:        "index.js",
		Exports:     map[string]string{".": "./index.js"},
		Scripts:     map[string]string{"test": "node " + test},
		Engines:     map[string]string{"node": ">=14"},
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding package.json: %w", err)
	}

	return append(data, '\n'), nil
}

var jsFuncs = funcs(template.FuncMap{
	"lit": func(width int, w contract.Word) string { return "0x" + w.Hex(width) + "n" },
})

var jsIndexTemplate = template.Must(template.New("js_index").Funcs(jsFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

export { {{.Object}}, WIDTH, MASK{{if .Rollback}}, HISTORY_DEPTH{{end}} } from './{{.Target.Source}}';
`))

var jsModuleTemplate = template.Must(template.New("js_module").Funcs(jsFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

/**
 * {{.Object}} delta-state accumulator ({{.Width}}-bit).
{{- if .Description}}
 *
 * {{.Description}}
{{- end}}
 *
 * Field layout ({{.Layout}}):
{{- range .Fields}}
 *   {{.Name}}: bits {{.Offset}}..{{lastBit .}} ({{.Type}})
{{- end}}
 *
 * Single-writer: share an instance between workers only behind a lock.
{{- if .Rollback}}
 * rollback throws RangeError on a negative count; other targets return 0.
{{- end}}
 */

export const WIDTH = {{.Width}};
export const MASK = {{lit .Width .Mask}};
{{- if .Rollback}}
export const HISTORY_DEPTH = {{.Depth}};
{{- end}}

export class {{.Object}} {
  #initialState = 0n;
  #accumulator = 0n;
{{- if .Rollback}}
  #history = new Array(HISTORY_DEPTH).fill(0n);
  #historyHead = 0;
  #historyCount = 0;
{{- end}}

  /** Sets the initial state and clears the accumulator and history. */
  load(initialState) {
    this.#initialState = BigInt(initialState) & MASK;
    this.#accumulator = 0n;
{{- if .Rollback}}
    this.#historyHead = 0;
    this.#historyCount = 0;
{{- end}}
  }

  /** XORs a delta into the accumulator. */
  accumulate(delta) {
    const d = BigInt(delta) & MASK;
{{- if .Rollback}}
    this.#history[this.#historyHead] = d;
    this.#historyHead = (this.#historyHead + 1) % HISTORY_DEPTH;
    if (this.#historyCount < HISTORY_DEPTH) {
      this.#historyCount += 1;
    }
{{- end}}
    this.#accumulator ^= d;
  }
{{- if .Reconstruct}}

  /** Returns the current state. */
  reconstruct() {
    return this.#initialState ^ this.#accumulator;
  }
{{- end}}

  isAccumulatorZero() {
    return this.#accumulator === 0n;
  }
{{- if .Rollback}}

  /**
   * Undoes up to count of the most recent deltas.
   * @returns {number} how many deltas were undone
   */
  rollback(count) {
    if (!Number.isInteger(count) || count < 0) {
      throw new RangeError('rollback count must be a non-negative integer');
    }
    const undone = Math.min(count, this.#historyCount);
    for (let i = 0; i < undone; i += 1) {
      this.#historyHead = (this.#historyHead + HISTORY_DEPTH - 1) % HISTORY_DEPTH;
      this.#accumulator ^= this.#history[this.#historyHead];
    }
    this.#historyCount -= undone;
    return undone;
  }
{{- end}}

  getAccumulator() {
    return this.#accumulator;
  }

  getInitialState() {
    return this.#initialState;
  }
}
`))

var jsTestTemplate = template.Must(template.New("js_test").Funcs(jsFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

import { {{.Object}} } from '../index.js';

const HEX_DIGITS = {{.HexDigits}};

// [op, value, count, state, zero, accumulator, returned]
const VECTORS = [
{{- range .Vectors}}
  ['{{.Name}}', [
{{- range .Steps}}
    ['{{.Op}}', {{lit $.Width .Value}}, {{.Count}}, {{lit $.Width .Expect.Reconstruct}}, {{.Expect.Status}}, {{lit $.Width .Expect.Accumulator}}, {{.Expect.Returned}}],
{{- end}}
  ]],
{{- end}}
];

const hex = (v) => v.toString(16).padStart(HEX_DIGITS, '0');

let failures = 0;
const m = new {{.Object}}();

for (const [name, steps] of VECTORS) {
  steps.forEach(([op, value, count, wantState, wantZero, wantAcc, wantReturned], i) => {
    let returned = 0;
    if (op === 'load') {
      m.load(value);
    } else if (op === 'accumulate') {
      m.accumulate(value);
    } else {
{{- if .Rollback}}
      returned = m.rollback(count);
{{- else}}
      throw new Error('rollback is not generated');
{{- end}}
    }
{{- if .Reconstruct}}
    const state = m.reconstruct();
{{- else}}
    const state = m.getInitialState() ^ m.getAccumulator();
{{- end}}
    const zero = m.isAccumulatorZero();
    const acc = m.getAccumulator();
    console.log('TRACE ' + name + ' ' + i + ' ' + hex(state) + ' ' + (zero ? 1 : 0) + ' ' + hex(acc) + ' ' + returned);
    if (state !== wantState || zero !== wantZero || acc !== wantAcc || returned !== wantReturned) {
      console.error('MISMATCH ' + name + ' step ' + i);
      failures += 1;
    }
  });
}
{{- if .Rollback}}

try {
  m.rollback(-1);
  console.error('MISMATCH negative rollback accepted');
  failures += 1;
} catch (err) {
  if (!(err instanceof RangeError)) {
    throw err;
  }
}
{{- end}}

process.exitCode = failures ? 1 : 0;
`))
