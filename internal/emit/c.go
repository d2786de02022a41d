package emit

import (
	"fmt"
	"path"
	"text/template"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
	"atomikgen/internal/naming"
	"atomikgen/internal/schema"
)

const (
	cNativeWidth = 64
	cMaxWidth    = 128
)

// EmitC generates a header, implementation, test program and Makefile.
// Widths above 64 bits use the unsigned __int128 compiler extension.
func EmitC(s *schema.Schema, ns *namespace.Mapping) (*Result, error) {
	if s.DataWidth > cMaxWidth {
		return nil, unsupportedWidth(namespace.C, s.DataWidth, cMaxWidth)
	}

	p := newProgram(namespace.C, s, ns)
	fs := newFileSet(p.Target)
	dir := ns.Directories()[namespace.C]

	cp := &cProgram{
		program: p,
		Word:    cWord(s.DataWidth),
		Prefix:  "atomik_" + ns.Snake,
		Macro:   "ATOMIK_" + naming.ScreamingSnake(ns.Object),
		Guard:   fmt.Sprintf("ATOMIK_%s_%s_%s_H", naming.ScreamingSnake(ns.LowerVertical), naming.ScreamingSnake(ns.LowerField), naming.ScreamingSnake(ns.Object)),
		Header:  path.Join(dir, ns.Snake+".h"),
		Impl:    path.Join(dir, ns.Snake+".c"),
		Test:    path.Join("tests", "test_"+ns.Snake+".c"),
		Wide:    s.DataWidth > cNativeWidth,
	}

	err := renderAll(fs, cp,
		output{cp.Header, cHeaderTemplate, ns.Object + " declarations"},
		output{cp.Impl, cSourceTemplate, ns.Object + " accumulator"},
		output{cp.Test, cTestTemplate, "Vector replay test for " + ns.Object},
		output{"Makefile", cMakefileTemplate, "build and test rules"},
	)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if cp.Wide {
		warnings = append(warnings, fmt.Sprintf("c: %d-bit state uses unsigned __int128, a GCC/Clang extension", s.DataWidth))
	}

	return fs.result(warnings...), nil
}

type cProgram struct {
	*program
	Word   string
	Prefix string
	Macro  string
	Guard  string
	Header string
	Impl   string
	Test   string
	Wide   bool
}

func cWord(width int) string {
	switch {
	case width <= 8:
		return "uint8_t"
	case width <= 16:
		return "uint16_t"
	case width <= 32:
		return "uint32_t"
	case width <= 64:
		return "uint64_t"
	default:
		return "unsigned __int128"
	}
}

var cFuncs = funcs(template.FuncMap{
	"lit": func(width int, w contract.Word) string {
		if width > cNativeWidth {
			return fmt.Sprintf("ATOMIK_U128(UINT64_C(0x%016x), UINT64_C(0x%016x))", w.Limb(1), w.Limb(0))
		}

		return "UINT64_C(0x" + w.Hex(width) + ")"
	},
})

var cHeaderTemplate = template.Must(template.New("c_header").Funcs(cFuncs).Parse(
	`/* Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT. */

/*
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
 * Not thread-safe: callers sharing an instance must serialize access.
 */

#ifndef {{.Guard}}
#define {{.Guard}}

#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>

#ifdef __cplusplus
extern "C" {
#endif
{{if .Wide}}
#ifndef ATOMIK_U128
#define ATOMIK_U128(hi, lo) ((((unsigned __int128)(hi)) << 64) | (unsigned __int128)(lo))
#endif
{{end}}
typedef {{.Word}} {{.Prefix}}_word_t;

#define {{.Macro}}_WIDTH {{.Width}}
#define {{.Macro}}_MASK (({{.Prefix}}_word_t){{lit .Width .Mask}})
{{- if .Rollback}}
#define {{.Macro}}_HISTORY_DEPTH {{.Depth}}
{{- end}}

typedef struct {
    {{.Prefix}}_word_t initial_state;
    {{.Prefix}}_word_t accumulator;
{{- if .Rollback}}
    {{.Prefix}}_word_t history[{{.Macro}}_HISTORY_DEPTH];
    size_t history_head;
    size_t history_count;
{{- end}}
} {{.Prefix}}_t;

void {{.Prefix}}_init({{.Prefix}}_t *m);
void {{.Prefix}}_load({{.Prefix}}_t *m, {{.Prefix}}_word_t initial_state);
void {{.Prefix}}_accumulate({{.Prefix}}_t *m, {{.Prefix}}_word_t delta);
{{- if .Reconstruct}}
{{.Prefix}}_word_t {{.Prefix}}_reconstruct(const {{.Prefix}}_t *m);
{{- end}}
bool {{.Prefix}}_is_accumulator_zero(const {{.Prefix}}_t *m);
{{- if .Rollback}}
size_t {{.Prefix}}_rollback({{.Prefix}}_t *m, size_t count);
{{- end}}
{{.Prefix}}_word_t {{.Prefix}}_get_accumulator(const {{.Prefix}}_t *m);
{{.Prefix}}_word_t {{.Prefix}}_get_initial_state(const {{.Prefix}}_t *m);

#ifdef __cplusplus
}
#endif

#endif /* {{.Guard}} */
`))

var cSourceTemplate = template.Must(template.New("c_source").Funcs(cFuncs).Parse(
	`/* Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT. */

#include <string.h>

#include <{{.Header}}>

void {{.Prefix}}_init({{.Prefix}}_t *m)
{
    memset(m, 0, sizeof *m);
}

void {{.Prefix}}_load({{.Prefix}}_t *m, {{.Prefix}}_word_t initial_state)
{
    m->initial_state = initial_state & {{.Macro}}_MASK;
    m->accumulator = 0;
{{- if .Rollback}}
    m->history_head = 0;
    m->history_count = 0;
{{- end}}
}

void {{.Prefix}}_accumulate({{.Prefix}}_t *m, {{.Prefix}}_word_t delta)
{
    delta &= {{.Macro}}_MASK;
{{- if .Rollback}}
    m->history[m->history_head] = delta;
    m->history_head = (m->history_head + 1) % {{.Macro}}_HISTORY_DEPTH;
    if (m->history_count < {{.Macro}}_HISTORY_DEPTH) {
        m->history_count++;
    }
{{- end}}
    m->accumulator ^= delta;
}
{{- if .Reconstruct}}

{{.Prefix}}_word_t {{.Prefix}}_reconstruct(const {{.Prefix}}_t *m)
{
    return m->initial_state ^ m->accumulator;
}
{{- end}}

bool {{.Prefix}}_is_accumulator_zero(const {{.Prefix}}_t *m)
{
    return m->accumulator == 0;
}
{{- if .Rollback}}

/* Undoes up to count of the most recent deltas, returning how many were undone. */
size_t {{.Prefix}}_rollback({{.Prefix}}_t *m, size_t count)
{
    size_t undone = count < m->history_count ? count : m->history_count;
    size_t i;

    for (i = 0; i < undone; i++) {
        m->history_head = (m->history_head + {{.Macro}}_HISTORY_DEPTH - 1) % {{.Macro}}_HISTORY_DEPTH;
        m->accumulator ^= m->history[m->history_head];
    }
    m->history_count -= undone;
    return undone;
}
{{- end}}

{{.Prefix}}_word_t {{.Prefix}}_get_accumulator(const {{.Prefix}}_t *m)
{
    return m->accumulator;
}

{{.Prefix}}_word_t {{.Prefix}}_get_initial_state(const {{.Prefix}}_t *m)
{
    return m->initial_state;
}
`))

var cTestTemplate = template.Must(template.New("c_test").Funcs(cFuncs).Parse(
	`/* Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT. */

#include <inttypes.h>
#include <stdio.h>
#include <string.h>

#include <{{.Header}}>

typedef struct {
    const char *op;
    {{.Prefix}}_word_t value;
    size_t count;
    {{.Prefix}}_word_t state;
    int zero;
    {{.Prefix}}_word_t acc;
    size_t returned;
} step_t;

typedef struct {
    const char *name;
    const step_t *steps;
    size_t len;
} vector_t;
{{range $i, $v := .Vectors}}
static const step_t vector_{{$i}}[] = {
{{- range .Steps}}
    {"{{.Op}}", {{lit $.Width .Value}}, {{.Count}}, {{lit $.Width .Expect.Reconstruct}}, {{bit .Expect.Status}}, {{lit $.Width .Expect.Accumulator}}, {{.Expect.Returned}}},
{{- end}}
};
{{end}}
static const vector_t vectors[] = {
{{- range $i, $v := .Vectors}}
    {"{{$v.Name}}", vector_{{$i}}, sizeof vector_{{$i}} / sizeof vector_{{$i}}[0]},
{{- end}}
};

static void print_word({{.Prefix}}_word_t w)
{
{{- if .Wide}}
    printf("%016" PRIx64 "%016" PRIx64, (uint64_t)(w >> 64), (uint64_t)w);
{{- else}}
    printf("%0*" PRIx64, {{.HexDigits}}, (uint64_t)w);
{{- end}}
}

int main(void)
{
    {{.Prefix}}_t m;
    int failures = 0;
    size_t v, i;

    {{.Prefix}}_init(&m);
    for (v = 0; v < sizeof vectors / sizeof vectors[0]; v++) {
        for (i = 0; i < vectors[v].len; i++) {
            const step_t *s = &vectors[v].steps[i];
            size_t returned = 0;
            {{.Prefix}}_word_t state, acc;
            int zero;

            if (strcmp(s->op, "load") == 0) {
                {{.Prefix}}_load(&m, s->value);
            } else if (strcmp(s->op, "accumulate") == 0) {
                {{.Prefix}}_accumulate(&m, s->value);
            } else {
{{- if .Rollback}}
                returned = {{.Prefix}}_rollback(&m, s->count);
{{- else}}
                fprintf(stderr, "rollback is not generated\n");
                failures++;
{{- end}}
            }
{{- if .Reconstruct}}
            state = {{.Prefix}}_reconstruct(&m);
{{- else}}
            state = {{.Prefix}}_get_initial_state(&m) ^ {{.Prefix}}_get_accumulator(&m);
{{- end}}
            zero = {{.Prefix}}_is_accumulator_zero(&m) ? 1 : 0;
            acc = {{.Prefix}}_get_accumulator(&m);

            printf("TRACE %s %zu ", vectors[v].name, i);
            print_word(state);
            printf(" %d ", zero);
            print_word(acc);
            printf(" %zu\n", returned);

            if (state != s->state || zero != s->zero || acc != s->acc || returned != s->returned) {
                fprintf(stderr, "MISMATCH %s step %zu\n", vectors[v].name, i);
                failures++;
            }
        }
    }

    return failures ? 1 : 0;
}
`))

var cMakefileTemplate = template.Must(template.New("c_makefile").Funcs(cFuncs).Parse(
	"# Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.\n" +
		"\n" +
		"CC ?= cc\n" +
		"CFLAGS ?= -std=gnu11 -O2 -Wall -Wextra\n" +
		"CPPFLAGS += -I.\n" +
		"\n" +
		"TEST := build/test_{{.Snake}}\n" +
		"\n" +
		".PHONY: all test clean\n" +
		"\n" +
		"all: $(TEST)\n" +
		"\n" +
		"$(TEST): {{.Impl}} {{.Test}} {{.Header}}\n" +
		"\t@mkdir -p build\n" +
		"\t$(CC) $(CFLAGS) $(CPPFLAGS) -o $@ {{.Impl}} {{.Test}}\n" +
		"\n" +
		"test: $(TEST)\n" +
		"\t./$(TEST)\n" +
		"\n" +
		"clean:\n" +
		"\trm -rf build\n"))
