package emit

import (
	"errors"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
)

func TestEmitters_Paths(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	tests := []struct {
		target string
		emit   EmitterFunc
		want   []string
	}{
		{namespace.Python, EmitPython, []string{
			"python/video/streaming/h264_delta/atomik/__init__.py",
			"python/video/streaming/h264_delta/atomik/Video/__init__.py",
			"python/video/streaming/h264_delta/atomik/Video/Streaming/__init__.py",
			"python/video/streaming/h264_delta/atomik/Video/Streaming/h264_delta.py",
			"python/video/streaming/h264_delta/tests/test_h264_delta.py",
		}},
		{namespace.Rust, EmitRust, []string{
			"rust/video/streaming/h264_delta/Cargo.toml",
			"rust/video/streaming/h264_delta/src/lib.rs",
			"rust/video/streaming/h264_delta/src/video/streaming/mod.rs",
			"rust/video/streaming/h264_delta/src/video/streaming/h264_delta.rs",
			"rust/video/streaming/h264_delta/tests/h264_delta_test.rs",
		}},
		{namespace.C, EmitC, []string{
			"c/video/streaming/h264_delta/atomik/video/streaming/h264_delta.h",
			"c/video/streaming/h264_delta/atomik/video/streaming/h264_delta.c",
			"c/video/streaming/h264_delta/tests/test_h264_delta.c",
			"c/video/streaming/h264_delta/Makefile",
		}},
		{namespace.JavaScript, EmitJavaScript, []string{
			"javascript/video/streaming/h264_delta/package.json",
			"javascript/video/streaming/h264_delta/index.js",
			"javascript/video/streaming/h264_delta/src/h264_delta.js",
			"javascript/video/streaming/h264_delta/test/h264_delta.test.js",
		}},
		{namespace.Go, EmitGo, []string{
			"go/video/streaming/h264_delta/go.mod",
			"go/video/streaming/h264_delta/video/streaming/h264_delta.go",
			"go/video/streaming/h264_delta/video/streaming/h264_delta_test.go",
		}},
		{namespace.Verilog, EmitVerilog, []string{
			"verilog/video/streaming/h264_delta/rtl/atomik_video_streaming_h264_delta.v",
			"verilog/video/streaming/h264_delta/tb/atomik_video_streaming_h264_delta_tb.v",
			"verilog/video/streaming/h264_delta/Makefile",
			"verilog/video/streaming/h264_delta/constraints/atomik_video_streaming_h264_delta.sdc",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			res, err := tt.emit(s, ns)
			require.NoError(t, err)

			assert.True(t, res.Success)
			assert.Equal(t, tt.target, res.Target)
			assert.Equal(t, tt.want, res.Paths())

			for _, f := range res.Files {
				assert.Equal(t, tt.target, f.Target)
				assert.NotEmpty(t, f.Description)
				assert.NotEmpty(t, f.Content, f.Path)
				assert.NotContains(t, string(f.Content), "<no value>", f.Path)
			}
		})
	}
}

func TestEmitters_AreDeterministic(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	for _, target := range namespace.Targets() {
		e, _ := DefaultRegistry().Get(target)

		a, err := e.Emit(s, ns)
		require.NoError(t, err)
		b, err := e.Emit(s, ns)
		require.NoError(t, err)

		assert.Equal(t, a, b, target)
	}
}

func TestEmitters_EmbedReferenceTrace(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	depth := s.HistoryCapacity()
	vectors := contract.StandardVectors(s.DataWidth, depth)
	rows := contract.Replay(s.DataWidth, depth, vectors[0])

	res, err := EmitVerilog(s, ns)
	require.NoError(t, err)

	bench := fileContent(t, res, "_tb.v")
	assert.Contains(t, bench, `$display("TRACE `+vectors[0].Name+` 0 %h %0d %h %0d"`)
	assert.Contains(t, bench, "32'h"+rows[0].Reconstruct.Hex(32))

	py, err := EmitPython(s, ns)
	require.NoError(t, err)

	test := fileContent(t, py, "test_h264_delta.py")
	assert.Contains(t, test, `"TRACE %s %d %0*x %d %0*x %d"`)
	assert.Contains(t, test, "HEX_DIGITS = 8")
	assert.Contains(t, test, "from atomik.Video.Streaming import H264Delta")

	for _, v := range vectors {
		assert.Contains(t, test, `("`+v.Name+`", [`)
	}
}

func TestEmitPython_Module(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	res, err := EmitPython(s, ns)
	require.NoError(t, err)

	mod := fileContent(t, res, "Streaming/h264_delta.py")
	assert.Contains(t, mod, "class H264Delta:")
	assert.Contains(t, mod, "WIDTH = 32")
	assert.Contains(t, mod, "HISTORY_DEPTH = 4")
	assert.Contains(t, mod, "def rollback(self, count: int) -> int:")
	assert.Contains(t, mod, "raise ValueError")
	assert.Contains(t, mod, "rollback raises ValueError on a negative count; other targets return 0.\n\"\"\"")
	assert.Contains(t, mod, "frame_delta: bits 0..31 (delta_stream)")

	init := fileContent(t, res, "Streaming/__init__.py")
	assert.Contains(t, init, "from .h264_delta import H264Delta, MASK, WIDTH, HISTORY_DEPTH")
}

func TestEmitPython_OptionalOperations(t *testing.T) {
	f := defaultFixture()
	f.depth = 0
	f.reconstruct = false

	s, ns := compile(t, f)

	res, err := EmitPython(s, ns)
	require.NoError(t, err)

	mod := fileContent(t, res, "Streaming/h264_delta.py")
	assert.NotContains(t, mod, "def rollback")
	assert.NotContains(t, mod, "def reconstruct")
	assert.NotContains(t, mod, "HISTORY_DEPTH")
	assert.NotContains(t, mod, "negative count")

	test := fileContent(t, res, "test_h264_delta.py")
	assert.Contains(t, test, "m.get_initial_state() ^ m.get_accumulator()")
	assert.NotContains(t, test, `"rollback"`)
}

func TestEmitGo_FormatsAndParses(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	res, err := EmitGo(s, ns)
	require.NoError(t, err)

	assert.Equal(t, "module atomik\n\ngo "+GoVersion+"\n", fileContent(t, res, "go.mod"))

	fset := token.NewFileSet()

	for _, suffix := range []string{"h264_delta.go", "h264_delta_test.go"} {
		src := fileContent(t, res, suffix)

		f, err := parser.ParseFile(fset, suffix, src, parser.ParseComments)
		require.NoError(t, err, src)
		assert.Equal(t, "streaming", f.Name.Name)
	}

	src := fileContent(t, res, "streaming/h264_delta.go")
	assert.Contains(t, src, "type H264DeltaWord = uint32")
	assert.Contains(t, src, "func (m *H264Delta) Rollback(count int) int {")
	assert.Regexp(t, `H264DeltaHistoryDepth\s+= 4`, src)
}

func TestEmitGo_WideSchemaRejected(t *testing.T) {
	f := defaultFixture()
	f.width = 128

	s, ns := compile(t, f)

	res, err := EmitGo(s, ns)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnsupportedWidth)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, namespace.Go, genErr.Target)
}

func TestEmitWidthLimits(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		emit    EmitterFunc
		wantErr bool
	}{
		{"rust 128", 128, EmitRust, false},
		{"rust 256", 256, EmitRust, true},
		{"c 64", 64, EmitC, false},
		{"c 256", 256, EmitC, true},
		{"go 64", 64, EmitGo, false},
		{"python 256", 256, EmitPython, false},
		{"javascript 256", 256, EmitJavaScript, false},
		{"verilog 256", 256, EmitVerilog, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			f.width = tt.width

			s, ns := compile(t, f)

			_, err := tt.emit(s, ns)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedWidth)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestEmitC_WideWordWarns(t *testing.T) {
	f := defaultFixture()
	f.width = 128

	s, ns := compile(t, f)

	res, err := EmitC(s, ns)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unsigned __int128")

	header := fileContent(t, res, "h264_delta.h")
	assert.Contains(t, header, "typedef unsigned __int128 atomik_h264_delta_word_t;")
	assert.Contains(t, header, "#define ATOMIK_U128(hi, lo)")

	test := fileContent(t, res, "test_h264_delta.c")
	assert.Contains(t, test, "ATOMIK_U128(UINT64_C(0x")
	assert.Contains(t, test, `"%016" PRIx64 "%016" PRIx64`)
}

func TestEmitC_Header(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	res, err := EmitC(s, ns)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	header := fileContent(t, res, "h264_delta.h")
	assert.Contains(t, header, "#ifndef ATOMIK_VIDEO_STREAMING_H264_DELTA_H")
	assert.Contains(t, header, "typedef uint32_t atomik_h264_delta_word_t;")
	assert.Contains(t, header, "#define ATOMIK_H264_DELTA_HISTORY_DEPTH 4")
	assert.Contains(t, header, "size_t atomik_h264_delta_rollback(atomik_h264_delta_t *m, size_t count);")
	assert.NotContains(t, header, "ATOMIK_U128")

	makefile := fileContent(t, res, "Makefile")
	assert.Contains(t, makefile, "\n\t$(CC) $(CFLAGS) $(CPPFLAGS) -o $@ ")
}

func TestEmitRust_Crate(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	res, err := EmitRust(s, ns)
	require.NoError(t, err)

	cargo := fileContent(t, res, "Cargo.toml")
	assert.Contains(t, cargo, `name = "atomik-video-streaming-h264_delta"`)
	assert.Contains(t, cargo, `version = "1.2.0"`)
	assert.Contains(t, cargo, `description = "H.264 frame deltas"`)

	lib := fileContent(t, res, "src/lib.rs")
	assert.Contains(t, lib, "pub mod streaming;")
	assert.Contains(t, lib, "pub use video::streaming::H264Delta;")

	src := fileContent(t, res, "streaming/h264_delta.rs")
	assert.Contains(t, src, "pub type Word = u32;")
	assert.Contains(t, src, "pub const MASK: Word = 0xffffffff;")
	assert.Contains(t, src, "pub fn rollback(&mut self, count: usize) -> usize {")

	test := fileContent(t, res, "tests/h264_delta_test.rs")
	assert.Contains(t, test, "use atomik::video::streaming::{H264Delta, Word};")
	assert.Contains(t, test, "{:0w$x}")
}

func TestEmitJavaScript_Package(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	res, err := EmitJavaScript(s, ns)
	require.NoError(t, err)

	var pkg npmPackage
	require.NoError(t, json.Unmarshal([]byte(fileContent(t, res, "package.json")), &pkg))
	assert.Equal(t, "@atomik/video-streaming", pkg.Name)
	assert.Equal(t, "module", pkg.Type)
	assert.Equal(t, "node test/h264_delta.test.js", pkg.Scripts["test"])

	index := fileContent(t, res, "index.js")
	assert.Contains(t, index, "from './src/h264_delta.js';")

	mod := fileContent(t, res, "src/h264_delta.js")
	assert.Contains(t, mod, "export const MASK = 0xffffffffn;")
	assert.Contains(t, mod, "throw new RangeError")
	assert.Contains(t, mod, " * rollback throws RangeError on a negative count; other targets return 0.\n */")
}

func TestEmitVerilog_RTL(t *testing.T) {
	s, ns := compile(t, defaultFixture())

	res, err := EmitVerilog(s, ns)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	rtl := fileContent(t, res, "rtl/atomik_video_streaming_h264_delta.v")
	bench := fileContent(t, res, "_tb.v")

	for _, port := range []string{"clk", "rst_n", "load_en", "accumulate_en", "read_en", "rollback_en", "data_in", "data_out", "accumulator_zero"} {
		assert.Regexp(t, `(input|output)\s+(wire|reg)\s+(\[DATA_WIDTH-1:0\]\s+)?`+port+`\b`, rtl, port)
		assert.Contains(t, bench, "."+port+"("+port+")", port)
	}

	assert.Contains(t, rtl, "parameter HISTORY_DEPTH = 4")
	assert.Contains(t, rtl, "data_out <= initial_state ^ accumulator;")

	sdc := fileContent(t, res, ".sdc")
	assert.Contains(t, sdc, "-period 10.000")
	assert.Contains(t, sdc, "# Device: GW1NR-9")
}

func TestEmitVerilog_WithoutClockOrRollback(t *testing.T) {
	f := defaultFixture()
	f.clockMHz = 0
	f.depth = 0
	f.reconstruct = false

	s, ns := compile(t, f)

	res, err := EmitVerilog(s, ns)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "clock_mhz")

	for _, p := range res.Paths() {
		assert.False(t, strings.HasSuffix(p, ".sdc"), p)
	}

	rtl := fileContent(t, res, "rtl/atomik_video_streaming_h264_delta.v")
	assert.NotContains(t, rtl, "HISTORY_DEPTH")
	assert.Contains(t, rtl, "rollback_en is ignored")
	assert.NotContains(t, rtl, "data_out <= initial_state")

	bench := fileContent(t, res, "_tb.v")
	assert.NotContains(t, bench, "do_rollback")
	assert.Contains(t, bench, "state = dut.initial_state ^ dut.accumulator;")
}

func TestGenerationError(t *testing.T) {
	err := unsupportedWidth(namespace.Rust, 256, 128)

	assert.Equal(t, "rust: unsupported width: 256 bits exceeds the widest native rust integer (128 bits)", err.Error())
	assert.True(t, errors.Is(err, ErrUnsupportedWidth))

	res := Failed(namespace.Rust, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{err.Error()}, res.Errors)
}
