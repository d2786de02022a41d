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

// EmitVerilog generates a synthesizable RTL module, a self-checking
// testbench and, when a clock frequency is given, a timing constraints
// file. Every width is supported.
func EmitVerilog(s *schema.Schema, ns *namespace.Mapping) (*Result, error) {
	p := newProgram(namespace.Verilog, s, ns)
	fs := newFileSet(p.Target)

	vp := &verilogProgram{
		program: p,
		Module:  ns.VerilogModule(),
		Device:  s.Hints.Platform,
	}
	vp.RTL = p.Target.Source
	vp.Bench = path.Join("tb", vp.Module+"_tb.v")

	outputs := []output{
		{vp.RTL, verilogRTLTemplate, ns.Object + " RTL module"},
		{vp.Bench, verilogBenchTemplate, "Self-checking testbench for " + vp.Module},
		{"Makefile", verilogMakefileTemplate, "simulation rules"},
	}

	var warnings []string

	if s.Hints.ClockMHz > 0 {
		vp.PeriodNS = strconv.FormatFloat(1000/s.Hints.ClockMHz, 'f', 3, 64)
		outputs = append(outputs, output{
			path.Join("constraints", vp.Module+".sdc"), verilogConstraintsTemplate, "clock constraints",
		})
	} else {
		warnings = append(warnings, "verilog: hardware.clock_mhz not set, no timing constraints emitted")
	}

	if err := renderAll(fs, vp, outputs...); err != nil {
		return nil, err
	}

	return fs.result(warnings...), nil
}

type verilogProgram struct {
	*program
	Module   string
	Device   string
	PeriodNS string
	RTL      string
	Bench    string
}

var verilogFuncs = funcs(template.FuncMap{
	"lit": func(width int, w contract.Word) string { return fmt.Sprintf("%d'h%s", width, w.Hex(width)) },
})

var verilogRTLTemplate = template.Must(template.New("verilog_rtl").Funcs(verilogFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.
//
// {{.Module}}: {{.Object}} delta-state accumulator ({{.Width}}-bit).
{{- if .Description}}
// {{.Description}}
{{- end}}
//
// Field layout ({{.Layout}}):
{{- range .Fields}}
//   {{.Name}}: bits {{.Offset}}..{{lastBit .}} ({{.Type}})
{{- end}}
//
// One operation per cycle. Priority: load_en > accumulate_en > rollback_en.
// data_in carries the initial state on load and the delta on accumulate.
{{- if .Reconstruct}}
// read_en registers initial_state ^ accumulator onto data_out.
{{- else}}
// Reconstruction is not generated: data_out stays zero.
{{- end}}
{{- if not .Rollback}}
// Rollback is not generated: rollback_en is ignored.
{{- end}}
// Single writer: drive every control input from one clock domain.

` + "`" + `timescale 1ns / 1ps
` + "`" + `default_nettype none

module {{.Module}} #(
    parameter DATA_WIDTH = {{.Width}}{{if .Rollback}},
    parameter HISTORY_DEPTH = {{.Depth}}{{end}}
) (
    input  wire                  clk,
    input  wire                  rst_n,
    input  wire                  load_en,
    input  wire                  accumulate_en,
    input  wire                  read_en,
    input  wire                  rollback_en,
    input  wire [DATA_WIDTH-1:0] data_in,
    output reg  [DATA_WIDTH-1:0] data_out,
    output wire                  accumulator_zero
);
{{- if .Rollback}}

    localparam PTR_WIDTH = (HISTORY_DEPTH > 1) ? $clog2(HISTORY_DEPTH) : 1;
{{- end}}

    reg [DATA_WIDTH-1:0] initial_state;
    reg [DATA_WIDTH-1:0] accumulator;
{{- if .Rollback}}
    reg [DATA_WIDTH-1:0] history [0:HISTORY_DEPTH-1];
    reg [PTR_WIDTH-1:0]  history_head;
    reg [PTR_WIDTH:0]    history_count;

    wire [PTR_WIDTH-1:0] history_prev = (history_head == 0) ? HISTORY_DEPTH - 1 : history_head - 1'b1;
    wire [PTR_WIDTH-1:0] history_next = (history_head == HISTORY_DEPTH - 1) ? 0 : history_head + 1'b1;
{{- end}}

    assign accumulator_zero = (accumulator == {DATA_WIDTH{1'b0}});

    always @(posedge clk or negedge rst_n) begin
        if (!rst_n) begin
            initial_state <= {DATA_WIDTH{1'b0}};
            accumulator   <= {DATA_WIDTH{1'b0}};
            data_out      <= {DATA_WIDTH{1'b0}};
{{- if .Rollback}}
            history_head  <= {PTR_WIDTH{1'b0}};
            history_count <= {(PTR_WIDTH+1){1'b0}};
{{- end}}
        end else begin
            if (load_en) begin
                initial_state <= data_in;
                accumulator   <= {DATA_WIDTH{1'b0}};
{{- if .Rollback}}
                history_head  <= {PTR_WIDTH{1'b0}};
                history_count <= {(PTR_WIDTH+1){1'b0}};
{{- end}}
            end else if (accumulate_en) begin
                accumulator <= accumulator ^ data_in;
{{- if .Rollback}}
                history_head <= history_next;
                if (history_count != HISTORY_DEPTH)
                    history_count <= history_count + 1'b1;
            end else if (rollback_en && history_count != 0) begin
                accumulator   <= accumulator ^ history[history_prev];
                history_head  <= history_prev;
                history_count <= history_count - 1'b1;
{{- end}}
            end
{{- if .Reconstruct}}

            if (read_en)
                data_out <= initial_state ^ accumulator;
{{- end}}
        end
    end
{{- if .Rollback}}

    always @(posedge clk) begin
        if (rst_n && !load_en && accumulate_en)
            history[history_head] <= data_in;
    end
{{- end}}

endmodule

` + "`" + `default_nettype wire
`))

var verilogBenchTemplate = template.Must(template.New("verilog_bench").Funcs(verilogFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.
//
// Replays the standard vectors against {{.Module}}, printing one TRACE
// line per step and finishing with $fatal on any mismatch.

` + "`" + `timescale 1ns / 1ps

module {{.Module}}_tb;
    localparam DATA_WIDTH = {{.Width}};

    reg clk = 1'b0;
    reg rst_n = 1'b0;
    reg load_en = 1'b0;
    reg accumulate_en = 1'b0;
    reg read_en = 1'b0;
    reg rollback_en = 1'b0;
    reg [DATA_WIDTH-1:0] data_in = {DATA_WIDTH{1'b0}};
    wire [DATA_WIDTH-1:0] data_out;
    wire accumulator_zero;

    reg [DATA_WIDTH-1:0] state;
    integer returned;
    integer failures = 0;

    {{.Module}} #(
        .DATA_WIDTH(DATA_WIDTH){{if .Rollback}},
        .HISTORY_DEPTH({{.Depth}}){{end}}
    ) dut (
        .clk(clk),
        .rst_n(rst_n),
        .load_en(load_en),
        .accumulate_en(accumulate_en),
        .read_en(read_en),
        .rollback_en(rollback_en),
        .data_in(data_in),
        .data_out(data_out),
        .accumulator_zero(accumulator_zero)
    );

    always #5 clk = ~clk;

    task do_load(input [DATA_WIDTH-1:0] value);
        begin
            data_in = value;
            load_en = 1'b1;
            @(posedge clk);
            #1 load_en = 1'b0;
            returned = 0;
        end
    endtask

    task do_accumulate(input [DATA_WIDTH-1:0] value);
        begin
            data_in = value;
            accumulate_en = 1'b1;
            @(posedge clk);
            #1 accumulate_en = 1'b0;
            returned = 0;
        end
    endtask
{{- if .Rollback}}

    task do_rollback(input integer count);
        integer k;
        begin
            returned = 0;
            for (k = 0; k < count; k = k + 1) begin
                if (dut.history_count != 0) begin
                    rollback_en = 1'b1;
                    @(posedge clk);
                    #1 rollback_en = 1'b0;
                    returned = returned + 1;
                end
            end
        end
    endtask
{{- end}}

    task do_read;
        begin
{{- if .Reconstruct}}
            read_en = 1'b1;
            @(posedge clk);
            #1 read_en = 1'b0;
            state = data_out;
{{- else}}
            state = dut.initial_state ^ dut.accumulator;
{{- end}}
        end
    endtask

    task check(input [DATA_WIDTH-1:0] want_state, input want_zero, input [DATA_WIDTH-1:0] want_acc, input integer want_returned);
        begin
            if (state !== want_state || accumulator_zero !== want_zero || dut.accumulator !== want_acc || returned != want_returned) begin
                $display("MISMATCH state=%h zero=%0d acc=%h returned=%0d", state, accumulator_zero, dut.accumulator, returned);
                failures = failures + 1;
            end
        end
    endtask

    initial begin
        repeat (2) @(posedge clk);
        #1 rst_n = 1'b1;
{{range .Vectors}}{{$name := .Name}}
        // {{$name}}
{{- range .Steps}}
{{- if .IsLoad}}
        do_load({{lit $.Width .Value}});
{{- else if .IsAccumulate}}
        do_accumulate({{lit $.Width .Value}});
{{- else}}
        do_rollback({{.Count}});
{{- end}}
        do_read;
        $display("TRACE {{$name}} {{.Index}} %h %0d %h %0d", state, accumulator_zero, dut.accumulator, returned);
        check({{lit $.Width .Expect.Reconstruct}}, 1'b{{bit .Expect.Status}}, {{lit $.Width .Expect.Accumulator}}, {{.Expect.Returned}});
{{- end}}
{{end}}
        if (failures != 0)
            $fatal(1, "%0d step(s) diverged from the reference", failures);
        $display("PASS");
        $finish;
    end
endmodule
`))

var verilogMakefileTemplate = template.Must(template.New("verilog_makefile").Funcs(verilogFuncs).Parse(
	"# Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.\n" +
		"\n" +
		"IVERILOG ?= iverilog\n" +
		"VVP ?= vvp\n" +
		"\n" +
		"SIM := build/{{.Module}}_tb.vvp\n" +
		"\n" +
		".PHONY: all test clean\n" +
		"\n" +
		"all: $(SIM)\n" +
		"\n" +
		"$(SIM): {{.RTL}} {{.Bench}}\n" +
		"\t@mkdir -p build\n" +
		"\t$(IVERILOG) -g2012 -o $@ {{.RTL}} {{.Bench}}\n" +
		"\n" +
		"test: $(SIM)\n" +
		"\t$(VVP) -n $(SIM)\n" +
		"\n" +
		"clean:\n" +
		"\trm -rf build\n"))

var verilogConstraintsTemplate = template.Must(template.New("verilog_constraints").Funcs(verilogFuncs).Parse(
	`# Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.
{{- if .Device}}
# Device: {{.Device}}
{{- end}}

create_clock -name clk -period {{.PeriodNS}} [get_ports {clk}]
`))
