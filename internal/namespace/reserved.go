package namespace

// reserved holds the lowercase keywords of every supported target.
var reserved = func() map[string]struct{} {
	lists := [][]string{
		// python
		{
			"false", "none", "true", "and", "as", "assert", "async", "await",
			"break", "class", "continue", "def", "del", "elif", "else", "except",
			"finally", "for", "from", "global", "if", "import", "in", "is",
			"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
			"while", "with", "yield",
		},
		// rust
		{
			"as", "break", "const", "continue", "crate", "else", "enum", "extern",
			"false", "fn", "for", "if", "impl", "in", "let", "loop", "match",
			"mod", "move", "mut", "pub", "ref", "return", "self", "static",
			"struct", "super", "trait", "true", "type", "unsafe", "use", "where",
			"while", "dyn", "abstract", "become", "box", "do", "final", "macro",
			"override", "priv", "typeof", "unsized", "virtual", "yield",
		},
		// c
		{
			"auto", "break", "case", "char", "const", "continue", "default",
			"do", "double", "else", "enum", "extern", "float", "for", "goto",
			"if", "inline", "int", "long", "register", "restrict", "return",
			"short", "signed", "sizeof", "static", "struct", "switch", "typedef",
			"union", "unsigned", "void", "volatile", "while",
		},
		// javascript
		{
			"abstract", "arguments", "await", "boolean", "break", "byte", "case",
			"catch", "char", "class", "const", "continue", "debugger", "default",
			"delete", "do", "double", "else", "enum", "eval", "export", "extends",
			"false", "final", "finally", "float", "for", "function", "goto", "if",
			"implements", "import", "in", "instanceof", "int", "interface", "let",
			"long", "native", "new", "null", "package", "private", "protected",
			"public", "return", "short", "static", "super", "switch",
			"synchronized", "this", "throw", "throws", "transient", "true", "try",
			"typeof", "var", "void", "volatile", "while", "with", "yield",
		},
		// go
		{
			"break", "case", "chan", "const", "continue", "default", "defer",
			"else", "fallthrough", "for", "func", "go", "goto", "if", "import",
			"interface", "map", "package", "range", "return", "select", "struct",
			"switch", "type", "var",
		},
		// verilog
		{
			"module", "endmodule", "input", "output", "inout", "wire", "reg",
			"parameter", "localparam", "assign", "always", "initial", "begin",
			"end", "if", "else", "case", "endcase", "for", "while", "repeat",
			"forever", "function", "endfunction", "task", "endtask", "integer",
			"posedge", "negedge", "default", "generate", "endgenerate", "genvar",
			"and", "or", "not", "xor", "buf", "real", "time", "logic",
		},
	}

	m := make(map[string]struct{})
	for _, list := range lists {
		for _, w := range list {
			m[w] = struct{}{}
		}
	}

	return m
}()
