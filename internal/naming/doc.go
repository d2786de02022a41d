// Package naming splits identifiers into words and rebuilds them in the
// case conventions each target language expects.
//
// Tokenization follows CamelCase boundaries and treats '_', '-' and ' ' as
// separators. Runs of capitals stay together as an acronym, so "TerminalIO"
// becomes ["Terminal", "IO"] and "XMLParser" becomes ["XML", "Parser"].
// Digits attach to the preceding word: "H264Delta" becomes ["H264", "Delta"].
//
// The package also carries the edit-distance helpers used to build
// "did you mean" suggestions for misspelled type tags and target names.
package naming
