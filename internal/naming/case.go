package naming

import (
	"strings"
	"unicode"
)

// Tokenize splits an identifier into its words, preserving the original case.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()

			continue
		}

		if i > 0 && startsWord(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

// Snake converts an identifier to lower snake_case: "H264Delta" -> "h264_delta".
func Snake(s string) string {
	return joinLower(Tokenize(s), "_")
}

// ScreamingSnake converts an identifier to SCREAMING_SNAKE_CASE, the C macro
// convention: "PriceTick" -> "PRICE_TICK".
func ScreamingSnake(s string) string {
	return strings.ToUpper(Snake(s))
}

// Camel converts an identifier to lowerCamelCase: "delta_price" -> "deltaPrice".
func Camel(s string) string {
	tokens := Tokenize(s)
	if len(tokens) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString(strings.ToLower(tokens[0]))

	for _, t := range tokens[1:] {
		b.WriteString(upperFirst(strings.ToLower(t)))
	}

	return b.String()
}

func joinLower(tokens []string, sep string) string {
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return strings.Join(tokens, sep)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}

	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])

	return string(r)
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// startsWord reports whether a new word begins at runes[i].
func startsWord(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]

	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	// lower or digit to upper: "priceTick", "H264Delta"
	if !unicode.IsUpper(prev) {
		return true
	}

	// end of an acronym: "XMLParser" splits before 'P'
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
