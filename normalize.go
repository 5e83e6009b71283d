package rpncalc

import (
	"log/slog"
	"strings"
	"unicode"
)

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// A bracket in byte position k in OpenBrackets matches only the bracket in
// byte position k in CloseBrackets.
const (
	OpenBrackets  = "([{"
	CloseBrackets = ")]}"
)

// Separator separates function arguments.
const Separator = ","

// ArgCountSeparator joins a variadic function name to its argument count in
// postfix expressions, as in "1 2 3 sum#3".
const ArgCountSeparator = "#"

func isBracket(s string) bool {
	return len(s) == 1 && strings.Contains(OpenBrackets+CloseBrackets, s)
}

// isLiteral reports whether s is a decimal literal: an optional minus sign,
// then digits with an optional fraction, or a fraction alone.
func isLiteral(s string) bool {
	s = trimMinus(s)
	intpart, frac, dot := strings.Cut(s, ".")
	if dot {
		return digits(frac) > 0 && digits(frac) == len(frac) && digits(intpart) == len(intpart)
	}
	return digits(intpart) > 0 && digits(intpart) == len(intpart)
}

// isLiteralPrefix reports whether some decimal literal begins with s.
func isLiteralPrefix(s string) bool {
	s = trimMinus(s)
	intpart, frac, _ := strings.Cut(s, ".")
	return digits(intpart) == len(intpart) && digits(frac) == len(frac)
}

// trimMinus removes one leading minus sign, ASCII or U+2212.
func trimMinus(s string) string {
	if t := strings.TrimPrefix(s, "-"); t != s {
		return t
	}
	return strings.TrimPrefix(s, "−")
}

// digits counts the leading ASCII digits of s.
func digits(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return i
		}
	}
	return len(s)
}

func isMinus(r rune) bool {
	return r == '-' || r == '−'
}

// Normalize splits an infix expression into tokens. Whitespace between tokens
// is optional. At each position, the longest text that is a registered
// symbol, bracket, separator, or decimal literal becomes the next token.
//
// A minus sign directly after an operand, closing bracket, or postfix
// operator is always the subtraction operator; elsewhere it may begin a
// negative literal. So "3-2" is "3 - 2", but "3*-2" is "3 * -2".
//
// Only digits and a decimal point make a negative literal. In front of
// anything else, such as a constant, a function, or a bracket, a minus is
// still the subtraction operator, so "-π" and "-(2)" evaluate to a
// malformed expression error; write "-1×π" or "0-(2)" instead.
func Normalize(src string, ctx *Context) ([]string, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &ArgumentError{Func: "Normalize", Msg: "blank expression"}
	}
	reg := ctx.snapshot()
	s := scan(src, reg)
	var toks []string
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		if tok == "" {
			break
		}
		toks = append(toks, tok)
	}
	ctx.log.Debug("normalized", slog.String("src", src), slog.Int("tokens", len(toks)))
	return toks, nil
}

// NormalizeString is like Normalize, but joins the tokens with single spaces.
func NormalizeString(src string, ctx *Context) (string, error) {
	toks, err := Normalize(src, ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(toks, " "), nil
}

type scanner struct {
	src []rune
	pos int
	reg *registry
	// operand is whether the last token ends an operand, so that a following
	// minus sign must be a binary operator.
	operand bool
}

func scan(src string, reg *registry) *scanner {
	return &scanner{src: []rune(src), reg: reg}
}

// next scans the next token. At the end of the input, the result is the empty
// string with a nil error.
func (s *scanner) next() (string, error) {
	for s.pos < len(s.src) && unicode.IsSpace(s.src[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.src) {
		return "", nil
	}
	if s.operand && isMinus(s.src[s.pos]) {
		tok := string(s.src[s.pos])
		if _, ok := s.reg.opIndex[tok]; ok {
			s.pos++
			s.operand = false
			return tok, nil
		}
	}
	end := -1
	for j := s.pos + 1; j <= len(s.src); j++ {
		if unicode.IsSpace(s.src[j-1]) {
			break
		}
		c := string(s.src[s.pos:j])
		lit := isLiteralPrefix(c)
		if !lit && !s.reg.prefixes[c] {
			break
		}
		if s.reg.known(c) || lit && isLiteral(c) {
			end = j
		}
	}
	if end < 0 {
		// Column is 1-based and includes the offending rune.
		return "", &LexError{Text: string(s.src[s.pos]), Col: s.pos + 1}
	}
	tok := string(s.src[s.pos:end])
	s.pos = end
	s.operand = s.endsOperand(tok)
	return tok, nil
}

// endsOperand reports whether a value is complete after tok.
func (s *scanner) endsOperand(tok string) bool {
	if op := s.reg.opIndex[tok]; op != nil {
		return op.Multiplicity == Unary && !op.prefix()
	}
	if _, ok := s.reg.fnIndex[tok]; ok {
		return false
	}
	if _, ok := s.reg.names[tok]; ok {
		return true
	}
	return isLiteral(tok) || isBracket(tok) && strings.Contains(CloseBrackets, tok)
}
