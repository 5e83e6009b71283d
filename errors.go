package rpncalc

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	// ErrInvalidArgument is a blank expression, a blank or reserved symbol, a
	// missing operation, or a negative precision.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnrecognizedToken is input text that matches no known token.
	ErrUnrecognizedToken = errors.New("unrecognized token")
	// ErrUnhandledToken is a token that is not an operand, operator,
	// function, bracket, or separator.
	ErrUnhandledToken = errors.New("unhandled token")
	// ErrUnmatchedBracket is an open bracket with no close bracket of the
	// same family, or the reverse.
	ErrUnmatchedBracket = errors.New("unmatched bracket")
	// ErrMalformedExpression is a postfix expression whose operators do not
	// have enough operands, or that leaves more than one value.
	ErrMalformedExpression = errors.New("malformed expression")
	// ErrDuplicateSymbol is a registration of a symbol that already exists
	// as the same kind of symbol.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	// ErrNameCollision is a registration of a symbol that already names
	// something else, such as a variable named like a constant, or a
	// constant named like a function.
	ErrNameCollision = errors.New("name collision")
	// ErrDomain is an argument outside the domain of an operation.
	ErrDomain = errors.New("domain error")
)

// InputError is an error with position information. Every error resulting from
// invalid expression text implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error. For the normalizer, this is the
	// number of runes up to and including the offending rune. For the
	// converter and evaluator, it is the 1-based index of the offending token.
	Pos() int
}

var (
	_ InputError = (*LexError)(nil)
	_ InputError = (*TokenError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*SeparatorError)(nil)
	_ InputError = (*StackError)(nil)
)

// ArgumentError is an invalid argument to a function of this package.
type ArgumentError struct {
	// Func is the name of the function that was called.
	Func string
	Msg  string
}

func (err *ArgumentError) Error() string {
	return err.Func + ": " + err.Msg
}

func (err *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// LexError indicates text that does not begin with any known token.
type LexError struct {
	// Text is the rune at which no token could be recognized.
	Text string
	// Col is the total number of runes scanned up to and including Text.
	Col int
}

func (err *LexError) Error() string {
	return errpos(err.Col, "unrecognized token "+strconv.Quote(err.Text))
}

func (err *LexError) Pos() int {
	return err.Col
}

func (err *LexError) Unwrap() error {
	return ErrUnrecognizedToken
}

// TokenError indicates a token that the converter or evaluator cannot
// classify.
type TokenError struct {
	// Index is the 1-based position of the token.
	Index int
	Token string
}

func (err *TokenError) Error() string {
	return errpos(err.Index, "unhandled token "+strconv.Quote(err.Token))
}

func (err *TokenError) Pos() int {
	return err.Index
}

func (err *TokenError) Unwrap() error {
	return ErrUnhandledToken
}

// BracketError is an error indicating mismatched brackets in the input.
type BracketError struct {
	// Index is the 1-based position of the token that exposed the mismatch,
	// or one past the last token if the input ended with open brackets.
	Index int
	// Left is the opening bracket, if any.
	Left string
	// Right is the closing bracket, if any.
	Right string
}

func (err *BracketError) Error() string {
	if err.Left == "" {
		return errpos(err.Index, "close bracket "+err.Right+" with no open bracket")
	}
	if err.Right == "" {
		return errpos(err.Index, "open bracket "+err.Left+" with no close bracket")
	}
	return errpos(err.Index, "mismatched bracket: "+err.Left+"expr"+err.Right)
}

func (err *BracketError) Pos() int {
	return err.Index
}

func (err *BracketError) Unwrap() error {
	return ErrUnmatchedBracket
}

// SeparatorError is a function argument separator that is not inside any
// brackets.
type SeparatorError struct {
	Index int
	Sep   string
}

func (err *SeparatorError) Error() string {
	return errpos(err.Index, "separator "+strconv.Quote(err.Sep)+" outside brackets")
}

func (err *SeparatorError) Pos() int {
	return err.Index
}

func (err *SeparatorError) Unwrap() error {
	return ErrUnmatchedBracket
}

// StackError indicates a postfix expression that does not leave exactly one
// value. Either a token needed more operands than were available, or the
// input ended with extra values.
type StackError struct {
	// Index is the 1-based position of the token that underflowed the stack,
	// or one past the last token if the input ended with extra values.
	Index int
	// Token is the operator or function that underflowed, or empty.
	Token string
	// Want is the number of operands the token needed, or the number of
	// values remaining at the end of input when Token is empty.
	Want int
	Have int
}

func (err *StackError) Error() string {
	if err.Token == "" {
		return errpos(err.Index, "expression leaves "+strconv.Itoa(err.Have)+" values")
	}
	return errpos(err.Index, err.Token+" needs "+strconv.Itoa(err.Want)+" operands but has "+strconv.Itoa(err.Have))
}

func (err *StackError) Pos() int {
	return err.Index
}

func (err *StackError) Unwrap() error {
	return ErrMalformedExpression
}

// SymbolError is a registration rejected because the symbol already exists.
type SymbolError struct {
	Symbol string
	// Kind is what the symbol was being registered as: "constant",
	// "variable", "operator", or "function".
	Kind string
	// Existing is what the symbol already names.
	Existing string
}

func (err *SymbolError) Error() string {
	if err.Kind == err.Existing {
		return "duplicate " + err.Kind + " " + strconv.Quote(err.Symbol)
	}
	return "cannot add " + err.Kind + " " + strconv.Quote(err.Symbol) + ": already a " + err.Existing
}

// Unwrap returns ErrDuplicateSymbol when a constant, operator, or function
// meets a symbol of its own registry, where constants and variables share
// one. Otherwise, including for every variable, it returns ErrNameCollision.
func (err *SymbolError) Unwrap() error {
	if err.Kind != "variable" && registryOf(err.Kind) == registryOf(err.Existing) {
		return ErrDuplicateSymbol
	}
	return ErrNameCollision
}

func registryOf(kind string) string {
	if kind == "variable" {
		return "constant"
	}
	return kind
}

// DomainError is an error returned when an operation is applied to arguments
// outside its domain.
type DomainError struct {
	// X is the out-of-domain argument.
	X decimal.Decimal
	// Arg is the 1-based index of the argument, if known.
	Arg int
	// Func is a name identifying the operation.
	Func string
	// Msg optionally replaces the default description.
	Msg string
}

func (err *DomainError) Error() string {
	r := formatDecimal(err.X) + " outside domain"
	if err.Msg != "" {
		r = formatDecimal(err.X) + ": " + err.Msg
	}
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}

func (err *DomainError) Unwrap() error {
	return ErrDomain
}

// formatDecimal formats x like x.String(), but in exponential notation when
// the plain form would have many zeros.
func formatDecimal(x decimal.Decimal) string {
	if e := x.Exponent(); x.IsZero() || e >= -40 && e <= 20 {
		return x.String()
	}
	c := x.Coefficient()
	sign := ""
	if c.Sign() < 0 {
		sign = "-"
		c.Neg(c)
	}
	d := strings.TrimRight(c.String(), "0")
	if len(d) > 1 {
		d = d[:1] + "." + d[1:]
	}
	e := adjusted(x)
	if e >= 0 {
		return sign + d + "e+" + strconv.FormatInt(e, 10)
	}
	return sign + d + "e" + strconv.FormatInt(e, 10)
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}
