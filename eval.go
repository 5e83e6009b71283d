package rpncalc

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// evaluator is the operand stack of a postfix evaluation.
type evaluator struct {
	stack []decimal.Decimal
	reg   *registry
}

// pop removes n values from the stack and returns a copy of them, bottom
// first. The stack keeps its capacity.
func (e *evaluator) pop(n int) []decimal.Decimal {
	k := len(e.stack) - n
	v := make([]decimal.Decimal, n)
	copy(v, e.stack[k:])
	e.stack = e.stack[:k]
	return v
}

// push adds a value to the stack if it is within the range of values.
func (e *evaluator) push(v decimal.Decimal, tok string) error {
	if err := checkRange(v, tok); err != nil {
		return err
	}
	e.stack = append(e.stack, v)
	return nil
}

// operand resolves a constant, variable, or literal.
func (e *evaluator) operand(tok string) (decimal.Decimal, bool) {
	if c, ok := e.reg.names[tok]; ok {
		return c.val, true
	}
	if !isLiteral(tok) {
		return decimal.Decimal{}, false
	}
	return parseLiteral(tok), true
}

// parseLiteral parses a token for which isLiteral is true.
func parseLiteral(tok string) decimal.Decimal {
	neg := false
	if t := trimMinus(tok); t != tok {
		neg, tok = true, t
	}
	if strings.HasPrefix(tok, ".") {
		tok = "0" + tok
	}
	d, err := decimal.NewFromString(tok)
	if err != nil {
		panic("rpncalc: invalid literal " + strconv.Quote(tok) + ": " + err.Error())
	}
	if neg {
		d = d.Neg()
	}
	return d
}

// apply evaluates an operator or function token with the given number of
// operands, or -1 for all remaining values.
func (e *evaluator) apply(tok string, k int, n int, assoc Associativity, exp bool, op Operation) error {
	if n < 0 {
		n = len(e.stack)
	}
	if len(e.stack) < n {
		return &StackError{Index: k, Token: tok, Want: n, Have: len(e.stack)}
	}
	args := e.pop(n)
	if n == 2 && assoc == Right && !exp {
		// A right-associative binary token receives its operands in the
		// order they are popped, top of stack first.
		args[0], args[1] = args[1], args[0]
	}
	r, err := op(e.reg.arith, args)
	if err != nil {
		return err
	}
	r, err = e.reg.arith.Round(r)
	if err != nil {
		return err
	}
	return e.push(r, tok)
}

// step evaluates one postfix token. k is the 1-based index of the token.
func (e *evaluator) step(tok string, k int) error {
	if op := e.reg.opIndex[tok]; op != nil {
		// Exponentiation is right-associative when converting, but its
		// operands are already in textual order in postfix.
		return e.apply(tok, k, arity(op.Multiplicity), op.Associativity, op.Symbol == "^", op.Operation)
	}
	if fn := e.reg.fnIndex[tok]; fn != nil {
		return e.apply(tok, k, arity(fn.Multiplicity), fn.Associativity, false, fn.Operation)
	}
	if name, count, ok := strings.Cut(tok, ArgCountSeparator); ok {
		fn := e.reg.fnIndex[name]
		n, err := strconv.Atoi(count)
		if fn == nil || fn.Multiplicity != Multi || err != nil || n < 0 {
			return &TokenError{Index: k, Token: tok}
		}
		return e.apply(tok, k, n, fn.Associativity, false, fn.Operation)
	}
	v, ok := e.operand(tok)
	if !ok {
		return &TokenError{Index: k, Token: tok}
	}
	return e.push(v, "")
}

// Evaluate evaluates a postfix expression whose tokens are separated by single
// spaces, returning the result rounded to the context's precision.
//
// Binary operators and functions pop two operands. For left-associative ones,
// the operation receives them in the order they were pushed, so "5 3 -" is
// 2. Right-associative ones receive them in the order they are popped, top
// first. The exception is ^, which receives its operands in the order they
// were pushed, so "2 3 ^" is 8 and "2 2 3 ^ ^" is 256.
//
// A variadic function takes the number of operands after its ArgCountSeparator,
// or the entire stack if it has none. It is an error for the expression to
// leave anything other than exactly one value, and a domain error for any
// value to fall outside the range given by MaxExponent.
func Evaluate(postfix string, ctx *Context) (decimal.Decimal, error) {
	if strings.TrimSpace(postfix) == "" {
		return decimal.Zero, &ArgumentError{Func: "Evaluate", Msg: "blank expression"}
	}
	toks := strings.Split(postfix, " ")
	e := evaluator{
		stack: make([]decimal.Decimal, 0, len(toks)),
		reg:   ctx.snapshot(),
	}
	for i, tok := range toks {
		if err := e.step(tok, i+1); err != nil {
			return decimal.Zero, err
		}
	}
	if len(e.stack) != 1 {
		return decimal.Zero, &StackError{Index: len(toks) + 1, Have: len(e.stack)}
	}
	r, err := e.reg.arith.Round(e.stack[0])
	if err != nil {
		return decimal.Zero, err
	}
	ctx.log.Debug("evaluated", slog.String("postfix", postfix), slog.Any("result", logDecimal(r)))
	return r, nil
}

// EvalString is a shortcut to convert an infix expression and evaluate it.
func EvalString(infix string, ctx *Context) (decimal.Decimal, error) {
	postfix, err := Convert(infix, ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return Evaluate(postfix, ctx)
}
