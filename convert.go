package rpncalc

import (
	"log/slog"
	"strconv"
	"strings"
)

// category is the role of a token in an infix expression.
type category int8

const (
	catNone category = iota
	// catOperand is a literal, constant, or variable.
	catOperand
	// catPrefixUnary is a unary operator written before its operand.
	catPrefixUnary
	// catPostfixUnary is a unary operator written after its operand.
	catPostfixUnary
	// catFunction is a function name.
	catFunction
	// catSeparator is the function argument separator.
	catSeparator
	// catPrefixBinary is a left-associative binary operator.
	catPrefixBinary
	// catPostfixBinary is a right-associative binary operator.
	catPostfixBinary
	// catOpen is an open bracket of any family.
	catOpen
	// catClose is a close bracket of any family.
	catClose
)

func (c category) String() string {
	switch c {
	case catNone:
		return "None"
	case catOperand:
		return "Operand"
	case catPrefixUnary:
		return "PrefixUnary"
	case catPostfixUnary:
		return "PostfixUnary"
	case catFunction:
		return "Function"
	case catSeparator:
		return "Separator"
	case catPrefixBinary:
		return "PrefixBinary"
	case catPostfixBinary:
		return "PostfixBinary"
	case catOpen:
		return "Open"
	case catClose:
		return "Close"
	default:
		return "category(" + strconv.Itoa(int(c)) + ")"
	}
}

// item is a classified token.
type item struct {
	text string
	cat  category
	op   *Operator
	fn   *Function
	// family is the bracket index in OpenBrackets and CloseBrackets.
	family int
	// call counts arguments if the item is an open bracket of a call.
	call *call
}

type call struct {
	// seps is the number of separators at this bracket's level.
	seps int
	// seen is whether any token has appeared inside the brackets.
	seen bool
}

// args is the number of arguments of the call.
func (c *call) args() int {
	if c.seps == 0 && !c.seen {
		return 0
	}
	return c.seps + 1
}

// classify determines the category of a token. The result has catNone if the
// token is not known.
func classify(reg *registry, tok string) item {
	it := item{text: tok}
	switch {
	case tok == Separator:
		it.cat = catSeparator
	case isBracket(tok) && strings.Contains(OpenBrackets, tok):
		it.cat = catOpen
		it.family = strings.Index(OpenBrackets, tok)
	case isBracket(tok):
		it.cat = catClose
		it.family = strings.Index(CloseBrackets, tok)
	case reg.opIndex[tok] != nil:
		it.op = reg.opIndex[tok]
		switch {
		case it.op.Multiplicity == Unary && it.op.prefix():
			it.cat = catPrefixUnary
		case it.op.Multiplicity == Unary:
			it.cat = catPostfixUnary
		case it.op.prefix():
			it.cat = catPrefixBinary
		default:
			it.cat = catPostfixBinary
		}
	case reg.fnIndex[tok] != nil:
		it.fn = reg.fnIndex[tok]
		it.cat = catFunction
	case isLiteral(tok):
		it.cat = catOperand
	default:
		if _, ok := reg.names[tok]; ok {
			it.cat = catOperand
		}
	}
	return it
}

// converter holds the state of the shunting-yard algorithm.
type converter struct {
	stack []item
	out   []string
	// calls has the argument counters of all open brackets, innermost last.
	calls []*call
}

func (c *converter) push(it item) {
	c.stack = append(c.stack, it)
}

func (c *converter) top() *item {
	if len(c.stack) == 0 {
		return nil
	}
	return &c.stack[len(c.stack)-1]
}

func (c *converter) pop() item {
	it := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return it
}

// emit moves a stacked item to the output.
func (c *converter) emit(it item) {
	if it.fn != nil && it.fn.Multiplicity == Multi && it.call != nil {
		c.out = append(c.out, it.text+ArgCountSeparator+strconv.Itoa(it.call.args()))
		return
	}
	c.out = append(c.out, it.text)
}

// popUntilOpen moves operators and functions to the output until the top of
// the stack is an open bracket. Reports whether an open bracket was found.
func (c *converter) popUntilOpen() bool {
	for t := c.top(); t != nil; t = c.top() {
		if t.cat == catOpen {
			return true
		}
		c.emit(c.pop())
	}
	return false
}

// mark records that the innermost brackets contain something.
func (c *converter) mark() {
	if len(c.calls) > 0 {
		c.calls[len(c.calls)-1].seen = true
	}
}

// step applies one token. k is the 1-based index of the token for errors.
func (c *converter) step(it item, k int) error {
	switch it.cat {
	case catOperand:
		c.mark()
		c.out = append(c.out, it.text)
	case catFunction, catPrefixUnary:
		c.mark()
		c.push(it)
	case catPostfixUnary:
		// The operand is already in the output.
		c.mark()
		c.out = append(c.out, it.text)
	case catPrefixBinary, catPostfixBinary:
		c.mark()
		for t := c.top(); t != nil && t.op != nil && t.op.popsBefore(it.op); t = c.top() {
			c.emit(c.pop())
		}
		c.push(it)
	case catSeparator:
		if !c.popUntilOpen() {
			return &SeparatorError{Index: k, Sep: it.text}
		}
		c.calls[len(c.calls)-1].seps++
		c.calls[len(c.calls)-1].seen = false
	case catOpen:
		c.mark()
		// Only calls need counting, but every bracket level gets a counter
		// so that separators find theirs.
		it.call = &call{}
		c.calls = append(c.calls, it.call)
		c.push(it)
	case catClose:
		if !c.popUntilOpen() {
			return &BracketError{Index: k, Right: it.text}
		}
		open := c.pop()
		if open.family != it.family {
			return &BracketError{Index: k, Left: open.text, Right: it.text}
		}
		c.calls = c.calls[:len(c.calls)-1]
		if t := c.top(); t != nil && t.cat == catFunction {
			fn := c.pop()
			fn.call = open.call
			c.emit(fn)
		}
	case catNone:
		return &TokenError{Index: k, Token: it.text}
	default:
		panic("rpncalc: invalid token category " + it.cat.String())
	}
	return nil
}

// finish moves the remaining stack to the output. k is one past the index of
// the last token.
func (c *converter) finish(k int) error {
	for len(c.stack) > 0 {
		it := c.pop()
		if it.cat == catOpen {
			return &BracketError{Index: k, Left: it.text}
		}
		c.emit(it)
	}
	return nil
}

// ConvertTokens converts a sequence of infix tokens, as produced by
// Normalize, to postfix order.
//
// A function whose multiplicity is Multi is written with its argument count,
// so that sum(1, 2, 3) becomes "1 2 3 sum#3". Such a token is not a symbol
// of the context, and only Evaluate understands it; a bare "sum" in postfix
// takes the whole stack instead. Argument counts of other functions are not
// checked.
func ConvertTokens(tokens []string, ctx *Context) ([]string, error) {
	if len(tokens) == 0 {
		return nil, &ArgumentError{Func: "ConvertTokens", Msg: "no tokens"}
	}
	reg := ctx.snapshot()
	c := converter{out: make([]string, 0, len(tokens))}
	for i, tok := range tokens {
		if err := c.step(classify(reg, tok), i+1); err != nil {
			return nil, err
		}
	}
	if err := c.finish(len(tokens) + 1); err != nil {
		return nil, err
	}
	return c.out, nil
}

// Convert normalizes an infix expression and converts it to a postfix
// expression with single spaces between tokens. Calls of variadic functions
// carry their argument counts as described for ConvertTokens, so the result
// is not always plain operands and symbols.
func Convert(infix string, ctx *Context) (string, error) {
	toks, err := Normalize(infix, ctx)
	if err != nil {
		return "", err
	}
	out, err := ConvertTokens(toks, ctx)
	if err != nil {
		return "", err
	}
	postfix := strings.Join(out, " ")
	ctx.log.Debug("converted", slog.String("infix", infix), slog.String("postfix", postfix))
	return postfix, nil
}
