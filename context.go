package rpncalc

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/shopspring/decimal"
)

// Context holds the vocabulary and arithmetic used to normalize, convert, and
// evaluate expressions: operators, functions, constants and variables, and
// the precision and rounding mode.
//
// A Context is safe for concurrent use. Registrations replace the registries
// wholesale, so an expression that is being processed during a registration
// sees either all of it or none of it.
type Context struct {
	mu  sync.Mutex
	reg atomic.Pointer[registry]
	log *slog.Logger
}

// registry is an immutable snapshot of a context's configuration.
type registry struct {
	arith Arithmetic
	// ops and fns keep registration order.
	ops     []*Operator
	fns     []*Function
	opIndex map[string]*Operator
	fnIndex map[string]*Function
	names   map[string]constant
	// prefixes contains every prefix of every registered symbol, including
	// brackets and the separator, for longest-match scanning.
	prefixes map[string]bool
}

type constant struct {
	val decimal.Decimal
	// variable is whether the value may be replaced.
	variable bool
}

// clone copies r so that the copy can be modified.
func (r *registry) clone() *registry {
	n := registry{
		arith:    r.arith,
		ops:      append([]*Operator(nil), r.ops...),
		fns:      append([]*Function(nil), r.fns...),
		opIndex:  make(map[string]*Operator, len(r.opIndex)+1),
		fnIndex:  make(map[string]*Function, len(r.fnIndex)+1),
		names:    make(map[string]constant, len(r.names)+1),
		prefixes: make(map[string]bool, len(r.prefixes)+8),
	}
	for k, v := range r.opIndex {
		n.opIndex[k] = v
	}
	for k, v := range r.fnIndex {
		n.fnIndex[k] = v
	}
	for k, v := range r.names {
		n.names[k] = v
	}
	for k := range r.prefixes {
		n.prefixes[k] = true
	}
	return &n
}

func (r *registry) addPrefixes(sym string) {
	for i := range sym {
		if i > 0 {
			r.prefixes[sym[:i]] = true
		}
	}
	r.prefixes[sym] = true
}

func (r *registry) addOperator(op *Operator) {
	r.ops = append(r.ops, op)
	r.opIndex[op.Symbol] = op
	r.addPrefixes(op.Symbol)
}

func (r *registry) addFunction(fn *Function) {
	r.fns = append(r.fns, fn)
	r.fnIndex[fn.Symbol] = fn
	r.addPrefixes(fn.Symbol)
}

func (r *registry) setName(sym string, val decimal.Decimal, variable bool) {
	r.names[sym] = constant{val: val, variable: variable}
	r.addPrefixes(sym)
}

// owner returns what sym names: "operator", "function", "constant",
// "variable", or "" if it is unregistered.
func (r *registry) owner(sym string) string {
	if _, ok := r.opIndex[sym]; ok {
		return "operator"
	}
	if _, ok := r.fnIndex[sym]; ok {
		return "function"
	}
	if c, ok := r.names[sym]; ok {
		return c.kind()
	}
	return ""
}

// known reports whether s is exactly a registered symbol, bracket, or
// separator.
func (r *registry) known(s string) bool {
	if _, ok := r.opIndex[s]; ok {
		return true
	}
	if _, ok := r.fnIndex[s]; ok {
		return true
	}
	if _, ok := r.names[s]; ok {
		return true
	}
	return isBracket(s) || s == Separator
}

// ContextOption is an option used when creating or cloning a context.
type ContextOption interface {
	ctxOption()
}

type (
	precopt  uint
	roundopt RoundingMode
	varopt   struct {
		name string
		val  decimal.Decimal
	}
	varsopt map[string]decimal.Decimal
	logopt  struct{ l *slog.Logger }
)

func (precopt) ctxOption()  {}
func (roundopt) ctxOption() {}
func (varopt) ctxOption()   {}
func (varsopt) ctxOption()  {}
func (logopt) ctxOption()   {}

// Prec sets the number of significant digits of calculations. Zero means
// unlimited.
func Prec(digits uint) ContextOption {
	return precopt(digits)
}

// Rounding sets the rounding mode of calculations.
func Rounding(m RoundingMode) ContextOption {
	return roundopt(m)
}

// SetVar adds a variable to the context.
func SetVar(name string, val decimal.Decimal) ContextOption {
	return varopt{name, val}
}

// SetVars adds any number of variables to the context.
func SetVars(vars map[string]decimal.Decimal) ContextOption {
	return varsopt(vars)
}

// WithLogger sets a logger for debug messages about registrations and
// evaluations. By default, nothing is logged.
func WithLogger(l *slog.Logger) ContextOption {
	return logopt{l}
}

// An Arithmetic used as a ContextOption sets both precision and rounding.
var _ ContextOption = Arithmetic{}

// NewContext creates a context with the default vocabulary and Decimal128
// arithmetic, then applies opts in order. Panics if an option is invalid,
// e.g. a variable that collides with a function name.
func NewContext(opts ...ContextOption) *Context {
	ctx := &Context{log: discard}
	ctx.reg.Store(defaults())
	return ctx.apply(opts)
}

// Clone creates an independent copy of a context and applies opts to it.
// Later registrations on either context do not affect the other.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := &Context{log: ctx.log}
	n.reg.Store(ctx.reg.Load())
	return n.apply(opts)
}

func (ctx *Context) apply(opts []ContextOption) *Context {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		var err error
		switch opt := opt.(type) {
		case Arithmetic:
			err = ctx.setArithmetic(opt)
		case precopt:
			err = ctx.SetPrecision(int(opt))
		case roundopt:
			err = ctx.SetRoundingMode(RoundingMode(opt))
		case varopt:
			err = ctx.AddVariable(opt.name, opt.val)
		case varsopt:
			for k, v := range opt {
				if err = ctx.AddVariable(k, v); err != nil {
					break
				}
			}
		case logopt:
			ctx.log = opt.l
			if ctx.log == nil {
				ctx.log = discard
			}
		default:
			panic("rpncalc: unknown option type")
		}
		if err != nil {
			panic("rpncalc: " + err.Error())
		}
	}
	return ctx
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// logDecimal formats a decimal only when a log record is written.
type logDecimal decimal.Decimal

func (d logDecimal) LogValue() slog.Value {
	return slog.StringValue(formatDecimal(decimal.Decimal(d)))
}

// snapshot returns the current registries. The result must not be modified.
func (ctx *Context) snapshot() *registry {
	return ctx.reg.Load()
}

// update applies f to a copy of the current registries and publishes the copy
// if f succeeds.
func (ctx *Context) update(f func(r *registry) error) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	r := ctx.reg.Load().clone()
	if err := f(r); err != nil {
		return err
	}
	ctx.reg.Store(r)
	return nil
}

// RegisterConstant adds a constant. The symbol must not already name any
// operator, function, constant, or variable.
func (ctx *Context) RegisterConstant(symbol string, value decimal.Decimal) error {
	if err := checkSymbol("RegisterConstant", symbol); err != nil {
		return err
	}
	err := ctx.update(func(r *registry) error {
		if o := r.owner(symbol); o != "" {
			return &SymbolError{Symbol: symbol, Kind: "constant", Existing: o}
		}
		r.setName(symbol, value, false)
		return nil
	})
	if err != nil {
		return err
	}
	ctx.log.Debug("registered constant", slog.String("symbol", symbol), slog.Any("value", logDecimal(value)))
	return nil
}

// RegisterOperator adds an operator. The symbol must not already name any
// operator, function, constant, or variable. Operators must be Unary or Binary; a Unary operator with Left
// associativity is written before its operand, and one with Right
// associativity is written after it.
func (ctx *Context) RegisterOperator(symbol string, prec Precedence, assoc Associativity, mult Multiplicity, op Operation) error {
	if err := checkSymbol("RegisterOperator", symbol); err != nil {
		return err
	}
	switch {
	case op == nil:
		return &ArgumentError{Func: "RegisterOperator", Msg: "nil operation for " + strconv.Quote(symbol)}
	case prec < Lowest || prec > Highest:
		return &ArgumentError{Func: "RegisterOperator", Msg: "invalid precedence " + prec.String()}
	case assoc != Left && assoc != Right:
		return &ArgumentError{Func: "RegisterOperator", Msg: "invalid associativity " + assoc.String()}
	case mult != Unary && mult != Binary:
		return &ArgumentError{Func: "RegisterOperator", Msg: "operators must be unary or binary, not " + mult.String()}
	}
	o := &Operator{Symbol: symbol, Precedence: prec, Associativity: assoc, Multiplicity: mult, Operation: op}
	err := ctx.update(func(r *registry) error {
		if o := r.owner(symbol); o != "" {
			return &SymbolError{Symbol: symbol, Kind: "operator", Existing: o}
		}
		r.addOperator(o)
		return nil
	})
	if err != nil {
		return err
	}
	ctx.log.Debug("registered operator",
		slog.String("symbol", symbol),
		slog.String("precedence", prec.String()),
		slog.String("associativity", assoc.String()),
		slog.String("multiplicity", mult.String()),
	)
	return nil
}

// RegisterFunction adds a left-associative function. The symbol must not
// already name any operator, function, constant, or variable.
func (ctx *Context) RegisterFunction(symbol string, mult Multiplicity, op Operation) error {
	if err := checkSymbol("RegisterFunction", symbol); err != nil {
		return err
	}
	switch {
	case op == nil:
		return &ArgumentError{Func: "RegisterFunction", Msg: "nil operation for " + strconv.Quote(symbol)}
	case mult != Unary && mult != Binary && mult != Multi:
		return &ArgumentError{Func: "RegisterFunction", Msg: "invalid multiplicity " + mult.String()}
	case strings.Contains(symbol, ArgCountSeparator):
		return &ArgumentError{Func: "RegisterFunction", Msg: "function name " + strconv.Quote(symbol) + " contains " + ArgCountSeparator}
	}
	fn := &Function{Symbol: symbol, Associativity: Left, Multiplicity: mult, Operation: op}
	err := ctx.update(func(r *registry) error {
		if o := r.owner(symbol); o != "" {
			return &SymbolError{Symbol: symbol, Kind: "function", Existing: o}
		}
		r.addFunction(fn)
		return nil
	})
	if err != nil {
		return err
	}
	ctx.log.Debug("registered function", slog.String("symbol", symbol), slog.String("multiplicity", mult.String()))
	return nil
}

// AddVariable sets the value of a variable, adding it if it does not exist.
// Variables are looked up like constants, but their values may be replaced.
// The symbol must not name an operator, a function, or a constant.
func (ctx *Context) AddVariable(symbol string, value decimal.Decimal) error {
	if err := checkSymbol("AddVariable", symbol); err != nil {
		return err
	}
	err := ctx.update(func(r *registry) error {
		if o := r.owner(symbol); o != "" && o != "variable" {
			return &SymbolError{Symbol: symbol, Kind: "variable", Existing: o}
		}
		r.setName(symbol, value, true)
		return nil
	})
	if err != nil {
		return err
	}
	ctx.log.Debug("set variable", slog.String("symbol", symbol), slog.Any("value", logDecimal(value)))
	return nil
}

func (c constant) kind() string {
	if c.variable {
		return "variable"
	}
	return "constant"
}

// checkSymbol validates a symbol for registration.
func checkSymbol(fn, symbol string) error {
	switch {
	case strings.TrimSpace(symbol) == "":
		return &ArgumentError{Func: fn, Msg: "blank symbol"}
	case strings.IndexFunc(symbol, unicode.IsSpace) >= 0:
		return &ArgumentError{Func: fn, Msg: "symbol " + strconv.Quote(symbol) + " contains whitespace"}
	case strings.ContainsAny(symbol, OpenBrackets+CloseBrackets+Separator):
		return &ArgumentError{Func: fn, Msg: "symbol " + strconv.Quote(symbol) + " contains a bracket or separator"}
	case isLiteral(symbol):
		return &ArgumentError{Func: fn, Msg: "symbol " + strconv.Quote(symbol) + " is a number"}
	}
	return nil
}

// Round rounds a value to the context's precision using its rounding mode.
func (ctx *Context) Round(value decimal.Decimal) (decimal.Decimal, error) {
	return ctx.snapshot().arith.Round(value)
}

// SetPrecision sets the number of significant digits of calculations. Zero
// means unlimited.
func (ctx *Context) SetPrecision(n int) error {
	if n < 0 {
		return &ArgumentError{Func: "SetPrecision", Msg: "negative precision " + strconv.Itoa(n)}
	}
	err := ctx.update(func(r *registry) error {
		r.arith.Precision = uint(n)
		return nil
	})
	if err == nil {
		ctx.log.Debug("set precision", slog.Int("digits", n))
	}
	return err
}

// SetRoundingMode sets the rounding mode of calculations.
func (ctx *Context) SetRoundingMode(m RoundingMode) error {
	if !m.valid() {
		return &ArgumentError{Func: "SetRoundingMode", Msg: "invalid rounding mode " + m.String()}
	}
	err := ctx.update(func(r *registry) error {
		r.arith.Rounding = m
		return nil
	})
	if err == nil {
		ctx.log.Debug("set rounding mode", slog.String("mode", m.String()))
	}
	return err
}

func (ctx *Context) setArithmetic(a Arithmetic) error {
	if !a.Rounding.valid() {
		return &ArgumentError{Func: "NewContext", Msg: "invalid rounding mode " + a.Rounding.String()}
	}
	return ctx.update(func(r *registry) error {
		r.arith = a
		return nil
	})
}

// Arithmetic returns the context's precision and rounding mode.
func (ctx *Context) Arithmetic() Arithmetic {
	return ctx.snapshot().arith
}

// Precision returns the number of significant digits of calculations.
func (ctx *Context) Precision() uint {
	return ctx.snapshot().arith.Precision
}

// RoundingMode returns the rounding mode of calculations.
func (ctx *Context) RoundingMode() RoundingMode {
	return ctx.snapshot().arith.Rounding
}

// Lookup returns the value of a constant or variable.
func (ctx *Context) Lookup(symbol string) (decimal.Decimal, bool) {
	c, ok := ctx.snapshot().names[symbol]
	return c.val, ok
}

// Operator returns a copy of the operator with the given symbol.
func (ctx *Context) Operator(symbol string) (Operator, bool) {
	op := ctx.snapshot().opIndex[symbol]
	if op == nil {
		return Operator{}, false
	}
	return *op, true
}

// Function returns a copy of the function with the given name.
func (ctx *Context) Function(symbol string) (Function, bool) {
	fn := ctx.snapshot().fnIndex[symbol]
	if fn == nil {
		return Function{}, false
	}
	return *fn, true
}

// Operators returns the operators in registration order.
func (ctx *Context) Operators() []Operator {
	r := ctx.snapshot()
	v := make([]Operator, len(r.ops))
	for i, op := range r.ops {
		v[i] = *op
	}
	return v
}

// Functions returns the functions in registration order.
func (ctx *Context) Functions() []Function {
	r := ctx.snapshot()
	v := make([]Function, len(r.fns))
	for i, fn := range r.fns {
		v[i] = *fn
	}
	return v
}
