package rpncalc

import (
	"math"
	"math/big"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zephyrtronium/bigfloat"
)

var defaultOperators = []Operator{
	{Symbol: "^", Precedence: Highest, Associativity: Right, Multiplicity: Binary, Operation: pow},
	{Symbol: "!", Precedence: High, Associativity: Right, Multiplicity: Unary, Operation: factorial},
	{Symbol: "√", Precedence: High, Associativity: Left, Multiplicity: Unary, Operation: sqrt},
	{Symbol: "*", Precedence: Low, Associativity: Left, Multiplicity: Binary, Operation: mul},
	{Symbol: "×", Precedence: Low, Associativity: Left, Multiplicity: Binary, Operation: mul},
	{Symbol: "/", Precedence: Low, Associativity: Left, Multiplicity: Binary, Operation: quo},
	{Symbol: "÷", Precedence: Low, Associativity: Left, Multiplicity: Binary, Operation: quo},
	{Symbol: "%", Precedence: Low, Associativity: Left, Multiplicity: Binary, Operation: mod},
	{Symbol: "+", Precedence: Lowest, Associativity: Left, Multiplicity: Binary, Operation: add},
	{Symbol: "-", Precedence: Lowest, Associativity: Left, Multiplicity: Binary, Operation: sub},
	{Symbol: "−", Precedence: Lowest, Associativity: Left, Multiplicity: Binary, Operation: sub},
}

var defaultFunctions = []Function{
	{Symbol: "sin", Associativity: Left, Multiplicity: Unary, Operation: sin},
	{Symbol: "cos", Associativity: Left, Multiplicity: Unary, Operation: cos},
	{Symbol: "tan", Associativity: Left, Multiplicity: Unary, Operation: tan},
	{Symbol: "min", Associativity: Left, Multiplicity: Binary, Operation: min2},
	{Symbol: "max", Associativity: Left, Multiplicity: Binary, Operation: max2},
	{Symbol: "avg", Associativity: Left, Multiplicity: Binary, Operation: avg},
	// pct is right-associative, so its operands arrive last argument first.
	{Symbol: "pct", Associativity: Right, Multiplicity: Binary, Operation: pct},
	{Symbol: "sum", Associativity: Left, Multiplicity: Multi, Operation: sum},
	{Symbol: "log", Associativity: Left, Multiplicity: Unary, Operation: log10},
}

// constDigits is the number of significant digits of the default constants.
const constDigits = 60

var (
	defaultOnce sync.Once
	defaultReg  *registry
)

// defaults returns the registry of a new context. The tables above are copied
// so that contexts never share mutable operators.
func defaults() *registry {
	defaultOnce.Do(func() {
		r := registry{
			arith:    Decimal128,
			opIndex:  make(map[string]*Operator, len(defaultOperators)),
			fnIndex:  make(map[string]*Function, len(defaultFunctions)),
			names:    make(map[string]constant, 3),
			prefixes: make(map[string]bool),
		}
		for _, s := range []string{"(", ")", "[", "]", "{", "}", Separator} {
			r.addPrefixes(s)
		}
		for _, op := range defaultOperators {
			op := op
			r.addOperator(&op)
		}
		for _, fn := range defaultFunctions {
			fn := fn
			r.addFunction(&fn)
		}
		pi := piDigits(constDigits)
		r.setName("π", pi, false)
		r.setName("PI", pi, false)
		r.setName("e", eDigits(constDigits), false)
		defaultReg = &r
	})
	return defaultReg
}

func add(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	return addRounded(a, args[0], args[1])
}

func sub(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	return addRounded(a, args[0], args[1].Neg())
}

func mul(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	return mulChecked(args[0], args[1], "*")
}

func quo(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	return a.Quo(args[0], args[1])
}

func mod(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	if args[1].IsZero() {
		return decimal.Zero, &DomainError{X: args[1], Func: "%", Arg: 2}
	}
	if args[0].IsZero() || magnitude(args[0]) < magnitude(args[1]) {
		// |x| < |y|
		return args[0], nil
	}
	return args[0].Mod(args[1]), nil
}

// maxExponentDigits bounds the magnitude of exponents.
const maxExponentDigits = 9

// maxExactPower is the largest integer exponent computed exactly at unlimited
// precision.
const maxExactPower = 1 << 12

// pow raises args[0] to args[1]. Integer exponents are computed by repeated
// squaring; others go through bigfloat and require a positive base.
func pow(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	x, y := args[0], args[1]
	if !y.IsZero() && magnitude(y) > maxExponentDigits {
		return decimal.Zero, &DomainError{X: y, Func: "^", Arg: 2, Msg: "exponent out of range"}
	}
	if y.IsInteger() {
		return powInt(a, x, y.IntPart())
	}
	switch x.Sign() {
	case -1:
		return decimal.Zero, &DomainError{X: x, Func: "^", Arg: 1}
	case 0:
		if y.Sign() < 0 {
			return decimal.Zero, &DomainError{X: x, Func: "^", Arg: 1}
		}
		return decimal.Zero, nil
	}
	if powOutOfRange(x, y) {
		return decimal.Zero, rangeError(x, "^")
	}
	n := a.Digits()
	// Pow may return a different Float than its first argument.
	z := bigfloat.Pow(new(big.Float).SetPrec(bits(n)), toFloat(x, n), toFloat(y, n))
	if z.IsInf() {
		return decimal.Zero, &DomainError{X: y, Func: "^", Arg: 2, Msg: "exponent out of range"}
	}
	return a.approx(fromFloat(z, n))
}

func powInt(a Arithmetic, x decimal.Decimal, n int64) (decimal.Decimal, error) {
	neg := n < 0
	if neg {
		if x.IsZero() {
			return decimal.Zero, &DomainError{X: x, Func: "^", Arg: 1}
		}
		n = -n
	}
	exact := a.Precision == 0 && n <= maxExactPower
	work := a.Digits() + guardDigits
	r := decimal.NewFromInt(1)
	for b := x; n > 0; n >>= 1 {
		var err error
		if n&1 != 0 {
			if r, err = mulChecked(r, b, "^"); err != nil {
				return decimal.Zero, err
			}
		}
		if n > 1 {
			// b*b is a factor of the result from here on.
			if b, err = mulChecked(b, b, "^"); err != nil {
				return decimal.Zero, err
			}
		}
		if !exact {
			// Bound the size of intermediate products. The guard digits keep
			// the error well below the final rounding.
			r, _ = roundSig(r, work, HalfEven)
			b, _ = roundSig(b, work, HalfEven)
		}
	}
	if neg {
		return a.Quo(decimal.NewFromInt(1), r)
	}
	if !exact {
		return a.approx(r)
	}
	return r, nil
}

// powOutOfRange reports whether x^y, for positive x, is certainly outside
// the range of values.
func powOutOfRange(x, y decimal.Decimal) bool {
	e := adjusted(x)
	lead := x.Shift(int32(-e)).InexactFloat64()
	l := (float64(e) + math.Log10(lead)) * y.InexactFloat64()
	return l > MaxExponent+1 || l < -MaxExponent-1
}

var maxFactorial = decimal.NewFromInt(20)

func factorial(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	x := args[0]
	if !x.IsInteger() || x.Sign() < 0 || cmp(x, maxFactorial) > 0 {
		return decimal.Zero, &DomainError{X: x, Func: "!", Msg: "factorial needs an integer in [0, 20]"}
	}
	r := int64(1)
	for k := int64(2); k <= x.IntPart(); k++ {
		r *= k
	}
	return decimal.NewFromInt(r), nil
}

func sqrt(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	x := args[0]
	switch x.Sign() {
	case -1:
		return decimal.Zero, &DomainError{X: x, Func: "√"}
	case 0:
		return decimal.Zero, nil
	}
	n := a.Digits()
	z := new(big.Float).SetPrec(bits(n))
	z.Sqrt(toFloat(x, n))
	return a.approx(fromFloat(z, n))
}

func log10(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	x := args[0]
	if x.Sign() <= 0 {
		return decimal.Zero, &DomainError{X: x, Func: "log"}
	}
	if strings.TrimRight(x.Coefficient().String(), "0") == "1" {
		// Exact power of ten.
		return decimal.NewFromInt(magnitude(x) - 1), nil
	}
	n := a.Digits()
	p := bits(n)
	lx := bigfloat.Log(new(big.Float).SetPrec(p), toFloat(x, n))
	ten := new(big.Float).SetPrec(p).SetInt64(10)
	l10 := bigfloat.Log(new(big.Float).SetPrec(p), ten)
	return a.approx(fromFloat(lx.Quo(lx, l10), n))
}

var (
	full     = decimal.NewFromInt(360)
	straight = decimal.NewFromInt(180)
	right    = decimal.NewFromInt(90)
	thirty   = decimal.NewFromInt(30)
	half     = decimal.New(5, -1)
)

// sinDeg computes the sine of an angle in degrees. Angles are reduced exactly
// to the first quadrant so that multiples of 30° and 90° are exact.
func sinDeg(a Arithmetic, deg decimal.Decimal) (decimal.Decimal, error) {
	r := deg.Mod(full)
	if r.Sign() < 0 {
		r = r.Add(full)
	}
	neg := false
	if r.GreaterThanOrEqual(straight) {
		r = r.Sub(straight)
		neg = true
	}
	if r.GreaterThan(right) {
		r = straight.Sub(r)
	}
	var s decimal.Decimal
	switch {
	case r.IsZero():
		return decimal.Zero, nil
	case r.Equal(right):
		s = decimal.NewFromInt(1)
	case r.Equal(thirty):
		s = half
	default:
		var err error
		s, err = sinSeries(a, r)
		if err != nil {
			return decimal.Zero, err
		}
	}
	if neg {
		s = s.Neg()
	}
	return a.approx(s)
}

// sinSeries sums the Taylor series of the sine of an angle in (0°, 90°).
func sinSeries(a Arithmetic, deg decimal.Decimal) (decimal.Decimal, error) {
	work := Arithmetic{Precision: uint(a.Digits() + guardDigits), Rounding: HalfEven}
	rad, err := work.Quo(deg.Mul(piDigits(int(work.Precision))), straight)
	if err != nil {
		return decimal.Zero, err
	}
	eps := decimal.New(1, -int32(work.Precision)-2)
	x2, _ := work.Round(rad.Mul(rad))
	sum, term := rad, rad
	for k := int64(1); term.Abs().GreaterThan(eps); k++ {
		t, err := work.Quo(term.Mul(x2), decimal.NewFromInt(2*k*(2*k+1)))
		if err != nil {
			return decimal.Zero, err
		}
		term = t.Neg()
		sum = sum.Add(term)
	}
	return sum, nil
}

func sin(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	return sinDeg(a, args[0])
}

func cos(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	return sinDeg(a, args[0].Add(right))
}

func tan(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	c, err := sinDeg(a, args[0].Add(right))
	if err != nil {
		return decimal.Zero, err
	}
	if c.IsZero() {
		return decimal.Zero, &DomainError{X: args[0], Func: "tan"}
	}
	s, err := sinDeg(a, args[0])
	if err != nil {
		return decimal.Zero, err
	}
	return a.Quo(s, c)
}

func min2(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	if cmp(args[1], args[0]) < 0 {
		return args[1], nil
	}
	return args[0], nil
}

func max2(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	if cmp(args[1], args[0]) > 0 {
		return args[1], nil
	}
	return args[0], nil
}

var two = decimal.NewFromInt(2)

func avg(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	return a.Quo(args[0].Add(args[1]), two)
}

var hundred = decimal.NewFromInt(100)

// pct gives the first argument of the call as a percentage of the second.
// Being right-associative, it receives them in reverse.
func pct(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	whole, part := args[0], args[1]
	if whole.IsZero() {
		return decimal.Zero, &DomainError{X: whole, Func: "pct", Arg: 2}
	}
	return a.Quo(part.Mul(hundred), whole)
}

func sum(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	r := decimal.Zero
	for _, x := range args {
		r = r.Add(x)
	}
	return r, nil
}

var (
	piMu    sync.Mutex
	piCache decimal.Decimal
	piPrec  int
)

// piDigits returns π to at least n significant digits.
func piDigits(n int) decimal.Decimal {
	piMu.Lock()
	defer piMu.Unlock()
	if piPrec < n {
		z := bigfloat.Pi(new(big.Float).SetPrec(bits(n)))
		piCache = fromFloat(z, n)
		piPrec = n
	}
	return piCache
}

// eDigits returns e to at least n significant digits.
func eDigits(n int) decimal.Decimal {
	p := bits(n)
	one := new(big.Float).SetPrec(p).SetInt64(1)
	z := bigfloat.Exp(new(big.Float).SetPrec(p), one)
	return fromFloat(z, n)
}
