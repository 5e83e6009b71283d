package rpncalc

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how a value is rounded to a number of significant
// digits.
type RoundingMode int8

const (
	// Up rounds away from zero.
	Up RoundingMode = iota + 1
	// Down rounds toward zero.
	Down
	// Ceiling rounds toward positive infinity.
	Ceiling
	// Floor rounds toward negative infinity.
	Floor
	// HalfUp rounds to the nearest neighbor, ties away from zero.
	HalfUp
	// HalfDown rounds to the nearest neighbor, ties toward zero.
	HalfDown
	// HalfEven rounds to the nearest neighbor, ties to the even neighbor.
	HalfEven
	// Unnecessary asserts that no rounding is needed. Rounding a value that
	// would lose digits is a domain error.
	Unnecessary
)

var roundingNames = [...]string{
	Up:          "up",
	Down:        "down",
	Ceiling:     "ceiling",
	Floor:       "floor",
	HalfUp:      "half-up",
	HalfDown:    "half-down",
	HalfEven:    "half-even",
	Unnecessary: "unnecessary",
}

func (m RoundingMode) String() string {
	if m.valid() {
		return roundingNames[m]
	}
	return "RoundingMode(" + strconv.Itoa(int(m)) + ")"
}

func (m RoundingMode) valid() bool {
	return m >= Up && m <= Unnecessary
}

// ParseRoundingMode parses the name of a rounding mode. Case, hyphens, and
// underscores are ignored, so "half-even", "HALF_EVEN", and "HalfEven" are
// all HalfEven.
func ParseRoundingMode(s string) (RoundingMode, error) {
	k := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for m := Up; m <= Unnecessary; m++ {
		if strings.ReplaceAll(roundingNames[m], "-", "") == k {
			return m, nil
		}
	}
	return 0, &ArgumentError{Func: "ParseRoundingMode", Msg: "unknown rounding mode " + strconv.Quote(s)}
}

// UnlimitedDigits is the number of significant digits kept by divisions and
// transcendental functions when the precision is zero (unlimited). Sums,
// differences, and products are exact at unlimited precision.
const UnlimitedDigits = 34

// guardDigits is the number of extra digits carried by approximations before
// the final rounding.
const guardDigits = 10

// Arithmetic is a precision and rounding mode pair. Precision is the number of
// significant digits; zero means unlimited.
type Arithmetic struct {
	Precision uint
	Rounding  RoundingMode
}

// Presets matching the IEEE 754 decimal interchange formats.
var (
	Decimal32  = Arithmetic{Precision: 7, Rounding: HalfEven}
	Decimal64  = Arithmetic{Precision: 16, Rounding: HalfEven}
	Decimal128 = Arithmetic{Precision: 34, Rounding: HalfEven}
	Unlimited  = Arithmetic{Precision: 0, Rounding: HalfUp}
)

func (a Arithmetic) ctxOption() {}

// Digits returns the number of significant digits that inexact results are
// rounded to.
func (a Arithmetic) Digits() int {
	if a.Precision == 0 {
		return UnlimitedDigits
	}
	return int(a.Precision)
}

// Round rounds x to the arithmetic's precision. At unlimited precision, x is
// returned unchanged.
func (a Arithmetic) Round(x decimal.Decimal) (decimal.Decimal, error) {
	if a.Precision == 0 {
		return x, nil
	}
	return roundSig(x, int(a.Precision), a.Rounding)
}

// Quo returns x/y correctly rounded to the arithmetic's precision. At
// unlimited precision, exact quotients are exact and others are rounded to
// UnlimitedDigits.
func (a Arithmetic) Quo(x, y decimal.Decimal) (decimal.Decimal, error) {
	if y.IsZero() {
		return decimal.Zero, &DomainError{X: y, Func: "/", Arg: 2}
	}
	if x.IsZero() {
		return decimal.Zero, nil
	}
	digits := a.Digits()
	// Divide the coefficients and move the decimal point afterward, so the
	// work depends on the digits of x and y but not on their exponents.
	shift := int64(x.Exponent()) - int64(y.Exponent())
	if shift > math.MaxInt32 || shift < math.MinInt32 {
		return decimal.Zero, rangeError(x, "/")
	}
	cx, cy := decimal.NewFromBigInt(x.Coefficient(), 0), decimal.NewFromBigInt(y.Coefficient(), 0)
	// The quotient has magnitude mag(x)-mag(y) or one more, so this scale
	// leaves at least digits+1 significant digits in the truncated quotient.
	places := int64(digits) - magnitude(cx) + magnitude(cy) + 2
	if places < 0 {
		places = 0
	}
	q, r := cx.QuoRem(cy, int32(places))
	if r.IsZero() {
		q = q.Shift(int32(shift))
		if a.Precision == 0 {
			return q, nil
		}
		return a.Round(q)
	}
	// Inexact. A sticky digit past the truncated quotient makes the final
	// rounding see the right side of every tie.
	sticky := decimal.New(int64(x.Sign()*y.Sign()), -int32(places)-1)
	return roundSig(q.Add(sticky).Shift(int32(shift)), digits, a.Rounding)
}

// approx rounds an approximation of an irrational result. It differs from
// Round only at unlimited precision.
func (a Arithmetic) approx(x decimal.Decimal) (decimal.Decimal, error) {
	return roundSig(x, a.Digits(), a.Rounding)
}

// roundSig rounds x to n significant digits.
func roundSig(x decimal.Decimal, n int, mode RoundingMode) (decimal.Decimal, error) {
	if x.IsZero() {
		return x, nil
	}
	places := int64(n) - magnitude(x)
	if places >= -int64(x.Exponent()) {
		// Already short enough.
		return x, nil
	}
	p := int32(places)
	switch mode {
	case Up:
		return x.RoundUp(p), nil
	case Down:
		return x.RoundDown(p), nil
	case Ceiling:
		return x.RoundCeil(p), nil
	case Floor:
		return x.RoundFloor(p), nil
	case HalfUp:
		return x.Round(p), nil
	case HalfDown:
		t := x.RoundDown(p)
		half := decimal.New(5, -p-1)
		if x.Sub(t).Abs().GreaterThan(half) {
			return x.RoundUp(p), nil
		}
		return t, nil
	case HalfEven:
		return x.RoundBank(p), nil
	case Unnecessary:
		t := x.RoundDown(p)
		if !t.Equal(x) {
			return decimal.Zero, &DomainError{X: x, Func: "round", Msg: "rounding necessary at " + strconv.Itoa(n) + " digits"}
		}
		return t, nil
	default:
		return decimal.Zero, &ArgumentError{Func: "Round", Msg: "invalid rounding mode " + mode.String()}
	}
}

// magnitude returns the position of the most significant digit of a nonzero x
// counted from the decimal point, so that 10^(m-1) <= |x| < 10^m.
func magnitude(x decimal.Decimal) int64 {
	return int64(coefDigits(x)) + int64(x.Exponent())
}

// coefDigits counts the digits of the coefficient of x.
func coefDigits(x decimal.Decimal) int {
	c := x.Coefficient()
	c.Abs(c)
	if c.IsInt64() {
		return len(strconv.FormatInt(c.Int64(), 10))
	}
	// 0.30103 slightly exceeds log10(2), so the estimate from the bit length
	// is at most two too many.
	n := int(int64(c.BitLen())*30103/100000) + 1
	p := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	for c.Cmp(p) < 0 {
		n--
		p.Quo(p, big.NewInt(10))
	}
	return n
}

// MaxExponent bounds the adjusted exponent of every value: a nonzero result
// must satisfy 10^-MaxExponent <= |x| < 10^(MaxExponent+1). Results outside
// that range are domain errors.
const MaxExponent = 999999

// adjusted returns the exponent of x written with one digit before the
// decimal point.
func adjusted(x decimal.Decimal) int64 {
	return magnitude(x) - 1
}

// checkRange returns a domain error if x is outside the range of values.
func checkRange(x decimal.Decimal, fn string) error {
	if x.IsZero() {
		return nil
	}
	if e := adjusted(x); e > MaxExponent || e < -MaxExponent {
		return rangeError(x, fn)
	}
	return nil
}

func rangeError(x decimal.Decimal, fn string) error {
	return &DomainError{X: x, Func: fn, Msg: "exponent out of range"}
}

// mulChecked returns x*y, or a domain error if the product is outside the
// range of values. The product is never formed in that case.
func mulChecked(x, y decimal.Decimal, fn string) (decimal.Decimal, error) {
	if x.IsZero() || y.IsZero() {
		return decimal.Zero, nil
	}
	// The adjusted exponent of the product is e or e+1.
	e := adjusted(x) + adjusted(y)
	if e > MaxExponent || e+1 < -MaxExponent {
		if math.Abs(float64(adjusted(x))) < math.Abs(float64(adjusted(y))) {
			x = y
		}
		return decimal.Zero, rangeError(x, fn)
	}
	p := x.Mul(y)
	return p, checkRange(p, fn)
}

// addRounded returns x+y rounded to the arithmetic's precision. A term too
// small to reach the rounding digit of the other is replaced by a unit below
// both, which rounds the same way without rescaling to its exponent.
func addRounded(a Arithmetic, x, y decimal.Decimal) (decimal.Decimal, error) {
	if a.Precision != 0 && !x.IsZero() && !y.IsZero() {
		if magnitude(x) < magnitude(y) {
			x, y = y, x
		}
		lim := magnitude(x) - int64(a.Precision) - 2
		if e := int64(x.Exponent()); e < lim {
			lim = e
		}
		if magnitude(y) < lim {
			y = decimal.New(int64(y.Sign()), int32(lim-1))
		}
	}
	return a.Round(x.Add(y))
}

// cmp compares x and y like x.Cmp(y), without rescaling values whose
// magnitudes differ.
func cmp(x, y decimal.Decimal) int {
	sx, sy := x.Sign(), y.Sign()
	switch {
	case sx > sy:
		return 1
	case sx < sy:
		return -1
	case sx == 0:
		return 0
	}
	mx, my := magnitude(x), magnitude(y)
	switch {
	case mx > my:
		return sx
	case mx < my:
		return -sx
	}
	return x.Cmp(y)
}

// bits returns a binary precision covering n decimal digits plus guard digits.
func bits(n int) uint {
	// log2(10) < 3.33
	return uint((n+guardDigits)*333/100 + 64)
}

// toFloat converts x to a big.Float with enough precision for n digits.
func toFloat(x decimal.Decimal, n int) *big.Float {
	s := x.Coefficient().String() + "e" + strconv.Itoa(int(x.Exponent()))
	f, _, err := big.ParseFloat(s, 10, bits(n), big.ToNearestEven)
	if err != nil {
		panic("rpncalc: converting " + s + ": " + err.Error())
	}
	return f
}

// fromFloat converts f to a decimal with n digits plus guard digits.
func fromFloat(f *big.Float, n int) decimal.Decimal {
	d, err := decimal.NewFromString(f.Text('e', n+guardDigits))
	if err != nil {
		panic("rpncalc: converting " + f.String() + ": " + err.Error())
	}
	return d
}
