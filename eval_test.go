package rpncalc_test

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tnsilver/rpncalc"
)

func TestEval(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"number", "1", "1"},
		{"precedence", "3 + 4 × 2", "11"},
		{"brackets", "(3 + 4) × 2", "14"},
		{"subtract", "5 - 3", "2"},
		{"subtractNegative", "3 - -2", "5"},
		{"unicodeMinus", "3 − −2", "5"},
		{"leftAssoc", "8 - 3 - 2", "3"},
		{"divide", "10 / 4", "2.5"},
		{"divideSign", "10 ÷ 4", "2.5"},
		{"third", "1/3", "0.3333333333333333333333333333333333"},
		{"twoThirds", "2/3", "0.6666666666666666666666666666666667"},
		{"remainder", "7 % 3", "1"},
		{"remainderNegative", "-7 % 3", "-1"},
		{"power", "2^3", "8"},
		{"powerRight", "2^2^3", "256"},
		{"powerNegative", "2^-1", "0.5"},
		{"powerZero", "0^0", "1"},
		{"powerNegativeBase", "-2^2", "4"},
		{"factorial", "5!", "120"},
		{"factorialTwice", "3!!", "720"},
		{"factorialZero", "0!", "1"},
		{"sqrt", "√16", "4"},
		{"sqrtTwo", "√2", "1.414213562373095048801688724209698"},
		{"sin30", "sin(30)", "0.5"},
		{"sin270", "sin(270)", "-1"},
		{"cos60", "cos(60)", "0.5"},
		{"cos90", "cos(90)", "0"},
		{"tan45", "tan(45)", "1"},
		{"log", "log(1000)", "3"},
		{"logFraction", "log(0.01)", "-2"},
		{"min", "min(2, 3)", "2"},
		{"max", "max(2, 3)", "3"},
		{"avg", "avg(2, 3)", "2.5"},
		{"pct", "pct(25, 200)", "12.5"},
		{"sum", "sum(1, 2, 3)", "6"},
		{"sumEmpty", "sum()", "0"},
		{"sumInExpr", "5 + sum(1, 2)", "8"},
		{"sumNested", "sum(sum(1, 2), 3, 4)", "10"},
		{"families", "1 + [2! - (8 - 3) * (8 % 3)] + 1", "-6"},
		{"curly", "{[2! - (8-3)] × 2}", "-6"},
		{"pi", "π", "3.141592653589793238462643383279503"},
		{"piAlias", "PI - π", "0"},
		{"e", "e", "2.718281828459045235360287471352662"},
		{"negatedConstant", "-1×π", "-3.141592653589793238462643383279503"},
		{"negatedGroup", "0-(2)", "-2"},
		{"hugePower", "10^999999", "1e999999"},
		{"tinyPower", "10^-999999", "1e-999999"},
		{"hugeRoot", "√(10^999998)", "1e499999"},
		{"hugeFractionalPower", "100^499999.5", "1e999999"},
		{"hugeQuotient", "1/10^999999", "1e-999999"},
		{"hugeSum", "10^999999 + 10^-999999", "1e999999"},
		{"hugeDifference", "10^999999 - 10^-999999", "1e999999"},
		{"hugeMin", "min(10^999999, 10^-999999)", "1e-999999"},
		{"hugeMax", "max(-10^999999, -10^-999999)", "-1e-999999"},
		{"hugeRemainder", "10^999999 % 7", "6"},
		{"smallRemainder", "10^-999999 % 10^999999", "1e-999999"},
	}
	ctx := rpncalc.NewContext()
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			r, err := rpncalc.EvalString(c.src, ctx)
			if err != nil {
				t.Fatalf("error evaluating %q: %v", c.src, err)
			}
			want := decimal.RequireFromString(c.want)
			if !r.Equal(want) {
				t.Errorf("wrong result for %q: want %v, got %v", c.src, want, r)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name    string
		postfix string
		want    string
	}{
		{"precedence", "3 4 2 × +", "11"},
		{"subtract", "5 3 -", "2"},
		{"power", "2 3 ^", "8"},
		{"powerRight", "2 2 3 ^ ^", "256"},
		{"pct", "25 200 pct", "12.5"},
		{"counted", "1 2 3 sum#3", "6"},
		{"countedPartial", "1 2 3 sum#2 +", "6"},
		{"countedZero", "sum#0", "0"},
		{"wholeStack", "1 2 3 sum", "6"},
		{"wholeStackEmpty", "sum", "0"},
		{"negative", "−2 1 +", "-1"},
		{"fraction", ".5 .25 +", "0.75"},
		{"variable", "π 2 ×", "6.283185307179586476925286766559006"},
	}
	ctx := rpncalc.NewContext()
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			r, err := rpncalc.Evaluate(c.postfix, ctx)
			if err != nil {
				t.Fatalf("error evaluating %q: %v", c.postfix, err)
			}
			want := decimal.RequireFromString(c.want)
			if !r.Equal(want) {
				t.Errorf("wrong result for %q: want %v, got %v", c.postfix, want, r)
			}
		})
	}
}

// TestRoundTrip checks that evaluating an infix expression is the same as
// evaluating its conversion.
func TestRoundTrip(t *testing.T) {
	exprs := []string{
		"3+4×2",
		"2^2^3",
		"pct(25,200)+avg(1,2)",
		"1+[2!-(8-3)*(8%3)]+1",
		"max(sin(30), cos(30))",
		"sum(1, 2, sum(3, 4))",
	}
	ctx := rpncalc.NewContext()
	for _, src := range exprs {
		postfix, err := rpncalc.Convert(src, ctx)
		if err != nil {
			t.Errorf("error converting %q: %v", src, err)
			continue
		}
		a, err := rpncalc.EvalString(src, ctx)
		if err != nil {
			t.Errorf("error evaluating %q: %v", src, err)
			continue
		}
		b, err := rpncalc.Evaluate(postfix, ctx)
		if err != nil {
			t.Errorf("error evaluating %q: %v", postfix, err)
			continue
		}
		if !a.Equal(b) {
			t.Errorf("%q gives %v, but %q gives %v", src, a, postfix, b)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	cases := []struct {
		name    string
		postfix string
		kind    error
		typ     error
		re      string
	}{
		{"blank", "", rpncalc.ErrInvalidArgument, &rpncalc.ArgumentError{}, `^Evaluate: blank expression$`},
		{"underflow", "1 +", rpncalc.ErrMalformedExpression, &rpncalc.StackError{}, `^2: \+ needs 2 operands but has 1$`},
		{"underflowUnary", "√", rpncalc.ErrMalformedExpression, &rpncalc.StackError{}, `^1: √ needs 1 operands but has 0$`},
		{"underflowCounted", "1 sum#2", rpncalc.ErrMalformedExpression, &rpncalc.StackError{}, `^2: sum#2 needs 2 operands but has 1$`},
		{"leftover", "1 2", rpncalc.ErrMalformedExpression, &rpncalc.StackError{}, `^3: expression leaves 2 values$`},
		{"leftoverCounted", "1 2 3 sum#2", rpncalc.ErrMalformedExpression, &rpncalc.StackError{}, `^5: expression leaves 2 values$`},
		{"doubleSpace", "1  2 +", rpncalc.ErrUnhandledToken, &rpncalc.TokenError{}, `^2: unhandled token ""$`},
		{"unknown", "1 foo +", rpncalc.ErrUnhandledToken, &rpncalc.TokenError{}, `^2: unhandled token "foo"$`},
		{"badCount", "1 sum#x", rpncalc.ErrUnhandledToken, &rpncalc.TokenError{}, `^2: unhandled token "sum#x"$`},
		{"countedBinary", "1 2 max#2", rpncalc.ErrUnhandledToken, &rpncalc.TokenError{}, `^3: unhandled token "max#2"$`},
		{"divideByZero", "1 0 /", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^0 outside domain of / \(argument 2\)$`},
		{"remainderZero", "1 0 %", rpncalc.ErrDomain, &rpncalc.DomainError{}, `outside domain of %`},
		{"factorialBig", "21 !", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^21: factorial needs an integer in \[0, 20\] of !$`},
		{"factorialFraction", "2.5 !", rpncalc.ErrDomain, &rpncalc.DomainError{}, `factorial needs an integer`},
		{"factorialNegative", "-1 !", rpncalc.ErrDomain, &rpncalc.DomainError{}, `factorial needs an integer`},
		{"sqrtNegative", "-4 √", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^-4 outside domain of √$`},
		{"logZero", "0 log", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^0 outside domain of log$`},
		{"logNegative", "-1 log", rpncalc.ErrDomain, &rpncalc.DomainError{}, `outside domain of log`},
		{"tan90", "90 tan", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^90 outside domain of tan$`},
		{"rootNegative", "-8 0.5 ^", rpncalc.ErrDomain, &rpncalc.DomainError{}, `outside domain of \^`},
		{"zeroInverse", "0 -1 ^", rpncalc.ErrDomain, &rpncalc.DomainError{}, `outside domain of \^`},
		{"pctZero", "1 0 pct", rpncalc.ErrDomain, &rpncalc.DomainError{}, `outside domain of pct`},
		{"powerOverflow", "10 999999999 ^", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^1e\+\d+: exponent out of range of \^$`},
		{"powerUnderflow", "10 -999999999 ^", rpncalc.ErrDomain, &rpncalc.DomainError{}, `exponent out of range of \^$`},
		{"powerCubed", "10 999999999 ^ 3 ^", rpncalc.ErrDomain, &rpncalc.DomainError{}, `exponent out of range of \^$`},
		{"fractionalPowerOverflow", "10 1000001.5 ^", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^10: exponent out of range of \^$`},
		{"productOverflow", "10 999999 ^ 10 999999 ^ *", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^1e\+999999: exponent out of range of \*$`},
		{"productUnderflow", "10 -999999 ^ 10 -999999 ^ *", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^1e-999999: exponent out of range of \*$`},
		{"sumOverflow", "9 10 999999 ^ * 9 10 999999 ^ * +", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^1\.8e\+1000000: exponent out of range of \+$`},
		{"quotientOverflow", "10 999999 ^ 10 -999999 ^ /", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^1e\+1999998: exponent out of range of /$`},
		{"literalUnderflow", "0." + strings.Repeat("0", rpncalc.MaxExponent) + "1", rpncalc.ErrDomain, &rpncalc.DomainError{}, `^1e-1000000: exponent out of range$`},
	}
	ctx := rpncalc.NewContext()
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			r, err := rpncalc.Evaluate(c.postfix, ctx)
			if err == nil {
				t.Fatalf("no error evaluating %q; got %v", c.postfix, r)
			}
			if !errors.Is(err, c.kind) {
				t.Errorf("wrong error kind for %q: want %v, got %v", c.postfix, c.kind, err)
			}
			if reflect.TypeOf(err) != reflect.TypeOf(c.typ) {
				t.Errorf("wrong error type for %q: want %T, got %T", c.postfix, c.typ, err)
			}
			if !regexp.MustCompile(c.re).MatchString(err.Error()) {
				t.Errorf("wrong error message for %q: %q doesn't match %s", c.postfix, err.Error(), c.re)
			}
		})
	}
}

func TestEvalStringErrors(t *testing.T) {
	cases := []struct {
		src  string
		kind error
	}{
		{"1 +", rpncalc.ErrMalformedExpression},
		{"2π", rpncalc.ErrMalformedExpression},
		{"min(1, 2, 3)", rpncalc.ErrMalformedExpression},
		{"(1", rpncalc.ErrUnmatchedBracket},
		{"1 / (2 - 2)", rpncalc.ErrDomain},
		{"x + 1", rpncalc.ErrUnrecognizedToken},
		{"", rpncalc.ErrInvalidArgument},
		{"-π", rpncalc.ErrMalformedExpression},
		{"-(2)", rpncalc.ErrMalformedExpression},
		{"-sin(30)", rpncalc.ErrMalformedExpression},
		{"(10^999999999)^3", rpncalc.ErrDomain},
		{"10^999999999*10^999999999*10^999999999", rpncalc.ErrDomain},
		{"10^999999 × 10^999999", rpncalc.ErrDomain},
		{"0.1^999999999", rpncalc.ErrDomain},
		{"1.5^99999999", rpncalc.ErrDomain},
	}
	for _, arith := range []rpncalc.Arithmetic{rpncalc.Decimal32, rpncalc.Decimal128, rpncalc.Unlimited} {
		ctx := rpncalc.NewContext(arith)
		for _, c := range cases {
			r, err := rpncalc.EvalString(c.src, ctx)
			if !errors.Is(err, c.kind) {
				t.Errorf("wrong error for %q at %+v: want %v, got %v (result %v)", c.src, arith, c.kind, err, r)
			}
		}
	}
}

// TestEvaluateDeepStack evaluates postfix expressions that keep many values
// on the stack at once.
func TestEvaluateDeepStack(t *testing.T) {
	const n = 10000
	ones := strings.TrimSuffix(strings.Repeat("1 ", n), " ")
	cases := []struct {
		name    string
		postfix string
		want    int64
	}{
		{"wholeStack", ones + " sum", n},
		{"counted", ones + " sum#" + fmt.Sprint(n), n},
		{"pairwise", ones + strings.Repeat(" +", n-1), n},
		{"interleaved", ones + strings.Repeat(" 1 + +", n-1), 2*n - 1},
	}
	ctx := rpncalc.NewContext()
	for _, c := range cases {
		r, err := rpncalc.Evaluate(c.postfix, ctx)
		if err != nil {
			t.Errorf("error evaluating %s: %v", c.name, err)
			continue
		}
		if !r.Equal(decimal.NewFromInt(c.want)) {
			t.Errorf("wrong result for %s: want %d, got %v", c.name, c.want, r)
		}
	}
}

func TestPrecision(t *testing.T) {
	cases := []struct {
		name  string
		arith rpncalc.Arithmetic
		src   string
		want  string
	}{
		{"tau32", rpncalc.Decimal32, "π*2", "6.283185"},
		{"tau64", rpncalc.Decimal64, "π*2", "6.283185307179586"},
		{"pi32", rpncalc.Decimal32, "π", "3.141593"},
		{"third32", rpncalc.Decimal32, "1/3", "0.3333333"},
		{"third64", rpncalc.Decimal64, "1/3", "0.3333333333333333"},
		{"sin45", rpncalc.Decimal32, "sin(45)", "0.7071068"},
		{"cos30", rpncalc.Decimal32, "cos(30)", "0.8660254"},
		{"log2", rpncalc.Decimal32, "log(2)", "0.30103"},
		{"sqrtPow", rpncalc.Decimal32, "2^0.5", "1.414214"},
		{"sum32", rpncalc.Decimal32, "1234567 + 0.5", "1234568"},
		{"down", rpncalc.Arithmetic{Precision: 3, Rounding: rpncalc.Down}, "2/3", "0.666"},
		{"floor", rpncalc.Arithmetic{Precision: 3, Rounding: rpncalc.Floor}, "-2/3", "-0.667"},
		{"unlimitedExact", rpncalc.Unlimited, "123456789012345678901234567890 * 10 + 1", "1234567890123456789012345678901"},
		{"unlimitedQuo", rpncalc.Unlimited, "1/8", "0.125"},
		{"unlimitedThird", rpncalc.Unlimited, "2/3", "0.6666666666666666666666666666666667"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			ctx := rpncalc.NewContext(c.arith)
			r, err := rpncalc.EvalString(c.src, ctx)
			if err != nil {
				t.Fatalf("error evaluating %q: %v", c.src, err)
			}
			want := decimal.RequireFromString(c.want)
			if !r.Equal(want) {
				t.Errorf("wrong result for %q at %v: want %v, got %v", c.src, c.arith, want, r)
			}
		})
	}
}

func TestUnnecessaryRounding(t *testing.T) {
	ctx := rpncalc.NewContext(rpncalc.Arithmetic{Precision: 7, Rounding: rpncalc.Unnecessary})
	r, err := rpncalc.EvalString("1/4", ctx)
	if err != nil {
		t.Fatalf("error evaluating exact quotient: %v", err)
	}
	if !r.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("wrong exact quotient: %v", r)
	}
	if _, err := rpncalc.EvalString("1/3", ctx); !errors.Is(err, rpncalc.ErrDomain) {
		t.Errorf("wrong error for inexact quotient: %v", err)
	}
}

func BenchmarkEvaluate(b *testing.B) {
	ctx := rpncalc.NewContext()
	postfix, err := rpncalc.Convert("1 + [2! - (8 - 3) * (8 % 3)] + 1 + sum(1, 2, 3) / 7", ctx)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rpncalc.Evaluate(postfix, ctx)
	}
}

func Example() {
	ctx := rpncalc.NewContext(rpncalc.Decimal32)
	for _, src := range []string{"3 + 4 × 2", "{[2! - (8-3)] × 2}", "π × 2"} {
		postfix, err := rpncalc.Convert(src, ctx)
		if err != nil {
			panic(err)
		}
		r, err := rpncalc.Evaluate(postfix, ctx)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s = %s = %s\n", src, postfix, r)
	}
	// Output:
	// 3 + 4 × 2 = 3 4 2 × + = 11
	// {[2! - (8-3)] × 2} = 2 ! 8 3 - - 2 × = -6
	// π × 2 = π 2 × = 6.283185
}
