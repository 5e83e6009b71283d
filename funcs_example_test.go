package rpncalc_test

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tnsilver/rpncalc"
)

func count(a rpncalc.Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
	return decimal.NewFromInt(int64(len(args))), nil
}

func ExampleContext_RegisterFunction() {
	ctx := rpncalc.NewContext()
	if err := ctx.RegisterFunction("nargin", rpncalc.Multi, count); err != nil {
		panic(err)
	}

	for _, src := range []string{"nargin()", "nargin(100)", "nargin{3, 2, 1}"} {
		postfix, _ := rpncalc.Convert(src, ctx)
		r, _ := rpncalc.Evaluate(postfix, ctx)
		fmt.Println(r, postfix)
	}

	// Output:
	// 0 nargin#0
	// 1 100 nargin#1
	// 3 3 2 1 nargin#3
}

func ExampleContext_RegisterOperator() {
	ctx := rpncalc.NewContext(rpncalc.Decimal32)
	// Per mille as a postfix operator.
	permille := func(a rpncalc.Arithmetic, args []decimal.Decimal) (decimal.Decimal, error) {
		return a.Quo(args[0], decimal.NewFromInt(1000))
	}
	if err := ctx.RegisterOperator("‰", rpncalc.High, rpncalc.Right, rpncalc.Unary, permille); err != nil {
		panic(err)
	}
	r, err := rpncalc.EvalString("200 × 15‰", ctx)
	if err != nil {
		panic(err)
	}
	fmt.Println(r)

	// Output:
	// 3
}

func ExampleContext_AddVariable() {
	ctx := rpncalc.NewContext()
	for i := int64(1); i <= 3; i++ {
		ctx.AddVariable("x", decimal.NewFromInt(i))
		r, _ := rpncalc.EvalString("x^2 + 1", ctx)
		fmt.Println(r)
	}

	// Output:
	// 2
	// 5
	// 10
}
