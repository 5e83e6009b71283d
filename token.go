package rpncalc

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Multiplicity is the number of operands an operator or function consumes.
type Multiplicity int8

const (
	// Unary operators and functions take one operand.
	Unary Multiplicity = iota + 1
	// Binary operators and functions take two operands.
	Binary
	// Multi functions take any number of operands.
	Multi
)

func (m Multiplicity) String() string {
	switch m {
	case Unary:
		return "unary"
	case Binary:
		return "binary"
	case Multi:
		return "multi"
	default:
		return "Multiplicity(" + strconv.Itoa(int(m)) + ")"
	}
}

// Associativity says on which side of a unary operator its operand sits, or
// in which order a chain of binary operators with equal precedence combines.
//
// A Left unary operator is written before its operand, like √4. A Right unary
// operator is written after it, like 4!.
type Associativity int8

const (
	Left Associativity = iota + 1
	Right
)

func (a Associativity) String() string {
	switch a {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "Associativity(" + strconv.Itoa(int(a)) + ")"
	}
}

// Precedence is the binding strength of an operator. Greater precedences bind
// more tightly.
type Precedence int8

const (
	Lowest Precedence = iota + 1
	Low
	High
	Highest
)

func (p Precedence) String() string {
	switch p {
	case Lowest:
		return "lowest"
	case Low:
		return "low"
	case High:
		return "high"
	case Highest:
		return "highest"
	default:
		return "Precedence(" + strconv.Itoa(int(p)) + ")"
	}
}

// Operation computes the result of an operator or function. args has exactly
// as many elements as the token's multiplicity requires, except for Multi
// functions, which receive every argument of the call. For Binary tokens the
// order of args follows the evaluator's pop order; see Evaluate.
//
// An Operation should use a for division and for any intermediate rounding.
// It must not retain or modify args.
type Operation func(a Arithmetic, args []decimal.Decimal) (decimal.Decimal, error)

// Operator is an operator identified by a glyph, like + or √.
type Operator struct {
	Symbol        string
	Precedence    Precedence
	Associativity Associativity
	// Multiplicity is Unary or Binary.
	Multiplicity Multiplicity
	Operation    Operation
}

// prefix reports whether the operator is written before its operand.
func (o *Operator) prefix() bool {
	return o.Associativity == Left
}

// popsBefore reports whether o, already on the operator stack, must be moved
// to the output before pushing next. This is the usual shunting-yard rule:
// higher precedences always pop, equal precedences pop only when next is
// left-associative.
func (o *Operator) popsBefore(next *Operator) bool {
	if o.Precedence != next.Precedence {
		return o.Precedence > next.Precedence
	}
	return next.Associativity == Left
}

// Function is a function identified by a name, like sin. In infix
// expressions, its arguments follow it in brackets, separated by commas.
type Function struct {
	Symbol        string
	Associativity Associativity
	Multiplicity  Multiplicity
	Operation     Operation
}

// arity returns the number of operands the token takes, or -1 for Multi.
func arity(m Multiplicity) int {
	switch m {
	case Unary:
		return 1
	case Binary:
		return 2
	default:
		return -1
	}
}
