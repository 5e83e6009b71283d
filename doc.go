// Package rpncalc implements an extensible arbitrary-precision decimal
// calculator that works through reverse Polish notation.
//
// An infix expression like "3+4×2" or "{[2! - (8-3)] × 2}" is first split
// into tokens by Normalize, then rearranged into postfix order by Convert
// using the shunting-yard algorithm, and finally computed by Evaluate. Spaces
// are optional in infix expressions. The three bracket families (), [], and
// {} are interchangeable, but each pair must match.
//
// Postfix expressions may also be evaluated directly. Their tokens must be
// separated by single spaces: "3 4 2 × +".
//
// A Context supplies the vocabulary of expressions and their arithmetic. The
// default vocabulary has
//
//	^          exponentiation, right-associative
//	!          factorial of an integer in [0, 20], written after its operand
//	√          square root, written before its operand
//	* × / ÷ %  multiplication, division, remainder
//	+ - −      addition, subtraction
//	sin cos tan (degrees), min max avg pct, sum (any arguments), log (base 10)
//	π PI e
//
// More operators, functions, constants, and variables can be registered.
// Results are rounded to the context's number of significant digits with its
// rounding mode after every operation. Every value must also stay within
// 10^±MaxExponent; anything larger or smaller is a domain error.
package rpncalc
