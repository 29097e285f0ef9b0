// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interp

import "math"

// DivEpsilon substitutes a zero denominator. Division never traps and
// never produces an infinity: every backend reproduces this rule.
const DivEpsilon = 1e-9

// Div divides with the zero-denominator guard.
func Div(a, b float64) float64 {
	if b == 0 {
		b = DivEpsilon
	}
	return a / b
}

// Mod is the always-non-negative modulo: ((a % b) + b) % b, with the
// denominator guarded like Div.
func Mod(a, b float64) float64 {
	if b == 0 {
		b = DivEpsilon
	}
	return math.Mod(math.Mod(a, b)+b, b)
}

// BinaryFunc resolves a binary operator to its implementation with the
// numeric-safety rules shared by every backend. Comparisons and logical
// operators return 1 or 0. The closure-compiling backends resolve the
// operator once at compile time through this table.
func BinaryFunc(op string) (func(a, b float64) float64, bool) {
	switch op {
	case "+":
		return func(a, b float64) float64 { return a + b }, true
	case "-":
		return func(a, b float64) float64 { return a - b }, true
	case "*":
		return func(a, b float64) float64 { return a * b }, true
	case "/":
		return Div, true
	case "%":
		return Mod, true
	case "^":
		return math.Pow, true
	case "==":
		return func(a, b float64) float64 { return boolValue(a == b) }, true
	case "!=":
		return func(a, b float64) float64 { return boolValue(a != b) }, true
	case "<":
		return func(a, b float64) float64 { return boolValue(a < b) }, true
	case ">":
		return func(a, b float64) float64 { return boolValue(a > b) }, true
	case "<=":
		return func(a, b float64) float64 { return boolValue(a <= b) }, true
	case ">=":
		return func(a, b float64) float64 { return boolValue(a >= b) }, true
	case "AND":
		return func(a, b float64) float64 { return boolValue(Truthy(a) && Truthy(b)) }, true
	case "OR":
		return func(a, b float64) float64 { return boolValue(Truthy(a) || Truthy(b)) }, true
	}
	return nil, false
}

// UnaryFunc resolves a unary operator to its implementation.
func UnaryFunc(op string) (func(a float64) float64, bool) {
	switch op {
	case "-":
		return func(a float64) float64 { return -a }, true
	case "+":
		return func(a float64) float64 { return a }, true
	case "NOT":
		return func(a float64) float64 { return boolValue(!Truthy(a)) }, true
	}
	return nil, false
}

// BinaryOp applies a binary operator.
func BinaryOp(op string, a, b float64) (float64, error) {
	f, ok := BinaryFunc(op)
	if !ok {
		return 0, errorf("unknown binary operator: %s", op)
	}
	return f(a, b), nil
}

// UnaryOp applies a unary operator.
func UnaryOp(op string, a float64) (float64, error) {
	f, ok := UnaryFunc(op)
	if !ok {
		return 0, errorf("unknown unary operator: %s", op)
	}
	return f(a), nil
}
