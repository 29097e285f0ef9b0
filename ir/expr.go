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

package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Operators. The language has no boolean type: comparison and logical
// operators produce 1 or 0 and treat any non-zero value as true.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"
	OpPow = "^"

	OpEq  = "=="
	OpNeq = "!="
	OpLt  = "<"
	OpGt  = ">"
	OpLte = "<="
	OpGte = ">="

	OpAnd = "AND"
	OpOr  = "OR"
	OpNot = "NOT"
	OpNeg = "-"
)

type (
	// Num is a numeric literal.
	Num struct {
		V float64
	}

	// Str is a string literal. Strings only appear as arguments to media
	// builtins (file paths, device names); they have no arithmetic.
	Str struct {
		V string
	}

	// Tuple is an ordered group of expressions. An instance binding whose
	// expression is a tuple distributes the items positionally across the
	// declared output names.
	Tuple struct {
		Items []Expr
	}

	// Unary is a unary operator applied to an expression.
	Unary struct {
		Op string
		X  Expr
	}

	// Binary is a binary operator applied to two expressions.
	Binary struct {
		Op   string
		X, Y Expr
	}

	// Cond is a conditional expression. The condition is truthy when
	// non-zero.
	Cond struct {
		If   Expr
		Then Expr
		Else Expr
	}

	// Me accesses a field of the current point context: x, y, time,
	// abstime, frame, absframe, beat, measure.
	Me struct {
		Field string
	}

	// Pointer accesses a field of the pointer device: x, y, down.
	Pointer struct {
		Field string
	}

	// StrandAccess reads one named output of another instance, evaluated
	// at the caller's own point context.
	StrandAccess struct {
		Instance string
		Output   string
	}

	// AxisMapping substitutes one spatial axis in a strand remap.
	AxisMapping struct {
		Axis string
		X    Expr
	}

	// StrandRemap reads another instance's output as if evaluated at
	// substituted spatial coordinates. Mapping expressions are evaluated
	// at the caller's point context; substituted coordinates are clamped
	// to [0,1]. Time and frame fields pass through unchanged.
	StrandRemap struct {
		Instance string
		Output   string
		Mappings []AxisMapping
	}

	// Call invokes a builtin function. Spindle calls are only valid as the
	// whole expression of an instance binding, never nested inside a pure
	// expression.
	Call struct {
		Name string
		Args []Expr
	}

	// Var resolves a name through the lexical scope stack, then through
	// the parameter table.
	Var struct {
		Name string
	}
)

func (*Num) node()          {}
func (*Str) node()          {}
func (*Tuple) node()        {}
func (*Unary) node()        {}
func (*Binary) node()       {}
func (*Cond) node()         {}
func (*Me) node()           {}
func (*Pointer) node()      {}
func (*StrandAccess) node() {}
func (*StrandRemap) node()  {}
func (*Call) node()         {}
func (*Var) node()          {}

func (*Num) exprNode()          {}
func (*Str) exprNode()          {}
func (*Tuple) exprNode()        {}
func (*Unary) exprNode()        {}
func (*Binary) exprNode()       {}
func (*Cond) exprNode()         {}
func (*Me) exprNode()           {}
func (*Pointer) exprNode()      {}
func (*StrandAccess) exprNode() {}
func (*StrandRemap) exprNode()  {}
func (*Call) exprNode()         {}
func (*Var) exprNode()          {}

func (e *Num) String() string {
	return strconv.FormatFloat(e.V, 'g', -1, 64)
}

func (e *Str) String() string {
	return strconv.Quote(e.V)
}

func (e *Tuple) String() string {
	items := make([]string, len(e.Items))
	for i, item := range e.Items {
		items[i] = item.String()
	}
	return "(" + strings.Join(items, ", ") + ")"
}

func (e *Unary) String() string {
	return e.Op + e.X.String()
}

func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.X.String(), e.Op, e.Y.String())
}

func (e *Cond) String() string {
	return fmt.Sprintf("if %s then %s else %s", e.If.String(), e.Then.String(), e.Else.String())
}

func (e *Me) String() string {
	return "me@" + e.Field
}

func (e *Pointer) String() string {
	return "pointer@" + e.Field
}

func (e *StrandAccess) String() string {
	return e.Instance + "@" + e.Output
}

func (e *StrandRemap) String() string {
	maps := make([]string, len(e.Mappings))
	for i, m := range e.Mappings {
		maps[i] = m.Axis + ": " + m.X.String()
	}
	return fmt.Sprintf("%s@%s[%s]", e.Instance, e.Output, strings.Join(maps, ", "))
}

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		args[i] = arg.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func (e *Var) String() string {
	return e.Name
}
