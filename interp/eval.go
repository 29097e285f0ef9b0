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

import (
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/ir"
)

// Eval evaluates an expression at a point context against the runtime
// environment and a lexical scope stack. The scope may be nil outside of
// spindle bodies.
func Eval(expr ir.Expr, me Me, rt Runtime, sc *Scope) (Value, error) {
	switch exprT := expr.(type) {
	case *ir.Num:
		return Scalar(exprT.V), nil
	case *ir.Str:
		// Strings only reach evaluation as media arguments, which the
		// backends consume before compiling. Evaluating one is a bug in
		// the caller, not in the program.
		return nil, errorf("cannot evaluate string literal %s", exprT.String())
	case *ir.Tuple:
		return evalTuple(exprT, me, rt, sc)
	case *ir.Unary:
		return evalUnary(exprT, me, rt, sc)
	case *ir.Binary:
		return evalBinary(exprT, me, rt, sc)
	case *ir.Cond:
		return evalCond(exprT, me, rt, sc)
	case *ir.Me:
		v, err := me.Field(exprT.Field)
		if err != nil {
			return nil, err
		}
		return Scalar(v), nil
	case *ir.Pointer:
		v, err := rt.Pointer().Field(exprT.Field)
		if err != nil {
			return nil, err
		}
		return Scalar(v), nil
	case *ir.StrandAccess:
		return EvalStrand(exprT.Instance, exprT.Output, me, rt)
	case *ir.StrandRemap:
		return evalRemap(exprT, me, rt, sc)
	case *ir.Call:
		return evalCall(exprT, me, rt, sc)
	case *ir.Var:
		return evalVar(exprT, rt, sc)
	}
	return nil, errorf("cannot evaluate node %T", expr)
}

// EvalScalar evaluates an expression and converts the result to a scalar.
func EvalScalar(expr ir.Expr, me Me, rt Runtime, sc *Scope) (float64, error) {
	v, err := Eval(expr, me, rt, sc)
	if err != nil {
		return 0, err
	}
	return AsScalar(v)
}

func evalTuple(expr *ir.Tuple, me Me, rt Runtime, sc *Scope) (Value, error) {
	tuple := make(Tuple, len(expr.Items))
	for i, item := range expr.Items {
		v, err := EvalScalar(item, me, rt, sc)
		if err != nil {
			return nil, err
		}
		tuple[i] = v
	}
	return tuple, nil
}

func evalUnary(expr *ir.Unary, me Me, rt Runtime, sc *Scope) (Value, error) {
	a, err := EvalScalar(expr.X, me, rt, sc)
	if err != nil {
		return nil, err
	}
	v, err := UnaryOp(expr.Op, a)
	if err != nil {
		return nil, err
	}
	return Scalar(v), nil
}

func evalBinary(expr *ir.Binary, me Me, rt Runtime, sc *Scope) (Value, error) {
	a, err := EvalScalar(expr.X, me, rt, sc)
	if err != nil {
		return nil, err
	}
	b, err := EvalScalar(expr.Y, me, rt, sc)
	if err != nil {
		return nil, err
	}
	v, err := BinaryOp(expr.Op, a, b)
	if err != nil {
		return nil, err
	}
	return Scalar(v), nil
}

func evalCond(expr *ir.Cond, me Me, rt Runtime, sc *Scope) (Value, error) {
	cond, err := EvalScalar(expr.If, me, rt, sc)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return Eval(expr.Then, me, rt, sc)
	}
	return Eval(expr.Else, me, rt, sc)
}

// EvalStrand evaluates one named output of an instance at the given point
// context. Outputs are not cached: each reference independently
// re-evaluates, so instances behave as pure functions of the point
// context.
func EvalStrand(instance, output string, me Me, rt Runtime) (Value, error) {
	expr, ok := rt.InstanceOutput(instance, output)
	if !ok {
		return nil, errorf("no output %s@%s", instance, output)
	}
	if call, isCall := expr.(*ir.Call); isCall {
		if def, isSpindle := rt.Spindle(call.Name); isSpindle {
			return evalSpindleOutput(def, call, output, me, rt)
		}
	}
	// Instance outputs are top level: they see no lexical scope, only
	// the ambient parameters.
	return Eval(expr, me, rt, nil)
}

func evalRemap(expr *ir.StrandRemap, me Me, rt Runtime, sc *Scope) (Value, error) {
	// Coordinate substitutions are evaluated at the caller's point
	// context before any axis is replaced.
	remapped := me
	for _, mapping := range expr.Mappings {
		v, err := EvalScalar(mapping.X, me, rt, sc)
		if err != nil {
			return nil, err
		}
		remapped, err = remapped.WithAxis(mapping.Axis, v)
		if err != nil {
			return nil, err
		}
	}
	return EvalStrand(expr.Instance, expr.Output, remapped, rt)
}

func evalCall(expr *ir.Call, me Me, rt Runtime, sc *Scope) (Value, error) {
	if _, isSpindle := rt.Spindle(expr.Name); isSpindle {
		return nil, errorf("spindle %s cannot be called inside an expression", expr.Name)
	}
	if backend.AudioOnly(expr.Name) {
		return nil, errorf("%s is an audio builtin and cannot be evaluated here", expr.Name)
	}
	var args []float64
	for _, argExpr := range expr.Args {
		arg, err := Eval(argExpr, me, rt, sc)
		if err != nil {
			return nil, err
		}
		args = Flatten(args, arg)
	}
	if expr.Name == "normalize" && len(args) > 1 {
		return normalizeTuple(args), nil
	}
	v, err := CallScalar(expr.Name, args)
	if err != nil {
		return nil, err
	}
	return Scalar(v), nil
}

func normalizeTuple(args []float64) Tuple {
	n := vecLength(args)
	out := make(Tuple, len(args))
	for i, arg := range args {
		out[i] = Div(arg, n)
	}
	return out
}

func evalVar(expr *ir.Var, rt Runtime, sc *Scope) (Value, error) {
	if sc != nil {
		if v, ok := sc.Find(expr.Name); ok {
			return v, nil
		}
	}
	if v, ok := rt.Param(expr.Name); ok {
		return Scalar(v), nil
	}
	return nil, errorf("unknown variable: %s", expr.Name)
}
