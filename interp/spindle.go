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
	"slices"

	"github.com/gx-org/weft/base/ordered"
	"github.com/gx-org/weft/ir"
)

// CallSpindle runs a spindle body: parameters bind to the evaluated
// arguments, declared outputs start at zero, statements execute in order
// in a fresh scope frame, and the final output bindings are returned in
// declaration order.
func CallSpindle(def *ir.SpindleDef, args []Value, me Me, rt Runtime) (*ordered.Map[string, Value], error) {
	if len(args) != len(def.Inputs) {
		return nil, errorf("spindle %s expects %d arguments, got %d", def.Name, len(def.Inputs), len(args))
	}
	frame := NewScope(nil)
	for i, input := range def.Inputs {
		frame.Define(input, args[i])
	}
	for _, output := range def.Outputs {
		frame.Define(output, Scalar(0))
	}
	if err := execStmts(def.Body, me, rt, frame); err != nil {
		return nil, errorf("spindle %s: %v", def.Name, err)
	}
	outs := ordered.NewMap[string, Value]()
	for _, output := range def.Outputs {
		v, _ := frame.Find(output)
		outs.Store(output, v)
	}
	return outs, nil
}

// evalSpindleOutput invokes the spindle bound to an instance and selects
// one declared output. Selecting an output the spindle does not declare
// is an error, never a silent default.
func evalSpindleOutput(def *ir.SpindleDef, call *ir.Call, output string, me Me, rt Runtime) (Value, error) {
	if !slices.Contains(def.Outputs, output) {
		return nil, errorf("spindle %s declares no output %q", def.Name, output)
	}
	args := make([]Value, len(call.Args))
	for i, argExpr := range call.Args {
		arg, err := Eval(argExpr, me, rt, nil)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	outs, err := CallSpindle(def, args, me, rt)
	if err != nil {
		return nil, err
	}
	v, _ := outs.Load(output)
	return v, nil
}

func execStmts(stmts []ir.Stmt, me Me, rt Runtime, frame *Scope) error {
	for _, stmt := range stmts {
		if err := execStmt(stmt, me, rt, frame); err != nil {
			return err
		}
	}
	return nil
}

func execStmt(stmt ir.Stmt, me Me, rt Runtime, frame *Scope) error {
	switch stmtT := stmt.(type) {
	case *ir.Let:
		v, err := Eval(stmtT.X, me, rt, frame)
		if err != nil {
			return err
		}
		frame.Define(stmtT.Name, v)
		return nil
	case *ir.Assign:
		return execAssign(stmtT, me, rt, frame)
	case *ir.For:
		return execFor(stmtT, me, rt, frame)
	}
	return errorf("statement %T is not valid inside a spindle body", stmt)
}

func execAssign(stmt *ir.Assign, me Me, rt Runtime, frame *Scope) error {
	v, err := EvalScalar(stmt.X, me, rt, frame)
	if err != nil {
		return err
	}
	if stmt.Op == "=" {
		// Plain assignment introduces the binding if it does not exist,
		// matching let semantics at the surface.
		if !frame.Assign(stmt.Name, Scalar(v)) {
			frame.Define(stmt.Name, Scalar(v))
		}
		return nil
	}
	cur, ok := frame.Find(stmt.Name)
	if !ok {
		return errorf("cannot %s undefined variable %s", stmt.Op, stmt.Name)
	}
	a, err := AsScalar(cur)
	if err != nil {
		return err
	}
	var next float64
	switch stmt.Op {
	case "+=":
		next = a + v
	case "-=":
		next = a - v
	case "*=":
		next = a * v
	case "/=":
		next = Div(a, v)
	default:
		return errorf("unknown assignment operator: %s", stmt.Op)
	}
	frame.Assign(stmt.Name, Scalar(next))
	return nil
}

// execFor iterates an inclusive integer range, direction inferred from
// comparing the bounds. The loop variable is rebound every iteration.
func execFor(stmt *ir.For, me Me, rt Runtime, frame *Scope) error {
	fromF, err := EvalScalar(stmt.From, me, rt, frame)
	if err != nil {
		return err
	}
	toF, err := EvalScalar(stmt.To, me, rt, frame)
	if err != nil {
		return err
	}
	from, to := int(fromF), int(toF)
	step := 1
	if to < from {
		step = -1
	}
	body := NewScope(frame)
	for i := from; ; i += step {
		body.Define(stmt.Var, Scalar(float64(i)))
		if err := execStmts(stmt.Body, me, rt, body); err != nil {
			return err
		}
		if i == to {
			break
		}
	}
	return nil
}
