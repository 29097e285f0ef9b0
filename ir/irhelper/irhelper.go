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

// Package irhelper provides helper functions to build IR programmatically.
package irhelper

import "github.com/gx-org/weft/ir"

// Num returns a numeric literal.
func Num(v float64) *ir.Num {
	return &ir.Num{V: v}
}

// Str returns a string literal.
func Str(v string) *ir.Str {
	return &ir.Str{V: v}
}

// Var returns a variable reference.
func Var(name string) *ir.Var {
	return &ir.Var{Name: name}
}

// Me returns a point-context field accessor.
func Me(field string) *ir.Me {
	return &ir.Me{Field: field}
}

// Pointer returns a pointer-device field accessor.
func Pointer(field string) *ir.Pointer {
	return &ir.Pointer{Field: field}
}

// Tuple groups expressions.
func Tuple(items ...ir.Expr) *ir.Tuple {
	return &ir.Tuple{Items: items}
}

// Unary applies a unary operator.
func Unary(op string, x ir.Expr) *ir.Unary {
	return &ir.Unary{Op: op, X: x}
}

// Binary applies a binary operator.
func Binary(x ir.Expr, op string, y ir.Expr) *ir.Binary {
	return &ir.Binary{Op: op, X: x, Y: y}
}

// Cond returns a conditional expression.
func Cond(cond, then, els ir.Expr) *ir.Cond {
	return &ir.Cond{If: cond, Then: then, Else: els}
}

// Access returns a strand access.
func Access(instance, output string) *ir.StrandAccess {
	return &ir.StrandAccess{Instance: instance, Output: output}
}

// Mapping returns an axis mapping for a strand remap.
func Mapping(axis string, x ir.Expr) ir.AxisMapping {
	return ir.AxisMapping{Axis: axis, X: x}
}

// Remap returns a strand remap.
func Remap(instance, output string, mappings ...ir.AxisMapping) *ir.StrandRemap {
	return &ir.StrandRemap{Instance: instance, Output: output, Mappings: mappings}
}

// Call returns a call expression.
func Call(name string, args ...ir.Expr) *ir.Call {
	return &ir.Call{Name: name, Args: args}
}

// Bind returns an instance binding distributing expr over the output names.
func Bind(instance string, outputs []string, expr ir.Expr) *ir.InstanceBinding {
	return ir.BindOutputs(instance, outputs, expr)
}

// BindOne returns an instance binding with a single output.
func BindOne(instance, output string, expr ir.Expr) *ir.InstanceBinding {
	return &ir.InstanceBinding{
		Name:    instance,
		Outputs: []ir.OutputBinding{{Name: output, X: expr}},
	}
}

// Output returns an output statement with positional arguments.
func Output(keyword string, args ...ir.Expr) *ir.OutputStmt {
	return &ir.OutputStmt{Keyword: keyword, Args: args}
}

// Display returns a visual output statement.
func Display(args ...ir.Expr) *ir.OutputStmt {
	return Output("display", args...)
}

// Play returns an audio output statement.
func Play(args ...ir.Expr) *ir.OutputStmt {
	return Output("play", args...)
}

// Named returns a name: expression output-statement argument.
func Named(name string, x ir.Expr) ir.NamedArg {
	return ir.NamedArg{Name: name, X: x}
}

// Spindle returns a spindle definition.
func Spindle(name string, inputs, outputs []string, body ...ir.Stmt) *ir.SpindleDef {
	return &ir.SpindleDef{Name: name, Inputs: inputs, Outputs: outputs, Body: body}
}

// Let returns a let statement.
func Let(name string, x ir.Expr) *ir.Let {
	return &ir.Let{Name: name, X: x}
}

// Assign returns an assignment statement.
func Assign(name, op string, x ir.Expr) *ir.Assign {
	return &ir.Assign{Name: name, Op: op, X: x}
}

// ForRange returns an inclusive-range for statement.
func ForRange(loopVar string, from, to ir.Expr, body ...ir.Stmt) *ir.For {
	return &ir.For{Var: loopVar, From: from, To: to, Body: body}
}

// Slider returns a slider parameter pragma.
func Slider(name string, min, max, def float64) *ir.Pragma {
	return &ir.Pragma{Kind: ir.PragmaSlider, Name: name, Args: []float64{min, max, def}}
}

// Toggle returns a toggle parameter pragma.
func Toggle(name string, def float64) *ir.Pragma {
	return &ir.Pragma{Kind: ir.PragmaToggle, Name: name, Args: []float64{def}}
}

// Program returns a program from statements.
func Program(stmts ...ir.Stmt) *ir.Program {
	return &ir.Program{Stmts: stmts}
}
