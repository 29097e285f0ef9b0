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

package visual

import (
	"slices"
	"strings"

	"github.com/gx-org/weft/base/uname"
	"github.com/gx-org/weft/ir"
)

// spindleCallExpr emits a call to a spindle bound to an instance output.
// Each (spindle, output) pair gets one GLSL function holding the inlined
// body; the returned expression calls it with the argument expressions and
// the point.
func (em *emitter) spindleCallExpr(call *ir.Call, output, p string) (string, error) {
	def, ok := em.g.Spindle(call.Name)
	if !ok {
		return em.degrade("unknown spindle %s", call.Name), nil
	}
	if !slices.Contains(def.Outputs, output) {
		return "", em.errorf("spindle %s declares no output %q", def.Name, output)
	}
	if len(call.Args) != len(def.Inputs) {
		return "", em.errorf("spindle %s expects %d arguments, got %d", def.Name, len(def.Inputs), len(call.Args))
	}
	fn, err := em.emitSpindleFunc(def, output)
	if err != nil {
		return "", err
	}
	args := make([]string, 0, len(call.Args)+1)
	for _, argExpr := range call.Args {
		arg, err := em.emitExpr(argExpr, nil, p)
		if err != nil {
			return "", err
		}
		args = append(args, arg)
	}
	args = append(args, p)
	return fn + "(" + strings.Join(args, ", ") + ")", nil
}

// emitSpindleFunc inlines a spindle body as a GLSL function returning one
// declared output. Emission is memoized per (spindle, output) under a key
// that cannot collide with instance strands.
func (em *emitter) emitSpindleFunc(def *ir.SpindleDef, output string) (string, error) {
	key := spindleKey(def.Name, output)
	if em.spindles[key] {
		return key, nil
	}
	prev := em.names
	em.names = uname.New()
	defer func() { em.names = prev }()
	sc := newScope(nil)
	var sb strings.Builder
	sb.WriteString("float " + key + "(")
	for _, input := range def.Inputs {
		local := em.names.Name("v_" + sanitize(input))
		sc.vars[input] = local
		sb.WriteString("float " + local + ", ")
	}
	sb.WriteString("vec2 p) {\n")
	for _, out := range def.Outputs {
		local := em.names.Name("v_" + sanitize(out))
		sc.vars[out] = local
		sb.WriteString("\tfloat " + local + " = 0.0;\n")
	}
	if err := em.emitStmts(def.Body, sc, &sb, "\t"); err != nil {
		return "", err
	}
	sb.WriteString("\treturn " + sc.vars[output] + ";\n}\n\n")
	em.funcs.WriteString(sb.String())
	em.spindles[key] = true
	return key, nil
}

func spindleKey(name, output string) string {
	return "weft_sp_" + sanitize(name) + "_" + sanitize(output)
}

func (em *emitter) emitStmts(stmts []ir.Stmt, sc *scope, sb *strings.Builder, indent string) error {
	for _, stmt := range stmts {
		if err := em.emitStmt(stmt, sc, sb, indent); err != nil {
			return err
		}
	}
	return nil
}

func (em *emitter) emitStmt(stmt ir.Stmt, sc *scope, sb *strings.Builder, indent string) error {
	switch stmtT := stmt.(type) {
	case *ir.Let:
		return em.emitDefine(stmtT.Name, stmtT.X, sc, sb, indent)
	case *ir.Assign:
		return em.emitAssign(stmtT, sc, sb, indent)
	case *ir.For:
		return em.emitFor(stmtT, sc, sb, indent)
	}
	return em.errorf("statement %T is not valid inside a spindle body", stmt)
}

// emitDefine declares a local, or reassigns it when the name is already
// declared in scope. GLSL forbids redeclaration where the surface language
// tolerates it.
func (em *emitter) emitDefine(name string, x ir.Expr, sc *scope, sb *strings.Builder, indent string) error {
	v, err := em.emitExpr(x, sc, "p")
	if err != nil {
		return err
	}
	if local, ok := sc.find(name); ok {
		sb.WriteString(indent + local + " = " + v + ";\n")
		return nil
	}
	local := em.names.Name("v_" + sanitize(name))
	sc.vars[name] = local
	sb.WriteString(indent + "float " + local + " = " + v + ";\n")
	return nil
}

func (em *emitter) emitAssign(stmt *ir.Assign, sc *scope, sb *strings.Builder, indent string) error {
	if stmt.Op == "=" {
		return em.emitDefine(stmt.Name, stmt.X, sc, sb, indent)
	}
	local, ok := sc.find(stmt.Name)
	if !ok {
		return em.errorf("cannot %s undefined variable %s", stmt.Op, stmt.Name)
	}
	v, err := em.emitExpr(stmt.X, sc, "p")
	if err != nil {
		return err
	}
	switch stmt.Op {
	case "+=", "-=", "*=":
		sb.WriteString(indent + local + " " + stmt.Op + " " + v + ";\n")
	case "/=":
		sb.WriteString(indent + local + " = weft_div(" + local + ", " + v + ");\n")
	default:
		return em.errorf("unknown assignment operator: %s", stmt.Op)
	}
	return nil
}

// emitFor emits an inclusive integer range loop with the direction decided
// at runtime, matching the evaluator.
func (em *emitter) emitFor(stmt *ir.For, sc *scope, sb *strings.Builder, indent string) error {
	from, err := em.emitExpr(stmt.From, sc, "p")
	if err != nil {
		return err
	}
	to, err := em.emitExpr(stmt.To, sc, "p")
	if err != nil {
		return err
	}
	em.tmp++
	id := itoa(em.tmp)
	iv, fromV, toV, stepV := "wi"+id, "wf"+id, "wt"+id, "ws"+id
	sb.WriteString(indent + "int " + fromV + " = int(" + from + ");\n")
	sb.WriteString(indent + "int " + toV + " = int(" + to + ");\n")
	sb.WriteString(indent + "int " + stepV + " = " + fromV + " <= " + toV + " ? 1 : -1;\n")
	sb.WriteString(indent + "for (int " + iv + " = " + fromV + "; " + iv + " != " + toV + " + " + stepV + "; " + iv + " += " + stepV + ") {\n")
	body := newScope(sc)
	local := em.names.Name("v_" + sanitize(stmt.Var))
	body.vars[stmt.Var] = local
	sb.WriteString(indent + "\tfloat " + local + " = float(" + iv + ");\n")
	if err := em.emitStmts(stmt.Body, body, sb, indent+"\t"); err != nil {
		return err
	}
	sb.WriteString(indent + "}\n")
	return nil
}
