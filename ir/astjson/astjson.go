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

// Package astjson decodes the JSON tree emitted by the parser frontend
// into IR nodes.
//
// Every node is an object with a "type" tag naming the node kind. The
// decoder is the only place where the wire shape of the frontend is known;
// the rest of the engine only sees ir nodes.
package astjson

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/gx-org/weft/ir"
)

type rawNode struct {
	Type string `json:"type"`

	// Literals and names.
	Value    float64 `json:"value"`
	Text     string  `json:"text"`
	Name     string  `json:"name"`
	Field    string  `json:"field"`
	Op       string  `json:"op"`
	Instance string  `json:"instance"`
	Output   string  `json:"output"`
	Keyword  string  `json:"keyword"`
	Kind     string  `json:"kind"`

	// Children.
	Left     json.RawMessage   `json:"left"`
	Right    json.RawMessage   `json:"right"`
	X        json.RawMessage   `json:"expr"`
	CondE    json.RawMessage   `json:"cond"`
	Then     json.RawMessage   `json:"then"`
	Else     json.RawMessage   `json:"else"`
	From     json.RawMessage   `json:"from"`
	To       json.RawMessage   `json:"to"`
	Items    []json.RawMessage `json:"items"`
	Args     []json.RawMessage `json:"args"`
	Body     []json.RawMessage `json:"body"`
	Stmts    []json.RawMessage `json:"statements"`
	Mappings []rawMapping      `json:"mappings"`
	Named    []rawNamed        `json:"named"`
	Outputs  []rawOutput       `json:"outputs"`
	Inputs   []string          `json:"inputs"`
	Names    []string          `json:"names"`
	Numbers  []float64         `json:"numbers"`
}

type rawMapping struct {
	Axis string          `json:"axis"`
	X    json.RawMessage `json:"expr"`
}

type rawNamed struct {
	Name string          `json:"name"`
	X    json.RawMessage `json:"expr"`
}

type rawOutput struct {
	Name string          `json:"name"`
	X    json.RawMessage `json:"expr"`
}

// DecodeProgram decodes a full program.
func DecodeProgram(data []byte) (*ir.Program, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode program")
	}
	if raw.Type != "program" {
		return nil, errors.Errorf("cannot decode program: got node type %q", raw.Type)
	}
	prog := &ir.Program{}
	for i, rawStmt := range raw.Stmts {
		stmt, err := decodeStmt(rawStmt)
		if err != nil {
			return nil, errors.Wrapf(err, "statement %d", i)
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}

func decodeStmt(data json.RawMessage) (ir.Stmt, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode statement")
	}
	switch raw.Type {
	case "instance_binding":
		return decodeInstanceBinding(&raw)
	case "output":
		return decodeOutputStmt(&raw)
	case "spindle_def":
		return decodeSpindleDef(&raw)
	case "let":
		x, err := decodeExpr(raw.X)
		if err != nil {
			return nil, err
		}
		return &ir.Let{Name: raw.Name, X: x}, nil
	case "assign":
		x, err := decodeExpr(raw.X)
		if err != nil {
			return nil, err
		}
		return &ir.Assign{Name: raw.Name, Op: raw.Op, X: x}, nil
	case "for":
		return decodeFor(&raw)
	case "pragma":
		return decodePragma(&raw)
	}
	return nil, errors.Errorf("unknown statement type %q", raw.Type)
}

func decodeInstanceBinding(raw *rawNode) (*ir.InstanceBinding, error) {
	// Legacy form: a flat output-name list against one expression.
	if len(raw.Names) > 0 {
		x, err := decodeExpr(raw.X)
		if err != nil {
			return nil, err
		}
		return ir.BindOutputs(raw.Name, raw.Names, x), nil
	}
	bind := &ir.InstanceBinding{Name: raw.Name}
	for _, out := range raw.Outputs {
		x, err := decodeExpr(out.X)
		if err != nil {
			return nil, errors.Wrapf(err, "output %s", out.Name)
		}
		bind.Outputs = append(bind.Outputs, ir.OutputBinding{Name: out.Name, X: x})
	}
	return bind, nil
}

func decodeOutputStmt(raw *rawNode) (*ir.OutputStmt, error) {
	stmt := &ir.OutputStmt{Keyword: raw.Keyword}
	for i, rawArg := range raw.Args {
		arg, err := decodeExpr(rawArg)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		stmt.Args = append(stmt.Args, arg)
	}
	for _, named := range raw.Named {
		x, err := decodeExpr(named.X)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %s", named.Name)
		}
		stmt.Named = append(stmt.Named, ir.NamedArg{Name: named.Name, X: x})
	}
	return stmt, nil
}

func decodeSpindleDef(raw *rawNode) (*ir.SpindleDef, error) {
	def := &ir.SpindleDef{Name: raw.Name, Inputs: raw.Inputs, Outputs: raw.Names}
	for i, rawStmt := range raw.Body {
		stmt, err := decodeStmt(rawStmt)
		if err != nil {
			return nil, errors.Wrapf(err, "body statement %d", i)
		}
		def.Body = append(def.Body, stmt)
	}
	return def, nil
}

func decodeFor(raw *rawNode) (*ir.For, error) {
	from, err := decodeExpr(raw.From)
	if err != nil {
		return nil, err
	}
	to, err := decodeExpr(raw.To)
	if err != nil {
		return nil, err
	}
	stmt := &ir.For{Var: raw.Name, From: from, To: to}
	for i, rawStmt := range raw.Body {
		body, err := decodeStmt(rawStmt)
		if err != nil {
			return nil, errors.Wrapf(err, "body statement %d", i)
		}
		stmt.Body = append(stmt.Body, body)
	}
	return stmt, nil
}

func decodePragma(raw *rawNode) (*ir.Pragma, error) {
	var kind ir.PragmaKind
	switch raw.Kind {
	case "slider":
		kind = ir.PragmaSlider
	case "toggle":
		kind = ir.PragmaToggle
	case "xy":
		kind = ir.PragmaXY
	case "rgb":
		kind = ir.PragmaRGB
	default:
		return nil, errors.Errorf("unknown pragma kind %q", raw.Kind)
	}
	return &ir.Pragma{Kind: kind, Name: raw.Name, Args: raw.Numbers}, nil
}

func decodeExpr(data json.RawMessage) (ir.Expr, error) {
	if len(data) == 0 {
		return nil, errors.New("missing expression")
	}
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode expression")
	}
	switch raw.Type {
	case "num":
		return &ir.Num{V: raw.Value}, nil
	case "str":
		return &ir.Str{V: raw.Text}, nil
	case "var":
		return &ir.Var{Name: raw.Name}, nil
	case "me":
		return &ir.Me{Field: raw.Field}, nil
	case "pointer":
		return &ir.Pointer{Field: raw.Field}, nil
	case "tuple":
		tuple := &ir.Tuple{}
		for i, rawItem := range raw.Items {
			item, err := decodeExpr(rawItem)
			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}
			tuple.Items = append(tuple.Items, item)
		}
		return tuple, nil
	case "unary":
		x, err := decodeExpr(raw.X)
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Op: raw.Op, X: x}, nil
	case "binary":
		left, err := decodeExpr(raw.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(raw.Right)
		if err != nil {
			return nil, err
		}
		return &ir.Binary{Op: raw.Op, X: left, Y: right}, nil
	case "if":
		cond, err := decodeExpr(raw.CondE)
		if err != nil {
			return nil, err
		}
		then, err := decodeExpr(raw.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeExpr(raw.Else)
		if err != nil {
			return nil, err
		}
		return &ir.Cond{If: cond, Then: then, Else: els}, nil
	case "strand_access":
		return &ir.StrandAccess{Instance: raw.Instance, Output: raw.Output}, nil
	case "strand_remap":
		remap := &ir.StrandRemap{Instance: raw.Instance, Output: raw.Output}
		for _, rawMap := range raw.Mappings {
			x, err := decodeExpr(rawMap.X)
			if err != nil {
				return nil, errors.Wrapf(err, "axis %s", rawMap.Axis)
			}
			remap.Mappings = append(remap.Mappings, ir.AxisMapping{Axis: rawMap.Axis, X: x})
		}
		return remap, nil
	case "call":
		call := &ir.Call{Name: raw.Name}
		for i, rawArg := range raw.Args {
			arg, err := decodeExpr(rawArg)
			if err != nil {
				return nil, errors.Wrapf(err, "argument %d", i)
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil
	}
	return nil, errors.Errorf("unknown expression type %q", raw.Type)
}
