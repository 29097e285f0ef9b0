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

type (
	// OutputBinding binds one declared output name of an instance to the
	// expression producing it. This is the canonical record: legacy
	// surface forms (a bare output-name list against a tuple expression)
	// are normalized into it by BindOutputs.
	OutputBinding struct {
		Name string
		X    Expr
	}

	// InstanceBinding declares or extends a named instance. A name may be
	// bound multiple times in a program; outputs merge across bindings
	// and a later binding of the same output name wins.
	InstanceBinding struct {
		Name    string
		Outputs []OutputBinding
	}

	// NamedArg is a name: expression argument of an output statement.
	NamedArg struct {
		Name string
		X    Expr
	}

	// OutputStmt is a terminal statement routing values to a backend,
	// identified by its surface keyword (display, render, play, compute).
	OutputStmt struct {
		Keyword string
		Args    []Expr
		Named   []NamedArg
	}

	// SpindleDef defines a parameterized, multi-output subroutine.
	// Spindles are invoked from instance bindings only.
	SpindleDef struct {
		Name    string
		Inputs  []string
		Outputs []string
		Body    []Stmt
	}

	// Let introduces a new binding in the innermost spindle scope.
	Let struct {
		Name string
		X    Expr
	}

	// Assign mutates an existing spindle-scope binding. Op is one of
	// =, +=, -=, *=, /=.
	Assign struct {
		Name string
		Op   string
		X    Expr
	}

	// For iterates an inclusive integer range. Direction is inferred from
	// comparing the evaluated bounds. The loop variable is rebound on
	// every iteration.
	For struct {
		Var  string
		From Expr
		To   Expr
		Body []Stmt
	}

	// Pragma declares an externally adjustable parameter: a range-bounded
	// slider, a toggle, an xy pad, or an rgb triple. Parameters become
	// both ambient variables and single-output instances.
	Pragma struct {
		Kind PragmaKind
		Name string
		Args []float64
	}
)

// PragmaKind identifies the shape of a parameter pragma.
type PragmaKind int

// The parameter pragma kinds.
const (
	PragmaSlider PragmaKind = iota
	PragmaToggle
	PragmaXY
	PragmaRGB
)

// String returns the surface keyword of the pragma kind.
func (k PragmaKind) String() string {
	switch k {
	case PragmaSlider:
		return "slider"
	case PragmaToggle:
		return "toggle"
	case PragmaXY:
		return "xy"
	case PragmaRGB:
		return "rgb"
	}
	return "invalid"
}

func (*InstanceBinding) node() {}
func (*OutputStmt) node()      {}
func (*SpindleDef) node()      {}
func (*Let) node()             {}
func (*Assign) node()          {}
func (*For) node()             {}
func (*Pragma) node()          {}

func (*InstanceBinding) stmtNode() {}
func (*OutputStmt) stmtNode()      {}
func (*SpindleDef) stmtNode()      {}
func (*Let) stmtNode()             {}
func (*Assign) stmtNode()          {}
func (*For) stmtNode()             {}
func (*Pragma) stmtNode()          {}

// BindOutputs builds an instance binding from a declared output-name list
// and a single expression, distributing tuple items positionally across the
// names. A non-tuple expression is bound to every declared name. Extra
// names beyond the tuple arity are dropped.
func BindOutputs(instance string, names []string, expr Expr) *InstanceBinding {
	bind := &InstanceBinding{Name: instance}
	tuple, isTuple := expr.(*Tuple)
	// A call keeps its tuple arguments intact: distribution only applies
	// to a bare tuple expression.
	if isTuple && len(names) > 1 {
		for i, name := range names {
			if i >= len(tuple.Items) {
				break
			}
			bind.Outputs = append(bind.Outputs, OutputBinding{Name: name, X: tuple.Items[i]})
		}
		return bind
	}
	for _, name := range names {
		bind.Outputs = append(bind.Outputs, OutputBinding{Name: name, X: expr})
	}
	return bind
}

// Arg returns a named argument of the output statement.
func (s *OutputStmt) Arg(name string) (Expr, bool) {
	for _, arg := range s.Named {
		if arg.Name == name {
			return arg.X, true
		}
	}
	return nil, false
}

// AllArgs returns the positional then named argument expressions.
func (s *OutputStmt) AllArgs() []Expr {
	args := make([]Expr, 0, len(s.Args)+len(s.Named))
	args = append(args, s.Args...)
	for _, named := range s.Named {
		args = append(args, named.X)
	}
	return args
}
