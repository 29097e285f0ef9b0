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

// Package ir defines the Weft abstract syntax tree.
//
// The tree is produced by an external parser frontend and consumed by the
// graph builder, the tree-walking evaluator, and the backend compilers.
// Nodes are immutable once built. The set of node types is closed: every
// consumer switches exhaustively over the Expr and Stmt sum types.
package ir

type (
	// Node in the tree.
	Node interface {
		// node marks a structure as a node structure.
		// It prevents external implementations of the interface.
		node()
	}

	// Expr is an expression node. Expressions are pure: evaluating one has
	// no side effect and depends only on the point context, the runtime
	// environment, and the lexical scope.
	Expr interface {
		Node
		exprNode()
		String() string
	}

	// Stmt is a statement node. Statements appear at the top level of a
	// program or inside a spindle body.
	Stmt interface {
		Node
		stmtNode()
	}
)

// Program is a full parsed Weft program.
type Program struct {
	Stmts []Stmt
}

func (*Program) node() {}

// Instances returns the instance bindings of the program in order.
func (p *Program) Instances() []*InstanceBinding {
	var binds []*InstanceBinding
	for _, stmt := range p.Stmts {
		if bind, ok := stmt.(*InstanceBinding); ok {
			binds = append(binds, bind)
		}
	}
	return binds
}

// Outputs returns the output statements of the program in order.
func (p *Program) Outputs() []*OutputStmt {
	var outs []*OutputStmt
	for _, stmt := range p.Stmts {
		if out, ok := stmt.(*OutputStmt); ok {
			outs = append(outs, out)
		}
	}
	return outs
}

// Spindles returns the spindle definitions of the program in order.
func (p *Program) Spindles() []*SpindleDef {
	var defs []*SpindleDef
	for _, stmt := range p.Stmts {
		if def, ok := stmt.(*SpindleDef); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// Pragmas returns the parameter pragmas of the program in order.
func (p *Program) Pragmas() []*Pragma {
	var prs []*Pragma
	for _, stmt := range p.Stmts {
		if pr, ok := stmt.(*Pragma); ok {
			prs = append(prs, pr)
		}
	}
	return prs
}
