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

// Package graph builds the instance dependency graph of a program.
//
// The builder runs once per (re)compilation. It collects one node per
// unique instance name, marks the outputs reachable from the program's
// output statements, extracts dependency edges, orders the nodes
// topologically and tags every reachable node with the execution contexts
// consuming it. Instances never reachable from an output statement are
// eliminated: they appear in the node set but not in the execution order
// and are never compiled.
package graph

import (
	"github.com/pkg/errors"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/base/ordered"
	"github.com/gx-org/weft/ir"
)

// ErrCircular is reported when the instance dependencies form a cycle.
// Compilation aborts; no partial graph is produced.
var ErrCircular = errors.New("circular dependency between instances")

// NodeKind describes how an instance produces its outputs.
type NodeKind int

// The node kinds.
const (
	// KindExpression is a direct expression binding.
	KindExpression NodeKind = iota
	// KindSpindle is a call to a user-defined spindle.
	KindSpindle
	// KindBuiltin is a call to a builtin, including media loaders that
	// pin the instance to the context owning the device.
	KindBuiltin
	// KindParam is a parameter declared by a pragma, readable both as a
	// bare variable and as an instance output.
	KindParam
)

// String returns the name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindExpression:
		return "expression"
	case KindSpindle:
		return "spindle"
	case KindBuiltin:
		return "builtin"
	case KindParam:
		return "param"
	}
	return "invalid"
}

type (
	// Node is one named instance in the graph.
	Node struct {
		Name string
		Kind NodeKind

		// Outputs maps declared output names to their expressions, in
		// declaration order. A later binding of the same name wins.
		Outputs *ordered.Map[string, ir.Expr]

		// Deps is the set of instance names this node references,
		// including the synthetic "self" pseudo-dependency when the node
		// reads its point context. Names that are not graph nodes are
		// kept for introspection but never produce edges.
		Deps *ordered.Map[string, bool]

		// OutputDeps maps each declared output to the strands its
		// expression references.
		OutputDeps *ordered.Map[string, []backend.Strand]

		// Required is the set of outputs reachable from an output
		// statement. Outputs outside the set are dead and not compiled.
		Required *ordered.Map[string, bool]

		// Contexts is the set of execution contexts transitively
		// consuming this node.
		Contexts backend.ContextSet
	}

	// Sink is a normalized output statement: its consuming context and
	// its channel expressions, with single-instance shorthand forms
	// expanded into explicit strand accesses.
	Sink struct {
		Keyword  string
		Context  backend.Context
		Channels []ir.Expr
	}

	// Graph is the instance dependency graph of one program.
	Graph struct {
		nodes *ordered.Map[string, *Node]

		// Sinks are the program's output statements in program order.
		Sinks []*Sink

		// ExecOrder is the topological order of the live nodes: every
		// node appears after all of its dependencies, and nodes with no
		// path to an output statement are eliminated.
		ExecOrder []string

		spindles map[string]*ir.SpindleDef
	}
)

// SelfDep is the synthetic dependency recorded when an instance reads its
// point context. It is never a graph node and never an edge.
const SelfDep = "self"

// Node returns a node by instance name.
func (g *Graph) Node(name string) (*Node, bool) {
	return g.nodes.Load(name)
}

// Nodes iterates over all nodes in declaration order, including dead ones.
func (g *Graph) Nodes() func(func(string, *Node) bool) {
	return g.nodes.Iter()
}

// NumNodes returns the total number of nodes, including dead ones.
func (g *Graph) NumNodes() int {
	return g.nodes.Size()
}

// Live returns the live nodes in execution order.
func (g *Graph) Live() []*Node {
	nodes := make([]*Node, len(g.ExecOrder))
	for i, name := range g.ExecOrder {
		nodes[i], _ = g.nodes.Load(name)
	}
	return nodes
}

// IsSpindle returns true if name is a spindle defined by the program.
func (g *Graph) IsSpindle(name string) bool {
	_, ok := g.spindles[name]
	return ok
}

// Spindle returns a spindle definition by name.
func (g *Graph) Spindle(name string) (*ir.SpindleDef, bool) {
	def, ok := g.spindles[name]
	return def, ok
}

// Build constructs the graph from a parsed program.
func Build(prog *ir.Program) (*Graph, error) {
	g := &Graph{
		nodes:    ordered.NewMap[string, *Node](),
		spindles: make(map[string]*ir.SpindleDef),
	}
	for _, def := range prog.Spindles() {
		g.spindles[def.Name] = def
	}
	g.collect(prog)
	if err := g.normalizeSinks(prog); err != nil {
		return nil, err
	}
	g.markRequired()
	g.propagateRequired()
	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	g.tagContexts()
	for _, name := range order {
		node, _ := g.nodes.Load(name)
		if node.Contexts.Empty() {
			continue
		}
		g.ExecOrder = append(g.ExecOrder, name)
	}
	return g, nil
}

// collect populates one node per unique instance name, merging outputs
// declared across multiple bindings.
func (g *Graph) collect(prog *ir.Program) {
	for _, bind := range prog.Instances() {
		node := g.ensureNode(bind.Name)
		node.Kind = g.bindKind(bind)
		for _, out := range bind.Outputs {
			node.Outputs.Store(out.Name, out.X)
			node.OutputDeps.Store(out.Name, strandDeps(out.X))
			addExprDeps(node.Deps, out.X)
		}
	}
	for _, pragma := range prog.Pragmas() {
		node := g.ensureNode(pragma.Name)
		node.Kind = KindParam
		for _, out := range paramOutputs(pragma) {
			node.Outputs.Store(out.Name, out.X)
			node.OutputDeps.Store(out.Name, nil)
		}
	}
}

func (g *Graph) ensureNode(name string) *Node {
	if node, ok := g.nodes.Load(name); ok {
		return node
	}
	node := &Node{
		Name:       name,
		Outputs:    ordered.NewMap[string, ir.Expr](),
		Deps:       ordered.NewMap[string, bool](),
		OutputDeps: ordered.NewMap[string, []backend.Strand](),
		Required:   ordered.NewMap[string, bool](),
	}
	g.nodes.Store(name, node)
	return node
}

func (g *Graph) bindKind(bind *ir.InstanceBinding) NodeKind {
	for _, out := range bind.Outputs {
		call, ok := out.X.(*ir.Call)
		if !ok {
			continue
		}
		if g.IsSpindle(call.Name) {
			return KindSpindle
		}
		if backend.IsMedia(call.Name) {
			return KindBuiltin
		}
	}
	return KindExpression
}

// paramOutputs expands a pragma into the instance outputs it declares.
// Each output reads the ambient parameter cell of its component.
func paramOutputs(pragma *ir.Pragma) []ir.OutputBinding {
	component := func(suffix string) ir.OutputBinding {
		name := pragma.Name
		if suffix != "value" {
			name += "." + suffix
		}
		return ir.OutputBinding{Name: suffix, X: &ir.Var{Name: name}}
	}
	switch pragma.Kind {
	case ir.PragmaXY:
		return []ir.OutputBinding{component("x"), component("y")}
	case ir.PragmaRGB:
		return []ir.OutputBinding{component("r"), component("g"), component("b")}
	default:
		return []ir.OutputBinding{component("value")}
	}
}

// addExprDeps records every instance referenced by expr, plus the "self"
// pseudo-dependency when the expression reads its point context.
func addExprDeps(deps *ordered.Map[string, bool], expr ir.Expr) {
	ir.WalkExpr(expr, func(sub ir.Expr) bool {
		switch subT := sub.(type) {
		case *ir.StrandAccess:
			deps.Store(subT.Instance, true)
		case *ir.StrandRemap:
			deps.Store(subT.Instance, true)
		case *ir.Me:
			deps.Store(SelfDep, true)
		}
		return true
	})
}

func strandDeps(expr ir.Expr) []backend.Strand {
	var strands []backend.Strand
	ir.Strands(expr, func(instance, output string) {
		strands = append(strands, backend.Strand{Instance: instance, Output: output})
	})
	return strands
}
