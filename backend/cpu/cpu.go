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

// Package cpu compiles instance expressions into directly invocable
// closures.
//
// The CPU backend serves the compute context and acts as the fallback
// when no specialized backend is available. Its closures reproduce the
// tree-walking evaluator exactly: both resolve operators and builtins
// through the same tables in the interp package.
package cpu

import (
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/base/ordered"
	"github.com/gx-org/weft/bridge"
	"github.com/gx-org/weft/fmterr"
	"github.com/gx-org/weft/graph"
	"github.com/gx-org/weft/interp"
	"github.com/gx-org/weft/ir"
)

var log = commonlog.GetLogger("weft.compile.cpu")

// Closure evaluates one compiled scalar at a point context.
type Closure func(me interp.Me) (float64, error)

// Backend compiles and holds the closures of the compute-context nodes.
type Backend struct {
	ctx backend.Context

	graph   *graph.Graph
	channel *bridge.Channel
	rt      interp.Runtime

	symbols  *backend.SymbolTable
	closures *ordered.Map[backend.Strand, Closure]
	sinks    [][]Closure
}

// New returns a CPU backend serving the given context.
func New(ctx backend.Context) *Backend {
	return &Backend{ctx: ctx}
}

// Context returns the execution context the backend serves.
func (b *Backend) Context() backend.Context {
	return b.ctx
}

// Compile compiles a batch of nodes and the sink channels of the
// backend's context. Previous closures are discarded wholesale.
func (b *Backend) Compile(nodes []*graph.Node, g *graph.Graph, channel *bridge.Channel, rt interp.Runtime) error {
	b.graph = g
	b.channel = channel
	b.rt = rt
	b.symbols = backend.NewSymbolTable()
	b.closures = ordered.NewMap[backend.Strand, Closure]()
	b.sinks = nil

	var errs fmterr.Errors
	for _, node := range nodes {
		for output := range node.Required.Keys() {
			if _, err := b.compileStrand(backend.Strand{Instance: node.Name, Output: output}); err != nil {
				errs.Append(err)
			}
		}
	}
	for _, sink := range g.Sinks {
		if sink.Context != b.ctx {
			continue
		}
		channels := make([]Closure, len(sink.Channels))
		for i, expr := range sink.Channels {
			closure, err := b.compileExpr(expr, "", "")
			if err != nil {
				errs.Append(err)
				continue
			}
			channels[i] = closure
		}
		b.sinks = append(b.sinks, channels)
	}
	return errs.ToError()
}

// Strand returns the compiled closure of a strand.
func (b *Backend) Strand(s backend.Strand) (Closure, bool) {
	return b.closures.Load(s)
}

// Sinks returns the compiled channel closures of the backend's sinks, in
// program order.
func (b *Backend) Sinks() [][]Closure {
	return b.sinks
}

// compileStrand compiles one instance output, memoizing the result. The
// topological execution order guarantees dependencies compile first; the
// memo only short-circuits diamond references.
func (b *Backend) compileStrand(s backend.Strand) (Closure, error) {
	if closure, ok := b.closures.Load(s); ok {
		return closure, nil
	}
	node, ok := b.graph.Node(s.Instance)
	if !ok {
		return nil, fmterr.Errorf(s.Instance, s.Output, "unknown instance")
	}
	expr, ok := node.Outputs.Load(s.Output)
	if !ok {
		return nil, fmterr.Errorf(s.Instance, s.Output, "instance declares no output %q", s.Output)
	}
	var closure Closure
	var err error
	if call, isCall := expr.(*ir.Call); isCall && b.graph.IsSpindle(call.Name) {
		// Spindle instances execute through the evaluator: their bodies
		// are imperative and the evaluator is the CPU execution engine.
		rt, instance, output := b.rt, s.Instance, s.Output
		closure = func(me interp.Me) (float64, error) {
			v, err := interp.EvalStrand(instance, output, me, rt)
			if err != nil {
				return 0, err
			}
			return interp.AsScalar(v)
		}
	} else {
		closure, err = b.compileExpr(expr, s.Instance, s.Output)
		if err != nil {
			return nil, err
		}
	}
	b.closures.Store(s, closure)
	b.symbols.Bind(s, backend.Ref{Kind: backend.RefLocal, Name: s.String()})
	return closure, nil
}

func (b *Backend) compileExpr(expr ir.Expr, instance, output string) (Closure, error) {
	switch exprT := expr.(type) {
	case *ir.Num:
		v := exprT.V
		return func(interp.Me) (float64, error) { return v, nil }, nil
	case *ir.Str:
		return b.degrade(instance, output, "string literal %s has no scalar value", exprT.String()), nil
	case *ir.Tuple:
		if len(exprT.Items) == 0 {
			return b.degrade(instance, output, "empty tuple"), nil
		}
		// A tuple in scalar position contributes its first item.
		return b.compileExpr(exprT.Items[0], instance, output)
	case *ir.Unary:
		return b.compileUnary(exprT, instance, output)
	case *ir.Binary:
		return b.compileBinary(exprT, instance, output)
	case *ir.Cond:
		return b.compileCond(exprT, instance, output)
	case *ir.Me:
		get, err := interp.MeAccessor(exprT.Field)
		if err != nil {
			return b.degrade(instance, output, "%v", err), nil
		}
		return func(me interp.Me) (float64, error) { return get(me), nil }, nil
	case *ir.Pointer:
		get, err := interp.PointerAccessor(exprT.Field)
		if err != nil {
			return b.degrade(instance, output, "%v", err), nil
		}
		rt := b.rt
		return func(interp.Me) (float64, error) { return get(rt.Pointer()), nil }, nil
	case *ir.StrandAccess:
		return b.compileRef(backend.Strand{Instance: exprT.Instance, Output: exprT.Output}, nil, instance, output)
	case *ir.StrandRemap:
		return b.compileRemap(exprT, instance, output)
	case *ir.Call:
		return b.compileCall(exprT, instance, output)
	case *ir.Var:
		name, rt := exprT.Name, b.rt
		return func(interp.Me) (float64, error) {
			v, ok := rt.Param(name)
			if !ok {
				return 0, errors.Errorf("unknown variable: %s", name)
			}
			return v, nil
		}, nil
	}
	return b.degrade(instance, output, "cannot compile node %T", expr), nil
}

func (b *Backend) compileUnary(expr *ir.Unary, instance, output string) (Closure, error) {
	f, ok := interp.UnaryFunc(expr.Op)
	if !ok {
		return b.degrade(instance, output, "unknown unary operator %s", expr.Op), nil
	}
	x, err := b.compileExpr(expr.X, instance, output)
	if err != nil {
		return nil, err
	}
	return func(me interp.Me) (float64, error) {
		a, err := x(me)
		if err != nil {
			return 0, err
		}
		return f(a), nil
	}, nil
}

func (b *Backend) compileBinary(expr *ir.Binary, instance, output string) (Closure, error) {
	f, ok := interp.BinaryFunc(expr.Op)
	if !ok {
		return b.degrade(instance, output, "unknown binary operator %s", expr.Op), nil
	}
	x, err := b.compileExpr(expr.X, instance, output)
	if err != nil {
		return nil, err
	}
	y, err := b.compileExpr(expr.Y, instance, output)
	if err != nil {
		return nil, err
	}
	return func(me interp.Me) (float64, error) {
		a, err := x(me)
		if err != nil {
			return 0, err
		}
		c, err := y(me)
		if err != nil {
			return 0, err
		}
		return f(a, c), nil
	}, nil
}

func (b *Backend) compileCond(expr *ir.Cond, instance, output string) (Closure, error) {
	cond, err := b.compileExpr(expr.If, instance, output)
	if err != nil {
		return nil, err
	}
	then, err := b.compileExpr(expr.Then, instance, output)
	if err != nil {
		return nil, err
	}
	els, err := b.compileExpr(expr.Else, instance, output)
	if err != nil {
		return nil, err
	}
	return func(me interp.Me) (float64, error) {
		c, err := cond(me)
		if err != nil {
			return 0, err
		}
		if interp.Truthy(c) {
			return then(me)
		}
		return els(me)
	}, nil
}

// compileRef resolves a strand reference: in-domain strands call the
// already-compiled closure, cross-domain strands read their bridge slot.
// The optional remap transforms the point context before the call.
func (b *Backend) compileRef(target backend.Strand, remap func(interp.Me) (interp.Me, error), instance, output string) (Closure, error) {
	node, ok := b.graph.Node(target.Instance)
	if !ok {
		return b.degrade(instance, output, "unknown instance %s", target.Instance), nil
	}
	if b.ctx != backend.Audio && node.Contexts.Has(backend.Audio) {
		// The audio backend owns the strand and publishes it once per
		// block. Reading the slot keeps its DSP state single-consumer.
		if slot, ok := b.channel.Layout().Slot(target); ok {
			channel := b.channel
			return func(interp.Me) (float64, error) { return channel.Load(slot), nil }, nil
		}
	}
	if node.Contexts.Has(b.ctx) {
		closure, err := b.compileStrand(target)
		if err != nil {
			return nil, err
		}
		if remap == nil {
			return closure, nil
		}
		return func(me interp.Me) (float64, error) {
			remapped, err := remap(me)
			if err != nil {
				return 0, err
			}
			return closure(remapped)
		}, nil
	}
	if slot, ok := b.channel.Layout().Slot(target); ok {
		channel := b.channel
		// A slot read ignores the point context: the owning backend has
		// already collapsed the strand to one value per cycle.
		return func(interp.Me) (float64, error) { return channel.Load(slot), nil }, nil
	}
	return b.degrade(instance, output, "%s is owned by %s and has no bridge slot", target, node.Contexts), nil
}

func (b *Backend) compileRemap(expr *ir.StrandRemap, instance, output string) (Closure, error) {
	type axisMap struct {
		axis string
		x    Closure
	}
	mappings := make([]axisMap, len(expr.Mappings))
	for i, mapping := range expr.Mappings {
		x, err := b.compileExpr(mapping.X, instance, output)
		if err != nil {
			return nil, err
		}
		mappings[i] = axisMap{axis: mapping.Axis, x: x}
	}
	remap := func(me interp.Me) (interp.Me, error) {
		remapped := me
		for _, mapping := range mappings {
			v, err := mapping.x(me)
			if err != nil {
				return me, err
			}
			remapped, err = remapped.WithAxis(mapping.axis, v)
			if err != nil {
				return me, err
			}
		}
		return remapped, nil
	}
	return b.compileRef(backend.Strand{Instance: expr.Instance, Output: expr.Output}, remap, instance, output)
}

func (b *Backend) compileCall(expr *ir.Call, instance, output string) (Closure, error) {
	if backend.AudioOnly(expr.Name) {
		// Deliberately fatal: DSP builtins carry per-sample state that
		// only exists inside the audio callback.
		return nil, fmterr.Errorf(instance, output, "%s is only available in the audio context", expr.Name)
	}
	if _, ok := backend.PureArity(expr.Name); !ok {
		return b.degrade(instance, output, "unknown builtin %s", expr.Name), nil
	}
	args := make([]Closure, len(expr.Args))
	for i, argExpr := range expr.Args {
		arg, err := b.compileExpr(argExpr, instance, output)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	name := expr.Name
	return func(me interp.Me) (float64, error) {
		vals := make([]float64, len(args))
		for i, arg := range args {
			v, err := arg(me)
			if err != nil {
				return 0, err
			}
			vals[i] = v
		}
		return interp.CallScalar(name, vals)
	}, nil
}

// degrade logs a warning and compiles to the neutral element so that one
// broken expression does not block the rest of the graph.
func (b *Backend) degrade(instance, output, format string, a ...any) Closure {
	log.Warningf("%s: %s", backend.Strand{Instance: instance, Output: output}, errors.Errorf(format, a...))
	return func(interp.Me) (float64, error) { return 0, nil }
}
