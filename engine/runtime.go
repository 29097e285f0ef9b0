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

package engine

import (
	"math"
	"sync/atomic"

	"github.com/gx-org/weft/graph"
	"github.com/gx-org/weft/interp"
	"github.com/gx-org/weft/ir"
)

// pointerState is the shared pointer device state, written by the host
// event loop and read by every backend.
type pointerState struct {
	x, y, down atomic.Uint64
}

func (ps *pointerState) set(x, y, down float64) {
	ps.x.Store(math.Float64bits(x))
	ps.y.Store(math.Float64bits(y))
	ps.down.Store(math.Float64bits(down))
}

func (ps *pointerState) get() interp.Pointer {
	return interp.Pointer{
		X:    math.Float64frombits(ps.x.Load()),
		Y:    math.Float64frombits(ps.y.Load()),
		Down: math.Float64frombits(ps.down.Load()),
	}
}

// programRuntime exposes one compiled program to the evaluator and the
// backends. It is immutable after compilation: recompiling builds a new
// one over the new graph.
type programRuntime struct {
	graph   *graph.Graph
	params  *Params
	pointer *pointerState
}

var _ interp.Runtime = (*programRuntime)(nil)

func (rt *programRuntime) InstanceOutput(instance, output string) (ir.Expr, bool) {
	node, ok := rt.graph.Node(instance)
	if !ok {
		return nil, false
	}
	return node.Outputs.Load(output)
}

func (rt *programRuntime) Spindle(name string) (*ir.SpindleDef, bool) {
	return rt.graph.Spindle(name)
}

func (rt *programRuntime) Param(name string) (float64, bool) {
	return rt.params.Value(name)
}

func (rt *programRuntime) Pointer() interp.Pointer {
	return rt.pointer.get()
}

// Cell implements the lock-free parameter access of the audio backend.
func (rt *programRuntime) Cell(name string) (func() float64, bool) {
	return rt.params.Cell(name)
}
