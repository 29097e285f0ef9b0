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
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/bridge"
	"github.com/gx-org/weft/graph"
	"github.com/gx-org/weft/interp"
	"github.com/gx-org/weft/ir"
)

var log = commonlog.GetLogger("weft.engine")

// ErrNoOutput is reported when a program declares no output statement:
// there is nothing to run.
var ErrNoOutput = errors.New("program has no output statement")

// CompileInput carries the shared state of one compilation to every
// backend. Params is the staged cell table of this compilation; it is
// installed only after every backend succeeds.
type CompileInput struct {
	Graph   *graph.Graph
	Channel *bridge.Channel
	Runtime interp.Runtime
	Params  *StagedParams
}

// Backend compiles batches of graph nodes for one execution context.
type Backend interface {
	Context() backend.Context
	Compile(nodes []*graph.Node, in *CompileInput) error
}

// compiledState is everything produced by one successful compilation. It
// swaps in atomically: renders racing a recompilation see either the old
// program or the new one, never a mix.
type compiledState struct {
	graph   *graph.Graph
	channel *bridge.Channel
	rt      *programRuntime
}

// Coordinator owns the environment, the parameter cells and the backends,
// and drives the compile/render lifecycle.
type Coordinator struct {
	env      *Env
	params   *Params
	pointer  *pointerState
	backends []Backend

	state atomic.Pointer[compiledState]
}

// NewCoordinator returns a coordinator over an environment.
func NewCoordinator(env *Env) *Coordinator {
	return &Coordinator{
		env:     env,
		params:  NewParams(),
		pointer: &pointerState{},
	}
}

// Env returns the runtime environment.
func (c *Coordinator) Env() *Env {
	return c.env
}

// Params returns the parameter cell registry.
func (c *Coordinator) Params() *Params {
	return c.params
}

// AddBackend registers a backend. Registration order breaks ties: the
// first backend serving a context wins, and the first backend overall is
// the fallback for nodes with no servable context.
func (c *Coordinator) AddBackend(b Backend) {
	c.backends = append(c.backends, b)
}

// SetPointer publishes the pointer device state.
func (c *Coordinator) SetPointer(x, y, down float64) {
	c.pointer.set(x, y, down)
}

// Running returns true once a program has compiled successfully.
func (c *Coordinator) Running() bool {
	return c.state.Load() != nil
}

// Graph returns the dependency graph of the running program.
func (c *Coordinator) Graph() (*graph.Graph, bool) {
	state := c.state.Load()
	if state == nil {
		return nil, false
	}
	return state.graph, true
}

// Compile builds and compiles a program, then swaps it in. On error the
// previously compiled program keeps running untouched.
func (c *Coordinator) Compile(prog *ir.Program) error {
	if len(c.backends) == 0 {
		return errors.New("no backend registered")
	}
	g, err := graph.Build(prog)
	if err != nil {
		return err
	}
	if len(g.Sinks) == 0 {
		return ErrNoOutput
	}
	staged := c.params.Stage(prog.Pragmas())
	channel := bridge.NewChannel(bridge.BuildLayout(g))
	rt := &programRuntime{graph: g, params: c.params, pointer: c.pointer}
	in := &CompileInput{Graph: g, Channel: channel, Runtime: rt, Params: staged}
	for _, batch := range c.batchNodes(g) {
		if err := c.backends[batch.backend].Compile(batch.nodes, in); err != nil {
			return err
		}
	}
	staged.Install()
	c.state.Store(&compiledState{graph: g, channel: channel, rt: rt})
	return nil
}

type nodeBatch struct {
	backend int
	nodes   []*graph.Node
}

// batchNodes assigns every live node a backend and groups consecutive
// same-backend nodes in execution order, so each backend compiles its
// dependencies before its dependents.
func (c *Coordinator) batchNodes(g *graph.Graph) []nodeBatch {
	var batches []nodeBatch
	current := -1
	for _, node := range g.Live() {
		idx := c.assign(node)
		if idx != current {
			batches = append(batches, nodeBatch{backend: idx})
			current = idx
		}
		last := &batches[len(batches)-1]
		last.nodes = append(last.nodes, node)
	}
	return batches
}

// assign picks the backend of one node: a media builtin pins the node to
// the context owning its device, otherwise the first tagged context with a
// registered backend wins, otherwise the first backend takes it.
func (c *Coordinator) assign(node *graph.Node) int {
	if node.Kind == graph.KindBuiltin {
		if name, ok := mediaBuiltin(node); ok {
			if ctx, ok := backend.MediaContext(name); ok {
				if idx, ok := c.backendFor(ctx); ok {
					return idx
				}
			}
		}
	}
	for _, ctx := range node.Contexts.Contexts() {
		if idx, ok := c.backendFor(ctx); ok {
			return idx
		}
	}
	return 0
}

func (c *Coordinator) backendFor(ctx backend.Context) (int, bool) {
	for idx, b := range c.backends {
		if b.Context() == ctx {
			return idx, true
		}
	}
	return 0, false
}

func mediaBuiltin(node *graph.Node) (string, bool) {
	for expr := range node.Outputs.Values() {
		call, ok := expr.(*ir.Call)
		if !ok {
			continue
		}
		if backend.IsMedia(call.Name) {
			return call.Name, true
		}
	}
	return "", false
}

// Render advances the clock for one visual frame: it syncs the counters,
// publishes the transport and refreshes the bridge slots owned by the
// synchronous contexts. The audio backend publishes its own slots on its
// block schedule.
func (c *Coordinator) Render() {
	state := c.state.Load()
	if state == nil {
		return
	}
	c.env.SyncCounters()
	pointer := c.pointer.get()
	state.channel.StoreTransport(bridge.Transport{
		Time:     c.env.Time(),
		AbsTime:  c.env.AbsTime(),
		Frame:    float64(c.env.Frame),
		AbsFrame: float64(c.env.AbsFrame),
		PointerX: pointer.X,
		PointerY: pointer.Y,
	})
	c.publishSlots(state)
}

// publishSlots evaluates every non-audio-owned cross-context strand at the
// frame reference point and publishes the value. Evaluation errors mute
// the slot for the frame rather than aborting the render.
func (c *Coordinator) publishSlots(state *compiledState) {
	me := interp.Me{
		X: 0.5, Y: 0.5,
		Time:     c.env.Time(),
		AbsTime:  c.env.AbsTime(),
		Frame:    float64(c.env.Frame),
		AbsFrame: float64(c.env.AbsFrame),
		Beat:     c.env.CurrentBeat(),
		Measure:  c.env.CurrentMeasure(),
	}
	for s, slot := range state.channel.Layout().Strands() {
		node, ok := state.graph.Node(s.Instance)
		if !ok || node.Contexts.Has(backend.Audio) {
			continue
		}
		v, err := interp.EvalScalar(&ir.StrandAccess{Instance: s.Instance, Output: s.Output}, me, state.rt, nil)
		if err != nil {
			log.Warningf("publishing %s: %s", s, err)
			continue
		}
		state.channel.Store(slot, v)
	}
}
