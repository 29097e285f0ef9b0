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

// Package audio compiles audio-context instances into per-sample functions
// running inside the render callback.
//
// Compilation happens on the control thread and may allocate freely; the
// render path never does. Stateful DSP builtins are resolved per callsite:
// each call to whitenoise, delay, onepole or adsr in the tree owns one
// entry of mutable state, assigned an index at compile time and sized once
// before the first block.
package audio

import (
	"math"

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

var log = commonlog.GetLogger("weft.compile.audio")

// Params resolves named parameter cells to lock-free getters. Getters are
// resolved once at compile time and called from the render thread.
type Params interface {
	Cell(name string) (func() float64, bool)
}

// A sampleFunc produces one sample. The spatial coordinates exist so that
// strand remaps keep their substitution semantics; sinks evaluate at the
// origin.
type sampleFunc func(st *State, x, y float64) float64

// Backend compiles and renders the audio context.
type Backend struct {
	sampleRate      float64
	bpm             float64
	beatsPerMeasure float64

	graph   *graph.Graph
	channel *bridge.Channel
	rt      interp.Runtime
	params  Params

	symbols *backend.SymbolTable
	funcs   *ordered.Map[backend.Strand, sampleFunc]
	counts  stateCounts
	state   *State

	left  sampleFunc
	right sampleFunc

	// published lists the audio-owned bridge slots, written once per block.
	published []publishedSlot
}

type publishedSlot struct {
	slot int
	f    sampleFunc
}

// New returns an audio backend rendering at the given sample rate.
func New(sampleRate float64) *Backend {
	return &Backend{
		sampleRate:      sampleRate,
		bpm:             120,
		beatsPerMeasure: 4,
	}
}

// Context returns the execution context the backend serves.
func (b *Backend) Context() backend.Context {
	return backend.Audio
}

// SetTempo sets the musical clock deriving beat and measure from time.
func (b *Backend) SetTempo(bpm, beatsPerMeasure float64) {
	if bpm > 0 {
		b.bpm = bpm
	}
	if beatsPerMeasure > 0 {
		b.beatsPerMeasure = beatsPerMeasure
	}
}

// Compile compiles a batch of nodes and the play sinks. The previous
// program and all of its DSP state are discarded; the new state starts
// silent.
func (b *Backend) Compile(nodes []*graph.Node, g *graph.Graph, channel *bridge.Channel, rt interp.Runtime, params Params) error {
	b.graph = g
	b.channel = channel
	b.rt = rt
	b.params = params
	b.symbols = backend.NewSymbolTable()
	b.funcs = ordered.NewMap[backend.Strand, sampleFunc]()
	b.counts = stateCounts{}
	b.published = nil
	b.left, b.right = silence, silence

	var errs fmterr.Errors
	for _, node := range nodes {
		for output := range node.Required.Keys() {
			if _, err := b.compileStrand(backend.Strand{Instance: node.Name, Output: output}); err != nil {
				errs.Append(err)
			}
		}
	}
	b.compileSinks(&errs)
	b.collectPublished()
	if !errs.Empty() {
		return errs.ToError()
	}
	b.state = newState(b.sampleRate, b.counts)
	return nil
}

// compileSinks compiles every play statement and sums them per channel.
func (b *Backend) compileSinks(errs *fmterr.Errors) {
	var lefts, rights []sampleFunc
	for _, sink := range b.graph.Sinks {
		if sink.Context != backend.Audio {
			continue
		}
		if len(sink.Channels) != 2 {
			errs.Appendf("", "", "play statement carries %d channels, want 2", len(sink.Channels))
			continue
		}
		l, err := b.compileExpr(sink.Channels[0], "", "")
		if err != nil {
			errs.Append(err)
			continue
		}
		r, err := b.compileExpr(sink.Channels[1], "", "")
		if err != nil {
			errs.Append(err)
			continue
		}
		lefts = append(lefts, l)
		rights = append(rights, r)
	}
	b.left = sum(lefts)
	b.right = sum(rights)
}

// collectPublished finds the bridge slots owned by the audio context. They
// are refreshed once per block with the value at the origin.
func (b *Backend) collectPublished() {
	for s, slot := range b.channel.Layout().Strands() {
		node, ok := b.graph.Node(s.Instance)
		if !ok || !node.Contexts.Has(backend.Audio) {
			continue
		}
		f, ok := b.funcs.Load(s)
		if !ok {
			continue
		}
		b.published = append(b.published, publishedSlot{slot: slot, f: f})
	}
}

// Render fills an interleaved stereo buffer. Transport values are read
// from the bridge at block start and advanced per sample within the block;
// audio-owned bridge slots are published once at block end.
func (b *Backend) Render(out []float64) {
	st := b.state
	if st == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	baseTime := b.channel.Load(bridge.SlotTime)
	baseAbs := b.channel.Load(bridge.SlotAbsTime)
	st.frame = b.channel.Load(bridge.SlotFrame)
	st.absFrame = b.channel.Load(bridge.SlotAbsFrame)
	frames := len(out) / 2
	for i := 0; i < frames; i++ {
		dt := float64(i) / b.sampleRate
		st.time = baseTime + dt
		st.absTime = baseAbs + dt
		st.beat = st.time * b.bpm / 60
		st.measure = st.beat / b.beatsPerMeasure
		out[2*i] = clip(b.left(st, 0, 0))
		out[2*i+1] = clip(b.right(st, 0, 0))
		st.samples++
	}
	for _, p := range b.published {
		b.channel.Store(p.slot, p.f(st, 0, 0))
	}
}

func silence(*State, float64, float64) float64 { return 0 }

func sum(fs []sampleFunc) sampleFunc {
	switch len(fs) {
	case 0:
		return silence
	case 1:
		return fs[0]
	}
	return func(st *State, x, y float64) float64 {
		var acc float64
		for _, f := range fs {
			acc += f(st, x, y)
		}
		return acc
	}
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func (b *Backend) compileStrand(s backend.Strand) (sampleFunc, error) {
	if f, ok := b.funcs.Load(s); ok {
		return f, nil
	}
	node, ok := b.graph.Node(s.Instance)
	if !ok {
		return nil, fmterr.Errorf(s.Instance, s.Output, "unknown instance")
	}
	expr, ok := node.Outputs.Load(s.Output)
	if !ok {
		return nil, fmterr.Errorf(s.Instance, s.Output, "instance declares no output %q", s.Output)
	}
	var f sampleFunc
	var err error
	if call, isCall := expr.(*ir.Call); isCall && b.graph.IsSpindle(call.Name) {
		f = b.compileSpindleStrand(s)
	} else {
		f, err = b.compileExpr(expr, s.Instance, s.Output)
		if err != nil {
			return nil, err
		}
	}
	b.funcs.Store(s, f)
	b.symbols.Bind(s, backend.Ref{Kind: backend.RefLocal, Name: s.String()})
	return f, nil
}

// compileSpindleStrand routes a spindle-bound output through the
// evaluator. Spindle bodies are imperative and rarely sit on the hot path;
// a body that fails at runtime renders silence for that strand.
func (b *Backend) compileSpindleStrand(s backend.Strand) sampleFunc {
	rt := b.rt
	return func(st *State, x, y float64) float64 {
		me := interp.Me{
			X: x, Y: y,
			Time:     st.time,
			AbsTime:  st.absTime,
			Frame:    st.frame,
			AbsFrame: st.absFrame,
			Beat:     st.beat,
			Measure:  st.measure,
		}
		v, err := interp.EvalStrand(s.Instance, s.Output, me, rt)
		if err != nil {
			return 0
		}
		f, err := interp.AsScalar(v)
		if err != nil {
			return 0
		}
		return f
	}
}

func (b *Backend) compileExpr(expr ir.Expr, instance, output string) (sampleFunc, error) {
	switch exprT := expr.(type) {
	case *ir.Num:
		v := exprT.V
		return func(*State, float64, float64) float64 { return v }, nil
	case *ir.Str:
		return b.degrade(instance, output, "string literal %s has no scalar value", exprT.String()), nil
	case *ir.Tuple:
		if len(exprT.Items) == 0 {
			return b.degrade(instance, output, "empty tuple"), nil
		}
		return b.compileExpr(exprT.Items[0], instance, output)
	case *ir.Unary:
		f, ok := interp.UnaryFunc(exprT.Op)
		if !ok {
			return b.degrade(instance, output, "unknown unary operator %s", exprT.Op), nil
		}
		x, err := b.compileExpr(exprT.X, instance, output)
		if err != nil {
			return nil, err
		}
		return func(st *State, px, py float64) float64 { return f(x(st, px, py)) }, nil
	case *ir.Binary:
		f, ok := interp.BinaryFunc(exprT.Op)
		if !ok {
			return b.degrade(instance, output, "unknown binary operator %s", exprT.Op), nil
		}
		x, err := b.compileExpr(exprT.X, instance, output)
		if err != nil {
			return nil, err
		}
		y, err := b.compileExpr(exprT.Y, instance, output)
		if err != nil {
			return nil, err
		}
		return func(st *State, px, py float64) float64 { return f(x(st, px, py), y(st, px, py)) }, nil
	case *ir.Cond:
		return b.compileCond(exprT, instance, output)
	case *ir.Me:
		return b.compileMe(exprT, instance, output)
	case *ir.Pointer:
		get, err := interp.PointerAccessor(exprT.Field)
		if err != nil {
			return b.degrade(instance, output, "%v", err), nil
		}
		rt := b.rt
		return func(*State, float64, float64) float64 { return get(rt.Pointer()) }, nil
	case *ir.StrandAccess:
		return b.compileRef(backend.Strand{Instance: exprT.Instance, Output: exprT.Output}, nil, instance, output)
	case *ir.StrandRemap:
		return b.compileRemap(exprT, instance, output)
	case *ir.Call:
		return b.compileCall(exprT, instance, output)
	case *ir.Var:
		cell, ok := b.params.Cell(exprT.Name)
		if !ok {
			return b.degrade(instance, output, "unknown variable %s", exprT.Name), nil
		}
		return func(*State, float64, float64) float64 { return cell() }, nil
	}
	return b.degrade(instance, output, "cannot compile node %T", expr), nil
}

func (b *Backend) compileCond(expr *ir.Cond, instance, output string) (sampleFunc, error) {
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
	return func(st *State, x, y float64) float64 {
		if interp.Truthy(cond(st, x, y)) {
			return then(st, x, y)
		}
		return els(st, x, y)
	}, nil
}

func (b *Backend) compileMe(expr *ir.Me, instance, output string) (sampleFunc, error) {
	switch expr.Field {
	case "x":
		return func(_ *State, x, _ float64) float64 { return x }, nil
	case "y":
		return func(_ *State, _, y float64) float64 { return y }, nil
	case "t", "time":
		return func(st *State, _, _ float64) float64 { return st.time }, nil
	case "abstime":
		return func(st *State, _, _ float64) float64 { return st.absTime }, nil
	case "frame":
		return func(st *State, _, _ float64) float64 { return st.frame }, nil
	case "absframe":
		return func(st *State, _, _ float64) float64 { return st.absFrame }, nil
	case "beat":
		return func(st *State, _, _ float64) float64 { return st.beat }, nil
	case "measure":
		return func(st *State, _, _ float64) float64 { return st.measure }, nil
	}
	return b.degrade(instance, output, "unknown point context field: me@%s", expr.Field), nil
}

func (b *Backend) compileRef(target backend.Strand, remap func(st *State, x, y float64) (float64, float64), instance, output string) (sampleFunc, error) {
	node, ok := b.graph.Node(target.Instance)
	if !ok {
		return b.degrade(instance, output, "unknown instance %s", target.Instance), nil
	}
	if node.Contexts.Has(backend.Audio) {
		f, err := b.compileStrand(target)
		if err != nil {
			return nil, err
		}
		if remap == nil {
			return f, nil
		}
		return func(st *State, x, y float64) float64 {
			rx, ry := remap(st, x, y)
			return f(st, rx, ry)
		}, nil
	}
	if slot, ok := b.channel.Layout().Slot(target); ok {
		channel := b.channel
		return func(*State, float64, float64) float64 { return channel.Load(slot) }, nil
	}
	return b.degrade(instance, output, "%s is owned by %s and has no bridge slot", target, node.Contexts), nil
}

func (b *Backend) compileRemap(expr *ir.StrandRemap, instance, output string) (sampleFunc, error) {
	var xMap, yMap sampleFunc
	for _, mapping := range expr.Mappings {
		f, err := b.compileExpr(mapping.X, instance, output)
		if err != nil {
			return nil, err
		}
		switch mapping.Axis {
		case "x":
			xMap = f
		case "y":
			yMap = f
		default:
			return b.degrade(instance, output, "cannot remap axis %q", mapping.Axis), nil
		}
	}
	remap := func(st *State, x, y float64) (float64, float64) {
		rx, ry := x, y
		if xMap != nil {
			rx = clamp01(xMap(st, x, y))
		}
		if yMap != nil {
			ry = clamp01(yMap(st, x, y))
		}
		return rx, ry
	}
	return b.compileRef(backend.Strand{Instance: expr.Instance, Output: expr.Output}, remap, instance, output)
}

func (b *Backend) compileCall(expr *ir.Call, instance, output string) (sampleFunc, error) {
	if arity, ok := backend.AudioArity(expr.Name); ok {
		if len(expr.Args) != arity {
			return nil, fmterr.Errorf(instance, output, "%s expects %d arguments, got %d", expr.Name, arity, len(expr.Args))
		}
		args, err := b.compileArgs(expr.Args, instance, output)
		if err != nil {
			return nil, err
		}
		return b.compileDSP(expr.Name, args), nil
	}
	if _, ok := backend.PureArity(expr.Name); !ok {
		return b.degrade(instance, output, "unknown builtin %s", expr.Name), nil
	}
	args, err := b.compileArgs(expr.Args, instance, output)
	if err != nil {
		return nil, err
	}
	name := expr.Name
	vals := make([]float64, len(args))
	return func(st *State, x, y float64) float64 {
		for i, arg := range args {
			vals[i] = arg(st, x, y)
		}
		v, err := interp.CallScalar(name, vals)
		if err != nil {
			return 0
		}
		return v
	}, nil
}

func (b *Backend) compileArgs(exprs []ir.Expr, instance, output string) ([]sampleFunc, error) {
	args := make([]sampleFunc, len(exprs))
	for i, expr := range exprs {
		arg, err := b.compileExpr(expr, instance, output)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

// compileDSP binds one stateful builtin callsite to its state index.
func (b *Backend) compileDSP(name string, args []sampleFunc) sampleFunc {
	switch name {
	case "whitenoise":
		idx := b.counts.rng
		b.counts.rng++
		return func(st *State, _, _ float64) float64 { return st.whitenoise(idx) }
	case "onepole":
		idx := b.counts.onepoles
		b.counts.onepoles++
		return func(st *State, x, y float64) float64 {
			return st.onepole(idx, args[0](st, x, y), args[1](st, x, y))
		}
	case "adsr":
		idx := b.counts.adsrs
		b.counts.adsrs++
		return func(st *State, x, y float64) float64 {
			return st.adsr(idx, args[0](st, x, y), args[1](st, x, y), args[2](st, x, y), args[3](st, x, y), args[4](st, x, y))
		}
	case "delay":
		idx := b.counts.delays
		b.counts.delays++
		return func(st *State, x, y float64) float64 {
			return st.delay(idx, args[0](st, x, y), args[1](st, x, y), args[2](st, x, y))
		}
	case "drive":
		return func(st *State, x, y float64) float64 {
			return math.Tanh(args[0](st, x, y) * math.Max(args[1](st, x, y), 1))
		}
	}
	panic(errors.Errorf("no state binding for DSP builtin %s", name))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (b *Backend) degrade(instance, output, format string, a ...any) sampleFunc {
	log.Warningf("%s: %s", backend.Strand{Instance: instance, Output: output}, errors.Errorf(format, a...))
	return silence
}
