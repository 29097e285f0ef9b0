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

	"github.com/gx-org/weft/base/ordered"
	"github.com/gx-org/weft/ir"
)

// ParamCell is one externally adjustable scalar. Writes clamp to the
// declared range and are atomic: the audio callback and the render loop
// read cells without locking.
type ParamCell struct {
	Name     string
	Min, Max float64
	Default  float64

	bits atomic.Uint64
}

// Get returns the current value.
func (c *ParamCell) Get() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Set stores a value, clamped to the cell's range.
func (c *ParamCell) Set(v float64) {
	if v < c.Min {
		v = c.Min
	}
	if v > c.Max {
		v = c.Max
	}
	c.bits.Store(math.Float64bits(v))
}

// Params is the registry of parameter cells declared by the program's
// pragmas. The cell table swaps atomically, so the audio callback and the
// render loop read cells without locking while a recompile installs a new
// table. OnChange, when set, runs after every external Set.
type Params struct {
	cells    atomic.Pointer[ordered.Map[string, *ParamCell]]
	OnChange func(name string, v float64)
}

// NewParams returns an empty registry.
func NewParams() *Params {
	p := &Params{}
	p.cells.Store(ordered.NewMap[string, *ParamCell]())
	return p
}

// StagedParams is the cell table of a program about to compile. Backends
// resolve their getters against it; registry readers see it only once
// Install runs, so a failed compile leaves the running program's cells
// untouched.
type StagedParams struct {
	params *Params
	cells  *ordered.Map[string, *ParamCell]
}

// Stage computes the cell table declared by a program's pragmas. Cells
// already registered keep their current value, reclamped into the new
// range, so live edits never reset the performer's controls; cells no
// longer declared are absent from the staged table.
func (p *Params) Stage(pragmas []*ir.Pragma) *StagedParams {
	next := ordered.NewMap[string, *ParamCell]()
	cur := p.cells.Load()
	for _, pragma := range pragmas {
		decls := cellDecls(pragma)
		for i := range decls {
			decl := &decls[i]
			cell := &ParamCell{Name: decl.Name, Min: decl.Min, Max: decl.Max, Default: decl.Default}
			v := decl.Default
			if old, ok := cur.Load(decl.Name); ok {
				v = old.Get()
			}
			cell.Set(v)
			next.Store(decl.Name, cell)
		}
	}
	return &StagedParams{params: p, cells: next}
}

// Cell returns a lock-free getter for a staged cell.
func (s *StagedParams) Cell(name string) (func() float64, bool) {
	cell, ok := s.cells.Load(name)
	if !ok {
		return nil, false
	}
	return cell.Get, true
}

// Install publishes the staged table to the registry's readers.
func (s *StagedParams) Install() {
	s.params.cells.Store(s.cells)
}

// Apply stages and installs the cells declared by a program's pragmas in
// one step.
func (p *Params) Apply(pragmas []*ir.Pragma) {
	p.Stage(pragmas).Install()
}

// cellDecls expands a pragma into its component cells, named the way the
// graph names the matching param instance outputs.
func cellDecls(pragma *ir.Pragma) []ParamCell {
	arg := func(i int, fallback float64) float64 {
		if i < len(pragma.Args) {
			return pragma.Args[i]
		}
		return fallback
	}
	switch pragma.Kind {
	case ir.PragmaToggle:
		return []ParamCell{{Name: pragma.Name, Min: 0, Max: 1, Default: arg(0, 0)}}
	case ir.PragmaXY:
		return []ParamCell{
			{Name: pragma.Name + ".x", Min: 0, Max: 1, Default: arg(0, 0.5)},
			{Name: pragma.Name + ".y", Min: 0, Max: 1, Default: arg(1, 0.5)},
		}
	case ir.PragmaRGB:
		return []ParamCell{
			{Name: pragma.Name + ".r", Min: 0, Max: 1, Default: arg(0, 1)},
			{Name: pragma.Name + ".g", Min: 0, Max: 1, Default: arg(1, 1)},
			{Name: pragma.Name + ".b", Min: 0, Max: 1, Default: arg(2, 1)},
		}
	default:
		min, max := arg(0, 0), arg(1, 1)
		return []ParamCell{{Name: pragma.Name, Min: min, Max: max, Default: arg(2, min)}}
	}
}

// Cell returns a lock-free getter for a named cell.
func (p *Params) Cell(name string) (func() float64, bool) {
	cell, ok := p.cells.Load().Load(name)
	if !ok {
		return nil, false
	}
	return cell.Get, true
}

// Value returns the current value of a named cell.
func (p *Params) Value(name string) (float64, bool) {
	cell, ok := p.cells.Load().Load(name)
	if !ok {
		return 0, false
	}
	return cell.Get(), true
}

// Set stores a value into a named cell and fires the change hook.
func (p *Params) Set(name string, v float64) bool {
	cell, ok := p.cells.Load().Load(name)
	if !ok {
		return false
	}
	cell.Set(v)
	if p.OnChange != nil {
		p.OnChange(name, cell.Get())
	}
	return true
}

// Cells iterates over the registered cells in declaration order.
func (p *Params) Cells() func(func(string, *ParamCell) bool) {
	return p.cells.Load().Iter()
}
