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

// Package bridge synchronizes scalar values between backends running on
// independent schedules.
//
// A channel is a fixed array of scalar slots allocated once per compiled
// program. The backend owning a strand writes its current value once per
// its own production cadence; consuming backends read at their own cadence.
// Reads never block: they return the last written value, or zero if
// nothing has been written yet. The contract is last-write-wins with no
// synchronization barrier, which trades exact frame alignment for
// decoupled execution.
package bridge

import (
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/base/ordered"
	"github.com/gx-org/weft/graph"
	"github.com/gx-org/weft/ir"
)

// Reserved transport slots. Every channel starts with these well-known
// values, written by the engine once per visual frame.
const (
	SlotTime = iota
	SlotAbsTime
	SlotFrame
	SlotAbsFrame
	SlotPointerX
	SlotPointerY

	numReserved
)

// Layout assigns one slot to every strand crossing a context boundary.
// Allocation is a deterministic function of the strand names: slots are
// ordered lexically by instance then output, so recompiling an unchanged
// program yields a stable layout.
type Layout struct {
	slots *ordered.Map[backend.Strand, int]
}

// BuildLayout allocates slots for a graph. A strand gets a slot when it is
// referenced directly by a sink in one context while its defining node is
// also consumed by a different context: the owning backend computes it
// once and publishes the value for the others.
func BuildLayout(g *graph.Graph) *Layout {
	crossing := ordered.NewMap[backend.Strand, bool]()
	for _, sink := range g.Sinks {
		for _, channel := range sink.Channels {
			ir.Strands(channel, func(instance, output string) {
				node, ok := g.Node(instance)
				if !ok {
					return
				}
				for _, ctx := range node.Contexts.Contexts() {
					if ctx != sink.Context {
						crossing.Store(backend.Strand{Instance: instance, Output: output}, true)
						return
					}
				}
			})
		}
	}
	var strands []backend.Strand
	for s := range crossing.Keys() {
		strands = append(strands, s)
	}
	// Lexical order, not discovery order: the layout must not churn
	// across recompilations of an unchanged program.
	for i := 1; i < len(strands); i++ {
		for j := i; j > 0 && strands[j].Less(strands[j-1]); j-- {
			strands[j], strands[j-1] = strands[j-1], strands[j]
		}
	}
	layout := &Layout{slots: ordered.NewMap[backend.Strand, int]()}
	for i, s := range strands {
		layout.slots.Store(s, numReserved+i)
	}
	return layout
}

// Slot returns the slot index of a strand.
func (l *Layout) Slot(s backend.Strand) (int, bool) {
	return l.slots.Load(s)
}

// Strands iterates over the allocated strands in slot order.
func (l *Layout) Strands() func(func(backend.Strand, int) bool) {
	return l.slots.Iter()
}

// Size returns the total number of slots, reserved ones included.
func (l *Layout) Size() int {
	return numReserved + l.slots.Size()
}

// Channel is the slot storage. All accesses are atomic on the bit pattern
// of the value: torn reads are impossible, ordering between backends is
// not guaranteed beyond last-write-wins.
type Channel struct {
	layout *Layout
	bits   []uint64
}

// NewChannel returns a zero-initialized channel for a layout.
func NewChannel(layout *Layout) *Channel {
	return &Channel{
		layout: layout,
		bits:   make([]uint64, layout.Size()),
	}
}

// Layout returns the slot layout of the channel.
func (c *Channel) Layout() *Layout {
	return c.layout
}

// Store publishes a value to a slot.
func (c *Channel) Store(slot int, v float64) {
	atomic.StoreUint64(&c.bits[slot], math.Float64bits(v))
}

// Load returns the last value published to a slot, or zero if nothing has
// been written yet.
func (c *Channel) Load(slot int) float64 {
	return math.Float64frombits(atomic.LoadUint64(&c.bits[slot]))
}

// StoreStrand publishes the value of an allocated strand.
func (c *Channel) StoreStrand(s backend.Strand, v float64) error {
	slot, ok := c.layout.Slot(s)
	if !ok {
		return errors.Errorf("no slot allocated for %s", s)
	}
	c.Store(slot, v)
	return nil
}

// Transport is the set of well-known values published every visual frame.
type Transport struct {
	Time     float64
	AbsTime  float64
	Frame    float64
	AbsFrame float64
	PointerX float64
	PointerY float64
}

// StoreTransport publishes the transport values to the reserved slots.
func (c *Channel) StoreTransport(t Transport) {
	c.Store(SlotTime, t.Time)
	c.Store(SlotAbsTime, t.AbsTime)
	c.Store(SlotFrame, t.Frame)
	c.Store(SlotAbsFrame, t.AbsFrame)
	c.Store(SlotPointerX, t.PointerX)
	c.Store(SlotPointerY, t.PointerY)
}
