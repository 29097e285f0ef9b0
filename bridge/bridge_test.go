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

package bridge_test

import (
	"sync"
	"testing"

	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/bridge"
	"github.com/gx-org/weft/graph"
	"github.com/gx-org/weft/ir"
	irh "github.com/gx-org/weft/ir/irhelper"
)

func buildLayout(t *testing.T, stmts ...ir.Stmt) *bridge.Layout {
	t.Helper()
	g, err := graph.Build(irh.Program(stmts...))
	if err != nil {
		t.Fatalf("cannot build graph: %v", err)
	}
	return bridge.BuildLayout(g)
}

func TestNoCrossingNoSlots(t *testing.T) {
	layout := buildLayout(t,
		irh.BindOne("a", "v", irh.Me("x")),
		irh.Display(irh.Access("a", "v"), irh.Num(0), irh.Num(0)),
	)
	if layout.Size() != 6 {
		t.Errorf("Size() = %d, want only the 6 reserved transport slots", layout.Size())
	}
	if _, ok := layout.Slot(backend.Strand{Instance: "a", Output: "v"}); ok {
		t.Errorf("a single-context strand got a slot")
	}
}

func TestCrossingStrandGetsSlot(t *testing.T) {
	layout := buildLayout(t,
		irh.BindOne("lfo", "v", irh.Call("sin", irh.Me("time"))),
		irh.Play(irh.Access("lfo", "v")),
		irh.Display(irh.Access("lfo", "v"), irh.Num(0), irh.Num(0)),
	)
	slot, ok := layout.Slot(backend.Strand{Instance: "lfo", Output: "v"})
	if !ok {
		t.Fatalf("crossing strand got no slot")
	}
	if slot != 6 {
		t.Errorf("first dynamic slot = %d, want 6", slot)
	}
	if layout.Size() != 7 {
		t.Errorf("Size() = %d, want 7", layout.Size())
	}
}

// TestLayoutIsLexical checks the allocation is a function of the strand
// names, not of the order sinks mention them.
func TestLayoutIsLexical(t *testing.T) {
	bindings := []ir.Stmt{
		irh.BindOne("beta", "v", irh.Num(1)),
		irh.BindOne("alpha", "w", irh.Num(2)),
		irh.BindOne("alpha", "v", irh.Num(3)),
	}
	forward := buildLayout(t, append(bindings,
		irh.Play(irh.Access("beta", "v")),
		&ir.OutputStmt{Keyword: "play", Named: []ir.NamedArg{
			irh.Named("left", irh.Access("alpha", "w")),
			irh.Named("right", irh.Access("alpha", "v")),
		}},
		irh.Display(irh.Access("beta", "v"), irh.Access("alpha", "w"), irh.Access("alpha", "v")),
	)...)
	reversed := buildLayout(t, append(bindings,
		&ir.OutputStmt{Keyword: "play", Named: []ir.NamedArg{
			irh.Named("left", irh.Access("alpha", "v")),
			irh.Named("right", irh.Access("alpha", "w")),
		}},
		irh.Play(irh.Access("beta", "v")),
		irh.Display(irh.Access("alpha", "v"), irh.Access("alpha", "w"), irh.Access("beta", "v")),
	)...)
	wants := []struct {
		strand backend.Strand
		slot   int
	}{
		{strand: backend.Strand{Instance: "alpha", Output: "v"}, slot: 6},
		{strand: backend.Strand{Instance: "alpha", Output: "w"}, slot: 7},
		{strand: backend.Strand{Instance: "beta", Output: "v"}, slot: 8},
	}
	for _, want := range wants {
		for _, layout := range []*bridge.Layout{forward, reversed} {
			slot, ok := layout.Slot(want.strand)
			if !ok {
				t.Fatalf("%s got no slot", want.strand)
			}
			if slot != want.slot {
				t.Errorf("%s allocated slot %d, want %d", want.strand, slot, want.slot)
			}
		}
	}
}

func TestChannelDefaultsToZero(t *testing.T) {
	layout := buildLayout(t,
		irh.BindOne("lfo", "v", irh.Num(1)),
		irh.Play(irh.Access("lfo", "v")),
		irh.Display(irh.Access("lfo", "v"), irh.Num(0), irh.Num(0)),
	)
	channel := bridge.NewChannel(layout)
	for i := 0; i < layout.Size(); i++ {
		if got := channel.Load(i); got != 0 {
			t.Errorf("slot %d reads %v before any write, want 0", i, got)
		}
	}
}

func TestStoreStrand(t *testing.T) {
	layout := buildLayout(t,
		irh.BindOne("lfo", "v", irh.Num(1)),
		irh.Play(irh.Access("lfo", "v")),
		irh.Display(irh.Access("lfo", "v"), irh.Num(0), irh.Num(0)),
	)
	channel := bridge.NewChannel(layout)
	s := backend.Strand{Instance: "lfo", Output: "v"}
	if err := channel.StoreStrand(s, 0.5); err != nil {
		t.Fatalf("StoreStrand: %v", err)
	}
	slot, _ := layout.Slot(s)
	if got := channel.Load(slot); got != 0.5 {
		t.Errorf("slot reads %v, want 0.5", got)
	}
	if err := channel.StoreStrand(backend.Strand{Instance: "nope", Output: "v"}, 1); err == nil {
		t.Errorf("storing an unallocated strand did not fail")
	}
}

func TestStoreTransport(t *testing.T) {
	channel := bridge.NewChannel(buildLayout(t))
	channel.StoreTransport(bridge.Transport{
		Time:     1.5,
		AbsTime:  11.5,
		Frame:    90,
		AbsFrame: 690,
		PointerX: 0.25,
		PointerY: 0.75,
	})
	wants := []struct {
		slot int
		want float64
	}{
		{slot: bridge.SlotTime, want: 1.5},
		{slot: bridge.SlotAbsTime, want: 11.5},
		{slot: bridge.SlotFrame, want: 90},
		{slot: bridge.SlotAbsFrame, want: 690},
		{slot: bridge.SlotPointerX, want: 0.25},
		{slot: bridge.SlotPointerY, want: 0.75},
	}
	for _, w := range wants {
		if got := channel.Load(w.slot); got != w.want {
			t.Errorf("slot %d reads %v, want %v", w.slot, got, w.want)
		}
	}
}

// TestConcurrentAccess hammers one slot from writer and reader goroutines.
// Reads must always observe a value some writer stored, never a torn word.
func TestConcurrentAccess(t *testing.T) {
	channel := bridge.NewChannel(buildLayout(t))
	stored := map[float64]bool{0: true}
	for i := 1; i <= 4; i++ {
		stored[float64(i)*1.25] = true
	}
	var writers, readers sync.WaitGroup
	stop := make(chan struct{})
	for i := 1; i <= 4; i++ {
		v := float64(i) * 1.25
		writers.Add(1)
		go func() {
			defer writers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					channel.Store(bridge.SlotTime, v)
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for n := 0; n < 10000; n++ {
				if got := channel.Load(bridge.SlotTime); !stored[got] {
					t.Errorf("read %v, which no writer stored", got)
					return
				}
			}
		}()
	}
	readers.Wait()
	close(stop)
	writers.Wait()
}
