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
	"testing"

	"github.com/pkg/errors"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/bridge"
	"github.com/gx-org/weft/graph"
	irh "github.com/gx-org/weft/ir/irhelper"
)

// fakeBackend records the node batches it is asked to compile.
type fakeBackend struct {
	ctx     backend.Context
	batches [][]string
	fail    bool
}

func (f *fakeBackend) Context() backend.Context { return f.ctx }

func (f *fakeBackend) Compile(nodes []*graph.Node, in *CompileInput) error {
	if f.fail {
		return errors.New("fake compile failure")
	}
	var names []string
	for _, node := range nodes {
		names = append(names, node.Name)
	}
	f.batches = append(f.batches, names)
	return nil
}

func (f *fakeBackend) compiled() []string {
	var all []string
	for _, batch := range f.batches {
		all = append(all, batch...)
	}
	return all
}

func TestCompileWithoutBackend(t *testing.T) {
	coord := NewCoordinator(NewEnv(800, 600))
	err := coord.Compile(irh.Program(irh.Display(irh.Num(1), irh.Num(0), irh.Num(0))))
	if err == nil {
		t.Errorf("compiling without a backend did not fail")
	}
}

func TestCompileNoOutput(t *testing.T) {
	coord := NewCoordinator(NewEnv(800, 600))
	coord.AddBackend(&fakeBackend{ctx: backend.Visual})
	err := coord.Compile(irh.Program(irh.BindOne("a", "v", irh.Num(1))))
	if !errors.Is(err, ErrNoOutput) {
		t.Errorf("Compile() = %v, want ErrNoOutput", err)
	}
	if coord.Running() {
		t.Errorf("coordinator reports a running program after a failed compile")
	}
}

func TestBatchesFollowContexts(t *testing.T) {
	vis := &fakeBackend{ctx: backend.Visual}
	aud := &fakeBackend{ctx: backend.Audio}
	coord := NewCoordinator(NewEnv(800, 600))
	coord.AddBackend(vis)
	coord.AddBackend(aud)
	err := coord.Compile(irh.Program(
		irh.BindOne("pic", "v", irh.Me("x")),
		irh.BindOne("osc", "v", irh.Call("sin", irh.Me("time"))),
		irh.Display(irh.Access("pic", "v"), irh.Num(0), irh.Num(0)),
		irh.Play(irh.Access("osc", "v")),
	))
	if err != nil {
		t.Fatalf("cannot compile: %v", err)
	}
	if got := vis.compiled(); len(got) != 1 || got[0] != "pic" {
		t.Errorf("visual backend compiled %v, want [pic]", got)
	}
	if got := aud.compiled(); len(got) != 1 || got[0] != "osc" {
		t.Errorf("audio backend compiled %v, want [osc]", got)
	}
	if !coord.Running() {
		t.Errorf("coordinator is not running after a successful compile")
	}
}

func TestMediaPinsToDeviceContext(t *testing.T) {
	vis := &fakeBackend{ctx: backend.Visual}
	aud := &fakeBackend{ctx: backend.Audio}
	coord := NewCoordinator(NewEnv(800, 600))
	coord.AddBackend(vis)
	coord.AddBackend(aud)
	// The image is only played, but decoding happens where the device
	// lives.
	err := coord.Compile(irh.Program(
		irh.BindOne("img", "r", irh.Call("load_image", irh.Str("cat.png"))),
		irh.Play(irh.Access("img", "r")),
	))
	if err != nil {
		t.Fatalf("cannot compile: %v", err)
	}
	if got := vis.compiled(); len(got) != 1 || got[0] != "img" {
		t.Errorf("visual backend compiled %v, want [img]", got)
	}
	if got := aud.compiled(); len(got) != 0 {
		t.Errorf("audio backend compiled %v, want no nodes", got)
	}
}

func TestFailedCompileKeepsOldProgram(t *testing.T) {
	vis := &fakeBackend{ctx: backend.Visual}
	coord := NewCoordinator(NewEnv(800, 600))
	coord.AddBackend(vis)
	if err := coord.Compile(irh.Program(
		irh.BindOne("a", "v", irh.Num(1)),
		irh.Display(irh.Access("a", "v"), irh.Num(0), irh.Num(0)),
	)); err != nil {
		t.Fatalf("cannot compile: %v", err)
	}
	old, _ := coord.Graph()

	vis.fail = true
	err := coord.Compile(irh.Program(
		irh.BindOne("b", "v", irh.Num(2)),
		irh.Display(irh.Access("b", "v"), irh.Num(0), irh.Num(0)),
	))
	if err == nil {
		t.Fatalf("failing backend did not fail the compile")
	}
	g, ok := coord.Graph()
	if !ok || g != old {
		t.Errorf("a failed compile replaced the running program")
	}
}

func TestFailedCompileKeepsParams(t *testing.T) {
	vis := &fakeBackend{ctx: backend.Visual}
	coord := NewCoordinator(NewEnv(800, 600))
	coord.AddBackend(vis)
	if err := coord.Compile(irh.Program(
		irh.Slider("gain", 0, 1, 0.25),
		irh.BindOne("a", "v", irh.Var("gain")),
		irh.Display(irh.Access("a", "v"), irh.Num(0), irh.Num(0)),
	)); err != nil {
		t.Fatalf("cannot compile: %v", err)
	}
	coord.Params().Set("gain", 0.7)

	// The failing program no longer declares gain. The running program
	// still does, so its cell must survive.
	vis.fail = true
	err := coord.Compile(irh.Program(
		irh.BindOne("b", "v", irh.Num(2)),
		irh.Display(irh.Access("b", "v"), irh.Num(0), irh.Num(0)),
	))
	if err == nil {
		t.Fatalf("failing backend did not fail the compile")
	}
	got, ok := coord.Params().Value("gain")
	if !ok {
		t.Fatalf("the failed recompile dropped the gain cell")
	}
	if got != 0.7 {
		t.Errorf("gain = %v, want the live 0.7", got)
	}
}

func TestRenderPublishesTransportAndSlots(t *testing.T) {
	env, clock := pinnedEnv()
	coord := NewCoordinator(env)
	coord.AddBackend(&fakeBackend{ctx: backend.Visual})
	coord.AddBackend(&fakeBackend{ctx: backend.Compute})
	err := coord.Compile(irh.Program(
		irh.BindOne("c", "v", irh.Num(0.25)),
		irh.Display(irh.Access("c", "v"), irh.Num(0), irh.Num(0)),
		irh.Output("compute", irh.Access("c", "v")),
	))
	if err != nil {
		t.Fatalf("cannot compile: %v", err)
	}
	*clock = 2.5
	coord.SetPointer(0.3, 0.7, 1)
	coord.Render()

	state := coord.state.Load()
	if got := state.channel.Load(bridge.SlotTime); got != 2.5 {
		t.Errorf("time slot = %v, want 2.5", got)
	}
	if got := state.channel.Load(bridge.SlotPointerX); got != 0.3 {
		t.Errorf("pointer x slot = %v, want 0.3", got)
	}
	if got := state.channel.Load(bridge.SlotPointerY); got != 0.7 {
		t.Errorf("pointer y slot = %v, want 0.7", got)
	}
	slot, ok := state.channel.Layout().Slot(backend.Strand{Instance: "c", Output: "v"})
	if !ok {
		t.Fatalf("c@v has no bridge slot")
	}
	if got := state.channel.Load(slot); got != 0.25 {
		t.Errorf("c@v slot = %v, want the published 0.25", got)
	}
}

func TestRenderBeforeCompile(t *testing.T) {
	coord := NewCoordinator(NewEnv(800, 600))
	coord.Render()
	if coord.Running() {
		t.Errorf("coordinator runs without a compiled program")
	}
}
