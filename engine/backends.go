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
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/backend/audio"
	"github.com/gx-org/weft/backend/cpu"
	"github.com/gx-org/weft/backend/visual"
	"github.com/gx-org/weft/graph"
)

// VisualBackend adapts the shader compiler to the coordinator.
func VisualBackend(b *visual.Backend) Backend {
	return visualAdapter{b}
}

type visualAdapter struct {
	b *visual.Backend
}

func (a visualAdapter) Context() backend.Context {
	return a.b.Context()
}

func (a visualAdapter) Compile(nodes []*graph.Node, in *CompileInput) error {
	return a.b.Compile(nodes, in.Graph, in.Channel.Layout())
}

// AudioBackend adapts the audio block compiler to the coordinator.
func AudioBackend(b *audio.Backend) Backend {
	return audioAdapter{b}
}

type audioAdapter struct {
	b *audio.Backend
}

func (a audioAdapter) Context() backend.Context {
	return a.b.Context()
}

func (a audioAdapter) Compile(nodes []*graph.Node, in *CompileInput) error {
	return a.b.Compile(nodes, in.Graph, in.Channel, in.Runtime, in.Params)
}

// CPUBackend adapts the closure compiler to the coordinator.
func CPUBackend(b *cpu.Backend) Backend {
	return cpuAdapter{b}
}

type cpuAdapter struct {
	b *cpu.Backend
}

func (a cpuAdapter) Context() backend.Context {
	return a.b.Context()
}

func (a cpuAdapter) Compile(nodes []*graph.Node, in *CompileInput) error {
	return a.b.Compile(nodes, in.Graph, in.Channel, in.Runtime)
}
