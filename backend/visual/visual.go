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

// Package visual compiles visual-context instances to a fragment shader.
//
// The whole visual program becomes one GLSL ES 3.00 fragment shader: every
// required output of a visual node is emitted as a float function of the
// normalized fragment position, in dependency order, and the display
// statement assembles the output color in main. Cross-context strands read
// a slot of the bridge uniform array; parameters and transport values are
// plain uniforms refreshed every frame by the host.
package visual

import (
	"strings"

	"github.com/tliron/commonlog"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/bridge"
	"github.com/gx-org/weft/fmterr"
	"github.com/gx-org/weft/graph"
)

var log = commonlog.GetLogger("weft.compile.visual")

type (
	// ParamBinding ties a parameter cell to the uniform carrying its value.
	ParamBinding struct {
		Name    string
		Uniform string
	}

	// TextureBinding ties a media instance to its sampler uniform. Source
	// is the first string argument of the media call (a path or device
	// selector).
	TextureBinding struct {
		Instance string
		Uniform  string
		Builtin  string
		Source   string
	}

	// Shader is a compiled visual program ready for the host to link.
	Shader struct {
		Source string

		// NumSlots is the size of the bridge uniform array, reserved
		// transport slots included.
		NumSlots int

		Params   []ParamBinding
		Textures []TextureBinding
	}
)

// Backend compiles the visual context.
type Backend struct {
	shader *Shader
}

// New returns a visual backend.
func New() *Backend {
	return &Backend{}
}

// Context returns the execution context the backend serves.
func (b *Backend) Context() backend.Context {
	return backend.Visual
}

// Shader returns the shader produced by the last successful Compile.
func (b *Backend) Shader() *Shader {
	return b.shader
}

// Compile emits the fragment shader for a batch of nodes. The batch order
// is the execution order, so every emitted function only calls functions
// emitted before it.
func (b *Backend) Compile(nodes []*graph.Node, g *graph.Graph, layout *bridge.Layout) error {
	em := newEmitter(g, layout)
	var errs fmterr.Errors
	for _, node := range nodes {
		for output := range node.Required.Keys() {
			if err := em.emitStrand(backend.Strand{Instance: node.Name, Output: output}); err != nil {
				errs.Append(err)
			}
		}
	}
	sink := lastDisplay(g)
	if sink != nil {
		if err := em.emitMain(sink); err != nil {
			errs.Append(err)
		}
	}
	if !errs.Empty() {
		return errs.ToError()
	}
	b.shader = &Shader{
		Source:   em.source(),
		NumSlots: layout.Size(),
		Params:   em.params,
		Textures: em.textures,
	}
	return nil
}

// lastDisplay returns the visual sink drawn to the screen. With several
// display statements the last one wins, matching the last-write-wins rule
// of the bridge.
func lastDisplay(g *graph.Graph) *graph.Sink {
	var sink *graph.Sink
	n := 0
	for _, s := range g.Sinks {
		if s.Context != backend.Visual {
			continue
		}
		sink = s
		n++
	}
	if n > 1 {
		log.Warningf("%d display statements; only the last one is drawn", n)
	}
	return sink
}

const shaderPrelude = `#version 300 es
precision highp float;

out vec4 o_color;

uniform float u_time;
uniform float u_abstime;
uniform float u_frame;
uniform float u_absframe;
uniform float u_beat;
uniform float u_measure;
uniform vec2 u_resolution;
uniform vec3 u_pointer;

float weft_div(float a, float b) {
	return a / (b == 0.0 ? 1e-9 : b);
}

float weft_mod(float a, float b) {
	b = (b == 0.0 ? 1e-9 : b);
	return mod(mod(a, b) + b, b);
}

float weft_hash(vec2 p) {
	return fract(sin(p.x * 127.1 + p.y * 311.7) * 43758.5453123);
}

float weft_noise(vec2 p) {
	vec2 i = floor(p);
	vec2 f = p - i;
	vec2 u = f * f * (3.0 - 2.0 * f);
	float a = weft_hash(i);
	float b = weft_hash(i + vec2(1.0, 0.0));
	float c = weft_hash(i + vec2(0.0, 1.0));
	float d = weft_hash(i + vec2(1.0, 1.0));
	return a + (b - a) * u.x + (c - a) * u.y + (a - b - c + d) * u.x * u.y;
}
`

// source assembles the final shader text: prelude, declarations gathered
// during emission, then the emitted functions in completion order.
func (em *emitter) source() string {
	var sb strings.Builder
	sb.WriteString(shaderPrelude)
	if em.layout.Size() > 0 {
		sb.WriteString("\nuniform float u_slots[")
		sb.WriteString(itoa(em.layout.Size()))
		sb.WriteString("];\n")
	}
	for _, p := range em.params {
		sb.WriteString("uniform float ")
		sb.WriteString(p.Uniform)
		sb.WriteString(";\n")
	}
	for _, t := range em.textures {
		sb.WriteString("uniform sampler2D ")
		sb.WriteString(t.Uniform)
		sb.WriteString(";\n")
	}
	sb.WriteString("\n")
	sb.WriteString(em.funcs.String())
	sb.WriteString(em.main.String())
	return sb.String()
}
