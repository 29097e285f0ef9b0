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

package visual_test

import (
	"strings"
	"testing"

	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/backend/visual"
	"github.com/gx-org/weft/bridge"
	"github.com/gx-org/weft/graph"
	"github.com/gx-org/weft/ir"
	irh "github.com/gx-org/weft/ir/irhelper"
)

func compileShader(t *testing.T, stmts ...ir.Stmt) *visual.Shader {
	t.Helper()
	b, err := tryCompile(stmts...)
	if err != nil {
		t.Fatalf("cannot compile: %v", err)
	}
	return b.Shader()
}

func tryCompile(stmts ...ir.Stmt) (*visual.Backend, error) {
	g, err := graph.Build(irh.Program(stmts...))
	if err != nil {
		return nil, err
	}
	layout := bridge.BuildLayout(g)
	b := visual.New()
	var batch []*graph.Node
	for _, node := range g.Live() {
		if node.Contexts.Has(backend.Visual) {
			batch = append(batch, node)
		}
	}
	if err := b.Compile(batch, g, layout); err != nil {
		return nil, err
	}
	return b, nil
}

func wantContains(t *testing.T, source string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(source, want) {
			t.Errorf("shader does not contain %q\n%s", want, source)
		}
	}
}

func TestShaderPrelude(t *testing.T) {
	shader := compileShader(t, irh.Display(irh.Num(1), irh.Num(0), irh.Num(0)))
	wantContains(t, shader.Source,
		"#version 300 es",
		"float weft_div(float a, float b)",
		"float weft_mod(float a, float b)",
		"float weft_noise(vec2 p)",
		"uniform vec2 u_resolution;",
		"uniform vec3 u_pointer;",
		"void main() {",
		"vec2 p = gl_FragCoord.xy / u_resolution;",
		"o_color = vec4(1.0, 0.0, 0.0, 1.0);",
	)
}

func TestGuardedOperators(t *testing.T) {
	shader := compileShader(t,
		irh.BindOne("a", "v", irh.Binary(irh.Me("x"), "/", irh.Me("y"))),
		irh.BindOne("b", "v", irh.Binary(irh.Me("x"), "%", irh.Num(2))),
		irh.Display(irh.Access("a", "v"), irh.Access("b", "v"), irh.Num(0)),
	)
	wantContains(t, shader.Source,
		"weft_div(p.x, p.y)",
		"weft_mod(p.x, 2.0)",
	)
}

func TestComparisonAndLogicEncoding(t *testing.T) {
	shader := compileShader(t,
		irh.BindOne("m", "v", irh.Binary(
			irh.Binary(irh.Me("x"), "<", irh.Num(0.5)), "AND",
			irh.Unary("NOT", irh.Me("y")))),
		irh.Display(irh.Access("m", "v"), irh.Num(0), irh.Num(0)),
	)
	wantContains(t, shader.Source,
		"float(p.x < 0.5)",
		"float(!bool(p.y))",
		"&&",
	)
}

func TestStrandFunctionsInDependencyOrder(t *testing.T) {
	shader := compileShader(t,
		irh.BindOne("a", "v", irh.Me("x")),
		irh.BindOne("b", "v", irh.Binary(irh.Access("a", "v"), "*", irh.Num(2))),
		irh.Display(irh.Access("b", "v"), irh.Num(0), irh.Num(0)),
	)
	src := shader.Source
	defA := strings.Index(src, "float weft_a_v(vec2 p)")
	defB := strings.Index(src, "float weft_b_v(vec2 p)")
	if defA < 0 || defB < 0 {
		t.Fatalf("strand functions missing:\n%s", src)
	}
	if defA > defB {
		t.Errorf("dependency emitted after its dependent")
	}
	wantContains(t, src, "(weft_a_v(p) * 2.0)")
}

func TestRemapSubstitutesCoordinates(t *testing.T) {
	shader := compileShader(t,
		irh.BindOne("grad", "v", irh.Me("x")),
		irh.BindOne("c", "v", irh.Remap("grad", "v",
			irh.Mapping("x", irh.Binary(irh.Me("x"), "+", irh.Num(0.1))))),
		irh.Display(irh.Access("c", "v"), irh.Num(0), irh.Num(0)),
	)
	wantContains(t, shader.Source,
		"weft_grad_v(vec2(clamp((p.x + 0.1), 0.0, 1.0), p.y))")
}

func TestSlotReadForAudioStrand(t *testing.T) {
	shader := compileShader(t,
		irh.BindOne("lfo", "v", irh.Call("sin", irh.Me("time"))),
		irh.Play(irh.Access("lfo", "v")),
		irh.Display(irh.Access("lfo", "v"), irh.Num(0), irh.Num(0)),
	)
	if shader.NumSlots != 7 {
		t.Errorf("NumSlots = %d, want the 6 reserved slots plus one", shader.NumSlots)
	}
	wantContains(t, shader.Source,
		"uniform float u_slots[7];",
		"u_slots[6]",
	)
}

func TestTextureBinding(t *testing.T) {
	shader := compileShader(t,
		irh.Bind("img", []string{"r", "g"}, irh.Call("load_image", irh.Str("cat.png"))),
		irh.Display(
			irh.Access("img", "r"),
			irh.Remap("img", "g", irh.Mapping("x", irh.Num(0.5))),
			irh.Num(0)),
	)
	wantContains(t, shader.Source,
		"uniform sampler2D u_tex_img;",
		"texture(u_tex_img, p).r",
		"texture(u_tex_img, vec2(clamp(0.5, 0.0, 1.0), p.y)).g",
	)
	if len(shader.Textures) != 1 {
		t.Fatalf("bound %d textures, want 1", len(shader.Textures))
	}
	tex := shader.Textures[0]
	if tex.Instance != "img" || tex.Builtin != "load_image" || tex.Source != "cat.png" {
		t.Errorf("texture binding = %+v", tex)
	}
}

func TestParamUniform(t *testing.T) {
	shader := compileShader(t,
		irh.BindOne("a", "v", irh.Binary(irh.Var("gain"), "*", irh.Me("x"))),
		irh.Display(irh.Access("a", "v"), irh.Num(0), irh.Num(0)),
	)
	wantContains(t, shader.Source, "uniform float u_param_gain;", "(u_param_gain * p.x)")
	if len(shader.Params) != 1 || shader.Params[0].Name != "gain" || shader.Params[0].Uniform != "u_param_gain" {
		t.Errorf("param bindings = %+v", shader.Params)
	}
}

func TestSpindleInlined(t *testing.T) {
	circle := irh.Spindle("circle", []string{"px", "py", "r"}, []string{"inside"},
		irh.Assign("d", "=", irh.Call("distance", irh.Me("x"), irh.Me("y"), irh.Var("px"), irh.Var("py"))),
		irh.Assign("inside", "=", irh.Binary(irh.Var("d"), "<", irh.Var("r"))),
	)
	shader := compileShader(t,
		circle,
		irh.BindOne("c", "inside", irh.Call("circle", irh.Num(0.5), irh.Num(0.5), irh.Num(0.3))),
		irh.Display(irh.Access("c", "inside"), irh.Num(0), irh.Num(0)),
	)
	wantContains(t, shader.Source,
		"float weft_sp_circle_inside(float v_px, float v_py, float v_r, vec2 p)",
		"float v_inside = 0.0;",
		"float v_d = distance(vec2(p.x, p.y), vec2(v_px, v_py));",
		"v_inside = float(v_d < v_r);",
		"return v_inside;",
		"weft_sp_circle_inside(0.5, 0.5, 0.3, p)",
	)
}

func TestSpindleLoop(t *testing.T) {
	acc := irh.Spindle("acc", nil, []string{"total"},
		irh.ForRange("i", irh.Num(1), irh.Num(3),
			irh.Assign("total", "+=", irh.Var("i")),
		),
	)
	shader := compileShader(t,
		acc,
		irh.BindOne("s", "total", irh.Call("acc")),
		irh.Display(irh.Access("s", "total"), irh.Num(0), irh.Num(0)),
	)
	wantContains(t, shader.Source,
		"int wf1 = int(1.0);",
		"int wt1 = int(3.0);",
		"int ws1 = wf1 <= wt1 ? 1 : -1;",
		"for (int wi1 = wf1; wi1 != wt1 + ws1; wi1 += ws1) {",
		"float v_i = float(wi1);",
		"v_total += v_i;",
	)
}

// A loop variable shadowing a spindle input must get a distinct local.
func TestSpindleLoopShadowsInput(t *testing.T) {
	acc := irh.Spindle("acc", []string{"i"}, []string{"total"},
		irh.ForRange("i", irh.Num(1), irh.Var("i"),
			irh.Assign("total", "+=", irh.Var("i")),
		),
	)
	shader := compileShader(t,
		acc,
		irh.BindOne("s", "total", irh.Call("acc", irh.Num(3))),
		irh.Display(irh.Access("s", "total"), irh.Num(0), irh.Num(0)),
	)
	wantContains(t, shader.Source,
		"float weft_sp_acc_total(float v_i, vec2 p)",
		"int wt1 = int(v_i);",
		"float v_i1 = float(wi1);",
		"v_total += v_i1;",
	)
}

func TestAudioBuiltinFatal(t *testing.T) {
	_, err := tryCompile(
		irh.BindOne("n", "v", irh.Call("whitenoise")),
		irh.Display(irh.Access("n", "v"), irh.Num(0), irh.Num(0)),
	)
	if err == nil {
		t.Errorf("whitenoise in the visual context did not fail")
	}
}

func TestLastDisplayWins(t *testing.T) {
	shader := compileShader(t,
		irh.Display(irh.Num(0.25), irh.Num(0), irh.Num(0)),
		irh.Display(irh.Num(0.75), irh.Num(0), irh.Num(0)),
	)
	wantContains(t, shader.Source, "o_color = vec4(0.75, 0.0, 0.0, 1.0);")
	if strings.Contains(shader.Source, "vec4(0.25") {
		t.Errorf("an earlier display statement leaked into main")
	}
}

func TestBuiltinMapping(t *testing.T) {
	shader := compileShader(t,
		irh.BindOne("a", "v", irh.Call("atan2", irh.Me("y"), irh.Me("x"))),
		irh.BindOne("b", "v", irh.Call("min", irh.Num(1), irh.Num(2), irh.Num(3))),
		irh.BindOne("c", "v", irh.Call("noise", irh.Me("x"), irh.Me("y"))),
		irh.Display(irh.Access("a", "v"), irh.Access("b", "v"), irh.Access("c", "v")),
	)
	wantContains(t, shader.Source,
		"atan(p.y, p.x)",
		"min(min(1.0, 2.0), 3.0)",
		"weft_noise(vec2(p.x, p.y))",
	)
}
