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

package interp_test

import (
	"math"
	"testing"

	"github.com/gx-org/weft/interp"
	"github.com/gx-org/weft/ir"
	irh "github.com/gx-org/weft/ir/irhelper"
)

// testRuntime is a runtime over literal maps.
type testRuntime struct {
	outputs  map[string]ir.Expr
	spindles map[string]*ir.SpindleDef
	params   map[string]float64
	pointer  interp.Pointer
}

func (rt *testRuntime) InstanceOutput(instance, output string) (ir.Expr, bool) {
	expr, ok := rt.outputs[instance+"@"+output]
	return expr, ok
}

func (rt *testRuntime) Spindle(name string) (*ir.SpindleDef, bool) {
	def, ok := rt.spindles[name]
	return def, ok
}

func (rt *testRuntime) Param(name string) (float64, bool) {
	v, ok := rt.params[name]
	return v, ok
}

func (rt *testRuntime) Pointer() interp.Pointer {
	return rt.pointer
}

func evalAt(t *testing.T, expr ir.Expr, me interp.Me, rt *testRuntime) float64 {
	t.Helper()
	if rt == nil {
		rt = &testRuntime{}
	}
	v, err := interp.EvalScalar(expr, me, rt, nil)
	if err != nil {
		t.Fatalf("cannot evaluate %s: %v", expr, err)
	}
	return v
}

func TestNumericSafety(t *testing.T) {
	tests := []struct {
		expr ir.Expr
		want float64
	}{
		{expr: irh.Binary(irh.Num(1), "/", irh.Num(0)), want: 1e9},
		{expr: irh.Binary(irh.Num(-1), "/", irh.Num(0)), want: -1e9},
		{expr: irh.Binary(irh.Num(6), "/", irh.Num(3)), want: 2},
		{expr: irh.Binary(irh.Num(-3), "%", irh.Num(5)), want: 2},
		{expr: irh.Binary(irh.Num(7), "%", irh.Num(3)), want: 1},
		{expr: irh.Binary(irh.Num(-7), "%", irh.Num(-3)), want: -1},
		{expr: irh.Binary(irh.Num(2), "^", irh.Num(10)), want: 1024},
	}
	for _, test := range tests {
		if got := evalAt(t, test.expr, interp.Me{}, nil); math.Abs(got-test.want) > 1e-6 {
			t.Errorf("%s = %v, want %v", test.expr, got, test.want)
		}
	}
}

func TestModuloZeroDenominatorFinite(t *testing.T) {
	got := evalAt(t, irh.Binary(irh.Num(3), "%", irh.Num(0)), interp.Me{}, nil)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("3 %% 0 = %v, want a finite value", got)
	}
}

func TestComparisonsAndLogic(t *testing.T) {
	tests := []struct {
		expr ir.Expr
		want float64
	}{
		{expr: irh.Binary(irh.Num(1), "<", irh.Num(2)), want: 1},
		{expr: irh.Binary(irh.Num(2), "<", irh.Num(1)), want: 0},
		{expr: irh.Binary(irh.Num(2), "<=", irh.Num(2)), want: 1},
		{expr: irh.Binary(irh.Num(2), "==", irh.Num(2)), want: 1},
		{expr: irh.Binary(irh.Num(2), "!=", irh.Num(2)), want: 0},
		{expr: irh.Binary(irh.Num(0.5), "AND", irh.Num(2)), want: 1},
		{expr: irh.Binary(irh.Num(0), "AND", irh.Num(2)), want: 0},
		{expr: irh.Binary(irh.Num(0), "OR", irh.Num(-1)), want: 1},
		{expr: irh.Binary(irh.Num(0), "OR", irh.Num(0)), want: 0},
		{expr: irh.Unary("NOT", irh.Num(0)), want: 1},
		{expr: irh.Unary("NOT", irh.Num(-0.5)), want: 0},
		{expr: irh.Unary("-", irh.Num(3)), want: -3},
	}
	for _, test := range tests {
		if got := evalAt(t, test.expr, interp.Me{}, nil); got != test.want {
			t.Errorf("%s = %v, want %v", test.expr, got, test.want)
		}
	}
}

func TestCondPicksBranch(t *testing.T) {
	expr := irh.Cond(irh.Binary(irh.Me("x"), ">", irh.Num(0.5)), irh.Num(10), irh.Num(20))
	if got := evalAt(t, expr, interp.Me{X: 0.9}, nil); got != 10 {
		t.Errorf("conditional at x=0.9 is %v, want 10", got)
	}
	if got := evalAt(t, expr, interp.Me{X: 0.1}, nil); got != 20 {
		t.Errorf("conditional at x=0.1 is %v, want 20", got)
	}
}

func TestMeFields(t *testing.T) {
	me := interp.Me{X: 0.25, Y: 0.75, Time: 1.5, AbsTime: 11.5, Frame: 90, AbsFrame: 690, Beat: 3, Measure: 0.75}
	tests := []struct {
		field string
		want  float64
	}{
		{field: "x", want: 0.25},
		{field: "y", want: 0.75},
		{field: "t", want: 1.5},
		{field: "time", want: 1.5},
		{field: "abstime", want: 11.5},
		{field: "frame", want: 90},
		{field: "absframe", want: 690},
		{field: "beat", want: 3},
		{field: "measure", want: 0.75},
	}
	for _, test := range tests {
		if got := evalAt(t, irh.Me(test.field), me, nil); got != test.want {
			t.Errorf("me@%s = %v, want %v", test.field, got, test.want)
		}
	}
	if _, err := interp.EvalScalar(irh.Me("warp"), me, &testRuntime{}, nil); err == nil {
		t.Errorf("me@warp did not fail")
	}
}

func TestPointerFields(t *testing.T) {
	rt := &testRuntime{pointer: interp.Pointer{X: 0.3, Y: 0.6, Down: 1}}
	for field, want := range map[string]float64{"x": 0.3, "y": 0.6, "down": 1} {
		if got := evalAt(t, irh.Pointer(field), interp.Me{}, rt); got != want {
			t.Errorf("pointer@%s = %v, want %v", field, got, want)
		}
	}
}

func TestStrandAccess(t *testing.T) {
	rt := &testRuntime{outputs: map[string]ir.Expr{
		"a@out": irh.Binary(irh.Num(1), "+", irh.Num(2)),
	}}
	if got := evalAt(t, irh.Access("a", "out"), interp.Me{}, rt); got != 3 {
		t.Errorf("a@out = %v, want 3", got)
	}
	if _, err := interp.EvalScalar(irh.Access("a", "missing"), interp.Me{}, rt, nil); err == nil {
		t.Errorf("accessing a missing output did not fail")
	}
}

func TestRemapSubstitutesAndClamps(t *testing.T) {
	rt := &testRuntime{outputs: map[string]ir.Expr{
		"grad@v": irh.Me("x"),
	}}
	tests := []struct {
		desc string
		x    ir.Expr
		want float64
	}{
		{desc: "substitution", x: irh.Num(0.25), want: 0.25},
		{desc: "clamped high", x: irh.Num(3), want: 1},
		{desc: "clamped low", x: irh.Num(-2), want: 0},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			expr := irh.Remap("grad", "v", irh.Mapping("x", test.x))
			if got := evalAt(t, expr, interp.Me{X: 0.9}, rt); got != test.want {
				t.Errorf("remapped value is %v, want %v", got, test.want)
			}
		})
	}
}

func TestRemapTimePassesThrough(t *testing.T) {
	rt := &testRuntime{outputs: map[string]ir.Expr{
		"clock@v": irh.Me("time"),
	}}
	expr := irh.Remap("clock", "v", irh.Mapping("x", irh.Num(0)))
	if got := evalAt(t, expr, interp.Me{X: 0.9, Time: 4.5}, rt); got != 4.5 {
		t.Errorf("time through a remap is %v, want 4.5", got)
	}
}

func TestRemapCoordinateAtCallerContext(t *testing.T) {
	// The x mapping reads the caller's me@y, not the substituted target
	// coordinates.
	rt := &testRuntime{outputs: map[string]ir.Expr{
		"grad@v": irh.Me("x"),
	}}
	expr := irh.Remap("grad", "v", irh.Mapping("x", irh.Me("y")))
	if got := evalAt(t, expr, interp.Me{X: 0.1, Y: 0.8}, rt); got != 0.8 {
		t.Errorf("remapped value is %v, want the caller's y 0.8", got)
	}
}

func TestVarResolution(t *testing.T) {
	rt := &testRuntime{params: map[string]float64{"gain": 0.7}}
	if got := evalAt(t, irh.Var("gain"), interp.Me{}, rt); got != 0.7 {
		t.Errorf("gain = %v, want 0.7", got)
	}
	if _, err := interp.EvalScalar(irh.Var("ghost"), interp.Me{}, rt, nil); err == nil {
		t.Errorf("unknown variable did not fail")
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		expr ir.Expr
		want float64
	}{
		{expr: irh.Call("sin", irh.Num(0)), want: 0},
		{expr: irh.Call("abs", irh.Num(-4)), want: 4},
		{expr: irh.Call("sign", irh.Num(-4)), want: -1},
		{expr: irh.Call("floor", irh.Num(2.7)), want: 2},
		{expr: irh.Call("fract", irh.Num(2.75)), want: 0.75},
		{expr: irh.Call("min", irh.Num(3), irh.Num(1), irh.Num(2)), want: 1},
		{expr: irh.Call("max", irh.Num(3), irh.Num(1), irh.Num(2)), want: 3},
		{expr: irh.Call("clamp", irh.Num(5), irh.Num(0), irh.Num(1)), want: 1},
		{expr: irh.Call("mix", irh.Num(0), irh.Num(10), irh.Num(0.5)), want: 5},
		{expr: irh.Call("step", irh.Num(0.5), irh.Num(0.7)), want: 1},
		{expr: irh.Call("step", irh.Num(0.5), irh.Num(0.3)), want: 0},
		{expr: irh.Call("step", irh.Num(0.5), irh.Num(0.5)), want: 1},
		{expr: irh.Call("smoothstep", irh.Num(0), irh.Num(1), irh.Num(0.5)), want: 0.5},
		{expr: irh.Call("distance", irh.Num(0), irh.Num(0), irh.Num(3), irh.Num(4)), want: 5},
		{expr: irh.Call("length", irh.Num(3), irh.Num(4)), want: 5},
		{expr: irh.Call("normalize", irh.Num(-7)), want: -1},
		{expr: irh.Call("atan2", irh.Num(1), irh.Num(1)), want: math.Pi / 4},
	}
	for _, test := range tests {
		if got := evalAt(t, test.expr, interp.Me{}, nil); math.Abs(got-test.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", test.expr, got, test.want)
		}
	}
}

func TestNormalizeTuple(t *testing.T) {
	rt := &testRuntime{}
	v, err := interp.Eval(irh.Call("normalize", irh.Num(3), irh.Num(4)), interp.Me{}, rt, nil)
	if err != nil {
		t.Fatalf("cannot normalize: %v", err)
	}
	tuple, ok := v.(interp.Tuple)
	if !ok || len(tuple) != 2 {
		t.Fatalf("normalize returned %v, want a 2-tuple", v)
	}
	if math.Abs(tuple[0]-0.6) > 1e-12 || math.Abs(tuple[1]-0.8) > 1e-12 {
		t.Errorf("normalize(3, 4) = %v, want (0.6, 0.8)", tuple)
	}
}

func TestNoiseDeterministicInRange(t *testing.T) {
	for _, xy := range [][2]float64{{0, 0}, {0.5, 0.5}, {12.3, -4.5}, {100, 100}} {
		a := interp.Noise(xy[0], xy[1])
		b := interp.Noise(xy[0], xy[1])
		if a != b {
			t.Errorf("noise(%v, %v) is not deterministic: %v vs %v", xy[0], xy[1], a, b)
		}
		if a < 0 || a > 1 {
			t.Errorf("noise(%v, %v) = %v, want a value in [0,1]", xy[0], xy[1], a)
		}
	}
}

func TestAudioBuiltinRejected(t *testing.T) {
	_, err := interp.EvalScalar(irh.Call("whitenoise"), interp.Me{}, &testRuntime{}, nil)
	if err == nil {
		t.Errorf("whitenoise outside the audio context did not fail")
	}
}

func TestSpindleCallInExpressionRejected(t *testing.T) {
	rt := &testRuntime{spindles: map[string]*ir.SpindleDef{
		"f": irh.Spindle("f", nil, []string{"out"}),
	}}
	expr := irh.Binary(irh.Call("f"), "+", irh.Num(1))
	if _, err := interp.EvalScalar(expr, interp.Me{}, rt, nil); err == nil {
		t.Errorf("spindle call inside an expression did not fail")
	}
}

func TestCircleSpindle(t *testing.T) {
	// circle(px, py, r) { d = distance(me@x, me@y, px, py); inside = d < r }
	circle := irh.Spindle("circle", []string{"px", "py", "r"}, []string{"inside"},
		irh.Assign("d", "=", irh.Call("distance", irh.Me("x"), irh.Me("y"), irh.Var("px"), irh.Var("py"))),
		irh.Assign("inside", "=", irh.Binary(irh.Var("d"), "<", irh.Var("r"))),
	)
	rt := &testRuntime{
		outputs: map[string]ir.Expr{
			"c@inside": irh.Call("circle", irh.Num(0.5), irh.Num(0.5), irh.Num(0.3)),
		},
		spindles: map[string]*ir.SpindleDef{"circle": circle},
	}
	tests := []struct {
		x, y float64
		want float64
	}{
		{x: 0.5, y: 0.5, want: 1},
		{x: 0, y: 0, want: 0},
	}
	for _, test := range tests {
		v, err := interp.EvalStrand("c", "inside", interp.Me{X: test.x, Y: test.y}, rt)
		if err != nil {
			t.Fatalf("cannot evaluate c@inside: %v", err)
		}
		got, err := interp.AsScalar(v)
		if err != nil {
			t.Fatalf("c@inside is not scalar: %v", err)
		}
		if got != test.want {
			t.Errorf("c@inside at (%v, %v) = %v, want %v", test.x, test.y, got, test.want)
		}
	}
}

func TestSpindleUndeclaredOutputRejected(t *testing.T) {
	def := irh.Spindle("f", nil, []string{"out"},
		irh.Assign("out", "=", irh.Num(1)),
	)
	rt := &testRuntime{
		outputs:  map[string]ir.Expr{"a@other": irh.Call("f")},
		spindles: map[string]*ir.SpindleDef{"f": def},
	}
	if _, err := interp.EvalStrand("a", "other", interp.Me{}, rt); err == nil {
		t.Errorf("selecting an undeclared spindle output did not fail")
	}
}

func TestSpindleCompoundAssignNeedsDefinition(t *testing.T) {
	def := irh.Spindle("f", nil, []string{"out"},
		irh.Assign("ghost", "+=", irh.Num(1)),
	)
	rt := &testRuntime{
		outputs:  map[string]ir.Expr{"a@out": irh.Call("f")},
		spindles: map[string]*ir.SpindleDef{"f": def},
	}
	if _, err := interp.EvalStrand("a", "out", interp.Me{}, rt); err == nil {
		t.Errorf("compound assignment to an undefined variable did not fail")
	}
}

func TestSpindleForLoop(t *testing.T) {
	tests := []struct {
		desc     string
		from, to float64
		want     float64
	}{
		{desc: "ascending", from: 1, to: 4, want: 10},
		{desc: "descending", from: 4, to: 1, want: 10},
		{desc: "single iteration", from: 3, to: 3, want: 3},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			def := irh.Spindle("acc", nil, []string{"sum"},
				irh.ForRange("i", irh.Num(test.from), irh.Num(test.to),
					irh.Assign("sum", "+=", irh.Var("i")),
				),
			)
			rt := &testRuntime{
				outputs:  map[string]ir.Expr{"a@sum": irh.Call("acc")},
				spindles: map[string]*ir.SpindleDef{"acc": def},
			}
			v, err := interp.EvalStrand("a", "sum", interp.Me{}, rt)
			if err != nil {
				t.Fatalf("cannot evaluate a@sum: %v", err)
			}
			got, _ := interp.AsScalar(v)
			if got != test.want {
				t.Errorf("a@sum = %v, want %v", got, test.want)
			}
		})
	}
}

func TestSpindleArityChecked(t *testing.T) {
	def := irh.Spindle("f", []string{"a", "b"}, []string{"out"},
		irh.Assign("out", "=", irh.Binary(irh.Var("a"), "+", irh.Var("b"))),
	)
	rt := &testRuntime{
		outputs:  map[string]ir.Expr{"a@out": irh.Call("f", irh.Num(1))},
		spindles: map[string]*ir.SpindleDef{"f": def},
	}
	if _, err := interp.EvalStrand("a", "out", interp.Me{}, rt); err == nil {
		t.Errorf("spindle call with wrong arity did not fail")
	}
}

func TestTupleScalarConversion(t *testing.T) {
	one := interp.Tuple{42}
	v, err := interp.AsScalar(one)
	if err != nil || v != 42 {
		t.Errorf("AsScalar of a 1-tuple = %v, %v; want 42", v, err)
	}
	if _, err := interp.AsScalar(interp.Tuple{1, 2}); err == nil {
		t.Errorf("AsScalar of a 2-tuple did not fail")
	}
}
