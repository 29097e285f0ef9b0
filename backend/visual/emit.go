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

package visual

import (
	"strconv"
	"strings"

	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/base/uname"
	"github.com/gx-org/weft/bridge"
	"github.com/gx-org/weft/fmterr"
	"github.com/gx-org/weft/graph"
	"github.com/gx-org/weft/ir"
)

// emitter holds the state of one shader emission: the function text built
// so far, the strands already emitted and the uniforms discovered while
// walking the trees.
type emitter struct {
	g      *graph.Graph
	layout *bridge.Layout

	funcs strings.Builder
	main  strings.Builder

	emitted  map[backend.Strand]string
	spindles map[string]bool

	params    []ParamBinding
	paramSeen map[string]string
	textures  []TextureBinding
	texSeen   map[string]string

	tmp int

	// Local names of the spindle function being emitted. Distinct source
	// names can sanitize to the same identifier.
	names *uname.Unique

	// Current strand, for error loci.
	curInstance string
	curOutput   string
}

// scope tracks the local variables of a spindle body during emission.
// Lookup walks the parent chain; declarations go to the innermost frame.
type scope struct {
	parent *scope
	vars   map[string]string
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: map[string]string{}}
}

func (sc *scope) find(name string) (string, bool) {
	for s := sc; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return "", false
}

func newEmitter(g *graph.Graph, layout *bridge.Layout) *emitter {
	return &emitter{
		g:         g,
		layout:    layout,
		emitted:   map[backend.Strand]string{},
		spindles:  map[string]bool{},
		paramSeen: map[string]string{},
		texSeen:   map[string]string{},
	}
}

func (em *emitter) errorf(format string, a ...any) error {
	return fmterr.Errorf(em.curInstance, em.curOutput, format, a...)
}

// degrade logs a warning and emits the neutral element, keeping the rest
// of the shader compilable.
func (em *emitter) degrade(format string, a ...any) string {
	log.Warningf("%s@%s: "+format, append([]any{em.curInstance, em.curOutput}, a...)...)
	return "0.0"
}

// emitStrand emits one float function per required output. Dependencies
// are emitted first through recursion, so the text is in definition order.
func (em *emitter) emitStrand(s backend.Strand) error {
	if _, ok := em.emitted[s]; ok {
		return nil
	}
	node, ok := em.g.Node(s.Instance)
	if !ok {
		return fmterr.Errorf(s.Instance, s.Output, "unknown instance")
	}
	expr, ok := node.Outputs.Load(s.Output)
	if !ok {
		return fmterr.Errorf(s.Instance, s.Output, "instance declares no output %q", s.Output)
	}
	prevI, prevO := em.curInstance, em.curOutput
	em.curInstance, em.curOutput = s.Instance, s.Output
	defer func() { em.curInstance, em.curOutput = prevI, prevO }()

	name := "weft_" + sanitize(s.Instance) + "_" + sanitize(s.Output)
	var body string
	var err error
	switch {
	case node.Kind == graph.KindBuiltin && isMediaBinding(expr):
		body = em.sampleTexture(node, expr.(*ir.Call), s.Output, "p")
	case isSpindleBinding(em.g, expr):
		body, err = em.spindleCallExpr(expr.(*ir.Call), s.Output, "p")
	default:
		body, err = em.emitExpr(expr, nil, "p")
	}
	if err != nil {
		return err
	}
	em.funcs.WriteString("float " + name + "(vec2 p) {\n\treturn " + body + ";\n}\n\n")
	em.emitted[s] = name
	return nil
}

func isMediaBinding(expr ir.Expr) bool {
	call, ok := expr.(*ir.Call)
	return ok && backend.IsMedia(call.Name)
}

func isSpindleBinding(g *graph.Graph, expr ir.Expr) bool {
	call, ok := expr.(*ir.Call)
	return ok && g.IsSpindle(call.Name)
}

// emitMain assembles the display channels into the fragment color.
func (em *emitter) emitMain(sink *graph.Sink) error {
	em.curInstance, em.curOutput = sink.Keyword, ""
	em.main.WriteString("void main() {\n\tvec2 p = gl_FragCoord.xy / u_resolution;\n")
	comps := make([]string, len(sink.Channels))
	for i, channel := range sink.Channels {
		s, err := em.emitExpr(channel, nil, "p")
		if err != nil {
			return err
		}
		comps[i] = s
	}
	for len(comps) < 3 {
		comps = append(comps, "0.0")
	}
	em.main.WriteString("\to_color = vec4(" + comps[0] + ", " + comps[1] + ", " + comps[2] + ", 1.0);\n}\n")
	return nil
}

// emitExpr returns the GLSL expression of an IR tree evaluated at point p.
func (em *emitter) emitExpr(expr ir.Expr, sc *scope, p string) (string, error) {
	switch exprT := expr.(type) {
	case *ir.Num:
		return formatFloat(exprT.V), nil
	case *ir.Str:
		return em.degrade("string literal %s has no scalar value", exprT.String()), nil
	case *ir.Tuple:
		if len(exprT.Items) == 0 {
			return em.degrade("empty tuple"), nil
		}
		return em.emitExpr(exprT.Items[0], sc, p)
	case *ir.Unary:
		return em.emitUnary(exprT, sc, p)
	case *ir.Binary:
		return em.emitBinary(exprT, sc, p)
	case *ir.Cond:
		return em.emitCond(exprT, sc, p)
	case *ir.Me:
		return em.emitMe(exprT, p)
	case *ir.Pointer:
		return em.emitPointer(exprT)
	case *ir.StrandAccess:
		return em.emitRef(backend.Strand{Instance: exprT.Instance, Output: exprT.Output}, p)
	case *ir.StrandRemap:
		return em.emitRemap(exprT, sc, p)
	case *ir.Call:
		return em.emitCall(exprT, sc, p)
	case *ir.Var:
		return em.emitVar(exprT, sc), nil
	}
	return em.degrade("cannot emit node %T", expr), nil
}

func (em *emitter) emitUnary(expr *ir.Unary, sc *scope, p string) (string, error) {
	x, err := em.emitExpr(expr.X, sc, p)
	if err != nil {
		return "", err
	}
	switch expr.Op {
	case "-":
		return "(-" + x + ")", nil
	case "+":
		return x, nil
	case "NOT":
		return "float(!bool(" + x + "))", nil
	}
	return em.degrade("unknown unary operator %s", expr.Op), nil
}

func (em *emitter) emitBinary(expr *ir.Binary, sc *scope, p string) (string, error) {
	x, err := em.emitExpr(expr.X, sc, p)
	if err != nil {
		return "", err
	}
	y, err := em.emitExpr(expr.Y, sc, p)
	if err != nil {
		return "", err
	}
	switch expr.Op {
	case "+", "-", "*":
		return "(" + x + " " + expr.Op + " " + y + ")", nil
	case "/":
		return "weft_div(" + x + ", " + y + ")", nil
	case "%":
		return "weft_mod(" + x + ", " + y + ")", nil
	case "^":
		return "pow(" + x + ", " + y + ")", nil
	case "==", "!=", "<", ">", "<=", ">=":
		return "float(" + x + " " + expr.Op + " " + y + ")", nil
	case "AND":
		return "float(bool(" + x + ") && bool(" + y + "))", nil
	case "OR":
		return "float(bool(" + x + ") || bool(" + y + "))", nil
	}
	return em.degrade("unknown binary operator %s", expr.Op), nil
}

func (em *emitter) emitCond(expr *ir.Cond, sc *scope, p string) (string, error) {
	c, err := em.emitExpr(expr.If, sc, p)
	if err != nil {
		return "", err
	}
	t, err := em.emitExpr(expr.Then, sc, p)
	if err != nil {
		return "", err
	}
	e, err := em.emitExpr(expr.Else, sc, p)
	if err != nil {
		return "", err
	}
	return "(bool(" + c + ") ? " + t + " : " + e + ")", nil
}

func (em *emitter) emitMe(expr *ir.Me, p string) (string, error) {
	switch expr.Field {
	case "x":
		return p + ".x", nil
	case "y":
		return p + ".y", nil
	case "t", "time":
		return "u_time", nil
	case "abstime":
		return "u_abstime", nil
	case "frame":
		return "u_frame", nil
	case "absframe":
		return "u_absframe", nil
	case "beat":
		return "u_beat", nil
	case "measure":
		return "u_measure", nil
	}
	return em.degrade("unknown point context field: me@%s", expr.Field), nil
}

func (em *emitter) emitPointer(expr *ir.Pointer) (string, error) {
	switch expr.Field {
	case "x":
		return "u_pointer.x", nil
	case "y":
		return "u_pointer.y", nil
	case "down":
		return "u_pointer.z", nil
	}
	return em.degrade("unknown pointer field: pointer@%s", expr.Field), nil
}

// emitRef resolves a strand reference at point p: a media instance becomes
// a texture sample, an in-domain strand a function call, a cross-domain
// strand a slot read.
func (em *emitter) emitRef(target backend.Strand, p string) (string, error) {
	node, ok := em.g.Node(target.Instance)
	if !ok {
		return em.degrade("unknown instance %s", target.Instance), nil
	}
	if node.Kind == graph.KindBuiltin {
		if expr, ok := node.Outputs.Load(target.Output); ok && isMediaBinding(expr) {
			return em.sampleTexture(node, expr.(*ir.Call), target.Output, p), nil
		}
	}
	if node.Contexts.Has(backend.Audio) {
		// Audio owns the strand and refreshes its slot once per block.
		if slot, ok := em.layout.Slot(target); ok {
			return "u_slots[" + itoa(slot) + "]", nil
		}
	}
	if node.Contexts.Has(backend.Visual) {
		if err := em.emitStrand(target); err != nil {
			return "", err
		}
		return em.emitted[target] + "(" + p + ")", nil
	}
	if slot, ok := em.layout.Slot(target); ok {
		return "u_slots[" + itoa(slot) + "]", nil
	}
	return em.degrade("%s is owned by %s and has no bridge slot", target, node.Contexts), nil
}

func (em *emitter) emitRemap(expr *ir.StrandRemap, sc *scope, p string) (string, error) {
	px, py := p+".x", p+".y"
	for _, mapping := range expr.Mappings {
		v, err := em.emitExpr(mapping.X, sc, p)
		if err != nil {
			return "", err
		}
		switch mapping.Axis {
		case "x":
			px = "clamp(" + v + ", 0.0, 1.0)"
		case "y":
			py = "clamp(" + v + ", 0.0, 1.0)"
		default:
			return em.degrade("cannot remap axis %q", mapping.Axis), nil
		}
	}
	return em.emitRef(backend.Strand{Instance: expr.Instance, Output: expr.Output}, "vec2("+px+", "+py+")")
}

// sampleTexture samples the texture bound to a media instance, selecting
// the color component matching the output name.
func (em *emitter) sampleTexture(node *graph.Node, call *ir.Call, output, p string) string {
	uniform, ok := em.texSeen[node.Name]
	if !ok {
		uniform = "u_tex_" + sanitize(node.Name)
		em.texSeen[node.Name] = uniform
		em.textures = append(em.textures, TextureBinding{
			Instance: node.Name,
			Uniform:  uniform,
			Builtin:  call.Name,
			Source:   mediaSource(call),
		})
	}
	return "texture(" + uniform + ", " + p + ")." + textureComponent(output)
}

func mediaSource(call *ir.Call) string {
	for _, arg := range call.Args {
		if str, ok := arg.(*ir.Str); ok {
			return str.V
		}
	}
	return ""
}

func textureComponent(output string) string {
	switch output {
	case "g", "y":
		return "g"
	case "b", "z":
		return "b"
	case "a", "w":
		return "a"
	}
	return "r"
}

func (em *emitter) emitCall(expr *ir.Call, sc *scope, p string) (string, error) {
	if em.g.IsSpindle(expr.Name) {
		return "", em.errorf("spindle %s cannot be called inside an expression", expr.Name)
	}
	if backend.AudioOnly(expr.Name) {
		// Fatal, never a silent zero: the program asked for audio state
		// in a context that has none.
		return "", em.errorf("%s is only available in the audio context", expr.Name)
	}
	arity, ok := backend.PureArity(expr.Name)
	if !ok {
		return em.degrade("unknown builtin %s", expr.Name), nil
	}
	if arity >= 0 && len(expr.Args) != arity {
		return "", em.errorf("%s expects %d arguments, got %d", expr.Name, arity, len(expr.Args))
	}
	args := make([]string, len(expr.Args))
	for i, argExpr := range expr.Args {
		arg, err := em.emitExpr(argExpr, sc, p)
		if err != nil {
			return "", err
		}
		args[i] = arg
	}
	return em.emitBuiltin(expr.Name, args)
}

// emitBuiltin maps a pure builtin to its GLSL rendition. Most map
// directly; the rest are spelled out against the shared numeric rules.
func (em *emitter) emitBuiltin(name string, args []string) (string, error) {
	switch name {
	case "sin", "cos", "tan", "asin", "acos", "atan", "pow", "exp", "log",
		"sqrt", "abs", "sign", "floor", "ceil", "round", "fract",
		"clamp", "mix", "step", "smoothstep":
		return name + "(" + strings.Join(args, ", ") + ")", nil
	case "atan2":
		return "atan(" + args[0] + ", " + args[1] + ")", nil
	case "min", "max":
		if len(args) == 0 {
			return "", em.errorf("%s expects at least one argument", name)
		}
		acc := args[0]
		for _, arg := range args[1:] {
			acc = name + "(" + acc + ", " + arg + ")"
		}
		return acc, nil
	case "distance":
		return "distance(vec2(" + args[0] + ", " + args[1] + "), vec2(" + args[2] + ", " + args[3] + "))", nil
	case "length":
		switch len(args) {
		case 0:
			return "", em.errorf("length expects at least one argument")
		case 1:
			return "abs(" + args[0] + ")", nil
		case 2, 3, 4:
			return "length(vec" + itoa(len(args)) + "(" + strings.Join(args, ", ") + "))", nil
		}
		terms := make([]string, len(args))
		for i, arg := range args {
			terms[i] = "(" + arg + ") * (" + arg + ")"
		}
		return "sqrt(" + strings.Join(terms, " + ") + ")", nil
	case "normalize":
		switch len(args) {
		case 0:
			return "", em.errorf("normalize expects at least one argument")
		case 1:
			return "sign(" + args[0] + ")", nil
		case 2, 3, 4:
			return "normalize(vec" + itoa(len(args)) + "(" + strings.Join(args, ", ") + ")).x", nil
		}
		return "", em.errorf("normalize over %d scalars has no scalar result", len(args))
	case "noise":
		return "weft_noise(vec2(" + args[0] + ", " + args[1] + "))", nil
	}
	return em.degrade("unknown builtin %s", name), nil
}

func (em *emitter) emitVar(expr *ir.Var, sc *scope) string {
	if sc != nil {
		if local, ok := sc.find(expr.Name); ok {
			return local
		}
	}
	uniform, ok := em.paramSeen[expr.Name]
	if !ok {
		uniform = "u_param_" + sanitize(expr.Name)
		em.paramSeen[expr.Name] = uniform
		em.params = append(em.params, ParamBinding{Name: expr.Name, Uniform: uniform})
	}
	return uniform
}

func sanitize(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// formatFloat renders a number as a GLSL float literal.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}
