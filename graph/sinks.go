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

package graph

import (
	"github.com/pkg/errors"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/ir"
)

// normalizeSinks expands every output statement into explicit channel
// expressions so that later passes and the compilers only ever see one
// shape. A bare instance name becomes a strand access to the instance's
// declared outputs.
func (g *Graph) normalizeSinks(prog *ir.Program) error {
	for _, stmt := range prog.Outputs() {
		ctx, ok := backend.ContextOf(stmt.Keyword)
		if !ok {
			return errors.Errorf("unknown output keyword: %s", stmt.Keyword)
		}
		var channels []ir.Expr
		var err error
		switch ctx {
		case backend.Visual:
			channels, err = g.visualChannels(stmt)
		case backend.Audio:
			channels, err = g.audioChannels(stmt)
		default:
			for _, arg := range stmt.AllArgs() {
				channels = append(channels, g.resolveArg(arg))
			}
		}
		if err != nil {
			return err
		}
		g.Sinks = append(g.Sinks, &Sink{Keyword: stmt.Keyword, Context: ctx, Channels: channels})
	}
	return nil
}

// visualChannels returns the three channel expressions of a visual sink.
// The single-argument form interprets an instance's output set
// positionally as channels; fewer outputs than channels repeat the last.
func (g *Graph) visualChannels(stmt *ir.OutputStmt) ([]ir.Expr, error) {
	args := stmt.Args
	if len(args) == 0 {
		return nil, errors.Errorf("%s requires at least one argument", stmt.Keyword)
	}
	if len(args) == 1 {
		if channels := g.instanceChannels(args[0], 3); channels != nil {
			return channels, nil
		}
	}
	channels := make([]ir.Expr, 3)
	for i := range channels {
		arg := args[min(i, len(args)-1)]
		channels[i] = g.resolveArg(arg)
	}
	return channels, nil
}

// audioChannels returns the left and right channel expressions of an audio
// sink from its named (left/right/audio) or positional arguments.
func (g *Graph) audioChannels(stmt *ir.OutputStmt) ([]ir.Expr, error) {
	left, leftOK := stmt.Arg("left")
	right, rightOK := stmt.Arg("right")
	if mono, ok := stmt.Arg("audio"); ok {
		left, leftOK = mono, true
		right, rightOK = mono, true
	}
	if leftOK != rightOK {
		if !leftOK {
			left = right
		}
		right = left
		leftOK, rightOK = true, true
	}
	if leftOK && rightOK {
		return []ir.Expr{g.resolveArg(left), g.resolveArg(right)}, nil
	}
	switch len(stmt.Args) {
	case 1:
		mono := g.resolveArg(stmt.Args[0])
		return []ir.Expr{mono, mono}, nil
	case 2:
		return []ir.Expr{g.resolveArg(stmt.Args[0]), g.resolveArg(stmt.Args[1])}, nil
	}
	return nil, errors.Errorf("%s requires 1 or 2 channel arguments", stmt.Keyword)
}

// instanceChannels expands a bare instance reference into strand accesses
// to its declared outputs, padded by repeating the last output.
func (g *Graph) instanceChannels(arg ir.Expr, n int) []ir.Expr {
	varT, ok := arg.(*ir.Var)
	if !ok {
		return nil
	}
	node, ok := g.nodes.Load(varT.Name)
	if !ok || node.Outputs.Size() == 0 {
		return nil
	}
	var outputs []string
	for name := range node.Outputs.Keys() {
		outputs = append(outputs, name)
	}
	channels := make([]ir.Expr, n)
	for i := range channels {
		out := outputs[min(i, len(outputs)-1)]
		channels[i] = &ir.StrandAccess{Instance: node.Name, Output: out}
	}
	return channels
}

// resolveArg rewrites a bare variable naming an instance into a strand
// access to its first declared output. Anything else passes through.
func (g *Graph) resolveArg(arg ir.Expr) ir.Expr {
	varT, ok := arg.(*ir.Var)
	if !ok {
		return arg
	}
	node, ok := g.nodes.Load(varT.Name)
	if !ok {
		return arg
	}
	for name := range node.Outputs.Keys() {
		return &ir.StrandAccess{Instance: node.Name, Output: name}
	}
	return arg
}
