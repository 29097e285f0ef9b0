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
	"slices"

	"github.com/pkg/errors"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/ir"
)

// markRequired marks every strand referenced by a sink as a required
// output of its node. Remap coordinate expressions are walked too: they
// may reference other instances.
func (g *Graph) markRequired() {
	for _, sink := range g.Sinks {
		for _, channel := range sink.Channels {
			ir.Strands(channel, func(instance, output string) {
				if node, ok := g.nodes.Load(instance); ok {
					node.Required.Store(output, true)
				}
			})
		}
	}
}

// propagateRequired extends the required sets backwards: an output needed
// by a required output is itself required.
func (g *Graph) propagateRequired() {
	type strand struct{ instance, output string }
	var work []strand
	for _, node := range g.nodes.Iter() {
		for output := range node.Required.Keys() {
			work = append(work, strand{node.Name, output})
		}
	}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		node, ok := g.nodes.Load(cur.instance)
		if !ok {
			continue
		}
		deps, _ := node.OutputDeps.Load(cur.output)
		for _, dep := range deps {
			target, ok := g.nodes.Load(dep.Instance)
			if !ok {
				continue
			}
			if target.Required.Has(dep.Output) {
				continue
			}
			target.Required.Store(dep.Output, true)
			work = append(work, strand{dep.Instance, dep.Output})
		}
	}
}

// topoSort orders the nodes with Kahn's algorithm over the dependency
// edges whose target exists as a graph node. The synthetic "self"
// dependency never counts. Placing fewer nodes than exist means the
// remaining nodes form at least one cycle.
func (g *Graph) topoSort() ([]string, error) {
	indegree := make(map[string]int, g.nodes.Size())
	dependents := make(map[string][]string, g.nodes.Size())
	for name, node := range g.nodes.Iter() {
		indegree[name] += 0
		for dep := range node.Deps.Keys() {
			if dep == name {
				// A self-referencing instance is a cycle of one.
				indegree[name]++
				continue
			}
			if _, ok := g.nodes.Load(dep); !ok {
				continue
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for name := range g.nodes.Keys() {
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	order := make([]string, 0, g.nodes.Size())
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if len(order) < g.nodes.Size() {
		var remaining []string
		for name := range g.nodes.Keys() {
			if !slices.Contains(order, name) {
				remaining = append(remaining, name)
			}
		}
		return nil, errors.Wrapf(ErrCircular, "instances %v", remaining)
	}
	return order, nil
}

// tagContexts seeds every instance referenced by a sink with the sink's
// context, then propagates each context to all dependencies transitively.
// The visited memo is a safety net: cycles are already rejected by the
// topological sort.
func (g *Graph) tagContexts() {
	type visit struct {
		name string
		ctx  backend.Context
	}
	seen := make(map[visit]bool)
	var tag func(name string, ctx backend.Context)
	tag = func(name string, ctx backend.Context) {
		if seen[visit{name, ctx}] {
			return
		}
		seen[visit{name, ctx}] = true
		node, ok := g.nodes.Load(name)
		if !ok {
			return
		}
		node.Contexts = node.Contexts.Add(ctx)
		for dep := range node.Deps.Keys() {
			if dep == SelfDep {
				continue
			}
			tag(dep, ctx)
		}
	}
	for _, sink := range g.Sinks {
		for _, channel := range sink.Channels {
			ir.Strands(channel, func(instance, _ string) {
				tag(instance, sink.Context)
			})
		}
	}
}
