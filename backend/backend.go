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

// Package backend defines the execution contexts of the Weft engine and the
// symbol resolution shared by the backend expression compilers.
//
// A context names which renderer ultimately consumes an instance's value.
// The graph builder tags every reachable instance with the contexts of the
// output statements it serves; the coordinator uses the tags to decide
// which backends to instantiate and where each instance compiles.
package backend

import "strings"

// Context is the execution domain of a backend.
type Context int

// The execution contexts.
const (
	Visual Context = iota
	Audio
	Compute
	numContexts
)

// String returns the lower-case name of the context.
func (c Context) String() string {
	switch c {
	case Visual:
		return "visual"
	case Audio:
		return "audio"
	case Compute:
		return "compute"
	}
	return "invalid"
}

// ContextSet is a set of execution contexts.
type ContextSet uint8

// Add returns the set with the context added.
func (s ContextSet) Add(c Context) ContextSet {
	return s | 1<<uint(c)
}

// Has returns true if the context belongs to the set.
func (s ContextSet) Has(c Context) bool {
	return s&(1<<uint(c)) != 0
}

// Union returns the union of two sets.
func (s ContextSet) Union(o ContextSet) ContextSet {
	return s | o
}

// Empty returns true if the set has no context.
func (s ContextSet) Empty() bool {
	return s == 0
}

// Len returns the number of contexts in the set.
func (s ContextSet) Len() int {
	n := 0
	for c := Context(0); c < numContexts; c++ {
		if s.Has(c) {
			n++
		}
	}
	return n
}

// Contexts returns the members of the set in declaration order.
func (s ContextSet) Contexts() []Context {
	var cs []Context
	for c := Context(0); c < numContexts; c++ {
		if s.Has(c) {
			cs = append(cs, c)
		}
	}
	return cs
}

// String returns the members of the set joined by commas.
func (s ContextSet) String() string {
	var names []string
	for _, c := range s.Contexts() {
		names = append(names, c.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
