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

package interp

// Scope is one frame of the lexical scope stack. Frames link to their
// parent: an evaluation owns the frames it pushes, so two concurrent
// evaluations (the CPU fallback invoked from two backends at once) can
// never corrupt each other's stack.
type Scope struct {
	parent *Scope
	vars   map[string]Value
}

// NewScope returns a new frame on top of parent. Parent may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]Value)}
}

// Define binds a name in this frame, shadowing any outer binding.
func (s *Scope) Define(name string, v Value) {
	s.vars[name] = v
}

// Assign rebinds an existing name, innermost frame first. It returns
// false if the name is not bound in any frame.
func (s *Scope) Assign(name string, v Value) bool {
	for frame := s; frame != nil; frame = frame.parent {
		if _, ok := frame.vars[name]; ok {
			frame.vars[name] = v
			return true
		}
	}
	return false
}

// Find resolves a name, innermost frame first.
func (s *Scope) Find(name string) (Value, bool) {
	for frame := s; frame != nil; frame = frame.parent {
		if v, ok := frame.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}
