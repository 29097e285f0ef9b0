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

package backend

import (
	"github.com/gx-org/weft/base/ordered"
)

// Strand identifies one named output of an instance.
type Strand struct {
	Instance string
	Output   string
}

// String returns the instance@output form of the strand.
func (s Strand) String() string {
	return s.Instance + "@" + s.Output
}

// Less orders strands lexically by instance then output. The bridge slot
// layout depends on this order being a deterministic function of the
// strand names.
func (s Strand) Less(o Strand) bool {
	if s.Instance != o.Instance {
		return s.Instance < o.Instance
	}
	return s.Output < o.Output
}

// RefKind discriminates how a compiled reference to a strand resolves.
type RefKind int

// The reference kinds.
const (
	// RefLocal references code already emitted by the same backend.
	RefLocal RefKind = iota
	// RefSlot reads the last value published to a bridge slot by the
	// backend owning the strand.
	RefSlot
	// RefMedia samples a media resource (texture, sample buffer) at
	// given coordinates.
	RefMedia
)

// Ref is a backend-specific reference to a compiled strand.
type Ref struct {
	Kind RefKind

	// Name of the emitted function or closure key for RefLocal,
	// or of the bound media resource for RefMedia.
	Name string

	// Slot index in the bridge channel for RefSlot.
	Slot int
}

// SymbolTable maps strands to backend-specific references during one
// compilation. It is rebuilt from scratch on every recompilation and is
// never shared between backends.
type SymbolTable struct {
	refs *ordered.Map[Strand, Ref]
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{refs: ordered.NewMap[Strand, Ref]()}
}

// Bind associates a strand with a reference.
func (tbl *SymbolTable) Bind(s Strand, ref Ref) {
	tbl.refs.Store(s, ref)
}

// Resolve returns the reference bound to a strand.
func (tbl *SymbolTable) Resolve(s Strand) (Ref, bool) {
	return tbl.refs.Load(s)
}

// Strands iterates over the bound strands in binding order.
func (tbl *SymbolTable) Strands() func(func(Strand, Ref) bool) {
	return tbl.refs.Iter()
}

// Size returns the number of bound strands.
func (tbl *SymbolTable) Size() int {
	return tbl.refs.Size()
}
