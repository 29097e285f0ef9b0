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

import "github.com/gx-org/weft/ir"

// Runtime is what the evaluator needs from the runtime environment. The
// engine implements it over the compiled graph and the parameter table.
type Runtime interface {
	// InstanceOutput returns the expression bound to one named output of
	// an instance.
	InstanceOutput(instance, output string) (ir.Expr, bool)

	// Spindle returns a registered spindle definition.
	Spindle(name string) (*ir.SpindleDef, bool)

	// Param returns the current value of a named parameter. Parameters
	// act as ambient globals: a variable that resolves through no
	// lexical scope resolves here.
	Param(name string) (float64, bool)

	// Pointer returns the current pointer state.
	Pointer() Pointer
}
