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

// Package interp evaluates Weft expressions by walking their tree.
//
// The evaluator is the semantic reference for every compiled backend: a
// backend compiling an expression must produce the same value the
// evaluator produces at the same point context. It is also the execution
// path of the CPU fallback backend.
package interp

import (
	"strconv"
	"strings"
)

type (
	// Value is the result of evaluating an expression.
	Value interface {
		value()
		String() string
	}

	// Scalar is a single number. The language has no other atomic type:
	// booleans are 1 or 0, strings never flow through evaluation.
	Scalar float64

	// Tuple is an ordered group of numbers.
	Tuple []float64
)

func (Scalar) value() {}
func (Tuple) value()  {}

// String formats the scalar.
func (v Scalar) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}

// String formats the tuple.
func (v Tuple) String() string {
	items := make([]string, len(v))
	for i, item := range v {
		items[i] = strconv.FormatFloat(item, 'g', -1, 64)
	}
	return "(" + strings.Join(items, ", ") + ")"
}

// AsScalar converts a value to a single number. A tuple of one element
// converts to that element; wider tuples do not convert.
func AsScalar(v Value) (float64, error) {
	switch vT := v.(type) {
	case Scalar:
		return float64(vT), nil
	case Tuple:
		if len(vT) == 1 {
			return vT[0], nil
		}
		return 0, errorf("cannot use tuple %s as a scalar", vT.String())
	}
	return 0, errorf("cannot use %T as a scalar", v)
}

// Flatten appends the numbers of a value to dst.
func Flatten(dst []float64, v Value) []float64 {
	switch vT := v.(type) {
	case Scalar:
		return append(dst, float64(vT))
	case Tuple:
		return append(dst, vT...)
	}
	return dst
}

// Truthy reports whether a scalar is true: any non-zero value is.
func Truthy(v float64) bool {
	return v != 0
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
