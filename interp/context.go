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

// Me is the point context of one evaluation: where and when the
// expression is being evaluated. Spatial coordinates are normalized to
// [0,1]. A strand remap substitutes X and Y; time fields always pass
// through unchanged.
type Me struct {
	X, Y float64

	Time     float64
	AbsTime  float64
	Frame    float64
	AbsFrame float64
	Beat     float64
	Measure  float64
}

// Field returns a point-context field by its surface name.
func (me Me) Field(name string) (float64, error) {
	get, err := MeAccessor(name)
	if err != nil {
		return 0, err
	}
	return get(me), nil
}

// WithAxis returns the point context with one spatial axis substituted.
// The coordinate is clamped to [0,1].
func (me Me) WithAxis(axis string, v float64) (Me, error) {
	v = clamp01(v)
	switch axis {
	case "x":
		me.X = v
	case "y":
		me.Y = v
	default:
		return me, errorf("cannot remap axis %q", axis)
	}
	return me, nil
}

// MeAccessor resolves a point-context field name to its accessor. The
// closure-compiling backends resolve fields once at compile time.
func MeAccessor(name string) (func(Me) float64, error) {
	switch name {
	case "x":
		return func(me Me) float64 { return me.X }, nil
	case "y":
		return func(me Me) float64 { return me.Y }, nil
	case "t", "time":
		return func(me Me) float64 { return me.Time }, nil
	case "abstime":
		return func(me Me) float64 { return me.AbsTime }, nil
	case "frame":
		return func(me Me) float64 { return me.Frame }, nil
	case "absframe":
		return func(me Me) float64 { return me.AbsFrame }, nil
	case "beat":
		return func(me Me) float64 { return me.Beat }, nil
	case "measure":
		return func(me Me) float64 { return me.Measure }, nil
	}
	return nil, errorf("unknown point context field: me@%s", name)
}

// PointerAccessor resolves a pointer field name to its accessor.
func PointerAccessor(name string) (func(Pointer) float64, error) {
	switch name {
	case "x":
		return func(p Pointer) float64 { return p.X }, nil
	case "y":
		return func(p Pointer) float64 { return p.Y }, nil
	case "down":
		return func(p Pointer) float64 { return p.Down }, nil
	}
	return nil, errorf("unknown pointer field: pointer@%s", name)
}

// Pointer is the state of the pointer device. Down is 1 while a button is
// held, 0 otherwise.
type Pointer struct {
	X, Y float64
	Down float64
}

// Field returns a pointer field by its surface name.
func (p Pointer) Field(name string) (float64, error) {
	get, err := PointerAccessor(name)
	if err != nil {
		return 0, err
	}
	return get(p), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
