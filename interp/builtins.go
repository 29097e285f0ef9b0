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

import (
	"math"

	"github.com/gx-org/weft/backend"
)

// CallScalar invokes a pure builtin over flattened scalar arguments. The
// same table serves the evaluator and the closure-compiling backends so
// their results are bit-identical.
func CallScalar(name string, args []float64) (float64, error) {
	arity, ok := backend.PureArity(name)
	if !ok {
		return 0, errorf("unknown builtin: %s", name)
	}
	if arity >= 0 && len(args) != arity {
		return 0, errorf("%s expects %d arguments, got %d", name, arity, len(args))
	}
	if arity < 0 && len(args) == 0 {
		return 0, errorf("%s expects at least one argument", name)
	}
	switch name {
	case "sin":
		return math.Sin(args[0]), nil
	case "cos":
		return math.Cos(args[0]), nil
	case "tan":
		return math.Tan(args[0]), nil
	case "asin":
		return math.Asin(args[0]), nil
	case "acos":
		return math.Acos(args[0]), nil
	case "atan":
		return math.Atan(args[0]), nil
	case "atan2":
		return math.Atan2(args[0], args[1]), nil
	case "pow":
		return math.Pow(args[0], args[1]), nil
	case "exp":
		return math.Exp(args[0]), nil
	case "log":
		return math.Log(args[0]), nil
	case "sqrt":
		return math.Sqrt(args[0]), nil
	case "abs":
		return math.Abs(args[0]), nil
	case "sign":
		return sign(args[0]), nil
	case "floor":
		return math.Floor(args[0]), nil
	case "ceil":
		return math.Ceil(args[0]), nil
	case "round":
		return math.Round(args[0]), nil
	case "fract":
		return args[0] - math.Floor(args[0]), nil
	case "min":
		return fold(math.Min, args), nil
	case "max":
		return fold(math.Max, args), nil
	case "clamp":
		return math.Min(math.Max(args[0], args[1]), args[2]), nil
	case "mix":
		return args[0] + (args[1]-args[0])*args[2], nil
	case "step":
		return boolValue(args[1] >= args[0]), nil
	case "smoothstep":
		return smoothstep(args[0], args[1], args[2]), nil
	case "distance":
		dx, dy := args[2]-args[0], args[3]-args[1]
		return math.Sqrt(dx*dx + dy*dy), nil
	case "length":
		return vecLength(args), nil
	case "normalize":
		// The scalar projection of normalize: the sign. The evaluator
		// handles the tuple form before reaching this table.
		if len(args) != 1 {
			return 0, errorf("normalize over %d scalars has no scalar result", len(args))
		}
		return sign(args[0]), nil
	case "noise":
		return Noise(args[0], args[1]), nil
	}
	return 0, errorf("unknown builtin: %s", name)
}

func sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func fold(f func(a, b float64) float64, args []float64) float64 {
	acc := args[0]
	for _, arg := range args[1:] {
		acc = f(acc, arg)
	}
	return acc
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp01(Div(x-edge0, edge1-edge0))
	return t * t * (3 - 2*t)
}

func vecLength(args []float64) float64 {
	sum := 0.0
	for _, arg := range args {
		sum += arg * arg
	}
	return math.Sqrt(sum)
}

// Noise is a deterministic value noise over a hashed integer lattice with
// smooth bilinear interpolation. The visual backend emits the same
// algorithm in its shader dialect.
func Noise(x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ux := fx * fx * (3 - 2*fx)
	uy := fy * fy * (3 - 2*fy)
	a := latticeHash(x0, y0)
	b := latticeHash(x0+1, y0)
	c := latticeHash(x0, y0+1)
	d := latticeHash(x0+1, y0+1)
	return a + (b-a)*ux + (c-a)*uy + (a-b-c+d)*ux*uy
}

func latticeHash(i, j float64) float64 {
	v := math.Sin(i*127.1+j*311.7) * 43758.5453123
	return v - math.Floor(v)
}
