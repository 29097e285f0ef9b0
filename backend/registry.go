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

// ContextOf maps the keyword of an output statement to the execution
// context consuming its arguments.
func ContextOf(keyword string) (Context, bool) {
	switch keyword {
	case "display", "render", "render_3d":
		return Visual, true
	case "play":
		return Audio, true
	case "compute", "data", "web", "osc", "midi":
		return Compute, true
	}
	return 0, false
}

// MediaContext maps a media builtin to the context owning its device or
// decoder. An instance bound to one of these calls is pinned to that
// context regardless of who consumes it.
func MediaContext(name string) (Context, bool) {
	switch name {
	case "load_image", "load_video", "load_movie", "camera", "camera_in":
		return Visual, true
	case "load_audio", "mic_in", "microphone":
		return Audio, true
	}
	return 0, false
}

// IsMedia returns true if name is a media builtin. A strand remap onto a
// media instance compiles to a native texture or buffer sample.
func IsMedia(name string) bool {
	_, ok := MediaContext(name)
	return ok
}

// AudioOnly returns true for DSP builtins that carry per-sample mutable
// state. They exist only in the audio-block backend: referencing one from
// a visual or compute instance is a fatal compile error, not a silent zero.
func AudioOnly(name string) bool {
	switch name {
	case "whitenoise", "delay", "onepole", "adsr", "drive":
		return true
	}
	return false
}

// Arity of the audio DSP builtins, for compile-time checking.
func audioArity(name string) int {
	switch name {
	case "whitenoise":
		return 0
	case "delay":
		return 3
	case "onepole":
		return 2
	case "adsr":
		return 5
	case "drive":
		return 2
	}
	return -1
}

// AudioArity returns the argument count of an audio DSP builtin and
// whether the name is one.
func AudioArity(name string) (int, bool) {
	n := audioArity(name)
	return n, n >= 0
}

// PureArity returns the argument count of a pure builtin and whether the
// name is one. A count of -1 means variadic (at least one argument).
// Pure builtins are functions of their evaluated arguments only and exist
// in every backend.
func PureArity(name string) (int, bool) {
	switch name {
	case "sin", "cos", "tan", "asin", "acos", "atan",
		"exp", "log", "sqrt", "abs", "sign",
		"floor", "ceil", "round", "fract":
		return 1, true
	case "atan2", "pow", "step":
		return 2, true
	case "clamp", "mix", "smoothstep":
		return 3, true
	case "distance":
		return 4, true
	case "min", "max", "length", "normalize":
		return -1, true
	case "noise":
		return 2, true
	}
	return 0, false
}
