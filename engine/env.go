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

// Package engine runs compiled programs: it owns the runtime environment,
// the parameter cells and the coordinator driving the backends.
package engine

import (
	"math"
	"time"
)

// Env is the runtime environment of one session: display resolution,
// program timing and the musical clock. Program time loops over
// LoopDuration; the absolute clock never wraps.
type Env struct {
	ResW, ResH int

	Frame    uint64
	AbsFrame uint64

	// StartTime is the session origin in epoch seconds, set by Start.
	StartTime    float64
	TargetFPS    float64
	LoopDuration float64

	SampleRate float64
	Sample     uint64
	AbsSample  uint64

	Tempo        float64
	TimeSigNum   int
	TimeSigDenom int

	// now is overridable so tests can pin the clock.
	now func() float64
}

// NewEnv returns an environment with the defaults of a fresh session.
func NewEnv(width, height int) *Env {
	return &Env{
		ResW:         width,
		ResH:         height,
		TargetFPS:    60,
		LoopDuration: 10,
		SampleRate:   48000,
		Tempo:        120,
		TimeSigNum:   4,
		TimeSigDenom: 4,
		now:          epochSeconds,
	}
}

func epochSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Start marks the current instant as the session origin.
func (env *Env) Start() {
	env.StartTime = env.now()
}

// AbsTime returns the seconds elapsed since Start.
func (env *Env) AbsTime() float64 {
	return env.now() - env.StartTime
}

// Time returns the looping program time in [0, LoopDuration).
func (env *Env) Time() float64 {
	return math.Mod(env.AbsTime(), env.LoopDuration)
}

// CurrentBeat returns the beat position within the loop at the current
// tempo.
func (env *Env) CurrentBeat() float64 {
	return env.Time() / 60 * env.Tempo
}

// CurrentMeasure returns the measure position within the loop.
func (env *Env) CurrentMeasure() float64 {
	return env.CurrentBeat() / float64(env.TimeSigNum)
}

// BeatPhase returns the fractional part of the current beat.
func (env *Env) BeatPhase() float64 {
	return math.Mod(env.CurrentBeat(), 1)
}

// MeasurePhase returns the fractional part of the current measure.
func (env *Env) MeasurePhase() float64 {
	return math.Mod(env.CurrentMeasure(), 1)
}

// SyncCounters derives the frame and sample counters from the clock. The
// looping counters wrap with program time; the absolute ones do not.
func (env *Env) SyncCounters() {
	absTime := env.AbsTime()
	env.AbsFrame = uint64(absTime * env.TargetFPS)
	env.Frame = uint64(env.Time() * env.TargetFPS)
	env.AbsSample = uint64(absTime * env.SampleRate)
	env.Sample = uint64(env.Time() * env.SampleRate)
}
