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

package audio

import "math"

// maxDelaySeconds bounds the ring buffer of a delay line.
const maxDelaySeconds = 2

// State is the mutable per-voice state of one compiled audio program. Each
// stateful builtin callsite owns one entry in the slice matching its kind,
// assigned at compile time. The render loop advances the sample clock; no
// allocation happens after Compile.
type State struct {
	sampleRate float64

	samples uint64

	// Transport values, refreshed at every block start and advanced per
	// sample within the block.
	time     float64
	absTime  float64
	frame    float64
	absFrame float64
	beat     float64
	measure  float64

	rng      []uint64
	onepoles []float64
	adsrs    []adsrState
	delays   []delayLine
}

type adsrStage int

const (
	stageIdle adsrStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

type adsrState struct {
	stage adsrStage
	level float64
}

type delayLine struct {
	buf []float64
	pos int
}

// stateCounts tallies the stateful callsites found during compilation.
type stateCounts struct {
	rng      int
	onepoles int
	adsrs    int
	delays   int
}

func newState(sampleRate float64, counts stateCounts) *State {
	st := &State{
		sampleRate: sampleRate,
		rng:        make([]uint64, counts.rng),
		onepoles:   make([]float64, counts.onepoles),
		adsrs:      make([]adsrState, counts.adsrs),
		delays:     make([]delayLine, counts.delays),
	}
	for i := range st.rng {
		// Arbitrary odd seeds: xorshift must not start at zero.
		st.rng[i] = uint64(i)*0x9e3779b97f4a7c15 + 0x2545f4914f6cdd1d
	}
	depth := int(sampleRate * maxDelaySeconds)
	for i := range st.delays {
		st.delays[i] = delayLine{buf: make([]float64, depth)}
	}
	return st
}

// SampleRate returns the sample rate the state was sized for.
func (st *State) SampleRate() float64 {
	return st.sampleRate
}

// Samples returns the number of samples rendered since compilation.
func (st *State) Samples() uint64 {
	return st.samples
}

// whitenoise returns the next value in [-1,1] of one generator callsite.
func (st *State) whitenoise(idx int) float64 {
	x := st.rng[idx]
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	st.rng[idx] = x
	return float64(x>>11)/float64(1<<52) - 1
}

// onepole runs a one-pole lowpass: the coefficient derives from the cutoff
// frequency in Hz at the current sample rate.
func (st *State) onepole(idx int, in, cutoff float64) float64 {
	if cutoff < 0 {
		cutoff = 0
	}
	k := 1 - math.Exp(-2*math.Pi*cutoff/st.sampleRate)
	out := st.onepoles[idx] + k*(in-st.onepoles[idx])
	st.onepoles[idx] = out
	return out
}

// adsr runs an attack-decay-sustain-release envelope. The gate opens while
// non-zero; times are in seconds, sustain is a level in [0,1]. A rising
// gate retriggers the attack from the current level, so retriggering never
// clicks.
func (st *State) adsr(idx int, gate, attack, decay, sustain, release float64) float64 {
	env := &st.adsrs[idx]
	dt := 1 / st.sampleRate
	open := gate != 0
	switch {
	case open && (env.stage == stageIdle || env.stage == stageRelease):
		env.stage = stageAttack
	case !open && env.stage != stageIdle:
		env.stage = stageRelease
	}
	switch env.stage {
	case stageAttack:
		env.level += dt / math.Max(attack, dt)
		if env.level >= 1 {
			env.level = 1
			env.stage = stageDecay
		}
	case stageDecay:
		env.level -= dt / math.Max(decay, dt) * (1 - sustain)
		if env.level <= sustain {
			env.level = sustain
			env.stage = stageSustain
		}
	case stageSustain:
		env.level = sustain
	case stageRelease:
		env.level -= dt / math.Max(release, dt)
		if env.level <= 0 {
			env.level = 0
			env.stage = stageIdle
		}
	}
	return env.level
}

// delay runs a feedback delay line. The delay time is in seconds, clamped
// to the buffer depth; feedback is clamped to [0,1).
func (st *State) delay(idx int, in, seconds, feedback float64) float64 {
	line := &st.delays[idx]
	depth := len(line.buf)
	if depth == 0 {
		return in
	}
	n := int(seconds * st.sampleRate)
	if n < 1 {
		n = 1
	}
	if n >= depth {
		n = depth - 1
	}
	if feedback < 0 {
		feedback = 0
	} else if feedback > 0.999 {
		feedback = 0.999
	}
	read := line.pos - n
	if read < 0 {
		read += depth
	}
	out := line.buf[read]
	line.buf[line.pos] = in + out*feedback
	line.pos++
	if line.pos == depth {
		line.pos = 0
	}
	return out
}
