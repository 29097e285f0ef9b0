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

package engine

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// Version is the engine's language version, checked against the
// min-version a configuration may require.
const Version = "v0.3.0"

// Config is the engine configuration, read from weft.toml.
type Config struct {
	// MinVersion, when set, rejects engines older than the sessions the
	// file was written for.
	MinVersion string `toml:"min-version"`

	Width  int `toml:"width"`
	Height int `toml:"height"`

	TargetFPS    float64 `toml:"target-fps"`
	LoopDuration float64 `toml:"loop-duration"`

	SampleRate   float64 `toml:"sample-rate"`
	Tempo        float64 `toml:"tempo"`
	TimeSigNum   int     `toml:"timesig-num"`
	TimeSigDenom int     `toml:"timesig-denom"`
}

// DefaultConfig returns the configuration of a fresh session.
func DefaultConfig() Config {
	return Config{
		Width:        800,
		Height:       600,
		TargetFPS:    60,
		LoopDuration: 10,
		SampleRate:   48000,
		Tempo:        120,
		TimeSigNum:   4,
		TimeSigDenom: 4,
	}
}

// LoadConfig reads a configuration file over the defaults and validates
// it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "cannot read config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks the configuration values and the version requirement.
func (cfg Config) Validate() error {
	if cfg.MinVersion != "" {
		if !semver.IsValid(cfg.MinVersion) {
			return errors.Errorf("min-version %q is not a valid semantic version", cfg.MinVersion)
		}
		if semver.Compare(Version, cfg.MinVersion) < 0 {
			return errors.Errorf("config requires engine %s or newer, this is %s", cfg.MinVersion, Version)
		}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.Errorf("invalid resolution %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.TargetFPS <= 0 {
		return errors.Errorf("invalid target-fps %g", cfg.TargetFPS)
	}
	if cfg.LoopDuration <= 0 {
		return errors.Errorf("invalid loop-duration %g", cfg.LoopDuration)
	}
	if cfg.SampleRate <= 0 {
		return errors.Errorf("invalid sample-rate %g", cfg.SampleRate)
	}
	if cfg.Tempo <= 0 {
		return errors.Errorf("invalid tempo %g", cfg.Tempo)
	}
	if cfg.TimeSigNum <= 0 || cfg.TimeSigDenom <= 0 {
		return errors.Errorf("invalid time signature %d/%d", cfg.TimeSigNum, cfg.TimeSigDenom)
	}
	return nil
}

// NewEnvFromConfig builds an environment from a configuration.
func NewEnvFromConfig(cfg Config) *Env {
	env := NewEnv(cfg.Width, cfg.Height)
	env.TargetFPS = cfg.TargetFPS
	env.LoopDuration = cfg.LoopDuration
	env.SampleRate = cfg.SampleRate
	env.Tempo = cfg.Tempo
	env.TimeSigNum = cfg.TimeSigNum
	env.TimeSigDenom = cfg.TimeSigDenom
	return env
}
