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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weft.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("cannot write config: %v", err)
	}
	return path
}

func TestLoadConfigOverDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
width = 1920
height = 1080
tempo = 90
`))
	if err != nil {
		t.Fatalf("cannot load config: %v", err)
	}
	if cfg.Width != 1920 || cfg.Height != 1080 {
		t.Errorf("resolution = %dx%d, want 1920x1080", cfg.Width, cfg.Height)
	}
	if cfg.Tempo != 90 {
		t.Errorf("tempo = %g, want 90", cfg.Tempo)
	}
	// Unset keys keep their defaults.
	if cfg.TargetFPS != 60 || cfg.SampleRate != 48000 {
		t.Errorf("defaults lost: fps=%g rate=%g", cfg.TargetFPS, cfg.SampleRate)
	}
}

func TestMinVersion(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, `min-version = "v0.1.0"`)); err != nil {
		t.Errorf("an older min-version was rejected: %v", err)
	}
	_, err := LoadConfig(writeConfig(t, `min-version = "v99.0.0"`))
	if err == nil || !strings.Contains(err.Error(), "or newer") {
		t.Errorf("a future min-version was accepted: %v", err)
	}
	_, err = LoadConfig(writeConfig(t, `min-version = "latest"`))
	if err == nil {
		t.Errorf("a malformed min-version was accepted")
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		desc string
		edit func(*Config)
	}{
		{desc: "zero width", edit: func(c *Config) { c.Width = 0 }},
		{desc: "negative fps", edit: func(c *Config) { c.TargetFPS = -1 }},
		{desc: "zero loop", edit: func(c *Config) { c.LoopDuration = 0 }},
		{desc: "zero sample rate", edit: func(c *Config) { c.SampleRate = 0 }},
		{desc: "zero tempo", edit: func(c *Config) { c.Tempo = 0 }},
		{desc: "zero time signature", edit: func(c *Config) { c.TimeSigNum = 0 }},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			cfg := DefaultConfig()
			test.edit(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("invalid config passed validation")
			}
		})
	}
}

func TestNewEnvFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 1024, 768
	cfg.Tempo = 140
	cfg.LoopDuration = 8
	env := NewEnvFromConfig(cfg)
	if env.ResW != 1024 || env.ResH != 768 {
		t.Errorf("resolution = %dx%d, want 1024x768", env.ResW, env.ResH)
	}
	if env.Tempo != 140 || env.LoopDuration != 8 {
		t.Errorf("tempo=%g loop=%g, want 140 and 8", env.Tempo, env.LoopDuration)
	}
}
