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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/gx-org/weft/backend"
	"github.com/gx-org/weft/backend/audio"
	"github.com/gx-org/weft/backend/cpu"
	"github.com/gx-org/weft/backend/visual"
	"github.com/gx-org/weft/engine"
	"github.com/gx-org/weft/graph"
	"github.com/gx-org/weft/ir"
	"github.com/gx-org/weft/ir/astjson"
)

func loadProgram(path string) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	prog, err := astjson.DecodeProgram(data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", path)
	}
	return prog, nil
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Decode a program and print its statements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%d statement(s)\n", len(prog.Stmts))
			for _, bind := range prog.Instances() {
				for _, out := range bind.Outputs {
					fmt.Printf("  %s@%s = %s\n", bind.Name, out.Name, out.X)
				}
			}
			for _, out := range prog.Outputs() {
				fmt.Printf("  %s(...)\n", out.Keyword)
			}
			return nil
		},
	}
}

func graphCmd() *cobra.Command {
	var order, verbose bool
	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Build and print the dependency graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			g, err := graph.Build(prog)
			if err != nil {
				return err
			}
			if order {
				fmt.Println("Execution order:")
				for i, name := range g.ExecOrder {
					fmt.Printf("  %d. %s\n", i+1, name)
				}
				return nil
			}
			for _, node := range g.Live() {
				fmt.Printf("%s [%s] contexts=%s\n", node.Name, node.Kind, node.Contexts)
				if !verbose {
					continue
				}
				for output, expr := range node.Outputs.Iter() {
					live := " (dead)"
					if node.Required.Has(output) {
						live = ""
					}
					fmt.Printf("  @%s = %s%s\n", output, expr, live)
				}
				for dep := range node.Deps.Keys() {
					fmt.Printf("  <- %s\n", dep)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&order, "order", "o", false, "print only the execution order")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print outputs and dependencies per node")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("ok: %d statement(s)\n", len(prog.Stmts))
			g, err := graph.Build(prog)
			if err != nil {
				return err
			}
			fmt.Printf("ok: dependency graph, %d node(s) in execution order\n", len(g.ExecOrder))
			if len(g.Sinks) == 0 {
				return engine.ErrNoOutput
			}
			fmt.Printf("ok: %d output statement(s)\n", len(g.Sinks))
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Print program statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("File: %s\n", args[0])
			fmt.Println("Statements:")
			fmt.Printf("  Total: %d\n", len(prog.Stmts))
			fmt.Printf("  Spindle definitions: %d\n", len(prog.Spindles()))
			fmt.Printf("  Instance bindings: %d\n", len(prog.Instances()))
			fmt.Printf("  Output statements: %d\n", len(prog.Outputs()))
			fmt.Printf("  Parameter pragmas: %d\n", len(prog.Pragmas()))
			g, err := graph.Build(prog)
			if err != nil {
				return err
			}
			counts := map[backend.Context]int{}
			for _, node := range g.Live() {
				for _, ctx := range node.Contexts.Contexts() {
					counts[ctx]++
				}
			}
			fmt.Println("Dependency graph:")
			fmt.Printf("  Computation nodes: %d\n", len(g.ExecOrder))
			fmt.Printf("  Visual context nodes: %d\n", counts[backend.Visual])
			fmt.Printf("  Audio context nodes: %d\n", counts[backend.Audio])
			fmt.Printf("  Compute context nodes: %d\n", counts[backend.Compute])
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var configPath string
	var width, height int
	var fps float64
	var frames int
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Compile a program and drive the render loop headless",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			cfg := engine.DefaultConfig()
			if configPath != "" {
				cfg, err = engine.LoadConfig(configPath)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("width") {
				cfg.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Height = height
			}
			if cmd.Flags().Changed("fps") {
				cfg.TargetFPS = fps
			}
			env := engine.NewEnvFromConfig(cfg)

			coord := engine.NewCoordinator(env)
			vis := visual.New()
			aud := audio.New(cfg.SampleRate)
			aud.SetTempo(cfg.Tempo, float64(cfg.TimeSigNum))
			comp := cpu.New(backend.Compute)
			coord.AddBackend(engine.VisualBackend(vis))
			coord.AddBackend(engine.AudioBackend(aud))
			coord.AddBackend(engine.CPUBackend(comp))
			if err := coord.Compile(prog); err != nil {
				return err
			}
			if shader := vis.Shader(); shader != nil {
				fmt.Printf("fragment shader: %d bytes, %d bridge slot(s), %d texture(s)\n",
					len(shader.Source), shader.NumSlots, len(shader.Textures))
			}

			env.Start()
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			tick := time.NewTicker(time.Duration(float64(time.Second) / cfg.TargetFPS))
			defer tick.Stop()
			block := make([]float64, 2*512)
			for i := 0; frames == 0 || i < frames; i++ {
				select {
				case <-interrupt:
					return nil
				case <-tick.C:
				}
				coord.Render()
				aud.Render(block)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "engine configuration file (weft.toml)")
	cmd.Flags().IntVarP(&width, "width", "w", 800, "canvas width")
	cmd.Flags().IntVarP(&height, "height", "H", 600, "canvas height")
	cmd.Flags().Float64VarP(&fps, "fps", "f", 60, "target frame rate")
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "stop after this many frames (0 runs until interrupted)")
	return cmd
}
