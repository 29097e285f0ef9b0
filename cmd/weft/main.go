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

// The weft command inspects and runs Weft programs given as JSON syntax
// trees produced by a parser frontend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	root := &cobra.Command{
		Use:           "weft",
		Short:         "Weft language compiler and runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		parseCmd(),
		graphCmd(),
		checkCmd(),
		infoCmd(),
		runCmd(),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
