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

// Package fmterr provides helpers to accumulate errors while compiling and
// to format errors given the instance and output they originate from.
//
// Weft has no source positions once the frontend has handed over the tree:
// the locus of a compile error is the (instance, output) pair of the
// strand being compiled.
package fmterr

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type (
	// ErrorWithLocus is an error attached to a strand of the program.
	ErrorWithLocus interface {
		error
		Instance() string
		Output() string
		Unwrap() error
	}

	errorWithLocus struct {
		instance string
		output   string
		err      error
	}
)

// At attaches an instance and output locus to an error.
func At(instance, output string, err error) ErrorWithLocus {
	return errorWithLocus{instance: instance, output: output, err: err}
}

// Errorf returns a formatted compile error located at a strand.
func Errorf(instance, output, format string, a ...any) error {
	return At(instance, output, errors.Errorf(format, a...))
}

// Internal marks an error as internal, adding a report request.
func Internal(err error) error {
	return fmt.Errorf("weft internal error. This is a bug. Please report it. Error:\n%+v", err)
}

// PrefixWith returns a function to prefix errors with a formatted string.
func PrefixWith(s string, o ...any) func(err error) error {
	return func(err error) error {
		return fmt.Errorf("%s%w", fmt.Sprintf(s, o...), err)
	}
}

func (err errorWithLocus) Error() string {
	if err.output == "" {
		return fmt.Sprintf("%s: %s", err.instance, err.err.Error())
	}
	return fmt.Sprintf("%s@%s: %s", err.instance, err.output, err.err.Error())
}

func (err errorWithLocus) Instance() string {
	return err.instance
}

func (err errorWithLocus) Output() string {
	return err.output
}

func (err errorWithLocus) Unwrap() error {
	return err.err
}

// Errors accumulates independent errors so that one broken strand does not
// mask the others.
type Errors struct {
	err error
}

// Append an error to the set. Nil errors are ignored.
func (errs *Errors) Append(err error) {
	errs.err = multierr.Append(errs.err, err)
}

// Appendf appends a formatted error located at a strand.
func (errs *Errors) Appendf(instance, output, format string, a ...any) {
	errs.Append(Errorf(instance, output, format, a...))
}

// Empty returns true if no error has been appended.
func (errs *Errors) Empty() bool {
	return errs.err == nil
}

// ToError returns the accumulated errors, or nil if there are none.
func (errs *Errors) ToError() error {
	return errs.err
}
