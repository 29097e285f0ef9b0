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

import "fmt"

// RuntimeError is raised when evaluation hits an unresolvable reference:
// an unknown variable, instance output, spindle or builtin. It does not
// crash the render loop: callers catch it per pixel or per sample and
// substitute a neutral value.
type RuntimeError struct {
	msg string
}

// Error returns the message.
func (err *RuntimeError) Error() string {
	return err.msg
}

func errorf(format string, a ...any) *RuntimeError {
	return &RuntimeError{msg: fmt.Sprintf(format, a...)}
}
