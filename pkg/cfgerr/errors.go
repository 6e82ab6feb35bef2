// Copyright 2025 walteh LLC
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

// Package cfgerr holds the typed failures produced while resolving a
// configuration chain. Every failure is fatal to the call that produced it;
// callers inspect them with errors.As.
package cfgerr

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🚫 ValidationError reports malformed input at a specific field path
type ValidationError struct {
	Path    string // Field path, e.g. overrides[0].plugins[1]
	Source  string // Config file or "<arguments>"
	Message string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		fmt.Fprintf(&b, "%s: ", e.Source)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ".%s ", e.Path)
	}
	b.WriteString(e.Message)
	return b.String()
}

// 🔀 MergeConflictError reports two layers declaring the same field with incompatible shapes
type MergeConflictError struct {
	Field          string
	BaseSource     string
	BaseShape      string
	IncomingSource string
	IncomingShape  string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("cannot merge field %q: %s declares a %s but %s declares a %s",
		e.Field, sourceName(e.BaseSource), e.BaseShape, sourceName(e.IncomingSource), e.IncomingShape)
}

// 📄 ConfigFileError reports a config file that was required but could not be used
type ConfigFileError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config file %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("config file %s: %s", e.Path, e.Reason)
}

func (e *ConfigFileError) Unwrap() error { return e.Err }

// 🔍 ResolutionError reports a plugin or preset reference that cannot be located
type ResolutionError struct {
	Kind    string // plugin or preset
	Name    string
	Dirname string
	Source  string
	Tried   []string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("cannot find %s %q relative to directory %q", e.Kind, e.Name, e.Dirname)
	if len(e.Tried) > 0 {
		msg += fmt.Sprintf(" (tried %s)", strings.Join(e.Tried, ", "))
	}
	if e.Source != "" {
		msg = sourceName(e.Source) + ": " + msg
	}
	return msg
}

// ⛔ UnsupportedInputError reports pre-materialized state passed across a public boundary
type UnsupportedInputError struct {
	Field   string
	Message string
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a stack-carrying ValidationError.
func Validation(path, format string, args ...any) error {
	return errors.WithStack(&ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// WithSource attaches the originating config file to a ValidationError
// found anywhere in err's chain. Other errors are returned untouched.
func WithSource(err error, source string) error {
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Source == "" {
		verr.Source = source
	}
	return err
}

func sourceName(s string) string {
	if s == "" {
		return "<unknown>"
	}
	return s
}
