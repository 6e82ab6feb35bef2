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

// Package env picks the active environment name and the option sub-bag a
// layer declares for it.
package env

import (
	"os"

	"github.com/walteh/babelrc/pkg/options"
)

// DefaultName is used when neither the caller nor the process names an environment.
const DefaultName = "development"

// Variables are consulted in order; the first non-empty value wins.
var Variables = []string{"BABEL_ENV", "NODE_ENV"}

// LookupFunc reads a process environment variable.
type LookupFunc func(key string) (string, bool)

// 🌍 Name resolves the active environment name: explicit, then Variables, then DefaultName
func Name(explicit string, lookup LookupFunc) string {
	if explicit != "" {
		return explicit
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range Variables {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
	}
	return DefaultName
}

// Select returns the sub-bag declared for name, or an empty bag.
func Select(envs map[string]options.Bag, name string) options.Bag {
	if b, ok := envs[name]; ok {
		return b
	}
	return options.Empty()
}
