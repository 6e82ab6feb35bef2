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

// Package override decides which file-pattern gated option blocks apply to a
// target file, and answers ignore/only questions with the same pattern rules.
package override

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/options"
)

// Rule is one entry of an `overrides` list.
type Rule = options.Override

// 🎯 Matcher reports whether a slash-separated glob matches a slash-separated path
type Matcher interface {
	Match(pattern, name string) (bool, error)
}

// DoublestarMatcher matches with doublestar semantics (`**` crosses directories).
type DoublestarMatcher struct{}

// Match implements Matcher. A malformed pattern is an error even when name
// would not reach the bad part of it.
func (DoublestarMatcher) Match(pattern, name string) (bool, error) {
	if !doublestar.ValidatePattern(pattern) {
		return false, doublestar.ErrBadPattern
	}
	return doublestar.Match(pattern, name)
}

// MatchesAny reports whether filename matches one of patterns and returns the
// first pattern that did.
//
// A pattern without a separator is matched against the base name only, so it
// names a file anywhere. Other patterns are relative to dirname and also
// match every file below a directory they name.
func MatchesAny(patterns []string, dirname, filename string, m Matcher) (bool, string, error) {
	if filename == "" || len(patterns) == 0 {
		return false, "", nil
	}
	if m == nil {
		m = DoublestarMatcher{}
	}

	target := filepath.ToSlash(filename)

	for _, p := range patterns {
		ok, err := matchOne(m, p, dirname, target)
		if err != nil {
			return false, "", cfgerr.Validation("", "invalid pattern %q: %v", p, err)
		}
		if ok {
			return true, p, nil
		}
	}
	return false, "", nil
}

func matchOne(m Matcher, pattern, dirname, target string) (bool, error) {
	if !strings.Contains(pattern, "/") {
		return m.Match(pattern, path.Base(target))
	}

	abs := strings.TrimSuffix(anchor(pattern, dirname), "/")
	if ok, err := m.Match(abs, target); err != nil || ok {
		return ok, err
	}
	return m.Match(abs+"/**", target)
}

// Anchor makes a separator-bearing pattern absolute against dirname so it
// keeps its meaning when merged into another layer. Base name patterns do not
// depend on dirname and are returned unchanged.
func Anchor(pattern, dirname string) string {
	if !strings.Contains(pattern, "/") {
		return pattern
	}
	return anchor(pattern, dirname)
}

func anchor(pattern, dirname string) string {
	if strings.HasPrefix(pattern, "/") || filepath.IsAbs(pattern) {
		return filepath.ToSlash(pattern)
	}
	joined := path.Join(filepath.ToSlash(dirname), strings.TrimPrefix(pattern, "./"))
	if strings.HasSuffix(pattern, "/") {
		joined += "/"
	}
	return joined
}

// ✨ Active returns the declaration indices of the rules that apply to
// filename, in order. Without a filename no rule applies.
func Active(rules []Rule, dirname, filename string, m Matcher) ([]int, error) {
	if filename == "" || len(rules) == 0 {
		return nil, nil
	}

	var active []int
	for i, rule := range rules {
		ok, err := Applies(rule, dirname, filename, m)
		if err != nil {
			return nil, err
		}
		if ok {
			active = append(active, i)
		}
	}
	return active, nil
}

// Applies reports whether a single rule gates filename in. Every non-empty
// include list (test, include) must match and no exclude pattern may match.
func Applies(rule Rule, dirname, filename string, m Matcher) (bool, error) {
	if filename == "" {
		return false, nil
	}
	for _, include := range [][]string{rule.Test, rule.Include} {
		if len(include) == 0 {
			continue
		}
		ok, _, err := MatchesAny(include, dirname, filename, m)
		if err != nil || !ok {
			return false, err
		}
	}
	excluded, _, err := MatchesAny(rule.Exclude, dirname, filename, m)
	if err != nil {
		return false, err
	}
	return !excluded, nil
}
