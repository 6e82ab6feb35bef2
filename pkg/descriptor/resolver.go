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

package descriptor

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Resolver turns a module reference into a module path
type Resolver interface {
	// Resolve locates name for kind, relative to dirname
	Resolve(kind Kind, name, dirname string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(kind Kind, name, dirname string) (string, error)

func (f ResolverFunc) Resolve(kind Kind, name, dirname string) (string, error) {
	return f(kind, name, dirname)
}

var (
	pluginSegment = regexp.MustCompile(`babel-plugin(-|$)`)
	presetSegment = regexp.MustCompile(`babel-preset(-|$)`)
)

// StandardizeName expands shorthand names the way configs are written:
//
//	env           -> babel-preset-env
//	@babel/env    -> @babel/preset-env
//	@scope/foo    -> @scope/babel-preset-foo
//	@scope        -> @scope/babel-preset
//	module:foo    -> foo
//
// Relative and absolute paths are left alone.
func StandardizeName(kind Kind, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if rest, ok := strings.CutPrefix(name, "module:"); ok {
		return rest
	}

	typ := kind.String()
	prefix := "babel-" + typ + "-"

	if !strings.HasPrefix(name, "@") {
		if strings.Contains(name, "/") || strings.HasPrefix(name, prefix) {
			return name
		}
		return prefix + name
	}

	scope, rest, hasSlash := strings.Cut(name, "/")
	if !hasSlash {
		if scope == "@babel" {
			return name
		}
		return scope + "/babel-" + typ
	}
	if strings.Contains(rest, "/") {
		return name
	}
	if scope == "@babel" {
		if strings.HasPrefix(rest, typ+"-") {
			return name
		}
		return scope + "/" + typ + "-" + rest
	}

	segment := pluginSegment
	if kind == KindPreset {
		segment = presetSegment
	}
	if segment.MatchString(rest) {
		return name
	}
	return scope + "/" + prefix + rest
}

// 📂 NodeResolver locates modules in node_modules directories above dirname
type NodeResolver struct {
	Fs afero.Fs
}

// NewNodeResolver creates a resolver over fs, defaulting to the OS filesystem.
func NewNodeResolver(fs afero.Fs) *NodeResolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &NodeResolver{Fs: fs}
}

// Resolve implements Resolver.
func (r *NodeResolver) Resolve(kind Kind, name, dirname string) (string, error) {
	standard := StandardizeName(kind, name)

	found, tried, err := r.lookup(standard, dirname)
	if err != nil {
		return "", err
	}
	if found != "" {
		return found, nil
	}

	rerr := &cfgerr.ResolutionError{
		Kind:    kind.String(),
		Name:    name,
		Dirname: dirname,
		Tried:   tried,
	}
	if standard != name {
		if raw, _, _ := r.lookup(name, dirname); raw != "" {
			rerr.Tried = append(rerr.Tried, raw+" exists but is not named like a "+kind.String())
		}
	}
	return "", errors.WithStack(rerr)
}

func (r *NodeResolver) lookup(name, dirname string) (string, []string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") {
		base := name
		if !filepath.IsAbs(base) {
			base = filepath.Join(dirname, name)
		}
		candidates := []string{base, base + ".js", filepath.Join(base, "index.js")}
		for _, c := range candidates {
			ok, err := isFile(r.Fs, c)
			if err != nil {
				return "", nil, errors.Errorf("checking %s: %w", c, err)
			}
			if ok {
				return filepath.Clean(c), candidates, nil
			}
		}
		return "", candidates, nil
	}

	var tried []string
	dir := filepath.Clean(dirname)
	for {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(name))
		tried = append(tried, candidate)
		ok, err := afero.DirExists(r.Fs, candidate)
		if err != nil {
			return "", nil, errors.Errorf("checking %s: %w", candidate, err)
		}
		if ok {
			return candidate, tried, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", tried, nil
		}
		dir = parent
	}
}

func isFile(fsys afero.Fs, path string) (bool, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}
