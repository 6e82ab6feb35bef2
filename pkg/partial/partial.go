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

// Package partial loads a caller's options together with every config file
// that applies to them and returns a self-contained result that can be fed
// back in without changing behaviour.
package partial

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/babelrc/pkg/cache"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/chain"
	"github.com/walteh/babelrc/pkg/descriptor"
	"github.com/walteh/babelrc/pkg/env"
	"github.com/walteh/babelrc/pkg/options"
	"github.com/walteh/babelrc/pkg/override"
	"gitlab.com/tozd/go/errors"
)

// consumed are fields whose effect is fully applied during loading.
var consumed = []string{
	options.KeyExtends,
	options.KeyEnv,
	options.KeyOverrides,
	options.KeyRoot,
	options.KeyRootMode,
}

// 🚪 Loader resolves partial configs with a fixed set of collaborators
//
// The zero value uses the OS filesystem, process environment and working
// directory, without caching.
type Loader struct {
	Fs        afero.Fs
	Resolver  descriptor.Resolver
	Matcher   override.Matcher
	Cache     *cache.Cache
	Token     string
	LookupEnv env.LookupFunc
	Getwd     func() (string, error)
}

// Load resolves raw with a zero Loader.
func Load(ctx context.Context, raw map[string]any) (*PartialConfig, error) {
	return (&Loader{}).Load(ctx, raw)
}

// LoadValue accepts any decoded input; anything other than an object or nil
// is rejected.
func (l *Loader) LoadValue(ctx context.Context, raw any) (*PartialConfig, error) {
	switch v := raw.(type) {
	case nil:
		return l.Load(ctx, nil)
	case map[string]any:
		return l.Load(ctx, v)
	default:
		return nil, errors.WithStack(&cfgerr.ValidationError{
			Source:  options.ArgumentsOrigin,
			Message: fmt.Sprintf("options must be an object or null, got %T", raw),
		})
	}
}

// ✨ Load validates raw, builds the config chain and pins the result
//
// A nil result with a nil error means the file is ignored.
func (l *Loader) Load(ctx context.Context, raw map[string]any) (*PartialConfig, error) {
	logger := zerolog.Ctx(ctx)

	args, err := options.Validate(options.KindArguments, raw)
	if err != nil {
		return nil, cfgerr.WithSource(err, options.ArgumentsOrigin)
	}

	cctx, err := l.context(args)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("cwd", cctx.Cwd).
		Str("filename", cctx.Filename).
		Str("env", cctx.EnvName).
		Msg("loading partial config")

	b := &chain.Builder{
		Fs:       l.Fs,
		Resolver: l.Resolver,
		Matcher:  l.Matcher,
		Cache:    l.Cache,
		Token:    l.Token,
	}
	c, err := b.Build(ctx, args, cctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}

	for i, d := range c.Plugins {
		if d.IsInstance() {
			return nil, errors.WithStack(&cfgerr.UnsupportedInputError{
				Field:   fmt.Sprintf("%s[%d]", options.KeyPlugins, i),
				Message: "passing cached plugin instances is not supported when loading a partial config",
			})
		}
	}

	return newPartialConfig(c, cctx), nil
}

func (l *Loader) context(args options.Bag) (chain.Context, error) {
	getwd := l.Getwd
	if getwd == nil {
		getwd = os.Getwd
	}
	wd, err := getwd()
	if err != nil {
		return chain.Context{}, errors.Errorf("getting working directory: %w", err)
	}

	cwd, _ := args.String(options.KeyCwd)
	cctx := chain.Context{Cwd: absolute(cwd, wd)}

	explicit, _ := args.String(options.KeyEnvName)
	cctx.EnvName = env.Name(explicit, l.LookupEnv)

	if filename, ok := args.String(options.KeyFilename); ok && filename != "" {
		cctx.Filename = absolute(filename, cctx.Cwd)
	}

	root, _ := args.String(options.KeyRoot)
	cctx.Root = absolute(root, cctx.Cwd)
	return cctx, nil
}

func absolute(p, base string) string {
	if p == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
