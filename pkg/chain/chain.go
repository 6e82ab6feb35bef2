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

// Package chain discovers the configuration layers that apply to a file and
// folds them into one option bag.
//
// Building happens in two phases. Discover walks the filesystem and returns
// an ordered list of layers without merging anything; Fold selects each
// layer's env and override blocks and merges the result. Build runs both
// with the ignore check in between.
package chain

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/babelrc/pkg/cache"
	"github.com/walteh/babelrc/pkg/config"
	"github.com/walteh/babelrc/pkg/descriptor"
	"github.com/walteh/babelrc/pkg/options"
	"github.com/walteh/babelrc/pkg/override"
)

// LayerKind says where a layer came from.
type LayerKind string

const (
	LayerRoot      LayerKind = "root"
	LayerRelative  LayerKind = "relative"
	LayerPackage   LayerKind = "package"
	LayerExtends   LayerKind = "extends"
	LayerArguments LayerKind = "arguments"
)

// 📄 Layer is one discovered configuration source, not yet merged
type Layer struct {
	Kind     LayerKind
	Filepath string // empty for programmatic input
	Dirname  string
	Options  options.Bag
}

// Origin names the layer in diagnostics.
func (l Layer) Origin() string {
	if l.Filepath == "" {
		return options.ArgumentsOrigin
	}
	return l.Filepath
}

// Context is the per-call resolution context. All paths are absolute.
type Context struct {
	Cwd      string
	Filename string // optional
	EnvName  string
	Root     string
}

// 🔗 Chain is the folded result of a Build
type Chain struct {
	Options    options.Bag
	Plugins    []*descriptor.Descriptor
	Presets    []*descriptor.Descriptor
	Layers     []Layer
	RootConfig string
	Babelrc    string // nearest file-relative config
	IgnoreFile string
}

// 🏗️ Builder holds the collaborators used to build chains
//
// The zero value reads the OS filesystem, resolves through node_modules and
// matches with doublestar, without caching.
type Builder struct {
	Fs       afero.Fs
	Resolver descriptor.Resolver
	Matcher  override.Matcher
	Cache    *cache.Cache
	Token    string
}

// ✨ Build discovers, checks ignore rules and folds. A nil chain with a nil
// error means the file is ignored.
func (b *Builder) Build(ctx context.Context, args options.Bag, cctx Context) (*Chain, error) {
	logger := zerolog.Ctx(ctx)

	d, err := b.Discover(ctx, args, cctx)
	if err != nil {
		return nil, err
	}

	ignored, err := b.Ignored(ctx, d, cctx)
	if err != nil {
		return nil, err
	}
	if ignored {
		logger.Debug().Str("filename", cctx.Filename).Msg("file is ignored")
		return nil, nil
	}

	return b.Fold(ctx, d, cctx)
}

func (b *Builder) fs() afero.Fs {
	if b.Fs == nil {
		return afero.NewOsFs()
	}
	return b.Fs
}

func (b *Builder) matcher() override.Matcher {
	if b.Matcher == nil {
		return override.DoublestarMatcher{}
	}
	return b.Matcher
}

func (b *Builder) resolver() descriptor.Resolver {
	inner := b.Resolver
	if inner == nil {
		inner = descriptor.NewNodeResolver(b.fs())
	}
	if b.Cache == nil || b.Token == cache.NoCache {
		return inner
	}
	return &cachedResolver{inner: inner, cache: b.Cache, token: b.Token}
}

func (b *Builder) loader() *config.Loader {
	return config.NewLoader(b.fs(), b.Cache, b.Token)
}

type cachedResolver struct {
	inner descriptor.Resolver
	cache *cache.Cache
	token string
}

func (r *cachedResolver) Resolve(kind descriptor.Kind, name, dirname string) (string, error) {
	key := "resolve:" + kind.String() + "\x00" + dirname + "\x00" + name
	return cache.Load(r.cache, r.token, key, func() (string, error) {
		return r.inner.Resolve(kind, name, dirname)
	})
}
