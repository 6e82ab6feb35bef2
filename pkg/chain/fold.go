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

package chain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/descriptor"
	"github.com/walteh/babelrc/pkg/env"
	"github.com/walteh/babelrc/pkg/options"
	"github.com/walteh/babelrc/pkg/override"
	"gitlab.com/tozd/go/errors"
)

// piece is one option block of a layer that applies to the current file.
type piece struct {
	path string // field path inside the layer, "" for the base
	bag  options.Bag
}

// pieces returns a layer's applicable blocks in fold order: base, each
// active override followed by its env block, the env block, then the env
// block's active overrides.
func (b *Builder) pieces(l Layer, cctx Context) ([]piece, error) {
	m := b.matcher()
	out := []piece{{bag: structural(l.Options)}}

	rules := l.Options.Overrides()
	active, err := override.Active(rules, l.Dirname, cctx.Filename, m)
	if err != nil {
		return nil, cfgerr.WithSource(err, l.Origin())
	}
	for _, i := range active {
		rule := rules[i]
		path := fmt.Sprintf("%s[%d]", options.KeyOverrides, i)
		out = append(out, piece{path: path, bag: structural(rule.Options)})
		if e := env.Select(rule.Options.Env(), cctx.EnvName); !e.IsEmpty() {
			out = append(out, piece{path: path + ".env." + cctx.EnvName, bag: structural(e)})
		}
	}

	e := env.Select(l.Options.Env(), cctx.EnvName)
	if e.IsEmpty() {
		return out, nil
	}
	envPath := options.KeyEnv + "." + cctx.EnvName
	out = append(out, piece{path: envPath, bag: structural(e)})

	envRules := e.Overrides()
	active, err = override.Active(envRules, l.Dirname, cctx.Filename, m)
	if err != nil {
		return nil, cfgerr.WithSource(err, l.Origin())
	}
	for _, i := range active {
		path := fmt.Sprintf("%s.%s[%d]", envPath, options.KeyOverrides, i)
		out = append(out, piece{path: path, bag: structural(envRules[i].Options)})
	}
	return out, nil
}

// structural strips the fields the chain consumes itself.
func structural(b options.Bag) options.Bag {
	return b.Without(options.KeyEnv, options.KeyOverrides, options.KeyExtends)
}

// 🙈 Ignored reports whether the file is excluded by the ignore file or by
// any applicable ignore/only list. Without a filename nothing is ignored.
func (b *Builder) Ignored(ctx context.Context, d *Discovery, cctx Context) (bool, error) {
	if cctx.Filename == "" {
		return false, nil
	}
	logger := zerolog.Ctx(ctx)
	m := b.matcher()

	if d.IgnoreFile != nil {
		hit, pattern, err := override.MatchesAny(d.IgnoreFile.Patterns, d.IgnoreFile.Dirname, cctx.Filename, m)
		if err != nil {
			return false, cfgerr.WithSource(err, d.IgnoreFile.Path)
		}
		if hit {
			logger.Debug().Str("pattern", pattern).Str("source", d.IgnoreFile.Path).Msg("ignored by ignore file")
			return true, nil
		}
	}

	for _, l := range d.Layers {
		pieces, err := b.pieces(l, cctx)
		if err != nil {
			return false, err
		}
		for _, p := range pieces {
			hit, pattern, err := override.MatchesAny(p.bag.Strings(options.KeyIgnore), l.Dirname, cctx.Filename, m)
			if err != nil {
				return false, cfgerr.WithSource(err, l.Origin())
			}
			if hit {
				logger.Debug().Str("pattern", pattern).Str("source", l.Origin()).Msg("ignored by ignore option")
				return true, nil
			}

			only := p.bag.Strings(options.KeyOnly)
			if len(only) == 0 {
				continue
			}
			hit, _, err = override.MatchesAny(only, l.Dirname, cctx.Filename, m)
			if err != nil {
				return false, cfgerr.WithSource(err, l.Origin())
			}
			if !hit {
				logger.Debug().Strs("only", only).Str("source", l.Origin()).Msg("not matched by only option")
				return true, nil
			}
		}
	}
	return false, nil
}

// 🔀 Fold merges every layer's applicable blocks, lowest precedence first.
func (b *Builder) Fold(ctx context.Context, d *Discovery, cctx Context) (*Chain, error) {
	logger := zerolog.Ctx(ctx)
	r := b.resolver()

	acc := options.Empty()
	for _, l := range d.Layers {
		pieces, err := b.pieces(l, cctx)
		if err != nil {
			return nil, err
		}

		effective := options.Empty()
		for _, p := range pieces {
			prepared, err := prepare(l, p, r)
			if err != nil {
				return nil, err
			}
			effective, err = options.Merge(effective, prepared)
			if err != nil {
				return nil, errors.Errorf("merging %s: %w", l.Origin(), err)
			}
		}

		acc, err = options.Merge(acc, effective)
		if err != nil {
			return nil, errors.Errorf("merging %s: %w", l.Origin(), err)
		}
		logger.Debug().Str("origin", l.Origin()).Int("blocks", len(pieces)).Msg("folded layer")
	}

	c := &Chain{
		Options:    acc,
		Plugins:    acc.Descriptors(options.KeyPlugins),
		Presets:    acc.Descriptors(options.KeyPresets),
		Layers:     d.Layers,
		RootConfig: d.RootConfig,
		Babelrc:    d.Babelrc,
	}
	if d.IgnoreFile != nil {
		c.IgnoreFile = d.IgnoreFile.Path
	}
	return c, nil
}

// prepare binds descriptors to the layer, resolves them, rejects duplicates
// and anchors ignore/only patterns to the layer's directory.
func prepare(l Layer, p piece, r descriptor.Resolver) (options.Bag, error) {
	bag := p.bag

	for _, key := range []string{options.KeyPlugins, options.KeyPresets} {
		list := bag.Descriptors(key)
		if len(list) == 0 {
			continue
		}

		out := make([]*descriptor.Descriptor, len(list))
		seen := make(map[descriptor.Identity]int, len(list))
		for i, d := range list {
			resolved, err := d.WithOrigin(l.Dirname, l.Origin()).Resolve(r)
			if err != nil {
				return options.Bag{}, err
			}

			id := resolved.Identity()
			if j, dup := seen[id]; dup {
				return options.Bag{}, errors.WithStack(&cfgerr.ValidationError{
					Path:   fmt.Sprintf("%s[%d]", joinPath(p.path, key), i),
					Source: l.Origin(),
					Message: fmt.Sprintf("duplicate %s %s (same as entry %d); give one of them a unique name",
						d.Kind(), d, j),
				})
			}
			seen[id] = i
			out[i] = resolved
		}
		bag = bag.With(key, out, "")
	}

	for _, key := range []string{options.KeyIgnore, options.KeyOnly} {
		patterns := bag.Strings(key)
		if len(patterns) == 0 {
			continue
		}
		anchored := make([]string, len(patterns))
		for i, pattern := range patterns {
			anchored[i] = override.Anchor(pattern, l.Dirname)
		}
		bag = bag.With(key, anchored, "")
	}

	return bag, nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
