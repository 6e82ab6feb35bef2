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
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/config"
	"github.com/walteh/babelrc/pkg/options"
	"gitlab.com/tozd/go/errors"
)

// RootConfigNames are searched, in order, in the project root.
var RootConfigNames = []string{
	"babel.config.json",
	"babel.config.yaml",
	"babel.config.yml",
	"babel.config.toml",
	"babel.config.hcl",
}

// RelativeConfigNames are searched in every directory from the file upward.
var RelativeConfigNames = []string{
	".babelrc",
	".babelrc.json",
	".babelrc.yaml",
	".babelrc.yml",
	".babelrc.toml",
	".babelrc.hcl",
}

// PackageFileName marks a package root and may embed a config.
const PackageFileName = "package.json"

// 🔭 Discovery is the ordered result of the discovery phase
type Discovery struct {
	Layers     []Layer // lowest precedence first
	RootConfig string
	Babelrc    string
	IgnoreFile *config.IgnoreFile
}

// 🔍 Discover locates every layer that may apply to cctx.Filename
//
// Order, lowest precedence first: the project-root config, file-relative
// configs from the farthest ancestor to the nearest directory, then args.
// A layer's extends target is placed directly before it.
func (b *Builder) Discover(ctx context.Context, args options.Bag, cctx Context) (*Discovery, error) {
	logger := zerolog.Ctx(ctx)
	loader := b.loader()
	seen := map[string]bool{}
	d := &Discovery{}

	rootPath, err := b.findRootConfig(ctx, loader, args, cctx)
	if err != nil {
		return nil, err
	}
	if rootPath != "" {
		f, err := loader.Load(ctx, rootPath)
		if err != nil {
			return nil, errors.Errorf("loading root config: %w", err)
		}
		layers, err := b.expand(ctx, loader, fileLayer(LayerRoot, f), seen)
		if err != nil {
			return nil, err
		}
		d.Layers = append(d.Layers, layers...)
		d.RootConfig = rootPath
	}

	if babelrc, set := args.Bool(options.KeyBabelrc); cctx.Filename != "" && (!set || babelrc) {
		files, ignore, err := b.findRelativeConfigs(ctx, loader, cctx)
		if err != nil {
			return nil, err
		}
		for i := len(files) - 1; i >= 0; i-- {
			kind := LayerRelative
			if filepath.Base(files[i].Path) == PackageFileName {
				kind = LayerPackage
			}
			layers, err := b.expand(ctx, loader, fileLayer(kind, files[i]), seen)
			if err != nil {
				return nil, err
			}
			d.Layers = append(d.Layers, layers...)
		}
		if len(files) > 0 {
			d.Babelrc = files[0].Path
		}
		d.IgnoreFile = ignore
	}

	argsLayer := Layer{
		Kind:    LayerArguments,
		Dirname: cctx.Cwd,
		Options: args.WithOrigin(options.ArgumentsOrigin),
	}
	layers, err := b.expand(ctx, loader, argsLayer, seen)
	if err != nil {
		return nil, err
	}
	d.Layers = append(d.Layers, layers...)

	for _, l := range d.Layers {
		logger.Debug().Str("kind", string(l.Kind)).Str("origin", l.Origin()).Msg("discovered layer")
	}
	return d, nil
}

func fileLayer(kind LayerKind, f *config.File) Layer {
	return Layer{Kind: kind, Filepath: f.Path, Dirname: f.Dirname, Options: f.Options}
}

// expand returns the layers extended by l followed by l itself. Files already
// in the chain are skipped.
func (b *Builder) expand(ctx context.Context, loader *config.Loader, l Layer, seen map[string]bool) ([]Layer, error) {
	if l.Filepath != "" {
		if seen[l.Filepath] {
			return nil, nil
		}
		seen[l.Filepath] = true
	}

	ext, ok := l.Options.String(options.KeyExtends)
	if !ok || ext == "" {
		return []Layer{l}, nil
	}

	target := absolute(ext, l.Dirname)
	if seen[target] {
		zerolog.Ctx(ctx).Debug().Str("path", target).Str("from", l.Origin()).Msg("skipping already loaded extends target")
		return []Layer{l}, nil
	}

	f, err := loader.Load(ctx, target)
	if err != nil {
		return nil, errors.Errorf("loading %s extended by %s: %w", target, l.Origin(), err)
	}

	parents, err := b.expand(ctx, loader, fileLayer(LayerExtends, f), seen)
	if err != nil {
		return nil, err
	}
	return append(parents, l), nil
}

func (b *Builder) findRootConfig(ctx context.Context, loader *config.Loader, args options.Bag, cctx Context) (string, error) {
	if v, ok := args.Get(options.KeyConfigFile); ok {
		switch v := v.(type) {
		case bool:
			if !v {
				return "", nil
			}
		case string:
			p := absolute(v, cctx.Cwd)
			if !loader.Exists(p) {
				return "", errors.WithStack(&cfgerr.ConfigFileError{Path: p, Reason: "does not exist"})
			}
			return p, nil
		}
	}

	root := cctx.Root
	if root == "" {
		root = cctx.Cwd
	}

	mode, _ := args.String(options.KeyRootMode)
	switch mode {
	case "", options.RootModeRoot:
		return rootConfigIn(loader, root)
	case options.RootModeUpward, options.RootModeUpwardOptional:
		for dir := root; ; {
			p, err := rootConfigIn(loader, dir)
			if err != nil || p != "" {
				return p, err
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
		if mode == options.RootModeUpward {
			return "", errors.WithStack(&cfgerr.ConfigFileError{
				Path:   root,
				Reason: `rootMode "upward" found no ` + strings.Join(RootConfigNames, ", ") + " in it or any parent directory",
			})
		}
		zerolog.Ctx(ctx).Debug().Str("root", root).Msg("no root config found upward")
		return "", nil
	default:
		return "", cfgerr.Validation(options.KeyRootMode, "unknown root mode %q", mode)
	}
}

func rootConfigIn(loader *config.Loader, dir string) (string, error) {
	found, err := existing(loader, dir, RootConfigNames)
	if err != nil || len(found) == 0 {
		return "", err
	}
	return found[0], nil
}

// findRelativeConfigs walks from the file's directory upward and returns the
// config files found, nearest first, plus the nearest ignore file.
func (b *Builder) findRelativeConfigs(ctx context.Context, loader *config.Loader, cctx Context) ([]*config.File, *config.IgnoreFile, error) {
	logger := zerolog.Ctx(ctx)

	var files []*config.File
	var ignore *config.IgnoreFile

	dir := filepath.Dir(cctx.Filename)
	for {
		found, err := existing(loader, dir, RelativeConfigNames)
		if err != nil {
			return nil, nil, err
		}

		pkgPath := filepath.Join(dir, PackageFileName)
		isPackage := loader.Exists(pkgPath)
		var pkg *config.File
		if isPackage {
			pkg, err = loader.Load(ctx, pkgPath)
			if err != nil {
				return nil, nil, errors.Errorf("loading package config: %w", err)
			}
			if pkg.HasConfig {
				found = append(found, pkgPath)
			}
		}

		switch {
		case len(found) > 1:
			return nil, nil, errors.WithStack(&cfgerr.ConfigFileError{
				Path:   dir,
				Reason: "multiple configuration files found: " + strings.Join(found, ", "),
			})
		case len(found) == 1 && found[0] == pkgPath:
			files = append(files, pkg)
		case len(found) == 1:
			f, err := loader.Load(ctx, found[0])
			if err != nil {
				return nil, nil, errors.Errorf("loading relative config: %w", err)
			}
			files = append(files, f)
		}

		if ignore == nil {
			p := filepath.Join(dir, config.IgnoreFileName)
			if loader.Exists(p) {
				ignore, err = loader.LoadIgnore(ctx, p)
				if err != nil {
					return nil, nil, err
				}
			}
		}

		if isPackage || dir == cctx.Cwd {
			logger.Debug().Str("dir", dir).Bool("package", isPackage).Msg("relative config walk stopped")
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return files, ignore, nil
}

// existing returns the entries of names that exist in dir. More than one is
// an error.
func existing(loader *config.Loader, dir string, names []string) ([]string, error) {
	var found []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		if loader.Exists(p) {
			found = append(found, p)
		}
	}
	if len(found) > 1 {
		return nil, errors.WithStack(&cfgerr.ConfigFileError{
			Path:   dir,
			Reason: "multiple configuration files found: " + strings.Join(found, ", "),
		})
	}
	return found, nil
}

func absolute(p, dirname string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dirname, p)
}
