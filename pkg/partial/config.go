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

package partial

import (
	"github.com/walteh/babelrc/pkg/chain"
	"github.com/walteh/babelrc/pkg/descriptor"
	"github.com/walteh/babelrc/pkg/options"
)

// 📦 PartialConfig is the immutable result of Load
type PartialConfig struct {
	options    options.Bag
	plugins    []*descriptor.Descriptor
	presets    []*descriptor.Descriptor
	babelrc    string
	rootConfig string
	ignoreFile string
	layers     []chain.Layer
}

func newPartialConfig(c *chain.Chain, cctx chain.Context) *PartialConfig {
	opts := c.Options.Without(consumed...)

	const origin = options.ArgumentsOrigin
	opts = opts.
		With(options.KeyBabelrc, false, origin).
		With(options.KeyConfigFile, false, origin).
		With(options.KeyEnvName, cctx.EnvName, origin).
		With(options.KeyCwd, cctx.Cwd, origin).
		With(options.KeyPassPerPreset, false, origin).
		With(options.KeyPlugins, append([]*descriptor.Descriptor{}, c.Plugins...), origin).
		With(options.KeyPresets, append([]*descriptor.Descriptor{}, c.Presets...), origin)
	if cctx.Filename != "" {
		opts = opts.With(options.KeyFilename, cctx.Filename, origin)
	}

	return &PartialConfig{
		options:    opts,
		plugins:    c.Plugins,
		presets:    c.Presets,
		babelrc:    c.Babelrc,
		rootConfig: c.RootConfig,
		ignoreFile: c.IgnoreFile,
		layers:     c.Layers,
	}
}

// Options returns the merged, pinned options.
func (p *PartialConfig) Options() options.Bag { return p.options }

// Plugins returns a copy of the resolved plugin list.
func (p *PartialConfig) Plugins() []*descriptor.Descriptor {
	return append([]*descriptor.Descriptor(nil), p.plugins...)
}

// Presets returns a copy of the resolved preset list.
func (p *PartialConfig) Presets() []*descriptor.Descriptor {
	return append([]*descriptor.Descriptor(nil), p.presets...)
}

// ConfigFile is the nearest file-relative config, or the project-root
// config when there is none, or "".
func (p *PartialConfig) ConfigFile() string {
	if p.babelrc != "" {
		return p.babelrc
	}
	return p.rootConfig
}

// Babelrc is the nearest file-relative config, or "".
func (p *PartialConfig) Babelrc() string { return p.babelrc }

// RootConfig is the project-root config, or "".
func (p *PartialConfig) RootConfig() string { return p.rootConfig }

// IgnoreFile is the .babelignore that was consulted, or "".
func (p *PartialConfig) IgnoreFile() string { return p.ignoreFile }

// Layers returns a copy of the sources that contributed, lowest precedence first.
func (p *PartialConfig) Layers() []chain.Layer {
	return append([]chain.Layer(nil), p.layers...)
}

// HasFilesystemConfig reports whether any config file contributed.
func (p *PartialConfig) HasFilesystemConfig() bool { return p.ConfigFile() != "" }

// Raw returns a fresh map that, passed back to Load, yields the same result.
func (p *PartialConfig) Raw() map[string]any { return p.options.Map() }

// Decode copies the options into a typed struct using `json` field tags.
func (p *PartialConfig) Decode(out any) error { return p.options.Decode(out) }

// 🧾 Settings is a typed view of the commonly read scalar options
type Settings struct {
	Filename      string         `json:"filename"`
	Cwd           string         `json:"cwd"`
	EnvName       string         `json:"envName"`
	SourceType    string         `json:"sourceType"`
	Comments      *bool          `json:"comments"`
	Compact       any            `json:"compact"`
	Minified      bool           `json:"minified"`
	RetainLines   bool           `json:"retainLines"`
	SourceMaps    any            `json:"sourceMaps"`
	SourceRoot    string         `json:"sourceRoot"`
	Ignore        []string       `json:"ignore"`
	Only          []string       `json:"only"`
	ParserOpts    map[string]any `json:"parserOpts"`
	GeneratorOpts map[string]any `json:"generatorOpts"`
}

// Settings decodes the typed view of the options.
func (p *PartialConfig) Settings() (Settings, error) {
	var s Settings
	if err := p.Decode(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
