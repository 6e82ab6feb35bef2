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

package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/babelrc/pkg/cache"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/options"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser turns the bytes of one config file format into plain data
type Parser interface {
	// 📝 Parse parses the file contents into a JSON-shaped value
	Parse(ctx context.Context, filename string, data []byte) (any, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers, tried in order
	parsers []Parser
)

func init() {
	Register(&PackageJSONParser{}, &RCParser{}, &JSONParser{}, &YAMLParser{}, &TOMLParser{}, &HCLParser{})
}

// 📝 Register registers parsers
func Register(p ...Parser) {
	parsers = append(parsers, p...)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📄 File is one parsed and validated configuration file
type File struct {
	Path    string
	Dirname string

	// Options is empty when the file carries no configuration, which only
	// happens for a package.json without a "babel" key.
	Options   options.Bag
	HasConfig bool
}

// 📂 Loader reads config files from a filesystem, optionally through a cache
type Loader struct {
	Fs    afero.Fs
	Cache *cache.Cache
	Token string
}

// NewLoader returns a loader over fs. A nil fs means the OS filesystem.
func NewLoader(fs afero.Fs, c *cache.Cache, token string) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{Fs: fs, Cache: c, Token: token}
}

// Exists reports whether a regular file is present at path.
func (l *Loader) Exists(path string) bool {
	info, err := l.Fs.Stat(path)
	return err == nil && !info.IsDir()
}

// 🎯 Load reads, parses and validates the config file at path
func (l *Loader) Load(ctx context.Context, path string) (*File, error) {
	return cache.Load(l.Cache, l.Token, "file:"+path, func() (*File, error) {
		return l.load(ctx, path)
	})
}

func (l *Loader) load(ctx context.Context, path string) (*File, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading config file")

	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		reason := "cannot be read"
		if errors.Is(err, os.ErrNotExist) {
			reason = "does not exist"
		}
		return nil, errors.WithStack(&cfgerr.ConfigFileError{Path: path, Reason: reason, Err: err})
	}

	raw, present, err := Parse(ctx, path, data)
	if err != nil {
		return nil, err
	}

	file := &File{Path: path, Dirname: filepath.Dir(path), HasConfig: present}
	if !present {
		return file, nil
	}

	if err := Precheck(raw); err != nil {
		return nil, cfgerr.WithSource(err, path)
	}

	bag, err := options.Validate(options.KindFile, raw)
	if err != nil {
		return nil, cfgerr.WithSource(err, path)
	}
	file.Options = bag.WithOrigin(path)

	logger.Debug().Str("path", path).Strs("fields", file.Options.Keys()).Msg("loaded config file")
	return file, nil
}

// Parse decodes data with the parser registered for filename and
// normalises the result to JSON-shaped data. present is false when the file
// holds no configuration.
func Parse(ctx context.Context, filename string, data []byte) (raw map[string]any, present bool, err error) {
	p := GetParser(filename)
	if p == nil {
		return nil, false, errors.WithStack(&cfgerr.ConfigFileError{Path: filename, Reason: "unsupported file format"})
	}

	value, err := p.Parse(ctx, filename, data)
	if err != nil {
		return nil, false, errors.WithStack(&cfgerr.ConfigFileError{Path: filename, Reason: "cannot be parsed", Err: err})
	}
	if value == nil {
		if _, ok := p.(*PackageJSONParser); ok {
			return nil, false, nil
		}
		return map[string]any{}, true, nil
	}

	normal, err := normalize(value)
	if err != nil {
		return nil, false, errors.WithStack(&cfgerr.ConfigFileError{Path: filename, Reason: "cannot be parsed", Err: err})
	}

	obj, ok := normal.(map[string]any)
	if !ok {
		return nil, false, errors.WithStack(&cfgerr.ValidationError{
			Source:  filename,
			Message: "configuration must be an object, got " + kindOf(normal),
		})
	}
	return obj, true, nil
}

// normalize round-trips a decoded value through JSON so every format yields
// the same Go types: map[string]any, []any, string, float64, bool, nil.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Errorf("normalizing: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Errorf("normalizing: %w", err)
	}
	return out, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return "null"
}

func baseName(filename string) string {
	return strings.ToLower(filepath.Base(strings.TrimSpace(filename)))
}
