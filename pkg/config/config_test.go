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
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/babelrc/pkg/cache"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/options"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

func pluginNames(t *testing.T, b options.Bag, key string) []string {
	t.Helper()
	var names []string
	for _, d := range b.Descriptors(key) {
		name, ok := d.Source().Name()
		require.True(t, ok, "fixture entries should be named")
		names = append(names, name)
	}
	return names
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		wantErr func(t *testing.T, err error)
		check   func(t *testing.T, f *File)
	}{
		{
			name: "json_with_comments",
			path: "/proj/.babelrc.json",
			content: `{
				// presets first
				"presets": ["env"],
				"plugins": [["transform-runtime", {"helpers": false}],],
			}`,
			check: func(t *testing.T, f *File) {
				assert.Equal(t, []string{"env"}, pluginNames(t, f.Options, options.KeyPresets), "presets should parse")
				d := f.Options.Descriptors(options.KeyPlugins)
				require.Len(t, d, 1, "one plugin expected")
				assert.Equal(t, map[string]any{"helpers": false}, d[0].Options(), "plugin options should parse")
			},
		},
		{
			name:    "extensionless_json",
			path:    "/proj/.babelrc",
			content: `{"comments": false}`,
			check: func(t *testing.T, f *File) {
				v, ok := f.Options.Bool("comments")
				assert.True(t, ok, "comments should be set")
				assert.False(t, v, "comments should be false")
			},
		},
		{
			name: "extensionless_yaml",
			path: "/proj/.babelrc",
			content: `
presets:
  - env
ignore: "*.min.js"
`,
			check: func(t *testing.T, f *File) {
				assert.Equal(t, []string{"env"}, pluginNames(t, f.Options, options.KeyPresets), "presets should parse")
				assert.Equal(t, []string{"*.min.js"}, f.Options.Strings(options.KeyIgnore), "single pattern should become a list")
			},
		},
		{
			name: "yaml_env",
			path: "/proj/babel.config.yaml",
			content: `
env:
  test:
    plugins: [istanbul]
`,
			check: func(t *testing.T, f *File) {
				envs := f.Options.Env()
				require.Contains(t, envs, "test", "env block should parse")
				assert.Equal(t, []string{"istanbul"}, pluginNames(t, envs["test"], options.KeyPlugins), "env plugins should parse")
			},
		},
		{
			name: "toml",
			path: "/proj/.babelrc.toml",
			content: `
sourceType = "module"
plugins = ["a", "b"]

[parserOpts]
strictMode = false
`,
			check: func(t *testing.T, f *File) {
				st, _ := f.Options.String("sourceType")
				assert.Equal(t, "module", st, "sourceType should parse")
				assert.Equal(t, []string{"a", "b"}, pluginNames(t, f.Options, options.KeyPlugins), "plugins should parse")
				sub, ok := f.Options.Sub(options.KeyParserOpts)
				require.True(t, ok, "parserOpts should be a nested bag")
				v, _ := sub.Bool("strictMode")
				assert.False(t, v, "nested value should parse")
			},
		},
		{
			name: "hcl",
			path: "/proj/babel.config.hcl",
			content: `
presets = ["env"]
overrides = [
  { test = "*.ts", presets = ["typescript"] }
]
`,
			check: func(t *testing.T, f *File) {
				assert.Equal(t, []string{"env"}, pluginNames(t, f.Options, options.KeyPresets), "presets should parse")
				rules := f.Options.Overrides()
				require.Len(t, rules, 1, "one override expected")
				assert.Equal(t, []string{"*.ts"}, rules[0].Test, "override test should parse")
				assert.Equal(t, []string{"typescript"}, pluginNames(t, rules[0].Options, options.KeyPresets), "override presets should parse")
			},
		},
		{
			name:    "package_json_with_key",
			path:    "/proj/package.json",
			content: `{"name": "x", "babel": {"presets": ["env"]}}`,
			check: func(t *testing.T, f *File) {
				assert.True(t, f.HasConfig, "babel key should count as config")
				assert.Equal(t, []string{"env"}, pluginNames(t, f.Options, options.KeyPresets), "presets should parse")
			},
		},
		{
			name:    "package_json_without_key",
			path:    "/proj/package.json",
			content: `{"name": "x"}`,
			check: func(t *testing.T, f *File) {
				assert.False(t, f.HasConfig, "missing babel key is not config")
				assert.True(t, f.Options.IsEmpty(), "no options expected")
			},
		},
		{
			name:    "empty_yaml",
			path:    "/proj/.babelrc.yml",
			content: "",
			check: func(t *testing.T, f *File) {
				assert.True(t, f.HasConfig, "an empty file is still a config file")
				assert.True(t, f.Options.IsEmpty(), "no options expected")
			},
		},
		{
			name:    "origin_is_recorded",
			path:    "/proj/.babelrc.json",
			content: `{"compact": "auto"}`,
			check: func(t *testing.T, f *File) {
				assert.Equal(t, "/proj/.babelrc.json", f.Options.Origin("compact"), "fields should remember their file")
				assert.Equal(t, "/proj", f.Dirname, "dirname should be the file's directory")
			},
		},
		{
			name:    "not_an_object",
			path:    "/proj/.babelrc.json",
			content: `["env"]`,
			wantErr: func(t *testing.T, err error) {
				var verr *cfgerr.ValidationError
				require.True(t, errors.As(err, &verr), "error should be a ValidationError")
				assert.Equal(t, "/proj/.babelrc.json", verr.Source, "source should be the file")
			},
		},
		{
			name:    "schema_shape_error",
			path:    "/proj/.babelrc.json",
			content: `{"overrides": [{"plugins": [42]}]}`,
			wantErr: func(t *testing.T, err error) {
				var verr *cfgerr.ValidationError
				require.True(t, errors.As(err, &verr), "error should be a ValidationError")
				assert.Equal(t, "overrides[0].plugins[0]", verr.Path, "path should name the entry")
				assert.Equal(t, "/proj/.babelrc.json", verr.Source, "source should be the file")
			},
		},
		{
			name:    "unknown_field",
			path:    "/proj/.babelrc.json",
			content: `{"presetz": []}`,
			wantErr: func(t *testing.T, err error) {
				var verr *cfgerr.ValidationError
				require.True(t, errors.As(err, &verr), "error should be a ValidationError")
				assert.Equal(t, "presetz", verr.Path, "path should name the field")
			},
		},
		{
			name:    "argument_only_field",
			path:    "/proj/.babelrc.json",
			content: `{"filename": "x.js"}`,
			wantErr: func(t *testing.T, err error) {
				var verr *cfgerr.ValidationError
				require.True(t, errors.As(err, &verr), "error should be a ValidationError")
			},
		},
		{
			name:    "syntax_error",
			path:    "/proj/.babelrc.toml",
			content: `plugins = [`,
			wantErr: func(t *testing.T, err error) {
				var ferr *cfgerr.ConfigFileError
				require.True(t, errors.As(err, &ferr), "error should be a ConfigFileError")
				assert.Equal(t, "/proj/.babelrc.toml", ferr.Path, "path should be the file")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.path, []byte(tt.content), 0o644), "writing fixture")

			f, err := NewLoader(fs, nil, cache.NoCache).Load(testContext(t), tt.path)
			if tt.wantErr != nil {
				require.Error(t, err, "load should fail")
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err, "load should succeed")
			tt.check(t, f)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := NewLoader(afero.NewMemMapFs(), nil, cache.NoCache).Load(testContext(t), "/nope/.babelrc")
	require.Error(t, err, "missing file should fail")

	var ferr *cfgerr.ConfigFileError
	require.True(t, errors.As(err, &ferr), "error should be a ConfigFileError")
	assert.Equal(t, "does not exist", ferr.Reason, "reason should mention absence")
}

func TestLoadUsesCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/.babelrc", []byte(`{"comments": true}`), 0o644), "writing fixture")

	c := cache.New()
	loader := NewLoader(fs, c, "run-1")
	first, err := loader.Load(testContext(t), "/proj/.babelrc")
	require.NoError(t, err, "first load should succeed")

	require.NoError(t, afero.WriteFile(fs, "/proj/.babelrc", []byte(`{"comments": false}`), 0o644), "rewriting fixture")

	second, err := loader.Load(testContext(t), "/proj/.babelrc")
	require.NoError(t, err, "second load should succeed")
	assert.Same(t, first, second, "same token should reuse the parsed file")

	fresh, err := NewLoader(fs, c, cache.NoCache).Load(testContext(t), "/proj/.babelrc")
	require.NoError(t, err, "uncached load should succeed")
	v, _ := fresh.Options.Bool("comments")
	assert.False(t, v, "NoCache should observe the new contents")
}

func TestParseIgnore(t *testing.T) {
	patterns := ParseIgnore([]byte("# generated\nlib/**\n\n  *.min.js  \n"))
	assert.Equal(t, []string{"lib/**", "*.min.js"}, patterns, "comments and blanks should be skipped")
}

func TestLoadIgnore(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/.babelignore", []byte("dist/\n"), 0o644), "writing fixture")

	f, err := NewLoader(fs, nil, cache.NoCache).LoadIgnore(testContext(t), "/proj/.babelignore")
	require.NoError(t, err, "load should succeed")
	assert.Equal(t, "/proj", f.Dirname, "dirname should be the file's directory")
	assert.Equal(t, []string{"dist/"}, f.Patterns, "patterns should be read")
}

func TestGetParser(t *testing.T) {
	tests := []struct {
		filename string
		want     Parser
	}{
		{"/a/.babelrc", &RCParser{}},
		{"/a/.babelrc.json", &JSONParser{}},
		{"/a/babel.config.json", &JSONParser{}},
		{"/a/.babelrc.yml", &YAMLParser{}},
		{"/a/babel.config.yaml", &YAMLParser{}},
		{"/a/.babelrc.toml", &TOMLParser{}},
		{"/a/babel.config.hcl", &HCLParser{}},
		{"/a/package.json", &PackageJSONParser{}},
		{"/a/babel.config.js", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, GetParser(tt.filename), "parser should match the file name")
		})
	}
}

func TestPointerToPath(t *testing.T) {
	assert.Equal(t, "", pointerToPath(""), "root pointer is empty")
	assert.Equal(t, "plugins[0]", pointerToPath("/plugins/0"), "indexes use brackets")
	assert.Equal(t, "env.test.presets[1][0]", pointerToPath("/env/test/presets/1/0"), "nested pointers join with dots")
	assert.Equal(t, "parserOpts.a/b", pointerToPath("/parserOpts/a~1b"), "escapes are decoded")
}
