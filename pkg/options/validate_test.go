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

package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/descriptor"
	"gitlab.com/tozd/go/errors"
)

func TestValidate(t *testing.T) {
	inline := map[string]any{"visitor": map[string]any{}}
	fn := func() {}

	tests := []struct {
		name     string
		kind     Kind
		raw      map[string]any
		wantPath string
		check    func(t *testing.T, b Bag)
	}{
		{
			name: "nil_input_is_empty",
			kind: KindArguments,
			raw:  nil,
			check: func(t *testing.T, b Bag) {
				assert.True(t, b.IsEmpty(), "nil input should produce an empty bag")
			},
		},
		{
			name:     "unknown_top_level_key",
			kind:     KindArguments,
			raw:      map[string]any{"pluginz": []any{"a"}},
			wantPath: "pluginz",
		},
		{
			name:     "root_only_key_in_file",
			kind:     KindFile,
			raw:      map[string]any{"cwd": "/tmp"},
			wantPath: "cwd",
		},
		{
			name:     "test_outside_override",
			kind:     KindFile,
			raw:      map[string]any{"test": "*.js"},
			wantPath: "test",
		},
		{
			name:     "nested_env_in_env",
			kind:     KindFile,
			raw:      map[string]any{"env": map[string]any{"test": map[string]any{"env": map[string]any{}}}},
			wantPath: "env.test.env",
		},
		{
			name:     "wrong_scalar_type",
			kind:     KindFile,
			raw:      map[string]any{"retainLines": "yes"},
			wantPath: "retainLines",
		},
		{
			name:     "bad_enum",
			kind:     KindFile,
			raw:      map[string]any{"sourceType": "commonjs"},
			wantPath: "sourceType",
		},
		{
			name:     "plugin_entry_is_number",
			kind:     KindFile,
			raw:      map[string]any{"plugins": []any{"ok", 42}},
			wantPath: "plugins[1]",
		},
		{
			name:     "plugin_pair_too_long",
			kind:     KindFile,
			raw:      map[string]any{"plugins": []any{[]any{"a", nil, "n", "extra"}}},
			wantPath: "plugins[0]",
		},
		{
			name:     "plugin_options_not_object",
			kind:     KindFile,
			raw:      map[string]any{"plugins": []any{[]any{"a", "opts"}}},
			wantPath: "plugins[0][1]",
		},
		{
			name:     "override_entry_error_path",
			kind:     KindFile,
			raw:      map[string]any{"overrides": []any{map[string]any{}, map[string]any{"presets": "env"}}},
			wantPath: "overrides[1].presets",
		},
		{
			name: "shorthand_normalization",
			kind: KindArguments,
			raw: map[string]any{
				"plugins": []any{
					"transform-foo",
					[]any{"transform-bar", map[string]any{"loose": true}},
					[]any{"transform-bar", nil, "second"},
					inline,
					fn,
				},
				"ignore": "dist/**",
			},
			check: func(t *testing.T, b Bag) {
				plugins := b.Descriptors(KeyPlugins)
				require.Len(t, plugins, 5, "all plugin entries should be kept")

				name, ok := plugins[0].Source().Name()
				assert.True(t, ok, "bare string should be a name reference")
				assert.Equal(t, "transform-foo", name, "name should match")
				assert.Nil(t, plugins[0].Options(), "bare name should have no options")

				assert.Equal(t, map[string]any{"loose": true}, plugins[1].Options(), "pair options should be kept")
				assert.Equal(t, "second", plugins[2].Name(), "triple name should be kept")
				assert.Equal(t, descriptor.SourceInline, plugins[3].Source().Kind(), "object should be inline")
				assert.Equal(t, descriptor.SourceByValue, plugins[4].Source().Kind(), "function should be a value handle")

				assert.Equal(t, []string{"dist/**"}, b.Strings(KeyIgnore), "single pattern should become a list")
			},
		},
		{
			name: "override_options_shorthand",
			kind: KindFile,
			raw: map[string]any{
				"overrides": []any{
					map[string]any{"test": "*.test.js", "options": map[string]any{"retainLines": true}},
				},
			},
			check: func(t *testing.T, b Bag) {
				rules := b.Overrides()
				require.Len(t, rules, 1, "should have one override")
				assert.Equal(t, []string{"*.test.js"}, rules[0].Test, "test pattern should be kept")
				v, ok := rules[0].Options.Bool("retainLines")
				assert.True(t, ok && v, "nested options should be flattened into the rule")
				assert.False(t, rules[0].Options.Has(KeyTest), "gating keys should not stay in the rule options")
			},
		},
		{
			name: "parser_opts_freeform",
			kind: KindFile,
			raw: map[string]any{
				"parserOpts": map[string]any{
					"plugins":    []any{"jsx", []any{"decorators", map[string]any{"legacy": true}}},
					"strictMode": false,
					"nested":     map[string]any{"deep": 1.0},
				},
			},
			check: func(t *testing.T, b Bag) {
				sub, ok := b.Sub(KeyParserOpts)
				require.True(t, ok, "parserOpts should be a nested bag")
				nested, ok := sub.Sub("nested")
				require.True(t, ok, "nested objects should be bags")
				v, _ := nested.Get("deep")
				assert.Equal(t, 1.0, v, "nested value should be kept")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Validate(tt.kind, tt.raw)
			if tt.wantPath != "" {
				require.Error(t, err, "Validate should fail")
				var verr *cfgerr.ValidationError
				require.True(t, errors.As(err, &verr), "error should be a ValidationError")
				assert.Equal(t, tt.wantPath, verr.Path, "error should name the offending field")
				assert.Contains(t, err.Error(), tt.wantPath, "message should include the path")
				return
			}
			require.NoError(t, err, "Validate should succeed")
			if tt.check != nil {
				tt.check(t, b)
			}
		})
	}
}

func TestBagRoundTrip(t *testing.T) {
	raw := map[string]any{
		"presets":    []any{[]any{"env", map[string]any{"targets": "defaults"}}},
		"plugins":    []any{"a"},
		"only":       []any{"src/**"},
		"configFile": false,
		"env": map[string]any{
			"production": map[string]any{"minified": true},
		},
		"overrides": []any{
			map[string]any{"exclude": "vendor/**", "compact": "auto"},
		},
		"generatorOpts": map[string]any{"quotes": "double"},
	}

	first, err := Validate(KindArguments, raw)
	require.NoError(t, err, "first validation should succeed")

	second, err := Validate(KindArguments, first.Map())
	require.NoError(t, err, "re-validating exported options should succeed")

	assert.Equal(t, first.Map(), second.Map(), "exported options should survive a round trip")
	assert.Equal(t, first.Descriptors(KeyPresets)[0], second.Descriptors(KeyPresets)[0], "descriptors should pass through unchanged")
}

func TestBagImmutability(t *testing.T) {
	b, err := Validate(KindArguments, map[string]any{"ignore": []any{"a"}})
	require.NoError(t, err, "validation should succeed")

	got := b.Strings(KeyIgnore)
	got[0] = "mutated"
	assert.Equal(t, []string{"a"}, b.Strings(KeyIgnore), "returned lists should be copies")

	m := b.Map()
	m[KeyIgnore] = "other"
	assert.Equal(t, []string{"a"}, b.Strings(KeyIgnore), "exported maps should be copies")

	with := b.With("retainLines", true, ArgumentsOrigin)
	assert.False(t, b.Has("retainLines"), "With should not modify the receiver")
	assert.True(t, with.Has("retainLines"), "With should set the key on the copy")

	without := with.Without(KeyIgnore)
	assert.True(t, with.Has(KeyIgnore), "Without should not modify the receiver")
	assert.False(t, without.Has(KeyIgnore), "Without should drop the key on the copy")
}

func TestDecode(t *testing.T) {
	b, err := Validate(KindFile, map[string]any{
		"sourceType":  "module",
		"retainLines": true,
		"generatorOpts": map[string]any{
			"quotes": "single",
		},
	})
	require.NoError(t, err, "validation should succeed")

	var typed struct {
		SourceType    string `json:"sourceType"`
		RetainLines   bool   `json:"retainLines"`
		GeneratorOpts struct {
			Quotes string `json:"quotes"`
		} `json:"generatorOpts"`
	}
	require.NoError(t, b.Decode(&typed), "decode should succeed")
	assert.Equal(t, "module", typed.SourceType, "sourceType should decode")
	assert.True(t, typed.RetainLines, "retainLines should decode")
	assert.Equal(t, "single", typed.GeneratorOpts.Quotes, "nested groups should decode")
}
