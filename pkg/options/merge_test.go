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
	"gitlab.com/tozd/go/errors"
)

func mustBag(t *testing.T, kind Kind, origin string, raw map[string]any) Bag {
	t.Helper()
	b, err := Validate(kind, raw)
	require.NoError(t, err, "fixture should validate")
	return b.WithOrigin(origin)
}

func pluginNames(t *testing.T, b Bag) []string {
	t.Helper()
	var names []string
	for _, d := range b.Descriptors(KeyPlugins) {
		name, ok := d.Source().Name()
		require.True(t, ok, "fixture plugins should be named")
		names = append(names, name)
	}
	return names
}

func TestMergeScalars(t *testing.T) {
	base := mustBag(t, KindFile, "/a/.babelrc", map[string]any{"comments": true, "sourceType": "script"})
	incoming := mustBag(t, KindFile, "/a/b/.babelrc", map[string]any{"sourceType": "module"})

	merged, err := Merge(base, incoming)
	require.NoError(t, err, "merge should succeed")

	st, _ := merged.String("sourceType")
	assert.Equal(t, "module", st, "nearer layer should win")
	c, _ := merged.Bool("comments")
	assert.True(t, c, "base-only field should survive")
	assert.Equal(t, "/a/b/.babelrc", merged.Origin("sourceType"), "origin should follow the winning layer")
	assert.Equal(t, "/a/.babelrc", merged.Origin("comments"), "untouched origin should remain")

	st, _ = base.String("sourceType")
	assert.Equal(t, "script", st, "base should not be modified")
}

func TestMergeDescriptorDedup(t *testing.T) {
	base := mustBag(t, KindFile, "A", map[string]any{
		"plugins": []any{[]any{"P", map[string]any{"x": 1.0}}, "Q"},
	})
	incoming := mustBag(t, KindFile, "B", map[string]any{
		"plugins": []any{"R", []any{"P", map[string]any{"x": 2.0}}},
	})

	merged, err := Merge(base, incoming)
	require.NoError(t, err, "merge should succeed")

	assert.Equal(t, []string{"P", "Q", "R"}, pluginNames(t, merged), "repeated identity should keep its base slot")
	assert.Equal(t, map[string]any{"x": 2.0}, merged.Descriptors(KeyPlugins)[0].Options(), "repeated identity should take incoming options")
}

func TestMergeDescriptorNamesDisambiguate(t *testing.T) {
	base := mustBag(t, KindFile, "A", map[string]any{"plugins": []any{"P"}})
	incoming := mustBag(t, KindFile, "B", map[string]any{"plugins": []any{[]any{"P", nil, "copy"}}})

	merged, err := Merge(base, incoming)
	require.NoError(t, err, "merge should succeed")
	assert.Len(t, merged.Descriptors(KeyPlugins), 2, "a distinct name should produce a distinct item")
}

func TestMergePatternsConcatenate(t *testing.T) {
	base := mustBag(t, KindFile, "A", map[string]any{"ignore": []any{"a/**", "b/**"}})
	incoming := mustBag(t, KindFile, "B", map[string]any{"ignore": []any{"a/**"}})

	merged, err := Merge(base, incoming)
	require.NoError(t, err, "merge should succeed")
	assert.Equal(t, []string{"a/**", "b/**", "a/**"}, merged.Strings(KeyIgnore), "patterns should concatenate without dedup")
}

func TestMergeNested(t *testing.T) {
	base := mustBag(t, KindFile, "A", map[string]any{
		"parserOpts": map[string]any{"strictMode": true, "plugins": []any{"jsx"}, "ranges": map[string]any{"a": 1.0}},
	})
	incoming := mustBag(t, KindFile, "B", map[string]any{
		"parserOpts": map[string]any{"plugins": []any{"flow"}, "ranges": map[string]any{"b": 2.0}},
	})

	merged, err := Merge(base, incoming)
	require.NoError(t, err, "merge should succeed")

	assert.Equal(t, map[string]any{
		"strictMode": true,
		"plugins":    []any{"flow"},
		"ranges":     map[string]any{"a": 1.0, "b": 2.0},
	}, merged.Map()[KeyParserOpts], "nested groups should merge field by field")
}

func TestMergeConflict(t *testing.T) {
	base := mustBag(t, KindFile, "/root/babel.config.json", map[string]any{
		"parserOpts": map[string]any{"plugins": []any{"jsx"}},
	})
	incoming := mustBag(t, KindFile, "/root/src/.babelrc", map[string]any{
		"parserOpts": map[string]any{"plugins": "jsx"},
	})

	_, err := Merge(base, incoming)
	require.Error(t, err, "merge should fail on shape mismatch")

	var cerr *cfgerr.MergeConflictError
	require.True(t, errors.As(err, &cerr), "error should be a MergeConflictError")
	assert.Equal(t, "parserOpts.plugins", cerr.Field, "conflict should name the field")
	assert.Equal(t, "/root/babel.config.json", cerr.BaseSource, "conflict should name the base source")
	assert.Equal(t, "/root/src/.babelrc", cerr.IncomingSource, "conflict should name the incoming source")
}

func TestMergeEmpty(t *testing.T) {
	b := mustBag(t, KindFile, "A", map[string]any{"comments": false})

	merged, err := Merge(Empty(), b)
	require.NoError(t, err, "merge into empty should succeed")
	assert.Equal(t, b.Map(), merged.Map(), "empty base should yield incoming")

	merged, err = Merge(b, Empty())
	require.NoError(t, err, "merge of empty should succeed")
	assert.Equal(t, b.Map(), merged.Map(), "empty incoming should yield base")
}
