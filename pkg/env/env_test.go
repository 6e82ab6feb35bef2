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

package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/babelrc/pkg/options"
)

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		vars     map[string]string
		want     string
	}{
		{name: "explicit_wins", explicit: "test", vars: map[string]string{"BABEL_ENV": "production"}, want: "test"},
		{name: "babel_env_before_node_env", vars: map[string]string{"BABEL_ENV": "staging", "NODE_ENV": "production"}, want: "staging"},
		{name: "empty_babel_env_skipped", vars: map[string]string{"BABEL_ENV": "", "NODE_ENV": "production"}, want: "production"},
		{name: "default", vars: map[string]string{}, want: DefaultName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(key string) (string, bool) {
				v, ok := tt.vars[key]
				return v, ok
			}
			assert.Equal(t, tt.want, Name(tt.explicit, lookup), "environment name should match")
		})
	}
}

func TestSelect(t *testing.T) {
	b, err := options.Validate(options.KindFile, map[string]any{
		"env": map[string]any{
			"test": map[string]any{"retainLines": true},
		},
	})
	require.NoError(t, err, "fixture should validate")

	got := Select(b.Env(), "test")
	v, ok := got.Bool("retainLines")
	assert.True(t, ok && v, "matching env should be selected")

	assert.True(t, Select(b.Env(), "production").IsEmpty(), "missing env should yield an empty bag")
	assert.True(t, Select(nil, "test").IsEmpty(), "no env block should yield an empty bag")
}
