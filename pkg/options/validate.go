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
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/descriptor"
)

// ✅ Validate checks raw input against the schema for kind and returns it in
// canonical form. A nil raw map is an empty bag.
//
// Shorthand is normalized: a bare plugin name becomes a descriptor with no
// options, a single pattern string becomes a one-element list, and the
// {test, options} override form is flattened.
func Validate(kind Kind, raw map[string]any) (Bag, error) {
	return validate(kind, "", raw)
}

func validate(kind Kind, prefix string, raw map[string]any) (Bag, error) {
	if raw == nil {
		return Empty(), nil
	}

	bag := Bag{
		values:  make(map[string]any, len(raw)),
		origins: make(map[string]string, len(raw)),
	}

	for _, key := range sortedKeys(raw) {
		path := joinPath(prefix, key)
		f, ok := schema[key]
		if !ok {
			return Bag{}, cfgerr.Validation(path, "is not a recognized option")
		}
		if f.kinds&kind == 0 {
			return Bag{}, cfgerr.Validation(path, "is not allowed in %s options", kind)
		}
		v := raw[key]
		if v == nil {
			continue
		}
		norm, err := f.check(path, v)
		if err != nil {
			return Bag{}, err
		}
		bag.values[key] = norm
	}
	return bag, nil
}

func checkString(path string, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, cfgerr.Validation(path, "must be a string, got %s", describe(v))
	}
	return s, nil
}

func checkBool(path string, v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, cfgerr.Validation(path, "must be a boolean, got %s", describe(v))
	}
	return b, nil
}

func checkStringOrFalse(path string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		if !val {
			return false, nil
		}
	}
	return nil, cfgerr.Validation(path, "must be a string or false, got %s", describe(v))
}

func checkEnum(allowed ...string) checker {
	return func(path string, v any) (any, error) {
		s, ok := v.(string)
		if ok {
			for _, a := range allowed {
				if s == a {
					return s, nil
				}
			}
		}
		return nil, cfgerr.Validation(path, "must be one of %s, got %s", quoteAll(allowed), describe(v))
	}
}

func checkBoolOrEnum(allowed ...string) checker {
	enum := checkEnum(allowed...)
	return func(path string, v any) (any, error) {
		if b, ok := v.(bool); ok {
			return b, nil
		}
		if _, err := enum(path, v); err != nil {
			return nil, cfgerr.Validation(path, "must be a boolean or one of %s, got %s", quoteAll(allowed), describe(v))
		}
		return v, nil
	}
}

func checkBoolOrObject(path string, v any) (any, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case map[string]any:
		return descriptor.CloneMap(val), nil
	}
	return nil, cfgerr.Validation(path, "must be a boolean or an object, got %s", describe(v))
}

// checkObject accepts a free-form nested group such as parserOpts.
func checkObject(path string, v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		if b, isBag := v.(Bag); isBag {
			return b, nil
		}
		return nil, cfgerr.Validation(path, "must be an object, got %s", describe(v))
	}
	return freeform(path, m)
}

func freeform(path string, m map[string]any) (Bag, error) {
	bag := Bag{
		values:  make(map[string]any, len(m)),
		origins: make(map[string]string, len(m)),
	}
	for _, key := range sortedKeys(m) {
		switch val := m[key].(type) {
		case map[string]any:
			sub, err := freeform(joinPath(path, key), val)
			if err != nil {
				return Bag{}, err
			}
			bag.values[key] = sub
		case nil:
			continue
		default:
			if !isPlainData(val) {
				return Bag{}, cfgerr.Validation(joinPath(path, key), "must be plain data, got %s", describe(val))
			}
			bag.values[key] = descriptor.CloneValue(val)
		}
	}
	return bag, nil
}

func checkPatterns(path string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil, cfgerr.Validation(path, "must not be an empty pattern")
		}
		return []string{val}, nil
	case []string:
		for i, s := range val {
			if s == "" {
				return nil, cfgerr.Validation(indexPath(path, i), "must not be an empty pattern")
			}
		}
		return append([]string(nil), val...), nil
	case []any:
		out := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, cfgerr.Validation(indexPath(path, i), "must be a non-empty pattern string, got %s", describe(item))
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, cfgerr.Validation(path, "must be a pattern string or a list of pattern strings, got %s", describe(v))
}

func checkEnv(path string, v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		if envs, isEnvs := v.(map[string]Bag); isEnvs {
			return envs, nil
		}
		return nil, cfgerr.Validation(path, "must be an object keyed by environment name, got %s", describe(v))
	}
	out := make(map[string]Bag, len(m))
	for _, name := range sortedKeys(m) {
		if m[name] == nil {
			continue
		}
		sub, ok := m[name].(map[string]any)
		if !ok {
			return nil, cfgerr.Validation(joinPath(path, name), "must be an object, got %s", describe(m[name]))
		}
		bag, err := validate(KindEnv, joinPath(path, name), sub)
		if err != nil {
			return nil, err
		}
		out[name] = bag
	}
	return out, nil
}

func checkOverrides(path string, v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		if rules, isRules := v.([]Override); isRules {
			return append([]Override(nil), rules...), nil
		}
		if maps, isMaps := v.([]map[string]any); isMaps {
			items = make([]any, len(maps))
			for i, m := range maps {
				items[i] = m
			}
		} else {
			return nil, cfgerr.Validation(path, "must be a list of override objects, got %s", describe(v))
		}
	}

	out := make([]Override, 0, len(items))
	for i, item := range items {
		itemPath := indexPath(path, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, cfgerr.Validation(itemPath, "must be an object, got %s", describe(item))
		}
		rule, err := checkOverride(itemPath, m)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func checkOverride(path string, m map[string]any) (Override, error) {
	flat := make(map[string]any, len(m))
	for k, v := range m {
		if k == keyOverrideOptions {
			continue
		}
		flat[k] = v
	}
	if nested, ok := m[keyOverrideOptions]; ok && nested != nil {
		nm, ok := nested.(map[string]any)
		if !ok {
			return Override{}, cfgerr.Validation(joinPath(path, keyOverrideOptions), "must be an object, got %s", describe(nested))
		}
		for k, v := range nm {
			if _, dup := flat[k]; dup {
				return Override{}, cfgerr.Validation(joinPath(path, k), "is set both inline and under %q", keyOverrideOptions)
			}
			flat[k] = v
		}
	}

	bag, err := validate(KindOverride, path, flat)
	if err != nil {
		return Override{}, err
	}
	rule := Override{
		Test:    bag.Strings(KeyTest),
		Include: bag.Strings(KeyInclude),
		Exclude: bag.Strings(KeyExclude),
		Options: bag.Without(KeyTest, KeyInclude, KeyExclude),
	}
	return rule, nil
}

func checkPlugins(path string, v any) (any, error) {
	return checkDescriptors(descriptor.KindPlugin, path, v)
}

func checkPresets(path string, v any) (any, error) {
	return checkDescriptors(descriptor.KindPreset, path, v)
}

func checkDescriptors(kind descriptor.Kind, path string, v any) (any, error) {
	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case []string:
		items = make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
	case []*descriptor.Descriptor:
		items = make([]any, len(val))
		for i, d := range val {
			items[i] = d
		}
	default:
		return nil, cfgerr.Validation(path, "must be a list of %ss, got %s", kind, describe(v))
	}

	out := make([]*descriptor.Descriptor, 0, len(items))
	for i, item := range items {
		d, err := checkDescriptor(kind, indexPath(path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func checkDescriptor(kind descriptor.Kind, path string, item any) (*descriptor.Descriptor, error) {
	if d, ok := item.(*descriptor.Descriptor); ok {
		if d == nil {
			return nil, cfgerr.Validation(path, "must not be nil")
		}
		if d.Kind() != kind {
			return nil, cfgerr.Validation(path, "is a %s descriptor but a %s was expected", d.Kind(), kind)
		}
		return d, nil
	}

	if pair, ok := item.([]any); ok {
		if len(pair) == 0 || len(pair) > 3 {
			return nil, cfgerr.Validation(path, "must be [%s], [%s, options] or [%s, options, name], got %d items", kind, kind, kind, len(pair))
		}
		src, err := checkSource(kind, indexPath(path, 0), pair[0])
		if err != nil {
			return nil, err
		}
		var opts map[string]any
		if len(pair) > 1 && pair[1] != nil {
			m, ok := pair[1].(map[string]any)
			if !ok {
				return nil, cfgerr.Validation(indexPath(path, 1), "%s options must be an object, got %s", kind, describe(pair[1]))
			}
			opts = m
		}
		var name string
		if len(pair) > 2 && pair[2] != nil {
			s, ok := pair[2].(string)
			if !ok || s == "" {
				return nil, cfgerr.Validation(indexPath(path, 2), "%s name must be a non-empty string, got %s", kind, describe(pair[2]))
			}
			name = s
		}
		return descriptor.New(kind, src, opts, name), nil
	}

	src, err := checkSource(kind, path, item)
	if err != nil {
		return nil, err
	}
	return descriptor.New(kind, src, nil, ""), nil
}

// checkSource maps a reference onto the closed Source variant.
func checkSource(kind descriptor.Kind, path string, v any) (descriptor.Source, error) {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return descriptor.Source{}, cfgerr.Validation(path, "%s name must not be empty", kind)
		}
		return descriptor.ByName(val), nil
	case map[string]any:
		return descriptor.Inline(val), nil
	case *descriptor.Plugin:
		if val == nil {
			return descriptor.Source{}, cfgerr.Validation(path, "must not be nil")
		}
		return descriptor.ByValue(val), nil
	}
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Func && !reflect.ValueOf(v).IsNil() {
		return descriptor.ByValue(v), nil
	}
	return descriptor.Source{}, cfgerr.Validation(path, "must be a %s name, a function, an object, or a [%s, options] pair, got %s", kind, kind, describe(v))
}

func isPlainData(v any) bool {
	switch val := v.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number, []string:
		return true
	case []any:
		for _, item := range val {
			if !isPlainData(item) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, item := range val {
			if !isPlainData(item) {
				return false
			}
		}
		return true
	}
	return false
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return "a number"
	case []any, []string:
		return "a list"
	case map[string]any:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func indexPath(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
