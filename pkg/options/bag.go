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
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/walteh/babelrc/pkg/descriptor"
	"gitlab.com/tozd/go/errors"
)

// ArgumentsOrigin marks values that came from programmatic input rather than a file.
const ArgumentsOrigin = "<arguments>"

// 📚 Bag is an immutable set of validated options
//
// Bags are only built by Validate, Merge and the With/Without helpers, each of
// which returns a new Bag. Values stored in a Bag are never mutated, so Bags
// may be shared freely between goroutines.
type Bag struct {
	values  map[string]any
	origins map[string]string
}

// Empty returns a bag with no fields.
func Empty() Bag {
	return Bag{}
}

// Len returns the number of fields set.
func (b Bag) Len() int { return len(b.values) }

// IsEmpty reports whether no fields are set.
func (b Bag) IsEmpty() bool { return len(b.values) == 0 }

// Has reports whether key is set.
func (b Bag) Has(key string) bool {
	_, ok := b.values[key]
	return ok
}

// Keys returns the set fields in sorted order.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Origin returns the file (or ArgumentsOrigin) that last set key.
func (b Bag) Origin(key string) string { return b.origins[key] }

// Get returns a copy of the value stored under key.
func (b Bag) Get(key string) (any, bool) {
	v, ok := b.values[key]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// String returns a string field, or "" when unset or not a string.
func (b Bag) String(key string) (string, bool) {
	s, ok := b.values[key].(string)
	return s, ok
}

// Bool returns a bool field.
func (b Bag) Bool(key string) (value bool, ok bool) {
	value, ok = b.values[key].(bool)
	return value, ok
}

// Strings returns a copy of a pattern list field.
func (b Bag) Strings(key string) []string {
	v, _ := b.values[key].([]string)
	if v == nil {
		return nil
	}
	return append([]string(nil), v...)
}

// Descriptors returns a copy of the plugins or presets list.
func (b Bag) Descriptors(key string) []*descriptor.Descriptor {
	v, _ := b.values[key].([]*descriptor.Descriptor)
	if v == nil {
		return nil
	}
	return append([]*descriptor.Descriptor(nil), v...)
}

// Sub returns a nested bag such as parserOpts.
func (b Bag) Sub(key string) (Bag, bool) {
	v, ok := b.values[key].(Bag)
	return v, ok
}

// Env returns the environment-keyed sub-bags declared under "env".
func (b Bag) Env() map[string]Bag {
	v, _ := b.values[KeyEnv].(map[string]Bag)
	if v == nil {
		return nil
	}
	out := make(map[string]Bag, len(v))
	for k, sub := range v {
		out[k] = sub
	}
	return out
}

// Overrides returns the file-pattern gated rules declared under "overrides".
func (b Bag) Overrides() []Override {
	v, _ := b.values[KeyOverrides].([]Override)
	if v == nil {
		return nil
	}
	return append([]Override(nil), v...)
}

// With returns a copy of the bag with key set. value must already be in
// validated form; origin may be empty to keep the previous origin.
func (b Bag) With(key string, value any, origin string) Bag {
	out := b.clone()
	out.values[key] = value
	if origin != "" {
		out.origins[key] = origin
	}
	return out
}

// Without returns a copy of the bag with keys removed.
func (b Bag) Without(keys ...string) Bag {
	out := b.clone()
	for _, k := range keys {
		delete(out.values, k)
		delete(out.origins, k)
	}
	return out
}

// WithOrigin returns a copy that attributes every field, including fields of
// env and override sub-bags, to origin.
func (b Bag) WithOrigin(origin string) Bag {
	out := Bag{
		values:  make(map[string]any, len(b.values)),
		origins: make(map[string]string, len(b.values)),
	}
	for k, v := range b.values {
		switch val := v.(type) {
		case map[string]Bag:
			envs := make(map[string]Bag, len(val))
			for name, sub := range val {
				envs[name] = sub.WithOrigin(origin)
			}
			v = envs
		case []Override:
			rules := make([]Override, len(val))
			for i, rule := range val {
				rule.Options = rule.Options.WithOrigin(origin)
				rules[i] = rule
			}
			v = rules
		case Bag:
			v = val.WithOrigin(origin)
		}
		out.values[k] = v
		out.origins[k] = origin
	}
	return out
}

// Map exports the bag as plain input. Feeding the result back through
// Validate yields an equivalent bag.
func (b Bag) Map() map[string]any {
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = exportValue(v)
	}
	return out
}

// Decode copies the bag into a typed struct using `json` field tags.
func (b Bag) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(b.Map()); err != nil {
		return errors.Errorf("decoding options: %w", err)
	}
	return nil
}

func (b Bag) clone() Bag {
	out := Bag{
		values:  make(map[string]any, len(b.values)+1),
		origins: make(map[string]string, len(b.values)+1),
	}
	for k, v := range b.values {
		out.values[k] = v
	}
	for k, v := range b.origins {
		out.origins[k] = v
	}
	return out
}

// Override is one file-pattern gated entry of an "overrides" list.
type Override struct {
	Test    []string
	Include []string
	Exclude []string
	Options Bag
}

func (o Override) export() map[string]any {
	out := o.Options.Map()
	if len(o.Test) > 0 {
		out[KeyTest] = toAnySlice(o.Test)
	}
	if len(o.Include) > 0 {
		out[KeyInclude] = toAnySlice(o.Include)
	}
	if len(o.Exclude) > 0 {
		out[KeyExclude] = toAnySlice(o.Exclude)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []*descriptor.Descriptor:
		return append([]*descriptor.Descriptor(nil), val...)
	case []Override:
		return append([]Override(nil), val...)
	case map[string]Bag:
		out := make(map[string]Bag, len(val))
		for k, sub := range val {
			out[k] = sub
		}
		return out
	default:
		return descriptor.CloneValue(v)
	}
}

func exportValue(v any) any {
	switch val := v.(type) {
	case Bag:
		return val.Map()
	case map[string]Bag:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = sub.Map()
		}
		return out
	case []Override:
		out := make([]any, len(val))
		for i, rule := range val {
			out[i] = rule.export()
		}
		return out
	case []*descriptor.Descriptor:
		out := make([]any, len(val))
		for i, d := range val {
			out[i] = d
		}
		return out
	case []string:
		return toAnySlice(val)
	default:
		return descriptor.CloneValue(v)
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
