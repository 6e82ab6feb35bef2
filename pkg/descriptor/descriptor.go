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

// Package descriptor models references to plugins and presets before the
// transformation pipeline materializes them.
package descriptor

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/walteh/babelrc/pkg/cfgerr"
	"gitlab.com/tozd/go/errors"
)

// 🧩 Kind distinguishes plugins from presets
type Kind uint8

const (
	KindPlugin Kind = iota
	KindPreset
)

func (k Kind) String() string {
	if k == KindPreset {
		return "preset"
	}
	return "plugin"
}

// 🏷️ SourceKind tags which variant a Source holds
type SourceKind uint8

const (
	SourceByName SourceKind = iota + 1
	SourceByValue
	SourceInline
)

func (k SourceKind) String() string {
	switch k {
	case SourceByName:
		return "name"
	case SourceByValue:
		return "value"
	case SourceInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Source is the closed set of ways a plugin or preset can be referenced.
// The zero Source is invalid.
type Source struct {
	kind   SourceKind
	name   string
	value  any
	inline map[string]any
}

// ByName references a module that the Resolver will locate.
func ByName(name string) Source {
	return Source{kind: SourceByName, name: name}
}

// ByValue references an implementation handle supplied by the caller.
func ByValue(v any) Source {
	return Source{kind: SourceByValue, value: v}
}

// Inline references a plugin object literal. Identity is the map itself, so
// the same map passed twice is the same plugin.
func Inline(obj map[string]any) Source {
	return Source{kind: SourceInline, inline: obj}
}

func (s Source) Kind() SourceKind { return s.kind }

// Name returns the module reference for SourceByName.
func (s Source) Name() (string, bool) {
	return s.name, s.kind == SourceByName
}

// Value returns the handle for SourceByValue.
func (s Source) Value() (any, bool) {
	return s.value, s.kind == SourceByValue
}

// Object returns a copy of the inline object for SourceInline.
func (s Source) Object() (map[string]any, bool) {
	if s.kind != SourceInline {
		return nil, false
	}
	return CloneMap(s.inline), true
}

// Plugin is a plugin already materialized by the transformation pipeline.
// It is accepted as a ByValue handle by option loading but refused wherever
// results must stay independently cacheable.
type Plugin struct {
	Key     string
	Options map[string]any
}

// 📦 Descriptor is an immutable reference to a plugin or preset plus its options
type Descriptor struct {
	kind       Kind
	source     Source
	options    map[string]any
	name       string
	dirname    string
	originPath string
	resolved   string
}

// New builds a descriptor. opts is copied.
func New(kind Kind, src Source, opts map[string]any, name string) *Descriptor {
	return &Descriptor{
		kind:    kind,
		source:  src,
		options: CloneMap(opts),
		name:    name,
	}
}

func (d *Descriptor) Kind() Kind         { return d.kind }
func (d *Descriptor) Source() Source     { return d.source }
func (d *Descriptor) Name() string       { return d.name }
func (d *Descriptor) Dirname() string    { return d.dirname }
func (d *Descriptor) OriginPath() string { return d.originPath }

// Resolved is the module path located for a ByName reference, or "".
func (d *Descriptor) Resolved() string { return d.resolved }

// Options returns a copy of the descriptor's options; nil when none were given.
func (d *Descriptor) Options() map[string]any { return CloneMap(d.options) }

// IsInstance reports whether the descriptor wraps an already materialized Plugin.
func (d *Descriptor) IsInstance() bool {
	v, ok := d.source.Value()
	if !ok {
		return false
	}
	_, isPlugin := v.(*Plugin)
	return isPlugin
}

// WithOrigin returns a copy bound to the directory and file that introduced it.
// A descriptor that already carries an origin keeps it.
func (d *Descriptor) WithOrigin(dirname, originPath string) *Descriptor {
	if d.dirname != "" {
		return d
	}
	cp := *d
	cp.dirname = dirname
	cp.originPath = originPath
	return &cp
}

// 🔍 Resolve locates a ByName reference, returning a new descriptor.
// Descriptors that are already resolved, or not ByName, are returned as is.
func (d *Descriptor) Resolve(r Resolver) (*Descriptor, error) {
	name, ok := d.source.Name()
	if !ok || d.resolved != "" {
		return d, nil
	}
	if r == nil {
		return nil, errors.Errorf("no resolver configured for %s %q", d.kind, name)
	}
	resolved, err := r.Resolve(d.kind, name, d.dirname)
	if err != nil {
		var rerr *cfgerr.ResolutionError
		if errors.As(err, &rerr) {
			if rerr.Source == "" {
				rerr.Source = d.originPath
			}
			return nil, err
		}
		return nil, errors.WithStack(&cfgerr.ResolutionError{
			Kind:    d.kind.String(),
			Name:    name,
			Dirname: d.dirname,
			Source:  d.originPath,
			Tried:   []string{err.Error()},
		})
	}
	cp := *d
	cp.resolved = resolved
	return &cp, nil
}

// Identity is the deduplication key of a descriptor.
type Identity struct {
	Source SourceKind
	Ref    string
	Name   string
}

// Identity returns the key under which two descriptors are the same logical
// item: module path for ByName, object identity for ByValue and Inline.
func (d *Descriptor) Identity() Identity {
	id := Identity{Source: d.source.kind, Name: d.name}
	switch d.source.kind {
	case SourceByName:
		if d.resolved != "" {
			id.Ref = d.resolved
		} else {
			id.Ref = d.source.name
		}
	case SourceByValue:
		id.Ref = refOf(d.source.value)
	case SourceInline:
		id.Ref = refOf(d.source.inline)
	}
	return id
}

func (d *Descriptor) String() string {
	label := d.kind.String()
	switch d.source.kind {
	case SourceByName:
		label += " " + d.source.name
	case SourceByValue:
		label += fmt.Sprintf(" <%T>", d.source.value)
	case SourceInline:
		label += " <inline>"
	}
	if d.name != "" {
		label += fmt.Sprintf(" (%s)", d.name)
	}
	return label
}

// MarshalJSON renders the descriptor for inspection. Handles are rendered by type only.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.summary())
}

// MarshalYAML mirrors MarshalJSON for yaml.v3.
func (d *Descriptor) MarshalYAML() (any, error) {
	return d.summary(), nil
}

func (d *Descriptor) summary() map[string]any {
	out := map[string]any{
		"kind":   d.kind.String(),
		"source": d.source.kind.String(),
	}
	switch d.source.kind {
	case SourceByName:
		out["value"] = d.source.name
	case SourceByValue:
		out["value"] = fmt.Sprintf("%T", d.source.value)
	case SourceInline:
		out["value"] = "<inline>"
	}
	if d.name != "" {
		out["name"] = d.name
	}
	if d.resolved != "" {
		out["resolved"] = d.resolved
	}
	if d.options != nil {
		out["options"] = CloneMap(d.options)
	}
	if d.originPath != "" {
		out["origin"] = d.originPath
	}
	return out
}

func refOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Chan, reflect.Slice, reflect.UnsafePointer:
		return fmt.Sprintf("%T@%x", v, rv.Pointer())
	default:
		return fmt.Sprintf("%T:%#v", v, v)
	}
}
