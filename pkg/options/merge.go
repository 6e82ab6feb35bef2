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
	"github.com/walteh/babelrc/pkg/cfgerr"
	"github.com/walteh/babelrc/pkg/descriptor"
	"gitlab.com/tozd/go/errors"
)

// 🔀 Merge folds incoming over base and returns a new bag. Neither input is
// modified.
//
//   - scalars: incoming wins
//   - plugins/presets: deduplicated by identity, see MergeDescriptors
//   - ignore/only: concatenated
//   - parserOpts/generatorOpts: merged field by field
//
// Two values of different shapes under the same key fail with a
// *cfgerr.MergeConflictError.
func Merge(base, incoming Bag) (Bag, error) {
	if incoming.IsEmpty() {
		return base, nil
	}
	if base.IsEmpty() {
		return incoming, nil
	}
	return mergeBags("", base, incoming, "", "")
}

// MergeDescriptors concatenates two descriptor lists. An identity already
// present in base keeps its position but takes the incoming descriptor;
// identities only in incoming are appended in order.
func MergeDescriptors(base, incoming []*descriptor.Descriptor) []*descriptor.Descriptor {
	out := make([]*descriptor.Descriptor, 0, len(base)+len(incoming))
	index := make(map[descriptor.Identity]int, len(base)+len(incoming))
	for _, d := range base {
		id := d.Identity()
		if i, ok := index[id]; ok {
			out[i] = d
			continue
		}
		index[id] = len(out)
		out = append(out, d)
	}
	for _, d := range incoming {
		id := d.Identity()
		if i, ok := index[id]; ok {
			out[i] = d
			continue
		}
		index[id] = len(out)
		out = append(out, d)
	}
	return out
}

func mergeBags(prefix string, base, incoming Bag, baseSrc, inSrc string) (Bag, error) {
	out := base.clone()
	for _, key := range incoming.Keys() {
		in := incoming.values[key]
		inOrigin := originOr(incoming, key, inSrc)

		cur, exists := out.values[key]
		if !exists {
			out.values[key] = in
			if inOrigin != "" {
				out.origins[key] = inOrigin
			}
			continue
		}

		s := mergeNested
		if prefix == "" {
			s = strategyFor(key)
		}
		merged, err := mergeValue(joinPath(prefix, key), s, cur, in, originOr(base, key, baseSrc), inOrigin)
		if err != nil {
			return Bag{}, err
		}
		out.values[key] = merged
		if inOrigin != "" {
			out.origins[key] = inOrigin
		}
	}
	return out, nil
}

func mergeValue(path string, s strategy, base, in any, baseSrc, inSrc string) (any, error) {
	switch s {
	case mergeReplace:
		return in, nil
	case mergeDescriptors:
		b, bok := base.([]*descriptor.Descriptor)
		i, iok := in.([]*descriptor.Descriptor)
		if bok && iok {
			return MergeDescriptors(b, i), nil
		}
	case mergeConcat:
		b, bok := base.([]string)
		i, iok := in.([]string)
		if bok && iok {
			out := make([]string, 0, len(b)+len(i))
			out = append(out, b...)
			return append(out, i...), nil
		}
	case mergeNested:
		bb, bok := base.(Bag)
		ib, iok := in.(Bag)
		if bok && iok {
			return mergeBags(path, bb, ib, baseSrc, inSrc)
		}
	}

	bs, is := shapeOf(base), shapeOf(in)
	if bs != is {
		return nil, errors.WithStack(&cfgerr.MergeConflictError{
			Field:          path,
			BaseSource:     baseSrc,
			BaseShape:      bs,
			IncomingSource: inSrc,
			IncomingShape:  is,
		})
	}
	return in, nil
}

func originOr(b Bag, key, fallback string) string {
	if o := b.origins[key]; o != "" {
		return o
	}
	return fallback
}

func shapeOf(v any) string {
	switch v.(type) {
	case []any, []string, []*descriptor.Descriptor, []Override:
		return "list"
	case Bag, map[string]any, map[string]Bag:
		return "object"
	default:
		return "scalar"
	}
}
