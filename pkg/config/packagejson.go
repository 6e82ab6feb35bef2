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

	"github.com/tidwall/jsonc"
	"gitlab.com/tozd/go/errors"
)

// PackageKey is the package.json field that may hold a configuration.
const PackageKey = "babel"

// 📦 PackageJSONParser reads the configuration embedded in package.json
//
// A package.json without the key yields nil: the file still marks a package
// root but contributes no options.
type PackageJSONParser struct{}

func (p *PackageJSONParser) CanParse(filename string) bool {
	return baseName(filename) == "package.json"
}

func (p *PackageJSONParser) Parse(ctx context.Context, filename string, data []byte) (any, error) {
	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, errors.Errorf("parsing package.json: %w", err)
	}

	raw, ok := pkg[PackageKey]
	if !ok {
		return nil, nil
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Errorf("parsing %q field: %w", PackageKey, err)
	}
	return out, nil
}
