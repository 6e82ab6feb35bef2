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
	"strings"

	"github.com/tidwall/jsonc"
	"gitlab.com/tozd/go/errors"
)

// 🔧 JSONParser implements the Parser interface for JSON files
//
// Comments and trailing commas are accepted.
type JSONParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(baseName(filename), ".json")
}

// 📝 Parse parses the config from JSON bytes
func (p *JSONParser) Parse(ctx context.Context, filename string, data []byte) (any, error) {
	return parseJSONC(data)
}

func parseJSONC(data []byte) (any, error) {
	var out any
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &out); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return out, nil
}

// 🔧 RCParser handles extensionless .babelrc files
//
// The contents are tried as JSON first, then YAML.
type RCParser struct{}

func (p *RCParser) CanParse(filename string) bool {
	return baseName(filename) == ".babelrc"
}

func (p *RCParser) Parse(ctx context.Context, filename string, data []byte) (any, error) {
	out, jsonErr := parseJSONC(data)
	if jsonErr == nil {
		return out, nil
	}

	out, yamlErr := parseYAML(data)
	if yamlErr == nil {
		return out, nil
	}

	return nil, errors.Errorf("failed to parse %s as JSON (%v) or YAML: %w", filename, jsonErr, yamlErr)
}
