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

/*
Package config reads babel configuration files into validated option bags.

	            +---------------+
	            |    Loader     |
	            | (afero.Fs +   |
	            |  cache.Cache) |
	            +-------+-------+
	                    |
	   +------+------+--+---+------+---------+
	   |      |      |      |      |         |
	 JSON  .babelrc YAML  TOML   HCL   package.json
	(jsonc) (json|yaml)                 ("babel" key)

🔄 Flow:
1. The registered Parser for the file name decodes the bytes
2. The result is normalised to JSON-shaped data
3. Precheck validates container shapes against an embedded JSON schema
4. options.Validate checks every field and builds an options.Bag

⚡ File names:
  - babel.config.{json,yaml,yml,toml,hcl} at the project root
  - .babelrc and .babelrc.{json,yaml,yml,toml,hcl} next to source files
  - package.json with a "babel" field
  - .babelignore, one pattern per line

🔍 Example:

	loader := config.NewLoader(afero.NewOsFs(), nil, cache.NoCache)
	file, err := loader.Load(ctx, "/proj/.babelrc")
	if err != nil {
		var verr *cfgerr.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("%s: %s\n", verr.Path, verr.Message)
		}
		return err
	}
*/
package config
