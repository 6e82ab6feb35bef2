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

// Kind selects which schema a raw option bag is validated against.
type Kind uint8

const (
	// KindArguments is programmatic input passed by the caller.
	KindArguments Kind = 1 << iota
	// KindFile is the root of a config file.
	KindFile
	// KindEnv is one entry of an "env" mapping.
	KindEnv
	// KindOverride is one entry of an "overrides" list.
	KindOverride
)

func (k Kind) String() string {
	switch k {
	case KindArguments:
		return "arguments"
	case KindFile:
		return "file"
	case KindEnv:
		return "env"
	case KindOverride:
		return "override"
	default:
		return "unknown"
	}
}

const (
	anyKind      = KindArguments | KindFile | KindEnv | KindOverride
	rootKind     = KindArguments
	configKind   = KindArguments | KindFile
	overrideOnly = KindOverride
)

// Recognized field names that the chain handles structurally.
const (
	KeyFilename         = "filename"
	KeyFilenameRelative = "filenameRelative"
	KeyCwd              = "cwd"
	KeyEnvName          = "envName"
	KeyBabelrc          = "babelrc"
	KeyConfigFile       = "configFile"
	KeyRoot             = "root"
	KeyRootMode         = "rootMode"
	KeyExtends          = "extends"
	KeyEnv              = "env"
	KeyOverrides        = "overrides"
	KeyPlugins          = "plugins"
	KeyPresets          = "presets"
	KeyIgnore           = "ignore"
	KeyOnly             = "only"
	KeyTest             = "test"
	KeyInclude          = "include"
	KeyExclude          = "exclude"
	KeyPassPerPreset    = "passPerPreset"
	KeyParserOpts       = "parserOpts"
	KeyGeneratorOpts    = "generatorOpts"

	// keyOverrideOptions is the nested shorthand accepted inside an override.
	keyOverrideOptions = "options"
)

// Root modes accepted by "rootMode".
const (
	RootModeRoot           = "root"
	RootModeUpward         = "upward"
	RootModeUpwardOptional = "upward-optional"
)

type strategy uint8

const (
	// incoming scalar overwrites base scalar
	mergeScalar strategy = iota
	// incoming replaces base whatever the shapes
	mergeReplace
	// identity-deduplicated descriptor lists
	mergeDescriptors
	// list concatenation
	mergeConcat
	// recursive field-by-field merge
	mergeNested
)

type checker func(path string, v any) (any, error)

type field struct {
	kinds Kind
	check checker
	merge strategy
}

var schema map[string]field

func init() {
	schema = map[string]field{
		KeyFilename:         {rootKind, checkString, mergeScalar},
		KeyFilenameRelative: {rootKind, checkString, mergeScalar},
		KeyCwd:              {rootKind, checkString, mergeScalar},
		KeyEnvName:          {rootKind, checkString, mergeScalar},
		KeyBabelrc:          {rootKind, checkBool, mergeScalar},
		KeyConfigFile:       {rootKind, checkStringOrFalse, mergeScalar},
		KeyRoot:             {rootKind, checkString, mergeScalar},
		KeyRootMode:         {rootKind, checkEnum(RootModeRoot, RootModeUpward, RootModeUpwardOptional), mergeScalar},

		KeyExtends:   {configKind, checkString, mergeReplace},
		KeyEnv:       {KindArguments | KindFile | KindOverride, checkEnv, mergeReplace},
		KeyOverrides: {KindArguments | KindFile | KindEnv, checkOverrides, mergeReplace},

		KeyTest:    {overrideOnly, checkPatterns, mergeConcat},
		KeyInclude: {overrideOnly, checkPatterns, mergeConcat},
		KeyExclude: {overrideOnly, checkPatterns, mergeConcat},

		KeyPlugins:       {anyKind, checkPlugins, mergeDescriptors},
		KeyPresets:       {anyKind, checkPresets, mergeDescriptors},
		KeyIgnore:        {anyKind, checkPatterns, mergeConcat},
		KeyOnly:          {anyKind, checkPatterns, mergeConcat},
		KeyPassPerPreset: {anyKind, checkBool, mergeScalar},
		KeyParserOpts:    {anyKind, checkObject, mergeNested},
		KeyGeneratorOpts: {anyKind, checkObject, mergeNested},

		"sourceType":             {anyKind, checkEnum("module", "script", "unambiguous"), mergeScalar},
		"comments":               {anyKind, checkBool, mergeScalar},
		"compact":                {anyKind, checkBoolOrEnum("auto"), mergeScalar},
		"minified":               {anyKind, checkBool, mergeScalar},
		"retainLines":            {anyKind, checkBool, mergeScalar},
		"sourceMaps":             {anyKind, checkBoolOrEnum("inline", "both"), mergeScalar},
		"sourceRoot":             {anyKind, checkString, mergeScalar},
		"sourceFileName":         {anyKind, checkString, mergeScalar},
		"auxiliaryCommentBefore": {anyKind, checkString, mergeScalar},
		"auxiliaryCommentAfter":  {anyKind, checkString, mergeScalar},
		"moduleIds":              {anyKind, checkBool, mergeScalar},
		"moduleId":               {anyKind, checkString, mergeScalar},
		"moduleRoot":             {anyKind, checkString, mergeScalar},
		"highlightCode":          {anyKind, checkBool, mergeScalar},
		"ast":                    {anyKind, checkBool, mergeScalar},
		"code":                   {anyKind, checkBool, mergeScalar},
		"inputSourceMap":         {anyKind, checkBoolOrObject, mergeReplace},
	}
}

// Known reports whether name is a recognized option for kind.
func Known(kind Kind, name string) bool {
	f, ok := schema[name]
	return ok && f.kinds&kind != 0
}

func strategyFor(key string) strategy {
	if f, ok := schema[key]; ok {
		return f.merge
	}
	return mergeNested
}
