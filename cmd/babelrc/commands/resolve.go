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

package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"github.com/walteh/babelrc/cmd/babelrc/opts"
	"github.com/walteh/babelrc/pkg/cache"
	"github.com/walteh/babelrc/pkg/descriptor"
	"github.com/walteh/babelrc/pkg/env"
	"github.com/walteh/babelrc/pkg/log"
	"github.com/walteh/babelrc/pkg/options"
	"github.com/walteh/babelrc/pkg/partial"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DotenvFile is read from the working directory to supply BABEL_ENV and NODE_ENV.
const DotenvFile = ".env"

// cacheToken scopes cached config files to a single invocation.
const cacheToken = "cli"

// NewResolveCmd creates the resolve command
func NewResolveCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Print the resolved configuration for a file",
		Long: `Resolve finds every config file that applies to the given file, folds
them with the programmatic options and prints the pinned result.
It will:
1. Find the project root config
2. Walk up from the file collecting .babelrc files
3. Apply env and overrides blocks
4. Print the merged options, or null when the file is ignored`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), o, args)
		},
	}

	return cmd
}

func runResolve(ctx context.Context, o *opts.RootOpts, args []string) error {
	logger := log.FromContext(ctx)

	raw, err := buildOptions(o.Settings, args)
	if err != nil {
		return err
	}

	getwd := o.Getwd
	if getwd == nil {
		getwd = os.Getwd
	}
	wd, err := getwd()
	if err != nil {
		return errors.Errorf("getting working directory: %w", err)
	}
	cwd := wd
	if c, ok := raw[options.KeyCwd].(string); ok && c != "" {
		cwd = c
		if !filepath.IsAbs(cwd) {
			cwd = filepath.Join(wd, cwd)
		}
	}

	lookup, err := dotenvLookup(o.Fs, cwd, o.LookupEnv)
	if err != nil {
		return err
	}

	loader := &partial.Loader{
		Fs:        o.Fs,
		Resolver:  descriptor.NewNodeResolver(o.Fs),
		Cache:     cache.New(),
		Token:     cacheToken,
		LookupEnv: lookup,
		Getwd:     func() (string, error) { return wd, nil },
	}

	p, err := loader.LoadValue(ctx, raw)
	if err != nil {
		return errors.Errorf("resolving config: %w", err)
	}

	if p == nil {
		logger.Warning("file is ignored by the configuration")
		return writeOutput(o.Out, o.Settings.Output, nil)
	}

	summarize(ctx, logger, p)

	return writeOutput(o.Out, o.Settings.Output, p.Raw())
}

// buildOptions turns --options and the dedicated flags into programmatic options
func buildOptions(s opts.Settings, args []string) (map[string]any, error) {
	raw := map[string]any{}
	if s.Options != "" {
		var v any
		if err := json.Unmarshal(jsonc.ToJSON([]byte(s.Options)), &v); err != nil {
			return nil, errors.Errorf("parsing --options: %w", err)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, errors.Errorf("--options must be a JSON object, got %T", v)
		}
		raw = m
	}

	set := func(key, value string) {
		if value != "" {
			raw[key] = value
		}
	}
	set(options.KeyCwd, s.Cwd)
	set(options.KeyEnvName, s.EnvName)
	set(options.KeyRootMode, s.RootMode)
	set(options.KeyConfigFile, s.ConfigFile)
	if s.NoBabelrc {
		raw[options.KeyBabelrc] = false
	}
	if len(args) > 0 {
		raw[options.KeyFilename] = args[0]
	}
	return raw, nil
}

// dotenvLookup layers dir/.env under next; process variables win
func dotenvLookup(fsys afero.Fs, dir string, next env.LookupFunc) (env.LookupFunc, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if next == nil {
		next = os.LookupEnv
	}

	path := filepath.Join(dir, DotenvFile)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return next, nil
		}
		return nil, errors.Errorf("reading %s: %w", path, err)
	}

	vars, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}

	return func(key string) (string, bool) {
		if v, ok := next(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

func summarize(ctx context.Context, logger *log.Logger, p *partial.PartialConfig) {
	s, err := p.Settings()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("decoding settings for summary")
	}

	logger.StartResolution(ctx, log.Resolution{
		Filename: s.Filename,
		EnvName:  s.EnvName,
		Cwd:      s.Cwd,
	})
	defer logger.EndResolution(ctx)

	for _, l := range p.Layers() {
		logger.LogLayer(ctx, log.LayerEntry{
			Kind:    string(l.Kind),
			Origin:  l.Origin(),
			Fields:  l.Options.Len(),
			Plugins: len(l.Options.Descriptors(options.KeyPlugins)),
			Presets: len(l.Options.Descriptors(options.KeyPresets)),
		})
	}
	for _, d := range append(p.Presets(), p.Plugins()...) {
		logger.LogDescriptor(ctx, descriptorEntry(d))
	}
}

func descriptorEntry(d *descriptor.Descriptor) log.DescriptorEntry {
	name, ok := d.Source().Name()
	if !ok {
		name = "<" + d.Source().Kind().String() + ">"
	}
	if d.Name() != "" {
		name += " (" + d.Name() + ")"
	}
	return log.DescriptorEntry{
		Kind:       d.Kind().String(),
		Name:       name,
		Resolved:   d.Resolved(),
		HasOptions: len(d.Options()) > 0,
	}
}

func writeOutput(w io.Writer, format opts.OutputFormat, v any) error {
	switch format {
	case opts.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return errors.Errorf("encoding json: %w", err)
		}
		return nil
	}
}
