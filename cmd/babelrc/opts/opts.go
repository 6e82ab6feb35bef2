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

package opts

import (
	"io"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/walteh/babelrc/pkg/env"
	"github.com/walteh/babelrc/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Settings  Settings
	Fs        afero.Fs
	Getwd     func() (string, error)
	LookupEnv env.LookupFunc
	Out       io.Writer // resolved output
	Console   io.Writer // human summary
	Logger    *log.Logger
}

// 📤 OutputFormat selects how a resolved config is printed
type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// Settings is the decoded form of flags and BABELRC_* variables.
type Settings struct {
	Cwd        string       `mapstructure:"cwd"`
	EnvName    string       `mapstructure:"env-name"`
	RootMode   string       `mapstructure:"root-mode"`
	ConfigFile string       `mapstructure:"config-file"`
	NoBabelrc  bool         `mapstructure:"no-babelrc"`
	Options    string       `mapstructure:"options"`
	Output     OutputFormat `mapstructure:"output"`
	Quiet      bool         `mapstructure:"quiet"`
	Debug      bool         `mapstructure:"debug"`
	LogFile    string       `mapstructure:"log-file"`
}

// OutputFormatHook decodes and checks an OutputFormat from a string.
func OutputFormatHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(OutputFormat("")) {
			return data, nil
		}
		switch OutputFormat(strings.ToLower(strings.TrimSpace(reflect.ValueOf(data).String()))) {
		case "", OutputJSON:
			return OutputJSON, nil
		case "yml", OutputYAML:
			return OutputYAML, nil
		default:
			return nil, errors.Errorf("unknown output format %q (want json or yaml)", data)
		}
	}
}
