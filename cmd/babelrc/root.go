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

package main

import (
	"io"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/walteh/babelrc/cmd/babelrc/commands"
	"github.com/walteh/babelrc/cmd/babelrc/opts"
	"github.com/walteh/babelrc/pkg/log"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvPrefix prefixes every environment variable that mirrors a flag.
const EnvPrefix = "BABELRC"

// Log file rotation
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 14
)

// NewRootCmd builds the command tree around o. Settings and Logger are
// filled in before any subcommand runs.
func NewRootCmd(o *opts.RootOpts) *cobra.Command {
	var logFile io.Closer

	cmd := &cobra.Command{
		Use:   "babelrc",
		Short: "Resolve Babel configuration for a file",
		Long: `babelrc discovers the Babel config files that apply to a file, folds
them together with the options you pass and prints the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadSettings(cmd, o); err != nil {
				return err
			}
			closer, err := setupLogging(o)
			if err != nil {
				return err
			}
			logFile = closer
			cmd.SetContext(log.NewContext(cmd.Context(), o.Logger))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logFile == nil {
				return nil
			}
			return logFile.Close()
		},
	}

	addRootFlags(cmd)

	cmd.AddCommand(
		commands.NewResolveCmd(o),
		commands.NewVersionCmd(o),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("cwd", "", "working directory used for discovery (default: current directory)")
	cmd.PersistentFlags().StringP("env-name", "e", "", "environment name (default: $BABEL_ENV, $NODE_ENV or development)")
	cmd.PersistentFlags().String("root-mode", "", "how to find the project root config: root, upward or upward-optional")
	cmd.PersistentFlags().StringP("config-file", "c", "", "explicit project config file")
	cmd.PersistentFlags().Bool("no-babelrc", false, "skip file-relative configs")
	cmd.PersistentFlags().String("options", "", "extra programmatic options as a JSON object")
	cmd.PersistentFlags().StringP("output", "o", string(opts.OutputJSON), "output format: json or yaml")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "do not print the resolution summary")
	cmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().String("log-file", "", "also write structured logs to this rotating file")
}

// loadSettings merges flags with BABELRC_* variables into o.Settings
func loadSettings(cmd *cobra.Command, o *opts.RootOpts) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Errorf("binding flags: %w", err)
	}

	var s opts.Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			opts.OutputFormatHook(),
		),
	)); err != nil {
		return errors.Errorf("decoding settings: %w", err)
	}
	o.Settings = s
	return nil
}

// setupLogging builds the console logger. Structured logs go to stderr
// with --debug and to a rotating file with --log-file.
func setupLogging(o *opts.RootOpts) (io.Closer, error) {
	level := zerolog.InfoLevel
	if o.Settings.Debug {
		level = zerolog.DebugLevel
	}

	console := o.Console
	if console == nil {
		console = os.Stderr
	}
	if o.Settings.Quiet {
		console = io.Discard
	}

	var writers []io.Writer
	if o.Settings.Debug {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	var closer io.Closer
	if o.Settings.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   o.Settings.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}
		writers = append(writers, lj)
		closer = lj
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	o.Logger = log.NewWithOutput(console, out, level)
	return closer, nil
}
