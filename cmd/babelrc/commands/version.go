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
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/walteh/babelrc/cmd/babelrc/opts"
	"github.com/walteh/babelrc/pkg/chain"
)

// 🏷️ BuildInfo describes the binary and the config files it understands
type BuildInfo struct {
	Version       string   `json:"version" yaml:"version"`
	Commit        string   `json:"commit,omitempty" yaml:"commit,omitempty"`
	Dirty         bool     `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	Go            string   `json:"go" yaml:"go"`
	RootConfigs   []string `json:"rootConfigs" yaml:"rootConfigs"`
	RelativeFiles []string `json:"relativeConfigs" yaml:"relativeConfigs"`
}

// ReadBuildInfo fills BuildInfo from the module and VCS data embedded at link time.
func ReadBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:       "dev",
		Go:            runtime.Version(),
		RootConfigs:   append([]string(nil), chain.RootConfigNames...),
		RelativeFiles: append([]string(nil), chain.RelativeConfigNames...),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// NewVersionCmd creates the version command
func NewVersionCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and supported config file names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOutput(o.Out, o.Settings.Output, ReadBuildInfo())
		},
	}
}
