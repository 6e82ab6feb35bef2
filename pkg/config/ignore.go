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
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/babelrc/pkg/cache"
	"github.com/walteh/babelrc/pkg/cfgerr"
	"gitlab.com/tozd/go/errors"
)

// IgnoreFileName is the per-directory file listing ignore patterns.
const IgnoreFileName = ".babelignore"

// 🙈 IgnoreFile is a parsed .babelignore
type IgnoreFile struct {
	Path     string
	Dirname  string
	Patterns []string
}

// LoadIgnore reads the ignore file at path. Blank lines and lines starting
// with # are skipped.
func (l *Loader) LoadIgnore(ctx context.Context, path string) (*IgnoreFile, error) {
	return cache.Load(l.Cache, l.Token, "ignore:"+path, func() (*IgnoreFile, error) {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading ignore file")

		data, err := afero.ReadFile(l.Fs, path)
		if err != nil {
			reason := "cannot be read"
			if errors.Is(err, os.ErrNotExist) {
				reason = "does not exist"
			}
			return nil, errors.WithStack(&cfgerr.ConfigFileError{Path: path, Reason: reason, Err: err})
		}

		return &IgnoreFile{
			Path:     path,
			Dirname:  filepath.Dir(path),
			Patterns: ParseIgnore(data),
		}, nil
	})
}

// ParseIgnore returns the patterns listed in an ignore file.
func ParseIgnore(data []byte) []string {
	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
