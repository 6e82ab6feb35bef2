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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	entryIndent = 4  // spaces to indent entries
	originWidth = 40 // Base width for file path or name
	kindWidth   = 10 // Width for layer or descriptor kind
)

// 📄 LayerEntry is one configuration source shown in a resolution summary
type LayerEntry struct {
	Kind    string // root, relative, package, extends, arguments
	Origin  string // File path or "<arguments>"
	Fields  int    // Number of top-level options set
	Plugins int
	Presets int
}

// 🔌 DescriptorEntry is one resolved plugin or preset
type DescriptorEntry struct {
	Kind       string // plugin or preset
	Name       string
	Resolved   string // Module path, empty when not resolved by name
	HasOptions bool
}

// 🎯 Resolution describes the file being resolved
type Resolution struct {
	Filename string
	EnvName  string
	Cwd      string
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *Resolution
	layers  []LayerEntry
}

// 🏭 New creates a new logger writing structured logs to a console writer
func New(console io.Writer, level zerolog.Level) *Logger {
	return NewWithOutput(console, zerolog.NewConsoleWriter(), level)
}

// 🏭 NewWithOutput creates a logger whose structured logs go to out
func NewWithOutput(console, out io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(out).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context, along with its zerolog logger
// so library code can use zerolog.Ctx
func NewContext(ctx context.Context, l *Logger) context.Context {
	ctx = l.zlog.WithContext(ctx)
	return context.WithValue(ctx, contextKey{}, l)
}

func kindColor(kind string) (rune, color.Attribute) {
	switch kind {
	case "root":
		return '◆', color.FgMagenta
	case "relative":
		return '•', color.FgCyan
	case "package":
		return '▪', color.FgBlue
	case "extends":
		return '↳', color.FgYellow
	case "arguments":
		return '⚙', color.FgGreen
	default:
		return '-', color.FgWhite
	}
}

// 📝 formatLayer formats a layer for display
func (l *Logger) formatLayer(e LayerEntry) string {
	symbol, symbolColor := kindColor(e.Kind)

	summary := fmt.Sprintf("%d fields", e.Fields)
	if e.Plugins > 0 || e.Presets > 0 {
		summary += fmt.Sprintf(", %d plugins, %d presets", e.Plugins, e.Presets)
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", entryIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", originWidth, e.Origin),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", kindWidth, e.Kind)),
		summary)
}

// 📝 formatDescriptor formats a plugin or preset for display
func (l *Logger) formatDescriptor(e DescriptorEntry) string {
	target := e.Resolved
	if target == "" {
		target = "(not resolved by name)"
	}
	name := e.Name
	if e.HasOptions {
		name += " {…}"
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", entryIndent, ""),
		color.New(color.FgGreen).Sprint("+"),
		color.New(color.FgBlue).Sprint(fmt.Sprintf("%-*s", kindWidth, e.Kind)),
		fmt.Sprintf("%-*s", originWidth, name),
		color.New(color.Faint).Sprint(target))
}

// 📝 LogLayer logs a configuration layer
func (l *Logger) LogLayer(ctx context.Context, e LayerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.layers = append(l.layers, e)

	fmt.Fprintln(l.console, l.formatLayer(e))

	l.zlog.Info().
		Str("kind", e.Kind).
		Str("origin", e.Origin).
		Int("fields", e.Fields).
		Int("plugins", e.Plugins).
		Int("presets", e.Presets).
		Msg("config layer")
}

// 📝 LogDescriptor logs a resolved plugin or preset
func (l *Logger) LogDescriptor(ctx context.Context, e DescriptorEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatDescriptor(e))

	l.zlog.Info().
		Str("kind", e.Kind).
		Str("name", e.Name).
		Str("resolved", e.Resolved).
		Bool("has_options", e.HasOptions).
		Msg("descriptor")
}

// 📝 StartResolution starts a new resolution summary
func (l *Logger) StartResolution(ctx context.Context, r Resolution) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &r
	l.layers = nil

	target := r.Filename
	if target == "" {
		target = r.Cwd
	}
	fmt.Fprintf(l.console, "[resolving %s]\n",
		color.New(color.FgCyan).Sprint(target))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint("env"),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(r.EnvName))

	l.zlog.Info().
		Str("filename", r.Filename).
		Str("env", r.EnvName).
		Str("cwd", r.Cwd).
		Msg("starting resolution")
}

// 📝 EndResolution ends the current resolution summary
func (l *Logger) EndResolution(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.zlog.Info().
		Str("filename", l.current.Filename).
		Int("layers", len(l.layers)).
		Msg("resolution complete")

	l.current = nil
	l.layers = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("babelrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}
