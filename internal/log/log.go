// Copyright 2026 Google LLC
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

// Package log provides the leveled logger used throughout the server.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is the logging surface used by the server. Debug and Info records
// are written to the out stream, Warn and Error records to the err stream.
type Logger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

const (
	Debug = "DEBUG"
	Info  = "INFO"
	Warn  = "WARN"
	Error = "ERROR"
)

// Supported values for the logging format.
const (
	FormatStandard = "standard"
	FormatJSON     = "json"
)

// NewLogger returns a Logger for the given format ("standard" or "json").
func NewLogger(format, level string, out, err io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return NewStructuredLogger(out, err, level)
	case FormatStandard:
		return NewStdLogger(out, err, level)
	default:
		return nil, fmt.Errorf("logging format invalid: %s", format)
	}
}

type splitLogger struct {
	out *slog.Logger
	err *slog.Logger
}

var _ Logger = &splitLogger{}

func (l *splitLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.out.DebugContext(ctx, msg, args...)
}

func (l *splitLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.out.InfoContext(ctx, msg, args...)
}

func (l *splitLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.err.WarnContext(ctx, msg, args...)
}

func (l *splitLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.err.ErrorContext(ctx, msg, args...)
}

func levelVar(level string) (*slog.LevelVar, error) {
	lvl, err := SeverityToLevel(level)
	if err != nil {
		return nil, err
	}
	v := new(slog.LevelVar)
	v.Set(lvl)
	return v, nil
}

// NewStdLogger creates a human readable logger.
func NewStdLogger(outW, errW io.Writer, level string) (Logger, error) {
	lvl, err := levelVar(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	return &splitLogger{
		out: slog.New(NewValueTextHandler(outW, opts)),
		err: slog.New(NewValueTextHandler(errW, opts)),
	}, nil
}

// NewStructuredLogger creates a JSON logger whose records follow the Cloud
// Logging LogEntry format.
// https://cloud.google.com/logging/docs/reference/v2/rest/v2/LogEntry
func NewStructuredLogger(outW, errW io.Writer, level string) (Logger, error) {
	lvl, err := levelVar(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{
		AddSource:   true,
		Level:       lvl,
		ReplaceAttr: cloudLoggingAttr,
	}
	return &splitLogger{
		out: slog.New(withSpanContext(slog.NewJSONHandler(outW, opts))),
		err: slog.New(withSpanContext(slog.NewJSONHandler(errW, opts))),
	}, nil
}

func cloudLoggingAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		sev, _ := levelToSeverity(a.Value.String())
		return slog.String("severity", sev)
	case slog.MessageKey:
		return slog.Attr{Key: "message", Value: a.Value}
	case slog.SourceKey:
		return slog.Attr{Key: "logging.googleapis.com/sourceLocation", Value: a.Value}
	case slog.TimeKey:
		return slog.Attr{Key: "timestamp", Value: a.Value}
	}
	return a
}

// SeverityToLevel converts a severity name (case insensitive) to a slog level.
func SeverityToLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case Debug:
		return slog.LevelDebug, nil
	case Info:
		return slog.LevelInfo, nil
	case Warn:
		return slog.LevelWarn, nil
	case Error:
		return slog.LevelError, nil
	default:
		return slog.Level(-5), fmt.Errorf("invalid log level %q", s)
	}
}

func levelToSeverity(s string) (string, error) {
	switch s {
	case slog.LevelDebug.String():
		return Debug, nil
	case slog.LevelInfo.String():
		return Info, nil
	case slog.LevelWarn.String():
		return Warn, nil
	case slog.LevelError.String():
		return Error, nil
	default:
		return "", fmt.Errorf("invalid slog level %q", s)
	}
}
