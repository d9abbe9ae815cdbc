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

package util

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	yaml "github.com/goccy/go-yaml"
	"github.com/googleapis/automl-notebook-server/internal/log"
	"github.com/googleapis/automl-notebook-server/internal/telemetry"
)

// UserAgentPrefix is prepended to the version string in the User-Agent sent
// to Google Cloud.
const UserAgentPrefix = "automl-notebook-server/"

type contextKey string

const userAgentKey contextKey = "userAgent"

func WithUserAgent(ctx context.Context, versionString string) context.Context {
	return context.WithValue(ctx, userAgentKey, UserAgentPrefix+versionString)
}

func UserAgentFromContext(ctx context.Context) (string, error) {
	if ua, ok := ctx.Value(userAgentKey).(string); ok {
		return ua, nil
	}
	return "", fmt.Errorf("unable to retrieve user agent")
}

const loggerKey contextKey = "logger"

func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func LoggerFromContext(ctx context.Context) (log.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(log.Logger); ok {
		return logger, nil
	}
	return nil, fmt.Errorf("unable to retrieve logger")
}

const instrumentationKey contextKey = "instrumentation"

func WithInstrumentation(ctx context.Context, instrumentation *telemetry.Instrumentation) context.Context {
	return context.WithValue(ctx, instrumentationKey, instrumentation)
}

func InstrumentationFromContext(ctx context.Context) (*telemetry.Instrumentation, error) {
	if instrumentation, ok := ctx.Value(instrumentationKey).(*telemetry.Instrumentation); ok {
		return instrumentation, nil
	}
	return nil, fmt.Errorf("unable to retrieve instrumentation")
}

// NewStrictDecoder returns a decoder over raw YAML that rejects unknown
// fields and runs validator tags on the decoded value.
func NewStrictDecoder(raw []byte) *yaml.Decoder {
	return yaml.NewDecoder(
		bytes.NewReader(raw),
		yaml.Strict(),
		yaml.Validator(validator.New()),
	)
}
