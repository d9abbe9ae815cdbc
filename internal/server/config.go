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

package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/googleapis/automl-notebook-server/internal/util"
)

const (
	DefaultBasePath       = "/automl"
	DefaultRequestTimeout = 60 * time.Second
)

type ServerConfig struct {
	// Server version
	Version string
	// Address is the address of the interface the server will listen on.
	Address string
	// Port is the port the server will listen on.
	Port int
	// Project overrides the project of the discovered credentials.
	Project string
	// Location is the AutoML location resources are listed from.
	Location string
	// Endpoint overrides the AutoML service endpoint.
	Endpoint string
	// BasePath is the path the listing routes are mounted under.
	BasePath string
	// RequestTimeout bounds the handling of a single request.
	RequestTimeout time.Duration
	// LoggingFormat defines whether structured loggings are used.
	LoggingFormat logFormat
	// LogLevel defines the levels to log.
	LogLevel StringLevel
	// TelemetryGCP defines whether GCP exporter is used.
	TelemetryGCP bool
	// TelemetryOTLP defines OTLP collector url for telemetry exports.
	TelemetryOTLP string
	// TelemetryServiceName defines the value of service.name resource attribute.
	TelemetryServiceName string
	// DisableReload indicates if the user has disabled reloading of the config file.
	DisableReload bool
	// Specifies a list of origins permitted to access this server.
	AllowedOrigins []string
	// Specifies a list of hosts permitted to access this server.
	AllowedHosts []string
	// UserAgentMetadata specifies additional metadata to append to the User-Agent string.
	UserAgentMetadata []string
}

// UserAgent returns the version string sent to Google Cloud.
func (c ServerConfig) UserAgent() string {
	if len(c.UserAgentMetadata) == 0 {
		return c.Version
	}
	return c.Version + "+" + strings.Join(c.UserAgentMetadata, "+")
}

// ApplyFile overrides the settings set in a config file.
func (c *ServerConfig) ApplyFile(f FileConfig) {
	if f.Project != "" {
		c.Project = f.Project
	}
	if f.Location != "" {
		c.Location = f.Location
	}
	if f.Endpoint != "" {
		c.Endpoint = f.Endpoint
	}
}

type logFormat string

// String is used by both fmt.Print and by Cobra in help text
func (f *logFormat) String() string {
	if string(*f) != "" {
		return strings.ToLower(string(*f))
	}
	return "standard"
}

// validate logging format flag
func (f *logFormat) Set(v string) error {
	switch strings.ToLower(v) {
	case "standard", "json":
		*f = logFormat(v)
		return nil
	default:
		return fmt.Errorf(`log format must be one of "standard", or "json"`)
	}
}

// Type is used in Cobra help text
func (f *logFormat) Type() string {
	return "logFormat"
}

type StringLevel string

// String is used by both fmt.Print and by Cobra in help text
func (s *StringLevel) String() string {
	if string(*s) != "" {
		return strings.ToLower(string(*s))
	}
	return "info"
}

// validate log level flag
func (s *StringLevel) Set(v string) error {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		*s = StringLevel(v)
		return nil
	default:
		return fmt.Errorf(`log level must be one of "debug", "info", "warn", or "error"`)
	}
}

// Type is used in Cobra help text
func (s *StringLevel) Type() string {
	return "stringLevel"
}

// FileConfig is the content of the optional config file.
type FileConfig struct {
	Project  string `yaml:"project"`
	Location string `yaml:"location" validate:"omitempty,hostname_rfc1123"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,hostname_port"`
}

// UnmarshalFileConfig strictly decodes a config file. Unknown keys are
// rejected.
func UnmarshalFileConfig(raw []byte) (FileConfig, error) {
	var f FileConfig
	if len(strings.TrimSpace(string(raw))) == 0 {
		return f, nil
	}
	if err := util.NewStrictDecoder(raw).Decode(&f); err != nil {
		return FileConfig{}, fmt.Errorf("unable to parse config file: %w", err)
	}
	return f, nil
}
