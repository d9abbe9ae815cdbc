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

package internal

import (
	"fmt"
	"os"
	"regexp"

	"github.com/googleapis/automl-notebook-server/internal/server"
)

var envPattern = regexp.MustCompile(`\$\{(\w+)(:([^}]*))?\}`)

// parseEnv replaces environment variables ${ENV_NAME} with their values.
// also support ${ENV_NAME:default_value}.
func parseEnv(input string) (string, error) {
	var err error
	output := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)

		variableName := parts[1]
		if value, found := os.LookupEnv(variableName); found {
			return value
		}
		if parts[2] != "" {
			return parts[3]
		}
		err = fmt.Errorf("environment variable not found: %q", variableName)
		return ""
	})
	return output, err
}

// parseConfigFile expands environment variables in raw and decodes it.
func parseConfigFile(raw []byte) (server.FileConfig, error) {
	output, err := parseEnv(string(raw))
	if err != nil {
		return server.FileConfig{}, fmt.Errorf("error parsing environment variables: %w", err)
	}
	return server.UnmarshalFileConfig([]byte(output))
}

// LoadConfigFile reads and parses the config file at path.
func LoadConfigFile(path string) (server.FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return server.FileConfig{}, fmt.Errorf("unable to read config file: %w", err)
	}
	return parseConfigFile(raw)
}
