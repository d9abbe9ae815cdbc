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

// Package auth defines how the server obtains credentials for Google Cloud.
package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// CredentialProvider hands out a valid credential, refreshing it if needed.
type CredentialProvider interface {
	Get(ctx context.Context) (Credential, error)
}

// Credential is a refreshed credential together with the project it is
// associated with.
type Credential interface {
	ProjectID() string
	TokenSource() oauth2.TokenSource
	// Header returns the value of an Authorization header, "Bearer <token>".
	Header(ctx context.Context) (string, error)
}
