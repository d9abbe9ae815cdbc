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

package google

import (
	"context"
	"fmt"
	"sync"

	"github.com/googleapis/automl-notebook-server/internal/auth"
	"github.com/googleapis/automl-notebook-server/internal/util"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope is the permission scope requested for Application Default
// Credentials.
const Scope = "https://www.googleapis.com/auth/cloud-platform"

// Finder discovers credentials for the given scopes.
type Finder func(ctx context.Context, scopes ...string) (*google.Credentials, error)

// validate interface
var _ auth.CredentialProvider = &Provider{}

// Provider serves Application Default Credentials. A single Provider is
// created at startup and shared by every handler; discovery happens on the
// first call to Get.
type Provider struct {
	find    Finder
	project string

	mu   sync.Mutex
	cred *credential
}

// NewProvider returns a Provider using ADC discovery. A non-empty project
// overrides the project associated with the discovered credentials.
func NewProvider(project string) *Provider {
	return NewProviderWithFinder(project, google.FindDefaultCredentials)
}

// NewProviderWithFinder returns a Provider discovering credentials with find.
func NewProviderWithFinder(project string, find Finder) *Provider {
	return &Provider{find: find, project: project}
}

// Get returns the credential, discovering it on first use and refreshing
// its token if it has expired.
func (p *Provider) Get(ctx context.Context) (auth.Credential, error) {
	logger, err := util.LoggerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cred == nil {
		creds, err := p.find(ctx, Scope)
		if err != nil {
			logger.ErrorContext(ctx, fmt.Sprintf("Unable to find Google Cloud Credential: %s", err))
			return nil, util.NewAuthError("unable to find default Google Cloud credentials", err)
		}
		project := creds.ProjectID
		if p.project != "" {
			project = p.project
		}
		if project == "" {
			return nil, util.NewAuthError("no project associated with the default credentials, set one with --project", nil)
		}
		p.cred = &credential{
			project: project,
			ts:      oauth2.ReuseTokenSource(nil, creds.TokenSource),
		}
	}

	if !p.cred.valid() {
		logger.InfoContext(ctx, "Refreshing Google Cloud Credential")
		if err := p.cred.refresh(); err != nil {
			logger.ErrorContext(ctx, fmt.Sprintf("Unable to refresh Google Cloud Credential: %s", err))
			return nil, util.NewAuthError("unable to refresh Google Cloud credential", err)
		}
	}
	return p.cred, nil
}

var _ auth.Credential = &credential{}

type credential struct {
	project string
	ts      oauth2.TokenSource

	mu    sync.Mutex
	token *oauth2.Token
}

func (c *credential) ProjectID() string {
	return c.project
}

func (c *credential) TokenSource() oauth2.TokenSource {
	return c.ts
}

func (c *credential) valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token.Valid()
}

func (c *credential) refresh() error {
	tok, err := c.ts.Token()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
	return nil
}

func (c *credential) Header(ctx context.Context) (string, error) {
	if !c.valid() {
		if err := c.refresh(); err != nil {
			return "", util.NewAuthError("unable to refresh Google Cloud credential", err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return "Bearer " + c.token.AccessToken, nil
}
