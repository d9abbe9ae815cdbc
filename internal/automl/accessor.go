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

package automl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/googleapis/automl-notebook-server/internal/auth"
)

// Accessor memoizes the AutoML client and parent path used by the request
// handlers. It is safe for concurrent use; the client is created on first
// use and again whenever it has been reset.
type Accessor struct {
	creds auth.CredentialProvider

	mu       sync.Mutex
	factory  ClientFactory
	location string
	client   Client
	parent   string

	// retired holds clients replaced by Reconfigure. Requests may still be
	// listing through them, so they are closed by Close only.
	retired []Client
}

// NewAccessor returns an Accessor listing resources in location.
func NewAccessor(creds auth.CredentialProvider, factory ClientFactory, location string) *Accessor {
	if location == "" {
		location = DefaultLocation
	}
	return &Accessor{creds: creds, factory: factory, location: location}
}

// Client returns the memoized client, creating it if unset. The credential
// is refreshed on every call.
func (a *Accessor) Client(ctx context.Context) (Client, error) {
	cred, err := a.creds.Get(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		c, err := a.factory(ctx, cred.TokenSource())
		if err != nil {
			return nil, fmt.Errorf("unable to create AutoML client: %w", err)
		}
		a.client = c
	}
	return a.client, nil
}

// Parent returns the memoized parent path, building it from the project of
// the current credential if unset.
func (a *Accessor) Parent(ctx context.Context) (string, error) {
	a.mu.Lock()
	parent, location := a.parent, a.location
	a.mu.Unlock()
	if parent != "" {
		return parent, nil
	}

	cred, err := a.creds.Get(ctx)
	if err != nil {
		return "", err
	}
	parent = ParentPath(cred.ProjectID(), location)

	a.mu.Lock()
	defer a.mu.Unlock()
	// a concurrent Reconfigure wins over the path computed here
	if a.location == location {
		a.parent = parent
	}
	return parent, nil
}

// Location returns the location resources are listed from.
func (a *Accessor) Location() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}

// Reconfigure switches the location and, when factory is non-nil, the
// client factory. Memoized state is dropped; the current client stays open
// for requests already holding it and is closed by Close.
func (a *Accessor) Reconfigure(location string, factory ClientFactory) {
	if location == "" {
		location = DefaultLocation
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.location = location
	a.parent = ""
	if factory != nil {
		a.factory = factory
	}
	if a.client != nil {
		a.retired = append(a.retired, a.client)
		a.client = nil
	}
}

// Close releases the memoized client and every client retired by
// Reconfigure.
func (a *Accessor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	clients := a.retired
	if a.client != nil {
		clients = append(clients, a.client)
	}
	a.client = nil
	a.retired = nil

	var errs []error
	for _, c := range clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
