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

package google_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/googleapis/automl-notebook-server/internal/auth/google"
	"github.com/googleapis/automl-notebook-server/internal/testutils"
	"github.com/googleapis/automl-notebook-server/internal/util"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// countingSource hands out tokens that expire after ttl.
type countingSource struct {
	ttl   time.Duration
	err   error
	calls atomic.Int32
}

func (s *countingSource) Token() (*oauth2.Token, error) {
	n := s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{
		AccessToken: "token-" + string(rune('0'+n)),
		Expiry:      time.Now().Add(s.ttl),
	}, nil
}

func finderFor(project string, src oauth2.TokenSource, finds *atomic.Int32) google.Finder {
	return func(ctx context.Context, scopes ...string) (*googleoauth.Credentials, error) {
		finds.Add(1)
		if len(scopes) != 1 || scopes[0] != google.Scope {
			return nil, errors.New("unexpected scopes")
		}
		return &googleoauth.Credentials{ProjectID: project, TokenSource: src}, nil
	}
}

func TestProviderDiscoversOnce(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	src := &countingSource{ttl: time.Hour}
	var finds atomic.Int32
	p := google.NewProviderWithFinder("", finderFor("adc-project", src, &finds))

	for i := 0; i < 3; i++ {
		cred, err := p.Get(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if cred.ProjectID() != "adc-project" {
			t.Fatalf("incorrect project: got %q", cred.ProjectID())
		}
		header, err := cred.Header(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if header != "Bearer token-1" {
			t.Fatalf("incorrect header: got %q", header)
		}
	}
	if got := finds.Load(); got != 1 {
		t.Fatalf("credentials discovered %d times, want 1", got)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("token fetched %d times, want 1", got)
	}
}

func TestProviderRefreshesExpiredToken(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// tokens are already expired when handed out
	src := &countingSource{ttl: -time.Minute}
	var finds atomic.Int32
	p := google.NewProviderWithFinder("", finderFor("adc-project", src, &finds))

	if _, err := p.Get(ctx); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := p.Get(ctx); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("token fetched %d times, want 2", got)
	}
}

func TestProviderProjectOverride(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var finds atomic.Int32
	p := google.NewProviderWithFinder("my-project", finderFor("adc-project", &countingSource{ttl: time.Hour}, &finds))
	cred, err := p.Get(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cred.ProjectID() != "my-project" {
		t.Fatalf("incorrect project: got %q, want %q", cred.ProjectID(), "my-project")
	}
}

func TestProviderErrors(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	tcs := []struct {
		desc string
		find google.Finder
	}{
		{
			desc: "discovery fails",
			find: func(ctx context.Context, scopes ...string) (*googleoauth.Credentials, error) {
				return nil, errors.New("no credentials")
			},
		},
		{
			desc: "refresh fails",
			find: func(ctx context.Context, scopes ...string) (*googleoauth.Credentials, error) {
				return &googleoauth.Credentials{
					ProjectID:   "p",
					TokenSource: &countingSource{err: errors.New("invalid_grant")},
				}, nil
			},
		},
		{
			desc: "no project",
			find: func(ctx context.Context, scopes ...string) (*googleoauth.Credentials, error) {
				return &googleoauth.Credentials{TokenSource: &countingSource{ttl: time.Hour}}, nil
			},
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			p := google.NewProviderWithFinder("", tc.find)
			_, err := p.Get(ctx)
			var authErr *util.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected an AuthError, got %v", err)
			}
			if authErr.Kind() != util.KindAuth {
				t.Fatalf("unexpected kind %s", authErr.Kind())
			}
		})
	}
}

func TestProviderConcurrentGet(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	src := &countingSource{ttl: time.Hour}
	var finds atomic.Int32
	p := google.NewProviderWithFinder("", finderFor("adc-project", src, &finds))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Get(ctx); err != nil {
				t.Errorf("unexpected error: %s", err)
			}
		}()
	}
	wg.Wait()
	if got := finds.Load(); got != 1 {
		t.Fatalf("credentials discovered %d times, want 1", got)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("token fetched %d times, want 1", got)
	}
}
