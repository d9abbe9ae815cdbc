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

// Package testutils holds helpers shared by the unit tests.
package testutils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/googleapis/automl-notebook-server/internal/auth"
	"github.com/googleapis/automl-notebook-server/internal/log"
	"github.com/googleapis/automl-notebook-server/internal/util"
	"golang.org/x/oauth2"
)

// FormatYaml strips the tab indentation of multiline test strings.
func FormatYaml(in string) []byte {
	in = strings.ReplaceAll(in, "\n\t", "\n ")
	in = strings.ReplaceAll(in, "\t", "  ")
	return []byte(in)
}

// ContextWithNewLogger creates a new context with new logger
func ContextWithNewLogger() (context.Context, error) {
	logger, err := log.NewStdLogger(os.Stdout, os.Stderr, "info")
	if err != nil {
		return nil, fmt.Errorf("unable to create logger: %s", err)
	}
	return util.WithLogger(context.Background(), logger), nil
}

// WaitForString reads lines from r until one matches re, returning the
// output read so far. It fails when ctx is done or r is exhausted first.
func WaitForString(ctx context.Context, re *regexp.Regexp, r io.Reader) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := sc.Text()
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
			// stop reading once matched so later calls see the rest
			if re.MatchString(line) {
				return
			}
		}
		done <- fmt.Errorf("output ended: %v", sc.Err())
	}()

	var out strings.Builder
	for {
		select {
		case <-ctx.Done():
			return out.String(), fmt.Errorf("timeout waiting for %q: %w\n%s", re, ctx.Err(), out.String())
		case err := <-done:
			return out.String(), err
		case line := <-lines:
			out.WriteString(line + "\n")
			if re.MatchString(line) {
				return out.String(), nil
			}
		}
	}
}

var (
	_ auth.CredentialProvider = &FakeCredentialProvider{}
	_ auth.Credential         = FakeCredential{}
)

// FakeCredentialProvider returns a static credential, or Err when set.
type FakeCredentialProvider struct {
	Project string
	Err     error

	mu    sync.Mutex
	calls int
}

func (f *FakeCredentialProvider) Get(ctx context.Context) (auth.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return FakeCredential{Project: f.Project}, nil
}

// Calls returns how many times Get was called.
func (f *FakeCredentialProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeCredential carries a fixed access token.
type FakeCredential struct {
	Project string
}

func (c FakeCredential) ProjectID() string { return c.Project }

func (c FakeCredential) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: "fake-token",
		Expiry:      time.Now().Add(time.Hour),
	})
}

func (c FakeCredential) Header(ctx context.Context) (string, error) {
	return "Bearer fake-token", nil
}
