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

package server_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/googleapis/automl-notebook-server/internal/server"
	"github.com/googleapis/automl-notebook-server/internal/telemetry"
	"github.com/googleapis/automl-notebook-server/internal/testutils"
	"github.com/googleapis/automl-notebook-server/internal/util"
)

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, port := "127.0.0.1", 5000
	cfg := server.ServerConfig{
		Version:      fakeVersionString,
		Address:      addr,
		Port:         port,
		AllowedHosts: []string{"*"},
	}

	otelShutdown, err := telemetry.SetupOTel(ctx, telemetry.Options{Version: fakeVersionString, ServiceName: "automl-server"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer func() {
		err := otelShutdown(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}()

	logCtx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	logger, err := util.LoggerFromContext(logCtx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ctx = util.WithLogger(ctx, logger)

	instrumentation, err := telemetry.CreateTelemetryInstrumentation(cfg.Version)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ctx = util.WithInstrumentation(ctx, instrumentation)

	creds := &testutils.FakeCredentialProvider{Project: "p"}
	s, err := server.NewServer(ctx, cfg, newAccessor(fakeClient, creds))
	if err != nil {
		t.Fatalf("unable to initialize server: %v", err)
	}

	err = s.Listen(ctx)
	if err != nil {
		t.Fatalf("unable to start server: %v", err)
	}
	if err := s.Listen(ctx); err == nil {
		t.Fatalf("expected an error listening twice")
	}

	// start server in background
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.Serve(ctx); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	url := fmt.Sprintf("http://%s:%d/", addr, port)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("error when sending a request: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("response status code is not 200")
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("error reading from request body: %s", err)
	}
	if got := string(raw); !strings.Contains(got, "running") {
		t.Fatalf("unexpected liveness output: %q", got)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := s.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("unable to shut down: %s", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("server crashed: %s", err)
	}
}

func TestNewServerWithoutResources(t *testing.T) {
	ctx, err := testutils.ContextWithNewLogger()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := server.NewServer(ctx, server.ServerConfig{}, nil); err == nil {
		t.Fatal("expected an error without resources")
	}
}

func TestBasePath(t *testing.T) {
	creds := &testutils.FakeCredentialProvider{Project: "p"}
	tcs := []struct {
		desc     string
		basePath string
		path     string
	}{
		{desc: "default", basePath: "/automl", path: "/automl/v1/models"},
		{desc: "no leading slash", basePath: "notebook/automl", path: "/notebook/automl/v1/models"},
		{desc: "trailing slash", basePath: "/automl/", path: "/automl/v1/models"},
		{desc: "root", basePath: "", path: "/v1/models"},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			url := setUpServer(t, server.ServerConfig{BasePath: tc.basePath}, newAccessor(fakeClient, creds))
			if resp, body := runRequest(t, url+tc.path); resp.StatusCode != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, body)
			}
		})
	}
}

func TestHostCheck(t *testing.T) {
	creds := &testutils.FakeCredentialProvider{Project: "p"}
	cfg := server.ServerConfig{BasePath: "/automl", AllowedHosts: []string{"notebook.example.com"}}
	url := setUpServer(t, cfg, newAccessor(fakeClient, creds))
	resp, _ := runRequest(t, url+"/automl/v1/models")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.StatusCode)
	}

	cfg.AllowedHosts = []string{"127.0.0.1:1234"}
	url = setUpServer(t, cfg, newAccessor(fakeClient, creds))
	if resp, body := runRequest(t, url+"/automl/v1/models"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, body)
	}
}

func TestUnmarshalFileConfig(t *testing.T) {
	tcs := []struct {
		desc string
		in   string
		want server.FileConfig
		err  bool
	}{
		{
			desc: "full",
			in: `
			project: my-project
			location: eu
			endpoint: eu-automl.googleapis.com:443
			`,
			want: server.FileConfig{Project: "my-project", Location: "eu", Endpoint: "eu-automl.googleapis.com:443"},
		},
		{
			desc: "empty",
			in:   "",
		},
		{
			desc: "unknown key",
			in: `
			project: my-project
			region: eu
			`,
			err: true,
		},
		{
			desc: "endpoint without port",
			in: `
			endpoint: automl.googleapis.com
			`,
			err: true,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := server.UnmarshalFileConfig(testutils.FormatYaml(tc.in))
			if tc.err {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("incorrect config (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyFile(t *testing.T) {
	cfg := server.ServerConfig{Project: "flag-project", Location: "us-central1"}
	cfg.ApplyFile(server.FileConfig{Location: "eu"})
	want := server.ServerConfig{Project: "flag-project", Location: "eu"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("incorrect config (-want +got):\n%s", diff)
	}
}

func TestUserAgent(t *testing.T) {
	cfg := server.ServerConfig{Version: "1.0.0"}
	if got := cfg.UserAgent(); got != "1.0.0" {
		t.Fatalf("unexpected user agent %q", got)
	}
	cfg.UserAgentMetadata = []string{"jupyter", "dev"}
	if got := cfg.UserAgent(); got != "1.0.0+jupyter+dev" {
		t.Fatalf("unexpected user agent %q", got)
	}
}
