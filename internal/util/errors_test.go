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
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

func TestProcessRemoteError(t *testing.T) {
	tcs := []struct {
		name     string
		in       error
		wantCode int
		wantMsg  string
		contains bool
	}{
		{
			name:     "grpc not found",
			in:       grpcstatus.Error(codes.NotFound, "dataset missing"),
			wantCode: http.StatusNotFound,
			wantMsg:  "unable to list datasets: rpc error: code = NotFound desc = dataset missing",
		},
		{
			name:     "grpc quota",
			in:       grpcstatus.Error(codes.ResourceExhausted, "quota"),
			wantCode: http.StatusTooManyRequests,
			wantMsg:  "unable to list datasets: rpc error: code = ResourceExhausted desc = quota",
		},
		{
			name:     "googleapi error",
			in:       &googleapi.Error{Code: http.StatusForbidden, Message: "denied"},
			wantCode: http.StatusForbidden,
			wantMsg:  "unable to list datasets: googleapi: Error 403: denied",
			contains: true,
		},
		{
			name:     "plain error",
			in:       errors.New("connection reset"),
			wantCode: 0,
			wantMsg:  "unable to list datasets: connection reset",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := ProcessRemoteError("unable to list datasets", tc.in)
			var rErr *RemoteError
			if !errors.As(err, &rErr) {
				t.Fatalf("expected a RemoteError, got %T", err)
			}
			if rErr.Code != tc.wantCode {
				t.Fatalf("incorrect code: got %d, want %d", rErr.Code, tc.wantCode)
			}
			if tc.contains {
				if !strings.Contains(err.Error(), "denied") || !strings.HasPrefix(err.Error(), "unable to list datasets: ") {
					t.Fatalf("incorrect message: got %q", err.Error())
				}
			} else if err.Error() != tc.wantMsg {
				t.Fatalf("incorrect message: got %q, want %q", err.Error(), tc.wantMsg)
			}
			if !errors.Is(err, tc.in) {
				t.Fatalf("cause was not wrapped")
			}
		})
	}
}

func TestProcessRemoteErrorPassThrough(t *testing.T) {
	if err := ProcessRemoteError("msg", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	authErr := NewAuthError("Unable to refresh Google Cloud Credential", errors.New("expired"))
	wrapped := fmt.Errorf("listing: %w", authErr)
	got := ProcessRemoteError("unable to list datasets", wrapped)
	if got != wrapped {
		t.Fatalf("expected error to pass through unchanged, got %v", got)
	}
	var sErr ServerError
	if !errors.As(got, &sErr) || sErr.Kind() != KindAuth {
		t.Fatalf("expected auth kind, got %v", got)
	}
}

func TestRequestError(t *testing.T) {
	err := NewRequestError("missing argument %s", "datasetId")
	if err.Error() != "missing argument datasetId" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if err.Kind() != KindRequest {
		t.Fatalf("unexpected kind: %s", err.Kind())
	}
}
