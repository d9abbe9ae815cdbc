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

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

type ErrorKind string

const (
	KindAuth    ErrorKind = "AUTH_ERROR"
	KindRemote  ErrorKind = "REMOTE_ERROR"
	KindRequest ErrorKind = "REQUEST_ERROR"
)

// ServerError is an error raised while serving a request. Every ServerError
// reaches the client as the JSON error envelope.
type ServerError interface {
	error
	Kind() ErrorKind
	Unwrap() error
}

// AuthError reports a failure to obtain or refresh Google Cloud credentials.
type AuthError struct {
	Msg   string
	Cause error
}

var _ ServerError = &AuthError{}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *AuthError) Kind() ErrorKind { return KindAuth }

func (e *AuthError) Unwrap() error { return e.Cause }

func NewAuthError(msg string, cause error) *AuthError {
	return &AuthError{Msg: msg, Cause: cause}
}

// RemoteError reports a failed call to the AutoML service. Code is the
// HTTP equivalent of the remote status, or 0 when unknown.
type RemoteError struct {
	Msg   string
	Code  int
	Cause error
}

var _ ServerError = &RemoteError{}

func (e *RemoteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *RemoteError) Kind() ErrorKind { return KindRemote }

func (e *RemoteError) Unwrap() error { return e.Cause }

func NewRemoteError(msg string, code int, cause error) *RemoteError {
	return &RemoteError{Msg: msg, Code: code, Cause: cause}
}

// RequestError reports a malformed request, such as a missing parameter.
type RequestError struct {
	Msg string
}

var _ ServerError = &RequestError{}

func (e *RequestError) Error() string { return e.Msg }

func (e *RequestError) Kind() ErrorKind { return KindRequest }

func (e *RequestError) Unwrap() error { return nil }

func NewRequestError(format string, args ...any) *RequestError {
	return &RequestError{Msg: fmt.Sprintf(format, args...)}
}

// ProcessRemoteError wraps an error returned by an AutoML call, keeping the
// remote status code when one is available. Errors that are already a
// ServerError pass through unchanged.
func ProcessRemoteError(msg string, err error) error {
	if err == nil {
		return nil
	}
	var sErr ServerError
	if errors.As(err, &sErr) {
		return err
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return NewRemoteError(msg, gErr.Code, err)
	}
	if st, ok := grpcstatus.FromError(err); ok {
		return NewRemoteError(msg, HTTPStatusFromCode(st.Code()), err)
	}
	return NewRemoteError(msg, 0, err)
}

// HTTPStatusFromCode maps a gRPC status code to its HTTP equivalent.
func HTTPStatusFromCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return 499
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
