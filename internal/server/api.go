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
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/googleapis/automl-notebook-server/internal/automl"
	"github.com/googleapis/automl-notebook-server/internal/listing"
	"github.com/googleapis/automl-notebook-server/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// datasetIDParam is the query parameter naming the dataset of tableInfo.
const datasetIDParam = "datasetId"

// apiRouter creates a router that represents the routes under {base}/v1
func apiRouter(s *Server) (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(middleware.StripSlashes)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/datasets", func(w http.ResponseWriter, r *http.Request) { datasetsHandler(s, w, r) })
	r.Get("/models", func(w http.ResponseWriter, r *http.Request) { modelsHandler(s, w, r) })
	r.Get("/tableInfo", func(w http.ResponseWriter, r *http.Request) { tableInfoHandler(s, w, r) })
	r.Get("/list", func(w http.ResponseWriter, r *http.Request) { namesHandler(s, w, r) })

	return r, nil
}

// fetchFunc produces the payload of a listing endpoint.
type fetchFunc func(ctx context.Context, c automl.Client, parent string) (any, error)

// handle runs the lifecycle shared by the listing endpoints: resolve the
// client and parent, fetch, then respond with the payload or the error
// envelope.
func (s *Server) handle(w http.ResponseWriter, r *http.Request, spanName string, counter metric.Int64Counter, needsParent bool, fetch fetchFunc) {
	ctx, span := s.instrumentation.Tracer.Start(r.Context(), spanName)
	r = r.WithContext(ctx)

	var err error
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		status := "success"
		if err != nil {
			status = "error"
		}
		counter.Add(
			r.Context(),
			1,
			metric.WithAttributes(attribute.String("automl.operation.status", status)),
		)
	}()

	c, err := s.resources.Client(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var parent string
	if needsParent {
		parent, err = s.resources.Parent(ctx)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		span.SetAttributes(attribute.String("automl.parent", parent))
	}

	var res any
	res, err = fetch(ctx, c, parent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// datasetsHandler lists the datasets of the configured project and location.
func datasetsHandler(s *Server, w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, "automl/server/datasets/list", s.instrumentation.DatasetsList, true,
		func(ctx context.Context, c automl.Client, parent string) (any, error) {
			return listing.ListDatasets(ctx, c, parent)
		})
}

// modelsHandler lists the models of the configured project and location.
func modelsHandler(s *Server, w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, "automl/server/models/list", s.instrumentation.ModelsList, true,
		func(ctx context.Context, c automl.Client, parent string) (any, error) {
			return listing.ListModels(ctx, c, parent)
		})
}

// tableInfoHandler lists the table and column statistics of one dataset.
func tableInfoHandler(s *Server, w http.ResponseWriter, r *http.Request) {
	datasetID := r.URL.Query().Get(datasetIDParam)
	s.logger.DebugContext(r.Context(), fmt.Sprintf("dataset id: %s", datasetID))
	s.handle(w, r, "automl/server/tableinfo/get", s.instrumentation.TableInfoGet, false,
		func(ctx context.Context, c automl.Client, _ string) (any, error) {
			if datasetID == "" {
				return nil, util.NewRequestError("missing required query parameter %q", datasetIDParam)
			}
			return listing.ListTableSpecs(ctx, c, datasetID)
		})
}

// namesHandler lists the display names of the datasets.
func namesHandler(s *Server, w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, "automl/server/names/list", s.instrumentation.NamesList, true,
		func(ctx context.Context, c automl.Client, parent string) (any, error) {
			return listing.ListDatasetNames(ctx, c, parent)
		})
}

// writeError logs err and responds with the error envelope. Every failure
// is reported as 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := "UNKNOWN"
	var sErr util.ServerError
	if errors.As(err, &sErr) {
		kind = string(sErr.Kind())
	}
	args := []any{"kind", kind}
	var rErr *util.RemoteError
	if errors.As(err, &rErr) && rErr.Code != 0 {
		args = append(args, "remote_code", rErr.Code)
	}
	s.logger.ErrorContext(r.Context(), fmt.Sprintf("request to %s failed: %v", r.URL.Path, err), args...)
	_ = render.Render(w, r, newErrResponse(err))
}

var _ render.Renderer = &errResponse{} // Renderer interface for managing response payloads.

func newErrResponse(err error) *errResponse {
	return &errResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		Error:          errorBody{Message: err.Error()},
	}
}

// errResponse is the response sent back when an error has been encountered.
type errResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
}

func (e *errResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}
