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

// Package automl reaches the Cloud AutoML v1beta1 service.
package automl

import (
	"context"
	"errors"
	"fmt"

	automlapi "cloud.google.com/go/automl/apiv1beta1"
	"cloud.google.com/go/automl/apiv1beta1/automlpb"
	"github.com/googleapis/automl-notebook-server/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultLocation is the region AutoML resources are listed from.
const DefaultLocation = "us-central1"

// Client lists AutoML resources. Every method drains all result pages.
type Client interface {
	ListDatasets(ctx context.Context, parent string) ([]*automlpb.Dataset, error)
	ListModels(ctx context.Context, parent string) ([]*automlpb.Model, error)
	ListTableSpecs(ctx context.Context, datasetID string) ([]*automlpb.TableSpec, error)
	ListColumnSpecs(ctx context.Context, tableSpecID string) ([]*automlpb.ColumnSpec, error)
	Close() error
}

// ClientFactory creates a Client authenticated by ts.
type ClientFactory func(ctx context.Context, ts oauth2.TokenSource) (Client, error)

// ParentPath returns the resource name scoping list calls to a project and
// location.
func ParentPath(project, location string) string {
	return fmt.Sprintf("projects/%s/locations/%s", project, location)
}

// ClientConfig configures clients created by NewGRPCClientFactory.
type ClientConfig struct {
	// Endpoint overrides the default service endpoint when set.
	Endpoint string
	Tracer   trace.Tracer
}

// NewGRPCClientFactory returns a factory of gRPC backed clients.
func NewGRPCClientFactory(cfg ClientConfig) ClientFactory {
	return func(ctx context.Context, ts oauth2.TokenSource) (Client, error) {
		return NewGRPCClient(ctx, ts, cfg)
	}
}

var _ Client = &grpcClient{}

type grpcClient struct {
	c      *automlapi.Client
	tracer trace.Tracer
}

// NewGRPCClient connects to AutoML with the given token source.
func NewGRPCClient(ctx context.Context, ts oauth2.TokenSource, cfg ClientConfig) (Client, error) {
	userAgent, err := util.UserAgentFromContext(ctx)
	if err != nil {
		return nil, err
	}
	opts := []option.ClientOption{
		option.WithTokenSource(ts),
		option.WithUserAgent(userAgent),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	// the client outlives the request that created it
	c, err := automlapi.NewClient(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AutoML client: %w", err)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &grpcClient{c: c, tracer: tracer}, nil
}

// drain collects every item of a page iterator.
func drain[T any](next func() (T, error)) ([]T, error) {
	var items []T
	for {
		item, err := next()
		if errors.Is(err, iterator.Done) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (g *grpcClient) span(ctx context.Context, op, parent string) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, "automl/client/"+op, trace.WithAttributes(attribute.String("automl.parent", parent)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (g *grpcClient) ListDatasets(ctx context.Context, parent string) (_ []*automlpb.Dataset, err error) {
	ctx, span := g.span(ctx, "list_datasets", parent)
	defer func() { endSpan(span, err) }()

	it := g.c.ListDatasets(ctx, &automlpb.ListDatasetsRequest{Parent: parent})
	datasets, err := drain(it.Next)
	if err != nil {
		return nil, util.ProcessRemoteError(fmt.Sprintf("unable to list datasets in %q", parent), err)
	}
	return datasets, nil
}

func (g *grpcClient) ListModels(ctx context.Context, parent string) (_ []*automlpb.Model, err error) {
	ctx, span := g.span(ctx, "list_models", parent)
	defer func() { endSpan(span, err) }()

	it := g.c.ListModels(ctx, &automlpb.ListModelsRequest{Parent: parent})
	models, err := drain(it.Next)
	if err != nil {
		return nil, util.ProcessRemoteError(fmt.Sprintf("unable to list models in %q", parent), err)
	}
	return models, nil
}

func (g *grpcClient) ListTableSpecs(ctx context.Context, datasetID string) (_ []*automlpb.TableSpec, err error) {
	ctx, span := g.span(ctx, "list_table_specs", datasetID)
	defer func() { endSpan(span, err) }()

	it := g.c.ListTableSpecs(ctx, &automlpb.ListTableSpecsRequest{Parent: datasetID})
	specs, err := drain(it.Next)
	if err != nil {
		return nil, util.ProcessRemoteError(fmt.Sprintf("unable to list table specs of %q", datasetID), err)
	}
	return specs, nil
}

func (g *grpcClient) ListColumnSpecs(ctx context.Context, tableSpecID string) (_ []*automlpb.ColumnSpec, err error) {
	ctx, span := g.span(ctx, "list_column_specs", tableSpecID)
	defer func() { endSpan(span, err) }()

	it := g.c.ListColumnSpecs(ctx, &automlpb.ListColumnSpecsRequest{Parent: tableSpecID})
	specs, err := drain(it.Next)
	if err != nil {
		return nil, util.ProcessRemoteError(fmt.Sprintf("unable to list column specs of %q", tableSpecID), err)
	}
	return specs, nil
}

func (g *grpcClient) Close() error {
	return g.c.Close()
}
