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

package telemetry

import (
	"context"
	"errors"
	"fmt"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Options selects the exporters of the telemetry pipeline. With no exporter
// configured, spans and metrics are recorded but never exported.
type Options struct {
	Version     string
	ServiceName string
	// OTLP is the endpoint of an OTLP HTTP collector, e.g. "127.0.0.1:4318".
	OTLP string
	// GCP enables exporting to Cloud Trace and Cloud Monitoring.
	GCP bool
}

// SetupOTel installs the global tracer and meter providers. The returned
// shutdown function flushes and stops them; call it once on exit.
func SetupOTel(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}
	fail := func(inErr error) (func(context.Context) error, error) {
		return shutdown, errors.Join(inErr, shutdown(ctx))
	}

	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithOS(),
		resource.WithHost(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.Version),
		),
	)
	if err != nil {
		return fail(fmt.Errorf("unable to set up resource: %w", err))
	}

	tp, err := newTracerProvider(ctx, res, opts)
	if err != nil {
		return fail(fmt.Errorf("unable to set up trace provider: %w", err))
	}
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	mp, err := newMeterProvider(ctx, res, opts)
	if err != nil {
		return fail(fmt.Errorf("unable to set up meter provider: %w", err))
	}
	shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	otel.SetMeterProvider(mp)

	return shutdown, nil
}

func newTracerProvider(ctx context.Context, r *resource.Resource, opts Options) (*tracesdk.TracerProvider, error) {
	traceOpts := []tracesdk.TracerProviderOption{tracesdk.WithResource(r)}
	if opts.OTLP != "" {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(opts.OTLP))
		if err != nil {
			return nil, err
		}
		traceOpts = append(traceOpts, tracesdk.WithBatcher(exp))
	}
	if opts.GCP {
		exp, err := texporter.New()
		if err != nil {
			return nil, err
		}
		traceOpts = append(traceOpts, tracesdk.WithBatcher(exp))
	}
	return tracesdk.NewTracerProvider(traceOpts...), nil
}

func newMeterProvider(ctx context.Context, r *resource.Resource, opts Options) (*metric.MeterProvider, error) {
	metricOpts := []metric.Option{metric.WithResource(r)}
	if opts.OTLP != "" {
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(opts.OTLP))
		if err != nil {
			return nil, err
		}
		metricOpts = append(metricOpts, metric.WithReader(metric.NewPeriodicReader(exp)))
	}
	if opts.GCP {
		exp, err := mexporter.New()
		if err != nil {
			return nil, err
		}
		metricOpts = append(metricOpts, metric.WithReader(metric.NewPeriodicReader(exp)))
	}
	return metric.NewMeterProvider(metricOpts...), nil
}
