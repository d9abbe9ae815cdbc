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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "github.com/googleapis/automl-notebook-server/internal/telemetry"
	MetricName = "github.com/googleapis/automl-notebook-server/internal/telemetry"

	datasetsListCountName = "automl.server.datasets.list.count"
	modelsListCountName   = "automl.server.models.list.count"
	tableInfoGetCountName = "automl.server.tableinfo.get.count"
	namesListCountName    = "automl.server.names.list.count"
)

// Instrumentation holds the tracer and request counters of the server.
type Instrumentation struct {
	Tracer       trace.Tracer
	meter        metric.Meter
	DatasetsList metric.Int64Counter
	ModelsList   metric.Int64Counter
	TableInfoGet metric.Int64Counter
	NamesList    metric.Int64Counter
}

func CreateTelemetryInstrumentation(versionString string) (*Instrumentation, error) {
	tracer := otel.Tracer(TracerName, trace.WithInstrumentationVersion(versionString))
	meter := otel.Meter(MetricName, metric.WithInstrumentationVersion(versionString))

	counter := func(name, desc string) (metric.Int64Counter, error) {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{call}"))
		if err != nil {
			return nil, fmt.Errorf("unable to create %s metric: %w", name, err)
		}
		return c, nil
	}

	datasets, err := counter(datasetsListCountName, "Number of dataset list API calls.")
	if err != nil {
		return nil, err
	}
	models, err := counter(modelsListCountName, "Number of model list API calls.")
	if err != nil {
		return nil, err
	}
	tableInfo, err := counter(tableInfoGetCountName, "Number of table info API calls.")
	if err != nil {
		return nil, err
	}
	names, err := counter(namesListCountName, "Number of dataset name list API calls.")
	if err != nil {
		return nil, err
	}

	return &Instrumentation{
		Tracer:       tracer,
		meter:        meter,
		DatasetsList: datasets,
		ModelsList:   models,
		TableInfoGet: tableInfo,
		NamesList:    names,
	}, nil
}
