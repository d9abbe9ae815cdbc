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
	"testing"
)

func TestSetupOTelWithoutExporters(t *testing.T) {
	ctx := context.Background()
	shutdown, err := SetupOTel(ctx, Options{Version: "0.0.0", ServiceName: "automl-server"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	instrumentation, err := CreateTelemetryInstrumentation("0.0.0")
	if err != nil {
		t.Fatalf("unable to create instrumentation: %s", err)
	}
	_, span := instrumentation.Tracer.Start(ctx, "automl/test")
	span.End()
	instrumentation.DatasetsList.Add(ctx, 1)

	if err := shutdown(ctx); err != nil {
		t.Fatalf("error shutting down OpenTelemetry: %s", err)
	}
	// a second shutdown is a no-op
	if err := shutdown(ctx); err != nil {
		t.Fatalf("unexpected error on second shutdown: %s", err)
	}
}
