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

package testutils

import (
	"context"
	"sync"

	"cloud.google.com/go/automl/apiv1beta1/automlpb"
	"github.com/googleapis/automl-notebook-server/internal/automl"
	"golang.org/x/oauth2"
)

var _ automl.Client = &FakeClient{}

// FakeClient serves canned AutoML resources and records the resource names
// it was asked to list.
type FakeClient struct {
	Datasets []*automlpb.Dataset
	Models   []*automlpb.Model
	// TableSpecs is keyed by dataset name.
	TableSpecs map[string][]*automlpb.TableSpec
	// ColumnSpecs is keyed by table spec name.
	ColumnSpecs map[string][]*automlpb.ColumnSpec
	// Err is returned by every list call when set.
	Err error

	mu     sync.Mutex
	listed []string
	closed bool
}

func (f *FakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, name)
}

func (f *FakeClient) ListDatasets(ctx context.Context, parent string) ([]*automlpb.Dataset, error) {
	f.record(parent)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Datasets, nil
}

func (f *FakeClient) ListModels(ctx context.Context, parent string) ([]*automlpb.Model, error) {
	f.record(parent)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Models, nil
}

func (f *FakeClient) ListTableSpecs(ctx context.Context, datasetID string) ([]*automlpb.TableSpec, error) {
	f.record(datasetID)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.TableSpecs[datasetID], nil
}

func (f *FakeClient) ListColumnSpecs(ctx context.Context, tableSpecID string) ([]*automlpb.ColumnSpec, error) {
	f.record(tableSpecID)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.ColumnSpecs[tableSpecID], nil
}

func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Listed returns the resource names passed to the list calls, in order.
func (f *FakeClient) Listed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.listed...)
}

// Closed reports whether Close was called.
func (f *FakeClient) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeClientFactory returns a factory handing out c and counting how many
// clients were created.
func FakeClientFactory(c automl.Client, created *int) automl.ClientFactory {
	var mu sync.Mutex
	return func(ctx context.Context, ts oauth2.TokenSource) (automl.Client, error) {
		mu.Lock()
		defer mu.Unlock()
		if created != nil {
			*created++
		}
		return c, nil
	}
}
