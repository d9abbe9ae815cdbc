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

package listing

import (
	"context"

	"cloud.google.com/go/automl/apiv1beta1/automlpb"
	"github.com/googleapis/automl-notebook-server/internal/automl"
)

// ListModels lists the models under parent, keeping the service's order.
func ListModels(ctx context.Context, c automl.Client, parent string) (ModelList, error) {
	models, err := c.ListModels(ctx, parent)
	if err != nil {
		return ModelList{}, err
	}
	views := make([]ModelView, 0, len(models))
	for _, m := range models {
		views = append(views, NewModelView(m))
	}
	return ModelList{Models: views}, nil
}

func NewModelView(m *automlpb.Model) ModelView {
	return ModelView{
		ID:              m.GetName(),
		DisplayName:     m.GetDisplayName(),
		DatasetID:       m.GetDatasetId(),
		UpdateTime:      toMillis(m.GetUpdateTime()),
		DeploymentState: int32(m.GetDeploymentState()),
		Metadata:        "",
	}
}
