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

// Package listing turns AutoML resources into the JSON views served to the
// notebook front end.
package listing

import (
	"context"

	"cloud.google.com/go/automl/apiv1beta1/automlpb"
	"github.com/googleapis/automl-notebook-server/internal/automl"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ListDatasets lists the datasets under parent.
func ListDatasets(ctx context.Context, c automl.Client, parent string) (DatasetList, error) {
	datasets, err := c.ListDatasets(ctx, parent)
	if err != nil {
		return DatasetList{}, err
	}
	views := make([]DatasetView, 0, len(datasets))
	for _, d := range datasets {
		views = append(views, NewDatasetView(d))
	}
	return DatasetList{Datasets: views}, nil
}

// NewDatasetView converts a dataset. Its type is taken from the metadata
// the dataset carries, not from its name.
func NewDatasetView(d *automlpb.Dataset) DatasetView {
	v := DatasetView{
		ID:           d.GetName(),
		DisplayName:  d.GetDisplayName(),
		Description:  d.GetDescription(),
		CreateTime:   toMillis(d.GetCreateTime()),
		ExampleCount: d.GetExampleCount(),
		DatasetType:  DatasetTypeOther,
	}
	if md := d.GetTablesDatasetMetadata(); md != nil {
		v.DatasetType = DatasetTypeTables
		v.Metadata.Tables = &TablesMetadata{
			PrimaryTableSpecID: md.GetPrimaryTableSpecId(),
			TargetColumnSpecID: md.GetTargetColumnSpecId(),
			WeightColumnSpecID: md.GetWeightColumnSpecId(),
			MLUseColumnSpecID:  md.GetMlUseColumnSpecId(),
			StatsUpdateTime:    toMillis(md.GetStatsUpdateTime()),
		}
	} else if md := d.GetImageClassificationDatasetMetadata(); md != nil {
		v.DatasetType = DatasetTypeImageClassification
		v.Metadata.ImageClassification = &ImageClassificationMetadata{
			ClassificationType: int32(md.GetClassificationType()),
		}
	}
	return v
}

// ListDatasetNames lists the display names of the datasets under parent,
// numbered in listing order.
func ListDatasetNames(ctx context.Context, c automl.Client, parent string) (WordList, error) {
	datasets, err := c.ListDatasets(ctx, parent)
	if err != nil {
		return WordList{}, err
	}
	words := make([]Word, 0, len(datasets))
	for i, d := range datasets {
		words = append(words, Word{ID: i, Name: d.GetDisplayName()})
	}
	return WordList{Words: words}, nil
}

// toMillis converts a timestamp to milliseconds since epoch; unset is 0.
func toMillis(ts *timestamppb.Timestamp) int64 {
	if ts == nil {
		return 0
	}
	return ts.AsTime().UnixMilli()
}
