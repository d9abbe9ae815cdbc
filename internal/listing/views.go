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
	"bytes"
	"encoding/json"
	"fmt"
)

// ChartItem is one labelled amount of a chart: a histogram bucket, a
// category, a time bucket, or a count of columns of one type.
type ChartItem struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// DatasetList is the payload of the datasets endpoint.
type DatasetList struct {
	Datasets []DatasetView `json:"datasets"`
}

const (
	DatasetTypeTables              = "tables"
	DatasetTypeImageClassification = "image_classification"
	DatasetTypeOther               = "other"
)

type DatasetView struct {
	ID           string          `json:"id"`
	DisplayName  string          `json:"displayName"`
	Description  string          `json:"description"`
	CreateTime   int64           `json:"createTime"` // milliseconds since epoch
	ExampleCount int32           `json:"exampleCount"`
	Metadata     DatasetMetadata `json:"metadata"`
	DatasetType  string          `json:"datasetType"`
}

// DatasetMetadata holds at most one of the type specific metadata. It
// encodes as the JSON object of the set member, or as "" when neither is set.
type DatasetMetadata struct {
	Tables              *TablesMetadata
	ImageClassification *ImageClassificationMetadata
}

type TablesMetadata struct {
	PrimaryTableSpecID string `json:"primary_table_spec_id"`
	TargetColumnSpecID string `json:"target_column_spec_id"`
	WeightColumnSpecID string `json:"weight_column_spec_id"`
	MLUseColumnSpecID  string `json:"ml_use_column_spec_id"`
	StatsUpdateTime    int64  `json:"stats_update_time"` // milliseconds since epoch
}

type ImageClassificationMetadata struct {
	ClassificationType int32 `json:"classification_type"`
}

func (m DatasetMetadata) MarshalJSON() ([]byte, error) {
	switch {
	case m.Tables != nil:
		return json.Marshal(m.Tables)
	case m.ImageClassification != nil:
		return json.Marshal(m.ImageClassification)
	default:
		return []byte(`""`), nil
	}
}

func (m *DatasetMetadata) UnmarshalJSON(b []byte) error {
	*m = DatasetMetadata{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("invalid dataset metadata: %w", err)
		}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("invalid dataset metadata: %w", err)
	}
	if _, ok := fields["classification_type"]; ok {
		m.ImageClassification = &ImageClassificationMetadata{}
		return json.Unmarshal(b, m.ImageClassification)
	}
	if len(fields) > 0 {
		m.Tables = &TablesMetadata{}
		return json.Unmarshal(b, m.Tables)
	}
	return nil
}

// ModelList is the payload of the models endpoint.
type ModelList struct {
	Models []ModelView `json:"models"`
}

type ModelView struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	DatasetID       string `json:"datasetId"`
	UpdateTime      int64  `json:"updateTime"` // milliseconds since epoch
	DeploymentState int32  `json:"deploymentState"`
	Metadata        string `json:"metadata"`
}

// TableInfo is the payload of the table info endpoint.
type TableInfo struct {
	TableSpecs []TableSpecView `json:"tableSpecs"`
}

type TableSpecView struct {
	ID            string           `json:"id"`
	RowCount      int64            `json:"rowCount"`
	ValidRowCount int64            `json:"validRowCount"`
	ColumnCount   int64            `json:"columnCount"`
	ColumnSpecs   []ColumnSpecView `json:"columnSpecs"`
	// ChartSummary counts the columns of each data type.
	ChartSummary []ChartItem `json:"chartSummary"`
}

type ColumnSpecView struct {
	ID                 string      `json:"id"`
	DisplayName        string      `json:"displayName"`
	DataType           string      `json:"dataType"`
	DistinctValueCount int64       `json:"distinctValueCount"`
	InvalidValueCount  int64       `json:"invalidValueCount"`
	NullValueCount     string      `json:"nullValueCount"` // "<count> (<percent>%)"
	Nullable           bool        `json:"nullable"`
	DetailPanel        DetailPanel `json:"detailPanel"`
}

// DetailPanel is the chart data of a column. At most one member is set,
// matching the column's data type. It encodes as [] when none is set.
type DetailPanel struct {
	Numeric     *NumericDetail     `json:"numeric,omitempty"`
	Categorical *CategoricalDetail `json:"categorical,omitempty"`
	Timestamp   *TimestampDetail   `json:"timestamp,omitempty"`
}

type NumericDetail struct {
	Mean              float64     `json:"mean"`
	StandardDeviation float64     `json:"standardDeviation"`
	Histogram         []ChartItem `json:"histogram"`
}

type CategoricalDetail struct {
	TopCategories []ChartItem `json:"topCategories"`
	MostCommon    string      `json:"mostCommon"`
}

type TimestampDetail struct {
	MonthOfYear []ChartItem `json:"monthOfYear"`
	DayOfWeek   []ChartItem `json:"dayOfWeek"`
	HourOfDay   []ChartItem `json:"hourOfDay"`
}

// IsEmpty reports whether the panel carries no chart data.
func (p DetailPanel) IsEmpty() bool {
	return p.Numeric == nil && p.Categorical == nil && p.Timestamp == nil
}

// detailPanel has the fields of DetailPanel without its methods.
type detailPanel DetailPanel

func (p DetailPanel) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("[]"), nil
	}
	return json.Marshal(detailPanel(p))
}

func (p *DetailPanel) UnmarshalJSON(b []byte) error {
	*p = DetailPanel{}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("invalid detail panel: %w", err)
		}
		if len(items) != 0 {
			return fmt.Errorf("invalid detail panel: expected an object or an empty list")
		}
		return nil
	}
	var dp detailPanel
	if err := json.Unmarshal(b, &dp); err != nil {
		return fmt.Errorf("invalid detail panel: %w", err)
	}
	*p = DetailPanel(dp)
	return nil
}

// WordList is the payload of the dataset name endpoint.
type WordList struct {
	Words []Word `json:"words"`
}

type Word struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
