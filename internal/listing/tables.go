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
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/automl/apiv1beta1/automlpb"
	"github.com/googleapis/automl-notebook-server/internal/automl"
)

// Data type labels of a column.
const (
	TypeUnspecified  = "Unspecified"
	TypeNumeric      = "Numeric"
	TypeTimestamp    = "Timestamp"
	TypeString       = "String"
	TypeArray        = "Array"
	TypeStruct       = "Struct"
	TypeCategorical  = "Categorical"
	TypeUnrecognized = "Unrecognized"
)

var typeLabels = map[automlpb.TypeCode]string{
	automlpb.TypeCode_TYPE_CODE_UNSPECIFIED: TypeUnspecified,
	automlpb.TypeCode_FLOAT64:               TypeNumeric,
	automlpb.TypeCode_TIMESTAMP:             TypeTimestamp,
	automlpb.TypeCode_STRING:                TypeString,
	automlpb.TypeCode_ARRAY:                 TypeArray,
	automlpb.TypeCode_STRUCT:                TypeStruct,
	automlpb.TypeCode_CATEGORY:              TypeCategorical,
}

// TypeLabel returns the label of a type code, or "Unrecognized".
func TypeLabel(code automlpb.TypeCode) string {
	if label, ok := typeLabels[code]; ok {
		return label
	}
	return TypeUnrecognized
}

// Keys of TimestampStats.granular_stats.
const (
	granularityMonthOfYear = "month_of_year"
	granularityDayOfWeek   = "day_of_week"
	granularityHourOfDay   = "hour_of_day"
)

// ListTableSpecs lists the table specs of a dataset together with the
// statistics of every column.
func ListTableSpecs(ctx context.Context, c automl.Client, datasetID string) (TableInfo, error) {
	specs, err := c.ListTableSpecs(ctx, datasetID)
	if err != nil {
		return TableInfo{}, err
	}
	views := make([]TableSpecView, 0, len(specs))
	for _, spec := range specs {
		columns, err := c.ListColumnSpecs(ctx, spec.GetName())
		if err != nil {
			return TableInfo{}, err
		}
		views = append(views, NewTableSpecView(spec, columns))
	}
	return TableInfo{TableSpecs: views}, nil
}

// NewTableSpecView converts a table spec and its columns.
func NewTableSpecView(spec *automlpb.TableSpec, columns []*automlpb.ColumnSpec) TableSpecView {
	rowCount := spec.GetRowCount()
	views := make([]ColumnSpecView, 0, len(columns))
	var summary typeSummary
	for _, col := range columns {
		v := NewColumnSpecView(col, rowCount)
		summary.add(v.DataType)
		views = append(views, v)
	}
	return TableSpecView{
		ID:            spec.GetName(),
		RowCount:      rowCount,
		ValidRowCount: spec.GetValidRowCount(),
		ColumnCount:   spec.GetColumnCount(),
		ColumnSpecs:   views,
		ChartSummary:  summary.items(),
	}
}

// typeSummary counts columns per type label in first-seen order.
type typeSummary struct {
	labels []string
	counts map[string]int64
}

func (s *typeSummary) add(label string) {
	if s.counts == nil {
		s.counts = make(map[string]int64)
	}
	if _, ok := s.counts[label]; !ok {
		s.labels = append(s.labels, label)
	}
	s.counts[label]++
}

func (s *typeSummary) items() []ChartItem {
	items := make([]ChartItem, 0, len(s.labels))
	for _, l := range s.labels {
		items = append(items, ChartItem{Name: l, Amount: s.counts[l]})
	}
	return items
}

// NewColumnSpecView converts a column spec of a table with rowCount rows.
// Missing statistics fall back to zero values.
func NewColumnSpecView(col *automlpb.ColumnSpec, rowCount int64) ColumnSpecView {
	stats := col.GetDataStats()
	label := TypeLabel(col.GetDataType().GetTypeCode())
	return ColumnSpecView{
		ID:                 col.GetName(),
		DisplayName:        col.GetDisplayName(),
		DataType:           label,
		DistinctValueCount: stats.GetDistinctValueCount(),
		InvalidValueCount:  rowCount - stats.GetValidValueCount(),
		NullValueCount:     formatNullCount(stats.GetNullValueCount(), rowCount),
		Nullable:           col.GetDataType().GetNullable(),
		DetailPanel:        NewDetailPanel(label, stats),
	}
}

// formatNullCount renders "<count> (<percent>%)" with the percentage of
// rows floored to an integer, 0 for an empty table.
func formatNullCount(nullCount, rowCount int64) string {
	var percent int64
	if rowCount > 0 {
		percent = nullCount * 100 / rowCount
	}
	return fmt.Sprintf("%d (%d%%)", nullCount, percent)
}

// NewDetailPanel builds the chart data for a column of the given type label.
// Columns of other types, or without the matching statistics, get an empty
// panel.
func NewDetailPanel(label string, stats *automlpb.DataStats) DetailPanel {
	switch label {
	case TypeNumeric:
		if fs := stats.GetFloat64Stats(); fs != nil {
			return DetailPanel{Numeric: numericDetail(fs)}
		}
	case TypeCategorical:
		if cs := stats.GetCategoryStats(); cs != nil {
			return DetailPanel{Categorical: categoricalDetail(cs, stats.GetValidValueCount())}
		}
	case TypeTimestamp:
		if ts := stats.GetTimestampStats(); ts != nil {
			return DetailPanel{Timestamp: timestampDetail(ts)}
		}
	}
	return DetailPanel{}
}

func numericDetail(fs *automlpb.Float64Stats) *NumericDetail {
	buckets := fs.GetHistogramBuckets()
	histogram := make([]ChartItem, 0, len(buckets))
	for _, b := range buckets {
		histogram = append(histogram, ChartItem{
			Name:   BucketLabel(b.GetMin(), b.GetMax()),
			Amount: b.GetCount(),
		})
	}
	return &NumericDetail{
		Mean:              roundTo(fs.GetMean(), 2),
		StandardDeviation: roundTo(fs.GetStandardDeviation(), 2),
		Histogram:         histogram,
	}
}

// BucketLabel renders a histogram bucket as "[min, max]". Infinite bounds
// are written as -inf or inf, finite bounds rounded half to even.
func BucketLabel(min, max float64) string {
	return "[" + formatBound(min) + ", " + formatBound(max) + "]"
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsNaN(v):
		return "nan"
	}
	r := math.RoundToEven(v)
	if r == 0 {
		// drop the sign of negative zero
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

// roundTo rounds v to decimals places, half to even like the bucket bounds.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}

func categoricalDetail(cs *automlpb.CategoryStats, validCount int64) *CategoricalDetail {
	top := cs.GetTopCategoryStats()
	items := make([]ChartItem, 0, len(top))
	for _, s := range top {
		items = append(items, ChartItem{Name: s.GetValue(), Amount: s.GetCount()})
	}
	return &CategoricalDetail{
		TopCategories: items,
		MostCommon:    mostCommon(top, validCount),
	}
}

// mostCommon renders the most frequent category as "<value> (<percent>%)",
// the share of valid values rounded to three decimals. It is empty when
// there are no category statistics.
func mostCommon(top []*automlpb.CategoryStats_SingleCategoryStats, validCount int64) string {
	var best *automlpb.CategoryStats_SingleCategoryStats
	for _, s := range top {
		if s != nil && (best == nil || s.GetCount() > best.GetCount()) {
			best = s
		}
	}
	if best == nil {
		return ""
	}
	var percent float64
	if validCount > 0 {
		percent = roundTo(float64(best.GetCount())/float64(validCount)*100, 1)
	}
	p := strconv.FormatFloat(percent, 'f', -1, 64)
	if !strings.Contains(p, ".") {
		p += ".0"
	}
	return fmt.Sprintf("%s (%s%%)", best.GetValue(), p)
}

func timestampDetail(ts *automlpb.TimestampStats) *TimestampDetail {
	gs := ts.GetGranularStats()
	return &TimestampDetail{
		MonthOfYear: granularItems(gs[granularityMonthOfYear], monthLabel),
		DayOfWeek:   granularItems(gs[granularityDayOfWeek], dayLabel),
		HourOfDay:   granularItems(gs[granularityHourOfDay], hourLabel),
	}
}

// granularItems lists the buckets of one granularity ordered by key.
func granularItems(g *automlpb.TimestampStats_GranularStats, label func(int32) string) []ChartItem {
	buckets := g.GetBuckets()
	keys := make([]int32, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	items := make([]ChartItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, ChartItem{Name: label(k), Amount: buckets[k]})
	}
	return items
}

func monthLabel(k int32) string {
	if k >= 1 && k <= 12 {
		return time.Month(k).String()
	}
	return strconv.Itoa(int(k))
}

// dayLabel names ISO week days, Monday being 1.
func dayLabel(k int32) string {
	if k >= 1 && k <= 7 {
		return time.Weekday(k % 7).String()
	}
	return strconv.Itoa(int(k))
}

func hourLabel(k int32) string {
	if k >= 0 && k <= 23 {
		return fmt.Sprintf("%02d:00", k)
	}
	return strconv.Itoa(int(k))
}
