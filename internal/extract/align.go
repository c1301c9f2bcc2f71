// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"log/slog"
)

// RemovedKey identifies a discriminator key deleted because all of its values were zero.
type RemovedKey struct {
	Group  string
	Metric string
	Key    string
}

// PruneReport describes what the alignment pass changed.
type PruneReport struct {
	Removed   []RemovedKey
	Truncated int // number of trailing values dropped across all series
}

// Prune aligns every series to the timeline length. Trailing values beyond the timeline are
// dropped, never leading ones. Split keys whose values sum to zero are deleted.
func (st *Store) Prune(timelineLen int) PruneReport {
	var report PruneReport
	for _, group := range st.groups {
		for _, metricName := range group.metrics {
			series := group.series[metricName]
			switch series.kind {
			case KindSingle:
				if len(series.values) > timelineLen {
					report.Truncated += len(series.values) - timelineLen
					series.values = series.values[:timelineLen]
				}
			case KindSplitByKey:
				for _, key := range series.Keys() {
					values := series.byKey[key]
					if sum(values) == 0 {
						slog.Debug("removing inactive key", slog.String("group", group.Name), slog.String("metric", metricName), slog.String("key", key))
						series.deleteKey(key)
						report.Removed = append(report.Removed, RemovedKey{Group: group.Name, Metric: metricName, Key: key})
						continue
					}
					if len(values) > timelineLen {
						report.Truncated += len(values) - timelineLen
						series.byKey[key] = values[:timelineLen]
					}
				}
			}
		}
	}
	return report
}

func sum(values []float64) (total float64) {
	for _, v := range values {
		total += v
	}
	return
}
