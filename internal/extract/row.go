// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

const valueVariable = "value"

// MalformedRowError reports a row that could not be read for one metric. The row is skipped for
// that metric only.
type MalformedRowError struct {
	Line   int
	Metric string
	Column int
	Token  string
	Err    error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("line %d, metric %s, column %d (%q): %v", e.Line, e.Metric, e.Column, e.Token, e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

var (
	errMissingColumn = errors.New("column not present in row")
	errNotFinite     = errors.New("value is not a finite number")
)

// extractRow evaluates every metric of the section against one tokenized row and stores the
// accepted values. Parse failures are returned, they never stop the pass.
func extractRow(section *SectionSpec, tokens []string, lineNum int, st *Store) []error {
	var errs []error
	for i := range section.Metrics {
		metric := &section.Metrics[i]
		if err := extractMetric(metric, tokens, lineNum, st); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func extractMetric(metric *MetricSpec, tokens []string, lineNum int, st *Store) error {
	malformed := func(column int, err error) error {
		token := ""
		if column < len(tokens) {
			token = tokens[column]
		}
		return &MalformedRowError{Line: lineNum, Metric: metric.Name, Column: column, Token: token, Err: err}
	}
	if metric.ValueColumn >= len(tokens) {
		return malformed(metric.ValueColumn, errMissingColumn)
	}
	value, err := strconv.ParseFloat(tokens[metric.ValueColumn], 64)
	if err != nil {
		return malformed(metric.ValueColumn, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return malformed(metric.ValueColumn, errNotFinite)
	}
	value, err = applyTransform(metric, value)
	if err != nil {
		return malformed(metric.ValueColumn, err)
	}
	// the timeline source stores a value and a timestamp together or neither
	if metric.TimelineSource && metric.TimeColumn >= len(tokens) {
		return malformed(metric.TimeColumn, errMissingColumn)
	}
	series := st.Series(metric.Group, metric.Name)
	if metric.Filter == "" || slices.Contains(tokens, metric.Filter) {
		switch metric.Kind {
		case KindSingle:
			series.append(value)
		case KindSplitByKey:
			if *metric.SplitColumn >= len(tokens) {
				return malformed(*metric.SplitColumn, errMissingColumn)
			}
			series.appendKey(tokens[*metric.SplitColumn], value)
		}
	}
	if metric.TimelineSource {
		st.appendTimestamp(tokens[metric.TimeColumn])
	}
	return nil
}

func applyTransform(metric *MetricSpec, value float64) (float64, error) {
	switch metric.Transform {
	case TransformComplementOf100:
		return 100.0 - value, nil
	case TransformMultiplyBy8:
		return value * 8.0, nil
	case TransformExpression:
		if metric.evaluable == nil {
			return 0, fmt.Errorf("expression %q was not compiled", metric.Expression)
		}
		result, err := metric.evaluable.Evaluate(map[string]any{valueVariable: value})
		if err != nil {
			return 0, fmt.Errorf("failed to evaluate expression %q: %w", metric.Expression, err)
		}
		f, ok := result.(float64)
		if !ok {
			return 0, fmt.Errorf("expression %q returned %T, expected a number", metric.Expression, result)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, errNotFinite
		}
		return f, nil
	}
	return value, nil
}
