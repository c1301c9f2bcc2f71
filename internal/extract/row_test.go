// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransform(t *testing.T) {
	tests := []struct {
		name      string
		transform Transform
		expr      string
		input     float64
		want      float64
	}{
		{name: "none", transform: TransformNone, input: 23.5, want: 23.5},
		{name: "complement of 100", transform: TransformComplementOf100, input: 23.5, want: 76.5},
		{name: "multiply by 8", transform: TransformMultiplyBy8, input: 12.0, want: 96.0},
		{name: "expression", transform: TransformExpression, expr: "value / 1024", input: 2048, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metric := MetricSpec{Name: "m", Group: "g", Transform: tt.transform, Expression: tt.expr}
			require.Nil(t, metric.validate(true))
			got, err := applyTransform(&metric, tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func rowConfig() *Config {
	cfg := &Config{
		Sections: []SectionSpec{
			{
				Trigger: "%idle",
				Metrics: []MetricSpec{
					{Name: "%util", Group: "CPU", ValueColumn: 3, Filter: "all", Transform: TransformComplementOf100},
					{Name: "%user", Group: "CPU", ValueColumn: 2, TimelineSource: true},
				},
			},
			{
				Trigger: "rxkB/s",
				Metrics: []MetricSpec{
					{Name: "rxkB/s", Group: "network", Kind: KindSplitByKey, ValueColumn: 2, SplitColumn: intPtr(1), Transform: TransformMultiplyBy8},
				},
			},
		},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func TestExtractRowFilterGating(t *testing.T) {
	cfg := rowConfig()
	st := NewStore(cfg)
	section := &cfg.Sections[0]

	errs := extractRow(section, Tokenize("10:00:01 all 5.0 90.0"), 1, st)
	assert.Empty(t, errs)
	errs = extractRow(section, Tokenize("10:00:01 0 7.0 80.0"), 2, st)
	assert.Empty(t, errs)

	// the filtered metric only records the "all" row, the unfiltered one records both
	assert.Equal(t, []float64{10.0}, st.Series("CPU", "%util").Values())
	assert.Equal(t, []float64{5.0, 7.0}, st.Series("CPU", "%user").Values())
	assert.Equal(t, []string{"10:00:01", "10:00:01"}, st.RawTimeline())
}

func TestExtractRowMalformed(t *testing.T) {
	cfg := rowConfig()
	st := NewStore(cfg)
	section := &cfg.Sections[0]

	// %util column is not numeric, %user still records
	errs := extractRow(section, Tokenize("10:00:01 all 5.0 n/a"), 7, st)
	require.Len(t, errs, 1)
	var rowErr *MalformedRowError
	require.True(t, errors.As(errs[0], &rowErr))
	assert.Equal(t, 7, rowErr.Line)
	assert.Equal(t, "%util", rowErr.Metric)
	assert.Equal(t, 3, rowErr.Column)
	assert.Equal(t, "n/a", rowErr.Token)
	assert.Empty(t, st.Series("CPU", "%util").Values())
	assert.Equal(t, []float64{5.0}, st.Series("CPU", "%user").Values())

	// short row: both metrics fail, nothing reaches the timeline
	errs = extractRow(section, Tokenize("10:00:01"), 8, st)
	assert.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, errMissingColumn)
	}
	assert.Equal(t, []string{"10:00:01"}, st.RawTimeline())
}

func TestExtractRowSplit(t *testing.T) {
	cfg := rowConfig()
	st := NewStore(cfg)
	section := &cfg.Sections[1]
	for i, line := range []string{
		"10:00:01 eth0 12.0",
		"10:00:01 lo 0.0",
		"10:10:01 eth0 1.5",
		"10:10:01 lo 0.0",
		"10:10:01 eth1 2.0",
	} {
		assert.Empty(t, extractRow(section, Tokenize(line), i+1, st))
	}
	series := st.Series("network", "rxkB/s")
	assert.Equal(t, KindSplitByKey, series.Kind())
	assert.Equal(t, []string{"eth0", "lo", "eth1"}, series.Keys())
	eth0, ok := series.KeyValues("eth0")
	require.True(t, ok)
	assert.Equal(t, []float64{96.0, 12.0}, eth0)
	lo, _ := series.KeyValues("lo")
	assert.Equal(t, []float64{0, 0}, lo)
	assert.Nil(t, series.Values())
	assert.Empty(t, st.RawTimeline())
}

func TestExtractRowMissingSplitColumn(t *testing.T) {
	cfg := rowConfig()
	cfg.Sections[1].Metrics[0].SplitColumn = intPtr(5)
	st := NewStore(cfg)
	errs := extractRow(&cfg.Sections[1], Tokenize("10:00:01 eth0 12.0"), 1, st)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errMissingColumn)
	assert.Empty(t, st.Series("network", "rxkB/s").Keys())
}

func TestExtractRowNotFinite(t *testing.T) {
	cfg := rowConfig()
	st := NewStore(cfg)
	errs := extractRow(&cfg.Sections[0], Tokenize("10:00:01 all NaN 1.0"), 1, st)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errNotFinite)

	cfg.Sections[1].Metrics[0].Transform = TransformExpression
	cfg.Sections[1].Metrics[0].Expression = "value / 0"
	require.NoError(t, cfg.Validate())
	errs = extractRow(&cfg.Sections[1], Tokenize("10:00:01 eth0 1.0"), 2, st)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errNotFinite)
}

func TestExtractRowShortTimelineRow(t *testing.T) {
	cfg := &Config{
		Sections: []SectionSpec{
			{
				Trigger: "load",
				Metrics: []MetricSpec{
					{Name: "load", Group: "CPU", ValueColumn: 1, TimelineSource: true, TimeColumn: 3},
				},
			},
		},
	}
	require.NoError(t, cfg.Validate())
	st := NewStore(cfg)
	section := &cfg.Sections[0]

	assert.Empty(t, extractRow(section, Tokenize("10:00 1.0 x 10:00"), 1, st))
	errs := extractRow(section, Tokenize("10:05 2.0"), 2, st)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errMissingColumn)
	assert.Empty(t, extractRow(section, Tokenize("10:10 3.0 x 10:10"), 3, st))

	// the short row stores neither its value nor its timestamp
	assert.Equal(t, []float64{1.0, 3.0}, st.Series("CPU", "load").Values())
	assert.Equal(t, []string{"10:00", "10:10"}, st.RawTimeline())
}
