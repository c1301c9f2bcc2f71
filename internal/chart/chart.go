// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package chart builds renderable charts from an extraction result and a rendering configuration.
package chart

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"sargraph/internal/extract"
)

// Line is one named value sequence of a chart. Values has one entry per timeline label.
type Line struct {
	Label  string
	Units  string
	Color  string
	Axis   Axis
	Values []float64
}

// Chart is a read-only snapshot of one chart. Renderers own everything derived from it.
type Chart struct {
	ID       string
	Group    string
	Key      string // discriminator key, empty for single charts
	Title    string
	XLabel   string
	Timeline []string
	Lines    []Line
	Marker   string // timeline label of the end of the test, may be empty
}

// MarkerIndex returns the position of the marker on the timeline, or -1.
func (c Chart) MarkerIndex() int {
	if c.Marker == "" {
		return -1
	}
	return slices.Index(c.Timeline, c.Marker)
}

// HasSecondaryAxis reports whether any line is scaled against the secondary axis.
func (c Chart) HasSecondaryAxis() bool {
	return slices.ContainsFunc(c.Lines, func(l Line) bool { return l.Axis == AxisSecondary })
}

var rxNonID = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func chartID(group, key string) string {
	id := group
	if key != "" {
		id += "-" + key
	}
	return strings.Trim(rxNonID.ReplaceAllString(id, "_"), "_")
}

// uniqueID returns id, or id with the first free "_N" suffix when id is already used.
func uniqueID(id string, used mapset.Set[string]) string {
	unique := id
	for i := 2; used.Contains(unique); i++ {
		unique = fmt.Sprintf("%s_%d", id, i)
	}
	used.Add(unique)
	return unique
}

// Build creates the charts in configuration order. Single groups produce one chart, split groups
// one chart per discriminator key in first-seen order. Lines whose length differs from the
// timeline are left out, charts without lines are not produced. Chart IDs are unique.
func Build(res *extract.Result, cfg *Config, marker string) []Chart {
	timeline := res.Timeline()
	var charts []Chart
	used := mapset.NewThreadUnsafeSet[string]()
	add := func(c Chart, ok bool) {
		if !ok {
			return
		}
		c.ID = uniqueID(c.ID, used)
		charts = append(charts, c)
	}
	for _, spec := range cfg.Charts {
		switch spec.Kind {
		case extract.KindSingle:
			add(buildChart(res, spec, "", timeline, marker))
		case extract.KindSplitByKey:
			for _, key := range splitKeys(res, spec) {
				add(buildChart(res, spec, key, timeline, marker))
			}
		}
	}
	return charts
}

// splitKeys returns the union of the keys of all lines of a split chart, in first-seen order.
func splitKeys(res *extract.Result, spec Spec) []string {
	seen := mapset.NewSet[string]()
	var keys []string
	for _, lineSpec := range spec.Lines {
		series := res.Store.Series(lineSpec.Source, lineSpec.Metric)
		if series == nil {
			continue
		}
		for _, key := range series.Keys() {
			if seen.Add(key) {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

func buildChart(res *extract.Result, spec Spec, key string, timeline []string, marker string) (Chart, bool) {
	c := Chart{
		ID:       chartID(spec.Name, key),
		Group:    spec.Name,
		Key:      key,
		Title:    spec.Title,
		XLabel:   spec.XLabel,
		Timeline: timeline,
		Marker:   marker,
	}
	if key != "" {
		c.Title = strings.TrimSpace(spec.Title + " " + key)
	}
	for _, lineSpec := range spec.Lines {
		series := res.Store.Series(lineSpec.Source, lineSpec.Metric)
		if series == nil {
			slog.Warn("no series for chart line", slog.String("chart", spec.Name), slog.String("source", lineSpec.Source), slog.String("metric", lineSpec.Metric))
			continue
		}
		var values []float64
		if key == "" {
			values = series.Values()
		} else {
			var ok bool
			if values, ok = series.KeyValues(key); !ok {
				continue
			}
		}
		if len(values) != len(timeline) {
			slog.Warn("series length does not match the timeline, line omitted",
				slog.String("chart", c.ID), slog.String("metric", lineSpec.Metric),
				slog.Int("values", len(values)), slog.Int("timeline", len(timeline)))
			continue
		}
		axis := lineSpec.Axis
		if axis == "" {
			axis = AxisPrimary
		}
		c.Lines = append(c.Lines, Line{
			Label:  lineSpec.Label,
			Units:  lineSpec.Units,
			Color:  lineSpec.Color,
			Axis:   axis,
			Values: values,
		})
	}
	if len(c.Lines) == 0 {
		slog.Debug("chart has no lines", slog.String("chart", c.ID))
		return Chart{}, false
	}
	return c, true
}
