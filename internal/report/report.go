// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package report renders charts in various formats such as html, xlsx, json and txt.
package report

import (
	"fmt"
	"math"
	"strings"

	"sargraph/internal/chart"
)

const (
	FormatHtml = "html"
	FormatXlsx = "xlsx"
	FormatJson = "json"
	FormatTxt  = "txt"
	FormatAll  = "all"
)

const NoDataFound = "No data found."

var FormatOptions = []string{FormatHtml, FormatXlsx, FormatJson, FormatTxt}

// Create generates a report in the specified format from the provided charts.
// The function ensures that every line has one value per timeline label before generating the report.
//
// Parameters:
// - format: The desired format of the report (txt, json, html, xlsx).
// - charts: The charts to render, in display order.
// - title: The report title, usually the name of the input log.
//
// Returns:
// - out: The generated report as a byte slice.
// - err: An error, if any occurred during report generation.
func Create(format string, charts []chart.Chart, title string) (out []byte, err error) {
	for _, c := range charts {
		for _, line := range c.Lines {
			if len(line.Values) != len(c.Timeline) {
				return nil, fmt.Errorf("chart %s, line %s: expected %d value(s), found %d", c.ID, line.Label, len(c.Timeline), len(line.Values))
			}
		}
	}
	switch format {
	case FormatTxt:
		return createTextReport(charts, title)
	case FormatJson:
		return createJsonReport(charts, title)
	case FormatHtml:
		return createHtmlReport(charts, title)
	case FormatXlsx:
		return createXlsxReport(charts, title)
	}
	return nil, fmt.Errorf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format)
}

// LineSummary holds the descriptive statistics of one chart line.
type LineSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Last float64 `json:"last"`
}

func Summarize(values []float64) LineSummary {
	if len(values) == 0 {
		return LineSummary{}
	}
	s := LineSummary{Min: math.Inf(1), Max: math.Inf(-1), Last: values[len(values)-1]}
	var sum float64
	for _, v := range values {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		sum += v
	}
	s.Mean = sum / float64(len(values))
	return s
}

func lineHeading(line chart.Line) string {
	if line.Units == "" {
		return line.Label
	}
	return fmt.Sprintf("%s (%s)", line.Label, line.Units)
}

func xAxisLabel(c chart.Chart) string {
	if c.XLabel == "" {
		return "Time"
	}
	return c.XLabel
}
