// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sargraph/internal/chart"
)

const columnSpacing = 3

func createTextReport(charts []chart.Chart, title string) (out []byte, err error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n%s\n\n", title, strings.Repeat("=", len(title))))
	if len(charts) == 0 {
		sb.WriteString(NoDataFound + "\n")
		return []byte(sb.String()), nil
	}
	for _, c := range charts {
		sb.WriteString(fmt.Sprintf("%s\n%s\n", c.Title, strings.Repeat("-", len(c.Title))))
		sb.WriteString(TextChartRendererFunc(c))
		sb.WriteString("\n")
	}
	out = []byte(sb.String())
	return
}

// TextChartRendererFunc renders the chart data as a table with one row per timeline label, followed
// by the summary of each line. The end of the test is flagged with an asterisk.
func TextChartRendererFunc(c chart.Chart) string {
	p := message.NewPrinter(language.English) // use printer to get commas at thousands, e.g., 1,234,567.00
	headers := []string{xAxisLabel(c)}
	for _, line := range c.Lines {
		headers = append(headers, lineHeading(line))
	}
	markerIdx := c.MarkerIndex()
	rows := make([][]string, len(c.Timeline))
	for i, label := range c.Timeline {
		if i == markerIdx {
			label += " *"
		}
		row := []string{label}
		for _, line := range c.Lines {
			row = append(row, p.Sprintf("%.2f", line.Values[i]))
		}
		rows[i] = row
	}
	// find the longest item per column, the header or a value
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, v := range row {
			widths[i] = max(widths[i], len(v))
		}
	}
	var sb strings.Builder
	writeRow := func(values []string) {
		for i, v := range values {
			if i == len(values)-1 {
				sb.WriteString(v)
				continue
			}
			sb.WriteString(fmt.Sprintf("%-*s", widths[i]+columnSpacing, v))
		}
		sb.WriteString("\n")
	}
	writeRow(headers)
	underlines := make([]string, len(headers))
	for i, h := range headers {
		underlines[i] = strings.Repeat("-", len(h))
	}
	writeRow(underlines)
	for _, row := range rows {
		writeRow(row)
	}
	if markerIdx >= 0 {
		sb.WriteString(fmt.Sprintf("* end of test at %s\n", c.Marker))
	}
	for _, line := range c.Lines {
		s := Summarize(line.Values)
		sb.WriteString(p.Sprintf("%s: min %.2f, max %.2f, mean %.2f\n", lineHeading(line), s.Min, s.Max, s.Mean))
	}
	return sb.String()
}
