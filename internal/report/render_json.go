// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"encoding/json"

	"sargraph/internal/chart"
)

type jsonLine struct {
	Label   string      `json:"label"`
	Units   string      `json:"units,omitempty"`
	Axis    string      `json:"axis"`
	Values  []float64   `json:"values"`
	Summary LineSummary `json:"summary"`
}

type jsonChart struct {
	ID       string     `json:"id"`
	Group    string     `json:"group"`
	Key      string     `json:"key,omitempty"`
	Title    string     `json:"title"`
	XLabel   string     `json:"x_label"`
	Timeline []string   `json:"timeline"`
	Marker   string     `json:"test_end,omitempty"`
	Lines    []jsonLine `json:"lines"`
}

type jsonReport struct {
	Title  string      `json:"title"`
	Charts []jsonChart `json:"charts"`
}

func createJsonReport(charts []chart.Chart, title string) (out []byte, err error) {
	oReport := jsonReport{Title: title, Charts: []jsonChart{}}
	for _, c := range charts {
		oChart := jsonChart{
			ID:       c.ID,
			Group:    c.Group,
			Key:      c.Key,
			Title:    c.Title,
			XLabel:   xAxisLabel(c),
			Timeline: c.Timeline,
		}
		if c.MarkerIndex() >= 0 {
			oChart.Marker = c.Marker
		}
		for _, line := range c.Lines {
			oChart.Lines = append(oChart.Lines, jsonLine{
				Label:   line.Label,
				Units:   line.Units,
				Axis:    string(line.Axis),
				Values:  line.Values,
				Summary: Summarize(line.Values),
			})
		}
		oReport.Charts = append(oReport.Charts, oChart)
	}
	return json.MarshalIndent(oReport, "", " ")
}
