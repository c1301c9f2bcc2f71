// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sargraph/internal/chart"
)

func testCharts() []chart.Chart {
	timeline := []string{"0:00", "0:10", "0:20"}
	return []chart.Chart{
		{
			ID:       "memory",
			Group:    "memory",
			Title:    "Memory utilization",
			XLabel:   "Test duration, h:mm",
			Timeline: timeline,
			Marker:   "0:10",
			Lines: []chart.Line{
				{Label: "Memory", Units: "%", Color: "#1D7373", Axis: chart.AxisPrimary, Values: []float64{12.5, 25, 37.5}},
				{Label: "Free", Units: "kB", Axis: chart.AxisSecondary, Values: []float64{7000, 6000, 1234.5}},
			},
		},
		{
			ID:       "network-eth0",
			Group:    "network",
			Key:      "eth0",
			Title:    "Network eth0",
			Timeline: timeline,
			Lines: []chart.Line{
				{Label: "rx", Units: "kbit/s", Axis: chart.AxisPrimary, Values: []float64{8, 16, 24}},
			},
		},
	}
}

func TestCreateValidation(t *testing.T) {
	charts := testCharts()
	_, err := Create("pdf", charts, "test")
	assert.ErrorContains(t, err, "expected one of")

	charts[0].Lines[0].Values = charts[0].Lines[0].Values[:2]
	for _, format := range FormatOptions {
		_, err = Create(format, charts, "test")
		assert.ErrorContains(t, err, "expected 3 value(s), found 2", format)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 7})
	assert.Equal(t, LineSummary{Min: 1, Max: 7, Mean: 4, Last: 7}, s)
	assert.Equal(t, LineSummary{}, Summarize(nil))
}

func TestHtmlReport(t *testing.T) {
	out, err := Create(FormatHtml, testCharts(), "sar <host>")
	require.NoError(t, err)
	page := string(out)
	assert.Contains(t, page, "<title>sar &lt;host&gt;</title>")
	assert.Contains(t, page, `<h2 id="network-eth0">Network eth0</h2>`)
	assert.Contains(t, page, `<a href="#memory">Memory utilization</a>`)
	assert.Contains(t, page, "labels: ['0:00','0:10','0:20']")
	assert.Contains(t, page, "data: [12.5,25,37.5]")
	assert.Contains(t, page, "yAxisID: 'y1'")
	// memory has its marker at index 1, eth0 has none
	assert.Contains(t, page, "index: 1,")
	assert.Contains(t, page, "index: -1,")
	assert.Equal(t, 1, strings.Count(page, "display: true,\n                position: 'right'"))
}

func TestHtmlReportNoCharts(t *testing.T) {
	out, err := Create(FormatHtml, nil, "empty")
	require.NoError(t, err)
	assert.Contains(t, string(out), NoDataFound)
	assert.NotContains(t, string(out), "mySidebar")
}

func TestRenderChartEscapesLabels(t *testing.T) {
	c := testCharts()[1]
	c.Lines[0].Label = "it's"
	out, err := RenderChart(c)
	require.NoError(t, err)
	assert.Contains(t, out, `label: 'it\'s'`)
	// lines without a configured color take one from the palette
	assert.Contains(t, out, "borderColor: '"+getColor(0)+"'")
}

func TestJsonReport(t *testing.T) {
	out, err := Create(FormatJson, testCharts(), "sar.log")
	require.NoError(t, err)
	var got jsonReport
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "sar.log", got.Title)
	require.Len(t, got.Charts, 2)
	assert.Equal(t, "0:10", got.Charts[0].Marker)
	assert.Empty(t, got.Charts[1].Marker)
	assert.Equal(t, "eth0", got.Charts[1].Key)
	assert.Equal(t, "Time", got.Charts[1].XLabel)
	assert.Equal(t, "secondary", got.Charts[0].Lines[1].Axis)
	assert.Equal(t, LineSummary{Min: 8, Max: 24, Mean: 16, Last: 24}, got.Charts[1].Lines[0].Summary)

	out, err = Create(FormatJson, nil, "empty")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"charts": []`)
}

func TestTextReport(t *testing.T) {
	out, err := Create(FormatTxt, testCharts(), "sar.log")
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "sar.log\n=======\n"))
	assert.Contains(t, text, "Test duration, h:mm   Memory (%)   Free (kB)\n")
	assert.Contains(t, text, "0:10 *")
	assert.Contains(t, text, "1,234.50")
	assert.Contains(t, text, "* end of test at 0:10\n")
	assert.Contains(t, text, "rx (kbit/s): min 8.00, max 24.00, mean 16.00\n")
	assert.Equal(t, 1, strings.Count(text, "end of test"))
}

func TestXlsxReport(t *testing.T) {
	out, err := Create(FormatXlsx, testCharts(), "sar.log")
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{XlsxSummarySheetName, "memory", "network-eth0"}, f.GetSheetList())

	rows, err := f.GetRows("memory")
	require.NoError(t, err)
	require.Len(t, rows, xlsxDataStartRow+3)
	assert.Equal(t, "Memory utilization", rows[0][0])
	assert.Equal(t, []string{"Test duration, h:mm", "Memory (%)", "Free (kB)"}, rows[xlsxDataStartRow-1])
	assert.Equal(t, "0:20", rows[xlsxDataStartRow+2][0])

	summary, err := f.GetRows(XlsxSummarySheetName)
	require.NoError(t, err)
	// title, blank, header and one row per line
	assert.Len(t, summary, xlsxDataStartRow+3)
	assert.Equal(t, "rx (kbit/s)", summary[len(summary)-1][1])
}

func TestSheetName(t *testing.T) {
	used := mapset.NewSet[string]()
	assert.Equal(t, "network-eth0", sheetName("network-eth0", used))
	assert.Equal(t, "NETWORK-eth0~2", sheetName("NETWORK-eth0", used))
	long := strings.Repeat("a", 40)
	name := sheetName(long, used)
	assert.Len(t, name, xlsxMaxSheetNameLen)
	name = sheetName(long, used)
	assert.Len(t, name, xlsxMaxSheetNameLen)
	assert.True(t, strings.HasSuffix(name, "~2"))
	assert.Equal(t, "a_b", sheetName("a/b", used))
}
