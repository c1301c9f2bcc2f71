// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"fmt"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/xuri/excelize/v2"

	"sargraph/internal/chart"
)

const (
	XlsxSummarySheetName = "Summary"
	xlsxMaxSheetNameLen  = 31
	xlsxDataStartRow     = 3
)

func cellName(col int, row int) (name string) {
	columnName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return
	}
	name, err = excelize.JoinCellName(columnName, row)
	if err != nil {
		return
	}
	return
}

// absCellName returns an absolute reference for use in chart series formulas.
func absCellName(col int, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row, true)
	if err != nil {
		return ""
	}
	return name
}

var rxSheetNameInvalid = regexp.MustCompile(`[\[\]:*?/\\']`)

// sheetName returns a valid, unique sheet name derived from the chart id.
func sheetName(id string, used mapset.Set[string]) string {
	base := rxSheetNameInvalid.ReplaceAllString(id, "_")
	if len(base) > xlsxMaxSheetNameLen {
		base = base[:xlsxMaxSheetNameLen]
	}
	name := base
	for i := 2; used.Contains(strings.ToLower(name)); i++ {
		suffix := fmt.Sprintf("~%d", i)
		trimmed := base
		if len(trimmed)+len(suffix) > xlsxMaxSheetNameLen {
			trimmed = trimmed[:xlsxMaxSheetNameLen-len(suffix)]
		}
		name = trimmed + suffix
	}
	used.Add(strings.ToLower(name))
	return name
}

func createXlsxReport(charts []chart.Chart, title string) (out []byte, err error) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetName("Sheet1", XlsxSummarySheetName)
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	used := mapset.NewSet(strings.ToLower(XlsxSummarySheetName))
	if err = renderXlsxSummary(f, charts, title, boldStyle); err != nil {
		return
	}
	for _, c := range charts {
		name := sheetName(c.ID, used)
		if _, err = f.NewSheet(name); err != nil {
			err = fmt.Errorf("failed to create sheet for chart %s: %w", c.ID, err)
			return
		}
		if err = renderXlsxChart(f, name, c, boldStyle); err != nil {
			return
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		err = fmt.Errorf("failed to write xlsx report to buffer: %v", err)
		return
	}
	out = buf.Bytes()
	return
}

// renderXlsxSummary writes one row per chart line with its descriptive statistics.
func renderXlsxSummary(f *excelize.File, charts []chart.Chart, title string, boldStyle int) error {
	sheet := XlsxSummarySheetName
	_ = f.SetColWidth(sheet, "A", "B", 40)
	_ = f.SetColWidth(sheet, "C", "F", 15)
	_ = f.SetCellValue(sheet, cellName(1, 1), title)
	_ = f.SetCellStyle(sheet, cellName(1, 1), cellName(1, 1), boldStyle)
	if len(charts) == 0 {
		_ = f.SetCellValue(sheet, cellName(1, xlsxDataStartRow), NoDataFound)
		return nil
	}
	row := xlsxDataStartRow
	headers := []any{"Chart", "Line", "Min", "Max", "Mean", "Last"}
	if err := f.SetSheetRow(sheet, cellName(1, row), &headers); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	_ = f.SetCellStyle(sheet, cellName(1, row), cellName(len(headers), row), boldStyle)
	row++
	for _, c := range charts {
		for _, line := range c.Lines {
			s := Summarize(line.Values)
			values := []any{c.Title, lineHeading(line), s.Min, s.Max, s.Mean, s.Last}
			if err := f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
				return fmt.Errorf("failed to write summary row: %w", err)
			}
			row++
		}
	}
	return nil
}

// renderXlsxChart writes the chart data as a table and adds a native line chart next to it.
func renderXlsxChart(f *excelize.File, sheet string, c chart.Chart, boldStyle int) error {
	_ = f.SetCellValue(sheet, cellName(1, 1), c.Title)
	_ = f.SetCellStyle(sheet, cellName(1, 1), cellName(1, 1), boldStyle)
	_ = f.SetColWidth(sheet, "A", "A", 15)

	headers := []any{xAxisLabel(c)}
	for _, line := range c.Lines {
		headers = append(headers, lineHeading(line))
	}
	headerRow := xlsxDataStartRow
	if err := f.SetSheetRow(sheet, cellName(1, headerRow), &headers); err != nil {
		return fmt.Errorf("failed to write header for chart %s: %w", c.ID, err)
	}
	_ = f.SetCellStyle(sheet, cellName(1, headerRow), cellName(len(headers), headerRow), boldStyle)
	for i, label := range c.Timeline {
		values := []any{label}
		for _, line := range c.Lines {
			values = append(values, line.Values[i])
		}
		if err := f.SetSheetRow(sheet, cellName(1, headerRow+1+i), &values); err != nil {
			return fmt.Errorf("failed to write row for chart %s: %w", c.ID, err)
		}
	}
	if len(c.Timeline) == 0 {
		return nil
	}

	firstRow := headerRow + 1
	lastRow := headerRow + len(c.Timeline)
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	categories := fmt.Sprintf("%s!%s:%s", quoted, absCellName(1, firstRow), absCellName(1, lastRow))
	var primary, secondary []excelize.ChartSeries
	for i, line := range c.Lines {
		col := i + 2
		color := line.Color
		if color == "" {
			color = getColor(i)
		}
		series := excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!%s", quoted, absCellName(col, headerRow)),
			Categories: categories,
			Values:     fmt.Sprintf("%s!%s:%s", quoted, absCellName(col, firstRow), absCellName(col, lastRow)),
			Line: excelize.ChartLine{
				Smooth: false,
				Width:  1.5,
			},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(color, "#")}},
		}
		if line.Axis == chart.AxisSecondary {
			secondary = append(secondary, series)
		} else {
			primary = append(primary, series)
		}
	}
	lineChart := &excelize.Chart{
		Type:   excelize.Line,
		Series: primary,
		Title:  []excelize.RichTextRun{{Text: c.Title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: xAxisLabel(c)}},
		},
		YAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: axisUnits(c, chart.AxisPrimary)}},
		},
		Dimension: excelize.ChartDimension{Width: 960, Height: 400},
	}
	var combo []*excelize.Chart
	if len(secondary) > 0 {
		combo = append(combo, &excelize.Chart{
			Type:   excelize.Line,
			Series: secondary,
			YAxis: excelize.ChartAxis{
				Secondary: true,
				Title:     []excelize.RichTextRun{{Text: axisUnits(c, chart.AxisSecondary)}},
			},
		})
	}
	anchor := cellName(len(c.Lines)+3, headerRow)
	if err := f.AddChart(sheet, anchor, lineChart, combo...); err != nil {
		return fmt.Errorf("failed to add chart %s: %w", c.ID, err)
	}
	return nil
}
