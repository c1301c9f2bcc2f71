// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	texttemplate "text/template" // nosemgrep

	"sargraph/internal/chart"
)

const markerColor = "#E20134"

func getHtmlReportBegin(title string) string {
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html>
<html lang="en">
`)
	sb.WriteString("<head>\n")
	sb.WriteString(fmt.Sprintf(`    <meta charset="UTF-8">
    <title>%s</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
`, html.EscapeString(title)))
	// link the style sheets and javascript
	sb.WriteString(`
	<link rel="stylesheet" href="https://unpkg.com/normalize.css@8.0.1/normalize.css" integrity="sha384-M86HUGbBFILBBZ9ykMAbT3nVb0+2C7yZlF8X2CiKNpDOQjKroMJqIeGZ/Le8N2Qp" crossorigin="anonymous" referrerpolicy="no-referrer" />
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/purecss@3.0.0/build/pure-min.css" integrity="sha384-X38yfunGUhNzHpBaEBsWLO+A0HDYOQi8ufWDkZ0k9e0eXz/tH3II7uKZ9msv++Ls" crossorigin="anonymous" referrerpolicy="no-referrer" />
    <script src="https://unpkg.com/chart.js@3.7.1/dist/chart.min.js" integrity="sha384-7NrRHqlWUj2hJl3a/dZj/a1GxuQc56mJ3aYsEnydBYrY1jR+RSt6SBvK3sHfj+mJ" crossorigin="anonymous"  referrerpolicy="no-referrer"></script>
	`)
	sb.WriteString(`
	<style>
        .content {
            padding: 0 2em;
            line-height: 1.6em;
        }
        .content h2 {
            font-weight: 300;
            color: #888;
        }
        .sidebar {
            height: 100%;
            width: 0;
            position: fixed;
            z-index: 1;
            top: 0;
            left: 0;
            background-color: #eee;
            overflow-x: hidden;
            padding-top: 40px;
        }
        .sidebar a {
            padding: 2px 8px 2px 16px;
            text-decoration: none;
            font-size: 14px;
            color: #1f8dd6;
            display: block;
            white-space: nowrap;
        }
        .sidebar .togglebtn {
            position: absolute;
            top: 0;
            right: 0;
            font-size: 24px;
        }
        #myCharts {
            transition: margin-left .5s;
            padding: 16px;
        }
	</style>
	`)
	sb.WriteString(`
	<script>
		// draws a vertical line at the end of the test
		const testEndMarker = {
			id: 'testEndMarker',
			afterDatasetsDraw(chart, args, opts) {
				if (opts.index === undefined || opts.index < 0) {
					return;
				}
				const x = chart.scales.x.getPixelForValue(opts.index);
				const ctx = chart.ctx;
				ctx.save();
				ctx.strokeStyle = opts.color;
				ctx.lineWidth = 2;
				ctx.beginPath();
				ctx.moveTo(x, chart.chartArea.top);
				ctx.lineTo(x, chart.chartArea.bottom);
				ctx.stroke();
				ctx.restore();
			}
		};
	</script>
	`)
	sb.WriteString("</head>\n")
	return sb.String()
}

func getHtmlReportMenu(charts []chart.Chart) string {
	var sb strings.Builder
	sb.WriteString("<div id=\"mySidebar\" class=\"sidebar\">\n")
	sb.WriteString("<a href=\"#\" style=\"position: absolute;top: 0; padding-left: 7px; padding-right: 117px; color: #fff; background-color: #1f8dd6\">CONTENTS</a>\n")
	sb.WriteString("<a href=\"javascript:void(0)\" class=\"togglebtn\" onclick=\"toggleNav()\">&lt;</a>\n")
	for _, c := range charts {
		sb.WriteString(fmt.Sprintf("<a href=\"#%s\">%s</a>\n", html.EscapeString(c.ID), html.EscapeString(c.Title)))
	}
	sb.WriteString("</div>\n")
	return sb.String()
}

func getHtmlReportSidebarJavascript() string {
	return `
	<script>
		const widthOpen="225px"
		const widthClosed="30px"
		function openNav() {
			document.getElementById("mySidebar").style.width = widthOpen;
			document.getElementById("myCharts").style.marginLeft = widthOpen;
			document.querySelector(".togglebtn").innerHTML="<"
		}
		function closeNav() {
			document.getElementById("mySidebar").style.width = widthClosed;
			document.getElementById("myCharts").style.marginLeft= widthClosed;
			document.querySelector(".togglebtn").innerHTML=">"
		}
		function toggleNav() {
			if (document.getElementById("mySidebar").style.width !== widthOpen) {
				openNav()
			} else {
				closeNav()
			}
		}
		// open on startup
		openNav()
	</script>
	`
}

func createHtmlReport(charts []chart.Chart, title string) (out []byte, err error) {
	var sb strings.Builder
	sb.WriteString(getHtmlReportBegin(title))

	sb.WriteString("<body>\n")
	sb.WriteString("<main class=\"content\">\n")
	if len(charts) > 0 {
		sb.WriteString(getHtmlReportMenu(charts))
	}
	sb.WriteString("<div id=\"myCharts\">\n")
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(title)))
	sb.WriteString(`
<noscript>
	<h3>JavaScript is disabled. Charts cannot be displayed.</h3>
</noscript>
`)
	if len(charts) == 0 {
		sb.WriteString("<p>" + NoDataFound + "</p>\n")
	}
	for _, c := range charts {
		sb.WriteString(fmt.Sprintf("<h2 id=\"%s\">%s</h2>\n", html.EscapeString(c.ID), html.EscapeString(c.Title)))
		rendered, err := RenderChart(c)
		if err != nil {
			return nil, err
		}
		sb.WriteString(rendered)
	}
	sb.WriteString("</div>\n")
	sb.WriteString("</main>\n")
	if len(charts) > 0 {
		sb.WriteString(getHtmlReportSidebarJavascript())
	}
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")
	out = []byte(sb.String())
	return
}

const datasetTemplate = `
{
	label: '{{.Label}}',
	data: [{{.Data}}],
	backgroundColor: '{{.Color}}',
	borderColor: '{{.Color}}',
	borderWidth: 2,
	pointRadius: 0,
	yAxisID: '{{.AxisID}}'
}
`
const lineChartTemplate = `<div class="chart-container" style="max-width: 1100px">
<canvas id="{{.ID}}"></canvas>
</div>
<script>
new Chart(document.getElementById('{{.ID}}'), {
    type: 'line',
    data: {
		labels: [{{.Labels}}],
        datasets: [{{.Datasets}}]
    },
    plugins: [testEndMarker],
    options: {
        aspectRatio: {{.AspectRatio}},
        interaction: {
            mode: 'index',
            intersect: false
        },
        scales: {
            x: {
                title: {
                    text: '{{.XaxisText}}',
                    display: true
                },
				ticks: {
					maxRotation: 90,
					minRotation: 45
                }
            },
            y: {
                position: 'left',
                beginAtZero: true,
                title: {
                    text: '{{.YaxisText}}',
                    display: true
                }
            },
            y1: {
                display: {{.DisplaySecondary}},
                position: 'right',
                beginAtZero: true,
                grid: {
                    drawOnChartArea: false
                },
                title: {
                    text: '{{.Y1axisText}}',
                    display: true
                }
            }
        },
        plugins: {
            title: {
                text: '{{.TitleText}}',
                display: true,
                font: {
                    size: 18
                }
            },
            legend: {
                display: true,
                position: 'bottom'
            },
            testEndMarker: {
                index: {{.MarkerIndex}},
                color: '{{.MarkerColor}}'
            }
        }
    }
});
</script>
`

// ChartTemplateStruct holds the values substituted into lineChartTemplate.
type ChartTemplateStruct struct {
	ID               string
	Labels           string
	Datasets         string
	AspectRatio      string
	XaxisText        string
	YaxisText        string
	Y1axisText       string
	DisplaySecondary string
	TitleText        string
	MarkerIndex      int
	MarkerColor      string
}

var (
	datasetTmpl = texttemplate.Must(texttemplate.New("datasetTemplate").Parse(datasetTemplate))
	chartTmpl   = texttemplate.Must(texttemplate.New("chartTemplate").Parse(lineChartTemplate))
)

// RenderChart generates the HTML/JavaScript representation of one chart: a chart.js line chart with
// a primary y-axis on the left, an optional secondary y-axis on the right and a vertical marker at the
// end of the test.
func RenderChart(c chart.Chart) (string, error) {
	datasets := []string{}
	for idx, line := range c.Lines {
		color := line.Color
		if color == "" {
			color = getColor(idx)
		}
		axisID := "y"
		if line.Axis == chart.AxisSecondary {
			axisID = "y1"
		}
		buf := new(bytes.Buffer)
		err := datasetTmpl.Execute(buf, struct {
			Label  string
			Data   string
			Color  string
			AxisID string
		}{
			Label:  texttemplate.JSEscapeString(line.Label),
			Data:   formatPoints(line.Values),
			Color:  texttemplate.JSEscapeString(color),
			AxisID: axisID,
		})
		if err != nil {
			slog.Error("error executing template", slog.String("error", err.Error()))
			return "", fmt.Errorf("failed to render chart %s: %w", c.ID, err)
		}
		datasets = append(datasets, buf.String())
	}
	labels := make([]string, 0, len(c.Timeline))
	for _, label := range c.Timeline {
		labels = append(labels, fmt.Sprintf("'%s'", texttemplate.JSEscapeString(label)))
	}
	config := ChartTemplateStruct{
		ID:               "chart-" + c.ID,
		Labels:           strings.Join(labels, ","),
		Datasets:         strings.Join(datasets, ","),
		AspectRatio:      "2.5",
		XaxisText:        texttemplate.JSEscapeString(xAxisLabel(c)),
		YaxisText:        texttemplate.JSEscapeString(axisUnits(c, chart.AxisPrimary)),
		Y1axisText:       texttemplate.JSEscapeString(axisUnits(c, chart.AxisSecondary)),
		DisplaySecondary: strconv.FormatBool(c.HasSecondaryAxis()),
		TitleText:        texttemplate.JSEscapeString(c.Title),
		MarkerIndex:      c.MarkerIndex(),
		MarkerColor:      markerColor,
	}
	buf := new(bytes.Buffer)
	if err := chartTmpl.Execute(buf, config); err != nil {
		slog.Error("error executing template", slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to render chart %s: %w", c.ID, err)
	}
	return buf.String() + "\n", nil
}

// axisUnits returns the units of the first line on the axis.
func axisUnits(c chart.Chart, axis chart.Axis) string {
	for _, line := range c.Lines {
		if line.Axis == axis {
			return line.Units
		}
	}
	return ""
}

func formatPoints(values []float64) string {
	points := make([]string, 0, len(values))
	for _, v := range values {
		points = append(points, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(points, ",")
}

func getColor(idx int) string {
	// color-blind safe palette from here: http://mkweb.bcgsc.ca/colorblind/palettes.mhtml#page-container
	colors := []string{"#9F0162", "#009F81", "#FF5AAF", "#00FCCF", "#8400CD", "#008DF9", "#00C2F9", "#FFB2FD", "#A40122", "#E20134", "#FF6E3A", "#FFC33B"}
	return colors[idx%len(colors)]
}
