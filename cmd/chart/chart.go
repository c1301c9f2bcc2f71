// Package chart is a subcommand of the root command. It extracts metrics from sar text logs and
// renders them as charts.
package chart

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"sargraph/internal/chart"
	"sargraph/internal/common"
	"sargraph/internal/extract"
	"sargraph/internal/progress"
	"sargraph/internal/report"
	"sargraph/internal/util"
)

const cmdName = "chart"

//go:embed resources
var resources embed.FS

const builtinConfigPath = "resources/sar.yaml"

var examples = []string{
	fmt.Sprintf("  Chart a sar log:                      $ %s %s --input sar05.log", common.AppName, cmdName),
	fmt.Sprintf("  Mark the end of the test at 1:30:     $ %s %s --input sar05.log --end 01:30", common.AppName, cmdName),
	fmt.Sprintf("  Use a custom configuration:           $ %s %s --input sar05.log --config my.yaml --format html,xlsx", common.AppName, cmdName),
	fmt.Sprintf("  Chart several logs:                   $ %s %s --input host1.log,host2.log", common.AppName, cmdName),
	fmt.Sprintf("  Serve the results to Prometheus:      $ %s %s --input sar05.log --prometheus-server-addr :9090", common.AppName, cmdName),
	fmt.Sprintf("  Print the built-in configuration:     $ %s %s --dump-config", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Chart metrics from sar text log(s)",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

// flag vars
var (
	flagInput      []string
	flagConfig     string
	flagEnd        string
	flagFormat     []string
	flagTitle      string
	flagPromServer string
	flagDumpConfig bool
)

// flag names
const (
	flagInputName      = "input"
	flagConfigName     = "config"
	flagEndName        = "end"
	flagFormatName     = "format"
	flagTitleName      = "title"
	flagPromServerName = "prometheus-server-addr"
	flagDumpConfigName = "dump-config"
)

func init() {
	Cmd.Flags().StringSliceVar(&flagInput, flagInputName, []string{}, "")
	Cmd.Flags().StringVar(&flagConfig, flagConfigName, "", "")
	Cmd.Flags().StringVar(&flagEnd, flagEndName, "", "")
	Cmd.Flags().StringSliceVar(&flagFormat, flagFormatName, []string{report.FormatHtml}, "")
	Cmd.Flags().StringVar(&flagTitle, flagTitleName, "", "")
	Cmd.Flags().StringVar(&flagPromServer, flagPromServerName, "", "")
	Cmd.Flags().BoolVar(&flagDumpConfig, flagDumpConfigName, false, "")

	Cmd.SetUsageFunc(usageFunc)
}

func usageFunc(cmd *cobra.Command) error {
	cmd.Printf("Usage: %s [flags]\n\n", cmd.CommandPath())
	cmd.Printf("Examples:\n%s\n\n", cmd.Example)
	cmd.Println("Flags:")
	for _, group := range getFlagGroups() {
		cmd.Printf("  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if cmd.Flags().Lookup(flag.Name).DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", cmd.Flags().Lookup(flag.Name).DefValue)
			}
			cmd.Printf("    --%-25s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	cmd.Println("\nGlobal Flags:")
	cmd.Root().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
		flagDefault := ""
		if pf.DefValue != "" {
			flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
		}
		cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
	})
	return nil
}

func getFlagGroups() []common.FlagGroup {
	var groups []common.FlagGroup
	flags := []common.Flag{
		{
			Name: flagInputName,
			Help: "sar text log file(s), comma separated",
		},
		{
			Name: flagEndName,
			Help: "end of the test relative to the start of the log, \"hh:mm\", drawn as a vertical line",
		},
		{
			Name: flagFormatName,
			Help: fmt.Sprintf("choose output format(s) from: %s", strings.Join(append([]string{report.FormatAll}, report.FormatOptions...), ", ")),
		},
		{
			Name: flagTitleName,
			Help: "report title, defaults to the input file name",
		},
	}
	groups = append(groups, common.FlagGroup{
		GroupName: "Chart Options",
		Flags:     flags,
	})
	flags = []common.Flag{
		{
			Name: flagConfigName,
			Help: "YAML file with the extraction sections and charts, replaces the built-in sar configuration",
		},
		{
			Name: flagDumpConfigName,
			Help: "print the built-in configuration and exit",
		},
		{
			Name: flagPromServerName,
			Help: "after charting, serve the chart line statistics as Prometheus metrics at this address until interrupted, e.g., :9090",
		},
	}
	groups = append(groups, common.FlagGroup{
		GroupName: "Advanced Options",
		Flags:     flags,
	})
	return groups
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagDumpConfig {
		return nil
	}
	if len(flagInput) == 0 {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s is required", flagInputName))
	}
	for _, input := range flagInput {
		exists, err := util.FileExists(input)
		if err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("invalid input: %v", err))
		}
		if !exists {
			return common.FlagValidationError(cmd, fmt.Sprintf("input file does not exist: %s", input))
		}
	}
	if flagConfig != "" {
		exists, err := util.FileExists(flagConfig)
		if err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("invalid config: %v", err))
		}
		if !exists {
			return common.FlagValidationError(cmd, fmt.Sprintf("config file does not exist: %s", flagConfig))
		}
	}
	formatOptions := append([]string{report.FormatAll}, report.FormatOptions...)
	for _, format := range flagFormat {
		if !slices.Contains(formatOptions, format) {
			return common.FlagValidationError(cmd, fmt.Sprintf("format options are: %s", strings.Join(formatOptions, ", ")))
		}
	}
	if flagEnd != "" {
		if _, err := extract.ParseOffset(flagEnd); err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("invalid --%s: %v", flagEndName, err))
		}
	}
	if flagPromServer != "" {
		if _, _, err := net.SplitHostPort(flagPromServer); err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("invalid --%s: %v", flagPromServerName, err))
		}
	}
	return nil
}

// inputResult is what was produced for one input log.
type inputResult struct {
	path        string
	name        string
	stats       extract.Stats
	timelineLen int
	charts      []chart.Chart
	reportPaths []string
}

func runCmd(cmd *cobra.Command, args []string) error {
	if flagDumpConfig {
		data, err := resources.ReadFile(builtinConfigPath)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}
	appContext, err := common.GetAppContext(cmd)
	if err != nil {
		return err
	}
	extractConfig, chartConfig, err := loadConfig(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	var marker string
	if flagEnd != "" {
		// validated in validateFlags
		marker, _ = extract.ParseOffset(flagEnd)
	}
	err = common.CreateOutputDir(appContext.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	formats := common.ExpandFormats(flagFormat)
	names := reportNames(flagInput)
	// setup and start the progress indicator
	multiSpinner := progress.NewMultiSpinner()
	for _, name := range names {
		if err := multiSpinner.AddSpinner(name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			slog.Error(err.Error())
			cmd.SilenceUsage = true
			return err
		}
	}
	multiSpinner.Start()
	results := make([]inputResult, len(flagInput))
	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.NumCPU())
	for i, input := range flagInput {
		i, input := i, input
		g.Go(func() error {
			result, err := processInput(gctx, input, names[i], extractConfig, chartConfig, marker, formats, appContext.OutputDir, multiSpinner.Status)
			if err != nil {
				_ = multiSpinner.Status(names[i], fmt.Sprintf("Error: %v", err))
				return err
			}
			results[i] = result
			return nil
		})
	}
	err = g.Wait()
	multiSpinner.Finish()
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	// print the text report to stdout when it is the only format requested
	if len(formats) == 1 && formats[0] == report.FormatTxt {
		for _, result := range results {
			data, err := os.ReadFile(result.reportPaths[0])
			if err != nil {
				slog.Error("failed to read text report", slog.String("path", result.reportPaths[0]), slog.String("error", err.Error()))
				continue
			}
			fmt.Print(string(data))
		}
	}
	fmt.Println("Report files:")
	for _, result := range results {
		for _, reportPath := range result.reportPaths {
			fmt.Printf("  %s\n", reportPath)
		}
	}
	if flagPromServer != "" {
		return servePrometheus(cmd.Context(), flagPromServer, results)
	}
	return nil
}

// loadConfig reads the extraction and rendering configurations from the YAML file at path, or from
// the built-in sar configuration when path is empty, and validates them against each other.
func loadConfig(path string) (*extract.Config, *chart.Config, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = resources.ReadFile(builtinConfigPath)
	} else {
		data, err = os.ReadFile(path) // #nosec G304
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read config")
	}
	extractConfig, err := extract.ParseConfig(data)
	if err != nil {
		return nil, nil, err
	}
	chartConfig, err := chart.ParseConfig(data)
	if err != nil {
		return nil, nil, err
	}
	if err := chartConfig.Validate(extractConfig); err != nil {
		return nil, nil, err
	}
	return extractConfig, chartConfig, nil
}

// reportNames derives a unique report file name for each input from its base name.
func reportNames(inputs []string) []string {
	names := make([]string, 0, len(inputs))
	for _, input := range inputs {
		base := util.BaseName(input)
		name := base
		for i := 2; slices.Contains(names, name); i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		names = append(names, name)
	}
	return names
}

func processInput(ctx context.Context, path, name string, extractConfig *extract.Config, chartConfig *chart.Config, marker string, formats []string, outputDir string, statusUpdate progress.MultiSpinnerUpdateFunc) (inputResult, error) {
	result := inputResult{path: path, name: name}
	_ = statusUpdate(name, "extracting metrics")
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return result, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	res, err := extract.Extract(f, extractConfig)
	if err != nil {
		return result, errors.Wrapf(err, "failed to extract metrics from %s", path)
	}
	result.stats = res.Stats
	result.timelineLen = len(res.Timeline())
	_ = statusUpdate(name, "building charts")
	result.charts = chart.Build(res, chartConfig, marker)
	if marker != "" && len(res.Timeline()) > 0 && !slices.Contains(res.Timeline(), marker) {
		slog.Warn("end of test is not on the timeline", slog.String("input", path), slog.String("end", marker))
	}
	title := flagTitle
	if title == "" {
		title = name
	} else if len(flagInput) > 1 {
		title = fmt.Sprintf("%s %s", title, name)
	}
	for _, format := range formats {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		_ = statusUpdate(name, fmt.Sprintf("creating %s report", format))
		reportBytes, err := report.Create(format, result.charts, title)
		if err != nil {
			return result, fmt.Errorf("failed to create %s report: %w", format, err)
		}
		reportPath := common.ReportPath(outputDir, name, format)
		if err := common.WriteReport(reportBytes, reportPath); err != nil {
			return result, fmt.Errorf("failed to write report: %w", err)
		}
		result.reportPaths = append(result.reportPaths, reportPath)
	}
	status := fmt.Sprintf("complete, %d chart(s)", len(result.charts))
	if res.Stats.MalformedRows > 0 {
		status += fmt.Sprintf(", %d malformed row(s) skipped", res.Stats.MalformedRows)
	}
	_ = statusUpdate(name, status)
	slog.Info("input processed", slog.String("input", path), slog.Int("charts", len(result.charts)), slog.Int("data_rows", res.Stats.DataRows), slog.Int("malformed_rows", res.Stats.MalformedRows))
	return result, nil
}
