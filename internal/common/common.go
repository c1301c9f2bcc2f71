// Package common defines data structures and functions that are used by multiple
// application commands.
package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"sargraph/internal/report"
	"sargraph/internal/util"
)

var AppName = filepath.Base(os.Args[0])

// AppContext represents the application context that can be accessed from all commands.
type AppContext struct {
	Timestamp   string // Timestamp is the application startup time.
	OutputDir   string // OutputDir is the directory where the application will write output files.
	LogFilePath string // LogFilePath is the path to the log file, empty when logging elsewhere.
	Version     string // Version is the version of the application.
	Debug       bool   // Debug is true when debug logging is enabled.
}

type Flag struct {
	Name string
	Help string
}
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}

// GetAppContext returns the application context stored in the root command's context.
func GetAppContext(cmd *cobra.Command) (AppContext, error) {
	root := cmd.Root()
	if root.Context() == nil {
		return AppContext{}, errors.New("application context not initialized")
	}
	appContext, ok := root.Context().Value(AppContext{}).(AppContext)
	if !ok {
		return AppContext{}, errors.New("application context not initialized")
	}
	return appContext, nil
}

// FlagValidationError is used to report an error with a flag
func FlagValidationError(cmd *cobra.Command, msg string) error {
	err := errors.New(msg)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintf(os.Stderr, "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	return err
}

// CreateOutputDir creates the output directory if it does not exist
func CreateOutputDir(outputDir string) error {
	err := util.CreateDirectoryIfNotExists(outputDir, 0755) // #nosec G301
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// ExpandFormats replaces "all" with every supported report format.
func ExpandFormats(formats []string) []string {
	if slices.Contains(formats, report.FormatAll) {
		return report.FormatOptions
	}
	var out []string
	for _, format := range formats {
		out = util.UniqueAppend(out, format)
	}
	return out
}

// ReportPath returns the path of a report file in the output directory.
func ReportPath(outputDir, name, format string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s.%s", name, format))
}

// WriteReport writes the report bytes to the specified path.
func WriteReport(reportBytes []byte, reportPath string) error {
	err := os.WriteFile(reportPath, reportBytes, 0644) // #nosec G306
	if err != nil {
		err = fmt.Errorf("failed to write report file: %v", err)
		slog.Error(err.Error())
		return err
	}
	return nil
}
