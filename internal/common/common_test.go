package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sargraph/internal/report"
)

func TestExpandFormats(t *testing.T) {
	assert.Equal(t, report.FormatOptions, ExpandFormats([]string{report.FormatTxt, report.FormatAll}))
	assert.Equal(t, []string{"html", "json"}, ExpandFormats([]string{"html", "json", "html"}))
}

func TestReportPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "sar05.html"), ReportPath("out", "sar05", "html"))
}

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, CreateOutputDir(dir))
	path := ReportPath(dir, "sar", report.FormatTxt)
	require.NoError(t, WriteReport([]byte("hello"), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Error(t, WriteReport([]byte("x"), filepath.Join(dir, "missing", "sar.txt")))
}

func TestGetAppContext(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	child := &cobra.Command{Use: "child"}
	root.AddCommand(child)
	_, err := GetAppContext(child)
	assert.Error(t, err)

	root.SetContext(context.WithValue(context.Background(), AppContext{}, AppContext{OutputDir: "/tmp/out"}))
	appContext, err := GetAppContext(child)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", appContext.OutputDir)
}

func TestFlagValidationError(t *testing.T) {
	cmd := &cobra.Command{Use: "chart"}
	err := FlagValidationError(cmd, "bad flag")
	assert.EqualError(t, err, "bad flag")
	assert.True(t, cmd.SilenceUsage)
}
