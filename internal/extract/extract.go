// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package extract reads the sections of a sar log into aligned time series, as described by an
// extraction configuration.
package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

const maxLineSize = 1024 * 1024

// Stats counts what happened during an extraction pass.
type Stats struct {
	Lines             int
	DataRows          int
	MalformedRows     int // row/metric pairs that could not be read
	DroppedTimestamps int
	Prune             PruneReport
}

// Result is the frozen output of an extraction pass.
type Result struct {
	Store    *Store
	timeline []string
	Stats    Stats
}

// Timeline returns the formatted offsets that every series is aligned to.
func (r *Result) Timeline() []string {
	return slices.Clone(r.timeline)
}

// Extract runs the extraction pass over the lines of r. The reader is borrowed, closing it is the
// caller's responsibility. cfg must have been validated, see ParseConfig and Config.Validate; it is
// only read, so one configuration can serve concurrent passes. Only configuration and read errors
// are returned; rows that cannot be read are skipped.
func Extract(r io.Reader, cfg *Config) (*Result, error) {
	if err := cfg.checkReady(); err != nil {
		return nil, err
	}
	st := NewStore(cfg)
	recognizer := NewRecognizer(cfg)
	state := InitialState()
	var stats Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		stats.Lines++
		line := NormalizeLine(scanner.Text())
		var section *SectionSpec
		state, section = recognizer.Step(state, line)
		if section == nil {
			continue
		}
		stats.DataRows++
		for _, err := range extractRow(section, Tokenize(line), stats.Lines, st) {
			stats.MalformedRows++
			var rowErr *MalformedRowError
			if errors.As(err, &rowErr) {
				slog.Debug("skipping row", slog.String("section", section.Trigger), slog.String("error", rowErr.Error()))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log at line %d: %w", stats.Lines+1, err)
	}
	timeline, dropped := NormalizeTimeline(st.rawTimeline)
	stats.DroppedTimestamps = dropped
	stats.Prune = st.Prune(len(timeline))
	slog.Info("extraction complete",
		slog.Int("lines", stats.Lines),
		slog.Int("data rows", stats.DataRows),
		slog.Int("malformed", stats.MalformedRows),
		slog.Int("samples", len(timeline)),
		slog.Int("dropped timestamps", dropped),
		slog.Int("removed keys", len(stats.Prune.Removed)))
	return &Result{Store: st, timeline: timeline, Stats: stats}, nil
}
