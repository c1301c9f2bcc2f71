// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
	offsetWidth    = 4
)

// ParseClock parses an "hh:mm" or "hh:mm:ss" token and returns the minutes since midnight.
// Seconds are validated but do not contribute.
func ParseClock(token string) (int, error) {
	parts := strings.Split(token, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("timestamp %q is not of the form hh:mm[:ss]", token)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("timestamp %q has an invalid hour", token)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("timestamp %q has an invalid minute", token)
	}
	if len(parts) == 3 {
		second, err := strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return 0, fmt.Errorf("timestamp %q has an invalid second", token)
		}
	}
	return hour*minutesPerHour + minute, nil
}

// FormatOffset formats a duration in minutes as "h:mm", cut to four characters.
func FormatOffset(minutes int) string {
	s := fmt.Sprintf("%d:%02d", minutes/minutesPerHour, minutes%minutesPerHour)
	if len(s) > offsetWidth {
		s = s[:offsetWidth]
	}
	return s
}

// NormalizeTimeline converts raw timestamps into offsets relative to the first valid timestamp.
// Malformed timestamps are dropped; the number dropped is returned.
func NormalizeTimeline(raw []string) (timeline []string, dropped int) {
	timeline = make([]string, 0, len(raw))
	base := -1
	for _, token := range raw {
		minutes, err := ParseClock(token)
		if err != nil {
			slog.Debug("dropping timestamp", slog.String("value", token), slog.String("error", err.Error()))
			dropped++
			continue
		}
		if base == -1 {
			base = minutes
		}
		delta := minutes - base
		if delta < 0 {
			// sample taken after midnight
			delta += minutesPerDay
		}
		timeline = append(timeline, FormatOffset(delta))
	}
	return timeline, dropped
}

// ParseOffset parses a user supplied "hh:mm" offset from the start of the run and formats it the
// way timeline labels are formatted, so it can be matched against them.
func ParseOffset(offset string) (string, error) {
	parts := strings.Split(strings.TrimSpace(offset), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("offset %q is not of the form hh:mm", offset)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return "", fmt.Errorf("offset %q has an invalid hour", offset)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("offset %q has an invalid minute", offset)
	}
	return FormatOffset(hours*minutesPerHour + minutes), nil
}
