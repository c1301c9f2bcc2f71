// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"regexp"
	"strings"
)

var rxSpaces = regexp.MustCompile(` +`)

// NormalizeLine trims the line and collapses runs of spaces to a single space.
func NormalizeLine(line string) string {
	return rxSpaces.ReplaceAllString(strings.TrimSpace(line), " ")
}

// Tokenize splits a normalized line on the single-space separator.
func Tokenize(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

const noSection = -1

// State is the recognizer state carried from one line to the next.
// The zero value is not valid, use InitialState.
type State struct {
	active int
}

// InitialState returns the state before the first line, i.e., no active section.
func InitialState() State {
	return State{active: noSection}
}

// Active returns the index of the active section in the configuration, and false if no section is active.
func (s State) Active() (int, bool) {
	return s.active, s.active != noSection
}

// Recognizer tracks which configured section the lines of a log belong to.
type Recognizer struct {
	sections []SectionSpec
}

func NewRecognizer(cfg *Config) *Recognizer {
	return &Recognizer{sections: cfg.Sections}
}

// Step consumes one normalized line. It returns the state for the next line and the section the
// line is a data row of, or nil. A line that is both a data row of the active section and a trigger
// of another section is returned as data before the new section becomes active. When several
// triggers match, the one configured last wins.
func (r *Recognizer) Step(state State, line string) (State, *SectionSpec) {
	if line == "" {
		return InitialState(), nil
	}
	var data *SectionSpec
	if idx, ok := state.Active(); ok && idx < len(r.sections) {
		data = &r.sections[idx]
	}
	next := state
	for idx, section := range r.sections {
		if strings.Contains(line, section.Trigger) {
			next.active = idx
		}
	}
	return next, data
}
