// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package chart

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"sargraph/internal/extract"
)

// Axis selects the y-axis a line is scaled against.
type Axis string

const (
	AxisPrimary   Axis = "primary"
	AxisSecondary Axis = "secondary"
)

// LineSpec describes one line of a chart and the series that feeds it.
type LineSpec struct {
	Label  string `yaml:"label"`
	Units  string `yaml:"units"`
	Color  string `yaml:"color"`
	Axis   Axis   `yaml:"axis"` // empty means primary
	Source string `yaml:"source"` // extraction group
	Metric string `yaml:"metric"` // metric name within the group
}

// Spec describes a chart group. Split groups render one chart per discriminator key.
type Spec struct {
	Name   string       `yaml:"name"`
	Title  string       `yaml:"title"`
	XLabel string       `yaml:"x_label"`
	Kind   extract.Kind `yaml:"kind"`
	Lines  []LineSpec   `yaml:"lines"`
}

// Config is the ordered rendering configuration.
type Config struct {
	Charts []Spec `yaml:"charts"`
}

// document is the whole configuration file, the "sections" tree is decoded by the extract package.
type document struct {
	Sections any    `yaml:"sections"`
	Charts   []Spec `yaml:"charts"`
}

// ParseConfig decodes the "charts" tree of a YAML configuration document. Unknown keys are errors.
// It does not check references into the extraction configuration, see Validate.
func ParseConfig(data []byte) (*Config, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, &extract.ConfigError{Msg: errors.Wrap(err, "failed to decode rendering config").Error()}
	}
	return &Config{Charts: doc.Charts}, nil
}

// Validate checks that every line references a metric of the extraction configuration whose kind
// matches the kind of its chart.
func (c *Config) Validate(ec *extract.Config) error {
	if len(c.Charts) == 0 {
		return &extract.ConfigError{Msg: "no charts configured"}
	}
	names := mapset.NewSet[string]()
	for _, spec := range c.Charts {
		if spec.Name == "" {
			return &extract.ConfigError{Msg: "chart name cannot be empty"}
		}
		if !names.Add(spec.Name) {
			return &extract.ConfigError{Msg: fmt.Sprintf("duplicate chart %q", spec.Name)}
		}
		if len(spec.Lines) == 0 {
			return &extract.ConfigError{Msg: fmt.Sprintf("chart %q has no lines", spec.Name)}
		}
		hasPrimary := false
		for i, line := range spec.Lines {
			switch line.Axis {
			case AxisPrimary, "":
				hasPrimary = true
			case AxisSecondary:
			default:
				return &extract.ConfigError{Msg: fmt.Sprintf("chart %q, line %d: unknown axis %q", spec.Name, i, line.Axis)}
			}
			metric := ec.Metric(line.Source, line.Metric)
			if metric == nil {
				return &extract.ConfigError{Metric: line.Metric, Msg: fmt.Sprintf("chart %q references %s/%s which is not extracted", spec.Name, line.Source, line.Metric)}
			}
			if metric.Kind != spec.Kind {
				return &extract.ConfigError{Metric: line.Metric, Msg: fmt.Sprintf("chart %q is %s but %s/%s is %s", spec.Name, spec.Kind, line.Source, line.Metric, metric.Kind)}
			}
		}
		if !hasPrimary {
			return &extract.ConfigError{Msg: fmt.Sprintf("chart %q needs at least one line on the primary axis", spec.Name)}
		}
	}
	return nil
}
