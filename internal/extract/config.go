// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"fmt"
	"strings"

	"github.com/casbin/govaluate"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Kind selects how a metric's values are accumulated.
type Kind int

const (
	// KindSingle accumulates one flat series per metric.
	KindSingle Kind = iota
	// KindSplitByKey accumulates one series per discriminator key, e.g., per disk device.
	KindSplitByKey
)

var kindNames = map[Kind]string{
	KindSingle:     "single",
	KindSplitByKey: "split",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return KindSingle, fmt.Errorf("unknown metric kind: %q", name)
}

func (k *Kind) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	kind, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Transform is applied to a parsed value before it is filtered and stored.
type Transform int

const (
	TransformNone Transform = iota
	// TransformComplementOf100 turns e.g. %idle into utilization: 100 - value.
	TransformComplementOf100
	// TransformMultiplyBy8 turns kilobytes into kilobits: value * 8.
	TransformMultiplyBy8
	// TransformExpression evaluates MetricSpec.Expression with the variable "value".
	TransformExpression
)

var transformNames = map[Transform]string{
	TransformNone:            "none",
	TransformComplementOf100: "sub_from_100",
	TransformMultiplyBy8:     "multiply_by_8",
	TransformExpression:      "expression",
}

func (t Transform) String() string {
	if name, ok := transformNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Transform(%d)", int(t))
}

// ParseTransform converts a configuration name to a Transform. An empty name is TransformNone.
func ParseTransform(name string) (Transform, error) {
	if name == "" {
		return TransformNone, nil
	}
	for t, n := range transformNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return TransformNone, fmt.Errorf("unknown transform: %q", name)
}

func (t *Transform) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	transform, err := ParseTransform(name)
	if err != nil {
		return err
	}
	*t = transform
	return nil
}

func (t Transform) MarshalYAML() (any, error) {
	return t.String(), nil
}

// MetricSpec describes one value extracted from the rows of a section.
type MetricSpec struct {
	Name        string    `yaml:"name"`
	Kind        Kind      `yaml:"kind"`
	Group       string    `yaml:"group"`  // output chart group
	ValueColumn int       `yaml:"column"` // 0-based token index of the value
	SplitColumn *int      `yaml:"split_column,omitempty"`
	Filter      string    `yaml:"filter,omitempty"` // row must contain this token
	Transform   Transform `yaml:"transform,omitempty"`
	Expression  string    `yaml:"expression,omitempty"`
	// TimelineSource marks the one metric whose rows supply the shared timeline.
	TimelineSource bool `yaml:"timeline,omitempty"`
	TimeColumn     int  `yaml:"time_column,omitempty"`

	evaluable *govaluate.EvaluableExpression
}

// SectionSpec maps a trigger substring to the metrics read from the rows that follow it.
type SectionSpec struct {
	Trigger string       `yaml:"trigger"`
	Metrics []MetricSpec `yaml:"metrics"`
}

// Config is the ordered extraction configuration. Section order is the trigger scan order.
type Config struct {
	Sections []SectionSpec `yaml:"sections"`
}

// ConfigError reports an invalid configuration. It is always fatal.
type ConfigError struct {
	Section string
	Metric  string
	Msg     string
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid configuration")
	if e.Section != "" {
		sb.WriteString(fmt.Sprintf(", section %q", e.Section))
	}
	if e.Metric != "" {
		sb.WriteString(fmt.Sprintf(", metric %q", e.Metric))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	return sb.String()
}

// document is the whole configuration file. The "charts" tree belongs to the rendering
// configuration and is only accepted here.
type document struct {
	Sections []SectionSpec `yaml:"sections"`
	Charts   any           `yaml:"charts"`
}

// ParseConfig decodes the "sections" tree of a YAML configuration document and validates it.
// Unknown keys are errors.
func ParseConfig(data []byte) (*Config, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, &ConfigError{Msg: errors.Wrap(err, "failed to decode extraction config").Error()}
	}
	cfg := &Config{Sections: doc.Sections}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the shape of the configuration and compiles expression transforms.
// Every failure is a *ConfigError. Validate writes to the configuration, it must not run while
// the configuration is shared.
func (c *Config) Validate() error {
	return c.validate(true)
}

// checkReady is the read-only form of Validate used by Extract. It reports a configuration whose
// expressions were never compiled.
func (c *Config) checkReady() error {
	return c.validate(false)
}

func (c *Config) validate(compile bool) error {
	if len(c.Sections) == 0 {
		return &ConfigError{Msg: "no sections configured"}
	}
	triggers := mapset.NewSet[string]()
	series := mapset.NewSet[string]()
	var timelineSources []string
	for sectionIdx := range c.Sections {
		section := &c.Sections[sectionIdx]
		if section.Trigger == "" {
			return &ConfigError{Msg: fmt.Sprintf("section %d has an empty trigger", sectionIdx)}
		}
		if !triggers.Add(section.Trigger) {
			return &ConfigError{Section: section.Trigger, Msg: "duplicate trigger"}
		}
		for metricIdx := range section.Metrics {
			metric := &section.Metrics[metricIdx]
			if err := metric.validate(compile); err != nil {
				err.Section = section.Trigger
				return err
			}
			if !series.Add(metric.Group + "\x00" + metric.Name) {
				return &ConfigError{Section: section.Trigger, Metric: metric.Name, Msg: fmt.Sprintf("metric is already defined in group %q", metric.Group)}
			}
			if metric.TimelineSource {
				timelineSources = append(timelineSources, section.Trigger+"/"+metric.Name)
			}
		}
	}
	switch len(timelineSources) {
	case 0:
		return &ConfigError{Msg: "no metric is marked as the timeline source"}
	case 1:
	default:
		return &ConfigError{Msg: fmt.Sprintf("exactly one timeline source is allowed, found %d: %s", len(timelineSources), strings.Join(timelineSources, ", "))}
	}
	return nil
}

func (m *MetricSpec) validate(compile bool) *ConfigError {
	if m.Name == "" {
		return &ConfigError{Msg: "metric name cannot be empty"}
	}
	if m.Group == "" {
		return &ConfigError{Metric: m.Name, Msg: "group cannot be empty"}
	}
	if m.ValueColumn < 0 {
		return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("column must not be negative, got %d", m.ValueColumn)}
	}
	switch m.Kind {
	case KindSingle:
	case KindSplitByKey:
		if m.SplitColumn == nil {
			return &ConfigError{Metric: m.Name, Msg: "split metric requires split_column"}
		}
		if *m.SplitColumn < 0 {
			return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("split_column must not be negative, got %d", *m.SplitColumn)}
		}
	default:
		return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("unknown kind %s", m.Kind)}
	}
	if m.TimelineSource {
		if m.Kind != KindSingle {
			return &ConfigError{Metric: m.Name, Msg: "the timeline source must be a single metric"}
		}
		if m.TimeColumn < 0 {
			return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("time_column must not be negative, got %d", m.TimeColumn)}
		}
	}
	switch m.Transform {
	case TransformNone, TransformComplementOf100, TransformMultiplyBy8:
		if m.Expression != "" {
			return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("expression is only valid with the %s transform", TransformExpression)}
		}
	case TransformExpression:
		if m.Expression == "" {
			return &ConfigError{Metric: m.Name, Msg: "expression transform requires an expression"}
		}
		if !compile {
			if m.evaluable == nil {
				return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("expression %q is not compiled, the configuration was not validated", m.Expression)}
			}
			return nil
		}
		expr, err := govaluate.NewEvaluableExpression(m.Expression)
		if err != nil {
			return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("failed to compile expression %q: %v", m.Expression, err)}
		}
		for _, v := range expr.Vars() {
			if v != valueVariable {
				return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("expression %q references unknown variable %q", m.Expression, v)}
			}
		}
		m.evaluable = expr
	default:
		return &ConfigError{Metric: m.Name, Msg: fmt.Sprintf("unknown transform %s", m.Transform)}
	}
	return nil
}

// Metric returns the metric with the given group and name, or nil.
func (c *Config) Metric(group, name string) *MetricSpec {
	for sectionIdx := range c.Sections {
		for metricIdx := range c.Sections[sectionIdx].Metrics {
			m := &c.Sections[sectionIdx].Metrics[metricIdx]
			if m.Group == group && m.Name == name {
				return m
			}
		}
	}
	return nil
}
