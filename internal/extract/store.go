// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"slices"
)

// Series holds the values of one metric. A single series is a flat sequence, a split series
// is an ordered mapping from discriminator key to sequence, keys in first-seen order.
type Series struct {
	kind   Kind
	values []float64
	keys   []string
	byKey  map[string][]float64
}

func newSeries(kind Kind) *Series {
	s := &Series{kind: kind}
	if kind == KindSplitByKey {
		s.byKey = make(map[string][]float64)
	}
	return s
}

func (s *Series) Kind() Kind {
	return s.kind
}

// Values returns a copy of a single series' values. It is nil for split series.
func (s *Series) Values() []float64 {
	return slices.Clone(s.values)
}

// Keys returns the discriminator keys of a split series in first-seen order.
func (s *Series) Keys() []string {
	return slices.Clone(s.keys)
}

// KeyValues returns a copy of the values recorded for a discriminator key.
func (s *Series) KeyValues(key string) ([]float64, bool) {
	values, ok := s.byKey[key]
	return slices.Clone(values), ok
}

func (s *Series) append(value float64) {
	s.values = append(s.values, value)
}

func (s *Series) appendKey(key string, value float64) {
	if _, ok := s.byKey[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.byKey[key] = append(s.byKey[key], value)
}

func (s *Series) deleteKey(key string) {
	delete(s.byKey, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
}

// Group is the set of metrics that feed one chart group.
type Group struct {
	Name    string
	metrics []string
	series  map[string]*Series
}

// Metrics returns the metric names of the group in configuration order.
func (g *Group) Metrics() []string {
	return slices.Clone(g.metrics)
}

// Series returns the series of a metric, or nil.
func (g *Group) Series(metric string) *Series {
	return g.series[metric]
}

// Store accumulates every configured series plus the raw timeline during the extraction pass.
type Store struct {
	groups      []*Group
	byName      map[string]*Group
	rawTimeline []string
}

// NewStore creates an empty store with one series per configured metric, groups ordered by first
// appearance in the configuration.
func NewStore(cfg *Config) *Store {
	st := &Store{byName: make(map[string]*Group)}
	for _, section := range cfg.Sections {
		for _, metric := range section.Metrics {
			group, ok := st.byName[metric.Group]
			if !ok {
				group = &Group{Name: metric.Group, series: make(map[string]*Series)}
				st.byName[metric.Group] = group
				st.groups = append(st.groups, group)
			}
			if _, ok := group.series[metric.Name]; !ok {
				group.metrics = append(group.metrics, metric.Name)
				group.series[metric.Name] = newSeries(metric.Kind)
			}
		}
	}
	return st
}

// Groups returns the group names in configuration order.
func (st *Store) Groups() []string {
	names := make([]string, 0, len(st.groups))
	for _, g := range st.groups {
		names = append(names, g.Name)
	}
	return names
}

// Group returns the named group, or nil.
func (st *Store) Group(name string) *Group {
	return st.byName[name]
}

// Series returns the series of a metric in a group, or nil.
func (st *Store) Series(group, metric string) *Series {
	if g := st.byName[group]; g != nil {
		return g.series[metric]
	}
	return nil
}

// RawTimeline returns the timestamp tokens collected from the timeline source.
func (st *Store) RawTimeline() []string {
	return slices.Clone(st.rawTimeline)
}

func (st *Store) appendTimestamp(raw string) {
	st.rawTimeline = append(st.rawTimeline, raw)
}
