// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package chart

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sargraph/internal/extract"
)

const testLog = `Linux 5.15.0 (testhost)     01/02/2024      _x86_64_        (2 CPU)

10:00:01        CPU     %user     %nice   %system   %iowait    %steal     %idle
10:10:01        all      2.00      0.00      1.00      0.50      0.00     96.50
10:20:01        all     10.00      0.00      2.00      0.00      0.00     88.00
10:30:01        all     20.00      0.00      3.00      1.00      0.00     76.00

10:00:01    kbmemfree kbmemused  %memused kbbuffers  kbcached  kbcommit   %commit
10:10:01         7000      1000     12.50        10       100      2000     25.00
10:20:01         6000      2000     25.00        10       100      2000     25.00
10:30:01         5000      3000     37.50        10       100      2000     25.00
Average:         6000      2000     25.00        10       100      2000     25.00

10:00:01          DEV       tps  rd_sec/s  wr_sec/s  avgrq-sz  avgqu-sz     await     svctm     %util
10:10:01          sda      5.00     10.00     20.00      8.00      0.10      1.50      0.50      2.00
10:10:01          sdb      0.00      0.00      0.00      0.00      0.00      0.00      0.00      0.00
10:20:01          sda      6.00     12.00     24.00      8.00      0.20      1.60      0.60      3.00
10:20:01          sdb      0.00      0.00      0.00      0.00      0.00      0.00      0.00      0.00
10:30:01          sda      7.00     14.00     28.00      8.00      0.30      1.70      0.70      4.00
10:30:01          sdb      0.00      0.00      0.00      0.00      0.00      0.00      0.00      0.00
`

const testConfig = `
sections:
  - trigger: "%idle"
    metrics:
      - {name: "%util", group: CPU, column: 7, filter: all, transform: sub_from_100}
  - trigger: "%memused"
    metrics:
      - {name: "%memused", group: memory, column: 3, timeline: true, time_column: 0}
      - {name: "%commit", group: memory, column: 7}
  - trigger: await
    metrics:
      - {name: await, kind: split, group: disk, column: 7, split_column: 1}
      - {name: svctm, kind: split, group: disk, column: 8, split_column: 1}
charts:
  - name: CPU
    title: CPU utilization
    x_label: "Test duration, h:mm"
    kind: single
    lines:
      - {label: CPU utilization, units: "%", color: "#1D7373", axis: primary, source: CPU, metric: "%util"}
  - name: memory
    title: Memory utilization
    kind: single
    lines:
      - {label: Memory, units: "%", color: "#1D7373", axis: primary, source: memory, metric: "%memused"}
      - {label: Commit, units: "%", color: "#86B32D", axis: secondary, source: memory, metric: "%commit"}
  - name: disk_read_write
    title: Average read/write time
    kind: split
    lines:
      - {label: await, units: ms, color: "#1D7373", source: disk, metric: await}
      - {label: svctm, units: ms, color: "#86B32D", source: disk, metric: svctm}
`

func loadTestConfigs(t *testing.T) (*extract.Config, *Config) {
	ec, err := extract.ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	rc, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	require.NoError(t, rc.Validate(ec))
	return ec, rc
}

func TestBuildEndToEnd(t *testing.T) {
	ec, rc := loadTestConfigs(t)
	res, err := extract.Extract(strings.NewReader(testLog), ec)
	require.NoError(t, err)

	charts := Build(res, rc, "0:10")
	require.Len(t, charts, 3)

	assert.Equal(t, "CPU", charts[0].ID)
	assert.Equal(t, "CPU utilization", charts[0].Title)
	assert.Equal(t, "memory", charts[1].ID)
	assert.True(t, charts[1].HasSecondaryAxis())
	assert.False(t, charts[0].HasSecondaryAxis())

	// only the device with activity gets a chart
	disk := charts[2]
	assert.Equal(t, "disk_read_write-sda", disk.ID)
	assert.Equal(t, "sda", disk.Key)
	assert.Equal(t, "Average read/write time sda", disk.Title)
	require.Len(t, disk.Lines, 2)
	assert.Equal(t, AxisPrimary, disk.Lines[0].Axis)
	assert.Equal(t, []float64{1.5, 1.6, 1.7}, disk.Lines[0].Values)
	assert.Equal(t, []float64{0.5, 0.6, 0.7}, disk.Lines[1].Values)

	for _, c := range charts {
		assert.Equal(t, []string{"0:00", "0:10", "0:20"}, c.Timeline)
		assert.Equal(t, 1, c.MarkerIndex())
		for _, line := range c.Lines {
			assert.Len(t, line.Values, len(c.Timeline), "chart %s line %s", c.ID, line.Label)
		}
	}
}

func TestBuildOmitsShortLines(t *testing.T) {
	ec, rc := loadTestConfigs(t)
	// the CPU section loses its last sample, the timeline keeps three
	log := strings.Replace(testLog, "10:30:01        all     20.00      0.00      3.00      1.00      0.00     76.00\n", "", 1)
	res, err := extract.Extract(strings.NewReader(log), ec)
	require.NoError(t, err)
	charts := Build(res, rc, "")
	for _, c := range charts {
		assert.NotEqual(t, "CPU", c.ID)
		assert.Equal(t, -1, c.MarkerIndex())
	}
	assert.Len(t, charts, 2)
}

func TestBuildSplitKeyUnion(t *testing.T) {
	ec, rc := loadTestConfigs(t)
	// sdc reports a single sample: its await key is all zero and removed, its svctm key survives
	log := testLog + "10:10:01 sdc 0 0 0 0 0 0.00 1.00 0\n"
	res, err := extract.Extract(strings.NewReader(log), ec)
	require.NoError(t, err)
	charts := Build(res, rc, "")
	var ids []string
	for _, c := range charts {
		ids = append(ids, c.ID)
	}
	// the sdc svctm line is shorter than the timeline, so sdc has no chart
	assert.Equal(t, []string{"CPU", "memory", "disk_read_write-sda"}, ids)
}

func TestBuildUniqueIDs(t *testing.T) {
	ec, rc := loadTestConfigs(t)
	// both device names sanitize to disk_read_write-sd_c
	log := testLog +
		"10:10:01 sd.c 1 1 1 1 1 1.00 1.00 1\n" +
		"10:10:01 sd_c 1 1 1 1 1 2.00 2.00 1\n" +
		"10:20:01 sd.c 1 1 1 1 1 1.00 1.00 1\n" +
		"10:20:01 sd_c 1 1 1 1 1 2.00 2.00 1\n" +
		"10:30:01 sd.c 1 1 1 1 1 1.00 1.00 1\n" +
		"10:30:01 sd_c 1 1 1 1 1 2.00 2.00 1\n"
	res, err := extract.Extract(strings.NewReader(log), ec)
	require.NoError(t, err)
	charts := Build(res, rc, "")
	var ids []string
	for _, c := range charts {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"CPU", "memory", "disk_read_write-sda", "disk_read_write-sd_c", "disk_read_write-sd_c_2"}, ids)
	assert.Equal(t, "sd.c", charts[3].Key)
	assert.Equal(t, "sd_c", charts[4].Key)
	assert.Equal(t, []float64{2, 2, 2}, charts[4].Lines[0].Values)
}

func TestParseConfigUnknownKey(t *testing.T) {
	data := strings.Replace(testConfig, "{label: Memory,", "{lable: Memory,", 1)
	_, err := ParseConfig([]byte(data))
	var cfgErr *extract.ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected a *extract.ConfigError, got %v", err)
	assert.Contains(t, err.Error(), "lable")
}

func TestValidateReferences(t *testing.T) {
	ec, err := extract.ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown metric", mutate: func(c *Config) { c.Charts[0].Lines[0].Metric = "%steal" }, wantErr: "not extracted"},
		{name: "unknown source", mutate: func(c *Config) { c.Charts[2].Lines[0].Source = "disks" }, wantErr: "not extracted"},
		{name: "kind mismatch", mutate: func(c *Config) { c.Charts[2].Kind = extract.KindSingle }, wantErr: "is single but disk/await is split"},
		{name: "unknown axis", mutate: func(c *Config) { c.Charts[0].Lines[0].Axis = "left" }, wantErr: "unknown axis"},
		{name: "secondary only", mutate: func(c *Config) { c.Charts[0].Lines[0].Axis = AxisSecondary }, wantErr: "primary axis"},
		{name: "duplicate chart", mutate: func(c *Config) { c.Charts[1].Name = "CPU" }, wantErr: "duplicate chart"},
		{name: "no lines", mutate: func(c *Config) { c.Charts[1].Lines = nil }, wantErr: "has no lines"},
		{name: "no charts", mutate: func(c *Config) { c.Charts = nil }, wantErr: "no charts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := ParseConfig([]byte(testConfig))
			require.NoError(t, err)
			tt.mutate(rc)
			err = rc.Validate(ec)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *extract.ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected a *extract.ConfigError, got %v", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChartID(t *testing.T) {
	assert.Equal(t, "network-eth0", chartID("network", "eth0"))
	assert.Equal(t, "cpu_util_by_disk-dev8-0", chartID("cpu_util_by_disk", "dev8-0"))
	assert.Equal(t, "CPU", chartID("CPU", ""))
	assert.Equal(t, "disk-nvme0n1p1", chartID("disk", "nvme0n1p1"))
	assert.Equal(t, "x-a_b", chartID("x", "a/b"))
}
