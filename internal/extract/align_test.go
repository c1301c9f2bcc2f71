// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrune(t *testing.T) {
	cfg := rowConfig()
	st := NewStore(cfg)
	util := st.Series("CPU", "%util")
	for _, v := range []float64{1, 2, 3, 4} {
		util.append(v)
	}
	user := st.Series("CPU", "%user")
	user.append(1)
	net := st.Series("network", "rxkB/s")
	for _, v := range []float64{5, 6, 7} {
		net.appendKey("eth0", v)
		net.appendKey("lo", 0)
	}
	net.appendKey("eth1", 0)

	report := st.Prune(2)

	assert.Equal(t, []float64{1, 2}, util.Values())
	// shorter series are left alone
	assert.Equal(t, []float64{1}, user.Values())
	assert.Equal(t, []string{"eth0"}, net.Keys())
	eth0, _ := net.KeyValues("eth0")
	assert.Equal(t, []float64{5, 6}, eth0)
	_, ok := net.KeyValues("lo")
	assert.False(t, ok)
	assert.Equal(t, 3, report.Truncated)
	assert.Equal(t, []RemovedKey{
		{Group: "network", Metric: "rxkB/s", Key: "lo"},
		{Group: "network", Metric: "rxkB/s", Key: "eth1"},
	}, report.Removed)
}

func TestPruneEmptyTimeline(t *testing.T) {
	cfg := rowConfig()
	st := NewStore(cfg)
	st.Series("CPU", "%util").append(3)
	st.Series("network", "rxkB/s").appendKey("eth0", 1)
	st.Prune(0)
	assert.Empty(t, st.Series("CPU", "%util").Values())
	values, ok := st.Series("network", "rxkB/s").KeyValues("eth0")
	assert.True(t, ok)
	assert.Empty(t, values)
}

func TestNewStoreOrder(t *testing.T) {
	st := NewStore(rowConfig())
	assert.Equal(t, []string{"CPU", "network"}, st.Groups())
	assert.Equal(t, []string{"%util", "%user"}, st.Group("CPU").Metrics())
	assert.Nil(t, st.Group("memory"))
	assert.Nil(t, st.Series("memory", "%memused"))
}
