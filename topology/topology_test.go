// SPDX-License-Identifier: MIT
package topology_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FPozo/tsnsched/network"
	"github.com/FPozo/tsnsched/topology"
)

func wired(id int, speedMBps float64) *network.Link {
	return &network.Link{ID: id, Medium: network.Wired, SpeedMBps: speedMBps}
}

func TestValidate_AcceptsWellFormedChain(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wired(0, 100)))
	require.NoError(t, n.AddLink(wired(1, 100)))
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0, 1}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000
	n.HopDelay = 10
	require.NoError(t, n.Validate())
	require.NoError(t, network.InitializeNetwork(n))

	assert.NoError(t, topology.Validate(n))
}

func TestValidate_RejectsEndToEndBelowPropagationFloor(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wired(0, 100)))
	require.NoError(t, n.AddLink(wired(1, 100)))
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 150, EndToEnd: 150, Size: 10, Paths: []network.Path{{0, 1}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000
	n.HopDelay = 50
	require.NoError(t, n.Validate())
	require.NoError(t, network.InitializeNetwork(n))

	err := topology.Validate(n)
	assert.True(t, errors.Is(err, topology.ErrEndToEndUnreachable))
}

func TestValidate_RejectsCyclicRelayTopology(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wired(0, 100)))
	require.NoError(t, n.AddLink(wired(1, 100)))
	f1 := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0, 1}}}
	f2 := &network.Frame{ID: 1, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{1, 0}}}
	require.NoError(t, n.AddFrame(f1))
	require.NoError(t, n.AddFrame(f2))
	n.Hyperperiod = 1000
	require.NoError(t, n.Validate())
	require.NoError(t, network.InitializeNetwork(n))

	err := topology.Validate(n)
	assert.True(t, errors.Is(err, topology.ErrCyclicTopology))
}

func TestDiameter_SingleHopChain(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wired(0, 100)))
	require.NoError(t, n.AddLink(wired(1, 100)))
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0, 1}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000
	require.NoError(t, n.Validate())
	require.NoError(t, network.InitializeNetwork(n))

	d, err := topology.Diameter(n)
	require.NoError(t, err)
	assert.Equal(t, 1, d)
}
