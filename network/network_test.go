// SPDX-License-Identifier: MIT
package network_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FPozo/tsnsched/network"
)

func wiredLink(id int, speedMBps float64) *network.Link {
	return &network.Link{ID: id, Medium: network.Wired, SpeedMBps: speedMBps}
}

// TestAddFrame_OffsetsDeterministicOrder checks that Offsets are built in
// first-appearance order across Paths, de-duplicated by link id, exactly
// as spec.md §3's "per-frame hash from link id to Offset" is meant to
// behave, but backed by an ordered slice + a link-id-to-index map.
func TestAddFrame_OffsetsDeterministicOrder(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wiredLink(0, 100)))
	require.NoError(t, n.AddLink(wiredLink(1, 100)))
	require.NoError(t, n.AddLink(wiredLink(2, 100)))

	f := &network.Frame{
		ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10,
		Paths: []network.Path{{0, 1}, {0, 2}},
	}
	require.NoError(t, n.AddFrame(f))

	offsets := f.Offsets()
	require.Len(t, offsets, 3)
	assert.Equal(t, 0, offsets[0].LinkID)
	assert.Equal(t, 1, offsets[1].LinkID)
	assert.Equal(t, 2, offsets[2].LinkID)

	o, ok := f.OffsetByLink(1)
	require.True(t, ok)
	assert.Equal(t, 1, o.LinkID)
}

func TestAddFrame_RejectsUnknownLink(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wiredLink(0, 100)))

	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Paths: []network.Path{{0, 99}}}
	err := n.AddFrame(f)
	assert.True(t, errors.Is(err, network.ErrUnknownLink))
}

func TestAddFrame_RejectsBadDeadline(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wiredLink(0, 100)))

	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1500, EndToEnd: 1500, Paths: []network.Path{{0}}}
	err := n.AddFrame(f)
	assert.True(t, errors.Is(err, network.ErrBadDeadline))
}

func TestValidate_RejectsHyperperiodNotMultiple(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wiredLink(0, 100)))
	f := &network.Frame{ID: 0, Period: 300, Deadline: 300, EndToEnd: 300, Paths: []network.Path{{0}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000

	err := n.Validate()
	assert.True(t, errors.Is(err, network.ErrBadHyperperiod))
}

// TestInitializeNetwork_ComputesDurationAndInstances mirrors spec.md
// Scenario A: S=10 bytes at 100MB/s yields T=100ns, and H/P=1 instance.
func TestInitializeNetwork_ComputesDurationAndInstances(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wiredLink(0, 100)))
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000

	require.NoError(t, n.Validate())
	require.NoError(t, network.InitializeNetwork(n))

	o, ok := f.OffsetByLink(0)
	require.True(t, ok)
	assert.Equal(t, int64(100), o.T)
	assert.Equal(t, 1, o.I)
	assert.Equal(t, 0, o.R)
	require.Len(t, o.Start, 1)
	require.Len(t, o.Start[0], 1)
}

// TestInitializeNetwork_RejectsWindowTooSmall covers spec.md §8's
// boundary behaviour: a frame whose D - T < 1 must be rejected.
func TestInitializeNetwork_RejectsWindowTooSmall(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wiredLink(0, 1))) // slow link: huge T
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1, EndToEnd: 1, Size: 10, Paths: []network.Path{{0}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000

	require.NoError(t, n.Validate())
	err := network.InitializeNetwork(n)
	assert.True(t, errors.Is(err, network.ErrWindowTooSmall))
}

// TestInitializeNetwork_WirelessReplicas covers spec_full §4's
// supplemented Retransmissions field.
func TestInitializeNetwork_WirelessReplicas(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(&network.Link{ID: 0, Medium: network.Wireless, SpeedMBps: 100, Retransmissions: 2}))
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000

	require.NoError(t, n.Validate())
	require.NoError(t, network.InitializeNetwork(n))

	o, _ := f.OffsetByLink(0)
	assert.Equal(t, 2, o.R)
	assert.Len(t, o.Start[0], 3) // replicas 0,1,2
}

// TestInitializeNetwork_ProtocolFrameInjected covers spec.md Scenario F.
func TestInitializeNetwork_ProtocolFrameInjected(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(wiredLink(0, 100)))
	require.NoError(t, n.AddLink(wiredLink(1, 100)))
	n.Hyperperiod = 1000
	n.ProtocolPeriod = 500
	n.ProtocolTime = 100

	require.NoError(t, n.Validate())
	require.NoError(t, network.InitializeNetwork(n))

	pf := n.ProtocolFrame()
	require.NotNil(t, pf)
	assert.Len(t, pf.Paths, 2)
	o, ok := pf.OffsetByLink(0)
	require.True(t, ok)
	assert.Equal(t, int64(101), o.T)
	assert.Equal(t, 2, o.I) // 1000/500

	all := n.AllFrames()
	assert.Equal(t, pf, all[len(all)-1])
}
