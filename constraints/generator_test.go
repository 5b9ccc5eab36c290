// SPDX-License-Identifier: MIT
package constraints_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FPozo/tsnsched/constraints"
	"github.com/FPozo/tsnsched/network"
	"github.com/FPozo/tsnsched/solver"
	"github.com/FPozo/tsnsched/solver/memsolver"
)

func link(id int, speedMBps float64) *network.Link {
	return &network.Link{ID: id, Medium: network.Wired, SpeedMBps: speedMBps}
}

func buildAndInit(t *testing.T, n *network.Network) {
	t.Helper()
	require.NoError(t, n.Validate())
	require.NoError(t, network.InitializeNetwork(n))
}

// TestGenerate_SingleFrameIsSatisfiable checks that (R) alone, for a
// single-hop single-instance frame, is satisfiable within the declared
// window.
func TestGenerate_SingleFrameIsSatisfiable(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(link(0, 100)))
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000
	buildAndInit(t, n)

	b := memsolver.New()
	require.NoError(t, constraints.Generate(n, b, constraints.Options{}))
	sat, err := b.CheckSAT(context.Background())
	require.NoError(t, err)
	assert.True(t, sat)

	v, ok, err := b.Value(constraints.VarName(0, 0, 0, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, int64(1))
	assert.LessOrEqual(t, v, int64(900))
}

// TestGenerate_HonorStartingBound checks spec_full §4's opt-in behaviour:
// with the option on, the base instance of the first-hop offset is bounded
// below by the frame's Starting value.
func TestGenerate_HonorStartingBound(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(link(0, 100)))
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Starting: 500, Paths: []network.Path{{0}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000
	buildAndInit(t, n)

	b := memsolver.New()
	require.NoError(t, constraints.Generate(n, b, constraints.Options{HonorStartingBound: true}))
	sat, err := b.CheckSAT(context.Background())
	require.NoError(t, err)
	require.True(t, sat)

	v, _, err := b.Value(constraints.VarName(0, 0, 0, 0))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, int64(500))
}

// TestGenerate_ContentionMakesSharedLinkUnsatWhenWindowTooNarrow forces
// two frames through the same link with a window too narrow to fit both
// non-overlapping, checking (C) actually rules out overlap rather than
// merely widening the window.
func TestGenerate_ContentionMakesSharedLinkUnsatWhenWindowTooNarrow(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(link(0, 100)))
	// T = 100ns each; deadline window [1,120] leaves only 20ns of slack,
	// not enough room for both 100ns transmissions to avoid each other.
	f1 := &network.Frame{ID: 0, Period: 1000, Deadline: 120, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0}}}
	f2 := &network.Frame{ID: 1, Period: 1000, Deadline: 120, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0}}}
	require.NoError(t, n.AddFrame(f1))
	require.NoError(t, n.AddFrame(f2))
	n.Hyperperiod = 1000
	buildAndInit(t, n)

	b := memsolver.New()
	require.NoError(t, constraints.Generate(n, b, constraints.Options{}))
	sat, err := b.CheckSAT(context.Background())
	require.NoError(t, err)
	assert.False(t, sat)
}

// TestGenerate_TimeBetweenFramesWidensContentionGap covers spec_full §4's
// supplemented TimeBetweenFrames field: a positive gap widens the minimum
// separation the (C) disjunction requires.
func TestGenerate_TimeBetweenFramesWidensContentionGap(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(link(0, 100)))
	f1 := &network.Frame{ID: 0, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0}}}
	f2 := &network.Frame{ID: 1, Period: 1000, Deadline: 1000, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0}}}
	require.NoError(t, n.AddFrame(f1))
	require.NoError(t, n.AddFrame(f2))
	n.Hyperperiod = 1000
	n.TimeBetweenFrames = 50
	buildAndInit(t, n)

	b := memsolver.New()
	require.NoError(t, constraints.Generate(n, b, constraints.Options{}))
	sat, err := b.CheckSAT(context.Background())
	require.NoError(t, err)
	require.True(t, sat)

	v1, _, _ := b.Value(constraints.VarName(0, 0, 0, 0))
	v2, _, _ := b.Value(constraints.VarName(1, 0, 0, 0))
	gap := v1 - v2
	if gap < 0 {
		gap = -gap
	}
	assert.GreaterOrEqual(t, gap, int64(150)) // T + TimeBetweenFrames
}

// TestGenerate_PathOrderRejectsTooTightHopWindow covers (O): a two-hop
// path whose deadline window cannot accommodate the hop-delay lower bound
// is correctly found unsatisfiable.
func TestGenerate_PathOrderRejectsTooTightHopWindow(t *testing.T) {
	n := network.NewNetwork()
	require.NoError(t, n.AddLink(link(0, 100)))
	require.NoError(t, n.AddLink(link(1, 100)))
	f := &network.Frame{ID: 0, Period: 1000, Deadline: 150, EndToEnd: 1000, Size: 10, Paths: []network.Path{{0, 1}}}
	require.NoError(t, n.AddFrame(f))
	n.Hyperperiod = 1000
	n.HopDelay = 50
	buildAndInit(t, n)

	b := memsolver.New()
	require.NoError(t, constraints.Generate(n, b, constraints.Options{}))
	sat, err := b.CheckSAT(context.Background())
	require.NoError(t, err)
	assert.False(t, sat)
}

// TestGenerate_DeterministicVariableNaming checks spec §4.2's naming
// scheme is exactly reproduced.
func TestGenerate_DeterministicVariableNaming(t *testing.T) {
	assert.Equal(t, constraints.VarName(3, 2, 1, 7), solver.Var("O_3_2_1_7"))
}
