// SPDX-License-Identifier: MIT
// Package constraints is the Constraint Generator (spec §4.3): it walks
// the network.Network and emits the five constraint families into a
// solver.Backend in the fixed order R, P, C, O, E (spec §4.6), with the
// deterministic ordering spec §5 requires: frame id, then path index,
// then link position, then instance, then replica.
package constraints

import (
	"fmt"
	"sort"

	"github.com/FPozo/tsnsched/network"
	"github.com/FPozo/tsnsched/solver"
)

// Options tunes generator behavior for a single Generate call.
type Options struct {
	// HonorStartingBound, when true, tightens the (R) family's lower
	// bound on a frame's first-hop Offset from "0 < x" to
	// "Starting <= x" (spec_full §4; default false preserves spec.md's
	// documented original behavior of ignoring Frame.Starting).
	HonorStartingBound bool
}

// VarName renders the spec §4.2 variable name for one (frame, instance,
// replica, link) tuple.
func VarName(frameID, instance, replica, linkID int) solver.Var {
	return solver.Var(fmt.Sprintf("O_%d_%d_%d_%d", frameID, instance, replica, linkID))
}

// Generate emits every constraint family for n into b, in the fixed
// order and deterministic traversal spec.md requires. b must already be
// initialized (InitializeNetwork must have run); every Offset of every
// frame returned by n.AllFrames must have its T, I and R already
// computed and its Start table allocated.
func Generate(n *network.Network, b solver.Backend, opts Options) error {
	frames := append([]*network.Frame(nil), n.AllFrames()...)
	sort.SliceStable(frames, func(i, j int) bool { return frames[i].ID < frames[j].ID })

	if err := declareVariables(frames, b); err != nil {
		return err
	}
	if err := rangeFamily(frames, b, opts); err != nil {
		return err
	}
	if err := periodicityFamily(frames, b); err != nil {
		return err
	}
	if err := contentionFreeFamily(n, frames, b); err != nil {
		return err
	}
	if err := pathOrderFamily(frames, b, n.HopDelay); err != nil {
		return err
	}
	if err := endToEndFamily(frames, b); err != nil {
		return err
	}
	return nil
}

// declareVariables declares one variable per (frame, instance, replica,
// link) tuple, in frame id, then offset, then instance, then replica
// order.
func declareVariables(frames []*network.Frame, b solver.Backend) error {
	for _, f := range frames {
		for _, o := range f.Offsets() {
			for i := 0; i < o.I; i++ {
				for r := 0; r <= o.R; r++ {
					if err := b.DeclareInt(VarName(f.ID, i, r, o.LinkID)); err != nil {
						return fmt.Errorf("constraints: DeclareInt %d/%d/%d/%d: %w", f.ID, i, r, o.LinkID, err)
					}
				}
			}
		}
	}
	return nil
}

// rangeFamily emits (R): for every Offset, 0 < x(o,0,0) <= D(f) - T(o).
func rangeFamily(frames []*network.Frame, b solver.Backend, opts Options) error {
	for _, f := range frames {
		for idx, o := range f.Offsets() {
			v := VarName(f.ID, 0, 0, o.LinkID)
			lower := int64(0)
			if opts.HonorStartingBound && idx == 0 && isFirstHop(f, o.LinkID) {
				lower = f.Starting
				if err := b.Assert(solver.AtomVar(v, solver.GE, lower)); err != nil {
					return fmt.Errorf("constraints: range lower bound frame %d link %d: %w", f.ID, o.LinkID, err)
				}
			} else if err := b.Assert(solver.AtomVar(v, solver.GT, 0)); err != nil {
				return fmt.Errorf("constraints: range lower bound frame %d link %d: %w", f.ID, o.LinkID, err)
			}
			upper := f.Deadline - o.T
			if err := b.Assert(solver.AtomVar(v, solver.LE, upper)); err != nil {
				return fmt.Errorf("constraints: range upper bound frame %d link %d: %w", f.ID, o.LinkID, err)
			}
		}
	}
	return nil
}

// isFirstHop reports whether linkID is the sender's egress link on the
// frame's first declared path.
func isFirstHop(f *network.Frame, linkID int) bool {
	return len(f.Paths) > 0 && len(f.Paths[0]) > 0 && f.Paths[0][0] == linkID
}

// periodicityFamily emits (P): for every (i,r) != (0,0),
// x(o,i,r) = x(o,0,0) + i*P(f).
func periodicityFamily(frames []*network.Frame, b solver.Backend) error {
	for _, f := range frames {
		for _, o := range f.Offsets() {
			base := VarName(f.ID, 0, 0, o.LinkID)
			for i := 0; i < o.I; i++ {
				for r := 0; r <= o.R; r++ {
					if i == 0 && r == 0 {
						continue
					}
					v := VarName(f.ID, i, r, o.LinkID)
					atom := solver.AtomDiff(v, base, solver.EQ, int64(i)*f.Period)
					if err := b.Assert(atom); err != nil {
						return fmt.Errorf("constraints: periodicity frame %d link %d i=%d r=%d: %w", f.ID, o.LinkID, i, r, err)
					}
				}
			}
		}
	}
	return nil
}

// sharedLinkOffset pairs the two frames' Offsets that schedule on the
// same link, for the contention-free family.
type sharedLinkOffset struct {
	f1, f2 *network.Frame
	o1, o2 *network.Offset
}

// contentionFreeFamily emits (C): for every shared-link offset pair from
// distinct frames with f1.id < f2.id, for every pair of instance windows
// that can possibly overlap, assert the mutual-exclusion disjunction
// widened by n.TimeBetweenFrames (spec_full §4).
func contentionFreeFamily(n *network.Network, frames []*network.Frame, b solver.Backend) error {
	gap := n.TimeBetweenFrames
	for _, pair := range sharedLinkPairs(frames) {
		f1, f2, o1, o2 := pair.f1, pair.f2, pair.o1, pair.o2
		for i1 := 0; i1 < o1.I; i1++ {
			win1lo, win1hi := instanceWindow(i1, f1.Period)
			for i2 := 0; i2 < o2.I; i2++ {
				win2lo, win2hi := instanceWindow(i2, f2.Period)
				if !windowsOverlap(win1lo, win1hi, win2lo, win2hi) {
					continue
				}
				for r1 := 0; r1 <= o1.R; r1++ {
					v1 := VarName(f1.ID, i1, r1, o1.LinkID)
					for r2 := 0; r2 <= o2.R; r2++ {
						v2 := VarName(f2.ID, i2, r2, o2.LinkID)
						left := solver.AtomDiff(v1, v2, solver.LE, -(o1.T + gap))
						right := solver.AtomDiff(v2, v1, solver.LE, -(o2.T + gap))
						if err := b.AssertOr(left, right); err != nil {
							return fmt.Errorf("constraints: contention frames %d/%d link %d: %w", f1.ID, f2.ID, o1.LinkID, err)
						}
					}
				}
			}
		}
	}
	return nil
}

// sharedLinkPairs enumerates (f1,f2,o1,o2) for every ordered pair of
// distinct frames with f1.id < f2.id sharing a link, in frame-id order.
func sharedLinkPairs(frames []*network.Frame) []sharedLinkOffset {
	var pairs []sharedLinkOffset
	for i := 0; i < len(frames); i++ {
		for j := i + 1; j < len(frames); j++ {
			f1, f2 := frames[i], frames[j]
			if f2.ID < f1.ID {
				f1, f2 = f2, f1
			}
			for _, o1 := range f1.Offsets() {
				o2, ok := f2.OffsetByLink(o1.LinkID)
				if !ok {
					continue
				}
				pairs = append(pairs, sharedLinkOffset{f1: f1, f2: f2, o1: o1, o2: o2})
			}
		}
	}
	return pairs
}

// instanceWindow returns the closed window [i*P+1, (i+1)*P] spec.md's
// possibility filter uses.
func instanceWindow(i int, period int64) (lo, hi int64) {
	lo = int64(i)*period + 1
	hi = int64(i+1) * period
	return
}

// windowsOverlap implements spec.md's filter: min1 <= max2 && min2 <= max1.
func windowsOverlap(lo1, hi1, lo2, hi2 int64) bool {
	return lo1 <= hi2 && lo2 <= hi1
}

// pathOrderFamily emits (O): for every path, for each adjacent Offset
// pair, x(o_{k+1},0,0) >= x(o_k,0,0) + T(o_k) + delta + 1.
func pathOrderFamily(frames []*network.Frame, b solver.Backend, hopDelay int64) error {
	for _, f := range frames {
		for pathIdx, p := range f.Paths {
			for k := 0; k+1 < len(p); k++ {
				ok, found := f.OffsetByLink(p[k])
				if !found {
					return fmt.Errorf("constraints: path order frame %d path %d: %w", f.ID, pathIdx, network.ErrUnknownLink)
				}
				ok1, found := f.OffsetByLink(p[k+1])
				if !found {
					return fmt.Errorf("constraints: path order frame %d path %d: %w", f.ID, pathIdx, network.ErrUnknownLink)
				}
				vk := VarName(f.ID, 0, 0, ok.LinkID)
				vk1 := VarName(f.ID, 0, 0, ok1.LinkID)
				bound := ok.T + hopDelay + 1
				if err := b.Assert(solver.AtomDiff(vk1, vk, solver.GE, bound)); err != nil {
					return fmt.Errorf("constraints: path order frame %d path %d pos %d: %w", f.ID, pathIdx, k, err)
				}
			}
		}
	}
	return nil
}

// endToEndFamily emits (E): for every path,
// x(o_last,0,0) <= x(o_first,0,0) + E(f) - T(o_last).
func endToEndFamily(frames []*network.Frame, b solver.Backend) error {
	for _, f := range frames {
		for pathIdx, p := range f.Paths {
			if len(p) == 0 {
				continue
			}
			first, _ := f.OffsetByLink(p[0])
			last, _ := f.OffsetByLink(p[len(p)-1])
			vFirst := VarName(f.ID, 0, 0, first.LinkID)
			vLast := VarName(f.ID, 0, 0, last.LinkID)
			bound := f.EndToEnd - last.T
			if err := b.Assert(solver.AtomDiff(vLast, vFirst, solver.LE, bound)); err != nil {
				return fmt.Errorf("constraints: end-to-end frame %d path %d: %w", f.ID, pathIdx, err)
			}
		}
	}
	return nil
}
