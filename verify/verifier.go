// SPDX-License-Identifier: MIT
// Package verify is the Correctness Verifier (spec §4.5): an independent
// re-check of every invariant on the filled Network Model. It never
// touches the solver.Backend; it reads network.Offset.Start tables only.
package verify

import (
	"errors"
	"fmt"

	"github.com/FPozo/tsnsched/network"
)

// Sentinel errors, one per invariant family (spec §4.5, §8).
var (
	ErrDeadline    = errors.New("verify: offset start+duration exceeds deadline")
	ErrPeriodicity = errors.New("verify: instance spacing does not equal the period")
	ErrContention  = errors.New("verify: two frames occupy a shared link at overlapping times")
	ErrPathOrder   = errors.New("verify: adjacent path offsets violate hop ordering")
	ErrEndToEnd    = errors.New("verify: path exceeds its end-to-end delay bound")
)

// Verify re-checks n's filled Offset.Start tables against every
// invariant spec §4.5 names, in that section's order. It returns the
// first violation found, wrapped with enough context to locate it.
func Verify(n *network.Network) error {
	frames := n.AllFrames()
	if err := checkDeadline(frames); err != nil {
		return err
	}
	if err := checkPeriodicity(frames); err != nil {
		return err
	}
	if err := checkContention(n, frames); err != nil {
		return err
	}
	if err := checkPathOrder(frames, n.HopDelay); err != nil {
		return err
	}
	if err := checkEndToEnd(frames); err != nil {
		return err
	}
	return nil
}

// checkDeadline: for every Offset, x(o,0,0) + T(o) <= D(f).
func checkDeadline(frames []*network.Frame) error {
	for _, f := range frames {
		for _, o := range f.Offsets() {
			if o.Start[0][0]+o.T > f.Deadline {
				return fmt.Errorf("%w: frame %d link %d", ErrDeadline, f.ID, o.LinkID)
			}
		}
	}
	return nil
}

// checkPeriodicity: for every Offset and i >= 1, x(o,i,0) - x(o,i-1,0) == P(f).
func checkPeriodicity(frames []*network.Frame) error {
	for _, f := range frames {
		for _, o := range f.Offsets() {
			for i := 1; i < o.I; i++ {
				if o.Start[i][0]-o.Start[i-1][0] != f.Period {
					return fmt.Errorf("%w: frame %d link %d instance %d", ErrPeriodicity, f.ID, o.LinkID, i)
				}
			}
		}
	}
	return nil
}

// checkContention: for every pair of frames (f1,f2) with f1.id < f2.id
// sharing a link, every pair of instances' closed intervals
// [x, x+T-1] must be disjoint.
func checkContention(n *network.Network, frames []*network.Frame) error {
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
				if err := checkOffsetPairDisjoint(f1, f2, o1, o2); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkOffsetPairDisjoint(f1, f2 *network.Frame, o1, o2 *network.Offset) error {
	for i1 := 0; i1 < o1.I; i1++ {
		for r1 := 0; r1 <= o1.R; r1++ {
			s1 := o1.Start[i1][r1]
			e1 := s1 + o1.T - 1
			for i2 := 0; i2 < o2.I; i2++ {
				for r2 := 0; r2 <= o2.R; r2++ {
					s2 := o2.Start[i2][r2]
					e2 := s2 + o2.T - 1
					if s1 <= e2 && s2 <= e1 {
						return fmt.Errorf("%w: frames %d/%d link %d", ErrContention, f1.ID, f2.ID, o1.LinkID)
					}
				}
			}
		}
	}
	return nil
}

// checkPathOrder: for every path and adjacent (o_k,o_{k+1}),
// x(o_{k+1},0,0) >= x(o_k,0,0) + delta (the looser bound spec §4.5 uses
// on purpose: a mismatch against the generator's tighter +T+delta+1
// signals a Generator or Extractor bug).
func checkPathOrder(frames []*network.Frame, hopDelay int64) error {
	for _, f := range frames {
		for pathIdx, p := range f.Paths {
			for k := 0; k+1 < len(p); k++ {
				ok, _ := f.OffsetByLink(p[k])
				ok1, _ := f.OffsetByLink(p[k+1])
				if ok1.Start[0][0] < ok.Start[0][0]+hopDelay {
					return fmt.Errorf("%w: frame %d path %d pos %d", ErrPathOrder, f.ID, pathIdx, k)
				}
			}
		}
	}
	return nil
}

// checkEndToEnd: for every path, x(o_last,0,0)+T(o_last)-x(o_first,0,0) <= E(f).
func checkEndToEnd(frames []*network.Frame) error {
	for _, f := range frames {
		for pathIdx, p := range f.Paths {
			if len(p) == 0 {
				continue
			}
			first, _ := f.OffsetByLink(p[0])
			last, _ := f.OffsetByLink(p[len(p)-1])
			elapsed := last.Start[0][0] + last.T - first.Start[0][0]
			if elapsed > f.EndToEnd {
				return fmt.Errorf("%w: frame %d path %d", ErrEndToEnd, f.ID, pathIdx)
			}
		}
	}
	return nil
}
