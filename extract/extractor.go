// SPDX-License-Identifier: MIT
// Package extract is the Schedule Extractor (spec §4.4): on SAT it reads
// every declared variable's value back from the solver.Backend's model
// into the matching network.Offset.Start entry.
package extract

import (
	"fmt"

	"github.com/FPozo/tsnsched/constraints"
	"github.com/FPozo/tsnsched/network"
	"github.com/FPozo/tsnsched/solver"
)

// ErrMissingVariable is returned when the backend's model has no entry
// for a variable Generate declared; always a bug in Generate or the
// backend (spec §7, kind Extraction).
var ErrMissingVariable = fmt.Errorf("extract: backend model lacks declared variable")

// Extract fills the Start table of every Offset of every frame in
// n.AllFrames() from b's model. Must be called only after b.CheckSAT
// returned (true, nil).
func Extract(n *network.Network, b solver.Backend) error {
	for _, f := range n.AllFrames() {
		for _, o := range f.Offsets() {
			for i := 0; i < o.I; i++ {
				for r := 0; r <= o.R; r++ {
					name := constraints.VarName(f.ID, i, r, o.LinkID)
					val, ok, err := b.Value(name)
					if err != nil {
						return fmt.Errorf("extract: frame %d link %d i=%d r=%d: %w", f.ID, o.LinkID, i, r, err)
					}
					if !ok {
						return fmt.Errorf("%w: %s", ErrMissingVariable, name)
					}
					o.Start[i][r] = val
				}
			}
		}
	}
	return nil
}
