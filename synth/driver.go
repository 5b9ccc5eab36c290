// SPDX-License-Identifier: MIT
// Package synth is the Synthesizer Driver (spec §4.6): a strictly
// sequential state machine that owns the solver.Backend for its lifetime
// and drives Load -> Initialise -> Encode -> Solve -> Extract -> Verify.
// No state is revisited; on failure the Driver stops and returns a
// *schederr.Error naming which stage and invariant failed.
package synth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/FPozo/tsnsched/constraints"
	"github.com/FPozo/tsnsched/extract"
	"github.com/FPozo/tsnsched/network"
	"github.com/FPozo/tsnsched/schederr"
	"github.com/FPozo/tsnsched/solver"
	"github.com/FPozo/tsnsched/topology"
	"github.com/FPozo/tsnsched/verify"
)

// State names one point in the Driver's state machine (spec §4.6).
type State int

const (
	StateLoaded State = iota
	StateInitialised
	StateEncoded
	StateSolvedSAT
	StateSolvedUNSAT
	StateExtracted
	StateVerified
)

// String renders State for log fields and diagnostics.
func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateInitialised:
		return "initialised"
	case StateEncoded:
		return "encoded"
	case StateSolvedSAT:
		return "solved_sat"
	case StateSolvedUNSAT:
		return "solved_unsat"
	case StateExtracted:
		return "extracted"
	case StateVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// Driver orchestrates one synthesis run. A Driver is single-use: create
// a new one per run. It is not safe for concurrent use (spec §5: the
// backend context is exclusively owned by the Driver for its lifetime).
type Driver struct {
	net     *network.Network
	backend solver.Backend
	opts    constraints.Options
	log     zerolog.Logger
	state   State
}

// NewDriver returns a Driver in state Loaded, wrapping an
// already-ingested Network (xmlio.Load or an equivalent caller) and an
// unused solver.Backend the Driver will own until Close. The logger is
// stored as given, with no substitution.
func NewDriver(n *network.Network, b solver.Backend, opts constraints.Options, logger zerolog.Logger) *Driver {
	return &Driver{net: n, backend: b, opts: opts, log: logger, state: StateLoaded}
}

// State returns the Driver's current state.
func (d *Driver) State() State { return d.state }

// Close releases the Driver's backend. Safe to call after any outcome,
// including mid-run failure (spec §5: released on Driver exit, all paths).
func (d *Driver) Close() error {
	return d.backend.Close()
}

// Run executes every transition in order and returns the populated,
// verified Network on success. On failure it returns a *schederr.Error
// identifying the stage; the caller should treat any error as fatal for
// this run (spec §7: no partial-success mode).
func (d *Driver) Run(ctx context.Context) (*network.Network, error) {
	if err := d.initialise(); err != nil {
		return nil, err
	}
	if err := d.encode(); err != nil {
		return nil, err
	}
	sat, err := d.solve(ctx)
	if err != nil {
		return nil, err
	}
	if !sat {
		return nil, schederr.New(schederr.KindInfeasible, schederr.ErrUnsat, "", "solver returned unsat")
	}
	if err := d.extract(); err != nil {
		return nil, err
	}
	if err := d.verify(); err != nil {
		return nil, err
	}
	return d.net, nil
}

func (d *Driver) initialise() error {
	if d.state != StateLoaded {
		return fmt.Errorf("synth: Initialise called in state %s, want %s", d.state, StateLoaded)
	}
	if err := d.net.Validate(); err != nil {
		return schederr.New(schederr.KindModel, unwrapSentinel(err), "", "network validation failed")
	}
	if err := network.InitializeNetwork(d.net); err != nil {
		return schederr.New(schederr.KindModel, unwrapSentinel(err), "", "offset initialization failed")
	}
	if err := topology.Validate(d.net); err != nil {
		return schederr.New(schederr.KindModel, err, "", "relay topology check failed")
	}
	if diameter, err := topology.Diameter(d.net); err != nil {
		d.log.Warn().Err(err).Msg("topology diameter diagnostic failed")
	} else {
		d.log.Debug().Int("diameter", diameter).Msg("relay topology diameter")
	}
	d.state = StateInitialised
	d.log.Info().Str("state", d.state.String()).Int("frames", len(d.net.Frames)).Int("links", len(d.net.Links)).Msg("network initialised")
	return nil
}

func (d *Driver) encode() error {
	if d.state != StateInitialised {
		return fmt.Errorf("synth: Encode called in state %s, want %s", d.state, StateInitialised)
	}
	if err := constraints.Generate(d.net, d.backend, d.opts); err != nil {
		return schederr.New(schederr.KindEncoding, schederr.ErrBackendRejected, "", err.Error())
	}
	d.state = StateEncoded
	d.log.Info().Str("state", d.state.String()).Msg("constraints encoded")
	return nil
}

func (d *Driver) solve(ctx context.Context) (bool, error) {
	if d.state != StateEncoded {
		return false, fmt.Errorf("synth: Solve called in state %s, want %s", d.state, StateEncoded)
	}
	sat, err := d.backend.CheckSAT(ctx)
	if err != nil {
		return false, schederr.New(schederr.KindEncoding, schederr.ErrBackendRejected, "", err.Error())
	}
	if sat {
		d.state = StateSolvedSAT
	} else {
		d.state = StateSolvedUNSAT
	}
	d.log.Info().Str("state", d.state.String()).Bool("sat", sat).Msg("solver finished")
	return sat, nil
}

func (d *Driver) extract() error {
	if d.state != StateSolvedSAT {
		return fmt.Errorf("synth: Extract called in state %s, want %s", d.state, StateSolvedSAT)
	}
	if err := extract.Extract(d.net, d.backend); err != nil {
		return schederr.New(schederr.KindExtraction, schederr.ErrMissingVariable, "", err.Error())
	}
	d.state = StateExtracted
	d.log.Info().Str("state", d.state.String()).Msg("schedule extracted")
	return nil
}

func (d *Driver) verify() error {
	if d.state != StateExtracted {
		return fmt.Errorf("synth: Verify called in state %s, want %s", d.state, StateExtracted)
	}
	if err := verify.Verify(d.net); err != nil {
		return schederr.New(schederr.KindVerification, schederr.ErrScheduleInvalid, "", err.Error())
	}
	d.state = StateVerified
	d.log.Info().Str("state", d.state.String()).Msg("schedule verified")
	return nil
}

// unwrapSentinel walks err's chain looking for one of network's
// package-level sentinels so schederr.Error carries the sentinel itself
// rather than a wrapping *fmt.wrapError.
func unwrapSentinel(err error) error {
	for _, sentinel := range []error{
		network.ErrBadHyperperiod,
		network.ErrWindowTooSmall,
		network.ErrUnknownLink,
		network.ErrDuplicateLinkID,
		network.ErrDuplicateFrameID,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}
