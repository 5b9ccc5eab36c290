// SPDX-License-Identifier: MIT
// Package schederr defines the cross-cutting error taxonomy used by every
// stage of the synthesizer: Input, Model, Encoding, Infeasible, Extraction
// and Verification failures (see the Synthesizer Driver state machine in
// package synth).
//
// Error policy:
//   - Only sentinel variables are exposed for errors.Is comparisons.
//   - Sentinels are never wrapped with formatted strings at definition site.
//   - Every stage attaches context with New(kind, sentinel, who, why).
package schederr

import (
	"errors"
	"fmt"
)

// Kind classifies which pipeline stage raised the error.
type Kind int

const (
	// KindInput covers malformed XML, missing elements, unparsable integers,
	// unknown link categories and out-of-range indices.
	KindInput Kind = iota
	// KindModel covers post-load invariant failures (D > P, dangling link
	// references, non-positive durations, …).
	KindModel
	// KindEncoding covers a backend rejecting an assertion; always a bug.
	KindEncoding
	// KindInfeasible covers a backend-reported UNSAT result.
	KindInfeasible
	// KindExtraction covers a backend model missing a declared variable.
	KindExtraction
	// KindVerification covers an extracted schedule violating an invariant.
	KindVerification
)

// String renders the Kind the way CLI diagnostics and log fields expect.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindModel:
		return "model"
	case KindEncoding:
		return "encoding"
	case KindInfeasible:
		return "infeasible"
	case KindExtraction:
		return "extraction"
	case KindVerification:
		return "verification"
	default:
		return "unknown"
	}
}

// Sentinel errors. Stage-level code returns one of these, usually wrapped
// by New with the offending identifier and reason attached.
var (
	ErrMalformedXML     = errors.New("schederr: malformed xml")
	ErrMissingElement   = errors.New("schederr: missing required element")
	ErrUnparsableInt    = errors.New("schederr: unparsable integer")
	ErrUnknownCategory  = errors.New("schederr: unknown link category")
	ErrIndexOutOfRange  = errors.New("schederr: index out of range")
	ErrInvariant        = errors.New("schederr: model invariant violated")
	ErrDanglingLink     = errors.New("schederr: path references undeclared link")
	ErrBackendRejected  = errors.New("schederr: backend rejected assertion")
	ErrUnsat            = errors.New("schederr: no schedule satisfies the constraints")
	ErrMissingVariable  = errors.New("schederr: backend model lacks declared variable")
	ErrScheduleInvalid  = errors.New("schederr: extracted schedule violates invariant")
)

// Error is the concrete error type every pipeline stage returns. Who names
// the offending frame, link or offset identifier; Why explains the reason
// in a short phrase, never a full sentence ending in punctuation.
type Error struct {
	Kind Kind
	Who  string
	Why  string
	Err  error
}

// New builds an *Error wrapping sentinel, tagged with the stage Kind and
// the offending identifier Who plus a short reason Why.
func New(kind Kind, sentinel error, who, why string) *Error {
	return &Error{Kind: kind, Who: who, Why: why, Err: sentinel}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Who == "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Why, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s (%s)", e.Kind, e.Why, e.Err, e.Who)
}

// Unwrap exposes the wrapped sentinel for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}
