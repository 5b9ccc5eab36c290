// SPDX-License-Identifier: MIT
package network

import (
	"errors"
	"fmt"
)

// Sentinel errors for network model construction and validation.
// Callers branch on these with errors.Is; never on the error string.
var (
	// ErrNilNetwork indicates an operation was attempted on a nil *Network.
	ErrNilNetwork = errors.New("network: nil network")

	// ErrDuplicateLinkID indicates two links were registered under the same ID.
	ErrDuplicateLinkID = errors.New("network: duplicate link id")

	// ErrDuplicateFrameID indicates two frames were registered under the same ID.
	ErrDuplicateFrameID = errors.New("network: duplicate frame id")

	// ErrUnknownLink indicates a path or split references a link id that was
	// never registered on the Network.
	ErrUnknownLink = errors.New("network: path references unknown link")

	// ErrEmptyPath indicates a frame declared a path with zero links.
	ErrEmptyPath = errors.New("network: path has no links")

	// ErrNoPaths indicates a frame declared zero paths.
	ErrNoPaths = errors.New("network: frame has no paths")

	// ErrBadPeriod indicates a frame's period is not strictly positive.
	ErrBadPeriod = errors.New("network: period must be > 0")

	// ErrBadDeadline indicates a frame's deadline violates 0 < D <= P.
	ErrBadDeadline = errors.New("network: deadline must satisfy 0 < D <= P")

	// ErrBadSize indicates a frame's size is negative.
	ErrBadSize = errors.New("network: size must be >= 0")

	// ErrBadEndToEnd indicates a frame's end-to-end delay is smaller than its deadline.
	ErrBadEndToEnd = errors.New("network: end-to-end delay must be >= deadline")

	// ErrWindowTooSmall indicates D - T < 1 for some offset on the frame,
	// i.e. there is no integer left for the (R) range family to pick.
	ErrWindowTooSmall = errors.New("network: deadline minus duration leaves no schedulable window")

	// ErrBadHyperperiod indicates the hyperperiod is not a positive multiple
	// of some frame's period.
	ErrBadHyperperiod = errors.New("network: hyperperiod is not a positive multiple of a frame period")

	// ErrBadSpeed indicates a link's speed is not strictly positive.
	ErrBadSpeed = errors.New("network: link speed must be > 0")

	// ErrUnknownMedium indicates a link's medium is neither Wired nor Wireless.
	ErrUnknownMedium = errors.New("network: unknown link medium")
)

// netErrorf wraps err with a function-name tag so callers can tell which
// validation step failed without parsing the message text.
func netErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
