// SPDX-License-Identifier: MIT
package network

import "math"

// protocolFrameID is the identifier reserved for the synthetic protocol
// frame injected by InitializeNetwork (spec §4.7). User frame ids are
// expected to be non-negative (XML FrameID), so a negative id can never
// collide with one.
const protocolFrameID = -1

// NewNetwork returns an empty Network ready for AddLink/AddFrame calls.
// Lifecycle (spec §3): Links first, then Frames, then InitializeNetwork.
func NewNetwork() *Network {
	return &Network{
		linkByID:  make(map[int]*Link),
		frameByID: make(map[int]*Frame),
	}
}

// AddLink registers l. Returns ErrDuplicateLinkID, ErrBadSpeed or
// ErrUnknownMedium on invalid input.
func (n *Network) AddLink(l *Link) error {
	if l.Medium != Wired && l.Medium != Wireless {
		return netErrorf("AddLink", ErrUnknownMedium)
	}
	if l.SpeedMBps <= 0 {
		return netErrorf("AddLink", ErrBadSpeed)
	}
	if _, exists := n.linkByID[l.ID]; exists {
		return netErrorf("AddLink", ErrDuplicateLinkID)
	}
	if l.Medium == Wired {
		l.Retransmissions = 0
	}
	n.linkByID[l.ID] = l
	n.Links = append(n.Links, l)
	return nil
}

// AddFrame registers f, building its Offset slice deterministically from
// the first appearance of each link id across f.Paths (path order, then
// position within the path). All links referenced by f must already be
// registered via AddLink.
func (n *Network) AddFrame(f *Frame) error {
	if f.Period <= 0 {
		return netErrorf("AddFrame", ErrBadPeriod)
	}
	if f.Deadline <= 0 || f.Deadline > f.Period {
		return netErrorf("AddFrame", ErrBadDeadline)
	}
	if f.Size < 0 {
		return netErrorf("AddFrame", ErrBadSize)
	}
	if f.EndToEnd < f.Deadline {
		return netErrorf("AddFrame", ErrBadEndToEnd)
	}
	if len(f.Paths) == 0 {
		return netErrorf("AddFrame", ErrNoPaths)
	}
	if _, exists := n.frameByID[f.ID]; exists {
		return netErrorf("AddFrame", ErrDuplicateFrameID)
	}

	f.byLink = make(map[int]int)
	f.offsets = nil
	for _, p := range f.Paths {
		if len(p) == 0 {
			return netErrorf("AddFrame", ErrEmptyPath)
		}
		for _, linkID := range p {
			if _, ok := n.linkByID[linkID]; !ok {
				return netErrorf("AddFrame", ErrUnknownLink)
			}
			if _, seen := f.byLink[linkID]; seen {
				continue
			}
			f.byLink[linkID] = len(f.offsets)
			f.offsets = append(f.offsets, &Offset{LinkID: linkID})
		}
	}
	for _, s := range f.Splits {
		for _, linkID := range s {
			if _, ok := n.linkByID[linkID]; !ok {
				return netErrorf("AddFrame", ErrUnknownLink)
			}
		}
	}

	n.frameByID[f.ID] = f
	n.Frames = append(n.Frames, f)
	return nil
}

// Validate checks the invariants that span the whole Network: a positive
// hyperperiod that is a multiple of every frame's period. Per-frame field
// invariants are already enforced at AddFrame time.
func (n *Network) Validate() error {
	if n == nil {
		return ErrNilNetwork
	}
	if n.Hyperperiod <= 0 {
		return netErrorf("Validate", ErrBadHyperperiod)
	}
	for _, f := range n.Frames {
		if n.Hyperperiod%f.Period != 0 {
			return netErrorf("Validate", ErrBadHyperperiod)
		}
	}
	return nil
}

// InitializeNetwork computes T, I and R for every Offset of every frame
// (including the synthetic protocol frame, injected here if
// n.ProtocolPeriod > 0) and allocates each Offset's Start table. It must
// run exactly once, after Validate succeeds and before constraint
// generation (spec §3 Lifecycle, §4.6 state Initialised).
func InitializeNetwork(n *Network) error {
	if n.ProtocolPeriod > 0 {
		if err := injectProtocolFrame(n); err != nil {
			return err
		}
	}
	for _, f := range n.AllFrames() {
		for _, o := range f.offsets {
			link := n.linkByID[o.LinkID]
			if f.ID == protocolFrameID {
				o.T = n.ProtocolTime + 1
			} else {
				o.T = transmissionDuration(f.Size, link.SpeedMBps)
			}
			if f.Deadline-o.T < 1 {
				return netErrorf("InitializeNetwork", ErrWindowTooSmall)
			}
			o.I = int(n.Hyperperiod / f.Period)
			if link.Medium == Wireless {
				o.R = link.Retransmissions
			} else {
				o.R = 0
			}
			o.Start = make([][]int64, o.I)
			for i := range o.Start {
				o.Start[i] = make([]int64, o.R+1)
			}
		}
	}
	return nil
}

// transmissionDuration computes T = ceil(S*1e6 / speedMBps) ns.
func transmissionDuration(sizeBytes int64, speedMBps float64) int64 {
	ns := math.Ceil(float64(sizeBytes) * 1e6 / speedMBps)
	return int64(ns)
}

// injectProtocolFrame builds the synthetic protocol frame described in
// spec §4.7: one single-hop path per link, duration fixed at
// ProtocolTime+1 ns (computed later, in InitializeNetwork), period and
// deadline equal to ProtocolPeriod, end-to-end delay ProtocolPeriod+1.
func injectProtocolFrame(n *Network) error {
	pf := &Frame{
		ID:       protocolFrameID,
		Period:   n.ProtocolPeriod,
		Deadline: n.ProtocolPeriod,
		EndToEnd: n.ProtocolPeriod + 1,
		byLink:   make(map[int]int),
	}
	for _, l := range n.Links {
		pf.Paths = append(pf.Paths, Path{l.ID})
		pf.byLink[l.ID] = len(pf.offsets)
		pf.offsets = append(pf.offsets, &Offset{LinkID: l.ID})
	}
	if n.Hyperperiod%pf.Period != 0 {
		return netErrorf("injectProtocolFrame", ErrBadHyperperiod)
	}
	n.protocolFrame = pf
	return nil
}
