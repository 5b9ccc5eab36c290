// SPDX-License-Identifier: MIT
// Package xmlio ingests the network XML input and emits the schedule XML
// output of spec §6. It is a pure boundary collaborator: the only
// package in this module that imports encoding/xml.
//
// No ecosystem XML library is wired here (see DESIGN.md): Go's
// encoding/xml already gives struct-tag-driven unmarshalling, and this
// package keeps the I/O boundary small and explicit rather than
// bringing in a templating or codegen dependency for it.
package xmlio

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/FPozo/tsnsched/network"
	"github.com/FPozo/tsnsched/schederr"
)

// xmlNetwork mirrors /Network (spec §6).
type xmlNetwork struct {
	XMLName     xml.Name       `xml:"Network"`
	General     xmlGeneral     `xml:"GeneralInformation"`
	Description xmlDescription `xml:"NetworkDescription"`
	Traffic     xmlTraffic     `xml:"TrafficInformation"`
}

type xmlGeneral struct {
	NumberFrames      int   `xml:"NumberFrames"`
	NumberLinks       int   `xml:"NumberLinks"`
	MinimumTimeSwitch int64 `xml:"MinimumTimeSwitch"`
	HyperPeriod       int64 `xml:"HyperPeriod"`
	PeriodProtocol    int64 `xml:"PeriodProtocol"`
	TimeProtocol      int64 `xml:"TimeProtocol"`
	TimeBetweenFrames int64 `xml:"TimeBetweenFrames"`
}

type xmlDescription struct {
	Links xmlLinks `xml:"Links"`
}

type xmlLinks struct {
	Link []xmlLink `xml:"Link"`
}

type xmlLink struct {
	Category        string `xml:"category,attr"`
	Speed           int64  `xml:"Speed"`
	Retransmissions int    `xml:"Retransmissions"`
}

type xmlTraffic struct {
	Frames xmlFrames `xml:"Frames"`
}

type xmlFrames struct {
	Frame []xmlFrame `xml:"Frame"`
}

type xmlFrame struct {
	Period   int64        `xml:"Period"`
	Deadline int64        `xml:"Deadline"`
	Size     int64        `xml:"Size"`
	EndToEnd int64        `xml:"EndToEnd"`
	Starting int64        `xml:"Starting"`
	Paths    xmlPathList  `xml:"Paths"`
	Splits   xmlSplitList `xml:"Splits"`
}

type xmlPathList struct {
	Path []string `xml:"Path"`
}

type xmlSplitList struct {
	Split []string `xml:"Split"`
}

// Load reads and parses path as a network XML document (spec §6) and
// returns an un-initialised network.Network whose links and frames have
// passed AddLink/AddFrame checks. Load does not call Network.Validate:
// the caller must still run it and network.InitializeNetwork (via
// synth.Driver) before constraint generation.
//
// Link and Frame identifiers are their zero-based position in document
// order: neither element carries an explicit id in the XML schema.
func Load(path string) (*network.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, schederr.New(schederr.KindInput, schederr.ErrMalformedXML, path, err.Error())
	}

	var doc xmlNetwork
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, schederr.New(schederr.KindInput, schederr.ErrMalformedXML, path, err.Error())
	}

	if doc.General.HyperPeriod <= 0 {
		return nil, schederr.New(schederr.KindInput, schederr.ErrMissingElement, path, "GeneralInformation/HyperPeriod")
	}

	n := network.NewNetwork()
	n.Hyperperiod = doc.General.HyperPeriod
	n.HopDelay = doc.General.MinimumTimeSwitch
	n.ProtocolPeriod = doc.General.PeriodProtocol
	n.ProtocolTime = doc.General.TimeProtocol
	n.TimeBetweenFrames = doc.General.TimeBetweenFrames

	for i, xl := range doc.Description.Links.Link {
		medium, err := parseMedium(xl.Category)
		if err != nil {
			return nil, schederr.New(schederr.KindInput, schederr.ErrUnknownCategory, fmt.Sprintf("link %d", i), xl.Category)
		}
		l := &network.Link{
			ID:              i,
			Medium:          medium,
			SpeedMBps:       float64(xl.Speed),
			Retransmissions: xl.Retransmissions,
		}
		if err := n.AddLink(l); err != nil {
			return nil, schederr.New(schederr.KindModel, err, fmt.Sprintf("link %d", i), "AddLink failed")
		}
	}

	for i, xf := range doc.Traffic.Frames.Frame {
		f := &network.Frame{
			ID:       i,
			Period:   xf.Period,
			Deadline: xf.Deadline,
			Size:     xf.Size,
			EndToEnd: xf.EndToEnd,
			Starting: xf.Starting,
		}
		for _, raw := range xf.Paths.Path {
			p, err := parseLinkList(raw)
			if err != nil {
				return nil, schederr.New(schederr.KindInput, schederr.ErrUnparsableInt, fmt.Sprintf("frame %d path", i), err.Error())
			}
			f.Paths = append(f.Paths, network.Path(p))
		}
		for _, raw := range xf.Splits.Split {
			s, err := parseLinkList(raw)
			if err != nil {
				return nil, schederr.New(schederr.KindInput, schederr.ErrUnparsableInt, fmt.Sprintf("frame %d split", i), err.Error())
			}
			f.Splits = append(f.Splits, network.Split(s))
		}
		if err := n.AddFrame(f); err != nil {
			return nil, schederr.New(schederr.KindModel, err, fmt.Sprintf("frame %d", i), "AddFrame failed")
		}
	}

	return n, nil
}

func parseMedium(category string) (network.Medium, error) {
	switch category {
	case "Wired":
		return network.Wired, nil
	case "Wireless":
		return network.Wireless, nil
	default:
		return 0, fmt.Errorf("unknown category %q", category)
	}
}

// parseLinkList parses a semicolon-separated list of link identifiers,
// e.g. "0;2;5" (spec §6).
func parseLinkList(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ";")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", schederr.ErrUnparsableInt, p)
		}
		out = append(out, v)
	}
	return out, nil
}
