// SPDX-License-Identifier: MIT
package xmlio

import (
	"encoding/xml"
	"os"

	"github.com/FPozo/tsnsched/network"
	"github.com/FPozo/tsnsched/schederr"
)

// xmlSchedule mirrors the output document's root (spec §6).
type xmlSchedule struct {
	XMLName xml.Name        `xml:"Schedule"`
	Frames  xmlOutFrameList `xml:"FramesTransmission"`
}

type xmlOutFrameList struct {
	Frame []xmlOutFrame `xml:"Frame"`
}

type xmlOutFrame struct {
	FrameID  int           `xml:"FrameID"`
	Period   int64         `xml:"Period"`
	Starting int64         `xml:"Starting"`
	Deadline int64         `xml:"Deadline"`
	Size     int64         `xml:"Size"`
	EndToEnd int64         `xml:"EndToEnd"`
	Paths    []xmlOutPath  `xml:"Path"`
}

type xmlOutPath struct {
	Links []xmlOutLink `xml:"Link"`
}

type xmlOutLink struct {
	LinkID    int               `xml:"LinkID"`
	Instances []xmlOutInstance `xml:"Instance"`
}

type xmlOutInstance struct {
	InstanceID        int   `xml:"InstanceID"`
	TransmissionTime  int64 `xml:"TransmissionTime"`
	EndingTime        int64 `xml:"EndingTime"`
}

// Write serializes n's verified schedule to path as the schedule XML of
// spec §6. The synthetic protocol frame, if any, is excluded. Only the
// base replica (r=0) is emitted per instance; start times of replicas
// r >= 1 (wireless links with Retransmissions > 0) are not written.
func Write(path string, n *network.Network) error {
	doc := xmlSchedule{}
	for _, f := range n.Frames {
		of := xmlOutFrame{
			FrameID:  f.ID,
			Period:   f.Period,
			Starting: f.Starting,
			Deadline: f.Deadline,
			Size:     f.Size,
			EndToEnd: f.EndToEnd,
		}
		for _, p := range f.Paths {
			op := xmlOutPath{}
			for _, linkID := range p {
				o, ok := f.OffsetByLink(linkID)
				if !ok {
					return schederr.New(schederr.KindExtraction, schederr.ErrMissingVariable, "", "path link has no offset")
				}
				ol := xmlOutLink{LinkID: linkID}
				for i := 0; i < o.I; i++ {
					ol.Instances = append(ol.Instances, xmlOutInstance{
						InstanceID:       i,
						TransmissionTime: o.Start[i][0],
						EndingTime:       o.Start[i][0] + o.T - 1,
					})
				}
				op.Links = append(op.Links, ol)
			}
			of.Paths = append(of.Paths, op)
		}
		doc.Frames.Frame = append(doc.Frames.Frame, of)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return schederr.New(schederr.KindInput, schederr.ErrMalformedXML, path, err.Error())
	}
	out = append([]byte(xml.Header), out...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return schederr.New(schederr.KindInput, schederr.ErrMalformedXML, path, err.Error())
	}
	return nil
}
