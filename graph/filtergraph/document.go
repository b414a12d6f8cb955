package filtergraph

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-host/graph"
	"github.com/cwbudde/algo-host/unit"
)

const (
	rootTag = "FILTERGRAPH"

	// internalFormat is the plugin format written for boundary records.
	internalFormat = "Internal"
)

type document struct {
	XMLName     xml.Name
	Filters     []filterRecord     `xml:"FILTER"`
	Connections []connectionRecord `xml:"CONNECTION"`
}

type filterRecord struct {
	UID     string         `xml:"uid,attr"`
	X       string         `xml:"x,attr,omitempty"`
	Y       string         `xml:"y,attr,omitempty"`
	Plugins []pluginRecord `xml:"PLUGIN"`
	Layout  *layoutRecord  `xml:"LAYOUT"`
	State   *stateRecord   `xml:"STATE"`
}

type pluginRecord struct {
	Name            string `xml:"name,attr"`
	DescriptiveName string `xml:"descriptiveName,attr,omitempty"`
	Format          string `xml:"format,attr,omitempty"`
	Category        string `xml:"category,attr,omitempty"`
	Manufacturer    string `xml:"manufacturer,attr,omitempty"`
	Version         string `xml:"version,attr,omitempty"`
	File            string `xml:"file,attr,omitempty"`
	UID             string `xml:"uid,attr,omitempty"`
	IsInstrument    string `xml:"isInstrument,attr,omitempty"`
	NumInputs       string `xml:"numInputs,attr,omitempty"`
	NumOutputs      string `xml:"numOutputs,attr,omitempty"`
}

type layoutRecord struct {
	Inputs  *busesRecord `xml:"INPUTS"`
	Outputs *busesRecord `xml:"OUTPUTS"`
}

type busesRecord struct {
	Buses []busRecord `xml:"BUS"`
}

type busRecord struct {
	Index  string `xml:"index,attr"`
	Layout string `xml:"layout,attr"`
}

type stateRecord struct {
	Text string `xml:",chardata"`
}

type connectionRecord struct {
	SrcFilter  string `xml:"srcFilter,attr"`
	SrcChannel string `xml:"srcChannel,attr"`
	DstFilter  string `xml:"dstFilter,attr"`
	DstChannel string `xml:"dstChannel,attr"`
}

// plugin returns the first PLUGIN child.
// maxUID returns the highest positive uid of any FILTER record.
func (d *document) maxUID() graph.NodeID {
	var hi graph.NodeID
	for _, f := range d.Filters {
		if uid := intAttr(f.UID); uid > 0 {
			hi = max(hi, graph.NodeID(uid))
		}
	}
	return hi
}

func (f filterRecord) plugin() (pluginRecord, bool) {
	if len(f.Plugins) == 0 {
		return pluginRecord{}, false
	}
	return f.Plugins[0], true
}

func (p pluginRecord) descriptor() unit.Descriptor {
	uid, _ := strconv.ParseInt(strings.TrimSpace(p.UID), 16, 64)
	return unit.Descriptor{
		Name:            p.Name,
		DescriptiveName: p.DescriptiveName,
		Format:          p.Format,
		Category:        p.Category,
		Manufacturer:    p.Manufacturer,
		Version:         p.Version,
		File:            p.File,
		UID:             int(uid),
		IsInstrument:    boolAttr(p.IsInstrument),
		NumInputs:       intAttr(p.NumInputs),
		NumOutputs:      intAttr(p.NumOutputs),
	}
}

func pluginFromDescriptor(d unit.Descriptor) pluginRecord {
	p := pluginRecord{
		Name:            d.Name,
		DescriptiveName: d.DescriptiveName,
		Format:          d.Format,
		Category:        d.Category,
		Manufacturer:    d.Manufacturer,
		Version:         d.Version,
		File:            d.File,
		IsInstrument:    "0",
		NumInputs:       strconv.Itoa(d.NumInputs),
		NumOutputs:      strconv.Itoa(d.NumOutputs),
	}
	if d.UID != 0 {
		p.UID = strconv.FormatInt(int64(d.UID), 16)
	}
	if d.IsInstrument {
		p.IsInstrument = "1"
	}
	return p
}

// intAttr parses the leading integer of s. Anything unparsable reads as 0.
func intAttr(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func boolAttr(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// reshape applies one direction of a LAYOUT record: buses are added up to
// the highest listed index, listed layouts replace the current ones and
// buses past the highest index are removed. A nil record leaves the buses
// unchanged.
func reshape(current []unit.ChannelSet, rec *busesRecord) ([]unit.ChannelSet, error) {
	if rec == nil {
		return current, nil
	}

	out := make([]unit.ChannelSet, len(current))
	copy(out, current)

	numBuses := 0
	for _, b := range rec.Buses {
		idx := intAttr(b.Index)
		if idx < 0 {
			return nil, fmt.Errorf("bus index must be >= 0: %d", idx)
		}
		numBuses = max(numBuses, idx+1)
		for len(out) <= idx {
			out = append(out, unit.ChannelSet{})
		}
		if strings.TrimSpace(b.Layout) != "" {
			out[idx] = unit.ParseChannelSet(b.Layout)
		}
	}
	if numBuses < len(out) {
		out = out[:numBuses]
	}
	return out, nil
}

func layoutFromBuses(l unit.BusLayout) *layoutRecord {
	rec := &layoutRecord{Inputs: &busesRecord{}, Outputs: &busesRecord{}}
	for i, s := range l.Inputs {
		rec.Inputs.Buses = append(rec.Inputs.Buses, busRecord{Index: strconv.Itoa(i), Layout: s.String()})
	}
	for i, s := range l.Outputs {
		rec.Outputs.Buses = append(rec.Outputs.Buses, busRecord{Index: strconv.Itoa(i), Layout: s.String()})
	}
	return rec
}
