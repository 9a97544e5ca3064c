// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package network

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/exp/slices"
)

// MATSim network XML document

type xmlNetwork struct {
	XMLName xml.Name  `xml:"network"`
	Name    string    `xml:"name,attr,omitempty"`
	Nodes   []xmlNode `xml:"nodes>node"`
	Links   xmlLinks  `xml:"links"`
}

type xmlLinks struct {
	CapPeriod string    `xml:"capperiod,attr,omitempty"`
	Links     []xmlLink `xml:"link"`
}

type xmlNode struct {
	Id string  `xml:"id,attr"`
	X  float64 `xml:"x,attr"`
	Y  float64 `xml:"y,attr"`
}

type xmlLink struct {
	Id        string  `xml:"id,attr"`
	From      string  `xml:"from,attr"`
	To        string  `xml:"to,attr"`
	Length    float64 `xml:"length,attr"`
	Freespeed float64 `xml:"freespeed,attr"`
	Capacity  float64 `xml:"capacity,attr"`
	PermLanes float64 `xml:"permlanes,attr"`
	Modes     string  `xml:"modes,attr,omitempty"`
}

// WriteXML writes the network as a MATSim network document
func (n *Network) WriteXML(w io.Writer) error {
	doc := xmlNetwork{Name: n.Name}
	doc.Links.CapPeriod = "01:00:00"

	for _, id := range n.SortedNodeIds() {
		node := n.Nodes[id]
		doc.Nodes = append(doc.Nodes, xmlNode{Id: node.Id, X: node.X, Y: node.Y})
	}

	for _, id := range n.SortedLinkIds() {
		l := n.Links[id]
		modes := make([]string, 0, len(l.Modes))
		for m := range l.Modes {
			modes = append(modes, m)
		}
		slices.Sort(modes)
		doc.Links.Links = append(doc.Links.Links, xmlLink{
			Id:        l.Id,
			From:      l.From.Id,
			To:        l.To.Id,
			Length:    l.Length,
			Freespeed: l.Freespeed,
			Capacity:  l.Capacity,
			PermLanes: l.NumLanes,
			Modes:     strings.Join(modes, ","),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "<!DOCTYPE network SYSTEM \"http://www.matsim.org/files/dtd/network_v2.dtd\">\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteXMLFile writes the network to the given path
func (n *Network) WriteXMLFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return n.WriteXML(f)
}

// ReadXML parses a MATSim network document
func ReadXML(r io.Reader) (*Network, error) {
	var doc xmlNetwork
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	net := NewNetwork(doc.Name)
	for _, xn := range doc.Nodes {
		net.AddNode(xn.Id, xn.X, xn.Y)
	}
	for _, xl := range doc.Links.Links {
		from, ok := net.Nodes[xl.From]
		if !ok {
			return nil, fmt.Errorf("link %s references unknown node %s", xl.Id, xl.From)
		}
		to, ok := net.Nodes[xl.To]
		if !ok {
			return nil, fmt.Errorf("link %s references unknown node %s", xl.Id, xl.To)
		}
		modes := make([]string, 0)
		for _, m := range strings.Split(xl.Modes, ",") {
			m = strings.TrimSpace(m)
			if len(m) > 0 {
				modes = append(modes, m)
			}
		}
		if _, err := net.AddLink(xl.Id, from, to, xl.Length, xl.Freespeed, xl.Capacity, xl.PermLanes, modes...); err != nil {
			return nil, err
		}
	}
	return net, nil
}

// ReadXMLFile parses a MATSim network document from the given path
func ReadXMLFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadXML(f)
}
