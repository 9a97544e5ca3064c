// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package network

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Node is a network node with a planar coordinate
type Node struct {
	Id       string
	X        float64
	Y        float64
	InLinks  map[string]*Link
	OutLinks map[string]*Link
}

// Link is a directed network link. Modes may be extended and the
// freespeed raised after creation, everything else is fixed.
type Link struct {
	Id        string
	From      *Node
	To        *Node
	Length    float64
	Freespeed float64
	Capacity  float64
	NumLanes  float64
	Modes     map[string]bool
}

// Network is a directed multigraph of nodes and links
type Network struct {
	Name  string
	Nodes map[string]*Node
	Links map[string]*Link
}

func NewNetwork(name string) *Network {
	return &Network{
		Name:  name,
		Nodes: make(map[string]*Node),
		Links: make(map[string]*Link),
	}
}

// AddNode inserts a new node, or returns the existing node with this id
func (n *Network) AddNode(id string, x float64, y float64) *Node {
	if ex, ok := n.Nodes[id]; ok {
		return ex
	}
	node := &Node{
		Id:       id,
		X:        x,
		Y:        y,
		InLinks:  make(map[string]*Link),
		OutLinks: make(map[string]*Link),
	}
	n.Nodes[id] = node
	return node
}

// AddLink inserts a new link between two existing nodes
func (n *Network) AddLink(id string, from *Node, to *Node, length float64, freespeed float64, capacity float64, lanes float64, modes ...string) (*Link, error) {
	if _, ok := n.Links[id]; ok {
		return nil, fmt.Errorf("duplicate link id %s", id)
	}
	if _, ok := n.Nodes[from.Id]; !ok {
		return nil, fmt.Errorf("from node %s of link %s not in network", from.Id, id)
	}
	if _, ok := n.Nodes[to.Id]; !ok {
		return nil, fmt.Errorf("to node %s of link %s not in network", to.Id, id)
	}

	l := &Link{
		Id:        id,
		From:      from,
		To:        to,
		Length:    length,
		Freespeed: freespeed,
		Capacity:  capacity,
		NumLanes:  lanes,
		Modes:     make(map[string]bool),
	}
	for _, m := range modes {
		l.Modes[m] = true
	}
	n.Links[id] = l
	from.OutLinks[id] = l
	to.InLinks[id] = l
	return l, nil
}

// RemoveLink removes a link and its adjacency entries
func (n *Network) RemoveLink(id string) {
	l, ok := n.Links[id]
	if !ok {
		return
	}
	delete(l.From.OutLinks, id)
	delete(l.To.InLinks, id)
	delete(n.Links, id)
}

// RemoveNode removes a node and all incident links
func (n *Network) RemoveNode(id string) {
	node, ok := n.Nodes[id]
	if !ok {
		return
	}
	for lid := range node.InLinks {
		n.RemoveLink(lid)
	}
	for lid := range node.OutLinks {
		n.RemoveLink(lid)
	}
	delete(n.Nodes, id)
}

func (l *Link) HasMode(mode string) bool {
	return l.Modes[mode]
}

// HasAnyMode is true if the link permits at least one of the given modes
func (l *Link) HasAnyMode(modes map[string]bool) bool {
	for m := range modes {
		if l.Modes[m] {
			return true
		}
	}
	return false
}

func (l *Link) AddMode(mode string) {
	l.Modes[mode] = true
}

// NearestPoint snaps (x, y) onto the link segment
func (l *Link) NearestPoint(x float64, y float64) (float64, float64) {
	return snapTo(x, y, l.From.X, l.From.Y, l.To.X, l.To.Y)
}

// DistanceTo is the distance from (x, y) to the nearest point of the link
func (l *Link) DistanceTo(x float64, y float64) float64 {
	px, py := l.NearestPoint(x, y)
	return dist(x, y, px, py)
}

// IsLoop is true for links with from == to
func (l *Link) IsLoop() bool {
	return l.From == l.To
}

// SortedLinkIds returns all link ids in lexicographic order
func (n *Network) SortedLinkIds() []string {
	ids := make([]string, 0, len(n.Links))
	for id := range n.Links {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SortedNodeIds returns all node ids in lexicographic order
func (n *Network) SortedNodeIds() []string {
	ids := make([]string, 0, len(n.Nodes))
	for id := range n.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Subset returns a copy of the network containing only links permitting
// at least one of the given modes, and the nodes they touch
func (n *Network) Subset(name string, modes map[string]bool) *Network {
	sub := NewNetwork(name)
	for _, id := range n.SortedLinkIds() {
		l := n.Links[id]
		if !l.HasAnyMode(modes) {
			continue
		}
		from := sub.AddNode(l.From.Id, l.From.X, l.From.Y)
		to := sub.AddNode(l.To.Id, l.To.X, l.To.Y)
		nl, _ := sub.AddLink(l.Id, from, to, l.Length, l.Freespeed, l.Capacity, l.NumLanes)
		for m := range l.Modes {
			if modes[m] {
				nl.AddMode(m)
			}
		}
	}
	return sub
}
