// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"fmt"
	"strings"

	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
	"golang.org/x/exp/slices"
)

// materializer writes solver decisions back into the shared schedule and
// network. It runs single-threaded after the parallel phase; commit
// order is the deterministic route order.
type materializer struct {
	cfg     *Config
	sched   *schedule.Schedule
	net     *network.Network
	routers *ScheduleRouters

	artificial []string
}

// baseParentId strips a child suffix so that re-running the mapper on an
// already mapped schedule derives the same child keys
func baseParentId(facilityId string) string {
	if idx := strings.Index(facilityId, ".link:"); idx >= 0 {
		return facilityId[:idx]
	}
	return facilityId
}

// childFacility returns the facility for (parent, link), cloning the
// parent on first use. Identifier construction is a pure function of the
// inputs.
func (m *materializer) childFacility(parent *schedule.StopFacility, linkId string) *schedule.StopFacility {
	childId := baseParentId(parent.Id) + ".link:" + linkId
	if child, ok := m.sched.Facilities[childId]; ok {
		return child
	}
	child := &schedule.StopFacility{
		Id:         childId,
		X:          parent.X,
		Y:          parent.Y,
		Name:       parent.Name,
		IsBlocking: parent.IsBlocking,
		LinkId:     linkId,
	}
	m.sched.AddFacility(child)
	return child
}

// commitRoute rebinds the route's stops to child facilities and fills in
// the link sequence
func (m *materializer) commitRoute(ref schedule.RouteRef, chosen []*LinkCandidate) {
	route := m.sched.Lines[ref.LineId].Routes[ref.RouteId]
	router := m.routers.RouterFor(route)

	seq := make([]string, 0, len(chosen))
	seq = appendLink(seq, chosen[0].Link.Id)

	for i := 0; i < len(chosen); i++ {
		rs := route.Stops[i]
		rs.Facility = m.childFacility(rs.Facility, chosen[i].Link.Id)

		if i == len(chosen)-1 {
			break
		}
		next := chosen[i+1]
		if chosen[i].Link == next.Link {
			continue
		}

		_, path := router.LeastCost(chosen[i].Link, next.Link)
		if path == nil {
			// the solver accepted this edge, so artificial links are on
			l := m.artificialConnection(route.Mode, chosen[i].Link, next.Link)
			seq = appendLink(seq, l.Id)
		} else {
			for _, l := range path {
				seq = appendLink(seq, l.Id)
			}
		}
		seq = appendLink(seq, next.Link.Id)
	}

	ls := &schedule.LinkSequence{StartLink: seq[0], EndLink: seq[len(seq)-1]}
	if len(seq) > 2 {
		ls.Links = seq[1 : len(seq)-1]
	}
	route.Route = ls
}

// appendLink appends id, collapsing consecutive repetitions
func appendLink(seq []string, id string) []string {
	if len(seq) > 0 && seq[len(seq)-1] == id {
		return seq
	}
	return append(seq, id)
}

// artificialConnection creates (or reuses) a direct artificial link
// between the nodes of two candidate links that the router could not
// connect
func (m *materializer) artificialConnection(mode string, from *network.Link, to *network.Link) *network.Link {
	base := from.To.Id + "_" + to.From.Id + "_art"
	if l, ok := m.net.Links[base]; ok && l.HasMode(ArtificialLinkMode) && l.From == from.To && l.To == to.From {
		return l
	}
	id := base
	idc := 0
	for {
		if _, ok := m.net.Links[id]; !ok {
			break
		}
		idc++
		id = fmt.Sprintf("%s_%d", base, idc)
	}

	modes := make([]string, 0)
	for nm := range m.cfg.NetworkModes(mode) {
		modes = append(modes, nm)
	}
	slices.Sort(modes)
	modes = append(modes, ArtificialLinkMode)

	length := artificialConnectionLength(m.cfg, from, to)
	l, err := m.net.AddLink(id, from.To, to.From, length, artificialLinkFreespeed, 9999, 1, modes...)
	if err != nil {
		panic(err)
	}
	m.artificial = append(m.artificial, id)
	return l
}
