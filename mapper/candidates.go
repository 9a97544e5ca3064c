// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"fmt"
	"math"

	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
	"golang.org/x/exp/slices"
)

// LinkCandidate proposes a network link as the physical anchor of a
// transit stop
type LinkCandidate struct {
	Stop       *schedule.StopFacility
	Link       *network.Link
	Distance   float64
	Artificial bool
}

// how often the search radius is doubled before giving up
const maxRadiusExtensions = 2

// CandidateGenerator produces link candidates per (stop facility,
// schedule mode) pair. Preparation runs before the parallel phase since
// it may insert artificial stop links into the network.
type CandidateGenerator struct {
	cfg        *Config
	net        *network.Network
	idx        *network.LinkIdx
	candidates map[string][]*LinkCandidate
	created    []string
}

func NewCandidateGenerator(cfg *Config, net *network.Network) *CandidateGenerator {
	return &CandidateGenerator{
		cfg:        cfg,
		net:        net,
		idx:        network.NewLinkIdx(net, cfg.MaxLinkCandidateDistance),
		candidates: make(map[string][]*LinkCandidate),
	}
}

func candidateKey(facilityId string, mode string) string {
	return facilityId + "\x00" + mode
}

// Prepare generates candidates for every (stop facility, schedule mode)
// pair used by the schedule
func (cg *CandidateGenerator) Prepare(sched *schedule.Schedule) error {
	for _, ref := range sched.SortedRouteRefs() {
		route := sched.Lines[ref.LineId].Routes[ref.RouteId]
		if cg.cfg.NetworkModes(route.Mode) == nil {
			return fmt.Errorf("no network modes assigned to schedule mode %s (route %s of line %s)", route.Mode, ref.RouteId, ref.LineId)
		}
		for i, rs := range route.Stops {
			if rs.Facility == nil {
				return fmt.Errorf("route %s of line %s references no stop facility at position %d", ref.RouteId, ref.LineId, i)
			}
			if math.IsNaN(rs.Facility.X) || math.IsNaN(rs.Facility.Y) {
				return fmt.Errorf("stop facility %s has no coordinate", rs.Facility.Id)
			}
			key := candidateKey(rs.Facility.Id, route.Mode)
			if _, ok := cg.candidates[key]; ok {
				continue
			}
			cg.candidates[key] = cg.generate(rs.Facility, route.Mode)
		}
	}
	return nil
}

// Candidates returns the prepared candidate set, ordered by ascending
// distance; an artificial stop link, if one was created, comes last
func (cg *CandidateGenerator) Candidates(facilityId string, mode string) []*LinkCandidate {
	return cg.candidates[candidateKey(facilityId, mode)]
}

// ArtificialLinks returns the ids of the artificial stop links created
// during preparation
func (cg *CandidateGenerator) ArtificialLinks() []string {
	return cg.created
}

func (cg *CandidateGenerator) generate(fac *schedule.StopFacility, mode string) []*LinkCandidate {
	netModes := cg.cfg.NetworkModes(mode)

	radius := cg.cfg.MaxLinkCandidateDistance
	var links []*network.Link
	for ext := 0; ; ext++ {
		links = cg.collect(fac, netModes, radius)
		if len(links) >= cg.cfg.NLinkThreshold || ext >= maxRadiusExtensions {
			break
		}
		radius *= 2
	}

	slices.SortFunc(links, func(a, b *network.Link) int {
		da := a.DistanceTo(fac.X, fac.Y)
		db := b.DistanceTo(fac.X, fac.Y)
		if da < db {
			return -1
		} else if da > db {
			return 1
		}
		if a.Id < b.Id {
			return -1
		} else if a.Id > b.Id {
			return 1
		}
		return 0
	})

	if len(links) > cg.cfg.MaxNClosestLinks {
		links = links[:cg.cfg.MaxNClosestLinks]
	}

	ret := make([]*LinkCandidate, 0, len(links))
	for _, l := range links {
		ret = append(ret, &LinkCandidate{
			Stop:       fac,
			Link:       l,
			Distance:   l.DistanceTo(fac.X, fac.Y),
			Artificial: l.HasMode(ArtificialLinkMode),
		})
	}

	hasArtificial := false
	for _, c := range ret {
		if c.Artificial {
			hasArtificial = true
			break
		}
	}
	if len(ret) < cg.cfg.NLinkThreshold && cg.cfg.UseArtificialLinks && !hasArtificial {
		ret = append(ret, cg.artificialStopLink(fac, netModes))
	}

	return ret
}

func (cg *CandidateGenerator) collect(fac *schedule.StopFacility, netModes map[string]bool, radius float64) []*network.Link {
	found := cg.idx.LinksWithin(fac.X, fac.Y, radius)
	links := make([]*network.Link, 0, len(found))
	for _, l := range found {
		if !l.HasAnyMode(netModes) {
			continue
		}
		if l.IsLoop() && !cg.cfg.CandidateCanBeLoopLink && !l.HasMode(ArtificialLinkMode) {
			continue
		}
		links = append(links, l)
	}
	return links
}

// artificialStopLink creates a self-loop link at the stop coordinate
// permitting the assigned network modes plus the artificial sentinel
func (cg *CandidateGenerator) artificialStopLink(fac *schedule.StopFacility, netModes map[string]bool) *LinkCandidate {
	id := "pt_" + fac.Id
	idc := 0
	for {
		_, nodeTaken := cg.net.Nodes[id]
		_, linkTaken := cg.net.Links[id]
		if !nodeTaken && !linkTaken {
			break
		}
		idc++
		id = fmt.Sprintf("pt_%s_%d", fac.Id, idc)
	}

	node := cg.net.AddNode(id, fac.X, fac.Y)
	modes := make([]string, 0, len(netModes)+1)
	for m := range netModes {
		modes = append(modes, m)
	}
	slices.Sort(modes)
	modes = append(modes, ArtificialLinkMode)

	l, err := cg.net.AddLink(id, node, node, artificialLinkLength, artificialLinkFreespeed, 9999, 1, modes...)
	if err != nil {
		panic(err)
	}
	cg.created = append(cg.created, id)

	return &LinkCandidate{Stop: fac, Link: l, Distance: 0, Artificial: true}
}
