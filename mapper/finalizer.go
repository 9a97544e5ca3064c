// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
)

// finalizer cleans the network and schedule after all routes are
// committed
type finalizer struct {
	cfg   *Config
	sched *schedule.Schedule
	net   *network.Network
}

func (f *finalizer) run(report *Report) {
	used := f.usedLinks()

	f.dropUnusedArtificial(used, report)
	f.cleanModeTags()
	f.repairFreespeeds(report)
	if f.cfg.PruneOrphanNetwork {
		f.pruneOrphans(used)
	}
	if f.cfg.RemoveNotUsedStopFacilities {
		f.removeUnusedFacilities(report)
	}
}

// usedLinks collects the link ids of all mapped route sequences
func (f *finalizer) usedLinks() map[string]bool {
	used := make(map[string]bool)
	for _, ref := range f.sched.SortedRouteRefs() {
		route := f.sched.Lines[ref.LineId].Routes[ref.RouteId]
		if route.Route == nil {
			continue
		}
		for _, lid := range route.Route.LinkIds() {
			used[lid] = true
		}
	}
	return used
}

func (f *finalizer) dropUnusedArtificial(used map[string]bool, report *Report) {
	for _, id := range f.net.SortedLinkIds() {
		l := f.net.Links[id]
		if l.HasMode(ArtificialLinkMode) && !used[id] {
			f.net.RemoveLink(id)
			report.RemovedArtificialLinks++
		}
	}
	// artificial stop nodes may be left without links
	for _, id := range f.net.SortedNodeIds() {
		node := f.net.Nodes[id]
		if len(node.InLinks) == 0 && len(node.OutLinks) == 0 {
			f.net.RemoveNode(id)
		}
	}
}

func (f *finalizer) cleanModeTags() {
	for _, l := range f.net.Links {
		delete(l.Modes, ArtificialLinkMode)
	}
}

// repairFreespeeds raises the freespeed of links carrying a
// schedule-freespeed mode so that every scheduled inter-stop travel time
// is achievable. When routes disagree the maximum required speed wins;
// freespeeds are never lowered.
func (f *finalizer) repairFreespeeds(report *Report) {
	fsModes := f.cfg.freespeedModes()
	if len(fsModes) == 0 {
		return
	}

	required := make(map[*network.Link]float64)

	for _, ref := range f.sched.SortedRouteRefs() {
		route := f.sched.Lines[ref.LineId].Routes[ref.RouteId]
		if route.Route == nil {
			continue
		}
		linkIds := route.Route.LinkIds()

		pos := 0
		for i := 0; i+1 < len(route.Stops); i++ {
			cur := route.Stops[i]
			next := route.Stops[i+1]

			curPos := findLink(linkIds, cur.Facility.LinkId, pos)
			nextPos := findLink(linkIds, next.Facility.LinkId, curPos)
			if curPos < 0 || nextPos < 0 {
				break
			}
			pos = curPos

			dep := cur.DepartureOffset
			arr := next.ArrivalOffset
			if dep == schedule.UndefinedTime || arr == schedule.UndefinedTime || arr <= dep {
				continue
			}
			duration := arr - dep

			segment := linkIds[curPos+1 : nextPos+1]
			totalLen := 0.0
			for _, lid := range segment {
				totalLen += f.net.Links[lid].Length
			}
			if totalLen == 0 {
				continue
			}

			v := totalLen / duration
			for _, lid := range segment {
				l := f.net.Links[lid]
				if !l.HasAnyMode(fsModes) {
					continue
				}
				if v > required[l] {
					required[l] = v
				}
			}
		}
	}

	for l, v := range required {
		if v > l.Freespeed {
			l.Freespeed = v
			report.FreespeedAdjustments++
		}
	}
}

func findLink(linkIds []string, id string, from int) int {
	for i := from; i < len(linkIds); i++ {
		if linkIds[i] == id {
			return i
		}
	}
	return -1
}

// pruneOrphans removes subgraphs not reachable from any schedule-used
// link
func (f *finalizer) pruneOrphans(used map[string]bool) {
	visited := make(map[string]bool)
	queue := make([]*network.Node, 0)

	push := func(n *network.Node) {
		if !visited[n.Id] {
			visited[n.Id] = true
			queue = append(queue, n)
		}
	}

	for lid := range used {
		if l, ok := f.net.Links[lid]; ok {
			push(l.From)
			push(l.To)
		}
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, l := range node.OutLinks {
			push(l.To)
		}
		for _, l := range node.InLinks {
			push(l.From)
		}
	}

	for _, id := range f.net.SortedNodeIds() {
		if !visited[id] {
			f.net.RemoveNode(id)
		}
	}
}

func (f *finalizer) removeUnusedFacilities(report *Report) {
	referenced := make(map[string]bool)
	for _, line := range f.sched.Lines {
		for _, route := range line.Routes {
			for _, rs := range route.Stops {
				referenced[rs.Facility.Id] = true
			}
		}
	}
	for _, fid := range f.sched.SortedFacilityIds() {
		if !referenced[fid] {
			delete(f.sched.Facilities, fid)
			report.RemovedStopFacilities++
		}
	}
}
