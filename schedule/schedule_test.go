// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package schedule

import (
	"testing"
)

func TestLinkIds(t *testing.T) {
	ls := &LinkSequence{StartLink: "a", Links: []string{"b", "c"}, EndLink: "d"}

	ids := ls.LinkIds()
	if len(ids) != 4 || ids[0] != "a" || ids[3] != "d" {
		t.Error(ids)
	}

	// single-link sequence
	ls = &LinkSequence{StartLink: "a", EndLink: "a"}
	ids = ls.LinkIds()
	if len(ids) != 1 || ids[0] != "a" {
		t.Error(ids)
	}

	// circular route over distinct links
	ls = &LinkSequence{StartLink: "a", Links: []string{"b"}, EndLink: "a"}
	ids = ls.LinkIds()
	if len(ids) != 3 {
		t.Error(ids)
	}
}

func TestSortedRouteRefs(t *testing.T) {
	sched := NewSchedule()

	lb := sched.AddLine("b")
	la := sched.AddLine("a")

	lb.AddRoute(NewTransitRoute("2", "bus"))
	lb.AddRoute(NewTransitRoute("1", "bus"))
	la.AddRoute(NewTransitRoute("x", "bus"))

	refs := sched.SortedRouteRefs()

	if len(refs) != 3 {
		t.Error(refs)
		return
	}

	if refs[0].LineId != "a" || refs[0].RouteId != "x" {
		t.Error(refs[0])
	}

	if refs[1].LineId != "b" || refs[1].RouteId != "1" {
		t.Error(refs[1])
	}

	if refs[2].LineId != "b" || refs[2].RouteId != "2" {
		t.Error(refs[2])
	}
}

func TestShapeMinDist(t *testing.T) {
	shape := &RouteShape{Id: "s", Points: []ShapePoint{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}}

	if shape.MinDist(50, 50) != 50 {
		t.Error(shape.MinDist(50, 50))
	}

	if shape.MinDist(100, 50) != 0 {
		t.Error(shape.MinDist(100, 50))
	}
}
