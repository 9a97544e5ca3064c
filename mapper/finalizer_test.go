// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"testing"

	"github.com/patrickbr/ptmapper/schedule"
)

func TestFinalizerArtificialCleanup(t *testing.T) {
	net := gridNetwork()

	// one artificial link used by a route, one unused
	n1 := net.AddNode("pt_a", 500, 500)
	net.AddLink("pt_a", n1, n1, 1, 10, 9999, 1, "bus", ArtificialLinkMode)
	n2 := net.AddNode("pt_b", 900, 900)
	net.AddLink("pt_b", n2, n2, 1, 10, 9999, 1, "bus", ArtificialLinkMode)

	sched := schedule.NewSchedule()
	fac := &schedule.StopFacility{Id: "s1.link:pt_a", X: 500, Y: 500, LinkId: "pt_a"}
	sched.AddFacility(fac)
	line := sched.AddLine("l")
	r := schedule.NewTransitRoute("r", "bus")
	r.Stops = []*schedule.RouteStop{{Facility: fac, ArrivalOffset: schedule.UndefinedTime, DepartureOffset: schedule.UndefinedTime}}
	r.Route = &schedule.LinkSequence{StartLink: "pt_a", EndLink: "pt_a"}
	line.AddRoute(r)

	cfg := testConfig()
	report := &Report{}

	fin := &finalizer{cfg: cfg, sched: sched, net: net}
	fin.run(report)

	if _, ok := net.Links["pt_a"]; !ok {
		t.Error("used artificial link removed")
	}

	if _, ok := net.Links["pt_b"]; ok {
		t.Error("unused artificial link kept")
	}

	if _, ok := net.Nodes["pt_b"]; ok {
		t.Error("orphaned artificial node kept")
	}

	if net.Links["pt_a"].HasMode(ArtificialLinkMode) {
		t.Error("artificial mode tag not cleaned")
	}

	if report.RemovedArtificialLinks != 1 {
		t.Error(report.RemovedArtificialLinks)
	}
}

func TestFinalizerFreespeedNeverLowered(t *testing.T) {
	net := gridNetwork("rail")
	net.Links["00_10"].Freespeed = 100

	sched := schedule.NewSchedule()
	f1 := &schedule.StopFacility{Id: "a.link:00_10", X: 0, Y: 0, LinkId: "00_10"}
	f2 := &schedule.StopFacility{Id: "b.link:10_20", X: 200, Y: 0, LinkId: "10_20"}
	sched.AddFacility(f1)
	sched.AddFacility(f2)

	line := sched.AddLine("l")
	r := schedule.NewTransitRoute("r", "rail")
	// 100 m scheduled in 100 s only require 1 m/s
	r.Stops = []*schedule.RouteStop{
		{Facility: f1, ArrivalOffset: schedule.UndefinedTime, DepartureOffset: 0},
		{Facility: f2, ArrivalOffset: 100, DepartureOffset: schedule.UndefinedTime},
	}
	r.Route = &schedule.LinkSequence{StartLink: "00_10", EndLink: "10_20"}
	line.AddRoute(r)

	cfg := testConfig()
	cfg.ScheduleFreespeedModes = []string{"rail"}
	report := &Report{}

	fin := &finalizer{cfg: cfg, sched: sched, net: net}
	fin.run(report)

	if net.Links["00_10"].Freespeed != 100 {
		t.Error(net.Links["00_10"].Freespeed)
	}

	if report.FreespeedAdjustments != 0 {
		t.Error(report.FreespeedAdjustments)
	}
}

func TestFinalizerUnusedFacilities(t *testing.T) {
	net := gridNetwork()

	sched := schedule.NewSchedule()
	used := &schedule.StopFacility{Id: "used.link:00_10", X: 50, Y: 0, LinkId: "00_10"}
	unused := &schedule.StopFacility{Id: "unused", X: 50, Y: 0}
	sched.AddFacility(used)
	sched.AddFacility(unused)

	line := sched.AddLine("l")
	r := schedule.NewTransitRoute("r", "bus")
	r.Stops = []*schedule.RouteStop{{Facility: used, ArrivalOffset: schedule.UndefinedTime, DepartureOffset: schedule.UndefinedTime}}
	r.Route = &schedule.LinkSequence{StartLink: "00_10", EndLink: "00_10"}
	line.AddRoute(r)

	cfg := testConfig()
	report := &Report{}

	fin := &finalizer{cfg: cfg, sched: sched, net: net}
	fin.run(report)

	if _, ok := sched.Facilities["unused"]; ok {
		t.Error("unused facility kept")
	}

	if _, ok := sched.Facilities["used.link:00_10"]; !ok {
		t.Error("used facility removed")
	}

	if report.RemovedStopFacilities != 1 {
		t.Error(report.RemovedStopFacilities)
	}

	// with the flag off nothing is removed
	sched.AddFacility(unused)
	cfg2 := testConfig()
	cfg2.RemoveNotUsedStopFacilities = false

	fin2 := &finalizer{cfg: cfg2, sched: sched, net: net}
	fin2.run(&Report{})

	if _, ok := sched.Facilities["unused"]; !ok {
		t.Error("facility removed although flag is off")
	}
}

func TestFinalizerOrphanPruning(t *testing.T) {
	net := gridNetwork()

	// a disconnected island
	i1 := net.AddNode("i1", 9000, 9000)
	i2 := net.AddNode("i2", 9100, 9000)
	net.AddLink("i1_i2", i1, i2, 100, 10, 1000, 1, "car")

	sched := schedule.NewSchedule()
	fac := &schedule.StopFacility{Id: "s.link:00_10", X: 50, Y: 0, LinkId: "00_10"}
	sched.AddFacility(fac)
	line := sched.AddLine("l")
	r := schedule.NewTransitRoute("r", "bus")
	r.Stops = []*schedule.RouteStop{{Facility: fac, ArrivalOffset: schedule.UndefinedTime, DepartureOffset: schedule.UndefinedTime}}
	r.Route = &schedule.LinkSequence{StartLink: "00_10", EndLink: "00_10"}
	line.AddRoute(r)

	cfg := testConfig()
	cfg.PruneOrphanNetwork = true

	fin := &finalizer{cfg: cfg, sched: sched, net: net}
	fin.run(&Report{})

	if _, ok := net.Links["i1_i2"]; ok {
		t.Error("island link not pruned")
	}

	// the grid stays connected to the used link
	if _, ok := net.Links["22_21"]; !ok {
		t.Error("connected link pruned")
	}
}
