// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
)

// Unmappable-route reasons
const (
	ReasonNoPath  = "no path through candidate graph"
	ReasonTimeout = "route time budget exceeded"
)

// UnmappedRoute records one route excluded from the output schedule
type UnmappedRoute struct {
	LineId  string
	RouteId string
	Reason  string
}

// Report summarizes one mapping batch
type Report struct {
	MappedRoutes           int
	Unmapped               []UnmappedRoute
	ArtificialLinks        []string
	RemovedArtificialLinks int
	FreespeedAdjustments   int
	RemovedStopFacilities  int
}

type routeSolution struct {
	ref    schedule.RouteRef
	chosen []*LinkCandidate
	reason string
}

// PTMapper maps a transit schedule onto a network. The schedule and
// network are mutated in place.
type PTMapper struct {
	sched *schedule.Schedule
	net   *network.Network

	cancelled atomic.Bool
}

func NewPTMapper(sched *schedule.Schedule, net *network.Network) *PTMapper {
	return &PTMapper{sched: sched, net: net}
}

// Cancel stops the batch at worker granularity; a cancelled batch
// discards all partial work
func (m *PTMapper) Cancel() {
	m.cancelled.Store(true)
}

func MaxParallelism() int {
	maxProcs := runtime.GOMAXPROCS(0)
	numCPU := runtime.NumCPU()
	if maxProcs < numCPU {
		return maxProcs
	}
	return numCPU
}

// Run executes the batch: candidate generation, parallel per-route
// solving, single-threaded commit, network finalization. The output is
// a pure function of the inputs and configuration, independent of
// worker count.
func (m *PTMapper) Run(cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	report := &Report{}

	fmt.Fprintf(os.Stdout, "Generating link candidates... ")
	candGen := NewCandidateGenerator(cfg, m.net)
	if err := candGen.Prepare(m.sched); err != nil {
		return nil, err
	}
	report.ArtificialLinks = append(report.ArtificialLinks, candGen.ArtificialLinks()...)
	fmt.Fprintf(os.Stdout, "done. (+%d artificial stop links)\n", len(candGen.ArtificialLinks()))

	routers := NewScheduleRouters(cfg, m.net, m.sched)

	refs := m.sched.SortedRouteRefs()
	solutions := make([]*routeSolution, len(refs))

	nthreads := cfg.NThreads
	if nthreads <= 0 {
		nthreads = MaxParallelism()
	}

	fmt.Fprintf(os.Stdout, "Mapping %d transit routes on %d workers... ", len(refs), nthreads)

	tasks := make(chan int, len(refs))
	for i := range refs {
		tasks <- i
	}
	close(tasks)

	var wg sync.WaitGroup
	for w := 0; w < nthreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				if m.cancelled.Load() {
					return
				}
				solutions[idx] = m.solveRoute(cfg, candGen, routers, refs[idx])
			}
		}()
	}
	wg.Wait()

	if m.cancelled.Load() {
		// drop the artificial stop links added during preparation
		for _, id := range candGen.ArtificialLinks() {
			m.net.RemoveNode(id)
		}
		return nil, errors.New("batch cancelled")
	}
	fmt.Fprintf(os.Stdout, "done.\n")

	fmt.Fprintf(os.Stdout, "Committing mapped routes... ")
	mat := &materializer{cfg: cfg, sched: m.sched, net: m.net, routers: routers}
	for _, sol := range solutions {
		if sol.reason != "" {
			report.Unmapped = append(report.Unmapped, UnmappedRoute{LineId: sol.ref.LineId, RouteId: sol.ref.RouteId, Reason: sol.reason})
			m.dropRoute(sol.ref)
			continue
		}
		mat.commitRoute(sol.ref, sol.chosen)
		report.MappedRoutes++
	}
	report.ArtificialLinks = append(report.ArtificialLinks, mat.artificial...)
	fmt.Fprintf(os.Stdout, "done. (%d mapped, %d unmappable)\n", report.MappedRoutes, len(report.Unmapped))

	fmt.Fprintf(os.Stdout, "Finalizing network... ")
	fin := &finalizer{cfg: cfg, sched: m.sched, net: m.net}
	fin.run(report)
	fmt.Fprintf(os.Stdout, "done. (-%d unused artificial links, %d freespeed adjustments, -%d stop facilities)\n",
		report.RemovedArtificialLinks, report.FreespeedAdjustments, report.RemovedStopFacilities)

	for _, u := range report.Unmapped {
		fmt.Fprintf(os.Stdout, "Could not map route %s of line %s: %s\n", u.RouteId, u.LineId, u.Reason)
	}

	return report, nil
}

func (m *PTMapper) solveRoute(cfg *Config, candGen *CandidateGenerator, routers *ScheduleRouters, ref schedule.RouteRef) *routeSolution {
	route := m.sched.Lines[ref.LineId].Routes[ref.RouteId]

	layers := make([][]*LinkCandidate, len(route.Stops))
	for i, rs := range route.Stops {
		layers[i] = candGen.Candidates(rs.Facility.Id, route.Mode)
	}

	var deadline time.Time
	if cfg.MaxRouteTime > 0 {
		deadline = time.Now().Add(time.Duration(cfg.MaxRouteTime * float64(time.Second)))
	}

	chosen, err := solvePseudo(cfg, routers.RouterFor(route), layers, deadline)
	if err != nil {
		reason := ReasonNoPath
		if errors.Is(err, errTimeout) {
			reason = ReasonTimeout
		}
		return &routeSolution{ref: ref, reason: reason}
	}
	return &routeSolution{ref: ref, chosen: chosen}
}

// dropRoute excludes an unmappable route from the output schedule
func (m *PTMapper) dropRoute(ref schedule.RouteRef) {
	line := m.sched.Lines[ref.LineId]
	delete(line.Routes, ref.RouteId)
	if len(line.Routes) == 0 {
		delete(m.sched.Lines, ref.LineId)
	}
}
