// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package schedule

import (
	"math"

	"golang.org/x/exp/slices"
)

// UndefinedTime marks an unset arrival or departure offset
var UndefinedTime = math.Inf(-1)

// StopFacility is a physical stop location. LinkId is empty until the
// facility has been bound to a network link by the mapper.
type StopFacility struct {
	Id         string
	X          float64
	Y          float64
	Name       string
	IsBlocking bool
	LinkId     string
}

// RouteStop is one entry in a transit route's stop sequence. Offsets are
// seconds relative to the departure at the route's first stop.
type RouteStop struct {
	Facility        *StopFacility
	ArrivalOffset   float64
	DepartureOffset float64
	AwaitDeparture  bool
}

// Departure is a single scheduled vehicle run, time in seconds since
// midnight
type Departure struct {
	Id   string
	Time float64
}

// LinkSequence is the network path of a mapped transit route
type LinkSequence struct {
	StartLink string
	Links     []string
	EndLink   string
}

// LinkIds returns the full link id sequence including start and end link
func (ls *LinkSequence) LinkIds() []string {
	if ls.StartLink == ls.EndLink && len(ls.Links) == 0 {
		return []string{ls.StartLink}
	}
	ret := make([]string, 0, len(ls.Links)+2)
	ret = append(ret, ls.StartLink)
	ret = append(ret, ls.Links...)
	ret = append(ret, ls.EndLink)
	return ret
}

// TransitRoute is an ordered stop sequence with departures. Route is nil
// until the route has been mapped.
type TransitRoute struct {
	Id         string
	Mode       string
	Stops      []*RouteStop
	Departures map[string]*Departure
	Route      *LinkSequence
	ShapeId    string
}

func (r *TransitRoute) AddDeparture(d *Departure) {
	r.Departures[d.Id] = d
}

// TransitLine groups transit routes
type TransitLine struct {
	Id     string
	Routes map[string]*TransitRoute
}

func (l *TransitLine) AddRoute(r *TransitRoute) {
	l.Routes[r.Id] = r
}

// Schedule is a transit schedule with stop facilities, lines and
// optional route shapes
type Schedule struct {
	Lines      map[string]*TransitLine
	Facilities map[string]*StopFacility
	Shapes     map[string]*RouteShape
}

func NewSchedule() *Schedule {
	return &Schedule{
		Lines:      make(map[string]*TransitLine),
		Facilities: make(map[string]*StopFacility),
		Shapes:     make(map[string]*RouteShape),
	}
}

func (s *Schedule) AddLine(id string) *TransitLine {
	if l, ok := s.Lines[id]; ok {
		return l
	}
	l := &TransitLine{Id: id, Routes: make(map[string]*TransitRoute)}
	s.Lines[id] = l
	return l
}

func (s *Schedule) AddFacility(f *StopFacility) {
	s.Facilities[f.Id] = f
}

func NewTransitRoute(id string, mode string) *TransitRoute {
	return &TransitRoute{
		Id:         id,
		Mode:       mode,
		Departures: make(map[string]*Departure),
	}
}

// SortedLineIds returns the line ids in lexicographic order
func (s *Schedule) SortedLineIds() []string {
	ids := make([]string, 0, len(s.Lines))
	for id := range s.Lines {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SortedRouteIds returns the route ids of a line in lexicographic order
func (l *TransitLine) SortedRouteIds() []string {
	ids := make([]string, 0, len(l.Routes))
	for id := range l.Routes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SortedFacilityIds returns the facility ids in lexicographic order
func (s *Schedule) SortedFacilityIds() []string {
	ids := make([]string, 0, len(s.Facilities))
	for id := range s.Facilities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// RouteRef addresses one transit route within the schedule
type RouteRef struct {
	LineId  string
	RouteId string
}

// SortedRouteRefs returns all (line, route) pairs of the schedule in
// the deterministic commit order
func (s *Schedule) SortedRouteRefs() []RouteRef {
	refs := make([]RouteRef, 0)
	for _, lid := range s.SortedLineIds() {
		for _, rid := range s.Lines[lid].SortedRouteIds() {
			refs = append(refs, RouteRef{LineId: lid, RouteId: rid})
		}
	}
	return refs
}

// Shape returns the shape assigned to the route, or nil
func (s *Schedule) Shape(r *TransitRoute) *RouteShape {
	if r.ShapeId == "" {
		return nil
	}
	return s.Shapes[r.ShapeId]
}
