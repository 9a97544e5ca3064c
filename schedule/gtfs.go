// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package schedule

import (
	"fmt"
	"strconv"

	"github.com/patrickbr/gtfsparser"
	gtfs "github.com/patrickbr/gtfsparser/gtfs"
	"github.com/patrickbr/ptmapper/network"
	"golang.org/x/exp/slices"
)

// Day selectors for the GTFS conversion
const (
	DayWithMostTrips    = "dayWithMostTrips"
	DayWithMostServices = "dayWithMostServices"
	AllServiceDays      = "all"
)

// GtfsConverter converts a parsed GTFS feed into an unmapped transit
// schedule. Stop coordinates and shape points are projected to web
// mercator.
type GtfsConverter struct {
	Feed                  *gtfsparser.Feed
	DefaultAwaitDeparture bool
}

// scheduleMode maps a GTFS route type to a schedule transport mode
func scheduleMode(routeType int16) string {
	switch gtfs.GetTypeFromExtended(routeType) {
	case 0:
		return "tram"
	case 1:
		return "subway"
	case 2:
		return "rail"
	case 3:
		return "bus"
	case 4:
		return "ferry"
	case 5:
		return "cablecar"
	case 6:
		return "gondola"
	case 7:
		return "funicular"
	case 11:
		return "trolleybus"
	case 12:
		return "monorail"
	}
	return "pt"
}

// Convert builds the schedule for the given day selector, one of
// DayWithMostTrips, DayWithMostServices, AllServiceDays or an explicit
// YYYYMMDD date.
func (gc *GtfsConverter) Convert(day string) (*Schedule, error) {
	sched := NewSchedule()

	for _, sid := range sortedKeys(gc.Feed.Stops) {
		stop := gc.Feed.Stops[sid]
		x, y := network.LatLngToWebMerc(float64(stop.Lat), float64(stop.Lon))
		sched.AddFacility(&StopFacility{
			Id:   stop.Id,
			X:    x,
			Y:    y,
			Name: stop.Name,
		})
	}

	activeTrips, err := gc.selectTrips(day)
	if err != nil {
		return nil, err
	}

	// group trips by GTFS route
	tripsByRoute := make(map[string][]*gtfs.Trip)
	for _, t := range activeTrips {
		tripsByRoute[t.Route.Id] = append(tripsByRoute[t.Route.Id], t)
	}

	for _, rid := range sortedKeys(gc.Feed.Routes) {
		route := gc.Feed.Routes[rid]
		trips := tripsByRoute[rid]
		if len(trips) == 0 {
			continue
		}
		slices.SortFunc(trips, func(a, b *gtfs.Trip) int {
			if a.Id < b.Id {
				return -1
			} else if a.Id > b.Id {
				return 1
			}
			return 0
		})

		lineId := route.Id
		if route.Short_name != "" {
			lineId = route.Short_name + "_" + route.Id
		}
		line := sched.AddLine(lineId)
		mode := scheduleMode(route.Type)

		for _, trip := range trips {
			if len(trip.StopTimes) == 0 {
				continue
			}

			stops, err := gc.routeStops(sched, trip)
			if err != nil {
				return nil, err
			}
			start := float64(trip.StopTimes[0].Arrival_time().SecondsSinceMidnight())

			if trip.Frequencies != nil && len(*trip.Frequencies) > 0 {
				tr := NewTransitRoute(trip.Id, mode)
				tr.Stops = stops
				for _, f := range *trip.Frequencies {
					for s := f.Start_time.SecondsSinceMidnight(); s < f.End_time.SecondsSinceMidnight(); s += f.Headway_secs {
						tr.AddDeparture(&Departure{Id: tr.Id + "_" + strconv.Itoa(len(tr.Departures)+1), Time: float64(s)})
					}
				}
				gc.assignShape(sched, tr, trip)
				line.AddRoute(tr)
				continue
			}

			// a trip whose stop sequence already exists on the line only
			// contributes a departure
			var tr *TransitRoute
			for _, existingId := range line.SortedRouteIds() {
				if sameStopSequence(line.Routes[existingId].Stops, stops) {
					tr = line.Routes[existingId]
					break
				}
			}
			if tr == nil {
				tr = NewTransitRoute(trip.Id, mode)
				tr.Stops = stops
				gc.assignShape(sched, tr, trip)
				line.AddRoute(tr)
			}
			tr.AddDeparture(&Departure{Id: tr.Id + "_" + strconv.Itoa(len(tr.Departures)+1), Time: start})
		}
	}

	return sched, nil
}

// routeStops builds the stop sequence of a trip with offsets relative to
// the trip start
func (gc *GtfsConverter) routeStops(sched *Schedule, trip *gtfs.Trip) ([]*RouteStop, error) {
	start := float64(trip.StopTimes[0].Arrival_time().SecondsSinceMidnight())
	stops := make([]*RouteStop, 0, len(trip.StopTimes))

	for i, st := range trip.StopTimes {
		if st.Stop() == nil {
			return nil, fmt.Errorf("trip %s references an unknown stop at sequence %d", trip.Id, i)
		}
		fac, ok := sched.Facilities[st.Stop().Id]
		if !ok {
			return nil, fmt.Errorf("trip %s references unknown stop facility %s", trip.Id, st.Stop().Id)
		}

		rs := &RouteStop{
			Facility:        fac,
			ArrivalOffset:   UndefinedTime,
			DepartureOffset: UndefinedTime,
			AwaitDeparture:  gc.DefaultAwaitDeparture,
		}
		if i > 0 {
			rs.ArrivalOffset = float64(st.Arrival_time().SecondsSinceMidnight()) - start
		}
		if i < len(trip.StopTimes)-1 {
			rs.DepartureOffset = float64(st.Departure_time().SecondsSinceMidnight()) - start
		}
		stops = append(stops, rs)
	}
	return stops, nil
}

func (gc *GtfsConverter) assignShape(sched *Schedule, tr *TransitRoute, trip *gtfs.Trip) {
	if trip.Shape == nil {
		return
	}
	if _, ok := sched.Shapes[trip.Shape.Id]; !ok {
		shape := &RouteShape{Id: trip.Shape.Id}
		for _, p := range trip.Shape.Points {
			x, y := network.LatLngToWebMerc(float64(p.Lat), float64(p.Lon))
			shape.Points = append(shape.Points, ShapePoint{X: x, Y: y, Dist: float64(p.Dist_traveled)})
		}
		sched.Shapes[shape.Id] = shape
	}
	tr.ShapeId = trip.Shape.Id
}

func sameStopSequence(a []*RouteStop, b []*RouteStop) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Facility != b[i].Facility || a[i].ArrivalOffset != b[i].ArrivalOffset || a[i].DepartureOffset != b[i].DepartureOffset {
			return false
		}
	}
	return true
}

// selectTrips returns the trips active on the selected day, sorted by id
func (gc *GtfsConverter) selectTrips(day string) ([]*gtfs.Trip, error) {
	ret := make([]*gtfs.Trip, 0)

	if day == AllServiceDays {
		for _, tid := range sortedKeys(gc.Feed.Trips) {
			ret = append(ret, gc.Feed.Trips[tid])
		}
		return ret, nil
	}

	var date gtfs.Date
	switch day {
	case DayWithMostTrips, DayWithMostServices:
		date = gc.bestDate(day == DayWithMostTrips)
	default:
		var err error
		date, err = parseDate(day)
		if err != nil {
			return nil, err
		}
	}

	for _, tid := range sortedKeys(gc.Feed.Trips) {
		t := gc.Feed.Trips[tid]
		if t.Service != nil && t.Service.IsActiveOn(date) {
			ret = append(ret, t)
		}
	}
	return ret, nil
}

// bestDate scans the feed's defined date range for the date with the
// most active trips (or services). Earlier dates win ties.
func (gc *GtfsConverter) bestDate(byTrips bool) gtfs.Date {
	tripsPerService := make(map[string]int)
	for _, t := range gc.Feed.Trips {
		if t.Service != nil {
			tripsPerService[t.Service.Id()]++
		}
	}

	var first, last gtfs.Date
	haveRange := false
	for _, s := range gc.Feed.Services {
		f := s.GetFirstDefinedDate()
		l := s.GetLastDefinedDate()
		if !haveRange || f.GetTime().Before(first.GetTime()) {
			first = f
		}
		if !haveRange || l.GetTime().After(last.GetTime()) {
			last = l
		}
		haveRange = true
	}
	if !haveRange {
		return gtfs.Date{}
	}

	best := first
	bestCount := -1
	for d := first; !d.GetTime().After(last.GetTime()); d = d.GetOffsettedDate(1) {
		count := 0
		for _, sid := range sortedKeys(gc.Feed.Services) {
			s := gc.Feed.Services[sid]
			if !s.IsActiveOn(d) {
				continue
			}
			if byTrips {
				count += tripsPerService[s.Id()]
			} else {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}

func parseDate(str string) (gtfs.Date, error) {
	if len(str) != 8 {
		return gtfs.Date{}, fmt.Errorf("expected YYYYMMDD date, found '%s'", str)
	}
	year, e1 := strconv.Atoi(str[0:4])
	month, e2 := strconv.Atoi(str[4:6])
	dayN, e3 := strconv.Atoi(str[6:8])
	if e1 != nil || e2 != nil || e3 != nil || dayN < 1 || dayN > 31 || month < 1 || month > 12 {
		return gtfs.Date{}, fmt.Errorf("expected YYYYMMDD date, found '%s'", str)
	}
	return gtfs.NewDate(uint8(dayN), uint8(month), uint16(year)), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
