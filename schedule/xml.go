// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package schedule

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// MATSim transitSchedule XML document

type xmlSchedule struct {
	XMLName xml.Name      `xml:"transitSchedule"`
	Stops   []xmlFacility `xml:"transitStops>stopFacility"`
	Lines   []xmlLine     `xml:"transitLine"`
}

type xmlFacility struct {
	Id         string  `xml:"id,attr"`
	X          float64 `xml:"x,attr"`
	Y          float64 `xml:"y,attr"`
	Name       string  `xml:"name,attr,omitempty"`
	LinkRefId  string  `xml:"linkRefId,attr,omitempty"`
	IsBlocking bool    `xml:"isBlocking,attr"`
}

type xmlLine struct {
	Id     string     `xml:"id,attr"`
	Routes []xmlRoute `xml:"transitRoute"`
}

type xmlRoute struct {
	Id            string         `xml:"id,attr"`
	TransportMode string         `xml:"transportMode"`
	Profile       []xmlRouteStop `xml:"routeProfile>stop"`
	Route         []xmlRouteLink `xml:"route>link"`
	Departures    []xmlDeparture `xml:"departures>departure"`
}

type xmlRouteStop struct {
	RefId           string `xml:"refId,attr"`
	ArrivalOffset   string `xml:"arrivalOffset,attr,omitempty"`
	DepartureOffset string `xml:"departureOffset,attr,omitempty"`
	AwaitDeparture  bool   `xml:"awaitDeparture,attr"`
}

type xmlRouteLink struct {
	RefId string `xml:"refId,attr"`
}

type xmlDeparture struct {
	Id            string `xml:"id,attr"`
	DepartureTime string `xml:"departureTime,attr"`
}

// formatTime renders seconds since midnight as HH:MM:SS
func formatTime(sec float64) string {
	if sec == UndefinedTime || math.IsInf(sec, -1) {
		return ""
	}
	s := int(sec)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// parseTime parses HH:MM:SS into seconds since midnight
func parseTime(str string) (float64, error) {
	if str == "" {
		return UndefinedTime, nil
	}
	parts := strings.Split(str, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS time, found '%s'", str)
	}
	h, e1 := strconv.Atoi(parts[0])
	m, e2 := strconv.Atoi(parts[1])
	s, e3 := strconv.Atoi(parts[2])
	if e1 != nil || e2 != nil || e3 != nil {
		return 0, fmt.Errorf("expected HH:MM:SS time, found '%s'", str)
	}
	return float64(h*3600 + m*60 + s), nil
}

// WriteXML writes the schedule as a MATSim transitSchedule document
func (s *Schedule) WriteXML(w io.Writer) error {
	doc := xmlSchedule{}

	for _, fid := range s.SortedFacilityIds() {
		f := s.Facilities[fid]
		doc.Stops = append(doc.Stops, xmlFacility{
			Id:         f.Id,
			X:          f.X,
			Y:          f.Y,
			Name:       f.Name,
			LinkRefId:  f.LinkId,
			IsBlocking: f.IsBlocking,
		})
	}

	for _, lid := range s.SortedLineIds() {
		line := s.Lines[lid]
		xl := xmlLine{Id: line.Id}
		for _, rid := range line.SortedRouteIds() {
			r := line.Routes[rid]
			xr := xmlRoute{Id: r.Id, TransportMode: r.Mode}
			for _, rs := range r.Stops {
				xr.Profile = append(xr.Profile, xmlRouteStop{
					RefId:           rs.Facility.Id,
					ArrivalOffset:   formatTime(rs.ArrivalOffset),
					DepartureOffset: formatTime(rs.DepartureOffset),
					AwaitDeparture:  rs.AwaitDeparture,
				})
			}
			if r.Route != nil {
				for _, lid := range r.Route.LinkIds() {
					xr.Route = append(xr.Route, xmlRouteLink{RefId: lid})
				}
			}
			depIds := make([]string, 0, len(r.Departures))
			for did := range r.Departures {
				depIds = append(depIds, did)
			}
			slices.Sort(depIds)
			for _, did := range depIds {
				d := r.Departures[did]
				xr.Departures = append(xr.Departures, xmlDeparture{Id: d.Id, DepartureTime: formatTime(d.Time)})
			}
			xl.Routes = append(xl.Routes, xr)
		}
		doc.Lines = append(doc.Lines, xl)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "<!DOCTYPE transitSchedule SYSTEM \"http://www.matsim.org/files/dtd/transitSchedule_v2.dtd\">\n"); err != nil {
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

// WriteXMLFile writes the schedule to the given path
func (s *Schedule) WriteXMLFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.WriteXML(f)
}

// ReadXML parses a MATSim transitSchedule document
func ReadXML(r io.Reader) (*Schedule, error) {
	var doc xmlSchedule
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	sched := NewSchedule()
	for _, xf := range doc.Stops {
		sched.AddFacility(&StopFacility{
			Id:         xf.Id,
			X:          xf.X,
			Y:          xf.Y,
			Name:       xf.Name,
			LinkId:     xf.LinkRefId,
			IsBlocking: xf.IsBlocking,
		})
	}

	for _, xl := range doc.Lines {
		line := sched.AddLine(xl.Id)
		for _, xr := range xl.Routes {
			tr := NewTransitRoute(xr.Id, xr.TransportMode)
			for _, xs := range xr.Profile {
				fac, ok := sched.Facilities[xs.RefId]
				if !ok {
					return nil, fmt.Errorf("route %s references unknown stop facility %s", xr.Id, xs.RefId)
				}
				arr, err := parseTime(xs.ArrivalOffset)
				if err != nil {
					return nil, err
				}
				dep, err := parseTime(xs.DepartureOffset)
				if err != nil {
					return nil, err
				}
				tr.Stops = append(tr.Stops, &RouteStop{
					Facility:        fac,
					ArrivalOffset:   arr,
					DepartureOffset: dep,
					AwaitDeparture:  xs.AwaitDeparture,
				})
			}
			if len(xr.Route) > 0 {
				links := make([]string, 0, len(xr.Route))
				for _, xrl := range xr.Route {
					links = append(links, xrl.RefId)
				}
				ls := &LinkSequence{StartLink: links[0], EndLink: links[len(links)-1]}
				if len(links) > 2 {
					ls.Links = links[1 : len(links)-1]
				}
				tr.Route = ls
			}
			for _, xd := range xr.Departures {
				t, err := parseTime(xd.DepartureTime)
				if err != nil {
					return nil, err
				}
				tr.AddDeparture(&Departure{Id: xd.Id, Time: t})
			}
			line.AddRoute(tr)
		}
	}
	return sched, nil
}

// ReadXMLFile parses a MATSim transitSchedule document from the given path
func ReadXMLFile(path string) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadXML(f)
}
