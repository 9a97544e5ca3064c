// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package tools

import (
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
	"golang.org/x/exp/slices"
)

// NetworkToGeojson renders all network links as LineString features,
// unprojected back to lat/lon
func NetworkToGeojson(net *network.Network) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, id := range net.SortedLinkIds() {
		l := net.Links[id]
		fromLat, fromLon := network.WebMercToLatLng(l.From.X, l.From.Y)
		toLat, toLon := network.WebMercToLatLng(l.To.X, l.To.Y)
		f := geojson.NewLineStringFeature([][]float64{{fromLon, fromLat}, {toLon, toLat}})
		f.SetProperty("id", l.Id)
		f.SetProperty("freespeed", l.Freespeed)
		modes := make([]string, 0, len(l.Modes))
		for m := range l.Modes {
			modes = append(modes, m)
		}
		slices.Sort(modes)
		f.SetProperty("modes", modes)
		fc.AddFeature(f)
	}
	return fc
}

// RoutesToGeojson renders the link path of every mapped transit route as
// one LineString feature
func RoutesToGeojson(sched *schedule.Schedule, net *network.Network) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, ref := range sched.SortedRouteRefs() {
		route := sched.Lines[ref.LineId].Routes[ref.RouteId]
		if route.Route == nil {
			continue
		}
		coords := make([][]float64, 0)
		for i, lid := range route.Route.LinkIds() {
			l, ok := net.Links[lid]
			if !ok {
				continue
			}
			if i == 0 {
				lat, lon := network.WebMercToLatLng(l.From.X, l.From.Y)
				coords = append(coords, []float64{lon, lat})
			}
			lat, lon := network.WebMercToLatLng(l.To.X, l.To.Y)
			coords = append(coords, []float64{lon, lat})
		}
		if len(coords) < 2 {
			continue
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("line", ref.LineId)
		f.SetProperty("route", ref.RouteId)
		f.SetProperty("mode", route.Mode)
		fc.AddFeature(f)
	}
	return fc
}

// WriteGeojson writes a feature collection to the given path
func WriteGeojson(fc *geojson.FeatureCollection, path string) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
