// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package network

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"golang.org/x/exp/slog"
)

// wayDefaults are per-way-class link attributes used when the way
// carries no explicit tags
type wayDefaults struct {
	lanes     float64
	freespeed float64 // m/s
	capacity  float64 // veh/h
	oneway    bool
	modes     []string
}

var highwayDefaults = map[string]wayDefaults{
	"motorway":       {2, 33.33, 2000, true, []string{"car"}},
	"motorway_link":  {1, 22.22, 1500, true, []string{"car"}},
	"trunk":          {1, 22.22, 2000, false, []string{"car"}},
	"trunk_link":     {1, 13.88, 1500, false, []string{"car"}},
	"primary":        {1, 22.22, 1500, false, []string{"car", "bus"}},
	"primary_link":   {1, 16.66, 1500, false, []string{"car", "bus"}},
	"secondary":      {1, 16.66, 1000, false, []string{"car", "bus"}},
	"secondary_link": {1, 16.66, 1000, false, []string{"car", "bus"}},
	"tertiary":       {1, 13.88, 600, false, []string{"car", "bus"}},
	"tertiary_link":  {1, 13.88, 600, false, []string{"car", "bus"}},
	"unclassified":   {1, 12.5, 600, false, []string{"car", "bus"}},
	"residential":    {1, 8.33, 600, false, []string{"car"}},
	"living_street":  {1, 2.77, 300, false, []string{"car"}},
}

var railwayDefaults = map[string]wayDefaults{
	"rail":       {1, 44.44, 9999, false, []string{"rail"}},
	"light_rail": {1, 22.22, 9999, false, []string{"rail", "light_rail"}},
	"subway":     {1, 22.22, 9999, false, []string{"rail", "subway"}},
	"tram":       {1, 11.11, 9999, false, []string{"tram"}},
}

type tempOsmNode struct {
	x     float64
	y     float64
	count int
}

// OsmConverter builds a multimodal network from an OSM pbf extract.
// Ways are split into links at junction nodes; a backward link is added
// for two-way ways.
type OsmConverter struct {
	KeepHighways map[string]bool // nil keeps all known classes
	KeepRailways map[string]bool
}

func (oc *OsmConverter) wayClass(tags map[string]string) (wayDefaults, bool) {
	if hw, ok := tags["highway"]; ok {
		if oc.KeepHighways != nil && !oc.KeepHighways[hw] {
			return wayDefaults{}, false
		}
		def, ok := highwayDefaults[hw]
		return def, ok
	}
	if rw, ok := tags["railway"]; ok {
		if oc.KeepRailways != nil && !oc.KeepRailways[rw] {
			return wayDefaults{}, false
		}
		def, ok := railwayDefaults[rw]
		return def, ok
	}
	return wayDefaults{}, false
}

// Convert reads the pbf file and builds the network
func (oc *OsmConverter) Convert(path string) (*Network, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	slog.Info("Building network from " + path)

	osmNodes := make(map[int64]tempOsmNode)

	// pass 1: mark nodes used by kept ways, junctions have count > 1
	scanner := osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Way:
			if _, ok := oc.wayClass(object.TagMap()); !ok {
				continue
			}
			ids := object.Nodes.NodeIDs()
			for _, nid := range ids {
				ref := nid.FeatureID().Ref()
				n := osmNodes[ref]
				n.count++
				osmNodes[ref] = n
			}
			// endpoints always split
			for _, i := range []int{0, len(ids) - 1} {
				ref := ids[i].FeatureID().Ref()
				n := osmNodes[ref]
				n.count++
				osmNodes[ref] = n
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	scanner.Close()

	// pass 2: collect coordinates of used nodes
	if _, err := file.Seek(0, 0); err != nil {
		return nil, err
	}
	scanner = osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	scanner.SkipWays = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Node:
			ref := object.FeatureID().Ref()
			n, ok := osmNodes[ref]
			if !ok {
				continue
			}
			n.x, n.y = LatLngToWebMerc(object.Lat, object.Lon)
			osmNodes[ref] = n
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	scanner.Close()

	// pass 3: build links, splitting ways at junction nodes
	if _, err := file.Seek(0, 0); err != nil {
		return nil, err
	}
	net := NewNetwork("")
	linkId := 0
	scanner = osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Way:
			def, ok := oc.wayClass(object.TagMap())
			if !ok {
				continue
			}
			oneway := def.oneway || object.TagMap()["oneway"] == "yes"

			ids := object.Nodes.NodeIDs()
			segStart := 0
			length := 0.0
			for i := 1; i < len(ids); i++ {
				prev := osmNodes[ids[i-1].FeatureID().Ref()]
				cur := osmNodes[ids[i].FeatureID().Ref()]
				length += dist(prev.x, prev.y, cur.x, cur.y)

				if osmNodes[ids[i].FeatureID().Ref()].count > 1 || i == len(ids)-1 {
					fromRef := ids[segStart].FeatureID().Ref()
					toRef := ids[i].FeatureID().Ref()
					fromTmp := osmNodes[fromRef]
					toTmp := osmNodes[toRef]

					from := net.AddNode(strconv.FormatInt(fromRef, 10), fromTmp.x, fromTmp.y)
					to := net.AddNode(strconv.FormatInt(toRef, 10), toTmp.x, toTmp.y)

					if length == 0 {
						length = 1.0
					}

					linkId++
					if _, err := net.AddLink(strconv.Itoa(linkId), from, to, length, def.freespeed, def.capacity, def.lanes, def.modes...); err != nil {
						return nil, err
					}
					if !oneway {
						linkId++
						if _, err := net.AddLink(strconv.Itoa(linkId), to, from, length, def.freespeed, def.capacity, def.lanes, def.modes...); err != nil {
							return nil, err
						}
					}

					segStart = i
					length = 0.0
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	scanner.Close()

	slog.Info(fmt.Sprintf("network built, %d nodes, %d links", len(net.Nodes), len(net.Links)))

	return net, nil
}
