// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package schedule

import (
	"math"

	"github.com/patrickbr/ptmapper/network"
)

// ShapePoint is one vertex of a route shape, in planar coordinates
type ShapePoint struct {
	X    float64
	Y    float64
	Dist float64
}

// RouteShape is the intended physical trajectory of one or more transit
// routes, as an ordered polyline
type RouteShape struct {
	Id     string
	Points []ShapePoint
}

// MinDist is the minimum distance from (x, y) to the shape polyline
func (s *RouteShape) MinDist(x float64, y float64) float64 {
	if len(s.Points) == 0 {
		return math.Inf(1)
	}
	if len(s.Points) == 1 {
		return network.Dist(x, y, s.Points[0].X, s.Points[0].Y)
	}

	minDist := math.Inf(1)
	for i := 1; i < len(s.Points); i++ {
		d := network.DistToSegment(x, y, s.Points[i-1].X, s.Points[i-1].Y, s.Points[i].X, s.Points[i].Y)
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

// MinDistToLink is the distance of a link to the shape, taken as the
// larger of the two endpoint distances so that a link leaving the shape
// corridor at either end is penalized
func (s *RouteShape) MinDistToLink(l *network.Link) float64 {
	df := s.MinDist(l.From.X, l.From.Y)
	dt := s.MinDist(l.To.X, l.To.Y)
	if df > dt {
		return df
	}
	return dt
}
