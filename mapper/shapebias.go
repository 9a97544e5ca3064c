// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"sync"

	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
)

// shapeBiasedCost wraps a base cost with a multiplicative penalty that
// grows with the link's distance to the shape. Links inside the
// tolerance band keep their base cost, the penalty factor is capped at
// maxPenalty. Per-link factors are memoized since the router revisits
// links across queries.
func shapeBiasedCost(base costFunc, shape *schedule.RouteShape, tolerance float64, maxPenalty float64) costFunc {
	var mu sync.Mutex
	factors := make(map[*network.Link]float64)

	if tolerance <= 0 {
		tolerance = 1.0
	}

	return func(l *network.Link) float64 {
		mu.Lock()
		f, ok := factors[l]
		if !ok {
			d := shape.MinDistToLink(l)
			if d <= tolerance {
				f = 1.0
			} else {
				f = 1.0 + (d-tolerance)/tolerance
				if f > maxPenalty {
					f = maxPenalty
				}
			}
			factors[l] = f
		}
		mu.Unlock()

		return base(l) * f
	}
}
