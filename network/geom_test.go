// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package network

import (
	"math"
	"testing"
)

func TestDist(t *testing.T) {
	if dist(0, 0, 3, 4) != 5 {
		t.Error(dist(0, 0, 3, 4))
	}

	if dist(1, 1, 1, 1) != 0 {
		t.Error(dist(1, 1, 1, 1))
	}
}

func TestSnapTo(t *testing.T) {
	x, y := snapTo(50, 50, 0, 0, 100, 0)

	if x != 50 || y != 0 {
		t.Error(x, y)
	}

	// beyond segment end
	x, y = snapTo(150, 50, 0, 0, 100, 0)

	if x != 100 || y != 0 {
		t.Error(x, y)
	}

	// before segment start
	x, y = snapTo(-50, 50, 0, 0, 100, 0)

	if x != 0 || y != 0 {
		t.Error(x, y)
	}

	// degenerate segment
	x, y = snapTo(10, 10, 5, 5, 5, 5)

	if x != 5 || y != 5 {
		t.Error(x, y)
	}
}

func TestPerpendicularDist(t *testing.T) {
	if perpendicularDist(50, 50, 0, 0, 100, 0) != 50 {
		t.Error(perpendicularDist(50, 50, 0, 0, 100, 0))
	}

	if perpendicularDist(200, 0, 0, 0, 100, 0) != 100 {
		t.Error(perpendicularDist(200, 0, 0, 0, 100, 0))
	}
}

func TestWebMercRoundTrip(t *testing.T) {
	lat, lng := 47.3769, 8.5417

	x, y := LatLngToWebMerc(lat, lng)
	lat2, lng2 := WebMercToLatLng(x, y)

	if math.Abs(lat-lat2) > 0.00001 {
		t.Error(lat2)
	}

	if math.Abs(lng-lng2) > 0.00001 {
		t.Error(lng2)
	}
}
