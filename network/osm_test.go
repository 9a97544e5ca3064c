// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package network

import (
	"testing"
)

func TestWayClass(t *testing.T) {
	oc := OsmConverter{}

	def, ok := oc.wayClass(map[string]string{"highway": "primary"})
	if !ok {
		t.Error("primary should be kept")
	}
	if def.freespeed != 22.22 || def.oneway {
		t.Error(def)
	}

	def, ok = oc.wayClass(map[string]string{"highway": "motorway"})
	if !ok || !def.oneway {
		t.Error(def)
	}

	if _, ok := oc.wayClass(map[string]string{"highway": "footway"}); ok {
		t.Error("footway should be dropped")
	}

	def, ok = oc.wayClass(map[string]string{"railway": "rail"})
	if !ok {
		t.Error("rail should be kept")
	}
	if len(def.modes) != 1 || def.modes[0] != "rail" {
		t.Error(def.modes)
	}

	if _, ok := oc.wayClass(map[string]string{"building": "yes"}); ok {
		t.Error("non-way tags should be dropped")
	}
}

func TestWayClassFilter(t *testing.T) {
	oc := OsmConverter{KeepHighways: map[string]bool{"primary": true}}

	if _, ok := oc.wayClass(map[string]string{"highway": "residential"}); ok {
		t.Error("residential should be filtered out")
	}

	if _, ok := oc.wayClass(map[string]string{"highway": "primary"}); !ok {
		t.Error("primary should pass the filter")
	}
}
