// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"testing"

	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
)

func prepare(t *testing.T, cfg *Config, coords ...[2]float64) (*CandidateGenerator, *schedule.Schedule) {
	net := gridNetwork()
	sched := busSchedule(coords...)

	cg := NewCandidateGenerator(cfg, net)
	if err := cg.Prepare(sched); err != nil {
		t.Error(err)
		return nil, nil
	}
	return cg, sched
}

func TestCandidateOrdering(t *testing.T) {
	cfg := testConfig()
	cg, _ := prepare(t, cfg, [2]float64{50, 0})
	if cg == nil {
		return
	}

	cands := cg.Candidates("s1", "bus")
	if len(cands) < 2 {
		t.Error(cands)
		return
	}

	// ascending distance, ties by link id
	for i := 1; i < len(cands); i++ {
		if cands[i].Distance < cands[i-1].Distance {
			t.Error("candidates not ordered by distance")
		}
		if cands[i].Distance == cands[i-1].Distance && cands[i].Link.Id < cands[i-1].Link.Id {
			t.Error("ties not ordered by link id")
		}
	}

	// the two directions of the link under the stop come first
	if cands[0].Distance != 0 || cands[1].Distance != 0 {
		t.Error(cands[0], cands[1])
	}
}

func TestCandidateCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNClosestLinks = 3
	cg, _ := prepare(t, cfg, [2]float64{50, 0})
	if cg == nil {
		return
	}

	cands := cg.Candidates("s1", "bus")
	if len(cands) != 3 {
		t.Error(len(cands))
	}
}

func TestCandidateRadiusGrowth(t *testing.T) {
	// nothing within 100 m of (350,100), but links within 200 m
	cfg := testConfig()
	cg, _ := prepare(t, cfg, [2]float64{350, 100})
	if cg == nil {
		return
	}

	cands := cg.Candidates("s1", "bus")
	if len(cands) == 0 {
		t.Error("radius growth found no candidates")
		return
	}

	for _, c := range cands {
		if c.Artificial {
			t.Error("artificial candidate despite reachable links")
		}
	}
}

func TestCandidateArtificialFallback(t *testing.T) {
	cfg := testConfig()
	cg, _ := prepare(t, cfg, [2]float64{5000, 5000})
	if cg == nil {
		return
	}

	cands := cg.Candidates("s1", "bus")
	if len(cands) != 1 || !cands[0].Artificial {
		t.Error(cands)
		return
	}

	if cands[0].Link.Id != "pt_s1" || !cands[0].Link.IsLoop() {
		t.Error(cands[0].Link)
	}

	if !cands[0].Link.HasMode(ArtificialLinkMode) || !cands[0].Link.HasMode("bus") {
		t.Error(cands[0].Link.Modes)
	}

	if len(cg.ArtificialLinks()) != 1 {
		t.Error(cg.ArtificialLinks())
	}
}

func TestCandidateNoArtificial(t *testing.T) {
	cfg := testConfig()
	cfg.UseArtificialLinks = false
	cg, _ := prepare(t, cfg, [2]float64{5000, 5000})
	if cg == nil {
		return
	}

	if len(cg.Candidates("s1", "bus")) != 0 {
		t.Error(cg.Candidates("s1", "bus"))
	}
}

func TestCandidateLoopLinks(t *testing.T) {
	net := gridNetwork()
	n := net.Nodes["00"]
	net.AddLink("loop", n, n, 1, 10, 1000, 1, "bus")

	sched := busSchedule([2]float64{0, 0})

	cfg := testConfig()
	cg := NewCandidateGenerator(cfg, net)
	if err := cg.Prepare(sched); err != nil {
		t.Error(err)
		return
	}

	for _, c := range cg.Candidates("s1", "bus") {
		if c.Link.Id == "loop" {
			t.Error("loop link must not be a candidate by default")
		}
	}

	cfg2 := testConfig()
	cfg2.CandidateCanBeLoopLink = true
	cg2 := NewCandidateGenerator(cfg2, gridNetworkWithLoop())
	if err := cg2.Prepare(busSchedule([2]float64{0, 0})); err != nil {
		t.Error(err)
		return
	}

	found := false
	for _, c := range cg2.Candidates("s1", "bus") {
		if c.Link.Id == "loop" {
			found = true
		}
	}
	if !found {
		t.Error("loop link should be a candidate when allowed")
	}
}

func gridNetworkWithLoop() *network.Network {
	net := gridNetwork()
	n := net.Nodes["00"]
	net.AddLink("loop", n, n, 1, 10, 1000, 1, "bus")
	return net
}
