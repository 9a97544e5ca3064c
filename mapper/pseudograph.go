// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"errors"
	"math"
	"time"

	"github.com/patrickbr/ptmapper/network"
)

var errUnreachable = errors.New("no path through candidate graph")
var errTimeout = errors.New("route time budget exceeded")

const (
	artificialLinkLength    = 1.0
	artificialLinkFreespeed = 10.0

	// added to the attachment penalty of artificial candidates, large
	// enough that any path over real links outcompetes one over
	// artificial links at the same stop position
	artificialPenalty = 172800.0
)

// stop-attachment penalty of a candidate
func attachmentPenalty(cfg *Config, c *LinkCandidate) float64 {
	p := 0.0
	if cfg.RoutingWithCandidateDistance {
		p += c.Distance * cfg.DistanceCostFactor
	}
	if c.Artificial {
		p += artificialPenalty
	}
	return p
}

// artificialEdgeCost is the edge weight used when the router finds no
// path between two candidates and artificial links are allowed. The
// later materialization creates a direct link of this length.
func artificialEdgeCost(cfg *Config, from *LinkCandidate, to *LinkCandidate) float64 {
	length := artificialConnectionLength(cfg, from.Link, to.Link)
	if cfg.TravelCostType == TravelCostTravelTime {
		return length / artificialLinkFreespeed
	}
	return length
}

func artificialConnectionLength(cfg *Config, from *network.Link, to *network.Link) float64 {
	beeline := network.Dist(from.To.X, from.To.Y, to.From.X, to.From.Y)
	length := beeline * cfg.BeelineDistanceMaxFactor
	if length < artificialLinkLength {
		length = artificialLinkLength
	}
	return length
}

// solvePseudo finds the cheapest joint candidate assignment for one
// route. The candidate sets per stop position form the layers of a DAG
// between a virtual source and sink; relaxation in layer order is a
// shortest path in it. Ties are broken toward the lower link id.
func solvePseudo(cfg *Config, router *Router, layers [][]*LinkCandidate, deadline time.Time) ([]*LinkCandidate, error) {
	n := len(layers)
	if n == 0 {
		return nil, errUnreachable
	}
	for _, layer := range layers {
		if len(layer) == 0 {
			return nil, errUnreachable
		}
	}

	dist := make([][]float64, n)
	pred := make([][]int, n)
	for i := range layers {
		dist[i] = make([]float64, len(layers[i]))
		pred[i] = make([]int, len(layers[i]))
		for j := range dist[i] {
			dist[i][j] = math.Inf(1)
			pred[i][j] = -1
		}
	}

	// source edges
	for j, c := range layers[0] {
		dist[0][j] = attachmentPenalty(cfg, c)
	}

	for i := 1; i < n; i++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, errTimeout
		}
		for j, c := range layers[i] {
			penalty := attachmentPenalty(cfg, c)
			for k, p := range layers[i-1] {
				if math.IsInf(dist[i-1][k], 1) {
					continue
				}

				var w float64
				if p.Link == c.Link {
					// the stop is served twice on the same link
					w = penalty
				} else {
					cost, _ := router.LeastCost(p.Link, c.Link)
					if math.IsNaN(cost) {
						continue
					}
					if math.IsInf(cost, 1) {
						if !cfg.UseArtificialLinks {
							continue
						}
						cost = artificialEdgeCost(cfg, p, c)
					}
					w = penalty + cost
				}

				nd := dist[i-1][k] + w
				better := nd < dist[i][j]
				if !better && nd == dist[i][j] && pred[i][j] >= 0 && p.Link.Id < layers[i-1][pred[i][j]].Link.Id {
					better = true
				}
				if better {
					dist[i][j] = nd
					pred[i][j] = k
				}
			}
		}
	}

	// sink edges have weight 0, pick the cheapest last-layer node
	best := -1
	for j := range layers[n-1] {
		if math.IsInf(dist[n-1][j], 1) {
			continue
		}
		if best < 0 || dist[n-1][j] < dist[n-1][best] ||
			(dist[n-1][j] == dist[n-1][best] && layers[n-1][j].Link.Id < layers[n-1][best].Link.Id) {
			best = j
		}
	}
	if best < 0 {
		return nil, errUnreachable
	}

	chosen := make([]*LinkCandidate, n)
	for i, j := n-1, best; i >= 0; i-- {
		chosen[i] = layers[i][j]
		j = pred[i][j]
	}
	return chosen, nil
}
