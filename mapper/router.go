// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"container/heap"
	"math"
	"sync"

	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
	"golang.org/x/exp/slices"
)

type costFunc func(l *network.Link) float64

func linkLengthCost(l *network.Link) float64 {
	return l.Length
}

func travelTimeCost(l *network.Link) float64 {
	return l.Length / l.Freespeed
}

// sptTree is the label state of one exhausted single-source run
type sptTree struct {
	dist []float64
	pred []*network.Link
}

// Router answers least-cost-path queries between links on the
// mode-restricted subgraph for one schedule transport mode. Node ids are
// interned to ints at construction, per-source label trees are memoized
// behind a read/write lock.
type Router struct {
	cost    costFunc
	modes   map[string]bool
	nodeIdx map[string]int
	nodes   []*network.Node
	out     [][]*network.Link

	mu    sync.RWMutex
	cache map[int]*sptTree
}

func newRouter(net *network.Network, netModes map[string]bool, cost costFunc) *Router {
	r := &Router{
		cost:    cost,
		modes:   netModes,
		nodeIdx: make(map[string]int, len(net.Nodes)),
		cache:   make(map[int]*sptTree),
	}

	for _, id := range net.SortedNodeIds() {
		r.nodeIdx[id] = len(r.nodes)
		r.nodes = append(r.nodes, net.Nodes[id])
	}

	r.out = make([][]*network.Link, len(r.nodes))
	for i, node := range r.nodes {
		links := make([]*network.Link, 0, len(node.OutLinks))
		for _, l := range node.OutLinks {
			if l.HasAnyMode(netModes) {
				links = append(links, l)
			}
		}
		slices.SortFunc(links, func(a, b *network.Link) int {
			if a.Id < b.Id {
				return -1
			} else if a.Id > b.Id {
				return 1
			}
			return 0
		})
		r.out[i] = links
	}

	return r
}

// LeastCost returns the cost and link path of the cheapest walk from
// src's to-node to dst's from-node. The cost includes half the traversal
// cost of both endpoint links. An infinite cost and nil path is returned
// when no walk exists or when an endpoint link permits none of the
// router's modes.
func (r *Router) LeastCost(src *network.Link, dst *network.Link) (float64, []*network.Link) {
	if !src.HasAnyMode(r.modes) || !dst.HasAnyMode(r.modes) {
		return math.Inf(1), nil
	}

	from, okFrom := r.nodeIdx[src.To.Id]
	to, okTo := r.nodeIdx[dst.From.Id]
	if !okFrom || !okTo {
		return math.Inf(1), nil
	}

	tree := r.tree(from)
	if math.IsInf(tree.dist[to], 1) {
		return math.Inf(1), nil
	}

	path := make([]*network.Link, 0)
	for at := to; at != from; {
		l := tree.pred[at]
		path = append(path, l)
		at = r.nodeIdx[l.From.Id]
	}
	slices.Reverse(path)

	cost := tree.dist[to] + (r.cost(src)+r.cost(dst))/2.0
	return cost, path
}

func (r *Router) tree(from int) *sptTree {
	r.mu.RLock()
	tree, ok := r.cache[from]
	r.mu.RUnlock()
	if ok {
		return tree
	}

	tree = r.dijkstra(from)

	r.mu.Lock()
	if cached, ok := r.cache[from]; ok {
		tree = cached
	} else {
		r.cache[from] = tree
	}
	r.mu.Unlock()

	return tree
}

// dijkstra exhausts the subgraph from one source node. Equal-cost labels
// are broken toward the lower incoming link id to keep results
// deterministic.
func (r *Router) dijkstra(from int) *sptTree {
	n := len(r.nodes)
	tree := &sptTree{
		dist: make([]float64, n),
		pred: make([]*network.Link, n),
	}
	for i := range tree.dist {
		tree.dist[i] = math.Inf(1)
	}
	tree.dist[from] = 0

	pq := newPriorityQueue(n)
	heap.Push(pq, &pqItem{value: from, priority: 0})

	for pq.Len() > 0 {
		u := heap.Pop(pq).(*pqItem).value

		for _, l := range r.out[u] {
			c := r.cost(l)
			if c < 0 || math.IsInf(c, 0) || math.IsNaN(c) {
				continue
			}
			v := r.nodeIdx[l.To.Id]
			nd := tree.dist[u] + c

			better := nd < tree.dist[v]
			if !better && nd == tree.dist[v] && tree.pred[v] != nil && l.Id < tree.pred[v].Id {
				better = true
			}
			if !better {
				continue
			}

			tree.dist[v] = nd
			tree.pred[v] = l
			if pos := pq.Pqids[v]; pos >= 0 {
				pq.Items[pos].priority = nd
				heap.Fix(pq, pos)
			} else {
				heap.Push(pq, &pqItem{value: v, priority: nd})
			}
		}
	}

	return tree
}

// ScheduleRouters is the router family of a mapping batch, one router
// per schedule mode, plus one per (mode, shape) pair when the schedule
// carries shapes
type ScheduleRouters struct {
	cfg   *Config
	net   *network.Network
	sched *schedule.Schedule

	mu      sync.Mutex
	routers map[string]*Router
}

func NewScheduleRouters(cfg *Config, net *network.Network, sched *schedule.Schedule) *ScheduleRouters {
	return &ScheduleRouters{
		cfg:     cfg,
		net:     net,
		sched:   sched,
		routers: make(map[string]*Router),
	}
}

func (sr *ScheduleRouters) baseCost() costFunc {
	if sr.cfg.TravelCostType == TravelCostTravelTime {
		return travelTimeCost
	}
	return linkLengthCost
}

// RouterFor returns (and lazily creates) the router for a transit route
func (sr *ScheduleRouters) RouterFor(route *schedule.TransitRoute) *Router {
	key := route.Mode
	shape := sr.sched.Shape(route)
	if shape != nil {
		key = route.Mode + "\x00" + shape.Id
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	if r, ok := sr.routers[key]; ok {
		return r
	}

	cost := sr.baseCost()
	if shape != nil {
		cost = shapeBiasedCost(cost, shape, sr.cfg.ShapeTolerance, sr.cfg.ShapeMaxPenalty)
	}

	r := newRouter(sr.net, sr.cfg.NetworkModes(route.Mode), cost)
	sr.routers[key] = r
	return r
}
