// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package network

import (
	"math"
)

// LinkIdx stores links in a uniform grid for fast radius retrieval
type LinkIdx struct {
	cellSize float64
	xWidth   uint
	yHeight  uint
	llx      float64
	lly      float64
	urx      float64
	ury      float64
	grid     [][]map[*Link]bool
}

func NewLinkIdx(net *Network, cellSize float64) *LinkIdx {
	idx := LinkIdx{cellSize: cellSize, llx: math.Inf(1), lly: math.Inf(1), urx: math.Inf(-1), ury: math.Inf(-1)}

	for _, node := range net.Nodes {
		if node.X < idx.llx {
			idx.llx = node.X
		}
		if node.X > idx.urx {
			idx.urx = node.X
		}
		if node.Y < idx.lly {
			idx.lly = node.Y
		}
		if node.Y > idx.ury {
			idx.ury = node.Y
		}
	}

	width := idx.urx - idx.llx
	height := idx.ury - idx.lly

	if width < 0 || height < 0 {
		idx.xWidth = 0
		idx.yHeight = 0
		return &idx
	}

	idx.xWidth = uint(math.Ceil(width/idx.cellSize)) + 1
	idx.yHeight = uint(math.Ceil(height/idx.cellSize)) + 1

	idx.grid = make([][]map[*Link]bool, idx.xWidth)
	for i := uint(0); i < idx.xWidth; i++ {
		idx.grid[i] = make([]map[*Link]bool, idx.yHeight)
	}

	for _, l := range net.Links {
		idx.add(l)
	}

	return &idx
}

// add registers the link in every cell its bounding box covers
func (gi *LinkIdx) add(l *Link) {
	minx := math.Min(l.From.X, l.To.X)
	maxx := math.Max(l.From.X, l.To.X)
	miny := math.Min(l.From.Y, l.To.Y)
	maxy := math.Max(l.From.Y, l.To.Y)

	for x := gi.cellX(minx); x <= gi.cellX(maxx); x++ {
		for y := gi.cellY(miny); y <= gi.cellY(maxy); y++ {
			if gi.grid[x][y] == nil {
				gi.grid[x][y] = make(map[*Link]bool)
			}
			gi.grid[x][y][l] = true
		}
	}
}

func (gi *LinkIdx) cellX(x float64) uint {
	c := math.Floor((x - gi.llx) / gi.cellSize)
	if c < 0 {
		return 0
	}
	if uint(c) >= gi.xWidth {
		return gi.xWidth - 1
	}
	return uint(c)
}

func (gi *LinkIdx) cellY(y float64) uint {
	c := math.Floor((y - gi.lly) / gi.cellSize)
	if c < 0 {
		return 0
	}
	if uint(c) >= gi.yHeight {
		return gi.yHeight - 1
	}
	return uint(c)
}

// LinksWithin returns all links whose distance to (x, y) is at most radius
func (gi *LinkIdx) LinksWithin(x float64, y float64, radius float64) []*Link {
	ret := make([]*Link, 0)
	if gi.xWidth == 0 || gi.yHeight == 0 {
		return ret
	}

	seen := make(map[*Link]bool)
	for cx := gi.cellX(x - radius); cx <= gi.cellX(x+radius); cx++ {
		for cy := gi.cellY(y - radius); cy <= gi.cellY(y+radius); cy++ {
			for l := range gi.grid[cx][cy] {
				if seen[l] {
					continue
				}
				seen[l] = true
				if l.DistanceTo(x, y) <= radius {
					ret = append(ret, l)
				}
			}
		}
	}
	return ret
}
