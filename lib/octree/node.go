// Copyright 2025 The Octquant Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package octree

import (
	"image/color"
)

// handle indexes Tree.nodes. The zero handle means no node.
type handle uint32

const rootHandle = handle(1)

// node is one cell of the RGB cube. A node's children are owned by it. The
// next field is a non-owning link in its depth's reducible chain.
type node struct {
	pixelCount uint64
	sums       [3]uint64
	children   [8]handle
	next       handle

	// paletteIndex is only meaningful for leaves of a finalized Tree.
	paletteIndex int32

	depth uint8
	leaf  bool
}

// childSlot returns the 3-bit child index of rgb below a node at the given
// depth: one bit per channel at bit position (7 - depth), with blue as the
// high bit and red as the low bit.
func childSlot(rgb [3]uint8, depth uint8) uint8 {
	shift := 7 - depth
	return (((rgb[2] >> shift) & 1) << 2) |
		(((rgb[1] >> shift) & 1) << 1) |
		(((rgb[0] >> shift) & 1) << 0)
}

func (n *node) increment(rgb [3]uint8) {
	n.pixelCount++
	n.sums[0] += uint64(rgb[0])
	n.sums[1] += uint64(rgb[1])
	n.sums[2] += uint64(rgb[2])
}

func (n *node) hasChildren() bool {
	for _, c := range n.children {
		if c != 0 {
			return true
		}
	}
	return false
}

// mean returns the rounded average color of the pixels accumulated in n.
func (n *node) mean() color.RGBA {
	c := n.pixelCount
	if c == 0 {
		return color.RGBA{A: 0xFF}
	}
	return color.RGBA{
		R: uint8(min(0xFF, (n.sums[0]+(c/2))/c)),
		G: uint8(min(0xFF, (n.sums[1]+(c/2))/c)),
		B: uint8(min(0xFF, (n.sums[2]+(c/2))/c)),
		A: 0xFF,
	}
}

// newNode appends a node at the given depth to the arena. Nodes at the
// maximum depth are leaves. All others are pushed onto their depth's
// reducible chain.
//
// It may grow t.nodes, invalidating any *node held by the caller.
func (t *Tree) newNode(depth uint8) handle {
	h := handle(len(t.nodes))
	t.nodes = append(t.nodes, node{depth: depth})
	if n := &t.nodes[h]; depth == t.maxDepth {
		n.leaf = true
		t.leafCount++
	} else {
		n.next = t.reducible[depth]
		t.reducible[depth] = h
	}
	return h
}

// insert descends from h to the leaf for rgb, creating absent children on
// the way, and accumulates rgb into that leaf.
func (t *Tree) insert(h handle, rgb [3]uint8) {
	for {
		n := &t.nodes[h]
		if n.leaf {
			n.increment(rgb)
			t.lastRGB, t.lastNode = rgb, h
			return
		}

		i := childSlot(rgb, n.depth)
		child := n.children[i]
		if child == 0 {
			child = t.newNode(n.depth + 1)
			t.nodes[h].children[i] = child
		}
		h = child
	}
}

// reduce folds the children of h into h, drops them and makes h a leaf. It
// returns the change in leaf count, which is the number of children minus
// one.
//
// Every child must be a leaf: reduceStep always picks the deepest reducible
// depth, so deeper non-leaf nodes have already been reduced.
func (t *Tree) reduce(h handle) int {
	n := &t.nodes[h]
	numChildren := 0
	for i, c := range n.children {
		if c == 0 {
			continue
		}
		child := &t.nodes[c]
		n.pixelCount += child.pixelCount
		n.sums[0] += child.sums[0]
		n.sums[1] += child.sums[1]
		n.sums[2] += child.sums[2]
		n.children[i] = 0
		numChildren++
	}
	n.leaf = true
	return numChildren - 1
}

// buildPalette walks the subtree at h in pre-order, visiting children in
// ascending slot order. Each leaf's mean color is written to palette[cursor]
// and cursor becomes that leaf's palette index. It returns the next cursor.
func (t *Tree) buildPalette(h handle, palette color.Palette, cursor int) int {
	n := &t.nodes[h]
	if n.leaf {
		palette[cursor] = n.mean()
		n.paletteIndex = int32(cursor)
		return cursor + 1
	}
	for _, c := range n.children {
		if c != 0 {
			cursor = t.buildPalette(c, palette, cursor)
		}
	}
	return cursor
}

// resolveIndex descends from h along rgb's partition path and returns the
// palette index of the leaf it reaches.
func (t *Tree) resolveIndex(h handle, rgb [3]uint8) (int, error) {
	for {
		n := &t.nodes[h]
		if n.leaf {
			return int(n.paletteIndex), nil
		}
		h = n.children[childSlot(rgb, n.depth)]
		if h == 0 {
			return 0, ErrIncompletePath
		}
	}
}
