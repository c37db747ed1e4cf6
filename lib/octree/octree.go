// Copyright 2025 The Octquant Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package octree implements adaptive octree color quantization: reducing a
// true-color image to a bounded-size palette.
//
// A Tree partitions the RGB cube by successive bit planes, one per depth.
// Every source pixel is inserted once, in a deterministic order. A single
// call to Finalize then shrinks the tree, merging the most recently created
// deepest nodes first, until it fits the requested palette size and returns
// the palette. After that, ResolveIndex maps a color to its palette slot by
// walking the same partition path used for insertion.
//
// The two phases are strict: Insert calls must all precede the one Finalize
// call. A Tree is not safe for concurrent use.
package octree

import (
	"errors"
	"image/color"
)

var (
	ErrAlreadyFinalized = errors.New("octree: already finalized")
	ErrBadArgument      = errors.New("octree: bad argument")
	ErrIncompletePath   = errors.New("octree: incomplete partition path")
)

// Builder is the two-phase contract shared by a Tree and a FixedPalette:
// any number of Insert calls followed by exactly one Finalize call.
type Builder interface {
	Insert(c color.Color)
	InsertRGB(r uint8, g uint8, b uint8)
	Finalize(targetCount int) (color.Palette, error)
}

var (
	_ Builder = (*Tree)(nil)
	_ Builder = (*FixedPalette)(nil)
)

// MaxDepthFor returns the tree depth used for a requested palette size:
// ceil(log2(requestedColors)), clamped to the range [1, 8].
func MaxDepthFor(requestedColors int) int {
	d := 0
	for (d < 8) && ((1 << d) < requestedColors) {
		d++
	}
	return max(1, d)
}

// Tree is a color octree. The zero value is not usable; call New.
type Tree struct {
	// nodes is the arena. nodes[0] is unused so that the zero handle means
	// "no node". nodes[1] is the root.
	nodes []node

	maxDepth  uint8
	leafCount int

	// reducible holds, per depth, the head of a LIFO chain of non-leaf
	// nodes linked through node.next.
	reducible [9]handle

	// lastRGB and lastNode cache the leaf touched by the previous Insert.
	lastRGB  [3]uint8
	lastNode handle

	reduceSteps int
	finalized   bool
}

// New returns an empty Tree whose depth suits a palette of requestedColors
// entries.
func New(requestedColors int) (*Tree, error) {
	if requestedColors < 1 {
		return nil, ErrBadArgument
	}
	t := &Tree{
		nodes:    make([]node, 2, 1024),
		maxDepth: uint8(MaxDepthFor(requestedColors)),
	}
	return t, nil
}

// MaxDepth returns the depth at which nodes are always leaves.
func (t *Tree) MaxDepth() int {
	return int(t.maxDepth)
}

// LeafCount returns the number of leaves reachable from the root.
func (t *Tree) LeafCount() int {
	return t.leafCount
}

// ReduceSteps returns the number of reductions performed by Finalize.
func (t *Tree) ReduceSteps() int {
	return t.reduceSteps
}

// Finalized returns whether Finalize has been called.
func (t *Tree) Finalized() bool {
	return t.finalized
}

// Insert adds one pixel. Alpha is ignored and premultiplied colors are
// converted back to straight (non-premultiplied) R, G and B.
//
// Insert is a no-op once the Tree is finalized.
func (t *Tree) Insert(c color.Color) {
	r, g, b := rgb8(c)
	t.InsertRGB(r, g, b)
}

// InsertRGB adds one pixel given as 8-bit channels.
//
// Insert is a no-op once the Tree is finalized.
func (t *Tree) InsertRGB(r uint8, g uint8, b uint8) {
	if t.finalized {
		return
	}
	rgb := [3]uint8{r, g, b}
	if (t.lastNode != 0) && (t.lastRGB == rgb) {
		t.nodes[t.lastNode].increment(rgb)
		return
	}
	t.insert(rootHandle, rgb)
}

// Finalize shrinks the Tree until it has at most (targetCount - 1) leaves or
// nothing below the root is left to merge, assigns palette indexes to the
// leaves in pre-order and returns a palette of exactly targetCount colors.
//
// Each populated entry is its leaf's mean color, fully opaque. Entries
// beyond LeafCount are the zero color.RGBA, which is transparent black, so
// callers wanting only real colors should slice the result to LeafCount.
//
// Finalize is destructive and may only be called once.
func (t *Tree) Finalize(targetCount int) (color.Palette, error) {
	if targetCount < 1 {
		return nil, ErrBadArgument
	} else if t.finalized {
		return nil, ErrAlreadyFinalized
	}
	t.finalized = true

	for t.leafCount > (targetCount - 1) {
		if !t.reduceStep() {
			break
		}
	}

	// With every chain exhausted, a shallow tree (a maximum depth of 1 holds
	// up to 8 leaves) can still have more leaves than palette slots. Only
	// then is the root merged.
	if t.leafCount > targetCount {
		t.leafCount -= t.reduce(rootHandle)
		t.reduceSteps++
		t.lastNode = 0
	}

	palette := make(color.Palette, targetCount)
	for i := range palette {
		palette[i] = color.RGBA{}
	}
	t.buildPalette(rootHandle, palette, 0)
	return palette, nil
}

// reduceStep merges the children of the most recently created non-leaf node
// at the deepest depth that has one. The root is never a candidate. It
// returns false once every reducible chain is empty.
func (t *Tree) reduceStep() bool {
	depth := int(t.maxDepth) - 1
	for (depth > 0) && (t.reducible[depth] == 0) {
		depth--
	}
	if depth == 0 {
		return false
	}

	h := t.reducible[depth]
	t.reducible[depth] = t.nodes[h].next
	t.nodes[h].next = 0

	t.leafCount -= t.reduce(h)
	t.reduceSteps++
	t.lastNode = 0
	return true
}

// ResolveIndex returns the palette index of the leaf that c falls into.
//
// It returns ErrIncompletePath if the Tree is not finalized or if c's
// partition path leads to an absent child. Either case is a caller bug: no
// valid index exists.
func (t *Tree) ResolveIndex(c color.Color) (int, error) {
	r, g, b := rgb8(c)
	return t.ResolveIndexRGB(r, g, b)
}

// ResolveIndexRGB is like ResolveIndex but takes 8-bit channels.
func (t *Tree) ResolveIndexRGB(r uint8, g uint8, b uint8) (int, error) {
	if !t.finalized {
		return 0, ErrIncompletePath
	}
	return t.resolveIndex(rootHandle, [3]uint8{r, g, b})
}

// rgb8 converts c to straight 8-bit R, G and B, dropping alpha.
func rgb8(c color.Color) (uint8, uint8, uint8) {
	switch c := c.(type) {
	case color.NRGBA:
		return c.R, c.G, c.B
	case color.RGBA:
		if (c.A == 0x00) || (c.A == 0xFF) {
			return c.R, c.G, c.B
		}
	}
	r, g, b, a := c.RGBA()
	if (a != 0x0000) && (a != 0xFFFF) {
		r = (r * 0xFFFF) / a
		g = (g * 0xFFFF) / a
		b = (b * 0xFFFF) / a
	}
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}
