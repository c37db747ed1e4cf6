// Copyright 2025 The Octquant Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package quantize converts true-color images to paletted ones.
//
// It drives an octree.Tree in two passes. The first pass inserts every pixel
// in raster order (top to bottom, left to right), which is what makes the
// output reproducible: insertion order decides which nodes get merged first.
// The palette is then finalized once. The second pass maps each pixel to its
// palette index, either by walking the finalized tree or, when dithering, by
// Floyd-Steinberg error diffusion with a nearest-color search.
package quantize

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"

	"github.com/nigeltao/octquant/lib/octree"
)

var (
	ErrBadArgument = errors.New("quantize: bad argument")
)

// DefaultNumColors is the palette size used when Options.NumColors is zero.
const DefaultNumColors = 256

// Options are optional arguments to Paletted. The zero value is valid and
// means to use the default configuration.
type Options struct {
	// NumColors is the palette size, between 1 and 256 inclusive. If zero,
	// the default is DefaultNumColors. It is ignored when Palette is set.
	NumColors int

	// Dither is whether to apply Floyd-Steinberg error diffusion.
	Dither bool

	// Palette, if non-nil, is used verbatim instead of one derived from the
	// image's content. Pixels map to their nearest palette color.
	Palette color.Palette
}

// Stats describes what Paletted did.
type Stats struct {
	Pixels      int
	Leaves      int
	ReduceSteps int
}

// Paletted returns a paletted copy of src, with the same bounds.
//
// options may be nil, which means to use the default configuration.
func Paletted(src image.Image, options *Options) (*image.Paletted, error) {
	dst, _, err := PalettedWithStats(src, options)
	return dst, err
}

// PalettedWithStats is like Paletted but also returns statistics.
func PalettedWithStats(src image.Image, options *Options) (*image.Paletted, Stats, error) {
	if src == nil {
		return nil, Stats{}, ErrBadArgument
	}

	numColors, dither, fixed := DefaultNumColors, false, color.Palette(nil)
	if options != nil {
		if options.NumColors != 0 {
			numColors = options.NumColors
		}
		dither = options.Dither
		fixed = options.Palette
	}

	var (
		builder octree.Builder
		tree    *octree.Tree
	)
	if fixed != nil {
		if (len(fixed) == 0) || (len(fixed) > 256) {
			return nil, Stats{}, ErrBadArgument
		}
		numColors = len(fixed)
		builder = octree.NewFixedPalette(fixed)
	} else if (numColors < 1) || (numColors > 256) {
		return nil, Stats{}, ErrBadArgument
	} else {
		t, err := octree.New(numColors)
		if err != nil {
			return nil, Stats{}, err
		}
		builder, tree = t, t
	}

	b := src.Bounds()
	stats := Stats{Pixels: b.Dx() * b.Dy()}
	insertAll(builder, src)

	palette, err := builder.Finalize(numColors)
	if err != nil {
		return nil, Stats{}, err
	}
	if tree != nil {
		// Entries past the leaf count are placeholders. Leaving them out
		// stops the nearest-color search from picking them.
		stats.Leaves = tree.LeafCount()
		stats.ReduceSteps = tree.ReduceSteps()
		palette = palette[:max(1, stats.Leaves)]
	} else {
		stats.Leaves = len(palette)
	}

	dst := image.NewPaletted(b, palette)
	if dither {
		xdraw.FloydSteinberg.Draw(dst, b, src, b.Min)
	} else if tree == nil {
		xdraw.Draw(dst, b, src, b.Min, xdraw.Src)
	} else if err := resolveAll(dst, tree, src); err != nil {
		return nil, Stats{}, err
	}
	return dst, stats, nil
}

// insertAll feeds every pixel of src to builder, in raster order.
func insertAll(builder octree.Builder, src image.Image) {
	b := src.Bounds()
	extract := makeExtract(src)
	rgb := make([]byte, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		extract(rgb, y)
		for i := 0; i < len(rgb); i += 3 {
			builder.InsertRGB(rgb[i+0], rgb[i+1], rgb[i+2])
		}
	}
}

// resolveAll sets each pixel of dst to the palette index that tree resolves
// src's pixel to.
func resolveAll(dst *image.Paletted, tree *octree.Tree, src image.Image) error {
	b := src.Bounds()
	extract := makeExtract(src)
	rgb := make([]byte, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		extract(rgb, y)
		pix := dst.Pix[dst.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			i, err := tree.ResolveIndexRGB(rgb[(3*x)+0], rgb[(3*x)+1], rgb[(3*x)+2])
			if err != nil {
				return errors.Wrapf(err, "quantize: pixel (%d, %d)", b.Min.X+x, y)
			}
			pix[x] = uint8(i)
		}
	}
	return nil
}

// Quantizer implements the image/draw.Quantizer interface with an octree,
// so that it can be used as image/gif.Options.Quantizer.
type Quantizer struct{}

var _ draw.Quantizer = Quantizer{}

// Quantize appends up to cap(p) - len(p) colors derived from m to p. Only
// populated palette entries are appended.
func (Quantizer) Quantize(p color.Palette, m image.Image) color.Palette {
	n := cap(p) - len(p)
	if n < 1 {
		return p
	}
	tree, err := octree.New(n)
	if err != nil {
		return p
	}
	insertAll(tree, m)
	palette, err := tree.Finalize(n)
	if err != nil {
		return p
	}
	return append(p, palette[:tree.LeafCount()]...)
}

// PaletteError returns the mean CIE76 (L*a*b* Euclidean) distance between
// each pixel of src and the corresponding pixel of dst. Pixels that are fully
// transparent in either image are skipped. It returns 0 if no pixel counts.
//
// The two images must have the same bounds.
func PaletteError(src image.Image, dst image.Image) (float64, error) {
	if (src == nil) || (dst == nil) || (src.Bounds() != dst.Bounds()) {
		return 0, ErrBadArgument
	}
	b := src.Bounds()

	sum, n := 0.0, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c0, ok0 := colorful.MakeColor(src.At(x, y))
			c1, ok1 := colorful.MakeColor(dst.At(x, y))
			if !ok0 || !ok1 {
				continue
			}
			sum += c0.DistanceLab(c1)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}
