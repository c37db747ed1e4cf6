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

// FixedPalette is a Builder whose palette is dictated by the caller, such as
// a palette reused from a previous frame. Insert does nothing and Finalize
// returns that palette verbatim.
type FixedPalette struct {
	palette color.Palette
}

// NewFixedPalette returns a FixedPalette for p. It does not copy p.
func NewFixedPalette(p color.Palette) *FixedPalette {
	return &FixedPalette{palette: p}
}

// Insert is a no-op.
func (f *FixedPalette) Insert(c color.Color) {}

// InsertRGB is a no-op.
func (f *FixedPalette) InsertRGB(r uint8, g uint8, b uint8) {}

// Finalize returns the fixed palette unchanged, regardless of targetCount.
func (f *FixedPalette) Finalize(targetCount int) (color.Palette, error) {
	return f.palette, nil
}
