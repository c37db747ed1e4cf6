// Copyright 2025 The Octquant Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package quantize

import (
	"image"
	"image/color"
)

// makeExtract returns a closure that extracts the row y of src, writing 3
// bytes (R, G, B) per pixel to rgb. rgb must hold 3*src.Bounds().Dx() bytes.
//
// Alpha is dropped. Premultiplied colors are first converted back to
// non-premultiplied ones, so that a half-transparent red still counts as red.
func makeExtract(src image.Image) func(rgb []byte, y int) {
	bounds := src.Bounds()

	if srcNRGBA, ok := src.(*image.NRGBA); ok {
		return func(rgb []byte, y int) {
			i := srcNRGBA.PixOffset(bounds.Min.X, y)
			pix := srcNRGBA.Pix[i : i+(4*bounds.Dx())]
			for x := 0; x < bounds.Dx(); x++ {
				rgb[(3*x)+0] = pix[(4*x)+0]
				rgb[(3*x)+1] = pix[(4*x)+1]
				rgb[(3*x)+2] = pix[(4*x)+2]
			}
		}

	} else if srcRGBA, ok := src.(*image.RGBA); ok {
		return func(rgb []byte, y int) {
			i := srcRGBA.PixOffset(bounds.Min.X, y)
			pix := srcRGBA.Pix[i : i+(4*bounds.Dx())]
			for x := 0; x < bounds.Dx(); x++ {
				r := uint32(pix[(4*x)+0])
				g := uint32(pix[(4*x)+1])
				b := uint32(pix[(4*x)+2])
				if a := uint32(pix[(4*x)+3]); (a != 0x00) && (a != 0xFF) {
					r = (r * 0xFF) / a
					g = (g * 0xFF) / a
					b = (b * 0xFF) / a
				}
				rgb[(3*x)+0] = uint8(r)
				rgb[(3*x)+1] = uint8(g)
				rgb[(3*x)+2] = uint8(b)
			}
		}

	} else if srcPaletted, ok := src.(*image.Paletted); ok {
		lut := make([][3]byte, len(srcPaletted.Palette))
		for i, c := range srcPaletted.Palette {
			lut[i] = nonPremultiplied(c)
		}
		return func(rgb []byte, y int) {
			i := srcPaletted.PixOffset(bounds.Min.X, y)
			pix := srcPaletted.Pix[i : i+bounds.Dx()]
			for x, p := range pix {
				// Out-of-range indexes are black, as with Paletted.At.
				c := [3]byte{}
				if int(p) < len(lut) {
					c = lut[p]
				}
				rgb[(3*x)+0] = c[0]
				rgb[(3*x)+1] = c[1]
				rgb[(3*x)+2] = c[2]
			}
		}

	} else if srcYCbCr, ok := src.(*image.YCbCr); ok {
		return func(rgb []byte, y int) {
			for x := 0; x < bounds.Dx(); x++ {
				yi := srcYCbCr.YOffset(bounds.Min.X+x, y)
				ci := srcYCbCr.COffset(bounds.Min.X+x, y)
				r, g, b := color.YCbCrToRGB(srcYCbCr.Y[yi], srcYCbCr.Cb[ci], srcYCbCr.Cr[ci])
				rgb[(3*x)+0] = r
				rgb[(3*x)+1] = g
				rgb[(3*x)+2] = b
			}
		}

	} else if srcRGBA64, ok := src.(image.RGBA64Image); ok {
		return func(rgb []byte, y int) {
			for x := 0; x < bounds.Dx(); x++ {
				c := srcRGBA64.RGBA64At(bounds.Min.X+x, y)
				if (c.A != 0x0000) && (c.A != 0xFFFF) {
					c.R = uint16((uint32(c.R) * 0xFFFF) / uint32(c.A))
					c.G = uint16((uint32(c.G) * 0xFFFF) / uint32(c.A))
					c.B = uint16((uint32(c.B) * 0xFFFF) / uint32(c.A))
				}
				rgb[(3*x)+0] = uint8(c.R >> 8)
				rgb[(3*x)+1] = uint8(c.G >> 8)
				rgb[(3*x)+2] = uint8(c.B >> 8)
			}
		}
	}

	return func(rgb []byte, y int) {
		for x := 0; x < bounds.Dx(); x++ {
			c := nonPremultiplied(src.At(bounds.Min.X+x, y))
			rgb[(3*x)+0] = c[0]
			rgb[(3*x)+1] = c[1]
			rgb[(3*x)+2] = c[2]
		}
	}
}

func nonPremultiplied(c color.Color) [3]byte {
	r, g, b, a := c.RGBA()
	if (a != 0x0000) && (a != 0xFFFF) {
		r = (r * 0xFFFF) / a
		g = (g * 0xFFFF) / a
		b = (b * 0xFFFF) / a
	}
	return [3]byte{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}
