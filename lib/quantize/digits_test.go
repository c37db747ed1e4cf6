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
	"image/draw"
	"math"
	"testing"

	"go.viam.com/test"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// renderDigits draws two anti-aliased digits over a radial glow and a
// gradient, giving an image with many colors and soft edges.
func renderDigits(tb testing.TB, digits string) *image.RGBA {
	f, err := opentype.Parse(goitalic.TTF)
	test.That(tb, err, test.ShouldBeNil)
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    200,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	test.That(tb, err, test.ShouldBeNil)

	r := image.Rect(0, 0, 256, 256)

	digit0 := image.NewRGBA(r)
	d := font.Drawer{Dst: digit0, Src: image.White, Face: face, Dot: fixed.P(4, 224)}
	d.DrawString(digits[0:1])
	for i := range digit0.Pix {
		digit0.Pix[i] ^= 0xFF
	}

	digit1 := image.NewRGBA(r)
	d = font.Drawer{Dst: digit1, Src: image.White, Face: face, Dot: fixed.P(4+112, 224-48)}
	d.DrawString(digits[1:2])

	glow := image.NewRGBA(r)
	const cx, cy = 30, 50
	for y := 0; y < 256; y++ {
		dy := y - cy
		for x := 0; x < 256; x++ {
			dx := x - cx
			distance := int64(math.Sqrt(float64((dx * dx) + (dy * dy))))
			v := 0xFF - uint8(max(0x00, min(0xFF, distance)))
			glow.SetRGBA(x, y, color.RGBA{v, v / 3, 0, v})
		}
	}

	grad := image.NewRGBA(r)
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			grad.SetRGBA(x, y, color.RGBA{0x00, uint8(x), uint8(y), 0xFF})
		}
	}

	m := image.NewRGBA(r)
	draw.DrawMask(m, r, glow, r.Min, digit0, r.Min, draw.Over)
	draw.DrawMask(m, r, grad, r.Min, digit1, r.Min, draw.Over)
	return m
}

// toNRGBA64 returns an opaque 16-bit copy of m.
func toNRGBA64(m *image.RGBA) *image.NRGBA64 {
	b := m.Bounds()
	ret := image.NewNRGBA64(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.RGBAAt(x, y)
			ret.SetNRGBA64(x, y, color.NRGBA64{
				uint16(c.R) * 0x101,
				uint16(c.G) * 0x101,
				uint16(c.B) * 0x101,
				0xFFFF,
			})
		}
	}
	return ret
}

func TestDigits(t *testing.T) {
	for _, digits := range []string{"36", "49"} {
		t.Run(digits, func(t *testing.T) {
			src := renderDigits(t, digits)

			meanErrors := []float64{}
			for _, numColors := range []int{4, 16, 64, 256} {
				dst, stats, err := PalettedWithStats(src, &Options{NumColors: numColors})
				test.That(t, err, test.ShouldBeNil)
				test.That(t, len(dst.Palette), test.ShouldBeLessThanOrEqualTo, numColors)
				test.That(t, stats.ReduceSteps, test.ShouldBeGreaterThan, 0)

				e, err := PaletteError(src, dst)
				test.That(t, err, test.ShouldBeNil)
				meanErrors = append(meanErrors, e)
			}
			test.That(t, meanErrors[3], test.ShouldBeLessThan, meanErrors[0])
		})
	}
}

func TestDigitsPixelFormatsAgree(t *testing.T) {
	// Forcing opacity makes the premultiplied 8-bit values equal the
	// straight 16-bit ones.
	src := renderDigits(t, "49")
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xFF
	}

	dst8, err := Paletted(src, &Options{NumColors: 32})
	test.That(t, err, test.ShouldBeNil)
	dst16, err := Paletted(toNRGBA64(src), &Options{NumColors: 32})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dst16.Palette, test.ShouldResemble, dst8.Palette)
	test.That(t, dst16.Pix, test.ShouldResemble, dst8.Pix)
}
