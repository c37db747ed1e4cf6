// Copyright 2025 The Octquant Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package act implements the ACT (Adobe Color Table) palette file format.
//
// An ACT file is 256 RGB triplets (768 bytes), optionally followed by a 4
// byte trailer: a big-endian uint16 number of colors in use and a
// big-endian uint16 transparent color index (0xFFFF meaning none).
package act

import (
	"image/color"
	"io"

	"github.com/pkg/errors"
)

const (
	// MaxColors is the number of RGB triplets in every ACT file.
	MaxColors = 256

	tableSize   = 3 * MaxColors
	trailerSize = 4

	noTransparency = 0xFFFF
)

var (
	ErrBadArgument  = errors.New("act: bad argument")
	ErrNotAnACTFile = errors.New("act: not an ACT file")
)

// EncodeOptions are optional arguments to Encode. The zero value is valid and
// means to use the default configuration.
type EncodeOptions struct {
	// If true, the palette's first fully transparent color (if any) is
	// recorded as the transparent index.
	MarkTransparent bool
}

// Encode writes p to w in the ACT format, always including the trailer.
// Alpha is dropped, after converting premultiplied colors to
// non-premultiplied ones.
//
// options may be nil, which means to use the default configuration.
func Encode(w io.Writer, p color.Palette, options *EncodeOptions) error {
	if (w == nil) || (len(p) > MaxColors) {
		return ErrBadArgument
	}
	markTransparent := (options != nil) && options.MarkTransparent

	buf := [tableSize + trailerSize]byte{}
	transparent := noTransparency
	for i, c := range p {
		c := color.NRGBAModel.Convert(c).(color.NRGBA)
		buf[(3*i)+0] = c.R
		buf[(3*i)+1] = c.G
		buf[(3*i)+2] = c.B
		if markTransparent && (c.A == 0x00) && (transparent == noTransparency) {
			transparent = i
		}
	}

	buf[tableSize+0] = uint8(len(p) >> 8)
	buf[tableSize+1] = uint8(len(p) >> 0)
	buf[tableSize+2] = uint8(transparent >> 8)
	buf[tableSize+3] = uint8(transparent >> 0)
	_, err := w.Write(buf[:])
	return err
}

// Decode reads an ACT palette from r. All colors are opaque, except for the
// transparent index (if any), which is fully transparent.
func Decode(r io.Reader) (color.Palette, error) {
	buf := [tableSize + trailerSize + 1]byte{}
	n, err := io.ReadFull(r, buf[:])
	if (err != nil) && (err != io.ErrUnexpectedEOF) {
		if err == io.EOF {
			return nil, ErrNotAnACTFile
		}
		return nil, errors.Wrap(err, "act: reading palette")
	}

	numColors, transparent := MaxColors, noTransparency
	switch n {
	case tableSize:
		// No-op.
	case tableSize + trailerSize:
		numColors = (int(buf[tableSize+0]) << 8) | int(buf[tableSize+1])
		transparent = (int(buf[tableSize+2]) << 8) | int(buf[tableSize+3])
		if (numColors == 0) || (numColors > MaxColors) {
			return nil, ErrNotAnACTFile
		}
	default:
		return nil, ErrNotAnACTFile
	}

	p := make(color.Palette, numColors)
	for i := range p {
		if i == transparent {
			p[i] = color.NRGBA{}
			continue
		}
		p[i] = color.NRGBA{
			R: buf[(3*i)+0],
			G: buf[(3*i)+1],
			B: buf[(3*i)+2],
			A: 0xFF,
		}
	}
	return p, nil
}
