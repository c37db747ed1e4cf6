// Copyright 2025 The Octquant Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/nigeltao/octquant/lib/act"
	"github.com/nigeltao/octquant/lib/quantize"
)

func encodeTestPNG(t *testing.T) []byte {
	m := image.NewNRGBA(image.Rect(0, 0, 8, 2))
	for x := 0; x < 8; x++ {
		m.SetNRGBA(x, 0, color.NRGBA{0xFF, 0x00, 0x00, 0xFF})
		m.SetNRGBA(x, 1, color.NRGBA{0x00, 0x00, 0xFF, 0xFF})
	}
	buf := &bytes.Buffer{}
	test.That(t, png.Encode(buf, m), test.ShouldBeNil)
	return buf.Bytes()
}

func TestRunOutputs(t *testing.T) {
	src := encodeTestPNG(t)
	logger := zap.NewNop()

	t.Run("hex", func(t *testing.T) {
		out := &bytes.Buffer{}
		err := run(out, bytes.NewReader(src), &quantize.Options{NumColors: 16}, "hex", logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, strings.Split(strings.TrimSpace(out.String()), "\n"), test.ShouldResemble,
			[]string{"#ff0000", "#0000ff"})
	})

	t.Run("act", func(t *testing.T) {
		out := &bytes.Buffer{}
		err := run(out, bytes.NewReader(src), &quantize.Options{NumColors: 16}, "act", logger)
		test.That(t, err, test.ShouldBeNil)
		p, err := act.Decode(out)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p, test.ShouldHaveLength, 2)
	})

	t.Run("gif", func(t *testing.T) {
		out := &bytes.Buffer{}
		err := run(out, bytes.NewReader(src), &quantize.Options{NumColors: 16, Dither: true}, "", logger)
		test.That(t, err, test.ShouldBeNil)
		m, err := gif.Decode(out)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.Bounds(), test.ShouldResemble, image.Rect(0, 0, 8, 2))
	})

	t.Run("png", func(t *testing.T) {
		out := &bytes.Buffer{}
		err := run(out, bytes.NewReader(src), nil, "png", logger)
		test.That(t, err, test.ShouldBeNil)
		m, err := png.Decode(out)
		test.That(t, err, test.ShouldBeNil)
		_, ok := m.(*image.Paletted)
		test.That(t, ok, test.ShouldBeTrue)
	})
}

func TestRunBadInput(t *testing.T) {
	err := run(&bytes.Buffer{}, strings.NewReader("not an image"), nil, "", zap.NewNop())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "decoding input")
}

func TestNewLogger(t *testing.T) {
	quiet, err := newLogger(false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, quiet.Core().Enabled(zap.DebugLevel), test.ShouldBeFalse)

	loud, err := newLogger(true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loud.Core().Enabled(zap.DebugLevel), test.ShouldBeTrue)
}
