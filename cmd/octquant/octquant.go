// Copyright 2025 The Octquant Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// octquant reduces an image to a palette of at most 256 colors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nigeltao/octquant/lib/act"
	"github.com/nigeltao/octquant/lib/quantize"

	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	colorsFlag  = flag.Int("colors", quantize.DefaultNumColors, "maximum number of palette colors (1-256)")
	ditherFlag  = flag.Bool("dither", false, "whether to apply Floyd-Steinberg dithering")
	outputFlag  = flag.String("output", "", "output format")
	paletteFlag = flag.String("palette", "", "ACT file holding a fixed palette")
	verboseFlag = flag.Bool("v", false, "whether to log progress to stderr")
)

const usageStr = `octquant reduces an image to a palette of at most 256 colors.

Usage: octquant [flags] [path]

The path to the input image file is optional. If omitted, stdin is read.
BMP, GIF, JPEG, PNG, TIFF and WEBP inputs are supported.

Flags (before the path):

    -colors=N     palette size, from 1 to 256 (the default is 256)
    -dither       apply Floyd-Steinberg error diffusion
    -palette=P    use the ACT palette file P instead of deriving one
    -v            log progress to stderr

    -output=act   write the palette as an ACT (Adobe Color Table) file
    -output=gif   write a GIF image (this is the default)
    -output=hex   write the palette as one #rrggbb line per color
    -output=png   write a paletted PNG image

The output is written to stdout.
`

var ErrBadOutputFlag = errors.New("main: bad -output flag")

func main() {
	if err := main1(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func main1() error {
	flag.Usage = func() { os.Stderr.WriteString(usageStr) }
	flag.Parse()

	switch *outputFlag {
	case "", "act", "gif", "hex", "png":
		// No-op.
	default:
		return ErrBadOutputFlag
	}

	logger, err := newLogger(*verboseFlag)
	if err != nil {
		return err
	}
	defer logger.Sync()

	inFile := os.Stdin
	switch flag.NArg() {
	case 0:
		// No-op.
	case 1:
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		inFile = f
	default:
		return errors.New("too many filenames; the maximum is one")
	}

	opts := &quantize.Options{
		NumColors: *colorsFlag,
		Dither:    *ditherFlag,
	}
	if *paletteFlag != "" {
		p, err := readPalette(*paletteFlag)
		if err != nil {
			return err
		}
		opts.Palette = p
		logger.Debug("loaded fixed palette", zap.String("path", *paletteFlag), zap.Int("colors", len(p)))
	}

	return run(os.Stdout, inFile, opts, *outputFlag, logger)
}

func run(w io.Writer, r io.Reader, opts *quantize.Options, output string, logger *zap.Logger) error {
	if opts == nil {
		opts = &quantize.Options{}
	}
	src, format, err := image.Decode(r)
	if err != nil {
		return pkgerrors.Wrap(err, "decoding input")
	}
	b := src.Bounds()
	logger.Debug("decoded input",
		zap.String("format", format),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()))

	dst, stats, err := quantize.PalettedWithStats(src, opts)
	if err != nil {
		return err
	}
	logger.Info("quantized",
		zap.Int("pixels", stats.Pixels),
		zap.Int("leaves", stats.Leaves),
		zap.Int("reduceSteps", stats.ReduceSteps),
		zap.Int("paletteSize", len(dst.Palette)),
		zap.Bool("dither", opts.Dither))

	if logger.Core().Enabled(zapcore.DebugLevel) {
		if e, err := quantize.PaletteError(src, dst); err == nil {
			logger.Debug("palette error", zap.Float64("meanDeltaE", e))
		}
	}

	switch output {
	case "act":
		return act.Encode(w, dst.Palette, nil)
	case "hex":
		return writeHex(w, dst.Palette)
	case "png":
		return png.Encode(w, dst)
	}
	return gif.Encode(w, dst, &gif.Options{NumColors: len(dst.Palette)})
}

func readPalette(path string) (color.Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := act.Decode(f)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "reading %s", path)
	}
	return p, nil
}

func writeHex(w io.Writer, p color.Palette) error {
	for _, c := range p {
		cc, _ := colorful.MakeColor(c)
		if _, err := fmt.Fprintln(w, cc.Hex()); err != nil {
			return err
		}
	}
	return nil
}

// newLogger returns a console logger writing Debug and above to stderr, or a
// no-op logger unless verbose is set.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.DebugLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("octquant"), nil
}
