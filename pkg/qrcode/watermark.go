package qrcode

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

const watermarkText = "QRFORGE"

// glyphs is a 5x7 pixel font covering the wordmark characters. Rows
// top to bottom, '#' marks a lit pixel.
var glyphs = map[rune][7]string{
	'Q': {".###.", "#...#", "#...#", "#...#", "#.#.#", "#..#.", ".##.#"},
	'R': {"####.", "#...#", "#...#", "####.", "#.#..", "#..#.", "#...#"},
	'F': {"#####", "#....", "#....", "####.", "#....", "#....", "#...."},
	'O': {".###.", "#...#", "#...#", "#...#", "#...#", "#...#", ".###."},
	'G': {".###.", "#....", "#....", "#.###", "#...#", "#...#", ".###."},
	'E': {"#####", "#....", "#....", "####.", "#....", "#....", "#####"},
}

// stampWatermark overlays a dark strip with the wordmark along the
// bottom edge of a PNG image and re-encodes it. The strip sits inside
// the quiet zone at typical sizes, so scannability is unaffected.
func stampWatermark(pngBytes []byte) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, src, bounds.Min, draw.Src)

	band := bounds.Dy() / 12
	if band < 13 {
		band = 13
	}
	strip := image.Rect(bounds.Min.X, bounds.Max.Y-band, bounds.Max.X, bounds.Max.Y)
	draw.Draw(img, strip, image.NewUniform(color.NRGBA{A: 200}), image.Point{}, draw.Over)

	drawWordmark(img, strip)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawWordmark(img *image.RGBA, strip image.Rectangle) {
	scale := (strip.Dy() - 4) / 7
	if scale < 1 {
		scale = 1
	}
	// 5 columns per glyph plus 1 column of spacing.
	width := (len(watermarkText)*6 - 1) * scale
	x0 := strip.Min.X + (strip.Dx()-width)/2
	y0 := strip.Min.Y + (strip.Dy()-7*scale)/2
	if x0 < strip.Min.X {
		x0 = strip.Min.X
	}

	white := image.NewUniform(color.White)
	for i, r := range watermarkText {
		glyph, ok := glyphs[r]
		if !ok {
			continue
		}
		gx := x0 + i*6*scale
		for row, line := range glyph {
			for col, cell := range line {
				if cell != '#' {
					continue
				}
				px := image.Rect(
					gx+col*scale,
					y0+row*scale,
					gx+(col+1)*scale,
					y0+(row+1)*scale,
				).Intersect(strip)
				draw.Draw(img, px, white, image.Point{}, draw.Over)
			}
		}
	}
}
