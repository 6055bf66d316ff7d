package export

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"

	svg "github.com/ajstarks/svgo"
)

// SVG vectorizes a generated PNG code image into a standalone SVG
// document. Dark pixels become filled rectangles (merged into
// horizontal runs), so the output scales without raster artifacts.
func SVG(pngImage []byte) ([]byte, error) {
	if len(pngImage) == 0 {
		return nil, ErrEmptyImage
	}

	img, err := png.Decode(bytes.NewReader(pngImage))
	if err != nil {
		return nil, errors.Join(ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(bounds.Dx(), bounds.Dy())
	canvas.Rect(0, 0, bounds.Dx(), bounds.Dy(), "fill:#ffffff")

	canvas.Group(`fill="#000000"`)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		runStart := -1
		for x := bounds.Min.X; x <= bounds.Max.X; x++ {
			dark := x < bounds.Max.X && isDark(img.At(x, y))
			switch {
			case dark && runStart < 0:
				runStart = x
			case !dark && runStart >= 0:
				canvas.Rect(runStart-bounds.Min.X, y-bounds.Min.Y, x-runStart, 1)
				runStart = -1
			}
		}
	}
	canvas.Gend()
	canvas.End()

	return buf.Bytes(), nil
}

// isDark reports whether a pixel reads as part of the code rather than
// the background. Transparent pixels count as background.
func isDark(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	_, _, _, a := c.RGBA()
	return a >= 0x8000 && g.Y < 0x80
}
