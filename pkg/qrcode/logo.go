package qrcode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // logo uploads may be JPEG
	"image/png"
)

// ErrInvalidLogo is returned when the logo image cannot be decoded.
var ErrInvalidLogo = errors.New("invalid logo image")

// WithLogo overlays a logo image (PNG or JPEG bytes) over the center of
// the code. Use RecoveryHigh or RecoveryHighest so the covered modules
// stay recoverable.
func WithLogo(logo []byte) Option {
	return func(c *config) { c.logo = logo }
}

// embedLogo draws the logo centered over the code, scaled to a quarter
// of the image width, on a white backing square that keeps the modules
// behind it uniform.
func embedLogo(pngBytes, logo []byte) ([]byte, error) {
	base, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, err
	}
	overlay, _, err := image.Decode(bytes.NewReader(logo))
	if err != nil {
		return nil, errors.Join(ErrInvalidLogo, err)
	}

	bounds := base.Bounds()
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, base, bounds.Min, draw.Src)

	side := bounds.Dx() / 4
	scaled := scaleNearest(overlay, side, side)

	cx := bounds.Min.X + (bounds.Dx()-side)/2
	cy := bounds.Min.Y + (bounds.Dy()-side)/2

	pad := side / 10
	backing := image.Rect(cx-pad, cy-pad, cx+side+pad, cy+side+pad)
	draw.Draw(img, backing, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(cx, cy, cx+side, cy+side), scaled, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scaleNearest resizes an image with nearest-neighbor sampling. Logos
// are small decorative overlays; resampling quality does not matter.
func scaleNearest(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	sb := src.Bounds()
	for y := 0; y < height; y++ {
		sy := sb.Min.Y + y*sb.Dy()/height
		for x := 0; x < width; x++ {
			sx := sb.Min.X + x*sb.Dx()/width
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
