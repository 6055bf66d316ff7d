package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/qrforge/qrforge/pkg/qrcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()
	t.Run("returns error when content is empty", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.Generate("")

		require.Error(t, err, "Generate should return an error with empty content")
		require.Nil(t, result, "Generate should not return PNG data")
		assert.True(t, errors.Is(err, qrcode.ErrEmptyContent),
			"Error should be ErrEmptyContent")
	})

	t.Run("returns error when content is whitespace only", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.Generate("   \t\n")

		require.Error(t, err, "Generate should return an error with whitespace-only content")
		require.Nil(t, result, "Generate should not return PNG data")
		assert.True(t, errors.Is(err, qrcode.ErrEmptyContent),
			"Error should be ErrEmptyContent")
	})

	t.Run("returns error when content exceeds capacity", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.Generate(strings.Repeat("x", 3000))

		require.Error(t, err)
		require.Nil(t, result)
		assert.True(t, errors.Is(err, qrcode.ErrContentTooLong),
			"Error should be ErrContentTooLong")
	})

	t.Run("generates QR code with valid content and size", func(t *testing.T) {
		t.Parallel()
		size := 256

		result, err := qrcode.Generate("https://example.com", qrcode.WithSize(size))

		require.NoError(t, err, "Generate should not return an error with valid input")
		require.NotEmpty(t, result, "Generate should return non-empty PNG data")

		// Verify the result is a valid PNG
		img, err := png.Decode(bytes.NewReader(result))
		require.NoError(t, err, "Result should be a valid PNG image")

		assert.Equal(t, size, img.Bounds().Dx(), "Image width should match requested size")
		assert.Equal(t, size, img.Bounds().Dy(), "Image height should match requested size")
	})

	t.Run("uses default size when no size option given", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.Generate("https://example.com")

		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(result))
		require.NoError(t, err, "Result should be a valid PNG image")

		assert.Equal(t, 256, img.Bounds().Dx(), "Image width should be default 256px")
		assert.Equal(t, 256, img.Bounds().Dy(), "Image height should be default 256px")
	})

	t.Run("uses default size when size is negative", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.Generate("https://example.com", qrcode.WithSize(-10))

		require.NoError(t, err, "Generate should not return an error with negative size")
		img, err := png.Decode(bytes.NewReader(result))
		require.NoError(t, err, "Result should be a valid PNG image")

		assert.Equal(t, 256, img.Bounds().Dx(), "Image width should be default 256px")
	})

	t.Run("rejects oversized output", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.Generate("https://example.com", qrcode.WithSize(10000))

		require.Error(t, err)
		require.Nil(t, result)
		assert.True(t, errors.Is(err, qrcode.ErrInvalidSize),
			"Error should be ErrInvalidSize")
	})

	t.Run("generates QR code with custom recovery level", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.Generate("https://example.com",
			qrcode.WithRecoveryLevel(qrcode.RecoveryHighest))

		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(result))
		require.NoError(t, err, "Result should be a valid PNG image")
	})

	t.Run("generates QR code with custom colors", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.Generate("https://example.com",
			qrcode.WithSize(128),
			qrcode.WithColors(color.NRGBA{R: 0x1a, G: 0x1a, B: 0x6e, A: 0xff}, color.White))

		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(result))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())
	})

	t.Run("embeds a logo overlay", func(t *testing.T) {
		t.Parallel()

		var logoBuf bytes.Buffer
		require.NoError(t, png.Encode(&logoBuf, image.NewRGBA(image.Rect(0, 0, 16, 16))))

		plain, err := qrcode.Generate("https://example.com",
			qrcode.WithSize(256), qrcode.WithRecoveryLevel(qrcode.RecoveryHigh))
		require.NoError(t, err)

		branded, err := qrcode.Generate("https://example.com",
			qrcode.WithSize(256),
			qrcode.WithRecoveryLevel(qrcode.RecoveryHigh),
			qrcode.WithLogo(logoBuf.Bytes()))
		require.NoError(t, err)

		assert.NotEqual(t, plain, branded, "logo overlay should change the output")
		_, err = png.Decode(bytes.NewReader(branded))
		require.NoError(t, err, "Branded result should be a valid PNG image")
	})

	t.Run("rejects undecodable logo", func(t *testing.T) {
		t.Parallel()

		_, err := qrcode.Generate("https://example.com",
			qrcode.WithLogo([]byte("not an image")))
		assert.True(t, errors.Is(err, qrcode.ErrInvalidLogo),
			"Error should be ErrInvalidLogo")
	})

	t.Run("watermark changes output but stays decodable", func(t *testing.T) {
		t.Parallel()

		plain, err := qrcode.Generate("https://example.com", qrcode.WithSize(256))
		require.NoError(t, err)

		marked, err := qrcode.Generate("https://example.com",
			qrcode.WithSize(256), qrcode.WithWatermark())
		require.NoError(t, err)

		assert.NotEqual(t, plain, marked, "watermarked output should differ")

		img, err := png.Decode(bytes.NewReader(marked))
		require.NoError(t, err, "Watermarked result should be a valid PNG image")
		assert.Equal(t, 256, img.Bounds().Dx(), "Watermark should not change dimensions")
		assert.Equal(t, 256, img.Bounds().Dy(), "Watermark should not change dimensions")
	})
}

func TestGenerateBase64Image(t *testing.T) {
	t.Parallel()

	t.Run("returns data URI with valid content", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.GenerateBase64Image("https://example.com")

		require.NoError(t, err)
		require.True(t, strings.HasPrefix(result, "data:image/png;base64,"),
			"Result should be a PNG data URI")

		raw, err := base64.StdEncoding.DecodeString(
			strings.TrimPrefix(result, "data:image/png;base64,"))
		require.NoError(t, err, "Payload should be valid base64")

		_, err = png.Decode(bytes.NewReader(raw))
		require.NoError(t, err, "Decoded payload should be a valid PNG image")
	})

	t.Run("propagates generation errors", func(t *testing.T) {
		t.Parallel()

		result, err := qrcode.GenerateBase64Image("")

		require.Error(t, err)
		assert.Empty(t, result)
		assert.True(t, errors.Is(err, qrcode.ErrEmptyContent),
			"Error should be ErrEmptyContent")
	})
}
