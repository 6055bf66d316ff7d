package barcode_test

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/qrforge/qrforge/pkg/barcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	t.Run("known formats", func(t *testing.T) {
		t.Parallel()

		for in, want := range map[string]barcode.Format{
			"code128": barcode.FormatCode128,
			"EAN13":   barcode.FormatEAN13,
			" ean8 ":  barcode.FormatEAN8,
			"Code39":  barcode.FormatCode39,
		} {
			got, err := barcode.ParseFormat(in)
			require.NoError(t, err, "format %q should parse", in)
			assert.Equal(t, want, got)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		_, err := barcode.ParseFormat("upc")
		assert.True(t, errors.Is(err, barcode.ErrUnsupportedFormat),
			"Error should be ErrUnsupportedFormat")
	})
}

func TestFormat_Enhanced(t *testing.T) {
	t.Parallel()

	assert.False(t, barcode.FormatCode128.Enhanced())
	assert.True(t, barcode.FormatEAN13.Enhanced())
	assert.True(t, barcode.FormatEAN8.Enhanced())
	assert.True(t, barcode.FormatCode39.Enhanced())
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("returns error when content is empty", func(t *testing.T) {
		t.Parallel()

		result, err := barcode.Generate("  ", barcode.FormatCode128)

		require.Error(t, err)
		require.Nil(t, result)
		assert.True(t, errors.Is(err, barcode.ErrEmptyContent),
			"Error should be ErrEmptyContent")
	})

	t.Run("generates code128 with default size", func(t *testing.T) {
		t.Parallel()

		result, err := barcode.Generate("HELLO-12345", barcode.FormatCode128)

		require.NoError(t, err)
		require.NotEmpty(t, result)

		img, err := png.Decode(bytes.NewReader(result))
		require.NoError(t, err, "Result should be a valid PNG image")
		assert.Equal(t, 256, img.Bounds().Dx(), "Image width should be default 256px")
		assert.Equal(t, 80, img.Bounds().Dy(), "Image height should be default 80px")
	})

	t.Run("generates ean13 with custom size", func(t *testing.T) {
		t.Parallel()

		result, err := barcode.Generate("4006381333931", barcode.FormatEAN13,
			barcode.WithSize(400, 120))

		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(result))
		require.NoError(t, err)
		assert.Equal(t, 400, img.Bounds().Dx())
		assert.Equal(t, 120, img.Bounds().Dy())
	})

	t.Run("generates ean8", func(t *testing.T) {
		t.Parallel()

		result, err := barcode.Generate("96385074", barcode.FormatEAN8)

		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(result))
		require.NoError(t, err)
	})

	t.Run("generates code39 with lowercase input", func(t *testing.T) {
		t.Parallel()

		result, err := barcode.Generate("abc-123", barcode.FormatCode39)

		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(result))
		require.NoError(t, err)
	})

	t.Run("rejects ean13 with wrong length", func(t *testing.T) {
		t.Parallel()

		_, err := barcode.Generate("12345", barcode.FormatEAN13)
		assert.True(t, errors.Is(err, barcode.ErrInvalidContent),
			"Error should be ErrInvalidContent")
	})

	t.Run("rejects ean13 with non-digits", func(t *testing.T) {
		t.Parallel()

		_, err := barcode.Generate("40063813339ab", barcode.FormatEAN13)
		assert.True(t, errors.Is(err, barcode.ErrInvalidContent),
			"Error should be ErrInvalidContent")
	})

	t.Run("rejects unsupported format", func(t *testing.T) {
		t.Parallel()

		_, err := barcode.Generate("12345", barcode.Format("upc"))
		assert.True(t, errors.Is(err, barcode.ErrUnsupportedFormat),
			"Error should be ErrUnsupportedFormat")
	})

	t.Run("rejects oversized output", func(t *testing.T) {
		t.Parallel()

		_, err := barcode.Generate("HELLO", barcode.FormatCode128,
			barcode.WithSize(5000, 80))
		assert.True(t, errors.Is(err, barcode.ErrInvalidSize),
			"Error should be ErrInvalidSize")
	})

	t.Run("rejects width below module count", func(t *testing.T) {
		t.Parallel()

		// A long payload needs more modules than 20 pixels can hold.
		_, err := barcode.Generate(strings.Repeat("A", 40), barcode.FormatCode128,
			barcode.WithSize(20, 80))
		assert.True(t, errors.Is(err, barcode.ErrInvalidSize),
			"Error should be ErrInvalidSize")
	})
}

func TestGenerateBase64Image(t *testing.T) {
	t.Parallel()

	t.Run("returns data URI", func(t *testing.T) {
		t.Parallel()

		result, err := barcode.GenerateBase64Image("HELLO", barcode.FormatCode128)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(result, "data:image/png;base64,"),
			"Result should be a PNG data URI")
	})

	t.Run("propagates generation errors", func(t *testing.T) {
		t.Parallel()

		result, err := barcode.GenerateBase64Image("", barcode.FormatCode128)

		require.Error(t, err)
		assert.Empty(t, result)
	})
}
