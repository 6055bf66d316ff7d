package export

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Error variables for export operations
var (
	// ErrEmptyImage is returned when no image bytes are given
	ErrEmptyImage = errors.New("image cannot be empty")
	// ErrInvalidImage is returned when the input is not a decodable PNG
	ErrInvalidImage = errors.New("invalid PNG image")
	// ErrFailedToExport is returned when rendering the output document fails.
	ErrFailedToExport = errors.New("failed to export image")
)

// Color scheme shared with the product's web surface.
var (
	colorPrimary   = [3]int{30, 58, 95}    // Dark navy
	colorTextDark  = [3]int{44, 62, 80}    // Dark text
	colorTextMuted = [3]int{127, 140, 141} // Muted text
	colorGridLine  = [3]int{220, 220, 220} // Box outline
)

// Meta captions the exported document.
type Meta struct {
	Title       string    // document heading, e.g. "QR Code"
	Content     string    // the encoded payload, shown under the image
	GeneratedAt time.Time // zero value omits the footer timestamp
}

// PDF wraps a generated PNG code image into a single-page A4 PDF with
// a heading, the encoded content as a caption, and a footer timestamp.
func PDF(pngImage []byte, meta Meta) ([]byte, error) {
	if len(pngImage) == 0 {
		return nil, ErrEmptyImage
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()

	// Top accent bar
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	title := meta.Title
	if title == "" {
		title = "Generated Code"
	}
	pdf.SetY(25)
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")

	// Centered image box
	imgSize := 110.0
	imgX := (pageWidth - imgSize) / 2
	imgY := 55.0

	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
	pdf.RoundedRect(imgX-5, imgY-5, imgSize+10, imgSize+10, 3, "1234", "D")

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("code", opts, bytes.NewReader(pngImage))
	pdf.ImageOptions("code", imgX, imgY, imgSize, imgSize, false, opts, 0, "")

	if meta.Content != "" {
		pdf.SetY(imgY + imgSize + 15)
		pdf.SetFont("Courier", "", 11)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		pdf.MultiCell(0, 6, meta.Content, "", "C", false)
	}

	if !meta.GeneratedAt.IsZero() {
		pdf.SetY(-30)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		stamp := fmt.Sprintf("Generated %s", meta.GeneratedAt.UTC().Format("Jan 2, 2006 15:04 UTC"))
		pdf.CellFormat(0, 6, stamp, "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Join(ErrFailedToExport, err)
	}
	return buf.Bytes(), nil
}
