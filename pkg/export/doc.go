// Package export converts generated PNG code images into download
// formats: a captioned single-page PDF and a vectorized SVG.
//
// Both exporters take the PNG bytes produced by the qrcode or barcode
// packages. PDF wraps the raster image into an A4 document with a
// heading, the encoded payload, and a timestamp footer. SVG re-traces
// dark pixels into rectangles so the result scales cleanly for print.
//
//	pdfBytes, err := export.PDF(img, export.Meta{
//		Title:       "QR Code",
//		Content:     "https://example.com",
//		GeneratedAt: time.Now(),
//	})
//
//	svgBytes, err := export.SVG(img)
//
// Plan gating (pdf_download / svg_download) happens at the handler
// layer; this package only renders.
package export
