// Package barcode renders 1D barcodes as PNG bytes or data URIs.
//
// The package wraps github.com/boombuler/barcode with input validation,
// sensible defaults, and a small closed Format vocabulary: Code 128 for
// general use, EAN-13/EAN-8 for retail, and Code 39 for industrial
// labels. QR codes are not here; the qrcode package owns them.
//
// Format.Enhanced distinguishes the retail/industrial symbologies from
// plain Code 128 so callers can gate them by plan. Like the qrcode
// package, this package knows nothing about plans itself.
//
//	img, err := barcode.Generate("4006381333931", barcode.FormatEAN13,
//		barcode.WithSize(400, 120),
//	)
//	if err != nil {
//		// handle error
//	}
//
// Sentinel errors (ErrEmptyContent, ErrUnsupportedFormat,
// ErrInvalidContent, ErrInvalidSize, ErrFailedToGenerate) compose with
// errors.Is.
package barcode
