package binder

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// DefaultMaxMemory caps how much of a multipart form is held in memory
// while parsing; larger parts spill to temporary files.
const DefaultMaxMemory int64 = 8 << 20

// FileUpload is an uploaded file read fully into memory.
type FileUpload struct {
	Filename string
	Size     int64
	Header   textproto.MIMEHeader
	Content  []byte
}

// GetFile retrieves the uploaded file for the given multipart field.
// Returns nil without error when the field is absent, so callers can
// treat missing uploads as a validation problem rather than a parse
// failure.
func GetFile(r *http.Request, field string) (*FileUpload, error) {
	if err := parseMultipartForm(r, DefaultMaxMemory); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidForm, field, err)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", ErrInvalidForm, header.Filename, err)
	}

	return &FileUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Header:   header.Header,
		Content:  content,
	}, nil
}

func parseMultipartForm(r *http.Request, maxMemory int64) error {
	if r.MultipartForm != nil {
		return nil
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, multipart.ErrMessageTooLarge) {
			return fmt.Errorf("%w: multipart form too large", ErrInvalidForm)
		}
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	return nil
}
