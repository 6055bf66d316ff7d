package storage

import "errors"

var (
	// Validation errors
	ErrEmptyFile            = errors.New("file is empty")
	ErrFileTooLarge         = errors.New("file size exceeds maximum allowed size")
	ErrUnsupportedImageType = errors.New("image type is not allowed")
	ErrInvalidKey           = errors.New("invalid object key") // Prevents path traversal

	// S3-specific errors for proper error classification
	ErrLogoNotFound       = errors.New("logo not found")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")

	// Context and cancellation errors
	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")

	// Configuration errors
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
)
