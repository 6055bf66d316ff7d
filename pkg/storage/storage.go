package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// maxLogoSize caps logo uploads at 2 MiB; logos are scaled down to a
// small overlay, anything bigger is a mistake.
const maxLogoSize = 2 << 20

// allowedImageTypes maps accepted sniffed content types to the file
// extension used in the object key.
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// S3Client defines the S3 operations used by Store.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config contains configuration for the logo store.
type Config struct {
	Bucket         string `env:"STORAGE_BUCKET,required"`
	Region         string `env:"STORAGE_REGION,required"`
	AccessKeyID    string `env:"STORAGE_ACCESS_KEY_ID"`
	SecretKey      string `env:"STORAGE_SECRET_KEY"`
	Endpoint       string `env:"STORAGE_ENDPOINT"`         // for S3-compatible services
	BaseURL        string `env:"STORAGE_BASE_URL"`         // public URL base for serving files
	ForcePathStyle bool   `env:"STORAGE_FORCE_PATH_STYLE"` // for S3-compatible services like MinIO
}

// Logo describes a stored logo object.
type Logo struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Store keeps user logo images in S3 for embedding into QR codes.
// It is safe for concurrent use.
type Store struct {
	client        S3Client
	bucket        string
	baseURL       string
	uploadTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithClient sets a custom pre-configured S3 client.
// Useful for testing with mocks.
func WithClient(client S3Client) Option {
	return func(s *Store) { s.client = client }
}

// WithUploadTimeout sets the timeout for upload operations.
// If not set, the caller's context deadline applies.
func WithUploadTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.uploadTimeout = timeout }
}

// NewStore creates a logo store backed by S3.
func NewStore(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	baseURL = strings.TrimSuffix(baseURL, "/") + "/"

	store := &Store{
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(store)
	}

	if store.client == nil {
		awsOptions := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}

		awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		store.client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return store, nil
}

// Upload stores a logo image for a user. The content type is sniffed
// from the payload, not trusted from the request, and only raster image
// formats suitable for QR overlays are accepted.
func (s *Store) Upload(ctx context.Context, userID uuid.UUID, r io.Reader) (*Logo, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	// Read one byte past the cap to distinguish "at limit" from "over".
	data, err := io.ReadAll(io.LimitReader(r, maxLogoSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > maxLogoSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxLogoSize)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImageType, contentType)
	}

	key := fmt.Sprintf("logos/%s/%s%s", userID, uuid.NewString(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, classifyError(err, "upload logo")
	}

	return &Logo{
		Key:         key,
		URL:         s.baseURL + key,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Fetch retrieves a stored logo's bytes for embedding.
func (s *Store) Fetch(ctx context.Context, userID uuid.UUID, key string) ([]byte, error) {
	if err := s.checkKey(userID, key); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyError(err, "fetch logo")
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read logo body: %w", err)
	}
	return data, nil
}

// Delete removes a stored logo.
func (s *Store) Delete(ctx context.Context, userID uuid.UUID, key string) error {
	if err := s.checkKey(userID, key); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyError(err, "delete logo")
	}
	return nil
}

// checkKey confines key access to the user's own logo prefix.
func (s *Store) checkKey(userID uuid.UUID, key string) error {
	if strings.Contains(key, "..") || !strings.HasPrefix(key, fmt.Sprintf("logos/%s/", userID)) {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return nil
}

// classifyError converts S3 errors to domain-specific errors.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation", ErrOperationCanceled, operation)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s", ErrLogoNotFound, err)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey":
			return fmt.Errorf("%w: %s", ErrLogoNotFound, err)
		case "NoSuchBucket":
			return ErrBucketNotFound
		case "AccessDenied":
			return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s operation", ErrServiceUnavailable, operation)
		default:
			return fmt.Errorf("%s operation failed (code: %s): %w", operation, apiErr.ErrorCode(), err)
		}
	}

	return fmt.Errorf("%s operation failed: %w", operation, err)
}
