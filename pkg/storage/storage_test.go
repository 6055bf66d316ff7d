package storage_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrforge/qrforge/pkg/storage"
)

// fakeS3 is an in-memory S3Client.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &smithyNoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

// smithyNoSuchKey mimics the S3 API error for a missing object.
type smithyNoSuchKey struct{}

func (e *smithyNoSuchKey) Error() string                 { return "NoSuchKey: the key does not exist" }
func (e *smithyNoSuchKey) ErrorCode() string             { return "NoSuchKey" }
func (e *smithyNoSuchKey) ErrorMessage() string          { return "the key does not exist" }
func (e *smithyNoSuchKey) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func newTestStore(t *testing.T, client *fakeS3) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(context.Background(), storage.Config{
		Bucket:  "test-bucket",
		Region:  "eu-central-1",
		BaseURL: "https://cdn.example.com",
	}, storage.WithClient(client))
	require.NoError(t, err)
	return store
}

// pngBytes returns a small valid PNG payload.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	t.Run("requires bucket and region", func(t *testing.T) {
		t.Parallel()

		_, err := storage.NewStore(context.Background(), storage.Config{Bucket: "b"},
			storage.WithClient(newFakeS3()))
		assert.ErrorIs(t, err, storage.ErrInvalidConfig)
	})
}

func TestStore_Upload(t *testing.T) {
	t.Parallel()

	t.Run("stores a PNG under the user prefix", func(t *testing.T) {
		t.Parallel()

		client := newFakeS3()
		store := newTestStore(t, client)
		userID := uuid.New()

		logo, err := store.Upload(context.Background(), userID, bytes.NewReader(pngBytes(t)))
		require.NoError(t, err)

		assert.Equal(t, "image/png", logo.ContentType)
		assert.True(t, strings.HasPrefix(logo.Key, "logos/"+userID.String()+"/"),
			"Key should be under the user's prefix")
		assert.True(t, strings.HasSuffix(logo.Key, ".png"))
		assert.Equal(t, "https://cdn.example.com/"+logo.Key, logo.URL)

		client.mu.Lock()
		defer client.mu.Unlock()
		assert.Contains(t, client.objects, logo.Key)
	})

	t.Run("rejects empty upload", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, newFakeS3())

		_, err := store.Upload(context.Background(), uuid.New(), bytes.NewReader(nil))
		assert.ErrorIs(t, err, storage.ErrEmptyFile)
	})

	t.Run("rejects oversized upload", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, newFakeS3())
		big := make([]byte, (2<<20)+1)
		copy(big, pngBytes(t)) // keep a valid PNG header

		_, err := store.Upload(context.Background(), uuid.New(), bytes.NewReader(big))
		assert.ErrorIs(t, err, storage.ErrFileTooLarge)
	})

	t.Run("rejects non-image payload", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, newFakeS3())

		_, err := store.Upload(context.Background(), uuid.New(),
			strings.NewReader("<html>not an image</html>"))
		assert.ErrorIs(t, err, storage.ErrUnsupportedImageType)
	})
}

func TestStore_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("round-trips uploaded bytes", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, newFakeS3())
		userID := uuid.New()
		payload := pngBytes(t)

		logo, err := store.Upload(context.Background(), userID, bytes.NewReader(payload))
		require.NoError(t, err)

		got, err := store.Fetch(context.Background(), userID, logo.Key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("missing logo", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, newFakeS3())
		userID := uuid.New()

		_, err := store.Fetch(context.Background(), userID, "logos/"+userID.String()+"/missing.png")
		assert.ErrorIs(t, err, storage.ErrLogoNotFound)
	})

	t.Run("denies access outside own prefix", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, newFakeS3())

		_, err := store.Fetch(context.Background(), uuid.New(),
			"logos/"+uuid.NewString()+"/other.png")
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, newFakeS3())
		userID := uuid.New()

		_, err := store.Fetch(context.Background(), userID,
			"logos/"+userID.String()+"/../../secrets")
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
	})
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newFakeS3())
	userID := uuid.New()

	logo, err := store.Upload(context.Background(), userID, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), userID, logo.Key))

	_, err = store.Fetch(context.Background(), userID, logo.Key)
	assert.ErrorIs(t, err, storage.ErrLogoNotFound)
}
