// Package storage keeps user-uploaded logo images in S3 (or any
// S3-compatible service) for embedding into QR codes.
//
// Uploads are validated by sniffing the payload rather than trusting
// the request's content type, capped in size, and stored under a
// per-user key prefix (logos/<user-id>/<random>.<ext>). Reads and
// deletes are confined to the caller's own prefix.
//
//	store, err := storage.NewStore(ctx, storage.Config{
//		Bucket: "qrforge-logos",
//		Region: "eu-central-1",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	logo, err := store.Upload(ctx, userID, file)
//
// The file_uploads permission gate lives at the handler layer.
package storage
