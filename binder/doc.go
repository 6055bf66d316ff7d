// Package binder extracts request payloads for HTTP handlers: strict
// JSON body decoding and in-memory multipart file uploads. Failures
// wrap sentinel errors so handlers can map them onto 422 responses
// with errors.Is.
package binder
