// Package storage defines the document archive: where uploaded policies are
// kept after a successful audit, keyed by owner and content digest.
//
// Backends register themselves with the factory from an init() function in
// their own package and are enabled by a blank import in cmd/server:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (storage.Storage, error) {
//	        return New(&cfg.Storage.MyBackend)
//	    })
//	}
package storage

import (
	"context"
	"errors"
	"io"
	"path"
)

// ErrNotFound is returned by Download for a missing key.
var ErrNotFound = errors.New("object not found")

// Storage is implemented by every archive backend
type Storage interface {
	// Upload stores the reader's contents at key and returns its digest
	Upload(ctx context.Context, key string, reader io.Reader, size int64) (*UploadResult, error)

	// Download opens the object at key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is stored at key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// UploadResult describes a stored object
type UploadResult struct {
	// Key is where the object was stored
	Key string

	// Size is the object size in bytes
	Size int64

	// Checksum is the hex SHA-256 of the contents
	Checksum string
}

// AuditDocumentKey is the archive key of an audited PDF.
func AuditDocumentKey(userID, sha256Hex string) string {
	return path.Join("audits", userID, sha256Hex+".pdf")
}
