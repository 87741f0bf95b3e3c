// Package storage persists the HTML snapshots behind public share links.
//
// Two backends implement the Storage interface: LocalStorage writes to a
// directory that cmd/server exposes at /files/ in development, R2Storage
// writes to a Cloudflare R2 bucket in production.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage stores and serves snapshot objects. All methods are context-aware.
type Storage interface {
	// Put stores data at the given key.
	// Returns ErrKeyExists if the key is taken and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the object at the given key. The caller must close the
	// returned reader. Returns ErrNotFound for unknown keys.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the given key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns an access URL for the object. Public objects get a
	// permanent URL; otherwise the URL is presigned and valid for expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type of the object. When empty it is derived
	// from the key's extension.
	ContentType string

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool

	// Public marks the object world-readable. R2 sets a public-read ACL;
	// local storage serves everything under /files/ regardless.
	Public bool
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig configures filesystem storage.
type LocalConfig struct {
	// BasePath is the directory that holds all objects,
	// e.g. "/var/lib/lettersmith/files".
	BasePath string

	// BaseURL is the public prefix objects are served under,
	// e.g. "http://localhost:8080/files".
	BaseURL string
}

// R2Config configures Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's custom domain, e.g.
	// "https://files.lettersmith.app". When empty every URL is presigned.
	PublicURL string

	// Region is required by the AWS SDK; R2 accepts "auto".
	Region string
}

// Storage provider names as they appear in STORAGE_PROVIDER.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// =============================================================================
// Key Helpers
// =============================================================================

// SnapshotKey returns the storage key for a shared letter's HTML snapshot,
// e.g. "shares/123e4567-e89b-12d3-a456-426614174000.html".
func SnapshotKey(shareID uuid.UUID) string {
	return fmt.Sprintf("shares/%s.html", shareID)
}
