// Package storage keeps uploaded files in named buckets. Private buckets are
// read through short-lived signed URLs; public buckets have permanent URLs.
package storage

import (
	"context"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Bucket names used by the application.
const (
	BucketMaterials = "materials" // private
	BucketPreviews  = "previews"  // public
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrInvalidKey   = errors.New("invalid object key")
	ErrBadSignature = errors.New("invalid or expired signature")
)

// Bucket is a flat namespace of objects.
type Bucket interface {
	Name() string
	Public() bool
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// SignedURL returns a URL granting read access for ttl.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// PublicURL returns the permanent URL of key. Only meaningful on public buckets.
	PublicURL(key string) string
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename keeps the base name and replaces unsafe runs with "_".
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	return base
}

// NewObjectKey returns a fresh, collision-free key for an upload of filename.
func NewObjectKey(filename string) string {
	return uuid.NewString() + "-" + SanitizeFilename(filename)
}

// ValidKey rejects empty keys and anything that could escape the bucket.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
