package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// LocalBucket stores objects as files under root/name.
// URLs point at baseURL/name/key and are served by Handler.
type LocalBucket struct {
	name    string
	dir     string
	public  bool
	baseURL string
	signer  *Signer
}

// NewLocalBucket creates the bucket directory if needed.
func NewLocalBucket(root, name string, public bool, baseURL string, signer *Signer) (*LocalBucket, error) {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create bucket dir %s", dir)
	}
	return &LocalBucket{
		name:    name,
		dir:     dir,
		public:  public,
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
	}, nil
}

func (b *LocalBucket) Name() string { return b.name }
func (b *LocalBucket) Public() bool { return b.public }

func (b *LocalBucket) path(key string) (string, error) {
	if !ValidKey(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(b.dir, filepath.FromSlash(key)), nil
}

// Put writes to a temp file first so readers never see a partial object.
func (b *LocalBucket) Put(ctx context.Context, key string, r io.Reader, _ string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, "create object dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "create temp object")
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write object %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp object")
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "commit object %s", key)
	}
	return nil
}

func (b *LocalBucket) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open object %s", key)
	}
	return f, nil
}

// Delete removes key. Deleting a missing object is not an error.
func (b *LocalBucket) Delete(_ context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete object %s", key)
	}
	return nil
}

func (b *LocalBucket) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	p, err := b.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "stat object %s", key)
	}
	return b.objectURL(key) + "?" + b.signer.Query(b.name, key, ttl).Encode(), nil
}

func (b *LocalBucket) PublicURL(key string) string {
	return b.objectURL(key)
}

func (b *LocalBucket) objectURL(key string) string {
	return b.baseURL + "/" + b.name + "/" + key
}
