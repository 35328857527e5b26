package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"
)

// MemoryBucket keeps objects in memory. FailPut makes Put fail for matching keys.
type MemoryBucket struct {
	name   string
	public bool

	mu      sync.Mutex
	objects map[string][]byte
	FailPut func(key string) error
}

func NewMemoryBucket(name string, public bool) *MemoryBucket {
	return &MemoryBucket{name: name, public: public, objects: make(map[string][]byte)}
}

func (b *MemoryBucket) Name() string { return b.name }
func (b *MemoryBucket) Public() bool { return b.public }

func (b *MemoryBucket) Put(_ context.Context, key string, r io.Reader, _ string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	if b.FailPut != nil {
		if err := b.FailPut(key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()
	return nil
}

func (b *MemoryBucket) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	data, ok := b.objects[key]
	b.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *MemoryBucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBucket) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	b.mu.Lock()
	_, ok := b.objects[key]
	b.mu.Unlock()
	if !ok {
		return "", ErrNotFound
	}
	return "memory://" + b.name + "/" + key + "?ttl=" + ttl.String(), nil
}

func (b *MemoryBucket) PublicURL(key string) string {
	return "memory://" + b.name + "/" + key
}

// Keys lists stored keys, sorted.
func (b *MemoryBucket) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
