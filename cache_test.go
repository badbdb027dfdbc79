package gitpress

import (
	"context"
	"testing"
	"time"

	"github.com/gitpress-io/gitpress/store"
)

// countingBackend serves a fixed index and counts reads.
type countingBackend struct {
	reads   int
	content string
}

func (b *countingBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	b.reads++
	if b.content == "" {
		return nil, &store.APIError{Op: "readFile", Path: path, Status: 404, Err: store.ErrNotFound}
	}
	return []byte(b.content), nil
}
func (b *countingBackend) Publish(ctx context.Context, message string, artifacts []store.FileArtifact) (store.CommitResult, error) {
	return store.CommitResult{}, nil
}
func (b *countingBackend) Ping(ctx context.Context) error { return nil }

func TestIndexCacheCachesWithinTTL(t *testing.T) {
	backend := &countingBackend{content: `[{"id":"a","title":"A"}]`}
	cache := NewIndexCache(backend, time.Minute, 1, time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		records, err := cache.List(ctx, "posts")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("records = %v", records)
		}
	}
	if backend.reads != 1 {
		t.Fatalf("reads = %d, want 1", backend.reads)
	}
}

func TestIndexCacheExpires(t *testing.T) {
	backend := &countingBackend{content: `[{"id":"a"}]`}
	cache := NewIndexCache(backend, time.Millisecond, 1, time.Millisecond)
	ctx := context.Background()

	if _, err := cache.List(ctx, "posts"); err != nil {
		t.Fatalf("List: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := cache.List(ctx, "posts"); err != nil {
		t.Fatalf("List: %v", err)
	}
	if backend.reads != 2 {
		t.Fatalf("reads = %d, want 2 after TTL expiry", backend.reads)
	}
}

func TestIndexCacheInvalidate(t *testing.T) {
	backend := &countingBackend{content: `[{"id":"a"}]`}
	cache := NewIndexCache(backend, time.Minute, 1, time.Millisecond)
	ctx := context.Background()

	if _, err := cache.List(ctx, "posts"); err != nil {
		t.Fatalf("List: %v", err)
	}
	cache.Invalidate("posts")
	if _, err := cache.List(ctx, "posts"); err != nil {
		t.Fatalf("List: %v", err)
	}
	if backend.reads != 2 {
		t.Fatalf("reads = %d, want 2 after invalidation", backend.reads)
	}
}

func TestIndexCacheMissingIndexIsEmpty(t *testing.T) {
	backend := &countingBackend{}
	cache := NewIndexCache(backend, time.Minute, 1, time.Millisecond)

	records, err := cache.List(context.Background(), "posts")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %v", records)
	}
}

func TestIndexCacheIDs(t *testing.T) {
	backend := &countingBackend{content: `[{"id":"a"},{"id":"b"}]`}
	cache := NewIndexCache(backend, time.Minute, 1, time.Millisecond)

	ids, err := cache.IDs(context.Background(), "posts")
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ids = %v", ids)
	}
}
