package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/gitpress-io/gitpress/store"
)

// errBackend returns a fixed error from every read.
type errBackend struct{ err error }

func (b errBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return nil, b.err
}
func (b errBackend) Publish(ctx context.Context, message string, artifacts []store.FileArtifact) (store.CommitResult, error) {
	return store.CommitResult{}, b.err
}
func (b errBackend) Ping(ctx context.Context) error { return b.err }

func TestIndexPath(t *testing.T) {
	if got := IndexPath("posts"); got != "search/posts.json" {
		t.Fatalf("IndexPath = %q", got)
	}
}

func TestMergeUpsert(t *testing.T) {
	records := []Record{
		{"id": "a", "title": "A"},
		{"id": "b", "title": "B"},
	}

	merged := Merge(records, Record{"id": "b", "title": "B2"}, false)
	if len(merged) != 2 {
		t.Fatalf("len = %d, want 2", len(merged))
	}
	var b Record
	for _, r := range merged {
		if r.ID() == "b" {
			b = r
		}
	}
	if b == nil || b["title"] != "B2" {
		t.Fatalf("record b = %v, want updated title", b)
	}
}

func TestMergeInsert(t *testing.T) {
	merged := Merge(nil, Record{"id": "a"}, false)
	if len(merged) != 1 || merged[0].ID() != "a" {
		t.Fatalf("merged = %v", merged)
	}
}

func TestMergeRemove(t *testing.T) {
	records := []Record{{"id": "a"}, {"id": "b"}}
	merged := Merge(records, Record{"id": "a"}, true)
	if len(merged) != 1 || merged[0].ID() != "b" {
		t.Fatalf("merged = %v", merged)
	}
	// Removing an absent id is a no-op, not an error.
	merged = Merge(merged, Record{"id": "zzz"}, true)
	if len(merged) != 1 {
		t.Fatalf("merged = %v after removing absent id", merged)
	}
}

func TestLoadIndexMissingIsEmpty(t *testing.T) {
	backend := errBackend{err: &store.APIError{Op: "readFile", Status: 404, Err: store.ErrNotFound}}
	records, err := LoadIndex(context.Background(), backend, "posts")
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if records != nil {
		t.Fatalf("records = %v, want nil", records)
	}
}

func TestLoadIndexPropagatesOtherErrors(t *testing.T) {
	backend := errBackend{err: &store.APIError{Op: "readFile", Status: 401, Err: store.ErrUnauthorized}}
	_, err := LoadIndex(context.Background(), backend, "posts")
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestIndexArtifactEmptyIndex(t *testing.T) {
	artifact, err := IndexArtifact("posts", nil)
	if err != nil {
		t.Fatalf("IndexArtifact: %v", err)
	}
	if artifact.Path != "search/posts.json" {
		t.Fatalf("path = %q", artifact.Path)
	}
	if artifact.Content != "[]" {
		t.Fatalf("content = %q, want empty JSON array", artifact.Content)
	}
	if artifact.Encoding != store.EncodingUTF8 {
		t.Fatalf("encoding = %q", artifact.Encoding)
	}
}

func TestSortByID(t *testing.T) {
	records := []Record{{"id": "c"}, {"id": "a"}, {"id": "b"}}
	SortByID(records)
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if records[i].ID() != id {
			t.Fatalf("records[%d] = %q, want %q", i, records[i].ID(), id)
		}
	}
}
