package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/gitpress-io/gitpress/store"
)

// fakeStore is an in-memory git object model: blobs, trees, commits, and a
// single mutable ref. failAt injects an error at a named step.
type fakeStore struct {
	mu      sync.Mutex
	seq     int
	blobs   map[string]store.FileArtifact
	trees   map[string]map[string]string // treeSHA -> path -> blobSHA
	commits map[string]fakeCommit
	refSHA  string
	refName string

	failAt  string
	failErr error

	blobCalls   int
	treeCalls   int
	commitCalls int
	refReads    int
}

type fakeCommit struct {
	message string
	tree    string
	parents []string
}

func newFakeStore() *fakeStore {
	f := &fakeStore{
		blobs:   make(map[string]store.FileArtifact),
		trees:   make(map[string]map[string]string),
		commits: make(map[string]fakeCommit),
		refName: "heads/main",
	}
	// Seed an initial empty commit so the ref resolves.
	f.trees["tree-0"] = map[string]string{}
	f.commits["commit-0"] = fakeCommit{tree: "tree-0"}
	f.refSHA = "commit-0"
	return f
}

func (f *fakeStore) next(kind string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", kind, f.seq)
}

func (f *fakeStore) fail(step string) error {
	if f.failAt == step {
		if f.failErr != nil {
			return f.failErr
		}
		return &store.APIError{Op: step, Status: 500, Err: store.ErrTransient}
	}
	return nil
}

func (f *fakeStore) ReadRef(ctx context.Context, branch string) (store.RemoteRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refReads++
	if err := f.fail("readRef"); err != nil {
		return store.RemoteRef{}, err
	}
	if branch != f.refName {
		return store.RemoteRef{}, &store.APIError{Op: "readRef", Status: 404, Err: store.ErrNotFound}
	}
	return store.RemoteRef{Name: branch, SHA: f.refSHA}, nil
}

func (f *fakeStore) CreateBlob(ctx context.Context, content, encoding string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobCalls++
	if err := f.fail("createBlob"); err != nil {
		return "", err
	}
	sha := f.next("blob")
	f.blobs[sha] = store.FileArtifact{Content: content, Encoding: encoding}
	return sha, nil
}

func (f *fakeStore) CreateTree(ctx context.Context, entries []store.TreeEntry, baseSHA string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treeCalls++
	if err := f.fail("createTree"); err != nil {
		return "", err
	}
	baseTree := map[string]string{}
	if baseSHA != "" {
		base, ok := f.commits[baseSHA]
		if !ok {
			return "", &store.APIError{Op: "createTree", Status: 422, Err: store.ErrStaleBaseTree}
		}
		for p, b := range f.trees[base.tree] {
			baseTree[p] = b
		}
	}
	for _, e := range entries {
		if _, ok := f.blobs[e.SHA]; !ok {
			return "", fmt.Errorf("fake: tree references unknown blob %s", e.SHA)
		}
		baseTree[e.Path] = e.SHA
	}
	sha := f.next("tree")
	f.trees[sha] = baseTree
	return sha, nil
}

func (f *fakeStore) CreateCommit(ctx context.Context, message, treeSHA string, parents []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitCalls++
	if err := f.fail("createCommit"); err != nil {
		return "", err
	}
	if _, ok := f.trees[treeSHA]; !ok {
		return "", fmt.Errorf("fake: commit references unknown tree %s", treeSHA)
	}
	sha := f.next("commit")
	f.commits[sha] = fakeCommit{message: message, tree: treeSHA, parents: parents}
	return sha, nil
}

func (f *fakeStore) UpdateRef(ctx context.Context, branch, newSHA, expectedSHA string) (store.RemoteRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("updateRef"); err != nil {
		return store.RemoteRef{}, err
	}
	if branch != f.refName {
		return store.RemoteRef{}, &store.APIError{Op: "updateRef", Status: 404, Err: store.ErrNotFound}
	}
	if f.refSHA != expectedSHA {
		return store.RemoteRef{}, &store.APIError{Op: "updateRef", Status: 409, Err: store.ErrRefConflict}
	}
	f.refSHA = newSHA
	return store.RemoteRef{Name: branch, SHA: newSHA}, nil
}

func (f *fakeStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path = store.NormalizePath(path)
	head := f.commits[f.refSHA]
	blobSHA, ok := f.trees[head.tree][path]
	if !ok {
		return nil, &store.APIError{Op: "readFile", Path: path, Status: 404, Err: store.ErrNotFound}
	}
	return []byte(f.blobs[blobSHA].Content), nil
}

// headFile reads a path at the current ref, failing the test if missing.
func (f *fakeStore) headFile(t *testing.T, path string) string {
	t.Helper()
	data, err := f.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile(%q): %v", path, err)
	}
	return string(data)
}

func newTestPublisher(t *testing.T, f *fakeStore) *Publisher {
	t.Helper()
	p, err := New(Config{Store: f, Branch: "main"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func utf8Artifact(path, content string) store.FileArtifact {
	return store.FileArtifact{Path: path, Content: content, Encoding: store.EncodingUTF8}
}

func TestPublishCommitsAllFiles(t *testing.T) {
	f := newFakeStore()
	p := newTestPublisher(t, f)

	artifacts := []store.FileArtifact{
		utf8Artifact("posts/hello/index.html", "<h1>Hello</h1>"),
		utf8Artifact("posts/hello/index.json", `{"id":"hello"}`),
		utf8Artifact("search/posts.json", `[{"id":"hello"}]`),
	}
	result, err := p.Publish(context.Background(), "Save posts: hello", artifacts)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.CommitSHA == "" || result.RefSHA != result.CommitSHA {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.refSHA != result.CommitSHA {
		t.Fatalf("ref not advanced: ref=%s commit=%s", f.refSHA, result.CommitSHA)
	}
	for _, a := range artifacts {
		if got := f.headFile(t, a.Path); got != a.Content {
			t.Errorf("%s = %q, want %q", a.Path, got, a.Content)
		}
	}
	if f.commitCalls != 1 {
		t.Errorf("commitCalls = %d, want 1", f.commitCalls)
	}
	commit := f.commits[result.CommitSHA]
	if len(commit.parents) != 1 || commit.parents[0] != "commit-0" {
		t.Errorf("commit parents = %v, want [commit-0]", commit.parents)
	}
	if commit.message != "Save posts: hello" {
		t.Errorf("commit message = %q", commit.message)
	}
}

func TestPublishPreservesUnlistedPaths(t *testing.T) {
	f := newFakeStore()
	p := newTestPublisher(t, f)
	ctx := context.Background()

	if _, err := p.Publish(ctx, "first", []store.FileArtifact{utf8Artifact("keep.txt", "keep me")}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if _, err := p.Publish(ctx, "second", []store.FileArtifact{utf8Artifact("new.txt", "new")}); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if got := f.headFile(t, "keep.txt"); got != "keep me" {
		t.Fatalf("keep.txt = %q after unrelated publish", got)
	}
}

func TestPublishEmptyBatch(t *testing.T) {
	p := newTestPublisher(t, newFakeStore())
	_, err := p.Publish(context.Background(), "noop", nil)
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestPublishRejectsUnknownEncoding(t *testing.T) {
	p := newTestPublisher(t, newFakeStore())
	_, err := p.Publish(context.Background(), "bad", []store.FileArtifact{
		{Path: "a.txt", Content: "x", Encoding: "utf-16"},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestPublishNormalizesAndDeduplicatesPaths(t *testing.T) {
	f := newFakeStore()
	p := newTestPublisher(t, f)

	_, err := p.Publish(context.Background(), "dedupe", []store.FileArtifact{
		utf8Artifact("/posts//a/index.html", "first"),
		utf8Artifact("posts/a/index.html", "last wins"),
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := f.headFile(t, "posts/a/index.html"); got != "last wins" {
		t.Fatalf("content = %q, want last occurrence", got)
	}
}

func TestPublishFailureLeavesRefUntouched(t *testing.T) {
	steps := []string{"readRef", "createBlob", "createTree", "createCommit", "updateRef"}
	for _, step := range steps {
		t.Run(step, func(t *testing.T) {
			f := newFakeStore()
			f.failAt = step
			p := newTestPublisher(t, f)

			_, err := p.Publish(context.Background(), "fail", []store.FileArtifact{
				utf8Artifact("a.txt", "a"),
				utf8Artifact("b.txt", "b"),
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if f.refSHA != "commit-0" {
				t.Fatalf("ref moved to %s after failed %s", f.refSHA, step)
			}
			if _, readErr := f.ReadFile(context.Background(), "a.txt"); !errors.Is(readErr, store.ErrNotFound) {
				t.Fatalf("a.txt visible after failed %s", step)
			}
		})
	}
}

func TestPublishConcurrentWriterConflict(t *testing.T) {
	f := newFakeStore()
	f.failAt = "updateRef"
	f.failErr = &store.APIError{Op: "updateRef", Status: 409, Err: store.ErrRefConflict}
	p := newTestPublisher(t, f)

	_, err := p.Publish(context.Background(), "conflict", []store.FileArtifact{utf8Artifact("a.txt", "a")})
	if !store.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if f.refSHA != "commit-0" {
		t.Fatalf("ref moved on conflict")
	}
}

func TestPublishStaleBaseTree(t *testing.T) {
	f := newFakeStore()
	f.failAt = "createTree"
	f.failErr = &store.APIError{Op: "createTree", Status: 422, Err: store.ErrStaleBaseTree}
	p := newTestPublisher(t, f)

	_, err := p.Publish(context.Background(), "stale", []store.FileArtifact{utf8Artifact("a.txt", "a")})
	if !store.IsConflict(err) {
		t.Fatalf("err = %v, want conflict classification", err)
	}
}

func TestPublishMissingRefIsFatal(t *testing.T) {
	f := newFakeStore()
	f.refName = "heads/other"
	p := newTestPublisher(t, f)

	_, err := p.Publish(context.Background(), "missing", []store.FileArtifact{utf8Artifact("a.txt", "a")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if f.blobCalls != 0 {
		t.Fatalf("blobs created before ref check resolved")
	}
}

func TestPublishIdempotentIndexUpsert(t *testing.T) {
	f := newFakeStore()
	p := newTestPublisher(t, f)
	ctx := context.Background()

	record := Record{"id": "hello", "title": "Hello"}
	for i := 0; i < 2; i++ {
		records, err := LoadIndex(ctx, p, "posts")
		if err != nil {
			t.Fatalf("LoadIndex: %v", err)
		}
		records = Merge(records, record, false)
		artifact, err := IndexArtifact("posts", records)
		if err != nil {
			t.Fatalf("IndexArtifact: %v", err)
		}
		if _, err := p.Publish(ctx, "save", []store.FileArtifact{artifact}); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}

	var records []Record
	if err := json.Unmarshal([]byte(f.headFile(t, "search/posts.json")), &records); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("index has %d records after double save, want 1", len(records))
	}
}

func TestRefName(t *testing.T) {
	p := newTestPublisher(t, newFakeStore())
	if got := p.Ref(); got != "heads/main" {
		t.Fatalf("Ref() = %q", got)
	}
	if !strings.HasPrefix(p.Ref(), "heads/") {
		t.Fatalf("ref missing heads/ prefix")
	}
}
