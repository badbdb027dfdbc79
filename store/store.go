// Package store abstracts the remote tree-based object store that holds the
// published site: a Git-like content-addressable repository reached through a
// REST hosting API. The write path is four primitives (blob, tree, commit,
// conditional ref update); the read path is a single-file fetch at a ref.
package store

import (
	"context"
	"strings"
)

// Encoding values accepted for FileArtifact content.
const (
	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// FileArtifact is one file to be written as part of a publish batch.
// Path is repository-relative with no leading slash.
type FileArtifact struct {
	Path     string `json:"filePath"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// RemoteRef is a branch pointer: the commit SHA a named ref resolves to.
type RemoteRef struct {
	Name string
	SHA  string
}

// TreeEntry is one (path, blob) pair overlaid onto a base tree.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

// BlobMode is the tree mode for a regular file blob.
const BlobMode = "100644"

// CommitResult reports a completed publish: the new commit and the SHA the
// branch ref now points to. A result without a CommitSHA is never success.
type CommitResult struct {
	CommitSHA string
	RefSHA    string
}

// ObjectStore is the contract a git-data backend must satisfy. Objects are
// created, never mutated; the branch ref is the only mutable thing and is
// advanced with optimistic concurrency.
type ObjectStore interface {
	// ReadRef fetches the current commit SHA for a branch, e.g. "heads/main".
	ReadRef(ctx context.Context, branch string) (RemoteRef, error)

	// CreateBlob stores one file's raw content and returns its SHA.
	CreateBlob(ctx context.Context, content, encoding string) (string, error)

	// CreateTree overlays entries onto baseSHA, preserving unlisted paths.
	// An entry whose path exists in the base overwrites it.
	CreateTree(ctx context.Context, entries []TreeEntry, baseSHA string) (string, error)

	// CreateCommit creates a commit object pointing at tree with the given
	// parents and returns its SHA.
	CreateCommit(ctx context.Context, message, treeSHA string, parents []string) (string, error)

	// UpdateRef advances the branch pointer to newSHA, conditioned on the
	// branch currently pointing at expectedSHA. A concurrent writer that
	// advanced the branch first surfaces as ErrRefConflict.
	UpdateRef(ctx context.Context, branch, newSHA, expectedSHA string) (RemoteRef, error)

	// ReadFile reads one file's content at the branch head. Callers may pass
	// "/foo" or "foo" interchangeably; implementations normalize the path.
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Backend is the surface the admin layer talks to: read a file, publish a
// batch of files as one atomic unit, and a liveness check. The git-backed
// implementation is publish.Publisher; Local trades atomicity for
// zero-setup offline development.
type Backend interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Publish(ctx context.Context, message string, artifacts []FileArtifact) (CommitResult, error)
	Ping(ctx context.Context) error
}

// NormalizePath strips leading slashes so "/a/b" and "a/b" address the same
// object, and collapses accidental doubled slashes from prefix joins.
func NormalizePath(p string) string {
	p = strings.TrimLeft(p, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}
