// Package publish turns a logical content edit into one atomic multi-file
// commit against the remote object store. A batch either becomes one new
// commit on the target branch in its entirety or no visible change occurs;
// objects created by a failed attempt are never referenced by any ref and
// are eventually garbage-collected by the store.
package publish

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gitpress-io/gitpress/store"
)

// Publisher drives the blob → tree → commit → ref-update sequence against an
// ObjectStore. It implements store.Backend.
type Publisher struct {
	store  store.ObjectStore
	branch string
	logger *slog.Logger
}

// Config holds configuration for creating a Publisher.
type Config struct {
	// Store is the git-data backend the publish sequence runs against.
	Store store.ObjectStore
	// Branch is the target branch name without the refs/ prefix,
	// e.g. "main". The publisher addresses it as "heads/<branch>".
	Branch string
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// New creates a Publisher for one branch of one repository.
func New(config Config) (*Publisher, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("publish: Store is required")
	}
	if config.Branch == "" {
		return nil, fmt.Errorf("publish: Branch is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{store: config.Store, branch: config.Branch, logger: logger}, nil
}

// Ref returns the branch ref name the publisher writes to.
func (p *Publisher) Ref() string { return "heads/" + p.branch }

// ReadFile reads one file at the branch head.
func (p *Publisher) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return p.store.ReadFile(ctx, path)
}

// Ping verifies the branch ref is reachable with the configured credentials.
func (p *Publisher) Ping(ctx context.Context) error {
	_, err := p.store.ReadRef(ctx, p.Ref())
	return err
}

// Publish commits the batch as one atomic unit. Steps run in fixed order:
// the current ref is read once and becomes both the tree base and the sole
// commit parent; every blob must exist before the tree is built; the ref
// advances only if it still points at the value read in step one. Any
// failure leaves the branch untouched — there is no partial-success state.
//
// Conflicts (stale base tree, ref moved) are not retried or rebased here;
// the caller must re-fetch current state and resubmit a fresh batch.
func (p *Publisher) Publish(ctx context.Context, message string, artifacts []store.FileArtifact) (store.CommitResult, error) {
	if len(artifacts) == 0 {
		return store.CommitResult{}, &store.APIError{Op: "publish", Err: fmt.Errorf("%w: empty artifact list", store.ErrValidation)}
	}
	batch, err := dedupe(artifacts)
	if err != nil {
		return store.CommitResult{}, err
	}

	prior, err := p.store.ReadRef(ctx, p.Ref())
	if err != nil {
		// A missing ref is always fatal to a publish; it is never treated
		// as "empty branch".
		return store.CommitResult{}, err
	}

	entries := make([]store.TreeEntry, len(batch))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, artifact := range batch {
		group.Go(func() error {
			sha, err := p.store.CreateBlob(groupCtx, artifact.Content, artifact.Encoding)
			if err != nil {
				return err
			}
			entries[i] = store.TreeEntry{
				Path: artifact.Path,
				Mode: store.BlobMode,
				Type: "blob",
				SHA:  sha,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return store.CommitResult{}, err
	}

	treeSHA, err := p.store.CreateTree(ctx, entries, prior.SHA)
	if err != nil {
		return store.CommitResult{}, err
	}
	commitSHA, err := p.store.CreateCommit(ctx, message, treeSHA, []string{prior.SHA})
	if err != nil {
		return store.CommitResult{}, err
	}
	ref, err := p.store.UpdateRef(ctx, p.Ref(), commitSHA, prior.SHA)
	if err != nil {
		// Blobs, tree and commit already exist but stay unreferenced; that
		// is invisible to readers and safe to abandon.
		return store.CommitResult{}, err
	}

	p.logger.Info("published", "branch", p.branch, "commit", commitSHA, "files", len(batch))
	return store.CommitResult{CommitSHA: commitSHA, RefSHA: ref.SHA}, nil
}

// dedupe normalizes artifact paths and collapses colliding paths, keeping
// the last occurrence. The same path must never appear twice in one tree;
// later artifacts win because index merges are appended after content files.
func dedupe(artifacts []store.FileArtifact) ([]store.FileArtifact, error) {
	byPath := make(map[string]int, len(artifacts))
	out := make([]store.FileArtifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		artifact.Path = store.NormalizePath(artifact.Path)
		if artifact.Path == "" {
			return nil, &store.APIError{Op: "publish", Err: fmt.Errorf("%w: artifact with empty path", store.ErrValidation)}
		}
		switch artifact.Encoding {
		case store.EncodingUTF8, store.EncodingBase64:
		default:
			return nil, &store.APIError{Op: "publish", Path: artifact.Path, Err: fmt.Errorf("%w: unknown encoding %q", store.ErrValidation, artifact.Encoding)}
		}
		if i, seen := byPath[artifact.Path]; seen {
			out[i] = artifact
			continue
		}
		byPath[artifact.Path] = len(out)
		out = append(out, artifact)
	}
	return out, nil
}
