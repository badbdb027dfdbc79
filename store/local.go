package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Local is a Backend that talks to the local development file server instead
// of a git hosting provider. Writes are direct, immediate, non-atomic
// overwrites with no commit or versioning semantics; it exists so the admin
// panel can be developed without network access to the remote store.
type Local struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// LocalConfig holds configuration for creating a Local backend.
type LocalConfig struct {
	// BaseURL of the development server, e.g. "http://127.0.0.1:3000".
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// NewLocal creates a backend against the local development server.
func NewLocal(config LocalConfig) (*Local, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("store: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("store: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ReadFile fetches one file through the dev server's read route.
func (l *Local) ReadFile(ctx context.Context, path string) ([]byte, error) {
	path = NormalizePath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/get/"+path, nil)
	if err != nil {
		return nil, &APIError{Op: "readFile", Path: path, Err: err}
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: "readFile", Path: path, Err: fmt.Errorf("%w: %v", ErrTransient, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, &APIError{Op: "readFile", Path: path, Status: resp.StatusCode, Err: ErrNotFound}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Op: "readFile", Path: path, Status: resp.StatusCode, Err: ErrTransient}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: "readFile", Path: path, Err: fmt.Errorf("%w: %v", ErrTransient, err)}
	}
	return body, nil
}

// Publish writes the whole batch through the dev server's save route. The
// message is logged and discarded; there is no history to attach it to.
func (l *Local) Publish(ctx context.Context, message string, artifacts []FileArtifact) (CommitResult, error) {
	if len(artifacts) == 0 {
		return CommitResult{}, &APIError{Op: "publish", Err: fmt.Errorf("%w: empty artifact list", ErrValidation)}
	}
	encoded, err := json.Marshal(artifacts)
	if err != nil {
		return CommitResult{}, &APIError{Op: "publish", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/save-files", bytes.NewReader(encoded))
	if err != nil {
		return CommitResult{}, &APIError{Op: "publish", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return CommitResult{}, &APIError{Op: "publish", Err: fmt.Errorf("%w: %v", ErrTransient, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return CommitResult{}, &APIError{Op: "publish", Status: resp.StatusCode, Err: ErrTransient}
	}
	l.logger.Info("local publish", "message", message, "files", len(artifacts))
	// No commit exists; report a fixed marker so callers still see a
	// non-empty result on success.
	return CommitResult{CommitSHA: "local", RefSHA: "local"}, nil
}

// Ping checks the dev server's liveness route.
func (l *Local) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/isAlive", nil)
	if err != nil {
		return &APIError{Op: "ping", Err: err}
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: "ping", Err: fmt.Errorf("%w: %v", ErrTransient, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Op: "ping", Status: resp.StatusCode, Err: ErrTransient}
	}
	return nil
}
