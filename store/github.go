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

// DefaultAPIBaseURL is the hosted GitHub REST endpoint. Override BaseURL in
// GitHubConfig for GitHub Enterprise installs.
const DefaultAPIBaseURL = "https://api.github.com"

// GitHubConfig holds configuration for creating a GitHub store client.
type GitHubConfig struct {
	// Owner and Repo identify the repository holding the published site.
	Owner string
	Repo  string
	// Token is the bearer credential attached to every request.
	Token string
	// Branch is the branch name reads address, without the refs/ prefix.
	// If empty, "main". Writes name their branch per call; keeping reads on
	// the same branch is what makes a read-after-publish see the publish.
	Branch string
	// BaseURL overrides the API endpoint. If empty, DefaultAPIBaseURL.
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// GitHub implements ObjectStore against the GitHub git-data REST API.
type GitHub struct {
	baseURL    string
	owner      string
	repo       string
	token      string
	branch     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGitHub creates a GitHub store client for one repository.
func NewGitHub(config GitHubConfig) (*GitHub, error) {
	if config.Owner == "" || config.Repo == "" {
		return nil, fmt.Errorf("store: Owner and Repo are required")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("store: Token is required")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("store: invalid BaseURL %q: %w", baseURL, err)
	}
	branch := config.Branch
	if branch == "" {
		branch = "main"
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHub{
		baseURL:    strings.TrimRight(baseURL, "/"),
		owner:      config.Owner,
		repo:       config.Repo,
		token:      config.Token,
		branch:     branch,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// repoPath builds "/repos/{owner}/{repo}" + suffix.
func (g *GitHub) repoPath(suffix string) string {
	return "/repos/" + g.owner + "/" + g.repo + suffix
}

// ReadRef fetches the current commit SHA for a branch.
func (g *GitHub) ReadRef(ctx context.Context, branch string) (RemoteRef, error) {
	var response struct {
		Ref    string `json:"ref"`
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	err := g.doJSON(ctx, http.MethodGet, g.repoPath("/git/ref/"+branch), nil, &response, "readRef", branch)
	if err != nil {
		return RemoteRef{}, err
	}
	return RemoteRef{Name: branch, SHA: response.Object.SHA}, nil
}

// CreateBlob stores one file's raw content.
func (g *GitHub) CreateBlob(ctx context.Context, content, encoding string) (string, error) {
	request := map[string]string{"content": content, "encoding": encoding}
	var response struct {
		SHA string `json:"sha"`
	}
	err := g.doJSON(ctx, http.MethodPost, g.repoPath("/git/blobs"), request, &response, "createBlob", "")
	if err != nil {
		return "", err
	}
	return response.SHA, nil
}

// CreateTree overlays entries onto baseSHA. The API accepts either a tree
// SHA or a commit SHA as base_tree and resolves the latter to its tree.
func (g *GitHub) CreateTree(ctx context.Context, entries []TreeEntry, baseSHA string) (string, error) {
	request := map[string]any{"tree": entries, "base_tree": baseSHA}
	var response struct {
		SHA string `json:"sha"`
	}
	err := g.doJSON(ctx, http.MethodPost, g.repoPath("/git/trees"), request, &response, "createTree", "")
	if err != nil {
		return "", err
	}
	return response.SHA, nil
}

// CreateCommit creates a commit object.
func (g *GitHub) CreateCommit(ctx context.Context, message, treeSHA string, parents []string) (string, error) {
	request := map[string]any{"message": message, "tree": treeSHA, "parents": parents}
	var response struct {
		SHA string `json:"sha"`
	}
	err := g.doJSON(ctx, http.MethodPost, g.repoPath("/git/commits"), request, &response, "createCommit", "")
	if err != nil {
		return "", err
	}
	return response.SHA, nil
}

// UpdateRef advances the branch pointer without force. The API rejects
// non-fast-forward updates; because the new commit's sole parent is
// expectedSHA, the update can only succeed while the branch still points at
// expectedSHA — a concurrent writer surfaces as ErrRefConflict.
func (g *GitHub) UpdateRef(ctx context.Context, branch, newSHA, expectedSHA string) (RemoteRef, error) {
	request := map[string]any{"sha": newSHA, "force": false}
	var response struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	err := g.doJSON(ctx, http.MethodPatch, g.repoPath("/git/refs/"+branch), request, &response, "updateRef", branch)
	if err != nil {
		return RemoteRef{}, err
	}
	return RemoteRef{Name: branch, SHA: response.Object.SHA}, nil
}

// ReadFile reads one file's raw content at the configured branch head via
// the contents API. Without the ref parameter the API would serve the
// repository's default branch, which is not necessarily the publish branch.
func (g *GitHub) ReadFile(ctx context.Context, path string) ([]byte, error) {
	path = NormalizePath(path)
	endpoint := g.repoPath("/contents/"+escapePath(path)) + "?ref=heads/" + url.QueryEscape(g.branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+endpoint, nil)
	if err != nil {
		return nil, &APIError{Op: "readFile", Path: path, Err: err}
	}
	// The raw media type skips the base64 JSON envelope entirely.
	req.Header.Set("Accept", "application/vnd.github.raw")
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: "readFile", Path: path, Err: fmt.Errorf("%w: %v", ErrTransient, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, g.statusError("readFile", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: "readFile", Path: path, Err: fmt.Errorf("%w: %v", ErrTransient, err)}
	}
	return body, nil
}

func (g *GitHub) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}

// doJSON performs one JSON round-trip and maps failure statuses onto the
// store error taxonomy.
func (g *GitHub) doJSON(ctx context.Context, method, endpoint string, request, response any, op, target string) error {
	var body io.Reader
	if request != nil {
		encoded, err := json.Marshal(request)
		if err != nil {
			return &APIError{Op: op, Path: target, Err: err}
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, body)
	if err != nil {
		return &APIError{Op: op, Path: target, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if request != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Path: target, Err: fmt.Errorf("%w: %v", ErrTransient, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := g.statusError(op, target, resp.StatusCode)
		g.logger.Warn("store request failed", "op", op, "status", resp.StatusCode, "target", target)
		return apiErr
	}
	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return &APIError{Op: op, Path: target, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// statusError maps an HTTP failure status onto the error taxonomy. The 422
// mapping depends on the operation: for tree creation it means the base tree
// no longer matches the head, for ref updates it means the branch moved.
func (g *GitHub) statusError(op, target string, status int) error {
	var kind error
	switch {
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrUnauthorized
	case status == http.StatusRequestEntityTooLarge:
		kind = ErrPayloadTooLarge
	case status == http.StatusConflict:
		kind = ErrRefConflict
	case status == http.StatusUnprocessableEntity && op == "createTree":
		kind = ErrStaleBaseTree
	case status == http.StatusUnprocessableEntity && op == "updateRef":
		kind = ErrRefConflict
	default:
		kind = ErrTransient
	}
	return &APIError{Op: op, Path: target, Status: status, Err: kind}
}

// escapePath percent-escapes each path segment while keeping separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
