// Package hub resolves model repository files: checkpoints, configs and
// tokenizer data. A Repository abstracts where the files come from, so
// models load the same way from a local directory or the Hugging Face hub.
package hub

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Repository fetches files of one model repository at a fixed revision.
// Fetch returns a local filesystem path for the named file.
type Repository interface {
	// Name identifies the repository, e.g. "bert-base-uncased".
	Name() string
	// Fetch makes the named file available locally and returns its path.
	Fetch(filename string) (string, error)
}

// LocalDir serves repository files from a directory on disk.
type LocalDir struct {
	dir string
}

func NewLocalDir(dir string) *LocalDir {
	return &LocalDir{dir: dir}
}

func (l *LocalDir) Name() string {
	return l.dir
}

func (l *LocalDir) Fetch(filename string) (string, error) {
	path := filepath.Join(l.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file %q not found in %q: %w", filename, l.dir, err)
	}
	return path, nil
}

// HFRepository downloads files from the Hugging Face hub and caches them on
// disk under cacheDir/<owner>/<model>/<revision>/.
type HFRepository struct {
	name     string
	revision string
	cacheDir string
	endpoint string
	client   *http.Client
}

// HFOption adjusts an HFRepository.
type HFOption func(*HFRepository)

// WithEndpoint overrides the hub endpoint, mainly for tests.
func WithEndpoint(endpoint string) HFOption {
	return func(r *HFRepository) {
		r.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) HFOption {
	return func(r *HFRepository) {
		r.client = client
	}
}

// NewHFRepository creates a hub-backed repository. An empty revision means
// "main".
func NewHFRepository(name, revision, cacheDir string, opts ...HFOption) *HFRepository {
	if revision == "" {
		revision = "main"
	}
	r := &HFRepository{
		name:     name,
		revision: revision,
		cacheDir: cacheDir,
		endpoint: "https://huggingface.co",
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HFRepository) Name() string {
	return r.name
}

// Revision returns the pinned revision.
func (r *HFRepository) Revision() string {
	return r.revision
}

// Fetch downloads the file unless a cached copy exists.
func (r *HFRepository) Fetch(filename string) (string, error) {
	cached := filepath.Join(r.cacheDir, filepath.FromSlash(r.name), r.revision, filename)
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}

	url := fmt.Sprintf("%s/%s/resolve/%s/%s", r.endpoint, r.name, r.revision, filename)
	resp, err := r.client.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %q: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %q: status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(cached), 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(cached), ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to download %q: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), cached); err != nil {
		return "", fmt.Errorf("failed to move download into cache: %w", err)
	}
	return cached, nil
}
