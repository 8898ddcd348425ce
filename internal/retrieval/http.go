package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// HTTPFetcher downloads a remote blueprint input over plain net/http,
// grounded on retriever.py's RemoteTextFileRetriever/
// RemoteBinaryFileRetriever. No pack example ships a download/checksum
// library comparable to Pooch (the Python implementation's choice for
// hash-verified binary downloads), so this is a deliberate stdlib boundary
// — see DESIGN.md.
type HTTPFetcher struct {
	Client *http.Client
}

var _ Fetcher = HTTPFetcher{}

func (f HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f HTTPFetcher) Fetch(ctx context.Context, targetDir string, source Source) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URI, nil)
	if err != nil {
		return "", fmt.Errorf("retrieval: build request for %q: %w", source.URI, err)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("retrieval: fetch %q: %w", source.URI, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("retrieval: fetch %q: unexpected status %s", source.URI, resp.Status)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("retrieval: create target dir %q: %w", targetDir, err)
	}

	destPath := filepath.Join(targetDir, filepath.Base(source.URI))
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("retrieval: create %q: %w", destPath, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, resp.Body); err != nil {
		return "", fmt.Errorf("retrieval: write %q: %w", destPath, err)
	}

	return destPath, nil
}
