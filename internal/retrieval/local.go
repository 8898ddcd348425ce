package retrieval

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalCopyFetcher copies a file already on the local filesystem into the
// run's working directory, grounded on retriever.py's
// LocalTextFileRetriever/LocalBinaryFileRetriever (a plain copy rather than
// the Python implementation's symlink-for-binaries special case, since the
// core treats every blueprint input the same way once fetched).
type LocalCopyFetcher struct{}

var _ Fetcher = LocalCopyFetcher{}

func (LocalCopyFetcher) Fetch(ctx context.Context, targetDir string, source Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(source.URI)
	if err != nil {
		return "", fmt.Errorf("retrieval: open %q: %w", source.URI, err)
	}
	defer src.Close()

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("retrieval: create target dir %q: %w", targetDir, err)
	}

	destPath := filepath.Join(targetDir, filepath.Base(source.URI))
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("retrieval: create %q: %w", destPath, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return "", fmt.Errorf("retrieval: copy %q to %q: %w", source.URI, destPath, err)
	}

	return destPath, nil
}
