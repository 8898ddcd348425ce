package retrieval

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// GitCloneFetcher clones (and optionally checks out a ref of) a remote
// repository, grounded on retriever.py's RemoteRepositoryRetriever and
// RemoteTextFileSetRetriever. Shells out to the git binary via os/exec,
// matching the external-tool-invocation idiom the batch launcher uses for
// sbatch/squeue/scancel.
type GitCloneFetcher struct {
	// GitCmd names the git binary, defaulting to "git"; overridable for
	// testing against a fake.
	GitCmd string
}

var _ Fetcher = GitCloneFetcher{}

func (f GitCloneFetcher) gitCmd() string {
	if f.GitCmd != "" {
		return f.GitCmd
	}
	return "git"
}

func (f GitCloneFetcher) Fetch(ctx context.Context, targetDir string, source Source) (string, error) {
	if err := os.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		return "", fmt.Errorf("retrieval: create parent of %q: %w", targetDir, err)
	}

	args := []string{"clone", "--quiet", source.URI, targetDir}
	if err := exec.CommandContext(ctx, f.gitCmd(), args...).Run(); err != nil {
		return "", fmt.Errorf("retrieval: clone %q: %w", source.URI, err)
	}

	if source.Ref != "" {
		checkout := exec.CommandContext(ctx, f.gitCmd(), "-C", targetDir, "checkout", "--quiet", source.Ref)
		if err := checkout.Run(); err != nil {
			return "", fmt.Errorf("retrieval: checkout %q in %q: %w", source.Ref, source.URI, err)
		}
	}

	return targetDir, nil
}
