// Package retrieval implements a pluggable blueprint-input fetch contract
// that stays content-agnostic, generalized from
// original_source/cstar/retrieval/retriever.py's Retriever family (local
// file copy, remote binary/text download, git clone) into a single Fetcher
// interface with three strategies.
package retrieval

import "context"

// Source names where to fetch from and what kind of thing it is.
type Source struct {
	// URI is a local filesystem path, an http(s) URL, or a git remote,
	// depending on the Fetcher it's passed to.
	URI string
	// Ref is an optional git ref (branch, tag, commit) for GitCloneFetcher;
	// ignored by the other fetchers.
	Ref string
}

// Fetcher retrieves a blueprint input into targetDir, returning the path to
// the retrieved file or directory.
type Fetcher interface {
	Fetch(ctx context.Context, targetDir string, source Source) (string, error)
}
