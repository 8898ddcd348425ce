package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalCopyFetcherCopiesFile(t *testing.T) {
	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "blueprint.yaml")
	require.NoError(t, os.WriteFile(srcPath, []byte("application: sleep\n"), 0o644))

	dstDir := t.TempDir()
	f := LocalCopyFetcher{}
	got, err := f.Fetch(context.Background(), dstDir, Source{URI: srcPath})
	require.NoError(t, err)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, "application: sleep\n", string(data))
}

func TestLocalCopyFetcherMissingSource(t *testing.T) {
	f := LocalCopyFetcher{}
	_, err := f.Fetch(context.Background(), t.TempDir(), Source{URI: "/nonexistent/path.yaml"})
	require.Error(t, err)
}

func TestHTTPFetcherDownloadsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("application: roms_marbl\n"))
	}))
	defer srv.Close()

	f := HTTPFetcher{}
	dstDir := t.TempDir()
	got, err := f.Fetch(context.Background(), dstDir, Source{URI: srv.URL + "/blueprint.yaml"})
	require.NoError(t, err)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, "application: roms_marbl\n", string(data))
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := HTTPFetcher{}
	_, err := f.Fetch(context.Background(), t.TempDir(), Source{URI: srv.URL + "/missing.yaml"})
	require.Error(t, err)
}
