package batch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accelara/batchdl/internal/downloader"
	"github.com/accelara/batchdl/internal/manifest"
)

type fileServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newFileServer(t *testing.T, files map[string]string) *fileServer {
	t.Helper()
	fs := &fileServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		if r.Method == http.MethodHead {
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func writeManifest(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.txt")
	var content string
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runManifest(t *testing.T, path string, suffixes []string, outDir string, workers int) State {
	t.Helper()
	ctx := context.Background()
	d := downloader.NewHTTPDownloader(downloader.DefaultOptions())

	candidates, err := manifest.Parse(ctx, path, suffixes, manifest.WithSizeProber(d))
	require.NoError(t, err)

	return New(d, WithWorkers(workers)).Run(ctx, candidates, outDir)
}

func TestEndToEndExampleManifest(t *testing.T) {
	srv := newFileServer(t, map[string]string{
		"/file1.pdf": "pdf body",
		"/file2.txt": "text body",
		"/file3.jpg": "jpeg body",
	})
	path := writeManifest(t,
		srv.URL+"/file1.pdf\tfile1",
		srv.URL+"/file2.txt\tfile2",
		srv.URL+"/file3.jpg\tfile3",
	)
	outDir := t.TempDir()

	st := runManifest(t, path, []string{".pdf", ".txt"}, outDir, 1)

	assert.Equal(t, TerminalCompleted, st.Terminal)
	assert.Equal(t, 2, st.Succeeded)
	assert.Equal(t, ModeBytes, st.Mode)
	assert.Equal(t, int64(len("pdf body")+len("text body")), st.CompletedUnits)

	got, err := os.ReadFile(filepath.Join(outDir, "file1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf body", string(got))
	got, err = os.ReadFile(filepath.Join(outDir, "file2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "text body", string(got))
	assert.NoFileExists(t, filepath.Join(outDir, "file3.jpg"))
}

func TestEndToEndNoMatchingSuffix(t *testing.T) {
	srv := newFileServer(t, map[string]string{"/file1.pdf": "pdf body"})
	path := writeManifest(t, srv.URL+"/file1.pdf\tfile1")
	outDir := t.TempDir()

	st := runManifest(t, path, []string{".doc", ".png"}, outDir, 1)

	assert.Equal(t, TerminalNoLinks, st.Terminal)
	assert.Zero(t, srv.hits.Load(), "no request may reach the server")
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEndToEndLastWriteWins(t *testing.T) {
	srv := newFileServer(t, map[string]string{
		"/a/report.pdf": "first",
		"/b/report.pdf": "second",
		"/c/report.pdf": "third",
		"/other.pdf":    "other",
	})
	path := writeManifest(t,
		srv.URL+"/a/report.pdf\treport",
		srv.URL+"/other.pdf\tother",
		srv.URL+"/b/report.pdf\treport",
		srv.URL+"/c/report.pdf\treport",
	)

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			outDir := t.TempDir()

			st := runManifest(t, path, []string{".pdf"}, outDir, workers)

			assert.Equal(t, 4, st.Succeeded)
			got, err := os.ReadFile(filepath.Join(outDir, "report.pdf"))
			require.NoError(t, err)
			assert.Equal(t, "third", string(got))
		})
	}
}

func TestEndToEndFailureDoesNotStopBatch(t *testing.T) {
	srv := newFileServer(t, map[string]string{"/ok.pdf": "fine"})
	path := writeManifest(t,
		srv.URL+"/missing.pdf\tmissing",
		srv.URL+"/ok.pdf\tok",
	)
	outDir := t.TempDir()

	st := runManifest(t, path, []string{".pdf"}, outDir, 1)

	assert.Equal(t, TerminalCompleted, st.Terminal)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 1, st.Succeeded)
	assert.NoFileExists(t, filepath.Join(outDir, "missing.pdf"))
	assert.FileExists(t, filepath.Join(outDir, "ok.pdf"))
}
