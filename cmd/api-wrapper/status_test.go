package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accelara/batchdl/internal/batch"
	"github.com/accelara/batchdl/internal/manifest"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestStatusReporterEvents(t *testing.T) {
	var buf bytes.Buffer
	sr := NewStatusReporter(&buf, "dl-1")
	sr.now = func() time.Time { return time.Unix(1700000000, 0) }

	c := manifest.Candidate{Link: "http://example.com/a.pdf", FileName: "a.pdf", Size: 10}
	st := batch.NewState([]manifest.Candidate{c})
	sr.Report(batch.Event{Type: batch.EventStarted, State: st})
	st = st.Advance(c, true)
	sr.Report(batch.Event{Type: batch.EventItem, Candidate: c, Destination: "/out/a.pdf", OK: true, State: st})
	st.Terminal = batch.TerminalCompleted
	sr.Report(batch.Event{Type: batch.EventFinished, State: st})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "dl-1", lines[0]["download_id"])
	assert.Equal(t, float64(1700000000), lines[0]["timestamp"])
	assert.Equal(t, "started", lines[0]["type"])
	assert.Equal(t, "running", lines[0]["status"])
	assert.Equal(t, "bytes", lines[0]["mode"])
	assert.Equal(t, float64(0), lines[0]["progress"])

	assert.Equal(t, "item", lines[1]["type"])
	assert.Equal(t, "a.pdf", lines[1]["file_name"])
	assert.Equal(t, true, lines[1]["ok"])
	assert.Equal(t, float64(100), lines[1]["progress"])

	assert.Equal(t, "finished", lines[2]["type"])
	assert.Equal(t, "completed", lines[2]["status"])
	assert.Equal(t, float64(1), lines[2]["succeeded"])
}

func TestStatusReporterNoLinks(t *testing.T) {
	var buf bytes.Buffer

	NewStatusReporter(&buf, "dl-2").Report(batch.Event{Type: batch.EventNoLinks})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "no_links", lines[0]["status"])
	assert.Equal(t, "No downloadable links found in the input file.", lines[0]["message"])
}

type fixedProber int64

func (p fixedProber) ProbeSize(context.Context, string) (int64, error) { return int64(p), nil }

func TestInspectManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"http://example.com/file1.pdf\tfile1\n"+
			"broken line\n"+
			"http://example.com/file2.txt\tfile2\n"), 0644))

	var buf bytes.Buffer
	err := inspectManifest(context.Background(), &buf, "dl-3", path, []string{"pdf", ".txt"}, fixedProber(2048))
	require.NoError(t, err)

	var got inspectResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{".pdf", ".txt"}, got.Suffixes)
	assert.Equal(t, []manifest.Candidate{
		{Link: "http://example.com/file1.pdf", FileName: "file1.pdf", Size: 2048},
		{Link: "http://example.com/file2.txt", FileName: "file2.txt", Size: 2048},
	}, got.Candidates)
	assert.Equal(t, int64(4096), got.TotalSize)
	assert.Equal(t, "4.0 KiB", got.TotalSizeHuman)
	assert.Equal(t, "bytes", got.Mode)
	assert.Equal(t, 3, got.Lines)
	assert.Equal(t, 1, got.Malformed)
	assert.Equal(t, 2, got.Matched)
}

func TestInspectMissingManifest(t *testing.T) {
	var buf bytes.Buffer

	err := inspectManifest(context.Background(), &buf, "dl-4", filepath.Join(t.TempDir(), "missing.txt"), []string{".pdf"}, nil)

	var nf *manifest.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Zero(t, buf.Len())
}

func TestRootCommandStreamsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	list := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(list, []byte(srv.URL+"/doc.pdf\tdoc\n"), 0644))
	outDir := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{
		"--input-file", list,
		"--output-dir", outDir,
		"--suffixes", ".pdf",
		"--download-id", "dl-5",
	})

	require.NoError(t, cmd.Execute())

	lines := decodeLines(t, &stdout)
	require.Len(t, lines, 3)
	assert.Equal(t, "dl-5", lines[2]["download_id"])
	assert.Equal(t, "completed", lines[2]["status"])

	got, err := os.ReadFile(filepath.Join(outDir, "doc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}
