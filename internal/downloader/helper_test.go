package downloader

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// MockHTTPServer serves named files and records every request it sees.
type MockHTTPServer struct {
	server *httptest.Server

	mu         sync.Mutex
	files      map[string][]byte
	statuses   map[string]int // forced status per path, for GET and HEAD
	headStatus int            // forced status for every HEAD request
	truncate   map[string]int // bytes actually sent while declaring the full length
	noLength   map[string]bool
	requests   []string
}

func NewMockHTTPServer(t *testing.T) *MockHTTPServer {
	t.Helper()
	m := &MockHTTPServer{
		files:    make(map[string][]byte),
		statuses: make(map[string]int),
		truncate: make(map[string]int),
		noLength: make(map[string]bool),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handler))
	t.Cleanup(m.server.Close)
	return m
}

func (m *MockHTTPServer) URL(path string) string {
	return m.server.URL + path
}

func (m *MockHTTPServer) SetFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

func (m *MockHTTPServer) SetStatus(path string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[path] = code
}

func (m *MockHTTPServer) SetHeadStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headStatus = code
}

// SetTruncated makes GET send only n bytes of path while declaring its full length.
func (m *MockHTTPServer) SetTruncated(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.truncate[path] = n
}

func (m *MockHTTPServer) SetNoLength(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noLength[path] = true
}

func (m *MockHTTPServer) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

func (m *MockHTTPServer) handler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, r.Method+" "+r.URL.Path)
	content, ok := m.files[r.URL.Path]
	status := m.statuses[r.URL.Path]
	headStatus := m.headStatus
	truncate, truncated := m.truncate[r.URL.Path]
	noLength := m.noLength[r.URL.Path]
	m.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodHead {
		if headStatus != 0 {
			w.WriteHeader(headStatus)
			return
		}
		if !noLength {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Header.Get("Range") == "bytes=0-0" && len(content) > 0 {
		w.Header().Set("Content-Range", "bytes 0-0/"+strconv.Itoa(len(content)))
		w.Header().Set("Content-Length", "1")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(content[:1])
		return
	}

	if !noLength {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	}
	w.WriteHeader(http.StatusOK)
	if truncated {
		w.Write(content[:truncate])
		return
	}
	w.Write(content)
}
