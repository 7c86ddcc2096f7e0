package downloader

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const tempSuffix = ".batchdl-part"

// HTTPDownloader probes and fetches single remote files. One instance is
// shared by a whole batch and is safe for concurrent use.
type HTTPDownloader struct {
	client    *http.Client
	limiter   *rate.Limiter
	atomic    bool
	userAgent string
	log       zerolog.Logger
}

func NewHTTPDownloader(opts Options) *HTTPDownloader {
	connectTimeout := time.Duration(opts.ConnectTimeout) * time.Second
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: time.Duration(opts.ReadTimeout) * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   8,
	}
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			opts.Logger.Warn().Err(err).Str("proxy", opts.Proxy).Msg("ignoring invalid proxy URL")
		}
	}

	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}

	// No client timeout: a transfer may legitimately take a long time. The
	// dial and response header timeouts bound the waits that indicate a dead
	// server.
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	d := &HTTPDownloader{
		client:    client,
		atomic:    opts.AtomicWrite,
		userAgent: opts.UserAgent,
		log:       opts.Logger,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateLimit
		if burst > 1<<20 {
			burst = 1 << 20
		}
		d.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), int(burst))
	}

	return d
}

// ProbeSize returns the declared Content-Length of link without fetching the
// body. Missing or unparsable lengths yield 0. Servers that refuse HEAD are
// asked for a single byte and the total is read from Content-Range.
func (d *HTTPDownloader) ProbeSize(ctx context.Context, link string) (int64, error) {
	resp, err := d.do(ctx, http.MethodHead, link, nil)
	if err != nil {
		return 0, &NetworkError{Op: "probe", Link: link, Err: err}
	}
	resp.Body.Close()

	if isSuccess(resp.StatusCode) {
		return contentLength(resp), nil
	}

	// HEAD might not be supported, try GET with Range header instead
	resp, err = d.do(ctx, http.MethodGet, link, map[string]string{"Range": "bytes=0-0"})
	if err != nil {
		return 0, &NetworkError{Op: "probe", Link: link, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return 0, &NetworkError{Op: "probe", Link: link, StatusCode: resp.StatusCode}
	}

	// For 206 Partial Content, Content-Length is the range size, not total
	if resp.StatusCode == http.StatusPartialContent {
		total, _ := totalFromContentRange(resp.Header.Get("Content-Range"))
		return total, nil
	}
	return contentLength(resp), nil
}

// Fetch downloads link to dest and reports whether the file was fully
// written. Errors are logged, never returned.
func (d *HTTPDownloader) Fetch(ctx context.Context, link, dest string) bool {
	start := time.Now()
	written, err := d.Download(ctx, link, dest)
	if err != nil {
		d.log.Warn().Err(err).Str("link", link).Str("dest", dest).Msg("download failed")
		return false
	}

	d.log.Debug().
		Str("link", link).
		Str("dest", dest).
		Int64("bytes", written).
		Dur("elapsed", time.Since(start)).
		Msg("download finished")
	return true
}

// Download fetches link into dest, overwriting any existing file, and
// returns the number of bytes written. Failures are *NetworkError or
// *FilesystemError.
func (d *HTTPDownloader) Download(ctx context.Context, link, dest string) (int64, error) {
	resp, err := d.do(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0, &NetworkError{Op: "fetch", Link: link, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return 0, &NetworkError{Op: "fetch", Link: link, StatusCode: resp.StatusCode}
	}

	writePath := dest
	if d.atomic {
		writePath = tempPath(dest)
	}

	file, err := os.OpenFile(writePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, &FilesystemError{Op: "create", Path: writePath, Err: err}
	}

	written, err := d.copyBody(ctx, file, resp)
	if closeErr := file.Close(); closeErr != nil && err == nil {
		err = &FilesystemError{Op: "close", Path: writePath, Err: closeErr}
	}
	if err != nil {
		if d.atomic {
			os.Remove(writePath)
		}
		return written, err
	}

	if d.atomic {
		if err := os.Rename(writePath, dest); err != nil {
			os.Remove(writePath)
			return written, &FilesystemError{Op: "rename", Path: dest, Err: err}
		}
	}

	return written, nil
}

func (d *HTTPDownloader) copyBody(ctx context.Context, file *os.File, resp *http.Response) (int64, error) {
	link := resp.Request.URL.String()

	var reader io.Reader = resp.Body
	if d.limiter != nil {
		reader = &rateLimitedReader{reader: resp.Body, limiter: d.limiter, ctx: ctx}
	}

	w := &writeRecorder{w: file}
	written, err := io.Copy(w, reader)
	if err != nil {
		if w.err != nil {
			return written, &FilesystemError{Op: "write", Path: file.Name(), Err: w.err}
		}
		return written, &NetworkError{Op: "fetch", Link: link, Err: err}
	}

	if resp.ContentLength > 0 && written != resp.ContentLength {
		return written, &NetworkError{
			Op:   "fetch",
			Link: link,
			Err:  fmt.Errorf("download incomplete: expected %d bytes, downloaded %d bytes", resp.ContentLength, written),
		}
	}

	return written, nil
}

func (d *HTTPDownloader) do(ctx context.Context, method, link string, header map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return nil, err
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	return d.client.Do(req)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func contentLength(resp *http.Response) int64 {
	if v := resp.Header.Get("Content-Length"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}

// totalFromContentRange extracts N from "bytes 0-0/N".
func totalFromContentRange(v string) (int64, bool) {
	parts := strings.Split(v, "/")
	if len(parts) != 2 {
		return 0, false
	}
	total, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || total < 0 {
		return 0, false
	}
	return total, true
}

func tempPath(dest string) string {
	return filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+tempSuffix)
}

// IsTempFile reports whether name is an in-flight download left by an
// atomic write.
func IsTempFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), ".") && strings.HasSuffix(name, tempSuffix)
}
