package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/better-hash/ai-video-generator/internal/services"
)

// ProgressFunc receives bytes written so far and the expected total, which
// is -1 when the server did not send a length.
type ProgressFunc func(written, total int64)

// ResolveAssetURL turns a backend-relative asset path into an absolute URL on
// the API host. Absolute URLs are returned unchanged.
func (c *Client) ResolveAssetURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", services.Wrap(services.ErrValidation, "gateway", "resolve asset", "video url is empty", nil)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "gateway", "resolve asset", "invalid video url", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	host := &url.URL{Scheme: c.base.Scheme, Host: c.base.Host, Path: "/"}
	return host.ResolveReference(ref).String(), nil
}

// Download streams a finished video into w. There is no overall timeout, but
// the transfer is aborted when no bytes arrive within the request timeout.
func (c *Client) Download(ctx context.Context, videoURL string, w io.Writer, progress ProgressFunc) (int64, error) {
	const op = "download video"
	target, err := c.ResolveAssetURL(videoURL)
	if err != nil {
		return 0, err
	}
	if w == nil {
		return 0, services.Wrap(services.ErrValidation, "gateway", op, "destination is nil", nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "gateway", op, "build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.downloadDoer().Do(req)
	if err != nil {
		wrapped := services.Wrap(services.ErrTransport, "gateway", op, transportDetail(err), err)
		c.logOutcome(ctx, http.MethodGet, req.URL.Path, 0, start, wrapped)
		return 0, wrapped
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		wrapped := services.Wrap(services.ErrServer, "gateway", op, "unexpected status", &StatusError{Code: resp.StatusCode, Body: truncateBody(body)})
		c.logOutcome(ctx, http.MethodGet, req.URL.Path, resp.StatusCode, start, wrapped)
		return 0, wrapped
	}

	watchdog := time.AfterFunc(c.timeout, cancel)
	defer watchdog.Stop()
	counter := &progressWriter{dst: w, total: resp.ContentLength, fn: progress, onWrite: func() { watchdog.Reset(c.timeout) }}
	written, err := io.Copy(counter, resp.Body)
	if err != nil {
		wrapped := services.Wrap(services.ErrTransport, "gateway", op, fmt.Sprintf("transfer interrupted after %d bytes", written), err)
		c.logOutcome(ctx, http.MethodGet, req.URL.Path, resp.StatusCode, start, wrapped)
		return written, wrapped
	}
	c.logOutcome(ctx, http.MethodGet, req.URL.Path, resp.StatusCode, start, nil)
	return written, nil
}

// downloadDoer drops the whole-request timeout of the default client so long
// transfers are bounded by the idle watchdog instead.
func (c *Client) downloadDoer() HTTPDoer {
	if hc, ok := c.http.(*http.Client); ok && hc.Timeout > 0 {
		clone := *hc
		clone.Timeout = 0
		return &clone
	}
	return c.http
}

type progressWriter struct {
	dst     io.Writer
	written int64
	total   int64
	fn      ProgressFunc
	onWrite func()
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.dst.Write(b)
	p.written += int64(n)
	if p.onWrite != nil {
		p.onWrite()
	}
	if p.fn != nil {
		p.fn(p.written, p.total)
	}
	return n, err
}
