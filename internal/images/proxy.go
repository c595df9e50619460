// Package images relays vehicle pictures from the rental company's image
// hosts, whose TLS certificates browsers do not always accept.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carbroker/pkg/logger"
)

const (
	maxImageBytes      = 10 << 20
	maxRedirects       = 5
	defaultContentType = "image/jpeg"
	userAgent          = "Mozilla/5.0 (compatible; carbroker-image-proxy)"
	acceptHeader       = "image/webp,image/apng,image/*,*/*;q=0.8"
)

var (
	ErrHostNotAllowed = errors.New("image host not allowed")
	ErrNotFound       = errors.New("image not found")
	ErrNotImage       = errors.New("upstream did not return an image")
	ErrTooLarge       = errors.New("image too large")
)

type Image struct {
	ContentType string
	Body        []byte
}

// Proxy fetches images from an allow-list of hosts. A host also admits its
// subdomains.
type Proxy struct {
	hosts  []string
	client *http.Client
	log    *logger.Logger
}

func NewProxy(hosts []string, timeout time.Duration, log *logger.Logger) *Proxy {
	p := &Proxy{log: log}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			p.hosts = append(p.hosts, h)
		}
	}
	p.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if !p.Allowed(req.URL) {
				return fmt.Errorf("%w: redirect to %s", ErrHostNotAllowed, req.URL.Hostname())
			}
			return nil
		},
	}
	return p
}

// Allowed matches the parsed host name exactly, never as a substring of the
// whole URL.
func (p *Proxy) Allowed(u *url.URL) bool {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, allowed := range p.hosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// Target parses raw and checks it against the allow-list.
func (p *Proxy) Target(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostNotAllowed, err)
	}
	if !p.Allowed(u) {
		return nil, fmt.Errorf("%w: %q", ErrHostNotAllowed, u.Hostname())
	}
	return u, nil
}

// Fetch downloads target. An https fetch that fails before any response is
// retried once over plain http; timeouts and refused redirects are not.
func (p *Proxy) Fetch(ctx context.Context, target *url.URL) (*Image, error) {
	img, err := p.get(ctx, target)
	if err == nil || target.Scheme != "https" || !retryOverHTTP(ctx, err) {
		return img, err
	}

	fallback := *target
	fallback.Scheme = "http"
	p.log.Warn("Image fetch over https failed, retrying over http", "host", target.Hostname(), "error", err)
	return p.get(ctx, &fallback)
}

func (p *Proxy) get(ctx context.Context, u *url.URL) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("image host answered %d", resp.StatusCode)
	}

	contentType, err := imageContentType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(body) > maxImageBytes {
		return nil, ErrTooLarge
	}
	p.log.Debug("Image fetched", "host", u.Hostname(), "bytes", len(body), "content_type", contentType)
	return &Image{ContentType: contentType, Body: body}, nil
}

// imageContentType accepts image/* and untyped bodies, which are served as
// JPEG.
func imageContentType(header string) (string, error) {
	if header == "" {
		return defaultContentType, nil
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrNotImage, header)
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return header, nil
	case mediaType == "application/octet-stream":
		return defaultContentType, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotImage, mediaType)
}

func retryOverHTTP(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrHostNotAllowed) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && !urlErr.Timeout()
}
