// Package httputil provides a security-hardened HTTP client, the header-only
// size probe, and input sanitization utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UserAgent is sent on every request. Overridable from configuration.
var UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"

// transportTimeout bounds the low-level fetch used as an acquisition
// fallback method.
const transportTimeout = 30 * time.Second

// NewClient creates a hardened HTTP client with secure defaults.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// Get performs a GET request with standard browser-like headers.
func Get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	if err := ValidateURL(url); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	return client.Do(req)
}

// HeadSize performs a header-only existence/size check. Cross-origin denial
// and any transport failure degrade to (0, error); callers map the error to
// an unknown size rather than propagating it.
func HeadSize(ctx context.Context, client *http.Client, url string) (int64, error) {
	if err := ValidateURL(url); err != nil {
		return 0, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return 0, fmt.Errorf("probe status %d", resp.StatusCode)
	}
	if resp.ContentLength <= 0 {
		return 0, fmt.Errorf("no content length")
	}
	return resp.ContentLength, nil
}

// FetchBytes reads a resource fully into memory, up to limit bytes.
func FetchBytes(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, string, error) {
	resp, err := Get(ctx, client, url)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, "", fmt.Errorf("reading response: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// TransportFetch is the low-level fallback fetch: its own 30s deadline, and
// it accepts status 200 as well as an opaque zero status the way the
// in-page transport does. Body is read fully up to limit bytes.
func TransportFetch(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, transportTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("transport request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != 0 {
		return nil, "", fmt.Errorf("transport status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, "", fmt.Errorf("reading response: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
