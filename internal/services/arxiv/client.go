// Package arxiv downloads paper PDFs from the arXiv export mirror.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"apd/internal/config"
	"apd/internal/services"
)

// HTTPDoer is the subset of http.Client the fetcher needs. Tests substitute
// a fake to exercise error classification without a network.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client resolves paper keys to PDF content.
type Client struct {
	baseURL string
	http    HTTPDoer
}

// New builds a Client from configuration.
func New(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.ArtifactSource.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.ArtifactSource.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewWithDoer is used by tests to inject a transport.
func NewWithDoer(baseURL string, doer HTTPDoer) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

// PDFURL returns the download location for a paper key.
func (c *Client) PDFURL(key string) string {
	return fmt.Sprintf("%s/pdf/%s", c.baseURL, key)
}

// FetchArtifact streams the PDF for the given paper key. The caller owns the
// returned ReadCloser. A missing paper maps to services.ErrNotFound; upstream
// and transport trouble map to services.ErrTransient.
func (c *Client) FetchArtifact(ctx context.Context, key string) (io.ReadCloser, error) {
	url := c.PDFURL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrPermanent, "acquire", "build request", "Invalid artifact URL", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "acquire", "download", "Artifact request failed", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrNotFound, "acquire", "download",
			fmt.Sprintf("No artifact at %s", url), nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrTransient, "acquire", "download",
			fmt.Sprintf("Artifact source returned status %d", resp.StatusCode), nil)
	default:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrPermanent, "acquire", "download",
			fmt.Sprintf("Artifact source returned status %d", resp.StatusCode), nil)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "pdf") && !strings.Contains(ct, "octet-stream") {
		resp.Body.Close()
		return nil, services.Wrap(services.ErrPermanent, "acquire", "download",
			fmt.Sprintf("Unexpected artifact content type %q", ct), nil)
	}
	return resp.Body, nil
}
