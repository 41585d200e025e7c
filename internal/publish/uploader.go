package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"apd/internal/config"
	"apd/internal/services"
)

// HubUploader uploads files to a Hugging Face dataset repository through the
// hub's HTTP upload endpoint.
type HubUploader struct {
	endpoint string
	dataset  string
	token    string
	http     *http.Client
}

// NewHubUploader builds an uploader from the publish configuration.
func NewHubUploader(cfg *config.Config) *HubUploader {
	timeout := time.Duration(cfg.Publish.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HubUploader{
		endpoint: strings.TrimRight(cfg.Publish.Endpoint, "/"),
		dataset:  cfg.Publish.Dataset,
		token:    cfg.Publish.Token,
		http:     &http.Client{Timeout: timeout},
	}
}

// Upload implements Uploader. Existing files at the same path are replaced.
func (u *HubUploader) Upload(ctx context.Context, repoPath string, content []byte) error {
	target := fmt.Sprintf("%s/api/datasets/%s/upload/main/%s",
		u.endpoint, u.dataset, url.PathEscape(repoPath))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(content))
	if err != nil {
		return services.Wrap(services.ErrPermanent, "publish", "build request", "Invalid upload URL", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.token)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "publish", "upload", "Upload request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "publish", "upload",
			fmt.Sprintf("Hub rejected token (status %d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, "publish", "upload",
			fmt.Sprintf("Hub returned status %d", resp.StatusCode), nil)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return services.Wrap(services.ErrPermanent, "publish", "upload",
			fmt.Sprintf("Hub returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
}
