package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
)

// RemoteSource reads usage and the catalog from another instance's HTTP API.
type RemoteSource struct {
	client  *http.Client
	baseURL string
}

// NewRemoteSource creates a source for the server at baseURL.
func NewRemoteSource(baseURL string) *RemoteSource {
	return &RemoteSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchUsage implements Source. A 204 response maps to models.ErrNoContent.
func (r *RemoteSource) FetchUsage(ctx context.Context, start, end time.Time, filter string) (models.Snapshot, error) {
	q := url.Values{}
	q.Set("startTS", strconv.FormatInt(start.Unix(), 10))
	q.Set("endTS", strconv.FormatInt(end.Unix(), 10))
	if filter != "" {
		q.Set("q", filter)
	}

	status, body, err := r.get(ctx, "/api/usage", q)
	if err != nil {
		return models.Snapshot{}, err
	}
	if status == http.StatusNoContent {
		return models.Snapshot{}, models.ErrNoContent
	}
	if status != http.StatusOK {
		return models.Snapshot{}, fmt.Errorf("usage request failed (status %d): %s", status, strings.TrimSpace(string(body)))
	}

	var payload models.UsageResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse usage response: %w", err)
	}

	snap := payload.Snapshot()
	if snap.IsEmpty() {
		return models.Snapshot{}, models.ErrNoContent
	}
	return snap, nil
}

// GetCatalog reads the provider listing from /api/llm. API keys never leave
// the server, so the returned providers carry none.
func (r *RemoteSource) GetCatalog(ctx context.Context) (*models.Catalog, error) {
	status, body, err := r.get(ctx, "/api/llm", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("catalog request failed (status %d): %s", status, strings.TrimSpace(string(body)))
	}

	var providers []models.ProviderJSON
	if err := json.Unmarshal(body, &providers); err != nil {
		return nil, fmt.Errorf("failed to parse catalog response: %w", err)
	}
	c := models.CatalogFromProviders(providers)
	return &c, nil
}

func (r *RemoteSource) get(ctx context.Context, path string, q url.Values) (int, []byte, error) {
	target := r.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
