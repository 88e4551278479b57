// Package proxy forwards LLM API calls to their upstream provider and meters
// the token usage reported in each response.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services/recorder"
)

const (
	// ProviderHeader picks the provider when several serve the same model.
	ProviderHeader = "X-Inspectro-Provider"
	// RequestIDHeader carries the id a call is recorded under.
	RequestIDHeader = "X-Request-ID"

	maxRequestBody = 32 << 20
	recordTimeout  = 5 * time.Second
)

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Catalog gives the current providers and models.
type Catalog interface {
	Catalog() models.Catalog
}

// Recorder stores metered calls.
type Recorder interface {
	Record(ctx context.Context, c recorder.Call) (*models.UsageEvent, error)
}

// Proxy is an http.Handler serving everything under prefix.
type Proxy struct {
	catalog  Catalog
	recorder Recorder
	client   *http.Client
	prefix   string
}

// New creates a proxy for requests whose path starts with prefix.
func New(catalog Catalog, rec Recorder, prefix string) *Proxy {
	return &Proxy{
		catalog:  catalog,
		recorder: rec,
		prefix:   strings.TrimRight(prefix, "/"),
		// No overall timeout: streamed completions can run for minutes.
		client: &http.Client{},
	}
}

type route struct {
	provider models.Provider
	model    string
}

// resolve finds the provider serving model. When provider is set it must
// match too.
func (p *Proxy) resolve(model, provider string) (route, error) {
	c := p.catalog.Catalog()
	for _, m := range c.Models {
		if m.Name != model || (provider != "" && m.Provider != provider) {
			continue
		}
		prov, ok := c.Provider(m.Provider)
		if !ok {
			return route{}, fmt.Errorf("provider %q of model %q is not configured", m.Provider, model)
		}
		if prov.APIBase == "" {
			return route{}, fmt.Errorf("provider %q has no apiBase", prov.Name)
		}
		return route{provider: prov, model: model}, nil
	}
	if provider != "" {
		return route{}, fmt.Errorf("model %q not found for provider %q", model, provider)
	}
	return route{}, fmt.Errorf("model %q not found", model)
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxRequestBody {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	model := gjson.GetBytes(body, "model").String()
	if model == "" {
		writeError(w, http.StatusBadRequest, "model not found in request body")
		return
	}

	rt, err := p.resolve(model, r.Header.Get(ProviderHeader))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	upstream, err := p.upstreamRequest(r, rt.provider, body, requestID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp, err := p.client.Do(upstream)
	if err != nil {
		logger.Warn("upstream request failed", "provider", rt.provider.Name, "model", model, "error", err)
		writeError(w, http.StatusBadGateway, "upstream request failed")
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	removeHopHeaders(w.Header())
	w.Header().Set(RequestIDHeader, requestID)
	w.WriteHeader(resp.StatusCode)

	m := newMeter(resp.Header.Get("Content-Type"))
	copyErr := copyFlushing(w, io.TeeReader(resp.Body, m))
	if copyErr != nil {
		logger.Warn("response copy interrupted", "provider", rt.provider.Name, "model", model, "error", copyErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return
	}

	usage, served := m.finish()
	if !usage.Found {
		logger.Debug("no usage in upstream response", "provider", rt.provider.Name, "model", model)
		return
	}

	// The client may be gone already; the call still happened.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), recordTimeout)
	defer cancel()
	_, err = p.recorder.Record(ctx, recorder.Call{
		RequestID:     requestID,
		Provider:      rt.provider.Name,
		Model:         rt.model,
		UpstreamModel: served,
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		TotalTokens:   usage.TotalTokens,
	})
	if err != nil {
		logger.Error("failed to record usage", "request_id", requestID, "error", err)
	}
}

func (p *Proxy) upstreamRequest(r *http.Request, prov models.Provider, body []byte, requestID string) (*http.Request, error) {
	path := strings.TrimPrefix(r.URL.Path, p.prefix)
	target := strings.TrimRight(prov.APIBase, "/") + "/" + strings.TrimLeft(path, "/")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}

	req.Header = r.Header.Clone()
	removeHopHeaders(req.Header)
	req.Header.Del(ProviderHeader)
	// Let the transport negotiate compression so the body stays readable.
	req.Header.Del("Accept-Encoding")
	req.Header.Set(RequestIDHeader, requestID)
	if prov.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+prov.APIKey)
	}
	return req, nil
}

func copyFlushing(w http.ResponseWriter, src io.Reader) error {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func removeHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
