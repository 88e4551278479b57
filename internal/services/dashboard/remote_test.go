package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/inspectro-tui/internal/models"
)

func TestRemoteSource_FetchUsage(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usage", r.URL.Path)
		gotQuery = map[string]string{
			"startTS": r.URL.Query().Get("startTS"),
			"endTS":   r.URL.Query().Get("endTS"),
			"q":       r.URL.Query().Get("q"),
		}
		resp := models.NewUsageResponse(models.Snapshot{
			AllTime: models.Spending{Money: 2_000_000, Tokens: 100},
			Current: models.Spending{Money: 1_000_000, Tokens: 50},
			Groups: []models.UsageGroup{{
				Provider: "openai", Model: "gpt-4o",
				Events: []models.UsageEvent{{
					Provider: "openai", Model: "gpt-4o", Timestamp: at(1, 3),
					TotalTokens: 50, TotalCost: 1_000_000,
				}},
			}},
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	src := NewRemoteSource(srv.URL + "/")
	snap, err := src.FetchUsage(context.Background(), at(1, 0), at(2, 0), "gpt")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"startTS": "1735689600", "endTS": "1735776000", "q": "gpt"}, gotQuery)
	assert.Equal(t, int64(2_000_000), snap.AllTime.Money)
	require.Len(t, snap.Groups, 1)
	assert.Equal(t, int64(1_000_000), snap.Groups[0].Events[0].TotalCost)
	assert.True(t, snap.Groups[0].Events[0].Timestamp.Equal(at(1, 3)))
}

func TestRemoteSource_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := NewRemoteSource(srv.URL).FetchUsage(context.Background(), at(1, 0), at(2, 0), "")
	assert.ErrorIs(t, err, models.ErrNoContent)
}

func TestRemoteSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRemoteSource(srv.URL).FetchUsage(context.Background(), at(1, 0), at(2, 0), "")
	assert.ErrorContains(t, err, "status 500")
}

func TestRemoteSource_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewRemoteSource(srv.URL).FetchUsage(context.Background(), at(1, 0), at(2, 0), "")
	assert.ErrorContains(t, err, "parse")
}

func TestRemoteSource_FeedsService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := New(NewRemoteSource(srv.URL), time.UTC)
	d, err := svc.Load(context.Background(), Query{From: ptr(at(1, 0)), To: ptr(at(3, 0))})
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
}

func TestRemoteSource_GetCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/llm", r.URL.Path)
		_, _ = w.Write([]byte(`[{"name":"openai","apiBase":"https://api.openai.com/v1","models":[
			{"name":"gpt-4o","costPerMillionInputToken":2.5,"costPerMillionOutputToken":10}]}]`))
	}))
	defer srv.Close()

	c, err := NewRemoteSource(srv.URL).GetCatalog(context.Background())
	require.NoError(t, err)

	require.Len(t, c.Providers, 1)
	assert.Equal(t, "https://api.openai.com/v1", c.Providers[0].APIBase)
	require.Len(t, c.Models, 1)
	assert.Equal(t, models.LLM{
		Name:                      "gpt-4o",
		Provider:                  "openai",
		CostPerMillionInputToken:  2.5,
		CostPerMillionOutputToken: 10,
	}, c.Models[0])
}

func TestRemoteSource_GetCatalogError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewRemoteSource(srv.URL).GetCatalog(context.Background())
	assert.ErrorContains(t, err, "status 502")
}
