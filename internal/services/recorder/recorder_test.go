package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/inspectro-tui/internal/db"
	"github.com/j-veylop/inspectro-tui/internal/models"
)

func newStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.SyncCatalog(context.Background(), &models.Catalog{
		Models: []models.LLM{
			{Name: "gpt-4o", Provider: "openai", CostPerMillionInputToken: 2.5, CostPerMillionOutputToken: 10},
		},
	}))
	return store
}

func TestRecord_PricesCall(t *testing.T) {
	store := newStore(t)
	r := New(store)
	ctx := context.Background()
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	e, err := r.Record(ctx, Call{
		Timestamp:    at,
		RequestID:    "req-1",
		Provider:     "openai",
		Model:        "gpt-4o",
		InputTokens:  1000,
		OutputTokens: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1200), e.TotalTokens)
	assert.Equal(t, int64(2500), e.InputCost)
	assert.Equal(t, int64(2000), e.OutputCost)
	assert.Equal(t, int64(4500), e.TotalCost)
	assert.NotZero(t, e.ID)

	events, err := store.GetUsageEvents(ctx, at.Add(-time.Hour), at.Add(time.Hour), "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-1", events[0].RequestID)
}

func TestRecord_PricesRequestedModel(t *testing.T) {
	r := New(newStore(t))

	e, err := r.Record(context.Background(), Call{
		Provider:      "openai",
		Model:         "gpt-4o",
		UpstreamModel: "gpt-4o-2024-08-06",
		InputTokens:   1000,
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", e.Model)
	assert.Equal(t, int64(2500), e.TotalCost)
}

func TestRecord_UnknownModelCostsNothing(t *testing.T) {
	r := New(newStore(t))

	e, err := r.Record(context.Background(), Call{Provider: "ollama", Model: "llama3", InputTokens: 10, OutputTokens: 5, TotalTokens: 15})
	require.NoError(t, err)

	assert.Zero(t, e.TotalCost)
	assert.Equal(t, int64(15), e.TotalTokens)
	assert.False(t, e.Timestamp.IsZero())
}

func TestRecord_KeepsReportedTotal(t *testing.T) {
	r := New(newStore(t))

	e, err := r.Record(context.Background(), Call{Provider: "openai", Model: "gpt-4o", InputTokens: 10, OutputTokens: 5, TotalTokens: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(20), e.TotalTokens)
}

func TestRecord_Validation(t *testing.T) {
	r := New(newStore(t))
	ctx := context.Background()

	_, err := r.Record(ctx, Call{Model: "gpt-4o"})
	assert.Error(t, err)

	_, err = r.Record(ctx, Call{Provider: "openai", Model: "gpt-4o", InputTokens: -1})
	assert.Error(t, err)
}

type failingStore struct{}

func (failingStore) GetModelPrice(context.Context, string, string) (models.Price, error) {
	return models.Price{}, errors.New("locked")
}

func (failingStore) InsertUsage(context.Context, *models.UsageEvent) error {
	return nil
}

func TestRecord_StoreError(t *testing.T) {
	_, err := New(failingStore{}).Record(context.Background(), Call{Provider: "p", Model: "m"})
	assert.ErrorContains(t, err, "locked")
}
