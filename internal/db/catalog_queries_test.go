package db

import (
	"context"
	"errors"
	"testing"

	"github.com/j-veylop/inspectro-tui/internal/models"
)

func TestSyncCatalog(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := &models.Catalog{
		Providers: []models.Provider{
			{Name: "openai", APIBase: "https://api.openai.com", APIKey: "sk-1"},
			{Name: "anthropic", APIBase: "https://api.anthropic.com"},
		},
		Models: []models.LLM{
			{Name: "gpt-4o", Provider: "openai", CostPerMillionInputToken: 2.5, CostPerMillionOutputToken: 10},
			{Name: "claude-3", Provider: "anthropic", CostPerMillionInputToken: 3, CostPerMillionOutputToken: 15},
		},
	}
	if err := db.SyncCatalog(ctx, c); err != nil {
		t.Fatalf("SyncCatalog failed: %v", err)
	}

	got, err := db.GetCatalog(ctx)
	if err != nil {
		t.Fatalf("GetCatalog failed: %v", err)
	}
	if len(got.Providers) != 2 || got.Providers[0].Name != "anthropic" {
		t.Errorf("providers = %+v", got.Providers)
	}
	if len(got.Models) != 2 || got.Models[0].Name != "claude-3" {
		t.Errorf("models = %+v", got.Models)
	}
	if got.Models[1].CostPerMillionInputToken != 2.5 {
		t.Errorf("price round trip = %v, want 2.5", got.Models[1].CostPerMillionInputToken)
	}

	// Re-sync updates in place.
	c.Models[0].CostPerMillionInputToken = 5
	c.Providers[0].APIKey = "sk-2"
	if err := db.SyncCatalog(ctx, c); err != nil {
		t.Fatalf("second SyncCatalog failed: %v", err)
	}
	got, err = db.GetCatalog(ctx)
	if err != nil {
		t.Fatalf("GetCatalog failed: %v", err)
	}
	if len(got.Models) != 2 {
		t.Errorf("Expected upsert, got %d models", len(got.Models))
	}
	if p, _ := got.Provider("openai"); p.APIKey != "sk-2" {
		t.Errorf("api key = %q, want sk-2", p.APIKey)
	}
}

func TestGetModelPrice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.SyncCatalog(ctx, &models.Catalog{Models: []models.LLM{
		{Name: "gpt-4o", Provider: "openai", CostPerMillionInputToken: 2.5, CostPerMillionOutputToken: 10},
	}})
	if err != nil {
		t.Fatalf("SyncCatalog failed: %v", err)
	}

	p, err := db.GetModelPrice(ctx, "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("GetModelPrice failed: %v", err)
	}
	if p.InputPerMillion != 2_500_000 || p.OutputPerMillion != 10_000_000 {
		t.Errorf("price = %+v", p)
	}

	if _, err := db.GetModelPrice(ctx, "openai", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
