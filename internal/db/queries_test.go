package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/inspectro-tui/internal/models"
)

func ts(day, hour int) time.Time {
	return time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC)
}

func insertEvent(t *testing.T, db *DB, provider, model string, at time.Time, tokens, cost int64) *models.UsageEvent {
	t.Helper()
	e := &models.UsageEvent{
		Provider:     provider,
		Model:        model,
		Timestamp:    at,
		InputTokens:  tokens,
		OutputTokens: tokens,
		TotalTokens:  tokens * 2,
		InputCost:    cost,
		OutputCost:   cost,
		TotalCost:    cost * 2,
	}
	if err := db.InsertUsage(context.Background(), e); err != nil {
		t.Fatalf("InsertUsage failed: %v", err)
	}
	return e
}

func TestInsertUsage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := &models.UsageEvent{
		RequestID:    "req-1",
		Provider:     "openai",
		Model:        "gpt-4o",
		Timestamp:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("UTC+2", 2*3600)),
		InputTokens:  100,
		OutputTokens: 50,
		TotalTokens:  150,
		InputCost:    250,
		OutputCost:   500,
		TotalCost:    750,
	}
	if err := db.InsertUsage(ctx, e); err != nil {
		t.Fatalf("InsertUsage failed: %v", err)
	}
	if e.ID == 0 {
		t.Error("Expected ID to be set after insert")
	}

	events, err := db.GetUsageEvents(ctx, ts(1, 0), ts(3, 0), "")
	if err != nil {
		t.Fatalf("GetUsageEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	got := events[0]
	if !got.Timestamp.Equal(e.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, e.Timestamp)
	}
	if got.RequestID != "req-1" || got.Provider != "openai" || got.Model != "gpt-4o" {
		t.Errorf("identity mismatch: %+v", got)
	}
	if got.TotalTokens != 150 || got.TotalCost != 750 || got.InputCost != 250 {
		t.Errorf("numeric fields mismatch: %+v", got)
	}
}

func TestInsertUsage_DefaultsTimestamp(t *testing.T) {
	db := newTestDB(t)
	e := &models.UsageEvent{Provider: "p", Model: "m"}

	if err := db.InsertUsage(context.Background(), e); err != nil {
		t.Fatalf("InsertUsage failed: %v", err)
	}
	if e.Timestamp.IsZero() {
		t.Error("Expected timestamp to be filled in")
	}
}

func TestGetUsageEvents_WindowAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertEvent(t, db, "openai", "gpt-4o", ts(3, 10), 1, 1)
	insertEvent(t, db, "openai", "gpt-4o", ts(1, 10), 1, 1)
	insertEvent(t, db, "openai", "gpt-4o", ts(2, 10), 1, 1)
	insertEvent(t, db, "openai", "gpt-4o", ts(5, 10), 1, 1)

	events, err := db.GetUsageEvents(ctx, ts(1, 10), ts(3, 10), "")
	if err != nil {
		t.Fatalf("GetUsageEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events (inclusive bounds), got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("events not in ascending order at %d", i)
		}
	}
}

func TestGetUsageEvents_Filter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertEvent(t, db, "openai", "gpt-4o", ts(1, 1), 1, 1)
	insertEvent(t, db, "anthropic", "claude-3", ts(1, 2), 1, 1)
	insertEvent(t, db, "ollama", "llama_3", ts(1, 3), 1, 1)

	tests := []struct {
		filter string
		want   int
	}{
		{"", 3},
		{"OPENAI", 1},
		{"claude", 1},
		{"a", 3},
		{"_", 1},
		{"%", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		events, err := db.GetUsageEvents(ctx, ts(1, 0), ts(2, 0), tt.filter)
		if err != nil {
			t.Fatalf("GetUsageEvents(%q) failed: %v", tt.filter, err)
		}
		if len(events) != tt.want {
			t.Errorf("filter %q: got %d events, want %d", tt.filter, len(events), tt.want)
		}
	}
}

func TestSpending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	zero, err := db.GetAllTimeSpending(ctx)
	if err != nil {
		t.Fatalf("GetAllTimeSpending failed: %v", err)
	}
	if zero != (models.Spending{}) {
		t.Errorf("Expected zero spending on empty db, got %+v", zero)
	}

	insertEvent(t, db, "openai", "gpt-4o", ts(1, 1), 10, 100)
	insertEvent(t, db, "openai", "gpt-4o", ts(2, 1), 20, 200)
	insertEvent(t, db, "anthropic", "claude-3", ts(2, 2), 30, 300)

	all, err := db.GetAllTimeSpending(ctx)
	if err != nil {
		t.Fatalf("GetAllTimeSpending failed: %v", err)
	}
	if all.Money != 1200 || all.Tokens != 120 {
		t.Errorf("all-time = %+v, want {1200 120}", all)
	}

	current, err := db.GetRangeSpending(ctx, ts(2, 0), ts(2, 23), "openai")
	if err != nil {
		t.Fatalf("GetRangeSpending failed: %v", err)
	}
	if current.Money != 400 || current.Tokens != 40 {
		t.Errorf("range = %+v, want {400 40}", current)
	}
}

func TestFetchUsage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.FetchUsage(ctx, ts(1, 0), ts(2, 0), "")
	if !errors.Is(err, models.ErrNoContent) {
		t.Fatalf("Expected ErrNoContent on empty window, got %v", err)
	}

	insertEvent(t, db, "openai", "gpt-4o", ts(1, 1), 10, 100)
	insertEvent(t, db, "anthropic", "claude-3", ts(1, 2), 10, 100)
	insertEvent(t, db, "openai", "gpt-4o", ts(1, 3), 10, 100)
	insertEvent(t, db, "openai", "gpt-4o", ts(9, 3), 10, 100)

	snap, err := db.FetchUsage(ctx, ts(1, 0), ts(2, 0), "")
	if err != nil {
		t.Fatalf("FetchUsage failed: %v", err)
	}
	if len(snap.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(snap.Groups))
	}
	if snap.Groups[0].Model != "gpt-4o" || len(snap.Groups[0].Events) != 2 {
		t.Errorf("first group = %s with %d events", snap.Groups[0].Model, len(snap.Groups[0].Events))
	}
	if snap.AllTime.Money != 800 {
		t.Errorf("all-time money = %d, want 800", snap.AllTime.Money)
	}
	if snap.Current.Money != 600 {
		t.Errorf("current money = %d, want 600", snap.Current.Money)
	}
}

func TestGroupEvents_SeparatorInNames(t *testing.T) {
	groups := GroupEvents([]models.UsageEvent{
		{Model: "a_b", Provider: "c"},
		{Model: "a", Provider: "b_c"},
	})
	if len(groups) != 2 {
		t.Fatalf("Expected 2 distinct groups, got %d", len(groups))
	}
}

func TestDeleteUsageBefore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertEvent(t, db, "p", "m", ts(1, 0), 1, 1)
	insertEvent(t, db, "p", "m", ts(5, 0), 1, 1)

	n, err := db.DeleteUsageBefore(ctx, ts(3, 0))
	if err != nil {
		t.Fatalf("DeleteUsageBefore failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 deleted row, got %d", n)
	}
}
