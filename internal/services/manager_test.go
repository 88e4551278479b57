package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/inspectro-tui/internal/config"
	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services/catalog"
	"github.com/j-veylop/inspectro-tui/internal/services/dashboard"
	"github.com/j-veylop/inspectro-tui/internal/services/recorder"
)

const testCatalog = `providers:
  - name: openai
    apiBase: https://api.openai.com/v1
    apiKey: sk-test
models:
  - name: gpt-4o
    provider: openai
    costPerMillionInputToken: 2.5
    costPerMillionOutputToken: 10
`

func newTestManager(t *testing.T, alertUSD float64) *Manager {
	t.Helper()
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "llm.yaml")
	if err := os.WriteFile(catalogPath, []byte(testCatalog), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := &config.Config{
		Location:         time.UTC,
		DatabasePath:     filepath.Join(tmpDir, "test.db"),
		CatalogPath:      catalogPath,
		SpendingAlertUSD: alertUSD,
		RetentionDays:    30,
	}
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t, 0)

	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.CatalogService() == nil {
		t.Error("Catalog service should be initialized")
	}
	if mgr.Recorder() == nil {
		t.Error("Recorder should be initialized")
	}
	if mgr.Dashboard() == nil {
		t.Error("Dashboard service should be initialized")
	}
	if mgr.IsRemote() {
		t.Error("IsRemote() = true for a local manager")
	}
	if mgr.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", mgr.Location())
	}
}

func TestNewManager_BadCatalog(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "llm.yaml")
	_ = os.WriteFile(catalogPath, []byte("providers: [oops"), 0o600)

	_, err := NewManager(&config.Config{
		Location:     time.UTC,
		DatabasePath: filepath.Join(tmpDir, "test.db"),
		CatalogPath:  catalogPath,
	})
	if err == nil {
		t.Fatal("expected error for malformed catalog")
	}
}

func TestNewManager_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/llm":
			_, _ = w.Write([]byte(`[{"name":"ollama","apiBase":"http://localhost:11434","models":[{"name":"llama3"}]}]`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	mgr, err := NewManager(&config.Config{Location: time.UTC, RemoteURL: srv.URL})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	if !mgr.IsRemote() {
		t.Error("IsRemote() = false")
	}
	if mgr.Database() != nil || mgr.Recorder() != nil {
		t.Error("remote manager should not own a database")
	}

	c, err := mgr.Catalog(context.Background())
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(c.Models) != 1 || c.Models[0].Provider != "ollama" {
		t.Errorf("Catalog() = %+v", c)
	}

	from, to := models.DateRange7Days.Bounds(time.Now().UTC())
	d, err := mgr.LoadDashboard(context.Background(), dashboard.Query{From: from, To: to})
	if err != nil {
		t.Fatalf("LoadDashboard failed: %v", err)
	}
	if !d.IsEmpty() || len(d.Buckets) != 7 {
		t.Errorf("dashboard = %d series, %d buckets", len(d.Series), len(d.Buckets))
	}

	if n, err := mgr.Cleanup(context.Background()); n != 0 || err != nil {
		t.Errorf("Cleanup() = %d, %v; want no-op", n, err)
	}
}

func TestManager_Catalog(t *testing.T) {
	mgr := newTestManager(t, 0)

	c, err := mgr.Catalog(context.Background())
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(c.Providers) != 1 || c.Providers[0].Name != "openai" {
		t.Errorf("Providers = %+v", c.Providers)
	}

	price, err := mgr.Database().GetModelPrice(context.Background(), "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("catalog not synced to database: %v", err)
	}
	if price.InputPerMillion != 2_500_000 {
		t.Errorf("InputPerMillion = %d, want 2500000", price.InputPerMillion)
	}
}

func TestManager_LoadDashboard(t *testing.T) {
	mgr := newTestManager(t, 0)
	ctx := context.Background()
	now := time.Now().UTC()

	for range 3 {
		_, err := mgr.Recorder().Record(ctx, recorder.Call{
			Timestamp:    now,
			Provider:     "openai",
			Model:        "gpt-4o",
			InputTokens:  1_000_000,
			OutputTokens: 100_000,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	from, to := models.DateRangeToday.Bounds(now)
	d, err := mgr.LoadDashboard(ctx, dashboard.Query{From: from, To: to})
	if err != nil {
		t.Fatalf("LoadDashboard failed: %v", err)
	}

	if d.Granularity.String() != "hourly" {
		t.Errorf("Granularity = %s, want hourly", d.Granularity)
	}
	if len(d.Series) != 1 {
		t.Fatalf("Series = %d, want 1", len(d.Series))
	}
	totals := d.Series[0].Totals()
	if totals.Requests != 3 {
		t.Errorf("Requests = %d, want 3", totals.Requests)
	}
	// 3 x (2.50 + 1.00)
	if totals.TotalCost != 10_500_000 {
		t.Errorf("TotalCost = %d, want 10500000", totals.TotalCost)
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, 0)

	ch, cmd := mgr.Subscribe()
	if ch == nil {
		t.Error("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Error("Subscribe returned nil command")
	}

	mgr.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Channel should be closed")
		}
	default:
		t.Error("Unsubscribe should close the channel")
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t, 0)

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	event := ErrorEvent{Service: "test"}
	mgr.broadcast(event)

	select {
	case e := <-ch:
		if e != event {
			t.Errorf("Got event %v, want %v", e, event)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestManager_HandleCatalogEvent(t *testing.T) {
	mgr := newTestManager(t, 0)

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	mgr.handleCatalogEvent(catalog.Event{Type: catalog.EventError, Error: errors.New("bad yaml")})
	mgr.handleCatalogEvent(catalog.Event{Type: catalog.EventCatalogChanged})

	var gotError, gotCatalog bool
	timeout := time.After(time.Second)
	for !gotError || !gotCatalog {
		select {
		case e := <-ch:
			switch ev := e.(type) {
			case ErrorEvent:
				gotError = ev.Service == "catalog"
			case CatalogChangedEvent:
				gotCatalog = len(ev.Catalog.Models) == 1
			}
		case <-timeout:
			t.Fatalf("missing events: error=%v catalog=%v", gotError, gotCatalog)
		}
	}
}

func TestManager_CheckSpending(t *testing.T) {
	mgr := newTestManager(t, 5)

	var notified []string
	mgr.notify = func(title, _ string) error {
		notified = append(notified, title)
		return nil
	}
	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	steps := []struct {
		money int64
		want  bool
	}{
		{6_000_000, false}, // baseline only
		{1_000_000, false},
		{4_999_999, false},
		{5_000_000, true},
		{9_000_000, false},
		{2_000_000, false},
		{7_000_000, true},
	}
	for i, s := range steps {
		if got := mgr.CheckSpending(models.Spending{Money: s.money}); got != s.want {
			t.Errorf("step %d: CheckSpending(%d) = %v, want %v", i, s.money, got, s.want)
		}
	}

	if len(notified) != 2 {
		t.Errorf("notifications = %d, want 2", len(notified))
	}

	select {
	case e := <-ch:
		alert, ok := e.(SpendingAlertEvent)
		if !ok || alert.ThresholdUSD != 5 {
			t.Errorf("got %#v, want SpendingAlertEvent", e)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for alert event")
	}
}

func TestManager_CheckSpending_Disabled(t *testing.T) {
	mgr := newTestManager(t, 0)
	mgr.notify = func(string, string) error {
		t.Error("notify called with alerts disabled")
		return nil
	}

	mgr.CheckSpending(models.Spending{})
	if mgr.CheckSpending(models.Spending{Money: 1 << 40}) {
		t.Error("CheckSpending fired with alerts disabled")
	}
}

func TestManager_Cleanup(t *testing.T) {
	mgr := newTestManager(t, 0)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -60)
	for _, ts := range []time.Time{old, time.Now()} {
		_, err := mgr.Recorder().Record(ctx, recorder.Call{Timestamp: ts, Provider: "openai", Model: "gpt-4o", InputTokens: 1})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	n, err := mgr.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Cleanup() deleted %d rows, want 1", n)
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- ErrorEvent{}

	cmd := WaitForEvent(ch)
	msg := cmd()
	if msg == nil {
		t.Error("WaitForEvent cmd returned nil msg")
	}
}

func TestManager_Close(t *testing.T) {
	mgr := &Manager{}
	if err := mgr.Close(); err != nil {
		t.Errorf("Close() on empty manager = %v", err)
	}
}
