// Package services provides service orchestration for the TUI and the server.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/inspectro-tui/internal/config"
	"github.com/j-veylop/inspectro-tui/internal/db"
	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services/catalog"
	"github.com/j-veylop/inspectro-tui/internal/services/dashboard"
	"github.com/j-veylop/inspectro-tui/internal/services/recorder"
)

type (
	// CatalogChangedEvent is emitted when the catalog file is loaded or edited.
	CatalogChangedEvent struct {
		Catalog models.Catalog
	}

	// SpendingAlertEvent is emitted when all-time spending crosses the
	// configured alert threshold.
	SpendingAlertEvent struct {
		Spending     models.Spending
		ThresholdUSD float64
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (CatalogChangedEvent) isServiceEvent() {}
func (SpendingAlertEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()          {}

type catalogReader interface {
	GetCatalog(ctx context.Context) (*models.Catalog, error)
}

// Manager orchestrates services and event routing. With a remote URL
// configured it reads everything over HTTP and owns no database.
type Manager struct {
	mu           sync.RWMutex
	cfg          *config.Config
	database     *db.DB
	catalog      *catalog.Service
	recorder     *recorder.Recorder
	dashboard    *dashboard.Service
	remote       *dashboard.RemoteSource
	eventChan    chan ServiceEvent
	stopChan     chan struct{}
	subscribers  []chan<- ServiceEvent
	lastSpending *models.Spending
	notify       func(title, body string) error
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}

	if cfg.RemoteURL != "" {
		m.remote = dashboard.NewRemoteSource(cfg.RemoteURL)
		m.dashboard = dashboard.New(m.remote, cfg.Location)
		go m.routeEvents()
		return m, nil
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := m.database.FixLegacyTimeFormats(context.Background()); err != nil {
		logger.Warn("failed to normalize legacy timestamps", "error", err)
	}

	m.catalog, err = catalog.New(cfg.CatalogPath, m.database)
	if err != nil {
		_ = m.database.Close()
		return nil, err
	}

	m.recorder = recorder.New(m.database)
	m.dashboard = dashboard.New(m.database, cfg.Location)

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	// A nil channel never delivers, which disables the case in remote mode.
	var catalogEvents <-chan catalog.Event
	if m.catalog != nil {
		catalogEvents = m.catalog.Events()
	}

	for {
		select {
		case event, ok := <-catalogEvents:
			if !ok {
				return
			}
			m.handleCatalogEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleCatalogEvent(event catalog.Event) {
	switch event.Type {
	case catalog.EventCatalogLoaded, catalog.EventCatalogChanged:
		m.broadcast(CatalogChangedEvent{Catalog: m.catalog.Catalog()})

	case catalog.EventError:
		m.broadcast(ErrorEvent{
			Service: "catalog",
			Error:   event.Error,
		})
	}
}

// CheckSpending compares all-time spending with the previous observation and
// notifies when it crossed the alert threshold upwards. The first
// observation only sets the baseline. It reports whether an alert fired.
func (m *Manager) CheckSpending(s models.Spending) bool {
	threshold := models.USDToMicroUSD(m.cfg.SpendingAlertUSD)
	if threshold <= 0 {
		return false
	}

	m.mu.Lock()
	prev := m.lastSpending
	m.lastSpending = &s
	m.mu.Unlock()

	if prev == nil || prev.Money >= threshold || s.Money < threshold {
		return false
	}

	title := "Spending alert"
	body := fmt.Sprintf("All-time LLM spending reached $%.2f (alert at $%.2f)", s.USD(), m.cfg.SpendingAlertUSD)
	if err := m.notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
	m.broadcast(SpendingAlertEvent{Spending: s, ThresholdUSD: m.cfg.SpendingAlertUSD})
	return true
}

// LoadDashboard loads the usage dashboard for q and checks the spending
// threshold against the all-time total it carries.
func (m *Manager) LoadDashboard(ctx context.Context, q dashboard.Query) (*dashboard.Dashboard, error) {
	d, err := m.dashboard.Load(ctx, q)
	if err != nil {
		return nil, err
	}
	if !d.IsEmpty() {
		m.CheckSpending(d.AllTime)
	}
	return d, nil
}

// Catalog returns the provider and model catalog. Remote catalogs carry no
// API keys.
func (m *Manager) Catalog(ctx context.Context) (models.Catalog, error) {
	if m.catalog != nil {
		return m.catalog.Catalog(), nil
	}
	var reader catalogReader = m.remote
	c, err := reader.GetCatalog(ctx)
	if err != nil {
		return models.Catalog{}, err
	}
	return *c, nil
}

// Cleanup deletes usage older than the configured retention. It is a no-op
// without retention or in remote mode.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	if m.database == nil || m.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -m.cfg.RetentionDays)
	n, err := m.database.DeleteUsageBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old usage: %w", err)
	}
	if n > 0 {
		logger.Info("deleted old usage", "rows", n, "before", cutoff.Format(time.DateOnly))
	}
	return n, nil
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// IsRemote reports whether usage is read from another instance.
func (m *Manager) IsRemote() bool {
	return m.remote != nil
}

// Location returns the timezone dashboards are bucketed in.
func (m *Manager) Location() *time.Location {
	return m.dashboard.Location()
}

// Config returns the configuration the manager was built from.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Database returns the database instance, nil in remote mode.
func (m *Manager) Database() *db.DB {
	return m.database
}

// CatalogService returns the catalog file service, nil in remote mode.
func (m *Manager) CatalogService() *catalog.Service {
	return m.catalog
}

// Recorder returns the usage recorder, nil in remote mode.
func (m *Manager) Recorder() *recorder.Recorder {
	return m.recorder
}

// Dashboard returns the dashboard service.
func (m *Manager) Dashboard() *dashboard.Service {
	return m.dashboard
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	if m.stopChan != nil {
		close(m.stopChan)
	}

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.catalog != nil {
		if err := m.catalog.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
