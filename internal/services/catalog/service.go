// Package catalog loads the provider and model catalog from a YAML file,
// keeps it in sync with the store and reloads it when the file changes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
)

const debounceInterval = 100 * time.Millisecond

// Store persists the catalog.
type Store interface {
	SyncCatalog(ctx context.Context, c *models.Catalog) error
}

// EventType defines the type of catalog event.
type EventType int

const (
	EventCatalogLoaded EventType = iota
	EventCatalogChanged
	EventError
)

// Event represents a catalog service event.
type Event struct {
	Error error
	Type  EventType
}

// Service owns the catalog file.
type Service struct {
	mu            sync.RWMutex
	catalog       models.Catalog
	store         Store
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// New loads filePath, creating an empty catalog file when it does not
// exist, syncs it to store and starts watching it.
func New(filePath string, store Store) (*Service, error) {
	if filePath == "" {
		return nil, errors.New("catalog path is empty")
	}

	s := &Service{
		filePath:  filePath,
		store:     store,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	c, err := readFile(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := writeFile(filePath, &models.Catalog{}); err != nil {
			return nil, fmt.Errorf("failed to create catalog file: %w", err)
		}
		c = &models.Catalog{}
	case err != nil:
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if err := s.apply(c); err != nil {
		return nil, err
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventCatalogLoaded})
	return s, nil
}

// Path returns the catalog file path.
func (s *Service) Path() string {
	return s.filePath
}

// Events returns the event channel for subscribing to catalog changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Catalog returns a copy of the current catalog.
func (s *Service) Catalog() models.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Catalog{
		Providers: slices.Clone(s.catalog.Providers),
		Models:    slices.Clone(s.catalog.Models),
	}
}

// Provider returns the named provider.
func (s *Service) Provider(name string) (models.Provider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Provider(name)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*models.Catalog, error) {
	var c models.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that names are present and unique and prices are not
// negative.
func Validate(c *models.Catalog) error {
	providers := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider %d has no name", i)
		}
		if providers[p.Name] {
			return fmt.Errorf("duplicate provider %q", p.Name)
		}
		providers[p.Name] = true
	}

	type key struct{ name, provider string }
	seen := make(map[key]bool, len(c.Models))
	for i, m := range c.Models {
		if m.Name == "" || m.Provider == "" {
			return fmt.Errorf("model %d needs both name and provider", i)
		}
		k := key{m.Name, m.Provider}
		if seen[k] {
			return fmt.Errorf("duplicate model %q for provider %q", m.Name, m.Provider)
		}
		seen[k] = true
		if m.CostPerMillionInputToken < 0 || m.CostPerMillionOutputToken < 0 {
			return fmt.Errorf("model %q has a negative price", m.Name)
		}
	}
	return nil
}

func readFile(path string) (*models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// writeFile writes c to a temp file first, then renames it into place.
func writeFile(path string, c *models.Catalog) error {
	if c.Providers == nil {
		c.Providers = []models.Provider{}
	}
	if c.Models == nil {
		c.Models = []models.LLM{}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// apply syncs c to the store and makes it current.
func (s *Service) apply(c *models.Catalog) error {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.store.SyncCatalog(ctx, c); err != nil {
			return fmt.Errorf("failed to sync catalog: %w", err)
		}
	}

	s.mu.Lock()
	s.catalog = *c
	s.mu.Unlock()

	logger.Info("catalog loaded", "providers", len(c.Providers), "models", len(c.Models))
	return nil
}

func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory so editors that replace the file are seen.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the catalog. A file that fails to parse leaves
// the previous catalog in place.
func (s *Service) handleFileChange() {
	select {
	case <-s.stopChan:
		return
	default:
	}

	c, err := readFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		// Mid-rename; the Create that follows triggers another reload.
		return
	}
	if err == nil {
		err = s.apply(c)
	}
	if err != nil {
		logger.Warn("catalog reload failed", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	s.sendEvent(Event{Type: EventCatalogChanged})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
