// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"slices"
	"sync"
	"time"

	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services/dashboard"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// Loading resources.
const (
	ResourceInitial = "initial"
	ResourceUsage   = "usage"
	ResourceCatalog = "catalog"
)

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Usage   bool
	Catalog bool
}

// State is shared between the root model and the tabs.
type State struct {
	mu sync.RWMutex

	// Query selected in the usage tab.
	DateRange models.DateRange
	Filter    string

	Dashboard *dashboard.Dashboard
	Catalog   models.Catalog
	LastError error

	Loading LoadingState

	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates the state with the default date range and an empty
// dashboard.
func NewState() *State {
	return &State{
		DateRange:     models.DefaultDateRange,
		Dashboard:     dashboard.Empty(),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceUsage:
		s.Loading.Usage = loading
	case ResourceCatalog:
		s.Loading.Catalog = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial || s.Loading.Usage || s.Loading.Catalog
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// IsUsageLoading reports whether a dashboard load is in flight.
func (s *State) IsUsageLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Usage
}

// IsCatalogLoading reports whether a catalog load is in flight.
func (s *State) IsCatalogLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Catalog
}

// SetQuery stores the usage query.
func (s *State) SetQuery(r models.DateRange, filter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DateRange = r
	s.Filter = filter
}

// GetQuery returns the usage query.
func (s *State) GetQuery() (models.DateRange, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DateRange, s.Filter
}

// SetDashboard stores a freshly loaded dashboard and clears the last error.
func (s *State) SetDashboard(d *dashboard.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d == nil {
		d = dashboard.Empty()
	}
	s.Dashboard = d
	s.LastError = nil
	s.LastUpdated = time.Now()
}

// GetDashboard returns the current dashboard. It is never nil.
func (s *State) GetDashboard() *dashboard.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Dashboard
}

// SetError records the last load failure.
func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastError = err
}

// GetError returns the last load failure, if any.
func (s *State) GetError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastError
}

// SetCatalog stores the model catalog.
func (s *State) SetCatalog(c models.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Catalog = c
}

// GetCatalog returns a copy of the model catalog.
func (s *State) GetCatalog() models.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Catalog{
		Providers: slices.Clone(s.Catalog.Providers),
		Models:    slices.Clone(s.Catalog.Models),
	}
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.IsExpired()
	})
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// GetLastUpdated returns the last time a dashboard was stored.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}
