package app

import (
	"time"

	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services"
	"github.com/j-veylop/inspectro-tui/internal/services/dashboard"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// RefreshTickMsg is sent every refresh interval to reload the dashboard.
type RefreshTickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// DashboardLoadedMsg carries the result of a dashboard load.
type DashboardLoadedMsg struct {
	Dashboard *dashboard.Dashboard
	Err       error
}

// CatalogLoadedMsg carries the result of a catalog load.
type CatalogLoadedMsg struct {
	Catalog models.Catalog
	Err     error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "usage", "catalog"
}

// QueryChangedMsg is emitted by the usage tab when the date range or the
// model filter changes.
type QueryChangedMsg struct {
	DateRange models.DateRange
	Filter    string
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// QuitMsg requests the application to quit.
type QuitMsg struct{}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// CopyToClipboardMsg requests copying text to clipboard.
type CopyToClipboardMsg struct {
	Text string
}

// ClipboardResultMsg contains the result of a clipboard operation.
type ClipboardResultMsg struct {
	Text  string
	Error error
}
