// Package usage provides the usage tab: spending totals, per-model cost and
// request charts, and the series table for the selected window.
package usage

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/inspectro-tui/internal/app"
	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/ui/components"
)

// filterDebounce is how long the filter must stay unchanged before the
// dashboard is reloaded.
const filterDebounce = 500 * time.Millisecond

// keyMap defines the key bindings specific to the usage tab.
type keyMap struct {
	CycleRange  key.Binding
	Filter      key.Binding
	ClearFilter key.Binding
	Apply       key.Binding
	Cancel      key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		CycleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle date range"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter models"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filter"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply filter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop editing"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// filterSettledMsg fires filterDebounce after a keystroke in the filter.
type filterSettledMsg struct {
	seq int
}

// Model represents the usage tab state.
type Model struct {
	state    *app.State
	alertUSD float64

	keys     keyMap
	viewport viewport.Model
	spinner  components.LoadingSpinner
	budget   components.BudgetBar
	filter   textinput.Model

	filtering   bool
	filterSeq   int
	lastApplied string

	width  int
	height int
}

// New creates the usage tab. alertUSD is the spending alert threshold in
// dollars; zero hides the budget bar.
func New(state *app.State, alertUSD float64) *Model {
	ti := textinput.New()
	ti.Placeholder = "model or provider"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 24

	return &Model{
		state:    state,
		alertUSD: alertUSD,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Loading usage..."),
		budget:   components.NewBudgetBar(),
		filter:   ti,
	}
}

// Init initializes the usage tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick()
}

// CapturesInput reports whether the filter input has focus.
func (m *Model) CapturesInput() bool {
	return m.filtering
}

// Update handles messages for the usage tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m, m.handleFilterKey(msg)
		}
		return m, m.handleKeyMsg(msg)

	case filterSettledMsg:
		if msg.seq == m.filterSeq {
			return m, m.applyFilter()
		}

	case app.QueryChangedMsg:
		m.viewport.GotoTop()

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.CycleRange):
		r, filter := m.state.GetQuery()
		return queryChanged(r.Next(), filter)

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m.filter.Focus()

	case key.Matches(msg, m.keys.ClearFilter):
		if m.filter.Value() == "" {
			return nil
		}
		m.filter.SetValue("")
		return m.applyFilter()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Apply):
		m.filtering = false
		m.filter.Blur()
		return m.applyFilter()

	case key.Matches(msg, m.keys.Cancel):
		m.filtering = false
		m.filter.Blur()
		return nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() == before {
		return cmd
	}

	m.filterSeq++
	seq := m.filterSeq
	return tea.Batch(cmd, tea.Tick(filterDebounce, func(time.Time) tea.Msg {
		return filterSettledMsg{seq: seq}
	}))
}

// applyFilter emits a query change when the filter differs from the one
// last sent.
func (m *Model) applyFilter() tea.Cmd {
	value := strings.TrimSpace(m.filter.Value())
	if value == m.lastApplied {
		return nil
	}
	m.lastApplied = value
	r, _ := m.state.GetQuery()
	return queryChanged(r, value)
}

func queryChanged(r models.DateRange, filter string) tea.Cmd {
	return func() tea.Msg {
		return app.QueryChangedMsg{DateRange: r, Filter: filter}
	}
}

// SetSize sets the available size for the usage tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.filtering {
		return []key.Binding{m.keys.Apply, m.keys.Cancel}
	}
	return []key.Binding{
		m.keys.CycleRange,
		m.keys.Filter,
		m.keys.ClearFilter,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.CycleRange, m.keys.Filter, m.keys.ClearFilter},
		{m.keys.Up, m.keys.Down},
	}
}
