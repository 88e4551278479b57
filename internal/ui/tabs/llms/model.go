// Package llms provides the models tab: the priced model catalog the proxy
// meters against.
package llms

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/inspectro-tui/internal/app"
	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/ui/components"
	"github.com/j-veylop/inspectro-tui/internal/ui/styles"
)

// keyMap defines the key bindings specific to the models tab.
type keyMap struct {
	Copy    key.Binding
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Copy: key.NewBinding(
			key.WithKeys("c", "y"),
			key.WithHelp("c", "copy model name"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload catalog"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the models tab state.
type Model struct {
	state   *app.State
	table   table.Model
	spinner components.LoadingSpinner
	keys    keyMap
	width   int
	height  int
}

// New creates the models tab.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(20)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	m := &Model{
		state:   state,
		table:   t,
		spinner: components.NewSpinner("Loading catalog..."),
		keys:    defaultKeyMap(),
	}
	m.updateTableData()
	return m
}

func columns(modelWidth int) []table.Column {
	return []table.Column{
		{Title: "Model", Width: modelWidth},
		{Title: "Provider", Width: 14},
		{Title: "Input $/M", Width: 10},
		{Title: "Output $/M", Width: 10},
		{Title: "API base", Width: 32},
	}
}

// Init initializes the models tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the models tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Copy):
			if row := m.table.SelectedRow(); len(row) > 0 {
				name := row[0]
				return m, func() tea.Msg {
					return app.CopyToClipboardMsg{Text: name}
				}
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case app.CatalogLoadedMsg:
		if msg.Err == nil {
			m.updateTableData()
		}

	case app.ServiceEventMsg:
		m.updateTableData()

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateTableData rebuilds the rows from the catalog held in state.
func (m *Model) updateTableData() {
	catalog := m.state.GetCatalog()

	bases := make(map[string]string, len(catalog.Providers))
	for _, p := range catalog.Providers {
		bases[p.Name] = p.APIBase
	}

	rows := make([]table.Row, 0, len(catalog.Models))
	for _, llm := range catalog.Models {
		base, ok := bases[llm.Provider]
		if !ok {
			base = "(unknown provider)"
		}
		rows = append(rows, table.Row{
			llm.Name,
			llm.Provider,
			formatPrice(llm.CostPerMillionInputToken),
			formatPrice(llm.CostPerMillionOutputToken),
			base,
		})
	}

	m.table.SetRows(rows)
}

// formatPrice formats a per-million-token price.
func formatPrice(v float64) string {
	if v == 0 {
		return "free"
	}
	return fmt.Sprintf("$%.2f", v)
}

// providerCount counts providers that serve at least one model.
func providerCount(c models.Catalog) int {
	n := 0
	for _, p := range c.Providers {
		if len(c.ModelsFor(p.Name)) > 0 {
			n++
		}
	}
	return n
}

// SetSize sets the available size for the models tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-10, 3))

	// Model names get whatever the fixed columns leave over.
	m.table.SetColumns(columns(min(max(width-90, 20), 40)))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Copy, m.keys.Refresh}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Copy, m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
