package llms

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/inspectro-tui/internal/ui/components"
	"github.com/j-veylop/inspectro-tui/internal/ui/styles"
)

// View renders the models tab.
func (m *Model) View() string {
	catalog := m.state.GetCatalog()
	if len(catalog.Models) == 0 && m.state.IsCatalogLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	sections := []string{m.renderTitle()}
	if len(catalog.Models) == 0 {
		sections = append(sections, m.renderEmptyState())
	} else {
		sections = append(sections, m.renderTable())
	}
	sections = append(sections, m.renderFooter())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderTitle() string {
	catalog := m.state.GetCatalog()

	title := styles.TitleStyle.Render("Model Catalog")
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d models across %d providers",
		len(catalog.Models), providerCount(catalog)))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderTable() string {
	cardWidth := max(m.width-6, 60)
	return styles.CardStyle.Width(cardWidth).Render(m.table.View())
}

func (m *Model) renderEmptyState() string {
	cardWidth := max(m.width-6, 40)

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No Models Configured"),
		"",
		styles.HelpStyle.Render("List providers and models in the LLM config file."),
		styles.HelpStyle.Render("Calls to models missing from the catalog are not priced."),
		"",
	)

	return styles.CardStyle.Width(cardWidth).Render(content)
}

func (m *Model) renderFooter() string {
	shortcuts := []string{
		styles.HelpKeyStyle.Render("↑/↓") + styles.HelpDescStyle.Render(" select"),
		styles.HelpKeyStyle.Render("c") + styles.HelpDescStyle.Render(" copy name"),
		styles.HelpKeyStyle.Render("r") + styles.HelpDescStyle.Render(" reload"),
	}

	footer := ""
	for i, s := range shortcuts {
		if i > 0 {
			footer += styles.HelpStyle.Render(" | ")
		}
		footer += s
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(footer)
}
