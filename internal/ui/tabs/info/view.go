package info

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/inspectro-tui/internal/ui/styles"
	"github.com/j-veylop/inspectro-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderAboutCard(),
	)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if cfg := m.config; cfg != nil {
		source := "local database"
		if cfg.RemoteURL != "" {
			source = cfg.RemoteURL
		}
		alert := "off"
		if cfg.SpendingAlertUSD > 0 {
			alert = fmt.Sprintf("$%.2f", cfg.SpendingAlertUSD)
		}
		retention := "keep forever"
		if cfg.RetentionDays > 0 {
			retention = fmt.Sprintf("%d days", cfg.RetentionDays)
		}
		timezone := "Local"
		if cfg.Location != nil {
			timezone = cfg.Location.String()
		}

		rows = append(rows,
			renderConfigRow("Usage Source", source),
			renderConfigRow("Database", cfg.DatabasePath),
			renderConfigRow("LLM Catalog", cfg.CatalogPath),
			renderConfigRow("Listen Address", cfg.ListenAddr),
			renderConfigRow("Timezone", timezone),
			renderConfigRow("Refresh", cfg.RefreshInterval.String()),
			renderConfigRow("Spending Alert", alert),
			renderConfigRow("Retention", retention),
			renderConfigRow("Log File", cfg.LogFile),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	rows = append(rows, "", styles.HelpStyle.Render("Press 'c' or 'd' to copy paths"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	catalog := m.state.GetCatalog()
	d := m.state.GetDashboard()

	rows := []string{
		styles.CardTitleStyle.Render("About Inspectro"),
		"",
		renderConfigRow("Version", version.GetVersion()),
		renderConfigRow("Build Date", version.GetDate()),
		renderConfigRow("Git Commit", version.GetCommit()),
		renderConfigRow("Platform", version.Platform()),
		"",
		fmt.Sprintf("Models priced: %s", styles.InfoTextStyle.Render(fmt.Sprintf("%d", len(catalog.Models)))),
	}
	if d.Dropped > 0 {
		rows = append(rows, styles.WarningTextStyle.Render(
			fmt.Sprintf("%d events fell outside the charted window", d.Dropped)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
