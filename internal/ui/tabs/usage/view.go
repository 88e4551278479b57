package usage

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services/dashboard"
	"github.com/j-veylop/inspectro-tui/internal/ui/components"
	"github.com/j-veylop/inspectro-tui/internal/ui/styles"
)

const (
	chartHeight    = 8
	sparklineWidth = 16
)

// View renders the usage tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	d := m.state.GetDashboard()

	sections := []string{m.renderHeader(d)}
	if err := m.state.GetError(); err != nil {
		sections = append(sections, styles.ErrorTextStyle.Render("Error: "+err.Error()), "")
	}
	sections = append(sections, m.renderStatCards(d))
	if m.alertUSD > 0 {
		sections = append(sections, m.renderBudget(d), "")
	}

	if d.IsEmpty() {
		sections = append(sections, m.renderEmpty())
	} else {
		chartIdx := chartSeries(d, components.MaxChartSeries)
		sections = append(sections,
			m.renderChart(d, chartIdx, "Cost", func(p pointValues) float64 { return p.cost }, 2),
			m.renderChart(d, chartIdx, "Requests", func(p pointValues) float64 { return p.requests }, 0),
			m.renderTable(d),
			m.renderCostByModel(d),
		)
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-10, 40)
}

func (m *Model) renderHeader(d *dashboard.Dashboard) string {
	r, _ := m.state.GetQuery()

	title := styles.TitleStyle.Render("LLM Usage")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)
	rangeIndicator := rangeStyle.Render("[t] " + r.String())

	filterStyle := styles.BlurredBorderStyle
	if m.filtering {
		filterStyle = styles.FocusedBorderStyle
	}
	filterBox := filterStyle.Render(m.filter.View())

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator, " ", filterBox)

	var subtitle string
	switch {
	case r == models.DateRangeNone:
		subtitle = "No date range selected. Press t to pick one."
	case d.From.IsZero():
		subtitle = "Waiting for data..."
	default:
		unit := "days"
		if d.Granularity.String() == "hourly" {
			unit = "hours"
		}
		subtitle = fmt.Sprintf("%s → %s · %d %s",
			d.From.Format("Jan 2, 2006"),
			d.To.Format("Jan 2, 2006"),
			len(d.Buckets),
			unit,
		)
	}
	if updated := m.state.GetLastUpdated(); !updated.IsZero() {
		subtitle += " · updated " + humanize.Time(updated)
	}

	lines := []string{header, styles.HelpStyle.Render(subtitle)}
	if m.state.IsUsageLoading() {
		lines = append(lines, m.spinner.ViewWithLabel())
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

func statCard(label, value string) string {
	return styles.StatCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.StatLabelStyle.Render(label),
		styles.StatValueStyle.Render(value),
	))
}

func (m *Model) renderStatCards(d *dashboard.Dashboard) string {
	var requests int64
	for _, s := range d.Series {
		requests += s.Totals().Requests
	}

	cards := []string{
		statCard("All-time spend", formatUSD(d.AllTime.USD())),
		statCard("Spend in range", formatUSD(d.Current.USD())),
		statCard("Tokens in range", formatTokens(d.Current.Tokens)),
		statCard("Requests", formatCount(requests)),
		statCard("Models", fmt.Sprintf("%d", len(d.Series))),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Top, cards...), "")
}

func (m *Model) renderBudget(d *dashboard.Dashboard) string {
	return m.budget.View(d.AllTime.USD(), m.alertUSD, "Spending alert", m.cardWidth())
}

func (m *Model) renderEmpty() string {
	r, filter := m.state.GetQuery()

	lines := []string{
		styles.CardTitleStyle.Render("No usage"),
	}
	switch {
	case r == models.DateRangeNone:
		lines = append(lines, styles.HelpStyle.Render("Select a date range to see usage."))
	case filter != "":
		lines = append(lines, styles.HelpStyle.Render(fmt.Sprintf("No model or provider matches %q in this window.", filter)))
	default:
		lines = append(lines,
			styles.HelpStyle.Render("No LLM calls were recorded in this window."),
			styles.HelpStyle.Render("Route requests through the proxy to start metering them."),
		)
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

type pointValues struct {
	cost     float64
	requests float64
}

// chartSeries picks the indexes of the n most expensive series, kept in
// display order.
func chartSeries(d *dashboard.Dashboard, n int) []int {
	idx := make([]int, len(d.Series))
	for i := range idx {
		idx[i] = i
	}
	if len(idx) <= n {
		return idx
	}

	costs := make([]int64, len(d.Series))
	for i, s := range d.Series {
		costs[i] = s.Totals().TotalCost
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(costs[b], costs[a])
	})
	idx = idx[:n]
	slices.Sort(idx)
	return idx
}

func seriesLabel(d *dashboard.Dashboard, i int) string {
	k := d.Series[i].Key
	if k.Provider == "" {
		return k.Model
	}
	return k.Model + " (" + k.Provider + ")"
}

func (m *Model) renderChart(d *dashboard.Dashboard, idx []int, title string, value func(pointValues) float64, precision uint) string {
	cardWidth := m.cardWidth()

	data := make([][]float64, 0, len(idx))
	legend := make([]components.LegendItem, 0, len(idx))
	for n, i := range idx {
		points := d.Series[i].Points
		values := make([]float64, len(points))
		for j, p := range points {
			values[j] = value(pointValues{
				cost:     p.Record.TotalCostUSD(),
				requests: float64(p.Record.Requests),
			})
		}
		data = append(data, values)
		legend = append(legend, components.LegendItem{
			Label: truncate(seriesLabel(d, i), 32),
			Color: styles.SeriesColor(n),
		})
	}

	per := "day"
	if d.Granularity.String() == "hourly" {
		per = "hour"
	}
	caption := fmt.Sprintf("%s per %s", title, per)
	if len(idx) < len(d.Series) {
		caption += fmt.Sprintf(" (top %d of %d models)", len(idx), len(d.Series))
	}

	chart := components.RenderMultiLineChart(data, max(cardWidth-14, 30), chartHeight, caption, precision)

	rows := []string{styles.CardTitleStyle.Render(title)}
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}
	if len(d.Buckets) > 0 {
		first := d.Granularity.Label(d.Buckets[0].Start)
		last := d.Granularity.Label(d.Buckets[len(d.Buckets)-1].Start)
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  %s … %s", first, last)))
	}
	rows = append(rows, "", "  "+components.RenderLegend(legend))

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderTable(d *dashboard.Dashboard) string {
	rows := make([][]string, 0, len(d.Series))
	for _, s := range d.Series {
		totals := s.Totals()
		costs := make([]float64, len(s.Points))
		for j, p := range s.Points {
			costs[j] = p.Record.TotalCostUSD()
		}
		rows = append(rows, []string{
			truncate(s.Key.Model, 28),
			s.Key.Provider,
			formatCount(totals.Requests),
			formatTokens(totals.InputTokens),
			formatTokens(totals.OutputTokens),
			formatUSD(totals.TotalCostUSD()),
			lipgloss.NewStyle().Foreground(styles.Secondary).
				Render(components.RenderSparkline(costs, sparklineWidth)),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers("Model", "Provider", "Requests", "Input", "Output", "Cost", "Trend").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeaderStyle.BorderBottom(false).Padding(0, 1)
			}
			s := styles.TableCellStyle
			if col >= 2 && col <= 5 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Models"),
		t.Render(),
	))
}

func (m *Model) renderCostByModel(d *dashboard.Dashboard) string {
	values := make([]float64, len(d.Series))
	labels := make([]string, len(d.Series))
	for i, s := range d.Series {
		values[i] = s.Totals().TotalCostUSD()
		labels[i] = truncate(s.Key.Model, 24)
	}

	chart := components.RenderBarChart(values, labels, m.cardWidth()-6, formatUSD)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Cost by model"),
		chart,
	))
}
