package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/inspectro-tui/internal/ui/styles"
)

// BudgetBar shows how much of the spending alert threshold is used.
type BudgetBar struct {
	progress progress.Model
}

// NewBudgetBar creates a budget bar that shades from green to red.
func NewBudgetBar() BudgetBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return BudgetBar{progress: p}
}

// Percent returns spent as a share of limit, in percent. A non-positive
// limit yields 0.
func Percent(spent, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return spent / limit * 100
}

// View renders the bar with a label and a "$spent / $limit" readout.
func (b BudgetBar) View(spentUSD, limitUSD float64, label string, width int) string {
	percent := Percent(spentUSD, limitUSD)

	// Reserve space for label and readout
	b.progress.Width = max(width-45, 10)
	bar := b.progress.ViewAs(min(percent, 100) / 100)

	readout := styles.GetBudgetStyle(percent).
		Render(fmt.Sprintf("$%.2f / $%.2f (%.0f%%)", spentUSD, limitUSD, percent))

	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		bar,
		" ",
		readout,
	)
}
