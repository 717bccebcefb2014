package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"buildtrend/src/buildstore"
)

// Header is the summary bar above the build table.
type Header struct {
	stats  buildstore.Stats
	sortBy SortOrder
	styles *StyleConfig
}

// NewHeader creates a header for stats with default styles
func NewHeader(stats buildstore.Stats) Header {
	return Header{stats: stats, styles: DefaultStyles()}
}

// SetSort records the active sort order.
func (h *Header) SetSort(s SortOrder) {
	h.sortBy = s
}

// Render renders the header
func (h Header) Render(width int) string {
	title := h.styles.TitleStyle().Render(fmt.Sprintf("%d builds", h.stats.Count))

	var summary string
	if h.stats.Count > 0 {
		summary = fmt.Sprintf("%s → %s  min %s  median %s  mean %s  max %s",
			h.stats.First, h.stats.Last,
			minutes(float64(h.stats.Min)), minutes(h.stats.Median),
			minutes(h.stats.Mean), minutes(float64(h.stats.Max)))
	}
	stats := lipgloss.NewStyle().
		Foreground(h.styles.TextPrimary).
		Padding(0, 1).
		Render(summary)

	sort := h.styles.HelpStyle().Render("sort: " + h.sortBy.String())

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor)

	line := lipgloss.JoinHorizontal(lipgloss.Left, title, sort, stats)
	if width > 0 {
		line = TruncateStyled(line, width)
	}
	return headerStyle.Render(line)
}

// minutes formats seconds as fractional minutes.
func minutes(seconds float64) string {
	return fmt.Sprintf("%.1fm", seconds/60)
}
