// Package tui is an interactive terminal browser for recorded builds.
package tui

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"buildtrend/src/buildstore"
)

// SortOrder selects how the table rows are ordered.
type SortOrder int

const (
	// SortByStart lists builds chronologically.
	SortByStart SortOrder = iota
	// SortByDuration lists the slowest builds first.
	SortByDuration
)

func (s SortOrder) String() string {
	if s == SortByDuration {
		return "duration"
	}
	return "start"
}

// chrome is the number of lines taken by the header and footer.
const chrome = 6

// footerPRWidth aligns the duration after the PR label in the footer.
const footerPRWidth = 10

var columns = []table.Column{
	{Title: "Start", Width: 19},
	{Title: "Minutes", Width: 8},
	{Title: "PR", Width: 6},
}

// BuildsModel is the bubbletea model for the build table.
type BuildsModel struct {
	table   table.Model
	header  Header
	styles  *StyleConfig
	entries []buildstore.Entry
	sortBy  SortOrder

	width  int
	height int
}

func newBuildsModel(entries []buildstore.Entry) BuildsModel {
	styles := DefaultStyles()
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
		table.WithStyles(styles.TableStyles()),
	)

	m := BuildsModel{
		table:   t,
		header:  NewHeader(buildstore.Summarize(entries)),
		styles:  styles,
		entries: slices.Clone(entries),
	}
	m.applySort()
	return m
}

// Init initializes the model. Required by tea.Model interface.
func (m BuildsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages. Required by tea.Model interface.
func (m BuildsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-chrome, 1))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			if m.sortBy == SortByStart {
				m.sortBy = SortByDuration
			} else {
				m.sortBy = SortByStart
			}
			m.applySort()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the model. Required by tea.Model interface.
func (m BuildsModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.Render(m.width),
		m.table.View(),
		m.renderFooter(),
	)
}

// Selected returns the build under the cursor.
func (m BuildsModel) Selected() (buildstore.Entry, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.entries) {
		return buildstore.Entry{}, false
	}
	return m.entries[i], true
}

func (m *BuildsModel) applySort() {
	switch m.sortBy {
	case SortByDuration:
		slices.SortStableFunc(m.entries, func(a, b buildstore.Entry) int {
			if c := cmp.Compare(b.Duration, a.Duration); c != 0 {
				return c
			}
			return cmp.Compare(a.Start, b.Start)
		})
	default:
		slices.SortStableFunc(m.entries, func(a, b buildstore.Entry) int {
			return cmp.Compare(a.Start, b.Start)
		})
	}

	rows := make([]table.Row, len(m.entries))
	for i, e := range m.entries {
		rows[i] = table.Row{
			e.Start,
			fmt.Sprintf("%.1f", float64(e.Duration)/60),
			fmt.Sprintf("#%d", e.PullRequest),
		}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
	m.header.SetSort(m.sortBy)
}

func (m BuildsModel) renderFooter() string {
	style := m.styles.FooterStyle()
	help := m.styles.HelpStyle().Render("↑/↓ move • s sort • q quit")

	e, ok := m.Selected()
	if !ok {
		return style.Render("no builds recorded") + "\n" + help
	}

	label := TruncateAndPad(fmt.Sprintf("PR #%d", e.PullRequest), footerPRWidth, false) +
		fmt.Sprintf("%ds  ", e.Duration)
	detail := label + e.URI
	if m.width > 0 {
		// Leave room for the footer padding.
		avail := m.width - 2 - VisualWidth(label)
		detail = label + Truncate(e.URI, avail, true)
		help = TruncateStyled(help, m.width)
	}
	return style.Render(detail) + "\n" + help
}

// Start runs the browser over entries until the user quits.
func Start(entries []buildstore.Entry) error {
	p := tea.NewProgram(newBuildsModel(entries), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run build browser: %w", err)
	}
	return nil
}
