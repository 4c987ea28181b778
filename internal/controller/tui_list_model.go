package controller

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const badgeWidth = 8

// rowDelegate renders one badge + text line per item.
type rowDelegate struct {
	offset int
}

func (d rowDelegate) Height() int  { return 1 }
func (d rowDelegate) Spacing() int { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(rowItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	var textStyle, badgeStyle lipgloss.Style

	var displayText string

	width := m.Width() - badgeWidth - 2

	badgeColor := lipgloss.Color("10")
	if row.warn {
		badgeColor = lipgloss.Color("11")
	}

	if isSelected {
		textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")).
			Bold(true)
		badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")).
			Bold(true).
			Width(badgeWidth).
			Align(lipgloss.Right)

		displayText = animateScroll(row.text, width, d.offset)
	} else {
		textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		badgeStyle = lipgloss.NewStyle().
			Foreground(badgeColor).
			Bold(true).
			Width(badgeWidth).
			Align(lipgloss.Right)

		displayText = truncateToWidth(row.text, width)
	}

	line := fmt.Sprintf("%s  %s",
		badgeStyle.Render(row.badge),
		textStyle.Render(displayText),
	)
	_, _ = fmt.Fprint(w, line)
}

func animateScroll(text string, width int, offset int) string {
	if width <= 0 {
		return ""
	}

	textWidth := lipgloss.Width(text)
	if textWidth <= width {
		return text
	}

	// Gap between repeats
	gap := "   "

	// Initial pause before scrolling starts (in ticks)
	pause := 5

	if offset < pause {
		return truncateToWidth(text, width)
	}

	effectiveStep := offset - pause

	// Create the repeating pattern: text + gap
	// We work with runes to handle multi-byte characters correctly
	runes := []rune(text + gap)
	n := len(runes)

	if n == 0 {
		return ""
	}

	start := effectiveStep % n

	// Construct the window
	res := make([]rune, 0, width)
	for i := range width {
		idx := (start + i) % n
		res = append(res, runes[idx])
	}

	return string(res)
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(text) <= width {
		return text
	}

	const ellipsis = "…"

	if width <= 1 {
		return ellipsis
	}

	maxWidth := width - lipgloss.Width(ellipsis)
	if maxWidth <= 0 {
		return ellipsis
	}

	currentWidth := 0

	result := make([]rune, 0, len(text))
	for _, r := range text {
		rWidth := lipgloss.Width(string(r))
		if currentWidth+rWidth > maxWidth {
			break
		}

		result = append(result, r)
		currentWidth += rWidth
	}

	return string(result) + ellipsis
}

// listModel shows a scrollable, filterable list of directives or outcomes.
type listModel struct {
	width        int
	height       int
	rowList      list.Model
	delegate     rowDelegate
	title        string
	summary      string
	header       string
	rendered     bool
	animOffset   int
	lastSelected int
}

// chromeHeight is the number of lines around the list: title (2),
// summary (2), footer (1), border (2) and headers (2).
const chromeHeight = 9

func newListModel() listModel {
	delegate := rowDelegate{}
	rowList := list.New([]list.Item{}, delegate, 80, 20)
	rowList.SetShowPagination(false)
	rowList.SetShowFilter(true)
	rowList.SetShowHelp(false)
	rowList.SetShowTitle(false)
	rowList.SetShowStatusBar(false)
	rowList.FilterInput.Placeholder = "Filter…"

	return listModel{
		rowList:      rowList,
		delegate:     delegate,
		lastSelected: -1,
	}
}

func (m listModel) Init() tea.Cmd {
	return tea.Tick(time.Second/2, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rowList.SetWidth(m.width)

	case tickMsg:
		if m.rowList.FilterState() != list.Filtering && m.rendered {
			m.animOffset++
			m.delegate.offset = m.animOffset
			m.rowList.SetDelegate(m.delegate)

			return m, tea.Tick(time.Millisecond*150, func(t time.Time) tea.Msg {
				return tickMsg(t)
			})
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		default:
			var newList list.Model

			newList, cmd = m.rowList.Update(msg)
			m.rowList = newList

			// Reset the scroll animation when the selection moves.
			if m.rowList.Index() != m.lastSelected {
				m.lastSelected = m.rowList.Index()
				m.animOffset = 0
				m.delegate.offset = 0
				m.rowList.SetDelegate(m.delegate)
			}

			return m, cmd
		}

	case rowsMsg:
		m = m.handleRowsMsg(msg)
	}

	return m, cmd
}

func (m listModel) handleRowsMsg(msg rowsMsg) listModel {
	m.title = msg.title
	m.summary = msg.summary
	m.header = msg.header

	items := make([]list.Item, 0, len(msg.items))
	for _, item := range msg.items {
		items = append(items, item)
	}

	m.rowList.SetItems(items)
	m.rendered = true

	if len(items) > 0 && m.lastSelected == -1 {
		m.lastSelected = 0
	}

	return m
}

// needsPagination reports whether the rows overflow the terminal.
func (m listModel) needsPagination() bool {
	if m.height <= 0 {
		return false
	}

	return len(m.rowList.Items()) > m.height-chromeHeight
}

func (m listModel) View() string {
	if !m.rendered {
		return "Loading…\n"
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)

	title := titleStyle.Render(m.title)
	summary := summaryStyle.Render(m.summary)
	table := m.renderTable()

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Width(m.width)

	footer := footerStyle.Render("↑/k up • ↓/j down • g/G top/bottom • / filter • q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		table,
		footer,
	)
}

func (m listModel) renderTable() string {
	listHeight := m.height - chromeHeight
	if listHeight < 5 {
		listHeight = 5
	}

	// Window width minus margin (2), border (2) and padding (2).
	listWidth := m.width - 6
	if listWidth < 20 {
		listWidth = 20
	}

	m.rowList.SetHeight(listHeight)
	m.rowList.SetWidth(listWidth)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("8")).
		Width(listWidth)

	headers := headerStyle.Render(m.header)

	tableContainer := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("6")).
		Margin(0, 1).
		Padding(0, 1)

	return tableContainer.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headers,
			m.rowList.View(),
		),
	)
}
