package controller

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	m "github.com/mouse-blink/weave/internal/model"
)

const defaultWidth = 100

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// DisplayDirectives shows the directive listing.
func (t *TUI) DisplayDirectives(directives []m.Directive) error {
	rows := sortedDirectives(directives)

	items := make([]rowItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowItem{
			badge: row.mode,
			text:  fmt.Sprintf("%s  %s  ← %s", row.target, row.anchor, row.definition),
		})
	}

	return t.show(rowsMsg{
		title:   "🧵 Weave Directives",
		summary: fmt.Sprintf("Directives: %d   Targets: %d", len(directives), countTargets(directives)),
		header:  fmt.Sprintf("%*s  %s", badgeWidth, "Mode", "Target  Anchor  ← Definition"),
		items:   items,
	})
}

// DisplayReport shows the outcomes of a run.
func (t *TUI) DisplayReport(report m.WeaveReport) error {
	items := make([]rowItem, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		items = append(items, rowItem{
			badge: string(o.Status),
			text:  fmt.Sprintf("%s %s %s  %s  ← %s", o.Mode, formatSpan(o), formatDelta(o), o.Target, o.Definition),
			warn:  o.Status == m.OutcomeSkipped,
		})
	}

	return t.show(rowsMsg{
		title: "🧵 Weave Report " + report.RunID,
		summary: fmt.Sprintf("Applied: %d   Skipped: %d   Files: %d   Units: %d",
			report.Count(m.OutcomeApplied), report.Count(m.OutcomeSkipped), report.Files, report.Units),
		header: fmt.Sprintf("%*s  %s", badgeWidth, "Status", "Mode Span Delta  Target  ← Definition"),
		items:  items,
	})
}

// DisplayWeaveError prints a failed run.
func (t *TUI) DisplayWeaveError(err error) {
	_, _ = fmt.Fprintf(t.output, "weave failed: %v\n", err)
}

// DisplayWatching prints the watched directories.
func (t *TUI) DisplayWatching(roots []m.Path) {
	names := make([]string, len(roots))
	for i, r := range roots {
		names[i] = string(r)
	}

	_, _ = fmt.Fprintf(t.output, "Watching %s (Ctrl-C to stop)\n", strings.Join(names, ", "))
}

// show prints small lists directly and runs the interactive list otherwise.
func (t *TUI) show(msg rowsMsg) error {
	model := newListModel()
	model.width = defaultWidth

	if f, ok := t.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model.height = height
			model.width = width
		}
	}

	model = model.handleRowsMsg(msg)

	if !model.needsPagination() {
		// Leave room for the list's own filter bar.
		model.height = len(msg.items) + chromeHeight + 3

		_, err := fmt.Fprintln(t.output, model.View())

		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(t.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}
