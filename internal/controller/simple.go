package controller

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/mouse-blink/weave/internal/model"
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayDirectives prints one table row per directive, grouped by target.
func (s *SimpleUI) DisplayDirectives(directives []m.Directive) error {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"#", "Target", "Mode", "Anchor", "Definition"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoMergeCells(true)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})

	for _, row := range sortedDirectives(directives) {
		table.Append([]string{fmt.Sprintf("%d", row.order), row.target, row.mode, row.anchor, row.definition})
	}

	table.SetFooter([]string{
		"",
		fmt.Sprintf("Targets %d", countTargets(directives)),
		"",
		"",
		fmt.Sprintf("Directives %d", len(directives)),
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayReport prints the outcome table of a run.
func (s *SimpleUI) DisplayReport(report m.WeaveReport) error {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Definition", "Mode", "Target", "Status", "Span", "Delta"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, o := range report.Outcomes {
		table.Append([]string{
			o.Definition,
			string(o.Mode),
			o.Target,
			statusColor(o.Status).Sprint(string(o.Status)),
			formatSpan(o),
			formatDelta(o),
		})
	}

	table.Render()

	s.printf("\nRun %s (%s)\n", color.New(color.Bold).Sprint(report.RunID), report.Created.Format("2006-01-02 15:04:05"))
	s.printf("%s", tableBuffer.String())
	s.printf("%s applied, %s skipped across %d file(s) from %d mixin unit(s)\n",
		statusColor(m.OutcomeApplied).Sprint(report.Count(m.OutcomeApplied)),
		statusColor(m.OutcomeSkipped).Sprint(report.Count(m.OutcomeSkipped)),
		report.Files,
		report.Units,
	)

	return nil
}

// DisplayWeaveError prints a failed run.
func (s *SimpleUI) DisplayWeaveError(err error) {
	s.printf("%s %v\n", color.New(color.FgRed, color.Bold).Sprint("weave failed:"), err)
}

// DisplayWatching prints the watched directories.
func (s *SimpleUI) DisplayWatching(roots []m.Path) {
	names := make([]string, len(roots))
	for i, r := range roots {
		names[i] = string(r)
	}

	s.printf("Watching %s (Ctrl-C to stop)\n", strings.Join(names, ", "))
}

func statusColor(status m.OutcomeStatus) *color.Color {
	if status == m.OutcomeSkipped {
		return color.New(color.FgYellow)
	}

	return color.New(color.FgGreen)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
