package controller

import (
	"fmt"
	"sort"

	m "github.com/mouse-blink/weave/internal/model"
)

// directiveRow is one line of the directive listing.
type directiveRow struct {
	order      int
	target     string
	mode       string
	anchor     string
	definition string
}

// sortedDirectives groups directives by target, keeping declaration order
// inside each group.
func sortedDirectives(directives []m.Directive) []directiveRow {
	rows := make([]directiveRow, 0, len(directives))

	for i, d := range directives {
		rows = append(rows, directiveRow{
			order:      i + 1,
			target:     d.Target.String(),
			mode:       string(d.Mode),
			anchor:     anchorOf(d),
			definition: d.Definition,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].target < rows[j].target
	})

	return rows
}

func anchorOf(d m.Directive) string {
	var anchor string

	switch d.Mode {
	case m.ModeHead, m.ModeTail:
		anchor = fmt.Sprintf("offset=%d", d.Offset)
	case m.ModeSlice:
		anchor = fmt.Sprintf("[%d, %d)", d.From, d.To)
	default:
		anchor = d.Search.String()
	}

	if d.Raw {
		anchor += " raw"
	}

	if !d.Panic {
		anchor += " panic=false"
	}

	return anchor
}

func countTargets(directives []m.Directive) int {
	targets := make(map[string]struct{}, len(directives))
	for _, d := range directives {
		targets[d.Target.String()] = struct{}{}
	}

	return len(targets)
}

func formatSpan(o m.Outcome) string {
	if o.Status == m.OutcomeSkipped {
		return "-"
	}

	return fmt.Sprintf("[%d, %d)", o.Span.Start, o.Span.End)
}

func formatDelta(o m.Outcome) string {
	if o.Status == m.OutcomeSkipped {
		return "-"
	}

	return fmt.Sprintf("%+d", o.Delta)
}
