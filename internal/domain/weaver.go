package domain

import (
	"errors"

	m "github.com/mouse-blink/weave/internal/model"
)

// Splice replaces seq[span] with one woven node per body statement and
// returns the change in sequence length. It is the only primitive that
// mutates a sequence; every mode reduces to it.
func Splice(seq *m.Sequence, span m.Span, body []string, style m.InsertStyle, mixin string) int {
	woven := make([]*m.Statement, len(body))
	for i, text := range body {
		woven[i] = &m.Statement{Text: text, Origin: -1, Style: style, Mixin: mixin}
	}

	nodes := make([]*m.Statement, 0, seq.Len()-span.Len()+len(woven))
	nodes = append(nodes, seq.Nodes[:span.Start]...)
	nodes = append(nodes, woven...)
	nodes = append(nodes, seq.Nodes[span.End:]...)
	seq.Nodes = nodes

	return len(woven) - span.Len()
}

// Apply locates and splices one directive against the live sequence.
// A missing anchor on a panic=false directive yields a skipped outcome
// and leaves the sequence untouched.
func Apply(seq *m.Sequence, d m.Directive) (m.Outcome, error) {
	outcome := m.Outcome{
		Unit:       d.Unit,
		Definition: d.Definition,
		Mode:       d.Mode,
		Target:     d.Target.String(),
	}

	span, err := Locate(seq, d)
	if err != nil {
		var anchorErr *AnchorNotFoundError
		if errors.As(err, &anchorErr) && !d.Panic {
			outcome.Status = m.OutcomeSkipped
			outcome.Reason = err.Error()

			return outcome, nil
		}

		return m.Outcome{}, err
	}

	outcome.Status = m.OutcomeApplied
	outcome.Span = span
	outcome.Delta = Splice(seq, span, d.Body, d.Style(), d.Definition)

	return outcome, nil
}
