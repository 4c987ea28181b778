package domain

import (
	m "github.com/mouse-blink/weave/internal/model"
)

// Locate computes the half-open range a directive splices in the live
// sequence. It is called immediately before the splice, so indices always
// reflect earlier directives on the same sequence.
func Locate(seq *m.Sequence, d m.Directive) (m.Span, error) {
	switch d.Mode {
	case m.ModeHead:
		return locateHead(seq, d)
	case m.ModeTail:
		return locateTail(seq, d)
	case m.ModeSlice:
		if d.From < 0 || d.From > d.To || d.To > seq.Len() {
			return m.Span{}, outOfBounds(seq, d, d.From, d.To)
		}

		return m.Span{Start: d.From, End: d.To}, nil
	case m.ModePrepend, m.ModeAppend, m.ModeReplace:
		return locateSearch(seq, d)
	}

	return m.Span{}, &DirectiveSyntaxError{Location: d.Location, Reason: "unknown mode " + string(d.Mode)}
}

// locateHead places the insertion point after the offset-th surviving
// original statement, so earlier insertions do not shift it.
func locateHead(seq *m.Sequence, d m.Directive) (m.Span, error) {
	if d.Offset == 0 {
		return m.Span{}, nil
	}

	seen := 0

	for i, node := range seq.Nodes {
		if node.Woven() {
			continue
		}

		seen++
		if seen == d.Offset {
			return m.Span{Start: i + 1, End: i + 1}, nil
		}
	}

	return m.Span{}, outOfBounds(seq, d, d.Offset, d.Offset)
}

// locateTail places the insertion point before the offset-th surviving
// original statement counted from the end.
func locateTail(seq *m.Sequence, d m.Directive) (m.Span, error) {
	n := seq.Len()
	if d.Offset == 0 {
		return m.Span{Start: n, End: n}, nil
	}

	seen := 0

	for i := n - 1; i >= 0; i-- {
		if seq.Nodes[i].Woven() {
			continue
		}

		seen++
		if seen == d.Offset {
			return m.Span{Start: i, End: i}, nil
		}
	}

	return m.Span{}, outOfBounds(seq, d, n-d.Offset, n-d.Offset)
}

func locateSearch(seq *m.Sequence, d m.Directive) (m.Span, error) {
	pattern, err := CompilePattern(d.Search)
	if err != nil {
		return m.Span{}, &DirectiveSyntaxError{Location: d.Location, Reason: err.Error()}
	}

	span, ok := pattern.Match(seq.Texts())
	if !ok {
		return m.Span{}, &AnchorNotFoundError{Location: d.Location, Address: d.Target, Search: d.Search}
	}

	switch d.Mode {
	case m.ModePrepend:
		return m.Span{Start: span.Start, End: span.Start}, nil
	case m.ModeAppend:
		return m.Span{Start: span.End, End: span.End}, nil
	default:
		return span, nil
	}
}

func outOfBounds(seq *m.Sequence, d m.Directive, from, to int) error {
	return &RangeOutOfBoundsError{
		Location: d.Location,
		Address:  d.Target,
		Mode:     d.Mode,
		From:     from,
		To:       to,
		Len:      seq.Len(),
	}
}
