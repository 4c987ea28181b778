package domain

import (
	"fmt"
	"regexp"
	"strings"

	m "github.com/mouse-blink/weave/internal/model"
)

// Pattern finds an anchor span within a list of statement texts.
type Pattern interface {
	// Match returns the minimal statement span covering the first match.
	Match(texts []string) (m.Span, bool)
}

// CompilePattern builds the matcher for a search expression.
func CompilePattern(search m.Search) (Pattern, error) {
	if search.Expr == "" {
		return nil, fmt.Errorf("empty search expression")
	}

	if !search.Regex {
		return literalPattern{text: search.Expr}, nil
	}

	// Statements are joined by newlines, so ^ and $ bind at statement
	// boundaries.
	expr := "(?m)" + search.Expr
	if strings.Contains(search.Expr, `\n`) || strings.Contains(search.Expr, "\n") {
		expr = "(?s)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression %q: %w", search.Expr, err)
	}

	return regexPattern{re: re}, nil
}

type literalPattern struct {
	text string
}

func (p literalPattern) Match(texts []string) (m.Span, bool) {
	joined, starts := joinStatements(texts)

	at := strings.Index(joined, p.text)
	if at < 0 {
		return m.Span{}, false
	}

	return coverBytes(texts, starts, at, at+len(p.text)), true
}

type regexPattern struct {
	re *regexp.Regexp
}

func (p regexPattern) Match(texts []string) (m.Span, bool) {
	joined, starts := joinStatements(texts)

	for _, loc := range p.re.FindAllStringIndex(joined, -1) {
		if loc[1] > loc[0] {
			return coverBytes(texts, starts, loc[0], loc[1]), true
		}
	}

	return m.Span{}, false
}

// joinStatements joins texts with newlines and returns each text's byte offset.
func joinStatements(texts []string) (string, []int) {
	var b strings.Builder

	starts := make([]int, len(texts))

	for i, text := range texts {
		if i > 0 {
			b.WriteByte('\n')
		}

		starts[i] = b.Len()
		b.WriteString(text)
	}

	return b.String(), starts
}

// coverBytes maps the byte range [from, to) of the joined text to the
// smallest statement span whose texts intersect it.
func coverBytes(texts []string, starts []int, from, to int) m.Span {
	span := m.Span{Start: len(texts), End: 0}

	for i, start := range starts {
		end := start + len(texts[i])

		if end > from && span.Start == len(texts) {
			span.Start = i
		}

		if start < to {
			span.End = i + 1
		}
	}

	if span.End < span.Start {
		// The match only touched separators between two statements.
		span.End = span.Start
	}

	return span
}
