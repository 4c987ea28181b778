package domain

import (
	"errors"
	"strings"
)

var errUnbalancedBody = errors.New("body is not bracket-balanced; mark the directive raw=true to insert it verbatim")

// splitBody turns the lines of a mixin function body into statements.
// Raw bodies yield one statement per non-blank line, kept verbatim.
// Wrapped bodies are dedented and grouped into bracket-balanced statements.
func splitBody(lines []string, raw bool) ([]string, error) {
	if raw {
		var out []string

		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}

			out = append(out, strings.TrimRight(line, " \t"))
		}

		return out, nil
	}

	return groupStatements(dedent(lines))
}

func dedent(lines []string) []string {
	prefix := ""
	first := true

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = indent, false
			continue
		}

		prefix = commonPrefix(prefix, indent)
	}

	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}

		out = append(out, strings.TrimRight(strings.TrimPrefix(line, prefix), " \t"))
	}

	return out
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}

	return a[:n]
}

// bracketState tracks nesting across lines of a PHP fragment.
type bracketState struct {
	depth int
	quote byte
	block bool
}

func (s *bracketState) balanced() bool {
	return s.depth == 0 && s.quote == 0 && !s.block
}

// scan updates the state with one line. Strings and comments do not count.
func (s *bracketState) scan(line string) {
	for i := 0; i < len(line); i++ {
		c := line[i]

		switch {
		case s.block:
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				s.block = false
				i++
			}
		case s.quote != 0:
			if c == '\\' {
				i++
			} else if c == s.quote {
				s.quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			s.quote = c
		case c == '#' && (i+1 >= len(line) || line[i+1] != '['):
			return
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			s.block = true
			i++
		case c == '(' || c == '[' || c == '{':
			s.depth++
		case c == ')' || c == ']' || c == '}':
			s.depth--
		}
	}
}

func groupStatements(lines []string) ([]string, error) {
	var (
		out     []string
		current []string
		state   bracketState
	)

	for _, line := range lines {
		if len(current) == 0 && line == "" {
			continue
		}

		current = append(current, line)
		state.scan(line)

		if state.depth < 0 {
			return nil, errUnbalancedBody
		}

		if state.balanced() {
			out = append(out, strings.Join(current, "\n"))
			current = current[:0]
		}
	}

	if len(current) > 0 {
		return nil, errUnbalancedBody
	}

	return out, nil
}
