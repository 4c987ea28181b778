package model

import "strings"

// Render writes the sequence as source text: original nodes keep their
// leading trivia, woven nodes start on a new line.
func (s *Sequence) Render(b *strings.Builder) {
	if s == nil {
		return
	}

	for _, node := range s.Nodes {
		switch {
		case node.Woven() && node.Style == StyleRaw:
			b.WriteString("\n")
			b.WriteString(node.Text)
		case node.Woven():
			b.WriteString("\n")
			b.WriteString(s.Indent)
			b.WriteString(reindent(node.Text, s.Indent))
		case node.Scope != nil:
			b.WriteString(node.Lead)
			node.Scope.render(b)
		default:
			b.WriteString(node.Lead)
			b.WriteString(node.Text)
		}
	}
}

func (sc *Scope) render(b *strings.Builder) {
	b.WriteString(sc.Open)
	sc.Body.Render(b)
	b.WriteString(sc.Close)
}

// Live returns the current text of the node. For a declaration it is the
// declaration re-rendered with its woven body.
func (s *Statement) Live() string {
	if s.Scope == nil || s.Woven() {
		return s.Text
	}

	var b strings.Builder

	s.Scope.render(&b)

	return b.String()
}

// Contains reports whether target is s or is nested in one of its
// declaration bodies.
func (s *Sequence) Contains(target *Sequence) bool {
	if s == nil {
		return false
	}

	if s == target {
		return true
	}

	for _, node := range s.Nodes {
		if node.Scope != nil && node.Scope.Body.Contains(target) {
			return true
		}
	}

	return false
}

// reindent prefixes every non-blank continuation line with indent.
func reindent(text, indent string) string {
	if indent == "" || !strings.Contains(text, "\n") {
		return text
	}

	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			lines[i] = indent + lines[i]
		}
	}

	return strings.Join(lines, "\n")
}
