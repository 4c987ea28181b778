package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	m "github.com/mouse-blink/weave/internal/model"
)

// ErrSyntax reports a target file the PHP grammar could not parse cleanly.
var ErrSyntax = errors.New("php syntax error")

const defaultIndent = "    "

// PHPFileAdapter is the front-end that turns PHP source into the statement
// model and serializes a (possibly woven) model back to source.
type PHPFileAdapter interface {
	// Parse builds the declaration tree of one target file.
	Parse(ctx context.Context, path m.Path, content []byte) (*m.File, error)
	// Render serializes a file. An unmutated file renders byte-identical.
	Render(file *m.File) []byte
}

// LocalPHPFileAdapter provides a PHPFileAdapter backed by tree-sitter.
type LocalPHPFileAdapter struct{}

// NewLocalPHPFileAdapter constructs a LocalPHPFileAdapter.
func NewLocalPHPFileAdapter() *LocalPHPFileAdapter {
	return &LocalPHPFileAdapter{}
}

// Parse builds the file model. Parsers are not shared, so concurrent calls are safe.
func (a *LocalPHPFileAdapter) Parse(ctx context.Context, path m.Path, content []byte) (*m.File, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(php.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%s: %w", path, ErrSyntax)
	}

	b := &fileBuilder{src: content, file: &m.File{Path: path}, methods: make(map[*m.Scope]string)}

	start := 0
	body := make([]*sitter.Node, 0, root.NamedChildCount())

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "php_tag" && len(body) == 0 {
			start = int(child.EndByte())
			continue
		}

		body = append(body, child)
	}

	b.file.Head = string(content[:start])

	seq, end := b.sequence(body, start, "")
	b.file.Body = seq
	b.file.Tail = string(content[end:])

	return b.file, nil
}

type fileBuilder struct {
	src     []byte
	file    *m.File
	methods map[*m.Scope]string
}

func (b *fileBuilder) text(from, to int) string {
	return string(b.src[from:to])
}

// sequence converts sibling nodes into statements. prev is the end of the
// text already consumed; the returned offset is the end of the last node.
func (b *fileBuilder) sequence(nodes []*sitter.Node, prev int, indent string) (*m.Sequence, int) {
	seq := &m.Sequence{Nodes: make([]*m.Statement, 0, len(nodes)), Indent: indent}

	for i, node := range nodes {
		start, end := int(node.StartByte()), int(node.EndByte())

		stmt := &m.Statement{
			Text:   b.text(start, end),
			Lead:   b.text(prev, start),
			Origin: i,
		}
		stmt.Scope = b.declaration(node, indent)

		if i == 0 {
			if lead := lastLineIndent(stmt.Lead); lead != "" {
				seq.Indent = lead
			}
		}

		seq.Nodes = append(seq.Nodes, stmt)
		prev = end
	}

	return seq, prev
}

// declaration registers classes and functions and returns the scope of
// declarations whose body is addressable.
func (b *fileBuilder) declaration(node *sitter.Node, indent string) *m.Scope {
	switch node.Type() {
	case "function_definition":
		scope := b.block(node, "body", indent)
		if scope != nil {
			b.file.Functions = append(b.file.Functions, &m.Function{Name: b.name(node), Body: scope.Body})
		}

		return scope

	case "class_declaration", "trait_declaration", "interface_declaration", "enum_declaration":
		scope := b.block(node, "body", indent)
		if scope == nil {
			return nil
		}

		class := &m.Class{Name: b.name(node), Body: scope.Body}

		for _, member := range scope.Body.Nodes {
			if name, ok := b.methods[member.Scope]; ok {
				class.Methods = append(class.Methods, &m.Function{Name: name, Body: member.Scope.Body})
			}
		}

		b.file.Classes = append(b.file.Classes, class)

		return scope

	case "method_declaration":
		scope := b.block(node, "body", indent)
		if scope != nil {
			b.methods[scope] = b.name(node)
		}

		return scope

	case "namespace_definition":
		// Declarations inside a braced namespace stay addressable by their short name.
		return b.block(node, "body", indent)
	}

	return nil
}

// block splits a declaration at its braced body.
func (b *fileBuilder) block(node *sitter.Node, field, indent string) *m.Scope {
	body := node.ChildByFieldName(field)
	if body == nil || body.ChildCount() == 0 || body.Child(0).Type() != "{" {
		return nil
	}

	open := int(body.Child(0).EndByte())

	children := make([]*sitter.Node, 0, body.NamedChildCount())
	for i := 0; i < int(body.NamedChildCount()); i++ {
		children = append(children, body.NamedChild(i))
	}

	inner := lineIndent(b.src, int(node.StartByte())) + defaultIndent
	if indent != "" && !strings.HasPrefix(inner, indent) {
		inner = indent + defaultIndent
	}

	seq, end := b.sequence(children, open, inner)

	return &m.Scope{
		Open:  b.text(int(node.StartByte()), open),
		Body:  seq,
		Close: b.text(end, int(node.EndByte())),
	}
}

func (b *fileBuilder) name(node *sitter.Node) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return n.Content(b.src)
	}

	return ""
}

func lineIndent(src []byte, at int) string {
	start := at
	for start > 0 && src[start-1] != '\n' {
		start--
	}

	end := start
	for end < at && (src[end] == ' ' || src[end] == '\t') {
		end++
	}

	return string(src[start:end])
}

func lastLineIndent(lead string) string {
	idx := strings.LastIndex(lead, "\n")
	if idx < 0 {
		return ""
	}

	tail := lead[idx+1:]
	if strings.Trim(tail, " \t") != "" {
		return ""
	}

	return tail
}

// Render serializes the file with every woven statement in place.
func (a *LocalPHPFileAdapter) Render(file *m.File) []byte {
	var b strings.Builder

	b.WriteString(file.Head)
	file.Body.Render(&b)
	b.WriteString(file.Tail)

	return []byte(b.String())
}
