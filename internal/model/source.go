// Package model defines the data structures shared by the weaving engine.
package model

import (
	"path"
	"strings"
)

// Path represents a file system path.
type Path string

// SourcePath normalizes a target file path to the slash-separated,
// root-relative form used as the key of a TargetTree.
func SourcePath(p string) Path {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)

	return Path(strings.TrimPrefix(p, "/"))
}

// Statement is one opaque node of a statement sequence.
type Statement struct {
	// Text is the original source text of the node. It never changes during
	// a run; Live reflects edits woven into a declaration body.
	Text string
	// Lead is the separator text that preceded the node in the original source.
	Lead string
	// Origin is the node's index in the original sequence, or -1 for woven nodes.
	Origin int
	// Style tells the renderer how a woven node is merged into its sequence.
	Style InsertStyle
	// Mixin is the qualified definition that produced a woven node.
	Mixin string
	// Scope is set when the node declares a class or function body.
	Scope *Scope
}

// Woven reports whether the node was inserted by a directive.
func (s *Statement) Woven() bool {
	return s.Origin < 0
}

// Scope is the body of a declaration statement.
type Scope struct {
	Open  string // declaration text up to and including the opening brace
	Body  *Sequence
	Close string // text after the last body statement, through the closing brace
}

// Sequence is an ordered, mutable list of statements.
type Sequence struct {
	Nodes []*Statement
	// Indent is the indentation woven statements receive when rendered.
	Indent string
}

// NewSequence builds a sequence of original statements from their texts.
func NewSequence(texts ...string) *Sequence {
	seq := &Sequence{Nodes: make([]*Statement, 0, len(texts))}

	for i, text := range texts {
		seq.Nodes = append(seq.Nodes, &Statement{Text: text, Origin: i})
	}

	return seq
}

// Len returns the current number of statements.
func (s *Sequence) Len() int {
	return len(s.Nodes)
}

// Texts returns the live statement texts in order.
func (s *Sequence) Texts() []string {
	texts := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		texts[i] = n.Live()
	}

	return texts
}

// Function is a named function or method with its body.
type Function struct {
	Name string
	Body *Sequence
}

// Class is a named class-like declaration with its member list.
type Class struct {
	Name    string
	Body    *Sequence
	Methods []*Function
}

// Method looks up a method by name.
func (c *Class) Method(name string) (*Function, bool) {
	for _, fn := range c.Methods {
		if fn.Name == name {
			return fn, true
		}
	}

	return nil, false
}

// File is a parsed target source file.
type File struct {
	Path Path
	// Head is the text preceding the top-level statements (e.g. the open tag).
	Head string
	Body *Sequence
	// Tail is the text following the last top-level statement.
	Tail      string
	Classes   []*Class
	Functions []*Function
}

// Class looks up a class by name.
func (f *File) Class(name string) (*Class, bool) {
	for _, c := range f.Classes {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

// Function looks up a free function by name.
func (f *File) Function(name string) (*Function, bool) {
	for _, fn := range f.Functions {
		if fn.Name == name {
			return fn, true
		}
	}

	return nil, false
}

// TargetTree is the ownership hierarchy of files being rewritten.
type TargetTree struct {
	Files []*File
}

// Add appends a file to the tree, replacing any file with the same path.
func (t *TargetTree) Add(file *File) {
	for i, f := range t.Files {
		if f.Path == file.Path {
			t.Files[i] = file
			return
		}
	}

	t.Files = append(t.Files, file)
}

// File looks up a file by its normalized path.
func (t *TargetTree) File(p Path) (*File, bool) {
	for _, f := range t.Files {
		if f.Path == p {
			return f, true
		}
	}

	return nil, false
}

// Span is a half-open statement index range [Start, End).
type Span struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Empty reports whether the span covers no statements.
func (s Span) Empty() bool {
	return s.Start == s.End
}

// Len returns the number of statements covered.
func (s Span) Len() int {
	return s.End - s.Start
}
