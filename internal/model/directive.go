package model

import "strings"

// Mode selects the splice semantics of a directive.
type Mode string

const (
	// ModeHead inserts after skipping offset leading statements.
	ModeHead Mode = "HEAD"
	// ModeTail inserts before the last offset statements.
	ModeTail Mode = "TAIL"
	// ModeSlice replaces the statement range [from, to).
	ModeSlice Mode = "SLICE"
	// ModePrepend inserts immediately before the search anchor.
	ModePrepend Mode = "PREPEND"
	// ModeAppend inserts immediately after the search anchor.
	ModeAppend Mode = "APPEND"
	// ModeReplace replaces the search anchor.
	ModeReplace Mode = "REPLACE"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeHead, ModeTail, ModeSlice, ModePrepend, ModeAppend, ModeReplace}

// Searches reports whether the mode locates its anchor with a search pattern.
func (m Mode) Searches() bool {
	return m == ModePrepend || m == ModeAppend || m == ModeReplace
}

// InsertStyle is how a body is merged into the target sequence.
type InsertStyle int

const (
	// StyleWrapped inserts each body statement as a self-contained unit.
	StyleWrapped InsertStyle = iota
	// StyleRaw merges the body's verbatim text at the boundary.
	StyleRaw
)

func (s InsertStyle) String() string {
	if s == StyleRaw {
		return "raw"
	}

	return "wrapped"
}

// TargetAddress selects one statement sequence of a TargetTree.
type TargetAddress struct {
	File     Path
	Class    string
	Function string
}

// String renders the address in its annotation grammar.
func (a TargetAddress) String() string {
	var b strings.Builder

	b.WriteString(string(a.File))

	if a.Class == "" && a.Function == "" {
		return b.String()
	}

	b.WriteString("/")

	if a.Class != "" {
		b.WriteString("$C")
		b.WriteString(a.Class)
	}

	if a.Function != "" {
		b.WriteString("$F")
		b.WriteString(a.Function)
	}

	return b.String()
}

// Search is an anchor expression, literal unless Regex is set.
type Search struct {
	Expr  string
	Regex bool
}

func (s Search) String() string {
	if s.Regex {
		return `r"` + s.Expr + `"`
	}

	return `"` + s.Expr + `"`
}

// Location identifies where a directive was declared.
type Location struct {
	Unit       Path
	Definition string
	Line       int
}

// Directive is one injection directive with the body it carries.
type Directive struct {
	Location
	// Order is the directive's position in declaration order across a run.
	Order  int
	Mode   Mode
	Target TargetAddress
	Offset int
	From   int
	To     int
	Search Search
	Panic  bool
	Raw    bool
	Body   []string
}

// Style returns the insertion style selected by the raw flag.
func (d *Directive) Style() InsertStyle {
	if d.Raw {
		return StyleRaw
	}

	return StyleWrapped
}

// MixinUnit is a namespaced collection of mixin definitions in declaration order.
type MixinUnit struct {
	Path       Path
	Namespace  string
	Directives []Directive
}

// Qualify returns the namespaced name of a definition in the unit.
func (u MixinUnit) Qualify(name string) string {
	if u.Namespace == "" {
		return name
	}

	return u.Namespace + `\` + name
}
