package domain

import (
	"fmt"
	"strings"

	m "github.com/mouse-blink/weave/internal/model"
)

// RequireFunc renders the statement that loads a mixin unit into a target.
type RequireFunc func(unit m.Path) string

// CallSiteUnits returns copies of units whose wrapped directives splice a
// fully qualified call to their definition instead of its body. Raw
// directives keep their text.
func CallSiteUnits(units []m.MixinUnit) []m.MixinUnit {
	out := make([]m.MixinUnit, len(units))

	for i, unit := range units {
		directives := make([]m.Directive, len(unit.Directives))
		copy(directives, unit.Directives)

		for j := range directives {
			if directives[j].Raw {
				continue
			}

			directives[j].Body = []string{CallStatement(directives[j])}
		}

		unit.Directives = directives
		out[i] = unit
	}

	return out
}

// CallStatement is the call a wrapped directive weaves in call-site mode.
func CallStatement(d m.Directive) string {
	return fmt.Sprintf(`\%s(); #mixin call from %s`, d.Definition, d.Unit)
}

// ImportCallSites loads every unit with an applied call-site directive into
// the files it was woven into. outcomes must be indexed like directives.
// The require statements go after any leading namespace or declare
// statements. It returns the number of statements added.
func ImportCallSites(tree *m.TargetTree, directives []m.Directive, outcomes []m.Outcome, require RequireFunc) int {
	needed := make(map[m.Path][]m.Path)
	seen := make(map[string]bool)

	var order []m.Path

	for i, d := range directives {
		if d.Raw || outcomes[i].Status != m.OutcomeApplied {
			continue
		}

		key := string(d.Target.File) + "\x00" + string(d.Unit)
		if seen[key] {
			continue
		}

		seen[key] = true

		if _, ok := needed[d.Target.File]; !ok {
			order = append(order, d.Target.File)
		}

		needed[d.Target.File] = append(needed[d.Target.File], d.Unit)
	}

	added := 0

	for _, path := range order {
		file, ok := tree.File(path)
		if !ok {
			continue
		}

		lines := make([]string, 0, len(needed[path]))
		for _, unit := range needed[path] {
			lines = append(lines, require(unit))
		}

		at := preamble(file.Body)
		added += Splice(file.Body, m.Span{Start: at, End: at}, lines, m.StyleRaw, "require")
	}

	return added
}

// preamble counts the leading statements that must stay first in a PHP file.
func preamble(seq *m.Sequence) int {
	n := 0

	for _, node := range seq.Nodes {
		if node.Woven() || node.Scope != nil {
			break
		}

		text := strings.TrimSpace(node.Text)
		if !strings.HasPrefix(text, "namespace ") && !strings.HasPrefix(text, "declare") {
			break
		}

		n++
	}

	return n
}
