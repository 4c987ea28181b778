package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/weave/internal/model"
)

func TestCallSiteUnits(t *testing.T) {
	wrapped := m.Directive{Mode: m.ModeHead, Location: m.Location{Unit: "u.php", Definition: `mix\Hello`}, Body: []string{"echo 0;"}}
	raw := m.Directive{Mode: m.ModeTail, Location: m.Location{Unit: "u.php", Definition: `mix\Raw`}, Raw: true, Body: []string{"}"}}
	units := []m.MixinUnit{{Path: "u.php", Namespace: "mix", Directives: []m.Directive{wrapped, raw}}}

	got := CallSiteUnits(units)

	require.Len(t, got, 1)
	assert.Equal(t, []string{`\mix\Hello(); #mixin call from u.php`}, got[0].Directives[0].Body)
	assert.Equal(t, []string{"}"}, got[0].Directives[1].Body)
	assert.Equal(t, []string{"echo 0;"}, units[0].Directives[0].Body, "input units are not modified")
}

func TestImportCallSites(t *testing.T) {
	body := m.NewSequence("namespace app;", "declare(strict_types=1);", "echo 1;")
	tree := &m.TargetTree{}
	tree.Add(&m.File{Path: "a.php", Body: body})
	tree.Add(&m.File{Path: "b.php", Body: m.NewSequence("echo 2;")})

	target := m.TargetAddress{File: "a.php"}
	directives := []m.Directive{
		{Location: m.Location{Unit: "one.php"}, Target: target},
		{Location: m.Location{Unit: "one.php"}, Target: target},
		{Location: m.Location{Unit: "two.php"}, Target: target},
		{Location: m.Location{Unit: "raw.php"}, Target: target, Raw: true},
		{Location: m.Location{Unit: "skipped.php"}, Target: m.TargetAddress{File: "b.php"}},
	}
	outcomes := []m.Outcome{
		{Status: m.OutcomeApplied},
		{Status: m.OutcomeApplied},
		{Status: m.OutcomeApplied},
		{Status: m.OutcomeApplied},
		{Status: m.OutcomeSkipped},
	}

	added := ImportCallSites(tree, directives, outcomes, func(unit m.Path) string {
		return "require_once '" + string(unit) + "';"
	})

	assert.Equal(t, 2, added)
	assertTexts(t, []string{
		"namespace app;",
		"declare(strict_types=1);",
		"require_once 'one.php';",
		"require_once 'two.php';",
		"echo 1;",
	}, body)
	assert.Equal(t, m.StyleRaw, body.Nodes[2].Style)

	other, _ := tree.File("b.php")
	assertTexts(t, []string{"echo 2;"}, other.Body)
}

func TestPreamble(t *testing.T) {
	assert.Equal(t, 0, preamble(m.NewSequence("echo 1;", "namespace late;")))
	assert.Equal(t, 1, preamble(m.NewSequence("namespace app;", "echo 1;")))
	assert.Equal(t, 0, preamble(&m.Sequence{}))
}
