package controller

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTestSimpleUI(t *testing.T) (*SimpleUI, *bytes.Buffer) {
	t.Helper()

	noColor := color.NoColor
	color.NoColor = true

	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewSimpleUI(cmd), &buf
}

func TestSimpleUI_DisplayDirectives_PrintsTable(t *testing.T) {
	ui, buf := newTestSimpleUI(t)

	if err := ui.DisplayDirectives(sampleDirectives()); err != nil {
		t.Fatalf("DisplayDirectives() error = %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"admin.php",
		"index.php/$Findex",
		"offset=1",
		`r"echo" panic=false`,
		"TailMixin",
		"TARGETS 2",
		"DIRECTIVES 2",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q\noutput:\n%s", want, output)
		}
	}

	// Rows are grouped by target: admin.php sorts before index.php.
	if strings.Index(output, "admin.php") > strings.Index(output, "index.php") {
		t.Fatalf("rows not grouped by target\noutput:\n%s", output)
	}
}

func TestSimpleUI_DisplayReport_PrintsOutcomes(t *testing.T) {
	ui, buf := newTestSimpleUI(t)

	if err := ui.DisplayReport(sampleReport()); err != nil {
		t.Fatalf("DisplayReport() error = %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"Run run-1 (2026-01-02 03:04:05)",
		`john\HeadMixin`,
		"applied",
		"skipped",
		"[0, 0)",
		"+1",
		"1 applied, 1 skipped across 2 file(s) from 1 mixin unit(s)",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q\noutput:\n%s", want, output)
		}
	}
}

func TestSimpleUI_DisplayWeaveError(t *testing.T) {
	ui, buf := newTestSimpleUI(t)

	ui.DisplayWeaveError(errors.New("boom"))

	if !strings.Contains(buf.String(), "weave failed: boom") {
		t.Fatalf("output missing error message\noutput:\n%s", buf.String())
	}
}
