// Package controller provides the user-facing output of the weave commands.
package controller

import (
	m "github.com/mouse-blink/weave/internal/model"
)

// UI defines how weave results are shown.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	// DisplayDirectives lists parsed directives grouped by target.
	DisplayDirectives(directives []m.Directive) error
	// DisplayReport shows the outcome of one weave run.
	DisplayReport(report m.WeaveReport) error
	// DisplayWeaveError reports a failed run; no output was written.
	DisplayWeaveError(err error)
	// DisplayWatching announces the directories being watched.
	DisplayWatching(roots []m.Path)
}
