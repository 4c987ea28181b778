package controller

import (
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewUI returns the interactive list view when interactive is set and the
// plain table view otherwise. Both write to the command's output.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is backed by a terminal. Pipes, regular files,
// character devices such as /dev/null and in-memory writers are not.
func IsTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
