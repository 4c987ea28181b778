package controller

import "time"

// Message types.
type tickMsg time.Time

type rowsMsg struct {
	title   string
	summary string
	header  string
	items   []rowItem
}

// List item types.
type rowItem struct {
	badge string
	text  string
	// warn highlights the badge, e.g. for skipped directives.
	warn bool
}

func (r rowItem) FilterValue() string {
	return r.text
}
