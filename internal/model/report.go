package model

import "time"

// OutcomeStatus is the result of applying one directive.
type OutcomeStatus string

const (
	// OutcomeApplied means the directive mutated its target.
	OutcomeApplied OutcomeStatus = "applied"
	// OutcomeSkipped means the anchor was missing on a panic=false directive.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome records what one directive did.
type Outcome struct {
	Unit       Path          `yaml:"unit"`
	Definition string        `yaml:"definition"`
	Mode       Mode          `yaml:"mode"`
	Target     string        `yaml:"target"`
	Status     OutcomeStatus `yaml:"status"`
	Span       Span          `yaml:"span"`
	Delta      int           `yaml:"delta"`
	Reason     string        `yaml:"reason,omitempty"`
}

// WeaveReport summarizes one engine run.
type WeaveReport struct {
	RunID        string    `yaml:"run_id"`
	Created      time.Time `yaml:"created"`
	Files        int       `yaml:"files"`
	Units        int       `yaml:"units"`
	CallSites    bool      `yaml:"call_sites"`
	DocumentRoot bool      `yaml:"use_document_root"`
	Outcomes     []Outcome `yaml:"outcomes"`
}

// Count returns how many outcomes have the given status.
func (r WeaveReport) Count(status OutcomeStatus) int {
	n := 0

	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}

	return n
}
