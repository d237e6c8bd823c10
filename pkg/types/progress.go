// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Phase is a state of the article pipeline.
type Phase string

const (
	PhaseResearch   Phase = "research"
	PhasePlanning   Phase = "planning"
	PhaseWriting    Phase = "writing"
	PhaseReviewing  Phase = "reviewing"
	PhaseHumanizing Phase = "humanizing"
	PhaseSaving     Phase = "saving"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// Phases lists the working phases in the only order the pipeline visits them.
var Phases = []Phase{
	PhaseResearch,
	PhasePlanning,
	PhaseWriting,
	PhaseReviewing,
	PhaseHumanizing,
	PhaseSaving,
}

// Terminal reports whether p ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// ProgressEvent reports pipeline progress to an observer. Events are
// emitted and never stored by the pipeline.
type ProgressEvent struct {
	// Phase is the phase being entered or reported on.
	Phase Phase `json:"phase" yaml:"phase"`

	// Section is the heading of the section just written, writing phase only.
	Section string `json:"section,omitempty" yaml:"section,omitempty"`

	// Current is the 1-based index of the completed section, writing phase only.
	Current int `json:"current,omitempty" yaml:"current,omitempty"`

	// Total is the number of sections being written, writing phase only.
	Total int `json:"total,omitempty" yaml:"total,omitempty"`

	// Elapsed is the time since the run started.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Err carries the failure message on the failed phase.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}
