// Package plan defines the learning-plan model shared by the generation
// service client, the backend client, and the stage pipeline. A plan is an
// ordered list of stages; each stage carries the search keywords that drive
// resource discovery and a progress status.
package plan

import (
	"fmt"
	"strings"
)

// StageStatus is the progress state of one learning stage.
type StageStatus string

const (
	StatusPending  StageStatus = "pending"
	StatusOngoing  StageStatus = "ongoing"
	StatusFinished StageStatus = "finished"
)

// Valid reports whether the status is one of the known states.
func (s StageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOngoing, StatusFinished:
		return true
	}
	return false
}

// Stage is one step of a learning plan.
type Stage struct {
	// ID is assigned by the backend once the plan is saved; zero until then.
	ID       int         `json:"id,omitempty"`
	Header   string      `json:"header"`
	Details  string      `json:"details"`
	Keywords []string    `json:"keywords,omitempty"`
	Status   StageStatus `json:"status"`
	// OrderIndex is 1-based, assigned by the backend on save.
	OrderIndex int `json:"order_index,omitempty"`
}

// GroupName is the display name used when the stage's resources are
// provisioned as one tab group.
func (s Stage) GroupName() string {
	return strings.TrimSpace(s.Header)
}

// SearchTerms returns the stage's keywords, falling back to the header when
// the generator produced none.
func (s Stage) SearchTerms() []string {
	if len(s.Keywords) > 0 {
		return s.Keywords
	}
	if h := strings.TrimSpace(s.Header); h != "" {
		return []string{h}
	}
	return nil
}

// Plan is a complete learning plan for one topic.
type Plan struct {
	// ID and Title are backend-assigned; empty for freshly generated plans.
	ID        int     `json:"id,omitempty"`
	TopicName string  `json:"topic_name"`
	Title     string  `json:"title,omitempty"`
	Stages    []Stage `json:"stages"`
}

// Validate checks the invariants every consumer relies on: a non-empty
// topic, at least one stage, non-empty stage headers, and known statuses.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.TopicName) == "" {
		return fmt.Errorf("plan topic_name is empty")
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("plan %q has no stages", p.TopicName)
	}
	for i, st := range p.Stages {
		if strings.TrimSpace(st.Header) == "" {
			return fmt.Errorf("stage %d has an empty header", i+1)
		}
		if st.Status != "" && !st.Status.Valid() {
			return fmt.Errorf("stage %d has unknown status %q", i+1, st.Status)
		}
	}
	return nil
}

// Stage returns the 1-based nth stage.
func (p *Plan) Stage(n int) (Stage, error) {
	if n < 1 || n > len(p.Stages) {
		return Stage{}, fmt.Errorf("stage %d out of range: plan %q has %d stages", n, p.TopicName, len(p.Stages))
	}
	return p.Stages[n-1], nil
}

// Normalize fills derivable fields: missing statuses default to pending and
// order indexes are assigned sequentially when absent.
func (p *Plan) Normalize() {
	for i := range p.Stages {
		if p.Stages[i].Status == "" {
			p.Stages[i].Status = StatusPending
		}
		if p.Stages[i].OrderIndex == 0 {
			p.Stages[i].OrderIndex = i + 1
		}
	}
}
