package gesture

import (
	"maps"

	"github.com/ayusman/padam/internal/pose"
)

// CriterionID names one debounce counter, e.g. "step/left_foot_index.x".
type CriterionID string

// criterion builds the id for a detector's joint/axis counter.
func criterion(owner Kind, j pose.Joint, a pose.Axis) CriterionID {
	return CriterionID(string(owner) + "/" + j.String() + "." + a.String())
}

// Counter is the state of one stability criterion.
type Counter struct {
	Count  int  `json:"count"`
	Stable bool `json:"stable"`
}

// StabilityReader is the read-only view detectors get while detecting.
type StabilityReader interface {
	Get(id CriterionID) Counter
}

// StabilityState is the keyed set of debounce counters shared by all
// detectors. Each detector only updates the ids it owns.
type StabilityState struct {
	counters map[CriterionID]Counter
}

// NewStabilityState returns an empty state.
func NewStabilityState() *StabilityState {
	return &StabilityState{counters: make(map[CriterionID]Counter)}
}

// Update advances the counter for id: it increments while magnitude stays
// below threshold and resets to zero otherwise. The criterion is stable once
// the count reaches required.
func (s *StabilityState) Update(id CriterionID, magnitude, threshold float64, required int) Counter {
	c := s.counters[id]
	if magnitude < threshold {
		c.Count++
		c.Stable = c.Count >= required
	} else {
		c.Count = 0
		c.Stable = false
	}
	s.counters[id] = c
	return c
}

// Get returns the counter for id, or the zero Counter if it was never updated.
func (s *StabilityState) Get(id CriterionID) Counter {
	return s.counters[id]
}

// Snapshot returns a copy of every counter.
func (s *StabilityState) Snapshot() map[CriterionID]Counter {
	return maps.Clone(s.counters)
}
