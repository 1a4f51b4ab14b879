package metrics

import (
	"math"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/sim"
)

// Settling is the time after which the surface position stays within
// tolerance of target until the end of the run. It reads -1 while the
// surface is outside the band.
type Settling struct {
	name      string
	target    float64
	tolerance float64
	enteredAt float64
	inside    bool
}

func NewSettling(target, tolerance float64) *Settling {
	return &Settling{
		name:      "settling_time",
		target:    target,
		tolerance: tolerance,
	}
}

func (s *Settling) Name() string {
	return s.name
}

func (s *Settling) Observe(smp *sim.Sample) {
	in := math.Abs(smp.Position-s.target) <= s.tolerance
	if in && !s.inside {
		s.enteredAt = smp.Time
	}
	s.inside = in
}

func (s *Settling) Value() float64 {
	if !s.inside {
		return -1
	}
	return s.enteredAt
}

func (s *Settling) Reset() {
	s.enteredAt = 0
	s.inside = false
}

// TrackingError is the RMS difference between requested and actual
// actuator position over every actuator in position control.
type TrackingError struct {
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError { return &TrackingError{} }

func (e *TrackingError) Name() string { return "tracking_rms" }

func (e *TrackingError) Observe(s *sim.Sample) {
	for _, a := range s.Actuators {
		if a.Mode != actuator.PositionControl {
			continue
		}
		d := a.Requested - a.Position
		e.sumSq += d * d
		e.samples++
	}
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}
