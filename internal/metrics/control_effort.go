package metrics

import (
	"math"

	"github.com/san-kum/surfsim/internal/sim"
)

// ControlEffort is the mean absolute actuator force per tick, summed over
// the actuators, in N.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s *sim.Sample) {
	for _, a := range s.Actuators {
		c.sum += math.Abs(a.Force)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// PeakForce is the largest absolute force any actuator produced.
type PeakForce struct {
	peak float64
}

func NewPeakForce() *PeakForce { return &PeakForce{} }

func (p *PeakForce) Name() string { return "peak_force" }

func (p *PeakForce) Observe(s *sim.Sample) {
	for _, a := range s.Actuators {
		p.peak = math.Max(p.peak, math.Abs(a.Force))
	}
}

func (p *PeakForce) Value() float64 { return p.peak }
func (p *PeakForce) Reset()         { p.peak = 0 }
