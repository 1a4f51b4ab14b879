package control

import "math"

// PID is a positional PID with output limits. The integral term is stored in
// output units so the controller can be re-seeded with an arbitrary output.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Setpoint float64

	min, max float64
	integral float64
	prevErr  float64
	first    bool
}

func NewPID(kp, ki, kd, min, max float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		min:   min,
		max:   max,
		first: true,
	}
}

// SetLimits changes the output range. The integral is clamped on the next call
// to Next, not here, so a seed written by ResetWithOutput survives a limit
// update made in the same tick.
func (p *PID) SetLimits(min, max float64) {
	p.min = min
	p.max = max
}

// Next advances the controller by dt using the measured value and returns the
// clamped output.
func (p *PID) Next(measurement, dt float64) float64 {
	err := p.Setpoint - measurement

	if p.first {
		p.prevErr = err
		p.first = false
	}

	p.integral = Clamp(p.integral+p.Ki*err*dt, p.min, p.max)

	derivative := 0.0
	if dt > 0 {
		derivative = p.Kd * (err - p.prevErr) / dt
	}
	p.prevErr = err

	return Clamp(p.Kp*err+p.integral+derivative, p.min, p.max)
}

// ResetWithOutput restarts the controller so that, with zero error, its next
// output equals out.
func (p *PID) ResetWithOutput(out float64) {
	p.integral = out
	p.prevErr = 0
	p.first = true
}

// Clamp bounds x into [lo, hi]. When lo > hi the upper bound wins.
func Clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
