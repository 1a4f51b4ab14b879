package actuator

import (
	"math"

	"github.com/san-kum/surfsim/internal/control"
)

// ForceController turns a requested mode and position into an actuator force.
// Positions are normalized actuator lengths, speeds are in m/s, flows in m³/s.
type ForceController struct {
	mode  Mode
	force float64

	// reference is the position held since the valves last closed.
	reference float64

	pid    *control.PID
	slow   control.LowPass
	envMax control.LowPass
	envMin control.LowPass

	minForce float64
	maxForce float64

	boreArea float64
	rodArea  float64

	derate        *control.Table
	extensionMul  *control.Table
	retractionMul *control.Table

	softLocked bool

	ch Characteristics
}

// NewForceController starts in ClosedValves holding position.
func NewForceController(ch Characteristics, position float64) *ForceController {
	ext := ch.ExtensionFlowMultiplier
	if ext == nil {
		ext = control.Constant(1)
	}
	ret := ch.RetractionFlowMultiplier
	if ret == nil {
		ret = control.Constant(1)
	}
	return &ForceController{
		mode:          ClosedValves,
		reference:     position,
		pid:           control.NewPID(ch.Kp, ch.Ki, ch.Kd, 0, 0),
		slow:          control.NewLowPass(ch.SlowDampingFilter, 0),
		envMax:        control.NewLowPass(ch.EnvelopeFilter, 0),
		envMin:        control.NewLowPass(ch.EnvelopeFilter, 0),
		boreArea:      ch.BoreArea(),
		rodArea:       ch.RodSideArea(),
		derate:        flowDerateCurve(ch.NominalPressure),
		extensionMul:  ext,
		retractionMul: ret,
		ch:            ch,
	}
}

// Update runs one controller step.
func (f *ForceController) Update(requested Mode, pressure, requestedPosition, position, flow, speed, dt float64) {
	pressure = math.Max(pressure, 0)
	f.updateEnvelope(pressure, flow, dt)
	f.updateMode(requested, pressure, position)

	var force float64
	switch f.mode {
	case ClosedValves:
		force = f.ch.SpringConstant*(f.reference-position) - f.ch.FluidDamping*speed
	case PositionControl:
		force = f.positionControlForce(pressure, requestedPosition, position, flow, dt)
	case ActiveDamping:
		force = -f.ch.ActiveDamping * speed
	case ClosedCircuitDamping:
		force = f.slow.Update(-f.ch.SlowDamping*speed, dt)
	}

	f.force = control.Clamp(force, -f.ch.MaxForce, f.ch.MaxForce)
}

// updateMode applies the transition table. PositionControl is left for
// ClosedCircuitDamping once pressure is at or below the exit threshold. A
// grant into PositionControl is checked against the same threshold, so the
// fallback holds while the request persists.
func (f *ForceController) updateMode(requested Mode, pressure, position float64) {
	next := requested
	starved := pressure <= f.ch.ExitPositionControlPressure
	if starved && (f.mode == PositionControl || next == PositionControl) {
		next = ClosedCircuitDamping
	}
	if next == f.mode {
		return
	}

	switch next {
	case ClosedValves:
		f.reference = position
		f.softLocked = false
	case PositionControl:
		f.pid.ResetWithOutput(f.force / f.ch.ForceGain)
	case ActiveDamping:
		f.slow.Reset(f.force)
	case ClosedCircuitDamping:
		f.slow.Reset(f.force)
		if f.ch.SoftLockInClosedCircuitDamping {
			f.softLocked = true
		}
	}
	f.mode = next
}

// updateEnvelope filters the pressure force limits. A limit may drop at once
// when pressure falls; growth is filtered, except for the limit opposing the
// current direction of travel which follows pressure directly.
func (f *ForceController) updateEnvelope(pressure, flow, dt float64) {
	rawMax := pressure * f.boreArea
	rawMin := -pressure * f.rodArea

	f.maxForce = math.Min(f.envMax.Update(rawMax, dt), rawMax)
	f.minForce = math.Max(f.envMin.Update(rawMin, dt), rawMin)

	switch {
	case flow > 0:
		f.minForce = rawMin
	case flow < 0:
		f.maxForce = rawMax
	}
}

func (f *ForceController) positionControlForce(pressure, requestedPosition, position, flow, dt float64) float64 {
	demand := f.FlowDemand(pressure, requestedPosition, position)

	gain := f.ch.ForceGain
	f.pid.Setpoint = demand / f.ch.MaxFlow
	f.pid.SetLimits(f.minForce/gain, f.maxForce/gain)
	return gain * f.pid.Next(flow/f.ch.MaxFlow, dt)
}

// FlowDemand is the open loop flow request: a squared law in position error
// that saturates at max flow, shaped by the end of travel multipliers and
// derated by supply pressure.
func (f *ForceController) FlowDemand(pressure, requestedPosition, position float64) float64 {
	err := requestedPosition - position
	threshold := f.ch.FlowErrorThreshold

	var q float64
	if math.Abs(err) >= threshold {
		q = math.Copysign(f.ch.MaxFlow, err)
	} else {
		r := err / threshold
		q = f.ch.MaxFlow * r * math.Abs(r)
	}

	if q > 0 {
		q *= f.extensionMul.At(position)
	} else {
		q *= f.retractionMul.At(position)
	}
	return q * math.Min(f.derate.At(pressure), 1)
}

func (f *ForceController) Mode() Mode     { return f.mode }
func (f *ForceController) Force() float64 { return f.force }

// Reference is the position held in ClosedValves.
func (f *ForceController) Reference() float64 { return f.reference }

// Envelope returns the current force limits used in PositionControl.
func (f *ForceController) Envelope() (min, max float64) { return f.minForce, f.maxForce }

// SoftLockBand reports the actuator's own speed band, set while it sits in
// ClosedCircuitDamping with soft locking configured.
func (f *ForceController) SoftLockBand() (min, max float64, ok bool) {
	if !f.softLocked {
		return 0, 0, false
	}
	return f.ch.SoftLockMin, f.ch.SoftLockMax, true
}
