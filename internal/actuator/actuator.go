package actuator

import (
	"fmt"
	"math/rand/v2"
)

// BoundedLinearLength is the body geometry an actuator is attached to.
type BoundedLinearLength interface {
	MinAbsoluteLength() float64
	MaxAbsoluteLength() float64
	AbsoluteLength() float64
}

// ForceTarget receives the actuator force, positive when extending.
type ForceTarget interface {
	ApplyControlArmForce(force float64)
}

// LinearActuator bridges the rigid body kinematics and the hydraulic flow
// accounting of one actuator.
type LinearActuator struct {
	ch Characteristics

	boreArea float64
	rodArea  float64
	// volumeExtensionRatio is bore volume over rod-side volume per unit stroke.
	volumeExtensionRatio float64

	minLength float64
	maxLength float64

	length   float64
	position float64
	speed    float64
	flow     float64

	usedVolume     float64
	returnedVolume float64

	requestedPosition float64

	controller *ForceController
	backup     *ElectroHydrostaticBackup
}

// NewLinearActuator attaches an actuator to geometry. src seeds the backup
// accumulator precharge when ch carries a backup; it may be nil.
func NewLinearActuator(geometry BoundedLinearLength, ch Characteristics, src rand.Source) (*LinearActuator, error) {
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	minLength, maxLength := geometry.MinAbsoluteLength(), geometry.MaxAbsoluteLength()
	if maxLength <= minLength {
		return nil, fmt.Errorf("%w: stroke [%v, %v]", ErrInvalidCharacteristics, minLength, maxLength)
	}

	a := &LinearActuator{
		ch:        ch,
		boreArea:  ch.BoreArea(),
		rodArea:   ch.RodSideArea(),
		minLength: minLength,
		maxLength: maxLength,
		length:    geometry.AbsoluteLength(),
	}
	a.volumeExtensionRatio = a.boreArea / a.rodArea
	a.position = a.normalize(a.length)
	a.requestedPosition = a.position
	a.controller = NewForceController(ch, a.position)
	if ch.Backup != nil {
		a.backup = NewElectroHydrostaticBackup(*ch.Backup, src)
	}
	return a, nil
}

func (a *LinearActuator) normalize(length float64) float64 {
	return (length - a.minLength) / (a.maxLength - a.minLength)
}

// UpdateForce is the pre-integration phase. requestedPosition is a
// normalized actuator length.
func (a *LinearActuator) UpdateForce(dt float64, ctrl Controller, requestedPosition float64, supply Supply, target ForceTarget) {
	a.requestedPosition = requestedPosition
	pressure := a.effectivePressure(dt, ctrl, supply)
	a.controller.Update(ctrl.RequestedMode(), pressure, requestedPosition, a.position, a.flow, a.speed, dt)
	target.ApplyControlArmForce(a.controller.Force())
}

// UpdateLocked replaces both phases while the body is hard-locked. The rod
// does not move, but the backup keeps its accumulator and pump up to date.
func (a *LinearActuator) UpdateLocked(dt float64, ctrl Controller, supply Supply) {
	a.speed = 0
	a.flow = 0
	if a.backup != nil {
		a.effectivePressure(dt, ctrl, supply)
	}
}

func (a *LinearActuator) effectivePressure(dt float64, ctrl Controller, supply Supply) float64 {
	if a.backup == nil {
		return supply.Pressure
	}

	var activation, refill bool
	if bc, ok := ctrl.(BackupController); ok {
		activation = bc.RequestsElectricalActivation()
		refill = bc.RequestsRefill()
	}
	a.backup.Update(dt, supply.Pressure, supply.Powered, activation, refill, a.flow)

	switch {
	case a.backup.IsActive():
		return a.backup.MaxAvailablePressure()
	case a.backup.PermitsCircuitPressure():
		return supply.Pressure
	}
	return 0
}

// UpdateKinematics is the post-integration phase: it reads the new length
// from the geometry and accounts for the fluid moved.
func (a *LinearActuator) UpdateKinematics(dt float64, geometry BoundedLinearLength) {
	newLength := geometry.AbsoluteLength()
	delta := newLength - a.length
	a.length = newLength
	a.position = a.normalize(newLength)

	if dt <= 0 {
		return
	}
	a.speed = delta / dt
	if delta > 0 {
		a.flow = a.boreArea * delta / dt
	} else {
		a.flow = a.rodArea * delta / dt
	}

	// the backup pump moves the fluid in its own closed loop
	if a.backup != nil && a.backup.IsActive() {
		return
	}

	var drawn, returned float64
	if delta > 0 {
		drawn = a.boreArea * delta
		returned = drawn / a.volumeExtensionRatio
	} else {
		drawn = a.rodArea * -delta
		returned = drawn * a.volumeExtensionRatio
	}

	if a.controller.Mode() == PositionControl {
		a.usedVolume += drawn
		a.returnedVolume += returned
	} else {
		// fluid moves between chambers; only the difference reaches the reservoir
		a.returnedVolume += returned - drawn
	}
}

// UsedVolume is the fluid drawn from the supply circuit since the last
// reset, including the backup accumulator refill.
func (a *LinearActuator) UsedVolume() float64 {
	if a.backup != nil {
		return a.usedVolume + a.backup.RefillVolume()
	}
	return a.usedVolume
}

// ReservoirReturn is the net fluid returned since the last reset. It is
// negative when a passive actuator drew makeup fluid from the return line.
func (a *LinearActuator) ReservoirReturn() float64 { return a.returnedVolume }

func (a *LinearActuator) ResetVolumes() {
	a.usedVolume = 0
	a.returnedVolume = 0
	if a.backup != nil {
		a.backup.resetVolumes()
	}
}

// SoftLockBand passes through the controller's own soft lock.
func (a *LinearActuator) SoftLockBand() (min, max float64, ok bool) {
	return a.controller.SoftLockBand()
}

func (a *LinearActuator) PositionNormalized() float64 { return a.position }
func (a *LinearActuator) RequestedPosition() float64  { return a.requestedPosition }
func (a *LinearActuator) Length() float64             { return a.length }

// Speed in m/s, positive when extending.
func (a *LinearActuator) Speed() float64 { return a.speed }

// SignedFlow in m³/s, positive when extending.
func (a *LinearActuator) SignedFlow() float64 { return a.flow }

func (a *LinearActuator) Force() float64 { return a.controller.Force() }
func (a *LinearActuator) Mode() Mode     { return a.controller.Mode() }

func (a *LinearActuator) Controller() *ForceController { return a.controller }

// Backup returns nil when no backup is fitted.
func (a *LinearActuator) Backup() *ElectroHydrostaticBackup { return a.backup }

func (a *LinearActuator) Characteristics() Characteristics { return a.ch }
func (a *LinearActuator) BoreArea() float64                { return a.boreArea }
func (a *LinearActuator) RodSideArea() float64             { return a.rodArea }
func (a *LinearActuator) VolumeExtensionRatio() float64    { return a.volumeExtensionRatio }
