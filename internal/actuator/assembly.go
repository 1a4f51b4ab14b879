package actuator

import (
	"fmt"

	"github.com/san-kum/surfsim/internal/body"
)

// Assembly is a set of actuators driving one rigid body.
type Assembly struct {
	body      *body.RigidBody
	actuators []*LinearActuator
	targets   []float64
}

// NewAssembly panics when no actuator is given.
func NewAssembly(b *body.RigidBody, actuators ...*LinearActuator) *Assembly {
	if b == nil || len(actuators) == 0 {
		panic("actuator: assembly needs a body and at least one actuator")
	}
	return &Assembly{
		body:      b,
		actuators: actuators,
		targets:   make([]float64, len(actuators)),
	}
}

// Update advances the assembly by one fixed step. controllers and supplies
// are indexed like the actuators; a length mismatch panics.
func (a *Assembly) Update(dt float64, controllers []Controller, supplies []Supply) {
	if len(controllers) != len(a.actuators) || len(supplies) != len(a.actuators) {
		panic(fmt.Sprintf("actuator: assembly of %d actuators got %d controllers and %d supplies",
			len(a.actuators), len(controllers), len(supplies)))
	}

	for i, c := range controllers {
		a.targets[i] = a.body.LinearNormalizedFromAngularNormalized(c.RequestedPosition())
	}

	if pos, ok := firstLockRequest(controllers); ok {
		a.body.LockAt(pos)
	} else {
		a.body.Unlock()
	}

	if a.body.IsLocked() {
		for i, act := range a.actuators {
			act.UpdateLocked(dt, controllers[i], supplies[i])
		}
		a.body.Update(dt)
		return
	}

	if lo, hi, ok := intersectSoftLocks(controllers, a.actuators); ok {
		a.body.SoftLock(lo, hi)
	} else {
		a.body.SoftUnlock()
	}

	a.updateForces(dt, controllers, supplies)
	a.body.Update(dt)
	a.updateKinematics(dt)
}

func (a *Assembly) updateForces(dt float64, controllers []Controller, supplies []Supply) {
	for i, act := range a.actuators {
		act.UpdateForce(dt, controllers[i], a.targets[i], supplies[i], a.body)
	}
}

func (a *Assembly) updateKinematics(dt float64) {
	for _, act := range a.actuators {
		act.UpdateKinematics(dt, a.body)
	}
}

// Position is the normalized angular position of the body.
func (a *Assembly) Position() float64 { return a.body.NormalizedPosition() }

// ReactionTorque is the actuator torque applied during the last step.
func (a *Assembly) ReactionTorque() float64 { return a.body.ReactionTorque() }

func (a *Assembly) Body() *body.RigidBody { return a.body }

func (a *Assembly) Len() int { return len(a.actuators) }

// Actuator panics when i is out of range.
func (a *Assembly) Actuator(i int) *LinearActuator { return a.actuators[i] }

func (a *Assembly) Actuators() []*LinearActuator { return a.actuators }

func (a *Assembly) ResetVolumes() {
	for _, act := range a.actuators {
		act.ResetVolumes()
	}
}
