package body

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/surfsim/internal/units"
)

// MaxOverTravel is how far past [0,1] a linear setpoint may be pushed so that
// position control keeps driving into the end stops instead of stalling short.
const MaxOverTravel = 0.1

const geometrySamples = 64

// Config holds the static geometry of a hinged surface. Vectors are in the
// body frame at zero angle, relative to the hinge point.
type Config struct {
	Mass             float64
	Size             r3.Vec
	CenterOfGravity  r3.Vec
	CenterOfPressure r3.Vec
	ControlArm       r3.Vec
	Anchor           r3.Vec
	HingeAxis        r3.Vec

	MinAngle float64
	MaxAngle float64

	// InitialPosition is a normalized angular position.
	InitialPosition float64

	NaturalDamping   float64
	MaxAngularSpeed  float64
	LimitRestitution float64

	// GlobalAngleOffset rotates the body frame relative to the aircraft frame
	// when projecting gravity and local acceleration.
	GlobalAngleOffset float64

	Locked       bool
	LockPosition float64
}

// RigidBody is a single-DOF hinged surface.
type RigidBody struct {
	mass             float64
	cg, cop, arm     r3.Vec
	anchor, axis     r3.Vec
	minAngle         float64
	maxAngle         float64
	throw            float64
	inertia          float64
	naturalDamping   float64
	maxAngularSpeed  float64
	restitution      float64
	angleOffset      float64
	localAccel       r3.Vec
	minLength        float64
	maxLength        float64
	extensionOpensUp bool

	angle          float64
	speed          float64
	acceleration   float64
	normalized     float64
	prevNormalized float64

	actuatorTorque float64
	aeroTorque     float64
	reactionTorque float64

	lockRequested bool
	locked        bool
	lockPosition  float64

	softLocked bool
	softMin    float64
	softMax    float64

	armRotated r3.Vec
	cgRotated  r3.Vec
	copRotated r3.Vec
}

func New(cfg Config) (*RigidBody, error) {
	if cfg.Mass <= 0 {
		return nil, fmt.Errorf("%w: mass %v", ErrInvalidMass, cfg.Mass)
	}
	if r3.Norm(cfg.HingeAxis) == 0 {
		return nil, fmt.Errorf("%w: zero hinge axis", ErrInvalidGeometry)
	}
	if cfg.MaxAngle <= cfg.MinAngle {
		return nil, fmt.Errorf("%w: max angle %v not above min angle %v", ErrInvalidGeometry, cfg.MaxAngle, cfg.MinAngle)
	}
	if cfg.MaxAngularSpeed <= 0 {
		return nil, fmt.Errorf("%w: max angular speed %v", ErrInvalidGeometry, cfg.MaxAngularSpeed)
	}

	b := &RigidBody{
		mass:            cfg.Mass,
		cg:              cfg.CenterOfGravity,
		cop:             cfg.CenterOfPressure,
		arm:             cfg.ControlArm,
		anchor:          cfg.Anchor,
		axis:            r3.Unit(cfg.HingeAxis),
		minAngle:        cfg.MinAngle,
		maxAngle:        cfg.MaxAngle,
		throw:           cfg.MaxAngle - cfg.MinAngle,
		naturalDamping:  cfg.NaturalDamping,
		maxAngularSpeed: cfg.MaxAngularSpeed,
		restitution:     cfg.LimitRestitution,
		angleOffset:     cfg.GlobalAngleOffset,
		localAccel:      r3.Vec{Y: -units.StandardGravity},
	}

	b.inertia = hingeInertia(cfg.Mass, cfg.Size, cfg.CenterOfGravity, b.axis)
	if b.inertia <= 0 {
		return nil, fmt.Errorf("%w: inertia %v", ErrInvalidMass, b.inertia)
	}

	if err := b.initLengths(); err != nil {
		return nil, err
	}

	initial := cfg.InitialPosition
	if cfg.Locked {
		initial = cfg.LockPosition
		b.lockRequested = true
		b.locked = true
		b.lockPosition = clamp01(cfg.LockPosition)
	}
	b.angle = b.AngleFromNormalized(clamp01(initial))
	b.normalized = b.NormalizedFromAngle(b.angle)
	b.prevNormalized = b.normalized
	b.updateTransforms()

	return b, nil
}

// hingeInertia projects the box inertia tensor on the hinge axis and adds the
// parallel-axis term of the CG distance to that axis.
func hingeInertia(mass float64, size, cg, axis r3.Vec) float64 {
	ixx := mass / 12 * (size.Y*size.Y + size.Z*size.Z)
	iyy := mass / 12 * (size.X*size.X + size.Z*size.Z)
	izz := mass / 12 * (size.X*size.X + size.Y*size.Y)
	central := ixx*axis.X*axis.X + iyy*axis.Y*axis.Y + izz*axis.Z*axis.Z

	perp := r3.Sub(cg, r3.Scale(r3.Dot(cg, axis), axis))
	return central + mass*r3.Dot(perp, perp)
}

func (b *RigidBody) initLengths() error {
	lMin := b.lengthAtAngle(b.minAngle)
	lMax := b.lengthAtAngle(b.maxAngle)
	if math.Abs(lMax-lMin) < 1e-9 {
		return fmt.Errorf("%w: actuator length does not change over travel", ErrInvalidGeometry)
	}
	b.extensionOpensUp = lMax > lMin

	prev := lMin
	for i := 1; i <= geometrySamples; i++ {
		a := b.minAngle + b.throw*float64(i)/geometrySamples
		l := b.lengthAtAngle(a)
		if (l-prev > 0) != b.extensionOpensUp || l == prev {
			return fmt.Errorf("%w: actuator length not monotonic at %.2f deg", ErrInvalidGeometry, units.ToDeg(a))
		}
		prev = l
	}

	b.minLength = math.Min(lMin, lMax)
	b.maxLength = math.Max(lMin, lMax)
	return nil
}

func (b *RigidBody) lengthAtAngle(angle float64) float64 {
	arm := r3.NewRotation(angle, b.axis).Rotate(b.arm)
	return r3.Norm(r3.Sub(arm, b.anchor))
}

// Update integrates one step of dt seconds and clears the actuator torque
// accumulated since the previous step.
func (b *RigidBody) Update(dt float64) {
	b.prevNormalized = b.normalized
	b.reactionTorque = b.actuatorTorque

	if b.locked {
		b.speed = 0
		b.acceleration = 0
	} else {
		torque := -b.naturalDamping*b.speed + b.gravityTorque() + b.actuatorTorque + b.aeroTorque
		b.acceleration = torque / b.inertia

		b.speed += b.acceleration * dt
		b.speed = clamp(b.speed, -b.maxAngularSpeed, b.maxAngularSpeed)
		if b.softLocked {
			b.speed = clamp(b.speed, b.softMin, b.softMax)
		}
		b.angle += b.speed * dt

		b.updateHardLock()
		b.applyLimits()
	}

	b.normalized = b.NormalizedFromAngle(b.angle)
	b.updateTransforms()
	b.actuatorTorque = 0
}

func (b *RigidBody) updateHardLock() {
	if !b.lockRequested {
		return
	}
	current := b.NormalizedFromAngle(b.angle)
	if (b.prevNormalized-b.lockPosition)*(current-b.lockPosition) <= 0 {
		b.angle = b.AngleFromNormalized(b.lockPosition)
		b.speed = 0
		b.locked = true
	}
}

func (b *RigidBody) applyLimits() {
	if b.angle > b.maxAngle {
		b.angle = b.maxAngle
		if b.speed > 0 {
			b.speed = -b.speed * b.restitution
		}
	} else if b.angle < b.minAngle {
		b.angle = b.minAngle
		if b.speed < 0 {
			b.speed = -b.speed * b.restitution
		}
	}
}

func (b *RigidBody) gravityTorque() float64 {
	force := r3.Scale(b.mass, b.localAccel)
	return r3.Dot(r3.Cross(b.cgRotated, force), b.axis)
}

func (b *RigidBody) updateTransforms() {
	rot := r3.NewRotation(b.angle, b.axis)
	b.armRotated = rot.Rotate(b.arm)
	b.copRotated = rot.Rotate(b.cop)
	b.cgRotated = r3.NewRotation(b.angle+b.angleOffset, b.axis).Rotate(b.cg)
}

// ApplyControlArmForce adds the torque of an actuator force acting along the
// anchor to control-arm line. Positive force extends the actuator.
func (b *RigidBody) ApplyControlArmForce(force float64) {
	dir := r3.Unit(r3.Sub(b.armRotated, b.anchor))
	b.actuatorTorque += r3.Dot(r3.Cross(b.armRotated, r3.Scale(force, dir)), b.axis)
}

// ApplyAeroForces sets the aerodynamic force acting at the center of
// pressure. It stays applied until replaced.
func (b *RigidBody) ApplyAeroForces(force r3.Vec) {
	b.aeroTorque = r3.Dot(r3.Cross(b.copRotated, force), b.axis)
}

// SetLocalAcceleration replaces gravity with the acceleration felt in the
// aircraft frame, in m/s².
func (b *RigidBody) SetLocalAcceleration(accel r3.Vec) { b.localAccel = accel }

// LockAt requests a hard lock. The body freezes the first step its normalized
// position crosses pos. Requesting a new position while locked elsewhere
// releases the current lock.
func (b *RigidBody) LockAt(pos float64) {
	pos = clamp01(pos)
	if b.locked && pos != b.lockPosition {
		b.locked = false
	}
	b.lockRequested = true
	b.lockPosition = pos
}

func (b *RigidBody) Unlock() {
	b.lockRequested = false
	b.locked = false
}

// SoftLock bounds the angular speed to [min, max] rad/s.
func (b *RigidBody) SoftLock(min, max float64) {
	b.softLocked = true
	b.softMin = min
	b.softMax = max
}

func (b *RigidBody) SoftUnlock() { b.softLocked = false }

func (b *RigidBody) IsLocked() bool        { return b.locked }
func (b *RigidBody) IsLockRequested() bool { return b.lockRequested }
func (b *RigidBody) LockPosition() float64 { return b.lockPosition }
func (b *RigidBody) IsSoftLocked() bool    { return b.softLocked }

func (b *RigidBody) SoftLockBand() (float64, float64) { return b.softMin, b.softMax }

func (b *RigidBody) Angle() float64               { return b.angle }
func (b *RigidBody) AngularSpeed() float64        { return b.speed }
func (b *RigidBody) AngularAcceleration() float64 { return b.acceleration }
func (b *RigidBody) NormalizedPosition() float64  { return b.normalized }
func (b *RigidBody) Inertia() float64             { return b.inertia }
func (b *RigidBody) MinAngle() float64            { return b.minAngle }
func (b *RigidBody) MaxAngle() float64            { return b.maxAngle }

// ReactionTorque is the actuator torque consumed by the last Update.
func (b *RigidBody) ReactionTorque() float64 { return b.reactionTorque }

// ExtensionIncreasesAngle reports whether extending the actuator moves the
// body toward its max angle.
func (b *RigidBody) ExtensionIncreasesAngle() bool { return b.extensionOpensUp }

func (b *RigidBody) LinearExtensionToAnchor() float64 {
	return r3.Norm(r3.Sub(b.armRotated, b.anchor))
}

// AbsoluteLength is LinearExtensionToAnchor under the name actuators use.
func (b *RigidBody) AbsoluteLength() float64    { return b.LinearExtensionToAnchor() }
func (b *RigidBody) MinAbsoluteLength() float64 { return b.minLength }
func (b *RigidBody) MaxAbsoluteLength() float64 { return b.maxLength }

func (b *RigidBody) NormalizedFromAngle(angle float64) float64 {
	if b.extensionOpensUp {
		return (angle - b.minAngle) / b.throw
	}
	return (b.maxAngle - angle) / b.throw
}

func (b *RigidBody) AngleFromNormalized(pos float64) float64 {
	if b.extensionOpensUp {
		return b.minAngle + pos*b.throw
	}
	return b.maxAngle - pos*b.throw
}

// LinearNormalizedFromAngularNormalized maps a normalized angular position to
// the normalized actuator length that produces it. Requests beyond [0,1] are
// extended linearly, up to MaxOverTravel past either end.
func (b *RigidBody) LinearNormalizedFromAngularNormalized(pos float64) float64 {
	inRange := clamp01(pos)
	l := b.lengthAtAngle(b.AngleFromNormalized(inRange))
	linear := (l-b.minLength)/(b.maxLength-b.minLength) + (pos - inRange)
	return clamp(linear, -MaxOverTravel, 1+MaxOverTravel)
}

// LinearNormalized is the current normalized actuator length.
func (b *RigidBody) LinearNormalized() float64 {
	return (b.LinearExtensionToAnchor() - b.minLength) / (b.maxLength - b.minLength)
}

func clamp(x, lo, hi float64) float64 { return math.Min(math.Max(x, lo), hi) }

func clamp01(x float64) float64 { return clamp(x, 0, 1) }
