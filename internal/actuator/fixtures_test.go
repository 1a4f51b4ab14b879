package actuator

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/surfsim/internal/body"
	"github.com/san-kum/surfsim/internal/control"
	"github.com/san-kum/surfsim/internal/units"
)

const dt = 0.01

var nominal = units.Psi(3000)

func doorBody() body.Config {
	return body.Config{
		Mass:             100,
		Size:             r3.Vec{X: 0.1, Y: 1.6, Z: 1.8},
		CenterOfGravity:  r3.Vec{Y: -0.8},
		CenterOfPressure: r3.Vec{Y: -0.8},
		ControlArm:       r3.Vec{X: -0.2165, Y: -0.125},
		Anchor:           r3.Vec{X: -0.8},
		HingeAxis:        r3.Vec{Z: 1},
		MinAngle:         0,
		MaxAngle:         units.Deg(120),
		NaturalDamping:   50,
		MaxAngularSpeed:  1,
		LimitRestitution: 0.3,
		Locked:           true,
		LockPosition:     0,
	}
}

func doorActuator() Characteristics {
	endStops := control.MustTable([]float64{0, 0.05, 0.95, 1}, []float64{0.5, 1, 1, 0.5})
	return Characteristics{
		BoreDiameter:                0.04,
		RodDiameter:                 0.025,
		MaxFlow:                     8e-5,
		FlowErrorThreshold:          0.1,
		ExtensionFlowMultiplier:     endStops,
		RetractionFlowMultiplier:    endStops,
		NominalPressure:             nominal,
		ExitPositionControlPressure: units.Psi(100),
		SpringConstant:              800000,
		FluidDamping:                50000,
		ActiveDamping:               20000,
		SlowDamping:                 50000,
		SlowDampingFilter:           0.1,
		EnvelopeFilter:              0.05,
		MaxForce:                    60000,
		Kp:                          0.6,
		Ki:                          0.64,
		ForceGain:                   5000,
	}
}

func aileronBody() body.Config {
	return body.Config{
		Mass:             25,
		Size:             r3.Vec{X: 3.0, Y: 0.1, Z: 0.5},
		CenterOfGravity:  r3.Vec{Z: -0.2},
		CenterOfPressure: r3.Vec{Z: -0.25},
		ControlArm:       r3.Vec{Y: -0.06},
		Anchor:           r3.Vec{Y: -0.06, Z: 0.25},
		HingeAxis:        r3.Vec{X: 1},
		MinAngle:         units.Deg(-25),
		MaxAngle:         units.Deg(25),
		InitialPosition:  0.5,
		NaturalDamping:   5,
		MaxAngularSpeed:  3,
		LimitRestitution: 0.3,
	}
}

func aileronActuator() Characteristics {
	return Characteristics{
		BoreDiameter:                0.0635,
		RodDiameter:                 0.035,
		MaxFlow:                     1.6e-4,
		FlowErrorThreshold:          0.2,
		NominalPressure:             nominal,
		ExitPositionControlPressure: units.Psi(100),
		SpringConstant:              50700,
		FluidDamping:                10000,
		ActiveDamping:               2000,
		SlowDamping:                 5000,
		SlowDampingFilter:           0.1,
		EnvelopeFilter:              0.05,
		MaxForce:                    80000,
		Kp:                          0.5,
		Ki:                          1.5,
		ForceGain:                   1000,
	}
}

func spoilerBody() body.Config {
	return body.Config{
		Mass:             12,
		Size:             r3.Vec{X: 1.6, Y: 0.05, Z: 0.6},
		CenterOfGravity:  r3.Vec{Z: -0.22},
		CenterOfPressure: r3.Vec{Z: -0.3},
		ControlArm:       r3.Vec{Y: -0.07},
		Anchor:           r3.Vec{Y: -0.07, Z: 0.3},
		HingeAxis:        r3.Vec{X: 1},
		MinAngle:         0,
		MaxAngle:         units.Deg(50),
		NaturalDamping:   2,
		MaxAngularSpeed:  4,
		LimitRestitution: 0.3,
	}
}

func spoilerBackup() *BackupConfig {
	return &BackupConfig{
		Kind:                     HydraulicOrElectric,
		NominalPressure:          nominal,
		AccumulatorMaxPressure:   nominal,
		AccumulatorMinPressure:   units.Psi(500),
		AccumulatorMeanPressure:  units.Psi(2000),
		AccumulatorPressureSigma: units.Psi(200),
		AccumulatorFilter:        0.5,
		RefillFlow:               1e-6,
		PumpDisplacement:         1e-6,
		PumpSpeedFilter:          0.1,
		EfficiencyMultiplier:     1.5,
		StaticPower:              100,
	}
}

func spoilerActuator() Characteristics {
	return Characteristics{
		BoreDiameter:                0.05,
		RodDiameter:                 0.025,
		MaxFlow:                     2.5e-4,
		FlowErrorThreshold:          0.1,
		NominalPressure:             nominal,
		ExitPositionControlPressure: units.Psi(100),
		SpringConstant:              60000,
		FluidDamping:                8000,
		ActiveDamping:               2000,
		SlowDamping:                 3000,
		SlowDampingFilter:           0.1,
		EnvelopeFilter:              0.05,
		MaxForce:                    50000,
		Kp:                          0.5,
		Ki:                          2,
		ForceGain:                   2000,
		Backup:                      spoilerBackup(),
	}
}

// rig is an assembly with one Demand and one Supply per actuator.
type rig struct {
	asm      *Assembly
	demands  []*Demand
	supplies []Supply
}

func newRig(cfg body.Config, chs ...Characteristics) (*rig, error) {
	b, err := body.New(cfg)
	if err != nil {
		return nil, err
	}
	src := rand.NewPCG(1, 2)
	acts := make([]*LinearActuator, len(chs))
	r := &rig{}
	for i, ch := range chs {
		if acts[i], err = NewLinearActuator(b, ch, src); err != nil {
			return nil, err
		}
		r.demands = append(r.demands, &Demand{Mode: ClosedValves, Position: cfg.InitialPosition})
		r.supplies = append(r.supplies, Supply{Pressure: nominal, Powered: true})
	}
	r.asm = NewAssembly(b, acts...)
	return r, nil
}

func mustRig(t *testing.T, cfg body.Config, chs ...Characteristics) *rig {
	t.Helper()
	r, err := newRig(cfg, chs...)
	if err != nil {
		t.Fatalf("building rig: %v", err)
	}
	return r
}

func (r *rig) controllers() []Controller {
	ctrls := make([]Controller, len(r.demands))
	for i, d := range r.demands {
		ctrls[i] = d
	}
	return ctrls
}

func (r *rig) setPressure(p float64) {
	for i := range r.supplies {
		r.supplies[i].Pressure = p
	}
}

// run steps the rig for the given simulated time and calls each after
// every step when non-nil.
func (r *rig) run(seconds float64, each func()) {
	ctrls := r.controllers()
	steps := int(seconds/dt + 0.5)
	for i := 0; i < steps; i++ {
		r.asm.Update(dt, ctrls, r.supplies)
		if each != nil {
			each()
		}
	}
}

func (r *rig) position() float64 { return r.asm.Position() }

// fakeGeometry lets tests drive actuator length directly.
type fakeGeometry struct {
	min, max, length float64
	force            float64
}

func (g *fakeGeometry) MinAbsoluteLength() float64     { return g.min }
func (g *fakeGeometry) MaxAbsoluteLength() float64     { return g.max }
func (g *fakeGeometry) AbsoluteLength() float64        { return g.length }
func (g *fakeGeometry) ApplyControlArmForce(f float64) { g.force += f }
