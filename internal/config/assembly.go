package config

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/body"
	"github.com/san-kum/surfsim/internal/control"
	"github.com/san-kum/surfsim/internal/units"
)

// AssemblyConfig describes one control surface and the actuators moving it.
type AssemblyConfig struct {
	Body      BodyConfig       `yaml:"body"`
	Actuators []ActuatorConfig `yaml:"actuators"`
}

// BodyConfig is body.Config in scenario units: metres, kilograms and degrees.
type BodyConfig struct {
	Mass             float64 `yaml:"mass"`
	Size             Vec     `yaml:"size"`
	CenterOfGravity  Vec     `yaml:"center_of_gravity"`
	CenterOfPressure Vec     `yaml:"center_of_pressure"`
	ControlArm       Vec     `yaml:"control_arm"`
	Anchor           Vec     `yaml:"anchor"`
	HingeAxis        Vec     `yaml:"hinge_axis"`

	MinAngleDeg       float64 `yaml:"min_angle_deg"`
	MaxAngleDeg       float64 `yaml:"max_angle_deg"`
	InitialPosition   float64 `yaml:"initial_position"`
	NaturalDamping    float64 `yaml:"natural_damping"`
	MaxSpeedDps       float64 `yaml:"max_speed_dps"`
	LimitRestitution  float64 `yaml:"limit_restitution"`
	GlobalAngleOffset float64 `yaml:"global_angle_offset_deg,omitempty"`

	Locked       bool    `yaml:"locked,omitempty"`
	LockPosition float64 `yaml:"lock_position,omitempty"`
}

// TableConfig is a piecewise linear curve over normalized actuator position.
type TableConfig struct {
	X []float64 `yaml:"x"`
	Y []float64 `yaml:"y"`
}

// ActuatorConfig is actuator.Characteristics in scenario units: psi, gpm,
// metres and newtons.
type ActuatorConfig struct {
	BoreDiameter       float64 `yaml:"bore_diameter"`
	RodDiameter        float64 `yaml:"rod_diameter"`
	MaxFlowGpm         float64 `yaml:"max_flow_gpm"`
	FlowErrorThreshold float64 `yaml:"flow_error_threshold"`

	ExtensionFlow  *TableConfig `yaml:"extension_flow_multiplier,omitempty"`
	RetractionFlow *TableConfig `yaml:"retraction_flow_multiplier,omitempty"`

	NominalPressurePsi     float64 `yaml:"nominal_pressure_psi"`
	ExitPositionControlPsi float64 `yaml:"exit_position_control_psi"`

	SpringConstant    float64 `yaml:"spring_constant"`
	FluidDamping      float64 `yaml:"fluid_damping"`
	ActiveDamping     float64 `yaml:"active_damping"`
	SlowDamping       float64 `yaml:"slow_damping"`
	SlowDampingFilter float64 `yaml:"slow_damping_filter"`
	EnvelopeFilter    float64 `yaml:"envelope_filter"`
	MaxForce          float64 `yaml:"max_force"`

	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd,omitempty"`
	ForceGain float64 `yaml:"force_gain"`

	SoftLockInCCD  bool    `yaml:"soft_lock_in_ccd,omitempty"`
	SoftLockMinDps float64 `yaml:"soft_lock_min_dps,omitempty"`
	SoftLockMaxDps float64 `yaml:"soft_lock_max_dps,omitempty"`

	Backup *BackupConfig `yaml:"backup,omitempty"`
}

type BackupConfig struct {
	Kind                 string  `yaml:"kind"`
	NominalPressurePsi   float64 `yaml:"nominal_pressure_psi"`
	AccumulatorMaxPsi    float64 `yaml:"accumulator_max_psi"`
	AccumulatorMinPsi    float64 `yaml:"accumulator_min_psi"`
	AccumulatorMeanPsi   float64 `yaml:"accumulator_mean_psi"`
	AccumulatorSigmaPsi  float64 `yaml:"accumulator_sigma_psi"`
	AccumulatorFilter    float64 `yaml:"accumulator_filter"`
	RefillFlowGpm        float64 `yaml:"refill_flow_gpm"`
	PumpDisplacementCC   float64 `yaml:"pump_displacement_cc"`
	PumpSpeedFilter      float64 `yaml:"pump_speed_filter"`
	EfficiencyMultiplier float64 `yaml:"efficiency_multiplier"`
	StaticPower          float64 `yaml:"static_power"`
}

func (v Vec) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func (a AssemblyConfig) Validate() error {
	if len(a.Actuators) == 0 {
		return fmt.Errorf("%w: assembly has no actuators", ErrInvalidConfig)
	}
	if _, err := body.New(a.Body.Build()); err != nil {
		return fmt.Errorf("%w: body: %v", ErrInvalidConfig, err)
	}
	for i, ac := range a.Actuators {
		ch, err := ac.Build()
		if err != nil {
			return fmt.Errorf("%w: actuator %d: %v", ErrInvalidConfig, i, err)
		}
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("%w: actuator %d: %v", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

func (b BodyConfig) Build() body.Config {
	return body.Config{
		Mass:              b.Mass,
		Size:              b.Size.R3(),
		CenterOfGravity:   b.CenterOfGravity.R3(),
		CenterOfPressure:  b.CenterOfPressure.R3(),
		ControlArm:        b.ControlArm.R3(),
		Anchor:            b.Anchor.R3(),
		HingeAxis:         b.HingeAxis.R3(),
		MinAngle:          units.Deg(b.MinAngleDeg),
		MaxAngle:          units.Deg(b.MaxAngleDeg),
		InitialPosition:   b.InitialPosition,
		NaturalDamping:    b.NaturalDamping,
		MaxAngularSpeed:   units.DegPerSecond(b.MaxSpeedDps),
		LimitRestitution:  b.LimitRestitution,
		GlobalAngleOffset: units.Deg(b.GlobalAngleOffset),
		Locked:            b.Locked,
		LockPosition:      b.LockPosition,
	}
}

func (t *TableConfig) build() (*control.Table, error) {
	if t == nil {
		return nil, nil
	}
	return control.NewTable(t.X, t.Y)
}

func (a ActuatorConfig) Build() (actuator.Characteristics, error) {
	ext, err := a.ExtensionFlow.build()
	if err != nil {
		return actuator.Characteristics{}, fmt.Errorf("extension flow multiplier: %w", err)
	}
	ret, err := a.RetractionFlow.build()
	if err != nil {
		return actuator.Characteristics{}, fmt.Errorf("retraction flow multiplier: %w", err)
	}

	ch := actuator.Characteristics{
		BoreDiameter:                   a.BoreDiameter,
		RodDiameter:                    a.RodDiameter,
		MaxFlow:                        units.Gpm(a.MaxFlowGpm),
		FlowErrorThreshold:             a.FlowErrorThreshold,
		ExtensionFlowMultiplier:        ext,
		RetractionFlowMultiplier:       ret,
		NominalPressure:                units.Psi(a.NominalPressurePsi),
		ExitPositionControlPressure:    units.Psi(a.ExitPositionControlPsi),
		SpringConstant:                 a.SpringConstant,
		FluidDamping:                   a.FluidDamping,
		ActiveDamping:                  a.ActiveDamping,
		SlowDamping:                    a.SlowDamping,
		SlowDampingFilter:              a.SlowDampingFilter,
		EnvelopeFilter:                 a.EnvelopeFilter,
		MaxForce:                       a.MaxForce,
		Kp:                             a.Kp,
		Ki:                             a.Ki,
		Kd:                             a.Kd,
		ForceGain:                      a.ForceGain,
		SoftLockInClosedCircuitDamping: a.SoftLockInCCD,
		SoftLockMin:                    units.DegPerSecond(a.SoftLockMinDps),
		SoftLockMax:                    units.DegPerSecond(a.SoftLockMaxDps),
	}
	if a.Backup != nil {
		bc, err := a.Backup.Build()
		if err != nil {
			return actuator.Characteristics{}, err
		}
		ch.Backup = &bc
	}
	return ch, nil
}

func (b BackupConfig) Build() (actuator.BackupConfig, error) {
	kind, err := actuator.ParseBackupKind(b.Kind)
	if err != nil {
		return actuator.BackupConfig{}, err
	}
	return actuator.BackupConfig{
		Kind:                     kind,
		NominalPressure:          units.Psi(b.NominalPressurePsi),
		AccumulatorMaxPressure:   units.Psi(b.AccumulatorMaxPsi),
		AccumulatorMinPressure:   units.Psi(b.AccumulatorMinPsi),
		AccumulatorMeanPressure:  units.Psi(b.AccumulatorMeanPsi),
		AccumulatorPressureSigma: units.Psi(b.AccumulatorSigmaPsi),
		AccumulatorFilter:        b.AccumulatorFilter,
		RefillFlow:               units.Gpm(b.RefillFlowGpm),
		PumpDisplacement:         b.PumpDisplacementCC * 1e-6,
		PumpSpeedFilter:          b.PumpSpeedFilter,
		EfficiencyMultiplier:     b.EfficiencyMultiplier,
		StaticPower:              b.StaticPower,
	}, nil
}
