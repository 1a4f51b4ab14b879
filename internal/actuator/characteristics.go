package actuator

import (
	"fmt"
	"math"

	"github.com/san-kum/surfsim/internal/control"
	"github.com/san-kum/surfsim/internal/units"
)

// Characteristics are the static constants of one actuator class. Pressures
// are in Pa, flows in m³/s, forces in N, lengths in m.
type Characteristics struct {
	BoreDiameter float64
	// RodDiameter is the piston rod diameter. The rod-side working area is
	// the annulus between bore and rod.
	RodDiameter float64

	MaxFlow float64
	// FlowErrorThreshold is the normalized position error beyond which the
	// flow demand saturates at MaxFlow.
	FlowErrorThreshold float64

	// Flow multipliers indexed by normalized actuator position. Nil means 1.
	ExtensionFlowMultiplier  *control.Table
	RetractionFlowMultiplier *control.Table

	// NominalPressure selects the pressure derate curve family.
	NominalPressure float64
	// ExitPositionControlPressure is the supply pressure below which
	// PositionControl falls back to ClosedCircuitDamping.
	ExitPositionControlPressure float64

	// SpringConstant is in N per unit of normalized position.
	SpringConstant float64
	// Damping constants are in N per m/s of actuator speed.
	FluidDamping  float64
	ActiveDamping float64
	SlowDamping   float64

	// Filter time constants in seconds.
	SlowDampingFilter float64
	EnvelopeFilter    float64

	MaxForce float64

	// Flow loop PID. The PID output is multiplied by ForceGain to get newtons.
	Kp        float64
	Ki        float64
	Kd        float64
	ForceGain float64

	SoftLockInClosedCircuitDamping bool
	SoftLockMin                    float64
	SoftLockMax                    float64

	Backup *BackupConfig
}

func (c Characteristics) Validate() error {
	switch {
	case c.BoreDiameter <= 0:
		return fmt.Errorf("%w: bore diameter %v", ErrInvalidCharacteristics, c.BoreDiameter)
	case c.RodDiameter <= 0 || c.RodDiameter >= c.BoreDiameter:
		return fmt.Errorf("%w: rod diameter %v must be in (0, bore)", ErrInvalidCharacteristics, c.RodDiameter)
	case c.MaxFlow <= 0:
		return fmt.Errorf("%w: max flow %v", ErrInvalidCharacteristics, c.MaxFlow)
	case c.FlowErrorThreshold <= 0:
		return fmt.Errorf("%w: flow error threshold %v", ErrInvalidCharacteristics, c.FlowErrorThreshold)
	case c.NominalPressure <= 0:
		return fmt.Errorf("%w: nominal pressure %v", ErrInvalidCharacteristics, c.NominalPressure)
	case c.MaxForce <= 0:
		return fmt.Errorf("%w: max force %v", ErrInvalidCharacteristics, c.MaxForce)
	case c.ForceGain <= 0:
		return fmt.Errorf("%w: force gain %v", ErrInvalidCharacteristics, c.ForceGain)
	case c.SpringConstant < 0 || c.FluidDamping < 0 || c.ActiveDamping < 0 || c.SlowDamping < 0:
		return fmt.Errorf("%w: negative spring or damping constant", ErrInvalidCharacteristics)
	case c.SoftLockInClosedCircuitDamping && c.SoftLockMin > c.SoftLockMax:
		return fmt.Errorf("%w: soft lock band [%v, %v]", ErrInvalidCharacteristics, c.SoftLockMin, c.SoftLockMax)
	}
	if c.Backup != nil {
		return c.Backup.Validate()
	}
	return nil
}

func (c Characteristics) BoreArea() float64 { return units.CircleArea(c.BoreDiameter) }

// RodSideArea is the annulus area working when the actuator retracts.
func (c Characteristics) RodSideArea() float64 {
	return units.CircleArea(c.BoreDiameter) - units.CircleArea(c.RodDiameter)
}

// BackupConfig holds the constants of an electro-hydrostatic backup.
type BackupConfig struct {
	Kind BackupKind

	NominalPressure float64

	AccumulatorMaxPressure   float64
	AccumulatorMinPressure   float64
	AccumulatorMeanPressure  float64
	AccumulatorPressureSigma float64
	AccumulatorFilter        float64

	// RefillFlow is the trickle drawn from the circuit while charging.
	RefillFlow float64

	// PumpDisplacement is in m³ per revolution.
	PumpDisplacement float64
	PumpSpeedFilter  float64

	// EfficiencyMultiplier converts hydraulic power to electrical power.
	EfficiencyMultiplier float64
	StaticPower          float64
}

func (c BackupConfig) Validate() error {
	switch {
	case c.Kind != ElectricOnly && c.Kind != HydraulicOrElectric:
		return fmt.Errorf("%w: backup kind %v", ErrInvalidCharacteristics, c.Kind)
	case c.NominalPressure <= 0:
		return fmt.Errorf("%w: backup nominal pressure %v", ErrInvalidCharacteristics, c.NominalPressure)
	case c.AccumulatorMaxPressure <= 0:
		return fmt.Errorf("%w: accumulator max pressure %v", ErrInvalidCharacteristics, c.AccumulatorMaxPressure)
	case c.AccumulatorMinPressure < 0 || c.AccumulatorMinPressure >= c.AccumulatorMaxPressure:
		return fmt.Errorf("%w: accumulator min pressure %v", ErrInvalidCharacteristics, c.AccumulatorMinPressure)
	case c.AccumulatorPressureSigma < 0:
		return fmt.Errorf("%w: accumulator sigma %v", ErrInvalidCharacteristics, c.AccumulatorPressureSigma)
	case c.PumpDisplacement <= 0:
		return fmt.Errorf("%w: pump displacement %v", ErrInvalidCharacteristics, c.PumpDisplacement)
	case c.EfficiencyMultiplier < 1:
		return fmt.Errorf("%w: efficiency multiplier %v below 1", ErrInvalidCharacteristics, c.EfficiencyMultiplier)
	}
	return nil
}

var (
	derate3000 = psiTable(
		[]float64{0, 500, 1000, 1500, 2000, 2500, 2800},
		[]float64{0, 0.1, 0.3, 0.5, 0.7, 0.9, 1},
	)
	derate5000 = psiTable(
		[]float64{0, 500, 1000, 2000, 3000, 4000, 4700},
		[]float64{0, 0.05, 0.15, 0.35, 0.6, 0.85, 1},
	)
)

func psiTable(psi, factors []float64) *control.Table {
	pa := make([]float64, len(psi))
	for i, p := range psi {
		pa[i] = units.Psi(p)
	}
	return control.MustTable(pa, factors)
}

// flowDerateCurve picks the flow restriction curve for a system of the given
// nominal pressure. Systems rated 4000 psi and above use the 5000 psi family.
func flowDerateCurve(nominal float64) *control.Table {
	if nominal >= units.Psi(4000) {
		return derate5000
	}
	return derate3000
}

// FlowDerate returns the flow restriction factor at pressure for a system of
// the given nominal pressure.
func FlowDerate(nominal, pressure float64) float64 {
	return math.Min(flowDerateCurve(nominal).At(pressure), 1)
}
