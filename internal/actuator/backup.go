package actuator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/surfsim/internal/control"
)

// ElectroHydrostaticBackup is an electrically driven pump with a small
// accumulator that can pressurize its actuator without the hydraulic circuit.
type ElectroHydrostaticBackup struct {
	cfg BackupConfig

	accumulator control.LowPass
	pumpSpeed   control.LowPass

	active       bool
	power        float64
	refillVolume float64
}

// NewElectroHydrostaticBackup samples the accumulator precharge from a normal
// distribution driven by src. A nil src uses the mean precharge.
func NewElectroHydrostaticBackup(cfg BackupConfig, src rand.Source) *ElectroHydrostaticBackup {
	initial := cfg.AccumulatorMeanPressure
	if src != nil && cfg.AccumulatorPressureSigma > 0 {
		dist := distuv.Normal{
			Mu:    cfg.AccumulatorMeanPressure,
			Sigma: cfg.AccumulatorPressureSigma,
			Src:   src,
		}
		initial = dist.Rand()
	}
	initial = control.Clamp(initial, 0, cfg.AccumulatorMaxPressure)

	return &ElectroHydrostaticBackup{
		cfg:         cfg,
		accumulator: control.NewLowPass(cfg.AccumulatorFilter, initial),
		pumpSpeed:   control.NewLowPass(cfg.PumpSpeedFilter, 0),
	}
}

// Update advances the backup by dt. flow is the actuator's signed flow.
func (b *ElectroHydrostaticBackup) Update(dt, inputPressure float64, powered, activation, refill bool, flow float64) {
	b.active = powered && activation

	if refill && inputPressure > b.accumulator.Output() {
		p := b.accumulator.Update(b.cfg.AccumulatorMaxPressure, dt)
		b.accumulator.Reset(math.Min(p, inputPressure))
		b.refillVolume += b.cfg.RefillFlow * dt
	}

	if !b.active {
		b.pumpSpeed.Reset(0)
		b.power = 0
		return
	}

	// the pump turns to carry the actuator flow at the pressure it can
	// deliver, and idles when the accumulator is too low to deliver any
	rpm := math.Abs(flow) / b.cfg.PumpDisplacement * 60 * b.MaxAvailablePressure() / b.cfg.NominalPressure
	b.pumpSpeed.Update(rpm, dt)

	hydraulic := b.MaxAvailablePressure() * math.Abs(flow)
	b.power = math.Max(hydraulic*b.cfg.EfficiencyMultiplier, b.cfg.StaticPower)
}

// MaxAvailablePressure is the pressure the pump can deliver right now.
func (b *ElectroHydrostaticBackup) MaxAvailablePressure() float64 {
	if b.active && b.accumulator.Output() > b.cfg.AccumulatorMinPressure {
		return b.cfg.NominalPressure
	}
	return 0
}

// PermitsCircuitPressure reports whether the actuator may run from the
// normal hydraulic circuit while the backup is not engaged.
func (b *ElectroHydrostaticBackup) PermitsCircuitPressure() bool {
	return b.cfg.Kind == HydraulicOrElectric
}

func (b *ElectroHydrostaticBackup) Kind() BackupKind             { return b.cfg.Kind }
func (b *ElectroHydrostaticBackup) IsActive() bool               { return b.active }
func (b *ElectroHydrostaticBackup) AccumulatorPressure() float64 { return b.accumulator.Output() }

// PumpSpeed in rpm.
func (b *ElectroHydrostaticBackup) PumpSpeed() float64 { return b.pumpSpeed.Output() }

// ConsumedPower in W.
func (b *ElectroHydrostaticBackup) ConsumedPower() float64 { return b.power }

// RefillVolume is the fluid drawn from the circuit to charge the accumulator
// since the last reset.
func (b *ElectroHydrostaticBackup) RefillVolume() float64 { return b.refillVolume }

func (b *ElectroHydrostaticBackup) resetVolumes() { b.refillVolume = 0 }
