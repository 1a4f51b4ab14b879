package metrics

import "github.com/san-kum/surfsim/internal/sim"

// FluidConsumption is the hydraulic fluid drawn from all circuits over the
// run, in litres.
type FluidConsumption struct {
	drawn float64
}

func NewFluidConsumption() *FluidConsumption { return &FluidConsumption{} }

func (f *FluidConsumption) Name() string { return "fluid_drawn_l" }

func (f *FluidConsumption) Observe(s *sim.Sample) {
	f.drawn = s.Drawn
}

func (f *FluidConsumption) Value() float64 { return f.drawn * 1000 }
func (f *FluidConsumption) Reset()         { f.drawn = 0 }

// BackupEnergy integrates the electrical power drawn by every
// electro-hydrostatic backup, in joules. Runs start at t=0.
type BackupEnergy struct {
	name     string
	energy   float64
	lastTime float64
}

func NewBackupEnergy() *BackupEnergy {
	return &BackupEnergy{name: "backup_energy_j"}
}

func (e *BackupEnergy) Name() string { return e.name }

func (e *BackupEnergy) Observe(s *sim.Sample) {
	dt := s.Time - e.lastTime
	e.lastTime = s.Time
	for _, a := range s.Actuators {
		e.energy += a.BackupPower * dt
	}
}

func (e *BackupEnergy) Value() float64 {
	return e.energy
}

func (e *BackupEnergy) Reset() {
	e.energy = 0
	e.lastTime = 0
}
