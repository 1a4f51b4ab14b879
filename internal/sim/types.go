package sim

import (
	"math"

	"github.com/san-kum/surfsim/internal/actuator"
)

type ActuatorSample struct {
	Mode      actuator.Mode `json:"mode"`
	Requested float64       `json:"requested"`
	Position  float64       `json:"position"`
	Length    float64       `json:"length"`
	Speed     float64       `json:"speed"`
	Flow      float64       `json:"flow"`
	Force     float64       `json:"force"`

	BackupActive        bool    `json:"backup_active"`
	BackupPower         float64 `json:"backup_power"`
	AccumulatorPressure float64 `json:"accumulator_pressure"`
}

// Sample is the observable state after one tick. Drawn and Returned are
// cumulative over the run, in m³.
type Sample struct {
	Time           float64 `json:"time"`
	Position       float64 `json:"position"`
	Angle          float64 `json:"angle"`
	AngularSpeed   float64 `json:"angular_speed"`
	ReactionTorque float64 `json:"reaction_torque"`
	Locked         bool    `json:"locked"`
	SoftLocked     bool    `json:"soft_locked"`

	Drawn    float64 `json:"drawn"`
	Returned float64 `json:"returned"`

	Actuators []ActuatorSample `json:"actuators"`
}

// IsValid reports whether every continuous quantity in the sample is finite.
func (s *Sample) IsValid() bool {
	for _, v := range []float64{s.Position, s.Angle, s.AngularSpeed, s.ReactionTorque} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, a := range s.Actuators {
		for _, v := range []float64{a.Length, a.Speed, a.Flow, a.Force} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func (s Sample) Clone() Sample {
	s.Actuators = append([]ActuatorSample(nil), s.Actuators...)
	return s
}

type Metric interface {
	Name() string
	Observe(s *Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s *Sample)
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
	// DrainEvery is the number of ticks between fluid volume collections.
	DrainEvery int
	// RecordEvery keeps one sample in Result.Samples every N ticks.
	RecordEvery int
}

// CircuitTotals are the volumes exchanged with one circuit over a run.
type CircuitTotals struct {
	Name     string  `json:"name"`
	Drawn    float64 `json:"drawn"`
	Returned float64 `json:"returned"`
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	Circuits   []CircuitTotals
	StepsTaken int
}

// Final returns the last recorded sample.
func (r *Result) Final() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}
