package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/sim"
)

func sample(t, pos float64, acts ...sim.ActuatorSample) *sim.Sample {
	return &sim.Sample{Time: t, Position: pos, Actuators: acts}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(sample(0.01, 0, sim.ActuatorSample{Force: 100}, sim.ActuatorSample{Force: -300}))
	m.Observe(sample(0.02, 0, sim.ActuatorSample{Force: 0}, sim.ActuatorSample{Force: 0}))
	if got := m.Value(); got != 200 {
		t.Errorf("expected 200, got %v", got)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestPeakForce(t *testing.T) {
	m := NewPeakForce()
	m.Observe(sample(0.01, 0, sim.ActuatorSample{Force: 100}, sim.ActuatorSample{Force: -300}))
	m.Observe(sample(0.02, 0, sim.ActuatorSample{Force: 250}))
	if got := m.Value(); got != 300 {
		t.Errorf("expected 300, got %v", got)
	}
}

func TestFluidConsumption(t *testing.T) {
	m := NewFluidConsumption()
	m.Observe(&sim.Sample{Drawn: 1e-4})
	m.Observe(&sim.Sample{Drawn: 3e-4})
	if got := m.Value(); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("expected 0.3 l, got %v", got)
	}
}

func TestBackupEnergy(t *testing.T) {
	m := NewBackupEnergy()
	for i := 1; i <= 100; i++ {
		m.Observe(sample(float64(i)*0.01, 0, sim.ActuatorSample{BackupPower: 500}))
	}
	if got := m.Value(); math.Abs(got-500) > 1e-9 {
		t.Errorf("expected 500 J over one second at 500 W, got %v", got)
	}
	m.Reset()
	m.Observe(sample(0.01, 0, sim.ActuatorSample{BackupPower: 100}))
	if got := m.Value(); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected 1 J after reset, got %v", got)
	}
}

func TestSettling(t *testing.T) {
	tests := []struct {
		name      string
		positions []float64
		want      float64
	}{
		{"never inside", []float64{0.1, 0.2, 0.3}, -1},
		{"settles", []float64{0.1, 0.79, 0.8, 0.81}, 0.2},
		{"overshoot re-enters", []float64{0.79, 0.9, 0.805, 0.8}, 0.3},
		{"leaves at the end", []float64{0.8, 0.8, 0.5}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSettling(0.8, 0.02)
			for i, p := range tt.positions {
				m.Observe(sample(float64(i+1)*0.1, p))
			}
			if got := m.Value(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTrackingError(t *testing.T) {
	m := NewTrackingError()
	m.Observe(sample(0.01, 0,
		sim.ActuatorSample{Mode: actuator.PositionControl, Requested: 1, Position: 0.7},
		sim.ActuatorSample{Mode: actuator.ActiveDamping, Requested: 1, Position: 0},
	))
	m.Observe(sample(0.02, 0,
		sim.ActuatorSample{Mode: actuator.PositionControl, Requested: 1, Position: 1.4},
	))
	if got := m.Value(); math.Abs(got-math.Sqrt((0.09+0.16)/2)) > 1e-12 {
		t.Errorf("unexpected rms %v", got)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}
