package experiment

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/sim"
	"github.com/san-kum/surfsim/internal/units"
)

func resolved(t *testing.T, name string) *config.Config {
	t.Helper()
	cfg := config.GetPreset(name)
	if err := cfg.Resolve(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestBuildWorld(t *testing.T) {
	cfg := resolved(t, "aileron_step")
	w, err := BuildWorld(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if w.Assembly.Len() != 2 || len(w.Demands) != 2 {
		t.Fatalf("expected two actuators, got %d", w.Assembly.Len())
	}
	if w.Demands[0].Mode != actuator.PositionControl || w.Demands[1].Mode != actuator.ActiveDamping {
		t.Errorf("unexpected demand modes %v / %v", w.Demands[0].Mode, w.Demands[1].Mode)
	}
	routes := w.Network.Routes()
	if routes[0].Supply != "green" || routes[1].Supply != "blue" {
		t.Errorf("unexpected routes %+v", routes)
	}
	if len(w.Events()) != 1 {
		t.Errorf("expected one scheduled event, got %d", len(w.Events()))
	}
}

func TestBuildWorldRejectsBadMode(t *testing.T) {
	cfg := resolved(t, "aileron_step")
	cfg.Controls[0].Demand.Mode = "bypass"
	if _, err := BuildWorld(cfg); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSeedDeterminesPrecharge(t *testing.T) {
	precharge := func(seed int64) float64 {
		cfg := resolved(t, "spoiler_backup")
		cfg.Seed = seed
		w, err := BuildWorld(cfg)
		if err != nil {
			t.Fatal(err)
		}
		return w.Assembly.Actuator(0).Backup().AccumulatorPressure()
	}
	if precharge(3) != precharge(3) {
		t.Error("same seed should give the same precharge")
	}
	if precharge(3) == precharge(4) {
		t.Error("different seeds should give different precharges")
	}
}

func TestApplyEvent(t *testing.T) {
	cfg := resolved(t, "aileron_step")
	cfg.Buses = []config.BusConfig{{Name: "dc1"}}
	w, err := BuildWorld(cfg)
	if err != nil {
		t.Fatal(err)
	}

	one := 1
	mode := "closed_circuit_damping"
	lock, at, pressure, powered := true, 0.3, 1500.0, true
	soft := 90.0
	ev := config.EventConfig{
		Actuator:       &one,
		Mode:           &mode,
		Lock:           &lock,
		LockAt:         &at,
		SoftLockMaxDps: &soft,
		Circuit:        "blue",
		PressurePsi:    &pressure,
		Bus:            "dc1",
		Powered:        &powered,
	}
	if err := applyEvent(w, ev); err != nil {
		t.Fatal(err)
	}

	if w.Demands[0].Mode != actuator.PositionControl || w.Demands[0].Lock {
		t.Error("event should only touch actuator 1")
	}
	d := w.Demands[1]
	if d.Mode != actuator.ClosedCircuitDamping || !d.Lock || d.LockAt != 0.3 {
		t.Errorf("unexpected demand %+v", d)
	}
	if math.Abs(d.SoftLockMax-math.Pi/2) > 1e-12 {
		t.Errorf("expected 90 deg/s in rad/s, got %v", d.SoftLockMax)
	}
	blue, _ := w.Network.Circuit("blue")
	if math.Abs(blue.Pressure-units.Psi(1500)) > 1e-9 {
		t.Errorf("expected 1500 psi, got %v Pa", blue.Pressure)
	}

	ev = config.EventConfig{Circuit: "purple", PressurePsi: &pressure}
	if err := applyEvent(w, ev); err == nil {
		t.Error("unknown circuit should fail")
	}
}

func TestEventName(t *testing.T) {
	p := 0.0
	got := eventName(config.EventConfig{Circuit: "green", PressurePsi: &p})
	if got != "green=0psi" {
		t.Errorf("unexpected name %q", got)
	}
	if eventName(config.EventConfig{}) != "noop" {
		t.Error("empty event should be a noop")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	cfg := resolved(t, "aileron_step")
	if len(r.ListMetrics()) != 6 || len(r.DefaultMetrics(cfg)) != 6 {
		t.Errorf("expected 6 metrics, got %v", r.ListMetrics())
	}
	if _, err := r.GetMetric("energy", cfg); err == nil {
		t.Error("expected error for unknown metric")
	}
	m, err := r.GetMetric("settling_time", cfg)
	if err != nil || m.Name() != "settling_time" {
		t.Errorf("unexpected metric %v, %v", m, err)
	}
}

func TestFinalTarget(t *testing.T) {
	tests := []struct {
		preset string
		want   float64
	}{
		{"aileron_step", 0.8},
		{"door_open", 1},
		{"aileron_lock", 1},
		{"elevator_gust", 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			if got := FinalTarget(resolved(t, tt.preset)); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRunNotSetup(t *testing.T) {
	if _, err := New(resolved(t, "door_open"), nil).Run(context.Background()); err == nil {
		t.Error("expected error before setup")
	}
}

func TestModeTransitionsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cfg := resolved(t, "door_pressure_loss")
	e := New(cfg, zap.New(core))
	if err := e.Setup(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("mode transition").Len() == 0 {
		t.Error("expected mode transitions to be logged")
	}
	if logs.FilterMessage("lock").Len() == 0 {
		t.Error("expected the uplock release to be logged")
	}
	if logs.FilterMessage("event").Len() != 1 {
		t.Errorf("expected one event log, got %d", logs.FilterMessage("event").Len())
	}
	for _, entry := range logs.All() {
		if entry.ContextMap()["scenario"] != "door_pressure_loss" {
			t.Fatalf("entry %q missing scenario field", entry.Message)
		}
	}
}

func TestBatchJobs(t *testing.T) {
	reg := NewRegistry()
	names := []string{"door_unpressurized", "aileron_step", "spoiler_backup"}
	jobs := make([]sim.Job, len(names))
	for i, name := range names {
		jobs[i] = Job(resolved(t, name), nil, reg)
	}
	results, err := sim.RunBatch(context.Background(), jobs, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if len(r.Metrics) != 6 {
			t.Errorf("%s: expected 6 metrics, got %d", names[i], len(r.Metrics))
		}
	}
	if math.Abs(results[1].Final().Position-0.8) > 0.03 {
		t.Errorf("aileron step ended at %v", results[1].Final().Position)
	}
}
