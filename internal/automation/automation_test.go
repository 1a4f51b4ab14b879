package automation

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/experiment"
)

func resolved(t *testing.T, name string) *config.Config {
	t.Helper()
	cfg := config.GetPreset(name)
	if err := cfg.Resolve(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestSweepValues(t *testing.T) {
	got := ParameterSweep{Param: "pressure_psi", Min: 0, Max: 3000, NumSteps: 4}.Values()
	want := []float64{0, 1000, 2000, 3000}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if v := (ParameterSweep{Min: 7, Max: 9, NumSteps: 1}).Values(); len(v) != 1 || v[0] != 7 {
		t.Errorf("single step should give Min, got %v", v)
	}
}

func TestSweepParams(t *testing.T) {
	names := SweepParams()
	if len(names) != 5 || names[0] != "aero_y" {
		t.Errorf("unexpected params %v", names)
	}
}

func TestRunSweep(t *testing.T) {
	base := resolved(t, "aileron_step")
	base.Duration = 2
	core, logs := observer.New(zap.InfoLevel)

	sweep := ParameterSweep{Param: "max_flow_gpm", Min: 0.5, Max: 2.5, NumSteps: 2}
	results, err := RunSweep(context.Background(), base, sweep, experiment.NewRegistry(), 2, zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Value != 0.5 || results[1].Value != 2.5 {
		t.Fatalf("unexpected results %+v", results)
	}
	if results[0].Final.Position >= results[1].Final.Position {
		t.Errorf("slower actuators should lag: %v vs %v", results[0].Final.Position, results[1].Final.Position)
	}
	if len(results[1].Metrics) != 6 {
		t.Errorf("expected default metrics, got %v", results[1].Metrics)
	}
	if base.Assembly.Actuators[0].MaxFlowGpm != 2.5 {
		t.Error("sweep must not modify the base scenario")
	}
	if logs.FilterMessage("sweep").Len() != 1 {
		t.Error("expected the sweep to be logged")
	}
}

func TestRunSweepErrors(t *testing.T) {
	base := resolved(t, "aileron_step")
	reg := experiment.NewRegistry()
	ctx := context.Background()

	_, err := RunSweep(ctx, base, ParameterSweep{Param: "viscosity", NumSteps: 2}, reg, 1, nil)
	if !errors.Is(err, ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	if _, err := RunSweep(ctx, base, ParameterSweep{Param: "dt", NumSteps: 0}, reg, 1, nil); err == nil {
		t.Error("expected error for zero steps")
	}
	_, err = RunSweep(ctx, base, ParameterSweep{Param: "dt", Min: -0.01, Max: 0.01, NumSteps: 2}, reg, 1, nil)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for negative dt, got %v", err)
	}
}

func TestRunMonteCarlo(t *testing.T) {
	base := resolved(t, "spoiler_backup")
	base.Duration = 0.5
	mc := MonteCarloConfig{NumTrials: 3, Seed: 11, AeroJitter: 500}
	reg := experiment.NewRegistry()

	results, err := RunMonteCarlo(context.Background(), base, mc, reg, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(results))
	}
	for i, r := range results {
		if r.TrialID != i || r.Seed != 11+int64(i) {
			t.Errorf("trial %d: unexpected id/seed %d/%d", i, r.TrialID, r.Seed)
		}
		if math.Abs(r.AeroY-base.Aero[1]) > 500 {
			t.Errorf("trial %d: jitter out of range: %v", i, r.AeroY)
		}
	}
	if results[0].AeroY == results[1].AeroY {
		t.Error("trials should draw different aero loads")
	}

	again, err := RunMonteCarlo(context.Background(), base, mc, reg, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range results {
		if again[i].AeroY != results[i].AeroY || again[i].Final.Position != results[i].Final.Position {
			t.Errorf("trial %d not reproducible", i)
		}
	}
	if base.Aero[1] != 0 || base.Seed != config.GetPreset("spoiler_backup").Seed {
		t.Error("monte carlo must not modify the base scenario")
	}
}

func TestRunMonteCarloErrors(t *testing.T) {
	base := resolved(t, "spoiler_backup")
	reg := experiment.NewRegistry()
	if _, err := RunMonteCarlo(context.Background(), base, MonteCarloConfig{}, reg, 1, nil); err == nil {
		t.Error("expected error for zero trials")
	}
	mc := MonteCarloConfig{NumTrials: 1, AeroJitter: -1}
	if _, err := RunMonteCarlo(context.Background(), base, mc, reg, 1, nil); err == nil {
		t.Error("expected error for negative jitter")
	}
}

func TestMonteCarloStats(t *testing.T) {
	results := []MonteCarloResult{
		{Metrics: map[string]float64{"overshoot": 1}},
		{Metrics: map[string]float64{"overshoot": 3}},
	}
	results[0].Final.Position = 0.2
	results[1].Final.Position = 0.4

	stats := MonteCarloStats(results)
	if len(stats) != 2 || stats[0].Name != "final_position" || stats[1].Name != "overshoot" {
		t.Fatalf("unexpected stats %+v", stats)
	}
	o := stats[1]
	if o.Mean != 2 || o.Min != 1 || o.Max != 3 || math.Abs(o.StdDev-math.Sqrt2) > 1e-12 {
		t.Errorf("unexpected overshoot stats %+v", o)
	}
	if math.Abs(stats[0].Mean-0.3) > 1e-12 {
		t.Errorf("unexpected final position mean %v", stats[0].Mean)
	}
	if MonteCarloStats(nil) != nil {
		t.Error("expected nil stats for no trials")
	}
}
