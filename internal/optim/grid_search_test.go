package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/experiment"
	"github.com/san-kum/surfsim/internal/sim"
)

func TestPoints(t *testing.T) {
	g := NewGridSearch([]string{"kp", "ki"}, [][]float64{{1, 2}, {3, 4, 5}})
	pts := g.Points()
	if len(pts) != 6 {
		t.Fatalf("expected 6 points, got %d", len(pts))
	}
	if pts[0]["kp"] != 1 || pts[0]["ki"] != 3 || pts[5]["kp"] != 2 || pts[5]["ki"] != 5 {
		t.Errorf("unexpected ordering %v", pts)
	}
}

func TestWithGains(t *testing.T) {
	base := config.GetPreset("aileron_step")
	tuned := WithGains(base, map[string]float64{"kp": 2, "force_gain": 3000})
	for i, a := range tuned.Assembly.Actuators {
		if a.Kp != 2 || a.ForceGain != 3000 {
			t.Errorf("actuator %d not tuned: %+v", i, a)
		}
		if a.Ki != base.Assembly.Actuators[i].Ki {
			t.Errorf("actuator %d: ki should be untouched", i)
		}
	}
	if base.Assembly.Actuators[0].Kp == 2 {
		t.Error("base config should not change")
	}
}

func buildStep(params map[string]float64) (*experiment.Experiment, error) {
	cfg := config.GetPreset("aileron_step")
	cfg.Duration = 4
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	cfg = WithGains(cfg, params)
	reg := experiment.NewRegistry()
	e := experiment.New(cfg, nil)
	m, err := reg.GetMetric("tracking_rms", cfg)
	if err != nil {
		return nil, err
	}
	return e, e.Setup([]sim.Metric{m})
}

func TestSearch(t *testing.T) {
	g := NewGridSearch([]string{"force_gain"}, [][]float64{{1000, 5000}})
	g.SetWorkers(2)
	params, val, err := g.Search(context.Background(), buildStep, "tracking_rms")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := params["force_gain"]; !ok {
		t.Errorf("expected force_gain in best params, got %v", params)
	}
	if val <= 0 {
		t.Errorf("expected a positive tracking error, got %v", val)
	}
}

func TestSearchAllFailed(t *testing.T) {
	g := NewGridSearch([]string{"kp"}, [][]float64{{1}})
	fail := func(map[string]float64) (*experiment.Experiment, error) { return nil, errors.New("nope") }
	if _, _, err := g.Search(context.Background(), fail, "tracking_rms"); err == nil {
		t.Error("expected error when every run fails")
	}
}

func TestSearchMismatchedRanges(t *testing.T) {
	g := NewGridSearch([]string{"kp", "ki"}, [][]float64{{1}})
	if _, _, err := g.Search(context.Background(), buildStep, "tracking_rms"); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}
