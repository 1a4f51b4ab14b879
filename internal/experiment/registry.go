package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/metrics"
	"github.com/san-kum/surfsim/internal/sim"
)

// SettlingTolerance is the normalized band used by the settling metric.
const SettlingTolerance = 0.02

type Registry struct {
	metrics map[string]func(*config.Config) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(*config.Config) sim.Metric),
	}

	r.metrics["settling_time"] = func(cfg *config.Config) sim.Metric {
		return metrics.NewSettling(FinalTarget(cfg), SettlingTolerance)
	}
	r.metrics["tracking_rms"] = func(*config.Config) sim.Metric { return metrics.NewTrackingError() }
	r.metrics["control_effort"] = func(*config.Config) sim.Metric { return metrics.NewControlEffort() }
	r.metrics["peak_force"] = func(*config.Config) sim.Metric { return metrics.NewPeakForce() }
	r.metrics["fluid_drawn_l"] = func(*config.Config) sim.Metric { return metrics.NewFluidConsumption() }
	r.metrics["backup_energy_j"] = func(*config.Config) sim.Metric { return metrics.NewBackupEnergy() }

	return r
}

func (r *Registry) GetMetric(name string, cfg *config.Config) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name](cfg))
	}
	return out
}

// FinalTarget is the surface position the first actuator is asked for once
// every scheduled event has fired, clamped to the travel.
func FinalTarget(cfg *config.Config) float64 {
	if len(cfg.Controls) == 0 {
		return 0
	}
	target := cfg.Controls[0].Demand.Position
	last := -1.0
	for _, ev := range cfg.Events {
		if ev.Position == nil || (ev.Actuator != nil && *ev.Actuator != 0) {
			continue
		}
		if ev.At >= last {
			last = ev.At
			target = *ev.Position
		}
	}
	return math.Min(math.Max(target, 0), 1)
}
