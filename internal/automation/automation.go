package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/experiment"
	"github.com/san-kum/surfsim/internal/sim"
)

var ErrUnknownParam = errors.New("automation: unknown sweep parameter")

// sweepParams set one scenario parameter on a cloned config.
var sweepParams = map[string]func(cfg *config.Config, v float64){
	"pressure_psi": func(cfg *config.Config, v float64) {
		for i := range cfg.Circuits {
			cfg.Circuits[i].PressurePsi = v
		}
	},
	"aero_y": func(cfg *config.Config, v float64) {
		cfg.Aero[1] = v
	},
	"position": func(cfg *config.Config, v float64) {
		for i := range cfg.Controls {
			cfg.Controls[i].Demand.Position = v
		}
	},
	"max_flow_gpm": func(cfg *config.Config, v float64) {
		for i := range cfg.Assembly.Actuators {
			cfg.Assembly.Actuators[i].MaxFlowGpm = v
		}
	},
	"dt": func(cfg *config.Config, v float64) {
		cfg.Dt = v
	},
}

// SweepParams lists the parameters a ParameterSweep can vary.
func SweepParams() []string {
	names := make([]string, 0, len(sweepParams))
	for k := range sweepParams {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParameterSweep varies one parameter linearly from Min to Max.
type ParameterSweep struct {
	Param    string
	Min, Max float64
	NumSteps int
}

// Values returns the NumSteps points of the sweep, Min and Max included.
func (s ParameterSweep) Values() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.Min}
	}
	out := make([]float64, s.NumSteps)
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	out[len(out)-1] = s.Max
	return out
}

type SweepResult struct {
	Value   float64
	Final   sim.Sample
	Metrics map[string]float64
}

// RunSweep runs one copy of base per sweep value, up to workers at a time.
// base must be resolved.
func RunSweep(
	ctx context.Context,
	base *config.Config,
	sweep ParameterSweep,
	reg *experiment.Registry,
	workers int,
	logger *zap.Logger,
) ([]SweepResult, error) {
	set, ok := sweepParams[sweep.Param]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, sweep.Param)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("automation: sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	values := sweep.Values()
	jobs := make([]sim.Job, len(values))
	for i, v := range values {
		cfg := base.Clone()
		set(cfg, v)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%v: %w", sweep.Param, v, err)
		}
		jobs[i] = experiment.Job(cfg, logger, reg)
	}

	logger.Info("sweep",
		zap.String("scenario", base.Name),
		zap.String("param", sweep.Param),
		zap.Int("runs", len(jobs)),
	)
	results, err := sim.RunBatch(ctx, jobs, workers)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(results))
	for i, r := range results {
		out[i] = SweepResult{Value: values[i], Final: r.Final(), Metrics: r.Metrics}
		logger.Debug("sweep point",
			zap.Float64(sweep.Param, values[i]),
			zap.Float64("final_position", out[i].Final.Position),
		)
	}
	return out, nil
}

// MonteCarloConfig runs NumTrials copies of a scenario. Trial i uses seed
// Seed+i, which draws fresh accumulator precharges, and AeroJitter is the
// half-width in N of a uniform perturbation of the aerodynamic Y force.
type MonteCarloConfig struct {
	NumTrials  int
	Seed       int64
	AeroJitter float64
}

type MonteCarloResult struct {
	TrialID int
	Seed    int64
	AeroY   float64
	Final   sim.Sample
	Metrics map[string]float64
}

// RunMonteCarlo runs the trials up to workers at a time. base must be
// resolved.
func RunMonteCarlo(
	ctx context.Context,
	base *config.Config,
	mc MonteCarloConfig,
	reg *experiment.Registry,
	workers int,
	logger *zap.Logger,
) ([]MonteCarloResult, error) {
	if mc.NumTrials < 1 {
		return nil, fmt.Errorf("automation: need at least one trial, got %d", mc.NumTrials)
	}
	if mc.AeroJitter < 0 {
		return nil, fmt.Errorf("automation: aero jitter must not be negative, got %v", mc.AeroJitter)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var jitter func() float64
	if mc.AeroJitter > 0 {
		src := rand.NewPCG(uint64(mc.Seed), 0x5eed)
		u := distuv.Uniform{Min: -mc.AeroJitter, Max: mc.AeroJitter, Src: src}
		jitter = u.Rand
	}

	out := make([]MonteCarloResult, mc.NumTrials)
	jobs := make([]sim.Job, mc.NumTrials)
	for i := range jobs {
		cfg := base.Clone()
		cfg.Seed = mc.Seed + int64(i)
		if jitter != nil {
			cfg.Aero[1] += jitter()
		}
		out[i] = MonteCarloResult{TrialID: i, Seed: cfg.Seed, AeroY: cfg.Aero[1]}
		jobs[i] = experiment.Job(cfg, logger, reg)
	}

	logger.Info("monte carlo",
		zap.String("scenario", base.Name),
		zap.Int("trials", mc.NumTrials),
		zap.Float64("aero_jitter", mc.AeroJitter),
	)
	results, err := sim.RunBatch(ctx, jobs, workers)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		out[i].Final = r.Final()
		out[i].Metrics = r.Metrics
	}
	return out, nil
}

// Stats summarizes one quantity over all trials.
type Stats struct {
	Name   string
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// MonteCarloStats summarizes the final surface position and every recorded
// metric, sorted by name. StdDev is NaN with a single trial.
func MonteCarloStats(results []MonteCarloResult) []Stats {
	if len(results) == 0 {
		return nil
	}
	series := map[string][]float64{}
	for _, r := range results {
		series["final_position"] = append(series["final_position"], r.Final.Position)
		for k, v := range r.Metrics {
			series[k] = append(series[k], v)
		}
	}

	names := make([]string, 0, len(series))
	for k := range series {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]Stats, 0, len(names))
	for _, name := range names {
		x := series[name]
		mean, std := stat.MeanStdDev(x, nil)
		out = append(out, Stats{
			Name:   name,
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(x),
			Max:    floats.Max(x),
		})
	}
	return out
}
