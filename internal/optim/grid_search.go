package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/experiment"
)

// GridSearch evaluates every combination of parameter values and keeps the
// one with the lowest metric, the earliest point winning ties. Negative
// metric values mark a failed run, as settling_time does for a surface that
// never settles.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}
}

// SetWorkers bounds the number of concurrent runs.
func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Points returns every parameter combination in the grid.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val
		g.collect(depth+1, newParams, out)
	}
}

func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	var (
		mu         sync.Mutex
		best       = math.Inf(1)
		bestIdx    = -1
		bestParams map[string]float64
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, params := range g.Points() {
		eg.Go(func() error {
			exp, err := buildExperiment(params)
			if err != nil {
				return nil
			}
			result, err := exp.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			val, ok := result.Metrics[metricName]
			if !ok {
				return fmt.Errorf("optim: metric %q not recorded", metricName)
			}
			if val < 0 || math.IsNaN(val) {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if val < best || (val == best && i < bestIdx) {
				best = val
				bestIdx = i
				bestParams = params
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("optim: no run in the grid produced %q", metricName)
	}
	return bestParams, best, nil
}

// WithGains returns a copy of cfg with the flow loop gains named in params
// (kp, ki, kd, force_gain) set on every actuator.
func WithGains(cfg *config.Config, params map[string]float64) *config.Config {
	out := *cfg
	out.Assembly.Actuators = append([]config.ActuatorConfig(nil), cfg.Assembly.Actuators...)
	for i := range out.Assembly.Actuators {
		a := &out.Assembly.Actuators[i]
		if v, ok := params["kp"]; ok {
			a.Kp = v
		}
		if v, ok := params["ki"]; ok {
			a.Ki = v
		}
		if v, ok := params["kd"]; ok {
			a.Kd = v
		}
		if v, ok := params["force_gain"]; ok {
			a.ForceGain = v
		}
	}
	return &out
}
