package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
	logger    *zap.Logger
}

// New wraps a resolved scenario. A nil logger discards output.
func New(cfg *config.Config, logger *zap.Logger) *Experiment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Experiment{
		cfg:    cfg,
		logger: logger.With(zap.String("scenario", cfg.Name)),
	}
}

func (e *Experiment) Setup(metrics []sim.Metric) error {
	w, err := BuildWorld(e.cfg)
	if err != nil {
		return fmt.Errorf("building %s: %w", e.cfg.Name, err)
	}
	e.simulator = sim.New(w, e.logger)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.SimConfig())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:          e.cfg.Dt,
		Duration:    e.cfg.Duration,
		Seed:        e.cfg.Seed,
		DrainEvery:  e.cfg.DrainEvery,
		RecordEvery: e.cfg.RecordEvery,
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Job returns a batch job that builds its own world from the scenario.
func Job(cfg *config.Config, logger *zap.Logger, reg *Registry) sim.Job {
	e := New(cfg, logger)
	return sim.Job{
		Name: cfg.Name,
		Build: func() (*sim.Simulator, error) {
			if err := e.Setup(reg.DefaultMetrics(cfg)); err != nil {
				return nil, err
			}
			return e.simulator, nil
		},
		Config: e.SimConfig(),
	}
}
