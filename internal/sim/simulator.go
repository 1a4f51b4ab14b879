package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/surfsim/internal/actuator"
)

// Simulator advances a World tick by tick: due events, supplies, the
// assembly update, then fluid collection every DrainEvery ticks.
type Simulator struct {
	world     *World
	logger    *zap.Logger
	metrics   []Metric
	observers []Observer

	ctrls      []actuator.Controller
	supplies   []actuator.Supply
	time       float64
	step       int
	nextEvent  int
	drainEvery int

	modes  []actuator.Mode
	locked bool
	backup []bool
}

func New(world *World, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Simulator{
		world:      world,
		logger:     logger,
		ctrls:      world.controllers(),
		drainEvery: 1,
		modes:      make([]actuator.Mode, world.Assembly.Len()),
		backup:     make([]bool, world.Assembly.Len()),
	}
	for i, a := range world.Assembly.Actuators() {
		s.modes[i] = a.Mode()
	}
	s.locked = world.Assembly.Body().IsLocked()
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) World() *World     { return s.world }
func (s *Simulator) Time() float64     { return s.time }
func (s *Simulator) Steps() int        { return s.step }
func (s *Simulator) Metrics() []Metric { return s.metrics }

// SetDrainEvery sets how many ticks pass between fluid collections.
func (s *Simulator) SetDrainEvery(n int) {
	if n < 1 {
		n = 1
	}
	s.drainEvery = n
}

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	s.SetDrainEvery(cfg.DrainEvery)
	recordEvery := cfg.RecordEvery
	if recordEvery < 1 {
		recordEvery = 1
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	result := &Result{
		Samples: make([]Sample, 0, steps/recordEvery+2),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.Samples = append(result.Samples, s.Sample())
	s.logger.Debug("run started",
		zap.Int("steps", steps),
		zap.Float64("dt", cfg.Dt),
		zap.Int("actuators", s.world.Assembly.Len()),
	)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sample, err := s.Step(cfg.Dt)
		if err != nil {
			return result, err
		}
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(&sample)
		}
		for _, obs := range s.observers {
			obs.OnStep(&sample)
		}

		if (i+1)%recordEvery == 0 || i == steps-1 {
			result.Samples = append(result.Samples, sample)
		}
	}

	s.drain()
	for _, c := range s.world.Network.Circuits() {
		result.Circuits = append(result.Circuits, CircuitTotals{Name: c.Name, Drawn: c.Drawn, Returned: c.Returned})
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("position", s.world.Assembly.Position()),
	)
	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	return nil
}

// Step applies due events and advances the world by dt.
func (s *Simulator) Step(dt float64) (Sample, error) {
	if err := s.applyEvents(dt); err != nil {
		return Sample{}, err
	}

	w := s.world
	s.supplies = w.Network.Supplies(s.supplies)
	w.Assembly.Update(dt, s.ctrls, s.supplies)
	s.time += dt
	s.step++

	if s.step%s.drainEvery == 0 {
		s.drain()
	}
	s.logTransitions()

	sample := s.Sample()
	if !sample.IsValid() {
		return sample, &SimulationError{Step: s.step, Time: s.time, Wrapped: ErrNonFinite}
	}
	return sample, nil
}

func (s *Simulator) applyEvents(dt float64) error {
	events := s.world.events
	for s.nextEvent < len(events) && events[s.nextEvent].At <= s.time+dt/2 {
		ev := events[s.nextEvent]
		s.nextEvent++
		if err := ev.Apply(s.world); err != nil {
			return &SimulationError{Step: s.step, Time: s.time, Wrapped: fmt.Errorf("%w: %s: %v", ErrEvent, ev.Name, err)}
		}
		s.logger.Debug("event", zap.String("name", ev.Name), zap.Float64("t", s.time))
	}
	return nil
}

func (s *Simulator) drain() {
	if err := s.world.Network.Collect(s.world.Assembly); err != nil {
		s.logger.Error("collecting fluid volumes", zap.Error(err))
	}
}

func (s *Simulator) logTransitions() {
	asm := s.world.Assembly
	for i, a := range asm.Actuators() {
		if m := a.Mode(); m != s.modes[i] {
			s.logger.Debug("mode transition",
				zap.Int("actuator", i),
				zap.Stringer("from", s.modes[i]),
				zap.Stringer("to", m),
				zap.Float64("t", s.time),
			)
			s.modes[i] = m
		}
		if b := a.Backup(); b != nil && b.IsActive() != s.backup[i] {
			s.backup[i] = b.IsActive()
			s.logger.Debug("backup", zap.Int("actuator", i), zap.Bool("active", s.backup[i]), zap.Float64("t", s.time))
		}
	}
	if l := asm.Body().IsLocked(); l != s.locked {
		s.locked = l
		s.logger.Debug("lock", zap.Bool("locked", l), zap.Float64("position", asm.Position()), zap.Float64("t", s.time))
	}
}

// Sample reads the current state. Volumes include what the actuators hold
// since the last collection.
func (s *Simulator) Sample() Sample {
	asm := s.world.Assembly
	b := asm.Body()
	out := Sample{
		Time:           s.time,
		Position:       asm.Position(),
		Angle:          b.Angle(),
		AngularSpeed:   b.AngularSpeed(),
		ReactionTorque: asm.ReactionTorque(),
		Locked:         b.IsLocked(),
		SoftLocked:     b.IsSoftLocked(),
		Actuators:      make([]ActuatorSample, asm.Len()),
	}
	for _, c := range s.world.Network.Circuits() {
		out.Drawn += c.Drawn
		out.Returned += c.Returned
	}
	for i, a := range asm.Actuators() {
		out.Drawn += a.UsedVolume()
		out.Returned += a.ReservoirReturn()
		as := ActuatorSample{
			Mode:      a.Mode(),
			Requested: a.RequestedPosition(),
			Position:  a.PositionNormalized(),
			Length:    a.Length(),
			Speed:     a.Speed(),
			Flow:      a.SignedFlow(),
			Force:     a.Force(),
		}
		if bk := a.Backup(); bk != nil {
			as.BackupActive = bk.IsActive()
			as.BackupPower = bk.ConsumedPower()
			as.AccumulatorPressure = bk.AccumulatorPressure()
		}
		out.Actuators[i] = as
	}
	return out
}
