package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/surfsim/internal/actuator"
)

const (
	DefaultDt         = 0.01
	DefaultDuration   = 10.0
	DefaultDrainEvery = 10
	DefaultCircuit    = "green"
	DefaultPressurePs = 3000.0
)

var ErrInvalidConfig = errors.New("config: invalid scenario")

// Vec is a 3-vector written as [x, y, z].
type Vec [3]float64

// Config is one scenario: an assembly, the systems feeding it, the initial
// demands and the timed events. Angles are in degrees, pressures in psi.
type Config struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description,omitempty"`
	AssemblyPreset string         `yaml:"assembly_preset,omitempty"`
	Assembly       AssemblyConfig `yaml:"assembly,omitempty"`

	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	Seed        int64   `yaml:"seed"`
	DrainEvery  int     `yaml:"drain_every"`
	RecordEvery int     `yaml:"record_every,omitempty"`

	Circuits []CircuitConfig `yaml:"circuits"`
	Buses    []BusConfig     `yaml:"buses,omitempty"`
	Controls []ControlConfig `yaml:"controls"`

	// Aero is the initial aerodynamic force at the center of pressure, in N.
	Aero Vec `yaml:"aero,omitempty"`

	Events []EventConfig `yaml:"events,omitempty"`
}

type CircuitConfig struct {
	Name        string  `yaml:"name"`
	PressurePsi float64 `yaml:"pressure_psi"`
}

type BusConfig struct {
	Name    string `yaml:"name"`
	Powered bool   `yaml:"powered"`
}

// ControlConfig routes one actuator and sets its initial demand.
type ControlConfig struct {
	Supply string `yaml:"supply"`
	// Return defaults to Supply.
	Return string       `yaml:"return,omitempty"`
	Bus    string       `yaml:"bus,omitempty"`
	Demand DemandConfig `yaml:"demand"`
}

type DemandConfig struct {
	Mode           string  `yaml:"mode"`
	Position       float64 `yaml:"position"`
	Lock           bool    `yaml:"lock,omitempty"`
	LockAt         float64 `yaml:"lock_at,omitempty"`
	SoftLock       bool    `yaml:"soft_lock,omitempty"`
	SoftLockMinDps float64 `yaml:"soft_lock_min_dps,omitempty"`
	SoftLockMaxDps float64 `yaml:"soft_lock_max_dps,omitempty"`
	Electric       bool    `yaml:"electric,omitempty"`
	Refill         bool    `yaml:"refill,omitempty"`
}

// EventConfig changes the scenario at a given time. Only the fields that are
// set take effect. Demand fields apply to Actuator, or to every actuator
// when Actuator is nil.
type EventConfig struct {
	At       float64 `yaml:"at"`
	Actuator *int    `yaml:"actuator,omitempty"`

	Mode           *string  `yaml:"mode,omitempty"`
	Position       *float64 `yaml:"position,omitempty"`
	Lock           *bool    `yaml:"lock,omitempty"`
	LockAt         *float64 `yaml:"lock_at,omitempty"`
	SoftLock       *bool    `yaml:"soft_lock,omitempty"`
	SoftLockMinDps *float64 `yaml:"soft_lock_min_dps,omitempty"`
	SoftLockMaxDps *float64 `yaml:"soft_lock_max_dps,omitempty"`
	Electric       *bool    `yaml:"electric,omitempty"`
	Refill         *bool    `yaml:"refill,omitempty"`

	Circuit     string   `yaml:"circuit,omitempty"`
	PressurePsi *float64 `yaml:"pressure_psi,omitempty"`

	Bus     string `yaml:"bus,omitempty"`
	Powered *bool  `yaml:"powered,omitempty"`

	Aero *Vec `yaml:"aero,omitempty"`
	// LocalAcceleration replaces gravity, in m/s².
	LocalAcceleration *Vec `yaml:"local_acceleration,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:           "custom",
		AssemblyPreset: "aileron",
		Dt:             DefaultDt,
		Duration:       DefaultDuration,
		DrainEvery:     DefaultDrainEvery,
		Circuits:       []CircuitConfig{{Name: DefaultCircuit, PressurePsi: DefaultPressurePs}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a copy of c whose circuit, bus, control, event and actuator
// slices can be changed without touching c. Event and backup pointers are
// shared.
func (c *Config) Clone() *Config {
	out := *c
	out.Circuits = append([]CircuitConfig(nil), c.Circuits...)
	out.Buses = append([]BusConfig(nil), c.Buses...)
	out.Controls = append([]ControlConfig(nil), c.Controls...)
	out.Events = append([]EventConfig(nil), c.Events...)
	out.Assembly.Actuators = append([]ActuatorConfig(nil), c.Assembly.Actuators...)
	return &out
}

// Resolve fills the assembly from AssemblyPreset when none is given inline,
// defaults the controls and validates the result.
func (c *Config) Resolve() error {
	if len(c.Assembly.Actuators) == 0 {
		if c.AssemblyPreset == "" {
			return fmt.Errorf("%w: no assembly and no assembly_preset", ErrInvalidConfig)
		}
		a := GetAssembly(c.AssemblyPreset)
		if a == nil {
			return fmt.Errorf("%w: unknown assembly preset %q", ErrInvalidConfig, c.AssemblyPreset)
		}
		c.Assembly = *a
	}
	if c.DrainEvery <= 0 {
		c.DrainEvery = DefaultDrainEvery
	}
	if c.RecordEvery <= 0 {
		c.RecordEvery = 1
	}
	if len(c.Controls) == 0 && len(c.Circuits) > 0 {
		for range c.Assembly.Actuators {
			c.Controls = append(c.Controls, ControlConfig{
				Supply: c.Circuits[0].Name,
				Demand: DemandConfig{Mode: actuator.ClosedValves.String()},
			})
		}
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidConfig, c.Duration)
	}
	if err := c.Assembly.Validate(); err != nil {
		return err
	}
	if len(c.Controls) != len(c.Assembly.Actuators) {
		return fmt.Errorf("%w: %d controls for %d actuators", ErrInvalidConfig, len(c.Controls), len(c.Assembly.Actuators))
	}

	circuits := make(map[string]bool, len(c.Circuits))
	for _, ci := range c.Circuits {
		circuits[ci.Name] = true
	}
	buses := make(map[string]bool, len(c.Buses))
	for _, b := range c.Buses {
		buses[b.Name] = true
	}

	for i, ctl := range c.Controls {
		if !circuits[ctl.Supply] {
			return fmt.Errorf("%w: control %d: unknown supply circuit %q", ErrInvalidConfig, i, ctl.Supply)
		}
		if ctl.Return != "" && !circuits[ctl.Return] {
			return fmt.Errorf("%w: control %d: unknown return circuit %q", ErrInvalidConfig, i, ctl.Return)
		}
		if ctl.Bus != "" && !buses[ctl.Bus] {
			return fmt.Errorf("%w: control %d: unknown bus %q", ErrInvalidConfig, i, ctl.Bus)
		}
		if _, err := actuator.ParseMode(ctl.Demand.Mode); err != nil {
			return fmt.Errorf("%w: control %d: %v", ErrInvalidConfig, i, err)
		}
	}

	for i, ev := range c.Events {
		if ev.At < 0 {
			return fmt.Errorf("%w: event %d at negative time %v", ErrInvalidConfig, i, ev.At)
		}
		if ev.Actuator != nil && (*ev.Actuator < 0 || *ev.Actuator >= len(c.Controls)) {
			return fmt.Errorf("%w: event %d: actuator %d out of range", ErrInvalidConfig, i, *ev.Actuator)
		}
		if ev.Mode != nil {
			if _, err := actuator.ParseMode(*ev.Mode); err != nil {
				return fmt.Errorf("%w: event %d: %v", ErrInvalidConfig, i, err)
			}
		}
		if ev.PressurePsi != nil && !circuits[ev.Circuit] {
			return fmt.Errorf("%w: event %d: unknown circuit %q", ErrInvalidConfig, i, ev.Circuit)
		}
		if ev.Powered != nil && !buses[ev.Bus] {
			return fmt.Errorf("%w: event %d: unknown bus %q", ErrInvalidConfig, i, ev.Bus)
		}
	}
	return nil
}
