package config

import "sort"

// Assemblies are the built-in surfaces. Each call returns a fresh copy.
var Assemblies = map[string]func() AssemblyConfig{
	"cargo_door": cargoDoor,
	"aileron":    aileron,
	"spoiler":    spoiler,
	"elevator":   elevator,
}

// Presets are the built-in scenarios, keyed by name.
var Presets = map[string]func() *Config{
	"door_open": func() *Config {
		c := scenario("door_open", "cargo_door", 25)
		c.Description = "unlocked cargo door opening at nominal pressure"
		c.Controls = []ControlConfig{{Supply: "green", Demand: DemandConfig{Mode: "position_control", Position: 1.1}}}
		return c
	},
	"door_unpressurized": func() *Config {
		c := scenario("door_unpressurized", "cargo_door", 25)
		c.Description = "cargo door commanded open with no hydraulic pressure"
		c.Circuits[0].PressurePsi = 0
		c.Controls = []ControlConfig{{Supply: "green", Demand: DemandConfig{Mode: "position_control", Position: 1.1}}}
		return c
	},
	"door_pressure_loss": func() *Config {
		c := scenario("door_pressure_loss", "cargo_door", 14)
		c.Description = "green circuit lost four seconds into a door opening"
		c.Controls = []ControlConfig{{Supply: "green", Demand: DemandConfig{Mode: "position_control", Position: 1.1}}}
		c.Events = []EventConfig{{At: 4, Circuit: "green", PressurePsi: ptr(0.0)}}
		return c
	},
	"aileron_step": func() *Config {
		c := scenario("aileron_step", "aileron", 6)
		c.Description = "aileron step from neutral, one actuator active and one damping"
		c.Circuits = append(c.Circuits, CircuitConfig{Name: "blue", PressurePsi: 3000})
		c.Controls = []ControlConfig{
			{Supply: "green", Demand: DemandConfig{Mode: "position_control", Position: 0.5}},
			{Supply: "blue", Demand: DemandConfig{Mode: "active_damping", Position: 0.5}},
		}
		c.Events = []EventConfig{{At: 1, Position: ptr(0.8)}}
		return c
	},
	"aileron_lock": func() *Config {
		c := scenario("aileron_lock", "aileron", 4)
		c.Description = "aileron driven up while the damping actuator requests a lock"
		c.Circuits = append(c.Circuits, CircuitConfig{Name: "blue", PressurePsi: 3000})
		c.Controls = []ControlConfig{
			{Supply: "green", Demand: DemandConfig{Mode: "position_control", Position: 1}},
			{Supply: "blue", Demand: DemandConfig{Mode: "active_damping", Position: 0.5}},
		}
		c.Events = []EventConfig{{At: 0.2, Actuator: ptr(1), Lock: ptr(true), LockAt: ptr(0.9)}}
		return c
	},
	"spoiler_backup": func() *Config {
		c := scenario("spoiler_backup", "spoiler", 2)
		c.Description = "spoiler extended on its electro-hydrostatic backup with the circuit depressurized"
		c.Circuits[0].PressurePsi = 0
		c.Buses = []BusConfig{{Name: "ac_ess", Powered: true}}
		c.Controls = []ControlConfig{{
			Supply: "green", Bus: "ac_ess",
			Demand: DemandConfig{Mode: "position_control", Position: 1, Electric: true},
		}}
		c.Events = []EventConfig{{At: 1.2, Bus: "ac_ess", Powered: ptr(false)}}
		return c
	},
	"spoiler_soft_lock": func() *Config {
		c := scenario("spoiler_soft_lock", "spoiler", 6)
		c.Description = "half-deployed spoiler held by a soft lock against air load, then released upward"
		c.Assembly = spoiler()
		c.Assembly.Body.InitialPosition = 0.5
		c.Aero = Vec{0, -2000, 0}
		c.Controls = []ControlConfig{{
			Supply: "green",
			Demand: DemandConfig{Mode: "active_damping", Position: 0.5, SoftLock: true},
		}}
		c.Events = []EventConfig{{
			At:             2,
			Mode:           ptr("position_control"),
			Position:       ptr(1.0),
			SoftLockMaxDps: ptr(300.0),
		}}
		return c
	},
	"elevator_gust": func() *Config {
		c := scenario("elevator_gust", "elevator", 6)
		c.Description = "elevator held at neutral through a gust, then commanded nose down"
		c.Circuits = append(c.Circuits, CircuitConfig{Name: "yellow", PressurePsi: 3000})
		neutral := 30.0 / 47.0
		c.Controls = []ControlConfig{
			{Supply: "green", Demand: DemandConfig{Mode: "position_control", Position: neutral}},
			{Supply: "yellow", Demand: DemandConfig{Mode: "active_damping", Position: neutral}},
		}
		c.Events = []EventConfig{
			{At: 1, Aero: &Vec{0, 1000, 0}},
			{At: 1.5, Aero: &Vec{}},
			{At: 3, Position: ptr(0.3)},
		}
		return c
	},
}

func scenario(name, assembly string, duration float64) *Config {
	return &Config{
		Name:           name,
		AssemblyPreset: assembly,
		Assembly:       Assemblies[assembly](),
		Dt:             DefaultDt,
		Duration:       duration,
		Seed:           1,
		DrainEvery:     DefaultDrainEvery,
		RecordEvery:    1,
		Circuits:       []CircuitConfig{{Name: DefaultCircuit, PressurePsi: DefaultPressurePs}},
	}
}

func GetPreset(name string) *Config {
	if p, ok := Presets[name]; ok {
		return p()
	}
	return nil
}

func ListPresets() []string {
	return sortedKeys(Presets)
}

func GetAssembly(name string) *AssemblyConfig {
	if a, ok := Assemblies[name]; ok {
		cfg := a()
		return &cfg
	}
	return nil
}

func ListAssemblies() []string {
	return sortedKeys(Assemblies)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ptr[T any](v T) *T { return &v }

func endStops() *TableConfig {
	return &TableConfig{X: []float64{0, 0.05, 0.95, 1}, Y: []float64{0.5, 1, 1, 0.5}}
}

// cargoDoor is a 100 kg door hinged along its top edge, opening to 120°.
// It starts closed on its uplock.
func cargoDoor() AssemblyConfig {
	return AssemblyConfig{
		Body: BodyConfig{
			Mass:             100,
			Size:             Vec{0.1, 1.6, 1.8},
			CenterOfGravity:  Vec{0, -0.8, 0},
			CenterOfPressure: Vec{0, -0.8, 0},
			ControlArm:       Vec{-0.2165, -0.125, 0},
			Anchor:           Vec{-0.8, 0, 0},
			HingeAxis:        Vec{0, 0, 1},
			MinAngleDeg:      0,
			MaxAngleDeg:      120,
			NaturalDamping:   50,
			MaxSpeedDps:      57.3,
			LimitRestitution: 0.3,
			Locked:           true,
		},
		Actuators: []ActuatorConfig{{
			BoreDiameter:           0.04,
			RodDiameter:            0.025,
			MaxFlowGpm:             1.25,
			FlowErrorThreshold:     0.1,
			ExtensionFlow:          endStops(),
			RetractionFlow:         endStops(),
			NominalPressurePsi:     3000,
			ExitPositionControlPsi: 100,
			SpringConstant:         800000,
			FluidDamping:           50000,
			ActiveDamping:          20000,
			SlowDamping:            50000,
			SlowDampingFilter:      0.1,
			EnvelopeFilter:         0.05,
			MaxForce:               60000,
			Kp:                     0.6,
			Ki:                     0.64,
			ForceGain:              5000,
		}},
	}
}

func aileronActuator() ActuatorConfig {
	return ActuatorConfig{
		BoreDiameter:           0.0635,
		RodDiameter:            0.035,
		MaxFlowGpm:             2.5,
		FlowErrorThreshold:     0.2,
		NominalPressurePsi:     3000,
		ExitPositionControlPsi: 100,
		SpringConstant:         50700,
		FluidDamping:           10000,
		ActiveDamping:          2000,
		SlowDamping:            5000,
		SlowDampingFilter:      0.1,
		EnvelopeFilter:         0.05,
		MaxForce:               80000,
		Kp:                     0.5,
		Ki:                     1.5,
		ForceGain:              1000,
	}
}

// aileron is a ±25° surface driven by two identical actuators.
func aileron() AssemblyConfig {
	return AssemblyConfig{
		Body: BodyConfig{
			Mass:             25,
			Size:             Vec{3.0, 0.1, 0.5},
			CenterOfGravity:  Vec{0, 0, -0.2},
			CenterOfPressure: Vec{0, 0, -0.25},
			ControlArm:       Vec{0, -0.06, 0},
			Anchor:           Vec{0, -0.06, 0.25},
			HingeAxis:        Vec{1, 0, 0},
			MinAngleDeg:      -25,
			MaxAngleDeg:      25,
			InitialPosition:  0.5,
			NaturalDamping:   5,
			MaxSpeedDps:      172,
			LimitRestitution: 0.3,
		},
		Actuators: []ActuatorConfig{aileronActuator(), aileronActuator()},
	}
}

// spoiler deploys upward only and carries an electro-hydrostatic backup.
func spoiler() AssemblyConfig {
	return AssemblyConfig{
		Body: BodyConfig{
			Mass:             12,
			Size:             Vec{1.6, 0.05, 0.6},
			CenterOfGravity:  Vec{0, 0, -0.22},
			CenterOfPressure: Vec{0, 0, -0.3},
			ControlArm:       Vec{0, -0.07, 0},
			Anchor:           Vec{0, -0.07, 0.3},
			HingeAxis:        Vec{1, 0, 0},
			MinAngleDeg:      0,
			MaxAngleDeg:      50,
			NaturalDamping:   2,
			MaxSpeedDps:      230,
			LimitRestitution: 0.3,
		},
		Actuators: []ActuatorConfig{{
			BoreDiameter:           0.05,
			RodDiameter:            0.025,
			MaxFlowGpm:             4,
			FlowErrorThreshold:     0.1,
			NominalPressurePsi:     3000,
			ExitPositionControlPsi: 100,
			SpringConstant:         60000,
			FluidDamping:           8000,
			ActiveDamping:          2000,
			SlowDamping:            3000,
			SlowDampingFilter:      0.1,
			EnvelopeFilter:         0.05,
			MaxForce:               50000,
			Kp:                     0.5,
			Ki:                     2,
			ForceGain:              2000,
			Backup: &BackupConfig{
				Kind:                 "hydraulic_or_electric",
				NominalPressurePsi:   3000,
				AccumulatorMaxPsi:    3000,
				AccumulatorMinPsi:    500,
				AccumulatorMeanPsi:   2000,
				AccumulatorSigmaPsi:  200,
				AccumulatorFilter:    0.5,
				RefillFlowGpm:        0.016,
				PumpDisplacementCC:   1,
				PumpSpeedFilter:      0.1,
				EfficiencyMultiplier: 1.5,
				StaticPower:          100,
			},
		}},
	}
}

// elevator travels -30° to +17° and is driven by two actuators.
func elevator() AssemblyConfig {
	act := ActuatorConfig{
		BoreDiameter:           0.07,
		RodDiameter:            0.04,
		MaxFlowGpm:             3,
		FlowErrorThreshold:     0.2,
		NominalPressurePsi:     3000,
		ExitPositionControlPsi: 100,
		SpringConstant:         63000,
		FluidDamping:           12000,
		ActiveDamping:          2500,
		SlowDamping:            6000,
		SlowDampingFilter:      0.1,
		EnvelopeFilter:         0.05,
		MaxForce:               90000,
		Kp:                     0.5,
		Ki:                     1.5,
		ForceGain:              5000,
	}
	return AssemblyConfig{
		Body: BodyConfig{
			Mass:             40,
			Size:             Vec{4, 0.08, 0.8},
			CenterOfGravity:  Vec{0, 0, -0.25},
			CenterOfPressure: Vec{0, 0, -0.3},
			ControlArm:       Vec{0, -0.08, 0},
			Anchor:           Vec{0, -0.08, 0.3},
			HingeAxis:        Vec{1, 0, 0},
			MinAngleDeg:      -30,
			MaxAngleDeg:      17,
			InitialPosition:  30.0 / 47.0,
			NaturalDamping:   8,
			MaxSpeedDps:      60,
			LimitRestitution: 0.3,
		},
		Actuators: []ActuatorConfig{act, act},
	}
}
