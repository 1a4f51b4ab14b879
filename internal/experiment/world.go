package experiment

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/body"
	"github.com/san-kum/surfsim/internal/circuit"
	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/sim"
	"github.com/san-kum/surfsim/internal/units"
)

// BuildWorld assembles the body, actuators, circuits and scheduled events a
// resolved scenario describes. Accumulator precharges are drawn from a
// source seeded with cfg.Seed.
func BuildWorld(cfg *config.Config) (*sim.World, error) {
	b, err := body.New(cfg.Assembly.Body.Build())
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	b.ApplyAeroForces(cfg.Aero.R3())

	src := rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15)
	acts := make([]*actuator.LinearActuator, len(cfg.Assembly.Actuators))
	for i, ac := range cfg.Assembly.Actuators {
		ch, err := ac.Build()
		if err != nil {
			return nil, fmt.Errorf("actuator %d: %w", i, err)
		}
		if acts[i], err = actuator.NewLinearActuator(b, ch, src); err != nil {
			return nil, fmt.Errorf("actuator %d: %w", i, err)
		}
	}

	network := circuit.NewNetwork()
	for _, c := range cfg.Circuits {
		network.AddCircuit(c.Name, units.Psi(c.PressurePsi))
	}
	for _, bus := range cfg.Buses {
		network.AddBus(bus.Name, bus.Powered)
	}

	routes := make([]circuit.Route, len(cfg.Controls))
	demands := make([]*actuator.Demand, len(cfg.Controls))
	for i, ctl := range cfg.Controls {
		routes[i] = circuit.Route{Supply: ctl.Supply, Return: ctl.Return, Bus: ctl.Bus}
		d, err := buildDemand(ctl.Demand)
		if err != nil {
			return nil, fmt.Errorf("control %d: %w", i, err)
		}
		demands[i] = d
	}
	if err := network.Connect(routes...); err != nil {
		return nil, err
	}

	w, err := sim.NewWorld(actuator.NewAssembly(b, acts...), demands, network)
	if err != nil {
		return nil, err
	}
	for _, ev := range cfg.Events {
		w.Schedule(buildEvent(ev))
	}
	return w, nil
}

func buildDemand(dc config.DemandConfig) (*actuator.Demand, error) {
	mode, err := actuator.ParseMode(dc.Mode)
	if err != nil {
		return nil, err
	}
	return &actuator.Demand{
		Mode:         mode,
		Position:     dc.Position,
		Lock:         dc.Lock,
		LockAt:       dc.LockAt,
		SoftLock:     dc.SoftLock,
		SoftLockMin:  units.DegPerSecond(dc.SoftLockMinDps),
		SoftLockMax:  units.DegPerSecond(dc.SoftLockMaxDps),
		ElectricMode: dc.Electric,
		Refill:       dc.Refill,
	}, nil
}

func buildEvent(ev config.EventConfig) sim.Event {
	return sim.Event{
		At:   ev.At,
		Name: eventName(ev),
		Apply: func(w *sim.World) error {
			return applyEvent(w, ev)
		},
	}
}

func applyEvent(w *sim.World, ev config.EventConfig) error {
	targets := w.Demands
	if ev.Actuator != nil {
		targets = w.Demands[*ev.Actuator : *ev.Actuator+1]
	}
	for _, d := range targets {
		if ev.Mode != nil {
			mode, err := actuator.ParseMode(*ev.Mode)
			if err != nil {
				return err
			}
			d.Mode = mode
		}
		if ev.Position != nil {
			d.Position = *ev.Position
		}
		if ev.Lock != nil {
			d.Lock = *ev.Lock
		}
		if ev.LockAt != nil {
			d.LockAt = *ev.LockAt
		}
		if ev.SoftLock != nil {
			d.SoftLock = *ev.SoftLock
		}
		if ev.SoftLockMinDps != nil {
			d.SoftLockMin = units.DegPerSecond(*ev.SoftLockMinDps)
		}
		if ev.SoftLockMaxDps != nil {
			d.SoftLockMax = units.DegPerSecond(*ev.SoftLockMaxDps)
		}
		if ev.Electric != nil {
			d.ElectricMode = *ev.Electric
		}
		if ev.Refill != nil {
			d.Refill = *ev.Refill
		}
	}

	if ev.PressurePsi != nil {
		if err := w.Network.SetPressure(ev.Circuit, units.Psi(*ev.PressurePsi)); err != nil {
			return err
		}
	}
	if ev.Powered != nil {
		if err := w.Network.SetPowered(ev.Bus, *ev.Powered); err != nil {
			return err
		}
	}

	b := w.Assembly.Body()
	if ev.Aero != nil {
		b.ApplyAeroForces(ev.Aero.R3())
	}
	if ev.LocalAcceleration != nil {
		b.SetLocalAcceleration(ev.LocalAcceleration.R3())
	}
	return nil
}

func eventName(ev config.EventConfig) string {
	var parts []string
	who := "all"
	if ev.Actuator != nil {
		who = fmt.Sprintf("#%d", *ev.Actuator)
	}
	if ev.Mode != nil {
		parts = append(parts, fmt.Sprintf("%s mode=%s", who, *ev.Mode))
	}
	if ev.Position != nil {
		parts = append(parts, fmt.Sprintf("%s position=%.3f", who, *ev.Position))
	}
	if ev.Lock != nil {
		parts = append(parts, fmt.Sprintf("%s lock=%t", who, *ev.Lock))
	}
	if ev.SoftLock != nil {
		parts = append(parts, fmt.Sprintf("%s soft_lock=%t", who, *ev.SoftLock))
	}
	if ev.Electric != nil {
		parts = append(parts, fmt.Sprintf("%s electric=%t", who, *ev.Electric))
	}
	if ev.Refill != nil {
		parts = append(parts, fmt.Sprintf("%s refill=%t", who, *ev.Refill))
	}
	if ev.PressurePsi != nil {
		parts = append(parts, fmt.Sprintf("%s=%.0fpsi", ev.Circuit, *ev.PressurePsi))
	}
	if ev.Powered != nil {
		parts = append(parts, fmt.Sprintf("%s powered=%t", ev.Bus, *ev.Powered))
	}
	if ev.Aero != nil {
		parts = append(parts, fmt.Sprintf("aero=%v", *ev.Aero))
	}
	if ev.LocalAcceleration != nil {
		parts = append(parts, fmt.Sprintf("accel=%v", *ev.LocalAcceleration))
	}
	if len(parts) == 0 {
		return "noop"
	}
	return strings.Join(parts, " ")
}
