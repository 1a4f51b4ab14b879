package sim

import (
	"fmt"
	"sort"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/circuit"
)

// World is everything one run advances: the assembly, the demand driving
// each actuator and the systems supplying them.
type World struct {
	Assembly *actuator.Assembly
	Demands  []*actuator.Demand
	Network  *circuit.Network

	events []Event
}

// Event mutates the world once simulated time reaches At.
type Event struct {
	At    float64
	Name  string
	Apply func(w *World) error
}

func NewWorld(asm *actuator.Assembly, demands []*actuator.Demand, network *circuit.Network) (*World, error) {
	if len(demands) != asm.Len() {
		return nil, fmt.Errorf("%w: %d demands for %d actuators", ErrInvalidConfig, len(demands), asm.Len())
	}
	if len(network.Routes()) != asm.Len() {
		return nil, fmt.Errorf("%w: %d routes for %d actuators", ErrInvalidConfig, len(network.Routes()), asm.Len())
	}
	return &World{Assembly: asm, Demands: demands, Network: network}, nil
}

// Schedule adds events, keeping them ordered by time. Events at the same
// time fire in the order they were scheduled.
func (w *World) Schedule(events ...Event) {
	w.events = append(w.events, events...)
	sort.SliceStable(w.events, func(i, j int) bool { return w.events[i].At < w.events[j].At })
}

func (w *World) Events() []Event { return append([]Event(nil), w.events...) }

func (w *World) controllers() []actuator.Controller {
	ctrls := make([]actuator.Controller, len(w.Demands))
	for i, d := range w.Demands {
		ctrls[i] = d
	}
	return ctrls
}
