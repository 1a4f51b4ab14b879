// Package circuit stands in for the aircraft hydraulic and electrical
// systems around an actuator assembly: it supplies pressure and bus power
// per actuator and collects the fluid the actuators draw and return.
package circuit

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/surfsim/internal/actuator"
)

var (
	ErrUnknownCircuit = errors.New("circuit: unknown hydraulic circuit")
	ErrUnknownBus     = errors.New("circuit: unknown electrical bus")
	ErrRouteCount     = errors.New("circuit: route count does not match actuator count")
)

// Circuit is a hydraulic circuit with a set pressure in Pa. Volumes are
// cumulative, in m³.
type Circuit struct {
	Name     string
	Pressure float64

	Drawn    float64
	Returned float64
}

type Bus struct {
	Name    string
	Powered bool
}

// Route connects one actuator to its circuits and bus. An empty Return
// credits return flow to the Supply circuit; an empty Bus is always
// unpowered.
type Route struct {
	Supply string
	Return string
	Bus    string
}

func (r Route) returnCircuit() string {
	if r.Return == "" {
		return r.Supply
	}
	return r.Return
}

type Network struct {
	circuits map[string]*Circuit
	buses    map[string]*Bus
	routes   []Route
}

func NewNetwork() *Network {
	return &Network{
		circuits: make(map[string]*Circuit),
		buses:    make(map[string]*Bus),
	}
}

func (n *Network) AddCircuit(name string, pressure float64) *Circuit {
	c := &Circuit{Name: name, Pressure: pressure}
	n.circuits[name] = c
	return c
}

func (n *Network) AddBus(name string, powered bool) *Bus {
	b := &Bus{Name: name, Powered: powered}
	n.buses[name] = b
	return b
}

// Connect sets the routes, one per actuator in assembly order.
func (n *Network) Connect(routes ...Route) error {
	for i, r := range routes {
		if _, ok := n.circuits[r.Supply]; !ok {
			return fmt.Errorf("%w: route %d supply %q", ErrUnknownCircuit, i, r.Supply)
		}
		if _, ok := n.circuits[r.returnCircuit()]; !ok {
			return fmt.Errorf("%w: route %d return %q", ErrUnknownCircuit, i, r.Return)
		}
		if r.Bus != "" {
			if _, ok := n.buses[r.Bus]; !ok {
				return fmt.Errorf("%w: route %d bus %q", ErrUnknownBus, i, r.Bus)
			}
		}
	}
	n.routes = append([]Route(nil), routes...)
	return nil
}

func (n *Network) SetPressure(name string, pressure float64) error {
	c, ok := n.circuits[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCircuit, name)
	}
	c.Pressure = pressure
	return nil
}

func (n *Network) SetPowered(name string, powered bool) error {
	b, ok := n.buses[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBus, name)
	}
	b.Powered = powered
	return nil
}

// Supplies fills dst with the per-actuator supply for this tick, growing it
// as needed.
func (n *Network) Supplies(dst []actuator.Supply) []actuator.Supply {
	dst = dst[:0]
	for _, r := range n.routes {
		s := actuator.Supply{Pressure: n.circuits[r.Supply].Pressure}
		if b, ok := n.buses[r.Bus]; ok {
			s.Powered = b.Powered
		}
		dst = append(dst, s)
	}
	return dst
}

// Collect moves every actuator's accumulated volumes into its circuits and
// resets them. Call once per outer tick.
func (n *Network) Collect(asm *actuator.Assembly) error {
	if asm.Len() != len(n.routes) {
		return fmt.Errorf("%w: %d routes for %d actuators", ErrRouteCount, len(n.routes), asm.Len())
	}
	for i, r := range n.routes {
		act := asm.Actuator(i)
		n.circuits[r.Supply].Drawn += act.UsedVolume()
		n.circuits[r.returnCircuit()].Returned += act.ReservoirReturn()
		act.ResetVolumes()
	}
	return nil
}

func (n *Network) Circuit(name string) (*Circuit, bool) {
	c, ok := n.circuits[name]
	return c, ok
}

func (n *Network) Bus(name string) (*Bus, bool) {
	b, ok := n.buses[name]
	return b, ok
}

// Circuits returns the circuits sorted by name.
func (n *Network) Circuits() []*Circuit {
	out := make([]*Circuit, 0, len(n.circuits))
	for _, c := range n.circuits {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (n *Network) Routes() []Route { return append([]Route(nil), n.routes...) }
