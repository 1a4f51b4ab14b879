package circuit_test

import (
	"errors"
	"testing"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/body"
	"github.com/san-kum/surfsim/internal/circuit"
	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/units"
)

func buildAssembly(t *testing.T, name string) *actuator.Assembly {
	t.Helper()
	ac := config.GetAssembly(name)
	b, err := body.New(ac.Body.Build())
	if err != nil {
		t.Fatal(err)
	}
	acts := make([]*actuator.LinearActuator, len(ac.Actuators))
	for i, a := range ac.Actuators {
		ch, err := a.Build()
		if err != nil {
			t.Fatal(err)
		}
		if acts[i], err = actuator.NewLinearActuator(b, ch, nil); err != nil {
			t.Fatal(err)
		}
	}
	return actuator.NewAssembly(b, acts...)
}

func newNetwork(t *testing.T) *circuit.Network {
	t.Helper()
	n := circuit.NewNetwork()
	n.AddCircuit("green", units.Psi(3000))
	n.AddCircuit("blue", units.Psi(2000))
	n.AddBus("ac_ess", true)
	return n
}

func TestConnectValidatesNames(t *testing.T) {
	n := newNetwork(t)
	tests := []struct {
		name  string
		route circuit.Route
		want  error
	}{
		{"unknown supply", circuit.Route{Supply: "yellow"}, circuit.ErrUnknownCircuit},
		{"unknown return", circuit.Route{Supply: "green", Return: "yellow"}, circuit.ErrUnknownCircuit},
		{"unknown bus", circuit.Route{Supply: "green", Bus: "dc2"}, circuit.ErrUnknownBus},
		{"valid", circuit.Route{Supply: "green", Return: "blue", Bus: "ac_ess"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := n.Connect(tt.route)
			if tt.want == nil && err != nil {
				t.Errorf("unexpected error %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSupplies(t *testing.T) {
	n := newNetwork(t)
	if err := n.Connect(circuit.Route{Supply: "green", Bus: "ac_ess"}, circuit.Route{Supply: "blue"}); err != nil {
		t.Fatal(err)
	}

	s := n.Supplies(nil)
	if len(s) != 2 {
		t.Fatalf("expected 2 supplies, got %d", len(s))
	}
	if s[0].Pressure != units.Psi(3000) || !s[0].Powered {
		t.Errorf("unexpected first supply %+v", s[0])
	}
	if s[1].Pressure != units.Psi(2000) || s[1].Powered {
		t.Errorf("route without bus should be unpowered, got %+v", s[1])
	}

	if err := n.SetPressure("green", 0); err != nil {
		t.Fatal(err)
	}
	if err := n.SetPowered("ac_ess", false); err != nil {
		t.Fatal(err)
	}
	s = n.Supplies(s)
	if s[0].Pressure != 0 || s[0].Powered {
		t.Errorf("expected depressurized unpowered supply, got %+v", s[0])
	}

	if err := n.SetPressure("yellow", 0); !errors.Is(err, circuit.ErrUnknownCircuit) {
		t.Errorf("expected ErrUnknownCircuit, got %v", err)
	}
	if err := n.SetPowered("dc2", true); !errors.Is(err, circuit.ErrUnknownBus) {
		t.Errorf("expected ErrUnknownBus, got %v", err)
	}
}

func TestCollect(t *testing.T) {
	asm := buildAssembly(t, "aileron")
	n := newNetwork(t)
	if err := n.Connect(
		circuit.Route{Supply: "green"},
		circuit.Route{Supply: "blue", Return: "green"},
	); err != nil {
		t.Fatal(err)
	}

	ctrls := []actuator.Controller{
		&actuator.Demand{Mode: actuator.PositionControl, Position: 0.9},
		&actuator.Demand{Mode: actuator.ActiveDamping, Position: 0.9},
	}
	var supplies []actuator.Supply
	for i := 0; i < 100; i++ {
		supplies = n.Supplies(supplies)
		asm.Update(0.01, ctrls, supplies)
		if i%10 == 9 {
			if err := n.Collect(asm); err != nil {
				t.Fatal(err)
			}
		}
	}

	green, _ := n.Circuit("green")
	blue, _ := n.Circuit("blue")
	if green.Drawn <= 0 {
		t.Errorf("position control should draw from green, got %v", green.Drawn)
	}
	if blue.Drawn != 0 {
		t.Errorf("damping actuator should not draw, got %v", blue.Drawn)
	}
	if blue.Returned != 0 {
		t.Errorf("return is routed to green, blue got %v", blue.Returned)
	}
	for i := 0; i < asm.Len(); i++ {
		if asm.Actuator(i).UsedVolume() != 0 || asm.Actuator(i).ReservoirReturn() != 0 {
			t.Errorf("actuator %d volumes should be reset after collect", i)
		}
	}

	if err := n.Collect(buildAssembly(t, "spoiler")); !errors.Is(err, circuit.ErrRouteCount) {
		t.Errorf("expected ErrRouteCount, got %v", err)
	}
}

func TestCircuitsSorted(t *testing.T) {
	n := newNetwork(t)
	n.AddCircuit("yellow", 0)
	got := n.Circuits()
	want := []string{"blue", "green", "yellow"}
	for i, c := range got {
		if c.Name != want[i] {
			t.Errorf("expected %v at %d, got %v", want[i], i, c.Name)
		}
	}
	if _, ok := n.Circuit("purple"); ok {
		t.Error("unknown circuit should not be found")
	}
}
