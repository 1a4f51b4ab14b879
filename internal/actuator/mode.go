package actuator

import "fmt"

// Mode is the valve configuration of a ForceController.
type Mode int

const (
	// ClosedValves traps fluid in both chambers: the actuator behaves as a
	// stiff spring around the position held when the valves closed.
	ClosedValves Mode = iota
	// PositionControl meters flow toward the requested position.
	PositionControl
	// ActiveDamping connects both chambers through a damping orifice.
	ActiveDamping
	// ClosedCircuitDamping is the slow, filtered damping used once pressure is lost.
	ClosedCircuitDamping
)

var modeNames = map[Mode]string{
	ClosedValves:         "closed_valves",
	PositionControl:      "position_control",
	ActiveDamping:        "active_damping",
	ClosedCircuitDamping: "closed_circuit_damping",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// BackupKind selects how an electro-hydrostatic backup interacts with the
// normal hydraulic supply.
type BackupKind int

const (
	// ElectricOnly actuators never use the hydraulic circuit pressure.
	ElectricOnly BackupKind = iota
	// HydraulicOrElectric actuators run from circuit pressure unless the
	// backup is electrically engaged.
	HydraulicOrElectric
)

func (k BackupKind) String() string {
	switch k {
	case ElectricOnly:
		return "electric_only"
	case HydraulicOrElectric:
		return "hydraulic_or_electric"
	}
	return fmt.Sprintf("backup_kind(%d)", int(k))
}

func ParseBackupKind(s string) (BackupKind, error) {
	switch s {
	case "electric_only":
		return ElectricOnly, nil
	case "hydraulic_or_electric":
		return HydraulicOrElectric, nil
	}
	return 0, fmt.Errorf("%w: unknown backup kind %q", ErrInvalidCharacteristics, s)
}
