package actuator

// Controller is the control-law side of one actuator. Positions are
// normalized angular positions of the body and may over-travel [0,1] by 0.1.
type Controller interface {
	RequestedMode() Mode
	RequestedPosition() float64
	ShouldLock() bool
	LockPosition() float64
	// SoftLockBand returns the requested angular speed band in rad/s.
	SoftLockBand() (min, max float64, ok bool)
}

// BackupController is implemented by controllers of actuators fitted with an
// electro-hydrostatic backup.
type BackupController interface {
	RequestsElectricalActivation() bool
	RequestsRefill() bool
}

// Supply is what the hydraulic circuit and electrical network deliver to one
// actuator for a tick.
type Supply struct {
	Pressure float64
	Powered  bool
}

// Demand is a plain Controller and BackupController whose fields are set by
// the caller.
type Demand struct {
	Mode     Mode
	Position float64

	Lock         bool
	LockAt       float64
	SoftLock     bool
	SoftLockMin  float64
	SoftLockMax  float64
	ElectricMode bool
	Refill       bool
}

func (d *Demand) RequestedMode() Mode        { return d.Mode }
func (d *Demand) RequestedPosition() float64 { return d.Position }
func (d *Demand) ShouldLock() bool           { return d.Lock }
func (d *Demand) LockPosition() float64      { return d.LockAt }

func (d *Demand) SoftLockBand() (float64, float64, bool) {
	return d.SoftLockMin, d.SoftLockMax, d.SoftLock
}

func (d *Demand) RequestsElectricalActivation() bool { return d.ElectricMode }
func (d *Demand) RequestsRefill() bool               { return d.Refill }
