// Package control provides the small signal-processing blocks the actuator
// force controller is built from:
//
//   - [PID]: positional PID with output limits and bumpless re-seeding
//   - [LowPass]: first-order filter with a time constant
//   - [Table]: piecewise linear lookup held constant past its ends
//
// # Usage
//
//	pid := control.NewPID(0.6, 0.64, 0, -1, 1)
//	pid.Setpoint = 0.5
//	out := pid.Next(measured, dt)
package control
