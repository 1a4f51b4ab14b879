// Package actuator models hydraulic linear actuators and the assembly that
// ties them to a hinged rigid body.
//
// Each step an Assembly converts the controllers' angular position requests
// to actuator length targets, resolves hard and soft locks, lets every
// actuator apply its force, integrates the body once, then lets every
// actuator account for the fluid it moved:
//
//	asm := actuator.NewAssembly(b, left, right)
//	for range steps {
//		asm.Update(0.01, controllers, supplies)
//	}
//
// A ForceController runs one of four valve modes. PositionControl degrades
// to ClosedCircuitDamping when supply pressure falls below the exit
// threshold. Actuators may carry an ElectroHydrostaticBackup which replaces
// the circuit pressure with its own while electrically engaged.
package actuator
