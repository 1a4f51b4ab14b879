// Package body models a control surface as a rigid body with a single
// rotational degree of freedom around a hinge axis.
//
// The body knows nothing about hydraulics. Actuators push on it through
// [RigidBody.ApplyControlArmForce], the aerodynamic model through
// [RigidBody.ApplyAeroForces], and [RigidBody.Update] integrates one fixed step.
//
// Positions are exposed in three spaces:
//
//   - absolute angle in radians, bounded by the configured min and max angle
//   - normalized angular position in [0,1], oriented so that 1 is the end
//     reached by extending the actuator
//   - normalized linear position in [0,1], the actuator length between its
//     shortest and longest reachable value
//
// # Example
//
//	b, err := body.New(cfg)
//	b.ApplyAeroForces(r3.Vec{Y: -500})
//	b.ApplyControlArmForce(1200)
//	b.Update(0.01)
//	pos := b.NormalizedPosition()
package body
