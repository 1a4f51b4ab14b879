// Package viz provides a terminal live view of a control surface scenario.
//
// The view is a Bubble Tea program:
//
//   - [Model]: steps a scenario in real time and draws the surface
//   - [Canvas]: Braille-based pixel canvas for the side view
//   - [Menu]: scenario picker that launches a [Model]
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Rebuild the scenario
//	Tab   - Select the next actuator
//	↑/↓   - Move the commanded position
//	M     - Cycle the selected actuator's mode
//	L     - Toggle the mechanical lock
//	S     - Toggle the selected actuator's soft lock
//	P     - Toggle the selected actuator's supply pressure
//	E     - Toggle electric backup on the selected actuator
//	B     - Toggle the selected actuator's bus power
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
