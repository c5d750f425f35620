// Package viz draws a fiber in the terminal.
//
// The live view is a Bubble Tea program:
//
//   - [Model]: steps a chain between frames and shows the fiber, a chart of
//     the sampled lowest height, and the convergence state
//   - [Canvas]: Braille-based pixel canvas with a world [Viewport]
//   - [RunInteractive]: preset picker that launches the live view
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	N     - Single step while paused
//	R     - Reset to initial layout
//	+/-   - Double/halve steps per frame
//	[]    - Replay sampled history
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
