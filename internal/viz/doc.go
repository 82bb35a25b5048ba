// Package viz renders Brownian-dynamics runs in the terminal.
//
//   - [LiveModel]: Bubble Tea view of a running experiment with a rotating
//     3D particle view and an MSD chart
//   - [Canvas]: Braille-based pixel canvas
//   - [Camera]: rotation and perspective projection onto a canvas
//
// # Key Bindings
//
//	Arrows - Rotate the view
//	+/-    - Zoom
//	Space  - Freeze or resume auto-rotation
//	Q      - Stop the run and quit
package viz
