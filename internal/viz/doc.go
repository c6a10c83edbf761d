// Package viz renders machine trajectories in the terminal.
//
//   - [PlotTrajectory]: asciigraph chart of state against simulated time
//   - [Model]: Bubble Tea live view that keeps accumulating one machine and
//     shows per-state occupancy
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from a fresh machine
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
