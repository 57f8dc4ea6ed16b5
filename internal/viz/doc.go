// Package viz draws the Lorenz trail in the terminal.
//
// The live view is a Bubble Tea program that ticks a [sim.Loop] once per
// display frame and paints the trail onto a braille [Canvas] through an
// orbiting perspective [Camera]. Each canvas cell is tinted with the color of
// the last trail point drawn into it, so the age gradient survives the
// terminal's coarse grid.
//
// # Key Bindings
//
//	Space - Run/Pause
//	R     - Reset trail (also pauses)
//	P     - Next preset
//	C S N - Cycle palette, speed, trail length
//	Tab   - Select parameter; [ ] adjust, Enter types a value
//	Arrows, + -, WASD, , . - Orbit, zoom, pan, roll
//	V G T H - Line/dots, axes, theme, hide UI
//	x X   - Save PNG / SVG snapshot
package viz
