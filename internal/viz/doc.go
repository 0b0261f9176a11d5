// Package viz renders dFBA runs in the terminal.
//
// [Summary] prints a styled report of a finished run. [Progress] is a
// Bubble Tea model that follows a running simulation through a
// [ProgramObserver] attached to the simulator.
//
// # Key Bindings
//
//	q, Ctrl+C - Cancel the running simulation
package viz
