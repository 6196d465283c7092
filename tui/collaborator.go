// Package tui renders the elfcode control loop and captures keystrokes.
// It is intentionally kept outside the vm package: everything here is a
// Collaborator implementation consumed by the core control loop through
// three operations (setup, draw, done), matching the boundary the
// original termion/tui-rs frontend drew around its Visuals trait.
package tui

import "github.com/udoprog/elfdb/vm"

// Collaborator is the rendering/keystroke-capture contract the control
// loop drives. setup runs once before the first tick, draw runs once per
// tick and reports whether the loop should exit, and done runs once
// after the loop exits. A no-op implementation must be safe for headless
// tests - see Headless.
type Collaborator interface {
	Setup() error
	Draw(loop *vm.Loop) (quit bool, err error)
	Done(loop *vm.Loop) error
}
