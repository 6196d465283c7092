package tui

import "github.com/udoprog/elfdb/vm"

// Headless is a no-op Collaborator: it never renders and never blocks
// for input. It drives the loop in Free mode until the device halts or
// a hook forces Interactive mode, at which point - having no command
// source to satisfy it - it quits. Used by --headless batch runs and by
// package tests that need a real control loop without a terminal.
type Headless struct{}

// NewHeadless returns a ready-to-use headless collaborator.
func NewHeadless() *Headless {
	return &Headless{}
}

// Setup is a no-op.
func (h *Headless) Setup() error { return nil }

// Done is a no-op.
func (h *Headless) Done(*vm.Loop) error { return nil }

// Draw evaluates hooks and reports whether the loop should stop: either
// because the device is done, or because something demanded interactive
// attention this collaborator cannot provide.
func (h *Headless) Draw(loop *vm.Loop) (bool, error) {
	if loop.Device().Halted() {
		return true, nil
	}

	if _, err := loop.EvaluateHooks(); err != nil {
		return false, err
	}

	if loop.Mode() != vm.ModeFree {
		return true, nil
	}

	return false, nil
}
