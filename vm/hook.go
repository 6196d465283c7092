package vm

import (
	"fmt"
	"strings"
)

// Action is the result of testing a Hook against a Device: whether the
// control loop should pause into interactive mode.
type Action int

const (
	// None means the hook did not fire.
	None Action = iota
	// Pause means the hook fired and the control loop should stop.
	Pause
)

// Op is a comparison used by the Hook Op variant.
type Op int

const (
	OpEq Op = iota
	OpLt
	OpLte
	OpGt
	OpGte
)

// Test evaluates the comparison between a and b.
func (op Op) Test(a, b int64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	default:
		return false
	}
}

// String returns the op's token form, as used by the hook parser and by
// Hook's Display/Inspect renderings.
func (op Op) String() string {
	switch op {
	case OpEq:
		return "eq"
	case OpLt:
		return "lt"
	case OpLte:
		return "lte"
	case OpGt:
		return "gt"
	case OpGte:
		return "gte"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

var opNames = map[string]Op{
	"eq": OpEq, "lt": OpLt, "lte": OpLte, "gt": OpGt, "gte": OpGte,
}

// DecodeOp parses one of the five comparison op names.
func DecodeOp(input string) (Op, bool) {
	op, ok := opNames[input]
	return op, ok
}

// Hook is a breakpoint predicate, evaluated once per control-loop tick
// against the device's current (just-stepped) state.
//
// Only one of the fields below is populated per instance, selected by
// Kind - Go has no tagged-union sum type, so Hook is a flat struct
// switched on Kind rather than the teacher's usual small-interface
// pattern, mirroring the original's single recursive enum directly.
type Hook struct {
	Kind HookKind

	Register int // Read, Write, Op, Unique
	Line      int // Line
	Op        Op  // Op
	Value     int64 // Op

	Inner *Hook  // Not
	All   []Hook // All

	// Unique state: seen values and the most recently admitted one.
	seen map[int64]struct{}
	last *int64
}

// HookKind selects which predicate a Hook evaluates.
type HookKind int

const (
	KindRead HookKind = iota
	KindWrite
	KindLine
	KindOp
	KindUnique
	KindNot
	KindAll
)

// NewReadHook breaks when register is read during a step.
func NewReadHook(register int) Hook { return Hook{Kind: KindRead, Register: register} }

// NewWriteHook breaks when register is written during a step.
func NewWriteHook(register int) Hook { return Hook{Kind: KindWrite, Register: register} }

// NewLineHook breaks when the given source line executes.
func NewLineHook(line int) Hook { return Hook{Kind: KindLine, Line: line} }

// NewOpHook breaks when register's value compares true against value
// under op.
func NewOpHook(op Op, register int, value int64) Hook {
	return Hook{Kind: KindOp, Op: op, Register: register, Value: value}
}

// NewUniqueHook breaks the first time each distinct value of register is
// observed.
func NewUniqueHook(register int) Hook {
	return Hook{Kind: KindUnique, Register: register, seen: make(map[int64]struct{})}
}

// NewNotHook inverts inner's result.
func NewNotHook(inner Hook) Hook { return Hook{Kind: KindNot, Inner: &inner} }

// NewAllHook requires every child hook to fire.
func NewAllHook(children []Hook) Hook { return Hook{Kind: KindAll, All: children} }

// Reset clears any stateful bookkeeping (Unique's seen set, recursively
// through Not and All). Called by the `reset` command alongside
// Device.Reset.
func (h *Hook) Reset() {
	switch h.Kind {
	case KindUnique:
		h.seen = make(map[int64]struct{})
		h.last = nil
	case KindNot:
		h.Inner.Reset()
	case KindAll:
		for i := range h.All {
			h.All[i].Reset()
		}
	}
}

// Test evaluates the hook against device's current state (populated by
// the most recent Device.Step). Op/Unique reads go through
// Registers.reg, the same tracked accessor Step uses, so hook evaluation
// deliberately counts as a register read for Read-hook purposes too.
func (h *Hook) Test(device *Device) (Action, error) {
	regs := device.Registers()

	switch h.Kind {
	case KindRead:
		if regs.IsRead(h.Register) {
			return Pause, nil
		}
	case KindWrite:
		if regs.IsWritten(h.Register) {
			return Pause, nil
		}
	case KindLine:
		if ip, ok := regs.LastIP(); ok && ip == h.Line {
			return Pause, nil
		}
	case KindOp:
		v, err := regs.reg(int64(h.Register))
		if err != nil {
			return None, err
		}
		if h.Op.Test(v, h.Value) {
			return Pause, nil
		}
	case KindUnique:
		v, err := regs.reg(int64(h.Register))
		if err != nil {
			return None, err
		}
		if _, seen := h.seen[v]; !seen {
			h.seen[v] = struct{}{}
			last := v
			h.last = &last
			return Pause, nil
		}
	case KindNot:
		inner, err := h.Inner.Test(device)
		if err != nil {
			return None, err
		}
		if inner == None {
			return Pause, nil
		}
		return None, nil
	case KindAll:
		for i := range h.All {
			action, err := h.All[i].Test(device)
			if err != nil {
				return None, err
			}
			if action == None {
				return None, nil
			}
		}
		return Pause, nil
	}

	return None, nil
}

// Display renders the hook using device's register names, e.g.
// "read(a)", "gt(b, 10)", "all(read(a), write(b))".
func (h *Hook) Display(device *Device) string {
	regs := device.Registers()

	switch h.Kind {
	case KindRead:
		return fmt.Sprintf("read(%s)", regs.Name(h.Register))
	case KindWrite:
		return fmt.Sprintf("write(%s)", regs.Name(h.Register))
	case KindLine:
		return fmt.Sprintf("line(%d)", h.Line)
	case KindOp:
		return fmt.Sprintf("%s(%s, %d)", h.Op, regs.Name(h.Register), h.Value)
	case KindUnique:
		return fmt.Sprintf("unique(%s)", regs.Name(h.Register))
	case KindNot:
		return fmt.Sprintf("not(%s)", h.Inner.Display(device))
	case KindAll:
		parts := make([]string, len(h.All))
		for i := range h.All {
			parts[i] = h.All[i].Display(device)
		}
		return fmt.Sprintf("all(%s)", strings.Join(parts, ", "))
	default:
		return "?"
	}
}

// Inspect renders a device-independent debug view of the hook's state,
// used by the `inspect` command. Unlike Display, this shows live
// bookkeeping (Unique's seen count and last admitted value) rather than
// resolving register names.
func (h *Hook) Inspect() string {
	switch h.Kind {
	case KindRead:
		return "read()"
	case KindWrite:
		return "write()"
	case KindLine:
		return "line()"
	case KindOp:
		return fmt.Sprintf("%s()", h.Op)
	case KindUnique:
		if h.last == nil {
			return fmt.Sprintf("unique(seen: %d, last: none)", len(h.seen))
		}
		return fmt.Sprintf("unique(seen: %d, last: %d)", len(h.seen), *h.last)
	case KindNot:
		return fmt.Sprintf("not(%s)", h.Inner.Inspect())
	case KindAll:
		parts := make([]string, len(h.All))
		for i := range h.All {
			parts[i] = h.All[i].Inspect()
		}
		return fmt.Sprintf("all(%s)", strings.Join(parts, ", "))
	default:
		return "?"
	}
}

// EvaluateAll tests every hook in hooks against device, in order,
// unconditionally - every hook is tested once per tick for its side
// effects (Unique bookkeeping) even after an earlier hook has already
// fired, matching the original control loop's lack of an early break.
// Returns whether any hook fired.
func EvaluateAll(hooks []Hook, device *Device) (bool, error) {
	fired := false
	for i := range hooks {
		action, err := hooks[i].Test(device)
		if err != nil {
			return fired, err
		}
		if action == Pause {
			fired = true
		}
	}
	return fired, nil
}
