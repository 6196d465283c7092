package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrBadRegister is returned whenever a register index falls outside [0,5].
var ErrBadRegister = errors.New("no such register")

const numRegisters = 6

// Registers holds the six general-purpose cells, the designated IP
// register index, and the per-step read/write tracking sets.
type Registers struct {
	cells [numRegisters]int64

	// ipIndex selects which cell is bound to the instruction pointer.
	ipIndex int

	// lastIP is the program counter value used to fetch the most
	// recently executed instruction. Absent on fresh reset.
	lastIP *int

	read    map[int]struct{}
	written map[int]struct{}
}

// NewRegisters returns a freshly zeroed register file with ip bound to
// register 0.
func NewRegisters() *Registers {
	return &Registers{
		read:    make(map[int]struct{}),
		written: make(map[int]struct{}),
	}
}

// IPIndex returns which register cell is bound to the instruction pointer.
func (r *Registers) IPIndex() int {
	return r.ipIndex
}

// SetIPIndex rebinds the instruction pointer to a different register cell.
// Used by the #ip directive during load.
func (r *Registers) SetIPIndex(idx int) {
	r.ipIndex = idx
}

// LastIP returns the program counter used to fetch the most recently
// executed instruction, or false if no step has run since reset.
func (r *Registers) LastIP() (int, bool) {
	if r.lastIP == nil {
		return 0, false
	}
	return *r.lastIP, true
}

func (r *Registers) setLastIP(ip int) {
	v := ip
	r.lastIP = &v
}

// IsRead reports whether reg was read from during the most recent step.
func (r *Registers) IsRead(reg int) bool {
	_, ok := r.read[reg]
	return ok
}

// IsWritten reports whether reg was written to during the most recent step.
func (r *Registers) IsWritten(reg int) bool {
	_, ok := r.written[reg]
	return ok
}

// reg reads a register's value, recording the access in the read set.
// This is the observing accessor: both instruction execution and the hook
// evaluator call it, so hook-induced reads deliberately pollute read_set
// (see SPEC_FULL.md §6 and DESIGN.md's Open Question notes).
func (r *Registers) reg(index int64) (int64, error) {
	i := int(index)
	if i < 0 || i >= numRegisters {
		return 0, errors.Wrapf(ErrBadRegister, "%d", i)
	}
	r.read[i] = struct{}{}
	return r.cells[i], nil
}

// regMut returns a pointer to a register's cell, recording the access in
// the written set.
func (r *Registers) regMut(index int64) (*int64, error) {
	i := int(index)
	if i < 0 || i >= numRegisters {
		return nil, errors.Wrapf(ErrBadRegister, "%d", i)
	}
	r.written[i] = struct{}{}
	return &r.cells[i], nil
}

// Get reads a register's current value without recording the access.
// Used by UI rendering, which should not pollute read_set the way hook
// evaluation deliberately does.
func (r *Registers) Get(index int) (int64, error) {
	if index < 0 || index >= numRegisters {
		return 0, errors.Wrapf(ErrBadRegister, "%d", index)
	}
	return r.cells[index], nil
}

// Set writes a register's value without recording the access.
func (r *Registers) Set(index int, value int64) error {
	if index < 0 || index >= numRegisters {
		return errors.Wrapf(ErrBadRegister, "%d", index)
	}
	r.cells[index] = value
	return nil
}

// IP returns the current instruction pointer value, cast from the bound
// register cell. This does not touch the read/write tracking sets - IP
// bookkeeping is separate from user-visible register reads.
func (r *Registers) IP() int {
	return int(r.cells[r.ipIndex])
}

// SetIP overwrites the bound register cell with a new instruction pointer
// value, without touching the tracking sets.
func (r *Registers) SetIP(value int) {
	r.cells[r.ipIndex] = int64(value)
}

// Cells returns a copy of the six register values, in index order.
func (r *Registers) Cells() [numRegisters]int64 {
	return r.cells
}

// Clear empties the read/write tracking sets. Does not touch lastIP or
// cell values.
func (r *Registers) Clear() {
	r.read = make(map[int]struct{})
	r.written = make(map[int]struct{})
}

// Reset clears tracking, forgets lastIP, and zeroes every cell. ipIndex is
// left untouched - it is only ever changed by an explicit #ip directive.
func (r *Registers) Reset() {
	r.Clear()
	r.lastIP = nil
	for i := range r.cells {
		r.cells[i] = 0
	}
}

// Name returns the display name for a register: "ip" for the bound IP
// register, a letter a..f by index otherwise, or "?" out of range.
func (r *Registers) Name(index int) string {
	if index == r.ipIndex {
		return "ip"
	}
	if index >= 0 && index < numRegisters {
		return string(rune('a' + index))
	}
	return "?"
}

// RegisterByName resolves a register token ("a".."f" or "ip") to its
// index, as used by both the `set` command and the hook parser.
func (r *Registers) RegisterByName(name string) (int, error) {
	switch name {
	case "a":
		return 0, nil
	case "b":
		return 1, nil
	case "c":
		return 2, nil
	case "d":
		return 3, nil
	case "e":
		return 4, nil
	case "f":
		return 5, nil
	case "ip":
		return r.ipIndex, nil
	default:
		return 0, fmt.Errorf("not a register: %s", name)
	}
}
