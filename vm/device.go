package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ErrProgramHalted is returned by Step when it is called on a device that
// has already halted (the step that first finds the instruction pointer
// past the end of the program returns nil).
var ErrProgramHalted = errors.New("program is halted")

// Device is a loaded elfcode program together with its register file and
// execution bookkeeping: the unit the control loop steps, and the unit a
// Hook inspects.
type Device struct {
	instructions []Instruction
	regs         *Registers

	halted bool
	count  int64

	// uniqueLines tracks which source lines have executed at least once,
	// exposed through HasExecuted for the TUI's coverage count.
	uniqueLines map[int]struct{}
}

// NewDevice returns an empty, halted device. Call Load or LoadPath before
// stepping it.
func NewDevice() *Device {
	return &Device{
		regs:        NewRegisters(),
		uniqueLines: make(map[int]struct{}),
		halted:      true,
	}
}

// Registers returns the device's register file.
func (d *Device) Registers() *Registers {
	return d.regs
}

// Instructions returns the currently loaded program, in source order.
func (d *Device) Instructions() []Instruction {
	return d.instructions
}

// Halted reports whether the instruction pointer has run past the end of
// the program.
func (d *Device) Halted() bool {
	return d.halted
}

// StepCount returns the number of successful steps since the last Load or
// Reset, including the step that found the program halted.
func (d *Device) StepCount() int64 {
	return d.count
}

// HasExecuted reports whether the source line at index has executed at
// least once since the last Load or Reset.
func (d *Device) HasExecuted(line int) bool {
	_, ok := d.uniqueLines[line]
	return ok
}

// LoadPath reads a program from a file path and loads it, wrapping any
// I/O error with the file name for context.
func (d *Device) LoadPath(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open program %q", path)
	}
	defer f.Close()

	if err := d.Load(f); err != nil {
		return errors.Wrapf(err, "load program %q", path)
	}
	return nil
}

// Load reads an elfcode program from r: one instruction per line, plus
// "#ip N" directives, which may appear on any line (the last one wins).
// Empty lines are skipped. Load resets execution
// state (registers, halted flag, step count, line coverage) but, absent
// an #ip directive in the new source, preserves the previously bound
// ip_index - mirroring the original device's reset-then-patch load
// sequencing.
func (d *Device) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	var instructions []Instruction
	ipIndex := d.regs.IPIndex()

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		if n, ok := parseIPDirective(line); ok {
			// May appear anywhere in the source; conventionally first,
			// but a later directive overrides an earlier one.
			ipIndex = n
			continue
		}

		inst, err := ParseInstruction(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}
		instructions = append(instructions, inst)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scan program")
	}

	d.regs.Reset()
	d.regs.SetIPIndex(ipIndex)

	d.instructions = instructions
	d.uniqueLines = make(map[int]struct{})
	d.count = 0
	d.halted = len(instructions) == 0

	return nil
}

// Clear empties the register read/write tracking sets without touching
// cell values, the instruction pointer, or loaded instructions. Called
// once per control-loop tick before Step, so hooks see only the current
// tick's accesses.
func (d *Device) Clear() {
	d.regs.Clear()
}

// Reset reloads the currently-held program from scratch: zeroes all
// registers, forgets last_ip, clears line coverage and step count, but
// keeps ip_index and the loaded instruction slice untouched (there is no
// #ip directive to re-read on a bare reset).
func (d *Device) Reset() {
	d.regs.Reset()
	d.uniqueLines = make(map[int]struct{})
	d.count = 0
	d.halted = len(d.instructions) == 0
}

// Step executes exactly one instruction at the current instruction
// pointer, then advances ip by one (unless the instruction itself wrote
// to the ip register, in which case that write stands and is incremented
// on top of, matching elfcode's fetch-execute-increment cycle).
//
// Halting is detected lazily: the step that finds ip already out of
// bounds still counts as successful and bumps count, it just applies no
// instruction and leaves the read/write sets untouched. Calling Step
// again once halted is a no-op that reports ErrProgramHalted.
func (d *Device) Step() error {
	if d.halted {
		return ErrProgramHalted
	}

	ip := d.regs.IP()
	if ip < 0 || ip >= len(d.instructions) {
		d.halted = true
		d.count++
		return nil
	}

	inst := d.instructions[ip]
	d.regs.setLastIP(ip)

	if err := inst.Op.Apply(d.regs, inst.Inputs, inst.Output); err != nil {
		return errors.Wrapf(err, "line %d (%s)", ip, inst)
	}

	d.uniqueLines[ip] = struct{}{}
	d.count++

	d.regs.SetIP(d.regs.IP() + 1)

	return nil
}
