package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"github.com/rivo/tview"

	"github.com/udoprog/elfdb/vm"
)

// ErrNotConfigured is returned by Draw if Setup was never called.
var ErrNotConfigured = errors.New("terminal not configured")

// Terminal is the real tcell+tview Collaborator: a three-pane layout
// (instructions, registers/breakpoints/device, message strip) plus a
// command input line, driven by a background key-reader goroutine.
// Grounded on the original tui-rs Terminal's draw_internal layout and
// its Free/Interactive draw state machine.
type Terminal struct {
	screen tcell.Screen
	keys   *keyQueue

	input string
	// last is the most recently submitted non-blank command line, echoed
	// when the user re-runs it with a bare Enter.
	last string

	// scroll is the first instruction line visible in the instructions
	// pane; kept in sync with the device's last_ip so execution always
	// stays on screen.
	scroll int

	// humanDecoding toggles between raw ("addr 0 1 2") and human
	// ("c = a + b") instruction rendering, flipped by F1.
	humanDecoding bool
}

// NewTerminal constructs an unconfigured Terminal; call Setup before
// using it as a Collaborator.
func NewTerminal() *Terminal {
	return &Terminal{humanDecoding: true}
}

// Setup initializes the tcell screen and starts the key-reader
// goroutine.
func (t *Terminal) Setup() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "create screen")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "init screen")
	}
	screen.HideCursor()

	t.screen = screen
	t.keys = newKeyQueue(32)
	startKeyReader(screen, t.keys)

	return nil
}

// Done finalizes the screen, restoring the terminal.
func (t *Terminal) Done(*vm.Loop) error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// Draw runs exactly one tick of the Free/Interactive state machine,
// matching the original's draw(): it loops internally (redrawing,
// reading keys, dispatching commands) until either the loop should
// exit, or it is time to return control to the caller so it can clear
// and step the device once.
func (t *Terminal) Draw(loop *vm.Loop) (bool, error) {
	if t.screen == nil {
		return false, ErrNotConfigured
	}

	t.adjustScroll(loop)

	for {
		if loop.ShouldDraw() {
			t.render(loop)
		}

		if loop.Device().Halted() {
			// announce the halt; this block does not change the mode. In
			// Free mode the EvaluateHooks call in tickFree is what switches
			// the loop to Interactive.
			if loop.Mode() != vm.ModeInteractive {
				loop.PushMessage(vm.BoldMessage("device is halted"))
				loop.PushMessage(vm.InfoMessage("use `reset` to unhalt"))
			}
		}

		if loop.Mode() == vm.ModeFree {
			quit, advance, err := t.tickFree(loop)
			if err != nil {
				return false, err
			}
			if quit {
				return true, nil
			}
			if advance {
				return false, nil
			}
			continue
		}

		quit, advance, err := t.tickInteractive(loop)
		if err != nil {
			return false, err
		}
		if quit {
			return true, nil
		}
		if advance {
			return false, nil
		}
	}
}

// tickFree polls non-blocking for a key, evaluates hooks, and decides
// whether to advance (take one more step) or keep looping in this tick.
func (t *Terminal) tickFree(loop *vm.Loop) (quit bool, advance bool, err error) {
	if key, ok := t.keys.tryReceive(); ok {
		if r := key.Rune(); r == 'q' {
			return true, false, nil
		} else if r == 'p' {
			// HandleFreeKey flips the loop to Interactive.
			loop.HandleFreeKey('p')
			return false, false, nil
		} else {
			t.genericHandle(key, loop)
		}
	}

	if _, err := loop.EvaluateHooks(); err != nil {
		return false, false, err
	}

	if loop.Mode() != vm.ModeFree {
		return false, false, nil
	}

	return false, true, nil
}

// tickInteractive blocks for one key, edits the input buffer, and
// dispatches on Enter.
func (t *Terminal) tickInteractive(loop *vm.Loop) (quit bool, advance bool, err error) {
	key, ok := t.keys.receive()
	if !ok {
		return true, false, nil
	}

	switch key.Key() {
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(t.input) > 0 {
			t.input = t.input[:len(t.input)-1]
		}
		return false, false, nil

	case tcell.KeyEnter:
		line := t.input
		t.input = ""

		action, err := loop.Dispatch(line)
		if err != nil {
			return false, false, err
		}
		switch action {
		case vm.ActionQuit:
			return true, false, nil
		case vm.ActionAdvance:
			return false, true, nil
		default:
			return false, false, nil
		}

	case tcell.KeyCtrlD:
		if t.input == "" {
			return true, false, nil
		}
		return false, false, nil

	case tcell.KeyRune:
		r := key.Rune()
		if r == ' ' && t.input == "" {
			return false, false, nil
		}
		t.input += string(r)
		return false, false, nil

	default:
		t.genericHandle(key, loop)
		return false, false, nil
	}
}

// genericHandle processes the keys meaningful in both modes: scrolling
// the instructions pane and toggling human-decoded rendering.
func (t *Terminal) genericHandle(key *tcell.EventKey, loop *vm.Loop) {
	switch key.Key() {
	case tcell.KeyUp:
		if t.scroll > 0 {
			t.scroll--
		}
	case tcell.KeyDown:
		max := len(loop.Device().Instructions()) - 1
		if max < 0 {
			max = 0
		}
		if t.scroll < max {
			t.scroll++
		}
	case tcell.KeyF1:
		t.humanDecoding = !t.humanDecoding
	default:
		loop.PushMessage(vm.ErrorMessage(fmt.Sprintf("unhandled event: %v", key.Key())))
	}
}

// adjustScroll makes sure the most recently executed instruction stays
// on screen, the way the original nudges `scroll` before delegating to
// draw_internal.
func (t *Terminal) adjustScroll(loop *vm.Loop) {
	if !loop.ShouldDraw() {
		return
	}

	lastIP, ok := loop.Device().Registers().LastIP()
	if !ok {
		return
	}

	if lastIP < t.scroll {
		t.scroll = lastIP
		return
	}

	_, height := t.screen.Size()
	visible := height - 4
	if visible < 1 {
		visible = 1
	}
	if lastIP > t.scroll+visible {
		t.scroll = lastIP
	}
}

// render draws one complete frame: instructions, registers, breakpoints,
// device counters, queued messages, and (when interactive) the command
// input line.
func (t *Terminal) render(loop *vm.Loop) {
	device := loop.Device()
	regs := device.Registers()

	instructions := tview.NewList().ShowSecondaryText(false)
	instructions.SetBorder(true).SetTitle(t.instructionsTitle())

	insts := device.Instructions()
	lastIP, hasLastIP := regs.LastIP()
	for i := t.scroll; i < len(insts); i++ {
		inst := insts[i]

		var line string
		if t.humanDecoding {
			line = fmt.Sprintf("%-3d: %s", i, inst.HumanString(regs))
		} else {
			line = fmt.Sprintf("%-3d: %s", i, inst.String())
		}

		instructions.AddItem(line, "", 0, nil)
		if hasLastIP && i == lastIP {
			instructions.SetCurrentItem(instructions.GetItemCount() - 1)
		}
	}

	registers := tview.NewList().ShowSecondaryText(false)
	registers.SetBorder(true).SetTitle("Registers")
	for i := 0; i < 6; i++ {
		value, _ := regs.Get(i)
		mark := " "
		if regs.IsRead(i) {
			mark = "*"
		}

		var name string
		if t.humanDecoding {
			name = regs.Name(i)
		} else {
			name = fmt.Sprintf("%d", i)
		}

		registers.AddItem(fmt.Sprintf("%-2s%s= %d", name, mark, value), "", 0, nil)
	}

	breakpoints := tview.NewList().ShowSecondaryText(false)
	breakpoints.SetBorder(true).SetTitle("Breakpoints")
	for i, hook := range loop.Hooks() {
		breakpoints.AddItem(fmt.Sprintf("%-2d: %s", i, hook.Display(device)), "", 0, nil)
	}

	deviceView := tview.NewTextView()
	deviceView.SetBorder(true).SetTitle("Device")
	fmt.Fprintf(deviceView, "Count: %d\nUnique: %d\n", device.StepCount(), countUniqueLines(device, insts))

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(registers, 8, 0, false).
		AddItem(breakpoints, 0, 1, false).
		AddItem(deviceView, 4, 0, false)

	top := tview.NewFlex().
		AddItem(instructions, 0, 6, false).
		AddItem(right, 0, 4, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).AddItem(top, 0, 1, false)

	if loop.Device().Halted() {
		loop.PushMessage(vm.BoldMessage("device is halted"))
		loop.PushMessage(vm.InfoMessage("use `reset` to unhalt"))
	}
	if loop.Mode() == vm.ModeFree {
		loop.PushMessage(vm.BoldMessage("running in non-interactive mode, press `p` to pause or `q` to quit"))
	}

	for _, m := range loop.DrainMessages() {
		view := tview.NewTextView().SetDynamicColors(true)
		fmt.Fprint(view, messageMarkup(m))
		root.AddItem(view, 1, 0, false)
	}

	if loop.Mode() == vm.ModeInteractive {
		inputView := tview.NewTextView()
		fmt.Fprintf(inputView, "> %s", t.input)
		root.AddItem(inputView, 1, 0, false)
	}

	width, height := t.screen.Size()
	root.SetRect(0, 0, width, height)
	root.Draw(t.screen)
	t.screen.Show()
}

func (t *Terminal) instructionsTitle() string {
	if t.humanDecoding {
		return "Instructions (`F1` for Original)"
	}
	return "Instructions (`F1` for Human)"
}

func countUniqueLines(device *vm.Device, insts []vm.Instruction) int {
	count := 0
	for i := range insts {
		if device.HasExecuted(i) {
			count++
		}
	}
	return count
}

func messageMarkup(m vm.Message) string {
	switch m.Level {
	case vm.LevelError:
		return "[red]" + tview.Escape(m.Text) + "[-]"
	case vm.LevelBold:
		return "[white::u]" + tview.Escape(m.Text) + "[-:-:-]"
	default:
		return "[white]" + tview.Escape(m.Text) + "[-]"
	}
}
