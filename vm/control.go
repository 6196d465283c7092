package vm

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultNoninteractiveStep is how many Free-mode steps elapse between
// draws, matching the original debugger's throughput-over-latency choice.
const DefaultNoninteractiveStep = 1_000_000

// Mode is the control loop's running state.
type Mode int

const (
	// ModeInteractive blocks for a command between steps.
	ModeInteractive Mode = iota
	// ModeFree runs the device step by step without waiting for input.
	ModeFree
)

func (m Mode) String() string {
	switch m {
	case ModeInteractive:
		return "interactive"
	case ModeFree:
		return "free"
	default:
		return "?"
	}
}

// DispatchAction is what the command-reading side of the loop should do
// after a Dispatch call.
type DispatchAction int

const (
	// ActionStay means keep reading commands; no step occurred.
	ActionStay DispatchAction = iota
	// ActionAdvance means break out and run exactly one Device.Clear +
	// Device.Step, then resume per the (possibly just-changed) Mode.
	ActionAdvance
	// ActionQuit means terminate the loop.
	ActionQuit
)

// Loop is the debugger's control loop: it owns the device, the hook
// list, the pending message queue, and the Interactive/Free mode
// machine. It does not read keys or render - that is the TUI
// collaborator's job, driving the loop via EvaluateHooks/Dispatch/Step.
type Loop struct {
	device *Device
	mode   Mode
	hooks  []Hook

	messages    []Message
	lastCommand string

	noninteractiveStep int64

	log zerolog.Logger
}

// LoopOption configures a new Loop.
type LoopOption func(*Loop)

// WithLogger attaches a zerolog logger for lifecycle events (mode
// transitions, load/reset). Defaults to a disabled logger.
func WithLogger(log zerolog.Logger) LoopOption {
	return func(l *Loop) { l.log = log }
}

// WithNoninteractiveStep overrides the default draw-gating interval.
func WithNoninteractiveStep(step int64) LoopOption {
	return func(l *Loop) { l.noninteractiveStep = step }
}

// WithInteractive starts the loop in Interactive mode (the default).
func WithInteractive() LoopOption {
	return func(l *Loop) { l.mode = ModeInteractive }
}

// WithFree starts the loop already running freely.
func WithFree() LoopOption {
	return func(l *Loop) { l.mode = ModeFree }
}

// NewLoop constructs a Loop around an already-loaded (or empty) device.
func NewLoop(device *Device, opts ...LoopOption) *Loop {
	l := &Loop{
		device:              device,
		mode:                ModeInteractive,
		noninteractiveStep:  DefaultNoninteractiveStep,
		log:                 zerolog.Nop(),
	}
	l.pushHelp()
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Device returns the loop's underlying device.
func (l *Loop) Device() *Device {
	return l.device
}

// Mode returns the current run mode.
func (l *Loop) Mode() Mode {
	return l.mode
}

// Hooks returns the current breakpoint list, in insertion order.
func (l *Loop) Hooks() []Hook {
	return l.hooks
}

// ShouldDraw reports whether this tick's state should be rendered:
// always in Interactive mode, every noninteractive_step steps in Free.
func (l *Loop) ShouldDraw() bool {
	if l.mode == ModeInteractive {
		return true
	}
	return l.device.StepCount()%l.noninteractiveStep == 0
}

// PushMessage queues a message for the TUI's message strip to drain.
func (l *Loop) PushMessage(m Message) {
	l.messages = append(l.messages, m)
}

// DrainMessages returns and clears the pending message queue.
func (l *Loop) DrainMessages() []Message {
	msgs := l.messages
	l.messages = nil
	return msgs
}

func (l *Loop) pushHelp() {
	l.messages = append(l.messages,
		BoldMessage("Commands:"),
		InfoMessage("  help - show this help."),
		InfoMessage("  exit, q - close this session."),
		InfoMessage("  load <path> - load an elfcode program from the given path."),
		InfoMessage("  reset - reset the device back to its original state."),
		InfoMessage("  break, b <expr> - break when the given expression holds true."),
		InfoMessage("    <expr> can be one of: line(<line>), read(<reg>), write(<reg>), not(<expr>),"),
		InfoMessage("    all(<expr1>[, <expr2>]), unique(<reg>), or <op>(<reg>, <value>)."),
		InfoMessage("    <reg> is a register, like `a` or `ip`."),
		InfoMessage("    <value> is a register value, like `42` or `100000`."),
		InfoMessage("    <op> can be one of `eq`, `lt`, `lte`, `gt`, or `gte`."),
		InfoMessage("  clear, cl [index] - clear breakpoint, if [index] is blank removes the last one."),
		InfoMessage("  inspect [index] - inspect the state of a breakpoint."),
		InfoMessage("  step, s - run a single instruction."),
		InfoMessage("  continue, c - continue running in non-interactive mode."),
		InfoMessage("  set <reg> <value> - set the register <reg> to the given value <value>."),
		BoldMessage("Keys:"),
		InfoMessage("  <up>|<down> - scroll the instructions window up and down."),
		InfoMessage("  <F1> - toggle between original and human decoding of instructions."),
		InfoMessage("  <q> - quit when in non-interactive mode."),
		InfoMessage("  <p> - pause when in non-interactive mode."),
	)
}

// EvaluateHooks tests every hook against the device's just-stepped
// state, in insertion order, unconditionally (see EvaluateAll). If any
// hook fires, or the device has halted, the loop is forced into
// Interactive mode.
func (l *Loop) EvaluateHooks() (bool, error) {
	fired, err := EvaluateAll(l.hooks, l.device)
	if err != nil {
		return false, errors.Wrap(err, "evaluate hooks")
	}

	if fired && l.mode != ModeInteractive {
		l.log.Debug().Msg("hook fired, entering interactive mode")
		l.mode = ModeInteractive
	}
	if l.device.Halted() && l.mode != ModeInteractive {
		l.log.Debug().Msg("device halted, entering interactive mode")
		l.mode = ModeInteractive
	}

	return fired, nil
}

// Step clears per-step tracking and executes exactly one instruction.
func (l *Loop) Step() error {
	l.device.Clear()
	return l.device.Step()
}

// HandleFreeKey processes a single key observed while in Free mode.
// 'q' requests the loop quit; 'p' pauses into Interactive mode. Any
// other rune is ignored here (scrolling and the F1 toggle are rendering
// concerns owned by the TUI collaborator).
func (l *Loop) HandleFreeKey(r rune) (quit bool) {
	switch r {
	case 'q':
		return true
	case 'p':
		l.mode = ModeInteractive
	}
	return false
}

// Dispatch parses and executes a single interactive command line. A
// blank line re-runs the last non-blank command, or pushes an error
// message if there is none. Returns the DispatchAction the caller's
// read-loop should take next.
func (l *Loop) Dispatch(line string) (DispatchAction, error) {
	line = strings.TrimSpace(line)

	if line == "" {
		if l.lastCommand == "" {
			l.PushMessage(ErrorMessage("no command to re-run"))
			return ActionStay, nil
		}
		line = l.lastCommand
	} else {
		l.lastCommand = line
	}

	fields := strings.SplitN(line, " ", 2)
	cmd := fields[0]
	var rest string
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}

	switch cmd {
	case "help":
		l.pushHelp()
		return ActionStay, nil
	case "exit", "quit", "q":
		return ActionQuit, nil
	case "reset":
		l.cmdReset()
		return ActionStay, nil
	case "load":
		l.cmdLoad(rest)
		return ActionStay, nil
	case "c", "continue":
		if l.device.Halted() {
			l.PushMessage(ErrorMessage("can't continue, device is halted!"))
			return ActionStay, nil
		}
		l.mode = ModeFree
		return ActionAdvance, nil
	case "s", "step":
		if l.device.Halted() {
			l.PushMessage(ErrorMessage("can't step, device is halted!"))
			return ActionStay, nil
		}
		return ActionAdvance, nil
	case "b", "break":
		l.cmdBreak(rest)
		return ActionStay, nil
	case "cl", "clear":
		l.cmdClear(rest)
		return ActionStay, nil
	case "inspect":
		l.cmdInspect(rest)
		return ActionStay, nil
	case "set":
		l.cmdSet(rest)
		return ActionStay, nil
	default:
		l.PushMessage(ErrorMessage("no such command: " + cmd))
		return ActionStay, nil
	}
}

func (l *Loop) cmdReset() {
	for i := range l.hooks {
		l.hooks[i].Reset()
	}
	l.device.Reset()
	l.log.Info().Msg("device and hooks reset")
}

func (l *Loop) cmdLoad(path string) {
	if path == "" {
		l.PushMessage(ErrorMessage("expected: load <path>"))
		return
	}
	if err := l.device.LoadPath(path); err != nil {
		l.PushMessage(ErrorMessage("problem when loading `" + path + "`: " + err.Error()))
		return
	}
	l.log.Info().Str("path", path).Msg("program loaded")
}

func (l *Loop) cmdBreak(condition string) {
	if condition == "" {
		l.PushMessage(ErrorMessage("missing break condition!"))
		return
	}
	hook, err := ParseHook(condition, l.device)
	if err != nil {
		l.PushMessage(ErrorMessage("bad condition: " + err.Error()))
		return
	}
	l.hooks = append(l.hooks, hook)
}

func (l *Loop) cmdClear(arg string) {
	index, ok := l.resolveHookIndex(arg, "no breakpoints to clear")
	if !ok {
		return
	}
	l.hooks = append(l.hooks[:index], l.hooks[index+1:]...)
}

func (l *Loop) cmdInspect(arg string) {
	index, ok := l.resolveHookIndex(arg, "no breakpoints to inspect")
	if !ok {
		return
	}
	l.PushMessage(InfoMessage(l.hooks[index].Inspect()))
}

// resolveHookIndex parses an optional index argument, defaulting to the
// last hook when blank. Pushes an error message and returns ok=false on
// any failure (empty hook list, out-of-range, or bad integer).
func (l *Loop) resolveHookIndex(arg string, emptyMessage string) (int, bool) {
	if arg == "" {
		if len(l.hooks) == 0 {
			l.PushMessage(ErrorMessage(emptyMessage))
			return 0, false
		}
		return len(l.hooks) - 1, true
	}

	index, err := strconv.Atoi(arg)
	if err != nil {
		l.PushMessage(ErrorMessage("bad index `" + arg + "`: " + err.Error()))
		return 0, false
	}
	if index < 0 || index >= len(l.hooks) {
		l.PushMessage(ErrorMessage("bad hook index `" + arg + "`"))
		return 0, false
	}
	return index, true
}

func (l *Loop) cmdSet(rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		l.PushMessage(ErrorMessage("expected: set <register> <value>"))
		return
	}

	reg, err := l.device.Registers().RegisterByName(fields[0])
	if err != nil {
		l.PushMessage(ErrorMessage("bad register: " + fields[0]))
		return
	}

	value, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		l.PushMessage(ErrorMessage("bad value `" + fields[1] + "`: " + err.Error()))
		return
	}

	if err := l.device.Registers().Set(reg, value); err != nil {
		l.PushMessage(ErrorMessage(err.Error()))
	}
}
