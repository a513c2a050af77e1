package machine

import (
	"errors"
	"fmt"
	"log"
	"slices"
)

// State of the machine's execution engine.
type State int

const (
	STATE_CREATED           = State(0) // Not yet run.
	STATE_RUNNING           = State(1) // Executing, or ready to execute.
	STATE_WAITING_FOR_INPUT = State(2) // Suspended until input arrives.
	STATE_PAUSED_ON_OUTPUT  = State(3) // Suspended until resumed.
	STATE_HALTED            = State(4) // Terminal.
)

var _state_names = [...]string{"created", "running", "waiting", "paused", "halted"}

func (state State) String() string {
	if state < 0 || int(state) >= len(_state_names) {
		return fmt.Sprintf("State(%d)", int(state))
	}
	return _state_names[state]
}

// SuspendReason is why a machine suspended.
type SuspendReason int

const (
	SUSPEND_INPUT  = SuspendReason(1) // Input queue empty, no default input.
	SUSPEND_OUTPUT = SuspendReason(2) // Paused after an output.
)

func (reason SuspendReason) String() string {
	switch reason {
	case SUSPEND_INPUT:
		return "input"
	case SUSPEND_OUTPUT:
		return "output"
	}
	return fmt.Sprintf("SuspendReason(%d)", int(reason))
}

// Suspension is the state needed to continue a suspended instruction.
type Suspension struct {
	Reason  SuspendReason
	Address int64 // Destination of the pending input write.
	Next    int64 // Pointer to continue at.
}

// Result is the terminal state of a halted machine.
type Result struct {
	LastValue int64 // Most recently consumed or produced value.
	HasValue  bool  // Set if any value was consumed or produced.
	Err       error // nil if the program reached the exit opcode.
}

// Completed returns true if the program stopped at the exit opcode.
func (res Result) Completed() bool {
	return res.Err == nil
}

// Faulted returns true if the program stopped on an error or halt request.
func (res Result) Faulted() bool {
	return res.Err != nil
}

// Options configures a new machine.
type Options struct {
	Label           string // Diagnostic tag, used in logging.
	Verbose         bool   // Set to enable verbose logging.
	PauseOnOutput   bool   // Suspend after each output until resumed.
	UseDefaultInput bool   // Substitute DefaultInput on an empty input queue.
	DefaultInput    int64  // Value read when the queue is empty.
	MemoryLimit     int64  // Highest addressable cell + 1, 0 for the default.
}

// Machine is an Intcode machine: memory, registers, and I/O state.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	label string

	mem          *Memory
	pointer      int64 // Next instruction.
	relativeBase int64 // Base of relative mode operands.

	inputs    []int64
	outputs   []int64
	lastValue int64
	hasValue  bool

	pauseOnOutput bool
	useDefault    bool
	defaultInput  int64

	running bool // Between Run() and halt.
	halted  bool
	idle    bool
	stop    bool // Halt requested.
	active  bool // Inside the step loop.

	pending *Suspension
	result  Result

	ticks int

	events events
}

// NewMachine creates a machine for a copy of the program, with an
// initial input queue.
func NewMachine(program []int64, inputs []int64, opts Options) (m *Machine) {
	m = &Machine{
		Verbose:       opts.Verbose,
		label:         opts.Label,
		mem:           NewMemory(program),
		inputs:        slices.Clone(inputs),
		pauseOnOutput: opts.PauseOnOutput,
		useDefault:    opts.UseDefaultInput,
		defaultInput:  opts.DefaultInput,
	}

	if opts.MemoryLimit > 0 {
		m.mem.Limit = opts.MemoryLimit
	}

	return
}

func (m *Machine) logf(format string, args ...any) {
	log.Printf("intcode %v: "+format, append([]any{m.label}, args...)...)
}

// Label returns the diagnostic label of the machine.
func (m *Machine) Label() string {
	return m.label
}

// State returns the current engine state.
func (m *Machine) State() State {
	switch {
	case m.halted:
		return STATE_HALTED
	case m.pending != nil && m.pending.Reason == SUSPEND_INPUT:
		return STATE_WAITING_FOR_INPUT
	case m.pending != nil && m.pending.Reason == SUSPEND_OUTPUT:
		return STATE_PAUSED_ON_OUTPUT
	case m.running:
		return STATE_RUNNING
	}
	return STATE_CREATED
}

// Memory returns the machine's memory.
func (m *Machine) Memory() *Memory {
	return m.mem
}

// Pointer returns the instruction pointer.
func (m *Machine) Pointer() int64 {
	return m.pointer
}

// RelativeBase returns the relative base register.
func (m *Machine) RelativeBase() int64 {
	return m.relativeBase
}

// Outputs returns a copy of the output log.
func (m *Machine) Outputs() []int64 {
	return slices.Clone(m.outputs)
}

// Inputs returns a copy of the queued, unconsumed inputs.
func (m *Machine) Inputs() []int64 {
	return slices.Clone(m.inputs)
}

// LastValue returns the most recently consumed or produced value.
func (m *Machine) LastValue() (value int64, ok bool) {
	return m.lastValue, m.hasValue
}

// Running returns true from Run() until the machine halts.
func (m *Machine) Running() bool {
	return m.running
}

// Halted returns true once the machine has halted.
func (m *Machine) Halted() bool {
	return m.halted
}

// Paused returns true while suspended after an output.
func (m *Machine) Paused() bool {
	return m.State() == STATE_PAUSED_ON_OUTPUT
}

// WaitingForInput returns true while suspended for want of input.
func (m *Machine) WaitingForInput() bool {
	return m.State() == STATE_WAITING_FOR_INPUT
}

// Idle returns true if the most recent input read used the default input.
func (m *Machine) Idle() bool {
	return m.idle
}

// Pending returns the current suspension, if any.
func (m *Machine) Pending() (pending Suspension, ok bool) {
	if m.pending == nil {
		return
	}
	return *m.pending, true
}

// Result returns the terminal state; only meaningful once halted.
func (m *Machine) Result() Result {
	return m.result
}

// Ticks returns the number of instructions executed.
func (m *Machine) Ticks() int {
	return m.ticks
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text += fmt.Sprintf("%6s: %v\n", "label", m.label)
	text += fmt.Sprintf("%6s: %v\n", "state", m.State())
	text += fmt.Sprintf("%6s: %v\n", "ip", m.pointer)
	text += fmt.Sprintf("%6s: %v\n", "rb", m.relativeBase)
	if word, err := m.mem.Read(m.pointer); err == nil {
		if in, err := Decode(word); err == nil {
			text += fmt.Sprintf("%6s: %v %v\n", "op", in, m.mem.Slice(m.pointer+1, m.pointer+in.Width()))
		} else {
			text += fmt.Sprintf("%6s: %v (%v)\n", "op", word, err)
		}
	}
	text += fmt.Sprintf("%6s: %v\n", "input", m.inputs)
	text += fmt.Sprintf("%6s: %v\n", "output", len(m.outputs))
	return
}

// Input queues values. A machine waiting for input continues running.
func (m *Machine) Input(values ...int64) {
	if len(values) == 0 {
		return
	}

	m.inputs = append(m.inputs, values...)

	if m.active || m.halted || m.pending == nil || m.pending.Reason != SUSPEND_INPUT {
		return
	}

	err := m.settle()
	if err != nil {
		m.halt(err)
		return
	}

	if m.running {
		m.loop()
	}
}

// InputString queues the code point of each character of text. Invalid
// UTF-8 bytes are queued as U+FFFD.
func (m *Machine) InputString(text string) {
	values := make([]int64, 0, len(text))
	for _, r := range text {
		values = append(values, int64(r))
	}

	m.Input(values...)
}

// Resume releases a pause on output.
func (m *Machine) Resume() {
	if m.halted || m.pending == nil || m.pending.Reason != SUSPEND_OUTPUT {
		return
	}

	if m.Verbose {
		m.logf("resume")
	}

	m.pending = nil

	if m.running && !m.active {
		m.loop()
	}
}

// Halt requests termination at the next step boundary. A suspended
// machine halts immediately.
func (m *Machine) Halt() {
	m.stop = true

	if m.halted || m.active || m.pending == nil {
		return
	}

	m.halt(&ErrStep{Pointer: m.pointer, Err: ErrHaltRequested})
}

// Run the machine until it halts or suspends, returning the output log.
//
// A suspended machine continues the same run when input is supplied or
// it is resumed.
func (m *Machine) Run() (outputs []int64, err error) {
	if m.running {
		err = ErrRunning
		return
	}

	if m.halted {
		err = ErrHalted
		return
	}

	if m.Verbose {
		m.logf("run %v", m.mem.Slice(0, min(m.mem.Len(), 8)))
	}

	m.running = true

	// Adopt a pause left by Step().
	if m.pending != nil && m.pending.Reason == SUSPEND_OUTPUT {
		m.pending = nil
	}

	m.loop()

	outputs = m.Outputs()
	return
}

// Step executes exactly one instruction, outside of Run(), and returns
// the resulting instruction pointer.
//
// A fault halts the machine and is returned. Reaching the exit opcode
// halts the machine and returns an error matching ErrExit.
func (m *Machine) Step() (pointer int64, err error) {
	switch {
	case m.halted:
		err = ErrHalted
	case m.running || m.active:
		err = ErrRunning
	case m.pending != nil && m.pending.Reason == SUSPEND_INPUT:
		err = ErrSuspended
	}
	if err != nil {
		pointer = m.pointer
		return
	}

	m.pending = nil

	m.active = true
	err = m.step()
	if err == nil {
		err = m.settle()
	}
	if err == nil && m.pending != nil && m.stop {
		err = &ErrStep{Pointer: m.pointer, Err: ErrHaltRequested}
	}
	m.active = false

	if err != nil {
		m.halt(err)
	}

	pointer = m.pointer
	return
}

// loop steps until halted or suspended.
func (m *Machine) loop() {
	m.active = true
	defer func() {
		m.active = false
	}()

	for m.running {
		err := m.settle()
		if err == nil && m.pending != nil {
			if !m.stop {
				return
			}
			err = &ErrStep{Pointer: m.pointer, Err: ErrHaltRequested}
		}
		if err == nil {
			err = m.step()
		}
		if err != nil {
			m.halt(err)
			return
		}
	}
}

// step executes the instruction at the pointer.
func (m *Machine) step() (err error) {
	defer func() {
		if err != nil {
			err = &ErrStep{Pointer: m.pointer, Err: err}
		}
	}()

	if m.stop {
		err = ErrHaltRequested
		return
	}

	word, err := m.mem.Read(m.pointer)
	if err != nil {
		return
	}

	in, err := Decode(word)
	if err != nil {
		return
	}

	args := m.mem.Slice(m.pointer+1, m.pointer+in.Width())

	if m.Verbose {
		m.logf("%04d: %v %v", m.pointer, in, args)
	}

	oper, _ := lookup(in.Opcode)
	eff, target, err := oper.exec(m, in, args)
	if err != nil {
		err = fmt.Errorf("%v: %w", oper.Name, err)
		return
	}

	m.ticks++

	switch eff {
	case effectNext:
		m.pointer += in.Width()
	case effectJump:
		m.pointer = target
	case effectSuspend:
		if m.pending.Reason == SUSPEND_OUTPUT {
			m.pointer = m.pending.Next
		}
		m.suspended()
	}

	return
}

// suspended announces a new suspension.
func (m *Machine) suspended() {
	if m.Verbose {
		m.logf("suspend %v at %04d", m.pending.Reason, m.pointer)
	}

	if m.pending.Reason == SUSPEND_INPUT {
		m.events.awaited.emit(*m.pending)
	}
}

// settle completes a pending input from the queue, if possible.
func (m *Machine) settle() (err error) {
	if m.pending == nil || m.pending.Reason != SUSPEND_INPUT || len(m.inputs) == 0 {
		return
	}

	pending := *m.pending
	m.pending = nil

	value := m.dequeue()
	err = m.mem.Write(pending.Address, value)
	if err != nil {
		err = &ErrStep{Pointer: m.pointer, Err: err}
		return
	}

	m.pointer = pending.Next
	return
}

// halt moves the machine to the terminal state, and notifies observers.
func (m *Machine) halt(err error) {
	if errors.Is(err, ErrExit) {
		err = nil
	}

	m.running = false
	m.halted = true
	m.pending = nil
	m.result = Result{
		LastValue: m.lastValue,
		HasValue:  m.hasValue,
		Err:       err,
	}

	if m.Verbose {
		if err != nil {
			m.logf("halted: %v", err)
		} else {
			m.logf("halted")
		}
	}

	m.events.halt.emit(m.result)
}

// read resolves an operand to a value.
func (m *Machine) read(operand int64, mode Mode) (value int64, err error) {
	switch mode {
	case MODE_IMMEDIATE:
		value = operand
	case MODE_POSITION:
		value, err = m.mem.Read(operand)
	case MODE_RELATIVE:
		value, err = m.mem.Read(m.relativeBase + operand)
	default:
		err = ErrModeDecode
	}

	return
}

// address resolves an operand to a destination address.
func (m *Machine) address(operand int64, mode Mode) (addr int64, err error) {
	switch mode {
	case MODE_POSITION:
		addr = operand
	case MODE_RELATIVE:
		addr = m.relativeBase + operand
	case MODE_IMMEDIATE:
		err = ErrWriteTarget
		return
	default:
		err = ErrModeDecode
		return
	}

	err = m.mem.check(addr)
	return
}

// write stores a value through an operand.
func (m *Machine) write(operand int64, mode Mode, value int64) (err error) {
	addr, err := m.address(operand, mode)
	if err != nil {
		return
	}

	err = m.mem.Write(addr, value)
	return
}

// dequeue consumes the head of the input queue.
func (m *Machine) dequeue() (value int64) {
	value = m.inputs[0]
	m.inputs = m.inputs[1:]

	m.setIdle(false)
	m.setLastValue(value)

	if m.Verbose {
		m.logf("input %v", value)
	}

	m.events.input.emit(value)
	return
}

func (m *Machine) setLastValue(value int64) {
	m.lastValue = value
	m.hasValue = true
}

func (m *Machine) setIdle(idle bool) {
	if m.idle == idle {
		return
	}

	m.idle = idle
	m.events.idle.emit(idle)
}

// Clone returns an independent copy of a machine that is not running,
// without its observers.
func (m *Machine) Clone() (clone *Machine, err error) {
	if m.active || m.running {
		err = ErrRunning
		return
	}

	clone = &Machine{
		Verbose:       m.Verbose,
		label:         m.label,
		mem:           m.mem.Clone(),
		pointer:       m.pointer,
		relativeBase:  m.relativeBase,
		inputs:        slices.Clone(m.inputs),
		outputs:       slices.Clone(m.outputs),
		lastValue:     m.lastValue,
		hasValue:      m.hasValue,
		pauseOnOutput: m.pauseOnOutput,
		useDefault:    m.useDefault,
		defaultInput:  m.defaultInput,
		halted:        m.halted,
		idle:          m.idle,
		stop:          m.stop,
		result:        m.result,
		ticks:         m.ticks,
	}

	if m.pending != nil {
		pending := *m.pending
		clone.pending = &pending
	}

	return
}
