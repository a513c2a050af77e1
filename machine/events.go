package machine

import (
	"slices"
)

type listener[T any] struct {
	id   int
	once bool
	fn   func(T)
}

// signal is a list of observers of one kind of machine event.
type signal[T any] struct {
	next      int
	listeners []listener[T]
}

func (sig *signal[T]) add(fn func(T), once bool) (cancel func()) {
	sig.next++
	id := sig.next
	sig.listeners = append(sig.listeners, listener[T]{id: id, once: once, fn: fn})

	cancel = func() {
		sig.listeners = slices.DeleteFunc(sig.listeners, func(l listener[T]) bool {
			return l.id == id
		})
	}
	return
}

func (sig *signal[T]) emit(value T) {
	if len(sig.listeners) == 0 {
		return
	}

	// Handlers may add or cancel listeners.
	current := slices.Clone(sig.listeners)
	sig.listeners = slices.DeleteFunc(sig.listeners, func(l listener[T]) bool {
		return l.once
	})

	for _, l := range current {
		l.fn(value)
	}
}

type events struct {
	output  signal[int64]
	input   signal[int64]
	awaited signal[Suspension]
	idle    signal[bool]
	halt    signal[Result]
}

// OnOutput registers a handler called with every output value.
func (m *Machine) OnOutput(handler func(value int64)) (cancel func()) {
	return m.events.output.add(handler, false)
}

// OnOutputOnce registers a handler called with the next output value only.
func (m *Machine) OnOutputOnce(handler func(value int64)) (cancel func()) {
	return m.events.output.add(handler, true)
}

// OnInput registers a handler called with every input value consumed
// from the queue.
func (m *Machine) OnInput(handler func(value int64)) (cancel func()) {
	return m.events.input.add(handler, false)
}

// OnInputAwaited registers a handler called whenever the machine suspends
// for want of input. The handler may supply input directly.
func (m *Machine) OnInputAwaited(handler func(pending Suspension)) (cancel func()) {
	return m.events.awaited.add(handler, false)
}

// OnIdle registers a handler called when the idle state changes.
func (m *Machine) OnIdle(handler func(idle bool)) (cancel func()) {
	return m.events.idle.add(handler, false)
}

// OnHalt registers a handler called when the machine halts.
func (m *Machine) OnHalt(handler func(result Result)) (cancel func()) {
	return m.events.halt.add(handler, false)
}

// OnHaltOnce registers a handler called when the machine halts, once.
func (m *Machine) OnHaltOnce(handler func(result Result)) (cancel func()) {
	return m.events.halt.add(handler, true)
}

// OnOutputOrHaltOnce registers a handler called once, with either the
// next output value or the last value at halt, whichever comes first.
func (m *Machine) OnOutputOrHaltOnce(handler func(value int64, halted bool)) (cancel func()) {
	var cancelOutput, cancelHalt func()

	cancelOutput = m.events.output.add(func(value int64) {
		cancelHalt()
		handler(value, false)
	}, true)
	cancelHalt = m.events.halt.add(func(result Result) {
		cancelOutput()
		handler(result.LastValue, true)
	}, true)

	cancel = func() {
		cancelOutput()
		cancelHalt()
	}
	return
}
