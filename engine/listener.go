package engine

import "github.com/lixenwraith/simon/core"

// Listener receives highlight events for playback and player presses
// Called with the engine lock held: implementations must not call back into the Engine
type Listener interface {
	OnSignalStart(core.Signal)
	OnSignalEnd()
}

// StateListener is an optional Listener extension notified after every state change
type StateListener interface {
	OnStateChange(Snapshot)
}

// listenerEntry keys a subscription so func-valued listeners can be removed
type listenerEntry struct {
	id uint64
	l  Listener
}

// ListenerFuncs adapts plain functions, nil fields are skipped
type ListenerFuncs struct {
	SignalStart func(core.Signal)
	SignalEnd   func()
	StateChange func(Snapshot)
}

func (l ListenerFuncs) OnSignalStart(s core.Signal) {
	if l.SignalStart != nil {
		l.SignalStart(s)
	}
}

func (l ListenerFuncs) OnSignalEnd() {
	if l.SignalEnd != nil {
		l.SignalEnd()
	}
}

func (l ListenerFuncs) OnStateChange(s Snapshot) {
	if l.StateChange != nil {
		l.StateChange(s)
	}
}
