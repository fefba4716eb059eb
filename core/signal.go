package core

import (
	"fmt"
	"strings"
)

// Signal is one of the four pads the player reproduces
type Signal uint8

const (
	SignalNone Signal = iota // No active signal
	SignalRed
	SignalBlue
	SignalGreen
	SignalYellow
	signalCount
)

// SignalCount is the number of playable signals
const SignalCount = int(signalCount) - 1

var signalNames = [signalCount]string{
	SignalNone:   "none",
	SignalRed:    "red",
	SignalBlue:   "blue",
	SignalGreen:  "green",
	SignalYellow: "yellow",
}

// Signals returns the playable signals in canonical order
func Signals() []Signal {
	return []Signal{SignalRed, SignalBlue, SignalGreen, SignalYellow}
}

// SignalAt maps an index in [0, SignalCount) to a playable signal
func SignalAt(i int) Signal {
	if i < 0 || i >= SignalCount {
		return SignalNone
	}
	return Signal(i + 1)
}

// Valid reports whether s is a playable signal
func (s Signal) Valid() bool {
	return s > SignalNone && s < signalCount
}

func (s Signal) String() string {
	if s >= signalCount {
		return fmt.Sprintf("signal(%d)", uint8(s))
	}
	return signalNames[s]
}

// ParseSignal resolves a signal by name, case-insensitive
func ParseSignal(name string) (Signal, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range Signals() {
		if signalNames[s] == name {
			return s, nil
		}
	}
	return SignalNone, fmt.Errorf("unknown signal %q", name)
}
