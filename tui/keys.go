package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/simon/core"
)

// Action is a player intent decoded from a key
type Action int

const (
	ActionNone Action = iota
	ActionInput
	ActionStart
	ActionPause
	ActionReset
	ActionDifficulty
	ActionSound
	ActionVolumeUp
	ActionVolumeDown
	ActionQuit
)

// Command is a decoded key, Signal is set for ActionInput
type Command struct {
	Action Action
	Signal core.Signal
}

// padKeys follows the on-screen grid: red green / blue yellow
var padKeys = map[rune]core.Signal{
	'1': core.SignalRed,
	'2': core.SignalGreen,
	'3': core.SignalBlue,
	'4': core.SignalYellow,
	'r': core.SignalRed,
	'g': core.SignalGreen,
	'b': core.SignalBlue,
	'y': core.SignalYellow,
}

var runeActions = map[rune]Action{
	's': ActionStart,
	'p': ActionPause,
	' ': ActionPause,
	'x': ActionReset,
	'd': ActionDifficulty,
	'm': ActionSound,
	'+': ActionVolumeUp,
	'=': ActionVolumeUp,
	'-': ActionVolumeDown,
	'q': ActionQuit,
}

// MapKey decodes a key event
func MapKey(ev *tcell.EventKey) Command {
	return mapKey(ev.Key(), ev.Rune())
}

func mapKey(key tcell.Key, r rune) Command {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Command{Action: ActionQuit}
	case tcell.KeyEnter:
		return Command{Action: ActionStart}
	case tcell.KeyRune:
	default:
		return Command{}
	}

	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	if sig, ok := padKeys[r]; ok {
		return Command{Action: ActionInput, Signal: sig}
	}
	if a, ok := runeActions[r]; ok {
		return Command{Action: a}
	}
	return Command{}
}
