package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/simon/core"
	"github.com/lixenwraith/simon/engine"
)

// Pad geometry
const (
	padWidth  = 16
	padHeight = 6
	padGapX   = 2
	padGapY   = 1
	headerRow = 1
)

// padLayout places signals in the grid, row-major
var padLayout = [2][2]core.Signal{
	{core.SignalRed, core.SignalGreen},
	{core.SignalBlue, core.SignalYellow},
}

var padColors = map[core.Signal]struct{ dim, lit tcell.Color }{
	core.SignalRed:    {tcell.NewRGBColor(110, 20, 20), tcell.NewRGBColor(255, 70, 70)},
	core.SignalGreen:  {tcell.NewRGBColor(20, 90, 30), tcell.NewRGBColor(80, 255, 110)},
	core.SignalBlue:   {tcell.NewRGBColor(20, 40, 110), tcell.NewRGBColor(80, 150, 255)},
	core.SignalYellow: {tcell.NewRGBColor(110, 100, 20), tcell.NewRGBColor(255, 235, 80)},
}

var padLabels = map[core.Signal]string{
	core.SignalRed:    "1 R",
	core.SignalGreen:  "2 G",
	core.SignalBlue:   "3 B",
	core.SignalYellow: "4 Y",
}

// Title returns the header title for a snapshot
func Title(s engine.Snapshot) string {
	switch s.Phase {
	case engine.PhaseGameOver:
		if s.NewBest {
			return "NEW HIGH SCORE!"
		}
		return "Game Over!"
	case engine.PhasePaused:
		return "Game Paused"
	case engine.PhaseIdle:
		return "Simon Says..."
	}
	if s.Stage == engine.StageShowingSequence {
		return "Watch Carefully..."
	}
	return fmt.Sprintf("Level %d", s.Level)
}

// Subtitle returns the line under the title
func Subtitle(s engine.Snapshot) string {
	switch s.Phase {
	case engine.PhaseGameOver:
		return "Press Enter to play again"
	case engine.PhasePaused:
		return "Press Space to resume"
	case engine.PhaseIdle:
		return "Ready to Play: press Enter to start"
	}
	switch s.Stage {
	case engine.StageShowingSequence:
		return "Watch the sequence..."
	case engine.StageWrongAnswer:
		return "Wrong!"
	case engine.StageRoundComplete:
		return "Well done"
	}
	return "Repeat the sequence"
}

// Status carries what the frame needs beyond the engine snapshot
type Status struct {
	Best           int
	ScoresVolatile bool // Best scores kept in memory only, lost on exit
}

// Render draws the whole frame for s
func Render(screen tcell.Screen, s engine.Snapshot, st Status) {
	screen.Clear()
	width, _ := screen.Size()

	base := tcell.StyleDefault
	bold := base.Bold(true)
	dim := base.Foreground(tcell.ColorGray)

	titleStyle := bold
	if s.WrongAnswer || (s.Phase == engine.PhaseGameOver && !s.NewBest) {
		titleStyle = bold.Foreground(tcell.ColorRed)
	} else if s.NewBest {
		titleStyle = bold.Foreground(tcell.ColorGold)
	}

	drawCentered(screen, width, headerRow, Title(s), titleStyle)
	drawCentered(screen, width, headerRow+1, Subtitle(s), dim)
	drawCentered(screen, width, headerRow+3, statsLine(s, st.Best), base)

	gridWidth := 2*padWidth + padGapX
	left := (width - gridWidth) / 2
	if left < 0 {
		left = 0
	}
	top := headerRow + 5

	for row, signals := range padLayout {
		for col, sig := range signals {
			x := left + col*(padWidth+padGapX)
			y := top + row*(padHeight+padGapY)
			drawPad(screen, x, y, sig, s.ActiveSignal == sig)
		}
	}

	footer := top + 2*padHeight + padGapY + 1
	drawCentered(screen, width, footer, settingsLine(s, st), dim)
	drawCentered(screen, width, footer+1, "1-4/rgby press  enter start  space pause  x reset  d difficulty  m sound  +/- volume  q quit", dim)

	screen.Show()
}

func statsLine(s engine.Snapshot, best int) string {
	if s.Phase == engine.PhaseIdle {
		return fmt.Sprintf("Difficulty %s   High Score %d", s.Difficulty.Config().Name, best)
	}
	if s.Phase == engine.PhaseGameOver {
		hi := best
		if s.Score > hi {
			hi = s.Score
		}
		return fmt.Sprintf("Final Score %d   High Score %d   Level %d", s.Score, hi, s.Level)
	}
	return fmt.Sprintf("Score %d   Level %d   Streak %d   Best %d", s.Score, s.Level, s.Streak, best)
}

func settingsLine(s engine.Snapshot, st Status) string {
	var b strings.Builder
	b.WriteString(s.Difficulty.Config().Name)
	if s.SoundEnabled {
		fmt.Fprintf(&b, "   sound on %d%%", int(s.Volume*100+0.5))
	} else {
		b.WriteString("   sound off")
	}
	if s.AudioDegraded {
		b.WriteString("   [audio unavailable]")
	}
	if st.ScoresVolatile {
		b.WriteString("   [scores not saved]")
	}
	if s.Phase != engine.PhaseIdle {
		fmt.Fprintf(&b, "   %s", s.Elapsed.Truncate(time.Second))
	}
	return b.String()
}

func drawPad(screen tcell.Screen, x, y int, sig core.Signal, lit bool) {
	colors := padColors[sig]
	bg := colors.dim
	if lit {
		bg = colors.lit
	}
	style := tcell.StyleDefault.Background(bg).Foreground(tcell.ColorBlack)

	for dy := 0; dy < padHeight; dy++ {
		for dx := 0; dx < padWidth; dx++ {
			screen.SetContent(x+dx, y+dy, ' ', nil, style)
		}
	}

	label := padLabels[sig]
	drawText(screen, x+(padWidth-len(label))/2, y+padHeight/2, label, style.Bold(lit))
}

func drawCentered(screen tcell.Screen, width, y int, text string, style tcell.Style) {
	x := (width - len(text)) / 2
	if x < 0 {
		x = 0
	}
	drawText(screen, x, y, text, style)
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
