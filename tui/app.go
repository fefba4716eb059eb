package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/simon/constant"
	"github.com/lixenwraith/simon/core"
	"github.com/lixenwraith/simon/engine"
)

const (
	eventBuffer     = 100
	clockRefresh    = time.Second // Elapsed time display
	bestReadTimeout = 500 * time.Millisecond
)

// bestKey identifies when the cached best score may be stale
type bestKey struct {
	difficulty core.Difficulty
	phase      engine.Phase
	newBest    bool
}

// Options adjusts the front end to the services it runs with
type Options struct {
	ScoresVolatile bool
}

// App drives an Engine from a terminal screen
type App struct {
	screen tcell.Screen
	engine *engine.Engine
	log    zerolog.Logger
	opts   Options

	redraw chan struct{}

	best      int
	bestKey   bestKey
	bestValid bool
}

// NewApp creates the terminal front end, the screen must already be initialized
func NewApp(screen tcell.Screen, e *engine.Engine, log zerolog.Logger, opts Options) *App {
	return &App{
		screen: screen,
		engine: e,
		log:    log.With().Str("component", "tui").Logger(),
		opts:   opts,
		redraw: make(chan struct{}, 1),
	}
}

// Run processes input and redraws until quit or ctx is done
func (a *App) Run(ctx context.Context) error {
	unsubscribe := a.engine.Subscribe(engine.ListenerFuncs{
		SignalStart: func(core.Signal) { a.requestRedraw() },
		SignalEnd:   a.requestRedraw,
		StateChange: func(engine.Snapshot) { a.requestRedraw() },
	})
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)

	events := make(chan tcell.Event, eventBuffer)
	core.Go(func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return // Screen finalized
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	})

	ticker := time.NewTicker(clockRefresh)
	defer ticker.Stop()

	a.draw(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			if !a.handleEvent(ev) {
				a.log.Debug().Msg("quit requested")
				return nil
			}
			a.draw(ctx)

		case <-a.redraw:
			a.draw(ctx)

		case <-ticker.C:
			if a.engine.Snapshot().Phase == engine.PhasePlaying {
				a.draw(ctx)
			}
		}
	}
}

// requestRedraw is called under the engine lock and must not block
func (a *App) requestRedraw() {
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

// handleEvent returns false when the player quits
func (a *App) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		cmd := MapKey(ev)
		if cmd.Action == ActionQuit {
			return false
		}
		a.apply(cmd)

	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

// apply issues the engine command for cmd, rejected commands are silent no-ops
func (a *App) apply(cmd Command) {
	e := a.engine
	switch cmd.Action {
	case ActionInput:
		e.HandleInput(cmd.Signal)
	case ActionStart:
		e.Start()
	case ActionPause:
		e.TogglePause()
	case ActionReset:
		e.Reset()
	case ActionDifficulty:
		e.ChangeDifficulty(e.Snapshot().Difficulty.Next())
	case ActionSound:
		e.ToggleSound()
	case ActionVolumeUp:
		e.SetVolume(e.Snapshot().Volume + constant.VolumeStep)
	case ActionVolumeDown:
		e.SetVolume(e.Snapshot().Volume - constant.VolumeStep)
	}
}

func (a *App) draw(ctx context.Context) {
	snap := a.engine.Snapshot()
	Render(a.screen, snap, Status{
		Best:           a.bestFor(ctx, snap),
		ScoresVolatile: a.opts.ScoresVolatile,
	})
}

// bestFor returns the stored best, re-reading it when difficulty, phase or the new-best flag changed
func (a *App) bestFor(ctx context.Context, snap engine.Snapshot) int {
	key := bestKey{difficulty: snap.Difficulty, phase: snap.Phase, newBest: snap.NewBest}
	if a.bestValid && key == a.bestKey {
		return a.best
	}

	ctx, cancel := context.WithTimeout(ctx, bestReadTimeout)
	defer cancel()

	best, err := a.engine.Best(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("best score unavailable")
		best = 0
	}
	a.best = best
	a.bestKey = key
	a.bestValid = true
	return best
}
