package engine

import (
	"fmt"
	"time"
)

// Tick brings the elapsed time up to date with the wall clock. Outside of an
// in-progress run it changes nothing, so ticks that arrive after the clock
// stopped are harmless.
func (e *GameEngine) Tick() int {
	if e.phase != PhaseInProgress || !e.running {
		return e.elapsed
	}
	e.updateElapsed()
	return e.elapsed
}

func (e *GameEngine) startClock() {
	e.startedAt = e.now()
	e.elapsed = 0
	e.running = true
}

// stopClock takes a final reading and freezes the elapsed time
func (e *GameEngine) stopClock() {
	if !e.running {
		return
	}
	e.updateElapsed()
	e.running = false
}

// updateElapsed floors the time since start to whole seconds. The value
// never moves backwards, even if the wall clock does.
func (e *GameEngine) updateElapsed() {
	secs := int(e.now().Sub(e.startedAt) / time.Second)
	if secs > e.elapsed {
		e.elapsed = secs
	}
}

// FormatElapsed renders seconds as m:ss
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
