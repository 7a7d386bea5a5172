package logx

import (
	"time"
)

type Timer struct {
	start time.Time
	id    string
	comp  string
	op    string
}

func Start(id, comp, op string) *Timer {
	return &Timer{
		start: time.Now(),
		id:    id,
		comp:  comp,
		op:    op,
	}
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the elapsed time at debug level and returns it.
func (t *Timer) End() time.Duration {
	elapsed := t.Elapsed()
	get().Debug().
		Str("component", t.comp).
		Str("session", t.id).
		Dur("elapsed", elapsed).
		Msgf("[TIMING] %s", t.op)
	return elapsed
}
