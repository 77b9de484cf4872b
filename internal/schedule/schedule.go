package schedule

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Millis is a 32-bit millisecond timestamp. It wraps roughly every 49.7 days;
// use Since for elapsed time, never a plain comparison.
type Millis uint32

// Since returns the milliseconds elapsed from earlier to m. Unsigned subtraction
// keeps the result correct across a single rollover.
func (m Millis) Since(earlier Millis) uint32 {
	return uint32(m - earlier)
}

// FromDuration converts d to whole milliseconds, saturating at the 32-bit range.
func FromDuration(d time.Duration) uint32 {
	ms := d.Milliseconds()
	if ms < 0 {
		return 0
	}
	if ms > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(ms)
}

type Clock interface {
	Now() Millis
}

// MonotonicClock counts milliseconds since it was created from the runtime's
// monotonic clock, truncated to 32 bits.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) Now() Millis {
	return Millis(uint64(time.Since(c.start).Milliseconds()))
}

// Gate is the bare due-check shared by tasks and sensor drivers.
type Gate struct {
	Interval uint32
	lastRun  Millis
}

func NewGate(interval time.Duration) Gate {
	return Gate{Interval: FromDuration(interval)}
}

func (g *Gate) Due(now Millis) bool {
	return now.Since(g.lastRun) >= g.Interval
}

// Mark resets the reference point to now. Missed periods are dropped, not queued.
func (g *Gate) Mark(now Millis) {
	g.lastRun = now
}

// TryFire reports whether the gate is due and, if so, marks it.
func (g *Gate) TryFire(now Millis) bool {
	if !g.Due(now) {
		return false
	}
	g.Mark(now)
	return true
}

func (g *Gate) LastRun() Millis {
	return g.lastRun
}

// Task is a time-gated, side-effecting action owned by the control loop.
type Task struct {
	Name string
	Gate
	Run func(now Millis)
}

func NewTask(name string, interval time.Duration, run func(now Millis)) *Task {
	return &Task{Name: name, Gate: NewGate(interval), Run: run}
}

// RunIfDue runs the task at most once and reports whether it ran.
func (t *Task) RunIfDue(now Millis) bool {
	if !t.TryFire(now) {
		return false
	}
	log.Debug().Str("task", t.Name).Uint32("now_ms", uint32(now)).Msg("Running scheduled task")
	t.Run(now)
	return true
}
