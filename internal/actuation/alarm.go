package actuation

import "github.com/rs/zerolog/log"

// AlarmListener is told about alarm raise and clear edges.
type AlarmListener interface {
	AlarmChanged(active bool)
}

// AlarmIndicator mirrors the alarm decision onto an output, writing only on change.
type AlarmIndicator struct {
	out       Output
	listeners []AlarmListener
	active    bool
	primed    bool
}

func NewAlarmIndicator(out Output, listeners ...AlarmListener) *AlarmIndicator {
	return &AlarmIndicator{out: out, listeners: listeners}
}

// Apply drives the output to active and reports whether it changed.
func (a *AlarmIndicator) Apply(active bool) bool {
	if a.primed && active == a.active {
		return false
	}
	first := !a.primed
	a.primed = true
	a.active = active
	if a.out != nil {
		a.out.Set(active)
	}
	if first && !active {
		return true
	}
	if active {
		log.Warn().Msg("Alarm raised")
	} else {
		log.Info().Msg("Alarm cleared")
	}
	for _, l := range a.listeners {
		l.AlarmChanged(active)
	}
	return true
}

func (a *AlarmIndicator) Active() bool {
	return a.active
}

// Release turns the output off without notifying listeners.
func (a *AlarmIndicator) Release() {
	if a.out != nil {
		a.out.Set(false)
	}
	a.active = false
	a.primed = false
}
